// Package config holds the on-disk configuration of federation members and
// clients, and generates both at genesis.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/minimint/frost"
)

const (
	DefaultFinalityDelay   uint32 = 10
	DefaultFeeSatsPerKvB   uint64 = 1000
	DefaultBitcoinRPCAddr         = "127.0.0.1:18443"
	DefaultBitcoinRPCUser         = "bitcoin"
	DefaultBitcoinRPCPass         = "bitcoin"
	DefaultNetwork                = NetworkRegtest

	// EnvPrefix prefixes environment overrides, e.g. TBS_BITCOIN_RPC_ADDRESS.
	EnvPrefix = "TBS"
)

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkSignet  Network = "signet"
	NetworkRegtest Network = "regtest"
)

func (n Network) Validate() error {
	switch n {
	case NetworkMainnet, NetworkTestnet, NetworkSignet, NetworkRegtest:
		return nil
	}
	return fmt.Errorf("unknown network %q", n)
}

// Feerate is a bitcoin fee rate in satoshi per 1000 virtual bytes.
type Feerate struct {
	SatsPerKvB uint64 `yaml:"sats_per_kvb"`
}

// FeeConsensus holds the fees, in millisatoshi, every member charges.
type FeeConsensus struct {
	PegInAbs  uint64 `yaml:"peg_in_abs"`
	PegOutAbs uint64 `yaml:"peg_out_abs"`
}

// BitcoinRPC is the member's bitcoind connection.
type BitcoinRPC struct {
	Address string `yaml:"address"`
	User    string `yaml:"user"`
	Pass    string `yaml:"pass"`
}

// FederationConfig maps to the on-disk yaml of one federation member. It is
// written once at genesis and holds the member's secret share.
type FederationConfig struct {
	PeerID                 frost.ParticipantIndex            `yaml:"peer_id"`
	Network                Network                           `yaml:"network"`
	PegInDescriptor        string                            `yaml:"peg_in_descriptor"`
	PeerVerificationShares map[frost.ParticipantIndex]string `yaml:"peer_verification_shares"`
	PegInKey               string                            `yaml:"peg_in_key"`
	JointKey               string                            `yaml:"joint_key"`
	FinalityDelay          uint32                            `yaml:"finality_delay"`
	DefaultFee             Feerate                           `yaml:"default_fee"`
	BitcoinRPC             BitcoinRPC                        `yaml:"bitcoin_rpc"`
	FeeConsensus           FeeConsensus                      `yaml:"fee_consensus"`
}

// ClientConfig is the public part of the federation configuration handed to
// clients.
type ClientConfig struct {
	Network         Network      `yaml:"network"`
	PegInDescriptor string       `yaml:"peg_in_descriptor"`
	JointPublicKey  string       `yaml:"joint_public_key"`
	Threshold       int          `yaml:"threshold"`
	FinalityDelay   uint32       `yaml:"finality_delay"`
	FeeConsensus    FeeConsensus `yaml:"fee_consensus"`
}

// Threshold returns the signing threshold of a federation of peers members
// of which at most maxEvil misbehave.
func Threshold(peers, maxEvil int) (int, error) {
	return frost.ThresholdFromMaxEvil(peers, maxEvil)
}

// SecretShare decodes the member's secret share.
func (c *FederationConfig) SecretShare() (*frost.Scalar, error) {
	share := new(frost.Scalar)
	if err := frost.DecodeFromHex(c.PegInKey, share); err != nil {
		return nil, fmt.Errorf("peg_in_key: %w", err)
	}
	return share, nil
}

// DecodeJointKey decodes the joint key.
func (c *FederationConfig) DecodeJointKey() (*frost.JointKey, error) {
	jointKey := new(frost.JointKey)
	if err := frost.DecodeFromHex(c.JointKey, jointKey); err != nil {
		return nil, fmt.Errorf("joint_key: %w", err)
	}
	return jointKey, nil
}

// ClientConfig derives the configuration clients of the federation use.
func (c *FederationConfig) ClientConfig() (*ClientConfig, error) {
	jointKey, err := c.DecodeJointKey()
	if err != nil {
		return nil, err
	}
	return newClientConfig(c.Network, jointKey, c.FinalityDelay, c.FeeConsensus), nil
}

func newClientConfig(network Network, jointKey *frost.JointKey, finalityDelay uint32, fees FeeConsensus) *ClientConfig {
	xonly := jointKey.XOnly()
	return &ClientConfig{
		Network:         network,
		PegInDescriptor: PegInDescriptor(jointKey),
		JointPublicKey:  fmt.Sprintf("%x", xonly[:]),
		Threshold:       jointKey.Threshold,
		FinalityDelay:   finalityDelay,
		FeeConsensus:    fees,
	}
}

// Validate checks the configuration is internally consistent: the secret
// share matches the member's verification share and the descriptor pays to
// the joint key. All problems are reported together.
func (c *FederationConfig) Validate() error {
	var errs []error
	if err := c.Network.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.BitcoinRPC.Address == "" {
		errs = append(errs, errors.New("bitcoin_rpc.address is empty"))
	}
	if c.FinalityDelay == 0 {
		errs = append(errs, errors.New("finality_delay must be positive"))
	}

	jointKey, err := c.DecodeJointKey()
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	if err := jointKey.VerifyShares(); err != nil {
		return errors.Join(append(errs, fmt.Errorf("joint_key: %w", err))...)
	}
	if result := frost.NewDefaultThresholdValidator().ValidateThresholdParameters(jointKey.Participants(), jointKey.Threshold); !result.Valid {
		errs = append(errs, result.Err())
	}

	if key, err := ParsePegInDescriptor(c.PegInDescriptor); err != nil {
		errs = append(errs, fmt.Errorf("peg_in_descriptor: %w", err))
	} else if key != jointKey.XOnly() {
		errs = append(errs, errors.New("peg_in_descriptor does not pay to the joint key"))
	}

	if len(c.PeerVerificationShares) != jointKey.Participants() {
		errs = append(errs, fmt.Errorf("%d peer verification shares for %d participants", len(c.PeerVerificationShares), jointKey.Participants()))
	}
	for peer, encoded := range c.PeerVerificationShares {
		expected, err := jointKey.VerificationShare(peer)
		if err != nil {
			errs = append(errs, fmt.Errorf("peer %d: %w", peer, err))
			continue
		}
		share := new(frost.Point)
		if err := frost.DecodeFromHex(encoded, share); err != nil {
			errs = append(errs, fmt.Errorf("peer %d verification share: %w", peer, err))
			continue
		}
		if !share.Equal(expected) {
			errs = append(errs, fmt.Errorf("peer %d verification share does not match the joint key", peer))
		}
	}

	secret, err := c.SecretShare()
	if err != nil {
		errs = append(errs, err)
	} else {
		defer secret.Zeroize()
		expected, err := jointKey.VerificationShare(c.PeerID)
		if err != nil {
			errs = append(errs, fmt.Errorf("peer_id: %w", err))
		} else if !frost.ScalarBaseMult(secret).Equal(expected) {
			errs = append(errs, errors.New("peg_in_key does not match the verification share of peer_id"))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	var errs []error
	if err := c.Network.Validate(); err != nil {
		errs = append(errs, err)
	}
	key, err := ParsePegInDescriptor(c.PegInDescriptor)
	if err != nil {
		errs = append(errs, fmt.Errorf("peg_in_descriptor: %w", err))
	} else if fmt.Sprintf("%x", key[:]) != c.JointPublicKey {
		errs = append(errs, errors.New("peg_in_descriptor does not pay to joint_public_key"))
	}
	if c.Threshold < 1 {
		errs = append(errs, errors.New("threshold must be positive"))
	}
	return errors.Join(errs...)
}

// LoadFederationConfig reads a member configuration from path. Bitcoin RPC
// settings and the finality delay may be overridden from the environment.
func LoadFederationConfig(path string) (*FederationConfig, error) {
	v, bz, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	cfg := new(FederationConfig)
	if err := yaml.UnmarshalStrict(bz, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if v.IsSet("bitcoin_rpc.address") {
		cfg.BitcoinRPC.Address = v.GetString("bitcoin_rpc.address")
	}
	if v.IsSet("bitcoin_rpc.user") {
		cfg.BitcoinRPC.User = v.GetString("bitcoin_rpc.user")
	}
	if v.IsSet("bitcoin_rpc.pass") {
		cfg.BitcoinRPC.Pass = v.GetString("bitcoin_rpc.pass")
	}
	if v.IsSet("finality_delay") {
		cfg.FinalityDelay = v.GetUint32("finality_delay")
	}
	return cfg, nil
}

// LoadClientConfig reads a client configuration from path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	_, bz, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	cfg := new(ClientConfig)
	if err := yaml.UnmarshalStrict(bz, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func readConfig(path string) (*viper.Viper, []byte, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	bz, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		return nil, nil, err
	}
	return v, bz, nil
}

// Save writes the configuration to path, readable by the owner only.
func (c *FederationConfig) Save(path string) error {
	return writeYaml(path, c, 0600)
}

// Save writes the client configuration to path.
func (c *ClientConfig) Save(path string) error {
	return writeYaml(path, c, 0644)
}

func writeYaml(path string, v interface{}, perm os.FileMode) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, out, perm)
}
