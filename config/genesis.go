package config

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/minimint/frost"
)

// GenesisParams are the federation-wide settings chosen at genesis.
type GenesisParams struct {
	Network       Network
	FinalityDelay uint32
	DefaultFee    Feerate
	BitcoinRPC    BitcoinRPC
	FeeConsensus  FeeConsensus
}

// DefaultGenesisParams returns regtest settings.
func DefaultGenesisParams() GenesisParams {
	return GenesisParams{
		Network:       DefaultNetwork,
		FinalityDelay: DefaultFinalityDelay,
		DefaultFee:    Feerate{SatsPerKvB: DefaultFeeSatsPerKvB},
		BitcoinRPC: BitcoinRPC{
			Address: DefaultBitcoinRPCAddr,
			User:    DefaultBitcoinRPCUser,
			Pass:    DefaultBitcoinRPCPass,
		},
	}
}

// Genesis runs key generation for a federation of peers members tolerating
// maxEvil faulty ones and returns each member's configuration, indexed by
// peer id, plus the client configuration.
func Genesis(rng io.Reader, peers, maxEvil int, params GenesisParams, logger logrus.FieldLogger) ([]*FederationConfig, *ClientConfig, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := params.Network.Validate(); err != nil {
		return nil, nil, err
	}
	threshold, err := Threshold(peers, maxEvil)
	if err != nil {
		return nil, nil, err
	}
	result := frost.NewDefaultThresholdValidator().ValidateThresholdParameters(peers, threshold)
	if err := result.Err(); err != nil {
		return nil, nil, err
	}
	for _, warning := range result.Warnings {
		logger.WithField("threshold", threshold).Warn(warning)
	}
	assessment := frost.AssessSecurity(peers, threshold)
	fields := logrus.Fields{
		"peers":             peers,
		"threshold":         threshold,
		"rating":            assessment.OverallRating,
		"fault_tolerance":   assessment.FaultTolerance,
		"attack_resistance": assessment.AttackResistance,
		"availability_risk": assessment.AvailabilityRisk,
	}
	if limit := frost.MaxEvilForParticipants(peers); maxEvil > limit {
		logger.WithFields(fields).WithField("max_evil_bft", limit).
			Warn("federation tolerates more faulty members than byzantine agreement allows")
	} else {
		logger.WithFields(fields).Info("federation security assessment")
	}

	secrets, jointKey, err := frost.SimulateKeyGen(rng, threshold, peers, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("genesis key generation: %w", err)
	}
	defer frost.ZeroizeScalarSlice(secrets)

	encodedKey, err := frost.EncodeToHex(jointKey)
	if err != nil {
		return nil, nil, err
	}
	verificationShares := make(map[frost.ParticipantIndex]string, peers)
	for i, share := range jointKey.VerificationShares {
		encoded, err := frost.EncodeToHex(share)
		if err != nil {
			return nil, nil, err
		}
		verificationShares[frost.ParticipantIndex(i)] = encoded
	}
	descriptor := PegInDescriptor(jointKey)

	configs := make([]*FederationConfig, peers)
	for i, secret := range secrets {
		encodedSecret, err := frost.EncodeToHex(secret)
		if err != nil {
			return nil, nil, err
		}
		shares := make(map[frost.ParticipantIndex]string, len(verificationShares))
		for peer, share := range verificationShares {
			shares[peer] = share
		}
		configs[i] = &FederationConfig{
			PeerID:                 frost.ParticipantIndex(i),
			Network:                params.Network,
			PegInDescriptor:        descriptor,
			PeerVerificationShares: shares,
			PegInKey:               encodedSecret,
			JointKey:               encodedKey,
			FinalityDelay:          params.FinalityDelay,
			DefaultFee:             params.DefaultFee,
			BitcoinRPC:             params.BitcoinRPC,
			FeeConsensus:           params.FeeConsensus,
		}
	}

	logger.WithFields(logrus.Fields{
		"peers":      peers,
		"threshold":  threshold,
		"descriptor": descriptor,
	}).Info("generated federation configuration")

	return configs, newClientConfig(params.Network, jointKey, params.FinalityDelay, params.FeeConsensus), nil
}
