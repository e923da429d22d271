package config_test

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/minimint/frost"
	"github.com/minimint/frost/config"
	"github.com/minimint/frost/internal/testrand"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func genesis(t *testing.T, peers, maxEvil int) ([]*config.FederationConfig, *config.ClientConfig) {
	t.Helper()
	configs, client, err := config.Genesis(testrand.New(t.Name()), peers, maxEvil, config.DefaultGenesisParams(), quietLogger())
	require.NoError(t, err)
	require.Len(t, configs, peers)
	return configs, client
}

func TestThreshold(t *testing.T) {
	threshold, err := config.Threshold(4, 1)
	require.NoError(t, err)
	require.Equal(t, 3, threshold)

	threshold, err = config.Threshold(1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, threshold)

	_, err = config.Threshold(3, 3)
	require.ErrorIs(t, err, frost.ErrInvalidThreshold)
	_, err = config.Threshold(3, -1)
	require.ErrorIs(t, err, frost.ErrInvalidThreshold)
}

func TestGenesis(t *testing.T) {
	configs, client := genesis(t, 4, 1)

	first, err := configs[0].DecodeJointKey()
	require.NoError(t, err)
	require.Equal(t, 3, first.Threshold)

	for i, cfg := range configs {
		require.Equal(t, frost.ParticipantIndex(i), cfg.PeerID)
		require.Equal(t, config.NetworkRegtest, cfg.Network)
		require.Equal(t, config.DefaultFinalityDelay, cfg.FinalityDelay)
		require.Equal(t, config.DefaultFeeSatsPerKvB, cfg.DefaultFee.SatsPerKvB)
		require.Equal(t, config.DefaultBitcoinRPCAddr, cfg.BitcoinRPC.Address)
		require.Equal(t, config.FeeConsensus{}, cfg.FeeConsensus)
		require.Equal(t, configs[0].JointKey, cfg.JointKey)
		require.NoError(t, cfg.Validate())

		derived, err := cfg.ClientConfig()
		require.NoError(t, err)
		require.Equal(t, client, derived)
	}
	require.NoError(t, client.Validate())

	secrets := make(map[frost.ParticipantIndex]*frost.Scalar)
	for _, cfg := range configs[:first.Threshold] {
		secret, err := cfg.SecretShare()
		require.NoError(t, err)
		secrets[cfg.PeerID] = secret
	}
	secret, err := frost.InterpolateSecret(secrets)
	require.NoError(t, err)
	require.True(t, frost.ScalarBaseMult(secret).Equal(first.PublicKey))
}

func TestGenesisLogsSecurityAssessment(t *testing.T) {
	logger, hook := test.NewNullLogger()
	_, _, err := config.Genesis(testrand.New(t.Name()), 4, 1, config.DefaultGenesisParams(), logger)
	require.NoError(t, err)

	var assessment *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "federation security assessment" {
			assessment = entry
		}
	}
	require.NotNil(t, assessment)
	require.Equal(t, frost.SecurityLevelHigh, assessment.Data["rating"])
	require.Equal(t, 1, assessment.Data["fault_tolerance"])

	hook.Reset()
	_, _, err = config.Genesis(testrand.New(t.Name(), "weak"), 4, 2, config.DefaultGenesisParams(), logger)
	require.NoError(t, err)
	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["max_evil_bft"] == 1 {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestGenesisRejectsBadParameters(t *testing.T) {
	_, _, err := config.Genesis(testrand.New(t.Name()), 3, 3, config.DefaultGenesisParams(), quietLogger())
	require.ErrorIs(t, err, frost.ErrInvalidThreshold)

	params := config.DefaultGenesisParams()
	params.Network = "moonnet"
	_, _, err = config.Genesis(testrand.New(t.Name()), 4, 1, params, quietLogger())
	require.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	configs, client := genesis(t, 4, 1)
	dir := t.TempDir()

	path := filepath.Join(dir, "peer-2", "federation.yaml")
	require.NoError(t, configs[2].Save(path))
	loaded, err := config.LoadFederationConfig(path)
	require.NoError(t, err)
	require.Equal(t, configs[2], loaded)
	require.NoError(t, loaded.Validate())

	clientPath := filepath.Join(dir, "client.yaml")
	require.NoError(t, client.Save(clientPath))
	loadedClient, err := config.LoadClientConfig(clientPath)
	require.NoError(t, err)
	require.Equal(t, client, loadedClient)
}

func TestLoadEnvOverrides(t *testing.T) {
	configs, _ := genesis(t, 4, 1)
	path := filepath.Join(t.TempDir(), "federation.yaml")
	require.NoError(t, configs[0].Save(path))

	t.Setenv("TBS_BITCOIN_RPC_ADDRESS", "10.0.0.7:8332")
	t.Setenv("TBS_BITCOIN_RPC_PASS", "hunter2")
	t.Setenv("TBS_FINALITY_DELAY", "6")

	loaded, err := config.LoadFederationConfig(path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.7:8332", loaded.BitcoinRPC.Address)
	require.Equal(t, config.DefaultBitcoinRPCUser, loaded.BitcoinRPC.User)
	require.Equal(t, "hunter2", loaded.BitcoinRPC.Pass)
	require.Equal(t, uint32(6), loaded.FinalityDelay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.LoadFederationConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateDetectsTampering(t *testing.T) {
	configs, _ := genesis(t, 4, 1)

	swapped := *configs[0]
	swapped.PegInKey = configs[1].PegInKey
	require.ErrorContains(t, swapped.Validate(), "peg_in_key does not match")

	other, _ := genesis(t, 3, 0)
	wrongDescriptor := *configs[0]
	wrongDescriptor.PegInDescriptor = other[0].PegInDescriptor
	require.ErrorContains(t, wrongDescriptor.Validate(), "does not pay to the joint key")

	badNetwork := *configs[0]
	badNetwork.Network = "moonnet"
	badNetwork.BitcoinRPC.Address = ""
	err := badNetwork.Validate()
	require.ErrorContains(t, err, "unknown network")
	require.ErrorContains(t, err, "bitcoin_rpc.address")

	shares := make(map[frost.ParticipantIndex]string)
	for peer, share := range configs[0].PeerVerificationShares {
		shares[peer] = share
	}
	shares[0], shares[1] = shares[1], shares[0]
	badShares := *configs[0]
	badShares.PeerVerificationShares = shares
	require.ErrorContains(t, badShares.Validate(), "verification share does not match")

	jointKey, err := configs[0].DecodeJointKey()
	require.NoError(t, err)
	jointKey.VerificationShares[0], jointKey.VerificationShares[1] = jointKey.VerificationShares[1], jointKey.VerificationShares[0]
	badKey := *configs[0]
	badKey.JointKey, err = frost.EncodeToHex(jointKey)
	require.NoError(t, err)
	require.ErrorIs(t, badKey.Validate(), frost.ErrInvalidShare)
}
