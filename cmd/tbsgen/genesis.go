package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minimint/frost"
	"github.com/minimint/frost/config"
)

const (
	flagPeers         = "peers"
	flagMaxEvil       = "max-evil"
	flagNetwork       = "network"
	flagOutputDir     = "out"
	flagFinalityDelay = "finality-delay"

	federationConfigFile = "federation.yaml"
	clientConfigFile     = "client.yaml"
)

func peerDir(out string, peer int) string {
	return filepath.Join(out, fmt.Sprintf("peer_%d", peer))
}

// genesisCmd generates the keys and configuration of a new federation with a
// trusted dealer run in this process.
func genesisCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Args:  cobra.NoArgs,
		Short: "Generate keys and configuration for every member of a new federation",
		RunE: func(cmd *cobra.Command, args []string) error {
			peers := c.v.GetInt(flagPeers)
			maxEvil := c.v.GetInt(flagMaxEvil)
			network := config.Network(c.v.GetString(flagNetwork))

			var errs []error
			if peers < 1 || peers > frost.MaxParticipants {
				errs = append(errs, fmt.Errorf("--%s must be between 1 and %d", flagPeers, frost.MaxParticipants))
			}
			if maxEvil < 0 || maxEvil >= peers {
				errs = append(errs, fmt.Errorf("--%s must be >= 0 and < --%s", flagMaxEvil, flagPeers))
			}
			if err := network.Validate(); err != nil {
				errs = append(errs, err)
			}
			if len(errs) > 0 {
				return errors.Join(errs...)
			}

			out := c.v.GetString(flagOutputDir)
			if out == "" {
				home, err := c.home()
				if err != nil {
					return err
				}
				out = home
			}

			// silence usage after all input has been validated
			cmd.SilenceUsage = true

			params := config.DefaultGenesisParams()
			params.Network = network
			params.FinalityDelay = c.v.GetUint32(flagFinalityDelay)

			configs, client, err := config.Genesis(frost.SecureRandom, peers, maxEvil, params, c.logger)
			if err != nil {
				return err
			}
			for i, cfg := range configs {
				path := filepath.Join(peerDir(out, i), federationConfigFile)
				if err := cfg.Save(path); err != nil {
					return fmt.Errorf("write configuration of peer %d: %w", i, err)
				}
				c.logger.WithField("peer", i).WithField("path", path).Debug("wrote federation configuration")
			}
			clientPath := filepath.Join(out, clientConfigFile)
			if err := client.Save(clientPath); err != nil {
				return fmt.Errorf("write client configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %d-of-%d federation in %s\n", client.Threshold, peers, out)
			fmt.Fprintf(cmd.OutOrStdout(), "Peg-in descriptor: %s\n", client.PegInDescriptor)
			return nil
		},
	}

	f := cmd.Flags()
	f.Int(flagPeers, 4, "number of federation members")
	f.Int(flagMaxEvil, 1, "number of members that may be faulty; threshold is peers - max-evil")
	f.String(flagNetwork, string(config.DefaultNetwork), "bitcoin network (mainnet, testnet, signet, regtest)")
	f.String(flagOutputDir, "", "output directory (default is the home directory)")
	f.Uint32(flagFinalityDelay, config.DefaultFinalityDelay, "confirmations required before a peg-in is accepted")
	return cmd
}
