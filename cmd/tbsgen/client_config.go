package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/minimint/frost/config"
)

const flagConfig = "config"

// clientConfigCmd prints the client view of a member configuration.
func clientConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client-config",
		Args:  cobra.NoArgs,
		Short: "Print the client configuration derived from a federation member configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.v.GetString(flagConfig)
			if path == "" {
				return fmt.Errorf("--%s is required", flagConfig)
			}
			cmd.SilenceUsage = true

			cfg, err := config.LoadFederationConfig(path)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration %s: %w", path, err)
			}
			client, err := cfg.ClientConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(client)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().String(flagConfig, "", "path to a federation member configuration")
	return cmd
}
