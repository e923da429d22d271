package main

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minimint/frost/config"
)

const (
	flagHome     = "home"
	flagLogLevel = "log-level"
)

// cli carries the state shared by all subcommands of one invocation.
type cli struct {
	v      *viper.Viper
	logger *logrus.Logger
}

func rootCmd() *cobra.Command {
	c := &cli{
		v:      viper.New(),
		logger: logrus.New(),
	}

	cmd := &cobra.Command{
		Use:   "tbsgen",
		Short: "Generate the configuration of a threshold blind signing federation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}
	cmd.PersistentFlags().String(flagHome, "", "Directory for generated configuration (default is $HOME/.tbs)")
	cmd.PersistentFlags().String(flagLogLevel, "info", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(genesisCmd(c))
	cmd.AddCommand(clientConfigCmd(c))
	return cmd
}

func (c *cli) init(cmd *cobra.Command) error {
	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(c.v.GetString(flagLogLevel))
	if err != nil {
		return err
	}
	c.logger.SetOutput(cmd.ErrOrStderr())
	c.logger.SetLevel(level)
	return nil
}

// home returns the configured home directory, falling back to ~/.tbs.
func (c *cli) home() (string, error) {
	if home := c.v.GetString(flagHome); home != "" {
		return homedir.Expand(home)
	}
	userHome, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, ".tbs"), nil
}
