package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
)

func configCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "manage configuration file",
		RunE:    noCommand,
	}

	cmd.AddCommand(
		configShowCmd(ctx),
		configInitCmd(ctx),
	)

	return cmd
}

// Command for inititalizing the default config at the --home location
func configInitCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.ConfigPath(ctx.HomePath)
			if _, err := os.Stat(cfgPath); !os.IsNotExist(err) {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			if err := config.DefaultConfig().Save(cfgPath); err != nil {
				return fmt.Errorf("failed to write config %s: %v", cfgPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", cfgPath)
			return nil
		},
	}
	return cmd
}

// Command for printing current configuration
func configShowCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.Config.ConfigPath == "" {
				return fmt.Errorf("config does not exist: %s", config.ConfigPath(ctx.HomePath))
			}

			var (
				out []byte
				err error
			)
			asJSON, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			if asJSON {
				out, err = config.MarshalJSON(*ctx.Config)
			} else {
				out, err = config.MarshalYAML(*ctx.Config)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	return jsonFlag(cmd)
}

// initConfig reads in config file and applies the flags that override it.
func initConfig(ctx *config.Context, cmd *cobra.Command) error {
	home, err := cmd.Flags().GetString(flagHome)
	if err != nil {
		return err
	}
	ctx.HomePath = home

	if _, err := os.Stat(config.ConfigPath(home)); err == nil {
		cfg, err := config.Load(home)
		if err != nil {
			return err
		}
		ctx.Config = cfg
	} else {
		defConfig := config.DefaultConfig()
		ctx.Config = &defConfig
	}

	lc := &ctx.Config.Global.Logger
	if v := viper.GetString(flagLogLevel); v != "" {
		lc.Level = v
	}
	if v := viper.GetString(flagLogFormat); v != "" {
		lc.Format = v
	}
	if v := viper.GetString(flagLogOutput); v != "" {
		lc.Output = v
	}
	return nil
}
