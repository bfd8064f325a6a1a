package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/internal/telemetry"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
)

const appName = "ylr"

var defaultHome = filepath.Join(os.Getenv("HOME"), ".yui-lane-relayer")

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(modules ...config.ModuleI) error {
	return NewRootCmd(modules...).ExecuteContext(context.Background())
}

// NewRootCmd returns the root command with the given modules.
func NewRootCmd(modules ...config.ModuleI) *cobra.Command {
	// rootCmd represents the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use:   appName,
		Short: "This application relays messages over the configured bridge lanes",
	}
	cobra.EnableCommandSorting = false
	rootCmd.SilenceUsage = true

	ctx := &config.Context{Modules: modules}
	var shutdownOTel func(context.Context) error

	globalFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// reads `homeDir/config/config.yaml` into `ctx.Config` before each command
		if err := initConfig(ctx, cmd); err != nil {
			return err
		}

		enableTelemetry, err := cmd.Flags().GetBool(flagEnableTelemetry)
		if err != nil {
			return err
		}
		lc := ctx.Config.Global.Logger
		if err := log.InitLogger(lc.Level, lc.Format, lc.Output, enableTelemetry); err != nil {
			return err
		}
		if !enableTelemetry {
			return nil
		}

		shutdown, err := telemetry.SetupOTelSDK(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to set up the OpenTelemetry SDK: %v", err)
		}
		shutdownOTel = shutdown
		if err := telemetry.InitializeMetrics(); err != nil {
			return fmt.Errorf("failed to initialize the metrics: %v", err)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if shutdownOTel == nil {
			return nil
		}
		return shutdownOTel(cmd.Context())
	}

	rootCmd.AddCommand(
		configCmd(ctx),
		serviceCmd(ctx),
		relayersCmd(ctx),
		modulesCmd(ctx),
	)

	return rootCmd
}

// noCommand is the RunE of commands that only group subcommands
func noCommand(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}
