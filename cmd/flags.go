package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagHome            = "home"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagLogOutput       = "log-output"
	flagEnableTelemetry = "enable-telemetry"
	flagJSON            = "json"
)

func globalFlags(cmd *cobra.Command) *cobra.Command {
	cmd.PersistentFlags().String(flagHome, defaultHome, "set home directory")
	cmd.PersistentFlags().String(flagLogLevel, "", "override the log level of the config file")
	cmd.PersistentFlags().String(flagLogFormat, "", "override the log format of the config file")
	cmd.PersistentFlags().String(flagLogOutput, "", "override the log output of the config file")
	cmd.PersistentFlags().Bool(flagEnableTelemetry, false, "enable the OpenTelemetry SDK configured by OTEL_* environment variables")
	for _, name := range []string{flagHome, flagLogLevel, flagLogFormat, flagLogOutput, flagEnableTelemetry} {
		if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

// jsonFlag is read with cmd.Flags() since several commands define it.
func jsonFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	return cmd
}
