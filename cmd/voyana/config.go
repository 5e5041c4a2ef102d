package main

import (
	"github.com/spf13/cobra"

	"github.com/briculinos/voyana/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a commented default configuration to the --config path.
Secrets are referenced as ${ENV_VAR} placeholders and resolved from the
environment at load time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(configFile); err != nil {
			return err
		}
		cmd.Printf("Wrote default configuration to %s\n", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Render(cfg)
		if err != nil {
			return err
		}
		cmd.Print(out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
