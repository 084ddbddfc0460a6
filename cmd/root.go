package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicer/internal/config"
	"invoicer/internal/logger"
)

var version = "1.0.0"

// loader holds the configuration loaded by main. Commands read it through
// appConfig so they always see the latest reloaded values.
var loader *config.Loader

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Turn order records into invoices",
	Long: `Invoicer converts order records (JSON) into invoice records with exact
VAT arithmetic, optionally rendering each invoice as a PDF.

Two input layouts are accepted: {"order": {...}} with a VAT percentage per
product line, and {"factuur": {...}} with a VAT amount per unit from which the
percentage is derived. Output is always {"factuur": {...}}.

Configuration is read from invoicer.yml (working directory or /etc/invoicer),
INVOICER_* environment variables and a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with the given configuration.
func Execute(l *config.Loader) {
	log := logger.WithComponent("cmd")
	loader = l

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func appConfig() *config.Config {
	if loader == nil {
		cfg := config.Default()
		return &cfg
	}
	return loader.Get()
}

// stringFlag returns the flag value if it was set, otherwise fallback.
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func boolFlag(cmd *cobra.Command, name string, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return fallback
}
