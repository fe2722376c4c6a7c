// Package main provides the hb CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	siteRoot   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hb",
	Short: "Handbook site generation and bookkeeping tools",
	Long: `hb generates the pages of the group handbook site from its data
files and keeps the surrounding bookkeeping up to date.

The record store (data/references.bib) drives the paper pages; sibling
commands cover projects, talks, the events calendar, the repository
inventory, release watching, link audits, and record statistics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Tokens may live in a local .env during development.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yml (default: <site-root>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&siteRoot, "site-root", "", "Handbook site root (overrides config)")
	rootCmd.Version = Version
}
