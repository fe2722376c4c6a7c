package main

import (
	"fmt"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/stats"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate record statistics for the site dashboard",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	store, err := bibtex.Load(cfg.Path(cfg.ReferencesBib))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	rep := stats.Aggregate(store)
	outPath := cfg.Path(cfg.StatsOutput)
	if err := stats.WriteJSON(outPath, rep); err != nil {
		return err
	}

	fmt.Printf("aggregated %d records into %s\n", rep.Total, outPath)
	return nil
}
