package main

import (
	"fmt"
	"os"

	"github.com/fs-ise/handbook-tools/internal/talks"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(talksCmd)
}

var talksCmd = &cobra.Command{
	Use:   "talks",
	Short: "Generate talk pages and the talk places CSV",
	RunE:  runTalks,
}

func runTalks(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	list, err := talks.LoadTalks(cfg.Path(cfg.TalksBib))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	created, err := talks.Generate(list, cfg.Path(cfg.TalksOutput), os.Stderr)
	if err != nil {
		return err
	}

	csvPath := cfg.Path(cfg.TalkPlacesCSV)
	if err := talks.WritePlacesCSV(csvPath, list); err != nil {
		return err
	}

	fmt.Printf("created: %d, wrote %s\n", created, csvPath)
	return nil
}
