package main

import (
	"fmt"
	"os"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/release"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(releasesCmd)
}

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Watch PyPI for new releases of software records",
	Long: `Check the latest PyPI version of every software record in the
record store. Records whose stored version changed get their version
and urldate updated, and a dated section with release notes is
appended to the news page. The record store is the only state.`,
	RunE: runReleases,
}

func runReleases(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	storePath := cfg.Path(cfg.ReferencesBib)
	store, err := bibtex.Load(storePath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	client, cleanup := newGitHubClient(cfg)
	defer cleanup()

	watcher := release.NewWatcher(client)
	watcher.Log = os.Stderr

	changed, err := watcher.Run(cmd.Context(), store)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		fmt.Println("no new releases (versions unchanged)")
		return nil
	}

	if err := bibtex.Write(storePath, store, nil); err != nil {
		return err
	}
	newsPath := cfg.Path(cfg.NewsFile)
	if err := watcher.AppendNews(newsPath, changed); err != nil {
		return err
	}

	fmt.Printf("updated %d version field(s) in %s, appended news entry to %s\n",
		len(changed), storePath, newsPath)
	return nil
}
