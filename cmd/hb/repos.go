package main

import (
	"fmt"
	"os"

	"github.com/fs-ise/handbook-tools/internal/repos"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reposCmd)
}

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Collect the org repository inventory into repos.json",
	Long: `Query the GitHub API for the repositories of the configured
organizations and write their metadata (description, topics, area,
workflow status) to the repos.json consumed by the site. Responses are
cached in a local SQLite database so reruns stay within rate limits.`,
	RunE: runRepos,
}

func runRepos(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if len(cfg.Repos.Orgs) == 0 {
		exitWithError(ExitConfigError, "no organizations configured (repos.orgs)")
	}

	client, cleanup := newGitHubClient(cfg)
	defer cleanup()
	if err := client.RequireToken(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	collector := &repos.Collector{
		Client:       client,
		WorkflowPath: cfg.Repos.Workflow,
		Log:          os.Stderr,
	}
	entries, err := collector.Collect(cmd.Context(), cfg.Repos.Orgs)
	if err != nil {
		return err
	}

	outPath := cfg.Path(cfg.ReposOutput)
	if err := repos.WriteJSON(outPath, entries); err != nil {
		return err
	}

	fmt.Printf("wrote %d repository records to %s\n", len(entries), outPath)
	return nil
}
