package main

import (
	"fmt"
	"os"

	"github.com/fs-ise/handbook-tools/internal/projects"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(projectsCmd)
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Generate project pages from data/projects.yml",
	RunE:  runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	list, err := projects.Load(cfg.Path(cfg.ProjectsFile))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	opts := projects.Options{
		PapersBasePath:   cfg.PapersBasePath,
		DataFileURL:      cfg.ProjectsDataURL,
		RequestAccessURL: cfg.RequestAccessURL,
	}
	created, skipped, err := projects.Generate(list, cfg.Path(cfg.ProjectsOutput), opts, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("created: %d, skipped: %d\n", created, skipped)
	return nil
}
