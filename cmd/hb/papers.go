package main

import (
	"fmt"
	"os"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/papers"
	"github.com/spf13/cobra"
)

var papersClean bool

func init() {
	rootCmd.AddCommand(papersCmd)
	papersCmd.Flags().BoolVar(&papersClean, "clean", false, "Wipe the output directory before generation")
}

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Generate one page per bibliographic record",
	Long: `Generate one Quarto page per record of the record store and export
a cleaned references.bib (internal bookkeeping fields stripped) for
download. With --clean, stale pages are wiped first; without it,
existing pages are left untouched.`,
	RunE: runPapers,
}

func runPapers(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	store, err := bibtex.Load(cfg.Path(cfg.ReferencesBib))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if cfg.CleanReferences != "" {
		if err := bibtex.Write(cfg.Path(cfg.CleanReferences), store, bibtex.StripForReferences); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", cfg.Path(cfg.CleanReferences))
	}

	var template string
	if cfg.PaperTemplate != "" {
		data, err := os.ReadFile(cfg.Path(cfg.PaperTemplate))
		if err != nil {
			exitWithError(ExitConfigError, "reading paper template: %v", err)
		}
		template = string(data)
	}

	gen := &papers.Generator{
		Store:        store,
		OutputDir:    cfg.Path(cfg.PapersOutput),
		TemplateBody: template,
		Clean:        papersClean,
		Log:          os.Stderr,
	}
	res, err := gen.Run()
	if err != nil {
		return err
	}

	fmt.Printf("created: %d, skipped: %d\n", res.Created, res.Skipped)
	return nil
}
