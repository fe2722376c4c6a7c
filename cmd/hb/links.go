package main

import (
	"fmt"
	"os"

	"github.com/fs-ise/handbook-tools/internal/links"
	"github.com/spf13/cobra"
)

var linksFix bool

func init() {
	rootCmd.AddCommand(linksCmd)
	linksCmd.Flags().BoolVar(&linksFix, "fix", false, "Rewrite external links to open in a new tab before auditing")
}

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Audit internal and external links in the site sources",
	Long: `Walk the site tree, extract every link from the .qmd/.md sources,
and verify internal targets against the filesystem (PDF targets must
parse). Writes a CSV inventory and a JSON summary; exits non-zero when
broken links remain.

With --fix, external links in non-root page sources are first rewritten
in place with a {target=_blank} attribute block.`,
	RunE: runLinks,
}

func runLinks(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if linksFix {
		changed, err := links.Fix(cfg.SiteRoot)
		if err != nil {
			return err
		}
		for _, f := range changed {
			fmt.Printf("rewrote %s\n", f)
		}
	}

	rep, err := links.Audit(cfg.SiteRoot)
	if err != nil {
		return err
	}

	if err := links.WriteCSV(cfg.Path(cfg.LinksCSV), rep.Links); err != nil {
		return err
	}
	if err := links.WriteSummary(cfg.Path(cfg.LinksSummary), rep); err != nil {
		return err
	}

	fmt.Printf("%d links (%d external, %d internal), %d broken\n",
		rep.Total, rep.External, rep.Internal, len(rep.Broken))

	if len(rep.Broken) > 0 {
		for _, b := range rep.Broken {
			fmt.Fprintf(os.Stderr, "broken: %s -> %s (%s)\n", b.File, b.URL, b.Reason)
		}
		os.Exit(ExitDataError)
	}
	return nil
}
