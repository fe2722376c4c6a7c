package papers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
)

// Generator writes one page per record into OutputDir.
type Generator struct {
	Store     *bibtex.Store
	OutputDir string

	// TemplateBody is appended to every page body (usually empty).
	TemplateBody string

	// Clean wipes the output directory before generation. Without it,
	// existing pages are treated as a do-not-overwrite signal.
	Clean bool

	// Now supplies the clock for the self-archiving flags. Defaults to
	// time.Now.
	Now func() time.Time

	// Log receives per-record progress and warnings. Defaults to
	// io.Discard.
	Log io.Writer
}

// Result reports the outcome of a generation run.
type Result struct {
	Created int
	Skipped int
}

// RenderPage renders the full page (front matter + body) for a record.
func (g *Generator) RenderPage(key string) (string, error) {
	rec := g.Store.Get(key)
	if rec == nil {
		return "", fmt.Errorf("unknown citation key %q", key)
	}

	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}

	header, err := buildFrontMatter(rec, now)
	if err != nil {
		return "", err
	}
	return header + buildBody(rec, g.TemplateBody), nil
}

// Run generates all pages. Records without a citation key are skipped
// with a warning; pages whose destination file already exists are
// skipped silently. Page renders are independent per record.
func (g *Generator) Run() (Result, error) {
	var res Result

	log := g.Log
	if log == nil {
		log = io.Discard
	}

	if g.Clean {
		if err := cleanDir(g.OutputDir); err != nil {
			return res, err
		}
	}
	if err := os.MkdirAll(g.OutputDir, 0755); err != nil {
		return res, fmt.Errorf("creating output directory: %w", err)
	}

	for _, key := range g.Store.Keys {
		if key == "" {
			fmt.Fprintf(log, "warning: skipping record without citation key\n")
			res.Skipped++
			continue
		}

		outPath := filepath.Join(g.OutputDir, key+".qmd")
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(log, "skipping existing file: %s\n", outPath)
			res.Skipped++
			continue
		}

		content, err := g.RenderPage(key)
		if err != nil {
			return res, err
		}
		if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
			return res, fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(log, "created %s\n", outPath)
		res.Created++
	}

	return res, nil
}

// cleanDir removes all files and subdirectories inside dir, keeping
// dir itself. A missing dir is fine.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading output directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clearing output directory: %w", err)
		}
	}
	return nil
}
