package links

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BrokenLink is an internal link whose target does not exist (or, for
// PDFs, does not parse).
type BrokenLink struct {
	File   string `json:"file"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Report is the outcome of an audit run.
type Report struct {
	Total    int            `json:"total"`
	External int            `json:"external"`
	Internal int            `json:"internal"`
	ByHost   map[string]int `json:"by_host"`
	Broken   []BrokenLink   `json:"broken"`

	Links []Link `json:"-"`
}

// pageExtensions are the source files the audit walks.
var pageExtensions = map[string]bool{".qmd": true, ".md": true}

// Audit walks root for page sources, extracts and classifies every
// link, and verifies internal targets against the filesystem.
func Audit(root string) (*Report, error) {
	rep := &Report{ByHost: make(map[string]int)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Generated site output and VCS internals are not sources.
			if name := d.Name(); name == ".git" || name == "_site" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !pageExtensions[filepath.Ext(path)] {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		for _, l := range ExtractLinks(src) {
			l.File = rel
			l.URL = NormalizeURL(l.URL)
			l.External = IsExternal(l.URL)
			l.System = SystemKey(l.URL)

			rep.Links = append(rep.Links, l)
			rep.Total++
			if l.External {
				rep.External++
				rep.ByHost[l.System]++
			} else {
				rep.Internal++
				if reason := checkInternalTarget(root, rel, l.URL); reason != "" {
					rep.Broken = append(rep.Broken, BrokenLink{File: rel, URL: l.URL, Reason: reason})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(rep.Broken, func(i, j int) bool {
		if rep.Broken[i].File != rep.Broken[j].File {
			return rep.Broken[i].File < rep.Broken[j].File
		}
		return rep.Broken[i].URL < rep.Broken[j].URL
	})
	return rep, nil
}

// checkInternalTarget resolves an internal link against the site tree
// and returns a non-empty reason when the target is unusable. Pure
// anchors, mailto links, and empty targets are not checked.
func checkInternalTarget(root, fromFile, target string) string {
	if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "mailto:") {
		return ""
	}

	// Drop anchors and query strings.
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return ""
	}

	var resolved string
	if strings.HasPrefix(target, "/") {
		resolved = filepath.Join(root, filepath.FromSlash(target))
	} else {
		resolved = filepath.Join(root, filepath.Dir(fromFile), filepath.FromSlash(target))
	}

	info, err := os.Stat(resolved)
	if err != nil {
		// Site generators rewrite page extensions; accept a source
		// file next to the published name.
		if alt := sourceAlternative(resolved); alt != "" {
			if _, err := os.Stat(alt); err == nil {
				return ""
			}
		}
		return "target not found"
	}

	if !info.IsDir() && strings.EqualFold(filepath.Ext(resolved), ".pdf") {
		if err := ValidatePDF(resolved); err != nil {
			return fmt.Sprintf("unreadable PDF: %v", err)
		}
	}
	return ""
}

// sourceAlternative maps a published .html target to its page source.
func sourceAlternative(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".html") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".qmd"
	}
	return ""
}

// WriteCSV writes the full link inventory.
func WriteCSV(path string, links []Link) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file", "text", "url", "external", "system"}); err != nil {
		return err
	}
	for _, l := range links {
		ext := "false"
		if l.External {
			ext = "true"
		}
		if err := w.Write([]string{l.File, l.Text, l.URL, ext, l.System}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSummary writes the aggregate report as JSON.
func WriteSummary(path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
