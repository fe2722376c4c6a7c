package links

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// httpLinkPattern matches an inline markdown link with an http(s)
// destination, optionally followed by an attribute block.
var httpLinkPattern = regexp.MustCompile(`(\[[^\]]+\]\((http[^\)]+)\))(\{[^}]*\})?`)

// targetBlankPattern matches a target blank attribute in either the
// quoted or the bare form.
var targetBlankPattern = regexp.MustCompile(`target\s*=\s*("_blank"|_blank)`)

// Badge and image URLs render inline; opening them in a new tab makes
// no sense.
var (
	skipRewriteSubstrings = []string{"img.shields.io"}
	skipRewriteSuffixes   = []string{".png", ".svg"}
)

func skipRewrite(url string) bool {
	for _, s := range skipRewriteSubstrings {
		if strings.Contains(url, s) {
			return true
		}
	}
	for _, s := range skipRewriteSuffixes {
		if strings.HasSuffix(url, s) {
			return true
		}
	}
	return false
}

// AddTargetBlank rewrites external inline links so they open in a new
// tab, appending a {target=_blank} attribute block unless the link
// already carries one. Existing attribute blocks keep their content;
// the colon-prefixed "{: ...}" form is normalized to plain braces.
func AddTargetBlank(content string) (string, bool) {
	out := httpLinkPattern.ReplaceAllStringFunc(content, func(m string) string {
		parts := httpLinkPattern.FindStringSubmatch(m)
		link, url, attrs := parts[1], parts[2], parts[3]

		if skipRewrite(url) {
			return m
		}
		if attrs == "" {
			return link + "{target=_blank}"
		}
		if targetBlankPattern.MatchString(attrs) {
			return m
		}

		inner := strings.TrimSpace(attrs[1 : len(attrs)-1])
		inner = strings.TrimSpace(strings.TrimPrefix(inner, ":"))
		if inner == "" {
			return link + "{ target=_blank }"
		}
		return link + "{ " + inner + " target=_blank }"
	})
	return out, out != content
}

// Fix rewrites the external links of every page source below root in
// place. Root-level files are left alone; landing pages keep their
// hand-tuned link attributes. Returns the rewritten files relative to
// root.
func Fix(root string) ([]string, error) {
	var changed []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name == ".git" || name == "_site" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !pageExtensions[filepath.Ext(path)] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if !strings.Contains(rel, string(filepath.Separator)) {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		out, rewritten := AddTargetBlank(string(src))
		if !rewritten {
			return nil
		}
		if err := os.WriteFile(path, []byte(out), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		changed = append(changed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return changed, nil
}
