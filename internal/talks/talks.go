// Package talks renders talk pages and the talk map data from the
// talks record store.
package talks

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/record"
)

// Talk is the page-facing view of a talk record.
type Talk struct {
	ID           string
	Title        string
	Venue        string
	Location     string
	Date         string
	SlidesURL    string
	HowPublished string
	PaperKey     string
	Latitude     string
	Longitude    string
}

// FromRecord maps a store record onto a Talk. The venue falls back to
// the eventtitle field, the type note to howpublished or note.
func FromRecord(r *record.Record) Talk {
	return Talk{
		ID:           r.Key,
		Title:        strings.Trim(r.Get("title"), "{}"),
		Venue:        r.Get("venue", "eventtitle"),
		Location:     r.Get("location"),
		Date:         r.Get("date"),
		SlidesURL:    r.Get("url"),
		HowPublished: r.Get("howpublished", "note"),
		PaperKey:     r.Get("paper_key"),
		Latitude:     r.Get("latitude"),
		Longitude:    r.Get("longitude"),
	}
}

// LoadTalks reads the talks store in key order.
func LoadTalks(path string) ([]Talk, error) {
	store, err := bibtex.Load(path)
	if err != nil {
		return nil, err
	}
	talks := make([]Talk, 0, len(store.Keys))
	for _, key := range store.Keys {
		talks = append(talks, FromRecord(store.Get(key)))
	}
	return talks, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug picks the output file stem. Slides paths already carry a date
// prefix, so their first path component (or file stem) wins; records
// without slides fall back to date plus title.
func (t Talk) Slug() string {
	if t.SlidesURL != "" {
		if i := strings.Index(t.SlidesURL, "/"); i > 0 {
			return t.SlidesURL[:i]
		}
		base := filepath.Base(t.SlidesURL)
		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." {
			return stem
		}
	}

	slug := nonSlug.ReplaceAllString(strings.ToLower(t.Title), "_")
	slug = strings.Trim(slug, "_")
	if t.Date != "" {
		prefix := strings.ReplaceAll(t.Date, "-", "_")
		if slug == "" {
			return prefix
		}
		return prefix + "_" + slug
	}
	if slug == "" {
		return "talk"
	}
	return slug
}

func escapeYAML(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

// RenderPage renders one talk page.
func (t Talk) RenderPage() string {
	meta := []string{
		"---",
		fmt.Sprintf("title: %q", t.Title),
	}
	appendMeta := func(name, value string) {
		if value != "" {
			meta = append(meta, fmt.Sprintf(`%s: "%s"`, name, escapeYAML(value)))
		}
	}
	appendMeta("date", t.Date)
	appendMeta("location", t.Location)
	appendMeta("venue", t.Venue)
	appendMeta("bibtex_id", t.ID)
	appendMeta("howpublished", t.HowPublished)
	appendMeta("paper_key", t.PaperKey)
	meta = append(meta, "format: html", "---")

	var info []string
	appendInfo := func(label, metaName string) {
		info = append(info, fmt.Sprintf("- **%s:** {{< meta %s >}}", label, metaName))
	}
	if t.Venue != "" {
		appendInfo("Venue", "venue")
	}
	if t.Location != "" {
		appendInfo("Location", "location")
	}
	if t.Date != "" {
		appendInfo("Date", "date")
	}
	if t.HowPublished != "" {
		appendInfo("Type", "howpublished")
	}
	infoBlock := "_Details not available._"
	if len(info) > 0 {
		infoBlock = strings.Join(info, "\n")
	}

	var materials []string
	if t.SlidesURL != "" {
		materials = append(materials, fmt.Sprintf("- [Slides](%s)", t.SlidesURL))
	}
	if t.PaperKey != "" {
		materials = append(materials, fmt.Sprintf("- [Paper](../papers/%s.html)", t.PaperKey))
	}
	materialsBlock := "_No materials linked._"
	if len(materials) > 0 {
		materialsBlock = strings.Join(materials, "\n")
	}

	var b strings.Builder
	b.WriteString(strings.Join(meta, "\n"))
	b.WriteString("\n\n## Talk information\n\n")
	b.WriteString(infoBlock)
	if t.PaperKey != "" {
		fmt.Fprintf(&b, "\n\n**Related paper:** [Link](../papers/%s.html)\n", t.PaperKey)
	}
	b.WriteString("\n\n## Materials\n\n")
	b.WriteString(materialsBlock)
	b.WriteString("\n")
	return b.String()
}

// Generate writes one page per talk into outDir.
func Generate(talks []Talk, outDir string, log io.Writer) (created int, err error) {
	if log == nil {
		log = io.Discard
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	for _, t := range talks {
		outPath := filepath.Join(outDir, t.Slug()+".qmd")
		if err := os.WriteFile(outPath, []byte(t.RenderPage()), 0644); err != nil {
			return created, fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(log, "written: %s\n", outPath)
		created++
	}
	return created, nil
}

// WritePlacesCSV exports the talks that carry coordinates, feeding the
// talk map on the site.
func WritePlacesCSV(path string, talks []Talk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "venue", "location", "date", "latitude", "longitude"}); err != nil {
		return err
	}
	for _, t := range talks {
		if t.Latitude == "" || t.Longitude == "" {
			continue
		}
		row := []string{t.ID, t.Title, t.Venue, t.Location, t.Date, t.Latitude, t.Longitude}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
