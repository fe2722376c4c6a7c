// Package papers renders one site page per bibliographic record and
// drives the batch generation run.
package papers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fs-ise/handbook-tools/internal/record"
	"gopkg.in/yaml.v3"
)

// metricsInclude is pulled in after the body so the impact-metrics
// badges can hydrate.
const metricsInclude = "../../assets/metrics-scripts.html"

// DefaultCategory is used when a record carries no keywords.
const DefaultCategory = "research-paper"

// frontMatter is the page header consumed by the site generator.
// Field order here is the emission order.
type frontMatter struct {
	Title           string          `yaml:"title"`
	Date            string          `yaml:"date"`
	DateFormat      string          `yaml:"date-format"`
	Categories      []string        `yaml:"categories,flow"`
	Keywords        []string        `yaml:"keywords,flow"`
	DOI             string          `yaml:"doi,omitempty"`
	URL             string          `yaml:"url,omitempty"`
	JournalName     string          `yaml:"journal.name,omitempty"`
	Outlet          string          `yaml:"outlet,omitempty"`
	Author          string          `yaml:"author,omitempty"`
	Authors         []record.Author `yaml:"authors,omitempty"`
	CitationKey     string          `yaml:"citation_key,omitempty"`
	FreeFulltext    bool            `yaml:"free_fulltext"`
	SelfArchiving1y bool            `yaml:"self_archiving_possible_1y"`
	SelfArchiving2y bool            `yaml:"self_archiving_possible_2y"`
	Format          formatBlock     `yaml:"format"`
}

type formatBlock struct {
	HTML struct {
		IncludeAfterBody string `yaml:"include-after-body"`
	} `yaml:"html"`
}

// availability reports whether any full-text or author-copy reference
// is present on the record.
func availability(rec *record.Record) bool {
	return rec.Get("fulltext_oa") != "" ||
		rec.Get("author_copy_url") != "" ||
		rec.Get("author_copy_file") != ""
}

// parseYear extracts a publication year from the first four runes of
// the year field. Non-numeric years are treated as absent.
func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 4 {
		raw = raw[:4]
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return y, true
}

// selfArchivingFlags computes the embargo milestones. Only records
// without free full text and with a parseable year qualify; at age >= 2
// the 2-year milestone supersedes (and clears) the 1-year one.
func selfArchivingFlags(rec *record.Record, now time.Time) (oneYear, twoYear bool) {
	if availability(rec) {
		return false, false
	}
	year, ok := parseYear(rec.Get("year"))
	if !ok {
		return false, false
	}

	age := now.Year() - year
	if age >= 1 {
		oneYear = true
	}
	if age >= 2 {
		oneYear = false
		twoYear = true
	}
	return oneYear, twoYear
}

// buildFrontMatter assembles the YAML header for a record.
func buildFrontMatter(rec *record.Record, now time.Time) (string, error) {
	keywords := rec.Keywords()
	categories := keywords
	if len(categories) == 0 {
		categories = []string{DefaultCategory}
	}
	if keywords == nil {
		keywords = []string{}
	}

	oneYear, twoYear := selfArchivingFlags(rec, now)

	fm := frontMatter{
		Title:           strings.TrimSpace(rec.Get("title")),
		Date:            strings.TrimSpace(rec.Get("year")),
		DateFormat:      "YYYY",
		Categories:      categories,
		Keywords:        keywords,
		DOI:             strings.TrimSpace(rec.Get("doi")),
		URL:             strings.TrimSpace(rec.Get("url")),
		JournalName:     strings.TrimSpace(rec.Get("journal", "journal.name")),
		Outlet:          strings.TrimSpace(rec.Get("outlet", "journal", "booktitle")),
		Author:          strings.TrimSpace(rec.Get("author")),
		Authors:         rec.Authors(),
		CitationKey:     rec.Key,
		FreeFulltext:    availability(rec),
		SelfArchiving1y: oneYear,
		SelfArchiving2y: twoYear,
	}
	fm.Format.HTML.IncludeAfterBody = metricsInclude

	data, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("encoding front matter for %s: %w", rec.Key, err)
	}
	return "---\n" + string(data) + "---\n\n", nil
}
