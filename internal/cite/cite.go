// Package cite renders bibliographic records as copy-paste citation
// blocks: reconstructed BibTeX, RIS, and an APA-style string.
package cite

import (
	"fmt"
	"strings"

	"github.com/fs-ise/handbook-tools/internal/record"
)

// risTypes maps BibTeX entry types to RIS reference type tags.
var risTypes = map[string]string{
	"article":       "JOUR",
	"inproceedings": "CONF",
	"proceedings":   "CONF",
	"conference":    "CONF",
	"book":          "BOOK",
	"phdthesis":     "THES",
	"mastersthesis": "THES",
	"techreport":    "RPRT",
}

// BibTeX reconstructs a BibTeX entry from a record, omitting fields in
// the exclude set and the keywords field. Values are collapsed to a
// single line; the final field line carries no trailing comma.
func BibTeX(rec *record.Record, exclude map[string]bool) string {
	var fieldLines []string
	for _, name := range rec.Order {
		if exclude[name] || name == "keywords" {
			continue
		}
		value := rec.Fields[name]
		if value == "" {
			continue
		}
		value = strings.Join(strings.Fields(value), " ")
		fieldLines = append(fieldLines, fmt.Sprintf("  %-10s = {%s},", name, value))
	}
	if len(fieldLines) > 0 {
		last := len(fieldLines) - 1
		fieldLines[last] = strings.TrimSuffix(fieldLines[last], ",")
	}

	entryType := rec.Type
	if entryType == "" {
		entryType = "article"
	}

	lines := append([]string{fmt.Sprintf("@%s{%s,", entryType, rec.Key)}, fieldLines...)
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

// RIS converts a record into a single RIS entry.
func RIS(rec *record.Record) string {
	risType, ok := risTypes[strings.ToLower(rec.Type)]
	if !ok {
		risType = "GEN"
	}

	lines := []string{"TY  - " + risType}

	for _, a := range strings.Split(rec.Get("author"), record.AuthorSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			lines = append(lines, "AU  - "+a)
		}
	}

	if title := rec.Get("title"); title != "" {
		lines = append(lines, "TI  - "+title)
	}
	if outlet := rec.Get("journal", "booktitle"); outlet != "" {
		lines = append(lines, "T2  - "+outlet)
	}
	if year := strings.TrimSpace(rec.Get("year")); year != "" {
		lines = append(lines, "PY  - "+year)
	}
	if v := rec.Get("volume"); v != "" {
		lines = append(lines, "VL  - "+v)
	}
	if n := rec.Get("number"); n != "" {
		lines = append(lines, "IS  - "+n)
	}
	if pages := rec.Get("pages"); pages != "" {
		if sp, ep, ok := strings.Cut(pages, "--"); ok {
			lines = append(lines, "SP  - "+strings.TrimSpace(sp))
			lines = append(lines, "EP  - "+strings.TrimSpace(ep))
		} else {
			lines = append(lines, "SP  - "+strings.TrimSpace(pages))
		}
	}
	if doi := rec.Get("doi"); doi != "" {
		lines = append(lines, "DO  - "+doi)
	}
	if url := rec.Get("url"); url != "" {
		lines = append(lines, "UR  - "+url)
	}

	lines = append(lines, "ER  - ")
	return strings.Join(lines, "\n")
}
