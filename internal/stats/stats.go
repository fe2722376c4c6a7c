// Package stats aggregates the record store for the site dashboard.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/record"
)

// OutletCount is one outlet with its publication count.
type OutletCount struct {
	Outlet string `json:"outlet"`
	Count  int    `json:"count"`
}

// Report holds the aggregated record statistics.
type Report struct {
	Total           int            `json:"total"`
	PerYear         map[string]int `json:"per_year"`
	PerType         map[string]int `json:"per_type"`
	TopOutlets      []OutletCount  `json:"top_outlets"`
	OpenAccess      int            `json:"open_access"`
	OpenAccessShare float64        `json:"open_access_share"`
}

// TopOutletLimit caps the outlet ranking.
const TopOutletLimit = 10

// Aggregate computes the report over the whole store.
func Aggregate(store *bibtex.Store) *Report {
	rep := &Report{
		PerYear: make(map[string]int),
		PerType: make(map[string]int),
	}

	outlets := make(map[string]int)
	for _, key := range store.Keys {
		rec := store.Get(key)
		rep.Total++

		if y := year(rec); y != "" {
			rep.PerYear[y]++
		}

		entryType := strings.ToLower(rec.Type)
		if entryType == "" {
			entryType = "unknown"
		}
		rep.PerType[entryType]++

		if outlet := strings.TrimSpace(rec.Get("journal", "booktitle", "outlet")); outlet != "" {
			outlets[outlet]++
		}

		if openAccess(rec) {
			rep.OpenAccess++
		}
	}

	for outlet, n := range outlets {
		rep.TopOutlets = append(rep.TopOutlets, OutletCount{Outlet: outlet, Count: n})
	}
	sort.Slice(rep.TopOutlets, func(i, j int) bool {
		if rep.TopOutlets[i].Count != rep.TopOutlets[j].Count {
			return rep.TopOutlets[i].Count > rep.TopOutlets[j].Count
		}
		return rep.TopOutlets[i].Outlet < rep.TopOutlets[j].Outlet
	})
	if len(rep.TopOutlets) > TopOutletLimit {
		rep.TopOutlets = rep.TopOutlets[:TopOutletLimit]
	}

	if rep.Total > 0 {
		rep.OpenAccessShare = float64(rep.OpenAccess) / float64(rep.Total)
	}
	return rep
}

// year extracts the four-digit year prefix of the year or date field.
func year(r *record.Record) string {
	raw := strings.TrimSpace(r.Get("year", "date"))
	if len(raw) < 4 {
		return ""
	}
	raw = raw[:4]
	for _, c := range raw {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return raw
}

// openAccess reports whether a record has a freely readable full text:
// an OA link, an open oa_status, or an archived author copy.
func openAccess(r *record.Record) bool {
	if r.Get("fulltext_oa") != "" {
		return true
	}
	if strings.EqualFold(r.Get("oa_status"), "open") {
		return true
	}
	return r.Get("author_copy_url", "author_copy_file") != ""
}

// WriteJSON writes the report for the site dashboard.
func WriteJSON(path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding statistics: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
