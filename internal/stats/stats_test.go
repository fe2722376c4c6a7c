package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/record"
)

func makeStore(recs ...*record.Record) *bibtex.Store {
	s := &bibtex.Store{Records: make(map[string]*record.Record)}
	for _, r := range recs {
		s.Add(r)
	}
	return s
}

func rec(key, entryType string, fields map[string]string) *record.Record {
	r := record.New(key, entryType)
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func TestAggregate(t *testing.T) {
	store := makeStore(
		rec("A", "article", map[string]string{
			"year": "2020", "journal": "MISQ", "fulltext_oa": "https://x/a.pdf",
		}),
		rec("B", "article", map[string]string{
			"year": "2020", "journal": "MISQ",
		}),
		rec("C", "inproceedings", map[string]string{
			"date": "2021-06-01", "booktitle": "ICIS", "oa_status": "open",
		}),
		rec("D", "software", map[string]string{
			"title": "colrev",
		}),
		rec("E", "article", map[string]string{
			"year": "forthcoming", "journal": "JAIS", "author_copy_url": "https://x/e.pdf",
		}),
	)

	rep := Aggregate(store)

	if rep.Total != 5 {
		t.Errorf("Total = %d, want 5", rep.Total)
	}
	if rep.PerYear["2020"] != 2 || rep.PerYear["2021"] != 1 {
		t.Errorf("PerYear = %v", rep.PerYear)
	}
	if _, ok := rep.PerYear["fort"]; ok {
		t.Errorf("non-numeric year counted: %v", rep.PerYear)
	}
	if rep.PerType["article"] != 3 || rep.PerType["inproceedings"] != 1 || rep.PerType["software"] != 1 {
		t.Errorf("PerType = %v", rep.PerType)
	}

	if len(rep.TopOutlets) != 3 {
		t.Fatalf("TopOutlets = %v", rep.TopOutlets)
	}
	if rep.TopOutlets[0].Outlet != "MISQ" || rep.TopOutlets[0].Count != 2 {
		t.Errorf("TopOutlets[0] = %+v", rep.TopOutlets[0])
	}
	// Ties break alphabetically.
	if rep.TopOutlets[1].Outlet != "ICIS" || rep.TopOutlets[2].Outlet != "JAIS" {
		t.Errorf("tie order: %v", rep.TopOutlets)
	}

	if rep.OpenAccess != 3 {
		t.Errorf("OpenAccess = %d, want 3", rep.OpenAccess)
	}
	if rep.OpenAccessShare != 0.6 {
		t.Errorf("OpenAccessShare = %v, want 0.6", rep.OpenAccessShare)
	}
}

func TestAggregate_Empty(t *testing.T) {
	rep := Aggregate(makeStore())
	if rep.Total != 0 || rep.OpenAccessShare != 0 {
		t.Errorf("empty store: %+v", rep)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	rep := Aggregate(makeStore(
		rec("A", "article", map[string]string{"year": "2020", "journal": "MISQ"}),
	))

	if err := WriteJSON(path, rep); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"total": 1`, `"2020": 1`, `"outlet": "MISQ"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON missing %q:\n%s", want, data)
		}
	}
}
