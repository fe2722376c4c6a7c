package papers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/record"
)

// fixedNow pins the clock so the self-archiving flags are stable.
var fixedNow = func() time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func testStore(recs ...*record.Record) *bibtex.Store {
	s := &bibtex.Store{Records: make(map[string]*record.Record)}
	for _, r := range recs {
		s.Add(r)
	}
	return s
}

func fullRecord() *record.Record {
	r := record.New("Smith2020", "article")
	r.Set("author", "Smith, John and Doe, Jane")
	r.Set("title", "Digital Work")
	r.Set("journal", "J")
	r.Set("year", "2020")
	r.Set("volume", "1")
	r.Set("pages", "10--20")
	r.Set("doi", "10.1234/test")
	r.Set("abstract", "This paper studies digital work.")
	r.Set("keywords", "digital work; open source")
	return r
}

func renderOne(t *testing.T, rec *record.Record) string {
	t.Helper()
	g := &Generator{Store: testStore(rec), Now: fixedNow}
	page, err := g.RenderPage(rec.Key)
	if err != nil {
		t.Fatalf("RenderPage() error: %v", err)
	}
	return page
}

func TestRenderPage_AbstractVerbatim(t *testing.T) {
	page := renderOne(t, fullRecord())

	if !strings.Contains(page, "# Summary") {
		t.Error("page missing summary section")
	}
	if !strings.Contains(page, "This paper studies digital work.") {
		t.Error("abstract not contained verbatim in body")
	}
}

func TestRenderPage_FrontMatterKeys(t *testing.T) {
	page := renderOne(t, fullRecord())
	header := strings.SplitN(page, "---\n\n", 2)[0]

	for _, want := range []string{
		"title: Digital Work",
		`date: "2020"`,
		"date-format: YYYY",
		"categories: [digital work, open source]",
		"doi: 10.1234/test",
		"journal.name: J",
		"authors:",
		"- name: Smith, John",
		"citation_key: Smith2020",
		"free_fulltext: false",
		"self_archiving_possible_1y: false",
		"self_archiving_possible_2y: true",
		"include-after-body: ../../assets/metrics-scripts.html",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("front matter missing %q:\n%s", want, header)
		}
	}
}

func TestRenderPage_CategoriesFallback(t *testing.T) {
	r := record.New("NoKw2020", "article")
	r.Set("title", "T")
	page := renderOne(t, r)

	if !strings.Contains(page, "categories: [research-paper]") {
		t.Errorf("missing categories fallback:\n%s", page)
	}
}

func TestSelfArchivingFlags(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name     string
		year     string
		fulltext string
		want1y   bool
		want2y   bool
	}{
		{name: "two years old", year: "2020", want2y: true},
		{name: "one year old", year: "2025", want1y: true},
		{name: "current year", year: "2026"},
		{name: "malformed year", year: "forthcoming"},
		{name: "free fulltext suppresses flags", year: "2020", fulltext: "papers/x.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record.New("x", "article")
			r.Set("year", tt.year)
			if tt.fulltext != "" {
				r.Set("fulltext_oa", tt.fulltext)
			}
			got1y, got2y := selfArchivingFlags(r, now)
			if got1y != tt.want1y || got2y != tt.want2y {
				t.Errorf("selfArchivingFlags() = (%v, %v), want (%v, %v)",
					got1y, got2y, tt.want1y, tt.want2y)
			}
		})
	}
}

func TestRenderPage_NoAvailabilityNoFlags(t *testing.T) {
	r := record.New("Bare2026", "article")
	r.Set("title", "T")
	r.Set("year", "2026")
	page := renderOne(t, r)

	for _, want := range []string{
		"free_fulltext: false",
		"self_archiving_possible_1y: false",
		"self_archiving_possible_2y: false",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderPage_Buttons(t *testing.T) {
	r := fullRecord()
	r.Set("oa_status", "open")
	r.Set("fulltext_oa", "papers/smith2020.pdf")
	r.Set("author_copy_url", "https://example.org/copy.pdf")
	page := renderOne(t, r)

	if !strings.Contains(page, "Open access PDF") {
		t.Error("open oa_status should label the PDF button Open access PDF")
	}
	if !strings.Contains(page, `href="/papers/smith2020.pdf"`) {
		t.Error("local full-text path should be rewritten root-relative")
	}
	if !strings.Contains(page, "Author copy") {
		t.Error("author copy button missing")
	}
	if !strings.Contains(page, "https://doi.org/10.1234/test") {
		t.Error("landing link should resolve the DOI")
	}
	if !strings.Contains(page, "free_fulltext: true") {
		t.Error("availability flag should be true with full text present")
	}
}

func TestRenderPage_FulltextTODO(t *testing.T) {
	r := fullRecord()
	r.Set("fulltext_oa", "TODO")
	page := renderOne(t, r)

	if strings.Contains(page, "<iframe") {
		t.Error("TODO full text must not be embedded")
	}
	// The sentinel still counts as an availability signal.
	if !strings.Contains(page, "free_fulltext: true") {
		t.Error("TODO full text still sets free_fulltext")
	}
}

func TestRenderPage_ResourcesMerged(t *testing.T) {
	r := fullRecord()
	r.Set("dataset_url", "https://example.org/data")
	r.Set("dataset_doi", "10.5555/data")
	page := renderOne(t, r)

	if !strings.Contains(page, "- Dataset: <https://example.org/data> (DOI: <https://doi.org/10.5555/data>)") {
		t.Errorf("dataset URL and DOI should merge into one line:\n%s", page)
	}
}

func TestRenderPage_NoEmptySections(t *testing.T) {
	r := record.New("Minimal2020", "article")
	r.Set("title", "T")
	page := renderOne(t, r)

	for _, absent := range []string{"## Additional resources", "<iframe", "metrics-row", "# Summary"} {
		if strings.Contains(page, absent) {
			t.Errorf("minimal record should not render %q", absent)
		}
	}
	// Citations still render from the title alone.
	if !strings.Contains(page, "## Citation (APA style)") {
		t.Error("APA section should render when a title is present")
	}
}

func TestRenderPage_CitationBlocks(t *testing.T) {
	page := renderOne(t, fullRecord())

	if !strings.Contains(page, "Smith, J. &amp; Doe, J. (2020). Digital Work. *J* 1, 10–20. https://doi.org/10.1234/test") {
		t.Errorf("APA citation wrong or not escaped:\n%s", page)
	}
	if !strings.Contains(page, "```bibtex\n@article{Smith2020,") {
		t.Error("BibTeX block missing")
	}
	if !strings.Contains(page, "TY  - JOUR") || !strings.Contains(page, "ER  - ") {
		t.Error("RIS block missing")
	}
}

func TestMergeTemplate_StripsLeadingSummary(t *testing.T) {
	got := mergeTemplate("# Summary\n\n\nCustom notes here.\n")
	if got != "Custom notes here." {
		t.Errorf("mergeTemplate() = %q", got)
	}

	// Only a verbatim leading heading is stripped.
	got = mergeTemplate("Intro\n\n# Summary\n\nrest")
	if !strings.Contains(got, "# Summary") {
		t.Errorf("non-leading heading must be kept: %q", got)
	}
}

func TestRun_CreatedAndSkippedCounts(t *testing.T) {
	r2 := record.New("Doe2021", "inproceedings")
	r2.Set("title", "Second")
	store := testStore(fullRecord(), r2)

	dir := t.TempDir()
	g := &Generator{Store: store, OutputDir: dir, Now: fixedNow}

	res, err := g.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Errorf("first run = %+v, want Created 2 Skipped 0", res)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("output dir has %d files, want 2", len(entries))
	}

	// Second run: existing files are a do-not-overwrite signal.
	res, err = g.Run()
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if res.Created != 0 || res.Skipped != 2 {
		t.Errorf("second run = %+v, want Created 0 Skipped 2", res)
	}
}

func TestRun_CleanWipesDirectory(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.qmd")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	g := &Generator{Store: testStore(fullRecord()), OutputDir: dir, Clean: true, Now: fixedNow}
	res, err := g.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Created != 1 {
		t.Errorf("Created = %d, want 1", res.Created)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file should be removed by Clean")
	}
	if _, err := os.Stat(filepath.Join(dir, "subdir")); !os.IsNotExist(err) {
		t.Error("subdirectory should be removed by Clean")
	}
}

func TestRun_SkipsRecordWithoutKey(t *testing.T) {
	r := record.New("", "article")
	r.Set("title", "Orphan")
	store := testStore(fullRecord(), r)

	var log strings.Builder
	g := &Generator{Store: store, OutputDir: t.TempDir(), Now: fixedNow, Log: &log}

	res, err := g.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Created != 1 || res.Skipped != 1 {
		t.Errorf("Run() = %+v, want Created 1 Skipped 1", res)
	}
	if !strings.Contains(log.String(), "warning") {
		t.Errorf("missing warning for keyless record: %q", log.String())
	}
}
