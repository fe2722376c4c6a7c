package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/ghapi"
	"github.com/fs-ise/handbook-tools/internal/record"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestPyPIProject(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://pypi.org/project/colrev/", "colrev"},
		{"https://pypi.org/project/colrev", "colrev"},
		{"https://github.com/CoLRev-Environment/colrev", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := record.New("X", "software")
		r.Set("url_pypi", tt.url)
		if got := PyPIProject(r); got != tt.want {
			t.Errorf("PyPIProject(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func pypiServer(t *testing.T, versions map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "pypi" || parts[2] != "json" {
			http.NotFound(w, r)
			return
		}
		version, ok := versions[parts[1]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"info": {"version": "` + version +
			`", "package_url": "https://pypi.org/project/` + parts[1] + `/"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func softwareRecord(key, project, version string) *record.Record {
	r := record.New(key, "software")
	r.Set("title", key)
	r.Set("url_pypi", "https://pypi.org/project/"+project+"/")
	if version != "" {
		r.Set("version", version)
	}
	return r
}

func TestRun_UpdatesChangedVersions(t *testing.T) {
	srv := pypiServer(t, map[string]string{"colrev": "0.12.0", "search-query": "1.0.1"})

	store := &bibtex.Store{Records: make(map[string]*record.Record)}
	store.Add(softwareRecord("ColRev", "colrev", "0.11.0"))
	store.Add(softwareRecord("SearchQuery", "search-query", "1.0.1"))
	paper := record.New("Smith2020", "article")
	paper.Set("title", "Unrelated")
	store.Add(paper)

	var log strings.Builder
	w := &Watcher{
		PyPI: &PyPIClient{BaseURL: srv.URL, HTTPClient: srv.Client()},
		Now:  fixedNow,
		Log:  &log,
	}

	changed, err := w.Run(context.Background(), store)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(changed) != 1 || changed[0].Project != "colrev" {
		t.Fatalf("changed = %+v, want only colrev", changed)
	}
	if changed[0].Version != "0.12.0" {
		t.Errorf("Version = %q", changed[0].Version)
	}

	rec := store.Get("ColRev")
	if got := rec.Get("version"); got != "0.12.0" {
		t.Errorf("stored version = %q, want 0.12.0", got)
	}
	if got := rec.Get("urldate"); got != "2026-03-01" {
		t.Errorf("urldate = %q, want 2026-03-01", got)
	}
	if got := store.Get("SearchQuery").Get("urldate"); got != "" {
		t.Errorf("unchanged record should keep its urldate, got %q", got)
	}
}

func TestRun_MissingProjectIsWarning(t *testing.T) {
	srv := pypiServer(t, nil)

	store := &bibtex.Store{Records: make(map[string]*record.Record)}
	store.Add(softwareRecord("Gone", "gone", "1.0.0"))
	noPyPI := record.New("NoPyPI", "software")
	noPyPI.Set("url_github", "https://github.com/fs-ise/tool")
	store.Add(noPyPI)

	var log strings.Builder
	w := &Watcher{
		PyPI: &PyPIClient{BaseURL: srv.URL, HTTPClient: srv.Client()},
		Now:  fixedNow,
		Log:  &log,
	}

	changed, err := w.Run(context.Background(), store)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("changed = %+v, want none", changed)
	}
	if !strings.Contains(log.String(), "not found") {
		t.Errorf("missing project warning absent: %q", log.String())
	}
	if !strings.Contains(log.String(), "no PyPI project") {
		t.Errorf("missing url_pypi warning absent: %q", log.String())
	}
}

func TestRun_FetchesGitHubNotes(t *testing.T) {
	pypi := pypiServer(t, map[string]string{"colrev": "0.12.0"})

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/CoLRev-Environment/colrev/releases/tags/0.12.0":
			http.NotFound(w, r)
		case "/repos/CoLRev-Environment/colrev/releases/tags/v0.12.0":
			w.Write([]byte(`{"tag_name": "v0.12.0", "body": "- New search sources\n",
				"html_url": "https://github.com/CoLRev-Environment/colrev/releases/tag/v0.12.0"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer gh.Close()

	rec := softwareRecord("ColRev", "colrev", "0.11.0")
	rec.Set("url_github", "https://github.com/CoLRev-Environment/colrev")
	store := &bibtex.Store{Records: make(map[string]*record.Record)}
	store.Add(rec)

	w := &Watcher{
		PyPI:   &PyPIClient{BaseURL: pypi.URL, HTTPClient: pypi.Client()},
		GitHub: ghapi.NewClient(ghapi.WithBaseURL(gh.URL), ghapi.WithHTTPClient(gh.Client())),
		Now:    fixedNow,
	}

	changed, err := w.Run(context.Background(), store)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("changed = %+v", changed)
	}
	if changed[0].Notes != "- New search sources" {
		t.Errorf("Notes = %q", changed[0].Notes)
	}
	if !strings.Contains(changed[0].NotesURL, "/releases/tag/v0.12.0") {
		t.Errorf("NotesURL = %q", changed[0].NotesURL)
	}
}

func TestAppendNews(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.qmd")
	w := &Watcher{Now: fixedNow}

	releases := []Info{
		{Project: "colrev", Version: "0.12.0", PyPIURL: "https://pypi.org/project/colrev/",
			Notes: "First line\nSecond line"},
		{Project: "search-query", Version: "1.0.1", PyPIURL: "https://pypi.org/project/search-query/",
			NotesURL: "https://github.com/x/y/releases/tag/v1.0.1"},
	}
	if err := w.AppendNews(path, releases); err != nil {
		t.Fatalf("AppendNews() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	for _, want := range []string{
		`title: "News"`,
		"# News",
		"## 2026-03-01",
		"- **colrev** v0.12.0 (https://pypi.org/project/colrev/)",
		"  > First line\n  > Second line",
		"  Release notes: https://github.com/x/y/releases/tag/v1.0.1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("news missing %q:\n%s", want, got)
		}
	}

	// Appending again must not duplicate the header.
	if err := w.AppendNews(path, releases[:1]); err != nil {
		t.Fatalf("AppendNews() second run error: %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.Count(string(data), "# News") != 1 {
		t.Errorf("header duplicated:\n%s", data)
	}
	if strings.Count(string(data), "## 2026-03-01") != 2 {
		t.Errorf("second section not appended:\n%s", data)
	}
}

func TestTrimNotes(t *testing.T) {
	long := strings.Repeat("x", MaxNotesChars+100)
	got := trimNotes(long)
	if len(got) > MaxNotesChars+2 {
		t.Errorf("trimNotes did not truncate: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated notes should end with ellipsis")
	}

	if got := trimNotes("  short  "); got != "short" {
		t.Errorf("trimNotes(short) = %q", got)
	}
}
