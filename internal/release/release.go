// Package release tracks new PyPI releases of the group's software
// records and feeds them into the news page. The record store itself
// is the state; no separate state file exists.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/ghapi"
	"github.com/fs-ise/handbook-tools/internal/record"
)

// MaxNotesChars caps release notes in news entries to keep the page
// readable.
const MaxNotesChars = 1200

// ErrProjectNotFound is returned for PyPI projects that do not exist.
var ErrProjectNotFound = errors.New("PyPI project not found")

// Info describes one release found during a run.
type Info struct {
	RecordID string
	Project  string
	Version  string
	PyPIURL  string
	Notes    string
	NotesURL string
}

// PyPIClient queries the PyPI JSON API.
type PyPIClient struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// NewPyPIClient returns a client against pypi.org.
func NewPyPIClient() *PyPIClient {
	return &PyPIClient{
		BaseURL:    "https://pypi.org",
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5.0), 1),
	}
}

// LatestVersion fetches the latest version and package URL of a PyPI
// project. ErrProjectNotFound wraps a 404.
func (c *PyPIClient) LatestVersion(ctx context.Context, project string) (version, pypiURL string, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", "", err
		}
	}

	url := fmt.Sprintf("%s/pypi/%s/json", c.BaseURL, project)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetching %s: %w", project, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", "", fmt.Errorf("%s: %w", project, ErrProjectNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetching %s: unexpected status %d", project, resp.StatusCode)
	}

	var payload struct {
		Info struct {
			Version    string `json:"version"`
			PackageURL string `json:"package_url"`
		} `json:"info"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", fmt.Errorf("decoding PyPI response for %s: %w", project, err)
	}
	return payload.Info.Version, payload.Info.PackageURL, nil
}

// PyPIProject extracts the project name from a software record's
// url_pypi field, expected as https://pypi.org/project/<name>/.
func PyPIProject(r *record.Record) string {
	raw := strings.TrimSpace(r.Get("url_pypi", "pypi"))
	if !strings.HasPrefix(raw, "https://pypi.org/project/") {
		return ""
	}
	raw = strings.TrimRight(raw, "/")
	return raw[strings.LastIndex(raw, "/")+1:]
}

// Watcher runs the release check over a record store.
type Watcher struct {
	PyPI   *PyPIClient
	GitHub *ghapi.Client
	// Now supplies the urldate and news date; overridable in tests.
	Now func() time.Time
	Log io.Writer
}

// NewWatcher wires a watcher with live clients.
func NewWatcher(gh *ghapi.Client) *Watcher {
	return &Watcher{PyPI: NewPyPIClient(), GitHub: gh, Now: time.Now}
}

func (w *Watcher) logf(format string, args ...any) {
	if w.Log != nil {
		fmt.Fprintf(w.Log, format, args...)
	}
}

func (w *Watcher) today() string {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format("2006-01-02")
}

// Run checks every software record against PyPI and updates version
// and urldate in place for records whose stored version changed.
// It returns only the changed releases; fetch failures for single
// projects are logged, not fatal.
func (w *Watcher) Run(ctx context.Context, store *bibtex.Store) ([]Info, error) {
	var changed []Info
	for _, key := range store.Keys {
		rec := store.Get(key)
		if !strings.EqualFold(rec.Type, "software") {
			continue
		}

		project := PyPIProject(rec)
		if project == "" {
			w.logf("warning: no PyPI project for software record %s\n", key)
			continue
		}

		version, pypiURL, err := w.PyPI.LatestVersion(ctx, project)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return changed, err
			}
			w.logf("warning: %v\n", err)
			continue
		}

		if rec.Get("version") == version {
			continue
		}

		info := Info{RecordID: key, Project: project, Version: version, PyPIURL: pypiURL}
		info.Notes, info.NotesURL = w.releaseNotes(ctx, rec, version)

		rec.Set("version", version)
		rec.Set("urldate", w.today())
		changed = append(changed, info)
	}

	sort.Slice(changed, func(i, j int) bool {
		return strings.ToLower(changed[i].Project) < strings.ToLower(changed[j].Project)
	})
	return changed, nil
}

// releaseNotes looks up GitHub release notes for the version, trying
// the version tag first and the latest release as fallback.
func (w *Watcher) releaseNotes(ctx context.Context, rec *record.Record, version string) (notes, notesURL string) {
	if w.GitHub == nil {
		return "", ""
	}

	gh := rec.Get("url_github", "github")
	if gh == "" {
		return "", ""
	}
	owner, repo, err := ghapi.ParseRepoURL(gh)
	if err != nil {
		return "", ""
	}

	rel, err := w.GitHub.ReleaseByTag(ctx, owner, repo, version)
	if errors.Is(err, ghapi.ErrNotFound) {
		rel, err = w.GitHub.LatestRelease(ctx, owner, repo)
	}
	if err != nil || rel == nil {
		return "", ""
	}
	return strings.TrimSpace(rel.Body), rel.HTMLURL
}

const newsHeader = "---\ntitle: \"News\"\nformat: html\n---\n\n# News\n\n"

// AppendNews appends a dated section for the given releases to the
// news page, creating the page when it does not exist.
func (w *Watcher) AppendNews(path string, releases []Info) error {
	if len(releases) == 0 {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte(newsHeader), 0644); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s\n\nNew releases:\n\n", w.today())
	for _, rel := range releases {
		fmt.Fprintf(&b, "- **%s** v%s (%s)\n", rel.Project, rel.Version, rel.PyPIURL)
		switch {
		case rel.Notes != "":
			b.WriteString("\n  Release notes:\n\n")
			for _, line := range strings.Split(trimNotes(rel.Notes), "\n") {
				fmt.Fprintf(&b, "  > %s\n", line)
			}
			b.WriteString("\n")
		case rel.NotesURL != "":
			fmt.Fprintf(&b, "\n  Release notes: %s\n\n", rel.NotesURL)
		}
	}

	if _, err := io.WriteString(f, b.String()); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

func trimNotes(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= MaxNotesChars {
		return text
	}
	return strings.TrimRight(text[:MaxNotesChars-1], " \n") + "…"
}
