package projects

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testOpts = Options{
	PapersBasePath:   "/research/papers",
	DataFileURL:      "https://github.com/fs-ise/handbook/tree/main/data/projects.yml",
	RequestAccessURL: "https://github.com/fs-ise/handbook/issues/new?labels=access+request",
}

func TestRenderPage(t *testing.T) {
	p := Project{
		ID:            "OSSD",
		Status:        "active",
		Collaborators: []string{"gerit", "jane"},
		Resources: []Resource{
			{Name: "Data repo", Link: "https://github.com/fs-ise/ossd-data", Access: []string{"gerit"}, LastUpdated: "2026-01-10"},
			{Name: "Drive folder"},
		},
		History: []Entry{{Date: "2025-04-01", Event: "Kickoff"}},
		Output:  []string{"WagnerThurner2025", " "},
	}

	page, err := RenderPage(p, testOpts)
	if err != nil {
		t.Fatalf("RenderPage() error: %v", err)
	}

	for _, want := range []string{
		"title: OSSD",
		"status: active",
		"page_type: project",
		"Acronym | `OSSD`",
		"Team | gerit, jane",
		"| Name | Access | Last updated | Request |",
		`[Data repo](https://github.com/fs-ise/ossd-data){target="_blank" rel="noopener"}`,
		"Request-Access-blue",
		"- **2025-04-01** — Kickoff",
		"## Output",
		"- [WagnerThurner2025](/research/papers/WagnerThurner2025.html)",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}

	// Non-GitHub resource gets no request-access badge.
	lines := strings.Split(page, "\n")
	for _, l := range lines {
		if strings.Contains(l, "Drive folder") && strings.Contains(l, "Request-Access") {
			t.Errorf("non-GitHub resource should not offer access request: %s", l)
		}
	}
}

func TestRenderPage_Defaults(t *testing.T) {
	page, err := RenderPage(Project{ID: "X"}, testOpts)
	if err != nil {
		t.Fatalf("RenderPage() error: %v", err)
	}

	if !strings.Contains(page, "status: planned") {
		t.Error("missing status default")
	}
	if !strings.Contains(page, "Team | —") {
		t.Error("empty team should render placeholder")
	}
	if strings.Contains(page, "## Output") {
		t.Error("empty output list should omit the Output section")
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	projects := []Project{{ID: "A"}, {ID: ""}, {ID: "B"}}

	var log strings.Builder
	created, skipped, err := Generate(projects, dir, testOpts, &log)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if created != 2 || skipped != 1 {
		t.Errorf("Generate() = (%d, %d), want (2, 1)", created, skipped)
	}
	if !strings.Contains(log.String(), "warning") {
		t.Errorf("missing warning for project without id: %q", log.String())
	}

	if _, err := os.Stat(filepath.Join(dir, "A.qmd")); err != nil {
		t.Errorf("A.qmd not written: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yml")
	content := `- id: OSSD
  status: active
  project_resources:
    - name: Repo
      link: https://github.com/fs-ise/ossd
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "OSSD" || len(got[0].Resources) != 1 {
		t.Errorf("Load() = %+v", got)
	}
}
