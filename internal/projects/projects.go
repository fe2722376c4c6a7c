// Package projects renders project pages from the authoritative
// data/projects.yml file.
package projects

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is one entry of projects.yml.
type Project struct {
	ID                 string     `yaml:"id"`
	Status             string     `yaml:"status,omitempty"`
	Collaborators      []string   `yaml:"collaborators,omitempty"`
	AssociatedProjects []string   `yaml:"associated_projects,omitempty"`
	Resources          []Resource `yaml:"project_resources,omitempty"`
	History            []Entry    `yaml:"project_history,omitempty"`
	Output             []string   `yaml:"project_output,omitempty"`
}

// Resource is a linked artifact (repository, drive folder, ...).
type Resource struct {
	Name        string   `yaml:"name,omitempty"`
	Link        string   `yaml:"link,omitempty"`
	Access      []string `yaml:"access,omitempty"`
	LastUpdated string   `yaml:"last_updated,omitempty"`
}

// Entry is one dated history item.
type Entry struct {
	Date  string `yaml:"date,omitempty"`
	Event string `yaml:"event,omitempty"`
}

// Options configures page rendering.
type Options struct {
	// PapersBasePath is the site-relative base for paper page links.
	PapersBasePath string
	// DataFileURL points readers at the authoritative source.
	DataFileURL string
	// RequestAccessURL is the prefilled issue link shown for GitHub
	// resources.
	RequestAccessURL string
}

// Load parses projects.yml.
func Load(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading projects file: %w", err)
	}

	var projects []Project
	if err := yaml.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return projects, nil
}

// frontMatter is the project page header, ordered for the site's
// listing pages.
type frontMatter struct {
	Title              string     `yaml:"title"`
	Status             string     `yaml:"status"`
	AssociatedProjects []string   `yaml:"associated_projects"`
	Collaborators      []string   `yaml:"collaborators"`
	Resources          []Resource `yaml:"project_resources"`
	History            []Entry    `yaml:"project_history"`
	ProjectID          string     `yaml:"project_id"`
	PageType           string     `yaml:"page_type"`
}

const emptyCell = "—"

// RenderPage renders one project page.
func RenderPage(p Project, opts Options) (string, error) {
	status := p.Status
	if status == "" {
		status = "planned"
	}

	fm := frontMatter{
		Title:              p.ID,
		Status:             status,
		AssociatedProjects: emptySlice(p.AssociatedProjects),
		Collaborators:      emptySlice(p.Collaborators),
		Resources:          p.Resources,
		History:            p.History,
		ProjectID:          p.ID,
		PageType:           "project",
	}
	if fm.Resources == nil {
		fm.Resources = []Resource{}
	}
	if fm.History == nil {
		fm.History = []Entry{}
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("encoding front matter for %s: %w", p.ID, err)
	}

	collab := emptyCell
	if len(p.Collaborators) > 0 {
		collab = strings.Join(p.Collaborators, ", ")
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, `::: {.callout-note icon=false}
This page is auto-generated. The authoritative project metadata is stored in
[%s](%s).
:::

Field | Value
---|---
Acronym | `+"`%s`"+`
Team | %s
Status | `+"`%s`"+`

## Resources
%s
## History
%s`, "`data/projects.yml`", opts.DataFileURL, p.ID, collab, status,
		resourcesTable(p.Resources, opts), historyBlock(p.History))

	if out := outputBlock(p.Output, opts.PapersBasePath); out != "" {
		b.WriteString("\n" + out)
	}
	return b.String(), nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func fmtDate(d string) string {
	if d == "" {
		return emptyCell
	}
	return d
}

func isGitHub(link string) bool {
	return strings.Contains(link, "github.com")
}

func requestAccessCell(link string, opts Options) string {
	if !isGitHub(link) || opts.RequestAccessURL == "" {
		return emptyCell
	}
	return fmt.Sprintf(
		`<a href="%s" target="_blank" rel="noopener"><img src="https://img.shields.io/badge/Request-Access-blue" alt="Request Access"></a>`,
		opts.RequestAccessURL)
}

func resourcesTable(resources []Resource, opts Options) string {
	if len(resources) == 0 {
		return emptyCell + "\n"
	}

	lines := []string{
		"| Name | Access | Last updated | Request |",
		"|---|---|---:|---|",
	}
	for _, res := range resources {
		name := res.Name
		if name == "" {
			name = emptyCell
		}
		nameCell := name
		if res.Link != "" {
			nameCell = fmt.Sprintf(`[%s](%s){target="_blank" rel="noopener"}`, name, res.Link)
		}

		accessCell := emptyCell
		if len(res.Access) > 0 {
			var users []string
			for _, u := range res.Access {
				users = append(users, fmt.Sprintf(`[%s](https://github.com/%s){target="_blank" rel="noopener"}`, u, u))
			}
			accessCell = strings.Join(users, ", ")
		}

		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s |",
			nameCell, accessCell, fmtDate(res.LastUpdated), requestAccessCell(res.Link, opts)))
	}
	return strings.Join(lines, "\n") + "\n"
}

func historyBlock(history []Entry) string {
	if len(history) == 0 {
		return emptyCell + "\n"
	}
	var lines []string
	for _, h := range history {
		event := h.Event
		if event == "" {
			event = emptyCell
		}
		lines = append(lines, fmt.Sprintf("- **%s** — %s", fmtDate(h.Date), event))
	}
	return strings.Join(lines, "\n") + "\n"
}

// outputBlock links the project's published papers to their pages.
func outputBlock(keys []string, papersBase string) string {
	var clean []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return ""
	}

	lines := []string{"## Output"}
	for _, k := range clean {
		lines = append(lines, fmt.Sprintf("- [%s](%s/%s.html)", k, papersBase, k))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Generate writes one page per project into outDir. Projects without
// an id are skipped with a warning. Returns created/skipped counts.
func Generate(projects []Project, outDir string, opts Options, log io.Writer) (created, skipped int, err error) {
	if log == nil {
		log = io.Discard
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, 0, fmt.Errorf("creating output directory: %w", err)
	}

	for _, p := range projects {
		if p.ID == "" {
			fmt.Fprintf(log, "warning: skipping project without id\n")
			skipped++
			continue
		}

		page, err := RenderPage(p, opts)
		if err != nil {
			return created, skipped, err
		}

		outPath := filepath.Join(outDir, p.ID+".qmd")
		if err := os.WriteFile(outPath, []byte(page), 0644); err != nil {
			return created, skipped, fmt.Errorf("writing %s: %w", outPath, err)
		}
		created++
	}
	return created, skipped, nil
}
