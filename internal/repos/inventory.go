// Package repos builds the repository inventory consumed by the
// handbook's repository overview page.
package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fs-ise/handbook-tools/internal/ghapi"
)

// RecentWindow is how far back a push still counts as recent activity.
const RecentWindow = 180 * 24 * time.Hour

// Entry is one repository in assets/repos.json.
type Entry struct {
	Owner           string   `json:"owner"`
	Name            string   `json:"name"`
	HTMLURL         string   `json:"html_url"`
	Visibility      string   `json:"visibility"`
	Description     string   `json:"description"`
	Area            string   `json:"area"`
	Topics          []string `json:"topics"`
	CreatedAt       string   `json:"created_at"`
	Archived        bool     `json:"archived"`
	UpdatedRecently bool     `json:"updated_recently"`
	WorkflowStatus  string   `json:"workflow_status"`
}

// Collector gathers inventory entries for configured organizations.
type Collector struct {
	Client       *ghapi.Client
	WorkflowPath string
	// Now anchors the recent-activity window; overridable in tests.
	Now func() time.Time
	Log io.Writer
}

// classifyArea buckets a repository by its topics.
func classifyArea(topics []string) string {
	for _, t := range topics {
		if t == "research" {
			return "research"
		}
	}
	for _, t := range topics {
		if t == "teaching-materials" || t == "teaching" {
			return "teaching"
		}
	}
	return "other"
}

func (c *Collector) logf(format string, args ...any) {
	if c.Log != nil {
		fmt.Fprintf(c.Log, format, args...)
	}
}

// Collect lists all repositories of the given organizations and builds
// their inventory entries. The org's GitHub Pages repository is
// skipped; entries are sorted by owner then name.
func (c *Collector) Collect(ctx context.Context, orgs []string) ([]Entry, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cutoff := now().Add(-RecentWindow)

	var entries []Entry
	for _, org := range orgs {
		repos, err := c.Client.ListOrgRepos(ctx, org)
		if err != nil {
			return nil, err
		}

		for _, repo := range repos {
			if repo.Name == org+".github.io" {
				c.logf("skipping %s (GitHub Pages repo)\n", repo.FullName)
				continue
			}

			entry := Entry{
				Owner:           org,
				Name:            repo.Name,
				HTMLURL:         repo.HTMLURL,
				Visibility:      visibility(repo.Private),
				Description:     repo.Description,
				Area:            classifyArea(repo.Topics),
				Topics:          repo.Topics,
				CreatedAt:       repo.CreatedAt,
				Archived:        repo.Archived,
				UpdatedRecently: pushedAfter(repo.PushedAt, cutoff),
			}
			if entry.Topics == nil {
				entry.Topics = []string{}
			}

			status, err := c.workflowStatus(ctx, org, repo.Name)
			if err != nil {
				return nil, err
			}
			entry.WorkflowStatus = status

			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Owner != entries[j].Owner {
			return entries[i].Owner < entries[j].Owner
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (c *Collector) workflowStatus(ctx context.Context, owner, name string) (string, error) {
	if c.WorkflowPath == "" {
		return "not-found", nil
	}
	id, err := c.Client.FindWorkflowID(ctx, owner, name, c.WorkflowPath)
	if err != nil {
		return "", err
	}
	return c.Client.WorkflowStatus(ctx, owner, name, id)
}

func visibility(private bool) string {
	if private {
		return "Private"
	}
	return "Public"
}

func pushedAfter(pushedAt string, cutoff time.Time) bool {
	t, err := time.Parse(time.RFC3339, pushedAt)
	if err != nil {
		return false
	}
	return t.After(cutoff)
}

// WriteJSON writes the inventory to path, creating parent directories.
func WriteJSON(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
