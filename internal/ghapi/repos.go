package ghapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Repo is the subset of repository metadata the site consumes.
type Repo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	HTMLURL     string   `json:"html_url"`
	Private     bool     `json:"private"`
	Archived    bool     `json:"archived"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
}

// Workflow is a GitHub Actions workflow definition.
type Workflow struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// WorkflowRun is a single run of a workflow.
type WorkflowRun struct {
	Conclusion string `json:"conclusion"`
	Status     string `json:"status"`
	HTMLURL    string `json:"html_url"`
}

// Release is a GitHub release.
type Release struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
}

// ListOrgRepos returns all repositories of an organization, following
// pagination.
func (c *Client) ListOrgRepos(ctx context.Context, org string) ([]Repo, error) {
	var all []Repo
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/orgs/%s/repos?per_page=100&page=%d", c.baseURL, org, page)
		var repos []Repo
		if err := c.getJSON(ctx, url, &repos); err != nil {
			return nil, fmt.Errorf("listing repos for %s: %w", org, err)
		}
		all = append(all, repos...)
		if len(repos) < 100 {
			return all, nil
		}
	}
}

// FindWorkflowID returns the ID of the workflow with the given path in
// owner/repo, or 0 if the repository has no such workflow.
func (c *Client) FindWorkflowID(ctx context.Context, owner, repo, workflowPath string) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows", c.baseURL, owner, repo)

	var resp struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return 0, fmt.Errorf("fetching workflows for %s/%s: %w", owner, repo, err)
	}

	for _, wf := range resp.Workflows {
		if strings.EqualFold(wf.Path, workflowPath) {
			return wf.ID, nil
		}
	}
	return 0, nil
}

// WorkflowStatus returns the conclusion of the latest run of the given
// workflow: "not-found" when id is 0, "no-runs" when the workflow has
// never run, "no-conclusion" when a run exists without a conclusion.
func (c *Client) WorkflowStatus(ctx context.Context, owner, repo string, id int64) (string, error) {
	if id == 0 {
		return "not-found", nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%d/runs?per_page=1", c.baseURL, owner, repo, id)

	var resp struct {
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return "", fmt.Errorf("fetching workflow runs for %s/%s: %w", owner, repo, err)
	}

	if len(resp.WorkflowRuns) == 0 {
		return "no-runs", nil
	}
	if resp.WorkflowRuns[0].Conclusion == "" {
		return "no-conclusion", nil
	}
	return resp.WorkflowRuns[0].Conclusion, nil
}

// LatestRelease fetches the latest release of owner/repo. ErrNotFound
// means the repository has no releases.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)

	var rel Release
	if err := c.getJSON(ctx, url, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// ReleaseByTag fetches the release tagged tag, trying a "v" prefix as
// fallback when the bare tag does not exist.
func (c *Client) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	for _, t := range []string{tag, "v" + tag} {
		url := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, owner, repo, t)
		var rel Release
		err := c.getJSON(ctx, url, &rel)
		if err == nil {
			return &rel, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
