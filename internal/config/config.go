// Package config handles the handbook configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up under the site root.
const DefaultFile = "config.yml"

// Config is the handbook configuration stored in config.yml. All paths
// are resolved against SiteRoot unless absolute.
type Config struct {
	SiteRoot string `yaml:"site_root,omitempty"`

	ReferencesBib   string `yaml:"references_bib,omitempty"`
	CleanReferences string `yaml:"clean_references,omitempty"`
	TalksBib        string `yaml:"talks_bib,omitempty"`
	ProjectsFile    string `yaml:"projects_file,omitempty"`
	EventsFile      string `yaml:"events_file,omitempty"`
	NewsFile        string `yaml:"news_file,omitempty"`
	PaperTemplate   string `yaml:"paper_template,omitempty"`

	PapersOutput   string `yaml:"papers_output,omitempty"`
	ProjectsOutput string `yaml:"projects_output,omitempty"`
	TalksOutput    string `yaml:"talks_output,omitempty"`
	TalkPlacesCSV  string `yaml:"talk_places_csv,omitempty"`
	CalendarOutput string `yaml:"calendar_output,omitempty"`
	ReposOutput    string `yaml:"repos_output,omitempty"`
	StatsOutput    string `yaml:"stats_output,omitempty"`
	LinksCSV       string `yaml:"links_csv,omitempty"`
	LinksSummary   string `yaml:"links_summary,omitempty"`

	CalendarHorizonDays int    `yaml:"calendar_horizon_days,omitempty"`
	Timezone            string `yaml:"timezone,omitempty"`

	PapersBasePath   string `yaml:"papers_base_path,omitempty"`
	ProjectsDataURL  string `yaml:"projects_data_url,omitempty"`
	RequestAccessURL string `yaml:"request_access_url,omitempty"`

	Repos ReposConfig `yaml:"repos,omitempty"`
}

// ReposConfig configures the GitHub repository inventory.
type ReposConfig struct {
	Orgs          []string `yaml:"orgs,omitempty"`
	Workflow      string   `yaml:"workflow,omitempty"`
	CacheFile     string   `yaml:"cache_file,omitempty"`
	CacheTTLHours int      `yaml:"cache_ttl_hours,omitempty"`
}

// Default returns the configuration used when no config.yml exists.
func Default() *Config {
	return &Config{
		SiteRoot:            ".",
		ReferencesBib:       "data/references.bib",
		CleanReferences:     "assets/references.bib",
		TalksBib:            "assets/talks.bib",
		ProjectsFile:        "data/projects.yml",
		EventsFile:          "data/events.yml",
		NewsFile:            "news.qmd",
		PapersOutput:        "research/papers",
		ProjectsOutput:      "research/projects",
		TalksOutput:         "research/talks",
		TalkPlacesCSV:       "talk_places.csv",
		CalendarOutput:      "assets/calendar.ics",
		ReposOutput:         "assets/repos.json",
		StatsOutput:         "assets/stats.json",
		LinksCSV:            "assets/reports/links.csv",
		LinksSummary:        "assets/reports/link_summary.json",
		CalendarHorizonDays: 365,
		Timezone:            "Europe/Berlin",
		PapersBasePath:      "/research/papers",
		Repos: ReposConfig{
			Workflow:      ".github/workflows/ci.yml",
			CacheFile:     ".hb-cache.db",
			CacheTTLHours: 24,
		},
	}
}

// Load reads config.yml and fills unset values with defaults. A
// missing file yields the defaults, not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.CalendarHorizonDays <= 0 {
		cfg.CalendarHorizonDays = 365
	}
	cfg.SiteRoot = ExpandTilde(cfg.SiteRoot)
	if cfg.SiteRoot == "" {
		cfg.SiteRoot = "."
	}
	return cfg, nil
}

// Path resolves a configured path against the site root.
func (c *Config) Path(p string) string {
	p = ExpandTilde(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SiteRoot, p)
}

// ExpandTilde replaces a leading "~/" with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
