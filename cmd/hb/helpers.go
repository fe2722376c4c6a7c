package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fs-ise/handbook-tools/internal/config"
	"github.com/fs-ise/handbook-tools/internal/ghapi"
	"github.com/fs-ise/handbook-tools/internal/store"
)

// mustLoadConfig loads config.yml, applying the --site-root override.
// Exits with ExitConfigError on an unreadable or malformed file.
func mustLoadConfig() *config.Config {
	path := configPath
	if path == "" {
		root := siteRoot
		if root == "" {
			root = "."
		}
		path = filepath.Join(root, config.DefaultFile)
	}

	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if siteRoot != "" {
		cfg.SiteRoot = config.ExpandTilde(siteRoot)
	}
	return cfg
}

// newGitHubClient builds the API client with the token from the
// environment and the SQLite response cache from the config. The
// returned cleanup closes the cache and is safe to call always.
func newGitHubClient(cfg *config.Config) (*ghapi.Client, func()) {
	opts := []ghapi.Option{ghapi.WithToken(os.Getenv("GITHUB_TOKEN"))}

	cleanup := func() {}
	if cfg.Repos.CacheFile != "" {
		cache, err := store.Open(cfg.Path(cfg.Repos.CacheFile))
		if err != nil {
			// A broken cache never blocks a run.
			warnf("opening response cache: %v (continuing without cache)", err)
		} else {
			ttl := time.Duration(cfg.Repos.CacheTTLHours) * time.Hour
			opts = append(opts, ghapi.WithCache(cache, ttl))
			cleanup = func() { cache.Close() }
		}
	}
	return ghapi.NewClient(opts...), cleanup
}
