// Package config handles loading and saving tasktree configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tasktree/config.yaml
//   - Data:    ~/.local/share/tasktree/ (hierarchy documents)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/tree"
)

const appName = "tasktree"

// Domain is a selectable domain with its display title.
type Domain struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// SourceConfig says where hierarchy documents come from. BaseURL wins over
// Dir when both are set.
type SourceConfig struct {
	Dir     string        `yaml:"dir,omitempty"`
	BaseURL string        `yaml:"base_url,omitempty"`
	Pattern string        `yaml:"pattern,omitempty"` // e.g. "%s_hierarchy.json"
	Timeout time.Duration `yaml:"timeout,omitempty"` // HTTP only
}

// TreeConfig mirrors tree.Options.
type TreeConfig struct {
	ShowDatasetCount bool `yaml:"show_dataset_count"`
	Collapsible      bool `yaml:"collapsible"`
	SearchHighlight  bool `yaml:"search_highlight"`
	MaxInitialDepth  int  `yaml:"max_initial_depth"`
}

// Config is the top-level configuration for tasktree.
type Config struct {
	Source        SourceConfig `yaml:"source"`
	DefaultDomain string       `yaml:"default_domain,omitempty"`
	Domains       []Domain     `yaml:"domains,omitempty"`
	Tree          TreeConfig   `yaml:"tree"`
}

// DefaultDomains are the domains offered when the config lists none.
func DefaultDomains() []Domain {
	return []Domain{
		{ID: "cv", Title: "Computer Vision"},
		{ID: "nlp", Title: "Natural Language Processing"},
		{ID: "audio", Title: "Audio Processing"},
		{ID: "other", Title: "Other Domains"},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := tree.DefaultOptions()
	return Config{
		Source: SourceConfig{
			Dir:     filepath.Join(DataDir(), "data"),
			Pattern: loader.DefaultPattern,
			Timeout: 30 * time.Second,
		},
		DefaultDomain: "cv",
		Domains:       DefaultDomains(),
		Tree: TreeConfig{
			ShowDatasetCount: opts.ShowDatasetCount,
			Collapsible:      opts.Collapsible,
			SearchHighlight:  opts.SearchHighlight,
			MaxInitialDepth:  opts.MaxInitialDepth,
		},
	}
}

// ConfigDir returns the XDG config directory for tasktree.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for tasktree.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Domains) == 0 {
		cfg.Domains = DefaultDomains()
	}
	if cfg.Source.Pattern == "" {
		cfg.Source.Pattern = loader.DefaultPattern
	}
	cfg.Source.Dir = expandHome(cfg.Source.Dir)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks domain ids, the document pattern and the tree depth.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		if err := loader.ValidateDomain(d.ID); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if seen[d.ID] {
			return fmt.Errorf("config: domain %q listed twice", d.ID)
		}
		seen[d.ID] = true
	}
	if strings.Count(c.Source.Pattern, "%s") != 1 {
		return fmt.Errorf("config: source.pattern %q must contain exactly one %%s", c.Source.Pattern)
	}
	if c.Tree.MaxInitialDepth < 0 {
		return fmt.Errorf("config: tree.max_initial_depth cannot be negative")
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// TreeOptions converts the tree section for tree.New.
func (c Config) TreeOptions() tree.Options {
	return tree.Options{
		ShowDatasetCount: c.Tree.ShowDatasetCount,
		Collapsible:      c.Tree.Collapsible,
		SearchHighlight:  c.Tree.SearchHighlight,
		MaxInitialDepth:  c.Tree.MaxInitialDepth,
	}
}

// Fetcher builds the document fetcher for the configured source.
func (c Config) Fetcher() loader.Fetcher {
	if c.Source.BaseURL != "" {
		f := loader.NewHTTPFetcher(c.Source.BaseURL, c.Source.Timeout)
		f.Pattern = c.Source.Pattern
		return f
	}
	f := loader.NewFileFetcher(c.Source.Dir)
	f.Pattern = c.Source.Pattern
	return f
}

// FindDomain returns the configured domain with the given id, or nil.
func (c Config) FindDomain(id string) *Domain {
	for i := range c.Domains {
		if strings.EqualFold(c.Domains[i].ID, id) {
			return &c.Domains[i]
		}
	}
	return nil
}

// DomainTitle returns the display title for id, or id itself when the
// domain is not configured.
func (c Config) DomainTitle(id string) string {
	if d := c.FindDomain(id); d != nil && d.Title != "" {
		return d.Title
	}
	return id
}

// DomainIDs returns the configured domain ids in order.
func (c Config) DomainIDs() []string {
	ids := make([]string, len(c.Domains))
	for i, d := range c.Domains {
		ids[i] = d.ID
	}
	return ids
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
