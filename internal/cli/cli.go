// Package cli implements the tasktree command-line interface.
//
// Every command reads task hierarchy documents through the configured
// source (a directory or a base URL) and works on one domain at a time.
// Commands that print data accept --json for machine-readable output.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels in the command context.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tasktree/pkg/config"
	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/version"
)

const appName = "tasktree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	dir        string
	baseURL    string
	verbose    bool

	cfg    config.Config
	loader *loader.Loader
}

// New creates a CLI that logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Browse machine learning task hierarchies",
		Long: `tasktree loads per-domain task hierarchy documents (<domain>_hierarchy.json)
and lets you browse, search and export them.

Run "tasktree browse" for the interactive tree.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(version.String() + "\n")

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tasktree/config.yaml)")
	pf.StringVar(&c.dir, "dir", "", "directory holding the hierarchy documents")
	pf.StringVar(&c.baseURL, "base-url", "", "fetch hierarchy documents from this URL")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.browseCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.topCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.exportCommand())
	return root
}

// setup loads the config, applies flag overrides and attaches the logger.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))

	path := c.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.dir != "" {
		cfg.Source.Dir = c.dir
		cfg.Source.BaseURL = ""
	}
	if c.baseURL != "" {
		cfg.Source.BaseURL = c.baseURL
	}
	c.cfg = cfg
	c.loader = loader.NewLoader(cfg.Fetcher(), loader.WithLogger(c.Logger))

	c.Logger.Debug("source configured", "config", path, "dir", cfg.Source.Dir, "base_url", cfg.Source.BaseURL)
	return nil
}

// domainID resolves a configured domain case-insensitively. Unknown ids are
// passed through unchanged.
func (c *CLI) domainID(arg string) string {
	if d := c.cfg.FindDomain(arg); d != nil {
		return d.ID
	}
	return strings.TrimSpace(arg)
}

// load fetches and indexes a domain, logging how long it took.
func (c *CLI) load(ctx context.Context, arg string) (*loader.Dataset, error) {
	domain := c.domainID(arg)
	p := newProgress(loggerFromContext(ctx))
	ds, err := c.loader.LoadDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", domain, err)
	}
	p.done(fmt.Sprintf("Loaded %s: %d tasks", c.cfg.DomainTitle(domain), ds.Len()))
	if n := len(ds.Collisions); n > 0 {
		loggerFromContext(ctx).Warn("duplicate task names, later tasks shadow earlier ones", "domain", domain, "count", n)
	}
	return ds, nil
}
