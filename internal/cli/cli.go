// Package cli implements the wmt command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/olamyy/wmt/internal/config"
	"github.com/olamyy/wmt/pkg/buildinfo"
	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
	"github.com/olamyy/wmt/pkg/source/adapters"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "wmt"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	configPath string
	cfg        *config.Config
	json       bool
	adapter    source.Adapter // overrides the production adapters when set
}

// New creates a new CLI instance with a default logger. Command output goes
// to stdout; logs go to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "wmt runs the well-maintained test against your dependencies",
		Long: `wmt checks whether packages satisfy the well-maintained test: a checklist of
maintenance signals read from the package registry (crates.io, npm, PyPI)
and the source repository (GitHub).

Every criterion answers pass, fail or unknown. Unknown means the data could
not be fetched or was ambiguous; it never counts as a failure.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", err.Error())
	})
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/wmt/config.toml)")
	root.PersistentFlags().BoolVarP(&c.json, "json", "j", false, "output the result as JSON")

	// Register all subcommands
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.questionsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// config loads the configuration file once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "http_cache", cfg.HTTP.Cache)
	c.cfg = cfg
	return cfg, nil
}

// newRunner creates a check runner over the production adapters. The
// returned cleanup closes the HTTP response cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, refresh bool) (*check.Runner, func()) {
	backend, err := cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("HTTP cache unavailable, continuing without it", "err", err)
		backend = cache.NewNullCache()
	}

	adapter := c.adapter
	if adapter == nil {
		clients := adapters.DefaultClients(backend, cfg.CacheTTL(), cfg.GitHub.Token)
		if cfg.GitHub.Token == "" {
			c.Logger.Debug("no GitHub token configured; repository lookups use the anonymous rate limit")
		}
		adapter = adapters.New(clients, adapters.WithRefresh(refresh))
	}
	runner := check.NewRunner(adapter, cfg.CheckConfig(), check.WithLogger(c.Logger))
	return runner, func() { _ = backend.Close() }
}
