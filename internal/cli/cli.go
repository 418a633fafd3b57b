// Package cli implements the reqsolve command-line interface.
//
// This package provides commands for resolving Python package
// requirements against an index, exporting the resolution provenance
// as a graph, and managing the metadata cache. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - resolve: Pin requirements to concrete distribution files
//   - graph: Export resolution provenance as DOT or SVG
//   - cache: Manage the index metadata cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// write to stderr so resolved output on stdout stays machine-readable.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reqsolve/pkg/buildinfo"
	"github.com/matzehuels/reqsolve/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "reqsolve"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and the user's
// configuration file applied.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: LoadConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           appName,
		Short:         "Reqsolve pins Python requirements to concrete distribution files",
		Long:          `Reqsolve resolves Python package requirements the way an installer would, without installing anything: it aggregates requirement sources, walks the dependency graph against a package index, and reports the exact files a real installation would fetch.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(log.DebugLevel)
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cacheDir returns the metadata cache directory.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// cacheBackend builds the cache backend selected by the configuration.
func (c *CLI) cacheBackend() cache.Cache {
	switch c.Config.Cache.Backend {
	case "null", "none":
		return cache.NewNullCache()
	case "redis":
		rc, err := cache.NewRedisCache(context.Background(), c.Config.Cache.RedisAddr)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, falling back to file cache", "addr", c.Config.Cache.RedisAddr, "err", err)
		} else {
			return rc
		}
	}

	dir := c.Config.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory available, caching disabled", "err", err)
			return cache.NewNullCache()
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}
