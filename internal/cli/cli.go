// Package cli implements the stegaplots command-line interface.
//
// Commands embed plot parameters and source code into lossless images,
// read them back, and scan directories of figures. The CLI is built with
// cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - insert: embed params and code files into an image
//   - render: render a Graphviz figure and embed its source
//   - extract: print the metadata stored in an image
//   - capacity: report how much an image can hold
//   - scan: list every embedded image under a directory
//   - cache: manage the scan cache
//   - serve: run the HTTP service
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports codec and cache events. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/internal/config"
	"github.com/matzehuels/stegaplots/pkg/buildinfo"
	"github.com/matzehuels/stegaplots/pkg/cache"
)

// appName is the application name used for display.
const appName = "stegaplots"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "Stegaplots hides plot parameters and code inside figures",
		Long:              `Stegaplots embeds the parameters and source code that produced a figure into the least significant bits of its pixels, so a lossless image carries its own provenance.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stegaplots/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.insertCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.capacityCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration, applies the log level and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if c.verbose {
		level = LogDebug
		installDebugHooks(c.Logger)
	}
	c.SetLogLevel(level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// newCache opens the file cache from the configuration, or a null cache
// when caching is disabled or the directory is unusable.
func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(c.Config.Cache.Dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", c.Config.Cache.Dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}
