package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcegraph/pkg/buildinfo"
	"github.com/matzehuels/pcegraph/pkg/config"
	"github.com/matzehuels/pcegraph/pkg/pipeline"
	"github.com/matzehuels/pcegraph/pkg/topology"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "pcegraph"

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
	Config config.Config

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
		Use:   appName,
		Short: "pcegraph builds path computation graphs from optical and OTN topologies",
		Long: `pcegraph turns a stored OpenROADM or OTN topology into the validated,
service-specific graph a path computation engine searches. Requests name a
service format and rate plus the two service endpoints.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.computeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.topologyCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies its logging section. --verbose
// wins over the configured level.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg

	c.Logger.SetFormatter(cfg.LogFormatter())
	c.SetLogLevel(cfg.LogLevel())
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	c.Logger.Debug("loaded config", "path", path, "store", cfg.Store.Backend)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. When files are given they
// are loaded into a private in-memory store instead of opening the
// configured backend.
func (c *CLI) newRunner(ctx context.Context, files []string) (*pipeline.Runner, error) {
	s, err := c.openStore(ctx, files)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(s, c.Logger)
	r.Retry = c.Config.Store.Retry
	return r, nil
}

func (c *CLI) openStore(ctx context.Context, files []string) (store.Store, error) {
	if len(files) == 0 {
		return store.Open(ctx, c.Config.StoreConfig())
	}
	s := store.Instrument(store.NewMemoryStore(), store.BackendMemory)
	for _, f := range files {
		snap, err := topology.Load(f)
		if err != nil {
			return nil, err
		}
		if err := s.Write(ctx, snap); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		c.Logger.Debug("loaded topology", "file", f, "network", snap.Network,
			"nodes", len(snap.Nodes), "links", len(snap.Links))
	}
	return s, nil
}
