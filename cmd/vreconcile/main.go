// Command vreconcile diffs tree documents and serves live containers.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "vreconcile",
		Short: "Keyed tree reconciliation from the command line",
		Long: `vreconcile reconciles declarative trees against a host tree.

Trees are JSON or YAML documents. diff prints the host operations needed to
turn one tree into another; serve runs a live container that streams those
operations to WebSocket clients.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor || !isTerminal(os.Stderr) {
				errors.DisableColors()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "configuration file (default: nearest reconcile.json or reconcile.yaml)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the config)")
	flags.BoolVar(&g.noColor, "no-color", false, "disable colored error output")

	rootCmd.AddCommand(
		diffCmd(g),
		benchCmd(g),
		renderCmd(g),
		serveCmd(g),
		historyCmd(),
		configCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads the --config file, or the nearest project configuration,
// or the defaults when there is none. Flag overrides are applied and the
// result is validated.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case g.configPath != "":
		cfg, err = config.LoadFile(g.configPath)
	default:
		cfg = config.New()
		if root, findErr := config.FindProjectRoot("."); findErr == nil {
			cfg, err = config.Load(root)
		}
	}
	if err != nil {
		return nil, err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the CLI logger from the log settings.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// configFileName returns the file name config init writes.
func configFileName(yaml bool) string {
	if yaml {
		return "reconcile.yaml"
	}
	return config.ConfigFileName
}

// cliError wraps a usage failure in a coded error.
func cliError(format string, args ...any) error {
	return errors.Newf(errors.CategoryCLI, format, args...)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// isTerminal reports whether w is a terminal, so ANSI escapes are safe.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	mark := "✓"
	if isTerminal(w) {
		mark = "\033[32m✓\033[0m"
	}
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
