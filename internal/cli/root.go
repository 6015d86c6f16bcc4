// Package cli implements the command-line interface for minigit.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/logging"
	"github.com/kilupskalvis/minigit/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
	Logger *zap.Logger
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// initContext loads the repository containing the working directory
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	logger := newLogger(cfg.Log.Level)

	st, err := store.New(cfg.RepoPath(), logger)
	if err != nil {
		exitError("failed to open store: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st, Logger: logger}
}

// newLogger builds the logger; --log-level wins over the configured level
func newLogger(configured string) *zap.Logger {
	level := configured
	if logLevel != "" {
		level = logLevel
	}
	if level == "" {
		level = config.Default().Log.Level
	}

	logger, err := logging.NewLogger(level)
	if err != nil {
		exitError("invalid log level %q: %v", level, err)
	}
	return logger
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "minigit",
	Short: "A minimal version control system",
	Long: `minigit is a small git-like version control tool. It stores content-addressed
file snapshots under .minigit and supports staging, commits, branches,
checkout, three-way merges and line diffs.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(reflogCmd)
}

var osExit = os.Exit

// exitError prints an error and exits. The exit status is derived from the
// first error argument, if any.
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	code := ExitFailure
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			code = exitCode(err)
			break
		}
	}
	osExit(code)
}

// worktreePath makes a command-line path absolute against the working
// directory so it names the same file from any subdirectory
func worktreePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// shortID returns first 7 characters of a hash
func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
