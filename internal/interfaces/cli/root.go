// Package cli wires the pipeline stages behind a cobra command tree.  The
// root command loads configuration and a logger once in PersistentPreRunE
// and stashes them in the command context for every subcommand.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chemtools/qsarpipe/internal/config"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	OutputDir  string
	Seed       string
	Verbose    bool
}

// CLIContext carries the initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
}

// NewRootCommand creates the root command with all global flags and
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "qsarpipe",
		Short:   "qsarpipe enumerates substitution isomers and models their activity",
		Long:    "qsarpipe enumerates chlorine-substitution isomers of a seed structure,\nprepares depictions and 3D geometries, computes descriptor matrices, and\ntrains regression models that predict EC50 activity for every candidate.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./qsarpipe.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.OutputDir, "out", "", "output directory (overrides pipeline.output_dir)")
	pf.StringVar(&opts.Seed, "seed", "", "seed SMILES (overrides pipeline.seed_smiles)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newEnumerateCmd(),
		newPrepareCmd(),
		newDescriptorsCmd(),
		newTrainCmd(),
		newPredictCmd(),
		newRunCmd(),
	)
	return cmd
}

// persistentPreRun loads config and logger and stores them in the command
// context.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, &CLIContext{
		Config: cfg,
		Logger: logger,
	})
	cmd.SetContext(ctx)
	return nil
}

// initConfig loads configuration with priority: flags > env > file >
// defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.ConfigPath != "":
		cfg, err = config.Load(opts.ConfigPath)
	case fileExists("./qsarpipe.yaml"):
		cfg, err = config.Load("./qsarpipe.yaml")
	default:
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if opts.OutputDir != "" {
		cfg.Pipeline.OutputDir = opts.OutputDir
	}
	if opts.Seed != "" {
		cfg.Pipeline.SeedSMILES = opts.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger creates a logger configured for CLI usage, writing to stderr
// so stage output on stdout stays clean.
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = strings.ToLower(opts.LogLevel)
	}
	if opts.Verbose {
		level = "debug"
	}

	output := []string{"stderr"}
	if cfg.Log.Output != "" {
		output = []string{cfg.Log.Output}
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           cfg.Log.Format,
		OutputPaths:      output,
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by persistentPreRun.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context not initialized")
	}
	return cliCtx, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Execute is the entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
