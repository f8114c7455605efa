// Package cli implements the cobra command tree for mailsmith.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/mailsmith/internal/config"
	"github.com/hupe1980/mailsmith/internal/logging"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

func failure(err error) error {
	return &ExitError{Code: ExitFailure, Err: err}
}

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return ExitFailure
	}

	return ExitOK
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "mailsmith",
		Short: "Build HTML email campaigns",
		Long: `mailsmith builds HTML email campaigns from templates, SCSS and images.

Each folder under <src>/emails is a campaign; <src>/shared holds partials,
layouts, data, styles and images used by every campaign. Pages are rendered
through their layout, stylesheets are compiled and inlined, Outlook
placeholder tokens are substituted, and the result is written to <dist>.

Run without a subcommand to clean the output directory and build every
campaign. Use "mailsmith serve" for a live-reload preview.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return usageError(err)
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("src", cfg.SourceDir),
				slog.String("dist", cfg.DistDir),
				slog.Bool("production", cfg.Production),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, true)
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .mailsmith.yaml)")
	registerGlobalFlags(pf)

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(
		newBuildCommand(),
		newCleanCommand(),
		newServeCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}
