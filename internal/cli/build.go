package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/mailsmith/internal/config"
	"github.com/hupe1980/mailsmith/internal/logging"
	"github.com/hupe1980/mailsmith/internal/output"
)

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Render every campaign",
		Long: `Build renders the pages, stylesheets and images of every campaign into
the output directory and writes manifest.json. Existing output is
overwritten but never removed; run "mailsmith clean" or mailsmith without
a subcommand for a fresh build.

The first failing campaign aborts the build with exit code 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, false)
		},
	}
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			if err := output.NewFileStore(cfg.DistDir).Clean(); err != nil {
				return failure(err)
			}

			logging.FromContext(cmd.Context()).Info("output removed", logging.Path(cfg.DistDir))

			return nil
		},
	}
}

func runBuild(cmd *cobra.Command, clean bool) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	p, err := newProject(ctx, cfg)
	if err != nil {
		return err
	}

	if clean {
		if err := p.store.Clean(); err != nil {
			return failure(err)
		}
	}

	campaigns := p.registry.Campaigns()
	if len(campaigns) == 0 {
		logger.Warn("no campaigns found", logging.Path(p.layout.EmailsDir()))
	}

	start := time.Now()

	if err := p.dispatcher(ctx).BuildAll(ctx, campaigns, cfg.Concurrency); err != nil {
		return failure(err)
	}

	logger.Info("build complete",
		slog.Int("campaigns", len(campaigns)),
		logging.Duration(time.Since(start)),
	)

	m, err := output.ReadManifest(p.store.Root())
	if err != nil {
		return failure(err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "built %d page(s) from %d campaign(s) into %s\n",
		len(m.Pages()), len(campaigns), p.store.Root())

	return err
}
