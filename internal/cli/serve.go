package cli

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/mailsmith/internal/config"
	"github.com/hupe1980/mailsmith/internal/dispatch"
	"github.com/hupe1980/mailsmith/internal/logging"
	"github.com/hupe1980/mailsmith/internal/output"
	"github.com/hupe1980/mailsmith/internal/preview"
	"github.com/hupe1980/mailsmith/internal/watch"
)

type serveOptions struct {
	diff     bool
	openPath string
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build, preview and rebuild on change",
		Long: `Serve builds every campaign, starts a live-reload preview server and
watches the source directory. Each change re-renders only what it affects:
a page edit renders its campaign, a shared layout or style change renders
every campaign, an image change reprocesses images. Open browsers reload
the preview when the campaign they show is rebuilt.

Render failures are logged and do not stop the server; fix the source and
save again. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	registerServeFlags(cmd, opts)

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	var storeOpts []output.FileStoreOption
	if opts.diff {
		storeOpts = append(storeOpts, output.WithDiff(cmd.ErrOrStderr()))
	}

	p, err := newProject(ctx, cfg, storeOpts...)
	if err != nil {
		return err
	}

	srv := preview.New(p.layout.DistDir,
		preview.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		preview.WithLogger(logger),
	)

	d := p.dispatcher(ctx, dispatch.WithNotifier(srv))

	// Unlike build, a failing campaign does not stop the others.
	for _, c := range p.registry.Campaigns() {
		d.RenderCampaign(ctx, c)
	}

	d.Wait()

	for _, f := range d.States().Failures() {
		logger.Error("initial build failed",
			logging.Campaign(f.Campaign), logging.Op(f.Target), logging.Error(f.Err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "preview at %s\n", previewURL(cfg.Port, opts.openPath))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		return watch.Run(gctx, watch.Options{
			Layout:   p.layout,
			Debounce: cfg.Debounce,
			Logger:   logger,
			Out:      cmd.ErrOrStderr(),
		}, d)
	})

	err = g.Wait()

	// Let queued renders finish before exiting.
	d.Wait()

	if err != nil && ctx.Err() == nil {
		return failure(err)
	}

	return nil
}

func previewURL(port int, openPath string) string {
	u := url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port), Path: "/"}

	if openPath != "" {
		u.RawQuery = url.Values{"page": {openPath}}.Encode()
	}

	return u.String()
}

var _ watch.Handler = (*dispatch.Dispatcher)(nil)

var _ dispatch.Notifier = (*preview.Server)(nil)
