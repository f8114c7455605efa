package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/config"
	"github.com/hupe1980/mailsmith/internal/dispatch"
	"github.com/hupe1980/mailsmith/internal/logging"
	"github.com/hupe1980/mailsmith/internal/output"
	"github.com/hupe1980/mailsmith/internal/render"
	"github.com/hupe1980/mailsmith/internal/upload"
)

// project bundles the components every build command wires together.
type project struct {
	layout   campaign.Layout
	store    *output.FileStore
	registry *campaign.Registry
	renderer *render.Renderer
}

// newProject resolves the layout, render config and (in production) the
// image uploader from cfg. Configuration problems are usage errors.
func newProject(ctx context.Context, cfg *config.Config, storeOpts ...output.FileStoreOption) (*project, error) {
	logger := logging.FromContext(ctx)
	layout := campaign.NewLayout(cfg.SourceDir, cfg.DistDir)

	renderCfg, err := config.LoadRenderConfig(cfg.ConfigFile)
	if err != nil {
		return nil, usageError(err)
	}

	opts := []render.Option{
		render.WithProduction(cfg.Production),
		render.WithRenderConfig(renderCfg),
	}

	if cfg.Production {
		uploadOpts, err := uploadOptions(ctx)
		if err != nil {
			return nil, err
		}

		opts = append(opts, uploadOpts...)
	}

	store := output.NewFileStore(layout.DistDir, append([]output.FileStoreOption{output.WithLogger(logger)}, storeOpts...)...)

	registry := campaign.NewRegistry(layout.EmailsDir(), logger)
	if err := registry.Rescan(); err != nil {
		return nil, usageError(fmt.Errorf("invalid source directory %q: %w", cfg.SourceDir, err))
	}

	return &project{
		layout:   layout,
		store:    store,
		registry: registry,
		renderer: render.NewRenderer(layout, store, opts...),
	}, nil
}

// dispatcher returns a dispatcher over the project's renderer and store.
func (p *project) dispatcher(ctx context.Context, opts ...dispatch.Option) *dispatch.Dispatcher {
	opts = append([]dispatch.Option{dispatch.WithLogger(logging.FromContext(ctx))}, opts...)
	return dispatch.New(p.renderer, p.store, p.registry, opts...)
}

// uploadOptions wires the S3 uploader into production renders. Without a
// configured bucket images keep their local paths.
func uploadOptions(ctx context.Context) ([]render.Option, error) {
	logger := logging.FromContext(ctx)

	ucfg, err := upload.LoadConfig(upload.DefaultEnvFile)
	if err != nil {
		return nil, usageError(err)
	}

	if !ucfg.Enabled() {
		logger.Warn("production build without an upload bucket, image URLs stay local")
		return nil, nil
	}

	up, err := upload.NewS3Uploader(ctx, ucfg)
	if err != nil {
		return nil, usageError(err)
	}

	logger.Debug("image upload enabled", slog.String("bucket", ucfg.Bucket))

	return []render.Option{
		render.WithUploader(up),
		render.WithURLRewriter(func(html, c string) (string, error) {
			return upload.RewriteImageURLs(html, c, up.URL)
		}),
	}, nil
}
