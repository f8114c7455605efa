package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tdewolff/minify/v2"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/config"
	"github.com/hupe1980/mailsmith/internal/logging"
	"github.com/hupe1980/mailsmith/internal/output"
)

// Renderer produces the artifacts of a campaign into an output store.
type Renderer struct {
	layout        campaign.Layout
	store         output.Store
	production    bool
	defaultLayout string
	placeholders  *Placeholders
	uploader      ImageUploader
	rewriteURLs   URLRewriter
	minifier      *minify.M
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProduction toggles production output: expanded then minified CSS
// without source comments, image upload and URL rewriting.
func WithProduction(on bool) Option {
	return func(r *Renderer) { r.production = on }
}

// WithRenderConfig applies the render section of the config file.
func WithRenderConfig(rc *config.RenderConfig) Option {
	return func(r *Renderer) {
		if rc == nil {
			return
		}

		if rc.DefaultLayout != "" {
			r.defaultLayout = rc.DefaultLayout
		}

		r.placeholders = NewPlaceholders(rc.Placeholders)
	}
}

// WithUploader sets the image uploader used in production mode.
func WithUploader(u ImageUploader) Option {
	return func(r *Renderer) { r.uploader = u }
}

// WithURLRewriter sets the image URL rewrite applied as the last email
// stage in production mode.
func WithURLRewriter(fn URLRewriter) Option {
	return func(r *Renderer) { r.rewriteURLs = fn }
}

// NewRenderer returns a Renderer reading from layout and writing to store.
func NewRenderer(layout campaign.Layout, store output.Store, opts ...Option) *Renderer {
	r := &Renderer{
		layout:        layout,
		store:         store,
		defaultLayout: config.DefaultLayoutName,
		placeholders:  NewPlaceholders(nil),
		minifier:      newMinifier(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// LoadContext builds the render context of campaign name.
func (r *Renderer) LoadContext(ctx context.Context, name string) (*Context, error) {
	start := time.Now()

	rc, err := LoadContext(r.layout, name)
	if err != nil {
		return nil, renderErr(name, KindEmail, fmt.Errorf("loading context: %w", err))
	}

	logging.FromContext(ctx).Debug("render context loaded",
		logging.Campaign(name),
		slog.Int("pages", len(rc.Pages)),
		logging.Duration(time.Since(start)),
	)

	return rc, nil
}

// Render produces the artifacts of kind for the campaign of rc. Styles are
// compiled before emails so stylesheet links resolve against fresh output.
// A stale rc is reloaded in place first.
func (r *Renderer) Render(ctx context.Context, rc *Context, kind Kind) (ArtifactSet, error) {
	start := time.Now()

	if kind != KindStyles && rc.Stale() {
		fresh, err := r.LoadContext(ctx, rc.Campaign)
		if err != nil {
			return nil, err
		}

		*rc = *fresh
	}

	var set ArtifactSet

	if kind == KindStyles || kind == KindBoth {
		styles, err := r.renderStyles(ctx, rc.Campaign)
		if err != nil {
			return set, renderErr(rc.Campaign, KindStyles, err)
		}

		set = append(set, styles...)
	}

	if kind == KindEmail || kind == KindBoth {
		pages, err := r.renderEmails(ctx, rc)
		if err != nil {
			return set, renderErr(rc.Campaign, KindEmail, err)
		}

		set = append(set, pages...)
	}

	logging.FromContext(ctx).Debug("rendered",
		logging.Campaign(rc.Campaign),
		slog.String("kind", kind.String()),
		slog.Int("artifacts", len(set)),
		logging.Duration(time.Since(start)),
	)

	return set, nil
}

func (r *Renderer) renderEmails(ctx context.Context, rc *Context) (ArtifactSet, error) {
	pipeline := r.emailPipeline()

	set := make(ArtifactSet, 0, len(rc.Pages))

	for _, page := range rc.Pages {
		out, err := pipeline.Run(ctx, email{rc: rc, page: page})
		if err != nil {
			return set, fmt.Errorf("page %s: %w", page.Rel, err)
		}

		artifact := campaign.PageArtifact(rc.Campaign, page.Rel)
		if err := r.store.Write(artifact, []byte(out.html)); err != nil {
			return set, err
		}

		set = append(set, artifact)
	}

	return set, nil
}
