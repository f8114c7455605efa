package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/logging"
	"github.com/hupe1980/mailsmith/internal/output"
	"github.com/hupe1980/mailsmith/internal/render"
	"github.com/hupe1980/mailsmith/internal/watch"
)

// Renderer produces campaign artifacts. *render.Renderer implements it.
type Renderer interface {
	LoadContext(ctx context.Context, campaign string) (*render.Context, error)
	Render(ctx context.Context, rc *render.Context, kind render.Kind) (render.ArtifactSet, error)
	ProcessImages(ctx context.Context, campaign string, refs ...render.ImageRef) (render.ArtifactSet, error)
}

// Notification tells listeners that the output of a campaign changed.
type Notification struct {
	Campaign  string
	Artifacts []string
	Manifest  *output.Manifest
}

// Notifier receives a notification after each unit of work that changed
// the output.
type Notifier interface {
	Notify(n Notification)
}

// Dispatcher executes plans against a renderer and an output store.
type Dispatcher struct {
	renderer Renderer
	store    output.Store
	registry *campaign.Registry
	notifier Notifier
	logger   *slog.Logger

	contexts *ContextCache
	states   *StateTracker

	mu      sync.Mutex
	queues  map[string]*queue
	pending int
	idle    *sync.Cond

	manifestMu sync.Mutex
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotifier sets the listener for output changes.
func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithLogger sets the logger used by queue workers.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New returns a Dispatcher. registry supplies the campaigns shared changes
// fan out to.
func New(r Renderer, store output.Store, registry *campaign.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		renderer: r,
		store:    store,
		registry: registry,
		logger:   slog.Default(),
		contexts: NewContextCache(r.LoadContext),
		states:   NewStateTracker(),
		queues:   map[string]*queue{},
	}

	d.idle = sync.NewCond(&d.mu)

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// States exposes the render state tracker.
func (d *Dispatcher) States() *StateTracker { return d.states }

// Contexts exposes the render context cache.
func (d *Dispatcher) Contexts() *ContextCache { return d.contexts }

// Dispatch plans change and enqueues the resulting units. It does not wait
// for them to run.
func (d *Dispatcher) Dispatch(ctx context.Context, change watch.ClassifiedChange) {
	units := Plan(change, d.registry.Campaigns())
	if len(units) == 0 {
		d.logger.Debug("change needs no work", slog.String("change", change.String()))
		return
	}

	for _, u := range units {
		d.enqueue(ctx, u)
	}
}

// RenderCampaign enqueues a full build of campaign.
func (d *Dispatcher) RenderCampaign(ctx context.Context, name string) {
	d.enqueue(ctx, fullBuild(name))
}

// HandleChange dispatches a change from the watcher.
func (d *Dispatcher) HandleChange(ctx context.Context, change watch.ClassifiedChange) {
	d.Dispatch(ctx, change)
}

// CampaignAdded registers a new campaign folder and builds it.
func (d *Dispatcher) CampaignAdded(ctx context.Context, name string) {
	if d.registry.Add(name) {
		d.RenderCampaign(ctx, name)
	}
}

// CampaignRemoved stops fanning shared changes out to name. Its output is
// left in place.
func (d *Dispatcher) CampaignRemoved(_ context.Context, name string) {
	d.registry.Remove(name)
}

// Wait blocks until every queued unit has run.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.pending > 0 {
		d.idle.Wait()
	}
}

// BuildAll renders every campaign and processes all images with at most
// concurrency campaigns in flight, then writes the manifest. The first
// failure cancels campaigns not yet started and is returned.
func (d *Dispatcher) BuildAll(ctx context.Context, campaigns []string, concurrency int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for _, c := range campaigns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()

			if err := d.build(gctx, c); err != nil {
				return err
			}

			logging.FromContext(ctx).Info("built", logging.Campaign(c), logging.Duration(time.Since(start)))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	_, err := d.refreshManifest()

	return err
}

func (d *Dispatcher) build(ctx context.Context, c string) error {
	rc, err := d.contexts.Init(ctx, c)
	if err != nil {
		d.states.fail(c, TargetEmail, err)
		return err
	}

	prev, prevErr := d.states.snapshot(c, TargetEmail)
	d.states.begin(c, TargetStyles, TargetEmail)

	set, err := d.renderer.Render(ctx, rc, render.KindBoth)
	if err != nil {
		d.failRender(c, render.KindBoth, err, prev, prevErr)
		return err
	}

	d.states.succeed(c, append([]string{TargetStyles, TargetEmail}, set...)...)

	d.states.begin(c, TargetImages)

	images, err := d.renderer.ProcessImages(ctx, c)
	if err != nil {
		d.states.fail(c, TargetImages, err)
		return err
	}

	d.states.succeed(c, append([]string{TargetImages}, images...)...)

	return nil
}

// ---------------------------------------------------------------------------
// Queues
// ---------------------------------------------------------------------------

// queue is the FIFO of one campaign, drained by at most one worker.
type queue struct {
	units   []Unit
	running bool
}

func (d *Dispatcher) enqueue(ctx context.Context, u Unit) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[u.Campaign]
	if !ok {
		q = &queue{}
		d.queues[u.Campaign] = q
	}

	q.units = append(q.units, u)
	d.pending++

	if !q.running {
		q.running = true

		// Work runs to completion even when the dispatching context ends.
		go d.work(context.WithoutCancel(ctx), q)
	}
}

func (d *Dispatcher) work(ctx context.Context, q *queue) {
	for {
		d.mu.Lock()
		if len(q.units) == 0 {
			q.running = false
			d.mu.Unlock()

			return
		}

		u := q.units[0]
		q.units = q.units[1:]
		d.mu.Unlock()

		d.run(ctx, u)

		d.mu.Lock()
		d.pending--
		if d.pending == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}
}

// run executes the actions of u in order. A failing context load, render
// or image step ends the unit; a failing delete is logged and skipped.
func (d *Dispatcher) run(ctx context.Context, u Unit) {
	logger := d.logger.With(logging.Campaign(u.Campaign))

	var (
		artifacts []string
		changed   bool
	)

	defer func() {
		if changed {
			d.notify(u.Campaign, artifacts)
		}
	}()

	for _, a := range u.Actions {
		logger.Debug("running action", logging.Op(a.Op.String()), slog.String("action", a.String()))

		switch a.Op {
		case OpDeleteArtifact:
			if err := d.store.Delete(a.Path); err != nil {
				logger.Warn("deleting artifact failed", logging.Path(a.Path), logging.Error(err))
				continue
			}

			d.states.forget(u.Campaign, a.Path)
			changed = true

		case OpInvalidateContext:
			d.contexts.Invalidate(u.Campaign)

		case OpInitContext:
			if _, err := d.contexts.Init(ctx, u.Campaign); err != nil {
				d.states.fail(u.Campaign, TargetEmail, err)
				logger.Error("loading render context failed", logging.Error(err))

				return
			}

		case OpRender:
			set, err := d.render(ctx, u.Campaign, a.Kind)
			if err != nil {
				logger.Error("render failed", slog.String("kind", a.Kind.String()), logging.Error(err))
				return
			}

			artifacts = append(artifacts, set...)
			changed = true

		case OpProcessImages:
			d.states.begin(u.Campaign, TargetImages)

			set, err := d.renderer.ProcessImages(ctx, u.Campaign, a.Images...)
			if err != nil {
				d.states.fail(u.Campaign, TargetImages, err)
				logger.Error("image processing failed", logging.Error(err))

				return
			}

			d.states.succeed(u.Campaign, append([]string{TargetImages}, set...)...)
			artifacts = append(artifacts, set...)
			changed = true
		}
	}
}

func (d *Dispatcher) render(ctx context.Context, c string, kind render.Kind) (render.ArtifactSet, error) {
	rc, err := d.contexts.Get(ctx, c)
	if err != nil {
		d.states.fail(c, TargetEmail, err)
		return nil, err
	}

	targets := renderTargets(kind)
	prev, prevErr := d.states.snapshot(c, TargetEmail)
	d.states.begin(c, targets...)

	set, err := d.renderer.Render(ctx, rc, kind)
	if err != nil {
		d.failRender(c, kind, err, prev, prevErr)
		return nil, err
	}

	d.states.succeed(c, append(targets, set...)...)

	return set, nil
}

// failRender marks the failing part of a render. Styles render first, so a
// failure in the styles of a Both render puts the email target back into
// prev, the state it had before the render began.
func (d *Dispatcher) failRender(c string, kind render.Kind, err error, prev State, prevErr error) {
	var re *render.RenderError
	if errors.As(err, &re) && re.Kind == render.KindStyles {
		d.states.fail(c, TargetStyles, err)

		if kind == render.KindBoth {
			d.states.restore(c, TargetEmail, prev, prevErr)
		}

		return
	}

	for _, t := range renderTargets(kind) {
		if t == TargetStyles && kind == render.KindBoth {
			d.states.succeed(c, t)
			continue
		}

		d.states.fail(c, t, err)
	}
}

func renderTargets(kind render.Kind) []string {
	switch kind {
	case render.KindEmail:
		return []string{TargetEmail}
	case render.KindStyles:
		return []string{TargetStyles}
	default:
		return []string{TargetStyles, TargetEmail}
	}
}

func (d *Dispatcher) notify(c string, artifacts []string) {
	m, err := d.refreshManifest()
	if err != nil {
		d.logger.Warn("refreshing manifest failed", logging.Campaign(c), logging.Error(err))
	}

	if d.notifier != nil {
		d.notifier.Notify(Notification{Campaign: c, Artifacts: artifacts, Manifest: m})
	}
}

func (d *Dispatcher) refreshManifest() (*output.Manifest, error) {
	d.manifestMu.Lock()
	defer d.manifestMu.Unlock()

	return output.WriteManifest(d.store)
}
