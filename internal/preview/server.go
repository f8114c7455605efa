package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/hupe1980/mailsmith/internal/dispatch"
	"github.com/hupe1980/mailsmith/internal/logging"
	"github.com/hupe1980/mailsmith/internal/output"
)

// Defaults for the preview server.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultBufferSize      = 16
)

// Server is the live-reload preview server. It implements the dispatcher's
// Notifier.
type Server struct {
	dist            string
	addr            string
	shutdownTimeout time.Duration
	logger          *slog.Logger
	hub             *Broadcaster[dispatch.Notification]
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithShutdownTimeout bounds the drain of in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New returns a Server for the output tree at dist.
func New(dist string, opts ...Option) *Server {
	s := &Server{
		dist:            dist,
		addr:            DefaultAddr,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.Default(),
		hub:             NewBroadcaster[dispatch.Notification](DefaultBufferSize),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Notify forwards n to every connected browser.
func (s *Server) Notify(n dispatch.Notification) {
	s.hub.Broadcast(n)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Handler returns the preview routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/manifest.json", s.handleManifest)
	r.Get("/_reload", s.handleReload)
	r.Handle("/dist/*", http.StripPrefix("/dist/", http.FileServer(http.Dir(s.dist))))

	return r
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)

	go func() { serveErr <- srv.Serve(ln) }()

	s.logger.Info("preview server listening", slog.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		// Close SSE streams first so Shutdown does not wait on them.
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down preview server: %w", err)
		}

		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serving preview: %w", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			slog.String("method", r.Method),
			logging.Path(r.URL.Path),
			slog.Int("status", ww.Status()),
			logging.Duration(time.Since(start)),
		)
	})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	m, err := output.BuildManifest(s.dist)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	selected := strings.TrimPrefix(r.URL.Query().Get("page"), "/")
	if !hasPage(m, selected) {
		selected = ""
		if pages := m.Pages(); len(pages) > 0 {
			selected = pages[0]
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := indexTemplate.Execute(w, indexData{Manifest: m, Selected: selected}); err != nil {
		s.logger.Warn("rendering index failed", logging.Error(err))
	}
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	m, err := output.BuildManifest(s.dist)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(m); err != nil {
		s.logger.Warn("writing manifest failed", logging.Error(err))
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	updates := s.hub.Subscribe(ctx)
	sse := datastar.NewSSE(w, r)

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-updates:
			if !ok {
				return
			}

			if err := s.push(sse, n); err != nil {
				s.logger.Debug("reload stream closed", logging.Error(err))
				return
			}
		}
	}
}

func (s *Server) push(sse *datastar.ServerSentEventGenerator, n dispatch.Notification) error {
	if n.Manifest != nil {
		picker, err := renderPicker(n.Manifest, "")
		if err != nil {
			return err
		}

		if err := sse.PatchElements(picker); err != nil {
			return err
		}
	}

	campaign, err := json.Marshal(n.Campaign)
	if err != nil {
		return err
	}

	return sse.ExecuteScript(fmt.Sprintf(reloadScript, campaign))
}

func hasPage(m *output.Manifest, page string) bool {
	if page == "" {
		return false
	}

	for _, p := range m.Pages() {
		if p == page {
			return true
		}
	}

	return false
}
