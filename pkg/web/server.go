// Package web serves the workout log form and its JSON/WebSocket API. Each
// browser gets its own in-memory session holding credentials, result panes
// and copy acknowledgments.
package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/presenter"
	"github.com/jdgilhuly/workout_log/pkg/prompt"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

//go:embed assets/index.html
var indexHTML []byte

const (
	defaultSessionTTL = 30 * time.Minute
	shutdownTimeout   = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions derive their loggers from it.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithPrompt replaces the built-in workout log prompt for every session.
func WithPrompt(p *prompt.PromptVariant) Option {
	return func(s *Server) { s.prompt = p }
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithCopiedWindow overrides how long a pane shows its copied state.
func WithCopiedWindow(d time.Duration) Option {
	return func(s *Server) { s.copiedWindow = d }
}

// Server is the HTTP front end.
type Server struct {
	routes       map[provider.ID]generator.Route
	prompt       *prompt.PromptVariant
	sessionTTL   time.Duration
	copiedWindow time.Duration
	logger       zerolog.Logger
	now          func() time.Time

	sessions *sessionStore
	schemas  *schemas
	handler  http.Handler
}

// New creates a Server whose sessions generate through routes.
func New(routes map[provider.ID]generator.Route, opts ...Option) (*Server, error) {
	sch, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		routes:       routes,
		prompt:       prompt.Default(),
		sessionTTL:   defaultSessionTTL,
		copiedWindow: presenter.CopiedWindow,
		logger:       zerolog.Nop(),
		now:          time.Now,
		sessions:     newSessionStore(),
		schemas:      sch,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/credentials/{provider}", s.handleSetCredential)
	mux.HandleFunc("POST /api/credentials/{provider}/file", s.handleCredentialFile)
	mux.HandleFunc("POST /api/credentials/{provider}/manual", s.handleToggleManual)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/panes/{provider}/copied", s.handleCopied)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.handler = securityHeadersMiddleware(s.logRequests(mux))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Idle sessions are swept while the server runs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("server started")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.sweepLoop(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.sessions.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		s.logger.Info().Msg("server stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) sweepLoop(ctx context.Context) {
	interval := s.sessionTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.sweep(s.now().Add(-s.sessionTTL)); n > 0 {
				s.logger.Debug().Int("expired", n).Int("active", s.sessions.len()).Msg("idle sessions dropped")
			}
		}
	}
}
