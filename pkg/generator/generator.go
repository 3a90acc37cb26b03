// Package generator runs generation cycles: one shared prompt sent to every
// provider concurrently, with each provider's outcome written to its own
// result slot as soon as it arrives.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jdgilhuly/workout_log/pkg/prompt"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// ErrRoutineRequired is returned by Generate when the workout routine is
// empty. No request is made and no slot changes.
var ErrRoutineRequired = errors.New("workout routine is required")

// Credentials supplies the credential for a provider, if one is set.
type Credentials interface {
	Get(id provider.ID) (string, bool)
}

// Route binds a provider ID to a backend and its request shape.
type Route struct {
	Provider  provider.Provider
	Model     string
	System    string
	MaxTokens int
}

// Status is the outcome kind of one provider task.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome describes how one provider task of a cycle ended. It carries
// no credential and no generated text.
type Outcome struct {
	Cycle    uint64
	Provider provider.ID
	Status   Status
	Elapsed  time.Duration
	Usage    provider.Usage
	Err      error
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for per-provider outcomes.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithPrompt replaces the built-in workout log prompt.
func WithPrompt(p *prompt.PromptVariant) Option {
	return func(g *Generator) {
		if p != nil {
			g.prompt = p
		}
	}
}

// WithObserver registers fn to be called once per provider task, after its
// slot has been written.
func WithObserver(fn func(Outcome)) Option {
	return func(g *Generator) { g.observer = fn }
}

// Generator orchestrates generation cycles for one State.
type Generator struct {
	routes   map[provider.ID]Route
	creds    Credentials
	state    *State
	prompt   *prompt.PromptVariant
	logger   zerolog.Logger
	observer func(Outcome)
}

// New creates a Generator writing into state.
func New(routes map[provider.ID]Route, creds Credentials, state *State, opts ...Option) *Generator {
	g := &Generator{
		routes: routes,
		creds:  creds,
		state:  state,
		prompt: prompt.Default(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cycle tracks the tasks of one generation cycle. Waiting is optional:
// slots are updated as each task completes regardless.
type Cycle struct {
	ID    uint64
	group errgroup.Group
	done  chan struct{}
}

// Wait blocks until every provider task of the cycle has finished.
func (c *Cycle) Wait() { <-c.done }

// Done is closed when every provider task of the cycle has finished.
func (c *Cycle) Done() <-chan struct{} { return c.done }

// Generate starts a generation cycle. It reveals the result area and starts
// one task per provider without waiting for any of them. Tasks are never
// retried; ctx governs their lifetime, so callers that must not cancel
// in-flight requests should pass a context that is never cancelled.
func (g *Generator) Generate(ctx context.Context, in prompt.Inputs) (*Cycle, error) {
	if strings.TrimSpace(in.Routine) == "" {
		return nil, ErrRoutineRequired
	}

	c := &Cycle{ID: g.state.begin(), done: make(chan struct{})}
	g.logger.Info().Uint64("cycle", c.ID).Msg("generation cycle started")

	for _, id := range provider.IDs() {
		c.group.Go(func() error {
			g.run(ctx, c.ID, id, in)
			return nil
		})
	}

	go func() {
		c.group.Wait()
		close(c.done)
	}()
	return c, nil
}

// run is one provider task. Every failure ends up as slot text; nothing is
// returned to the caller.
func (g *Generator) run(ctx context.Context, cycle uint64, id provider.ID, in prompt.Inputs) {
	log := g.logger.With().Uint64("cycle", cycle).Str("provider", string(id)).Logger()
	out := Outcome{Cycle: cycle, Provider: id}

	key, ok := g.creds.Get(id)
	if !ok {
		log.Info().Msg("credential missing, request skipped")
		g.state.settle(cycle, id, MissingCredentialText(id))
		out.Status = StatusSkipped
		g.observe(out)
		return
	}

	start := time.Now()
	var text string
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("generation task panicked")
			out.Err = fmt.Errorf("%v", r)
			text = FailureText(id, out.Err)
		}
		g.state.settle(cycle, id, text)
		if out.Err != nil {
			out.Status = StatusFailed
		}
		out.Elapsed = time.Since(start)
		g.observe(out)
	}()

	route, ok := g.routes[id]
	if !ok || route.Provider == nil {
		out.Err = fmt.Errorf("provider %s is not configured", id)
		text = FailureText(id, out.Err)
		log.Error().Msg("no route configured")
		return
	}

	req, err := g.buildRequest(route, in)
	if err != nil {
		out.Err = err
		text = FailureText(id, err)
		log.Error().Err(err).Msg("building prompt")
		return
	}

	g.state.startLoading(cycle, id)
	resp, err := route.Provider.Complete(ctx, key, req)
	elapsed := time.Since(start)
	if err != nil {
		out.Err = err
		text = FailureText(id, err)
		log.Warn().Err(err).Dur("elapsed", elapsed).Msg("generation failed")
		return
	}

	text = resp.Content
	out.Usage = resp.Usage
	log.Info().
		Dur("elapsed", elapsed).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Msg("generation complete")
}

func (g *Generator) observe(o Outcome) {
	if g.observer != nil {
		g.observer(o)
	}
}

func (g *Generator) buildRequest(route Route, in prompt.Inputs) (*provider.Request, error) {
	rendered, err := g.prompt.Render(in)
	if err != nil {
		return nil, err
	}
	system := route.System
	if rendered.System != "" {
		system = rendered.System
	}
	return provider.UserPrompt(route.Model, system, rendered.User, route.MaxTokens), nil
}
