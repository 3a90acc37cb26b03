// Package providertest provides scripted provider.Provider doubles for
// tests that exercise generation without touching the network.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// Call records one Complete invocation.
type Call struct {
	APIKey  string
	Request provider.Request
}

// Reply is a scripted outcome for one call. Err takes precedence over
// Content.
type Reply struct {
	Content string
	Usage   provider.Usage
	Err     error
}

// MockProvider returns pre-configured replies in sequence and records every
// call. It is safe for concurrent use.
type MockProvider struct {
	name    string
	replies []Reply
	gate    chan struct{}

	mu    sync.Mutex
	idx   int
	calls []Call
}

// NewMockProvider creates a MockProvider that returns the given replies in
// order. Once all replies are consumed, subsequent calls return an error.
func NewMockProvider(name string, replies ...Reply) *MockProvider {
	return &MockProvider{name: name, replies: replies}
}

// Text is shorthand for a provider that answers once with content.
func Text(name, content string) *MockProvider {
	return NewMockProvider(name, Reply{Content: content})
}

// Failing is shorthand for a provider that fails once with err.
func Failing(name string, err error) *MockProvider {
	return NewMockProvider(name, Reply{Err: err})
}

// Hold makes every call block until Release is called or the context ends.
func (m *MockProvider) Hold() *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
	return m
}

// Release unblocks calls held by Hold.
func (m *MockProvider) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Complete records the call, waits if held, and returns the next reply.
func (m *MockProvider) Complete(ctx context.Context, apiKey string, req *provider.Request) (*provider.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{APIKey: apiKey, Request: *req})
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx >= len(m.replies) {
		return nil, fmt.Errorf("mock provider %s: no more replies (consumed %d/%d)", m.name, m.idx, len(m.replies))
	}
	r := m.replies[m.idx]
	m.idx++
	if r.Err != nil {
		return nil, r.Err
	}
	return &provider.Response{Content: r.Content, Usage: r.Usage, StopReason: "end_turn"}, nil
}

// Name returns the name given at construction.
func (m *MockProvider) Name() string { return m.name }

// Calls returns a copy of all recorded calls.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of recorded calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
