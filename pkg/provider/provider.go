package provider

import (
	"context"
	"fmt"
)

// ID identifies one of the generation backends shown side by side.
type ID string

const (
	Claude ID = "claude"
	Gemini ID = "gemini"
	Exaone ID = "exaone"
)

var allIDs = []ID{Claude, Gemini, Exaone}

// IDs returns every provider ID in display order.
func IDs() []ID {
	out := make([]ID, len(allIDs))
	copy(out, allIDs)
	return out
}

// ParseID converts s into an ID, rejecting unknown providers.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return id, nil
}

// Valid reports whether id names a known provider.
func (id ID) Valid() bool {
	for _, known := range allIDs {
		if id == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable provider name used in the UI and in
// error strings.
func (id ID) Label() string {
	switch id {
	case Claude:
		return "Claude"
	case Gemini:
		return "Gemini"
	case Exaone:
		return "EXAONE"
	default:
		return string(id)
	}
}

// Provider defines the interface for LLM API backends. The credential is
// passed per call because credentials belong to a browser session, not to
// the backend.
type Provider interface {
	// Complete sends a completion request and returns the model response.
	Complete(ctx context.Context, apiKey string, req *Request) (*Response, error)

	// Name returns the provider identifier (e.g. "anthropic").
	Name() string
}

// Request represents a completion request to an LLM provider.
type Request struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserPrompt builds a single-turn request.
func UserPrompt(model, system, prompt string, maxTokens int) *Request {
	return &Request{
		Model:     model,
		System:    system,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
}

// Response represents a completion response from an LLM provider.
type Response struct {
	Content    string `json:"content"`
	Usage      Usage  `json:"usage"`
	StopReason string `json:"stop_reason"`
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
