package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	defaultAnthropicURL     = "https://api.anthropic.com/v1/messages"
	defaultAnthropicVersion = "2023-06-01"
	defaultAnthropicTokens  = 4096
)

// AnthropicProvider implements Provider for the Anthropic Messages API.
// The credential travels in the x-api-key header.
type AnthropicProvider struct {
	opts options
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(opts ...Option) *AnthropicProvider {
	return &AnthropicProvider{opts: buildOptions(defaultAnthropicURL, opts)}
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return "anthropic" }

// anthropicRequest is the Anthropic Messages API request body.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the Anthropic Messages API response body. Error is
// set instead of Content when the API rejects the call.
type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *anthropicError `json:"error,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends a single request to the Anthropic Messages API.
func (p *AnthropicProvider) Complete(ctx context.Context, apiKey string, req *Request) (*Response, error) {
	body, err := p.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	status, respBody, err := postJSON(ctx, p.opts.client, p.opts.baseURL, map[string]string{
		"X-Api-Key":         apiKey,
		"Anthropic-Version": defaultAnthropicVersion,
	}, body)
	if err != nil {
		return nil, err
	}

	var ar anthropicResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		if !isSuccess(status) {
			return nil, statusError(status, respBody)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if ar.Error != nil {
		return nil, &APIError{
			Provider:   p.Name(),
			StatusCode: status,
			Type:       ar.Error.Type,
			Message:    ar.Error.Message,
		}
	}
	if !isSuccess(status) {
		return nil, statusError(status, respBody)
	}

	return parseAnthropicResponse(&ar)
}

func (p *AnthropicProvider) buildRequestBody(req *Request) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicTokens
	}

	ar := anthropicRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  make([]anthropicMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		ar.Messages = append(ar.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	return json.Marshal(ar)
}

func parseAnthropicResponse(ar *anthropicResponse) (*Response, error) {
	var parts []string
	for _, block := range ar.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content:    strings.Join(parts, "\n"),
		StopReason: ar.StopReason,
		Usage: Usage{
			InputTokens:  ar.Usage.InputTokens,
			OutputTokens: ar.Usage.OutputTokens,
		},
	}, nil
}
