package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	defaultFriendliURL    = "https://api.friendli.ai/serverless/v1/chat/completions"
	defaultFriendliTokens = 4096
)

// FriendliProvider implements Provider for Friendli's OpenAI-compatible
// chat completions endpoint, which serves the EXAONE models. The credential
// travels as a bearer token.
type FriendliProvider struct {
	opts options
}

// NewFriendliProvider creates a new Friendli provider.
func NewFriendliProvider(opts ...Option) *FriendliProvider {
	return &FriendliProvider{opts: buildOptions(defaultFriendliURL, opts)}
}

// Name returns "friendli".
func (p *FriendliProvider) Name() string { return "friendli" }

// chatRequest is the OpenAI-style chat completions request body.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *chatError `json:"error,omitempty"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends a single request to the chat completions endpoint.
func (p *FriendliProvider) Complete(ctx context.Context, apiKey string, req *Request) (*Response, error) {
	body, err := json.Marshal(buildChatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	status, respBody, err := postJSON(ctx, p.opts.client, p.opts.baseURL, map[string]string{
		"Authorization": "Bearer " + apiKey,
	}, body)
	if err != nil {
		return nil, err
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		if !isSuccess(status) {
			return nil, statusError(status, respBody)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if cr.Error != nil {
		return nil, &APIError{
			Provider:   p.Name(),
			StatusCode: status,
			Type:       cr.Error.Type,
			Message:    cr.Error.Message,
		}
	}
	if !isSuccess(status) {
		return nil, statusError(status, respBody)
	}

	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == nil {
		return nil, ErrEmptyResponse
	}
	choice := cr.Choices[0]
	return &Response{
		Content:    *choice.Message.Content,
		StopReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  cr.Usage.PromptTokens,
			OutputTokens: cr.Usage.CompletionTokens,
		},
	}, nil
}

func buildChatRequest(req *Request) chatRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultFriendliTokens
	}

	cr := chatRequest{
		Model:     req.Model,
		Messages:  make([]chatMessage, 0, len(req.Messages)+1),
		MaxTokens: maxTokens,
	}

	// The system prompt is a leading message in this API.
	if req.System != "" {
		s := req.System
		cr.Messages = append(cr.Messages, chatMessage{Role: "system", Content: &s})
	}
	for _, m := range req.Messages {
		c := m.Content
		cr.Messages = append(cr.Messages, chatMessage{Role: m.Role, Content: &c})
	}
	return cr
}
