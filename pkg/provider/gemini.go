package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiProvider implements Provider for the Gemini generateContent API.
// The credential travels in the "key" query parameter.
type GeminiProvider struct {
	opts options
}

// NewGeminiProvider creates a new Gemini provider. The base URL is the
// models collection; the model name and method are appended per request.
func NewGeminiProvider(opts ...Option) *GeminiProvider {
	return &GeminiProvider{opts: buildOptions(defaultGeminiURL, opts)}
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Complete sends a single request to the Gemini generateContent API.
func (p *GeminiProvider) Complete(ctx context.Context, apiKey string, req *Request) (*Response, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("gemini request requires a model")
	}

	body, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(p.opts.baseURL, "/"), url.PathEscape(req.Model), url.QueryEscape(apiKey))

	status, respBody, err := postJSON(ctx, p.opts.client, endpoint, nil, body)
	if err != nil {
		// The endpoint embeds the key; keep it out of the error text.
		return nil, redactKey(err, apiKey)
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		if !isSuccess(status) {
			return nil, statusError(status, respBody)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if gr.Error != nil {
		return nil, &APIError{
			Provider:   p.Name(),
			StatusCode: status,
			Type:       gr.Error.Status,
			Message:    gr.Error.Message,
		}
	}
	if !isSuccess(status) {
		return nil, statusError(status, respBody)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	cand := gr.Candidates[0]
	return &Response{
		Content:    cand.Content.Parts[0].Text,
		StopReason: cand.FinishReason,
		Usage: Usage{
			InputTokens:  gr.UsageMetadata.PromptTokenCount,
			OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

func buildGeminiRequest(req *Request) geminiRequest {
	gr := geminiRequest{Contents: make([]geminiContent, 0, len(req.Messages))}
	for _, m := range req.Messages {
		c := geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		if m.Role == "assistant" {
			c.Role = "model"
		}
		gr.Contents = append(gr.Contents, c)
	}
	if req.System != "" {
		gr.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		gr.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens}
	}
	return gr
}

// redactKey rewrites err so that the query-string credential does not leak
// into the result pane or the logs.
func redactKey(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	msg := err.Error()
	redacted := strings.ReplaceAll(msg, url.QueryEscape(apiKey), "REDACTED")
	redacted = strings.ReplaceAll(redacted, apiKey, "REDACTED")
	if redacted == msg {
		return err
	}
	return errors.New(redacted)
}
