package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiComplete_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-3-flash-preview:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "gem-key" {
			t.Errorf("key = %q, want %q", got, "gem-key")
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}

		var reqBody geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if len(reqBody.Contents) != 1 || len(reqBody.Contents[0].Parts) != 1 {
			t.Fatalf("contents = %+v, want one part", reqBody.Contents)
		}
		if reqBody.Contents[0].Parts[0].Text != "프롬프트" {
			t.Errorf("text = %q, want %q", reqBody.Contents[0].Parts[0].Text, "프롬프트")
		}
		if reqBody.SystemInstruction != nil {
			t.Errorf("systemInstruction = %+v, want nil", reqBody.SystemInstruction)
		}
		if reqBody.GenerationConfig != nil {
			t.Errorf("generationConfig = %+v, want nil", reqBody.GenerationConfig)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "제미니 일지"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 20, "candidatesTokenCount": 40}
		}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(WithBaseURL(server.URL + "/v1beta/models/"))
	got, err := p.Complete(context.Background(), "gem-key",
		UserPrompt("gemini-3-flash-preview", "", "프롬프트", 0))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if got.Content != "제미니 일지" {
		t.Errorf("Content = %q, want %q", got.Content, "제미니 일지")
	}
	if got.StopReason != "STOP" {
		t.Errorf("StopReason = %q, want %q", got.StopReason, "STOP")
	}
	if got.Usage.InputTokens != 20 || got.Usage.OutputTokens != 40 {
		t.Errorf("Usage = %+v, want 20/40", got.Usage)
	}
}

func TestGeminiComplete_SystemAndMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if reqBody.SystemInstruction == nil || reqBody.SystemInstruction.Parts[0].Text != "트레이너" {
			t.Errorf("systemInstruction = %+v", reqBody.SystemInstruction)
		}
		if reqBody.GenerationConfig == nil || reqBody.GenerationConfig.MaxOutputTokens != 1000 {
			t.Errorf("generationConfig = %+v", reqBody.GenerationConfig)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(WithBaseURL(server.URL))
	if _, err := p.Complete(context.Background(), "k", UserPrompt("g", "트레이너", "hi", 1000)); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestGeminiComplete_ErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(WithBaseURL(server.URL))
	_, err := p.Complete(context.Background(), "k", UserPrompt("g", "", "hi", 0))
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "API key not valid. Please pass a valid API key." {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Type != "INVALID_ARGUMENT" {
		t.Errorf("Type = %q, want INVALID_ARGUMENT", apiErr.Type)
	}
}

func TestGeminiComplete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(WithBaseURL(server.URL))
	_, err := p.Complete(context.Background(), "k", UserPrompt("g", "", "hi", 0))
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestGeminiComplete_RequiresModel(t *testing.T) {
	p := NewGeminiProvider()
	if _, err := p.Complete(context.Background(), "k", UserPrompt("", "", "hi", 0)); err == nil {
		t.Fatal("Complete() expected error for empty model, got nil")
	}
}

func TestGeminiComplete_TransportErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewGeminiProvider(WithBaseURL(url))
	_, err := p.Complete(context.Background(), "super-secret-key", UserPrompt("g", "", "hi", 0))
	if err == nil {
		t.Fatal("Complete() expected error, got nil")
	}
	if strings.Contains(err.Error(), "super-secret-key") {
		t.Errorf("error leaks the credential: %q", err.Error())
	}
}
