package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an unrecognised error body ends up in an
// error message.
const maxErrorBody = 512

// Option configures any of the providers in this package.
type Option func(*options)

type options struct {
	client  *http.Client
	baseURL string
}

// WithHTTPClient sets a custom HTTP client (useful for testing or to apply
// a timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

func buildOptions(defaultURL string, opts []Option) options {
	// No client timeout: a request runs until the provider answers or the
	// connection fails.
	o := options{client: &http.Client{}, baseURL: defaultURL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// postJSON sends body to url and returns the status code and full response
// body. Only transport failures are returned as errors; status handling is
// left to the caller because every provider reports errors differently.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("sending HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return httpResp.StatusCode, respBody, nil
}

func statusError(status int, body []byte) error {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return fmt.Errorf("HTTP %d: %s", status, s)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
