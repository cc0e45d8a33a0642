package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/codemap/internal/config"
)

const maxErrorBody = 512

// Options configures a provider adapter.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	DetailLevel config.DetailLevel
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends body and decodes a 200 response into out. Every failure is
// returned as *Error with its retry classification.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return &Error{Provider: provider, Message: "marshal request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return &Error{Provider: provider, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Provider: provider, Message: "request abandoned", Err: ctxErr}
		}
		return &Error{Provider: provider, Retryable: true, Message: "send request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Provider: provider, StatusCode: resp.StatusCode, Retryable: true, Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Retryable:  RetryableStatus(resp.StatusCode),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    errorExcerpt(data),
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Provider: provider, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func errorExcerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty error response"
	}
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

// finish applies the shared post-processing to a model reply.
func finish(provider, content string) (string, error) {
	out := StripFences(content)
	if out == "" {
		return "", &Error{Provider: provider, Message: fmt.Sprintf("empty response from %s", provider)}
	}
	return out, nil
}
