package summarize

import (
	"context"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// Anthropic calls the Messages API.
type Anthropic struct {
	opts Options
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropic creates the adapter; an API key is required.
func NewAnthropic(opts Options) (*Anthropic, error) {
	if opts.APIKey == "" {
		return nil, missingKey(string(providerAnthropic))
	}
	if opts.BaseURL == "" {
		opts.BaseURL = anthropicBaseURL
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	opts.Client = opts.httpClient()
	return &Anthropic{opts: opts}, nil
}

func (a *Anthropic) Summarize(ctx context.Context, in ModuleInput) (string, error) {
	prompt, err := RenderPrompt(in, a.opts.DetailLevel)
	if err != nil {
		return "", err
	}
	body := anthropicRequest{
		Model:       a.opts.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         a.opts.APIKey,
		"anthropic-version": anthropicVersion,
	}
	var resp anthropicResponse
	url := strings.TrimRight(a.opts.BaseURL, "/") + "/v1/messages"
	if err := postJSON(ctx, a.opts.Client, string(providerAnthropic), url, headers, body, &resp); err != nil {
		return "", err
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return finish(string(providerAnthropic), text.String())
}
