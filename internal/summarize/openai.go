package summarize

import (
	"context"
	"strings"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAI calls the Chat Completions API. BaseURL may point at any
// compatible server.
type OpenAI struct {
	opts Options
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAI creates the adapter; an API key is required.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, missingKey(string(providerOpenAI))
	}
	if opts.BaseURL == "" {
		opts.BaseURL = openAIBaseURL
	}
	opts.Client = opts.httpClient()
	return &OpenAI{opts: opts}, nil
}

func (o *OpenAI) Summarize(ctx context.Context, in ModuleInput) (string, error) {
	prompt, err := RenderPrompt(in, o.opts.DetailLevel)
	if err != nil {
		return "", err
	}
	body := openAIRequest{
		Model:       o.opts.Model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.opts.APIKey}
	var resp openAIResponse
	url := strings.TrimRight(o.opts.BaseURL, "/") + "/chat/completions"
	if err := postJSON(ctx, o.opts.Client, string(providerOpenAI), url, headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: string(providerOpenAI), Message: "no choices returned"}
	}
	return finish(string(providerOpenAI), resp.Choices[0].Message.Content)
}
