package summarize

import (
	"context"
	"strings"
)

const ollamaBaseURL = "http://localhost:11434"

// Ollama calls a local /api/chat endpoint. No key is needed.
type Ollama struct {
	opts Options
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message openAIMessage `json:"message"`
	Done    bool          `json:"done"`
}

// NewOllama creates the adapter.
func NewOllama(opts Options) *Ollama {
	if opts.BaseURL == "" {
		opts.BaseURL = ollamaBaseURL
	}
	opts.Client = opts.httpClient()
	return &Ollama{opts: opts}
}

func (o *Ollama) Summarize(ctx context.Context, in ModuleInput) (string, error) {
	prompt, err := RenderPrompt(in, o.opts.DetailLevel)
	if err != nil {
		return "", err
	}
	body := ollamaRequest{
		Model:    o.opts.Model,
		Messages: []openAIMessage{{Role: "user", Content: prompt}},
		Options:  ollamaOptions{Temperature: o.opts.Temperature, NumPredict: o.opts.MaxTokens},
	}
	var resp ollamaResponse
	url := strings.TrimRight(o.opts.BaseURL, "/") + "/api/chat"
	if err := postJSON(ctx, o.opts.Client, string(providerOllama), url, nil, body, &resp); err != nil {
		return "", err
	}
	return finish(string(providerOllama), resp.Message.Content)
}
