package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hejijunhao/chatsift/internal/connector/httpclient"
	"github.com/hejijunhao/chatsift/internal/model"
)

const defaultModel = "gpt-4o-mini"
const defaultRequestTimeout = 30 * time.Second

// LLM summarizes via an OpenAI-compatible chat completions endpoint
// (POST {base}/chat/completions with Bearer auth).
type LLM struct {
	client *httpclient.Client
	model  string
	budget int
}

// Option configures LLM behavior.
type Option func(*llmConfig)

type llmConfig struct {
	budget  int
	timeout time.Duration
}

// WithPromptBudget caps the estimated token size of the prompt.
func WithPromptBudget(n int) Option {
	return func(c *llmConfig) {
		if n > 0 {
			c.budget = n
		}
	}
}

// WithRequestTimeout sets the HTTP timeout for completion requests.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *llmConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewLLM creates an LLM summarizer. baseURL is the API root, e.g.
// "https://api.openai.com/v1". An empty modelName selects a default.
func NewLLM(baseURL, apiKey, modelName string, opts ...Option) *LLM {
	cfg := llmConfig{
		budget:  defaultPromptBudget,
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if modelName == "" {
		modelName = defaultModel
	}

	return &LLM{
		client: httpclient.New(baseURL, apiKey, httpclient.WithTimeout(cfg.timeout)),
		model:  modelName,
		budget: cfg.budget,
	}
}

// Request and response types (unexported).

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

func (l *LLM) Summarize(ctx context.Context, result model.ClusterResult) (string, error) {
	req := chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(result, l.budget)},
		},
	}

	var resp chatResponse
	if err := l.client.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("llm summarizer: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm summarizer: response has no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("llm summarizer: empty completion")
	}
	return text, nil
}
