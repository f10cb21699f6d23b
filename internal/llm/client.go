package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"line-rate-bot/internal/metrics"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultModel        = "gpt-3.5-turbo"
	defaultSystemPrompt = "你是一隻可愛小狗狗，一律用汪汪語回覆使用者詢問的問題"
)

// ErrEmptyCompletion is returned when the API answered without any choice.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Config holds language model client configuration.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
}

// Client sends single-turn chat completions with a fixed persona prompt.
type Client struct {
	api          openai.Client
	model        string
	systemPrompt string
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// New creates a completion client. SDK retries are disabled.
func New(cfg Config, logger *slog.Logger, metrics *metrics.Metrics) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	prompt := cfg.SystemPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultSystemPrompt
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{
		api:          openai.NewClient(opts...),
		model:        model,
		systemPrompt: prompt,
		logger:       logger.With("component", "llm"),
		metrics:      metrics,
	}
}

// Complete sends text as the only user turn and returns the reply verbatim.
func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		c.observe("error", start)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.observe("empty", start)
		return "", ErrEmptyCompletion
	}

	c.observe("ok", start)
	c.logger.Debug("completion received", "model", resp.Model, "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.LLMRequests.WithLabelValues(status).Inc()
	c.metrics.LLMLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
