// Package narrative builds scouting-report prompts and sends them to a
// text-generation model.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrNoText is returned when a response carries no text block.
var ErrNoText = errors.New("response contained no text")

// AnthropicConfig configures an AnthropicGenerator.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AnthropicGenerator calls the Messages API once per report. The SDK's own
// retry loop is disabled.
type AnthropicGenerator struct {
	msgs  *anthropic.MessageService
	model anthropic.Model
}

// NewAnthropicGenerator builds a generator from cfg.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicGenerator{
		msgs:  &client.Messages,
		model: anthropic.Model(cfg.Model),
	}, nil
}

// Generate sends prompt as a single user message and returns the first text block.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	msg, err := g.msgs.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ErrNoText
}
