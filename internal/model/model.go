// Package model generates completion candidates for a prompt. The OpenAI
// client picks the chat or legacy completion API based on the model name;
// a mock client serves tests and the offline "test" model.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/FergusFettes/command-line-loom/internal/config"
	"github.com/FergusFettes/command-line-loom/internal/loom"
)

// Client produces candidate continuations for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// startsWithLetter decides whether a completion needs a leading space so it
// does not glue onto the prompt's last word.
var startsWithLetter = regexp.MustCompile(`^[a-zA-Z]`)

// OpenAIClient calls the OpenAI API with the configured parameters.
type OpenAIClient struct {
	client *openai.Client
	params config.Model
}

// NewOpenAIClient builds a client from the model settings. The API key is
// required; the base URL is optional and defaults to the public endpoint.
func NewOpenAIClient(params config.Model) (*OpenAIClient, error) {
	if params.APIKey == "" {
		return nil, fmt.Errorf("api_key is not set: %w", loom.ErrInvalidState)
	}
	cfg := openai.DefaultConfig(params.APIKey)
	if params.APIBase != "" {
		cfg.BaseURL = params.APIBase
	}
	slog.Debug("initializing openai client", "model", params.Model, "n", params.N)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		params: params,
	}, nil
}

// Generate returns N candidate continuations for the prompt.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) ([]string, error) {
	if isChatModel(c.params.Model) {
		return c.chat(ctx, prompt)
	}
	return c.complete(ctx, prompt)
}

// isChatModel reports whether the model only speaks the chat API.
func isChatModel(model string) bool {
	return strings.HasPrefix(model, "gpt-3.5") || strings.HasPrefix(model, "gpt-4") ||
		strings.HasPrefix(model, "gpt-5") || strings.HasPrefix(model, "o")
}

func (c *OpenAIClient) chat(ctx context.Context, prompt string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		N:                c.params.N,
		MaxTokens:        c.params.MaxTokens,
		Temperature:      c.params.Temperature,
		TopP:             c.params.TopP,
		FrequencyPenalty: c.params.FrequencyPenalty,
		PresencePenalty:  c.params.PresencePenalty,
		Stop:             c.params.Stop,
	}
	slog.Debug("requesting chat completion", "model", req.Model)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}
	candidates := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		text := choice.Message.Content
		// Chat models drop the space after the prompt's trailing colon.
		if startsWithLetter.MatchString(text) {
			text = " " + text
		}
		candidates = append(candidates, text)
	}
	return candidates, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) ([]string, error) {
	req := openai.CompletionRequest{
		Model:            c.params.Model,
		Prompt:           prompt,
		N:                c.params.N,
		MaxTokens:        c.params.MaxTokens,
		Temperature:      c.params.Temperature,
		TopP:             c.params.TopP,
		FrequencyPenalty: c.params.FrequencyPenalty,
		PresencePenalty:  c.params.PresencePenalty,
		Stop:             c.params.Stop,
	}
	slog.Debug("requesting completion", "model", req.Model)
	resp, err := c.client.CreateCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion: no choices returned")
	}
	candidates := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		candidates = append(candidates, strings.TrimPrefix(choice.Text, "\n"))
	}
	return candidates, nil
}

// MockClient returns canned candidates; with none set, it echoes the prompt.
type MockClient struct {
	Candidates []string
	Err        error

	// Prompts records every prompt passed to Generate.
	Prompts []string
}

// Generate implements Client.
func (m *MockClient) Generate(_ context.Context, prompt string) ([]string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Candidates) == 0 {
		return []string{prompt}, nil
	}
	return m.Candidates, nil
}

// New returns the client for the configured model. The "test" model echoes
// prompts back without any network access.
func New(params config.Model) (Client, error) {
	if params.Model == "test" {
		return &MockClient{}, nil
	}
	return NewOpenAIClient(params)
}
