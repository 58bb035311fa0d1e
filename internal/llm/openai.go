package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAILLM generates completions through an OpenAI-compatible API.
type OpenAILLM struct {
	client *openai.Client
	model  string
}

// NewOpenAILLM creates a client for the OpenAI chat completion API. A
// non-empty baseURL points the client at a compatible self-hosted server.
func NewOpenAILLM(apiKey, baseURL, model string) *OpenAILLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAILLM{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate runs one chat completion.
func (o *OpenAILLM) Generate(ctx context.Context, req Request) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if isRefusal(err) {
			return "", fmt.Errorf("%w: %v", ErrRefused, err)
		}
		return "", fmt.Errorf("%w: openai chat failed: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: completion stopped by content filter", ErrRefused)
	}

	out := strings.TrimSpace(choice.Message.Content)
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return out, nil
}

// isRefusal reports whether an API error is a content policy rejection
// rather than a transient failure.
func isRefusal(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatusCode != 400 {
		return false
	}
	code := strings.ToLower(fmt.Sprint(apiErr.Code))
	return strings.Contains(code, "content_policy") ||
		strings.Contains(code, "content_filter") ||
		strings.Contains(strings.ToLower(apiErr.Message), "content policy")
}
