// Package openai adapts OpenAI-compatible chat completion APIs to the
// providers.Provider interface.
package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/services/providers"
	"go.uber.org/zap"
)

const providerName = "openai"

var modelPrefixes = []string{"gpt-", "chatgpt-", "o1", "o3", "o4"}

// Adapter implements providers.Provider on top of the official OpenAI client
type Adapter struct {
	client    openai.Client
	maxTokens int
	logger    *zap.Logger
}

// NewAdapter creates a new OpenAI adapter. Retries are disabled; a failed
// call surfaces to the caller immediately.
func NewAdapter(cfg config.OpenAIConfig, logger *zap.Logger) *Adapter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Adapter{
		client:    openai.NewClient(opts...),
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// Supports reports whether modelID is an OpenAI chat model
func (a *Adapter) Supports(modelID string) bool {
	for _, prefix := range modelPrefixes {
		if strings.HasPrefix(modelID, prefix) {
			return true
		}
	}
	return false
}

// Invoke sends the prompt as a single user message
func (a *Adapter) Invoke(ctx context.Context, req *providers.InvokeRequest) (*providers.InvokeResponse, error) {
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.ModelID,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}

	res, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			retryable := apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
			return nil, providers.NewProviderError(providerName, "API_ERROR", "OpenAI request failed", apiErr.StatusCode, retryable, err)
		}
		return nil, providers.NewProviderError(providerName, "HTTP_ERROR", "OpenAI request failed", 0, true, err)
	}

	if len(res.Choices) == 0 {
		return nil, providers.NewProviderError(providerName, "EMPTY_RESPONSE", "Model returned no choices", 0, false, nil)
	}

	latency := time.Since(start)
	a.logger.Debug("openai completion finished",
		zap.String("model_id", req.ModelID),
		zap.String("finish_reason", string(res.Choices[0].FinishReason)),
		zap.Duration("latency", latency),
	)

	return &providers.InvokeResponse{
		Text:         res.Choices[0].Message.Content,
		ModelID:      req.ModelID,
		StopReason:   string(res.Choices[0].FinishReason),
		InputTokens:  int(res.Usage.PromptTokens),
		OutputTokens: int(res.Usage.CompletionTokens),
		Latency:      latency,
	}, nil
}
