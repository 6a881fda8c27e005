// Package bedrock adapts the Amazon Bedrock runtime to the providers.Provider interface.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/services/providers"
	"go.uber.org/zap"
)

const providerName = "bedrock"

// Model vendors hosted on Bedrock. Cross-region inference profiles prefix
// these with a geography ("us.", "eu.", "apac.").
var vendorPrefixes = []string{
	"anthropic.",
	"amazon.",
	"meta.",
	"mistral.",
	"cohere.",
	"ai21.",
}

// RuntimeAPI is the subset of the Bedrock runtime client used by the adapter
type RuntimeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// NewClient creates a Bedrock runtime client from a resolved aws.Config
func NewClient(awsCfg aws.Config) *bedrockruntime.Client {
	return bedrockruntime.NewFromConfig(awsCfg)
}

// Adapter implements providers.Provider for Anthropic models on Bedrock
type Adapter struct {
	client           RuntimeAPI
	anthropicVersion string
	maxTokens        int
	logger           *zap.Logger
}

// NewAdapter creates a new Bedrock adapter
func NewAdapter(client RuntimeAPI, cfg config.BedrockConfig, logger *zap.Logger) *Adapter {
	return &Adapter{
		client:           client,
		anthropicVersion: cfg.AnthropicVersion,
		maxTokens:        cfg.MaxTokens,
		logger:           logger,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// Supports reports whether modelID names a Bedrock-hosted model
func (a *Adapter) Supports(modelID string) bool {
	id := modelID
	if i := strings.Index(id, "."); i > 0 {
		switch id[:i] {
		case "us", "eu", "apac", "global":
			id = id[i+1:]
		}
	}
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Invoke sends the prompt as a single user turn through InvokeModel
func (a *Adapter) Invoke(ctx context.Context, req *providers.InvokeRequest) (*providers.InvokeResponse, error) {
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}

	body, err := json.Marshal(messagesRequest{
		AnthropicVersion: a.anthropicVersion,
		MaxTokens:        maxTokens,
		Messages: []message{{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: req.Prompt}},
		}},
	})
	if err != nil {
		return nil, providers.NewProviderError(providerName, "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	out, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, providers.NewProviderError(providerName, "UNMARSHAL_ERROR", "Failed to unmarshal response", 0, false, err)
	}
	if len(resp.Content) == 0 {
		return nil, providers.NewProviderError(providerName, "EMPTY_RESPONSE", "Model returned no content", 0, false, nil)
	}

	latency := time.Since(start)
	a.logger.Debug("bedrock invocation completed",
		zap.String("model_id", req.ModelID),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("latency", latency),
	)

	return &providers.InvokeResponse{
		Text:         resp.Content[0].Text,
		ModelID:      req.ModelID,
		StopReason:   resp.StopReason,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Latency:      latency,
	}, nil
}

func classifyError(err error) *providers.ProviderError {
	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var throttling *types.ThrottlingException
	var unavailable *types.ServiceUnavailableException
	var notFound *types.ResourceNotFoundException
	var validation *types.ValidationException
	var denied *types.AccessDeniedException

	switch {
	case errors.As(err, &throttling):
		return providers.NewProviderError(providerName, "THROTTLED", "Bedrock throttled the request", status, true, err)
	case errors.As(err, &unavailable):
		return providers.NewProviderError(providerName, "UNAVAILABLE", "Bedrock is unavailable", status, true, err)
	case errors.As(err, &notFound):
		return providers.NewProviderError(providerName, "MODEL_NOT_FOUND", "Model not found", status, false, err)
	case errors.As(err, &validation):
		return providers.NewProviderError(providerName, "INVALID_REQUEST", "Bedrock rejected the request", status, false, err)
	case errors.As(err, &denied):
		return providers.NewProviderError(providerName, "ACCESS_DENIED", "Access to the model was denied", status, false, err)
	default:
		return providers.NewProviderError(providerName, "INVOKE_ERROR", "Bedrock invocation failed", status, status >= 500, err)
	}
}
