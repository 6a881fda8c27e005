package chat

import (
	"context"
	"strings"
	"time"

	"github.com/upb/tenant-chat-gateway/models"
	"github.com/upb/tenant-chat-gateway/repositories"
	"github.com/upb/tenant-chat-gateway/services"
	"github.com/upb/tenant-chat-gateway/services/providers"
	"go.uber.org/zap"
)

// ProviderResolver maps a model id to the provider serving it
type ProviderResolver interface {
	Resolve(modelID string) (providers.Provider, error)
}

// ChatInput is one chat request after identity resolution
type ChatInput struct {
	// UserID is recorded as the history UserId
	UserID string

	// TenantID is recorded as the history TenantId when non-empty
	TenantID string

	Message string

	// ModelID selects the model; empty selects the default model
	ModelID string
}

// ChatOutput is the model reply plus invocation metadata
type ChatOutput struct {
	Text         string
	ModelID      string
	Provider     string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}

// ChatService forwards a message to the inference provider and records the exchange
type ChatService struct {
	resolver       ProviderResolver
	history        repositories.ChatHistoryRepository
	defaultModelID string
	maxTokens      int
	now            func() time.Time
	logger         *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	resolver ProviderResolver,
	history repositories.ChatHistoryRepository,
	defaultModelID string,
	maxTokens int,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		resolver:       resolver,
		history:        history,
		defaultModelID: defaultModelID,
		maxTokens:      maxTokens,
		now:            time.Now,
		logger:         logger,
	}
}

// Chat invokes the model and persists the exchange. A failed history write is
// logged and does not fail the request. The reply text is returned unchanged.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, services.ErrEmptyMessage
	}

	modelID := in.ModelID
	if modelID == "" {
		modelID = s.defaultModelID
	}

	provider, err := s.resolver.Resolve(modelID)
	if err != nil {
		s.logger.Error("no provider for model",
			zap.String("model_id", modelID),
			zap.Error(err))
		return nil, services.ErrNoProvider.Wrap(err).WithDetail("model_id", modelID)
	}

	resp, err := provider.Invoke(ctx, &providers.InvokeRequest{
		ModelID:   modelID,
		Prompt:    in.Message,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		s.logger.Error("inference failed",
			zap.String("provider", provider.Name()),
			zap.String("model_id", modelID),
			zap.String("user_id", in.UserID),
			zap.Bool("retryable", providers.IsRetryable(err)),
			zap.Error(err))
		return nil, services.ErrProviderError.Wrap(err)
	}

	entry := models.NewChatHistoryEntry(in.UserID, in.Message, resp.Text, in.TenantID, s.now())
	// the write outlives a client disconnect
	if err := s.history.Save(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to save chat history",
			zap.String("user_id", in.UserID),
			zap.String("tenant_id", in.TenantID),
			zap.Error(err))
	}

	s.logger.Info("chat completed",
		zap.String("provider", provider.Name()),
		zap.String("model_id", modelID),
		zap.String("user_id", in.UserID),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Duration("latency", resp.Latency))

	return &ChatOutput{
		Text:         resp.Text,
		ModelID:      modelID,
		Provider:     provider.Name(),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		Latency:      resp.Latency,
	}, nil
}
