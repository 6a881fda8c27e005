package handlers

import (
	"context"
	"net/http"

	"github.com/upb/tenant-chat-gateway/authorizer"
	"github.com/upb/tenant-chat-gateway/internal/observability"
	authmw "github.com/upb/tenant-chat-gateway/middleware"
	"github.com/upb/tenant-chat-gateway/models"
	"github.com/upb/tenant-chat-gateway/services/chat"
	"github.com/upb/tenant-chat-gateway/utils"
	"go.uber.org/zap"
)

// ChatRequest is the body accepted by both chat routes
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	ModelID string `json:"model_id,omitempty" validate:"max=256"`
}

// ChatResponse carries the model reply unchanged
type ChatResponse struct {
	Message string `json:"message"`
}

// ChatService defines the chat operation used by the handlers
type ChatService interface {
	Chat(ctx context.Context, in chat.ChatInput) (*chat.ChatOutput, error)
}

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleUserChat handles POST /api/chat
func (h *ChatHandler) HandleUserChat(w http.ResponseWriter, r *http.Request) {
	userID := authmw.GetUserIDFromContext(r.Context())
	if userID == "" {
		userID = models.AnonymousUserID
	}

	h.handleChat(w, r, chat.ChatInput{UserID: userID})
}

// HandleTenantChat handles POST /tenant/chat. The tenant comes from in-process
// authorization when enabled, otherwise from the X-Tenant-Id header that the
// gateway authorizer already checked.
func (h *ChatHandler) HandleTenantChat(w http.ResponseWriter, r *http.Request) {
	tenantID := authmw.GetTenantIDFromContext(r.Context())
	if tenantID == "" {
		tenantID = r.Header.Get(authorizer.TenantIDHeader)
	}
	if tenantID == "" {
		tenantID = models.UnknownTenantID
	}

	h.handleChat(w, r, chat.ChatInput{
		UserID:   models.TenantUserID(tenantID),
		TenantID: tenantID,
	})
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request, in chat.ChatInput) {
	ctx := r.Context()
	log := observability.WithRequestID(ctx, h.logger)

	var req ChatRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		log.Warn("failed to parse request body", zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		log.Warn("request validation failed", zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	in.Message = req.Message
	in.ModelID = req.ModelID

	log.Debug("processing chat request",
		zap.String("user_id", in.UserID),
		zap.String("tenant_id", in.TenantID),
		zap.String("model_id", req.ModelID))

	out, err := h.service.Chat(ctx, in)
	if err != nil {
		log.Error("failed to process chat request", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, ChatResponse{Message: out.Text}); err != nil {
		log.Error("failed to write chat response", zap.Error(err))
	}
}
