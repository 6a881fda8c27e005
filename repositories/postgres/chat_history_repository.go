package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/tenant-chat-gateway/models"
	"github.com/upb/tenant-chat-gateway/repositories"
	"go.uber.org/zap"
)

// ChatHistoryRepository implements the repositories.ChatHistoryRepository interface
type ChatHistoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChatHistoryRepository creates a new chat history repository
func NewChatHistoryRepository(db *DB, logger *zap.Logger) repositories.ChatHistoryRepository {
	return &ChatHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts a chat history entry under a fresh row id
func (r *ChatHistoryRepository) Save(ctx context.Context, entry *models.ChatHistoryEntry) error {
	query := `
		INSERT INTO ` + models.ChatHistoryEntry{}.TableName() + ` (id, user_id, timestamp, message, response, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var tenantID sql.NullString
	if entry.TenantID != nil {
		tenantID = sql.NullString{String: *entry.TenantID, Valid: true}
	}

	id := uuid.New()
	_, err := r.db.ExecContext(ctx, query,
		id,
		entry.UserID,
		entry.Timestamp,
		entry.Message,
		entry.Response,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat history entry: %w", err)
	}

	r.logger.Debug("chat history saved", zap.String("id", id.String()), zap.String("user_id", entry.UserID))
	return nil
}
