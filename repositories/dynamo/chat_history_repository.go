package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/upb/tenant-chat-gateway/models"
	"go.uber.org/zap"
)

// ChatHistoryRepository implements repositories.ChatHistoryRepository with PutItem
type ChatHistoryRepository struct {
	api    API
	table  string
	logger *zap.Logger
}

// NewChatHistoryRepository creates a new chat history repository
func NewChatHistoryRepository(api API, table string, logger *zap.Logger) *ChatHistoryRepository {
	return &ChatHistoryRepository{
		api:    api,
		table:  table,
		logger: logger,
	}
}

// Save writes the entry as a new item
func (r *ChatHistoryRepository) Save(ctx context.Context, entry *models.ChatHistoryEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to encode chat history entry: %w", err)
	}

	if _, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put chat history entry: %w", err)
	}

	r.logger.Debug("chat history saved",
		zap.String("user_id", entry.UserID),
		zap.Int64("timestamp", entry.Timestamp))
	return nil
}
