// Package dynamo implements the repositories on top of Amazon DynamoDB.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/repositories"
	"go.uber.org/zap"
)

// API is the subset of the DynamoDB client used by the repositories
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NewClient creates a DynamoDB client from a resolved aws.Config
func NewClient(awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg)
}

// NewRepositories creates the DynamoDB-backed repositories
func NewRepositories(api API, tables config.TablesConfig, logger *zap.Logger) *repositories.Repositories {
	return &repositories.Repositories{
		Tenants:     NewTenantRepository(api, tables.Tenants, logger),
		ChatHistory: NewChatHistoryRepository(api, tables.ChatHistory, logger),
		Health:      &tableHealthChecker{api: api, tables: []string{tables.Tenants, tables.ChatHistory}},
	}
}

type tableHealthChecker struct {
	api    API
	tables []string
}

// HealthCheck verifies every table is reachable
func (h *tableHealthChecker) HealthCheck(ctx context.Context) error {
	for _, table := range h.tables {
		if _, err := h.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}); err != nil {
			return fmt.Errorf("describe table %s: %w", table, err)
		}
	}
	return nil
}
