package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/upb/tenant-chat-gateway/models"
	"github.com/upb/tenant-chat-gateway/repositories"
	"go.uber.org/zap"
)

// TenantRepository implements repositories.TenantRepository over a table keyed by TenantId
type TenantRepository struct {
	api    API
	table  string
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(api API, table string, logger *zap.Logger) *TenantRepository {
	return &TenantRepository{
		api:    api,
		table:  table,
		logger: logger,
	}
}

// GetByID retrieves a tenant by its partition key
func (r *TenantRepository) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"TenantId": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	if len(out.Item) == 0 {
		return nil, repositories.ErrNotFound
	}

	tenant := &models.Tenant{}
	if err := attributevalue.UnmarshalMap(out.Item, tenant); err != nil {
		return nil, fmt.Errorf("failed to decode tenant: %w", err)
	}

	r.logger.Debug("tenant loaded", zap.String("tenant_id", tenant.TenantID))
	return tenant, nil
}
