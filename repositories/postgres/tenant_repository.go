package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/tenant-chat-gateway/models"
	"github.com/upb/tenant-chat-gateway/repositories"
	"go.uber.org/zap"
)

// TenantRepository implements the repositories.TenantRepository interface
type TenantRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB, logger *zap.Logger) repositories.TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a tenant by identifier
func (r *TenantRepository) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	query := `
		SELECT tenant_id, api_key, name
		FROM ` + models.Tenant{}.TableName() + `
		WHERE tenant_id = $1
	`

	tenant := &models.Tenant{}
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&tenant.TenantID,
		&tenant.APIKey,
		&tenant.Name,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}
