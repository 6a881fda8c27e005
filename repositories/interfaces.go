package repositories

import (
	"context"
	"errors"

	"github.com/upb/tenant-chat-gateway/models"
)

// ErrNotFound is returned by lookups that match no record
var ErrNotFound = errors.New("record not found")

// TenantRepository handles tenant credential lookups
type TenantRepository interface {
	// GetByID retrieves a tenant by identifier, returning ErrNotFound when absent
	GetByID(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// ChatHistoryRepository persists chat exchanges. Entries are never read back by the service.
type ChatHistoryRepository interface {
	// Save writes a single entry
	Save(ctx context.Context, entry *models.ChatHistoryEntry) error
}

// HealthChecker is implemented by stores that can report readiness
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories aggregates the repositories of one storage backend
type Repositories struct {
	Tenants     TenantRepository
	ChatHistory ChatHistoryRepository
	Health      HealthChecker
}
