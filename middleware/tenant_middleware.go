package middleware

import (
	"context"
	"net/http"

	"github.com/upb/tenant-chat-gateway/authorizer"
	"github.com/upb/tenant-chat-gateway/internal/observability"
	"github.com/upb/tenant-chat-gateway/utils"
	"go.uber.org/zap"
)

// TenantAuthorizer decides whether a tenant credential pair is valid
type TenantAuthorizer interface {
	Authorize(ctx context.Context, tenantID, apiKey string) authorizer.Decision
}

// TenantAuthMiddleware enforces tenant credentials in-process, for
// deployments where no gateway authorizer runs in front of the service
type TenantAuthMiddleware struct {
	authorizer TenantAuthorizer
	logger     *zap.Logger
}

// NewTenantAuthMiddleware creates a new TenantAuthMiddleware
func NewTenantAuthMiddleware(tenants TenantAuthorizer, logger *zap.Logger) *TenantAuthMiddleware {
	return &TenantAuthMiddleware{
		authorizer: tenants,
		logger:     logger,
	}
}

// RequireTenant rejects requests whose X-Tenant-Id / X-Api-Key pair is denied
func (m *TenantAuthMiddleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		decision := m.authorizer.Authorize(ctx,
			r.Header.Get(authorizer.TenantIDHeader),
			r.Header.Get(authorizer.APIKeyHeader))

		if !decision.Allowed() {
			observability.WithRequestID(ctx, m.logger).Warn("tenant request denied",
				zap.String("principal_id", decision.PrincipalID),
				zap.String("reason", decision.Reason))
			_ = utils.WriteForbidden(w, "")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithTenantID(ctx, decision.PrincipalID)))
	})
}
