// Package authorizer decides whether a tenant credential pair may invoke the API.
package authorizer

import (
	"context"
	"errors"

	"github.com/upb/tenant-chat-gateway/repositories"
	"go.uber.org/zap"
)

// DefaultPrincipal is reported when the caller could not be tied to a tenant
const DefaultPrincipal = "user"

// Decision reasons, used for logging only
const (
	ReasonAllowed        = "allowed"
	ReasonMissingHeaders = "missing_credentials"
	ReasonLookupFailed   = "lookup_failed"
	ReasonUnknownTenant  = "unknown_tenant"
	ReasonAPIKeyMismatch = "api_key_mismatch"
)

// Decision is the outcome of evaluating one credential pair
type Decision struct {
	PrincipalID string
	Effect      Effect
	Reason      string
}

// Allowed reports whether the decision grants access
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Service evaluates tenant credentials against the tenant store
type Service struct {
	tenants repositories.TenantRepository
	logger  *zap.Logger
}

// NewService creates a new authorizer service
func NewService(tenants repositories.TenantRepository, logger *zap.Logger) *Service {
	return &Service{
		tenants: tenants,
		logger:  logger,
	}
}

// Authorize looks the tenant up by id and compares the presented key.
// It never returns an error: every failure is a Deny.
func (s *Service) Authorize(ctx context.Context, tenantID, apiKey string) Decision {
	if tenantID == "" || apiKey == "" {
		return Decision{PrincipalID: DefaultPrincipal, Effect: EffectDeny, Reason: ReasonMissingHeaders}
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Decision{PrincipalID: tenantID, Effect: EffectDeny, Reason: ReasonUnknownTenant}
		}
		s.logger.Error("tenant lookup failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return Decision{PrincipalID: DefaultPrincipal, Effect: EffectDeny, Reason: ReasonLookupFailed}
	}

	if !tenant.MatchesAPIKey(apiKey) {
		return Decision{PrincipalID: tenantID, Effect: EffectDeny, Reason: ReasonAPIKeyMismatch}
	}

	return Decision{PrincipalID: tenantID, Effect: EffectAllow, Reason: ReasonAllowed}
}
