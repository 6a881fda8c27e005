package middleware

import (
	"context"

	"github.com/upb/tenant-chat-gateway/cognito"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for the caller's Cognito claims
	ClaimsKey contextKey = "claims"

	// TenantIDKey is the context key for an authorized tenant id
	TenantIDKey contextKey = "tenant_id"
)

// GetClaimsFromContext retrieves the caller's claims from context
func GetClaimsFromContext(ctx context.Context) *cognito.ParsedClaims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*cognito.ParsedClaims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds the caller's claims to the context
func WithClaims(ctx context.Context, claims *cognito.ParsedClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext returns the caller's sub claim, or "" for anonymous callers
func GetUserIDFromContext(ctx context.Context) string {
	if claims := GetClaimsFromContext(ctx); claims != nil {
		return claims.Sub
	}
	return ""
}

// GetTenantIDFromContext retrieves a tenant id authorized in-process
func GetTenantIDFromContext(ctx context.Context) string {
	if val := ctx.Value(TenantIDKey); val != nil {
		if tenantID, ok := val.(string); ok {
			return tenantID
		}
	}
	return ""
}

// WithTenantID adds an authorized tenant id to the context
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}
