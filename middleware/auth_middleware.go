package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/tenant-chat-gateway/cognito"
	"github.com/upb/tenant-chat-gateway/internal/observability"
	"github.com/upb/tenant-chat-gateway/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating JWT tokens
type TokenValidator interface {
	// ValidateToken validates a JWT token and returns claims
	ValidateToken(ctx context.Context, token string) (*cognito.ParsedClaims, error)
}

// LocalClaims is the identity injected for every request in local mode
var LocalClaims = cognito.ParsedClaims{
	Sub:      "local-user-id",
	Email:    "local@example.com",
	Username: "localuser",
}

// AuthMiddleware resolves the caller identity for user routes
type AuthMiddleware struct {
	validator TokenValidator
	localMode bool
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. validator may be nil when no
// user pool is configured; tokens are then ignored and callers are anonymous.
func NewAuthMiddleware(validator TokenValidator, localMode bool, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		localMode: localMode,
		logger:    logger,
	}
}

// authTokenCookieName is the cookie name for JWT tokens (Authorization header takes precedence)
const authTokenCookieName = "auth_token"

// IdentifyUser attaches the caller's claims to the request context.
// Requests without a token pass through as anonymous; a presented token must
// validate or the request is rejected with 401.
func (m *AuthMiddleware) IdentifyUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := observability.WithRequestID(ctx, m.logger)

		if m.localMode {
			claims := LocalClaims
			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, &claims)))
			return
		}

		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		if m.validator == nil {
			log.Debug("bearer token ignored, no user pool configured")
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			log.Warn("token validation failed", zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		log.Debug("authentication successful",
			zap.String("sub", claims.Sub),
			zap.String("email", claims.Email))

		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
	})
}

// extractToken extracts JWT from the Authorization header ("Bearer TOKEN") or
// the auth_token cookie. The header takes precedence when both are present.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
