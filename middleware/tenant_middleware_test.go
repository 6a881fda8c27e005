package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/tenant-chat-gateway/authorizer"
	"go.uber.org/zap"
)

type MockTenantAuthorizer struct {
	mock.Mock
}

func (m *MockTenantAuthorizer) Authorize(ctx context.Context, tenantID, apiKey string) authorizer.Decision {
	args := m.Called(ctx, tenantID, apiKey)
	return args.Get(0).(authorizer.Decision)
}

func TestRequireTenant(t *testing.T) {
	logger := zap.NewNop()

	t.Run("allowed tenant reaches handler", func(t *testing.T) {
		auth := new(MockTenantAuthorizer)
		auth.On("Authorize", mock.Anything, "acme", "secret").Return(authorizer.Decision{
			PrincipalID: "acme",
			Effect:      authorizer.EffectAllow,
			Reason:      authorizer.ReasonAllowed,
		})

		mw := NewTenantAuthMiddleware(auth, logger)
		handler := mw.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "acme", GetTenantIDFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/tenant/chat", nil)
		req.Header.Set("X-Tenant-Id", "acme")
		req.Header.Set("X-Api-Key", "secret")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		auth.AssertExpectations(t)
	})

	t.Run("denied tenant returns 403", func(t *testing.T) {
		auth := new(MockTenantAuthorizer)
		auth.On("Authorize", mock.Anything, "acme", "wrong").Return(authorizer.Decision{
			PrincipalID: "acme",
			Effect:      authorizer.EffectDeny,
			Reason:      authorizer.ReasonAPIKeyMismatch,
		})

		mw := NewTenantAuthMiddleware(auth, logger)
		handler := mw.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodPost, "/tenant/chat", nil)
		req.Header.Set("X-Tenant-Id", "acme")
		req.Header.Set("X-Api-Key", "wrong")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing headers are passed through as empty", func(t *testing.T) {
		auth := new(MockTenantAuthorizer)
		auth.On("Authorize", mock.Anything, "", "").Return(authorizer.Decision{
			PrincipalID: authorizer.DefaultPrincipal,
			Effect:      authorizer.EffectDeny,
			Reason:      authorizer.ReasonMissingHeaders,
		})

		mw := NewTenantAuthMiddleware(auth, logger)
		handler := mw.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tenant/chat", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		auth.AssertExpectations(t)
	})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetClaimsFromContext(ctx))
	assert.Empty(t, GetTenantIDFromContext(ctx))

	ctx = WithTenantID(ctx, "acme")
	assert.Equal(t, "acme", GetTenantIDFromContext(ctx))
}
