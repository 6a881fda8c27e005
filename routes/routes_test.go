package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/tenant-chat-gateway/app"
	"github.com/upb/tenant-chat-gateway/authorizer"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/middleware"
	"github.com/upb/tenant-chat-gateway/models"
	"github.com/upb/tenant-chat-gateway/repositories"
	"github.com/upb/tenant-chat-gateway/services/chat"
	"github.com/upb/tenant-chat-gateway/services/providers"
	"go.uber.org/zap"
)

type echoProvider struct {
	reply string
	err   error
}

func (p *echoProvider) Name() string                 { return "echo" }
func (p *echoProvider) Supports(modelID string) bool { return true }

func (p *echoProvider) Invoke(ctx context.Context, req *providers.InvokeRequest) (*providers.InvokeResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &providers.InvokeResponse{Text: p.reply, ModelID: req.ModelID}, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []*models.ChatHistoryEntry
	err     error
}

func (h *memoryHistory) Save(ctx context.Context, entry *models.ChatHistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entry)
	return nil
}

type memoryTenants map[string]*models.Tenant

func (m memoryTenants) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	if tenant, ok := m[tenantID]; ok {
		return tenant, nil
	}
	return nil, repositories.ErrNotFound
}

type fixture struct {
	server   *httptest.Server
	history  *memoryHistory
	provider *echoProvider
}

func newFixture(t *testing.T, inProcessTenantAuth bool) *fixture {
	t.Helper()
	logger := zap.NewNop()

	provider := &echoProvider{reply: "Hello from the model\n"}
	registry := providers.NewRegistry()
	require.NoError(t, registry.RegisterProvider(provider))

	history := &memoryHistory{}
	tenants := memoryTenants{"acme": {TenantID: "acme", APIKey: "secret"}}

	deps := &app.Dependencies{
		Config: &config.Config{
			Server: config.ServerConfig{CORSAllowedOrigins: []string{"*"}},
		},
		Logger:           logger,
		Repositories:     &repositories.Repositories{Tenants: tenants, ChatHistory: history},
		ProviderRegistry: registry,
		ChatService:      chat.NewChatService(registry, history, "anthropic.claude-3-sonnet-20240229-v1:0", 1000, logger),
		TenantAuthorizer: authorizer.NewService(tenants, logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(nil, false, logger),
	}
	if inProcessTenantAuth {
		deps.TenantAuthMiddleware = middleware.NewTenantAuthMiddleware(deps.TenantAuthorizer, logger)
	}

	ts := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(ts.Close)

	return &fixture{server: ts, history: history, provider: provider}
}

func (f *fixture) post(t *testing.T, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["message"]
}

func TestRoot(t *testing.T) {
	f := newFixture(t, false)

	resp, err := http.Get(f.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "World", body["Hello"])
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(f.server.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestUserChat(t *testing.T) {
	t.Run("reply returned unchanged and history recorded", func(t *testing.T) {
		f := newFixture(t, false)

		resp := f.post(t, "/api/chat", `{"message":"hi"}`, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello from the model\n", decodeMessage(t, resp))

		require.Len(t, f.history.entries, 1)
		entry := f.history.entries[0]
		assert.Equal(t, models.AnonymousUserID, entry.UserID)
		assert.Equal(t, "hi", entry.Message)
		assert.Equal(t, "Hello from the model\n", entry.Response)
		assert.Nil(t, entry.TenantID)
	})

	t.Run("history failure does not fail the request", func(t *testing.T) {
		f := newFixture(t, false)
		f.history.err = errors.New("ProvisionedThroughputExceededException")

		resp := f.post(t, "/api/chat", `{"message":"hi"}`, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello from the model\n", decodeMessage(t, resp))
	})

	t.Run("provider failure is a generic 500", func(t *testing.T) {
		f := newFixture(t, false)
		f.provider.err = errors.New("ThrottlingException")

		resp := f.post(t, "/api/chat", `{"message":"hi"}`, nil)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, f.history.entries)
	})

	t.Run("missing message is a 400", func(t *testing.T) {
		f := newFixture(t, false)

		resp := f.post(t, "/api/chat", `{}`, nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, f.history.entries)
	})
}

func TestTenantChat(t *testing.T) {
	t.Run("gateway authorized tenant", func(t *testing.T) {
		f := newFixture(t, false)

		resp := f.post(t, "/tenant/chat", `{"message":"hi"}`, map[string]string{"X-Tenant-Id": "acme"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, f.history.entries, 1)
		assert.Equal(t, "tenant:acme", f.history.entries[0].UserID)
		require.NotNil(t, f.history.entries[0].TenantID)
		assert.Equal(t, "acme", *f.history.entries[0].TenantID)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{
			name:       "valid credentials",
			headers:    map[string]string{"X-Tenant-Id": "acme", "X-Api-Key": "secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong key",
			headers:    map[string]string{"X-Tenant-Id": "acme", "X-Api-Key": "nope"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown tenant",
			headers:    map[string]string{"X-Tenant-Id": "globex", "X-Api-Key": "secret"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing headers",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run("in-process "+tt.name, func(t *testing.T) {
			f := newFixture(t, true)

			resp := f.post(t, "/tenant/chat", `{"message":"hi"}`, tt.headers)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				assert.Len(t, f.history.entries, 1)
			} else {
				assert.Empty(t, f.history.entries)
			}
		})
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	f := newFixture(t, false)

	resp, err := http.Get(f.server.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp2, err := http.Get(f.server.URL + "/api/chat")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, false)

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/tenant/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Tenant-Id, X-Api-Key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
