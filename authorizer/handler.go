package authorizer

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Credential headers
const (
	TenantIDHeader = "X-Tenant-Id"
	APIKeyHeader   = "X-Api-Key"
)

// Handler is the Lambda REQUEST authorizer entry point
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new authorizer handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle evaluates the credential headers of an API Gateway REQUEST
// authorizer event. It never returns an error; failures become Deny policies.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	tenantID := headerValue(req, TenantIDHeader)
	apiKey := headerValue(req, APIKeyHeader)

	decision := h.service.Authorize(ctx, tenantID, apiKey)

	h.logger.Info("authorization decision",
		zap.String("principal_id", decision.PrincipalID),
		zap.String("effect", string(decision.Effect)),
		zap.String("reason", decision.Reason),
		zap.String("method_arn", req.MethodArn),
		zap.String("request_id", req.RequestContext.RequestID),
	)

	return decision.Response(req.MethodArn), nil
}

// headerValue resolves a credential header deterministically: the lowercase
// key, then the canonical key, then any other spelling in sorted key order,
// then the same sequence over MultiValueHeaders. Empty values are skipped.
func headerValue(req events.APIGatewayCustomAuthorizerRequestTypeRequest, name string) string {
	single := func(key string) string { return req.Headers[key] }
	if v := lookupHeader(name, keysOf(req.Headers), single); v != "" {
		return v
	}

	multi := func(key string) string {
		for _, v := range req.MultiValueHeaders[key] {
			if v != "" {
				return v
			}
		}
		return ""
	}
	return lookupHeader(name, keysOf(req.MultiValueHeaders), multi)
}

func lookupHeader(name string, keys []string, get func(string) string) string {
	for _, key := range []string{strings.ToLower(name), name} {
		if v := get(key); v != "" {
			return v
		}
	}
	for _, key := range keys {
		if strings.EqualFold(key, name) {
			if v := get(key); v != "" {
				return v
			}
		}
	}
	return ""
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
