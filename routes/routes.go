package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/tenant-chat-gateway/app"
	"github.com/upb/tenant-chat-gateway/authorizer"
	"github.com/upb/tenant-chat-gateway/handlers"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	requestTimeout := defaultRequestTimeout
	allowedOrigins := []string{"*"}
	if deps.Config != nil {
		if deps.Config.Server.RequestTimeout > 0 {
			requestTimeout = deps.Config.Server.RequestTimeout
		}
		if len(deps.Config.Server.CORSAllowedOrigins) > 0 {
			allowedOrigins = deps.Config.Server.CORSAllowedOrigins
		}
	}

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			authorizer.TenantIDHeader, authorizer.APIKeyHeader,
		},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.HealthChecks(), deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.ChatService, deps.Logger)

	r.Get("/", handlers.HandleRoot)
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// User chat, identity from Cognito when presented
	r.Route("/api", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.IdentifyUser)
		}
		r.Post("/chat", chatHandler.HandleUserChat)
	})

	// Tenant chat, credentials checked by the gateway authorizer or in-process
	r.Route("/tenant", func(r chi.Router) {
		if deps.TenantAuthMiddleware != nil {
			r.Use(deps.TenantAuthMiddleware.RequireTenant)
		}
		r.Post("/chat", chatHandler.HandleTenantChat)
	})

	r.NotFound(handlers.HandleNotFound)
	r.MethodNotAllowed(handlers.HandleMethodNotAllowed)

	return r
}
