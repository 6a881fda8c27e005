package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/upb/tenant-chat-gateway/authorizer"
	"github.com/upb/tenant-chat-gateway/cognito"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/internal/awsclient"
	"github.com/upb/tenant-chat-gateway/middleware"
	"github.com/upb/tenant-chat-gateway/repositories"
	"github.com/upb/tenant-chat-gateway/repositories/dynamo"
	"github.com/upb/tenant-chat-gateway/repositories/postgres"
	"github.com/upb/tenant-chat-gateway/services/chat"
	"github.com/upb/tenant-chat-gateway/services/providers"
	"github.com/upb/tenant-chat-gateway/services/providers/bedrock"
	"github.com/upb/tenant-chat-gateway/services/providers/openai"
	"go.uber.org/zap"
)

// openPostgres is replaced in tests
var openPostgres = postgres.NewRepositoryFactory

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config    *config.Config
	Logger    *zap.Logger
	AWSConfig aws.Config

	// RepoFactory is set only for the postgres history backend
	RepoFactory *postgres.RepositoryFactory

	Repositories *repositories.Repositories

	ProviderRegistry *providers.Registry
	ChatService      *chat.ChatService
	TenantAuthorizer *authorizer.Service

	AuthMiddleware *middleware.AuthMiddleware

	// TenantAuthMiddleware is nil unless tenant credentials are checked in-process
	TenantAuthMiddleware *middleware.TenantAuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize aws: %w", err)
	}
	deps.AWSConfig = awsCfg

	if err := deps.initRepositories(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := deps.initProviders(cfg, bedrock.NewClient(awsCfg)); err != nil {
		return nil, deps.abort(fmt.Errorf("failed to initialize providers: %w", err))
	}

	deps.ChatService = chat.NewChatService(
		deps.ProviderRegistry,
		deps.Repositories.ChatHistory,
		cfg.Bedrock.DefaultModelID,
		cfg.Bedrock.MaxTokens,
		logger,
	)
	deps.TenantAuthorizer = authorizer.NewService(deps.Repositories.Tenants, logger)

	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("history_backend", cfg.History.Backend),
		zap.Strings("providers", deps.ProviderRegistry.ListProviders()))
	return deps, nil
}

// initRepositories selects the storage backend for tenants and chat history
func (d *Dependencies) initRepositories(ctx context.Context, cfg *config.Config) error {
	switch cfg.History.Backend {
	case config.HistoryBackendPostgres:
		factory, err := openPostgres(cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		d.RepoFactory = factory

		if cfg.Database.InitSchema {
			if err := factory.GetDB().InitSchema(ctx); err != nil {
				return d.abort(fmt.Errorf("failed to initialize schema: %w", err))
			}
		}

		d.Repositories = d.RepoFactory.NewRepositories()

	case config.HistoryBackendDynamoDB:
		d.Repositories = dynamo.NewRepositories(dynamo.NewClient(d.AWSConfig), cfg.Tables, d.Logger)

	default:
		return fmt.Errorf("unknown history backend: %s", cfg.History.Backend)
	}

	d.Logger.Info("repositories initialized", zap.String("backend", cfg.History.Backend))
	return nil
}

// initProviders registers Bedrock as the default provider and OpenAI when configured
func (d *Dependencies) initProviders(cfg *config.Config, runtime bedrock.RuntimeAPI) error {
	registry := providers.NewRegistry()

	if err := registry.RegisterProvider(bedrock.NewAdapter(runtime, cfg.Bedrock, d.Logger)); err != nil {
		return err
	}
	d.Logger.Info("registered Bedrock provider", zap.String("default_model", cfg.Bedrock.DefaultModelID))

	if cfg.OpenAI.APIKey != "" {
		if err := registry.RegisterProvider(openai.NewAdapter(cfg.OpenAI, d.Logger)); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider")
	}

	d.ProviderRegistry = registry
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	var validator middleware.TokenValidator
	switch {
	case cfg.IsLocal():
		d.Logger.Info("local mode, mock identity injected for /api routes")
	case cfg.CognitoEnabled():
		validator = cognito.NewCognitoValidator(cognito.Config{
			Region:      cfg.Cognito.Region,
			UserPoolID:  cfg.Cognito.UserPoolID,
			ClientID:    cfg.Cognito.ClientID,
			CacheTTL:    time.Hour,
			HTTPTimeout: 10 * time.Second,
		})
		d.Logger.Info("cognito token validation enabled", zap.String("user_pool_id", cfg.Cognito.UserPoolID))
	default:
		d.Logger.Warn("cognito not configured, /api callers are anonymous")
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, cfg.IsLocal(), d.Logger)

	if cfg.TenantAuth.InProcess {
		d.TenantAuthMiddleware = middleware.NewTenantAuthMiddleware(d.TenantAuthorizer, d.Logger)
		d.Logger.Info("in-process tenant authorization enabled")
	}
}

// HealthChecks returns the readiness checks of the configured backend
func (d *Dependencies) HealthChecks() map[string]repositories.HealthChecker {
	if d.Repositories == nil || d.Repositories.Health == nil {
		return nil
	}
	name := "dynamodb"
	if d.RepoFactory != nil {
		name = "database"
	}
	return map[string]repositories.HealthChecker{name: d.Repositories.Health}
}

// abort releases what was opened before a failed init step and reports both
func (d *Dependencies) abort(err error) error {
	if cerr := d.closeRepositories(); cerr != nil {
		return errors.Join(err, fmt.Errorf("failed to close database: %w", cerr))
	}
	return err
}

func (d *Dependencies) closeRepositories() error {
	if d.RepoFactory == nil {
		return nil
	}
	err := d.RepoFactory.Close()
	d.RepoFactory = nil
	return err
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.closeRepositories(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
