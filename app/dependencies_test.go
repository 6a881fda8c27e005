package app

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/repositories/postgres"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		AWS: config.AWSConfig{
			Region:          "ap-northeast-1",
			AccessKeyID:     "AKIDTEST",
			SecretAccessKey: "secret",
			Endpoint:        "http://localhost:8001",
		},
		Tables: config.TablesConfig{Tenants: "Tenants", ChatHistory: "ChatHistory"},
		Bedrock: config.BedrockConfig{
			DefaultModelID:   "anthropic.claude-3-sonnet-20240229-v1:0",
			AnthropicVersion: "bedrock-2023-05-31",
			MaxTokens:        1000,
		},
		History:       config.HistoryConfig{Backend: config.HistoryBackendDynamoDB},
		Observability: config.ObservabilityConfig{LogLevel: "error", LogFormat: "json"},
	}
}

func stubPostgres(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	previous := openPostgres
	openPostgres = func(config.DatabaseConfig, *zap.Logger) (*postgres.RepositoryFactory, error) {
		return postgres.NewRepositoryFactoryFromDB(postgres.Wrap(db, zap.NewNop()), zap.NewNop()), nil
	}
	t.Cleanup(func() { openPostgres = previous })
	return mock
}

func TestNewDependencies(t *testing.T) {
	ctx := context.Background()

	t.Run("dynamodb backend with bedrock only", func(t *testing.T) {
		cfg := testConfig(t)

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.Nil(t, deps.RepoFactory)
		assert.NotNil(t, deps.Repositories.Tenants)
		assert.NotNil(t, deps.Repositories.ChatHistory)
		assert.Equal(t, []string{"bedrock"}, deps.ProviderRegistry.ListProviders())
		assert.NotNil(t, deps.ChatService)
		assert.NotNil(t, deps.TenantAuthorizer)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.Nil(t, deps.TenantAuthMiddleware)
		assert.Contains(t, deps.HealthChecks(), "dynamodb")
		assert.Equal(t, "ap-northeast-1", deps.AWSConfig.Region)

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("openai registered when api key is set", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.OpenAI = config.OpenAIConfig{APIKey: "sk-test", MaxTokens: 500}

		deps, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, []string{"bedrock", "openai"}, deps.ProviderRegistry.ListProviders())

		provider, err := deps.ProviderRegistry.Resolve("gpt-4o-mini")
		require.NoError(t, err)
		assert.Equal(t, "openai", provider.Name())

		provider, err = deps.ProviderRegistry.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "bedrock", provider.Name())
	})

	t.Run("cognito and in-process tenant auth", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Cognito = config.CognitoConfig{Region: "ap-northeast-1", UserPoolID: "ap-northeast-1_pool", ClientID: "client"}
		cfg.TenantAuth.InProcess = true

		deps, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.NoError(t, err)

		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.TenantAuthMiddleware)
	})

	t.Run("postgres backend initializes schema", func(t *testing.T) {
		mock := stubPostgres(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS tenants").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectClose()

		cfg := testConfig(t)
		cfg.History.Backend = config.HistoryBackendPostgres
		cfg.Database = config.DatabaseConfig{ConnectionString: "postgres://localhost/chat", InitSchema: true}

		deps, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.NoError(t, err)

		assert.NotNil(t, deps.RepoFactory)
		assert.Contains(t, deps.HealthChecks(), "database")

		require.NoError(t, deps.Close(ctx))
		assert.Nil(t, deps.RepoFactory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("schema failure closes the pool", func(t *testing.T) {
		mock := stubPostgres(t)
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
		mock.ExpectClose()

		cfg := testConfig(t)
		cfg.History.Backend = config.HistoryBackendPostgres
		cfg.Database = config.DatabaseConfig{ConnectionString: "postgres://localhost/chat", InitSchema: true}

		deps, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize repositories")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("schema failure reports a failed close", func(t *testing.T) {
		mock := stubPostgres(t)
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
		mock.ExpectClose().WillReturnError(errors.New("close: broken pipe"))

		cfg := testConfig(t)
		cfg.History.Backend = config.HistoryBackendPostgres
		cfg.Database = config.DatabaseConfig{ConnectionString: "postgres://localhost/chat", InitSchema: true}

		deps, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Contains(t, err.Error(), "failed to close database")
		assert.Contains(t, err.Error(), "close: broken pipe")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database open failure", func(t *testing.T) {
		previous := openPostgres
		openPostgres = func(config.DatabaseConfig, *zap.Logger) (*postgres.RepositoryFactory, error) {
			return nil, errors.New("connection refused")
		}
		t.Cleanup(func() { openPostgres = previous })

		cfg := testConfig(t)
		cfg.History.Backend = config.HistoryBackendPostgres
		cfg.Database = config.DatabaseConfig{ConnectionString: "postgres://localhost/chat"}

		deps, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.History.Backend = "redis"

		_, err := NewDependencies(ctx, cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown history backend")
	})
}

func TestDependenciesClose(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		deps := &Dependencies{Logger: zap.NewNop()}
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("close error is returned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose().WillReturnError(errors.New("broken pipe"))

		deps := &Dependencies{
			Logger:      zap.NewNop(),
			RepoFactory: postgres.NewRepositoryFactoryFromDB(postgres.Wrap(db, zap.NewNop()), zap.NewNop()),
		}
		err = deps.Close(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken pipe")
	})

	t.Run("abort keeps the cause and the close error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		closeErr := errors.New("broken pipe")
		mock.ExpectClose().WillReturnError(closeErr)

		deps := &Dependencies{
			Logger:      zap.NewNop(),
			RepoFactory: postgres.NewRepositoryFactoryFromDB(postgres.Wrap(db, zap.NewNop()), zap.NewNop()),
		}
		cause := errors.New("failed to initialize providers")
		err = deps.abort(cause)

		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, closeErr)
		assert.Nil(t, deps.RepoFactory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("abort without database returns the cause", func(t *testing.T) {
		deps := &Dependencies{Logger: zap.NewNop()}
		cause := errors.New("boom")
		assert.Same(t, cause, deps.abort(cause))
	})

	t.Run("health checks empty without repositories", func(t *testing.T) {
		deps := &Dependencies{Logger: zap.NewNop()}
		assert.Nil(t, deps.HealthChecks())
	})
}
