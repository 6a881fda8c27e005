package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/tenant-chat-gateway/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func setLocalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("IS_LOCAL", "")
	t.Setenv("HISTORY_BACKEND", "dynamodb")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("PORT", "0")
	t.Setenv("REGION_NAME", "ap-northeast-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDTEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "2s")
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantErr   string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "json logger", level: "info", format: "json", wantInfo: true},
		{name: "development console logger", level: "debug", format: "console", wantDebug: true, wantInfo: true},
		{name: "warn level drops info", level: "warn", format: "json"},
		{name: "invalid log level", level: "invalid", format: "json", wantErr: "invalid log level"},
		{name: "invalid log format", level: "info", format: "xml", wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Observability: config.ObservabilityConfig{LogLevel: tt.level, LogFormat: tt.format}}

			logger, err := initLogger(cfg)
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Nil(t, logger)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			defer logger.Sync()

			assert.Equal(t, tt.wantDebug, logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.wantInfo, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestInitLogger_FollowsLoadedConfig(t *testing.T) {
	setLocalEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := config.New(context.Background())
	require.NoError(t, err)

	logger, err := initLogger(cfg)
	require.NoError(t, err)
	defer logger.Sync()

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestRun(t *testing.T) {
	t.Run("dependency failure", func(t *testing.T) {
		setLocalEnv(t)

		cfg, err := config.New(context.Background())
		require.NoError(t, err)
		cfg.History.Backend = "redis"

		err = run(context.Background(), cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize dependencies")
	})

	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		setLocalEnv(t)

		cfg, err := config.New(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, zap.NewNop()) }()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})
}
