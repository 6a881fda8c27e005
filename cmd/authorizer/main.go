package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/upb/tenant-chat-gateway/authorizer"
	"github.com/upb/tenant-chat-gateway/config"
	"github.com/upb/tenant-chat-gateway/internal/awsclient"
	"github.com/upb/tenant-chat-gateway/internal/observability"
	"github.com/upb/tenant-chat-gateway/repositories/dynamo"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	handler, err := newHandler(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize authorizer", zap.Error(err))
	}

	lambda.Start(handler.Handle)
}

// newHandler wires the authorizer against the DynamoDB Tenants table.
// Clients are built once per cold start and reused across invocations.
func newHandler(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*authorizer.Handler, error) {
	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	tenants := dynamo.NewTenantRepository(dynamo.NewClient(awsCfg), cfg.Tables.Tenants, logger)
	service := authorizer.NewService(tenants, logger)

	logger.Info("authorizer initialized",
		zap.String("region", cfg.AWS.Region),
		zap.String("tenants_table", cfg.Tables.Tenants))

	return authorizer.NewHandler(service, logger), nil
}
