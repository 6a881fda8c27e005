package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// History backends
const (
	HistoryBackendDynamoDB = "dynamodb"
	HistoryBackendPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// LocalFlag mirrors IS_LOCAL; any non-empty value enables local mode
	LocalFlag string `env:"IS_LOCAL"`

	Server        ServerConfig
	AWS           AWSConfig
	Tables        TablesConfig
	Bedrock       BedrockConfig
	OpenAI        OpenAIConfig
	History       HistoryConfig
	Database      DatabaseConfig
	Cognito       CognitoConfig
	TenantAuth    TenantAuthConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port               int           `env:"PORT" envDefault:"8000"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"90s"`
	RequestTimeout     time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout    time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// AWSConfig holds settings shared by every AWS SDK client.
// Endpoint is only set when pointing at a local emulator (dynamodb-local, localstack).
type AWSConfig struct {
	Region          string `env:"REGION_NAME" envDefault:"ap-northeast-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
	Endpoint        string `env:"AWS_ENDPOINT_URL"`
}

// TablesConfig holds DynamoDB table names
type TablesConfig struct {
	Tenants     string `env:"TABLE_NAME_TENANTS" envDefault:"Tenants"`
	ChatHistory string `env:"TABLE_NAME_CHAT_HISTORY" envDefault:"ChatHistory"`
}

// BedrockConfig holds AWS Bedrock runtime configuration
type BedrockConfig struct {
	DefaultModelID   string `env:"BEDROCK_DEFAULT_MODEL_ID" envDefault:"anthropic.claude-3-sonnet-20240229-v1:0"`
	AnthropicVersion string `env:"BEDROCK_ANTHROPIC_VERSION" envDefault:"bedrock-2023-05-31"`
	MaxTokens        int    `env:"BEDROCK_MAX_TOKENS" envDefault:"1000"`
}

// OpenAIConfig holds the optional OpenAI-compatible provider configuration.
// The provider is registered only when APIKey is set.
type OpenAIConfig struct {
	APIKey    string `env:"OPENAI_API_KEY"`
	BaseURL   string `env:"OPENAI_BASE_URL"`
	MaxTokens int    `env:"OPENAI_MAX_TOKENS" envDefault:"1000"`
}

// HistoryConfig selects where chat history and tenants are stored for the HTTP service
type HistoryConfig struct {
	Backend string `env:"HISTORY_BACKEND" envDefault:"dynamodb"`
}

// DatabaseConfig holds PostgreSQL configuration, used only by the postgres history backend
type DatabaseConfig struct {
	ConnectionString string        `env:"DATABASE_URL"`
	MaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	InitSchema       bool          `env:"DB_INIT_SCHEMA" envDefault:"true"`
}

// CognitoConfig holds AWS Cognito user pool settings used to read the caller identity
type CognitoConfig struct {
	Region     string `env:"COGNITO_REGION"`
	UserPoolID string `env:"COGNITO_USER_POOL_ID"`
	ClientID   string `env:"COGNITO_CLIENT_ID"`
}

// TenantAuthConfig controls in-process tenant credential checks for /tenant routes
type TenantAuthConfig struct {
	InProcess bool `env:"TENANT_AUTH_IN_PROCESS" envDefault:"false"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	if os.Getenv("IS_LOCAL") != "" {
		_ = godotenv.Load(".env")
	}
	return Parse()
}

// Parse reads the configuration from the current environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Cognito.Region == "" {
		cfg.Cognito.Region = cfg.AWS.Region
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field configuration rules
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Tables.Tenants == "" || c.Tables.ChatHistory == "" {
		return fmt.Errorf("table names are required")
	}

	switch c.History.Backend {
	case HistoryBackendDynamoDB:
	case HistoryBackendPostgres:
		if c.Database.ConnectionString == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres history backend")
		}
	default:
		return fmt.Errorf("unknown history backend: %s", c.History.Backend)
	}

	if c.Bedrock.DefaultModelID == "" {
		return fmt.Errorf("default model id is required")
	}
	if c.Bedrock.MaxTokens <= 0 {
		return fmt.Errorf("bedrock max tokens must be positive")
	}

	if (c.Cognito.UserPoolID == "") != (c.Cognito.ClientID == "") {
		return fmt.Errorf("cognito user pool ID and client ID must be set together")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsLocal reports whether the service runs outside the managed gateway
func (c *Config) IsLocal() bool {
	return c.LocalFlag != ""
}

// CognitoEnabled reports whether bearer tokens can be verified
func (c *Config) CognitoEnabled() bool {
	return c.Cognito.UserPoolID != "" && c.Cognito.ClientID != ""
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}
