// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
// Numeric *_S keys are plain seconds (CRM_HTTP_TIMEOUT_S=10); the duration
// accessors below convert them.
type Config struct {
	AppEnv   string `env:"ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
	IsDocker bool   `env:"IS_DOCKER" envDefault:"false"`

	// CRM upstream
	CRMBaseURL       string  `env:"CRM_BASE_URL" envDefault:"https://httpservice.ai2b.pro"`
	CRMHTTPTimeoutS  float64 `env:"CRM_HTTP_TIMEOUT_S" envDefault:"10"`
	CRMConnectS      float64 `env:"CRM_CONNECT_TIMEOUT_S" envDefault:"3"`
	CRMPoolTimeoutS  float64 `env:"CRM_POOL_TIMEOUT_S" envDefault:"3"`
	CRMHTTPRetries   int     `env:"CRM_HTTP_RETRIES" envDefault:"3"`
	CRMRetryMinS     float64 `env:"CRM_RETRY_MIN_DELAY_S" envDefault:"0.5"`
	CRMRetryMaxS     float64 `env:"CRM_RETRY_MAX_DELAY_S" envDefault:"8"`
	CRMMaxConns      int     `env:"CRM_MAX_CONNS" envDefault:"200"`
	CRMMaxIdleConns  int     `env:"CRM_MAX_IDLE_CONNS" envDefault:"50"`

	// Postgres
	PostgresHost       string  `env:"POSTGRES_HOST,required,notEmpty"`
	PostgresPort       int     `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDB         string  `env:"POSTGRES_DB,required,notEmpty"`
	PostgresUser       string  `env:"POSTGRES_USER,required,notEmpty"`
	PostgresPassword   string  `env:"POSTGRES_PASSWORD,required,notEmpty"`
	PGPoolMin          int     `env:"PG_POOL_MIN" envDefault:"1"`
	PGPoolMax          int     `env:"PG_POOL_MAX" envDefault:"10"`
	PGConnectTimeoutS  float64 `env:"PG_CONNECT_TIMEOUT_S" envDefault:"5"`
	PGQueryTimeoutS    float64 `env:"PG_QUERY_TIMEOUT_S" envDefault:"10"`
	PGStatementTimeout int     `env:"PG_STATEMENT_TIMEOUT_MS" envDefault:"30000"`

	// Qdrant
	QdrantURL          string  `env:"QDRANT_URL,required,notEmpty"`
	QdrantAPIKey       string  `env:"QDRANT_API_KEY"`
	QdrantTimeoutS     float64 `env:"QDRANT_TIMEOUT_S" envDefault:"10"`
	CollectionFAQ      string  `env:"QDRANT_COLLECTION_FAQ" envDefault:"faq"`
	CollectionServices string  `env:"QDRANT_COLLECTION_SERVICES" envDefault:"services"`
	CollectionProducts string  `env:"QDRANT_COLLECTION_PRODUCTS" envDefault:"products"`
	CollectionTemp     string  `env:"QDRANT_COLLECTION_TEMP" envDefault:"temp"`

	// OpenAI embeddings
	OpenAIAPIKey      string  `env:"OPENAI_API_KEY,required,notEmpty"`
	OpenAIBaseURL     string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAITimeoutS    float64 `env:"OPENAI_TIMEOUT_S" envDefault:"30"`
	OpenAIProxyURL    string  `env:"OPENAI_PROXY_URL"`
	OpenAIModel       string  `env:"OPENAI_MODEL" envDefault:"text-embedding-3-small"`
	OpenAITemperature float64 `env:"OPENAI_TEMPERATURE" envDefault:"0"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"zena-toolserver"`

	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin  int    `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`

	ServerShutdownTimeoutS float64 `env:"SERVER_SHUTDOWN_TIMEOUT_S" envDefault:"15"`
}

// Load parses environment variables into a Config. Any missing required key
// or unparsable numeric value fails the whole load; the supervisor treats
// that as fatal.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// DSN builds the Postgres connection URL from the POSTGRES_* parts.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func seconds(v float64) time.Duration { return time.Duration(v * float64(time.Second)) }

func (c Config) CRMTimeout() time.Duration        { return seconds(c.CRMHTTPTimeoutS) }
func (c Config) CRMConnectTimeout() time.Duration { return seconds(c.CRMConnectS) }
func (c Config) CRMPoolTimeout() time.Duration    { return seconds(c.CRMPoolTimeoutS) }
func (c Config) CRMRetryMinDelay() time.Duration  { return seconds(c.CRMRetryMinS) }
func (c Config) CRMRetryMaxDelay() time.Duration  { return seconds(c.CRMRetryMaxS) }
func (c Config) PGConnectTimeout() time.Duration  { return seconds(c.PGConnectTimeoutS) }
func (c Config) PGQueryTimeout() time.Duration    { return seconds(c.PGQueryTimeoutS) }
func (c Config) QdrantTimeout() time.Duration     { return seconds(c.QdrantTimeoutS) }
func (c Config) OpenAITimeout() time.Duration     { return seconds(c.OpenAITimeoutS) }
func (c Config) ServerShutdownTimeout() time.Duration {
	return seconds(c.ServerShutdownTimeoutS)
}

// Per-tenant keys follow the MCP_PORT_<NAME> / CHANNEL_IDS_<NAME> /
// MCP_TZ_<NAME> convention, where NAME is the upper-cased tenant name with
// dashes mapped to underscores.

func tenantKey(prefix, name string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// TenantPort resolves the listen port for one tenant. The key is required:
// an enabled tenant without a port is a deployment error.
func TenantPort(name string) (int, error) {
	key := tenantKey("MCP_PORT", name)
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("op=config.TenantPort: %s is not set", key)
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("op=config.TenantPort: %s=%q is not a valid port", key, raw)
	}
	return port, nil
}

// TenantChannels resolves the ordered branch list for one tenant from a
// comma-separated list of channel ids. Order is preserved: the first entry
// is the tenant's primary branch.
func TenantChannels(name string) ([]int, error) {
	key := tenantKey("CHANNEL_IDS", name)
	raw := os.Getenv(key)
	if raw == "" {
		return nil, fmt.Errorf("op=config.TenantChannels: %s is not set", key)
	}
	parts := strings.Split(raw, ",")
	channels := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("op=config.TenantChannels: %s=%q contains an empty entry", key, raw)
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("op=config.TenantChannels: %s entry %q is not an integer", key, p)
		}
		channels = append(channels, id)
	}
	return channels, nil
}

// TenantTZ returns the tenant's IANA timezone name, empty when unset.
// Resolution to a location (with the Europe/Moscow fallback) happens in the
// tenant package.
func TenantTZ(name string) string {
	return os.Getenv(tenantKey("MCP_TZ", name))
}
