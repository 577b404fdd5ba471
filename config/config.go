package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "0.9.4"

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Delivery      DeliveryConfig
	Validation    ValidationConfig
	Security      SecurityConfig
	Tracing       TracingConfig
	Subscriptions []SubscriptionEntry
	Environment   string
	LogLevel      string
	Version       string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DeliveryConfig tunes the delivery engine.
type DeliveryConfig struct {
	Workers          int64
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	UserAgent        string

	// DrainTimeout bounds how long shutdown waits for in-flight
	// deliveries before stopping the engine anyway.
	DrainTimeout time.Duration
}

// ValidationConfig tunes the destination validator. Disabling it is only
// sensible in development, where webhook targets rarely resolve.
type ValidationConfig struct {
	Enabled      bool
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

type SecurityConfig struct {
	// JWTSecret signs and verifies the API bearer tokens.
	JWTSecret []byte

	// SigningSecret enables the signing dialect when set. Deliveries
	// through that dialect carry Standard Webhooks signature headers.
	SigningSecret string

	// Principals are the owner ids the static authenticator knows.
	// Deployments with a real user store replace the authenticator in
	// code; this covers single-tenant installs and development.
	Principals         []string
	AnonymousPrincipal string
	Permissions        []string
}

// SubscriptionEntry is one declaratively configured subscription, supplied
// as JSON through WEBHOOK_SUBSCRIPTIONS. Entries with an empty site path
// land in the transient global manager; site-scoped entries are reconciled
// into the store at startup.
type SubscriptionEntry struct {
	SitePath                 string `json:"site_path"`
	For                      string `json:"for"`
	When                     string `json:"when"`
	To                       string `json:"to"`
	OwnerID                  string `json:"owner_id"`
	PermissionID             string `json:"permission_id"`
	DialectID                string `json:"dialect_id"`
	AttemptLimit             int    `json:"attempt_limit"`
	PreconditionFailureLimit int    `json:"precondition_failure_limit"`
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// Trace exporter configuration
	TraceExporter string // "jaeger", "stackdriver", "zipkin", "datadog", "xray", "none"

	// Jaeger settings
	JaegerEndpoint string

	// Zipkin settings
	ZipkinEndpoint string

	// Stackdriver settings
	StackdriverProjectID string

	// Datadog settings
	DatadogAgentAddress string
	DatadogAPIKey       string

	// AWS X-Ray settings
	XRayRegion string

	// General agent endpoint (for exporters that support a common agent)
	AgentEndpoint string

	// Metrics exporter configuration
	MetricsExporter string // "prometheus", "stackdriver", "datadog", "none" or comma-separated list
	PrometheusPort  int
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	// Try to load .env file but don't require it
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hookline")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	// Delivery engine defaults
	v.SetDefault("DELIVERY_WORKERS", 2)
	v.SetDefault("DELIVERY_REQUEST_TIMEOUT", "10s")
	v.SetDefault("DELIVERY_MAX_RESPONSE_BYTES", 1<<20)
	v.SetDefault("DELIVERY_USER_AGENT", "Hookline/"+VERSION)
	v.SetDefault("DELIVERY_DRAIN_TIMEOUT", "30s")

	// Destination validation defaults
	v.SetDefault("VALIDATION_ENABLED", true)
	v.SetDefault("VALIDATION_CACHE_TTL", "10m")
	v.SetDefault("VALIDATION_CACHE_CLEANUP", "5m")

	// Security defaults
	v.SetDefault("SECURITY_PERMISSIONS", "view")

	// Default tracing config
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "hookline-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)

	// Default trace exporter config
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")

	// Jaeger settings
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")

	// Zipkin settings
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")

	// Stackdriver settings
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")

	// Datadog settings
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")

	// AWS X-Ray settings
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")

	// General agent endpoint (for exporters that support a common agent)
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")

	// Default metrics exporter config
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	// Load environment file if specified
	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Validate required configuration
	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	subscriptions, err := parseSubscriptions(v.GetString("WEBHOOK_SUBSCRIPTIONS"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Delivery: DeliveryConfig{
			Workers:          v.GetInt64("DELIVERY_WORKERS"),
			RequestTimeout:   v.GetDuration("DELIVERY_REQUEST_TIMEOUT"),
			MaxResponseBytes: v.GetInt64("DELIVERY_MAX_RESPONSE_BYTES"),
			UserAgent:        v.GetString("DELIVERY_USER_AGENT"),
			DrainTimeout:     v.GetDuration("DELIVERY_DRAIN_TIMEOUT"),
		},
		Validation: ValidationConfig{
			Enabled:      v.GetBool("VALIDATION_ENABLED"),
			CacheTTL:     v.GetDuration("VALIDATION_CACHE_TTL"),
			CacheCleanup: v.GetDuration("VALIDATION_CACHE_CLEANUP"),
		},
		Security: SecurityConfig{
			JWTSecret:          []byte(jwtSecret),
			SigningSecret:      v.GetString("WEBHOOK_SIGNING_SECRET"),
			Principals:         splitList(v.GetString("SECURITY_PRINCIPALS")),
			AnonymousPrincipal: v.GetString("SECURITY_ANONYMOUS_PRINCIPAL"),
			Permissions:        splitList(v.GetString("SECURITY_PERMISSIONS")),
		},
		Tracing: TracingConfig{
			Enabled:             v.GetBool("TRACING_ENABLED"),
			ServiceName:         v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability: v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),

			// Trace exporter configuration
			TraceExporter: v.GetString("TRACING_TRACE_EXPORTER"),

			// Jaeger settings
			JaegerEndpoint: v.GetString("TRACING_JAEGER_ENDPOINT"),

			// Zipkin settings
			ZipkinEndpoint: v.GetString("TRACING_ZIPKIN_ENDPOINT"),

			// Stackdriver settings
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),

			// Datadog settings
			DatadogAgentAddress: v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:       v.GetString("TRACING_DATADOG_API_KEY"),

			// AWS X-Ray settings
			XRayRegion: v.GetString("TRACING_XRAY_REGION"),

			// General agent endpoint (for exporters that support a common agent)
			AgentEndpoint: v.GetString("TRACING_AGENT_ENDPOINT"),

			// Metrics exporter configuration
			MetricsExporter: v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:  v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Subscriptions: subscriptions,
		Environment:   v.GetString("ENVIRONMENT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		Version:       v.GetString("VERSION"),
	}

	return config, nil
}

// parseSubscriptions decodes the WEBHOOK_SUBSCRIPTIONS JSON array. An empty
// value means no configured subscriptions, which is fine.
func parseSubscriptions(raw string) ([]SubscriptionEntry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var entries []SubscriptionEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("error parsing WEBHOOK_SUBSCRIPTIONS: %w", err)
	}
	for i, entry := range entries {
		if entry.To == "" {
			return nil, fmt.Errorf("WEBHOOK_SUBSCRIPTIONS entry %d is missing \"to\"", i)
		}
	}
	return entries, nil
}

// splitList parses a comma-separated value into its non-empty items.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
