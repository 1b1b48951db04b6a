// Package config provides configuration management for the author reconciliation service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Graph store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendNeo4j    = "neo4j"
	StoreBackendMemory   = "memory"
)

// Config holds all configuration for the author reconciliation service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Store selects and configures the graph store.
	Store StoreConfig `mapstructure:"store"`
	// Neo4j contains Neo4j connection settings (used when store.backend is neo4j).
	Neo4j Neo4jConfig `mapstructure:"neo4j"`
	// Temporal contains Temporal workflow orchestration settings.
	Temporal TemporalConfig `mapstructure:"temporal"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Kafka contains Kafka publisher settings for reconciliation events.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Providers contains the external author-search providers.
	Providers ProvidersConfig `mapstructure:"providers"`
	// Matching contains the similarity thresholds.
	Matching MatchingConfig `mapstructure:"matching"`
	// Candidates contains candidate query generation settings.
	Candidates CandidatesConfig `mapstructure:"candidates"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (loaded from AUTHREC_DATABASE_PASSWORD).
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup.
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// StoreConfig holds graph store settings.
type StoreConfig struct {
	// Backend is the graph store implementation (postgres, neo4j, memory).
	Backend string `mapstructure:"backend"`
	// ProviderGraphPrefix is prepended to the provider name to form a partition key.
	ProviderGraphPrefix string `mapstructure:"provider_graph_prefix"`
	// AuthorsGraph is the graph holding the internal author registry.
	AuthorsGraph string `mapstructure:"authors_graph"`
}

// Neo4jConfig holds Neo4j connection settings.
type Neo4jConfig struct {
	// URI is the bolt URI of the Neo4j server.
	URI string `mapstructure:"uri"`
	// User is the Neo4j username.
	User string `mapstructure:"user"`
	// Password is the Neo4j password (loaded from AUTHREC_NEO4J_PASSWORD).
	Password string `mapstructure:"-"`
	// Database is the Neo4j database name.
	Database string `mapstructure:"database"`
}

// TemporalConfig holds Temporal workflow configuration.
type TemporalConfig struct {
	// HostPort is the Temporal server address.
	HostPort string `mapstructure:"host_port"`
	// Namespace is the Temporal namespace.
	Namespace string `mapstructure:"namespace"`
	// TaskQueue is the task queue name for reconciliation workflows.
	TaskQueue string `mapstructure:"task_queue"`
	// RunTimeout bounds a single provider batch run.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	// HeartbeatTimeout is the maximum gap between batch heartbeats.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// WorkerPort is the port the worker serves metrics on.
	WorkerPort int `mapstructure:"worker_port"`
}

// KafkaConfig holds Kafka publisher settings.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic reconciliation events are published to.
	Topic string `mapstructure:"topic"`
	// RequestTopic is consumed for run.requested events; empty disables the listener.
	RequestTopic string `mapstructure:"request_topic"`
	// GroupID is the consumer group of the request listener.
	GroupID string `mapstructure:"group_id"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// ProvidersConfig holds configuration for all author-search providers.
type ProvidersConfig struct {
	// Scopus contains Scopus author search settings.
	Scopus ProviderConfig `mapstructure:"scopus"`
	// DBLP contains DBLP author search settings.
	DBLP ProviderConfig `mapstructure:"dblp"`
}

// ProviderConfig holds configuration for a single author-search provider.
type ProviderConfig struct {
	// Enabled controls whether this provider is registered.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the number of retries for 429 and 5xx responses other than 503.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxPublications caps the publications fetched for a matched author.
	MaxPublications int `mapstructure:"max_publications"`
}

// MatchingConfig holds the named similarity thresholds.
type MatchingConfig struct {
	// SemanticDistanceListAListB is the threshold for keyword list against keyword list.
	SemanticDistanceListAListB float64 `mapstructure:"semantic_distance_list_a_list_b"`
	// SemanticDistanceWordListB is the threshold for a single keyword against a list.
	SemanticDistanceWordListB float64 `mapstructure:"semantic_distance_word_list_b"`
	// SyntacticDistanceNames is the threshold for person names.
	SyntacticDistanceNames float64 `mapstructure:"syntactic_distance_names"`
}

// CandidatesConfig holds candidate query generation settings.
type CandidatesConfig struct {
	// DefaultRegion is the affiliation used by the most specific candidate.
	DefaultRegion string `mapstructure:"default_region"`
	// AnyAffiliation is the affiliation value meaning "no affiliation filter".
	AnyAffiliation string `mapstructure:"any_affiliation"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AUTHREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/author-reconciliation-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv("AUTHREC_DATABASE_PASSWORD")
	cfg.Neo4j.Password = os.Getenv("AUTHREC_NEO4J_PASSWORD")
	cfg.Providers.Scopus.APIKey = os.Getenv("AUTHREC_PROVIDERS_SCOPUS_API_KEY")
	cfg.Providers.DBLP.APIKey = os.Getenv("AUTHREC_PROVIDERS_DBLP_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "authrec")
	v.SetDefault("database.name", "author_reconciliation")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Graph store defaults
	v.SetDefault("store.backend", StoreBackendPostgres)
	v.SetDefault("store.provider_graph_prefix", "http://ucuenca.edu.ec/wkhuska/provider/")
	v.SetDefault("store.authors_graph", "http://ucuenca.edu.ec/wkhuska/authors")

	// Neo4j defaults
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")

	// Temporal defaults
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "author-reconciliation")
	v.SetDefault("temporal.task_queue", "author-reconciliation-tasks")
	v.SetDefault("temporal.run_timeout", "12h")
	v.SetDefault("temporal.heartbeat_timeout", "5m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.worker_port", 9090)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.author_reconciliation")
	v.SetDefault("kafka.request_topic", "")
	v.SetDefault("kafka.group_id", "author-reconciliation-service")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Providers - Scopus (disabled by default, requires API key)
	v.SetDefault("providers.scopus.enabled", false)
	v.SetDefault("providers.scopus.base_url", "https://api.elsevier.com/content")
	v.SetDefault("providers.scopus.timeout", "30s")
	v.SetDefault("providers.scopus.rate_limit", 5.0)
	v.SetDefault("providers.scopus.max_retries", 3)
	v.SetDefault("providers.scopus.max_publications", 200)

	// Providers - DBLP
	v.SetDefault("providers.dblp.enabled", true)
	v.SetDefault("providers.dblp.base_url", "https://dblp.org")
	v.SetDefault("providers.dblp.timeout", "30s")
	v.SetDefault("providers.dblp.rate_limit", 1.0)
	v.SetDefault("providers.dblp.max_retries", 3)
	v.SetDefault("providers.dblp.max_publications", 500)

	// Matching thresholds
	v.SetDefault("matching.semantic_distance_list_a_list_b", 0.7)
	v.SetDefault("matching.semantic_distance_word_list_b", 0.8)
	v.SetDefault("matching.syntactic_distance_names", 0.25)

	// Candidate generation
	v.SetDefault("candidates.default_region", "Ecuador")
	v.SetDefault("candidates.any_affiliation", "all")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	switch c.Store.Backend {
	case StoreBackendPostgres, StoreBackendMemory:
	case StoreBackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j uri is required when store backend is %q", StoreBackendNeo4j)
		}
	default:
		return fmt.Errorf("invalid store backend: %q", c.Store.Backend)
	}
	if c.Store.ProviderGraphPrefix == "" {
		return fmt.Errorf("store provider_graph_prefix is required")
	}
	if c.Store.AuthorsGraph == "" {
		return fmt.Errorf("store authors_graph is required")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	for name, threshold := range map[string]float64{
		"semantic_distance_list_a_list_b": c.Matching.SemanticDistanceListAListB,
		"semantic_distance_word_list_b":   c.Matching.SemanticDistanceWordListB,
		"syntactic_distance_names":        c.Matching.SyntacticDistanceNames,
	} {
		if threshold <= 0 {
			return fmt.Errorf("matching %s must be positive", name)
		}
	}

	if strings.TrimSpace(c.Candidates.DefaultRegion) == "" {
		return fmt.Errorf("candidates default_region is required")
	}
	if strings.TrimSpace(c.Candidates.AnyAffiliation) == "" {
		return fmt.Errorf("candidates any_affiliation is required")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	// Scopus rejects every request without a key.
	if c.Providers.Scopus.Enabled && c.Providers.Scopus.APIKey == "" {
		return fmt.Errorf("provider scopus requires AUTHREC_PROVIDERS_SCOPUS_API_KEY to be set")
	}

	return nil
}
