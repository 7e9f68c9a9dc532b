package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for orglens-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Engine database (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Completion service (OpenAI-compatible endpoint)
	LLM LLMConfig `yaml:"llm"`

	// Query engine tuning
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL configuration for the engine store.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"orglens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"orglens_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig holds the completion service endpoint and model settings.
type LLMConfig struct {
	Endpoint            string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model               string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey              string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	EmbeddingModel      string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions" env:"LLM_EMBEDDING_DIMENSIONS" env-default:"1536"`
	TimeoutSeconds      int    `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"30"`
}

// Timeout returns the bound for one completion or embedding call.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EngineConfig holds query engine tuning knobs.
type EngineConfig struct {
	// CacheTTLMinutes is how long query responses stay cached.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" env:"CACHE_TTL_MINUTES" env-default:"60"`
	// CachePruneMinutes is how often expired cache entries are reclaimed.
	CachePruneMinutes int `yaml:"cache_prune_minutes" env:"CACHE_PRUNE_MINUTES" env-default:"10"`
	// TopK is how many passages semantic retrieval returns.
	TopK int `yaml:"top_k" env:"RETRIEVAL_TOP_K" env-default:"5"`
	// MaxRows caps rows returned by any structured query.
	MaxRows int `yaml:"max_rows" env:"QUERY_MAX_ROWS" env-default:"100"`
	// EmbedBatchSize is how many chunks are embedded per upstream call.
	EmbedBatchSize int `yaml:"embed_batch_size" env:"EMBED_BATCH_SIZE" env-default:"10"`
	// MaxUploadBytes caps the size of one ingestion request.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"33554432"`
	// SynonymsPath optionally points at a YAML file of extra domain
	// synonyms merged into every discovered schema.
	SynonymsPath string `yaml:"synonyms_path" env:"SYNONYMS_PATH" env-default:""`
}

// CacheTTL returns the cache TTL as a duration.
func (c *EngineConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// CachePruneInterval returns how often the cache pruner runs.
func (c *EngineConfig) CachePruneInterval() time.Duration {
	return time.Duration(c.CachePruneMinutes) * time.Minute
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.CacheTTLMinutes <= 0 {
		return fmt.Errorf("cache_ttl_minutes must be positive, got %d", c.Engine.CacheTTLMinutes)
	}
	if c.Engine.CachePruneMinutes <= 0 {
		return fmt.Errorf("cache_prune_minutes must be positive, got %d", c.Engine.CachePruneMinutes)
	}
	if c.Engine.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Engine.TopK)
	}
	if c.Engine.MaxRows <= 0 {
		return fmt.Errorf("max_rows must be positive, got %d", c.Engine.MaxRows)
	}
	if c.Engine.EmbedBatchSize <= 0 {
		return fmt.Errorf("embed_batch_size must be positive, got %d", c.Engine.EmbedBatchSize)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string for the
// engine store.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
