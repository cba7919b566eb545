package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"3000"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional YAML file with credentials and paths (original deployments
	// shipped a config.yaml next to the binary)
	ConfigFile string `env:"CONFIG_FILE" envDefault:"config.yaml"`

	// Database settings
	Database DatabaseConfig

	// Embeddings configuration
	Embeddings EmbeddingsConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"300s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"300s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds DuckDB connection settings
type DatabaseConfig struct {
	// Path to the DuckDB database file
	Path string `env:"DUCKDB_PATH" envDefault:"drug.db"`

	// Connection attempts before giving up (handles file-lock contention)
	MaxAttempts int `env:"DUCKDB_MAX_ATTEMPTS" envDefault:"3"`

	// Delay between connection attempts
	RetryDelay time.Duration `env:"DUCKDB_RETRY_DELAY" envDefault:"2s"`

	// DuckDB thread count (0 = engine default)
	Threads int `env:"DUCKDB_THREADS" envDefault:"0"`

	// Query debug logging
	QueryDebug bool `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// EmbeddingsConfig holds embedding service configuration
type EmbeddingsConfig struct {
	// GCP Project ID for Vertex AI
	GCPProjectID string `env:"GCP_PROJECT_ID" envDefault:""`

	// Vertex AI location (e.g., "us-central1")
	VertexAILocation string `env:"VERTEX_AI_LOCATION" envDefault:"us-central1"`

	// Embedding model name
	Model string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-004"`

	// Embedding dimension (768 for text-embedding-004)
	Dimension int `env:"EMBEDDING_DIMENSION" envDefault:"768"`

	// Google API Key for Generative AI (development)
	GoogleAPIKey string `env:"GOOGLE_API_KEY" envDefault:""`

	// Disable embeddings network calls (for testing)
	NetworkDisabled bool `env:"EMBEDDINGS_NETWORK_DISABLED" envDefault:"false"`
}

// IsEnabled returns true if embeddings are configured
func (e *EmbeddingsConfig) IsEnabled() bool {
	if e.NetworkDisabled {
		return false
	}
	// Enabled if Vertex AI is configured OR Google API Key is set
	return (e.GCPProjectID != "" && e.VertexAILocation != "") || e.GoogleAPIKey != ""
}

// UseVertexAI returns true if Vertex AI should be used
func (e *EmbeddingsConfig) UseVertexAI() bool {
	return e.GCPProjectID != "" && e.VertexAILocation != ""
}

// fileConfig mirrors the optional YAML config file. Only the fields the
// original config.yaml carried are recognized.
type fileConfig struct {
	GoogleAPIKey   string `yaml:"google_api_key"`
	DatabasePath   string `yaml:"database_path"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// applyFile overlays values from the YAML config file onto cfg. Environment
// variables win: only fields still at their zero/default value are filled.
// A missing file is not an error.
func applyFile(cfg *Config) error {
	if cfg.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", cfg.ConfigFile, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", cfg.ConfigFile, err)
	}

	if cfg.Embeddings.GoogleAPIKey == "" && fc.GoogleAPIKey != "" {
		cfg.Embeddings.GoogleAPIKey = fc.GoogleAPIKey
	}
	if os.Getenv("DUCKDB_PATH") == "" && fc.DatabasePath != "" {
		cfg.Database.Path = fc.DatabasePath
	}
	if os.Getenv("EMBEDDING_MODEL") == "" && fc.EmbeddingModel != "" {
		cfg.Embeddings.Model = fc.EmbeddingModel
	}

	return nil
}

// NewConfig loads configuration from environment variables and the optional
// YAML config file
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyFile(cfg); err != nil {
		return nil, err
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("database", cfg.Database.Path),
		slog.Bool("embeddings", cfg.Embeddings.IsEnabled()),
	)

	return cfg, nil
}
