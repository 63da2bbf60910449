// Package config defines all configuration structures for the chat-buddy
// service.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters used for the template-list
// cache and usage counters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer/consumer parameters for the usage-event
// telemetry stream.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	UsageTopic      string        `mapstructure:"usage_topic"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// OpenSearchConfig holds OpenSearch cluster parameters for refined-response
// keyword search.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
	CandidateLimit     int      `mapstructure:"candidate_limit"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters for
// conversation image attachments.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// GenerationConfig holds parameters for the external generative-language API
// used to draft replies.
type GenerationConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

// MatchingConfig holds knobs for template matching and similarity retrieval.
type MatchingConfig struct {
	MaxTemplates    int `mapstructure:"max_templates"`     // templates fetched per request
	TopTemplates    int `mapstructure:"top_templates"`     // ranked templates fed into the prompt
	SimilarLimit    int `mapstructure:"similar_limit"`     // top-K similar refined responses
	PromptExemplars int `mapstructure:"prompt_exemplars"`  // exemplars included in the prompt (0–2)
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// AuthConfig holds identity-extraction parameters.  Token verification is
// delegated to the fronting gateway; the service only requires the verified
// subject header to be present.
type AuthConfig struct {
	SubjectHeader string `mapstructure:"subject_header"`
	AllowAnon     bool   `mapstructure:"allow_anon"` // test mode only
}

// Config is the root configuration structure for the entire service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Generation GenerationConfig `mapstructure:"generation"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.UsageTopic == "" {
		return fmt.Errorf("config: kafka.usage_topic is required")
	}

	// Generation
	if c.Generation.BaseURL == "" {
		return fmt.Errorf("config: generation.base_url is required")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("config: generation.temperature %.2f is out of range [0, 2]", c.Generation.Temperature)
	}
	if c.Generation.MaxOutputTokens < 1 {
		return fmt.Errorf("config: generation.max_output_tokens must be >= 1, got %d", c.Generation.MaxOutputTokens)
	}

	// Matching
	if c.Matching.SimilarLimit < 1 {
		return fmt.Errorf("config: matching.similar_limit must be >= 1, got %d", c.Matching.SimilarLimit)
	}
	if c.Matching.PromptExemplars < 0 || c.Matching.PromptExemplars > 2 {
		return fmt.Errorf("config: matching.prompt_exemplars %d is out of range [0, 2]", c.Matching.PromptExemplars)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
