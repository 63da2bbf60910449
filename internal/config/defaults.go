package config

import "time"

// Default value constants.  Anything a deployment does not set explicitly
// falls back to these; explicit configuration always wins.
const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodySize     = int64(8 << 20) // 8 MiB

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "chatbuddy"
	DefaultDBUser     = "chatbuddy"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25
	DefaultMigrations = "migrations"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 5 * time.Minute
	DefaultRedisKeyPrefix = "chatbuddy:"

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroupID    = "chatbuddy-worker"
	DefaultKafkaUsageTopic = "chatbuddy.template.usage"

	DefaultOpenSearchAddr  = "http://localhost:9200"
	DefaultIndexPrefix     = "chatbuddy"
	DefaultCandidateLimit  = 200

	DefaultMinIOEndpoint   = "localhost:9000"
	DefaultMinIOBucket     = "chatbuddy-attachments"
	DefaultPresignExpiry   = 15 * time.Minute
	DefaultMaxUploadSize   = int64(5 << 20) // 5 MiB

	DefaultGenerationURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGenerationModel  = "gemini-1.5-flash"
	DefaultTemperature      = 0.7
	DefaultMaxOutputTokens  = 1024
	DefaultGenerationWait   = 30 * time.Second
	DefaultGenerationRetry  = 2

	DefaultMaxTemplates    = 50
	DefaultTopTemplates    = 3
	DefaultSimilarLimit    = 3
	DefaultPromptExemplars = 2

	DefaultWorkerConcurrency = 4
	DefaultWorkerRetries     = 3
	DefaultWorkerBackoff     = 500 * time.Millisecond
	DefaultCommitInterval    = time.Second

	DefaultSubjectHeader = "X-User-Id"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// It must be called after unmarshalling raw config data and before
// Validate() so that optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultMigrations
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.UsageTopic == "" {
		cfg.Kafka.UsageTopic = DefaultKafkaUsageTopic
	}

	// OpenSearch
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = DefaultIndexPrefix
	}
	if cfg.OpenSearch.CandidateLimit == 0 {
		cfg.OpenSearch.CandidateLimit = DefaultCandidateLimit
	}

	// MinIO
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultPresignExpiry
	}
	if cfg.MinIO.MaxUploadSize == 0 {
		cfg.MinIO.MaxUploadSize = DefaultMaxUploadSize
	}

	// Generation
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = DefaultGenerationURL
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultGenerationModel
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = DefaultTemperature
	}
	if cfg.Generation.MaxOutputTokens == 0 {
		cfg.Generation.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = DefaultGenerationWait
	}
	if cfg.Generation.MaxRetries == 0 {
		cfg.Generation.MaxRetries = DefaultGenerationRetry
	}

	// Matching
	if cfg.Matching.MaxTemplates == 0 {
		cfg.Matching.MaxTemplates = DefaultMaxTemplates
	}
	if cfg.Matching.TopTemplates == 0 {
		cfg.Matching.TopTemplates = DefaultTopTemplates
	}
	if cfg.Matching.SimilarLimit == 0 {
		cfg.Matching.SimilarLimit = DefaultSimilarLimit
	}
	if cfg.Matching.PromptExemplars == 0 {
		cfg.Matching.PromptExemplars = DefaultPromptExemplars
	}

	// Worker
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultWorkerBackoff
	}
	if cfg.Worker.CommitInterval == 0 {
		cfg.Worker.CommitInterval = DefaultCommitInterval
	}

	// Auth
	if cfg.Auth.SubjectHeader == "" {
		cfg.Auth.SubjectHeader = DefaultSubjectHeader
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
