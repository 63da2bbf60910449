// The apiserver binary runs the chat-buddy HTTP API: template CRUD and
// matching, reply generation, bulk import, refined-response retrieval,
// conversation capture, and the freelancer profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/conversations"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/generation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/importer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/responses"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/templates"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/response"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres/repositories"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/redis"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/messaging/kafka"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/search/opensearch"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/storage/minio"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/replygen"
	httpserver "github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/handlers"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/middleware"
)

// version is injected via ldflags.
var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	migrate := flag.Bool("migrate", true, "run database migrations on startup")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialise logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting chat-buddy api server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	if err := run(cfg, logger, *migrate); err != nil {
		logger.Fatal("api server exited", logging.Err(err))
	}
}

// loadConfig reads the config file when it exists, falling back to pure
// environment configuration for containerised deployments.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger, migrate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrate {
		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), migrationSource(cfg.Database.MigrationPath)); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	metrics := prometheus.NewMetrics()
	cache := redis.NewCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)

	// Repositories. Template reads ride through the redis decorator.
	var templateRepo template.Repository = repositories.NewTemplateRepo(conn, logger)
	templateRepo = redis.NewCachedTemplateRepo(templateRepo, cache, metrics, cfg.Redis.DefaultTTL, logger)
	responseRepo := repositories.NewResponseRepo(conn, logger)
	sessionRepo := repositories.NewSessionRepo(conn, logger)
	conversationRepo := repositories.NewConversationRepo(conn, logger)
	profileRepo := repositories.NewProfileRepo(conn, logger)

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	checkers := []handlers.HealthChecker{
		handlers.NamedCheck("postgres", conn.HealthCheck),
		handlers.NamedCheck("redis", redisClient.HealthCheck),
	}

	// OpenSearch is optional: without it similarity retrieval degrades to a
	// raw owner scan.
	var searcher response.Searcher
	if len(cfg.OpenSearch.Addresses) > 0 {
		osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
		if err != nil {
			logger.Warn("opensearch unavailable, keyword pre-filter disabled", logging.Err(err))
		} else {
			defer osClient.Close()
			searcher = opensearch.NewSearcher(osClient, cfg.OpenSearch, logger)
			checkers = append(checkers, handlers.NamedCheck("opensearch", osClient.Ping))
		}
	}

	// MinIO is optional: without it conversation capture rejects attachments.
	var attachments conversation.AttachmentStore
	if cfg.MinIO.Endpoint != "" {
		store, err := minio.NewStore(ctx, cfg.MinIO, logger)
		if err != nil {
			logger.Warn("object storage unavailable, attachments disabled", logging.Err(err))
		} else {
			attachments = store
		}
	}

	generator := replygen.NewClient(replygen.ClientConfig{
		BaseURL:         cfg.Generation.BaseURL,
		APIKey:          cfg.Generation.APIKey,
		Model:           cfg.Generation.Model,
		Temperature:     cfg.Generation.Temperature,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		Timeout:         cfg.Generation.Timeout,
		MaxRetries:      cfg.Generation.MaxRetries,
	}, nil, logger)

	// Application services.
	templateSvc := templates.NewService(templateRepo, producer, cfg.Matching, logger)
	responseSvc := responses.NewService(responseRepo, searcher, cfg.Matching, logger)
	importSvc := importer.NewService(templateRepo, sessionRepo, logger)
	conversationSvc := conversations.NewService(conversationRepo, attachments, logger)
	generationSvc := generation.NewService(templateRepo, profileRepo, conversationRepo,
		responseSvc, generator, cfg.Matching, logger)

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	defer rateLimiter.Close()

	router := httpserver.NewRouter(httpserver.RouterConfig{
		GenerateHandler:     handlers.NewGenerateHandler(generationSvc, templateSvc, metrics, logger),
		TemplateHandler:     handlers.NewTemplateHandler(templateSvc, logger),
		ImportHandler:       handlers.NewImportHandler(importSvc, metrics, logger),
		ResponseHandler:     handlers.NewResponseHandler(responseSvc, logger),
		ConversationHandler: handlers.NewConversationHandler(conversationSvc, logger),
		ProfileHandler:      handlers.NewProfileHandler(profileRepo, logger),
		HealthHandler:       handlers.NewHealthHandler(version, checkers...),

		Auth:        middleware.NewAuth(cfg.Auth, logger),
		CORS:        middleware.DefaultCORSConfig(),
		RateLimiter: rateLimiter,

		Logger:  logger,
		Metrics: metrics,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logging.Int("port", cfg.Server.Port))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// migrationSource accepts both bare directories and full source URLs.
func migrationSource(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 15 * time.Second
}
