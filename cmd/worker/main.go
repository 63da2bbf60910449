// The worker binary consumes template-usage events from Kafka and applies
// the usage-count increments to Postgres, keeping telemetry writes off the
// request path.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres/repositories"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/redis"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/messaging/kafka"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
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

	logger.Info("starting chat-buddy usage worker",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.UsageTopic),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker exited", logging.Err(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	templateRepo := repositories.NewTemplateRepo(conn, logger)

	// The redis counter is best-effort: it mirrors the durable count for the
	// dashboard and survives worker restarts via Kafka replay anyway.
	var cache *redis.Cache
	if redisClient, err := redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, usage counters disabled", logging.Err(err))
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger)
	}

	handler := func(ctx context.Context, event *kafka.UsageEvent) error {
		if err := templateRepo.IncrementUsage(ctx, event.OwnerID, event.TemplateID); err != nil {
			return err
		}
		if cache != nil {
			if _, err := cache.IncrUsage(ctx, string(event.TemplateID)); err != nil {
				logger.Warn("bump usage counter failed",
					logging.String("template_id", string(event.TemplateID)),
					logging.Err(err),
				)
			}
		}
		return nil
	}

	consumer := kafka.NewConsumer(cfg.Kafka, handler, logger)
	defer consumer.Close()

	logger.Info("consuming usage events")
	return consumer.Run(ctx)
}
