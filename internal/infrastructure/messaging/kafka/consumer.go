package kafka

import (
	"context"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

// UsageHandler applies one usage event.  A returned error leaves the message
// uncommitted so it is redelivered.
type UsageHandler func(ctx context.Context, event *UsageEvent) error

// readerInterface abstracts kafka.Reader for testing.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer drains the usage topic and applies each event via the handler.
type Consumer struct {
	reader  readerInterface
	handler UsageHandler
	logger  logging.Logger
}

// NewConsumer builds a group consumer on the usage topic.
func NewConsumer(cfg config.KafkaConfig, handler UsageHandler, logger logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	topic := cfg.UsageTopic
	if topic == "" {
		topic = DefaultUsageTopic
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "chatbuddy-worker"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0, // explicit commits only
		MaxWait:        time.Second,
	})
	return &Consumer{reader: reader, handler: handler, logger: logger.Named("kafka_consumer")}
}

// newConsumerWithReader injects a reader (for testing).
func newConsumerWithReader(r readerInterface, handler UsageHandler, logger logging.Logger) *Consumer {
	return &Consumer{reader: r, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled or the reader closes.  Undecodable
// messages are committed and dropped — replaying garbage helps no one —
// while handler failures leave the offset uncommitted for redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			return errors.Wrap(err, errors.CodeServiceUnavailable, "fetch usage message")
		}

		event, err := DecodeUsageEvent(msg.Value)
		if err != nil {
			c.logger.Warn("dropping undecodable usage event",
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return errors.Wrap(err, errors.CodeServiceUnavailable, "commit poison message")
			}
			continue
		}

		if err := c.handler(ctx, event); err != nil {
			c.logger.Error("usage event handling failed, leaving uncommitted",
				logging.String("template_id", string(event.TemplateID)),
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, errors.CodeServiceUnavailable, "commit usage message")
		}
	}
}

// Close shuts the reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
