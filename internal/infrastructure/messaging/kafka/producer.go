package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// ErrProducerClosed is returned by publishes after Close.
var ErrProducerClosed = errors.New(errors.CodeInternal, "kafka producer is closed")

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes usage events.  It satisfies the application layer's
// UsagePublisher contract.
type Producer struct {
	writer writerInterface
	topic  string
	logger logging.Logger
	closed atomic.Bool
}

// NewProducer builds a Producer on kafka-go's batching writer.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.Default()
	}
	topic := cfg.UsageTopic
	if topic == "" {
		topic = DefaultUsageTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // keyed by template ID
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer, topic: topic, logger: logger.Named("kafka_producer")}
}

// newProducerWithWriter injects a writer (for testing).
func newProducerWithWriter(w writerInterface, topic string, logger logging.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: logger}
}

// PublishTemplateUsed emits one usage event.
func (p *Producer) PublishTemplateUsed(ctx context.Context, owner common.OwnerID, templateID common.ID) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	event := &UsageEvent{OwnerID: owner, TemplateID: templateID, OccurredAt: time.Now().UTC()}
	key, value, err := event.Encode()
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "publish usage event")
	}
	return nil
}

// Close flushes and shuts the writer down.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "close kafka writer")
	}
	p.logger.Info("closed kafka producer", logging.String("topic", p.topic))
	return nil
}
