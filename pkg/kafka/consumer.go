package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"QCast/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, data []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	MinBytes int
	MaxBytes int
	Backoff  time.Duration
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithGroupID sets consumer group ID.
func WithGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithFetch sets fetch min/max bytes.
func WithFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// WithBackoff sets the delay applied after read errors.
func WithBackoff(d time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Backoff = d
	}
}

// Consumer reads one topic and dispatches messages to its handler. Handler
// errors are logged and the message is skipped; only read errors back off.
type Consumer struct {
	cfg     *ConsumerConfig
	reader  *kafka.Reader
	handler MessageHandler
	log     *logger.Logger
}

// NewConsumer creates a consumer for the handler's topic.
func NewConsumer(handler MessageHandler, log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		MinBytes: 1,
		MaxBytes: 1 << 20,
		Backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: brokers required")
	}
	if handler == nil || handler.Topic() == "" {
		return nil, fmt.Errorf("kafka consumer: handler with topic required")
	}
	if log == nil {
		log = logger.Nop()
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    handler.Topic(),
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{cfg: cfg, reader: reader, handler: handler, log: log}, nil
}

// Start blocks consuming until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("kafka consumer: started",
		logger.Strings("brokers", c.cfg.Brokers),
		logger.String("topic", c.handler.Topic()),
	)

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			c.log.Warn("kafka consumer: read error", logger.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.Backoff):
			}
			continue
		}

		if err := c.handler.Handle(ctx, m.Value); err != nil {
			c.log.Warn("kafka consumer: handler error",
				logger.String("topic", m.Topic),
				logger.Error(err),
			)
		}
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
