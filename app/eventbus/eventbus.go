package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// EventBus publishes and subscribes to topics on NATS.
type EventBus interface {
	message.Publisher
	message.Subscriber
	// Healthy reports whether the underlying connection is up.
	Healthy(ctx context.Context) error
}

// Config configures the NATS event bus.
type Config struct {
	URL string
	// QueueGroupPrefix load-balances subscribers of one topic across processes.
	QueueGroupPrefix string
	CloseTimeout     time.Duration
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	natsConn   *nc.Conn
	logger     *slog.Logger
}

// NewEventBus connects to NATS core (no JetStream). Presence events and
// announcements are transient, so at-most-once delivery is enough.
func NewEventBus(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	natsConn, err := nc.Connect(cfg.URL, nc.Name("osuvs-eventbus"))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to NATS", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(time.Second),
	}
	jsConfig := nats.JetStreamConfig{Disabled: true}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:               cfg.URL,
			NatsOptions:       options,
			Marshaler:         marshaler,
			JetStream:         jsConfig,
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		logger.ErrorContext(ctx, "Failed to create Watermill publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:               cfg.URL,
			QueueGroupPrefix:  cfg.QueueGroupPrefix,
			SubscribersCount:  1,
			CloseTimeout:      cfg.CloseTimeout,
			NatsOptions:       options,
			Unmarshaler:       marshaler,
			JetStream:         jsConfig,
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		_ = publisher.Close()
		logger.ErrorContext(ctx, "Failed to create Watermill subscriber", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.InfoContext(ctx, "Event bus connected", slog.String("url", natsConn.ConnectedUrlRedacted()))
	return &eventBus{
		publisher:  publisher,
		subscriber: subscriber,
		natsConn:   natsConn,
		logger:     logger,
	}, nil
}

func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	eb.logger.InfoContext(ctx, "Subscribing to topic", slog.String("topic", topic))
	messages, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return messages, nil
}

func (eb *eventBus) Healthy(context.Context) error {
	if status := eb.natsConn.Status(); status != nc.CONNECTED {
		return fmt.Errorf("nats connection is %s", status)
	}
	return nil
}

// Close closes all NATS and Watermill resources.
func (eb *eventBus) Close() error {
	var errs []error
	if err := eb.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := eb.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	eb.natsConn.Close()
	return errors.Join(errs...)
}
