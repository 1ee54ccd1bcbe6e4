package messaging

import (
	"context"
	"errors"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	consumerTracer = otel.Tracer("messaging/consumer")
	consumerMeter  = otel.Meter("messaging/consumer")
)

// Handler processes one message payload. A non-nil error stops Consume
// before the offset is committed.
type Handler func(ctx context.Context, payload []byte) error

// Consumer reads one topic as a member of a consumer group and commits
// each offset only after its handler succeeds.
type Consumer struct {
	reader    *kafka.Reader
	topic     string
	groupID   string
	processed metric.Int64Counter
}

type ConsumerOption func(*kafka.ReaderConfig)

// WithStartOffset picks where a group with no committed offset begins,
// kafka.FirstOffset or kafka.LastOffset.
func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	processed, err := consumerMeter.Int64Counter("messaging.process.messages",
		metric.WithDescription("Messages handed to a consumer handler by outcome"),
	)
	if err != nil {
		processed = noop.Int64Counter{}
	}

	return &Consumer{
		reader:    kafka.NewReader(cfg),
		topic:     topic,
		groupID:   groupID,
		processed: processed,
	}
}

func (c *Consumer) Topic() string {
	return c.topic
}

// Consume blocks until ctx is done, which returns nil, or until fetching,
// handling or committing a message fails.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return c.stopped(ctx, err)
		}

		if err := c.process(ctx, msg, handler); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return c.stopped(ctx, err)
		}
	}
}

func (c *Consumer) stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handler Handler) error {
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers: &msg.Headers})

	spanCtx, span := consumerTracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
		),
	)
	defer span.End()

	outcome := "ok"
	defer func() {
		c.processed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("topic", c.topic),
			attribute.String("outcome", outcome),
		))
	}()

	if err := handler(spanCtx, msg.Value); err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
