package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter is the subset of *kafka.Writer the forwarder uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           100 * time.Millisecond,
	}
}

// KafkaForwarder copies every bus event to a Kafka topic, keyed by actor so
// one user's events stay ordered within a partition.
type KafkaForwarder struct {
	bus          Bus
	writer       KafkaWriter
	writeTimeout time.Duration
}

func NewKafkaForwarder(bus Bus, writer KafkaWriter) *KafkaForwarder {
	return &KafkaForwarder{bus: bus, writer: writer, writeTimeout: 5 * time.Second}
}

// Run blocks until ctx is done or the subscription closes, then closes the
// writer.
func (f *KafkaForwarder) Run(ctx context.Context) {
	events, unsubscribe := f.bus.Subscribe("kafka")
	defer unsubscribe()
	defer func() {
		if err := f.writer.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			f.forward(ctx, e)
		}
	}
}

func (f *KafkaForwarder) forward(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal event", "event_id", e.ID, "error", err)
		return
	}

	key := e.ActorID
	if key == "" {
		key = e.ID
	}

	writeCtx, cancel := context.WithTimeout(ctx, f.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := f.writer.WriteMessages(writeCtx, msg); err != nil {
		slog.Error("failed to publish event to kafka", "event_id", e.ID, "type", e.Type, "error", err)
		return
	}
	slog.Debug("event published to kafka", "event_id", e.ID, "type", e.Type)
}
