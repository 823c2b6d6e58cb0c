package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const writeTimeout = 5 * time.Second

// KafkaSink publishes audit entries to a Kafka topic. Delivery is
// best-effort: a failed write is logged, never surfaced to the caller.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a sink writing to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Emit(entry Entry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("action", entry.Action).Msg("Failed to marshal audit entry")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d:%s", entry.TenantID, entry.EntityType)),
		Value: payload,
		Time:  entry.OccurredAt,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().Err(err).
			Str("action", entry.Action).
			Int64("tenant_id", entry.TenantID).
			Msg("Failed to publish audit entry")
		return
	}

	log.Debug().
		Str("action", entry.Action).
		Int64("tenant_id", entry.TenantID).
		Int64("entity_id", entry.EntityID).
		Msg("Audit entry published")
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
