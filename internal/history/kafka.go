package history

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"

	"atelier/internal/history/models"
	dErrors "atelier/pkg/domain-errors"
)

// KafkaSink streams generation records to a Kafka topic, keyed by tool so a
// consumer sees each tool's records in order.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create kafka producer")
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

// Publish produces one record and waits for the broker ack.
func (s *KafkaSink) Publish(ctx context.Context, entry models.Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode history record")
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.ToolID),
		Value: raw,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "produce history record")
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "flush kafka producer")
	}
	s.client.Close()
	return nil
}
