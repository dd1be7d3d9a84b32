// Package kafka forwards audit events to a Kafka topic, keyed by subject so
// one principal's events stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "biogate/pkg/platform/audit"
	"biogate/pkg/platform/circuit"
	"biogate/pkg/platform/sentinel"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink produces each event synchronously; the async publisher buffer keeps
// this off the request path.
type Sink struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
}

type Option func(*Sink)

// WithBreaker stops producing while the broker keeps failing; events are
// rejected with sentinel.ErrUnavailable until a probe succeeds.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) { s.breaker = b }
}

func NewSink(producer Producer, topic string, opts ...Option) *Sink {
	s := &Sink{producer: producer, topic: topic}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if s.breaker != nil && !s.breaker.Allow() {
		return fmt.Errorf("%w: kafka audit circuit open", sentinel.ErrUnavailable)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		if s.breaker != nil {
			s.breaker.RecordFailure()
		}
		return fmt.Errorf("produce audit event: %w", err)
	}
	if s.breaker != nil {
		s.breaker.RecordSuccess()
	}
	return nil
}
