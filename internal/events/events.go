// Package events carries recommendation lifecycle events over Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/observability"
)

type Type string

const (
	RecommendationCreated  Type = "recommendation.created"
	RecommendationApproved Type = "recommendation.approved"
)

// Event announces a recommendation change. Received is the recipient's
// approved total after an approval, so consumers can set it rather than
// count events.
type Event struct {
	Type           Type                  `json:"type"`
	Recommendation models.Recommendation `json:"recommendation"`
	Received       int                   `json:"received,omitempty"`
	At             time.Time             `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("decode event: %w", err)
	}
	switch e.Type {
	case RecommendationCreated, RecommendationApproved:
	default:
		return e, fmt.Errorf("decode event: unknown type %q", e.Type)
	}
	if e.Recommendation.ToPerson == "" {
		return e, fmt.Errorf("decode event: missing recipient")
	}
	if e.Type == RecommendationApproved && e.Received < 1 {
		return e, fmt.Errorf("decode event: approval without received count")
	}
	return e, nil
}

type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, Balancer: &kafka.LeastBytes{}}
	return &KafkaPublisher{writer: w, timeout: 2 * time.Second}
}

// Publish keys messages by recipient so one person's events stay ordered.
func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Recommendation.ToPerson), Value: b}); err != nil {
		observability.EventsPublishedTotal.WithLabelValues(string(e.Type), "error").Inc()
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	observability.EventsPublishedTotal.WithLabelValues(string(e.Type), "ok").Inc()
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
