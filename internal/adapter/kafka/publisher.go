// Package kafka publishes major-earthquake alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/config"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Alert is the message body for one major earthquake.
type Alert struct {
	ID        string          `json:"id"`
	Magnitude float64         `json:"magnitude"`
	Severity  domain.Severity `json:"severity"`
	Place     string          `json:"place"`
	Time      time.Time       `json:"time"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	DepthKm   *float64        `json:"depth_km"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes one message per major event, keyed by event id so
// repeated loads of the same feed compact onto the same key.
type Publisher struct {
	writer  messageWriter
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured alert topic.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, clock: clock, metrics: metrics, logger: logger}
}

// PublishMajor sends the major-events list in a single batch. An empty list
// is a no-op.
func (p *Publisher) PublishMajor(ctx context.Context, events []domain.MajorEvent) error {
	if len(events) == 0 {
		return nil
	}
	publishedAt := p.clock.Now()
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeAlert(events[i], publishedAt)
		if err != nil {
			p.metrics.AlertErrors.Inc()
			return err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.AlertErrors.Inc()
		return fmt.Errorf("publish alerts: %w", err)
	}
	p.metrics.AlertsPublished.Add(float64(len(msgs)))
	p.logger.Info("major earthquake alerts published", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeAlert(e domain.MajorEvent, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(Alert{
		ID:        e.ID,
		Magnitude: e.Magnitude,
		Severity:  e.Severity,
		Place:     e.Place,
		Time:      e.Time,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		DepthKm:   e.DepthKm,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert %s: %w", e.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(e.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(e.Severity)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
