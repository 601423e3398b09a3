package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/georgia-health-dashboard/internal/config"
	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
)

// joinedMessage is the wire form of one joined feature.
type joinedMessage struct {
	View     string    `json:"view"`
	FIPS     string    `json:"fips"`
	Name     string    `json:"name"`
	Value    *float64  `json:"value"`
	Matched  bool      `json:"matched"`
	JoinedAt time.Time `json:"joined_at"`
}

// messageWriter is the part of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes the joined records of map views to a Kafka topic, one
// message per feature keyed by FIPS code. It implements domain.JoinPublisher.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured export topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return newPublisher(w, metrics, logger)
}

func newPublisher(w messageWriter, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// PublishJoin serializes every joined record of result and publishes them in
// a single WriteMessages call. Unmatched features are published with a null
// value so consumers see the complete region.
func (p *Publisher) PublishJoin(ctx context.Context, view string, result domain.JoinResult) error {
	if len(result.Joined) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(result.Joined))
	for i, rec := range result.Joined {
		msg, err := serializeToMessage(view, rec, result.JoinedAt)
		if err != nil {
			p.metrics.PublishErrors.Inc()
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish %s: %w", view, err)
	}
	p.metrics.RecordsPublished.Add(float64(len(msgs)))
	p.logger.Debug("joined records published", "view", view, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a joined record into a Kafka message.
func serializeToMessage(view string, rec domain.JoinedRecord, joinedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(joinedMessage{
		View:     view,
		FIPS:     rec.Feature.ID,
		Name:     rec.Feature.Name,
		Value:    rec.Value,
		Matched:  rec.HasValue(),
		JoinedAt: joinedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize joined record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Feature.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "metric", Value: []byte(view)},
			{Key: "joined_at", Value: []byte(joinedAt.Format(time.RFC3339))},
		},
	}, nil
}
