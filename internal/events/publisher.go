// Package events mirrors critical readings onto a Kafka topic so
// downstream consumers (dashboards, archival jobs) can subscribe.
// The mirror is best-effort: publish failures never affect a cycle.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"schutz/internal/logger"
	"schutz/internal/metrics"
	"schutz/internal/models"
)

// Event is the JSON record written per critical reading.
type Event struct {
	AlertType    string            `json:"alert_type"`
	SensorType   models.SensorType `json:"sensor_type"`
	CurrentValue float64           `json:"current_value"`
	Unit         string            `json:"unit"`
	Threshold    float64           `json:"threshold"`
	ExceededBy   float64           `json:"exceeded_by"`
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Publisher writes alert events to a single Kafka topic, keyed by
// sensor type so per-sensor ordering holds.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &Publisher{writer: writer}, nil
}

// PublishCritical writes one alert event for a critical reading.
func (p *Publisher) PublishCritical(ctx context.Context, reading models.Reading, effectiveThreshold float64) error {
	ev := Event{
		AlertType:    "sensor_threshold_exceeded",
		SensorType:   reading.SensorType,
		CurrentValue: reading.Value,
		Unit:         reading.Unit,
		Threshold:    effectiveThreshold,
		ExceededBy:   reading.Value - effectiveThreshold,
		Status:       "critical",
		Timestamp:    reading.Timestamp,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		metrics.AlertEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("serialize alert event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(reading.SensorType),
		Value: data,
		Time:  reading.Timestamp,
		Headers: []kafka.Header{
			{Key: "sensor_type", Value: []byte(reading.SensorType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.AlertEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("publish alert event: %w", err)
	}

	metrics.AlertEventsTotal.WithLabelValues("success").Inc()
	log := logger.WithComponent("events")
	log.Debug().
		Str("sensor_type", string(reading.SensorType)).
		Float64("value", reading.Value).
		Msg("alert event published")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
