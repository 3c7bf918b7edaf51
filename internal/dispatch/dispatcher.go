// Package dispatch fans critical readings out to the notification
// channels of matching alert rules. Attempts are independent: a failed
// or slow channel never blocks or aborts the others, and no attempt is
// retried.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schutz/internal/logger"
	"schutz/internal/metrics"
	"schutz/internal/models"
)

// Dispatch errors
var (
	ErrMailTransport    = errors.New("mail transport failure")
	ErrWebhookTransport = errors.New("webhook transport failure")
)

// Mailer sends one HTML notification mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// WebhookPoster delivers one JSON payload to a URL.
type WebhookPoster interface {
	Post(ctx context.Context, url string, payload any) error
}

// Attempt records the outcome of one notification dispatch. Attempts
// exist only for the duration of a cycle and are not persisted.
type Attempt struct {
	Rule     models.AlertRule
	Reading  models.Reading
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the attempt delivered its notification.
func (a Attempt) Succeeded() bool { return a.Err == nil }

// Config holds dispatcher configuration
type Config struct {
	Mailer   Mailer
	Webhooks WebhookPoster
	// Maximum number of concurrent attempts (default 8)
	MaxInFlight int
	// Hard per-attempt timeout (default 10s)
	AttemptTimeout time.Duration
}

// Dispatcher delivers notifications for critical readings.
type Dispatcher struct {
	mailer         Mailer
	webhooks       WebhookPoster
	maxInFlight    int
	attemptTimeout time.Duration
}

// New creates a Dispatcher with the given transports.
func New(cfg Config) *Dispatcher {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 8
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	return &Dispatcher{
		mailer:         cfg.Mailer,
		webhooks:       cfg.Webhooks,
		maxInFlight:    cfg.MaxInFlight,
		attemptTimeout: cfg.AttemptTimeout,
	}
}

// Dispatch sends one notification per rule matching the reading's
// sensor type whose own threshold the value exceeds. Each rule's
// threshold is re-checked here, independent of the effective threshold
// that classified the reading: a rule with a looser bound may
// legitimately not fire for a reading stored as critical.
//
// Attempts run concurrently, bounded by the max-in-flight limit, each
// under its own timeout. All outcomes are collected and returned.
func (d *Dispatcher) Dispatch(ctx context.Context, reading models.Reading, rules []models.AlertRule) []Attempt {
	var fire []models.AlertRule
	for _, r := range rules {
		if r.SensorType != reading.SensorType {
			continue
		}
		if reading.Value <= r.Threshold {
			continue
		}
		fire = append(fire, r)
	}
	if len(fire) == 0 {
		return nil
	}

	attempts := make([]Attempt, len(fire))
	sem := make(chan struct{}, d.maxInFlight)
	var wg sync.WaitGroup

	for i, rule := range fire {
		// Acquire before spawning so goroutine creation is bounded too.
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, rule models.AlertRule) {
			defer wg.Done()
			defer func() { <-sem }()

			attempts[i] = d.attempt(ctx, rule, reading)
		}(i, rule)
	}
	wg.Wait()

	return attempts
}

// attempt delivers one notification and records the outcome.
func (d *Dispatcher) attempt(ctx context.Context, rule models.AlertRule, reading models.Reading) Attempt {
	log := logger.WithComponent("dispatcher")

	metrics.DispatchInFlight.Inc()
	defer metrics.DispatchInFlight.Dec()

	actx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()

	start := time.Now()
	err := d.deliver(actx, rule, reading)
	duration := time.Since(start)

	metrics.DispatchAttemptDuration.WithLabelValues(string(rule.Channel)).Observe(duration.Seconds())

	if err != nil {
		metrics.DispatchAttemptsTotal.WithLabelValues(string(rule.Channel), "failed").Inc()
		log.Error().
			Err(err).
			Str("rule_id", rule.ID).
			Str("channel", string(rule.Channel)).
			Str("target", rule.Target()).
			Str("sensor_type", string(reading.SensorType)).
			Float64("value", reading.Value).
			Float64("rule_threshold", rule.Threshold).
			Dur("duration", duration).
			Msg("notification dispatch failed")
	} else {
		metrics.DispatchAttemptsTotal.WithLabelValues(string(rule.Channel), "success").Inc()
		log.Info().
			Str("rule_id", rule.ID).
			Str("channel", string(rule.Channel)).
			Str("target", rule.Target()).
			Str("sensor_type", string(reading.SensorType)).
			Dur("duration", duration).
			Msg("notification dispatched")
	}

	return Attempt{Rule: rule, Reading: reading, Err: err, Duration: duration}
}

// deliver routes the notification through the rule's channel.
func (d *Dispatcher) deliver(ctx context.Context, rule models.AlertRule, reading models.Reading) error {
	switch rule.Channel {
	case models.ChannelEmail:
		subject := fmt.Sprintf("IoT Safety Alert - %s Threshold Exceeded", reading.SensorType)
		body, err := renderEmailBody(reading, rule.Threshold)
		if err != nil {
			return fmt.Errorf("render email body: %w", err)
		}
		if err := d.mailer.Send(ctx, rule.Email, subject, body); err != nil {
			return fmt.Errorf("%w: %v", ErrMailTransport, err)
		}
		return nil

	case models.ChannelWebhook:
		payload := NewAlertPayload(reading, rule.Threshold)
		if err := d.webhooks.Post(ctx, rule.URL, payload); err != nil {
			return fmt.Errorf("%w: %v", ErrWebhookTransport, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown channel %q", models.ErrInvalidChannel, rule.Channel)
	}
}

// AlertPayload is the JSON body posted to webhook channels.
type AlertPayload struct {
	AlertType    string            `json:"alert_type"`
	SensorType   models.SensorType `json:"sensor_type"`
	CurrentValue float64           `json:"current_value"`
	Unit         string            `json:"unit"`
	Threshold    float64           `json:"threshold"`
	ExceededBy   float64           `json:"exceeded_by"`
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
}

// NewAlertPayload builds the webhook payload for a reading that
// exceeded a rule's threshold.
func NewAlertPayload(reading models.Reading, ruleThreshold float64) AlertPayload {
	return AlertPayload{
		AlertType:    "sensor_threshold_exceeded",
		SensorType:   reading.SensorType,
		CurrentValue: reading.Value,
		Unit:         reading.Unit,
		Threshold:    ruleThreshold,
		ExceededBy:   reading.Value - ruleThreshold,
		Status:       "critical",
		Timestamp:    reading.Timestamp.Format(time.RFC3339),
	}
}
