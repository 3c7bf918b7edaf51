// Package ingest orchestrates one ingestion cycle: validate the batch,
// snapshot the alert rules, resolve and classify each sensor type,
// persist the readings atomically, then dispatch notifications for
// critical readings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schutz/internal/dispatch"
	"schutz/internal/logger"
	"schutz/internal/metrics"
	"schutz/internal/models"
	"schutz/internal/storage"
	"schutz/internal/threshold"
)

// ErrValidation indicates a malformed or incomplete ingestion payload.
// No persistence or dispatch happens for such a cycle.
var ErrValidation = errors.New("invalid ingestion payload")

// AlertEvents mirrors critical readings to an external event stream.
// Publishing is best-effort; errors are logged, never surfaced.
type AlertEvents interface {
	PublishCritical(ctx context.Context, reading models.Reading, effectiveThreshold float64) error
}

// Config holds coordinator dependencies.
type Config struct {
	Store      storage.Store
	Dispatcher *dispatch.Dispatcher
	// Optional; nil disables the event mirror.
	Events AlertEvents
}

// Coordinator runs ingestion cycles. Cycles are share-nothing: each
// takes its own rule snapshot and builds its own readings, so any
// number may run concurrently.
type Coordinator struct {
	store      storage.Store
	dispatcher *dispatch.Dispatcher
	events     AlertEvents
	now        func() time.Time
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		events:     cfg.Events,
		now:        time.Now,
	}
}

// Result reports what one ingestion cycle produced.
type Result struct {
	Readings []models.Reading
	Attempts []dispatch.Attempt
}

// Ingest runs one cycle. It returns ErrValidation for incomplete
// batches and a persistence error when the atomic write fails; in both
// cases nothing is dispatched. Once persistence commits the cycle
// succeeds regardless of dispatch outcomes.
func (c *Coordinator) Ingest(ctx context.Context, batch models.Batch) (*Result, error) {
	log := logger.WithComponent("ingest")

	if err := batch.Validate(); err != nil {
		metrics.IngestCyclesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// One consistent rule snapshot for the whole cycle.
	rules, err := c.store.ListRules(ctx)
	if err != nil {
		metrics.IngestCyclesTotal.WithLabelValues("persistence_error").Inc()
		return nil, fmt.Errorf("load alert rules: %w", err)
	}

	ts := c.now().UTC()
	readings := make([]models.Reading, 0, len(models.AllSensorTypes))
	effective := make(map[models.SensorType]float64, len(models.AllSensorTypes))

	for _, st := range models.AllSensorTypes {
		value := batch.Value(st)
		limit := threshold.Resolve(rules, st)
		status, _ := threshold.Classify(value, limit)

		effective[st] = limit
		readings = append(readings, models.Reading{
			SensorType: st,
			Value:      value,
			Unit:       st.Unit(),
			Status:     status,
			Timestamp:  ts,
		})
	}

	if err := c.store.AppendReadings(ctx, readings); err != nil {
		metrics.IngestCyclesTotal.WithLabelValues("persistence_error").Inc()
		return nil, fmt.Errorf("persist readings: %w", err)
	}
	metrics.ReadingsPersisted.Add(float64(len(readings)))

	result := &Result{Readings: readings}

	for _, r := range readings {
		if r.Status != models.StatusCritical {
			continue
		}

		metrics.CriticalReadingsTotal.WithLabelValues(string(r.SensorType)).Inc()
		log.Warn().
			Str("sensor_type", string(r.SensorType)).
			Float64("value", r.Value).
			Str("unit", r.Unit).
			Float64("threshold", effective[r.SensorType]).
			Msg("critical reading detected")

		if c.events != nil {
			if err := c.events.PublishCritical(ctx, r, effective[r.SensorType]); err != nil {
				log.Error().Err(err).Str("sensor_type", string(r.SensorType)).Msg("alert event publish failed")
			}
		}

		// Dispatch failures are logged by the dispatcher and collected
		// in the attempts; they never fail the cycle.
		attempts := c.dispatcher.Dispatch(ctx, r, rules)
		result.Attempts = append(result.Attempts, attempts...)
	}

	metrics.IngestCyclesTotal.WithLabelValues("ok").Inc()
	return result, nil
}
