// Package storage is the persistence collaborator for sensor readings
// and alert rules.
package storage

import (
	"context"
	"errors"
	"time"

	"schutz/internal/models"
)

// Storage errors
var (
	ErrPersistence  = errors.New("persistence failure")
	ErrRuleNotFound = errors.New("alert rule not found")
)

// Store persists readings and alert rules. Implementations must make
// AppendReadings atomic per call and ListRules a consistent snapshot.
type Store interface {
	// AppendReadings persists a full ingestion cycle: either every
	// reading in the batch is stored or none are.
	AppendReadings(ctx context.Context, readings []models.Reading) error

	// ListRules returns a snapshot of all active alert rules. Rule
	// edits concurrent with an in-flight cycle do not affect it.
	ListRules(ctx context.Context) ([]models.AlertRule, error)

	CreateRule(ctx context.Context, rule models.AlertRule) error
	DeleteRule(ctx context.Context, id string) error

	// RecentReadings returns up to limit readings, newest first.
	RecentReadings(ctx context.Context, limit int) ([]models.Reading, error)

	// PruneReadingsBefore deletes readings older than the cutoff.
	PruneReadingsBefore(ctx context.Context, cutoff time.Time) error

	Ping(ctx context.Context) error
	Close() error
}
