package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"schutz/internal/logger"
	"schutz/internal/models"
)

const readingsTableSQL = `
	CREATE TABLE IF NOT EXISTS sensor_readings (
		timestamp DateTime64(3),
		sensor_type String,
		value Float64,
		unit String,
		status String
	) ENGINE = MergeTree()
	ORDER BY (sensor_type, timestamp)
	PARTITION BY toYYYYMM(timestamp)
`

// Rules use ReplacingMergeTree keyed by id: deletes are tombstone rows
// with is_active = 0 and a newer updated_at.
const rulesTableSQL = `
	CREATE TABLE IF NOT EXISTS alert_rules (
		id String,
		owner String,
		sensor_type String,
		threshold_value Float64,
		channel String,
		email String,
		url String,
		is_active UInt8,
		updated_at DateTime64(3)
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY id
`

// ClickHouseConfig holds connection settings for the ClickHouse store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore is the production Store backend.
type ClickHouseStore struct {
	conn driver.Conn
}

// NewClickHouseStore connects, pings and initializes the schema.
func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	s := &ClickHouseStore{conn: conn}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	log := logger.WithComponent("clickhouse")
	log.Info().Str("addr", cfg.Addr).Msg("connected to clickhouse")
	return s, nil
}

func (s *ClickHouseStore) initSchema(ctx context.Context) error {
	for _, ddl := range []string{readingsTableSQL, rulesTableSQL} {
		if err := s.conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// AppendReadings inserts the whole cycle as a single batch; one insert
// block is atomic on the server side.
func (s *ClickHouseStore) AppendReadings(ctx context.Context, readings []models.Reading) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO sensor_readings")
	if err != nil {
		return fmt.Errorf("%w: prepare batch: %v", ErrPersistence, err)
	}

	for _, r := range readings {
		if err := batch.Append(
			r.Timestamp,
			string(r.SensorType),
			r.Value,
			r.Unit,
			string(r.Status),
		); err != nil {
			return fmt.Errorf("%w: append reading: %v", ErrPersistence, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("%w: send batch: %v", ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseStore) ListRules(ctx context.Context) ([]models.AlertRule, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, owner, sensor_type, threshold_value, channel, email, url
		FROM alert_rules FINAL
		WHERE is_active = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list rules: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		var (
			r          models.AlertRule
			sensorType string
			channel    string
		)
		if err := rows.Scan(&r.ID, &r.Owner, &sensorType, &r.Threshold, &channel, &r.Email, &r.URL); err != nil {
			return nil, fmt.Errorf("%w: scan rule: %v", ErrPersistence, err)
		}
		r.SensorType = models.SensorType(sensorType)
		r.Channel = models.ChannelType(channel)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *ClickHouseStore) CreateRule(ctx context.Context, rule models.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO alert_rules (id, owner, sensor_type, threshold_value, channel, email, url, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
	`,
		rule.ID,
		rule.Owner,
		string(rule.SensorType),
		rule.Threshold,
		string(rule.Channel),
		rule.Email,
		rule.URL,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: create rule: %v", ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseStore) DeleteRule(ctx context.Context, id string) error {
	var count uint64
	row := s.conn.QueryRow(ctx, "SELECT count() FROM alert_rules FINAL WHERE id = ? AND is_active = 1", id)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("%w: lookup rule: %v", ErrPersistence, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO alert_rules (id, owner, sensor_type, threshold_value, channel, email, url, is_active, updated_at)
		VALUES (?, '', '', 0, '', '', '', 0, ?)
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: delete rule: %v", ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseStore) RecentReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.conn.Query(ctx, `
		SELECT timestamp, sensor_type, value, unit, status
		FROM sensor_readings
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent readings: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var (
			r          models.Reading
			sensorType string
			status     string
		)
		if err := rows.Scan(&r.Timestamp, &sensorType, &r.Value, &r.Unit, &status); err != nil {
			return nil, fmt.Errorf("%w: scan reading: %v", ErrPersistence, err)
		}
		r.SensorType = models.SensorType(sensorType)
		r.Status = models.Status(status)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// PruneReadingsBefore issues a delete mutation; ClickHouse applies it
// asynchronously.
func (s *ClickHouseStore) PruneReadingsBefore(ctx context.Context, cutoff time.Time) error {
	err := s.conn.Exec(ctx, "ALTER TABLE sensor_readings DELETE WHERE timestamp < ?", cutoff)
	if err != nil {
		return fmt.Errorf("%w: prune readings: %v", ErrPersistence, err)
	}
	return nil
}

func (s *ClickHouseStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}
