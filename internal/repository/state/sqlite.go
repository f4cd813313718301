package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

const (
	settingAlarmStatus  = "alarm_status"
	settingArmingStatus = "arming_status"
	settingUpdatedAt    = "updated_at"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sensors (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	type   TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0
);`

// SQLiteRepository persists the snapshot in a SQLite database.
type SQLiteRepository struct {
	// db is the open database handle.
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path and ensures the schema.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Load reads statuses and sensors from the database.
func (r *SQLiteRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	settings, err := r.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	rawAlarm, ok := settings[settingAlarmStatus]
	if !ok {
		return nil, ErrNotFound
	}

	snapshot := new(domain.Snapshot)

	if snapshot.AlarmStatus, err = domain.ParseAlarmStatus(rawAlarm); err != nil {
		return nil, fmt.Errorf("decode %s: %w", settingAlarmStatus, err)
	}

	if snapshot.ArmingStatus, err = domain.ParseArmingStatus(settings[settingArmingStatus]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", settingArmingStatus, err)
	}

	if raw := settings[settingUpdatedAt]; raw != "" {
		if snapshot.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", settingUpdatedAt, err)
		}
	}

	if snapshot.Sensors, err = r.loadSensors(ctx); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Save replaces the stored snapshot in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, snapshot *domain.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	settings := map[string]string{
		settingAlarmStatus:  snapshot.AlarmStatus.String(),
		settingArmingStatus: snapshot.ArmingStatus.String(),
		settingUpdatedAt:    snapshot.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	for key, value := range settings {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
		if err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM sensors`); err != nil {
		return fmt.Errorf("clear sensors: %w", err)
	}

	for _, s := range snapshot.Sensors {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sensors (id, name, type, active) VALUES (?, ?, ?, ?)`,
			s.ID, s.Name, s.Type.String(), s.Active)
		if err != nil {
			return fmt.Errorf("save sensor %s: %w", s.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// loadSettings returns every stored key-value setting.
func (r *SQLiteRepository) loadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	defer rows.Close()

	settings := make(map[string]string, 3)

	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}

		settings[key] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// loadSensors returns every stored sensor ordered by name.
func (r *SQLiteRepository) loadSensors(ctx context.Context) ([]*domain.Sensor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, active FROM sensors ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}

	defer rows.Close()

	var sensors []*domain.Sensor

	for rows.Next() {
		var (
			s       domain.Sensor
			rawType string
		)

		if err = rows.Scan(&s.ID, &s.Name, &rawType, &s.Active); err != nil {
			return nil, fmt.Errorf("scan sensor: %w", err)
		}

		if s.Type, err = domain.ParseSensorType(rawType); err != nil {
			return nil, fmt.Errorf("sensor %s: %w", s.ID, err)
		}

		sensors = append(sensors, &s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensors: %w", err)
	}

	return sensors, nil
}

