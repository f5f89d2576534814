package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"thermopair-station/internal/modules/telemetry/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

type TelemetryRepository interface {
	InsertReading(r types.ArchivedReading) error
	GetReadings(stationID int, from time.Time, to time.Time, limit int) ([]types.ArchivedReading, error)
	GetLatestReadings(stationID int, limit int) ([]types.ArchivedReading, error)
	GetReadingsCount(stationID int, from time.Time, to time.Time) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) TelemetryRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(rec types.ArchivedReading) error {
	tsStr := rec.Time.UTC().Format(time.RFC3339Nano)
	_, err := r.db.Exec(insertReadingSQL,
		rec.StationID, rec.StationName, tsStr, rec.Channel1, rec.Channel2, rec.Simulated)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetReadings(stationID int, from time.Time, to time.Time, limit int) ([]types.ArchivedReading, error) {
	fromStr := from.UTC().Format(time.RFC3339Nano)
	toStr := to.UTC().Format(time.RFC3339Nano)
	rows, err := r.db.Query(getReadingsSQL, stationID, fromStr, toStr, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetLatestReadings(stationID int, limit int) ([]types.ArchivedReading, error) {
	rows, err := r.db.Query(getLatestReadingsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetReadingsCount(stationID int, from time.Time, to time.Time) (int, error) {
	fromStr := from.UTC().Format(time.RFC3339Nano)
	toStr := to.UTC().Format(time.RFC3339Nano)
	var n int
	err := r.db.QueryRow(getReadingsCountSQL, stationID, fromStr, toStr).Scan(&n)
	return n, err
}

func scanReadings(rows *sql.Rows) ([]types.ArchivedReading, error) {
	var out []types.ArchivedReading
	for rows.Next() {
		var rec types.ArchivedReading
		var ts string
		if err := rows.Scan(&rec.StationID, &rec.StationName, &ts, &rec.Channel1, &rec.Channel2, &rec.Simulated); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			var err2 error
			t, err2 = time.Parse(time.RFC3339, ts)
			if err2 != nil {
				return nil, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
			}
		}
		rec.Time = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
