package telemetryrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
)

// PostgresRepository persists readings in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts a reading.
func (r *PostgresRepository) Save(ctx context.Context, reading telemetry.Reading) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO telemetry_readings
			(id, device_id, user_id, soil_moisture, temperature, humidity, battery, signal, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, reading.ID, reading.DeviceID, reading.UserID, reading.SoilMoisture, reading.Temperature,
		reading.Humidity, reading.Battery, reading.Signal, reading.RecordedAt)
	return err
}

// Latest returns the newest reading across the user's devices.
func (r *PostgresRepository) Latest(ctx context.Context, userID int64) (telemetry.Reading, bool, error) {
	var reading telemetry.Reading
	err := r.pool.QueryRow(ctx, `
		SELECT id, device_id, user_id, soil_moisture, temperature, humidity, battery, signal, recorded_at
		FROM telemetry_readings
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, userID).Scan(&reading.ID, &reading.DeviceID, &reading.UserID, &reading.SoilMoisture, &reading.Temperature,
		&reading.Humidity, &reading.Battery, &reading.Signal, &reading.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return telemetry.Reading{}, false, nil
	}
	if err != nil {
		return telemetry.Reading{}, false, err
	}
	reading.RecordedAt = reading.RecordedAt.UTC()
	return reading, true, nil
}

var _ telemetry.Repository = (*PostgresRepository)(nil)
