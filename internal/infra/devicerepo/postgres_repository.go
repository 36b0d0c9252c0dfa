package devicerepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
)

const uniqueViolation = "23505"

const deviceColumns = `id, user_id, name, signal, battery, api_key_hash, last_seen, created_at`

// PostgresRepository persists devices and settings in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a device row.
func (r *PostgresRepository) Create(ctx context.Context, d device.Device) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.UserID, d.Name, d.Signal, d.Battery, d.APIKeyHash, d.LastSeen, d.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return device.ErrDeviceExists
	}
	return err
}

// Get fetches a device by id.
func (r *PostgresRepository) Get(ctx context.Context, deviceID string) (device.Device, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, deviceID)
	d, err := scanDevice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return device.Device{}, false, nil
	}
	if err != nil {
		return device.Device{}, false, err
	}
	return d, true, nil
}

// ListByUser returns a user's devices ordered by registration time.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]device.Device, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (device.Device, error) {
		return scanDevice(row)
	})
}

// Delete removes a device owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64, deviceID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1 AND user_id = $2`, deviceID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Touch records a heartbeat. Out of order heartbeats never move last_seen backwards.
func (r *PostgresRepository) Touch(ctx context.Context, deviceID string, battery int, signal string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE devices
		SET battery = $2, signal = $3, last_seen = GREATEST(last_seen, $4)
		WHERE id = $1
	`, deviceID, battery, signal, at)
	return err
}

// GetSettings returns stored settings.
func (r *PostgresRepository) GetSettings(ctx context.Context, userID int64) (device.Settings, bool, error) {
	var s device.Settings
	err := r.pool.QueryRow(ctx, `
		SELECT field_size, crop_type, soil_type, irrigation_duration, moisture_threshold, automation, notifications, updated_at
		FROM irrigation_settings
		WHERE user_id = $1
	`, userID).Scan(&s.FieldSize, &s.CropType, &s.SoilType, &s.IrrigationDuration, &s.MoistureThreshold, &s.Automation, &s.Notifications, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return device.Settings{}, false, nil
	}
	if err != nil {
		return device.Settings{}, false, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, true, nil
}

// SaveSettings replaces the user's settings.
func (r *PostgresRepository) SaveSettings(ctx context.Context, userID int64, s device.Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO irrigation_settings
			(user_id, field_size, crop_type, soil_type, irrigation_duration, moisture_threshold, automation, notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			field_size = EXCLUDED.field_size,
			crop_type = EXCLUDED.crop_type,
			soil_type = EXCLUDED.soil_type,
			irrigation_duration = EXCLUDED.irrigation_duration,
			moisture_threshold = EXCLUDED.moisture_threshold,
			automation = EXCLUDED.automation,
			notifications = EXCLUDED.notifications,
			updated_at = EXCLUDED.updated_at
	`, userID, s.FieldSize, s.CropType, s.SoilType, s.IrrigationDuration, s.MoistureThreshold, s.Automation, s.Notifications, s.UpdatedAt)
	return err
}

func scanDevice(row pgx.Row) (device.Device, error) {
	var d device.Device
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Signal, &d.Battery, &d.APIKeyHash, &d.LastSeen, &d.CreatedAt); err != nil {
		return device.Device{}, err
	}
	d.LastSeen = d.LastSeen.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

var (
	_ device.Repository         = (*PostgresRepository)(nil)
	_ device.SettingsRepository = (*PostgresRepository)(nil)
)
