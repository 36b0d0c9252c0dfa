package usagerepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

// PostgresRepository persists usage records in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert inserts or replaces the record for (user, date).
func (r *PostgresRepository) Upsert(ctx context.Context, userID int64, rec usage.DailyUsageRecord) error {
	day, err := util.ParseDate(rec.Date)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO usage_records (user_id, usage_date, water_used, water_saved, irrigation_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, usage_date) DO UPDATE SET
			water_used = EXCLUDED.water_used,
			water_saved = EXCLUDED.water_saved,
			irrigation_count = EXCLUDED.irrigation_count,
			updated_at = now()
	`, userID, day, rec.WaterUsed, rec.WaterSaved, rec.IrrigationCount)
	return err
}

// ListSince returns records dated on or after since, oldest first.
func (r *PostgresRepository) ListSince(ctx context.Context, userID int64, since time.Time) ([]usage.DailyUsageRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT usage_date, water_used, water_saved, irrigation_count
		FROM usage_records
		WHERE user_id = $1 AND usage_date >= $2
		ORDER BY usage_date ASC
	`, userID, since.UTC())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (usage.DailyUsageRecord, error) {
		var (
			rec usage.DailyUsageRecord
			day time.Time
		)
		if err := row.Scan(&day, &rec.WaterUsed, &rec.WaterSaved, &rec.IrrigationCount); err != nil {
			return usage.DailyUsageRecord{}, err
		}
		rec.Date = day.Format(util.DateLayout)
		return rec, nil
	})
}

// Delete removes a single day.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64, date string) (bool, error) {
	day, err := util.ParseDate(date)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM usage_records WHERE user_id = $1 AND usage_date = $2`, userID, day)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ usage.Repository = (*PostgresRepository)(nil)
