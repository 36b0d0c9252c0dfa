package contactrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/smart-irrigation/internal/domain/contact"
)

// PostgresRepository persists contact messages in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a message row.
func (r *PostgresRepository) Create(ctx context.Context, msg contact.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_messages (id, reference, name, email, subject, body, urgency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, msg.ID, msg.Reference, msg.Name, msg.Email, msg.Subject, msg.Body, msg.Urgency, msg.Status, msg.CreatedAt)
	return err
}

// MarkNotified flags a message as delivered to staff.
func (r *PostgresRepository) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contact_messages SET status = $2, notified_at = $3 WHERE id = $1
	`, id, contact.StatusNotified, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ contact.Repository = (*PostgresRepository)(nil)
