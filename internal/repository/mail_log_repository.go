package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MailLogRepository records every composed notification.
type MailLogRepository interface {
	Create(ctx context.Context, mail *domain.MailMessage) error
	ListByRecipient(ctx context.Context, to string, limit int) ([]domain.MailMessage, error)
}

type mailLogRepository struct {
	pool *pgxpool.Pool
}

// NewMailLogRepository instantiates repository.
func NewMailLogRepository(pool *pgxpool.Pool) MailLogRepository {
	return &mailLogRepository{pool: pool}
}

func (r *mailLogRepository) Create(ctx context.Context, mail *domain.MailMessage) error {
	const query = `
        INSERT INTO mails (mail_from, mail_to, subject, message)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		mail.From,
		mail.To,
		mail.Subject,
		mail.Body,
	).Scan(&mail.ID, &mail.CreatedAt)
}

func (r *mailLogRepository) ListByRecipient(ctx context.Context, to string, limit int) ([]domain.MailMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, mail_from, mail_to, subject, message, created_at
        FROM mails WHERE mail_to=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MailMessage
	for rows.Next() {
		var mail domain.MailMessage
		if err := rows.Scan(&mail.ID, &mail.From, &mail.To, &mail.Subject, &mail.Body, &mail.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, mail)
	}
	return result, rows.Err()
}
