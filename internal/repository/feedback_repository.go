package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// FeedbackRepository encapsulates feedback persistence. A ticket has at
// most one feedback row; Upsert overwrites rating, message and author.
type FeedbackRepository interface {
	Upsert(ctx context.Context, feedback *domain.Feedback) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error)
	// AverageRatingForAssignee averages ratings over tickets assigned to
	// the given support member. Returns nil when no feedback exists.
	AverageRatingForAssignee(ctx context.Context, assigneeID string) (*float64, error)
	RecentMessagesForAssignee(ctx context.Context, assigneeID string, limit int) ([]string, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository instantiates repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Upsert(ctx context.Context, feedback *domain.Feedback) error {
	// Single conditional upsert keyed by ticket_id so two concurrent
	// submissions cannot create duplicate rows.
	const query = `
        INSERT INTO feedbacks (ticket_id, created_by, rating, message)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (ticket_id) DO UPDATE
            SET rating=EXCLUDED.rating, message=EXCLUDED.message,
                created_by=EXCLUDED.created_by, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		feedback.TicketID,
		feedback.CreatedBy,
		feedback.Rating,
		feedback.Message,
	).Scan(&feedback.ID, &feedback.CreatedAt, &feedback.UpdatedAt)
}

func (r *feedbackRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error) {
	const query = `
        SELECT id, ticket_id, created_by, rating, message, created_at, updated_at
        FROM feedbacks WHERE ticket_id=$1`
	var feedback domain.Feedback
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&feedback.ID,
		&feedback.TicketID,
		&feedback.CreatedBy,
		&feedback.Rating,
		&feedback.Message,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) AverageRatingForAssignee(ctx context.Context, assigneeID string) (*float64, error) {
	const query = `
        SELECT AVG(f.rating)
        FROM feedbacks f
        JOIN tickets t ON t.id = f.ticket_id
        WHERE t.assigned_to=$1`
	var avg *float64
	if err := r.pool.QueryRow(ctx, query, assigneeID).Scan(&avg); err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *feedbackRepository) RecentMessagesForAssignee(ctx context.Context, assigneeID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
        SELECT f.message
        FROM feedbacks f
        JOIN tickets t ON t.id = f.ticket_id
        WHERE t.assigned_to=$1
        ORDER BY f.created_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, assigneeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}
