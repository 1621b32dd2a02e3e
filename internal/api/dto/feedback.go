package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SubmitFeedbackRequest carries the rating payload. It is used both for a
// plain submission and for the feedback-gated requester close.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

// FeedbackResponse is the public feedback shape.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	CreatedBy string    `json:"created_by"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFeedbackResponse maps a domain feedback.
func NewFeedbackResponse(f *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        f.ID,
		TicketID:  f.TicketID,
		CreatedBy: f.CreatedBy,
		Rating:    f.Rating,
		Message:   f.Message,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
