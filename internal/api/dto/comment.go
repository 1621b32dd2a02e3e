package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateCommentRequest is the comment payload.
type CreateCommentRequest struct {
	Message string `json:"message"`
}

// CommentResponse is the public comment shape with author identity joined.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	CreatedBy  string    `json:"created_by"`
	Message    string    `json:"message"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		CreatedBy:  c.CreatedBy,
		Message:    c.Message,
		AuthorName: c.AuthorName,
		AuthorRole: string(c.AuthorRole),
		CreatedAt:  c.CreatedAt,
	}
}

// NewCommentListResponse maps a thread.
func NewCommentListResponse(comments []domain.Comment) []CommentResponse {
	result := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, NewCommentResponse(&comments[i]))
	}
	return result
}
