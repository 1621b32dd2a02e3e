package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CommentService manages the ticket conversation thread.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles requirements for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ListComments returns the thread for a ticket the principal can see.
func (s *CommentService) ListComments(ctx context.Context, principal domain.Principal, ticketID string) ([]domain.Comment, error) {
	if _, err := s.visibleTicket(ctx, principal, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// AddComment posts a comment on an open ticket and triggers the
// cross-notification to the other party in the conversation.
func (s *CommentService) AddComment(ctx context.Context, principal domain.Principal, ticketID, message string) (*domain.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	ticket, err := s.visibleTicket(ctx, principal, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("cannot comment on a closed ticket", nil)
	}

	comment := &domain.Comment{
		TicketID:  ticket.ID,
		CreatedBy: principal.UserID,
		Message:   message,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	comment.AuthorName = principal.Name
	comment.AuthorRole = principal.Role

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCommented,
			TicketID:  ticket.ID,
			Actor:     events.ActorFromPrincipal(principal),
			Timestamp: time.Now(),
			Payload: events.TicketCommentedPayload{
				CommentID:     comment.ID,
				CommenterRole: principal.Role,
				Message:       comment.Message,
			},
		})
	}
	return comment, nil
}

// DeleteComment removes a comment. Only the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, principal domain.Principal, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
		}
		return apperrors.MapError(err)
	}
	if comment.CreatedBy != principal.UserID {
		return apperrors.NewUnauthorized("only the author can delete a comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *CommentService) visibleTicket(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}
