package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// FeedbackService manages requester ratings. A ticket holds at most one
// feedback row; resubmission overwrites it.
type FeedbackService struct {
	feedbacks repository.FeedbackRepository
	engine    *TicketService
	logger    *zap.Logger
}

// NewFeedbackService constructs the service.
func NewFeedbackService(feedbacks repository.FeedbackRepository, engine *TicketService, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{feedbacks: feedbacks, engine: engine, logger: logger}
}

// FeedbackInput is the rating payload. Message is optional.
type FeedbackInput struct {
	Rating  int
	Message string
}

// SubmitFeedback upserts the feedback row for a ticket.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, principal domain.Principal, ticketID string, input FeedbackInput) (*domain.Feedback, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": input.Rating})
	}
	ticket, err := s.engine.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	feedback := &domain.Feedback{
		TicketID:  ticket.ID,
		CreatedBy: principal.UserID,
		Rating:    input.Rating,
		Message:   strings.TrimSpace(input.Message),
	}
	if err := s.feedbacks.Upsert(ctx, feedback); err != nil {
		return nil, apperrors.MapError(err)
	}
	return feedback, nil
}

// GetFeedback returns the current feedback row for a ticket.
func (s *FeedbackService) GetFeedback(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Feedback, error) {
	ticket, err := s.engine.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	feedback, err := s.feedbacks.GetByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("feedback", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return feedback, nil
}

// CloseWithFeedback is the requester close path: the rating is recorded
// first, then the close transition runs. The two steps form one logical
// unit, but a recorded feedback survives a failed close; the inconsistency
// is logged rather than rolled back.
func (s *FeedbackService) CloseWithFeedback(ctx context.Context, principal domain.Principal, ticketID string, input FeedbackInput) (*domain.Ticket, error) {
	feedback, err := s.SubmitFeedback(ctx, principal, ticketID, input)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.CloseAsRequester(ctx, principal, ticketID)
	if err != nil {
		s.logger.Warn("feedback recorded but close failed",
			zap.String("ticket_id", ticketID),
			zap.String("feedback_id", feedback.ID),
			zap.Error(err))
		return nil, err
	}
	return ticket, nil
}
