package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// BoardService is the kanban projection of the lifecycle engine. Drag
// moves obey a tightened rule set: no direct jump between New and Closed,
// and a move into InProgress claims the ticket for an unassigned support
// principal.
type BoardService struct {
	engine *TicketService
	logger *zap.Logger
}

// NewBoardService constructs the service.
func NewBoardService(engine *TicketService, logger *zap.Logger) *BoardService {
	return &BoardService{engine: engine, logger: logger}
}

// MoveTicket applies a drag move between board columns.
func (s *BoardService) MoveTicket(ctx context.Context, principal domain.Principal, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.engine.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}
	if !policy.ValidBoardTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewForbidden("move not allowed on the board")
	}

	input := TicketUpdateInput{Status: &newStatus}
	if newStatus == domain.TicketStatusInProgress && ticket.AssignedTo == nil && principal.Role == domain.RoleSupport {
		id := principal.UserID
		input.AssignedTo = &id
	}
	return s.engine.UpdateTicket(ctx, principal, ticketID, input)
}
