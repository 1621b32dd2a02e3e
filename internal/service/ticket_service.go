package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService is the ticket lifecycle engine. It validates and applies
// status, assignment and priority transitions, enforces role-gated field
// mutation and triggers notification side effects.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	mailLog    repository.MailLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	emailFrom  string
}

// TicketDependencies bundles requirements for the lifecycle engine.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	OrgRepo     repository.OrganizationRepository
	MailLogRepo repository.MailLogRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Notify      config.NotificationConfig
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		orgs:       deps.OrgRepo,
		mailLog:    deps.MailLogRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		emailFrom:  deps.Notify.EmailFrom,
	}
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Tags        string
	Message     string
}

// TicketUpdateInput is a partial update; nil fields are untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Message     *string
	Tags        *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssignedTo  *string
}

// TicketListFilter carries client refinements applied after the mandatory
// visibility scope.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// TicketDetail is a ticket joined with requester and assignee identities.
type TicketDetail struct {
	Ticket         domain.Ticket
	RequesterName  string
	RequesterEmail string
	AssigneeName   string
	AssigneeEmail  string
}

// CreateTicket raises a new ticket for a requester. The ticket starts as
// New, unassigned, with a zero reopen counter. The organization's active
// admin is notified; absence of such an admin fails the whole operation.
func (s *TicketService) CreateTicket(ctx context.Context, principal domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if principal.Role != domain.RoleUser {
		return nil, apperrors.NewForbidden("only requesters can raise tickets")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	if _, err := s.orgs.GetByID(ctx, principal.OrganizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": principal.OrganizationID})
		}
		return nil, apperrors.MapError(err)
	}

	admin, err := s.users.GetActiveAdmin(ctx, principal.OrganizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("no active admin for organization", map[string]any{"organization_id": principal.OrganizationID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		OrganizationID: principal.OrganizationID,
		CreatedBy:      principal.UserID,
		Title:          title,
		Description:    description,
		Message:        strings.TrimSpace(input.Message),
		Tags:           strings.TrimSpace(input.Tags),
		Status:         domain.TicketStatusNew,
		Reopen:         0,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	// The admin notification is part of the creation contract: a failed
	// record fails the request, unlike every other notification path.
	mail := &domain.MailMessage{
		From:    s.emailFrom,
		To:      admin.Email,
		Subject: "New Ticket Raised",
		Body: fmt.Sprintf("A new ticket has been created with the following details:\n\nTitle: %s\nDescription: %s\nTags: %s\nMessage: %s",
			ticket.Title, ticket.Description, ticket.Tags, ticket.Message),
	}
	if err := s.mailLog.Create(ctx, mail); err != nil {
		s.logger.Error("admin notification failed after ticket create",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFromPrincipal(principal),
		Payload: events.TicketCreatedPayload{
			OrganizationID: ticket.OrganizationID,
			Title:          ticket.Title,
			Tags:           ticket.Tags,
		},
	})
	return ticket, nil
}

// ListTickets returns the visibility-scoped ticket set for the principal,
// newest first. Client filters only ever narrow the scoped set.
func (s *TicketService) ListTickets(ctx context.Context, principal domain.Principal, filter TicketListFilter) ([]domain.Ticket, error) {
	scope, err := policy.Scope(principal)
	if err != nil {
		return nil, err
	}
	repoFilter := repository.TicketFilter{
		OrganizationID: scope.OrganizationID,
		CreatedBy:      scope.CreatedBy,
		SupportUserID:  scope.SupportUserID,
		Statuses:       filter.Statuses,
		Priorities:     filter.Priorities,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a single ticket with requester and assignee identities.
// The same visibility predicate as the list path applies.
func (s *TicketService) GetTicket(ctx context.Context, principal domain.Principal, ticketID string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	detail := &TicketDetail{Ticket: *ticket}
	requester, err := s.lookupUser(ctx, ticket.CreatedBy)
	if err != nil {
		return nil, err
	}
	if requester != nil {
		detail.RequesterName = requester.Name
		detail.RequesterEmail = requester.Email
	}
	if ticket.AssignedTo != nil {
		assignee, err := s.lookupUser(ctx, *ticket.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assignee != nil {
			detail.AssigneeName = assignee.Name
			detail.AssigneeEmail = assignee.Email
		}
	}
	return detail, nil
}

// UpdateTicket applies a role-gated partial update. Requesters may edit
// content fields while the ticket is open; staff own status, priority and
// assignment. A Closed->New status change is the reopen action and bumps
// the counter by exactly one.
func (s *TicketService) UpdateTicket(ctx context.Context, principal domain.Principal, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	fields := policy.MutableFields(principal, ticket)
	oldStatus := ticket.Status
	oldAssignee := ticket.AssignedTo

	if input.Title != nil {
		if !fields.Title {
			return nil, apperrors.NewForbidden("title is not editable by this role")
		}
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if !fields.Description {
			return nil, apperrors.NewForbidden("description is not editable by this role")
		}
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Message != nil {
		if !fields.Message {
			return nil, apperrors.NewForbidden("message is not editable by this role")
		}
		ticket.Message = strings.TrimSpace(*input.Message)
	}
	if input.Tags != nil {
		if !fields.Tags {
			return nil, apperrors.NewForbidden("tags are not editable by this role")
		}
		ticket.Tags = strings.TrimSpace(*input.Tags)
	}
	if input.Priority != nil {
		if !fields.Priority {
			return nil, apperrors.NewForbidden("priority is not editable by this role")
		}
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}

	var newAssignee *domain.User
	if input.AssignedTo != nil && (oldAssignee == nil || *oldAssignee != *input.AssignedTo) {
		if !fields.AssignedTo {
			return nil, apperrors.NewForbidden("assignment is not editable by this role")
		}
		if err := policy.CheckAssign(principal, ticket, *input.AssignedTo); err != nil {
			return nil, err
		}
		newAssignee, err = s.resolveAssignee(ctx, principal.OrganizationID, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		ticket.AssignedTo = &newAssignee.ID
	}

	reopened := false
	if input.Status != nil && *input.Status != oldStatus {
		hasAssignee := ticket.AssignedTo != nil && *ticket.AssignedTo != ""
		if err := policy.CheckTransition(principal, &domain.Ticket{
			Status:         oldStatus,
			OrganizationID: ticket.OrganizationID,
			CreatedBy:      ticket.CreatedBy,
			AssignedTo:     ticket.AssignedTo,
		}, *input.Status, hasAssignee); err != nil {
			return nil, err
		}
		if oldStatus == domain.TicketStatusClosed && *input.Status == domain.TicketStatusNew {
			ticket.Reopen++
			reopened = true
		}
		ticket.Status = *input.Status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if newAssignee != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    events.ActorFromPrincipal(principal),
			Payload: events.TicketAssignedPayload{
				AssigneeID:    newAssignee.ID,
				AssigneeEmail: newAssignee.Email,
			},
		})
	}
	if ticket.Status != oldStatus {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    events.ActorFromPrincipal(principal),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
				Reopened:  reopened,
			},
		})
	}
	return ticket, nil
}

// ReopenTicket is the explicit reopen action: Closed->New, counter bumped
// by exactly one, previous assignment preserved.
func (s *TicketService) ReopenTicket(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckReopen(principal, ticket); err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusNew
	ticket.Reopen++
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorFromPrincipal(principal),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusClosed,
			NewStatus: domain.TicketStatusNew,
			Reopened:  true,
		},
	})
	return ticket, nil
}

// CloseTicket closes a ticket directly. Only staff may close without
// feedback; requesters go through the feedback-gated path.
func (s *TicketService) CloseTicket(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(principal, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return ticket, nil
	}
	hasAssignee := ticket.AssignedTo != nil && *ticket.AssignedTo != ""
	if err := policy.CheckTransition(principal, ticket, domain.TicketStatusClosed, hasAssignee); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorFromPrincipal(principal),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.TicketStatusClosed,
		},
	})
	return ticket, nil
}

// CloseAsRequester is the second half of the feedback-gated close. The
// feedback service records the rating first and then invokes this.
func (s *TicketService) CloseAsRequester(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if principal.Role != domain.RoleUser || ticket.CreatedBy != principal.UserID {
		return nil, apperrors.NewForbidden("only the requester can close via feedback")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewConflict("ticket cannot be closed in current status", map[string]any{"status": ticket.Status})
	}

	ticket.Status = domain.TicketStatusClosed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorFromPrincipal(principal),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusInProgress,
			NewStatus: domain.TicketStatusClosed,
		},
	})
	return ticket, nil
}

// ListSupportMembers returns the organization's active support members for
// the admin assignee picker.
func (s *TicketService) ListSupportMembers(ctx context.Context, principal domain.Principal) ([]domain.User, error) {
	if principal.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	members, err := s.users.ListActiveByRole(ctx, principal.OrganizationID, domain.RoleSupport)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) lookupUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *TicketService) resolveAssignee(ctx context.Context, organizationID, assigneeID string) (*domain.User, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleSupport {
		return nil, apperrors.NewValidationError("assignee must be a support member", map[string]any{"user_id": assigneeID})
	}
	if !assignee.IsActive {
		return nil, apperrors.NewConflict("assignee is deactivated", map[string]any{"user_id": assigneeID})
	}
	if assignee.OrganizationID != organizationID {
		return nil, apperrors.NewForbidden("assignee outside organization")
	}
	return assignee, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
