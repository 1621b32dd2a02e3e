// Package policy is the single authorization and transition rule set for
// tickets. Every entry point (HTTP handlers, board moves, services) consults
// these rules instead of re-deriving role logic per screen.
package policy

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// allowedTransitions is the form-path state machine. Closed->New is the
// reopen edge; New->Closed is reachable only through the edit form.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {domain.TicketStatusNew},
}

// boardTransitions tightens the form rules for drag moves: tickets may not
// jump between New and Closed in either direction. The asymmetry with the
// form path is intentional and must not be unified.
var boardTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

// ValidTransition reports whether the form path permits current->next.
func ValidTransition(current, next domain.TicketStatus) bool {
	return contains(allowedTransitions[current], next)
}

// ValidBoardTransition reports whether a drag move permits current->next.
func ValidBoardTransition(current, next domain.TicketStatus) bool {
	return contains(boardTransitions[current], next)
}

func contains(list []domain.TicketStatus, next domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == next {
			return true
		}
	}
	return false
}

// CheckTransition validates a status change requested by principal on
// ticket. hasAssignee reflects the assignment state after the same request
// is applied, so a move to InProgress can acquire its assignee in one call.
func CheckTransition(principal domain.Principal, ticket *domain.Ticket, next domain.TicketStatus, hasAssignee bool) error {
	if !domain.ValidStatus(next) {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": next})
	}
	if ticket.Status == next {
		return nil
	}
	if ticket.Status == domain.TicketStatusClosed && next == domain.TicketStatusNew {
		return CheckReopen(principal, ticket)
	}
	if !principal.IsStaff() {
		return apperrors.NewForbidden("only admins and support members may change ticket status")
	}
	if !ValidTransition(ticket.Status, next) {
		return apperrors.NewForbidden("status transition not allowed")
	}
	if next == domain.TicketStatusInProgress && !hasAssignee {
		return apperrors.NewValidationError("ticket must be assigned before moving to InProgress", nil)
	}
	return nil
}

// CheckReopen validates the explicit reopen action. Reopening is only valid
// from Closed, and only for principals with edit rights on the ticket: the
// requester, or staff within the organization.
func CheckReopen(principal domain.Principal, ticket *domain.Ticket) error {
	if ticket.Status != domain.TicketStatusClosed {
		return apperrors.NewConflict("only closed tickets can be reopened", nil)
	}
	if !CanView(principal, ticket) {
		return apperrors.NewForbidden("access denied")
	}
	if principal.IsStaff() || ticket.CreatedBy == principal.UserID {
		return nil
	}
	return apperrors.NewForbidden("no edit rights on ticket")
}

// FieldSet lists the ticket fields a principal may mutate on update.
type FieldSet struct {
	Title       bool
	Description bool
	Message     bool
	Tags        bool
	Status      bool
	Priority    bool
	AssignedTo  bool
}

// MutableFields returns the role-gated mutation set for principal on ticket.
// Requesters own the content fields while the ticket is open; staff own the
// lifecycle fields. Everything else is off limits.
func MutableFields(principal domain.Principal, ticket *domain.Ticket) FieldSet {
	switch principal.Role {
	case domain.RoleAdmin, domain.RoleSupport:
		return FieldSet{Status: true, Priority: true, AssignedTo: true}
	case domain.RoleUser:
		if ticket.CreatedBy != principal.UserID || ticket.Status == domain.TicketStatusClosed {
			return FieldSet{}
		}
		return FieldSet{Title: true, Description: true, Message: true, Tags: true}
	default:
		return FieldSet{}
	}
}

// CheckAssign validates an assignment change. Admins may hand a ticket to
// any support member; a support member may only claim an unassigned ticket
// for themselves.
func CheckAssign(principal domain.Principal, ticket *domain.Ticket, assigneeID string) error {
	switch principal.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleSupport:
		if ticket.AssignedTo != nil && *ticket.AssignedTo != "" {
			return apperrors.NewForbidden("ticket is already assigned")
		}
		if assigneeID != principal.UserID {
			return apperrors.NewForbidden("support members may only self-assign")
		}
		return nil
	default:
		return apperrors.NewForbidden("role cannot assign tickets")
	}
}

// TicketScope is the mandatory visibility predicate for ticket listings.
// Client-supplied filters are refinements applied after this scope.
type TicketScope struct {
	OrganizationID string
	// CreatedBy restricts to the requester's own tickets (User role).
	CreatedBy *string
	// SupportUserID restricts to tickets assigned to this support member
	// or unassigned (Support role).
	SupportUserID *string
}

// Scope resolves the visibility scope for principal. SuperAdmin operates a
// level above tickets and has no visibility in this subsystem.
func Scope(principal domain.Principal) (TicketScope, error) {
	scope := TicketScope{OrganizationID: principal.OrganizationID}
	switch principal.Role {
	case domain.RoleAdmin:
		return scope, nil
	case domain.RoleSupport:
		id := principal.UserID
		scope.SupportUserID = &id
		return scope, nil
	case domain.RoleUser:
		id := principal.UserID
		scope.CreatedBy = &id
		return scope, nil
	default:
		return TicketScope{}, apperrors.NewForbidden("role has no ticket visibility")
	}
}

// Matches reports whether ticket falls inside the scope.
func (s TicketScope) Matches(ticket *domain.Ticket) bool {
	if ticket.OrganizationID != s.OrganizationID {
		return false
	}
	if s.CreatedBy != nil && ticket.CreatedBy != *s.CreatedBy {
		return false
	}
	if s.SupportUserID != nil {
		if ticket.AssignedTo != nil && *ticket.AssignedTo != *s.SupportUserID {
			return false
		}
	}
	return true
}

// CanView applies the same predicate to a single ticket fetch. The listing
// and detail paths must never disagree on visibility.
func CanView(principal domain.Principal, ticket *domain.Ticket) bool {
	scope, err := Scope(principal)
	if err != nil {
		return false
	}
	return scope.Matches(ticket)
}
