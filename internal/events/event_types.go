package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommented     EventType = "ticket_commented"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID         string          `json:"user_id"`
	Role           domain.UserRole `json:"role"`
	OrganizationID string          `json:"organization_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ActorFromPrincipal converts a principal to event actor metadata.
func ActorFromPrincipal(p domain.Principal) Actor {
	return Actor{UserID: p.UserID, Role: p.Role, OrganizationID: p.OrganizationID}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	Tags           string `json:"tags"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reopened  bool                `json:"reopened,omitempty"`
}

// TicketAssignedPayload payload. AssigneeEmail is resolved by the lifecycle
// engine so the notification side never needs a second lookup.
type TicketAssignedPayload struct {
	AssigneeID    string `json:"assignee_id"`
	AssigneeEmail string `json:"assignee_email"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	CommentID     string          `json:"comment_id"`
	CommenterRole domain.UserRole `json:"commenter_role"`
	Message       string          `json:"message"`
}
