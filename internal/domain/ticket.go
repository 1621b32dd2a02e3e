package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates urgency levels. Empty means unset.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// Ticket is the aggregate for support requests. OrganizationID is fixed at
// creation; Reopen counts Closed->New transitions and never decreases.
type Ticket struct {
	ID             string
	OrganizationID string
	CreatedBy      string
	AssignedTo     *string
	Title          string
	Description    string
	Message        string
	Tags           string
	Status         TicketStatus
	Priority       TicketPriority
	Reopen         int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority. Empty is allowed
// because tickets start without one.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case "", TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}
