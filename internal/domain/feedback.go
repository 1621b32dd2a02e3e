package domain

import "time"

// Feedback is the requester's rating on a ticket. At most one row exists
// per ticket; resubmission overwrites rating, message and author.
type Feedback struct {
	ID        string
	TicketID  string
	CreatedBy string
	Rating    int
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
