package domain

import "time"

// Comment is a message on a ticket thread. Comments are immutable once
// created and may only be deleted by their author.
type Comment struct {
	ID        string
	TicketID  string
	CreatedBy string
	Message   string
	CreatedAt time.Time

	// Denormalized author info populated on reads.
	AuthorName string
	AuthorRole UserRole
}
