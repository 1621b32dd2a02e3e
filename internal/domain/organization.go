package domain

import "time"

// Organization is the tenant boundary. Tickets, users and tags are always
// scoped to exactly one organization.
type Organization struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
