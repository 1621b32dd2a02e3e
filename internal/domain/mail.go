package domain

import "time"

// MailMessage is a composed notification. Every notification attempt is
// persisted to the mail log; actual delivery transport is out of scope.
type MailMessage struct {
	ID        string
	From      string
	To        string
	Subject   string
	Body      string
	CreatedAt time.Time
}
