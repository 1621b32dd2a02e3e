package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CreateTicketRequest is the ticket creation payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Message     string `json:"message"`
}

// UpdateTicketRequest is a partial update; absent fields stay untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Message     *string `json:"message"`
	Tags        *string `json:"tags"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assigned_to"`
}

// ToInput converts the request into the service input type.
func (r UpdateTicketRequest) ToInput() service.TicketUpdateInput {
	input := service.TicketUpdateInput{
		Title:       r.Title,
		Description: r.Description,
		Message:     r.Message,
		Tags:        r.Tags,
		AssignedTo:  r.AssignedTo,
	}
	if r.Status != nil {
		status := domain.TicketStatus(*r.Status)
		input.Status = &status
	}
	if r.Priority != nil {
		priority := domain.TicketPriority(*r.Priority)
		input.Priority = &priority
	}
	return input
}

// MoveTicketRequest is the kanban drag payload.
type MoveTicketRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the public ticket shape.
type TicketResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	CreatedBy      string    `json:"created_by"`
	AssignedTo     *string   `json:"assigned_to"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Message        string    `json:"message"`
	Tags           string    `json:"tags"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	Reopen         int       `json:"reopen"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TicketDetailResponse joins the ticket with participant identities.
type TicketDetailResponse struct {
	TicketResponse
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	AssigneeName   string `json:"assignee_name,omitempty"`
	AssigneeEmail  string `json:"assignee_email,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		CreatedBy:      t.CreatedBy,
		AssignedTo:     t.AssignedTo,
		Title:          t.Title,
		Description:    t.Description,
		Message:        t.Message,
		Tags:           t.Tags,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Reopen:         t.Reopen,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// NewTicketListResponse maps a slice of tickets.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, NewTicketResponse(&tickets[i]))
	}
	return result
}

// NewTicketDetailResponse maps a service detail.
func NewTicketDetailResponse(d *service.TicketDetail) TicketDetailResponse {
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(&d.Ticket),
		RequesterName:  d.RequesterName,
		RequesterEmail: d.RequesterEmail,
		AssigneeName:   d.AssigneeName,
		AssigneeEmail:  d.AssigneeEmail,
	}
}

// SupportMemberResponse is an entry in the assignee picker.
type SupportMemberResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSupportMemberListResponse maps active support members.
func NewSupportMemberListResponse(users []domain.User) []SupportMemberResponse {
	result := make([]SupportMemberResponse, 0, len(users))
	for _, u := range users {
		result = append(result, SupportMemberResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return result
}
