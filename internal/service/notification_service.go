package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// NotificationService composes mails for domain events and records them in
// the mail log. Dispatch is fire-and-forget: the state mutation already
// succeeded, so failures here are logged and never surfaced.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	users      repository.UserRepository
	mailLog    repository.MailLogRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles requirements for the service.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	MailLogRepo repository.MailLogRepository
	Logger      *zap.Logger
	Notify      config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		mailLog:    deps.MailLogRepo,
		logger:     deps.Logger,
		cfg:        deps.Notify,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketCommented, n.handleTicketCommented)
}

// The creation mail is recorded inline by the lifecycle engine because its
// failure must fail the whole operation; here it is only logged.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket created", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket status changed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeEmail == "" {
		return nil
	}
	n.send(ctx, event.TicketID, payload.AssigneeEmail, "New Ticket Assigned to You",
		"A new ticket has been assigned to you. Please check your dashboard for more details.")
	return nil
}

// handleTicketCommented notifies the other party in the conversation: a
// requester comment goes to the assignee, a support comment goes to the
// requester, and an admin comment goes to both.
func (n *NotificationService) handleTicketCommented(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.logger.Warn("comment notification skipped: ticket lookup failed",
			zap.String("ticket_id", event.TicketID), zap.Error(err))
		return nil
	}

	var recipients []string
	switch payload.CommenterRole {
	case domain.RoleUser:
		recipients = n.appendEmail(ctx, recipients, ticket.AssignedTo)
	case domain.RoleSupport:
		recipients = n.appendEmail(ctx, recipients, &ticket.CreatedBy)
	case domain.RoleAdmin:
		recipients = n.appendEmail(ctx, recipients, &ticket.CreatedBy)
		recipients = n.appendEmail(ctx, recipients, ticket.AssignedTo)
	}
	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		return nil
	}

	subject := "New Comment on Ticket"
	if payload.CommenterRole == domain.RoleSupport {
		subject = "New Comment on Your Ticket"
	}
	body := fmt.Sprintf("A new comment has been added to ticket #%s: %s", event.TicketID, payload.Message)
	n.send(ctx, event.TicketID, strings.Join(recipients, ","), subject, body)
	return nil
}

func (n *NotificationService) appendEmail(ctx context.Context, recipients []string, userID *string) []string {
	if userID == nil || *userID == "" {
		return recipients
	}
	user, err := n.users.GetByID(ctx, *userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			n.logger.Warn("recipient lookup failed", zap.String("user_id", *userID), zap.Error(err))
		}
		return recipients
	}
	if user.Email == "" {
		return recipients
	}
	return append(recipients, user.Email)
}

func (n *NotificationService) send(ctx context.Context, ticketID, to, subject, body string) {
	mail := &domain.MailMessage{
		From:    n.cfg.EmailFrom,
		To:      to,
		Subject: subject,
		Body:    body,
	}
	if err := n.mailLog.Create(ctx, mail); err != nil {
		n.logger.Warn("notification send failed",
			zap.String("ticket_id", ticketID),
			zap.String("to", to),
			zap.Error(err))
		return
	}
	n.logger.Debug("notification recorded",
		zap.String("ticket_id", ticketID),
		zap.String("to", to),
		zap.String("subject", subject))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
