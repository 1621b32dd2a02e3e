package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NotificationWorker wires event subscribers at startup. The dispatcher is
// synchronous and in-process; the worker exists so subscription happens in
// one place and startup can log what was registered.
type NotificationWorker struct {
	notifications *service.NotificationService
	dashboards    *service.DashboardService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(
	notifications *service.NotificationService,
	dashboards *service.DashboardService,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		notifications: notifications,
		dashboards:    dashboards,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Start registers all event handlers.
func (w *NotificationWorker) Start() {
	w.notifications.RegisterHandlers()
	w.dashboards.RegisterInvalidation(w.dispatcher)
	w.logger.Info("event handlers registered",
		zap.Strings("events", []string{
			string(events.EventTicketCreated),
			string(events.EventTicketStatusChanged),
			string(events.EventTicketAssigned),
			string(events.EventTicketCommented),
		}))
}
