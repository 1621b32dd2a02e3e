package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AdminDashboard aggregates organization-wide counts.
type AdminDashboard struct {
	TotalTickets   int `json:"total_tickets"`
	NewTickets     int `json:"new_tickets"`
	InProgress     int `json:"in_progress_tickets"`
	ClosedTickets  int `json:"closed_tickets"`
	HighPriority   int `json:"high_priority_tickets"`
	MediumPriority int `json:"medium_priority_tickets"`
	LowPriority    int `json:"low_priority_tickets"`
	SupportMembers int `json:"support_members"`
	Users          int `json:"users"`
}

// SupportDashboard aggregates counts within the support member's scope:
// tickets assigned to them or still unassigned.
type SupportDashboard struct {
	TotalTickets  int `json:"total_tickets"`
	AssignedToMe  int `json:"assigned_to_me"`
	InProgress    int `json:"in_progress_tickets"`
	ClosedTickets int `json:"closed_tickets"`
}

// UserDashboard aggregates counts over the requester's own tickets.
type UserDashboard struct {
	TotalTickets  int `json:"total_tickets"`
	Unassigned    int `json:"unassigned_tickets"`
	InProgress    int `json:"in_progress_tickets"`
	ClosedTickets int `json:"closed_tickets"`
}

// SupportMemberStats is the admin's view of one support member's workload
// and feedback record.
type SupportMemberStats struct {
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	AssignedTickets int      `json:"assigned_tickets"`
	InProgress      int      `json:"in_progress_tickets"`
	ClosedTickets   int      `json:"closed_tickets"`
	AverageRating   *float64 `json:"average_rating"`
	RecentFeedback  []string `json:"recent_feedback"`
}

// DashboardService computes role-scoped aggregates. Results are cached in
// Redis per organization and invalidated whenever a ticket event fires,
// so a stale read window is bounded by the TTL even if an invalidation
// is lost.
type DashboardService struct {
	tickets   repository.TicketRepository
	users     repository.UserRepository
	feedbacks repository.FeedbackRepository
	cache     persistence.Cache
	logger    *zap.Logger
	cfg       config.NotificationConfig
}

// DashboardDependencies bundles requirements for the dashboard service.
type DashboardDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	FeedbackRepo repository.FeedbackRepository
	Cache        persistence.Cache
	Logger       *zap.Logger
	Notify       config.NotificationConfig
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		tickets:   deps.TicketRepo,
		users:     deps.UserRepo,
		feedbacks: deps.FeedbackRepo,
		cache:     deps.Cache,
		logger:    deps.Logger,
		cfg:       deps.Notify,
	}
}

// RegisterInvalidation drops the organization's cached aggregates when a
// ticket in that organization changes.
func (s *DashboardService) RegisterInvalidation(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	invalidate := func(ctx context.Context, event events.Event) error {
		s.invalidate(ctx, event.Actor.OrganizationID)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, invalidate)
	dispatcher.Subscribe(events.EventTicketStatusChanged, invalidate)
	dispatcher.Subscribe(events.EventTicketAssigned, invalidate)
	dispatcher.Subscribe(events.EventTicketCommented, invalidate)
}

func (s *DashboardService) invalidate(ctx context.Context, organizationID string) {
	if s.cache == nil || organizationID == "" {
		return
	}
	s.cache.DeleteByPrefix(ctx, dashboardKeyPrefix(organizationID))
}

// GetAdminDashboard builds the admin overview for the principal's organization.
func (s *DashboardService) GetAdminDashboard(ctx context.Context, principal domain.Principal) (*AdminDashboard, error) {
	if principal.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	key := dashboardKey(principal.OrganizationID, "admin", "")
	var cached AdminDashboard
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	org := repository.TicketFilter{OrganizationID: principal.OrganizationID}
	dash := &AdminDashboard{}
	counts := []struct {
		dst    *int
		filter repository.TicketFilter
	}{
		{&dash.TotalTickets, org},
		{&dash.NewTickets, withStatuses(org, domain.TicketStatusNew)},
		{&dash.InProgress, withStatuses(org, domain.TicketStatusInProgress)},
		{&dash.ClosedTickets, withStatuses(org, domain.TicketStatusClosed)},
		{&dash.HighPriority, withPriorities(org, domain.TicketPriorityHigh)},
		{&dash.MediumPriority, withPriorities(org, domain.TicketPriorityMedium)},
		{&dash.LowPriority, withPriorities(org, domain.TicketPriorityLow)},
	}
	for _, c := range counts {
		n, err := s.tickets.Count(ctx, c.filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		*c.dst = n
	}

	var err error
	if dash.SupportMembers, err = s.users.CountActiveByRole(ctx, principal.OrganizationID, domain.RoleSupport); err != nil {
		return nil, apperrors.MapError(err)
	}
	if dash.Users, err = s.users.CountActiveByRole(ctx, principal.OrganizationID, domain.RoleUser); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.toCache(ctx, key, dash)
	return dash, nil
}

// GetSupportDashboard builds the support member's overview.
func (s *DashboardService) GetSupportDashboard(ctx context.Context, principal domain.Principal) (*SupportDashboard, error) {
	if principal.Role != domain.RoleSupport {
		return nil, apperrors.NewForbidden("support role required")
	}

	key := dashboardKey(principal.OrganizationID, "support", principal.UserID)
	var cached SupportDashboard
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	self := principal.UserID
	scope := repository.TicketFilter{OrganizationID: principal.OrganizationID, SupportUserID: &self}
	mine := repository.TicketFilter{OrganizationID: principal.OrganizationID, AssignedTo: &self}

	dash := &SupportDashboard{}
	counts := []struct {
		dst    *int
		filter repository.TicketFilter
	}{
		{&dash.TotalTickets, scope},
		{&dash.AssignedToMe, mine},
		{&dash.InProgress, withStatuses(mine, domain.TicketStatusInProgress)},
		{&dash.ClosedTickets, withStatuses(mine, domain.TicketStatusClosed)},
	}
	for _, c := range counts {
		n, err := s.tickets.Count(ctx, c.filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		*c.dst = n
	}

	s.toCache(ctx, key, dash)
	return dash, nil
}

// GetUserDashboard builds the requester's overview of their own tickets.
func (s *DashboardService) GetUserDashboard(ctx context.Context, principal domain.Principal) (*UserDashboard, error) {
	if principal.Role != domain.RoleUser {
		return nil, apperrors.NewForbidden("user role required")
	}

	key := dashboardKey(principal.OrganizationID, "user", principal.UserID)
	var cached UserDashboard
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	self := principal.UserID
	own := repository.TicketFilter{OrganizationID: principal.OrganizationID, CreatedBy: &self}
	unassigned := own
	unassigned.Unassigned = true

	dash := &UserDashboard{}
	counts := []struct {
		dst    *int
		filter repository.TicketFilter
	}{
		{&dash.TotalTickets, own},
		{&dash.Unassigned, unassigned},
		{&dash.InProgress, withStatuses(own, domain.TicketStatusInProgress)},
		{&dash.ClosedTickets, withStatuses(own, domain.TicketStatusClosed)},
	}
	for _, c := range counts {
		n, err := s.tickets.Count(ctx, c.filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		*c.dst = n
	}

	s.toCache(ctx, key, dash)
	return dash, nil
}

// GetSupportMemberStats reports workload and feedback for one support
// member. Admin only; the member must belong to the admin's organization.
func (s *DashboardService) GetSupportMemberStats(ctx context.Context, principal domain.Principal, memberID string) (*SupportMemberStats, error) {
	if principal.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	member, err := s.users.GetByID(ctx, memberID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if member.Role != domain.RoleSupport || member.OrganizationID != principal.OrganizationID {
		return nil, apperrors.NewNotFound("support member", map[string]any{"user_id": memberID})
	}

	key := dashboardKey(principal.OrganizationID, "member", memberID)
	var cached SupportMemberStats
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	assigned := repository.TicketFilter{OrganizationID: principal.OrganizationID, AssignedTo: &member.ID}
	stats := &SupportMemberStats{
		UserID: member.ID,
		Name:   member.Name,
		Email:  member.Email,
	}
	counts := []struct {
		dst    *int
		filter repository.TicketFilter
	}{
		{&stats.AssignedTickets, assigned},
		{&stats.InProgress, withStatuses(assigned, domain.TicketStatusInProgress)},
		{&stats.ClosedTickets, withStatuses(assigned, domain.TicketStatusClosed)},
	}
	for _, c := range counts {
		n, err := s.tickets.Count(ctx, c.filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		*c.dst = n
	}

	if stats.AverageRating, err = s.feedbacks.AverageRatingForAssignee(ctx, member.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.RecentFeedback, err = s.feedbacks.RecentMessagesForAssignee(ctx, member.ID, 5); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.toCache(ctx, key, stats)
	return stats, nil
}

func (s *DashboardService) fromCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("corrupt dashboard cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *DashboardService) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, data, s.cfg.DashboardCacheTTL())
}

func dashboardKeyPrefix(organizationID string) string {
	return fmt.Sprintf("dashboard:%s:", organizationID)
}

func dashboardKey(organizationID, view, subject string) string {
	if subject == "" {
		return dashboardKeyPrefix(organizationID) + view
	}
	return fmt.Sprintf("%s%s:%s", dashboardKeyPrefix(organizationID), view, subject)
}

func withStatuses(filter repository.TicketFilter, statuses ...domain.TicketStatus) repository.TicketFilter {
	filter.Statuses = statuses
	return filter
}

func withPriorities(filter repository.TicketFilter, priorities ...domain.TicketPriority) repository.TicketFilter {
	filter.Priorities = priorities
	return filter
}
