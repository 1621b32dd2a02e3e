package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func newDashboardHarness(t *testing.T) (*DashboardService, *ticketHarness, *fakeCache) {
	t.Helper()
	h := newTicketHarness()
	cache := newFakeCache()
	dashboards := NewDashboardService(DashboardDependencies{
		TicketRepo:   h.tickets,
		UserRepo:     h.users,
		FeedbackRepo: newFakeFeedbackRepo(),
		Cache:        cache,
		Logger:       zap.NewNop(),
		Notify:       config.NotificationConfig{DashboardCacheTTLMs: 30000},
	})
	dashboards.RegisterInvalidation(h.dispatcher)
	return dashboards, h, cache
}

func TestAdminDashboardCounts(t *testing.T) {
	dashboards, h, _ := newDashboardHarness(t)
	ctx := context.Background()
	admin := principalFor("admin-1", domain.RoleAdmin)

	mustCreateTicket(t, h, "user-1")
	second := mustCreateTicket(t, h, "user-2")

	assignee := "support-1"
	inProgress := domain.TicketStatusInProgress
	if _, err := h.service.UpdateTicket(ctx, admin, second.ID, TicketUpdateInput{Status: &inProgress, AssignedTo: &assignee}); err != nil {
		t.Fatalf("start: %v", err)
	}
	high := domain.TicketPriorityHigh
	if _, err := h.service.UpdateTicket(ctx, admin, second.ID, TicketUpdateInput{Priority: &high}); err != nil {
		t.Fatalf("prioritize: %v", err)
	}

	dash, err := dashboards.GetAdminDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("admin dashboard: %v", err)
	}
	if dash.TotalTickets != 2 || dash.NewTickets != 1 || dash.InProgress != 1 || dash.ClosedTickets != 0 {
		t.Errorf("status counts = %+v", dash)
	}
	if dash.HighPriority != 1 || dash.MediumPriority != 0 {
		t.Errorf("priority counts = %+v", dash)
	}
	if dash.SupportMembers != 2 || dash.Users != 2 {
		t.Errorf("headcounts = %+v", dash)
	}
}

func TestDashboardServedFromCache(t *testing.T) {
	dashboards, h, cache := newDashboardHarness(t)
	ctx := context.Background()
	admin := principalFor("admin-1", domain.RoleAdmin)

	mustCreateTicket(t, h, "user-1")
	// RegisterInvalidation already dropped the prefix on create; prime now.
	first, err := dashboards.GetAdminDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("prime: %v", err)
	}
	if len(cache.entries) == 0 {
		t.Fatal("dashboard should be cached after first read")
	}

	// Mutate storage behind the cache's back: the stale aggregate should
	// still be served until something invalidates it.
	h.tickets.tickets["ghost"] = domain.Ticket{ID: "ghost", OrganizationID: "org-1", CreatedBy: "user-1", Status: domain.TicketStatusNew}

	second, err := dashboards.GetAdminDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if second.TotalTickets != first.TotalTickets {
		t.Error("second read should come from the cache")
	}
}

func TestDashboardInvalidatedOnTicketEvent(t *testing.T) {
	dashboards, h, cache := newDashboardHarness(t)
	ctx := context.Background()
	admin := principalFor("admin-1", domain.RoleAdmin)

	mustCreateTicket(t, h, "user-1")
	if _, err := dashboards.GetAdminDashboard(ctx, admin); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if len(cache.entries) == 0 {
		t.Fatal("cache should be primed")
	}

	// A new ticket publishes ticket_created, which must drop the org prefix.
	mustCreateTicket(t, h, "user-2")
	if len(cache.entries) != 0 {
		t.Error("ticket event should invalidate the organization's dashboards")
	}

	dash, err := dashboards.GetAdminDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if dash.TotalTickets != 2 {
		t.Errorf("total after invalidation = %d, want 2", dash.TotalTickets)
	}
}

func TestSupportDashboardScope(t *testing.T) {
	dashboards, h, _ := newDashboardHarness(t)
	ctx := context.Background()
	admin := principalFor("admin-1", domain.RoleAdmin)

	mustCreateTicket(t, h, "user-1")
	mine := mustCreateTicket(t, h, "user-2")
	foreign := mustCreateTicket(t, h, "user-2")

	self := "support-1"
	other := "support-2"
	inProgress := domain.TicketStatusInProgress
	if _, err := h.service.UpdateTicket(ctx, admin, mine.ID, TicketUpdateInput{Status: &inProgress, AssignedTo: &self}); err != nil {
		t.Fatalf("assign mine: %v", err)
	}
	if _, err := h.service.UpdateTicket(ctx, admin, foreign.ID, TicketUpdateInput{AssignedTo: &other}); err != nil {
		t.Fatalf("assign foreign: %v", err)
	}

	dash, err := dashboards.GetSupportDashboard(ctx, principalFor("support-1", domain.RoleSupport))
	if err != nil {
		t.Fatalf("support dashboard: %v", err)
	}
	// Scope is assigned-to-me or unassigned: the foreign assignment is out.
	if dash.TotalTickets != 2 {
		t.Errorf("total = %d, want 2", dash.TotalTickets)
	}
	if dash.AssignedToMe != 1 || dash.InProgress != 1 || dash.ClosedTickets != 0 {
		t.Errorf("counts = %+v", dash)
	}
}

func TestUserDashboardCounts(t *testing.T) {
	dashboards, h, _ := newDashboardHarness(t)
	ctx := context.Background()

	own := mustCreateTicket(t, h, "user-1")
	mustCreateTicket(t, h, "user-1")
	mustCreateTicket(t, h, "user-2")

	assignee := "support-1"
	inProgress := domain.TicketStatusInProgress
	if _, err := h.service.UpdateTicket(ctx, principalFor("admin-1", domain.RoleAdmin), own.ID,
		TicketUpdateInput{Status: &inProgress, AssignedTo: &assignee}); err != nil {
		t.Fatalf("start: %v", err)
	}

	dash, err := dashboards.GetUserDashboard(ctx, principalFor("user-1", domain.RoleUser))
	if err != nil {
		t.Fatalf("user dashboard: %v", err)
	}
	if dash.TotalTickets != 2 || dash.Unassigned != 1 || dash.InProgress != 1 || dash.ClosedTickets != 0 {
		t.Errorf("counts = %+v", dash)
	}
}

func TestSupportMemberStats(t *testing.T) {
	dashboards, h, _ := newDashboardHarness(t)
	ctx := context.Background()
	admin := principalFor("admin-1", domain.RoleAdmin)

	ticket := mustCreateTicket(t, h, "user-1")
	assignee := "support-1"
	inProgress := domain.TicketStatusInProgress
	if _, err := h.service.UpdateTicket(ctx, admin, ticket.ID, TicketUpdateInput{Status: &inProgress, AssignedTo: &assignee}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	stats, err := dashboards.GetSupportMemberStats(ctx, admin, "support-1")
	if err != nil {
		t.Fatalf("member stats: %v", err)
	}
	if stats.Name != "Sam" || stats.AssignedTickets != 1 || stats.InProgress != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := dashboards.GetSupportMemberStats(ctx, admin, "user-1"); err == nil {
		t.Fatal("stats for a non-support user should be not found")
	}
	if _, err := dashboards.GetSupportMemberStats(ctx, admin, "support-9"); err == nil {
		t.Fatal("stats must not cross the organization boundary")
	}
}

func TestDashboardRoleGating(t *testing.T) {
	dashboards, _, _ := newDashboardHarness(t)
	ctx := context.Background()

	if _, err := dashboards.GetAdminDashboard(ctx, principalFor("support-1", domain.RoleSupport)); err == nil {
		t.Error("support must not read the admin dashboard")
	}
	if _, err := dashboards.GetSupportDashboard(ctx, principalFor("user-1", domain.RoleUser)); err == nil {
		t.Error("requester must not read the support dashboard")
	}
	if _, err := dashboards.GetUserDashboard(ctx, principalFor("admin-1", domain.RoleAdmin)); err == nil {
		t.Error("admin must not read the requester dashboard")
	}
	if _, err := dashboards.GetSupportMemberStats(ctx, principalFor("support-1", domain.RoleSupport), "support-2"); err == nil {
		t.Error("member stats are admin only")
	}
}
