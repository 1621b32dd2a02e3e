package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func newBoardHarness(t *testing.T) (*BoardService, *ticketHarness) {
	t.Helper()
	h := newTicketHarness()
	return NewBoardService(h.service, zap.NewNop()), h
}

func TestBoardMoveBlocksNewToClosed(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	_, err := board.MoveTicket(context.Background(), principalFor("admin-1", domain.RoleAdmin), ticket.ID, domain.TicketStatusClosed)
	if err == nil {
		t.Fatal("board must not allow New -> Closed even though the form path does")
	}
}

func TestBoardMoveBlocksClosedToNew(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	ctx := context.Background()
	admin := principalFor("admin-1", domain.RoleAdmin)

	if _, err := h.service.CloseTicket(ctx, admin, ticket.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := board.MoveTicket(ctx, admin, ticket.ID, domain.TicketStatusNew); err == nil {
		t.Fatal("board must not reopen tickets")
	}
}

func TestBoardMoveSupportAutoClaims(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	moved, err := board.MoveTicket(context.Background(), principalFor("support-1", domain.RoleSupport), ticket.ID, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("support drag to InProgress: %v", err)
	}
	if moved.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %s", moved.Status)
	}
	if moved.AssignedTo == nil || *moved.AssignedTo != "support-1" {
		t.Error("drag into InProgress should claim the ticket for the support member")
	}
}

func TestBoardMoveAdminNeedsAssignee(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	// Admins get no auto-claim; an unassigned ticket cannot start work.
	_, err := board.MoveTicket(context.Background(), principalFor("admin-1", domain.RoleAdmin), ticket.ID, domain.TicketStatusInProgress)
	if err == nil {
		t.Fatal("admin drag to InProgress without assignee should fail")
	}
}

func TestBoardMoveSameColumnIsNoop(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	moved, err := board.MoveTicket(context.Background(), principalFor("admin-1", domain.RoleAdmin), ticket.ID, domain.TicketStatusNew)
	if err != nil {
		t.Fatalf("same-column drop: %v", err)
	}
	if moved.Status != domain.TicketStatusNew {
		t.Errorf("status = %s", moved.Status)
	}
}

func TestBoardMoveUnknownStatus(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	if _, err := board.MoveTicket(context.Background(), principalFor("admin-1", domain.RoleAdmin), ticket.ID, "Archived"); err == nil {
		t.Fatal("unknown status should be rejected")
	}
}

func TestBoardMoveInProgressToClosed(t *testing.T) {
	board, h := newBoardHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	ctx := context.Background()
	support := principalFor("support-1", domain.RoleSupport)

	if _, err := board.MoveTicket(ctx, support, ticket.ID, domain.TicketStatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	moved, err := board.MoveTicket(ctx, support, ticket.ID, domain.TicketStatusClosed)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if moved.Status != domain.TicketStatusClosed {
		t.Errorf("status = %s", moved.Status)
	}
}
