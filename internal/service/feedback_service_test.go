package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func newFeedbackHarness(t *testing.T) (*FeedbackService, *ticketHarness, *fakeFeedbackRepo) {
	t.Helper()
	h := newTicketHarness()
	repo := newFakeFeedbackRepo()
	return NewFeedbackService(repo, h.service, zap.NewNop()), h, repo
}

func startTicket(t *testing.T, h *ticketHarness, ticketID string) {
	t.Helper()
	assignee := "support-1"
	inProgress := domain.TicketStatusInProgress
	_, err := h.service.UpdateTicket(context.Background(), principalFor("admin-1", domain.RoleAdmin), ticketID,
		TicketUpdateInput{Status: &inProgress, AssignedTo: &assignee})
	if err != nil {
		t.Fatalf("start ticket: %v", err)
	}
}

func TestSubmitFeedbackRatingBounds(t *testing.T) {
	feedback, h, _ := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	principal := principalFor("user-1", domain.RoleUser)

	for _, rating := range []int{0, 6, -1} {
		if _, err := feedback.SubmitFeedback(context.Background(), principal, ticket.ID, FeedbackInput{Rating: rating}); err == nil {
			t.Errorf("rating %d should be rejected", rating)
		}
	}
	if _, err := feedback.SubmitFeedback(context.Background(), principal, ticket.ID, FeedbackInput{Rating: 5}); err != nil {
		t.Errorf("rating 5 should pass: %v", err)
	}
}

func TestSubmitFeedbackOverwrites(t *testing.T) {
	feedback, h, repo := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	ctx := context.Background()
	principal := principalFor("user-1", domain.RoleUser)

	first, err := feedback.SubmitFeedback(ctx, principal, ticket.ID, FeedbackInput{Rating: 2, Message: "slow"})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := feedback.SubmitFeedback(ctx, principal, ticket.ID, FeedbackInput{Rating: 5, Message: "fixed fast"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ID != first.ID {
		t.Error("resubmission should overwrite the same row")
	}

	stored, err := repo.GetByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stored.Rating != 5 || stored.Message != "fixed fast" {
		t.Errorf("stored = %+v, want the later submission", stored)
	}
}

func TestGetFeedbackNotFound(t *testing.T) {
	feedback, h, _ := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	if _, err := feedback.GetFeedback(context.Background(), principalFor("user-1", domain.RoleUser), ticket.ID); err == nil {
		t.Fatal("feedback fetch before submission should be not found")
	}
}

func TestCloseWithFeedbackHappyPath(t *testing.T) {
	feedback, h, repo := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	startTicket(t, h, ticket.ID)

	closed, err := feedback.CloseWithFeedback(context.Background(), principalFor("user-1", domain.RoleUser), ticket.ID,
		FeedbackInput{Rating: 4, Message: "thanks"})
	if err != nil {
		t.Fatalf("close with feedback: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Errorf("status = %s, want Closed", closed.Status)
	}
	if _, err := repo.GetByTicket(context.Background(), ticket.ID); err != nil {
		t.Errorf("feedback should be recorded: %v", err)
	}
}

func TestCloseWithFeedbackRequesterOnly(t *testing.T) {
	feedback, h, _ := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	startTicket(t, h, ticket.ID)

	if _, err := feedback.CloseWithFeedback(context.Background(), principalFor("admin-1", domain.RoleAdmin), ticket.ID,
		FeedbackInput{Rating: 4}); err == nil {
		t.Fatal("only the requester closes via feedback")
	}
}

func TestCloseWithFeedbackRequiresInProgress(t *testing.T) {
	feedback, h, repo := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	// Ticket is still New: the close step fails but the feedback stands.
	_, err := feedback.CloseWithFeedback(context.Background(), principalFor("user-1", domain.RoleUser), ticket.ID,
		FeedbackInput{Rating: 3, Message: "premature"})
	if err == nil {
		t.Fatal("closing a New ticket via feedback should fail")
	}
	if _, err := repo.GetByTicket(context.Background(), ticket.ID); err != nil {
		t.Error("recorded feedback should survive a failed close")
	}

	current, err := h.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if current.Status != domain.TicketStatusNew {
		t.Errorf("status = %s, want New untouched", current.Status)
	}
}

func TestSubmitFeedbackVisibilityEnforced(t *testing.T) {
	feedback, h, _ := newFeedbackHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	if _, err := feedback.SubmitFeedback(context.Background(), principalFor("user-2", domain.RoleUser), ticket.ID,
		FeedbackInput{Rating: 1}); err == nil {
		t.Fatal("a stranger must not rate the ticket")
	}
}
