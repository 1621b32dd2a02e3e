package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

func newCommentHarness(t *testing.T) (*CommentService, *ticketHarness) {
	t.Helper()
	h := newTicketHarness()
	comments := NewCommentService(CommentDependencies{
		CommentRepo: newFakeCommentRepo(),
		TicketRepo:  h.tickets,
		Dispatcher:  h.dispatcher,
		Logger:      zap.NewNop(),
	})
	return comments, h
}

func TestAddCommentOnOpenTicket(t *testing.T) {
	comments, h := newCommentHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	principal := domain.Principal{UserID: "user-1", Name: "Uma", Role: domain.RoleUser, OrganizationID: "org-1"}
	comment, err := comments.AddComment(context.Background(), principal, ticket.ID, "  any update?  ")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.Message != "any update?" {
		t.Errorf("message = %q, want trimmed", comment.Message)
	}
	if comment.AuthorName != "Uma" || comment.AuthorRole != domain.RoleUser {
		t.Error("author identity should be filled from the principal")
	}

	published := h.dispatcher.eventsOfType(events.EventTicketCommented)
	if len(published) != 1 {
		t.Fatalf("got %d ticket_commented events, want 1", len(published))
	}
	payload := published[0].Payload.(events.TicketCommentedPayload)
	if payload.CommenterRole != domain.RoleUser {
		t.Errorf("commenter role = %s", payload.CommenterRole)
	}
}

func TestAddCommentBlankRejected(t *testing.T) {
	comments, h := newCommentHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	if _, err := comments.AddComment(context.Background(), principalFor("user-1", domain.RoleUser), ticket.ID, "   "); err == nil {
		t.Fatal("blank comment should be rejected")
	}
}

func TestAddCommentClosedTicketRejected(t *testing.T) {
	comments, h := newCommentHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	ctx := context.Background()

	if _, err := h.service.CloseTicket(ctx, principalFor("admin-1", domain.RoleAdmin), ticket.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := comments.AddComment(ctx, principalFor("user-1", domain.RoleUser), ticket.ID, "still broken"); err == nil {
		t.Fatal("comments on closed tickets should be rejected")
	}
}

func TestAddCommentVisibilityEnforced(t *testing.T) {
	comments, h := newCommentHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")

	if _, err := comments.AddComment(context.Background(), principalFor("user-2", domain.RoleUser), ticket.ID, "me too"); err == nil {
		t.Fatal("a requester must not comment on someone else's ticket")
	}
}

func TestListCommentsNewestFirst(t *testing.T) {
	comments, h := newCommentHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	ctx := context.Background()
	principal := principalFor("user-1", domain.RoleUser)

	if _, err := comments.AddComment(ctx, principal, ticket.ID, "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := comments.AddComment(ctx, principal, ticket.ID, "second"); err != nil {
		t.Fatalf("add: %v", err)
	}

	thread, err := comments.ListComments(ctx, principal, ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(thread) != 2 || thread[0].Message != "second" {
		t.Error("comments should be ordered newest first")
	}
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	comments, h := newCommentHarness(t)
	ticket := mustCreateTicket(t, h, "user-1")
	ctx := context.Background()

	comment, err := comments.AddComment(ctx, principalFor("user-1", domain.RoleUser), ticket.ID, "remove me")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := comments.DeleteComment(ctx, principalFor("admin-1", domain.RoleAdmin), comment.ID); err == nil {
		t.Fatal("only the author may delete a comment")
	}
	if err := comments.DeleteComment(ctx, principalFor("user-1", domain.RoleUser), comment.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := comments.DeleteComment(ctx, principalFor("user-1", domain.RoleUser), comment.ID); err == nil {
		t.Fatal("second delete should report not found")
	}
}
