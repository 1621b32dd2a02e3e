package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// In-memory fakes shared by the service tests.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	seq     int
	// failUpdate forces Update to error for failure-path tests.
	failUpdate error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := ticket
	return &copy, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeTicketRepo) Count(ctx context.Context, filter repository.TicketFilter) (int, error) {
	list, err := r.ListWithFilter(ctx, filter)
	return len(list), err
}

func matchesFilter(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if ticket.OrganizationID != filter.OrganizationID {
		return false
	}
	if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.SupportUserID != nil {
		if ticket.AssignedTo != nil && *ticket.AssignedTo != *filter.SupportUserID {
			return false
		}
	}
	if filter.AssignedTo != nil {
		if ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo {
			return false
		}
	}
	if filter.Unassigned && ticket.AssignedTo != nil {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := user
	return &copy, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copy := user
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetActiveAdmin(_ context.Context, organizationID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.OrganizationID == organizationID && user.Role == domain.RoleAdmin && user.IsActive {
			copy := user
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListActiveByRole(_ context.Context, organizationID string, role domain.UserRole) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.OrganizationID == organizationID && user.Role == role && user.IsActive {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeUserRepo) CountActiveByRole(ctx context.Context, organizationID string, role domain.UserRole) (int, error) {
	list, err := r.ListActiveByRole(ctx, organizationID, role)
	return len(list), err
}

type fakeOrgRepo struct {
	orgs map[string]domain.Organization
}

func newFakeOrgRepo(ids ...string) *fakeOrgRepo {
	repo := &fakeOrgRepo{orgs: make(map[string]domain.Organization)}
	for _, id := range ids {
		repo.orgs[id] = domain.Organization{ID: id, Name: "org " + id}
	}
	return repo
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &org, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string]domain.Comment
	seq      int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]domain.Comment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	r.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := comment
	return &copy, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type fakeFeedbackRepo struct {
	mu       sync.Mutex
	byTicket map[string]domain.Feedback
	seq      int
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{byTicket: make(map[string]domain.Feedback)}
}

func (r *fakeFeedbackRepo) Upsert(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byTicket[feedback.TicketID]; ok {
		feedback.ID = existing.ID
		feedback.CreatedAt = existing.CreatedAt
	} else {
		r.seq++
		feedback.ID = fmt.Sprintf("feedback-%d", r.seq)
		feedback.CreatedAt = time.Now()
	}
	feedback.UpdatedAt = time.Now()
	r.byTicket[feedback.TicketID] = *feedback
	return nil
}

func (r *fakeFeedbackRepo) GetByTicket(_ context.Context, ticketID string) (*domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feedback, ok := r.byTicket[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := feedback
	return &copy, nil
}

func (r *fakeFeedbackRepo) AverageRatingForAssignee(_ context.Context, _ string) (*float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.byTicket) == 0 {
		return nil, nil
	}
	var sum int
	for _, feedback := range r.byTicket {
		sum += feedback.Rating
	}
	avg := float64(sum) / float64(len(r.byTicket))
	return &avg, nil
}

func (r *fakeFeedbackRepo) RecentMessagesForAssignee(_ context.Context, _ string, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []string
	for _, feedback := range r.byTicket {
		if feedback.Message != "" {
			result = append(result, feedback.Message)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type fakeMailLog struct {
	mu    sync.Mutex
	mails []domain.MailMessage
	// failCreate forces Create to error.
	failCreate error
}

func (r *fakeMailLog) Create(_ context.Context, mail *domain.MailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	mail.ID = fmt.Sprintf("mail-%d", len(r.mails)+1)
	mail.CreatedAt = time.Now()
	r.mails = append(r.mails, *mail)
	return nil
}

func (r *fakeMailLog) ListByRecipient(_ context.Context, to string, _ int) ([]domain.MailMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.MailMessage
	for _, mail := range r.mails {
		if mail.To == to {
			result = append(result, mail)
		}
	}
	return result, nil
}

func (r *fakeMailLog) sent() []domain.MailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.MailMessage{}, r.mails...)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.entries[key]
	return val, ok
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *fakeCache) DeleteByPrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, prefix)
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// recordingDispatcher captures published events and still fans out to
// subscribers like the real in-memory dispatcher.
type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: make(map[events.EventType][]events.EventHandler)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	handlers := append([]events.EventHandler{}, d.handlers[event.Type]...)
	d.mu.Unlock()
	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) eventsOfType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.published {
		if event.Type == t {
			result = append(result, event)
		}
	}
	return result
}
