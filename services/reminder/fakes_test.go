package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	reminderRepo "rebeca/database/repository/reminder"
	"rebeca/models"
	"rebeca/utils"

	"github.com/google/uuid"
)

// memStore is an in-memory Store with the same due/mark semantics as the
// database implementations.
type memStore struct {
	mu       sync.Mutex
	loc      *time.Location
	pending  []models.Reminder
	history  map[string]time.Time
	queryErr error
	markErr  error
	marks    int
}

func newMemStore(loc *time.Location) *memStore {
	return &memStore{loc: loc, history: map[string]time.Time{}}
}

func (s *memStore) EnsureSchema(context.Context) error { return nil }

func (s *memStore) Create(_ context.Context, userID, message, channelID string, at time.Time) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := models.Reminder{
		ID:      uuid.New().String(),
		UserID:  userID,
		Message: message,
		Trigger: models.Trigger{ChannelID: channelID, ScheduledTime: utils.FormatCivil(at, s.loc)},
		Type:    models.ReminderOnce,
		Status:  models.StatusPending,
	}
	s.pending = append(s.pending, r)
	return &r, nil
}

func (s *memStore) QueryDue(_ context.Context, now time.Time, tol time.Duration) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	lower, upper := utils.DueWindow(now, tol, s.loc)
	var due []models.Reminder
	for _, r := range s.pending {
		if _, done := s.history[r.ID]; done {
			continue
		}
		if r.Trigger.ScheduledTime >= lower && r.Trigger.ScheduledTime <= upper {
			due = append(due, r)
		}
	}
	return due, nil
}

func (s *memStore) MarkExecuted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks++
	if s.markErr != nil {
		return s.markErr
	}
	found := false
	for _, r := range s.pending {
		if r.ID == id {
			found = true
		}
	}
	if !found {
		return reminderRepo.ErrNotFound
	}
	if _, ok := s.history[id]; ok {
		return reminderRepo.ErrAlreadyExecuted
	}
	s.history[id] = time.Now()
	return nil
}

func (s *memStore) executed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.history[id]
	return ok
}

type sent struct {
	dest, text string
}

type fakeGateway struct {
	mu       sync.Mutex
	sent     []sent
	failFor  map[string]error
	dms      map[string]string
	resolved []string
	notify   chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: map[string]error{}, dms: map[string]string{}}
}

func (g *fakeGateway) Send(_ context.Context, dest, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[dest]; err != nil {
		return err
	}
	g.sent = append(g.sent, sent{dest, text})
	if g.notify != nil {
		select {
		case g.notify <- struct{}{}:
		default:
		}
	}
	return nil
}

func (g *fakeGateway) ResolveDirectDestination(_ context.Context, userID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolved = append(g.resolved, userID)
	if d, ok := g.dms[userID]; ok {
		return d, nil
	}
	return "", errors.New("user_not_found")
}

func (g *fakeGateway) messages() []sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sent(nil), g.sent...)
}

type templateRenderer struct {
	panicOn string
}

func (t templateRenderer) Notification(_ context.Context, r models.Reminder) string {
	if r.Message == t.panicOn {
		panic("renderer exploded")
	}
	return ":bell: Reminder: " + r.Message
}
