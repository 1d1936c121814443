package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reminderRepo "rebeca/database/repository/reminder"
	"rebeca/models"
	ai "rebeca/services/intelligence"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

type stubClassifier struct {
	intent models.Intent
	gotNow time.Time
}

func (s *stubClassifier) Classify(_ context.Context, _ string, now time.Time) models.Intent {
	s.gotNow = now
	return s.intent
}

type stubResponder struct{}

func (stubResponder) Reply(_ context.Context, userID, text string) string {
	return "reply to " + userID + ": " + text
}

func (stubResponder) Confirmation(_ context.Context, at time.Time, description string) string {
	return "scheduled " + description + " at " + at.Format("15:04")
}

type createCall struct {
	userID, message, channelID string
	at                         time.Time
}

type recordingStore struct {
	mu    sync.Mutex
	calls []createCall
	err   error
}

func (s *recordingStore) EnsureSchema(context.Context) error { return nil }

func (s *recordingStore) Create(_ context.Context, userID, message, channelID string, at time.Time) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, createCall{userID, message, channelID, at})
	if s.err != nil {
		return nil, s.err
	}
	return &models.Reminder{ID: "r1", UserID: userID, Message: message}, nil
}

func (s *recordingStore) QueryDue(context.Context, time.Time, time.Duration) ([]models.Reminder, error) {
	return nil, nil
}

func (s *recordingStore) MarkExecuted(context.Context, string) error { return nil }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestHandleMessageSchedulesReminder(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake()
	clk.Set(at.Add(-time.Hour))

	classifier := &stubClassifier{intent: models.Intent{IsReminder: true, ScheduledAt: at, Description: "call boss"}}
	store := &recordingStore{}
	agent := NewAgent(classifier, stubResponder{}, store, clk, nil, zap.NewNop())

	got := agent.HandleMessage(context.Background(), models.InboundMessage{UserID: "U1", ChannelID: "C1", Text: "remind me to call boss at 9"})
	if got != "scheduled call boss at 09:00" {
		t.Fatalf("reply = %q", got)
	}
	if len(store.calls) != 1 {
		t.Fatalf("Create called %d times", len(store.calls))
	}
	if c := store.calls[0]; c.userID != "U1" || c.message != "call boss" || c.channelID != "C1" || !c.at.Equal(at) {
		t.Errorf("unexpected Create call: %+v", c)
	}
	if !classifier.gotNow.Equal(clk.Now()) {
		t.Errorf("classifier saw now=%v, want %v", classifier.gotNow, clk.Now())
	}
}

func TestHandleMessageStoreFailure(t *testing.T) {
	classifier := &stubClassifier{intent: models.Intent{IsReminder: true, ScheduledAt: time.Now().Add(time.Hour), Description: "x"}}
	store := &recordingStore{err: &reminderRepo.PersistenceError{Op: "create", Err: errors.New("write rejected")}}
	agent := NewAgent(classifier, stubResponder{}, store, nil, nil, zap.NewNop())

	if got := agent.HandleMessage(context.Background(), models.InboundMessage{UserID: "U1", ChannelID: "C1", Text: "x"}); got != ai.ScheduleFailure {
		t.Fatalf("reply = %q, want failure notice", got)
	}
}

func TestHandleMessageGeneralQuery(t *testing.T) {
	store := &recordingStore{}
	agent := NewAgent(&stubClassifier{intent: models.NotAReminder()}, stubResponder{}, store, nil, nil, zap.NewNop())

	got := agent.HandleMessage(context.Background(), models.InboundMessage{UserID: "U1", ChannelID: "D1", Text: "what's the capital of France?"})
	if got != "reply to U1: what's the capital of France?" {
		t.Fatalf("reply = %q", got)
	}
	if len(store.calls) != 0 {
		t.Fatal("general queries must not create reminders")
	}
}

func TestHandleMessageRateLimited(t *testing.T) {
	classifier := &stubClassifier{intent: models.NotAReminder()}
	agent := NewAgent(classifier, stubResponder{}, &recordingStore{}, nil, denyAll{}, zap.NewNop())

	if got := agent.HandleMessage(context.Background(), models.InboundMessage{UserID: "U1", Text: "hi"}); got != SlowDownReply {
		t.Fatalf("reply = %q", got)
	}
	if !classifier.gotNow.IsZero() {
		t.Fatal("rate-limited messages must not reach the classifier")
	}
}
