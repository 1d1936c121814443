package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rebeca/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func TestNotificationFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	r := NewResponder(gen, nil, mustZone("America/Mexico_City"), zap.NewNop())

	got := r.Notification(context.Background(), models.Reminder{ID: "r1", Message: "call boss"})
	if got != ":bell: Reminder: call boss" {
		t.Fatalf("Notification = %q", got)
	}
}

func TestNotificationUsesModel(t *testing.T) {
	gen := &fakeGenerator{reply: ":bell: > call boss\nYou got this!"}
	r := NewResponder(gen, nil, mustZone("America/Mexico_City"), zap.NewNop())

	got := r.Notification(context.Background(), models.Reminder{ID: "r1", Message: "call boss"})
	if got != gen.reply {
		t.Fatalf("Notification = %q", got)
	}
	if !strings.Contains(gen.lastPrompt(), "call boss") {
		t.Error("prompt should carry the reminder message")
	}
}

func TestConfirmationFallbackUsesZone(t *testing.T) {
	loc := mustZone("America/Mexico_City")
	gen := &fakeGenerator{err: errors.New("down")}
	r := NewResponder(gen, nil, loc, zap.NewNop())

	at := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	got := r.Confirmation(context.Background(), at, "call boss")
	if got != ":calendar: Reminder scheduled for 2025-03-10 09:00: call boss" {
		t.Fatalf("Confirmation = %q", got)
	}
}

func TestReplyKeepsConversation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisContextStore(client, time.Minute)

	gen := &fakeGenerator{reply: "Hello!"}
	r := NewResponder(gen, store, time.UTC, zap.NewNop())
	ctx := context.Background()

	if got := r.Reply(ctx, "U1", "hi there"); got != "Hello!" {
		t.Fatalf("Reply = %q", got)
	}
	r.Reply(ctx, "U1", "what did I say?")
	if !strings.Contains(gen.lastPrompt(), "User: hi there") {
		t.Errorf("second prompt should include history, got:\n%s", gen.lastPrompt())
	}

	gen.err = errors.New("down")
	if got := r.Reply(ctx, "U1", "again"); got != ReplyFallback {
		t.Fatalf("Reply on failure = %q", got)
	}
}
