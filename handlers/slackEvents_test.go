package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const dmEvent = `{
	"token": "legacy",
	"team_id": "T1",
	"api_app_id": "A1",
	"type": "event_callback",
	"event_id": "Ev001",
	"event_time": 1700000000,
	"event": {"type": "message", "channel": "D1", "channel_type": "im", "user": "U1", "text": "remind me at 5", "ts": "1700000000.000100"}
}`

const channelMessageEvent = `{
	"type": "event_callback",
	"event_id": "Ev002",
	"event": {"type": "message", "channel": "C1", "channel_type": "channel", "user": "U1", "text": "<@U0BOT> hi", "ts": "1700000000.000200"}
}`

const mentionEvent = `{
	"type": "event_callback",
	"event_id": "Ev003",
	"event": {"type": "app_mention", "channel": "C1", "user": "U1", "text": "<@U0BOT> hi", "ts": "1700000000.000200"}
}`

type eventsFixture struct {
	router *gin.Engine
	pool   *EventPool
	agent  *echoAgent
	chat   *fakeChat
}

func newEventsFixture(t *testing.T) *eventsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &eventsFixture{agent: &echoAgent{}, chat: &fakeChat{}}
	f.pool = NewEventPool(NewMessageProcessor(f.agent, f.chat, zap.NewNop()), 2, time.Second, zap.NewNop())
	f.pool.Start(context.Background())

	h := NewSlackEventsHandler(f.pool, NewRedisDeduper(client), zap.NewNop())
	f.router = gin.New()
	f.router.POST("/slack/events", h.HandleEvents)
	return f
}

func (f *eventsFixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestURLVerification(t *testing.T) {
	f := newEventsFixture(t)
	defer f.pool.Stop()

	w := f.post(t, `{"token":"x","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`)
	if w.Code != http.StatusOK || w.Body.String() != "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestEventCallbackProcessedOnce(t *testing.T) {
	f := newEventsFixture(t)

	for i := 0; i < 2; i++ {
		if w := f.post(t, dmEvent); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status %d", i, w.Code)
		}
	}
	f.pool.Stop()

	msgs := f.agent.messages()
	if len(msgs) != 1 {
		t.Fatalf("agent saw %d messages, want 1 (retry must be dropped)", len(msgs))
	}
	if msgs[0].UserID != "U1" || msgs[0].ChannelID != "D1" || msgs[0].Text != "remind me at 5" {
		t.Errorf("unexpected message: %+v", msgs[0])
	}
	posts, _ := f.chat.snapshot()
	if len(posts) != 1 || posts[0].channel != "D1" || posts[0].text != "echo: remind me at 5" {
		t.Errorf("unexpected posts: %+v", posts)
	}
}

func TestChannelMessagesNeedMention(t *testing.T) {
	f := newEventsFixture(t)

	f.post(t, channelMessageEvent)
	f.post(t, mentionEvent)
	f.pool.Stop()

	msgs := f.agent.messages()
	if len(msgs) != 1 || !msgs[0].Mention || msgs[0].Text != "hi" {
		t.Fatalf("only the app_mention should be handled, got %+v", msgs)
	}
}

func TestInvalidEventBody(t *testing.T) {
	f := newEventsFixture(t)
	defer f.pool.Stop()

	if w := f.post(t, `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
