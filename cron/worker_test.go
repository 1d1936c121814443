package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"rebeca/config"
	"rebeca/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type countingTicker struct {
	calls int
	err   error
}

func (c *countingTicker) Tick(context.Context) error {
	c.calls++
	return c.err
}

func TestHandlePollTask(t *testing.T) {
	ticker := &countingTicker{}
	h := handlePollTask(ticker, zap.NewNop())
	task, _ := tasks.NewPollTask(time.Minute)

	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if ticker.calls != 1 {
		t.Fatalf("Tick called %d times, want 1", ticker.calls)
	}

	ticker.err = errors.New("store down")
	if err := h.ProcessTask(context.Background(), task); !errors.Is(err, ticker.err) {
		t.Fatalf("ProcessTask = %v, want tick error", err)
	}
}

func TestMuxRoutesPollTask(t *testing.T) {
	ticker := &countingTicker{}
	cfg := &config.Config{RedisAddr: "localhost:6379", RedisQueueDB: 3, PollInterval: time.Minute}
	w := NewPollWorker(cfg, time.UTC, ticker, zap.NewNop())

	if err := w.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypePollDue, nil)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if ticker.calls != 1 {
		t.Fatalf("Tick called %d times, want 1", ticker.calls)
	}
	if opt := RedisOpt(cfg); opt.DB != 3 || opt.Addr != "localhost:6379" {
		t.Errorf("unexpected redis options: %+v", opt)
	}
}
