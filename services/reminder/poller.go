package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reminderRepo "rebeca/database/repository/reminder"
	"rebeca/models"
	"rebeca/services/notification"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

// Renderer produces the notification text for a due reminder. It must always
// return something sendable.
type Renderer interface {
	Notification(ctx context.Context, r models.Reminder) string
}

type Config struct {
	Interval    time.Duration
	Tolerance   time.Duration
	SendTimeout time.Duration
}

// Poller periodically looks for due reminders and delivers them.
type Poller struct {
	store    reminderRepo.Store
	gateway  notification.Gateway
	renderer Renderer
	claimer  Claimer
	clock    clock.Clock
	cfg      Config
	logger   *zap.Logger

	// serializes ticks when both the ticker and a task queue drive the poller
	mu sync.Mutex
}

func NewPoller(
	store reminderRepo.Store,
	gateway notification.Gateway,
	renderer Renderer,
	claimer Claimer,
	clk clock.Clock,
	cfg Config,
	logger *zap.Logger,
) *Poller {
	if claimer == nil {
		claimer = NoopClaimer{}
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Poller{
		store:    store,
		gateway:  gateway,
		renderer: renderer,
		claimer:  claimer,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.Named("poller"),
	}
}

// Start runs one tick immediately and then one per interval until ctx is done.
// The returned channel is closed when the loop exits.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.logger.Info("reminder poller started",
			zap.Duration("interval", p.cfg.Interval), zap.Duration("tolerance", p.cfg.Tolerance))

		p.safeTick(ctx)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("reminder poller stopped")
				return
			case <-ticker.C:
				p.safeTick(ctx)
			}
		}
	}()
	return done
}

func (p *Poller) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poll tick panicked", zap.Any("panic", r))
		}
	}()
	if err := p.Tick(ctx); err != nil {
		p.logger.Error("poll tick failed", zap.Error(err))
	}
}

// Tick queries due reminders once and attempts delivery of each one. Only a
// failure of the due query is returned; per-reminder failures are logged.
func (p *Poller) Tick(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	due, err := p.store.QueryDue(ctx, now, p.cfg.Tolerance)
	if err != nil {
		return fmt.Errorf("query due reminders: %w", err)
	}
	if len(due) > 0 {
		p.logger.Info("due reminders found", zap.Int("count", len(due)))
	}

	for _, r := range due {
		if ctx.Err() != nil {
			return nil
		}
		p.deliverOne(ctx, r)
	}
	return nil
}

func (p *Poller) deliverOne(ctx context.Context, r models.Reminder) {
	log := p.logger.With(zap.String("reminder", r.ID), zap.String("user", r.UserID))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("reminder delivery panicked", zap.Any("panic", rec))
		}
	}()

	claimed, err := p.claimer.Claim(ctx, r.ID)
	if err != nil {
		log.Error("failed to claim reminder", zap.Error(err))
		return
	}
	if !claimed {
		log.Debug("reminder claimed by another poller")
		return
	}

	if err := p.send(ctx, r); err != nil {
		log.Error("failed to deliver reminder", zap.Error(err))
		// Let the next tick retry while the reminder is still inside the window.
		if err := p.claimer.Release(ctx, r.ID); err != nil {
			log.Warn("failed to release claim", zap.Error(err))
		}
		return
	}

	err = p.store.MarkExecuted(ctx, r.ID)
	switch {
	case err == nil:
		log.Info("reminder delivered", zap.String("scheduled", r.Trigger.ScheduledTime))
	case errors.Is(err, reminderRepo.ErrAlreadyExecuted):
		log.Warn("reminder was already executed by another poller")
	case errors.Is(err, reminderRepo.ErrNotFound):
		log.Error("delivered reminder has no pending row")
	default:
		log.Error("failed to mark reminder executed", zap.Error(err))
		// Without a history row the reminder is still due; free it for the next tick.
		if err := p.claimer.Release(ctx, r.ID); err != nil {
			log.Warn("failed to release claim", zap.Error(err))
		}
	}
}

func (p *Poller) send(ctx context.Context, r models.Reminder) error {
	text := p.renderer.Notification(ctx, r)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.SendTimeout)
	defer cancel()

	dest, err := notification.ResolveDestination(ctx, p.gateway, r)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	return p.gateway.Send(ctx, dest, text)
}
