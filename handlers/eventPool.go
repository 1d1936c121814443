package handlers

import (
	"context"
	"sync"
	"time"

	"rebeca/models"

	"go.uber.org/zap"
)

// EventPool processes inbound messages on a fixed number of goroutines so the
// transport can acknowledge Slack right away.
type EventPool struct {
	processor *MessageProcessor
	jobs      chan models.InboundMessage
	workers   int
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewEventPool(processor *MessageProcessor, workers int, timeout time.Duration, logger *zap.Logger) *EventPool {
	if workers <= 0 {
		workers = 4
	}
	return &EventPool{
		processor: processor,
		jobs:      make(chan models.InboundMessage, workers*16),
		workers:   workers,
		timeout:   timeout,
		logger:    logger.Named("event-pool"),
	}
}

func (p *EventPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for msg := range p.jobs {
				jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
				p.processor.Process(jctx, msg)
				cancel()
			}
		}()
	}
}

// Submit queues msg without blocking. It reports false when the queue is full
// or the pool has been stopped.
func (p *EventPool) Submit(msg models.InboundMessage) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("event pool stopped, dropping message", zap.String("user", msg.UserID), zap.String("ts", msg.Timestamp))
		return false
	}
	select {
	case p.jobs <- msg:
		return true
	default:
		p.logger.Warn("event queue full, dropping message", zap.String("user", msg.UserID), zap.String("ts", msg.Timestamp))
		return false
	}
}

// Stop drains queued messages and waits for the workers.
func (p *EventPool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
