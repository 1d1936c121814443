package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rebeca/config"
	"rebeca/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Ticker runs one poll over due reminders.
type Ticker interface {
	Tick(ctx context.Context) error
}

// PollWorker drives reminder polling through asynq instead of an in-process
// ticker: the scheduler enqueues a unique poll task every interval and the
// server executes it.
type PollWorker struct {
	scheduler *asynq.Scheduler
	server    *asynq.Server
	mux       *asynq.ServeMux
	redisOpts asynq.RedisClientOpt
	interval  time.Duration
	logger    *zap.Logger
}

func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

func NewPollWorker(cfg *config.Config, loc *time.Location, ticker Ticker, logger *zap.Logger) *PollWorker {
	logger = logger.Named("poll-worker")
	redisOpts := RedisOpt(cfg)

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{
		Location: loc,
		Logger:   logger.Sugar(),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Warn("failed to enqueue poll task", zap.Error(err))
			}
		},
	})

	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 1,
		Queues: map[string]int{
			tasks.ReminderQueue: 1,
		},
		Logger: logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePollDue, handlePollTask(ticker, logger))

	return &PollWorker{
		scheduler: scheduler,
		server:    srv,
		mux:       mux,
		redisOpts: redisOpts,
		interval:  cfg.PollInterval,
		logger:    logger,
	}
}

func handlePollTask(ticker Ticker, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		if err := ticker.Tick(ctx); err != nil {
			logger.Error("poll task failed", zap.Error(err))
			return err
		}
		return nil
	}
}

// Start registers the periodic task and starts scheduler and server, retrying
// the startup a few times while Redis comes up.
func (w *PollWorker) Start() error {
	task, opts := tasks.NewPollTask(w.interval)
	spec := fmt.Sprintf("@every %s", w.interval)
	if _, err := w.scheduler.Register(spec, task, opts...); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}

	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = w.server.Start(w.mux); err == nil {
			break
		}
		w.logger.Warn("failed to start worker", zap.Int("attempt", attempts), zap.Error(err))
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	if err != nil {
		return fmt.Errorf("start poll worker: %w", err)
	}

	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start poll scheduler: %w", err)
	}

	// The scheduler's first enqueue happens one interval after start.
	client := asynq.NewClient(w.redisOpts)
	defer client.Close()
	if _, err := client.Enqueue(task, opts...); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		w.logger.Warn("failed to enqueue startup poll", zap.Error(err))
	}

	w.logger.Info("poll worker started", zap.String("spec", spec))
	return nil
}

func (w *PollWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
