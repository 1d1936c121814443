package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy   bool            `json:"healthy"`
	Checks    map[string]bool `json:"checks"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// HealthMonitor keeps the latest health snapshot of the store, Redis and any
// other registered dependency.
type HealthMonitor struct {
	probes   map[string]Probe
	interval time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		probes:   make(map[string]Probe),
		interval: interval,
		logger:   logger.Named("health"),
	}
}

// Register adds a named probe. Call before Start.
func (m *HealthMonitor) Register(name string, p Probe) {
	m.probes[name] = p
}

func MongoProbe(client *mongo.Client) Probe {
	return func(ctx context.Context) error { return client.Ping(ctx, nil) }
}

func PostgresProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

func RedisProbe(client *redis.Client) Probe {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check runs every probe once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Checks: make(map[string]bool, len(m.probes))}
	for name, probe := range m.probes {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := probe(pctx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status.Healthy = false
		}
		status.Checks[name] = err == nil
	}
	status.CheckedAt = time.Now()

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is cancelled.
func (m *HealthMonitor) Start(ctx context.Context) {
	go func() {
		m.Check(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
