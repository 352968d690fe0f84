// Package progress stores the latest FetchProgress of each fetch job so that
// pollers and streams can read it while the job runs.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

const (
	keyPrefix  = "fetch:progress:"
	DefaultTTL = 6 * time.Hour
)

type Registry interface {
	Set(ctx context.Context, p model.FetchProgress) error
	// Get reports false when the job is unknown or has expired.
	Get(ctx context.Context, jobID string) (model.FetchProgress, bool, error)
}

type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]model.FetchProgress
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{jobs: make(map[string]model.FetchProgress)}
}

func (m *MemoryRegistry) Set(_ context.Context, p model.FetchProgress) error {
	if p.JobID == "" {
		return errors.New("progress without job id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[p.JobID] = p
	return nil
}

func (m *MemoryRegistry) Get(_ context.Context, jobID string) (model.FetchProgress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.jobs[jobID]
	return p, ok, nil
}

// RedisRegistry keeps progress as JSON so every API replica sees the same job.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

func Key(jobID string) string {
	return keyPrefix + jobID
}

func (r *RedisRegistry) Set(ctx context.Context, p model.FetchProgress) error {
	if p.JobID == "" {
		return errors.New("progress without job id")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := r.client.Set(ctx, Key(p.JobID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store progress %s: %w", p.JobID, err)
	}
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, jobID string) (model.FetchProgress, bool, error) {
	raw, err := r.client.Get(ctx, Key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.FetchProgress{}, false, nil
	}
	if err != nil {
		return model.FetchProgress{}, false, fmt.Errorf("load progress %s: %w", jobID, err)
	}
	var p model.FetchProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.FetchProgress{}, false, fmt.Errorf("decode progress %s: %w", jobID, err)
	}
	return p, true, nil
}
