// Package flags persists the three launch-lifecycle booleans the startup
// router reads: first-launch, onboarding-completed, and was-logged-in.
//
// Flags are plain string key-value pairs, value "true" or absent, matching
// the unstructured local storage they model. Each flag is set by exactly one
// lifecycle event and only the was-logged-in flag is ever cleared.
package flags

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	// HasLaunchedBefore is set on the first process start.
	HasLaunchedBefore = "hasLaunchedBefore"
	// OnboardingCompleted is set when the onboarding flow finishes.
	OnboardingCompleted = "onboardingCompleted"
	// WasLoggedIn is set on any successful authentication and cleared on
	// explicit logout.
	WasLoggedIn = "wasLoggedIn"
)

// ErrUnavailable wraps backend failures of a store implementation.
var ErrUnavailable = errors.New("flags: store unavailable")

// Store persists lifecycle flags.
type Store interface {
	Set(ctx context.Context, name string) error
	Clear(ctx context.Context, name string) error
	IsSet(ctx context.Context, name string) (bool, error)
}

// Memory is a process-local [Store] for tests and demos.
type Memory struct {
	mu     sync.RWMutex
	values map[string]bool
}

// NewMemory returns an empty in-memory flag store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]bool)}
}

// Set implements [Store].
func (m *Memory) Set(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = true
	return nil
}

// Clear implements [Store].
func (m *Memory) Clear(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}

// IsSet implements [Store].
func (m *Memory) IsSet(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[name], nil
}

// Redis is a [Store] backed by a Redis keyspace.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis-backed flag store scoping all keys under prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "ba:flag"
	}
	return &Redis{redis: client, prefix: prefix}
}

func (r *Redis) key(name string) string {
	return r.prefix + ":" + name
}

// Set implements [Store].
func (r *Redis) Set(ctx context.Context, name string) error {
	if err := r.redis.Set(ctx, r.key(name), "true", 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear implements [Store].
func (r *Redis) Clear(ctx context.Context, name string) error {
	if err := r.redis.Del(ctx, r.key(name)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsSet implements [Store].
func (r *Redis) IsSet(ctx context.Context, name string) (bool, error) {
	value, err := r.redis.Get(ctx, r.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value == "true", nil
}
