package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// FailureSet records failed items per run kind.
type FailureSet interface {
	Add(ctx context.Context, kind string, ids ...string) error
	Members(ctx context.Context, kind string) ([]string, error)
	Remove(ctx context.Context, kind string, ids ...string) error
}

// Compile-time checks.
var (
	_ FailureSet = (*RedisSet)(nil)
	_ FailureSet = (*MemorySet)(nil)
)

// RedisSet stores each kind as a redis set under prefix + "failed:" + kind.
type RedisSet struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a redis-backed failure set.
func NewRedis(client *redis.Client, prefix string) *RedisSet {
	return &RedisSet{client: client, prefix: prefix}
}

func (r *RedisSet) key(kind string) string {
	return r.prefix + "failed:" + kind
}

// Add records ids as failed.
func (r *RedisSet) Add(ctx context.Context, kind string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := r.client.SAdd(ctx, r.key(kind), members...).Err(); err != nil {
		return fmt.Errorf("add %s failures: %w", kind, err)
	}
	return nil
}

// Members returns the failed ids in ascending order.
func (r *RedisSet) Members(ctx context.Context, kind string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.key(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s failures: %w", kind, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Remove clears ids that have since succeeded.
func (r *RedisSet) Remove(ctx context.Context, kind string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := r.client.SRem(ctx, r.key(kind), members...).Err(); err != nil {
		return fmt.Errorf("remove %s failures: %w", kind, err)
	}
	return nil
}

// MemorySet is a process-local FailureSet.
type MemorySet struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

// NewMemory creates an empty in-memory failure set.
func NewMemory() *MemorySet {
	return &MemorySet{sets: make(map[string]map[string]struct{})}
}

// Add records ids as failed.
func (m *MemorySet) Add(_ context.Context, kind string, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[kind]
	if !ok {
		set = make(map[string]struct{})
		m.sets[kind] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

// Members returns the failed ids in ascending order.
func (m *MemorySet) Members(_ context.Context, kind string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sets[kind]))
	for id := range m.sets[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Remove clears ids that have since succeeded.
func (m *MemorySet) Remove(_ context.Context, kind string, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.sets[kind], id)
	}
	return nil
}
