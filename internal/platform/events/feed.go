package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"guardx/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// Feed keeps a capped list of the most recent operations.
type Feed interface {
	Push(ctx context.Context, op model.Operation) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.Operation, error)
}

// RedisFeed stores entries in a Redis list and announces each one on a
// pub/sub channel.
type RedisFeed struct {
	rdb     *redis.Client
	key     string
	channel string
	size    int
}

func NewRedisFeed(rdb *redis.Client, key, channel string, size int) *RedisFeed {
	return &RedisFeed{rdb: rdb, key: key, channel: channel, size: size}
}

func (f *RedisFeed) Push(ctx context.Context, op model.Operation) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal feed entry: %w", err)
	}
	_, err = f.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, f.key, payload)
		pipe.LTrim(ctx, f.key, 0, int64(f.size-1))
		if f.channel != "" {
			pipe.Publish(ctx, f.channel, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("push feed entry %s: %w", op.OperationID, err)
	}
	return nil
}

func (f *RedisFeed) Recent(ctx context.Context, limit int) ([]model.Operation, error) {
	if limit <= 0 || limit > f.size {
		limit = f.size
	}
	raw, err := f.rdb.LRange(ctx, f.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	ops := make([]model.Operation, 0, len(raw))
	for _, item := range raw {
		var op model.Operation
		if err := json.Unmarshal([]byte(item), &op); err != nil {
			return nil, fmt.Errorf("decode feed entry: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// MemoryFeed is the single-process fallback used when Redis is not
// configured.
type MemoryFeed struct {
	mu      sync.Mutex
	entries []model.Operation // ring buffer
	next    int
	full    bool
}

func NewMemoryFeed(size int) *MemoryFeed {
	if size <= 0 {
		size = 1
	}
	return &MemoryFeed{entries: make([]model.Operation, size)}
}

func (f *MemoryFeed) Push(ctx context.Context, op model.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[f.next] = op
	f.next = (f.next + 1) % len(f.entries)
	if f.next == 0 {
		f.full = true
	}
	return nil
}

func (f *MemoryFeed) Recent(ctx context.Context, limit int) ([]model.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.next
	if f.full {
		n = len(f.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Operation, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.entries)) % len(f.entries)
		out = append(out, f.entries[idx])
	}
	return out, nil
}
