package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps jobs in Redis under {prefix}:job:{id} without expiry,
// so job results survive restarts and are shared between instances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix uses "emailreply".
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "emailreply"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Key returns the Redis key of a job.
func (s *RedisStore) Key(id string) string {
	return s.prefix + ":job:" + id
}

// Put writes the job as JSON. Writing the same job twice is idempotent.
func (s *RedisStore) Put(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, s.Key(job.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write job %s: %w", job.ID, err)
	}
	return nil
}

// Get reads a job, returning ErrNotFound when the key is absent.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	raw, err := s.client.Get(ctx, s.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	if job.ID == "" {
		job.ID = id
	}
	return &job, nil
}
