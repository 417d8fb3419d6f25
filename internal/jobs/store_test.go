package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxreply/internal/draft"
)

func doneJob(id string) *Job {
	subject := "Hello"
	return &Job{
		ID:     id,
		Status: StatusDone,
		Result: &ResultPayload{
			Text:      "Hi,\n\nThanks.\n\nBest regards,\n",
			Meta:      ResultMeta{ThreadID: "t1", Tone: "formal", Subject: &subject, Participants: []string{"a"}, TokenUsage: &draft.TokenUsage{Prompt: 1, Completion: 2, Total: 3}},
			ProjectID: "p1",
		},
		StartedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	job := doneJob("j1")
	require.NoError(t, s.Put(ctx, job))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, job, got)

	got.Status = StatusQueued
	again, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, again.Status, "stored job must not alias returned copies")
}

func TestMemoryStore_ResultIsNotShared(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := doneJob("j1")
	require.NoError(t, s.Put(ctx, job))

	job.Result.Meta.Participants[0] = "changed after put"
	*job.Result.Meta.Subject = "changed after put"

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Result.Meta.Participants)
	assert.Equal(t, "Hello", *got.Result.Meta.Subject)

	got.Result.Meta.Participants[0] = "MUTATED"
	*got.Result.Meta.Subject = "MUTATED"
	got.Result.Meta.TokenUsage.Total = 99

	again, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Result.Meta.Participants)
	assert.Equal(t, "Hello", *again.Result.Meta.Subject)
	assert.Equal(t, int64(3), again.Result.Meta.TokenUsage.Total)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "")
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	job := doneJob("j1")
	require.NoError(t, s.Put(ctx, job))
	require.NoError(t, s.Put(ctx, job))

	assert.True(t, mr.Exists("emailreply:job:j1"))
	assert.Equal(t, time.Duration(0), mr.TTL("emailreply:job:j1"))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, job.Status, got.Status)
	assert.Equal(t, job.Result.Text, got.Result.Text)
	assert.Equal(t, job.Result.Meta, got.Result.Meta)
	assert.True(t, job.StartedAt.Equal(got.StartedAt))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "x")
	require.NoError(t, mr.Set("x:job:bad", "not json"))

	_, err := s.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
