package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"groqy/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestNotificationQueueIsFIFO(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications:test")
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, model.NotificationJob{NotificationID: "n1", UserID: "u1"}))
	require.NoError(t, q.Enqueue(ctx, model.NotificationJob{NotificationID: "n2", UserID: "u1"}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for _, want := range []string{"n1", "n2"} {
		raw, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		var job model.NotificationJob
		require.NoError(t, json.Unmarshal(raw, &job))
		assert.Equal(t, want, job.NotificationID)
	}
}

func TestDequeueOnEmptyQueue(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications:empty")

	_, err := q.Dequeue(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestEnqueueFailsWhenRedisIsDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	q := NewNotificationQueue(rdb, "notifications:down")
	mr.Close()

	err := q.Enqueue(context.Background(), model.NotificationJob{UserID: "u1"})
	assert.Error(t, err)
}

func TestLockerAcquireAndRelease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLocker(rdb)
	ctx := context.Background()

	token, ok, err := l.Acquire(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)
	assert.True(t, mr.Exists("lock:a"))

	_, ok, err = l.Acquire(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err := l.Release(ctx, "lock:a", "someone-else")
	require.NoError(t, err)
	assert.False(t, released)
	assert.True(t, mr.Exists("lock:a"))

	released, err = l.Release(ctx, "lock:a", token)
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, mr.Exists("lock:a"))
}

func TestLockExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLocker(rdb)
	ctx := context.Background()

	_, ok, err := l.Acquire(ctx, "lock:b", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(time.Minute + time.Second)

	_, ok, err = l.Acquire(ctx, "lock:b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
