package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"groqy/internal/domain/model"
	"groqy/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Str("addr", config.AppConfig.RedisAddr).Msg("could not connect to Redis")
	}
	log.Info().Str("addr", config.AppConfig.RedisAddr).Msg("connected to Redis")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		log.Info().Msg("Redis connection closed")
	}
}

// ErrEmpty is returned by Dequeue when no job arrived within the timeout.
var ErrEmpty = errors.New("queue: no job available")

// NotificationQueue is a Redis list of JSON encoded notification jobs.
// Producers LPUSH and the worker BRPOPs, so jobs are handled oldest first.
type NotificationQueue struct {
	rdb  *redis.Client
	name string
}

func NewNotificationQueue(rdb *redis.Client, name string) *NotificationQueue {
	return &NotificationQueue{rdb: rdb, name: name}
}

func (q *NotificationQueue) Name() string { return q.name }

func (q *NotificationQueue) Enqueue(ctx context.Context, job model.NotificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode notification job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", q.name, err)
	}
	return nil
}

// Dequeue blocks for up to timeout and returns the raw payload of the oldest
// job. It returns ErrEmpty when the wait timed out.
func (q *NotificationQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, ErrEmpty
	}
	return []byte(res[1]), nil
}

// Len reports how many jobs are waiting.
func (q *NotificationQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
