package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the global Redis client. Left nil when Redis is not configured;
// every publish is a no-op then.
var Rdb *redis.Client

// DefaultQueueName is the Redis list the action log is pushed onto.
var DefaultQueueName = "parlor_actions"

// QueueName can be overridden from configuration before the first publish.
var QueueName = DefaultQueueName

// SessionActionRecord is one committed effect event, flattened for the
// external historian consumer.
type SessionActionRecord struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Actor     string `json:"actor,omitempty"`
	Target    string `json:"target,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectRedis initializes the global client and verifies connectivity.
func ConnectRedis(addr string, db int) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishSessionAction pushes one record onto the historian queue.
// Best-effort: failures are logged, never propagated to game logic.
func PublishSessionAction(record SessionActionRecord) {
	if Rdb == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).Warn("action record marshal failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := Rdb.RPush(ctx, QueueName, data).Err(); err != nil {
		logrus.WithError(err).WithField("queue", QueueName).Warn("action log push failed")
	}
}
