// Package publisher emits cache-change events to a Redis stream.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StreamName is the Redis stream scout writes to.
const StreamName = "scout.events"

// Event types.
const (
	EventProfileCached   = "profile.cached"
	EventSeasonCached    = "season.cached"
	EventReportGenerated = "report.generated"
)

// Publisher emits a typed event. Implementations never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// Nop discards every event. Used when no Redis URL is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, string, interface{}) {}

// RedisStreamPublisher publishes events to a Redis stream
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	log    logrus.FieldLogger
}

// NewRedisStreamPublisher wraps an existing client.
func NewRedisStreamPublisher(client *redis.Client, log logrus.FieldLogger) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: StreamName,
		log:    log.WithField("component", "publisher"),
	}
}

// NewRedisPublisher connects to redisURL and verifies it with a ping.
func NewRedisPublisher(redisURL string, log logrus.FieldLogger) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewRedisStreamPublisher(client, log), nil
}

// Close closes the Redis connection
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

// Publish appends an event to the stream. Failures are logged and dropped.
func (p *RedisStreamPublisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("event", eventType).Warn("Failed to encode event")
		return
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      eventType,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		p.log.WithError(err).WithField("event", eventType).Warn("Failed to publish event")
	}
}
