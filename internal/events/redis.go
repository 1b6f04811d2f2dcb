package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisChannel implements Publisher over Redis pub/sub and push-delivers
// received events to a registered handler.
type RedisChannel struct {
	client *redis.Client
	topic  string
}

// NewRedisChannel wires a channel on the given topic.
func NewRedisChannel(client *redis.Client, topic string) *RedisChannel {
	return &RedisChannel{client: client, topic: topic}
}

func (c *RedisChannel) Publish(ctx context.Context, event ImportEvent) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal import event: %w", err)
	}

	if err := c.client.Publish(ctx, c.topic, payload).Err(); err != nil {
		return "", fmt.Errorf("failed to publish import event: %w", err)
	}

	// Redis pub/sub has no broker-side message id; generate one for the logs.
	messageID := uuid.NewString()
	log.Printf("[EVENTS] published %s event for job %s (message %s)", event.EventType, event.JobID, messageID)
	return messageID, nil
}

// Listen subscribes to the topic and invokes handler for every decoded event
// until ctx is cancelled. Undecodable payloads and events without a job id
// are rejected before any store is touched; handler errors are logged, not
// retried here (re-delivery is the broker's concern).
func (c *RedisChannel) Listen(ctx context.Context, handler Handler) error {
	sub := c.client.Subscribe(ctx, c.topic)
	defer sub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.topic, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event ImportEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[EVENTS] discarding undecodable payload: %v", err)
				continue
			}
			if event.JobID == "" {
				log.Printf("[EVENTS] discarding event without job id")
				continue
			}

			if err := handler(ctx, event); err != nil {
				log.Printf("[EVENTS] handler failed for job %s: %v", event.JobID, err)
			}
		}
	}
}
