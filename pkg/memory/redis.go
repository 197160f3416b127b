package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pipewise/maestro/pkg/interfaces"
)

// RedisMemory implements a Redis-backed conversation store so conversation
// context survives the process and can be shared between workers
type RedisMemory struct {
	client         *redis.Client
	ttl            time.Duration
	keyPrefix      string
	maxMessageSize int
	retryOptions   *RetryOptions
}

// RetryOptions configures retry behavior for Redis operations
type RetryOptions struct {
	MaxRetries    int
	RetryInterval time.Duration
	BackoffFactor float64
}

// RedisOption represents an option for configuring the Redis memory
type RedisOption func(*RedisMemory)

// WithTTL sets the TTL for Redis keys
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisMemory) {
		r.ttl = ttl
	}
}

// WithKeyPrefix sets a custom prefix for Redis keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisMemory) {
		r.keyPrefix = prefix
	}
}

// WithMaxMessageSize sets the maximum size for stored messages
func WithMaxMessageSize(size int) RedisOption {
	return func(r *RedisMemory) {
		r.maxMessageSize = size
	}
}

// WithRetryOptions configures retry behavior for Redis operations
func WithRetryOptions(options *RetryOptions) RedisOption {
	return func(r *RedisMemory) {
		r.retryOptions = options
	}
}

// NewRedisMemory creates a new Redis-backed conversation store
func NewRedisMemory(client *redis.Client, options ...RedisOption) *RedisMemory {
	memory := &RedisMemory{
		client:         client,
		ttl:            24 * time.Hour,
		keyPrefix:      "maestro:memory:",
		maxMessageSize: 1024 * 1024,
		retryOptions: &RetryOptions{
			MaxRetries:    3,
			RetryInterval: 100 * time.Millisecond,
			BackoffFactor: 2.0,
		},
	}

	for _, option := range options {
		option(memory)
	}

	return memory
}

// key builds the Redis key for the context's conversation
func (r *RedisMemory) key(conversationID string) string {
	return r.keyPrefix + conversationID
}

// AddMessage appends a message to the conversation's Redis list
func (r *RedisMemory) AddMessage(ctx context.Context, message interfaces.Message) error {
	conversationID, err := requireConversationID(ctx)
	if err != nil {
		return err
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if r.maxMessageSize > 0 && len(messageJSON) > r.maxMessageSize {
		return fmt.Errorf("message size exceeds maximum allowed size of %d bytes", r.maxMessageSize)
	}

	key := r.key(conversationID)

	var lastErr error
	for attempt := 0; attempt <= r.retryOptions.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(float64(r.retryOptions.RetryInterval) *
				math.Pow(r.retryOptions.BackoffFactor, float64(attempt-1)))
			time.Sleep(backoffDuration)
		}

		if err := r.client.RPush(ctx, key, messageJSON).Err(); err == nil {
			r.client.Expire(ctx, key, r.ttl)
			return nil
		} else {
			lastErr = err
		}
	}

	return fmt.Errorf("failed to add message to Redis after %d attempts: %w",
		r.retryOptions.MaxRetries, lastErr)
}

// GetMessages retrieves the conversation's messages from Redis
func (r *RedisMemory) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	conversationID, err := requireConversationID(ctx)
	if err != nil {
		return nil, err
	}

	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	results, err := r.client.LRange(ctx, r.key(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from Redis: %w", err)
	}

	messages := make([]interfaces.Message, 0, len(results))
	for _, result := range results {
		var message interfaces.Message
		if err := json.Unmarshal([]byte(result), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, message)
	}

	return filterMessages(messages, opts), nil
}

// Clear deletes the conversation's messages from Redis
func (r *RedisMemory) Clear(ctx context.Context) error {
	conversationID, err := requireConversationID(ctx)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(conversationID)).Err(); err != nil {
		return fmt.Errorf("failed to clear messages from Redis: %w", err)
	}
	return nil
}
