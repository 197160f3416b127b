package memory

import (
	"context"

	"github.com/pipewise/maestro/pkg/resilience"
)

type contextKey string

// conversationIDKey is the key used to store the conversation ID in context
const conversationIDKey contextKey = "conversation_id"

// WithConversationID adds a conversation ID to the context
func WithConversationID(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, conversationIDKey, conversationID)
}

// GetConversationID retrieves the conversation ID from the context
func GetConversationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(conversationIDKey).(string)
	return id, ok
}

// requireConversationID returns the conversation ID or a validation error
func requireConversationID(ctx context.Context) (string, error) {
	id, ok := GetConversationID(ctx)
	if !ok || id == "" {
		return "", resilience.New(resilience.KindValidation, resilience.SeverityMedium,
			"no conversation ID found in context")
	}
	return id, nil
}
