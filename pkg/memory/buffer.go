package memory

import (
	"context"
	"sync"

	"github.com/pipewise/maestro/pkg/interfaces"
)

// ConversationBuffer implements a simple in-memory conversation store,
// keyed by the conversation ID carried in the context
type ConversationBuffer struct {
	messages map[string][]interfaces.Message
	maxSize  int
	mu       sync.RWMutex
}

// BufferOption configures a ConversationBuffer
type BufferOption func(*ConversationBuffer)

// WithMaxSize sets the maximum number of messages kept per conversation
func WithMaxSize(size int) BufferOption {
	return func(c *ConversationBuffer) {
		c.maxSize = size
	}
}

// NewConversationBuffer creates a new conversation buffer
func NewConversationBuffer(options ...BufferOption) *ConversationBuffer {
	buffer := &ConversationBuffer{
		messages: make(map[string][]interfaces.Message),
		maxSize:  100,
	}

	for _, option := range options {
		option(buffer)
	}

	return buffer
}

// AddMessage adds a message to the buffer
func (c *ConversationBuffer) AddMessage(ctx context.Context, message interfaces.Message) error {
	conversationID, err := requireConversationID(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages[conversationID] = append(c.messages[conversationID], message)

	// Keep only the most recent maxSize messages
	if c.maxSize > 0 && len(c.messages[conversationID]) > c.maxSize {
		c.messages[conversationID] = c.messages[conversationID][len(c.messages[conversationID])-c.maxSize:]
	}

	return nil
}

// GetMessages retrieves messages from the buffer
func (c *ConversationBuffer) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	conversationID, err := requireConversationID(ctx)
	if err != nil {
		return nil, err
	}

	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	messages := filterMessages(c.messages[conversationID], opts)
	return messages, nil
}

// Clear removes all messages for the context's conversation
func (c *ConversationBuffer) Clear(ctx context.Context) error {
	conversationID, err := requireConversationID(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.messages, conversationID)
	return nil
}

// filterMessages applies role filtering and the limit option, returning a
// copy so callers never alias the store's backing slice
func filterMessages(messages []interfaces.Message, opts *interfaces.GetMessagesOptions) []interfaces.Message {
	filtered := make([]interfaces.Message, 0, len(messages))

	if len(opts.Roles) > 0 {
		wanted := make(map[string]struct{}, len(opts.Roles))
		for _, role := range opts.Roles {
			wanted[role] = struct{}{}
		}
		for _, msg := range messages {
			if _, ok := wanted[msg.Role]; ok {
				filtered = append(filtered, msg)
			}
		}
	} else {
		filtered = append(filtered, messages...)
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[len(filtered)-opts.Limit:]
	}

	return filtered
}
