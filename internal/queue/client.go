package queue

import (
	"context"
	"sync"
)

// Client publishes activity notifications.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// MemoryClient keeps sent messages in memory. It stands in for SQS when
// no queue is configured and in tests.
type MemoryClient struct {
	mu   sync.Mutex
	sent []Message
}

// Send records msg.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of every recorded message.
func (m *MemoryClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

var _ Client = (*MemoryClient)(nil)

// HandlerFunc consumes one message.
type HandlerFunc func(ctx context.Context, msg Message) error

// Inline delivers each message to h synchronously. It replaces SQS when
// the consumer runs inside the API process.
func Inline(h HandlerFunc) Client {
	return inlineClient{h: h}
}

type inlineClient struct {
	h HandlerFunc
}

func (c inlineClient) Send(ctx context.Context, msg Message) error {
	return c.h(ctx, msg)
}
