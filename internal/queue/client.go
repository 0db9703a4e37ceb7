package queue

import (
	"context"
	"sync"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// NoopClient drops every message. Used when QUEUE_BACKEND is "none".
type NoopClient struct{}

func (NoopClient) Send(ctx context.Context, msg Message) error {
	_ = msg
	return ctx.Err()
}

// MemoryClient records sent messages; used in tests and local runs.
type MemoryClient struct {
	mu   sync.Mutex
	Err  error
	sent []Message
}

func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MemoryClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
