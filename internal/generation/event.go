package generation

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// Event is one observable step of a run.
type Event struct {
	Phase    Phase          `json:"phase"`
	Message  string         `json:"message"`
	Progress int            `json:"progress"`
	Data     map[string]any `json:"data,omitempty"`
}

// Sink observes the events of a run. Emit is called from the goroutine
// executing the run, in order.
type Sink interface {
	Emit(Event)
}

// DiscardSink drops every event.
type DiscardSink struct{}

func (DiscardSink) Emit(Event) {}

// BufferSink collects events for the non-streaming response.
type BufferSink struct {
	mu     sync.Mutex
	events []Event
}

func (b *BufferSink) Emit(ev Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

// Events returns a copy of the collected events.
func (b *BufferSink) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// SSEEventName is the server-sent event name used for every progress frame.
const SSEEventName = "progress"

// SSESink writes events as server-sent events. Once the client has gone
// away or a terminal event was written, further events are dropped; the
// run itself keeps going.
type SSESink struct {
	c      *gin.Context
	gone   <-chan struct{}
	closed bool
}

// NewSSESink prepares the response for streaming. Headers are written on
// the first event.
func NewSSESink(c *gin.Context) *SSESink {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &SSESink{c: c, gone: c.Request.Context().Done()}
}

func (s *SSESink) Emit(ev Event) {
	if s.closed {
		return
	}
	select {
	case <-s.gone:
		s.closed = true
		return
	default:
	}
	s.c.SSEvent(SSEEventName, ev)
	s.c.Writer.Flush()
	if ev.Phase.Terminal() {
		s.closed = true
	}
}

// Closed reports whether the sink stopped forwarding events.
func (s *SSESink) Closed() bool { return s.closed }
