package health

import (
	"context"
	"time"
)

const checkTimeout = 2 * time.Second

// Pinger is any dependency that can report liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Service encapsulates health-related checks.
type Service struct {
	checks map[string]Pinger
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Pinger{}}
}

// Register adds a named dependency check. Nil pingers are ignored.
func (s *Service) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	s.checks[name] = p
}

// Status runs every check and reports per-dependency state. ok is false
// when any registered dependency failed.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	ok := true
	deps := make(map[string]string, len(s.checks))
	for name, p := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.PingContext(cctx)
		cancel()
		if err != nil {
			ok = false
			deps[name] = "down"
			continue
		}
		deps[name] = "up"
	}
	payload := map[string]any{"ok": ok}
	if len(deps) > 0 {
		payload["dependencies"] = deps
	}
	return payload, ok
}
