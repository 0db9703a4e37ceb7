package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	payload, ok := NewService().Status(context.Background())
	if !ok || payload["ok"] != true {
		t.Fatalf("expected ok, got %+v", payload)
	}
	if _, present := payload["dependencies"]; present {
		t.Fatalf("expected no dependencies block")
	}
}

func TestStatusReportsFailingDependency(t *testing.T) {
	svc := NewService()
	svc.Register("postgres", PingFunc(func(ctx context.Context) error { return nil }))
	svc.Register("redis", PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }))
	svc.Register("ignored", nil)

	payload, ok := svc.Status(context.Background())
	if ok {
		t.Fatalf("expected degraded status")
	}
	deps := payload["dependencies"].(map[string]string)
	if deps["postgres"] != "up" || deps["redis"] != "down" || len(deps) != 2 {
		t.Fatalf("unexpected dependencies: %+v", deps)
	}
}
