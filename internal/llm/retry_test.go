package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "server error", err: errors.New("openai http status 503: overloaded"), want: true},
		{name: "rate limited", err: errors.New("openai http status 429: slow down"), want: true},
		{name: "bad request", err: errors.New("openai http status 400: invalid"), want: false},
		{name: "reset", err: errors.New("read: connection reset by peer"), want: true},
		{name: "not implemented", err: ErrNotImplemented, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryingClientRetriesOnce(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("openai http status 502: bad gateway")
		}
		return `{"ok":true}`, nil
	})
	client := retryingClient{base: base, delay: time.Millisecond}

	out, err := client.Complete(context.Background(), Request{PromptID: PromptKeywordsV1})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"ok":true}` || calls != 2 {
		t.Fatalf("expected success on second call, got out=%q calls=%d", out, calls)
	}
}

func TestRetryingClientDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "", errors.New("openai http status 401: bad key")
	})
	client := retryingClient{base: base, delay: time.Millisecond}

	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestPromptRender(t *testing.T) {
	p, ok := PromptByID(PromptKeywordsV1)
	if !ok {
		t.Fatalf("keywords prompt missing")
	}
	req := p.Request(map[string]string{"MAX_KEYWORDS": "40", "TARGET_POSTING": "Go engineer"})
	if req.PromptID != PromptKeywordsV1 || req.System == "" {
		t.Fatalf("unexpected request: %+v", req)
	}
	for _, want := range []string{"at most 40 keywords", "Go engineer"} {
		if !strings.Contains(req.User, want) {
			t.Fatalf("rendered prompt missing %q", want)
		}
	}
	if _, ok := PromptByID("v0"); ok {
		t.Fatalf("expected unknown prompt id")
	}
}
