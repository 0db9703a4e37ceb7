package util

import "testing"

func TestHashIdentityKey(t *testing.T) {
	id := "google:12345"
	got := HashIdentityKey(id)
	if got != HashIdentityKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	if short := ShortHash(id, 8); short != got[:8] {
		t.Fatalf("expected short hash prefix, got %s", short)
	}
}

func TestSlugAndTail(t *testing.T) {
	if got := Slug("Google:User_ABC-123"); got != "googleuserabc123" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := Tail("abcdef", 3); got != "def" {
		t.Fatalf("unexpected tail %q", got)
	}
	if got := Tail("ab", 3); got != "ab" {
		t.Fatalf("unexpected short tail %q", got)
	}
}
