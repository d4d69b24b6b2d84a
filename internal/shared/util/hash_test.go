package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "guest:4e9d0f"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
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
	if HashUserKey("guest:4e9d0f") == HashUserKey("guest:other") {
		t.Fatal("distinct user ids must not collide on the obvious case")
	}
}
