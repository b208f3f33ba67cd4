package id

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID32_FormatAndDecode(t *testing.T) {
	got := NewID32()

	if !IsID32(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("hex.DecodeString error: %v", err)
	}
	u, err := uuid.FromBytes(b)
	if err != nil {
		t.Fatalf("uuid.FromBytes: %v", err)
	}
	if u.Version() != 4 {
		t.Fatalf("uuid version = %d, want 4", u.Version())
	}
}

func TestNewID32_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewID32()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsID32(t *testing.T) {
	for _, s := range []string{"", strings.Repeat("A", 32), strings.Repeat("a", 31), "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"} {
		if IsID32(s) {
			t.Fatalf("IsID32(%q) = true", s)
		}
	}
}
