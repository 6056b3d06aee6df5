package shared

import (
	"strings"
	"testing"
)

func TestNewCompanyID(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id, err := NewCompanyID()
		if err != nil {
			t.Fatalf("new company id: %v", err)
		}
		if len(id) != 10 {
			t.Fatalf("expected 10-char id, got %q", id)
		}
		for _, r := range id {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrst", r) {
				t.Fatalf("unexpected character %q in id %q", r, id)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}
