package order

import (
	"strings"
	"testing"
)

func TestNewOrderNoFormat(t *testing.T) {
	no := NewOrderNo()
	if !strings.HasPrefix(no, "ORD") {
		t.Fatalf("expected ORD prefix, got %s", no)
	}
	if len(no) != 23 {
		t.Fatalf("expected 23 characters, got %d (%s)", len(no), no)
	}
	suffix := no[17:]
	for _, r := range suffix {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			t.Fatalf("suffix must be uppercase alphanumeric, got %s", suffix)
		}
	}
}

func TestNewOrderNoVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		no := NewOrderNo()
		if seen[no] {
			t.Fatalf("duplicate order no %s within 100 draws", no)
		}
		seen[no] = true
	}
}
