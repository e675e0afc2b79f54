package assert

import (
	"strings"
	"testing"
)

func TestThat(t *testing.T) {
	That(true, "never")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "double lock at 3,4") {
			t.Fatalf("unexpected panic value %v", r)
		}
	}()
	That(false, "double lock at %d,%d", 3, 4)
}
