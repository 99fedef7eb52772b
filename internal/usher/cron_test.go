package usher

import (
	"testing"
	"time"
)

func TestNextCronDuration(t *testing.T) {
	// A valid 5-field expression always has a future fire time.
	d := nextCronDuration("0 21 * * *")
	if d <= 0 || d > 24*time.Hour {
		t.Errorf("unexpected duration: %v", d)
	}

	if d := nextCronDuration("every day at nine"); d != 0 {
		t.Errorf("invalid expression should yield 0, got %v", d)
	}
	if d := nextCronDuration(""); d != 0 {
		t.Errorf("empty expression should yield 0, got %v", d)
	}
}
