package session

import (
	"testing"
	"time"

	"github.com/danmuck/ircbot/internal/testutil/testlog"
)

func TestBackoffSequenceForConsecutiveFaults(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultBackoffConfig()

	want := []time.Duration{2, 4, 8, 16, 32, 64, 128, 256, 2, 4}
	attempt := 0
	for i, seconds := range want {
		attempt = NextBackoffAttempt(cfg, attempt)
		if got := BackoffDelay(cfg, attempt); got != seconds*time.Second {
			t.Fatalf("fault %d: expected %v, got %v", i+1, seconds*time.Second, got)
		}
	}
}

func TestNextBackoffAttemptWrapsOutOfRange(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultBackoffConfig()
	if got := NextBackoffAttempt(cfg, 8); got != 1 {
		t.Fatalf("attempt after cap: expected 1, got %d", got)
	}
	if got := NextBackoffAttempt(cfg, -3); got != 1 {
		t.Fatalf("negative attempt: expected 1, got %d", got)
	}
	if got := NextBackoffAttempt(cfg, 42); got != 1 {
		t.Fatalf("oversized attempt: expected 1, got %d", got)
	}
}

func TestBackoffDelayClamps(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{Unit: time.Millisecond, MaxExponent: 3}
	if got := BackoffDelay(cfg, 0); got != 2*time.Millisecond {
		t.Fatalf("attempt 0: expected 2ms, got %v", got)
	}
	if got := BackoffDelay(cfg, 10); got != 8*time.Millisecond {
		t.Fatalf("attempt 10: expected 8ms, got %v", got)
	}
	if got := BackoffDelay(BackoffConfig{}, 4); got != 0 {
		t.Fatalf("zero unit: expected 0, got %v", got)
	}
}
