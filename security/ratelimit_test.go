package security

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Error("first request should be allowed")
	}
	if !rl.Allow("1.2.3.4") {
		t.Error("second request should be allowed within burst")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should exceed burst")
	}

	// A different identifier has its own bucket
	if !rl.Allow("5.6.7.8") {
		t.Error("request from different identifier should be allowed")
	}
}

func TestRateLimiterLRUEviction(t *testing.T) {
	rl := NewRateLimiterWithConfig(1, 1, 3, nil)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("10.0.0.%d", i))
	}

	stats := rl.GetStats()
	if stats.CurrentEntries != 3 {
		t.Errorf("expected 3 tracked entries, got %d", stats.CurrentEntries)
	}
	if stats.TotalEvictions != 2 {
		t.Errorf("expected 2 evictions, got %d", stats.TotalEvictions)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiterWithConfig(1, 1, 0, nil)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	time.Sleep(10 * time.Millisecond)
	rl.Cleanup(time.Millisecond)

	if got := rl.GetStats().CurrentEntries; got != 0 {
		t.Errorf("expected all idle entries removed, got %d", got)
	}
}
