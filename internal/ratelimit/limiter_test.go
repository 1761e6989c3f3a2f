package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllow_ExceedsBurst(t *testing.T) {
	l := NewLimiter(1.0, 2)

	if !l.Allow("key1") || !l.Allow("key1") {
		t.Fatal("requests within burst should be allowed")
	}
	if l.Allow("key1") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	now := time.Now()
	l := NewLimiter(10.0, 2) // 10 tokens/sec
	l.nowFunc = func() time.Time { return now }

	l.Allow("key1")
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("expected rejection after burst")
	}

	// 10 * 0.2 = 2 tokens refilled
	now = now.Add(200 * time.Millisecond)

	if !l.Allow("key1") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)

	l.Allow("10.0.0.1")
	if l.Allow("10.0.0.1") {
		t.Error("first client should be exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client should be allowed (independent bucket)")
	}
}

func TestAllow_BurstDoesNotExceedMax(t *testing.T) {
	now := time.Now()
	l := NewLimiter(100.0, 3)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("key1")
	}

	// Would refill 1000 tokens uncapped
	now = now.Add(10 * time.Second)

	for i := 0; i < 3; i++ {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed after refill capped at burst", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("4th request should be rejected (burst cap)")
	}
}

func TestAllow_ZeroRate(t *testing.T) {
	l := NewLimiter(0.0, 2)

	l.Allow("key1")
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("should be rejected with zero rate")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1000.0, 100)
	l.nowFunc = func() time.Time { return now }

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}

	wg.Wait()
	close(allowed)

	allowedCount := 0
	for a := range allowed {
		if a {
			allowedCount++
		}
	}

	// Frozen clock: exactly the burst gets through.
	if allowedCount != 100 {
		t.Errorf("allowed %d requests, want 100", allowedCount)
	}
}

func TestToolRateLimits(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst int
	}{
		{"swipesim_run", 3},
		{"swipesim_formula_curve", 10},
		{"swipesim_formula_check", 10},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing rate limiter for tool: %s", tt.tool)
			}
			if limiter.burst != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.burst, tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := ToolLimiters{"swipesim_run": NewLimiter(0, 1)}

	if err := CheckLimit(limiters, "swipesim_run"); err != nil {
		t.Errorf("unexpected error for first call: %v", err)
	}
	if err := CheckLimit(limiters, "swipesim_run"); err == nil {
		t.Error("expected rate limit error after burst exhaustion")
	}
	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unexpected error for unknown tool: %v", err)
	}
}
