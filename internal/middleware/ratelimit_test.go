package middleware

import (
	"testing"
	"time"
)

func TestTokenBucketBurstThenDeny(t *testing.T) {
	tb := NewTokenBucket(3, 0)
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("call %d should be within the burst", i+1)
		}
	}
	if tb.Allow() {
		t.Error("bucket should be empty after the burst")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(1, 100)
	if !tb.Allow() {
		t.Fatal("first call should pass")
	}
	if tb.Allow() {
		t.Fatal("bucket should be drained")
	}
	time.Sleep(50 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestPerMinuteRateLimiterRate(t *testing.T) {
	rl := NewPerMinuteRateLimiter(30)
	tb := rl.bucketFor("user")
	if tb.capacity != 30 {
		t.Errorf("burst capacity = %v, want 30", tb.capacity)
	}
	// steady state must be the configured per-minute figure, not 60/min
	if got := tb.refillRate * 60; got != 30 {
		t.Errorf("steady-state rate = %v/min, want 30/min", got)
	}

	other := rl.bucketFor("someone-else")
	if other == tb {
		t.Error("buckets must be per caller")
	}
}
