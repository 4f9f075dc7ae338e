package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock records requested sleep durations instead of sleeping.
type fakeClock struct {
	slept []time.Duration
}

func (c *fakeClock) sleep(d time.Duration) { c.slept = append(c.slept, d) }

func TestSucceedsAfterRetries(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	b := Backoff{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: clock.sleep}

	err := b.Run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("gateway unreachable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(clock.slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), clock.slept)
	}
	for i, d := range want {
		if clock.slept[i] != d {
			t.Fatalf("sleep %d: expected %v, got %v", i, d, clock.slept[i])
		}
	}
}

func TestStopsAtFirstSuccess(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	b := Backoff{MaxAttempts: 5, BaseDelay: time.Millisecond, Sleep: clock.sleep}

	if err := b.Run(context.Background(), func() error { calls++; return nil }); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", clock.slept)
	}
}

func TestExhaustsAttempts(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	cause := errors.New("invalid token")
	b := Backoff{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleep: clock.sleep}

	err := b.Run(context.Background(), func() error { calls++; return cause })
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected last attempt error in chain, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", calls)
	}
	// One sleep between the two attempts, none after the last.
	if len(clock.slept) != 1 || clock.slept[0] != time.Millisecond {
		t.Fatalf("unexpected sleeps: %v", clock.slept)
	}
}

func TestReportsRetries(t *testing.T) {
	var reported []int
	b := Backoff{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Sleep:       func(time.Duration) {},
		OnRetry:     func(attempt int, err error) { reported = append(reported, attempt) },
	}

	_ = b.Run(context.Background(), func() error { return errors.New("down") })
	if len(reported) != 2 || reported[0] != 1 || reported[1] != 2 {
		t.Fatalf("expected retry reports for attempts 1 and 2, got %v", reported)
	}
}

func TestHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	b := Backoff{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: func(time.Duration) {}}
	err := b.Run(ctx, func() error { calls++; return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no attempts after cancellation, got %d", calls)
	}
}
