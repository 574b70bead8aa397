package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errFetch = errors.New("fetch failed")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(3, time.Minute, WithClock(clock.Now))

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errFetch }); !errors.Is(err, errFetch) {
			t.Fatalf("attempt %d: expected fetch error, got %v", i, err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after 2 failures, got %s", cb.GetState())
	}

	// a success in between resets the streak
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.GetFailures() != 0 {
		t.Fatalf("expected failures reset, got %d", cb.GetFailures())
	}

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errFetch })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open, got %s", cb.GetState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitBreakerOpen) || called {
		t.Fatalf("expected open breaker to reject without calling, got err=%v called=%v", err, called)
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name      string
		trial     error
		wantState State
	}{
		{name: "trial succeeds", trial: nil, wantState: StateClosed},
		{name: "trial fails", trial: errFetch, wantState: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(1700000000, 0)}
			var transitions []string
			cb := NewCircuitBreaker(1, time.Minute, WithClock(clock.Now), OnStateChange(func(from, to State) {
				transitions = append(transitions, from.String()+"->"+to.String())
			}))

			_ = cb.Execute(func() error { return errFetch })
			clock.Advance(time.Minute)

			_ = cb.Execute(func() error { return tt.trial })
			if cb.GetState() != tt.wantState {
				t.Fatalf("expected %s, got %s", tt.wantState, cb.GetState())
			}
			if transitions[0] != "closed->open" || transitions[1] != "open->half-open" {
				t.Fatalf("unexpected transitions %v", transitions)
			}
		})
	}
}

func TestCircuitBreaker_SingleProbeWhileHalfOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(1, time.Second, WithClock(clock.Now))
	_ = cb.Execute(func() error { return errFetch })
	clock.Advance(2 * time.Second)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("expected second caller to be rejected during trial, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("trial: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after trial, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_CallerCancellationIsNotAFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.ExecuteContext(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if cb.GetState() != StateClosed || cb.GetFailures() != 0 {
		t.Fatalf("expected untouched breaker, got %s with %d failures", cb.GetState(), cb.GetFailures())
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	var nilBreaker *CircuitBreaker
	for _, cb := range []*CircuitBreaker{nilBreaker, NewCircuitBreaker(0, time.Minute)} {
		for i := 0; i < 10; i++ {
			if err := cb.Execute(func() error { return errFetch }); !errors.Is(err, errFetch) {
				t.Fatalf("expected pass-through error, got %v", err)
			}
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour)
	_ = cb.Execute(func() error { return errFetch })
	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after reset, got %s", cb.GetState())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(42): "unknown"}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
