package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("operation timed out")

// TimeoutError reports which operation ran past its budget.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("operation timed out after %s", e.After)
	}
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

// Is makes errors.Is(err, ErrTimeout) hold.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// WithTimeout runs fn under a deadline of timeout and returns a *TimeoutError
// once it passes, without waiting for fn to notice. A timeout <= 0 hands ctx
// through untouched.
func WithTimeout(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn(runCtx) }()

	select {
	case err := <-result:
		return err
	case <-runCtx.Done():
	}
	if ctx.Err() != nil {
		// the caller gave up first
		return ctx.Err()
	}
	return &TimeoutError{Op: op, After: timeout}
}
