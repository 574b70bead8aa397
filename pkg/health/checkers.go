package health

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultTimeout bounds adapter checks created with a zero timeout.
const DefaultTimeout = 3 * time.Second

// Checkable is implemented by storage adapters and other backends that can
// report their own health.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// AdapterChecker checks a Checkable under a timeout.
type AdapterChecker struct {
	name    string
	adapter Checkable
	timeout time.Duration
}

// NewAdapterChecker creates a checker for adapter.
func NewAdapterChecker(name string, adapter Checkable, timeout time.Duration) *AdapterChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AdapterChecker{name: name, adapter: adapter, timeout: timeout}
}

// Check runs the adapter's HealthCheck.
func (c *AdapterChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.adapter.HealthCheck(checkCtx)
	result := CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "OK",
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = ""
		result.Error = err.Error()
	}
	return result
}

// Name returns the name of the health check
func (c *AdapterChecker) Name() string {
	return c.name
}

// NewDirChecker reports whether the catalog root exists and is a directory.
func NewDirChecker(name, dir string) Checker {
	return CheckerFunc(name, func(context.Context) CheckResult {
		result := CheckResult{Status: StatusHealthy, Message: dir, Timestamp: time.Now()}
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			result.Status, result.Error = StatusUnhealthy, err.Error()
		case !info.IsDir():
			result.Status, result.Error = StatusUnhealthy, fmt.Sprintf("%s is not a directory", dir)
		}
		return result
	})
}
