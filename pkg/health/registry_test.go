package health

import (
	"context"
	"testing"
	"time"
)

func staticChecker(name string, status Status) Checker {
	return CheckerFunc(name, func(context.Context) CheckResult {
		return CheckResult{Status: status, Timestamp: time.Now()}
	})
}

func TestRegistry_Check(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]Status
		want     Status
		ready    bool
	}{
		{name: "empty", statuses: nil, want: StatusHealthy, ready: true},
		{name: "all healthy", statuses: map[string]Status{"storage": StatusHealthy, "catalogs": StatusHealthy}, want: StatusHealthy, ready: true},
		{name: "degraded", statuses: map[string]Status{"storage": StatusHealthy, "source": StatusDegraded}, want: StatusDegraded, ready: true},
		{name: "unhealthy wins", statuses: map[string]Status{"storage": StatusUnhealthy, "source": StatusDegraded}, want: StatusUnhealthy, ready: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			for name, status := range tt.statuses {
				registry.Register(staticChecker(name, status))
			}

			result := registry.Check(context.Background())
			if result.Status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, result.Status)
			}
			if result.IsHealthy() != tt.ready {
				t.Fatalf("expected ready=%v", tt.ready)
			}
			if len(result.Checks) != len(tt.statuses) {
				t.Fatalf("expected %d results, got %d", len(tt.statuses), len(result.Checks))
			}
			for i := 1; i < len(result.Checks); i++ {
				if result.Checks[i-1].Name > result.Checks[i].Name {
					t.Fatalf("results not sorted: %+v", result.Checks)
				}
			}
		})
	}
}

func TestRegistry_RegisterReplaceUnregister(t *testing.T) {
	registry := NewRegistry()
	registry.Register(staticChecker("storage", StatusUnhealthy))
	registry.Register(staticChecker("storage", StatusHealthy))
	registry.Register(staticChecker("catalogs", StatusHealthy))

	if names := registry.List(); len(names) != 2 || names[0] != "catalogs" || names[1] != "storage" {
		t.Fatalf("unexpected names %v", names)
	}
	result, err := registry.CheckOne(context.Background(), "storage")
	if err != nil {
		t.Fatalf("CheckOne: %v", err)
	}
	if result.Status != StatusHealthy || result.Name != "storage" {
		t.Fatalf("expected replaced checker, got %+v", result)
	}

	registry.Unregister("storage")
	if _, err := registry.CheckOne(context.Background(), "storage"); err == nil {
		t.Fatal("expected unknown checker error")
	}
}

func TestRegistry_ChecksRunConcurrently(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		registry.Register(CheckerFunc(name, func(context.Context) CheckResult {
			time.Sleep(50 * time.Millisecond)
			return CheckResult{Status: StatusHealthy}
		}))
	}

	start := time.Now()
	registry.Check(context.Background())
	if elapsed := time.Since(start); elapsed > 140*time.Millisecond {
		t.Fatalf("checks appear to run sequentially: %v", elapsed)
	}
}
