package testutil

import (
	"os"
	"testing"
)

// RequireIntegration skips tests that need Docker-backed services unless
// INTEGRATION_TESTS is set. Short mode always skips.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("skipping integration test (set INTEGRATION_TESTS=1 to run)")
	}
}
