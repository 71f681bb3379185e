// Package testutil holds shared test helpers.
package testutil

import (
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if CHATLINE_TEST_SKIP_NETWORK is set.
// Use this for tests that bind loopback sockets, which may not be available
// in sandboxed CI environments.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("CHATLINE_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: CHATLINE_TEST_SKIP_NETWORK is set")
	}
}
