package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTestTimeout bounds contexts created by TestContext
const DefaultTestTimeout = 10 * time.Second

// TestContext returns a context that is cancelled when the test ends or after
// DefaultTestTimeout, whichever is first.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	t.Cleanup(cancel)
	return ctx
}
