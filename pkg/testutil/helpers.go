package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// AssertEventually fails the test if condition does not hold within timeout.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}
	}
}

// TenantContext returns a context scoped to tenantID and restaurantID.
func TenantContext(tenantID, restaurantID string) context.Context {
	return tenant.ToContext(context.Background(), &tenant.Context{
		TenantID:     tenantID,
		RestaurantID: restaurantID,
		ActorID:      "test-actor",
	})
}
