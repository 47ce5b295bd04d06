package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kitchenops/inventory-ledger/pkg/errors"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// Tenant headers set by the upstream gateway
const (
	HeaderTenantID     = "X-Tenant-ID"
	HeaderRestaurantID = "X-Restaurant-ID"
	HeaderActorID      = "X-Actor-ID"
)

const contextKeyTenant = "tenantContext"

// TenantAuthConfig configures TenantAuth
type TenantAuthConfig struct {
	// Required rejects requests without X-Tenant-ID
	Required bool
	// DefaultTenantID is used when the header is missing and Required is false
	DefaultTenantID string
}

// RequireTenantAuth rejects requests that carry no tenant.
func RequireTenantAuth() gin.HandlerFunc {
	return TenantAuth(TenantAuthConfig{Required: true})
}

// TenantAuth resolves the tenant scope from headers and stores it on the request context.
func TenantAuth(config TenantAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := &tenant.Context{
			TenantID:     strings.TrimSpace(c.GetHeader(HeaderTenantID)),
			RestaurantID: strings.TrimSpace(c.GetHeader(HeaderRestaurantID)),
			ActorID:      strings.TrimSpace(c.GetHeader(HeaderActorID)),
		}

		if tc.TenantID == "" {
			if config.Required {
				AbortWithAppError(c, errors.NewAppError("MISSING_TENANT_CONTEXT",
					HeaderTenantID+" header is required", 401))
				return
			}
			tc.TenantID = config.DefaultTenantID
		}

		ctx := tenant.ToContext(c.Request.Context(), tc)
		ctx = logging.ContextWithTenant(ctx, tc.TenantID, tc.ActorID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKeyTenant, tc)

		c.Next()
	}
}

// GetTenantContext returns the tenant resolved by TenantAuth, or nil
func GetTenantContext(c *gin.Context) *tenant.Context {
	if v, ok := c.Get(contextKeyTenant); ok {
		if tc, ok := v.(*tenant.Context); ok {
			return tc
		}
	}
	return nil
}
