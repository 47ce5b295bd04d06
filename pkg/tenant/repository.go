package tenant

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// RepositoryHelper provides tenant-aware query building for MongoDB repositories.
type RepositoryHelper struct {
	// EnforceTenant when true, returns an error if tenant context is missing
	EnforceTenant bool
}

// NewRepositoryHelper creates a new RepositoryHelper
func NewRepositoryHelper(enforceTenant bool) *RepositoryHelper {
	return &RepositoryHelper{EnforceTenant: enforceTenant}
}

func scoped(tc *Context, filter bson.M) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	if tc.TenantID != "" {
		out["tenantId"] = tc.TenantID
	}
	if tc.RestaurantID != "" {
		out["restaurantId"] = tc.RestaurantID
	}
	return out
}

// WithTenantFilter copies filter and adds the tenant and restaurant conditions found in ctx.
func (h *RepositoryHelper) WithTenantFilter(ctx context.Context, filter bson.M) (bson.M, error) {
	tc, err := FromContext(ctx)
	if err != nil {
		if h.EnforceTenant {
			return nil, err
		}
		return filter, nil
	}
	return scoped(tc, filter), nil
}
