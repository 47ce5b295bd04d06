package tenant

import (
	"context"
	"errors"
)

type contextKey string

const (
	tenantIDKey     contextKey = "tenantId"
	restaurantIDKey contextKey = "restaurantId"
	actorIDKey      contextKey = "actorId"
)

var (
	ErrMissingTenantContext = errors.New("tenant context is required")
)

// Context scopes every ledger read and write to one back-office tenant.
type Context struct {
	// TenantID is the restaurant group (the back-office account).
	TenantID string `json:"tenantId"`

	// RestaurantID narrows the scope to a single site of the group. Optional.
	RestaurantID string `json:"restaurantId,omitempty"`

	// ActorID is the opaque identity supplied by the upstream auth layer.
	ActorID string `json:"actorId,omitempty"`
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// FromContext extracts the tenant Context. A TenantID is mandatory.
func FromContext(ctx context.Context) (*Context, error) {
	tc := &Context{
		TenantID:     stringValue(ctx, tenantIDKey),
		RestaurantID: stringValue(ctx, restaurantIDKey),
		ActorID:      stringValue(ctx, actorIDKey),
	}
	if tc.TenantID == "" {
		return nil, ErrMissingTenantContext
	}
	return tc, nil
}

// FromContextOptional is FromContext without the TenantID requirement.
func FromContextOptional(ctx context.Context) *Context {
	tc, _ := FromContext(ctx)
	if tc == nil {
		return &Context{
			RestaurantID: stringValue(ctx, restaurantIDKey),
			ActorID:      stringValue(ctx, actorIDKey),
		}
	}
	return tc
}

// ToContext adds tenant values to ctx.
func ToContext(ctx context.Context, tc *Context) context.Context {
	if tc == nil {
		return ctx
	}
	if tc.TenantID != "" {
		ctx = context.WithValue(ctx, tenantIDKey, tc.TenantID)
	}
	if tc.RestaurantID != "" {
		ctx = context.WithValue(ctx, restaurantIDKey, tc.RestaurantID)
	}
	if tc.ActorID != "" {
		ctx = context.WithValue(ctx, actorIDKey, tc.ActorID)
	}
	return ctx
}

// GetTenantID extracts tenant ID from context
func GetTenantID(ctx context.Context) string {
	return stringValue(ctx, tenantIDKey)
}

// GetActorID extracts the current actor from context
func GetActorID(ctx context.Context) string {
	return stringValue(ctx, actorIDKey)
}

// DefaultTenantID is a placeholder tenant for routes mounted with an optional tenant.
const DefaultTenantID = "DEFAULT_TENANT"
