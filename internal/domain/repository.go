package domain

import "context"

// ListOptions paginates listings
type ListOptions struct {
	Limit  int
	Offset int
}

// LotRepository persists inventory lots. Every method is scoped to the tenant in ctx.
type LotRepository interface {
	Save(ctx context.Context, lot *InventoryLot) error
	// FindByID returns nil, nil when the lot does not exist
	FindByID(ctx context.Context, id string) (*InventoryLot, error)
	FindByIDs(ctx context.Context, ids []string) ([]*InventoryLot, error)
	// FindLatestByLotNumber returns the most recently created lot with lotNumber (ties go to
	// the highest id), or nil, nil
	FindLatestByLotNumber(ctx context.Context, lotNumber string) (*InventoryLot, error)
	FindAll(ctx context.Context, filter LotFilter) ([]*InventoryLot, error)
	Delete(ctx context.Context, id string) error

	// IncrementRemaining atomically adds delta to qtyRemaining and returns the lot as it is
	// after the increment, or nil, nil when the lot does not exist
	IncrementRemaining(ctx context.Context, id string, delta float64) (*InventoryLot, error)
	SetRemaining(ctx context.Context, id string, qty float64) error
	SetStatus(ctx context.Context, id string, status LotStatus) error
}

// DeliveryRepository persists deliveries
type DeliveryRepository interface {
	Save(ctx context.Context, delivery *Delivery) error
	// FindByID returns nil, nil when the delivery does not exist
	FindByID(ctx context.Context, id string) (*Delivery, error)
	FindAll(ctx context.Context, opts ListOptions) ([]*Delivery, error)
	// SetLineRemaining writes qtyRemaining of the line at index. The stored line must still
	// be line: same id, or for lines stored without an id, same lot number, product and unit.
	// matched is false when no such line exists.
	SetLineRemaining(ctx context.Context, deliveryID string, index int, line DeliveryLine, qty float64) (matched bool, err error)
}

// RecipeBatchRepository persists recipe batches
type RecipeBatchRepository interface {
	Save(ctx context.Context, batch *RecipeBatch) error
	Update(ctx context.Context, batch *RecipeBatch) error
	// FindByID returns nil, nil when the batch does not exist
	FindByID(ctx context.Context, id string) (*RecipeBatch, error)
	FindAll(ctx context.Context, opts ListOptions) ([]*RecipeBatch, error)
	Delete(ctx context.Context, id string) error
}

// RecallRepository persists recalls
type RecallRepository interface {
	Save(ctx context.Context, recall *Recall) error
	Update(ctx context.Context, recall *Recall) error
	// FindByID returns nil, nil when the recall does not exist
	FindByID(ctx context.Context, id string) (*Recall, error)
	FindAll(ctx context.Context, opts ListOptions) ([]*Recall, error)
	Delete(ctx context.Context, id string) error
}

// TransactionManager runs fn atomically. Repository calls made with the ctx passed to fn
// take part in the transaction; any error returned by fn rolls everything back.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventRecorder stores domain events alongside the state change that produced them
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}
