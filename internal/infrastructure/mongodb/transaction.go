package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	sharedmongo "github.com/kitchenops/inventory-ledger/pkg/mongodb"
)

// TransactionManager runs ledger operations in a MongoDB session transaction. The session
// context handed to fn wraps the caller's ctx, so tenant scope and request ids carry over.
// fn may run more than once when the driver retries a transient error.
type TransactionManager struct {
	client *sharedmongo.InstrumentedClient
}

// NewTransactionManager creates a new TransactionManager
func NewTransactionManager(client *sharedmongo.InstrumentedClient) *TransactionManager {
	return &TransactionManager{client: client}
}

// WithTransaction implements domain.TransactionManager
func (m *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
