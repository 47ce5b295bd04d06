package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestInstrumentedClient_CollectionUsesConfiguredDatabase(t *testing.T) {
	// Connect does not dial; no server is needed to resolve handles
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	cfg := DefaultConfig()
	cfg.Database = "ledger_test"
	coll := NewInstrumentedClient(Wrap(client, cfg), nil, nil).Collection("inventory_lots")

	assert.Equal(t, "inventory_lots", coll.name)
	assert.Equal(t, "ledger_test", coll.database)
	assert.Equal(t, "inventory_lots", coll.collection.Name())
	assert.Equal(t, "ledger_test", coll.collection.Database().Name())
}
