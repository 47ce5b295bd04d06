package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	sharedmongo "github.com/kitchenops/inventory-ledger/pkg/mongodb"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// DeliveryCollection holds goods-receipt documents with their lines embedded
const DeliveryCollection = "deliveries"

// DeliveryRepository implements domain.DeliveryRepository for MongoDB
type DeliveryRepository struct {
	collection *sharedmongo.InstrumentedCollection
	tenant     *tenant.RepositoryHelper
}

// NewDeliveryRepository creates a new DeliveryRepository
func NewDeliveryRepository(client *sharedmongo.InstrumentedClient) *DeliveryRepository {
	return &DeliveryRepository{
		collection: client.Collection(DeliveryCollection),
		tenant:     tenant.NewRepositoryHelper(true),
	}
}

// EnsureIndexes creates the listing index
func (r *DeliveryRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "receivedAt", Value: -1}}},
	})
}

// Save inserts a new delivery
func (r *DeliveryRepository) Save(ctx context.Context, delivery *domain.Delivery) error {
	if _, err := r.collection.InsertOne(ctx, delivery); err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}
	return nil
}

// FindByID returns the delivery or nil
func (r *DeliveryRepository) FindByID(ctx context.Context, id string) (*domain.Delivery, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	var delivery domain.Delivery
	if err := r.collection.FindOne(ctx, filter).Decode(&delivery); err != nil {
		if sharedmongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

// FindAll lists deliveries, most recently received first
func (r *DeliveryRepository) FindAll(ctx context.Context, opts domain.ListOptions) ([]*domain.Delivery, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	page := sharedmongo.NewPagination(opts.Limit, opts.Offset)
	findOpts := options.Find().
		SetSort(bson.D{{Key: "receivedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Offset)

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	deliveries := make([]*domain.Delivery, 0)
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

// SetLineRemaining writes qtyRemaining of one line. The filter pins the line at index so
// a reordered document is never written through a stale position: by id, or by content
// for lines stored before line ids existed.
func (r *DeliveryRepository) SetLineRemaining(ctx context.Context, deliveryID string, index int, line domain.DeliveryLine, qty float64) (bool, error) {
	field := fmt.Sprintf("lines.%d", index)
	query := bson.M{"_id": deliveryID}
	if line.ID != "" {
		query[field+".id"] = line.ID
	} else {
		query[field+".id"] = bson.M{"$in": bson.A{nil, ""}}
		query[field+".lotNumber"] = line.LotNumber
		query[field+".productName"] = line.ProductName
		query[field+".unit"] = line.Unit
	}
	filter, err := r.tenant.WithTenantFilter(ctx, query)
	if err != nil {
		return false, err
	}

	result, err := r.collection.UpdateOne(ctx, filter, sharedmongo.BuildUpdateWithTimestamp(bson.M{field + ".qtyRemaining": qty}))
	if err != nil {
		return false, fmt.Errorf("failed to update delivery line: %w", err)
	}
	return result.MatchedCount > 0, nil
}
