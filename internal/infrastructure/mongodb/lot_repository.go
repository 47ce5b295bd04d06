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

// LotCollection holds one document per inventory lot
const LotCollection = "inventory_lots"

// LotRepository implements domain.LotRepository for MongoDB
type LotRepository struct {
	collection *sharedmongo.InstrumentedCollection
	tenant     *tenant.RepositoryHelper
}

// NewLotRepository creates a new LotRepository
func NewLotRepository(client *sharedmongo.InstrumentedClient) *LotRepository {
	return &LotRepository{
		collection: client.Collection(LotCollection),
		tenant:     tenant.NewRepositoryHelper(true),
	}
}

// EnsureIndexes creates the lookup indexes used by the ledger
func (r *LotRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "lotNumber", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "receptionId", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "productName", Value: 1}}},
	})
}

func (r *LotRepository) byID(ctx context.Context, id string) (bson.M, error) {
	return r.tenant.WithTenantFilter(ctx, bson.M{"_id": id})
}

// Save inserts a new lot
func (r *LotRepository) Save(ctx context.Context, lot *domain.InventoryLot) error {
	if _, err := r.collection.InsertOne(ctx, lot); err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}
	return nil
}

// FindByID returns the lot or nil when it does not exist in the caller's tenant
func (r *LotRepository) FindByID(ctx context.Context, id string) (*domain.InventoryLot, error) {
	filter, err := r.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	var lot domain.InventoryLot
	if err := r.collection.FindOne(ctx, filter).Decode(&lot); err != nil {
		if sharedmongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

// FindByIDs returns the existing lots among ids, in no particular order
func (r *LotRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.InventoryLot, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return r.find(ctx, filter, options.Find())
}

// FindLatestByLotNumber returns the newest lot carrying lotNumber. Lots created in the
// same millisecond are ordered by id, which is time-ordered.
func (r *LotRepository) FindLatestByLotNumber(ctx context.Context, lotNumber string) (*domain.InventoryLot, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"lotNumber": lotNumber})
	if err != nil {
		return nil, err
	}
	opts := options.FindOne().SetSort(sharedmongo.SortMultiple(
		sharedmongo.SortField{Field: "createdAt", Descending: true},
		sharedmongo.SortField{Field: "_id", Descending: true},
	))

	var lot domain.InventoryLot
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&lot); err != nil {
		if sharedmongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

// FindAll lists lots matching filter, newest first
func (r *LotRepository) FindAll(ctx context.Context, f domain.LotFilter) ([]*domain.InventoryLot, error) {
	query := bson.M{}
	if f.ProductName != "" {
		query["productName"] = f.ProductName
	}
	if f.LotNumber != "" {
		query["lotNumber"] = f.LotNumber
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.ReceptionID != "" {
		query["receptionId"] = f.ReceptionID
	}
	filter, err := r.tenant.WithTenantFilter(ctx, query)
	if err != nil {
		return nil, err
	}

	page := sharedmongo.NewPagination(f.Limit, f.Offset)
	opts := options.Find().
		SetSort(sharedmongo.SortMultiple(
			sharedmongo.SortField{Field: "createdAt", Descending: true},
			sharedmongo.SortField{Field: "_id", Descending: true},
		)).
		SetLimit(page.Limit).
		SetSkip(page.Offset)
	return r.find(ctx, filter, opts)
}

func (r *LotRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.InventoryLot, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lots := make([]*domain.InventoryLot, 0)
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// Delete removes a lot
func (r *LotRepository) Delete(ctx context.Context, id string) error {
	filter, err := r.byID(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, filter)
	return err
}

// IncrementRemaining adds delta to qtyRemaining with a single $inc and returns the lot as
// stored afterwards.
func (r *LotRepository) IncrementRemaining(ctx context.Context, id string, delta float64) (*domain.InventoryLot, error) {
	filter, err := r.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var lot domain.InventoryLot
	err = r.collection.FindOneAndUpdate(ctx, filter, sharedmongo.BuildIncrementUpdate("qtyRemaining", delta), opts).Decode(&lot)
	if err != nil {
		if sharedmongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

// SetRemaining overwrites qtyRemaining
func (r *LotRepository) SetRemaining(ctx context.Context, id string, qty float64) error {
	return r.set(ctx, id, bson.M{"qtyRemaining": qty})
}

// SetStatus overwrites status
func (r *LotRepository) SetStatus(ctx context.Context, id string, status domain.LotStatus) error {
	return r.set(ctx, id, bson.M{"status": status})
}

func (r *LotRepository) set(ctx context.Context, id string, fields bson.M) error {
	filter, err := r.byID(ctx, id)
	if err != nil {
		return err
	}
	result, err := r.collection.UpdateOne(ctx, filter, sharedmongo.BuildUpdateWithTimestamp(fields))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return &domain.LotNotFoundError{LotID: id}
	}
	return nil
}
