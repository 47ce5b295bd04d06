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

const RecipeBatchCollection = "recipe_batches"

// RecipeBatchRepository implements domain.RecipeBatchRepository for MongoDB
type RecipeBatchRepository struct {
	collection *sharedmongo.InstrumentedCollection
	tenant     *tenant.RepositoryHelper
}

// NewRecipeBatchRepository creates a new RecipeBatchRepository
func NewRecipeBatchRepository(client *sharedmongo.InstrumentedClient) *RecipeBatchRepository {
	return &RecipeBatchRepository{
		collection: client.Collection(RecipeBatchCollection),
		tenant:     tenant.NewRepositoryHelper(true),
	}
}

func (r *RecipeBatchRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "preparedAt", Value: -1}}},
		{Keys: bson.D{{Key: "ingredients.lotId", Value: 1}}},
	})
}

func (r *RecipeBatchRepository) Save(ctx context.Context, batch *domain.RecipeBatch) error {
	if _, err := r.collection.InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert recipe batch: %w", err)
	}
	return nil
}

func (r *RecipeBatchRepository) Update(ctx context.Context, batch *domain.RecipeBatch) error {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": batch.ID})
	if err != nil {
		return err
	}
	result, err := r.collection.ReplaceOne(ctx, filter, batch)
	if err != nil {
		return fmt.Errorf("failed to replace recipe batch: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batch.ID)
	}
	return nil
}

func (r *RecipeBatchRepository) FindByID(ctx context.Context, id string) (*domain.RecipeBatch, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	var batch domain.RecipeBatch
	if err := r.collection.FindOne(ctx, filter).Decode(&batch); err != nil {
		if sharedmongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// FindAll lists batches, most recently prepared first
func (r *RecipeBatchRepository) FindAll(ctx context.Context, opts domain.ListOptions) ([]*domain.RecipeBatch, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	page := sharedmongo.NewPagination(opts.Limit, opts.Offset)
	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "preparedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Offset))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	batches := make([]*domain.RecipeBatch, 0)
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *RecipeBatchRepository) Delete(ctx context.Context, id string) error {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, filter)
	return err
}
