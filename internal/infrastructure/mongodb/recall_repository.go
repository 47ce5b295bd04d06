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

const RecallCollection = "recalls"

// RecallRepository implements domain.RecallRepository for MongoDB
type RecallRepository struct {
	collection *sharedmongo.InstrumentedCollection
	tenant     *tenant.RepositoryHelper
}

// NewRecallRepository creates a new RecallRepository
func NewRecallRepository(client *sharedmongo.InstrumentedClient) *RecallRepository {
	return &RecallRepository{
		collection: client.Collection(RecallCollection),
		tenant:     tenant.NewRepositoryHelper(true),
	}
}

func (r *RecallRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "restaurantId", Value: 1}, {Key: "issuedAt", Value: -1}}},
	})
}

func (r *RecallRepository) Save(ctx context.Context, recall *domain.Recall) error {
	if _, err := r.collection.InsertOne(ctx, recall); err != nil {
		return fmt.Errorf("failed to insert recall: %w", err)
	}
	return nil
}

func (r *RecallRepository) Update(ctx context.Context, recall *domain.Recall) error {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": recall.ID})
	if err != nil {
		return err
	}
	result, err := r.collection.ReplaceOne(ctx, filter, recall)
	if err != nil {
		return fmt.Errorf("failed to replace recall: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRecallNotFound, recall.ID)
	}
	return nil
}

func (r *RecallRepository) FindByID(ctx context.Context, id string) (*domain.Recall, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	var recall domain.Recall
	if err := r.collection.FindOne(ctx, filter).Decode(&recall); err != nil {
		if sharedmongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &recall, nil
}

func (r *RecallRepository) FindAll(ctx context.Context, opts domain.ListOptions) ([]*domain.Recall, error) {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	page := sharedmongo.NewPagination(opts.Limit, opts.Offset)
	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "issuedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Offset))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recalls := make([]*domain.Recall, 0)
	if err := cursor.All(ctx, &recalls); err != nil {
		return nil, err
	}
	return recalls, nil
}

func (r *RecallRepository) Delete(ctx context.Context, id string) error {
	filter, err := r.tenant.WithTenantFilter(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, filter)
	return err
}
