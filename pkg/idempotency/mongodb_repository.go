package idempotency

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kitchenops/inventory-ledger/pkg/mongodb"
)

const collectionName = "idempotency_keys"

// MongoRepository implements Repository on the idempotency_keys collection
type MongoRepository struct {
	collection *mongodb.InstrumentedCollection
}

func NewMongoRepository(client *mongodb.InstrumentedClient) *MongoRepository {
	return &MongoRepository{collection: client.Collection(collectionName)}
}

// EnsureIndexes creates the tenant/key unique index and the expiry TTL index
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_tenant_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	})
}

func (r *MongoRepository) Acquire(ctx context.Context, rec *Record, staleBefore time.Time) (*Record, bool, error) {
	now := time.Now().UTC()
	rec.LockedAt = &now

	filter := bson.M{"tenantId": rec.TenantID, "key": rec.Key}
	update := bson.M{"$setOnInsert": rec}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var stored Record
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return rec, true, nil
	case mongo.IsDuplicateKeyError(err):
		// lost an insert race on the unique index
		return nil, false, ErrConcurrentRequest
	case err != nil:
		return nil, false, err
	}

	if stored.IsCompleted() || stored.Fingerprint != rec.Fingerprint {
		return &stored, false, nil
	}
	if stored.LockedAt != nil && stored.LockedAt.After(staleBefore) {
		return &stored, false, nil
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{
		"_id":         stored.ID,
		"completedAt": bson.M{"$exists": false},
		"$or": bson.A{
			bson.M{"lockedAt": bson.M{"$exists": false}},
			bson.M{"lockedAt": bson.M{"$lt": staleBefore}},
		},
	}, bson.M{"$set": bson.M{"lockedAt": now}})
	if err != nil {
		return nil, false, err
	}
	if res.MatchedCount == 0 {
		stored.LockedAt = &now
		return &stored, false, nil
	}
	stored.LockedAt = &now
	return &stored, true, nil
}

func (r *MongoRepository) Complete(ctx context.Context, id string, resp Response) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"responseCode":        resp.Code,
			"responseBody":        resp.Body,
			"responseContentType": resp.ContentType,
			"completedAt":         time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": ""},
	})
	return err
}

func (r *MongoRepository) Release(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "completedAt": bson.M{"$exists": false}})
	return err
}
