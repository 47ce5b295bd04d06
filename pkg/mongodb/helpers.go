package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Now returns the current time in UTC, truncated to the millisecond precision BSON stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// BuildUpdateWithTimestamp builds a $set update that also bumps updatedAt
func BuildUpdateWithTimestamp(set bson.M) bson.M {
	out := bson.M{"updatedAt": Now()}
	for k, v := range set {
		out[k] = v
	}
	return bson.M{"$set": out}
}

// BuildIncrementUpdate builds a BSON increment update
func BuildIncrementUpdate(field string, value interface{}) bson.M {
	return bson.M{
		"$inc": bson.M{field: value},
		"$set": bson.M{"updatedAt": Now()},
	}
}

// SortField represents a field to sort by
type SortField struct {
	Field      string
	Descending bool
}

// SortMultiple creates a multi-field sort option
func SortMultiple(fields ...SortField) bson.D {
	sort := bson.D{}
	for _, f := range fields {
		if f.Descending {
			sort = append(sort, bson.E{Key: f.Field, Value: -1})
		} else {
			sort = append(sort, bson.E{Key: f.Field, Value: 1})
		}
	}
	return sort
}

// Pagination represents pagination options
type Pagination struct {
	Limit  int64
	Offset int64
}

// NewPagination clamps caller supplied values to sane bounds.
func NewPagination(limit, offset int) Pagination {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: int64(limit), Offset: int64(offset)}
}

// IsNoDocuments reports whether err is the driver's not found sentinel.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
