package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/metrics"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedClient wraps a MongoDB Client with metrics and tracing
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedClient creates a new instrumented MongoDB client. m and logger may be nil.
func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Collection returns an instrumented collection
func (c *InstrumentedClient) Collection(name string) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: c.client.Database().Collection(name),
		name:       name,
		database:   c.client.config.Database,
		metrics:    c.metrics,
		logger:     c.logger,
		tracer:     c.tracer,
	}
}

// Database returns the underlying database handle
func (c *InstrumentedClient) Database() *mongo.Database {
	return c.client.Database()
}

// Close disconnects the client
func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck performs a health check with tracing
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := c.client.HealthCheck(ctx)
	endSpan(span, err)
	return err
}

// WithTransaction executes fn within a transaction, traced and counted.
func (c *InstrumentedClient) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.transaction",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := c.client.WithTransaction(ctx, fn)
	c.metrics.RecordMongoDBTransaction(err == nil)
	endSpan(span, err)
	return err
}

// InstrumentedCollection wraps a MongoDB Collection with metrics and tracing
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	database   string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// run traces fn as one collection operation and records its latency. ErrNoDocuments counts
// as success.
func run[T any](ctx context.Context, c *InstrumentedCollection, op string, fn func(ctx context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	attrs = append(attrs,
		semconv.DBSystemMongoDB,
		semconv.DBNameKey.String(c.database),
		semconv.DBOperationKey.String(op),
		attribute.String("db.collection", c.name),
	)
	if id := tenant.GetTenantID(ctx); id != "" {
		attrs = append(attrs, attribute.String("tenant.id", id))
	}
	ctx, span := c.tracer.Start(ctx, "mongodb."+op,
		trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)

	failure := err
	if errors.Is(failure, mongo.ErrNoDocuments) {
		failure = nil
	}
	elapsed := time.Since(start)
	c.metrics.RecordMongoDBOperation(c.name, op, failure == nil, elapsed)
	if c.logger != nil {
		c.logger.DatabaseQuery(ctx, c.name, op, elapsed, failure == nil)
	}
	endSpan(span, failure)
	return result, err
}

// single adapts calls that report their error through the returned SingleResult
func single(fn func(ctx context.Context) *mongo.SingleResult) func(ctx context.Context) (*mongo.SingleResult, error) {
	return func(ctx context.Context) (*mongo.SingleResult, error) {
		r := fn(ctx)
		return r, r.Err()
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (c *InstrumentedCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return run(ctx, c, "insertOne", func(ctx context.Context) (*mongo.InsertOneResult, error) {
		return c.collection.InsertOne(ctx, document, opts...)
	})
}

func (c *InstrumentedCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	return run(ctx, c, "insertMany", func(ctx context.Context) (*mongo.InsertManyResult, error) {
		return c.collection.InsertMany(ctx, documents, opts...)
	}, attribute.Int("db.batch_size", len(documents)))
}

// FindOne never returns nil; a miss surfaces as ErrNoDocuments on Decode.
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	r, _ := run(ctx, c, "findOne", single(func(ctx context.Context) *mongo.SingleResult {
		return c.collection.FindOne(ctx, filter, opts...)
	}))
	return r
}

func (c *InstrumentedCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return run(ctx, c, "find", func(ctx context.Context) (*mongo.Cursor, error) {
		return c.collection.Find(ctx, filter, opts...)
	})
}

func (c *InstrumentedCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return run(ctx, c, "updateOne", func(ctx context.Context) (*mongo.UpdateResult, error) {
		return c.collection.UpdateOne(ctx, filter, update, opts...)
	})
}

func (c *InstrumentedCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	return run(ctx, c, "replaceOne", func(ctx context.Context) (*mongo.UpdateResult, error) {
		return c.collection.ReplaceOne(ctx, filter, replacement, opts...)
	})
}

func (c *InstrumentedCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return run(ctx, c, "deleteOne", func(ctx context.Context) (*mongo.DeleteResult, error) {
		return c.collection.DeleteOne(ctx, filter, opts...)
	})
}

func (c *InstrumentedCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return run(ctx, c, "deleteMany", func(ctx context.Context) (*mongo.DeleteResult, error) {
		return c.collection.DeleteMany(ctx, filter, opts...)
	})
}

func (c *InstrumentedCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	r, _ := run(ctx, c, "findOneAndUpdate", single(func(ctx context.Context) *mongo.SingleResult {
		return c.collection.FindOneAndUpdate(ctx, filter, update, opts...)
	}))
	return r
}

func (c *InstrumentedCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	_, err := run(ctx, c, "createIndexes", func(ctx context.Context) ([]string, error) {
		return c.collection.Indexes().CreateMany(ctx, models)
	})
	return err
}

// Name returns the collection name
func (c *InstrumentedCollection) Name() string {
	return c.name
}
