package mongodriver

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/population"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Collection implements [domain.Collection].
type Collection struct {
	coll       *mongo.Collection
	resolver   *population.Resolver
	references []population.Option
	logger     domain.Logger
}

// NewCollection returns a [domain.Collection] backed by coll. Populations are
// loaded from collections of the same database.
func NewCollection(coll *mongo.Collection, options ...Option) *Collection {
	c := &Collection{coll: coll}
	for _, opt := range options {
		opt(c)
	}
	c.resolver = population.NewResolver(c.lookup, c.references...)
	return c
}

// Find implements [domain.Collection].
func (c *Collection) Find(ctx context.Context, condition domain.M, options ...domain.FindOption) ([]domain.M, error) {
	var fo domain.FindOptions
	for _, opt := range options {
		opt(&fo)
	}

	start := time.Now()
	docs, err := c.find(ctx, condition, findOptions(fo.Projection, fo.Sort, fo.Skip, fo.Limit))
	if err != nil {
		c.logError(ctx, "find", err)
		return nil, err
	}
	c.logCommand(ctx, "find", time.Since(start))

	if err := c.resolver.Populate(ctx, docs, fo.Populate...); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindOne implements [domain.Collection].
func (c *Collection) FindOne(ctx context.Context, condition domain.M, options ...domain.FindOption) (domain.M, error) {
	var fo domain.FindOptions
	for _, opt := range options {
		opt(&fo)
	}

	opts := mopt.FindOne()
	if len(fo.Projection) > 0 {
		opts.SetProjection(fo.Projection)
	}
	if len(fo.Sort) > 0 {
		opts.SetSort(fo.Sort)
	}
	if fo.Skip > 0 {
		opts.SetSkip(fo.Skip)
	}

	start := time.Now()
	var doc bson.M
	err := c.coll.FindOne(ctx, filter(condition), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		c.logError(ctx, "findOne", err)
		return nil, err
	}
	c.logCommand(ctx, "findOne", time.Since(start))

	docs := []domain.M{cloner.NormalizeDoc(doc)}
	if err := c.resolver.Populate(ctx, docs, fo.Populate...); err != nil {
		return nil, err
	}
	return docs[0], nil
}

// Paginate implements [domain.Collection]. The total is counted with the same
// condition before the page is read.
func (c *Collection) Paginate(ctx context.Context, condition domain.M, options ...domain.PaginateOption) (*domain.PageResult, error) {
	var po domain.PaginateOptions
	for _, opt := range options {
		opt(&po)
	}

	start := time.Now()
	total, err := c.coll.CountDocuments(ctx, filter(condition))
	if err != nil {
		c.logError(ctx, "count", err)
		return nil, err
	}
	c.logCommand(ctx, "count", time.Since(start))

	skip, limit := po.Offset, po.Limit
	if !po.Pagination {
		skip, limit = 0, 0
	}

	start = time.Now()
	docs, err := c.find(ctx, condition, findOptions(po.Projection, po.Sort, skip, limit))
	if err != nil {
		c.logError(ctx, "find", err)
		return nil, err
	}
	c.logCommand(ctx, "find", time.Since(start))

	if err := c.resolver.Populate(ctx, docs, po.Populate...); err != nil {
		return nil, err
	}
	return &domain.PageResult{TotalDocs: total, Docs: docs}, nil
}

// Create implements [domain.Collection]. A new ObjectID is assigned when data
// has no _id.
func (c *Collection) Create(ctx context.Context, data any) (domain.M, error) {
	doc, err := cloner.ToDocument(data)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}

	start := time.Now()
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		c.logError(ctx, "insert", err)
		return nil, err
	}
	c.logCommand(ctx, "insert", time.Since(start))

	doc["_id"] = res.InsertedID
	return doc, nil
}

// UpdateOne implements [domain.Collection].
func (c *Collection) UpdateOne(ctx context.Context, condition domain.M, update domain.M, options ...domain.UpdateOption) (*domain.UpdateResult, error) {
	start := time.Now()
	res, err := c.coll.UpdateOne(ctx, filter(condition), update, updateOptions(options...))
	if err != nil {
		c.logError(ctx, "updateOne", err)
		return nil, err
	}
	c.logCommand(ctx, "updateOne", time.Since(start))
	return toUpdateResult(res), nil
}

// UpdateMany implements [domain.Collection].
func (c *Collection) UpdateMany(ctx context.Context, condition domain.M, update domain.M, options ...domain.UpdateOption) (*domain.UpdateResult, error) {
	start := time.Now()
	res, err := c.coll.UpdateMany(ctx, filter(condition), update, updateOptions(options...))
	if err != nil {
		c.logError(ctx, "updateMany", err)
		return nil, err
	}
	c.logCommand(ctx, "updateMany", time.Since(start))
	return toUpdateResult(res), nil
}

// DeleteOne implements [domain.Collection].
func (c *Collection) DeleteOne(ctx context.Context, condition domain.M) (*domain.DeleteResult, error) {
	start := time.Now()
	res, err := c.coll.DeleteOne(ctx, filter(condition))
	if err != nil {
		c.logError(ctx, "deleteOne", err)
		return nil, err
	}
	c.logCommand(ctx, "deleteOne", time.Since(start))
	return &domain.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// DeleteMany implements [domain.Collection].
func (c *Collection) DeleteMany(ctx context.Context, condition domain.M) (*domain.DeleteResult, error) {
	start := time.Now()
	res, err := c.coll.DeleteMany(ctx, filter(condition))
	if err != nil {
		c.logError(ctx, "deleteMany", err)
		return nil, err
	}
	c.logCommand(ctx, "deleteMany", time.Since(start))
	return &domain.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (c *Collection) find(ctx context.Context, condition domain.M, opts *mopt.FindOptions) ([]domain.M, error) {
	cursor, err := c.coll.Find(ctx, filter(condition), opts)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]domain.M, len(raw))
	for n, doc := range raw {
		docs[n] = cloner.NormalizeDoc(doc)
	}
	return docs, nil
}

// lookup loads referenced documents from a sibling collection.
func (c *Collection) lookup(ctx context.Context, model string, ids []any) ([]domain.M, error) {
	coll := c.coll.Database().Collection(model)
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]domain.M, len(raw))
	for n, doc := range raw {
		docs[n] = cloner.NormalizeDoc(doc)
	}
	return docs, nil
}
