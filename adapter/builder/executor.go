package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/population"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Query reads one page of matching documents. Skip defaults to 0 and limit to
// the configured default limit. Options are applied after the accumulated
// state, so they can replace it, and the page indexes follow the offset and
// limit sent to the driver.
func (b *Builder[T]) Query(ctx context.Context, options ...domain.PaginateOption) (*domain.Page[T], error) {
	const op = "query"
	if b.err != nil {
		return nil, b.err
	}

	skip, limit := int64(0), b.defaultLimit
	if b.skip != nil && *b.skip > 0 {
		skip = *b.skip
	}
	if b.limit != nil && *b.limit > 0 {
		limit = *b.limit
	}

	cond := b.Condition()
	opts := []domain.PaginateOption{
		domain.WithPaginateProjection(cloner.CloneDoc(b.projection)),
		domain.WithPaginatePopulate(population.Clone(b.populations)...),
		domain.WithPaginateOffset(skip),
		domain.WithPaginateLimit(limit),
		domain.WithPaginateSort(cloner.CloneOrdered(b.sort)),
		domain.WithPagination(true),
	}
	opts = append(opts, options...)

	var resolved domain.PaginateOptions
	for _, opt := range opts {
		opt(&resolved)
	}
	skip, limit = max(resolved.Offset, 0), resolved.Limit
	if limit <= 0 {
		limit = b.defaultLimit
	}
	opts = append(opts, domain.WithPaginateOffset(skip), domain.WithPaginateLimit(limit))

	start := time.Now()
	res, err := b.coll.Paginate(ctx, cond, opts...)
	if err != nil {
		b.logError(ctx, op, err, logAttrCondition, cond)
		return nil, err
	}
	b.logExecuted(ctx, op, time.Since(start), logAttrResultCount, len(res.Docs))

	results, err := b.decodeAll(res.Docs)
	if err != nil {
		b.logError(ctx, op, err)
		return nil, err
	}

	return &domain.Page[T]{
		Total:            res.TotalDocs,
		CurrentPageIndex: skip / limit,
		MaxPageIndex:     (res.TotalDocs+limit-1)/limit - 1,
		Results:          results,
	}, nil
}

// Paginate is an alias of [Builder.Query].
func (b *Builder[T]) Paginate(ctx context.Context, options ...domain.PaginateOption) (*domain.Page[T], error) {
	return b.Query(ctx, options...)
}

// FindOne reads the first matching document. It returns [domain.ErrNotFound]
// when nothing matches.
func (b *Builder[T]) FindOne(ctx context.Context) (*T, error) {
	const op = "findOne"
	if b.err != nil {
		return nil, b.err
	}

	cond := b.Condition()
	start := time.Now()
	doc, err := b.coll.FindOne(ctx, cond, b.findOptions()...)
	if err != nil {
		b.logError(ctx, op, err, logAttrCondition, cond)
		return nil, err
	}
	b.logExecuted(ctx, op, time.Since(start))

	return b.decodeOne(doc)
}

// FindMany reads every matching document. Skip and limit are only applied
// when set.
func (b *Builder[T]) FindMany(ctx context.Context) ([]T, error) {
	const op = "findMany"
	if b.err != nil {
		return nil, b.err
	}

	cond := b.Condition()
	start := time.Now()
	docs, err := b.coll.Find(ctx, cond, b.findOptions()...)
	if err != nil {
		b.logError(ctx, op, err, logAttrCondition, cond)
		return nil, err
	}
	b.logExecuted(ctx, op, time.Since(start), logAttrResultCount, len(docs))

	return b.decodeAll(docs)
}

// Create stores data and returns the stored document.
func (b *Builder[T]) Create(ctx context.Context, data any) (*T, error) {
	const op = "create"
	if b.err != nil {
		return nil, b.err
	}

	start := time.Now()
	doc, err := b.coll.Create(ctx, data)
	if err != nil {
		b.logError(ctx, op, err)
		return nil, err
	}
	b.logExecuted(ctx, op, time.Since(start))

	return b.decodeOne(doc)
}

// UpdateOne applies the merged update to the first matching document.
func (b *Builder[T]) UpdateOne(ctx context.Context) (*domain.UpdateResult, error) {
	return b.update(ctx, "updateOne", b.coll.UpdateOne)
}

// UpdateMany applies the merged update to every matching document.
func (b *Builder[T]) UpdateMany(ctx context.Context) (*domain.UpdateResult, error) {
	return b.update(ctx, "updateMany", b.coll.UpdateMany)
}

// Patch applies the merged update to the document given to [Builder.WithID]
// and reports whether it was found. It returns [domain.ErrMissingID] if
// [Builder.WithID] was never called.
func (b *Builder[T]) Patch(ctx context.Context) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	if !b.hasID {
		return false, domain.ErrMissingID
	}
	res, err := b.update(ctx, "patch", b.coll.UpdateOne)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// DeleteOne removes the first matching document.
func (b *Builder[T]) DeleteOne(ctx context.Context) (*domain.DeleteResult, error) {
	return b.delete(ctx, "deleteOne", b.coll.DeleteOne)
}

// DeleteMany removes every matching document.
func (b *Builder[T]) DeleteMany(ctx context.Context) (*domain.DeleteResult, error) {
	return b.delete(ctx, "deleteMany", b.coll.DeleteMany)
}

type updateFunc func(context.Context, domain.M, domain.M, ...domain.UpdateOption) (*domain.UpdateResult, error)

func (b *Builder[T]) update(ctx context.Context, op string, fn updateFunc) (*domain.UpdateResult, error) {
	if b.err != nil {
		return nil, b.err
	}

	options, err := b.updateOptions()
	if err != nil {
		b.logError(ctx, op, err)
		return nil, err
	}

	cond, upd := b.Condition(), b.Updates()
	start := time.Now()
	res, err := fn(ctx, cond, upd, options...)
	if err != nil {
		b.logError(ctx, op, err, logAttrCondition, cond, logAttrUpdate, upd)
		return nil, err
	}
	b.logExecuted(ctx, op, time.Since(start))
	return res, nil
}

type deleteFunc func(context.Context, domain.M) (*domain.DeleteResult, error)

func (b *Builder[T]) delete(ctx context.Context, op string, fn deleteFunc) (*domain.DeleteResult, error) {
	if b.err != nil {
		return nil, b.err
	}

	cond := b.Condition()
	start := time.Now()
	res, err := fn(ctx, cond)
	if err != nil {
		b.logError(ctx, op, err, logAttrCondition, cond)
		return nil, err
	}
	b.logExecuted(ctx, op, time.Since(start))
	return res, nil
}

// updateOptions converts the update filter options into driver options.
// Unknown option names are ignored.
func (b *Builder[T]) updateOptions() ([]domain.UpdateOption, error) {
	if b.filters.Len() == 0 {
		return nil, nil
	}
	var uo domain.UpdateOptions
	if err := mapstructure.Decode(b.filters.Values(), &uo); err != nil {
		return nil, fmt.Errorf("update filters: %w", err)
	}
	var options []domain.UpdateOption
	if len(uo.ArrayFilters) > 0 {
		options = append(options, domain.WithUpdateArrayFilters(uo.ArrayFilters...))
	}
	if uo.Upsert {
		options = append(options, domain.WithUpsert(true))
	}
	return options, nil
}

func (b *Builder[T]) findOptions() []domain.FindOption {
	opts := []domain.FindOption{
		domain.WithFindProjection(cloner.CloneDoc(b.projection)),
		domain.WithFindPopulate(population.Clone(b.populations)...),
		domain.WithFindSort(cloner.CloneOrdered(b.sort)),
	}
	if b.skip != nil {
		opts = append(opts, domain.WithFindSkip(*b.skip))
	}
	if b.limit != nil {
		opts = append(opts, domain.WithFindLimit(*b.limit))
	}
	return opts
}

func (b *Builder[T]) decodeOne(doc domain.M) (*T, error) {
	var res T
	if err := b.decoder.Decode(doc, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *Builder[T]) decodeAll(docs []domain.M) ([]T, error) {
	res := make([]T, len(docs))
	for n, doc := range docs {
		if err := b.decoder.Decode(doc, &res[n]); err != nil {
			return nil, err
		}
	}
	return res, nil
}
