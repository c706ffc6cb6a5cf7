package memdriver

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/index"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/modifier"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/population"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/querier"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Collection implements [domain.Collection]. Documents are stored in
// insertion order and every read returns copies.
type Collection struct {
	name string

	mu   sync.RWMutex
	docs []domain.M
	idx  *index.Index

	comparer       domain.Comparer
	idGenerator    domain.IDGenerator
	fieldNavigator *fieldnavigator.FieldNavigator
	matcher        *matcher.Matcher
	querier        *querier.Querier
	modifier       *modifier.Modifier
	resolver       *population.Resolver
	references     []population.Option
	logger         domain.Logger
}

func newCollection(d *Database, name string, options ...CollectionOption) *Collection {
	c := &Collection{
		name:           name,
		comparer:       d.comparer,
		idGenerator:    d.idGenerator,
		fieldNavigator: fieldnavigator.NewFieldNavigator(),
		logger:         d.logger,
	}
	for _, opt := range options {
		opt(c)
	}
	c.idx = index.NewIndex(index.WithComparer(c.comparer), index.WithCollection(name))
	c.matcher = matcher.NewMatcher(matcher.WithComparer(c.comparer))
	c.querier = querier.NewQuerier(querier.WithComparer(c.comparer), querier.WithMatcher(c.matcher))
	c.modifier = modifier.NewModifier(modifier.WithComparer(c.comparer), modifier.WithTimeGetter(d.timeGetter))
	c.resolver = population.NewResolver(d.lookup, c.references...)
	return c
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Find implements [domain.Collection].
func (c *Collection) Find(ctx context.Context, condition domain.M, options ...domain.FindOption) ([]domain.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var fo domain.FindOptions
	for _, opt := range options {
		opt(&fo)
	}

	start := time.Now()
	docs, err := c.query(querier.Options{
		Condition:  cloner.NormalizeDoc(condition),
		Projection: fo.Projection,
		Sort:       fo.Sort,
		Skip:       fo.Skip,
		Limit:      fo.Limit,
	})
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
	docs, err := c.Find(ctx, condition, append(slices.Clone(options), domain.WithFindLimit(1))...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return docs[0], nil
}

// Paginate implements [domain.Collection]. Offset and limit are only applied
// when pagination is enabled.
func (c *Collection) Paginate(ctx context.Context, condition domain.M, options ...domain.PaginateOption) (*domain.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var po domain.PaginateOptions
	for _, opt := range options {
		opt(&po)
	}
	skip, limit := po.Offset, po.Limit
	if !po.Pagination {
		skip, limit = 0, 0
	}

	start := time.Now()
	cond := cloner.NormalizeDoc(condition)
	c.mu.RLock()
	var matched, docs []domain.M
	candidates, err := c.candidates(cond)
	if err == nil {
		matched, err = c.querier.Filter(candidates, cond)
	}
	if err == nil {
		docs, err = c.querier.Query(matched, querier.Options{
			Projection: po.Projection,
			Sort:       po.Sort,
			Skip:       skip,
			Limit:      limit,
		})
	}
	docs = cloneDocs(docs)
	c.mu.RUnlock()
	if err != nil {
		c.logError(ctx, "paginate", err)
		return nil, err
	}
	c.logCommand(ctx, "paginate", time.Since(start))

	if err := c.resolver.Populate(ctx, docs, po.Populate...); err != nil {
		return nil, err
	}
	return &domain.PageResult{TotalDocs: int64(len(matched)), Docs: docs}, nil
}

// Create implements [domain.Collection]. Structs are stored with their bson
// encoding and a new _id is generated when data has none.
func (c *Collection) Create(ctx context.Context, data any) (domain.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := cloner.ToDocument(data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.mu.Lock()
	err = c.insert(doc)
	c.mu.Unlock()
	if err != nil {
		c.logError(ctx, "insert", err)
		return nil, err
	}
	c.logCommand(ctx, "insert", time.Since(start))
	return cloner.CloneDoc(doc), nil
}

// UpdateOne implements [domain.Collection].
func (c *Collection) UpdateOne(ctx context.Context, condition domain.M, update domain.M, options ...domain.UpdateOption) (*domain.UpdateResult, error) {
	return c.update(ctx, "updateOne", condition, update, false, options)
}

// UpdateMany implements [domain.Collection].
func (c *Collection) UpdateMany(ctx context.Context, condition domain.M, update domain.M, options ...domain.UpdateOption) (*domain.UpdateResult, error) {
	return c.update(ctx, "updateMany", condition, update, true, options)
}

// DeleteOne implements [domain.Collection].
func (c *Collection) DeleteOne(ctx context.Context, condition domain.M) (*domain.DeleteResult, error) {
	return c.delete(ctx, "deleteOne", condition, false)
}

// DeleteMany implements [domain.Collection].
func (c *Collection) DeleteMany(ctx context.Context, condition domain.M) (*domain.DeleteResult, error) {
	return c.delete(ctx, "deleteMany", condition, true)
}

func (c *Collection) query(options querier.Options) ([]domain.M, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	candidates, err := c.candidates(options.Condition)
	if err != nil {
		return nil, err
	}
	docs, err := c.querier.Query(candidates, options)
	if err != nil {
		return nil, err
	}
	return cloneDocs(docs), nil
}

// candidates returns the documents that may match cond, looking them up in
// the _id index when cond requires a single _id value. It must be called with
// the lock held.
func (c *Collection) candidates(cond domain.M) ([]domain.M, error) {
	condID, ok := cond["_id"]
	if !ok {
		return c.docs, nil
	}
	id, ok := equality(condID)
	if !ok {
		return c.docs, nil
	}
	switch id.(type) {
	case nil, domain.M, domain.A:
		return c.docs, nil
	}
	doc, found, err := c.idx.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return []domain.M{doc}, nil
}

// update computes every change before storing any, so a failing document
// leaves the collection as it was.
func (c *Collection) update(ctx context.Context, command string, condition, update domain.M, multi bool, options []domain.UpdateOption) (*domain.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var uo domain.UpdateOptions
	for _, opt := range options {
		opt(&uo)
	}
	cond := cloner.NormalizeDoc(condition)
	upd := cloner.NormalizeDoc(update)

	start := time.Now()
	c.mu.Lock()
	res, err := c.apply(cond, upd, multi, uo)
	c.mu.Unlock()
	if err != nil {
		c.logError(ctx, command, err)
		return nil, err
	}
	c.logCommand(ctx, command, time.Since(start))
	return res, nil
}

type change struct {
	index int
	doc   domain.M
}

func (c *Collection) apply(cond, upd domain.M, multi bool, uo domain.UpdateOptions) (*domain.UpdateResult, error) {
	res := &domain.UpdateResult{}
	var changes []change
	for n, doc := range c.docs {
		ok, err := c.matcher.Match(doc, cond)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		res.MatchedCount++
		modified, err := c.modifier.Modify(doc, upd, cond, uo.ArrayFilters...)
		if err != nil {
			return nil, err
		}
		if comp, err := c.comparer.Compare(doc, modified); err != nil || comp != 0 {
			changes = append(changes, change{index: n, doc: modified})
		}
		if !multi {
			break
		}
	}

	if res.MatchedCount == 0 && uo.Upsert {
		base, err := c.upsertBase(cond)
		if err != nil {
			return nil, err
		}
		doc, err := c.modifier.Modify(base, upd, cond, uo.ArrayFilters...)
		if err != nil {
			return nil, err
		}
		if err := c.insert(doc); err != nil {
			return nil, err
		}
		res.UpsertedCount = 1
		res.UpsertedID = doc["_id"]
		return res, nil
	}

	for _, ch := range changes {
		if err := c.idx.Update(c.docs[ch.index], ch.doc); err != nil {
			return nil, err
		}
		c.docs[ch.index] = ch.doc
	}
	res.ModifiedCount = int64(len(changes))
	return res, nil
}

// upsertBase builds the document inserted by an upsert from the equality
// conditions of cond, including the ones nested in $and.
func (c *Collection) upsertBase(cond domain.M) (domain.M, error) {
	base := domain.M{}
	if err := c.addEqualities(base, cond); err != nil {
		return nil, err
	}
	return base, nil
}

func (c *Collection) addEqualities(base, cond domain.M) error {
	keys := make([]string, 0, len(cond))
	for k := range cond {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := cond[k]
		if k == "$and" {
			children, _ := v.(domain.A)
			for _, child := range children {
				if d, ok := child.(domain.M); ok {
					if err := c.addEqualities(base, d); err != nil {
						return err
					}
				}
			}
			continue
		}
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		value, ok := equality(v)
		if !ok {
			continue
		}
		fields, err := c.fieldNavigator.EnsureField(base, nil, c.fieldNavigator.GetAddress(k)...)
		if err != nil {
			return err
		}
		for _, f := range fields {
			f.Set(cloner.Clone(value))
		}
	}
	return nil
}

// equality returns the value a field condition requires the field to be
// equal to, if any.
func equality(cond any) (any, bool) {
	d, ok := cond.(domain.M)
	if !ok {
		return cond, !isRegex(cond)
	}
	ops := false
	for k := range d {
		if len(k) > 0 && k[0] == '$' {
			ops = true
			break
		}
	}
	if !ops {
		return d, true
	}
	v, ok := d["$eq"]
	return v, ok
}

func (c *Collection) delete(ctx context.Context, command string, condition domain.M, multi bool) (*domain.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cond := cloner.NormalizeDoc(condition)

	start := time.Now()
	c.mu.Lock()
	var deleted []domain.M
	kept := make([]domain.M, 0, len(c.docs))
	var err error
	for _, doc := range c.docs {
		var ok bool
		if err == nil && (multi || len(deleted) == 0) {
			ok, err = c.matcher.Match(doc, cond)
		}
		if ok {
			deleted = append(deleted, doc)
			continue
		}
		kept = append(kept, doc)
	}
	if err == nil {
		err = c.idx.Remove(deleted...)
	}
	if err == nil {
		c.docs = kept
	}
	c.mu.Unlock()
	if err != nil {
		c.logError(ctx, command, err)
		return nil, err
	}
	c.logCommand(ctx, command, time.Since(start))
	return &domain.DeleteResult{DeletedCount: int64(len(deleted))}, nil
}

// insert stores doc, generating its _id when missing. It must be called with
// the write lock held.
func (c *Collection) insert(doc domain.M) error {
	id, ok := doc["_id"]
	if !ok || id == nil {
		newID, err := c.idGenerator.GenerateID()
		if err != nil {
			return fmt.Errorf("generating id: %w", err)
		}
		doc["_id"] = newID
	}
	if err := c.idx.Insert(doc); err != nil {
		return err
	}
	c.docs = append(c.docs, doc)
	return nil
}

// deduplicate keeps the last document of each _id, at the position of the
// first one. Documents without _id get a new one.
func (c *Collection) deduplicate(docs []domain.M) ([]domain.M, error) {
	positions := index.NewIndex(index.WithComparer(c.comparer), index.WithCollection(c.name))
	res := make([]domain.M, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc["_id"]
		if !ok || id == nil {
			newID, err := c.idGenerator.GenerateID()
			if err != nil {
				return nil, fmt.Errorf("generating id: %w", err)
			}
			doc["_id"] = newID
			res = append(res, doc)
			continue
		}
		prev, found, err := positions.Get(id)
		if err != nil {
			return nil, err
		}
		if found {
			res[prev["n"].(int)] = doc
			continue
		}
		if err := positions.Insert(domain.M{"_id": id, "n": len(res)}); err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	return res, nil
}

func (c *Collection) snapshot() []domain.M {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneDocs(c.docs)
}

func (c *Collection) replace(docs []domain.M) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.idx.Reset(docs...); err != nil {
		return err
	}
	c.docs = docs
	return nil
}

func cloneDocs(docs []domain.M) []domain.M {
	if docs == nil {
		return nil
	}
	res := make([]domain.M, len(docs))
	for n, doc := range docs {
		res[n] = cloner.CloneDoc(doc)
	}
	return res
}
