package builder

import (
	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/population"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// FilesModel is the collection referenced by [Builder.PopulateFile].
const FilesModel = "fs.files"

// Project merges each projection into the current one. A later value for a
// field replaces the earlier one. Nil projections are ignored.
func (b *Builder[T]) Project(projections ...domain.M) *Builder[T] {
	for _, p := range projections {
		if p == nil {
			continue
		}
		if b.projection == nil {
			b.projection = make(domain.M, len(p))
		}
		for k, v := range p {
			b.projection[k] = cloner.Clone(v)
		}
	}
	return b
}

// Populate resolves each path after reads. A dotted path populates every
// level, so "author.company" loads the author and then its company.
func (b *Builder[T]) Populate(paths ...string) *Builder[T] {
	return b.PopulateWith(population.Expand(paths...)...)
}

// PopulateWith adds populations to be resolved after reads.
func (b *Builder[T]) PopulateWith(pops ...domain.Population) *Builder[T] {
	if len(pops) == 0 {
		return b
	}
	b.populations = append(b.populations, population.Clone(pops)...)
	return b
}

// PopulateFile resolves path against the stored files collection, keeping the
// fields listed in sel.
func (b *Builder[T]) PopulateFile(path, sel string) *Builder[T] {
	return b.PopulateWith(domain.Population{Path: path, Model: FilesModel, Select: sel})
}

// Skip sets how many matching documents are skipped.
func (b *Builder[T]) Skip(skip int64) *Builder[T] {
	b.skip = &skip
	return b
}

// Limit sets the maximum number of documents read.
func (b *Builder[T]) Limit(limit int64) *Builder[T] {
	b.limit = &limit
	return b
}

// Sort sets the sort order, replacing any previous one.
func (b *Builder[T]) Sort(sort domain.D) *Builder[T] {
	b.sort = cloner.CloneOrdered(sort)
	return b
}

// Snapshot returns a copy of the accumulated query. Parts that were never set
// are nil.
func (b *Builder[T]) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Condition:  b.Condition(),
		Projection: cloner.CloneDoc(b.projection),
		Populate:   population.Clone(b.populations),
		Sort:       cloner.CloneOrdered(b.sort),
	}
	if b.skip != nil {
		skip := *b.skip
		snap.Skip = &skip
	}
	if b.limit != nil {
		limit := *b.limit
		snap.Limit = &limit
	}
	return snap
}

// Model returns the collection the builder is bound to.
func (b *Builder[T]) Model() domain.Collection {
	return b.coll
}

// ID returns the id given to [Builder.WithID], after conversion.
func (b *Builder[T]) ID() (any, bool) {
	return b.id, b.hasID
}

// Err returns the first error recorded while building, if any.
func (b *Builder[T]) Err() error {
	return b.err
}

// Clone returns a builder with a copy of the accumulated state, bound to the
// same collection. Modifiers are applied to the copy before it is returned.
func (b *Builder[T]) Clone(modifiers ...func(*Builder[T])) *Builder[T] {
	c := &Builder[T]{
		settings:    b.settings,
		coll:        b.coll,
		conditions:  b.conditions.Clone(),
		updates:     b.updates.Clone(),
		filters:     b.filters.Clone(),
		projection:  cloner.CloneDoc(b.projection),
		populations: population.Clone(b.populations),
		sort:        cloner.CloneOrdered(b.sort),
		id:          cloner.Clone(b.id),
		hasID:       b.hasID,
		err:         b.err,
	}
	if b.skip != nil {
		skip := *b.skip
		c.skip = &skip
	}
	if b.limit != nil {
		limit := *b.limit
		c.limit = &limit
	}
	for _, m := range modifiers {
		if m != nil {
			m(c)
		}
	}
	return c
}
