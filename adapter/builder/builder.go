// Package builder contains the fluent query and update builder.
//
// A [Builder] accumulates filter predicates, update operators, projection,
// populations and pagination parameters through chained calls, each returning
// the same instance. Terminal operations merge the accumulated state and
// delegate to the bound [domain.Collection]. Builders are not safe for
// concurrent use; [Builder.Clone] is the way to branch a partially built
// query.
package builder

import (
	"github.com/vinicius-lino-figueiredo/gequery/adapter/condition"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/objectid"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/update"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

const idField = "_id"

// Builder accumulates the parts of a query and executes it against a
// collection. Results are decoded into T.
type Builder[T any] struct {
	settings
	coll        domain.Collection
	conditions  *condition.Accumulator
	updates     *update.Accumulator
	filters     *update.FilterSet
	projection  domain.M
	populations []domain.Population
	skip        *int64
	limit       *int64
	sort        domain.D
	id          any
	hasID       bool
	err         error
}

// New returns a [Builder] bound to coll. The collection is shared, never
// copied, by the builder and its clones.
func New[T any](coll domain.Collection, options ...Option) *Builder[T] {
	s := settings{
		ids:          objectid.NewConverter(),
		decoder:      decoder.NewDecoder(),
		defaultLimit: DefaultLimit,
	}
	for _, opt := range options {
		opt(&s)
	}
	return &Builder[T]{
		settings:   s,
		coll:       coll,
		conditions: condition.NewAccumulator(),
		updates:    update.NewAccumulator(),
		filters:    update.NewFilterSet(),
	}
}

// setErr records the first error found while building. It is returned by
// every terminal operation.
func (b *Builder[T]) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Where adds fragment to the condition. In [condition.Or] mode it becomes one
// more alternative of $or.
func (b *Builder[T]) Where(fragment domain.M, mode condition.Mode) *Builder[T] {
	b.conditions.Add(mode, fragment)
	return b
}

// AndWhere merges each fragment into the condition.
func (b *Builder[T]) AndWhere(fragments ...domain.M) *Builder[T] {
	b.conditions.Add(condition.And, fragments...)
	return b
}

// OrWhere adds each fragment as one alternative of $or.
func (b *Builder[T]) OrWhere(fragments ...domain.M) *Builder[T] {
	b.conditions.Add(condition.Or, fragments...)
	return b
}

// WherePredicate adds typed predicates to the condition.
func (b *Builder[T]) WherePredicate(mode condition.Mode, preds ...condition.Predicate) *Builder[T] {
	b.conditions.AddPredicates(mode, preds...)
	return b
}

// WhereDate compares each field with its value using cmp.
func (b *Builder[T]) WhereDate(fields domain.M, cmp condition.Comparison, mode condition.Mode) *Builder[T] {
	return b.WherePredicate(mode, condition.Comparisons(fields, cmp)...)
}

// WhereArrayIncludes matches documents where each field holds one of the
// values listed for it.
func (b *Builder[T]) WhereArrayIncludes(fields domain.M, mode condition.Mode) *Builder[T] {
	return b.WherePredicate(mode, condition.Memberships(fields)...)
}

// WhereTextLike matches documents where each field contains its text, ignoring
// case. Fields with empty text are ignored.
func (b *Builder[T]) WhereTextLike(fields map[string]string, mode condition.Mode) *Builder[T] {
	return b.WherePredicate(mode, condition.TextLike(fields)...)
}

// NearCoordinates matches documents where each field is a point within
// radiusKm kilometers of its coordinates.
func (b *Builder[T]) NearCoordinates(fields map[string]condition.Coordinates, radiusKm float64) *Builder[T] {
	return b.GeoNear(fields, radiusKm, condition.And)
}

// GeoNear is [Builder.NearCoordinates] with a selectable mode.
func (b *Builder[T]) GeoNear(fields map[string]condition.Coordinates, radiusKm float64, mode condition.Mode) *Builder[T] {
	return b.WherePredicate(mode, condition.Near(fields, radiusKm)...)
}

// ValueMatches matches documents where each field is one of its values.
func (b *Builder[T]) ValueMatches(fields domain.M) *Builder[T] {
	return b.WherePredicate(condition.And, condition.Memberships(fields)...)
}

// ValueNotMatches matches documents where each field is none of its values.
func (b *Builder[T]) ValueNotMatches(fields domain.M) *Builder[T] {
	return b.WherePredicate(condition.And, condition.Exclusions(fields)...)
}

// WhiteList restricts _id to ids, converted with the configured
// [domain.IDConverter]. Ids that cannot be converted are kept as they are. An
// empty list adds no restriction.
func (b *Builder[T]) WhiteList(ids ...string) *Builder[T] {
	if len(ids) == 0 {
		return b
	}
	converted := make(domain.A, len(ids))
	for n, id := range ids {
		if v, err := b.ids.ToID(id); err == nil {
			converted[n] = v
		} else {
			converted[n] = id
		}
	}
	return b.WherePredicate(condition.And, condition.In{Field: idField, Values: converted})
}

// WhiteListIDs restricts _id to ids, used as they are. An empty list adds no
// restriction.
func (b *Builder[T]) WhiteListIDs(ids ...any) *Builder[T] {
	if len(ids) == 0 {
		return b
	}
	return b.WherePredicate(condition.And, condition.In{Field: idField, Values: domain.A(ids)})
}

// WithID restricts _id to id and makes it the target of [Builder.Patch]. If id
// cannot be converted, the conversion error is returned by the next terminal
// operation.
func (b *Builder[T]) WithID(id any) *Builder[T] {
	converted, err := b.ids.ToID(id)
	if err != nil {
		b.setErr(err)
		converted = id
	}
	b.id, b.hasID = converted, true
	return b.WherePredicate(condition.And, condition.Equal{Field: idField, Value: converted})
}

// Condition returns the merged condition.
func (b *Builder[T]) Condition() domain.M {
	return b.conditions.Condition()
}
