package builder

import (
	"maps"
	"slices"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/update"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Set adds a $set for each field.
func (b *Builder[T]) Set(fields domain.M) *Builder[T] {
	b.updates.Add(update.OpSet, fields)
	return b
}

// Unset adds an $unset for each field.
func (b *Builder[T]) Unset(fields domain.M) *Builder[T] {
	b.updates.Add(update.OpUnset, fields)
	return b
}

// Inc adds an $inc for each field.
func (b *Builder[T]) Inc(fields domain.M) *Builder[T] {
	b.updates.Add(update.OpInc, fields)
	return b
}

// AddToSet adds an $addToSet for each field.
func (b *Builder[T]) AddToSet(fields domain.M) *Builder[T] {
	b.updates.Add(update.OpAddToSet, fields)
	return b
}

// Pull adds a $pull for each field.
func (b *Builder[T]) Pull(fields domain.M) *Builder[T] {
	b.updates.Add(update.OpPull, fields)
	return b
}

// Push adds a $push for each field. The value is appended as one element,
// unless [domain.WithPushEach] is given, in which case it must be a list and
// each of its elements is appended.
func (b *Builder[T]) Push(fields domain.M, options ...domain.PushOption) *Builder[T] {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		b.updates.AddOps(update.Op{
			Operator: update.OpPush,
			Field:    k,
			Value:    update.PushValue(fields[k], options...),
		})
	}
	return b
}

// SetCurrentDateOn adds a $currentDate for each field.
func (b *Builder[T]) SetCurrentDateOn(fields map[string]update.DateType) *Builder[T] {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		b.updates.AddOps(update.Op{
			Operator: update.OpCurrentDate,
			Field:    k,
			Value:    update.CurrentDateValue(fields[k]),
		})
	}
	return b
}

// ModifyArrayElement sets the first element of each array field that matched
// the condition.
func (b *Builder[T]) ModifyArrayElement(fields domain.M) *Builder[T] {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		b.updates.AddOps(update.Op{
			Operator: update.OpSet,
			Field:    update.PositionalPath(k),
			Value:    fields[k],
		})
	}
	return b
}

// ModifyArrayElements sets the elements of each array field selected by the
// element Where, registering it as an array filter. Every element is set when
// Where is empty.
func (b *Builder[T]) ModifyArrayElements(fields map[string]update.ArrayElement) *Builder[T] {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		el := fields[k]
		b.updates.AddOps(update.Op{
			Operator: update.OpSet,
			Field:    update.FilteredPath(k, el.Where),
			Value:    el.Value,
		})
		if len(el.Where) > 0 {
			b.AddUpdateFilter(domain.M{update.ArrayFiltersKey: domain.A{el.Where}})
		}
	}
	return b
}

// AddUpdateFilter merges options into the update filter options. Lists are
// concatenated, documents merged and other values replaced. Changing an
// option between list and document records an error returned by the next
// terminal operation.
func (b *Builder[T]) AddUpdateFilter(options domain.M) *Builder[T] {
	if err := b.filters.Add(options); err != nil {
		b.setErr(err)
	}
	return b
}

// Updates returns the merged update document.
func (b *Builder[T]) Updates() domain.M {
	return b.updates.Updates()
}

// Modified is an alias of [Builder.Updates].
func (b *Builder[T]) Modified() domain.M {
	return b.Updates()
}

// UpdateFilters returns the accumulated update filter options.
func (b *Builder[T]) UpdateFilters() domain.M {
	return b.filters.Values()
}
