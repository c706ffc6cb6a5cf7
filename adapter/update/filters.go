package update

import (
	"maps"
	"slices"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type filterKind int

const (
	kindScalar filterKind = iota
	kindList
	kindDoc
)

// FilterSet accumulates update filter options by name. Lists are
// concatenated, documents are merged field by field and any other value
// replaces the previous one.
type FilterSet struct {
	values domain.M
}

// NewFilterSet returns an empty [FilterSet].
func NewFilterSet() *FilterSet {
	return &FilterSet{values: domain.M{}}
}

// Add merges every option into the set. Options are processed in name order
// and processing stops at the first option whose value changes between list
// and document, returning [domain.ErrUpdateFilterType]. Options processed
// before the failing one are kept.
//
// Scalars are overwritten by any later value, so a scalar may be upgraded to
// a list or a document. A list or document followed by a non-nil scalar is a
// kind change too, and a nil value clears the option.
func (f *FilterSet) Add(options domain.M) error {
	for _, name := range slices.Sorted(maps.Keys(options)) {
		next := normalize(cloner.Clone(options[name]))
		prev, ok := f.values[name]
		if !ok || prev == nil {
			f.values[name] = next
			continue
		}

		pk, nk := kindOf(prev), kindOf(next)
		if pk == kindScalar || (nk == kindScalar && next == nil) {
			f.values[name] = next
			continue
		}
		if pk != nk {
			return domain.ErrUpdateFilterType{Name: name, Previous: prev, Next: next}
		}

		switch pk {
		case kindList:
			f.values[name] = append(asList(prev), asList(next)...)
		case kindDoc:
			merged := asDoc(prev)
			for k, v := range asDoc(next) {
				merged[k] = v
			}
			f.values[name] = merged
		}
	}
	return nil
}

// Values returns a copy of the accumulated options.
func (f *FilterSet) Values() domain.M {
	return cloner.CloneDoc(f.values)
}

// Len returns the number of option names.
func (f *FilterSet) Len() int {
	return len(f.values)
}

// Clone returns an independent copy of f.
func (f *FilterSet) Clone() *FilterSet {
	return &FilterSet{values: cloner.CloneDoc(f.values)}
}

func kindOf(v any) filterKind {
	switch v.(type) {
	case domain.A, []any, []domain.M:
		return kindList
	case domain.M, map[string]any:
		return kindDoc
	default:
		return kindScalar
	}
}

func normalize(v any) any {
	switch kindOf(v) {
	case kindList:
		return asList(v)
	case kindDoc:
		return asDoc(v)
	default:
		return v
	}
}

func asList(v any) domain.A {
	switch t := v.(type) {
	case domain.A:
		return append(domain.A(nil), t...)
	case []any:
		return append(domain.A(nil), t...)
	case []domain.M:
		res := make(domain.A, len(t))
		for n, d := range t {
			res[n] = d
		}
		return res
	}
	return nil
}

func asDoc(v any) domain.M {
	switch t := v.(type) {
	case domain.M:
		return maps.Clone(t)
	case map[string]any:
		return domain.M(maps.Clone(t))
	}
	return domain.M{}
}
