// Package condition accumulates filter fragments and merges them into a single
// condition document.
//
// Fragments added in [And] mode are merged key by key, the latest fragment
// winning for a repeated top-level key. Fragments added in [Or] mode are kept
// in a separate ordered list and rendered once under a single $or key, so
// every call contributes one more alternative.
package condition

import (
	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Mode selects the group a fragment is added to.
type Mode int

const (
	// And merges the fragment into the main condition.
	And Mode = iota
	// Or adds the fragment as one alternative of $or.
	Or
)

// String implements [fmt.Stringer].
func (m Mode) String() string {
	if m == Or {
		return "or"
	}
	return "and"
}

const orKey = "$or"

// Accumulator collects condition fragments. It is not safe for concurrent use.
type Accumulator struct {
	and []domain.M
	or  []domain.M
}

// NewAccumulator returns an empty [Accumulator].
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add stores a copy of each non-empty fragment in the group selected by mode.
func (a *Accumulator) Add(mode Mode, fragments ...domain.M) {
	for _, f := range fragments {
		if len(f) == 0 {
			continue
		}
		f = cloner.CloneDoc(f)
		if mode == Or {
			a.or = append(a.or, f)
		} else {
			a.and = append(a.and, f)
		}
	}
}

// AddPredicates renders each predicate and adds the fragments in the group
// selected by mode.
func (a *Accumulator) AddPredicates(mode Mode, preds ...Predicate) {
	for _, p := range preds {
		if p == nil {
			continue
		}
		a.Add(mode, p.Fragment())
	}
}

// Len returns the number of stored fragments in both groups.
func (a *Accumulator) Len() int {
	return len(a.and) + len(a.or)
}

// Condition returns the merged condition. The result is a new document and can
// be modified freely.
func (a *Accumulator) Condition() domain.M {
	res := make(domain.M)
	for _, f := range a.and {
		for k, v := range f {
			res[k] = cloner.Clone(v)
		}
	}
	if len(a.or) == 0 {
		return res
	}

	// An $or set by an and fragment keeps its alternatives first. A single
	// document becomes the first alternative.
	var ors domain.A
	if prev, ok := res[orKey]; ok && prev != nil {
		switch p := cloner.Normalize(prev).(type) {
		case domain.A:
			ors = append(ors, p...)
		default:
			ors = append(ors, p)
		}
	}
	for _, f := range a.or {
		ors = append(ors, cloner.CloneDoc(f))
	}
	res[orKey] = ors
	return res
}

// Clone returns an independent copy of a.
func (a *Accumulator) Clone() *Accumulator {
	return &Accumulator{
		and: cloner.Clone(a.and).([]domain.M),
		or:  cloner.Clone(a.or).([]domain.M),
	}
}
