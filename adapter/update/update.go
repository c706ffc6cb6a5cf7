// Package update accumulates update operators and update filter options.
package update

import (
	"maps"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Update operators emitted by the builder.
const (
	OpSet         = "$set"
	OpUnset       = "$unset"
	OpInc         = "$inc"
	OpAddToSet    = "$addToSet"
	OpPull        = "$pull"
	OpPush        = "$push"
	OpCurrentDate = "$currentDate"
)

// ArrayFiltersKey is the update filter option holding array filters.
const ArrayFiltersKey = "arrayFilters"

// DateType selects the BSON type written by $currentDate.
type DateType string

const (
	// Date writes a date.
	Date DateType = "date"
	// Timestamp writes a timestamp.
	Timestamp DateType = "timestamp"
)

// ArrayElement is the value written to the array elements selected by Where.
// Each key of Where names an array filter identifier. A nil Where targets
// every element.
type ArrayElement struct {
	Value any
	Where domain.M
}

// Op is a single field update.
type Op struct {
	Operator string
	Field    string
	Value    any
}

// Accumulator collects update operations in call order. It is not safe for
// concurrent use.
type Accumulator struct {
	ops []Op
}

// NewAccumulator returns an empty [Accumulator].
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add stores one operation per field of fields, in field order.
func (a *Accumulator) Add(operator string, fields domain.M) {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		a.ops = append(a.ops, Op{Operator: operator, Field: k, Value: cloner.Clone(fields[k])})
	}
}

// AddOps stores the given operations.
func (a *Accumulator) AddOps(ops ...Op) {
	for _, op := range ops {
		op.Value = cloner.Clone(op.Value)
		a.ops = append(a.ops, op)
	}
}

// Len returns the number of stored operations.
func (a *Accumulator) Len() int {
	return len(a.ops)
}

// Ops returns a copy of the stored operations.
func (a *Accumulator) Ops() []Op {
	res := make([]Op, len(a.ops))
	for n, op := range a.ops {
		op.Value = cloner.Clone(op.Value)
		res[n] = op
	}
	return res
}

// Updates groups the operations by operator. Within an operator, a later
// operation on the same field replaces the earlier value.
func (a *Accumulator) Updates() domain.M {
	res := make(domain.M)
	for _, op := range a.ops {
		fields, ok := res[op.Operator].(domain.M)
		if !ok {
			fields = make(domain.M)
			res[op.Operator] = fields
		}
		fields[op.Field] = cloner.Clone(op.Value)
	}
	return res
}

// Clone returns an independent copy of a.
func (a *Accumulator) Clone() *Accumulator {
	return &Accumulator{ops: a.Ops()}
}

// PushValue renders the $push argument for value. Without each the value is
// appended as a single element.
func PushValue(value any, options ...domain.PushOption) domain.M {
	var opts domain.PushOptions
	for _, opt := range options {
		opt(&opts)
	}
	res := domain.M{"$each": domain.A{value}}
	if opts.Each {
		res["$each"] = value
	}
	if len(opts.Sort) > 0 {
		res["$sort"] = opts.Sort
	}
	return res
}

// CurrentDateValue renders the $currentDate argument for t. An empty type
// means [Date].
func CurrentDateValue(t DateType) domain.M {
	if t == "" {
		t = Date
	}
	return domain.M{"$type": string(t)}
}

// PositionalPath returns the path of the first array element matched by the
// query.
func PositionalPath(field string) string {
	return field + ".$"
}

// FilteredPath returns the path of the array elements selected by the
// identifiers in where, or of every element when where is empty. A key like
// "elem.score" names the identifier "elem".
func FilteredPath(field string, where domain.M) string {
	if len(where) == 0 {
		return field + ".$[]"
	}
	var ids []string
	for _, k := range slices.Sorted(maps.Keys(where)) {
		id, _, _ := strings.Cut(k, ".")
		id = "$[" + id + "]"
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return field + "." + strings.Join(ids, ".")
}
