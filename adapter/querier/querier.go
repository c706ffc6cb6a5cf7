// Package querier runs reads over in-memory documents: matching, sorting,
// skipping, limiting and projecting.
package querier

import (
	"fmt"
	"slices"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/projector"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Options are the parameters of a single read. Zero values are ignored.
type Options struct {
	Condition  domain.M
	Projection domain.M
	Sort       domain.D
	Skip       int64
	Limit      int64
}

// Querier runs reads.
type Querier struct {
	mtchr *matcher.Matcher
	cmpr  domain.Comparer
	fn    *fieldnavigator.FieldNavigator
	proj  *projector.Projector
}

// NewQuerier returns a new Querier.
func NewQuerier(opts ...Option) *Querier {
	q := Querier{
		cmpr: comparer.NewComparer(),
		fn:   fieldnavigator.NewFieldNavigator(),
		proj: projector.NewProjector(),
	}
	for _, opt := range opts {
		opt(&q)
	}
	if q.mtchr == nil {
		q.mtchr = matcher.NewMatcher(matcher.WithComparer(q.cmpr))
	}
	return &q
}

// Query returns the documents of data matching the options. Documents are
// returned as they are stored unless a projection is given.
func (q *Querier) Query(data []domain.M, options Options) ([]domain.M, error) {
	res, err := q.Filter(data, options.Condition)
	if err != nil {
		return nil, err
	}

	if len(options.Sort) > 0 {
		if res, err = q.Sort(res, options.Sort); err != nil {
			return nil, fmt.Errorf("sorting: %w", err)
		}
	}

	res = q.skipAndLimit(res, options.Skip, options.Limit)

	res, err = q.proj.Project(res, options.Projection)
	if err != nil {
		return nil, fmt.Errorf("projecting: %w", err)
	}
	return res, nil
}

// Filter returns the documents of data matching condition.
func (q *Querier) Filter(data []domain.M, condition domain.M) ([]domain.M, error) {
	res := make([]domain.M, 0, len(data))
	for _, doc := range data {
		matches, err := q.mtchr.Match(doc, condition)
		if err != nil {
			return nil, fmt.Errorf("matching document: %w", err)
		}
		if matches {
			res = append(res, doc)
		}
	}
	return res, nil
}

// Sort returns a sorted copy of data. Criteria are applied in order, a
// negative value sorts in descending order.
func (q *Querier) Sort(data []domain.M, sort domain.D) ([]domain.M, error) {
	res := slices.Clone(data)
	var err error
	slices.SortStableFunc(res, func(a, b domain.M) int {
		if err != nil {
			return 0
		}
		comp, cErr := q.CompareBy(a, b, sort)
		if cErr != nil {
			err = cErr
		}
		return comp
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CompareBy compares two values using the sort criteria. Values that are not
// documents only have undefined fields.
func (q *Querier) CompareBy(a, b any, sort domain.D) (int, error) {
	for _, crit := range sort {
		comp, err := q.compareByCriterion(a, b, crit)
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}
	return 0, nil
}

// Compare compares two values with the configured comparer.
func (q *Querier) Compare(a, b any) (int, error) {
	return q.cmpr.Compare(a, b)
}

func (q *Querier) compareByCriterion(a, b any, crit domain.E) (int, error) {
	addr := q.fn.GetAddress(crit.Key)

	critA := q.sortValue(q.fn.GetField(a, addr...))
	critB := q.sortValue(q.fn.GetField(b, addr...))

	comp, err := q.cmpr.Compare(critA, critB)
	if err != nil {
		return 0, fmt.Errorf("comparing: %w", err)
	}
	return comp * Direction(crit.Value), nil
}

// sortValue returns the getter of a single field, or the list of values
// found in an expanded one.
func (q *Querier) sortValue(g []domain.GetSetter, expanded bool) any {
	if !expanded && len(g) == 1 {
		return g[0]
	}
	res := make(domain.A, 0, len(g))
	for _, v := range g {
		if value, ok := v.Get(); ok {
			res = append(res, value)
		}
	}
	return res
}

// Direction returns -1 for negative sort values and 1 otherwise.
func Direction(v any) int {
	switch n := v.(type) {
	case int:
		return sign(float64(n))
	case int32:
		return sign(float64(n))
	case int64:
		return sign(float64(n))
	case float64:
		return sign(n)
	}
	return 1
}

func sign(n float64) int {
	if n < 0 {
		return -1
	}
	return 1
}

func (q *Querier) skipAndLimit(data []domain.M, skip, limit int64) []domain.M {

	length := int64(len(data))

	skip = max(skip, 0)      // skip cannot be negative
	skip = min(skip, length) // cannot skip more than length

	if limit <= 0 { // if limit is zero, return all data
		return data[skip:]
	}

	return data[skip:min(skip+limit, length)]
}
