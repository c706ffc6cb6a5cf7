// Package matcher evaluates query conditions against normalized documents,
// following the semantics of the database server for the supported operators.
package matcher

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

var (
	// ErrMixedOperators is returned when user provides a query with mixed
	// use of normal fields and operators.
	ErrMixedOperators = errors.New("cannot mix operators and normal fields")
)

// ErrCompArgType is returned when a comparison operator is called with an
// argument of invalid type.
type ErrCompArgType struct {
	Comp   string
	Want   string
	Actual any
}

// Error implements [error].
func (e ErrCompArgType) Error() string {
	return fmt.Sprintf(
		"%s value should be of type %s, got %T",
		e.Comp, e.Want, e.Actual,
	)
}

// compFunc evaluates a field operator. ops holds every operator given for the
// field, so operators like $regex can read their siblings.
type compFunc func(values []domain.GetSetter, expanded bool, arg any, ops domain.M) (bool, error)

type logicFunc func(doc domain.M, arg any) (bool, error)

// Matcher evaluates query conditions.
type Matcher struct {
	comparer       domain.Comparer
	fieldNavigator *fieldnavigator.FieldNavigator
	compFuncs      map[string]compFunc
	logicOps       map[string]logicFunc
}

// NewMatcher returns a new Matcher.
func NewMatcher(options ...Option) *Matcher {
	m := &Matcher{
		comparer:       comparer.NewComparer(),
		fieldNavigator: fieldnavigator.NewFieldNavigator(),
	}
	for _, option := range options {
		option(m)
	}

	m.logicOps = map[string]logicFunc{
		"$and": m.and,
		"$or":  m.or,
		"$nor": m.nor,
	}

	m.compFuncs = map[string]compFunc{
		"$eq":        m.eq,
		"$ne":        m.ne,
		"$gt":        m.ordered("$gt", func(c int) bool { return c > 0 }),
		"$gte":       m.ordered("$gte", func(c int) bool { return c >= 0 }),
		"$lt":        m.ordered("$lt", func(c int) bool { return c < 0 }),
		"$lte":       m.ordered("$lte", func(c int) bool { return c <= 0 }),
		"$in":        m.in,
		"$nin":       m.nin,
		"$regex":     m.regex,
		"$options":   m.options,
		"$exists":    m.exists,
		"$size":      m.size,
		"$elemMatch": m.elemMatch,
		"$not":       m.not,
		"$geoWithin": m.geoWithin,
	}

	return m
}

// Match reports whether doc satisfies query. An empty query matches every
// document.
func (m *Matcher) Match(doc domain.M, query domain.M) (bool, error) {
	for _, key := range sortedKeys(query) {
		var (
			ok  bool
			err error
		)
		if strings.HasPrefix(key, "$") {
			fn, found := m.logicOps[key]
			if !found {
				return false, domain.ErrUnknownOperator{Operator: key}
			}
			ok, err = fn(doc, query[key])
		} else {
			ok, err = m.MatchField(doc, key, query[key])
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// MatchField reports whether the value found at the dotted field of doc
// satisfies cond, which is either a value for equality or a document of
// field operators.
func (m *Matcher) MatchField(doc domain.M, field string, cond any) (bool, error) {
	values, expanded := m.fieldNavigator.GetField(doc, m.fieldNavigator.GetAddress(field)...)

	ops, isOps, err := m.operators(cond)
	if err != nil {
		return false, err
	}
	if isOps {
		return m.matchOps(values, expanded, ops)
	}

	if re, ok := cond.(primitive.Regex); ok {
		return m.matchRegex(values, re.Pattern, re.Options)
	}
	return m.eq(values, expanded, cond, nil)
}

// operators reports whether cond is a document of field operators.
func (m *Matcher) operators(cond any) (domain.M, bool, error) {
	doc, ok := cond.(domain.M)
	if !ok || len(doc) == 0 {
		return nil, false, nil
	}
	dollar := 0
	for k := range doc {
		if strings.HasPrefix(k, "$") {
			dollar++
		}
	}
	switch dollar {
	case 0:
		return nil, false, nil
	case len(doc):
		return doc, true, nil
	default:
		return nil, false, ErrMixedOperators
	}
}

func (m *Matcher) matchOps(values []domain.GetSetter, expanded bool, ops domain.M) (bool, error) {
	for _, op := range sortedKeys(ops) {
		fn, ok := m.compFuncs[op]
		if !ok {
			return false, domain.ErrUnknownOperator{Operator: op}
		}
		matches, err := fn(values, expanded, ops[op], ops)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

// candidates returns the defined values and, for lists, their items, so
// conditions on a list field are tested against each element.
func (m *Matcher) candidates(values []domain.GetSetter) []any {
	res := make([]any, 0, len(values))
	for _, g := range values {
		v, ok := g.Get()
		if !ok {
			continue
		}
		if list, ok := v.(domain.A); ok {
			res = append(res, list...)
		}
		res = append(res, v)
	}
	return res
}

func (m *Matcher) defined(values []domain.GetSetter) bool {
	for _, g := range values {
		if _, ok := g.Get(); ok {
			return true
		}
	}
	return false
}

func (m *Matcher) equal(a, b any) bool {
	c, err := m.comparer.Compare(a, b)
	return err == nil && c == 0
}

func (m *Matcher) eq(values []domain.GetSetter, _ bool, arg any, _ domain.M) (bool, error) {
	if arg == nil && !m.defined(values) {
		return true, nil
	}
	for _, c := range m.candidates(values) {
		if m.equal(c, arg) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) ne(values []domain.GetSetter, expanded bool, arg any, ops domain.M) (bool, error) {
	ok, err := m.eq(values, expanded, arg, ops)
	return !ok, err
}

func (m *Matcher) ordered(op string, accept func(int) bool) compFunc {
	return func(values []domain.GetSetter, _ bool, arg any, _ domain.M) (bool, error) {
		for _, c := range m.candidates(values) {
			if !m.comparer.Comparable(c, arg) {
				continue
			}
			comp, err := m.comparer.Compare(c, arg)
			if err != nil {
				return false, fmt.Errorf("%s: %w", op, err)
			}
			if accept(comp) {
				return true, nil
			}
		}
		return false, nil
	}
}

func (m *Matcher) in(values []domain.GetSetter, expanded bool, arg any, _ domain.M) (bool, error) {
	list, ok := arg.(domain.A)
	if !ok {
		return false, ErrCompArgType{Comp: "$in", Want: "list", Actual: arg}
	}
	for _, item := range list {
		var (
			matches bool
			err     error
		)
		if re, ok := item.(primitive.Regex); ok {
			matches, err = m.matchRegex(values, re.Pattern, re.Options)
		} else {
			matches, err = m.eq(values, expanded, item, nil)
		}
		if err != nil || matches {
			return matches, err
		}
	}
	return false, nil
}

func (m *Matcher) nin(values []domain.GetSetter, expanded bool, arg any, ops domain.M) (bool, error) {
	if _, ok := arg.(domain.A); !ok {
		return false, ErrCompArgType{Comp: "$nin", Want: "list", Actual: arg}
	}
	ok, err := m.in(values, expanded, arg, ops)
	return !ok, err
}

func (m *Matcher) regex(values []domain.GetSetter, _ bool, arg any, ops domain.M) (bool, error) {
	options, _ := ops["$options"].(string)
	switch t := arg.(type) {
	case string:
		return m.matchRegex(values, t, options)
	case primitive.Regex:
		if options == "" {
			options = t.Options
		}
		return m.matchRegex(values, t.Pattern, options)
	default:
		return false, ErrCompArgType{Comp: "$regex", Want: "string", Actual: arg}
	}
}

// options is consumed by $regex.
func (m *Matcher) options(_ []domain.GetSetter, _ bool, arg any, ops domain.M) (bool, error) {
	if _, ok := ops["$regex"]; !ok {
		return false, errors.New("$options needs a $regex")
	}
	if _, ok := arg.(string); !ok {
		return false, ErrCompArgType{Comp: "$options", Want: "string", Actual: arg}
	}
	return true, nil
}

func (m *Matcher) matchRegex(values []domain.GetSetter, pattern, options string) (bool, error) {
	re, err := compileRegex(pattern, options)
	if err != nil {
		return false, err
	}
	for _, c := range m.candidates(values) {
		if s, ok := c.(string); ok && re.MatchString(s) {
			return true, nil
		}
	}
	return false, nil
}

// compileRegex converts the server regex options into inline flags. Options
// without an equivalent are ignored.
func compileRegex(pattern, options string) (*regexp.Regexp, error) {
	var flags strings.Builder
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			flags.WriteRune(o)
		}
	}
	if flags.Len() > 0 {
		pattern = "(?" + flags.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func (m *Matcher) exists(values []domain.GetSetter, _ bool, arg any, _ domain.M) (bool, error) {
	return m.defined(values) == truthy(arg), nil
}

func (m *Matcher) size(values []domain.GetSetter, _ bool, arg any, _ domain.M) (bool, error) {
	n, ok := toFloat(arg)
	if !ok || n != math.Trunc(n) {
		return false, ErrCompArgType{Comp: "$size", Want: "integer", Actual: arg}
	}
	for _, g := range values {
		v, _ := g.Get()
		if list, ok := v.(domain.A); ok && float64(len(list)) == n {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) elemMatch(values []domain.GetSetter, _ bool, arg any, _ domain.M) (bool, error) {
	query, ok := arg.(domain.M)
	if !ok {
		return false, ErrCompArgType{Comp: "$elemMatch", Want: "document", Actual: arg}
	}
	ops, isOps, err := m.operators(query)
	if err != nil {
		return false, err
	}
	for _, g := range values {
		v, _ := g.Get()
		list, ok := v.(domain.A)
		if !ok {
			continue
		}
		for _, item := range list {
			var matches bool
			if isOps {
				elem := []domain.GetSetter{fieldnavigator.Constant(item)}
				matches, err = m.matchOps(elem, false, ops)
			} else if doc, ok := item.(domain.M); ok {
				matches, err = m.Match(doc, query)
			}
			if err != nil || matches {
				return matches, err
			}
		}
	}
	return false, nil
}

func (m *Matcher) not(values []domain.GetSetter, expanded bool, arg any, _ domain.M) (bool, error) {
	var (
		matches bool
		err     error
	)
	switch t := arg.(type) {
	case primitive.Regex:
		matches, err = m.matchRegex(values, t.Pattern, t.Options)
	case domain.M:
		ops, isOps, opErr := m.operators(t)
		if opErr != nil {
			return false, opErr
		}
		if !isOps {
			return false, ErrCompArgType{Comp: "$not", Want: "operator document", Actual: arg}
		}
		matches, err = m.matchOps(values, expanded, ops)
	default:
		return false, ErrCompArgType{Comp: "$not", Want: "document", Actual: arg}
	}
	return !matches && err == nil, err
}

// geoWithin supports circles given as $center, using flat distances, and as
// $centerSphere, using great circle distances in radians. Points are
// [x, y] pairs.
func (m *Matcher) geoWithin(values []domain.GetSetter, _ bool, arg any, _ domain.M) (bool, error) {
	shape, ok := arg.(domain.M)
	if !ok {
		return false, ErrCompArgType{Comp: "$geoWithin", Want: "document", Actual: arg}
	}
	var (
		circle  any
		measure func(a, b [2]float64) float64
	)
	if c, ok := shape["$center"]; ok {
		circle, measure = c, planeDistance
	} else if c, ok := shape["$centerSphere"]; ok {
		circle, measure = c, sphereDistance
	} else {
		return false, ErrCompArgType{Comp: "$geoWithin", Want: "$center or $centerSphere", Actual: arg}
	}

	parts, ok := circle.(domain.A)
	if !ok || len(parts) != 2 {
		return false, ErrCompArgType{Comp: "$geoWithin", Want: "[[x, y], radius]", Actual: circle}
	}
	center, okCenter := toPoint(parts[0])
	radius, okRadius := toFloat(parts[1])
	if !okCenter || !okRadius {
		return false, ErrCompArgType{Comp: "$geoWithin", Want: "[[x, y], radius]", Actual: circle}
	}

	for _, g := range values {
		v, _ := g.Get()
		if p, ok := toPoint(v); ok && measure(center, p) <= radius {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) and(doc domain.M, arg any) (bool, error) {
	queries, err := subQueries("$and", arg)
	if err != nil {
		return false, err
	}
	for _, q := range queries {
		ok, err := m.Match(doc, q)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) or(doc domain.M, arg any) (bool, error) {
	queries, err := subQueries("$or", arg)
	if err != nil {
		return false, err
	}
	for _, q := range queries {
		ok, err := m.Match(doc, q)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (m *Matcher) nor(doc domain.M, arg any) (bool, error) {
	ok, err := m.or(doc, arg)
	if err != nil {
		return false, fmt.Errorf("$nor: %w", err)
	}
	return !ok, nil
}

func subQueries(op string, arg any) ([]domain.M, error) {
	list, ok := arg.(domain.A)
	if !ok || len(list) == 0 {
		return nil, ErrCompArgType{Comp: op, Want: "non-empty list", Actual: arg}
	}
	res := make([]domain.M, len(list))
	for n, item := range list {
		q, ok := item.(domain.M)
		if !ok {
			return nil, ErrCompArgType{Comp: op, Want: "list of documents", Actual: arg}
		}
		res[n] = q
	}
	return res, nil
}

func sortedKeys(d domain.M) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	}
	if n, ok := toFloat(v); ok {
		return n != 0
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toPoint(v any) ([2]float64, bool) {
	list, ok := v.(domain.A)
	if !ok || len(list) != 2 {
		return [2]float64{}, false
	}
	x, okX := toFloat(list[0])
	y, okY := toFloat(list[1])
	return [2]float64{x, y}, okX && okY
}

func planeDistance(a, b [2]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// sphereDistance returns the central angle between two [longitude, latitude]
// points given in degrees.
func sphereDistance(a, b [2]float64) float64 {
	lng1, lat1 := a[0]*math.Pi/180, a[1]*math.Pi/180
	lng2, lat2 := b[0]*math.Pi/180, b[1]*math.Pi/180
	h := math.Pow(math.Sin((lat2-lat1)/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin((lng2-lng1)/2), 2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}
