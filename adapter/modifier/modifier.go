// Package modifier applies update documents to in-memory documents, following
// the semantics of the database server for the supported operators.
package modifier

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/querier"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type modFunc func(doc domain.M, field string, arg any, st *state) error

// state holds what an update needs besides its own arguments.
type state struct {
	query        domain.M
	arrayFilters []domain.M
}

// Modifier applies update documents.
type Modifier struct {
	comp           domain.Comparer
	timeGetter     domain.TimeGetter
	fieldNavigator *fieldnavigator.FieldNavigator
	matcher        *matcher.Matcher
	querier        *querier.Querier
	mods           map[string]modFunc
}

// NewModifier returns a new Modifier.
func NewModifier(options ...Option) *Modifier {
	m := &Modifier{
		comp:           comparer.NewComparer(),
		timeGetter:     timegetter.NewTimeGetter(),
		fieldNavigator: fieldnavigator.NewFieldNavigator(),
	}
	for _, opt := range options {
		opt(m)
	}
	m.matcher = matcher.NewMatcher(matcher.WithComparer(m.comp))
	m.querier = querier.NewQuerier(querier.WithComparer(m.comp), querier.WithMatcher(m.matcher))

	m.mods = map[string]modFunc{
		"$set":         m.set,
		"$unset":       m.unset,
		"$inc":         m.inc,
		"$push":        m.push,
		"$addToSet":    m.addToSet,
		"$pop":         m.pop,
		"$pull":        m.pull,
		"$max":         m.limit("$max", 1),
		"$min":         m.limit("$min", -1),
		"$currentDate": m.currentDate,
	}

	return m
}

// Modify returns an updated copy of obj. query is the condition that selected
// obj, used by "$" path segments, and arrayFilters select the elements
// updated by "$[id]" segments.
func (m *Modifier) Modify(obj domain.M, update domain.M, query domain.M, arrayFilters ...any) (domain.M, error) {
	if len(update) == 0 {
		return nil, ErrReplacement
	}
	for k := range update {
		if !strings.HasPrefix(k, "$") {
			return nil, ErrReplacement
		}
	}

	st, err := m.newState(query, arrayFilters)
	if err != nil {
		return nil, err
	}

	res := cloner.CloneDoc(obj)
	if res == nil {
		res = domain.M{}
	}

	for _, modName := range sortedKeys(update) {
		mod, ok := m.mods[modName]
		if !ok {
			return nil, domain.ErrUnknownOperator{Operator: modName}
		}
		args, ok := asDoc(update[modName])
		if !ok {
			return nil, ErrNonObject
		}
		for _, field := range sortedKeys(args) {
			if err := mod(res, field, args[field], st); err != nil {
				return nil, fmt.Errorf("modifying field %q: %w", field, err)
			}
		}
	}

	if err := m.checkID(obj, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (m *Modifier) newState(query domain.M, arrayFilters []any) (*state, error) {
	st := &state{query: query}
	for _, f := range arrayFilters {
		doc, ok := cloner.Normalize(f).(domain.M)
		if !ok {
			return nil, ErrModArgType{Mod: "arrayFilters", Want: "document", Actual: f}
		}
		st.arrayFilters = append(st.arrayFilters, doc)
	}
	return st, nil
}

func (m *Modifier) checkID(before, after domain.M) error {
	id, had := before["_id"]
	if !had {
		return nil
	}
	newID, has := after["_id"]
	if !has {
		return ErrCannotModifyID
	}
	c, err := m.comp.Compare(id, newID)
	if err != nil || c != 0 {
		return ErrCannotModifyID
	}
	return nil
}

// targets returns setters for field. Missing parents are created only when
// create is true.
func (m *Modifier) targets(doc domain.M, field string, st *state, create bool) ([]domain.GetSetter, error) {
	parts := m.fieldNavigator.GetAddress(field)
	sel := m.selector(parts, st)
	if create {
		return m.fieldNavigator.EnsureField(doc, sel, parts...)
	}
	return m.fieldNavigator.LocateField(doc, sel, parts...)
}

// selector resolves the positional segments of parts.
func (m *Modifier) selector(parts []string, st *state) fieldnavigator.IndexSelector {
	return func(list domain.A, part string) ([]int, bool, error) {
		switch {
		case part == "$[]":
			res := make([]int, len(list))
			for n := range list {
				res[n] = n
			}
			return res, true, nil
		case part == "$":
			prefix := strings.Join(parts[:slices.Index(parts, "$")], ".")
			i, err := m.positional(list, prefix, st.query)
			if err != nil {
				return nil, true, err
			}
			return []int{i}, true, nil
		case strings.HasPrefix(part, "$[") && strings.HasSuffix(part, "]"):
			res, err := m.filtered(list, part[2:len(part)-1], st.arrayFilters)
			return res, true, err
		}
		return nil, false, nil
	}
}

// positional returns the index of the first element of list satisfying every
// condition of query on the list field.
func (m *Modifier) positional(list domain.A, prefix string, query domain.M) (int, error) {
	conds := domain.M{}
	for k, v := range query {
		switch {
		case k == prefix:
			conds["e"] = v
		case strings.HasPrefix(k, prefix+"."):
			conds["e"+strings.TrimPrefix(k, prefix)] = v
		}
	}
	if len(conds) == 0 {
		return 0, ErrNoPositionalMatch
	}
	for n, item := range list {
		matches, err := m.matcher.Match(domain.M{"e": item}, conds)
		if err != nil {
			return 0, err
		}
		if matches {
			return n, nil
		}
	}
	return 0, ErrNoPositionalMatch
}

// filtered returns the indexes of the elements of list satisfying every array
// filter given for identifier.
func (m *Modifier) filtered(list domain.A, identifier string, filters []domain.M) ([]int, error) {
	var relevant []domain.M
	for _, f := range filters {
		for k := range f {
			if k == identifier || strings.HasPrefix(k, identifier+".") {
				relevant = append(relevant, f)
				break
			}
		}
	}
	if len(relevant) == 0 {
		return nil, ErrMissingArrayFilter{Identifier: identifier}
	}

	res := make([]int, 0, len(list))
	for n, item := range list {
		wrapped := domain.M{identifier: item}
		all := true
		for _, f := range relevant {
			matches, err := m.matcher.Match(wrapped, f)
			if err != nil {
				return nil, err
			}
			if !matches {
				all = false
				break
			}
		}
		if all {
			res = append(res, n)
		}
	}
	return res, nil
}

func (m *Modifier) set(obj domain.M, field string, arg any, st *state) error {
	fields, err := m.targets(obj, field, st, true)
	if err != nil {
		return err
	}
	for _, f := range fields {
		f.Set(cloner.Normalize(arg))
	}
	return nil
}

func (m *Modifier) unset(obj domain.M, field string, _ any, st *state) error {
	fields, err := m.targets(obj, field, st, false)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if _, defined := f.Get(); defined {
			f.Unset()
		}
	}
	return nil
}

func (m *Modifier) inc(obj domain.M, field string, arg any, st *state) error {
	if _, ok := toFloat(arg); !ok {
		return ErrModArgType{Mod: "$inc", Want: "number", Actual: arg}
	}
	fields, err := m.targets(obj, field, st, true)
	if err != nil {
		return err
	}
	for _, f := range fields {
		value, defined := f.Get()
		if !defined {
			f.Set(arg)
			continue
		}
		sum, ok := add(value, arg)
		if !ok {
			return ErrModFieldType{Mod: "$inc", Want: "number", Actual: value}
		}
		f.Set(sum)
	}
	return nil
}

// pushArgs are the modifiers accepted by $push and $addToSet.
type pushArgs struct {
	each     domain.A
	sort     any
	slice    int
	hasSlice bool
}

func (m *Modifier) pushArgs(mod string, arg any, allowed ...string) (pushArgs, error) {
	d, ok := asDoc(arg)
	if !ok {
		return pushArgs{each: domain.A{cloner.Normalize(arg)}}, nil
	}
	each, ok := d["$each"]
	if !ok {
		return pushArgs{each: domain.A{cloner.Normalize(arg)}}, nil
	}

	var res pushArgs
	if res.each, ok = cloner.Normalize(each).(domain.A); !ok {
		return res, ErrModArgType{Mod: "$each", Want: "list", Actual: each}
	}
	for k, v := range d {
		switch {
		case k == "$each":
		case k == "$sort" && slices.Contains(allowed, k):
			res.sort = v
		case k == "$slice" && slices.Contains(allowed, k):
			n, ok := toFloat(v)
			if !ok || n != math.Trunc(n) {
				return res, ErrModArgType{Mod: "$slice", Want: "integer", Actual: v}
			}
			res.slice, res.hasSlice = int(n), true
		default:
			return res, ErrModArgType{Mod: mod, Want: "$each modifiers", Actual: k}
		}
	}
	return res, nil
}

// list returns the list stored in a field. Missing and nil fields are empty
// lists.
func list(mod string, f domain.GetSetter) (domain.A, error) {
	value, _ := f.Get()
	if value == nil {
		return domain.A{}, nil
	}
	l, ok := value.(domain.A)
	if !ok {
		return nil, ErrModFieldType{Mod: mod, Want: "list", Actual: value}
	}
	return l, nil
}

func (m *Modifier) push(obj domain.M, field string, arg any, st *state) error {
	args, err := m.pushArgs("$push", arg, "$sort", "$slice")
	if err != nil {
		return err
	}
	fields, err := m.targets(obj, field, st, true)
	if err != nil {
		return err
	}
	for _, f := range fields {
		l, err := list("$push", f)
		if err != nil {
			return err
		}
		res := append(slices.Clone(l), cloner.Clone(args.each).(domain.A)...)
		if args.sort != nil {
			if res, err = m.sortList(res, args.sort); err != nil {
				return err
			}
		}
		if args.hasSlice {
			res = sliceList(res, args.slice)
		}
		f.Set(res)
	}
	return nil
}

// sortList sorts list by value when spec is a number, or by the fields of its
// documents when spec is a document.
func (m *Modifier) sortList(l domain.A, spec any) (domain.A, error) {
	var sort domain.D
	switch t := spec.(type) {
	case domain.D:
		sort = t
	case domain.M:
		for _, k := range sortedKeys(t) {
			sort = append(sort, domain.E{Key: k, Value: t[k]})
		}
	default:
		if _, ok := toFloat(spec); !ok {
			return nil, ErrModArgType{Mod: "$sort", Want: "number or document", Actual: spec}
		}
	}

	var err error
	slices.SortStableFunc(l, func(a, b any) int {
		if err != nil {
			return 0
		}
		var (
			c    int
			cErr error
		)
		if sort == nil {
			c, cErr = m.querier.Compare(a, b)
			c *= querier.Direction(spec)
		} else {
			c, cErr = m.querier.CompareBy(a, b, sort)
		}
		if cErr != nil {
			err = cErr
		}
		return c
	})
	return l, err
}

// sliceList keeps the first n items, or the last -n items when n is negative.
func sliceList(l domain.A, n int) domain.A {
	if n >= 0 {
		return l[:min(n, len(l))]
	}
	return l[len(l)+max(n, -len(l)):]
}

func (m *Modifier) addToSet(obj domain.M, field string, arg any, st *state) error {
	args, err := m.pushArgs("$addToSet", arg)
	if err != nil {
		return err
	}
	fields, err := m.targets(obj, field, st, true)
	if err != nil {
		return err
	}

	for _, f := range fields {
		l, err := list("$addToSet", f)
		if err != nil {
			return err
		}
		res := slices.Clone(l)
		for _, value := range args.each {
			if !slices.ContainsFunc(res, func(item any) bool { return m.equal(value, item) }) {
				res = append(res, cloner.Clone(value))
			}
		}
		f.Set(res)
	}

	return nil
}

func (m *Modifier) pop(obj domain.M, field string, arg any, st *state) error {
	n, ok := toFloat(arg)
	if !ok || (n != 1 && n != -1) {
		return ErrModArgType{Mod: "$pop", Want: "1 or -1", Actual: arg}
	}
	fields, err := m.targets(obj, field, st, false)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if _, defined := f.Get(); !defined {
			continue
		}
		l, err := list("$pop", f)
		if err != nil {
			return err
		}
		if len(l) == 0 {
			continue
		}
		if n > 0 {
			f.Set(slices.Clone(l[:len(l)-1]))
		} else {
			f.Set(slices.Clone(l[1:]))
		}
	}
	return nil
}

// pull removes the items equal to arg. A document of operators is a condition
// on each item, and a plain document is a query on document items.
func (m *Modifier) pull(obj domain.M, field string, arg any, st *state) error {
	fields, err := m.targets(obj, field, st, false)
	if err != nil {
		return err
	}
	arg = cloner.Normalize(arg)
	query, isDoc := arg.(domain.M)
	isQuery := isDoc && len(query) > 0 && !hasOperators(query)

	for _, f := range fields {
		if _, defined := f.Get(); !defined {
			continue
		}
		l, err := list("$pull", f)
		if err != nil {
			return err
		}
		res := make(domain.A, 0, len(l))
		for _, item := range l {
			var matches bool
			if doc, ok := item.(domain.M); ok && isQuery {
				matches, err = m.matcher.Match(doc, query)
			} else if !isQuery {
				matches, err = m.matcher.MatchField(domain.M{"e": item}, "e", arg)
			}
			if err != nil {
				return err
			}
			if !matches {
				res = append(res, item)
			}
		}
		f.Set(res)
	}
	return nil
}

// limit returns the $max or $min operator. The field is replaced when the
// comparison with arg has the sign of dir.
func (m *Modifier) limit(mod string, dir int) modFunc {
	return func(obj domain.M, field string, arg any, st *state) error {
		fields, err := m.targets(obj, field, st, true)
		if err != nil {
			return err
		}
		arg = cloner.Normalize(arg)
		for _, f := range fields {
			if _, defined := f.Get(); !defined {
				f.Set(arg)
				continue
			}
			comp, err := m.comp.Compare(arg, f)
			if err != nil {
				return fmt.Errorf("%s: %w", mod, err)
			}
			if comp*dir > 0 {
				f.Set(arg)
			}
		}
		return nil
	}
}

func (m *Modifier) currentDate(obj domain.M, field string, arg any, st *state) error {
	dateType := "date"
	switch t := arg.(type) {
	case bool:
		if !t {
			return ErrModArgType{Mod: "$currentDate", Want: "true or {$type}", Actual: arg}
		}
	default:
		d, ok := asDoc(arg)
		if !ok {
			return ErrModArgType{Mod: "$currentDate", Want: "true or {$type}", Actual: arg}
		}
		dateType, _ = d["$type"].(string)
		if dateType != "date" && dateType != "timestamp" {
			return ErrModArgType{Mod: "$currentDate", Want: `"date" or "timestamp"`, Actual: d["$type"]}
		}
	}

	now := m.timeGetter.GetTime()
	var value any = primitive.NewDateTimeFromTime(now)
	if dateType == "timestamp" {
		value = primitive.Timestamp{T: uint32(now.Unix()), I: 1}
	}

	fields, err := m.targets(obj, field, st, true)
	if err != nil {
		return err
	}
	for _, f := range fields {
		f.Set(value)
	}
	return nil
}

func (m *Modifier) equal(a, b any) bool {
	c, err := m.comp.Compare(a, b)
	return err == nil && c == 0
}

func hasOperators(d domain.M) bool {
	for k := range d {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func asDoc(v any) (domain.M, bool) {
	switch t := v.(type) {
	case domain.M:
		return t, true
	case map[string]any:
		return domain.M(t), true
	case domain.D:
		res := make(domain.M, len(t))
		for _, e := range t {
			res[e.Key] = e.Value
		}
		return res, true
	}
	return nil, false
}

func sortedKeys(d domain.M) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
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

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// add sums two numbers. Integers stay integers, keeping the type of a while
// the result fits in it.
func add(a, b any) (any, bool) {
	ai, aInt := toInt(a)
	bi, bInt := toInt(b)
	if aInt && bInt {
		sum := ai + bi
		switch a.(type) {
		case int32:
			if sum >= math.MinInt32 && sum <= math.MaxInt32 {
				return int32(sum), true
			}
		case int:
			return int(sum), true
		}
		return sum, true
	}
	af, aOk := toFloat(a)
	bf, bOk := toFloat(b)
	if !aOk || !bOk {
		return nil, false
	}
	return af + bf, true
}
