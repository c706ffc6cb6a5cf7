// Package fieldnavigator reads and writes dotted paths inside normalized
// documents.
package fieldnavigator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// IndexSelector returns the indexes of list addressed by a positional path
// segment, like "$" or "$[id]". ok is false when part is not positional, in
// which case it is handled as a regular key or index.
type IndexSelector func(list domain.A, part string) (indexes []int, ok bool, err error)

// FieldNavigator walks dotted paths over documents made of [domain.M] and
// [domain.A] values.
type FieldNavigator struct{}

// NewFieldNavigator returns a new FieldNavigator.
func NewFieldNavigator() *FieldNavigator {
	return &FieldNavigator{}
}

// GetAddress splits a dotted field into its parts.
func (fn *FieldNavigator) GetAddress(field string) []string {
	return strings.Split(field, ".")
}

// GetField returns every value addressed by fieldParts in obj. A non numeric
// part applied to a list is applied to each of its documents, in which case
// expanded is true. Missing values are returned as undefined getters.
func (fn *FieldNavigator) GetField(obj any, fieldParts ...string) (values []domain.GetSetter, expanded bool) {
	undefined := []domain.GetSetter{Undefined()}
	if obj == nil || len(fieldParts) == 0 {
		return undefined, false
	}

	curr := []domain.GetSetter{Constant(obj)}
	for _, part := range fieldParts {
		next := make([]domain.GetSetter, 0, len(curr))
		for _, item := range curr {
			v, defined := item.Get()
			if !defined {
				next = append(next, item)
				continue
			}
			switch t := v.(type) {
			case domain.M:
				next = append(next, DocField(t, part))
			case domain.A:
				if i, err := strconv.Atoi(part); err == nil {
					next = append(next, ListElement(t, i))
					continue
				}
				expanded = true
				for _, elem := range t {
					if doc, ok := elem.(domain.M); ok {
						next = append(next, DocField(doc, part))
					}
				}
			default:
				next = append(next, Undefined())
			}
		}
		curr = next
	}

	if !expanded && len(curr) == 0 {
		return undefined, false
	}
	return curr, expanded
}

// Values returns only the defined values addressed by field.
func (fn *FieldNavigator) Values(obj any, field string) []any {
	getters, _ := fn.GetField(obj, fn.GetAddress(field)...)
	res := make([]any, 0, len(getters))
	for _, g := range getters {
		if v, ok := g.Get(); ok {
			res = append(res, v)
		}
	}
	return res
}

// EnsureField returns setters for every value addressed by fieldParts,
// creating missing intermediate documents and growing lists addressed past
// their end. Positional parts are resolved with sel, which may be nil.
func (fn *FieldNavigator) EnsureField(obj domain.M, sel IndexSelector, fieldParts ...string) ([]domain.GetSetter, error) {
	return fn.walk(obj, sel, true, fieldParts)
}

// LocateField is like [FieldNavigator.EnsureField], but it only returns
// values whose parent already exists and never changes obj.
func (fn *FieldNavigator) LocateField(obj domain.M, sel IndexSelector, fieldParts ...string) ([]domain.GetSetter, error) {
	return fn.walk(obj, sel, false, fieldParts)
}

func (fn *FieldNavigator) walk(obj domain.M, sel IndexSelector, create bool, fieldParts []string) ([]domain.GetSetter, error) {
	curr := []domain.GetSetter{Constant(obj)}
	for idx, part := range fieldParts {
		last := idx == len(fieldParts)-1
		next := make([]domain.GetSetter, 0, len(curr))
		for _, item := range curr {
			v, defined := item.Get()
			if !defined && !create {
				continue
			}
			switch t := v.(type) {
			case domain.M:
				if _, ok := t[part]; !ok && !last && create {
					t[part] = domain.M{}
				}
				next = append(next, DocField(t, part))
			case domain.A:
				if sel != nil {
					indexes, ok, err := sel(t, part)
					if err != nil {
						return nil, err
					}
					if ok {
						for _, i := range indexes {
							next = append(next, ListElement(t, i))
						}
						continue
					}
				}
				i, err := strconv.Atoi(part)
				if err != nil || i < 0 {
					return nil, domain.ErrInvalidPath{
						Path:   strings.Join(fieldParts, "."),
						Reason: fmt.Sprintf("cannot use part %q to traverse a list", part),
					}
				}
				if i >= len(t) {
					if !create {
						continue
					}
					grown := make(domain.A, i+1)
					copy(grown, t)
					item.Set(grown)
					t = grown
				}
				if t[i] == nil && !last && create {
					t[i] = domain.M{}
				}
				next = append(next, ListElement(t, i))
			default:
				if !create {
					continue
				}
				return nil, domain.ErrInvalidPath{
					Path:   strings.Join(fieldParts, "."),
					Reason: fmt.Sprintf("cannot create field %q in element of type %T", part, v),
				}
			}
		}
		curr = next
	}
	return curr, nil
}
