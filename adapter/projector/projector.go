// Package projector keeps or omits document fields according to a
// projection document.
package projector

import (
	"errors"
	"strings"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// ErrMixedProjection is returned when a projection both keeps and omits
// fields other than _id.
var ErrMixedProjection = errors.New("can't both keep and omit fields except for _id")

// tree holds projected paths, one level per dotted part. A nil subtree is a
// projected leaf.
type tree map[string]tree

// Projector applies projections.
type Projector struct{}

// NewProjector returns a new Projector.
func NewProjector() *Projector {
	return &Projector{}
}

// Project returns projected copies of data. Fields set to a truthy value are
// kept, fields set to zero or false are omitted. _id is kept unless omitted
// explicitly. An empty projection returns data unchanged.
func (q *Projector) Project(data []domain.M, p domain.M) ([]domain.M, error) {
	if len(p) == 0 {
		return data, nil
	}

	id, idMentioned := p["_id"]
	keepID := !idMentioned || truthy(id)

	paths := make(tree, len(p))
	fields, oneFields := 0, 0
	for field, value := range p {
		if field == "_id" {
			continue
		}
		fields++
		if truthy(value) {
			oneFields++
		}
		if oneFields > 0 && oneFields != fields {
			return nil, ErrMixedProjection
		}
		paths.add(strings.Split(field, "."))
	}

	res := make([]domain.M, len(data))
	for n, doc := range data {
		var projected domain.M
		if fields == 0 || oneFields == 0 {
			projected = cloner.CloneDoc(doc)
			omit(projected, paths)
		} else {
			projected = keep(doc, paths)
		}

		if _, ok := doc["_id"]; ok && keepID {
			projected["_id"] = doc["_id"]
		} else {
			delete(projected, "_id")
		}
		res[n] = projected
	}

	return res, nil
}

func (t tree) add(parts []string) {
	sub, ok := t[parts[0]]
	if len(parts) == 1 {
		t[parts[0]] = nil
		return
	}
	if ok && sub == nil {
		// a parent path is already projected entirely
		return
	}
	if sub == nil {
		sub = tree{}
		t[parts[0]] = sub
	}
	sub.add(parts[1:])
}

func keep(doc domain.M, paths tree) domain.M {
	res := domain.M{}
	for key, sub := range paths {
		v, ok := doc[key]
		if !ok {
			continue
		}
		if sub == nil {
			res[key] = cloner.Clone(v)
			continue
		}
		if kept, ok := keepValue(v, sub); ok {
			res[key] = kept
		}
	}
	return res
}

func keepValue(v any, paths tree) (any, bool) {
	switch t := v.(type) {
	case domain.M:
		return keep(t, paths), true
	case domain.A:
		res := make(domain.A, 0, len(t))
		for _, item := range t {
			if kept, ok := keepValue(item, paths); ok {
				res = append(res, kept)
			}
		}
		return res, true
	default:
		return nil, false
	}
}

func omit(v any, paths tree) {
	switch t := v.(type) {
	case domain.M:
		for key, sub := range paths {
			if sub == nil {
				delete(t, key)
				continue
			}
			omit(t[key], sub)
		}
	case domain.A:
		for _, item := range t {
			omit(item, paths)
		}
	}
}

func truthy(v any) bool {
	switch n := v.(type) {
	case bool:
		return n
	case int:
		return n != 0
	case int32:
		return n != 0
	case int64:
		return n != 0
	case float64:
		return n != 0
	}
	return v != nil
}
