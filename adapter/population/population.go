// Package population expands population paths and resolves references into
// the documents they point to. It is shared by the storage drivers.
package population

import (
	"context"
	"strings"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Expand converts each path into a [domain.Population]. Dotted paths become
// nested populations, so "author.company" populates author and then the
// company of the loaded author. Empty paths are ignored.
func Expand(paths ...string) []domain.Population {
	res := make([]domain.Population, 0, len(paths))
	for _, path := range paths {
		parts := strings.Split(path, ".")
		var pop *domain.Population
		for i := len(parts) - 1; i >= 0; i-- {
			if parts[i] == "" {
				continue
			}
			pop = &domain.Population{Path: parts[i], Populate: pop}
		}
		if pop != nil {
			res = append(res, *pop)
		}
	}
	return res
}

// Clone returns a deep copy of pops.
func Clone(pops []domain.Population) []domain.Population {
	if pops == nil {
		return nil
	}
	res := make([]domain.Population, len(pops))
	for n, p := range pops {
		res[n] = cloneOne(p)
	}
	return res
}

func cloneOne(p domain.Population) domain.Population {
	if p.Populate != nil {
		nested := cloneOne(*p.Populate)
		p.Populate = &nested
	}
	return p
}

// ParseSelect converts a space separated field list into a projection. Fields
// prefixed with "-" are excluded, the others are included.
func ParseSelect(sel string) domain.M {
	fields := strings.Fields(sel)
	if len(fields) == 0 {
		return nil
	}
	proj := make(domain.M, len(fields))
	for _, f := range fields {
		if name, ok := strings.CutPrefix(f, "-"); ok {
			if name != "" {
				proj[name] = 0
			}
			continue
		}
		proj[strings.TrimPrefix(f, "+")] = 1
	}
	return proj
}

// Select applies a projection built by [ParseSelect] to the top level fields
// of doc. The _id field is kept unless explicitly excluded.
func Select(doc domain.M, proj domain.M) domain.M {
	if len(proj) == 0 {
		return doc
	}
	include := false
	for k, v := range proj {
		if k != "_id" && v == 1 {
			include = true
			break
		}
	}
	res := make(domain.M, len(doc))
	for k, v := range doc {
		flag, listed := proj[k]
		switch {
		case k == "_id":
			if !listed || flag == 1 {
				res[k] = v
			}
		case include && listed && flag == 1:
			res[k] = v
		case !include && !listed:
			res[k] = v
		}
	}
	return res
}

// Lookup loads the documents of collection model whose _id is one of ids.
type Lookup func(ctx context.Context, model string, ids []any) ([]domain.M, error)
