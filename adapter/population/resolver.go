package population

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Resolver replaces references in documents with the referenced documents.
type Resolver struct {
	lookup     Lookup
	references map[string]string
}

// NewResolver returns a [Resolver] that loads referenced documents with
// lookup.
func NewResolver(lookup Lookup, options ...Option) *Resolver {
	r := &Resolver{lookup: lookup, references: map[string]string{}}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Model returns the collection referenced by pop, which is pop.Model or the
// collection registered for its path.
func (r *Resolver) Model(pop domain.Population) (string, error) {
	if pop.Model != "" {
		return pop.Model, nil
	}
	if model, ok := r.references[pop.Path]; ok {
		return model, nil
	}
	return "", domain.ErrUnresolvedPopulation{Path: pop.Path}
}

// Populate resolves every population on docs, in place. A single reference is
// replaced by its document, or nil when it no longer exists. A list of
// references is replaced by the documents found, in reference order.
func (r *Resolver) Populate(ctx context.Context, docs []domain.M, pops ...domain.Population) error {
	for _, pop := range pops {
		if err := r.populate(ctx, docs, pop); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) populate(ctx context.Context, docs []domain.M, pop domain.Population) error {
	model, err := r.Model(pop)
	if err != nil {
		return err
	}

	var ids []any
	seen := make(map[any]struct{})
	for _, doc := range docs {
		for _, id := range refs(getPath(doc, pop.Path)) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	found, err := r.lookup(ctx, model, ids)
	if err != nil {
		return err
	}
	if pop.Populate != nil {
		if err := r.Populate(ctx, found, *pop.Populate); err != nil {
			return err
		}
	}

	proj := ParseSelect(pop.Select)
	byID := make(map[any]domain.M, len(found))
	for _, f := range found {
		if key, ok := idKey(f["_id"]); ok {
			byID[key] = Select(f, proj)
		}
	}

	for _, doc := range docs {
		switch v := getPath(doc, pop.Path).(type) {
		case nil:
		case domain.A, []any:
			var list domain.A
			for _, id := range refs(v) {
				if f, ok := byID[id]; ok {
					list = append(list, cloner.CloneDoc(f))
				}
			}
			setPath(doc, pop.Path, list)
		default:
			if key, ok := idKey(v); ok {
				var f any
				if d, ok := byID[key]; ok {
					f = cloner.CloneDoc(d)
				}
				setPath(doc, pop.Path, f)
			}
		}
	}
	return nil
}

// refs returns the comparable references held by v.
func refs(v any) []any {
	var items []any
	switch t := v.(type) {
	case domain.A:
		items = t
	case []any:
		items = t
	default:
		items = []any{v}
	}
	res := make([]any, 0, len(items))
	for _, item := range items {
		if key, ok := idKey(item); ok {
			res = append(res, key)
		}
	}
	return res
}

// idKey returns v if it can be used as a reference. Documents, lists and
// other uncomparable values cannot.
func idKey(v any) (any, bool) {
	switch t := v.(type) {
	case primitive.ObjectID, string, int, int32, int64, float64:
		return t, true
	}
	return nil, false
}

func getPath(doc domain.M, path string) any {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case domain.M:
			cur = t[part]
		case map[string]any:
			cur = t[part]
		default:
			return nil
		}
	}
	return cur
}

func setPath(doc domain.M, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(domain.M)
		if !ok {
			return
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}
