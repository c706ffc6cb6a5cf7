// Package cloner deep copies the fragment values accumulated by builders.
package cloner

import (
	"fmt"
	"time"

	goreflect "github.com/goccy/go-reflect"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Clone returns a deep copy of v. Maps and slices are copied recursively,
// keeping their original type. Scalars, structs and pointers are returned as
// they are.
func Clone(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bson.M:
		return CloneDoc(t)
	case map[string]any:
		res := make(map[string]any, len(t))
		for k, v := range t {
			res[k] = Clone(v)
		}
		return res
	case bson.D:
		return CloneOrdered(t)
	case bson.A:
		res := make(bson.A, len(t))
		for n, v := range t {
			res[n] = Clone(v)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, v := range t {
			res[n] = Clone(v)
		}
		return res
	case []domain.M:
		res := make([]domain.M, len(t))
		for n, v := range t {
			res[n] = CloneDoc(v)
		}
		return res
	case primitive.Binary:
		return primitive.Binary{Subtype: t.Subtype, Data: append([]byte(nil), t.Data...)}
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16,
		uint32, uint64, float32, float64, time.Time, primitive.ObjectID,
		primitive.DateTime, primitive.Regex, primitive.Timestamp:
		return v
	}
	return cloneReflect(v)
}

// CloneDoc returns a deep copy of d. A nil document stays nil.
func CloneDoc(d domain.M) domain.M {
	if d == nil {
		return nil
	}
	res := make(domain.M, len(d))
	for k, v := range d {
		res[k] = Clone(v)
	}
	return res
}

// CloneOrdered returns a deep copy of d. A nil document stays nil.
func CloneOrdered(d domain.D) domain.D {
	if d == nil {
		return nil
	}
	res := make(domain.D, len(d))
	for n, e := range d {
		res[n] = domain.E{Key: e.Key, Value: Clone(e.Value)}
	}
	return res
}

func cloneReflect(v any) any {
	r := goreflect.ValueNoEscapeOf(v)
	switch r.Kind() {
	case goreflect.Slice:
		if r.IsNil() {
			return v
		}
		res := goreflect.MakeSlice(goreflect.TypeOf(v), r.Len(), r.Len())
		for i := range r.Len() {
			c := Clone(r.Index(i).Interface())
			if c == nil {
				continue
			}
			res.Index(i).Set(goreflect.ValueOf(c))
		}
		return res.Interface()
	case goreflect.Map:
		if r.IsNil() {
			return v
		}
		res := goreflect.MakeMapWithSize(goreflect.TypeOf(v), r.Len())
		for _, k := range r.MapKeys() {
			val := r.MapIndex(k)
			if c := Clone(val.Interface()); c != nil {
				val = goreflect.ValueOf(c)
			}
			res.SetMapIndex(k, val)
		}
		return res.Interface()
	default:
		return v
	}
}

// Normalize returns a deep copy of v where every nested document is a
// [domain.M] and every nested list is a [domain.A], whatever their type in v.
// Byte slices and arrays, like object ids, are kept.
// Drivers use it so matching and population only handle these two types.
func Normalize(v any) any {
	switch t := v.(type) {
	case domain.M:
		return NormalizeDoc(t)
	case map[string]any:
		return NormalizeDoc(domain.M(t))
	case domain.D:
		res := make(domain.M, len(t))
		for _, e := range t {
			res[e.Key] = Normalize(e.Value)
		}
		return res
	case domain.A:
		return normalizeList(t)
	case []any:
		return normalizeList(t)
	case []domain.M:
		res := make(domain.A, len(t))
		for n, d := range t {
			res[n] = NormalizeDoc(d)
		}
		return res
	}
	return normalizeReflect(v)
}

// normalizeReflect converts typed slices and string keyed maps. Byte slices
// are binary data and are only copied.
func normalizeReflect(v any) any {
	r := goreflect.ValueNoEscapeOf(v)
	switch r.Kind() {
	case goreflect.Slice, goreflect.Array:
		if r.Type().Elem().Kind() == goreflect.Uint8 || (r.Kind() == goreflect.Slice && r.IsNil()) {
			return Clone(v)
		}
		res := make(domain.A, r.Len())
		for i := range r.Len() {
			res[i] = Normalize(r.Index(i).Interface())
		}
		return res
	case goreflect.Map:
		if r.Type().Key().Kind() != goreflect.String || r.IsNil() {
			return Clone(v)
		}
		res := make(domain.M, r.Len())
		for _, k := range r.MapKeys() {
			res[k.String()] = Normalize(r.MapIndex(k).Interface())
		}
		return res
	default:
		return Clone(v)
	}
}

// NormalizeDoc is [Normalize] for documents. A nil document stays nil.
func NormalizeDoc(d domain.M) domain.M {
	if d == nil {
		return nil
	}
	res := make(domain.M, len(d))
	for k, v := range d {
		res[k] = Normalize(v)
	}
	return res
}

func normalizeList(l []any) domain.A {
	res := make(domain.A, len(l))
	for n, v := range l {
		res[n] = Normalize(v)
	}
	return res
}

// ToDocument converts structs and maps into a normalized document, using their
// bson encoding. The result never shares values with data.
func ToDocument(data any) (domain.M, error) {
	switch t := data.(type) {
	case nil:
		return domain.M{}, nil
	case domain.M:
		return NormalizeDoc(t), nil
	case map[string]any:
		return NormalizeDoc(domain.M(t)), nil
	case domain.D:
		return Normalize(t).(domain.M), nil
	}
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %T into a document: %w", data, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return NormalizeDoc(doc), nil
}
