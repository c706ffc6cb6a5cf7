// Package comparer contains the default [domain.Comparer] implementation. It
// orders values the way the database server sorts BSON types: undefined, nil,
// numbers, strings, documents, lists, binary data, object ids, booleans,
// dates, timestamps and regular expressions.
package comparer

import (
	"bytes"
	"cmp"
	"math"
	"math/big"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// kind is the position of a value type in the server sort order.
type kind int

const (
	kindUndefined kind = iota
	kindNull
	kindNumber
	kindString
	kindDocument
	kindArray
	kindBinary
	kindObjectID
	kindBool
	kindDate
	kindTimestamp
	kindRegex
	kindUnknown
)

// Comparer implements [domain.Comparer].
type Comparer struct{}

// NewComparer returns a new implementation of [domain.Comparer].
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Comparable implements [domain.Comparer]. Only numbers, strings, dates,
// timestamps and object ids can be compared to values of their own kind.
func (c *Comparer) Comparable(a, b any) bool {
	ka, kb := kindOf(unwrap(a)), kindOf(unwrap(b))
	if ka != kb {
		return false
	}
	switch ka {
	case kindNumber, kindString, kindDate, kindTimestamp, kindObjectID:
		return true
	default:
		return false
	}
}

// Compare implements [domain.Comparer]. Values of different kinds follow the
// server sort order. Values of unsupported types only fail when compared to
// each other.
func (c *Comparer) Compare(a, b any) (int, error) {
	a, b = unwrap(a), unwrap(b)
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb), nil
	}

	switch ka {
	case kindUndefined, kindNull:
		return 0, nil
	case kindNumber:
		x, _ := asNumber(a)
		y, _ := asNumber(b)
		return x.Cmp(y), nil
	case kindString:
		return cmp.Compare(a.(string), b.(string)), nil
	case kindDocument:
		return c.compareDoc(a.(domain.M), b.(domain.M))
	case kindArray:
		return c.compareArray(a.(domain.A), b.(domain.A))
	case kindBinary:
		return compareBinary(a.(primitive.Binary), b.(primitive.Binary)), nil
	case kindObjectID:
		x, y := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return bytes.Compare(x[:], y[:]), nil
	case kindBool:
		return compareBool(a.(bool), b.(bool)), nil
	case kindDate:
		return a.(time.Time).Compare(b.(time.Time)), nil
	case kindTimestamp:
		return primitive.CompareTimestamp(a.(primitive.Timestamp), b.(primitive.Timestamp)), nil
	case kindRegex:
		x, y := a.(primitive.Regex), b.(primitive.Regex)
		return cmp.Or(cmp.Compare(x.Pattern, y.Pattern), cmp.Compare(x.Options, y.Options)), nil
	default:
		return 0, domain.ErrCannotCompare{A: a, B: b}
	}
}

// undefined marks a [domain.GetSetter] without value after unwrapping.
type undefined struct{}

// unwrap reads getters and converts BSON dates into [time.Time].
func unwrap(v any) any {
	if g, ok := v.(domain.GetSetter); ok {
		var defined bool
		if v, defined = g.Get(); !defined {
			return undefined{}
		}
	}
	if d, ok := v.(primitive.DateTime); ok {
		return d.Time()
	}
	return v
}

func kindOf(v any) kind {
	switch v.(type) {
	case undefined:
		return kindUndefined
	case nil:
		return kindNull
	case string:
		return kindString
	case domain.M:
		return kindDocument
	case domain.A:
		return kindArray
	case primitive.Binary:
		return kindBinary
	case primitive.ObjectID:
		return kindObjectID
	case bool:
		return kindBool
	case time.Time:
		return kindDate
	case primitive.Timestamp:
		return kindTimestamp
	case primitive.Regex:
		return kindRegex
	}
	if _, ok := asNumber(v); ok {
		return kindNumber
	}
	return kindUnknown
}

func (c *Comparer) compareArray(a, b domain.A) (int, error) {
	for i := range min(len(a), len(b)) {
		comp, err := c.Compare(a[i], b[i])
		if err != nil || comp != 0 {
			return comp, err
		}
	}
	return cmp.Compare(len(a), len(b)), nil
}

// compareDoc walks both documents in key order, comparing keys before
// values.
func (c *Comparer) compareDoc(a, b domain.M) (int, error) {
	aKeys, bKeys := sortedKeys(a), sortedKeys(b)
	for i := range min(len(aKeys), len(bKeys)) {
		if comp := cmp.Compare(aKeys[i], bKeys[i]); comp != 0 {
			return comp, nil
		}
		comp, err := c.Compare(a[aKeys[i]], b[bKeys[i]])
		if err != nil || comp != 0 {
			return comp, err
		}
	}
	return cmp.Compare(len(aKeys), len(bKeys)), nil
}

func sortedKeys(d domain.M) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func compareBinary(a, b primitive.Binary) int {
	return cmp.Or(
		cmp.Compare(len(a.Data), len(b.Data)),
		cmp.Compare(a.Subtype, b.Subtype),
		bytes.Compare(a.Data, b.Data),
	)
}

// asNumber converts any Go number into a [big.Float], so integers and floats
// compare without precision loss.
func asNumber(v any) (*big.Float, bool) {
	r := new(big.Float)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		return asNumber(float64(n))
	case float64:
		// NaN sorts before every other number
		if math.IsNaN(n) {
			r.SetInf(true)
			break
		}
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
