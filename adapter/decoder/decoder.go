// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"fmt"
	"reflect"
	"time"

	goreflect "github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// TagName is the struct tag read when decoding documents.
const TagName = "bson"

var (
	timeType     = reflect.TypeOf(time.Time{})
	objectIDType = reflect.TypeOf(primitive.ObjectID{})
)

// Decoder implements [domain.Decoder].
type Decoder struct {
	tagName string
}

// NewDecoder returns a new implementation of [domain.Decoder].
func NewDecoder(options ...Option) domain.Decoder {
	d := &Decoder{tagName: TagName}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Decode implements [domain.Decoder].
func (d *Decoder) Decode(source any, target any) error {
	if target == nil {
		return domain.ErrTargetNil{}
	}

	value := goreflect.ValueNoEscapeOf(target)
	if value.Kind() != goreflect.Ptr {
		return domain.ErrNonPointer
	}
	if value.IsNil() {
		return domain.ErrTargetNil{}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: d.tagName,
		Result:  target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			dateTimeHook,
			objectIDHook,
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(d.adjustDoc(source)); err != nil {
		errDec := domain.ErrDecode{Source: source, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}

// adjustDoc turns ordered documents into maps so they can be decoded into
// structs.
func (d *Decoder) adjustDoc(value any) any {
	switch t := value.(type) {
	case domain.D:
		doc := make(domain.M, len(t))
		for _, e := range t {
			doc[e.Key] = d.adjustDoc(e.Value)
		}
		return doc
	case domain.M:
		doc := make(domain.M, len(t))
		for k, v := range t {
			doc[k] = d.adjustDoc(v)
		}
		return doc
	case domain.A:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.adjustDoc(v)
		}
		return lst
	case []any:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.adjustDoc(v)
		}
		return lst
	default:
		return value
	}
}

func dateTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	switch t := data.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC(), nil
	}
	return data, nil
}

func objectIDHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from != objectIDType {
		return data, nil
	}
	if to.Kind() == reflect.String {
		return data.(primitive.ObjectID).Hex(), nil
	}
	return data, nil
}
