// Package objectid contains the default [domain.IDConverter] implementation,
// backed by BSON ObjectIDs.
package objectid

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Converter implements [domain.IDConverter].
type Converter struct{}

// NewConverter returns a new implementation of [domain.IDConverter].
func NewConverter() domain.IDConverter {
	return &Converter{}
}

// ToID implements [domain.IDConverter]. It accepts ObjectIDs, pointers to them
// and their 24 character hex representation.
func (c *Converter) ToID(v any) (any, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case *primitive.ObjectID:
		if t != nil {
			return *t, nil
		}
	case string:
		id, err := primitive.ObjectIDFromHex(t)
		if err == nil {
			return id, nil
		}
	}
	return nil, domain.ErrInvalidID{Value: v}
}

// IsValid reports whether conv accepts v. It never returns the conversion
// error, and a converter that panics rejects v.
func IsValid(conv domain.IDConverter, v any) (valid bool) {
	if conv == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()
	_, err := conv.ToID(v)
	return err == nil
}
