package idgenerator

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// UUIDGenerator implements [domain.IDGenerator] with random UUID strings, for
// collections not keyed by object ids.
type UUIDGenerator struct {
	reader io.Reader
}

// NewUUIDGenerator returns a [domain.IDGenerator] reading random bytes from
// r, or from [crypto/rand.Reader] if r is nil.
func NewUUIDGenerator(r io.Reader) domain.IDGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &UUIDGenerator{reader: r}
}

// GenerateID implements [domain.IDGenerator].
func (u *UUIDGenerator) GenerateID() (any, error) {
	id, err := uuid.NewRandomFromReader(u.reader)
	if err != nil {
		return nil, err
	}
	return id.String(), nil
}
