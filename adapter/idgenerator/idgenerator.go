// Package idgenerator contains the default [domain.IDGenerator] implementation,
// creating object ids from the current time and random bytes.
package idgenerator

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// IDGenerator implements [domain.IDGenerator].
type IDGenerator struct {
	reader     io.Reader
	timeGetter domain.TimeGetter
	counter    atomic.Uint32
}

// NewIDGenerator returns a new implementation of [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := IDGenerator{
		reader:     rand.Reader,
		timeGetter: timegetter.NewTimeGetter(),
	}
	for _, opt := range opts {
		opt(&i)
	}
	return &i
}

// GenerateID implements [domain.IDGenerator]. The id holds a 4 byte timestamp,
// 5 random bytes and a 3 byte counter, like the ones created by the server.
func (i *IDGenerator) GenerateID() (any, error) {
	var id primitive.ObjectID
	binary.BigEndian.PutUint32(id[0:4], uint32(i.timeGetter.GetTime().Unix()))
	if _, err := io.ReadFull(i.reader, id[4:9]); err != nil {
		return nil, err
	}
	c := i.counter.Add(1)
	id[9], id[10], id[11] = byte(c>>16), byte(c>>8), byte(c)
	return id, nil
}
