package idgenerator

import (
	"io"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// WithReader sets the reader that will provide random bytes.
func WithReader(r io.Reader) Option {
	return func(igo *IDGenerator) {
		igo.reader = r
	}
}

// WithTimeGetter sets the clock used for the id timestamp.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(igo *IDGenerator) {
		if t != nil {
			igo.timeGetter = t
		}
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*IDGenerator)
