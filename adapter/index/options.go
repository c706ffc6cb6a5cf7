package index

import "github.com/vinicius-lino-figueiredo/gequery/domain"

// Option configures an [Index].
type Option func(*Index)

// WithComparer sets the comparer used to order ids.
func WithComparer(c domain.Comparer) Option {
	return func(i *Index) {
		if c != nil {
			i.comparer = c
		}
	}
}

// WithCollection sets the collection name reported by duplicate key errors.
func WithCollection(name string) Option {
	return func(i *Index) {
		i.collection = name
	}
}
