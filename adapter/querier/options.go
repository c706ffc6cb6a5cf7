package querier

import (
	"github.com/vinicius-lino-figueiredo/gequery/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// WithMatcher sets the matcher used to filter documents.
func WithMatcher(m *matcher.Matcher) Option {
	return func(q *Querier) {
		q.mtchr = m
	}
}

// WithComparer sets the comparer implementation for sorting operations.
func WithComparer(c domain.Comparer) Option {
	return func(q *Querier) {
		if c != nil {
			q.cmpr = c
		}
	}
}

// Option configures querier behavior through the functional options
// pattern.
type Option func(*Querier)
