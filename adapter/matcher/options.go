package matcher

import "github.com/vinicius-lino-figueiredo/gequery/domain"

// WithComparer sets the comparer implementation for value comparisons during
// matching.
func WithComparer(c domain.Comparer) Option {
	return func(mo *Matcher) {
		if c != nil {
			mo.comparer = c
		}
	}
}

// Option configures matcher behavior through the functional options pattern.
type Option func(*Matcher)
