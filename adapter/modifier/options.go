package modifier

import "github.com/vinicius-lino-figueiredo/gequery/domain"

// WithComparer sets the comparer used to compare values.
func WithComparer(c domain.Comparer) Option {
	return func(m *Modifier) {
		if c != nil {
			m.comp = c
		}
	}
}

// WithTimeGetter sets the clock used by $currentDate.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(m *Modifier) {
		if t != nil {
			m.timeGetter = t
		}
	}
}

// Option configures modifier behavior through the functional options pattern.
type Option func(*Modifier)
