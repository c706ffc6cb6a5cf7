package builder

import "github.com/vinicius-lino-figueiredo/gequery/domain"

// DefaultLimit is the page size used by [Builder.Query] when no limit is set.
const DefaultLimit int64 = 20

// Option configures every [Builder], whatever its result type.
type Option func(*settings)

type settings struct {
	ids          domain.IDConverter
	decoder      domain.Decoder
	logger       domain.Logger
	defaultLimit int64
}

// WithIDConverter sets the converter used by [Builder.WithID] and
// [Builder.WhiteList].
func WithIDConverter(c domain.IDConverter) Option {
	return func(s *settings) {
		if c != nil {
			s.ids = c
		}
	}
}

// WithDecoder sets the decoder used to convert driver documents into the
// result type.
func WithDecoder(d domain.Decoder) Option {
	return func(s *settings) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithLogger sets the logger used for driver calls. A [domain.Logger] that also
// implements [domain.ContextualLogger] receives the operation context.
func WithLogger(l domain.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithDefaultLimit sets the page size used by [Builder.Query] when no limit is
// set. Values lower than 1 are ignored.
func WithDefaultLimit(l int64) Option {
	return func(s *settings) {
		if l > 0 {
			s.defaultLimit = l
		}
	}
}
