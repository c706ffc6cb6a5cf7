package persistence

// WithCorruptAlertThreshold sets the rate of unreadable lines tolerated when
// reading.
func WithCorruptAlertThreshold(c float64) Option {
	return func(po *Persistence) {
		po.corruptAlertThreshold = c
	}
}

// WithCanonical writes and reads canonical extended JSON, which keeps the
// exact numeric types.
func WithCanonical(c bool) Option {
	return func(po *Persistence) {
		po.canonical = c
	}
}

// Option configures persistence behavior through the functional options
// pattern.
type Option func(*Persistence)
