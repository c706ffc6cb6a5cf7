package population

// Option configures a [Resolver].
type Option func(*Resolver)

// WithReference registers the collection referenced by path, used when a
// population does not name its model.
func WithReference(path, model string) Option {
	return func(r *Resolver) {
		r.references[path] = model
	}
}
