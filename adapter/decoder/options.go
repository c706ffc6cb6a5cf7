package decoder

// Option configures a [Decoder].
type Option func(*Decoder)

// WithTagName sets the struct tag used to match document keys. Defaults to
// [TagName].
func WithTagName(name string) Option {
	return func(d *Decoder) {
		if name != "" {
			d.tagName = name
		}
	}
}
