package stream

import "golang.org/x/text/encoding"

// Option configures a Writer or Reader.
type Option func(*options)

type options struct {
	enc encoding.Encoding
}

// WithEncoding sets the text encoding used for strings. Without it strings
// are stored as UTF-8. Pure ASCII text is never transcoded.
func WithEncoding(enc encoding.Encoding) Option {
	return func(o *options) { o.enc = enc }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
