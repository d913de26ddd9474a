// Package options implements the functional options behind the decoder
// configuration surface (decoder.WithMetadata and friends).
//
// Options are plain functions over the configuration target; the decoder
// aliases Option[*decoder.Options] as its public option type and builds the
// With* constructors on Setter.
package options

// Option mutates a configuration target of type T before decoding starts.
type Option[T any] func(T) error

// Apply runs the options against target in order, stopping at the first
// failure. Nil options are skipped.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(target); err != nil {
			return err
		}
	}

	return nil
}

// Setter adapts an infallible mutation into an Option. Every current
// decoder option is a Setter; the error return of Option exists for
// options that must validate their argument.
func Setter[T any](fn func(T)) Option[T] {
	return func(target T) error {
		fn(target)

		return nil
	}
}
