// Package errs defines the error values returned by the Draco decoder.
//
// Every failure is one of five kinds: Io (buffer underflow), Corrupt
// (malformed stream content), UnsupportedVersion, Unsupported (valid but
// unimplemented stream feature) and Internal (decoder invariant violation).
// Each kind has a sentinel value usable with errors.Is; decode failures are
// reported as *DecodeError values wrapping the sentinel together with the
// buffer offset at which they were raised.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the five decode failure kinds.
var (
	// ErrBufferTooShort is returned when a read runs past the end of the
	// decoder buffer.
	ErrBufferTooShort = errors.New("buffer too short")

	// ErrCorruptStream is returned when stream content is malformed: bad
	// magic, counts exceeding sanity bounds, or inconsistent entropy tables.
	ErrCorruptStream = errors.New("corrupt stream")

	// ErrUnsupportedVersion is returned when the bitstream version exceeds
	// the supported maximum.
	ErrUnsupportedVersion = errors.New("unsupported bitstream version")

	// ErrUnsupportedFeature is returned for valid stream features this
	// decoder does not implement (e.g. KD-tree point clouds).
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrInternal indicates a decoder bug: an invariant violated during
	// reconstruction rather than a malformed input.
	ErrInternal = errors.New("internal decoder error")
)

// DecodeError carries the failure kind, a diagnostic message and the buffer
// offset at which the error was raised.
type DecodeError struct {
	Kind   error
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

// Unwrap exposes the kind sentinel so errors.Is(err, errs.ErrCorruptStream)
// works through any outer fmt.Errorf wrapping.
func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// IO reports a buffer underflow at the given offset.
func IO(offset int, msg string) error {
	return &DecodeError{Kind: ErrBufferTooShort, Offset: offset, Msg: msg}
}

// Corrupt reports malformed stream content at the given offset.
func Corrupt(offset int, msg string) error {
	return &DecodeError{Kind: ErrCorruptStream, Offset: offset, Msg: msg}
}

// Corruptf reports malformed stream content with a formatted diagnostic.
func Corruptf(offset int, format string, args ...any) error {
	return &DecodeError{Kind: ErrCorruptStream, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Version reports a bitstream version beyond the supported maximum.
func Version(offset int, msg string) error {
	return &DecodeError{Kind: ErrUnsupportedVersion, Offset: offset, Msg: msg}
}

// Unsupported reports a valid but unimplemented stream feature.
func Unsupported(offset int, msg string) error {
	return &DecodeError{Kind: ErrUnsupportedFeature, Offset: offset, Msg: msg}
}

// Internal reports a decoder invariant violation.
func Internal(offset int, msg string) error {
	return &DecodeError{Kind: ErrInternal, Offset: offset, Msg: msg}
}
