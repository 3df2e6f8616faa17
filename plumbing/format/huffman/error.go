package huffman

import (
	"errors"
	"fmt"
)

// Kind classifies the errors returned by this package.
type Kind int

const (
	// FormatError is a malformed or truncated compressed buffer.
	FormatError Kind = iota + 1
	// CapacityError is a destination buffer smaller than the declared
	// uncompressed size.
	CapacityError
	// ContractError is input the codec refuses to produce output for, such
	// as a chunk that does not get smaller when compressed.
	ContractError
)

func (k Kind) String() string {
	switch k {
	case FormatError:
		return "format error"
	case CapacityError:
		return "capacity error"
	case ContractError:
		return "contract error"
	default:
		return "unknown error"
	}
}

var (
	// ErrBadMagic is returned when the container does not start with Magic.
	ErrBadMagic = newError(FormatError, "bad container magic")
	// ErrTruncatedHeader is returned when the container or chunk headers do
	// not fit in the supplied buffer.
	ErrTruncatedHeader = newError(FormatError, "truncated container header")
	// ErrChunkOutOfBounds is returned when a chunk header points outside the
	// supplied buffer or declares negative sizes.
	ErrChunkOutOfBounds = newError(FormatError, "chunk out of bounds")
	// ErrMalformedTree is returned when a serialized tree is larger than any
	// tree over 256 byte values can be.
	ErrMalformedTree = newError(FormatError, "malformed huffman tree")
	// ErrTruncatedData is returned when the bitstream ends before every
	// byte of the chunk was decoded.
	ErrTruncatedData = newError(FormatError, "truncated chunk data")

	// ErrShortBuffer is returned when the destination cannot hold the
	// declared uncompressed size.
	ErrShortBuffer = newError(CapacityError, "destination buffer too small")

	// ErrIncompressible is returned by strict encoders when a chunk does not
	// compress to fewer bytes than its input.
	ErrIncompressible = newError(ContractError, "chunk did not shrink")
	// ErrInvalidChunkSize is returned for chunk sizes outside (0, MaxInt32].
	ErrInvalidChunkSize = newError(ContractError, "invalid chunk size")
	// ErrEmptyChunk is returned when asked to compress an empty chunk.
	ErrEmptyChunk = newError(ContractError, "empty chunk")
	// ErrTooLarge is returned when the input cannot be described by the
	// 32-bit container headers.
	ErrTooLarge = newError(ContractError, "input too large")
)

// Error specifies errors returned by the codec.
type Error struct {
	kind            Kind
	reason, details string
}

func newError(k Kind, reason string) *Error {
	return &Error{kind: k, reason: reason}
}

// Kind returns the error classification.
func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	if e.details == "" {
		return "huffman: " + e.reason
	}

	return fmt.Sprintf("huffman: %s: %s", e.reason, e.details)
}

// AddDetails returns a copy of e with the given details appended to the
// message. The copy still matches e with errors.Is.
func (e *Error) AddDetails(format string, args ...interface{}) *Error {
	return &Error{
		kind:    e.kind,
		reason:  e.reason,
		details: fmt.Sprintf(format, args...),
	}
}

// Is reports whether target is an *Error with the same kind and reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.kind == e.kind && t.reason == e.reason
}

// IsFormatError returns true if err, or any error it wraps, is a
// FormatError.
func IsFormatError(err error) bool {
	return isKind(err, FormatError)
}

// IsCapacityError returns true if err, or any error it wraps, is a
// CapacityError.
func IsCapacityError(err error) bool {
	return isKind(err, CapacityError)
}

// IsContractError returns true if err, or any error it wraps, is a
// ContractError.
func IsContractError(err error) bool {
	return isKind(err, ContractError)
}

func isKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.kind == k
}
