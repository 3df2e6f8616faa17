// Package sjis converts between Go strings and the fixed-width, NUL padded
// Shift-JIS path fields found in DW_PACK and CPK archives.
package sjis

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
)

// PathLength is the width of a path field.
const PathLength = 260

// ErrFieldTooLong is returned when an encoded string does not leave room for
// its terminating NUL.
var ErrFieldTooLong = errors.New("sjis: string too long for field")

// Bytes returns s encoded as Shift-JIS.
func Bytes(s string) ([]byte, error) {
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "sjis: encoding %q", s)
	}

	return b, nil
}

// Encode writes s into a NUL padded field of PathLength bytes.
func Encode(s string) ([PathLength]byte, error) {
	var field [PathLength]byte
	b, err := Bytes(s)
	if err != nil {
		return field, err
	}

	if len(b) >= PathLength {
		return field, ErrFieldTooLong
	}

	copy(field[:], b)
	return field, nil
}

// Decode returns the string stored in a NUL terminated field. A field without
// NUL is decoded whole.
func Decode(field []byte) (string, error) {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}

	b, err := japanese.ShiftJIS.NewDecoder().Bytes(field)
	if err != nil {
		return "", errors.Wrap(err, "sjis: decoding path")
	}

	return string(b), nil
}
