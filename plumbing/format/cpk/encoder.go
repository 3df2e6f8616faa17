package cpk

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/dwpack/go-dwpack/utils/sjis"
	"github.com/pkg/errors"
)

// An Encoder writes cpk indexes to an output stream.
type Encoder struct {
	w io.Writer
	// Compression, if set, is used to wrap the index in a Huffman
	// container. An index that does not shrink is written uncompressed.
	Compression *huffman.Encoder
}

// NewEncoder returns a new encoder that writes uncompressed indexes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode sorts the entries of f by path hash and writes f to the stream of
// the encoder.
func (e *Encoder) Encode(f *File) (int, error) {
	if len(f.Entries) > MaxEntries {
		return 0, errors.Wrapf(ErrTooManyEntries, "%d entries", len(f.Entries))
	}

	if err := f.sort(); err != nil {
		return 0, err
	}

	data, err := encodeIndex(f)
	if err != nil {
		return 0, err
	}

	if e.Compression != nil {
		data, err = e.compress(data)
		if err != nil {
			return 0, err
		}
	}

	return e.w.Write(data)
}

func (e *Encoder) compress(data []byte) ([]byte, error) {
	enc := *e.Compression
	enc.Strict = true

	payload, err := enc.Encode(data)
	if errors.Is(err, huffman.ErrIncompressible) {
		return data, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "cpk: compressing index")
	}

	if len(payload) >= len(data) {
		return data, nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, CompressedHeaderSize+len(payload)))
	h := compressedHeader{
		CompressedSize:   int32(len(payload)),
		UncompressedSize: int32(len(data)),
		Flags:            1,
	}

	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	buf.Write(payload)
	return buf.Bytes(), nil
}

func encodeIndex(f *File) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, entriesOffset+len(f.Entries)*EntrySize))

	h := header{
		Signature: Signature,
		Field08:   f.Field08,
		FileCount: int32(len(f.Entries)),
	}

	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	if err := binary.Write(buf, binary.LittleEndian, f.table); err != nil {
		return nil, err
	}

	for i, entry := range f.Entries {
		path, err := sjis.Encode(entry.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "cpk: path of entry %d", i)
		}

		raw := rawEntry{
			Path:      path,
			FileIndex: entry.FileIndex,
			PacIndex:  entry.PacIndex,
		}

		if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
