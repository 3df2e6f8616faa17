package pac

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/dwpack/go-dwpack/utils/sjis"
	"github.com/pkg/errors"
)

// An Encoder writes pac archives to an output stream.
type Encoder struct {
	w io.Writer
	// OnEntry, if set, is called before the payload of each entry is
	// written.
	OnEntry func(*Entry)
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes f in the pac format to the stream of the encoder. Entries
// are written as they are: compress them beforehand with Entry.Compress.
func (e *Encoder) Encode(f *File) (int64, error) {
	flow := []func(*File) (int64, error){
		e.encodeHeader,
		e.encodeEntries,
		e.encodePayloads,
	}

	var size int64
	for _, step := range flow {
		n, err := step(f)
		size += n

		if err != nil {
			return size, err
		}
	}

	return size, nil
}

func (e *Encoder) encodeHeader(f *File) (int64, error) {
	h := header{
		Signature: Signature,
		Field08:   f.Field08,
		FileCount: int32(len(f.Entries)),
		Index:     f.Index,
	}

	if err := binary.Write(e.w, binary.LittleEndian, &h); err != nil {
		return 0, err
	}

	return HeaderSize, nil
}

func (e *Encoder) encodeEntries(f *File) (int64, error) {
	var size, offset int64
	for i, entry := range f.Entries {
		if offset > math.MaxInt32 {
			return size, errors.Errorf("pac: data offset of %s overflows", entry.Path)
		}

		path, err := sjis.Encode(entry.Path)
		if err != nil {
			return size, errors.Wrapf(err, "pac: path of entry %d", i)
		}

		raw := rawEntry{
			Field00:          entry.Field00,
			Index:            int16(i),
			PackIndex:        int16(f.Index),
			Path:             path,
			Field104:         entry.Field104,
			CompressedSize:   entry.CompressedSize,
			UncompressedSize: entry.UncompressedSize,
			DataOffset:       int32(offset),
		}

		if entry.Compressed {
			raw.Flags = flagCompressed
		}

		if err := binary.Write(e.w, binary.LittleEndian, &raw); err != nil {
			return size, err
		}

		size += EntrySize
		offset += int64(entry.CompressedSize)
	}

	return size, nil
}

func (e *Encoder) encodePayloads(f *File) (int64, error) {
	var size int64
	for _, entry := range f.Entries {
		if e.OnEntry != nil {
			e.OnEntry(entry)
		}

		raw, err := entry.Raw()
		if err != nil {
			return size, err
		}

		if len(raw) != int(entry.CompressedSize) {
			return size, errors.Errorf(
				"pac: %s: payload is %d bytes, entry declares %d",
				entry.Path, len(raw), entry.CompressedSize,
			)
		}

		n, err := e.w.Write(raw)
		size += int64(n)
		if err != nil {
			return size, err
		}
	}

	return size, nil
}
