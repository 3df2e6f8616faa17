package pac

import (
	"encoding/binary"
	"io"

	"github.com/dwpack/go-dwpack/utils/sjis"
	"github.com/pkg/errors"
)

// A Decoder reads pac archives from a random access reader. Entry payloads
// are not read by Decode, they are read on demand through the decoded File.
type Decoder struct {
	r    io.ReaderAt
	size int64
}

// NewDecoder returns a new decoder that reads from r, an archive of size
// bytes.
func NewDecoder(r io.ReaderAt, size int64) *Decoder {
	return &Decoder{r: r, size: size}
}

// Decode reads the header and entry table and stores them in f. f keeps a
// reference to the reader of the decoder.
func (d *Decoder) Decode(f *File) error {
	sr := io.NewSectionReader(d.r, 0, d.size)

	var h header
	if err := binary.Read(sr, binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "pac: reading header")
	}

	if h.Signature != Signature {
		return ErrBadSignature
	}

	if h.FileCount < 0 {
		return errors.Errorf("pac: negative file count %d", h.FileCount)
	}

	dataStart := int64(HeaderSize) + int64(h.FileCount)*EntrySize
	if dataStart > d.size {
		return errors.Errorf("pac: %d entries do not fit in %d bytes", h.FileCount, d.size)
	}

	f.Field08 = h.Field08
	f.Index = h.Index
	f.Entries = make([]*Entry, 0, h.FileCount)
	f.r = d.r

	for i := int32(0); i < h.FileCount; i++ {
		e, err := d.readEntry(sr, dataStart)
		if err != nil {
			return errors.Wrapf(err, "pac: entry %d", i)
		}

		e.file = f
		f.Entries = append(f.Entries, e)
	}

	return nil
}

func (d *Decoder) readEntry(r io.Reader, dataStart int64) (*Entry, error) {
	var raw rawEntry
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	path, err := sjis.Decode(raw.Path[:])
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Field00:          raw.Field00,
		Path:             path,
		Field104:         raw.Field104,
		CompressedSize:   raw.CompressedSize,
		UncompressedSize: raw.UncompressedSize,
		Compressed:       raw.Flags > 0,
		offset:           dataStart + int64(raw.DataOffset),
	}

	if raw.CompressedSize < 0 || raw.UncompressedSize < 0 || raw.DataOffset < 0 ||
		e.offset+int64(raw.CompressedSize) > d.size {
		return nil, ErrEntryOutOfBounds
	}

	return e, nil
}

// Open decodes the archive of size bytes read from r.
func Open(r io.ReaderAt, size int64) (*File, error) {
	f := &File{}
	if err := NewDecoder(r, size).Decode(f); err != nil {
		return nil, err
	}

	return f, nil
}
