package cpk

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/dwpack/go-dwpack/utils/sjis"
	"github.com/pkg/errors"
)

// A Decoder reads cpk indexes from an input stream. Compressed and
// uncompressed indexes are both accepted.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the whole index and stores it in f.
func (d *Decoder) Decode(f *File) error {
	data, err := ioutil.ReadAll(d.r)
	if err != nil {
		return err
	}

	if IsCompressed(data) {
		data, err = decompress(data)
		if err != nil {
			return err
		}
	}

	return decodeIndex(data, f)
}

// IsCompressed reports whether data is a compressed index, that is anything
// not starting with the DW_PACK signature.
func IsCompressed(data []byte) bool {
	return !bytes.HasPrefix(data, signature)
}

func decompress(data []byte) ([]byte, error) {
	if len(data) < CompressedHeaderSize {
		return nil, errors.Errorf("cpk: %d bytes, too short for an index", len(data))
	}

	var h compressedHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	payload := data[CompressedHeaderSize:]
	if h.CompressedSize < 0 || int(h.CompressedSize) > len(payload) {
		return nil, errors.Errorf(
			"cpk: compressed size %d exceeds the %d bytes available", h.CompressedSize, len(payload),
		)
	}

	if h.UncompressedSize > maxIndexSize {
		return nil, errors.Wrapf(
			ErrTooManyEntries, "cpk: index declares %d bytes, at most %d are allowed", h.UncompressedSize, maxIndexSize,
		)
	}

	payload = payload[:h.CompressedSize]
	size, err := huffman.DecodedLen(payload)
	if err != nil {
		return nil, errors.Wrap(err, "cpk")
	}

	if size != int(h.UncompressedSize) {
		return nil, errors.Errorf(
			"cpk: index declares %d bytes, container holds %d", h.UncompressedSize, size,
		)
	}

	out := make([]byte, size)
	if _, err := huffman.Decompress(payload, out); err != nil {
		return nil, errors.Wrap(err, "cpk")
	}

	return out, nil
}

func decodeIndex(data []byte, f *File) error {
	if len(data) < entriesOffset {
		return errors.Errorf("cpk: %d bytes, too short for an index", len(data))
	}

	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return err
	}

	if h.Signature != Signature {
		return ErrBadSignature
	}

	if h.FileCount < 0 || int64(h.FileCount)*EntrySize > int64(len(data)-entriesOffset) {
		return errors.Errorf("cpk: %d entries do not fit in %d bytes", h.FileCount, len(data))
	}

	table := make([]LookupEntry, LookupEntryCount)
	if err := binary.Read(r, binary.LittleEndian, table); err != nil {
		return err
	}

	for i, slot := range table {
		if slot.Index < 0 {
			continue
		}

		if slot.Count < 0 || int64(slot.Index)+int64(slot.Count) > int64(h.FileCount) {
			return errors.Wrapf(ErrMalformedTable, "cpk: slot %d", i)
		}
	}

	entries := make([]*Entry, 0, h.FileCount)
	for i := int32(0); i < h.FileCount; i++ {
		var raw rawEntry
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return err
		}

		path, err := sjis.Decode(raw.Path[:])
		if err != nil {
			return errors.Wrapf(err, "cpk: entry %d", i)
		}

		entries = append(entries, &Entry{
			Path:      path,
			FileIndex: raw.FileIndex,
			PacIndex:  raw.PacIndex,
		})
	}

	f.Field08 = h.Field08
	f.Entries = entries
	f.table = table
	return nil
}

// Open decodes the index read from r.
func Open(r io.Reader) (*File, error) {
	f := New()
	if err := NewDecoder(r).Decode(f); err != nil {
		return nil, err
	}

	return f, nil
}
