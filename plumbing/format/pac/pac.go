// Package pac implements encoding and decoding of DW_PACK package archives.
//
// A pac file starts with a 0x14 byte header followed by one 0x120 byte entry
// per file and the file payloads, laid out contiguously in entry order. All
// integers are little endian. A payload is either the raw file or a Huffman
// container, depending on the entry flags.
package pac

import (
	"io"
	"sync"

	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/dwpack/go-dwpack/utils/sjis"
	"github.com/pkg/errors"
)

const (
	// Signature is "DW_PACK\0" read as a little endian uint64.
	Signature uint64 = 0x4B4341505F5744
	// HeaderSize is the encoded size of the archive header.
	HeaderSize = 0x14
	// EntrySize is the encoded size of an entry.
	EntrySize = 0x120
	// MaxSize is the size a pac file is not allowed to reach when files are
	// distributed over several pacs.
	MaxSize = 1678174829

	flagCompressed = 1
)

var (
	// ErrBadSignature is returned when the data does not start with the
	// DW_PACK signature.
	ErrBadSignature = errors.New("pac: bad signature")
	// ErrEntryOutOfBounds is returned when an entry declares a payload
	// outside of the archive.
	ErrEntryOutOfBounds = errors.New("pac: entry out of bounds")
	// ErrNotBacked is returned when reading an entry that has neither
	// in-memory data nor a backing archive.
	ErrNotBacked = errors.New("pac: entry has no data")
)

type header struct {
	Signature uint64
	Field08   int32
	FileCount int32
	Index     int32
}

type rawEntry struct {
	Field00          int32
	Index            int16
	PackIndex        int16
	Path             [sjis.PathLength]byte
	Field104         int32
	CompressedSize   int32
	UncompressedSize int32
	Flags            int32
	DataOffset       int32
}

// File is a pac archive, either decoded from a backing reader or built in
// memory.
type File struct {
	Field08 int32
	// Index is the position of this pac among the pacs of a cpk.
	Index   int32
	Entries []*Entry

	r  io.ReaderAt
	mu sync.Mutex
}

// New returns an empty pac with the given index.
func New(index int32) *File {
	return &File{Index: index}
}

// Add appends e to the archive.
func (f *File) Add(e *Entry) {
	e.file = f
	f.Entries = append(f.Entries, e)
}

// readAt reads n bytes at off from the backing reader. Reads are serialized
// so the archive can be shared by goroutines decompressing entries.
func (f *File) readAt(off int64, n int32) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.r == nil {
		return nil, ErrNotBacked
	}

	buf := make([]byte, n)
	if _, err := f.r.ReadAt(buf, off); err != nil {
		return nil, errors.Wrapf(err, "pac: reading %d bytes at %d", n, off)
	}

	return buf, nil
}

// Entry is a file stored in a pac.
type Entry struct {
	Field00 int32
	// Path is the archive path, using backslash separators.
	Path             string
	Field104         int32
	CompressedSize   int32
	UncompressedSize int32
	Compressed       bool

	offset int64
	data   []byte
	file   *File
}

// NewEntry returns an uncompressed entry holding data.
func NewEntry(path string, data []byte) *Entry {
	return &Entry{
		Path:             path,
		CompressedSize:   int32(len(data)),
		UncompressedSize: int32(len(data)),
		data:             data,
	}
}

// Raw returns the payload as stored, compressed or not.
func (e *Entry) Raw() ([]byte, error) {
	if e.data != nil || e.CompressedSize == 0 {
		return e.data, nil
	}

	if e.file == nil {
		return nil, ErrNotBacked
	}

	return e.file.readAt(e.offset, e.CompressedSize)
}

// Bytes returns the file contents, decompressing them if needed.
func (e *Entry) Bytes() ([]byte, error) {
	raw, err := e.Raw()
	if err != nil {
		return nil, err
	}

	if !e.Compressed {
		return raw, nil
	}

	out := make([]byte, e.UncompressedSize)
	n, err := huffman.Decompress(raw, out)
	if err != nil {
		return nil, errors.Wrapf(err, "pac: decompressing %s", e.Path)
	}

	if n != len(out) {
		return nil, errors.Errorf(
			"pac: %s: decompressed %d bytes, expected %d", e.Path, n, len(out),
		)
	}

	return out, nil
}

// Compress replaces the payload of an uncompressed entry with its Huffman
// container. Empty entries, and entries enc refuses because they would not
// shrink, are left uncompressed.
func (e *Entry) Compress(enc *huffman.Encoder) error {
	if e.Compressed || e.UncompressedSize == 0 {
		return nil
	}

	raw, err := e.Raw()
	if err != nil {
		return err
	}

	data, err := enc.Encode(raw)
	if errors.Is(err, huffman.ErrIncompressible) {
		return nil
	}

	if err != nil {
		return errors.Wrapf(err, "pac: compressing %s", e.Path)
	}

	if len(data) >= len(raw) {
		return nil
	}

	e.data = data
	e.CompressedSize = int32(len(data))
	e.Compressed = true
	return nil
}

// Decompress replaces the payload of a compressed entry with the file
// contents.
func (e *Entry) Decompress() error {
	if !e.Compressed {
		return nil
	}

	data, err := e.Bytes()
	if err != nil {
		return err
	}

	e.data = data
	e.CompressedSize = e.UncompressedSize
	e.Compressed = false
	return nil
}
