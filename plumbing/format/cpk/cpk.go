// Package cpk implements encoding and decoding of cpk archive indexes.
//
// A cpk maps archive paths to entries stored in a set of numbered pac files.
// It is made of a 16 byte header, a lookup table with one slot per possible
// path hash and one 264 byte entry per file, sorted by hash. The whole index
// may be wrapped in a Huffman container.
package cpk

import (
	"sort"

	"github.com/dwpack/go-dwpack/utils/sjis"
	"github.com/pkg/errors"
)

const (
	// Signature is "DW_PACK\0" read as a little endian uint64.
	Signature uint64 = 0x4B4341505F5744
	// HeaderSize is the encoded size of the index header.
	HeaderSize = 16
	// LookupEntrySize is the encoded size of a lookup table slot.
	LookupEntrySize = 8
	// LookupEntryCount is the number of slots of the lookup table.
	LookupEntryCount = 1 << 16
	// EntrySize is the encoded size of an entry.
	EntrySize = 264
	// CompressedHeaderSize is the size of the header preceding a compressed
	// index.
	CompressedHeaderSize = 16
	// MaxEntries is the largest number of entries of an index.
	MaxEntries = 1 << 22

	entriesOffset = HeaderSize + LookupEntrySize*LookupEntryCount
	maxIndexSize  = entriesOffset + EntrySize*MaxEntries
)

var (
	// ErrBadSignature is returned when an uncompressed index does not start
	// with the DW_PACK signature.
	ErrBadSignature = errors.New("cpk: bad signature")
	// ErrEntryNotFound is returned by Lookup when no entry has the given
	// path.
	ErrEntryNotFound = errors.New("cpk: entry not found")
	// ErrMalformedTable is returned when the lookup table points outside of
	// the entries.
	ErrMalformedTable = errors.New("cpk: malformed lookup table")
	// ErrTooManyEntries is returned when an index holds more than
	// MaxEntries entries.
	ErrTooManyEntries = errors.New("cpk: too many entries")
)

var signature = []byte("DW_PACK\x00")

type header struct {
	Signature uint64
	Field08   int32
	FileCount int32
}

type compressedHeader struct {
	Field00          int32
	CompressedSize   int32
	UncompressedSize int32
	Flags            int32
}

// LookupEntry is a slot of the lookup table: the entries whose path hashes
// to the slot are Entries[Index:Index+Count].
type LookupEntry struct {
	Index int32
	Count int32
}

type rawEntry struct {
	Path      [sjis.PathLength]byte
	FileIndex int16
	PacIndex  int16
}

// Entry locates a file: it is entry FileIndex of the pac numbered PacIndex.
type Entry struct {
	// Path is the archive path, using backslash separators.
	Path      string
	FileIndex int16
	PacIndex  int16
}

// File is a cpk index.
type File struct {
	Field08 int32
	Entries []*Entry

	table []LookupEntry
}

// New returns an empty index.
func New() *File {
	return &File{}
}

// Add appends an entry to the index.
func (f *File) Add(e *Entry) {
	f.Entries = append(f.Entries, e)
	f.table = nil
}

// PacCount returns the number of pacs referenced by the index, that is one
// past the highest pac index.
func (f *File) PacCount() int {
	n := 0
	for _, e := range f.Entries {
		if int(e.PacIndex) >= n {
			n = int(e.PacIndex) + 1
		}
	}

	return n
}

// Lookup returns the entry stored under path. Paths are matched the way
// Hash compares them.
func (f *File) Lookup(path string) (*Entry, error) {
	if f.table == nil {
		if err := f.sort(); err != nil {
			return nil, err
		}
	}

	h, err := Hash(path)
	if err != nil {
		return nil, err
	}

	want, err := Key(path)
	if err != nil {
		return nil, err
	}

	slot := f.table[h]
	for i := slot.Index; slot.Index >= 0 && i < slot.Index+slot.Count; i++ {
		e := f.Entries[i]
		k, err := Key(e.Path)
		if err != nil {
			return nil, err
		}

		if k == want {
			return e, nil
		}
	}

	return nil, ErrEntryNotFound
}

// sort orders the entries by path hash, keeping the relative order of
// entries sharing a hash, and rebuilds the lookup table.
func (f *File) sort() error {
	hashes := make(map[*Entry]uint16, len(f.Entries))
	for _, e := range f.Entries {
		h, err := Hash(e.Path)
		if err != nil {
			return errors.Wrapf(err, "cpk: hashing %s", e.Path)
		}

		hashes[e] = h
	}

	sort.SliceStable(f.Entries, func(i, j int) bool {
		return hashes[f.Entries[i]] < hashes[f.Entries[j]]
	})

	table := newTable()
	for i, e := range f.Entries {
		slot := &table[hashes[e]]
		if slot.Index < 0 {
			slot.Index = int32(i)
		}

		slot.Count++
	}

	f.table = table
	return nil
}

func newTable() []LookupEntry {
	table := make([]LookupEntry, LookupEntryCount)
	for i := range table {
		table[i].Index = -1
	}

	return table
}

// Key returns the form under which paths are compared: trimmed, Shift-JIS
// encoded and normalized as Hash does.
func Key(path string) (string, error) {
	b, err := sjis.Bytes(trimPath(path))
	if err != nil {
		return "", err
	}

	return string(normalizePath(b)), nil
}
