package dwpack

import (
	"bytes"
	"math"
	"path"
	"strings"

	"github.com/dwpack/go-dwpack/plumbing/format/cpk"
	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/dwpack/go-dwpack/plumbing/format/pac"
	"github.com/pkg/errors"
	"gopkg.in/src-d/go-billy.v4"
)

// maxPacEntries is the number of entries a cpk can address in one pac.
const maxPacEntries = math.MaxInt16 + 1

// ErrTooManyPacs is returned when a cpk would need more pacs than it can
// address.
var ErrTooManyPacs = errors.New("too many pacs for one cpk")

// OpenCpk reads the cpk called name, compressed or not.
func OpenCpk(fs billy.Filesystem, name string) (*cpk.File, error) {
	data, err := readFile(fs, name)
	if err != nil {
		return nil, err
	}

	f, err := cpk.Open(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}

	return f, nil
}

// WriteCpk writes the index f, compressed with enc unless it is nil, to the
// file called name.
func WriteCpk(fs billy.Filesystem, name string, f *cpk.File, enc *huffman.Encoder) error {
	buf := bytes.NewBuffer(nil)
	e := cpk.NewEncoder(buf)
	e.Compression = enc

	if _, err := e.Encode(f); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}

	return writeFile(fs, name, buf.Bytes())
}

// PackCpk packs the files under dir into the cpk out and the pacs next to
// it, named after it with PacName. A new pac is started whenever the
// current one would reach o.MaxPacSize.
func PackCpk(fs billy.Filesystem, dir, out string, o *PackOptions) (*cpk.File, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	progress(o.Progress, "Creating %s", out)

	dst, name := splitPath(out)
	base := fs.Join(dst, strings.TrimSuffix(name, path.Ext(name)))

	w := newCpkWriter(fs, cpk.New(), base, 0, o)
	if err := w.pack(dir); err != nil {
		return nil, err
	}

	if err := WriteCpk(fs, out, w.index, o.Encoder); err != nil {
		return nil, err
	}

	return w.index, nil
}

// AppendCpk packs the files under dir into new pacs numbered after the
// ones of the cpk src, and writes the updated index to out. Entries of src
// with the path of a packed file are pointed to the new copy.
func AppendCpk(fs billy.Filesystem, dir, src, out string, o *PackOptions) (*cpk.File, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	progress(o.Progress, "Appending to %s", src)

	index, err := OpenCpk(fs, src)
	if err != nil {
		return nil, err
	}

	w := newCpkWriter(fs, index, PacBase(fs, out), index.PacCount(), o)
	if err := w.pack(dir); err != nil {
		return nil, err
	}

	if err := WriteCpk(fs, out, w.index, o.Encoder); err != nil {
		return nil, err
	}

	return w.index, nil
}

// cpkWriter distributes entries over pacs and records them in a cpk.
type cpkWriter struct {
	fs    billy.Filesystem
	base  string
	index *cpk.File
	o     *PackOptions

	byPath  map[string]*cpk.Entry
	current *pac.File
	size    int64
}

func newCpkWriter(fs billy.Filesystem, index *cpk.File, base string, first int, o *PackOptions) *cpkWriter {
	return &cpkWriter{
		fs:      fs,
		base:    base,
		index:   index,
		o:       o,
		current: pac.New(int32(first)),
		size:    pac.HeaderSize,
	}
}

func (w *cpkWriter) pack(dir string) error {
	w.byPath = make(map[string]*cpk.Entry, len(w.index.Entries))
	for _, e := range w.index.Entries {
		k, err := cpk.Key(e.Path)
		if err != nil {
			return err
		}

		w.byPath[k] = e
	}

	files, err := listFiles(w.fs, dir)
	if err != nil {
		return err
	}

	if err := loadEntries(w.fs, files, w.o, w.add); err != nil {
		return err
	}

	if len(w.current.Entries) == 0 {
		return nil
	}

	return w.flush()
}

func (w *cpkWriter) add(e *pac.Entry) error {
	size := int64(pac.EntrySize) + int64(e.CompressedSize)
	if len(w.current.Entries) > 0 &&
		(w.size+size >= w.o.MaxPacSize || len(w.current.Entries) == maxPacEntries) {
		if err := w.flush(); err != nil {
			return err
		}

		w.current = pac.New(w.current.Index + 1)
		w.size = pac.HeaderSize
	}

	if w.current.Index > math.MaxInt16 {
		return ErrTooManyPacs
	}

	k, err := cpk.Key(e.Path)
	if err != nil {
		return err
	}

	entry, ok := w.byPath[k]
	if !ok {
		entry = &cpk.Entry{Path: e.Path}
		w.byPath[k] = entry
		w.index.Add(entry)
	}

	entry.FileIndex = int16(len(w.current.Entries))
	entry.PacIndex = int16(w.current.Index)

	w.current.Add(e)
	w.size += size
	return nil
}

func (w *cpkWriter) flush() error {
	name := PacName(w.base, int(w.current.Index))
	progress(w.o.Progress, "Creating %s", name)
	return WritePac(w.fs, name, w.current, w.o.Progress)
}
