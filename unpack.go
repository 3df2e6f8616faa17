package dwpack

import (
	"sort"
	"sync"

	"github.com/dwpack/go-dwpack/plumbing/format/cpk"
	"github.com/dwpack/go-dwpack/plumbing/format/pac"
	"github.com/dwpack/go-dwpack/utils/parallel"
	"github.com/pkg/errors"
	"gopkg.in/src-d/go-billy.v4"
)

var (
	// ErrMissingPac is returned when a pac referenced by a cpk does not
	// exist.
	ErrMissingPac = errors.New("missing pac")
	// ErrFileIndexOutOfRange is returned when a cpk references more entries
	// than a pac holds.
	ErrFileIndexOutOfRange = errors.New("file index out of range")
)

// extractor writes decompressed entries to a filesystem. Entries are
// decompressed concurrently, filesystem calls and progress are serialized.
type extractor struct {
	fs  billy.Filesystem
	dir string
	o   *UnpackOptions

	mu sync.Mutex
}

// extract writes the data of e to the archive path p under the extraction
// directory.
func (x *extractor) extract(p string, e *pac.Entry, format string, args ...interface{}) error {
	name, err := destination(x.fs, x.dir, p)
	if err != nil {
		return err
	}

	data, err := e.Bytes()
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	progress(x.o.Progress, format, args...)
	if err := writeFile(x.fs, name, data); err != nil {
		return errors.Wrapf(err, "extracting %s", p)
	}

	return nil
}

// UnpackPac extracts the entries of the pac called name under dir.
func UnpackPac(fs billy.Filesystem, name, dir string, o *UnpackOptions) (err error) {
	if err := o.Validate(); err != nil {
		return err
	}

	p, err := OpenPac(fs, name)
	if err != nil {
		return err
	}

	defer checkClose(p, &err)

	var entries []*pac.Entry
	for _, e := range p.Entries {
		if o.Match(e.Path) {
			entries = append(entries, e)
		}
	}

	x := &extractor{fs: fs, dir: dir, o: o}
	return parallel.ForEach(len(entries), o.Workers, func(i int) error {
		e := entries[i]
		return x.extract(e.Path, e, "Extracting %s", e.Path)
	})
}

// UnpackCpk extracts the entries of the cpk called name under dir, reading
// them from the pacs found next to it, see PacBase.
func UnpackCpk(fs billy.Filesystem, name, dir string, o *UnpackOptions) (err error) {
	if err := o.Validate(); err != nil {
		return err
	}

	index, err := OpenCpk(fs, name)
	if err != nil {
		return err
	}

	var entries []*cpk.Entry
	for _, e := range index.Entries {
		if o.Match(e.Path) {
			entries = append(entries, e)
		}
	}

	pacs, err := openPacs(fs, PacBase(fs, name), entries)
	for _, p := range pacs {
		defer checkClose(p, &err)
	}

	if err != nil {
		return err
	}

	x := &extractor{fs: fs, dir: dir, o: o}
	return parallel.ForEach(len(entries), o.Workers, func(i int) error {
		e := entries[i]
		pe := pacs[e.PacIndex].Entries[e.FileIndex]
		return x.extract(e.Path, pe, "Extracting %s (pac: %d, file: %d)", e.Path, e.PacIndex, e.FileIndex)
	})
}

// openPacs opens the pacs referenced by entries and checks that they hold
// the referenced files.
func openPacs(fs billy.Filesystem, base string, entries []*cpk.Entry) (map[int16]*Pac, error) {
	counts := make(map[int16]int)
	for _, e := range entries {
		if e.FileIndex < 0 || e.PacIndex < 0 {
			return nil, errors.Wrapf(ErrFileIndexOutOfRange, "%s", e.Path)
		}

		if int(e.FileIndex)+1 > counts[e.PacIndex] {
			counts[e.PacIndex] = int(e.FileIndex) + 1
		}
	}

	indices := make([]int, 0, len(counts))
	for i := range counts {
		indices = append(indices, int(i))
	}

	sort.Ints(indices)

	pacs := make(map[int16]*Pac, len(counts))
	for _, i := range indices {
		name := PacName(base, i)
		if _, err := fs.Stat(name); err != nil {
			return pacs, errors.Wrapf(ErrMissingPac, "%s", name)
		}

		p, err := OpenPac(fs, name)
		if err != nil {
			return pacs, err
		}

		pacs[int16(i)] = p
		if n := counts[int16(i)]; n > len(p.Entries) {
			return pacs, errors.Wrapf(
				ErrFileIndexOutOfRange, "cpk references %d files in %s, it holds %d", n, name, len(p.Entries),
			)
		}
	}

	return pacs, nil
}
