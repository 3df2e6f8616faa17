package dwpack

import (
	"fmt"
	"io"

	"github.com/dwpack/go-dwpack/plumbing/format/pac"
	"github.com/dwpack/go-dwpack/utils/parallel"
	"github.com/pkg/errors"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/util"
)

// batchFactor times the number of workers is the number of files read
// before being compressed together.
const batchFactor = 4

// Pac is a pac archive opened from a filesystem. Entry payloads are read
// from the file until Close is called.
type Pac struct {
	*pac.File
	f billy.File
}

// OpenPac opens and decodes the pac called name.
func OpenPac(fs billy.Filesystem, name string) (*Pac, error) {
	fi, err := fs.Stat(name)
	if err != nil {
		return nil, err
	}

	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}

	p, err := pac.Open(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "opening %s", name)
	}

	return &Pac{File: p, f: f}, nil
}

// Close closes the underlying file.
func (p *Pac) Close() error {
	return p.f.Close()
}

// PackPac packs the files under dir into the pac out.
func PackPac(fs billy.Filesystem, dir, out string, o *PackOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	progress(o.Progress, "Creating %s", out)

	p := pac.New(0)
	if err := AddFiles(fs, dir, p, o); err != nil {
		return err
	}

	return WritePac(fs, out, p, o.Progress)
}

// AppendPac adds the files under dir after the entries of the pac src and
// writes the result to out, which may be src itself.
func AppendPac(fs billy.Filesystem, dir, src, out string, o *PackOptions) (err error) {
	if err := o.Validate(); err != nil {
		return err
	}

	p, err := OpenPac(fs, src)
	if err != nil {
		return err
	}

	defer checkClose(p, &err)

	progress(o.Progress, "Appending to %s", src)
	if err := AddFiles(fs, dir, p.File, o); err != nil {
		return err
	}

	return WritePac(fs, out, p.File, o.Progress)
}

// AddFiles reads the files under dir and appends them to p, in archive path
// order. With o.Compress set, entries are compressed concurrently.
func AddFiles(fs billy.Filesystem, dir string, p *pac.File, o *PackOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	files, err := listFiles(fs, dir)
	if err != nil {
		return err
	}

	return loadEntries(fs, files, o, func(e *pac.Entry) error {
		p.Add(e)
		return nil
	})
}

// loadEntries reads files in batches, compresses each batch concurrently
// and passes the entries to fn in order.
func loadEntries(fs billy.Filesystem, files []file, o *PackOptions, fn func(*pac.Entry) error) error {
	enc := *o.Encoder
	enc.Workers = 1

	batch := parallel.Workers(o.Workers) * batchFactor
	for start := 0; start < len(files); start += batch {
		end := start + batch
		if end > len(files) {
			end = len(files)
		}

		entries := make([]*pac.Entry, 0, end-start)
		for _, f := range files[start:end] {
			progress(o.Progress, "Adding %s", f.name)
			data, err := readFile(fs, f.path)
			if err != nil {
				return err
			}

			entries = append(entries, pac.NewEntry(f.name, data))
		}

		if o.Compress {
			err := parallel.ForEach(len(entries), o.Workers, func(i int) error {
				return entries[i].Compress(&enc)
			})

			if err != nil {
				return err
			}
		}

		for _, e := range entries {
			if err := fn(e); err != nil {
				return err
			}
		}
	}

	return nil
}

// WritePac encodes p into the file called name, replacing it once the
// whole archive has been written.
func WritePac(fs billy.Filesystem, name string, p *pac.File, w io.Writer) (err error) {
	dir, _ := splitPath(name)
	if dir == "" {
		dir = "."
	} else if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := util.TempFile(fs, dir, ".dwpack")
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			fs.Remove(tmp.Name())
		}
	}()

	enc := pac.NewEncoder(tmp)
	enc.OnEntry = func(e *pac.Entry) {
		progress(w, "Writing %s", e.Path)
	}

	if _, err = enc.Encode(p); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", name)
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return fs.Rename(tmp.Name(), name)
}

func progress(w io.Writer, format string, args ...interface{}) {
	if w == nil {
		return
	}

	fmt.Fprintf(w, format+"\n", args...)
}

// checkClose closes c and stores its error in err, unless err already holds
// one.
func checkClose(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
