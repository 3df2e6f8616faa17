// Package dwpack packs directories into DW_PACK pac archives and cpk indexes,
// and extracts them, over any billy.Filesystem.
package dwpack

import (
	"io"
	"strings"

	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/dwpack/go-dwpack/plumbing/format/pac"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

var (
	ErrInvalidMaxPacSize = errors.New("max pac size must be positive")
	ErrInvalidWorkers    = errors.New("workers cannot be negative")
)

// PackOptions describes how to pack a directory.
type PackOptions struct {
	// Compress compresses every entry that shrinks.
	Compress bool
	// Encoder compresses the entries, by default a strict encoder using
	// huffman.DefaultChunkSize.
	Encoder *huffman.Encoder
	// Workers is the number of files compressed concurrently, 0 means one
	// per CPU.
	Workers int
	// MaxPacSize is the size a pac written by PackCpk or AppendCpk does not
	// reach, pac.MaxSize by default.
	MaxPacSize int64
	// Progress is where the human readable progress is written, if any.
	Progress io.Writer
}

// Validate validates the fields and sets the default values.
func (o *PackOptions) Validate() error {
	if o.Encoder == nil {
		o.Encoder = &huffman.Encoder{ChunkSize: huffman.DefaultChunkSize, Strict: true}
	}

	if o.MaxPacSize == 0 {
		o.MaxPacSize = pac.MaxSize
	}

	if o.MaxPacSize < 0 {
		return ErrInvalidMaxPacSize
	}

	if o.Workers < 0 {
		return ErrInvalidWorkers
	}

	return nil
}

// UnpackOptions describes how to extract an archive.
type UnpackOptions struct {
	// Filter selects the extracted entries with a case insensitive glob
	// matched against the slash separated archive path. "*" does not cross
	// a slash, "**" does.
	Filter string
	// Workers is the number of entries extracted concurrently, 0 means one
	// per CPU.
	Workers int
	// Progress is where the human readable progress is written, if any.
	Progress io.Writer

	filter   glob.Glob
	compiled string
}

// Validate validates the fields and sets the default values.
func (o *UnpackOptions) Validate() error {
	if o.Workers < 0 {
		return ErrInvalidWorkers
	}

	return o.compileFilter()
}

func (o *UnpackOptions) compileFilter() error {
	o.filter, o.compiled = nil, ""
	if o.Filter == "" {
		return nil
	}

	g, err := glob.Compile(strings.ToLower(o.Filter), '/')
	if err != nil {
		return errors.Wrapf(err, "invalid filter %q", o.Filter)
	}

	o.filter, o.compiled = g, o.Filter
	return nil
}

// Match reports whether the archive path p is selected by the filter.
func (o *UnpackOptions) Match(p string) bool {
	if o.Filter == "" {
		return true
	}

	if o.filter == nil || o.compiled != o.Filter {
		if err := o.compileFilter(); err != nil {
			return false
		}
	}

	return o.filter.Match(strings.ToLower(SlashPath(p)))
}
