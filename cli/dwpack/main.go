package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dwpack/go-dwpack/config"
	"github.com/jessevdk/go-flags"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"
)

const bin = "dwpack"

func main() {
	parser := flags.NewNamedParser(bin, flags.Default)
	parser.AddCommand("pack", "Pack a directory into a cpk or pac archive.", "", &CmdPack{})
	parser.AddCommand("unpack", "Extract a cpk or pac archive.", "", &CmdUnpack{})
	parser.AddCommand("compress", "Compress a file into a Huffman container.", "", &CmdCompress{})
	parser.AddCommand("decompress", "Decompress a Huffman container.", "", &CmdDecompress{})
	parser.AddCommand("version", "Show the version information.", "", &CmdVersion{})

	_, err := parser.Parse()
	if err != nil {
		if err, ok := err.(*flags.Error); ok {
			if err.Type == flags.ErrHelp {
				os.Exit(0)
			}

			parser.WriteHelp(os.Stdout)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

type cmd struct {
	Verbose bool   `short:"v" long:"verbose" description:"Activates the verbose mode"`
	Quiet   []bool `short:"q" long:"quiet" description:"Operate quietly. Progress is not reported."`
	Config  string `long:"config" value-name:"file" description:"Configuration file." default:"~/.dwpack.conf"`
	Workers int    `long:"workers" value-name:"n" description:"Number of files or chunks processed concurrently, 0 means one per CPU."`
}

// config loads the configuration file and applies the command line
// overrides.
func (c *cmd) config() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}

	if c.Workers > 0 {
		cfg.Codec.Workers = c.Workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c.verbosef("config: chunk-size %d, workers %d, strict %v\n",
		cfg.Codec.ChunkSize, cfg.Codec.Workers, cfg.Codec.Strict)

	return cfg, nil
}

func (c *cmd) progress() io.Writer {
	if optIsTrue(c.Quiet) {
		return nil
	}

	return os.Stdout
}

func (c *cmd) verbosef(format string, args ...interface{}) {
	if c.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// filesystem returns the host filesystem, addressed with absolute paths,
// and the absolute form of paths.
func filesystem(paths ...*string) (billy.Filesystem, error) {
	for _, p := range paths {
		if *p == "" {
			continue
		}

		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, err
		}

		*p = abs
	}

	return osfs.New(string(filepath.Separator)), nil
}

func optIsTrue(b []bool) bool {
	return len(b) != 0 && b[len(b)-1]
}
