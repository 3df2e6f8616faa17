// Package config contains the configuration file of the dwpack tool.
//
// The file uses git-config like INI syntax:
//
//	[codec]
//		chunk-size = 131072
//		workers = 4
//		strict = false
//	[pack]
//		compress = true
//		max-size = 1678174829
package config

import (
	"os"

	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/dwpack/go-dwpack/plumbing/format/pac"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/src-d/gcfg"
)

// DefaultPath is the location of the configuration file when none is
// given.
const DefaultPath = "~/.dwpack.conf"

var (
	ErrInvalidChunkSize = errors.New("config: chunk-size must be positive")
	ErrInvalidWorkers   = errors.New("config: workers cannot be negative")
	ErrInvalidMaxSize   = errors.New("config: max-size must be positive")
)

// Config holds the tool settings.
type Config struct {
	Codec struct {
		// ChunkSize is the chunk size of the containers written.
		ChunkSize int `gcfg:"chunk-size"`
		// Workers bounds the goroutines compressing or extracting, 0 means
		// one per CPU.
		Workers int
		// Strict refuses chunks that do not shrink. Archive entries and
		// indexes that do not shrink are stored uncompressed either way.
		Strict bool
	}

	Pack struct {
		// Compress compresses the entries of packed archives.
		Compress bool
		// MaxSize is the size a pac written by a cpk pack does not reach.
		MaxSize int64 `gcfg:"max-size"`
	}
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	c := &Config{}
	c.Codec.ChunkSize = huffman.DefaultChunkSize
	c.Pack.MaxSize = pac.MaxSize
	return c
}

// Load reads the file at path over the defaults. A leading ~ is expanded to
// the home directory, and a missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	c := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}

	if err := gcfg.FatalOnly(gcfg.ReadFileInto(c, path)); err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Unmarshal parses the configuration in text over the defaults.
func Unmarshal(text string) (*Config, error) {
	c := Default()
	if err := gcfg.FatalOnly(gcfg.ReadStringInto(c, text)); err != nil {
		return nil, errors.Wrap(err, "config")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Codec.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if c.Codec.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pack.MaxSize <= 0 {
		return ErrInvalidMaxSize
	}

	return nil
}

// Encoder returns the container encoder described by the configuration.
func (c *Config) Encoder() *huffman.Encoder {
	return &huffman.Encoder{
		ChunkSize: c.Codec.ChunkSize,
		Workers:   c.Codec.Workers,
		Strict:    c.Codec.Strict,
	}
}
