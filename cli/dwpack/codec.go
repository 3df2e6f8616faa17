package main

import (
	"io/ioutil"

	"github.com/dwpack/go-dwpack/plumbing/format/huffman"
	"github.com/pkg/errors"
)

type CmdCompress struct {
	cmd

	ChunkSize int `long:"chunk-size" value-name:"bytes" description:"Size of the independently compressed chunks, the configured one by default."`
	Args      struct {
		Input  string `positional-arg-name:"input" required:"true"`
		Output string `positional-arg-name:"output" required:"true"`
	} `positional-args:"yes"`
}

func (c *CmdCompress) Execute(args []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	if c.ChunkSize != 0 {
		cfg.Codec.ChunkSize = c.ChunkSize
	}

	src, err := ioutil.ReadFile(c.Args.Input)
	if err != nil {
		return err
	}

	dst, err := cfg.Encoder().Encode(src)
	if err != nil {
		return errors.Wrapf(err, "compressing %s", c.Args.Input)
	}

	c.verbosef("%s: %d bytes compressed to %d\n", c.Args.Input, len(src), len(dst))
	return ioutil.WriteFile(c.Args.Output, dst, 0644)
}

type CmdDecompress struct {
	cmd

	MaxSize int64 `long:"max-size" value-name:"bytes" default:"1073741824" description:"Refuse containers declaring a larger uncompressed size."`
	Args    struct {
		Input  string `positional-arg-name:"input" required:"true"`
		Output string `positional-arg-name:"output" required:"true"`
	} `positional-args:"yes"`
}

func (c *CmdDecompress) Execute(args []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	src, err := ioutil.ReadFile(c.Args.Input)
	if err != nil {
		return err
	}

	size, err := huffman.DecodedLen(src)
	if err != nil {
		return errors.Wrapf(err, "reading %s", c.Args.Input)
	}

	if int64(size) > c.MaxSize {
		return errors.Errorf("%s declares %d bytes, more than --max-size %d", c.Args.Input, size, c.MaxSize)
	}

	dec := huffman.NewDecoder()
	dec.Workers = cfg.Codec.Workers

	dst := make([]byte, size)
	n, err := dec.Decode(src, dst)
	if err != nil {
		return errors.Wrapf(err, "decompressing %s", c.Args.Input)
	}

	c.verbosef("%s: %d bytes decompressed to %d\n", c.Args.Input, len(src), n)
	return ioutil.WriteFile(c.Args.Output, dst[:n], 0644)
}
