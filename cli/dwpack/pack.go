package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dwpack/go-dwpack"
)

type CmdPack struct {
	cmd

	Compress []bool `short:"c" long:"compress" description:"Compress the packed files. Files that do not shrink are stored as they are."`
	Append   string `short:"a" long:"append" value-name:"archive" description:"Add the files to <archive> instead of creating a new one."`
	Args     struct {
		Directory string `positional-arg-name:"directory" required:"true"`
		Archive   string `positional-arg-name:"archive" description:"Output cpk or pac, <directory>.cpk by default."`
	} `positional-args:"yes"`
}

func (c *CmdPack) Execute(args []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	out := c.Args.Archive
	if out == "" {
		out = strings.TrimRight(c.Args.Directory, `/\`) + ".cpk"
	}

	fs, err := filesystem(&c.Args.Directory, &out, &c.Append)
	if err != nil {
		return err
	}

	opts := &dwpack.PackOptions{
		Compress:   optIsTrue(c.Compress) || cfg.Pack.Compress,
		Encoder:    cfg.Encoder(),
		Workers:    cfg.Codec.Workers,
		MaxPacSize: cfg.Pack.MaxSize,
		Progress:   c.progress(),
	}

	dir := c.Args.Directory
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".cpk":
		if c.Append != "" {
			_, err = dwpack.AppendCpk(fs, dir, c.Append, out, opts)
		} else {
			_, err = dwpack.PackCpk(fs, dir, out, opts)
		}
	case ".pac":
		if c.Append != "" {
			err = dwpack.AppendPac(fs, dir, c.Append, out, opts)
		} else {
			err = dwpack.PackPac(fs, dir, out, opts)
		}
	default:
		return fmt.Errorf("unknown output format %q", ext)
	}

	if err != nil {
		return err
	}

	c.verbosef("packed %s into %s\n", dir, out)
	return nil
}
