package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dwpack/go-dwpack"
)

type CmdUnpack struct {
	cmd

	Filter string `long:"filter" value-name:"pattern" description:"Extract only the files matching the case insensitive glob <pattern>. The pattern is matched against the slash separated archive path, ** crosses directories."`
	Args   struct {
		Archive   string `positional-arg-name:"archive" required:"true"`
		Directory string `positional-arg-name:"directory" description:"Destination, the archive path without extension by default."`
	} `positional-args:"yes"`
}

func (c *CmdUnpack) Execute(args []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(c.Args.Archive))
	dir := c.Args.Directory
	if dir == "" {
		dir = strings.TrimSuffix(c.Args.Archive, filepath.Ext(c.Args.Archive))
	}

	fs, err := filesystem(&c.Args.Archive, &dir)
	if err != nil {
		return err
	}

	opts := &dwpack.UnpackOptions{
		Filter:   c.Filter,
		Workers:  cfg.Codec.Workers,
		Progress: c.progress(),
	}

	switch ext {
	case ".cpk":
		err = dwpack.UnpackCpk(fs, c.Args.Archive, dir, opts)
	case ".pac":
		err = dwpack.UnpackPac(fs, c.Args.Archive, dir, opts)
	default:
		return fmt.Errorf("unknown input format %q", ext)
	}

	if err != nil {
		return err
	}

	c.verbosef("extracted %s into %s\n", c.Args.Archive, dir)
	return nil
}
