package main

import (
	"fmt"
	"runtime"
)

var version = "dev"

type CmdVersion struct{}

func (c *CmdVersion) Execute(args []string) error {
	fmt.Printf("%s version %s %s/%s (%s)\n", bin, version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	return nil
}
