package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/renameio"

	"github.com/griffi-gh/awfuldb/internal/engine"
)

func cmdCreate(args []string) error {
	fset := flag.NewFlagSet("create", flag.ExitOnError)
	force := fset.Bool("f", false, "overwrite an existing file at <path>")
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: awfuldb create [-f] <path>")
	}
	path := fset.Arg(0)

	if !*force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("awfuldb: %s already exists", path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	out, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer out.Cleanup()

	// engine.Create has already synced the fresh image. The file is left
	// open for CloseAtomicallyReplace, which syncs and closes it (dropping
	// the advisory lock) before renaming it into place.
	if _, err := engine.Create(out.File); err != nil {
		return err
	}
	return out.CloseAtomicallyReplace()
}
