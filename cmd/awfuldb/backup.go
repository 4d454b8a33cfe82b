package main

import (
	"flag"
	"fmt"

	"github.com/griffi-gh/awfuldb/internal/backup"
)

func cmdBackup(args []string) error {
	fset := flag.NewFlagSet("backup", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("usage: awfuldb backup <path> <dest.gz>")
	}
	return backup.Export(fset.Arg(0), fset.Arg(1))
}

func cmdRestore(args []string) error {
	fset := flag.NewFlagSet("restore", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("usage: awfuldb restore <src.gz> <path>")
	}
	return backup.Import(fset.Arg(0), fset.Arg(1))
}
