// Command awfuldb is the CLI front end for the storage engine: create
// initializes a fresh database file, run serves it over HTTP (optionally
// alongside a read-only debug FUSE view) until interrupted, and
// backup/restore snapshot the backing file to and from a gzip copy.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	code := 0
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "awfuldb: panic: %v\n", r)
			os.Exit(2)
		}
		os.Exit(code)
	}()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("awfuldb: missing subcommand")
	}
	verb, rest := args[0], args[1:]
	switch verb {
	case "create":
		return cmdCreate(rest)
	case "run":
		return cmdRun(ctx, rest)
	case "backup":
		return cmdBackup(rest)
	case "restore":
		return cmdRestore(rest)
	default:
		usage()
		return fmt.Errorf("awfuldb: unknown subcommand %q", verb)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: awfuldb <create|run|backup|restore> [-flags] <path>")
}
