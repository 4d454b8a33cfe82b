package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/griffi-gh/awfuldb/internal/engine"
	"github.com/griffi-gh/awfuldb/internal/fuseview"
	"github.com/griffi-gh/awfuldb/internal/httpapi"
	"github.com/griffi-gh/awfuldb/internal/lifecycle"
)

func cmdRun(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("run", flag.ExitOnError)
	connect := fset.Bool("c", false, "mount a read-only debug view of the database under <path>.fuse")
	addr := fset.String("a", "127.0.0.1", "address to listen on")
	port := fset.Int("p", 8080, "port to listen on")
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: awfuldb run [-c] [-a ADDR] [-p PORT] <path>")
	}
	path := fset.Arg(0)

	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	db, err := engine.Open(file)
	if err != nil {
		file.Close()
		return err
	}

	lc := lifecycle.New()
	lc.RegisterAtExit(func() error {
		if err := db.Sync(); err != nil {
			return err
		}
		return db.Close()
	})

	g, gctx := errgroup.WithContext(lc)

	if *connect {
		mountpoint := path + ".fuse"
		if err := os.MkdirAll(mountpoint, 0755); err != nil {
			lc.RunAtExit()
			return err
		}
		mounted, err := fuseview.Mount(db, mountpoint)
		if err != nil {
			lc.RunAtExit()
			return err
		}
		lc.RegisterAtExit(func() error {
			return os.Remove(mountpoint)
		})
		g.Go(func() error {
			return mounted.Join(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			return mounted.Unmount()
		})
	}

	listenAddr := fmt.Sprintf("%s:%d", *addr, *port)
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		lc.RunAtExit()
		return err
	}

	mux := httpapi.NewServeMux(db)
	srv := &http.Server{
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}
	g.Go(func() error {
		log.Printf("awfuldb: serving %s on %s", path, listenAddr)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Close()
	})

	err = g.Wait()
	if cerr := lc.RunAtExit(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
