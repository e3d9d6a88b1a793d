// Command cs1550fs mounts a cs1550fs backing image as a FUSE filesystem.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/WGrantKelly/cs1550fs"
)

func main() {
	var diskPath string
	flag.StringVar(&diskPath, "disk", ".disk", "Path to the backing image file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cs1550fs [-disk path] <mountpoint>")
		os.Exit(1)
	}
	mountpoint := flag.Arg(0)

	cfg := cs1550fs.DefaultConfig()
	cfg.ImagePath = diskPath

	if _, err := os.Stat(cfg.ImagePath); os.IsNotExist(err) {
		log.Printf("cs1550fs: %s does not exist, formatting a fresh image", cfg.ImagePath)
		if err := cs1550fs.FormatImage(cfg); err != nil {
			log.Fatalf("cs1550fs: failed to format %s: %s", cfg.ImagePath, err)
		}
	}

	fsys, err := cs1550fs.Open(cfg.ImagePath)
	if err != nil {
		log.Fatalf("cs1550fs: failed to open %s: %s", cfg.ImagePath, err)
	}
	defer fsys.Close()

	root := cs1550fs.NewRootNode(fsys)

	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName: "cs1550fs",
			Name:   "cs1550fs",
		},
	})
	if err != nil {
		log.Fatalf("cs1550fs: mount failed: %s", err)
	}

	log.Printf("cs1550fs: mounted %s on %s", cfg.ImagePath, mountpoint)
	server.Wait()
}
