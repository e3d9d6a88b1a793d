// Command cs1550info inspects a cs1550fs backing image without mounting it.
package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/WGrantKelly/cs1550fs"
)

const usage = `cs1550info - cs1550fs image inspector

Usage:
  cs1550info dump <disk_image>     List every directory and file, with size and chain length
  cs1550info check <disk_image>    Verify allocation and reachability invariants

`

func main() {
	if len(os.Args) < 3 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd, imagePath := os.Args[1], os.Args[2]

	fsys, err := cs1550fs.Open(imagePath)
	if err != nil {
		log.Fatalf("cs1550info: open %s: %s", imagePath, err)
	}
	defer fsys.Close()

	var runErr error
	switch cmd {
	case "dump":
		runErr = dump(fsys)
	case "check":
		runErr = check(fsys)
	default:
		fmt.Fprintf(os.Stderr, "cs1550info: unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "cs1550info: %s\n", runErr)
		os.Exit(1)
	}
}

// dump walks the image's two-level namespace with fs.WalkDir over the
// io/fs.FS adapter, printing a directory listing annotated with size and
// (for files) how many blocks its chain occupies.
func dump(fsys *cs1550fs.FileSystem) error {
	vfs := cs1550fs.NewFS(fsys)

	return fs.WalkDir(vfs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			fmt.Println("/")
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			fmt.Printf("  %s/\n", path)
			return nil
		}
		chainBlocks := (info.Size() + cs1550fs.MaxDataInBlock - 1) / cs1550fs.MaxDataInBlock
		if info.Size() == 0 {
			chainBlocks = 1
		}
		fmt.Printf("    %-12s %8d bytes  %d block(s)\n", path, info.Size(), chainBlocks)
		return nil
	})
}

// check runs the read-only invariant walk and reports every problem found.
func check(fsys *cs1550fs.FileSystem) error {
	report := fsys.Check()

	fmt.Printf("directories: %d\n", report.Directories)
	fmt.Printf("files:       %d\n", report.Files)
	fmt.Printf("blocks used (bitmap):  %d\n", report.BlocksUsed)
	fmt.Printf("blocks reachable:      %d\n", report.Reachable)

	if report.OK() {
		fmt.Println("OK: no problems found")
		return nil
	}

	fmt.Printf("%d problem(s) found:\n", len(report.Problems))
	for _, p := range report.Problems {
		fmt.Printf("  - %s\n", p)
	}
	return fmt.Errorf("consistency check failed")
}
