package cs1550fs_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/WGrantKelly/cs1550fs"
)

func newTestFileSystem(t *testing.T) *cs1550fs.FileSystem {
	t.Helper()
	cfg := cs1550fs.DefaultConfig()
	cfg.ImagePath = filepath.Join(t.TempDir(), ".disk")
	if err := cs1550fs.FormatImage(cfg); err != nil {
		t.Fatalf("FormatImage: %v", err)
	}
	fsys, err := cs1550fs.Open(cfg.ImagePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { fsys.Close() })
	return fsys
}

func sameStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// Scenario 1: fresh image, list root.
func TestScenarioFreshImageListRoot(t *testing.T) {
	fsys := newTestFileSystem(t)

	names, err := fsys.Readdir("/")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	if !sameStrings(names, []string{".", ".."}) {
		t.Fatalf("Readdir(/) = %v, want [. ..]", names)
	}
}

// Scenario 2: create directory and list.
func TestScenarioMkdirAndList(t *testing.T) {
	fsys := newTestFileSystem(t)

	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	names, err := fsys.Readdir("/")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	if !sameStrings(names, []string{".", "..", "docs"}) {
		t.Fatalf("Readdir(/) = %v, want [. .. docs]", names)
	}

	attr, err := fsys.Getattr("/docs")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if attr.Mode&cs1550fs.S_IFDIR == 0 {
		t.Fatalf("Getattr(/docs).Mode = %#o, want a directory mode", attr.Mode)
	}
}

// Scenario 3: create and read an empty file.
func TestScenarioMknodAndReadEmpty(t *testing.T) {
	fsys := newTestFileSystem(t)

	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}

	attr, err := fsys.Getattr("/docs/readme.txt")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if attr.Size != 0 {
		t.Fatalf("Getattr(/docs/readme.txt).Size = %d, want 0", attr.Size)
	}

	data, err := fsys.Read("/docs/readme.txt", 100, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("Read of empty file returned %d bytes, want 0", len(data))
	}
}

// Scenario 4: write within a single block.
func TestScenarioWriteWithinSingleBlock(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}

	n, err := fsys.Write("/docs/readme.txt", []byte("hello"), 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("Write returned %d, want 5", n)
	}

	attr, err := fsys.Getattr("/docs/readme.txt")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if attr.Size != 5 {
		t.Fatalf("Getattr.Size = %d, want 5", attr.Size)
	}

	data, err := fsys.Read("/docs/readme.txt", 10, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("Read = %q, want %q", data, "hello")
	}
}

// Scenario 5: write spanning two blocks.
func TestScenarioWriteSpanningTwoBlocks(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}

	buf := bytes.Repeat([]byte("A"), 600)
	n, err := fsys.Write("/docs/readme.txt", buf, 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 600 {
		t.Fatalf("Write returned %d, want 600", n)
	}

	report := fsys.Check()
	if !report.OK() {
		t.Fatalf("Check found problems after a two-block write: %v", report.Problems)
	}
	if report.BlocksUsed != 3 { // the file's directory block + 2 data blocks
		t.Fatalf("BlocksUsed = %d, want 3 (1 directory block + 2 data blocks)", report.BlocksUsed)
	}

	data, err := fsys.Read("/docs/readme.txt", 600, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(data) != 600 {
		t.Fatalf("Read returned %d bytes, want 600", len(data))
	}
	if !bytes.Equal(data, buf) {
		t.Fatal("read-back data does not match what was written")
	}
}

// A write starting exactly at a block-boundary fsize (one full payload
// region already written, no successor block allocated yet) must extend
// the chain rather than error: offset == fsize is an explicitly valid
// write precondition.
func TestWriteAtExactBlockBoundaryExtendsChain(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}

	full := bytes.Repeat([]byte("A"), cs1550fs.MaxDataInBlock)
	if n, err := fsys.Write("/docs/readme.txt", full, 0); err != nil || n != len(full) {
		t.Fatalf("initial full-block write: n=%d err=%v", n, err)
	}

	more := []byte("tail")
	n, err := fsys.Write("/docs/readme.txt", more, uint64(cs1550fs.MaxDataInBlock))
	if err != nil {
		t.Fatalf("Write at offset == fsize (block boundary): %v", err)
	}
	if n != len(more) {
		t.Fatalf("Write at boundary returned %d, want %d", n, len(more))
	}

	attr, err := fsys.Getattr("/docs/readme.txt")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	wantSize := uint64(cs1550fs.MaxDataInBlock + len(more))
	if attr.Size != wantSize {
		t.Fatalf("Getattr.Size = %d, want %d", attr.Size, wantSize)
	}

	data, err := fsys.Read("/docs/readme.txt", len(more), uint64(cs1550fs.MaxDataInBlock))
	if err != nil {
		t.Fatalf("Read tail: %v", err)
	}
	if string(data) != "tail" {
		t.Fatalf("Read tail = %q, want %q", data, "tail")
	}

	report := fsys.Check()
	if !report.OK() {
		t.Fatalf("Check found problems after a boundary-extending write: %v", report.Problems)
	}
}

// Scenario 6: name too long leaves Root unchanged.
func TestScenarioNameTooLongLeavesRootUnchanged(t *testing.T) {
	fsys := newTestFileSystem(t)

	before, err := fsys.Readdir("/")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}

	err = fsys.Mkdir("/directoryX") // 9 characters
	if !errors.Is(err, cs1550fs.ErrNameTooLong) {
		t.Fatalf("Mkdir(9-char name) err = %v, want ErrNameTooLong", err)
	}

	after, err := fsys.Readdir("/")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	if !sameStrings(before, after) {
		t.Fatalf("Root changed after a rejected mkdir: before=%v after=%v", before, after)
	}
}

func TestMkdirDuplicateNameFails(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	err := fsys.Mkdir("/docs")
	if !errors.Is(err, cs1550fs.ErrAlreadyExists) {
		t.Fatalf("second Mkdir(/docs) err = %v, want ErrAlreadyExists", err)
	}
}

func TestMkdirAtRootCapacityReturnsNoSpaceLeft(t *testing.T) {
	fsys := newTestFileSystem(t)
	for i := 0; i < cs1550fs.MaxDirsInRoot; i++ {
		name := "d" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		if err := fsys.Mkdir("/" + name); err != nil {
			t.Fatalf("Mkdir(/%s) #%d: %v", name, i, err)
		}
	}
	err := fsys.Mkdir("/overflow")
	if !errors.Is(err, cs1550fs.ErrNoSpaceLeft) {
		t.Fatalf("Mkdir past capacity err = %v, want ErrNoSpaceLeft", err)
	}
}

func TestMknodAtDirectoryCapacityReturnsNoSpaceLeft(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	for i := 0; i < cs1550fs.MaxFilesInDir; i++ {
		name := "f" + string(rune('a'+i%26)) + string(rune('0'+i/26)) + ".txt"
		if err := fsys.Mknod("/docs/" + name); err != nil {
			t.Fatalf("Mknod(/docs/%s) #%d: %v", name, i, err)
		}
	}
	err := fsys.Mknod("/docs/overflow.txt")
	if !errors.Is(err, cs1550fs.ErrNoSpaceLeft) {
		t.Fatalf("Mknod past capacity err = %v, want ErrNoSpaceLeft", err)
	}
}

func TestReadAtExactSizeReturnsZeroBytes(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := fsys.Write("/docs/readme.txt", []byte("hello"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := fsys.Read("/docs/readme.txt", 10, 5)
	if err != nil {
		t.Fatalf("Read at offset == fsize: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("Read at offset == fsize returned %d bytes, want 0", len(data))
	}
}

func TestReadPastEndOfFileReturnsFileTooLarge(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := fsys.Write("/docs/readme.txt", []byte("hello"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, err := fsys.Read("/docs/readme.txt", 10, 6)
	if !errors.Is(err, cs1550fs.ErrFileTooLarge) {
		t.Fatalf("Read past EOF err = %v, want ErrFileTooLarge", err)
	}
}

func TestWriteAtOffsetExtendsExistingContent(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := fsys.Write("/docs/readme.txt", []byte("hello"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := fsys.Write("/docs/readme.txt", []byte(" world"), 5); err != nil {
		t.Fatalf("Write at offset: %v", err)
	}

	data, err := fsys.Read("/docs/readme.txt", 11, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("Read = %q, want %q", data, "hello world")
	}
}

func TestRmdirUnlinkTruncateAreNoOps(t *testing.T) {
	fsys := newTestFileSystem(t)
	if err := fsys.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := fsys.Mknod("/docs/readme.txt"); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := fsys.Write("/docs/readme.txt", []byte("hello"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := fsys.Rmdir("/docs"); err != nil {
		t.Fatalf("Rmdir: %v", err)
	}
	if err := fsys.Unlink("/docs/readme.txt"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := fsys.Truncate("/docs/readme.txt", 0); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	// all three are no-ops: the directory and file must still be present.
	attr, err := fsys.Getattr("/docs/readme.txt")
	if err != nil {
		t.Fatalf("Getattr after no-op Rmdir/Unlink/Truncate: %v", err)
	}
	if attr.Size != 5 {
		t.Fatalf("file size changed by a no-op Truncate: got %d, want 5", attr.Size)
	}
}

func TestCheckOnFreshImageIsClean(t *testing.T) {
	fsys := newTestFileSystem(t)
	report := fsys.Check()
	if !report.OK() {
		t.Fatalf("fresh image should have no problems, got %v", report.Problems)
	}
	if report.Directories != 0 || report.Files != 0 {
		t.Fatalf("fresh image should be empty, got %d directories, %d files", report.Directories, report.Files)
	}
}
