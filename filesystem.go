package cs1550fs

import (
	"fmt"
	"log"
	"sync"
)

// FileSystem is the hub binding the Block Device, Allocator, and the
// in-memory Root cache together, and implements the directory and file
// I/O operations. Every exported operation that reads or writes the image,
// except Close, takes mu for its whole duration (the no-op Rmdir, Unlink
// and Truncate take no lock), emulating single-callback-at-a-time dispatch even though
// go-fuse may call in from multiple goroutines.
type FileSystem struct {
	mu    sync.Mutex
	dev   *BlockDevice
	alloc *Allocator
	root  Root
}

// Open loads an existing backing image and returns a ready FileSystem.
func Open(imagePath string) (*FileSystem, error) {
	dev, err := OpenBlockDevice(imagePath)
	if err != nil {
		return nil, err
	}

	alloc, err := NewAllocator(dev)
	if err != nil {
		dev.Close()
		return nil, err
	}

	rootBlock, err := dev.ReadBlock(RootBlock)
	if err != nil {
		dev.Close()
		return nil, err
	}

	fs := &FileSystem{dev: dev, alloc: alloc}
	if err := fs.root.UnmarshalBinary(rootBlock); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	log.Printf("cs1550fs: opened %s, %d top-level directories", imagePath, fs.root.NDirectories)
	return fs, nil
}

// Close releases the backing image handle.
func (fsys *FileSystem) Close() error {
	return fsys.dev.Close()
}

func (fsys *FileSystem) persistRoot() error {
	data, err := fsys.root.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return fsys.dev.WriteBlock(RootBlock, data)
}

// findDir looks up a top-level directory by name in the cached Root.
func (fsys *FileSystem) findDir(name string) (RootDirEntry, bool) {
	for i := int32(0); i < fsys.root.NDirectories; i++ {
		d := fsys.root.Directories[i]
		if decodeName(d.Name[:]) == name {
			return d, true
		}
	}
	return RootDirEntry{}, false
}

func (fsys *FileSystem) readDirEntry(startBlock int64) (DirectoryEntry, error) {
	var de DirectoryEntry
	data, err := fsys.dev.ReadBlock(startBlock)
	if err != nil {
		return de, err
	}
	if err := de.UnmarshalBinary(data); err != nil {
		return de, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return de, nil
}

func (fsys *FileSystem) writeDirEntry(startBlock int64, de *DirectoryEntry) error {
	data, err := de.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return fsys.dev.WriteBlock(startBlock, data)
}

// findFile looks up a (name, ext) record within a DirectoryEntry.
func findFile(de *DirectoryEntry, name, ext string) (int, bool) {
	for i := int32(0); i < de.NFiles; i++ {
		f := de.Files[i]
		if decodeName(f.Name[:]) == name && decodeName(f.Ext[:]) == ext {
			return int(i), true
		}
	}
	return 0, false
}

// Getattr resolves path and returns its attributes.
func (fsys *FileSystem) Getattr(path string) (Attr, error) {
	pk, err := ParsePath(path)
	if err != nil {
		return Attr{}, err
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	if pk.Root {
		return DirAttr(), nil
	}

	dir, ok := fsys.findDir(pk.Dir)
	if !ok {
		return Attr{}, fmt.Errorf("%w: directory %q", ErrNotFound, pk.Dir)
	}
	if pk.Name == "" {
		return DirAttr(), nil
	}

	de, err := fsys.readDirEntry(dir.StartBlock)
	if err != nil {
		return Attr{}, err
	}
	idx, ok := findFile(&de, pk.Name, pk.Ext)
	if !ok {
		return Attr{}, fmt.Errorf("%w: file %q.%q", ErrNotFound, pk.Name, pk.Ext)
	}
	return FileAttr(de.Files[idx].Size), nil
}

// Readdir lists directory contents. Every listing begins
// with "." and "..". A path naming a file is an error.
func (fsys *FileSystem) Readdir(path string) ([]string, error) {
	pk, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if !pk.IsDirOnly() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrInvalidArgument, path)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	names := []string{".", ".."}

	if pk.Root {
		for i := int32(0); i < fsys.root.NDirectories; i++ {
			names = append(names, decodeName(fsys.root.Directories[i].Name[:]))
		}
		return names, nil
	}

	dir, ok := fsys.findDir(pk.Dir)
	if !ok {
		return nil, fmt.Errorf("%w: directory %q", ErrNotFound, pk.Dir)
	}
	de, err := fsys.readDirEntry(dir.StartBlock)
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < de.NFiles; i++ {
		f := de.Files[i]
		names = append(names, decodeName(f.Name[:])+"."+decodeName(f.Ext[:]))
	}
	return names, nil
}

// Mkdir creates a new top-level directory.
func (fsys *FileSystem) Mkdir(path string) error {
	pk, err := ParsePath(path)
	if err != nil {
		return err
	}
	if pk.Root || pk.Dir == "" || pk.Name != "" || pk.Ext != "" {
		return fmt.Errorf("%w: mkdir requires a bare /<dir> path", ErrInvalidArgument)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	if fsys.root.NDirectories >= MaxDirsInRoot {
		return fmt.Errorf("%w: root directory table is full", ErrNoSpaceLeft)
	}
	if _, ok := fsys.findDir(pk.Dir); ok {
		return fmt.Errorf("%w: directory %q", ErrAlreadyExists, pk.Dir)
	}

	block, ok := fsys.alloc.FindFree()
	if !ok {
		return fmt.Errorf("%w: no free blocks for new directory", ErrNoSpaceLeft)
	}

	// mark-then-initialize: an interrupted mkdir leaves a bit claimed but
	// unused, recoverable by fsck.
	if err := fsys.alloc.MarkUsed(block); err != nil {
		return err
	}
	var empty DirectoryEntry
	if err := fsys.writeDirEntry(block, &empty); err != nil {
		return err
	}

	entry := RootDirEntry{StartBlock: block}
	if err := encodeName(entry.Name[:], pk.Dir); err != nil {
		return err
	}
	fsys.root.Directories[fsys.root.NDirectories] = entry
	fsys.root.NDirectories++

	if err := fsys.persistRoot(); err != nil {
		return err
	}
	log.Printf("cs1550fs: mkdir %s -> block %d", path, block)
	return nil
}

// Mknod creates a zero-length file.
func (fsys *FileSystem) Mknod(path string) error {
	pk, err := ParsePath(path)
	if err != nil {
		return err
	}
	if !pk.IsFile() {
		return fmt.Errorf("%w: mknod requires a /<dir>/<name>.<ext> path", ErrInvalidArgument)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	dir, ok := fsys.findDir(pk.Dir)
	if !ok {
		return fmt.Errorf("%w: directory %q", ErrNotFound, pk.Dir)
	}

	de, err := fsys.readDirEntry(dir.StartBlock)
	if err != nil {
		return err
	}
	if de.NFiles >= MaxFilesInDir {
		return fmt.Errorf("%w: directory %q is full", ErrNoSpaceLeft, pk.Dir)
	}
	if _, ok := findFile(&de, pk.Name, pk.Ext); ok {
		return fmt.Errorf("%w: file %q.%q", ErrAlreadyExists, pk.Name, pk.Ext)
	}

	block, ok := fsys.alloc.FindFree()
	if !ok {
		return fmt.Errorf("%w: no free blocks for new file", ErrNoSpaceLeft)
	}
	if err := fsys.alloc.MarkUsed(block); err != nil {
		return err
	}
	var empty DataBlock
	data, err := empty.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := fsys.dev.WriteBlock(block, data); err != nil {
		return err
	}

	rec := DirFileEntry{Size: 0, StartBlock: block}
	if err := encodeName(rec.Name[:], pk.Name); err != nil {
		return err
	}
	if err := encodeName(rec.Ext[:], pk.Ext); err != nil {
		return err
	}
	de.Files[de.NFiles] = rec
	de.NFiles++

	if err := fsys.writeDirEntry(dir.StartBlock, &de); err != nil {
		return err
	}
	log.Printf("cs1550fs: mknod %s -> block %d", path, block)
	return nil
}

// Rmdir, Unlink and Truncate are no-op successes: directory deletion, file
// deletion, and truncation beyond zero-size creation are explicitly out of
// scope.
func (fsys *FileSystem) Rmdir(path string) error {
	if _, err := ParsePath(path); err != nil {
		return err
	}
	return nil
}

func (fsys *FileSystem) Unlink(path string) error {
	if _, err := ParsePath(path); err != nil {
		return err
	}
	return nil
}

func (fsys *FileSystem) Truncate(path string, size uint64) error {
	if _, err := ParsePath(path); err != nil {
		return err
	}
	return nil
}
