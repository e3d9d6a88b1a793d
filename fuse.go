package cs1550fs

import (
	"context"
	"log"
	"path"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// node is the FUSE bridge: it adapts go-fuse v2's high-level fs.Inode
// callbacks onto FileSystem's Directory Service and File I/O Engine
// operations, the way inode_fuse.go adapts squashfs's *Inode onto the
// same library's callbacks. Because this namespace is always exactly two
// levels deep, a node just remembers the absolute path it represents and
// recomputes children's paths by concatenation — there is no need for the
// parent/name bookkeeping a general-purpose path-based filesystem needs.
type node struct {
	fs.Inode
	fsys *FileSystem
	path string
}

var (
	_ fs.NodeGetattrer = (*node)(nil)
	_ fs.NodeLookuper  = (*node)(nil)
	_ fs.NodeReaddirer = (*node)(nil)
	_ fs.NodeMkdirer   = (*node)(nil)
	_ fs.NodeMknoder   = (*node)(nil)
	_ fs.NodeRmdirer   = (*node)(nil)
	_ fs.NodeUnlinker  = (*node)(nil)
	_ fs.NodeOpener    = (*node)(nil)
	_ fs.NodeReader    = (*node)(nil)
	_ fs.NodeWriter    = (*node)(nil)
	_ fs.NodeFlusher   = (*node)(nil)
	_ fs.NodeSetattrer = (*node)(nil)
)

// NewRootNode returns the root fs.InodeEmbedder for fs.Mount to serve fsys
// through.
func NewRootNode(fsys *FileSystem) fs.InodeEmbedder {
	return &node{fsys: fsys, path: "/"}
}

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return path.Join(parent, name)
}

func fillAttr(out *fuse.Attr, a Attr) {
	out.Mode = a.Mode
	out.Nlink = a.Nlink
	out.Size = a.Size
}

func (n *node) newChild(ctx context.Context, childPath string, a Attr) *fs.Inode {
	child := &node{fsys: n.fsys, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: a.Mode & syscall.S_IFMT})
}

// Getattr implements the getattr operation.
func (n *node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	a, err := n.fsys.Getattr(n.path)
	if err != nil {
		return ToErrno(err)
	}
	fillAttr(&out.Attr, a)
	return 0
}

// Lookup resolves a child name under this node.
func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	cp := childPath(n.path, name)
	a, err := n.fsys.Getattr(cp)
	if err != nil {
		return nil, ToErrno(err)
	}
	fillAttr(&out.Attr, a)
	return n.newChild(ctx, cp, a), 0
}

// Readdir implements the readdir operation.
func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.fsys.Readdir(n.path)
	if err != nil {
		return nil, ToErrno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		mode := uint32(S_IFDIR)
		if n.path != "/" && name != "." && name != ".." {
			mode = S_IFREG
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return fs.NewListDirStream(entries), 0
}

// Mkdir implements the mkdir operation.
func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	cp := childPath(n.path, name)
	if err := n.fsys.Mkdir(cp); err != nil {
		return nil, ToErrno(err)
	}
	a := DirAttr()
	fillAttr(&out.Attr, a)
	return n.newChild(ctx, cp, a), 0
}

// Mknod implements the mknod operation (mode and dev are
// ignored, as in the original).
func (n *node) Mknod(ctx context.Context, name string, mode, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	cp := childPath(n.path, name)
	if err := n.fsys.Mknod(cp); err != nil {
		return nil, ToErrno(err)
	}
	a := FileAttr(0)
	fillAttr(&out.Attr, a)
	return n.newChild(ctx, cp, a), 0
}

// Rmdir, Unlink and Setattr(truncate) are no-op successes: see FileSystem's
// equivalents for why.
func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return ToErrno(n.fsys.Rmdir(childPath(n.path, name)))
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return ToErrno(n.fsys.Unlink(childPath(n.path, name)))
}

func (n *node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := n.fsys.Truncate(n.path, size); err != nil {
			return ToErrno(err)
		}
	}
	a, err := n.fsys.Getattr(n.path)
	if err != nil {
		return ToErrno(err)
	}
	fillAttr(&out.Attr, a)
	return 0
}

// Open always succeeds; no file handle state is needed since Read/Write
// address the file by path.
func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, 0
}

// Read implements the read operation.
func (n *node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.fsys.Read(n.path, len(dest), uint64(off))
	if err != nil {
		return nil, ToErrno(err)
	}
	return fuse.ReadResultData(data), 0
}

// Write implements the write operation.
func (n *node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.fsys.Write(n.path, data, uint64(off))
	if err != nil {
		log.Printf("cs1550fs: write %s at %d: %v", n.path, off, err)
		return uint32(written), ToErrno(err)
	}
	return uint32(written), 0
}

// Flush is a no-op success, as in the original.
func (n *node) Flush(ctx context.Context, f fs.FileHandle) syscall.Errno {
	return 0
}
