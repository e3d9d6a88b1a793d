package cs1550fs

import (
	"io"
	"io/fs"
	"path"
	"time"
)

// FS adapts a *FileSystem to the standard io/fs.FS interface, the way the
// teacher's File/FileDir pair let an Inode be used as an io/fs.File: this
// lets tools (cs1550info's dump) walk and read the filesystem with fs.WalkDir/fs.ReadFile/fs.Glob instead of
// hand-rolling traversal.
type FS struct {
	fsys *FileSystem
}

// NewFS wraps fsys for io/fs.FS consumers.
func NewFS(fsys *FileSystem) *FS {
	return &FS{fsys: fsys}
}

var _ fs.FS = (*FS)(nil)
var _ fs.ReadDirFS = (*FS)(nil)
var _ fs.StatFS = (*FS)(nil)

// toVFSPath turns an io/fs-style name ("." or "dir" or "dir/name.ext")
// into the absolute form the Directory Service expects ("/", "/dir",
// "/dir/name.ext").
func toVFSPath(name string) string {
	if name == "." || name == "" {
		return "/"
	}
	return "/" + name
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	vp := toVFSPath(name)
	attr, err := f.fsys.Getattr(vp)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	base := path.Base(name)
	if attr.Mode&S_IFDIR == S_IFDIR {
		return &dirHandle{fsys: f.fsys, vfsPath: vp, name: base, attr: attr}, nil
	}
	return &fileHandle{fsys: f.fsys, vfsPath: vp, name: base, attr: attr}, nil
}

// ReadDir implements fs.ReadDirFS.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	dh, ok := file.(*dirHandle)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return dh.ReadDir(-1)
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	return file.Stat()
}

// fileHandle lets a regular file be used as an io/fs.File.
type fileHandle struct {
	fsys    *FileSystem
	vfsPath string
	name    string
	attr    Attr
	offset  int64
}

var _ fs.File = (*fileHandle)(nil)
var _ io.ReaderAt = (*fileHandle)(nil)

// Read reads the next chunk of the file, advancing the internal cursor.
func (h *fileHandle) Read(p []byte) (int, error) {
	data, err := h.fsys.Read(h.vfsPath, len(p), uint64(h.offset))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, data)
	h.offset += int64(n)
	return n, nil
}

// ReadAt reads from an arbitrary offset without disturbing the cursor.
func (h *fileHandle) ReadAt(p []byte, off int64) (int, error) {
	data, err := h.fsys.Read(h.vfsPath, len(p), uint64(off))
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Stat returns the file's fs.FileInfo.
func (h *fileHandle) Stat() (fs.FileInfo, error) {
	return &fileinfo{name: h.name, attr: h.attr}, nil
}

// Close does nothing: the underlying FileSystem has no per-handle state.
func (h *fileHandle) Close() error {
	return nil
}

// dirHandle lets a directory be used as an io/fs.ReadDirFile.
type dirHandle struct {
	fsys    *FileSystem
	vfsPath string
	name    string
	attr    Attr
	names   []string
	pos     int
}

var _ fs.ReadDirFile = (*dirHandle)(nil)

// Read on a directory is invalid, matching io/fs conventions.
func (d *dirHandle) Read(p []byte) (int, error) {
	return 0, fs.ErrInvalid
}

// Stat returns the directory's fs.FileInfo.
func (d *dirHandle) Stat() (fs.FileInfo, error) {
	return &fileinfo{name: d.name, attr: d.attr}, nil
}

// Close does nothing.
func (d *dirHandle) Close() error {
	return nil
}

// ReadDir lists up to n entries, skipping "." and "..".
func (d *dirHandle) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.names == nil {
		names, err := d.fsys.Readdir(d.vfsPath)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if name == "." || name == ".." {
				continue
			}
			d.names = append(d.names, name)
		}
	}

	var out []fs.DirEntry
	for d.pos < len(d.names) {
		name := d.names[d.pos]
		d.pos++

		childVFS := d.vfsPath
		if childVFS == "/" {
			childVFS += name
		} else {
			childVFS += "/" + name
		}
		attr, err := d.fsys.Getattr(childVFS)
		if err != nil {
			return out, err
		}
		out = append(out, &fileinfo{name: name, attr: attr})

		if n > 0 && len(out) >= n {
			return out, nil
		}
	}
	if n > 0 && len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// fileinfo implements fs.FileInfo and fs.DirEntry over a fixed Attr: this
// filesystem never tracks modification times, so ModTime returns the zero
// time. This format has no on-disk timestamp field to report.
type fileinfo struct {
	name string
	attr Attr
}

var _ fs.FileInfo = (*fileinfo)(nil)
var _ fs.DirEntry = (*fileinfo)(nil)

func (fi *fileinfo) Name() string       { return fi.name }
func (fi *fileinfo) Size() int64        { return int64(fi.attr.Size) }
func (fi *fileinfo) IsDir() bool        { return fi.attr.Mode&S_IFDIR == S_IFDIR }
func (fi *fileinfo) Sys() any           { return fi.attr }
func (fi *fileinfo) Type() fs.FileMode  { return fi.Mode().Type() }
func (fi *fileinfo) Info() (fs.FileInfo, error) {
	return fi, nil
}

func (fi *fileinfo) Mode() fs.FileMode {
	if fi.IsDir() {
		return fs.ModeDir | 0755
	}
	return 0666
}

// ModTime returns the zero time: this format has no on-disk timestamp
// field to report.
func (fi *fileinfo) ModTime() time.Time {
	return time.Time{}
}
