package cs1550fs

import (
	"fmt"
	"strings"
)

// PathKind is the tagged variant this uses in place of a
// field-triple-plus-flags: a parsed path is Root, a directory (Dir only)
// or a file (Dir, Name and Ext). A path with a name but no extension
// ("/docs/readme") parses to Dir and Name only, which neither IsDirOnly
// nor IsFile accepts.
type PathKind struct {
	Root bool // true for "/"
	Dir  string
	Name string
	Ext  string
}

// IsDirOnly reports whether the path names a directory (Root or "/<dir>").
func (p PathKind) IsDirOnly() bool {
	return p.Root || (p.Dir != "" && p.Name == "" && p.Ext == "")
}

// IsFile reports whether the path fully names a file ("/<dir>/<name>.<ext>").
func (p PathKind) IsFile() bool {
	return p.Dir != "" && p.Name != "" && p.Ext != ""
}

// ParsePath splits path into directory, filename and extension fields,
// each bounded by MaxNameLen/MaxNameLen/MaxExtLen characters respectively.
// A path producing a longer field fails with ErrNameTooLong. A missing
// component parses as an empty string. This mirrors the original
// sscanf(path, "/%[^/]/%[^.].%s", directory, filename, extension) parse,
// but refuses overlong fields instead of truncating them, and splits the
// name from the extension at the last '.' rather than the first.
func ParsePath(path string) (PathKind, error) {
	if path == "/" {
		return PathKind{Root: true}, nil
	}
	if !strings.HasPrefix(path, "/") {
		return PathKind{}, fmt.Errorf("%w: path %q must be absolute", ErrInvalidArgument, path)
	}

	rest := path[1:]
	dir := rest
	var name, ext string

	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		dir = rest[:slash]
		tail := rest[slash+1:]
		if dot := strings.LastIndexByte(tail, '.'); dot >= 0 {
			name = tail[:dot]
			ext = tail[dot+1:]
		} else {
			name = tail
		}
	}

	if len(dir) > MaxNameLen || len(name) > MaxNameLen || len(ext) > MaxExtLen {
		return PathKind{}, fmt.Errorf("%w: %q", ErrNameTooLong, path)
	}

	return PathKind{Dir: dir, Name: name, Ext: ext}, nil
}
