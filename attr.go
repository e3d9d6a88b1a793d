package cs1550fs

// Unix mode bits for the two fixed attribute shapes this filesystem ever
// returns: directories are always S_IFDIR|0755, regular files are always
// S_IFREG|0666. Permission bits beyond these two fixed modes
// are out of scope.
const (
	S_IFDIR = 0x4000
	S_IFREG = 0x8000

	DirMode  = S_IFDIR | 0755
	FileMode = S_IFREG | 0666
)

// Attr is the attribute set returned by Getattr, translated by the bridge
// into a fuse.Attr.
type Attr struct {
	Mode  uint32
	Nlink uint32
	Size  uint64
}

// DirAttr returns the fixed attributes of "/" and of any top-level
// directory.
func DirAttr() Attr {
	return Attr{Mode: DirMode, Nlink: 2}
}

// FileAttr returns the fixed attributes of a regular file of the given size.
func FileAttr(size uint64) Attr {
	return Attr{Mode: FileMode, Nlink: 1, Size: size}
}
