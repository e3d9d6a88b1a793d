package cs1550fs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// On-disk geometry. The backing image is a fixed 1 MiB file of 2048
// consecutive 512-byte blocks: block 0 is Root, blocks 1-4 are the
// AllocationTable, block 5 is reserved-unused, and blocks 6-2047 hold
// directory entries and file data.
const (
	BlockSize = 512

	RootBlock        = 0
	AllocTableStart  = 1
	AllocTableBlocks = 4
	AllocTableSize   = AllocTableBlocks * BlockSize // 2048
	ReservedBlock    = 5
	FirstUsableBlock = 6
	NumBlocks        = 2048
)

// order is the on-disk byte order for every multi-byte field in the
// Layout Codec.
var order = binary.LittleEndian

// 8.3 filename limits.
const (
	MaxNameLen = 8
	MaxExtLen  = 3
)

// MaxDataInBlock is the payload region size of a DataBlock: the 8-byte
// nNextBlock header leaves BlockSize-8 bytes for data.
const MaxDataInBlock = BlockSize - 8

// RootDirEntry is one (dname, nStartBlock) record of the Root block.
type RootDirEntry struct {
	Name       [MaxNameLen + 1]byte // NUL-terminated, max 8 visible chars
	StartBlock int64
}

// rootEntrySize is the packed, unaligned size of one RootDirEntry record:
// 9 name bytes + 8 int64 bytes.
const rootEntrySize = (MaxNameLen + 1) + 8

// MaxDirsInRoot is the capacity of the Root block's directory array.
const MaxDirsInRoot = (BlockSize - 4) / rootEntrySize

// Root is block index 0: the table of top-level directories.
type Root struct {
	NDirectories int32
	Directories  [MaxDirsInRoot]RootDirEntry
}

// MarshalBinary encodes Root into its exact 512-byte on-disk form.
func (r *Root) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(BlockSize)

	if err := binary.Write(buf, order, r.NDirectories); err != nil {
		return nil, fmt.Errorf("encode root: %w", err)
	}
	for _, d := range r.Directories {
		buf.Write(d.Name[:])
		if err := binary.Write(buf, order, d.StartBlock); err != nil {
			return nil, fmt.Errorf("encode root directory entry: %w", err)
		}
	}

	out := buf.Bytes()
	if len(out) > BlockSize {
		return nil, fmt.Errorf("encode root: overflowed block (%d bytes)", len(out))
	}
	padded := make([]byte, BlockSize)
	copy(padded, out)
	return padded, nil
}

// UnmarshalBinary decodes a 512-byte block into Root.
func (r *Root) UnmarshalBinary(data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("decode root: expected %d bytes, got %d", BlockSize, len(data))
	}
	rd := bytes.NewReader(data)

	if err := binary.Read(rd, order, &r.NDirectories); err != nil {
		return fmt.Errorf("decode root: %w", err)
	}
	for i := range r.Directories {
		if _, err := rd.Read(r.Directories[i].Name[:]); err != nil {
			return fmt.Errorf("decode root directory name: %w", err)
		}
		if err := binary.Read(rd, order, &r.Directories[i].StartBlock); err != nil {
			return fmt.Errorf("decode root directory start block: %w", err)
		}
	}
	return nil
}

// DirFileEntry is one (fname, fext, fsize, nStartBlock) record of a
// DirectoryEntry block.
type DirFileEntry struct {
	Name       [MaxNameLen + 1]byte
	Ext        [MaxExtLen + 1]byte
	Size       uint64
	StartBlock int64
}

const dirEntrySize = (MaxNameLen + 1) + (MaxExtLen + 1) + 8 + 8

// MaxFilesInDir is the capacity of a DirectoryEntry block's file array.
const MaxFilesInDir = (BlockSize - 4) / dirEntrySize

// DirectoryEntry is one directory's file table, allocated at runtime.
type DirectoryEntry struct {
	NFiles int32
	Files  [MaxFilesInDir]DirFileEntry
}

// MarshalBinary encodes DirectoryEntry into its exact 512-byte on-disk form.
func (d *DirectoryEntry) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(BlockSize)

	if err := binary.Write(buf, order, d.NFiles); err != nil {
		return nil, fmt.Errorf("encode directory entry: %w", err)
	}
	for _, f := range d.Files {
		buf.Write(f.Name[:])
		buf.Write(f.Ext[:])
		if err := binary.Write(buf, order, f.Size); err != nil {
			return nil, fmt.Errorf("encode file size: %w", err)
		}
		if err := binary.Write(buf, order, f.StartBlock); err != nil {
			return nil, fmt.Errorf("encode file start block: %w", err)
		}
	}

	out := buf.Bytes()
	if len(out) > BlockSize {
		return nil, fmt.Errorf("encode directory entry: overflowed block (%d bytes)", len(out))
	}
	padded := make([]byte, BlockSize)
	copy(padded, out)
	return padded, nil
}

// UnmarshalBinary decodes a 512-byte block into DirectoryEntry.
func (d *DirectoryEntry) UnmarshalBinary(data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("decode directory entry: expected %d bytes, got %d", BlockSize, len(data))
	}
	rd := bytes.NewReader(data)

	if err := binary.Read(rd, order, &d.NFiles); err != nil {
		return fmt.Errorf("decode directory entry: %w", err)
	}
	for i := range d.Files {
		f := &d.Files[i]
		if _, err := rd.Read(f.Name[:]); err != nil {
			return fmt.Errorf("decode file name: %w", err)
		}
		if _, err := rd.Read(f.Ext[:]); err != nil {
			return fmt.Errorf("decode file ext: %w", err)
		}
		if err := binary.Read(rd, order, &f.Size); err != nil {
			return fmt.Errorf("decode file size: %w", err)
		}
		if err := binary.Read(rd, order, &f.StartBlock); err != nil {
			return fmt.Errorf("decode file start block: %w", err)
		}
	}
	return nil
}

// DataBlock is a file-chain block: an 8-byte next-pointer header followed
// by MaxDataInBlock payload bytes. NextBlock == 0 signals end-of-chain
// (index 0 is Root and therefore never a valid successor).
type DataBlock struct {
	NextBlock int64
	Data      [MaxDataInBlock]byte
}

// MarshalBinary encodes DataBlock into its exact 512-byte on-disk form.
func (b *DataBlock) MarshalBinary() ([]byte, error) {
	out := make([]byte, BlockSize)
	order.PutUint64(out[:8], uint64(b.NextBlock))
	copy(out[8:], b.Data[:])
	return out, nil
}

// UnmarshalBinary decodes a 512-byte block into DataBlock.
func (b *DataBlock) UnmarshalBinary(data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("decode data block: expected %d bytes, got %d", BlockSize, len(data))
	}
	b.NextBlock = int64(order.Uint64(data[:8]))
	copy(b.Data[:], data[8:])
	return nil
}

// encodeName truncates-never, writes a NUL-terminated name into a
// fixed-size array, erroring if it would not fit (see ErrNameTooLong at
// the path-parsing layer; this is the last-resort guard for internal
// callers that build records directly).
func encodeName(dst []byte, s string) error {
	if len(s) >= len(dst) {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrNameTooLong, s, len(dst)-1)
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
	return nil
}

// decodeName reads a NUL-terminated fixed-size name array back to a string.
func decodeName(src []byte) string {
	n := bytes.IndexByte(src, 0)
	if n < 0 {
		n = len(src)
	}
	return string(src[:n])
}
