package cs1550fs

import (
	"fmt"
	"os"
)

// BlockDevice owns the backing image file and supplies byte-addressed
// fixed-size block read/write. All accesses are absolute byte seeks
// (idx * BlockSize) against the image; the handle is kept open for the
// lifetime of the device rather than reopened per access; externally
// observable behavior matches a naive per-access-open implementation.
type BlockDevice struct {
	f *os.File
}

// OpenBlockDevice opens an existing backing image in read-write binary mode.
func OpenBlockDevice(path string) (*BlockDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open backing image: %v", ErrIO, err)
	}
	return &BlockDevice{f: f}, nil
}

// Close releases the backing image handle.
func (d *BlockDevice) Close() error {
	return d.f.Close()
}

// ReadBlock reads the single 512-byte block at idx.
func (d *BlockDevice) ReadBlock(idx int64) ([]byte, error) {
	buf := make([]byte, BlockSize)
	if _, err := d.f.ReadAt(buf, idx*BlockSize); err != nil {
		return nil, fmt.Errorf("%w: read block %d: %v", ErrIO, idx, err)
	}
	return buf, nil
}

// WriteBlock writes a single 512-byte block at idx.
func (d *BlockDevice) WriteBlock(idx int64, data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("%w: write block %d: expected %d bytes, got %d", ErrIO, idx, BlockSize, len(data))
	}
	if _, err := d.f.WriteAt(data, idx*BlockSize); err != nil {
		return fmt.Errorf("%w: write block %d: %v", ErrIO, idx, err)
	}
	return nil
}

// ReadAllocTable reads the 4-block (2048-byte) AllocationTable region.
func (d *BlockDevice) ReadAllocTable() ([]byte, error) {
	buf := make([]byte, AllocTableSize)
	if _, err := d.f.ReadAt(buf, AllocTableStart*BlockSize); err != nil {
		return nil, fmt.Errorf("%w: read allocation table: %v", ErrIO, err)
	}
	return buf, nil
}

// WriteAllocTable writes back the entire 4-block AllocationTable region.
func (d *BlockDevice) WriteAllocTable(data []byte) error {
	if len(data) != AllocTableSize {
		return fmt.Errorf("%w: write allocation table: expected %d bytes, got %d", ErrIO, AllocTableSize, len(data))
	}
	if _, err := d.f.WriteAt(data, AllocTableStart*BlockSize); err != nil {
		return fmt.Errorf("%w: write allocation table: %v", ErrIO, err)
	}
	return nil
}
