package cs1550fs

import "fmt"

// Allocator reads and writes the allocation bitmap, arbitrating which of
// the 2048 blocks are in use. Indices 0-5 (Root, the four AllocationTable
// blocks, and the reserved block 5) are never handed out: find_free scans
// starting at index 6, preserving the source's off-by-one bitmap
// convention rather than silently marking block 5 used.
type Allocator struct {
	dev   *BlockDevice
	table []byte // cached 2048-byte bitmap, one byte per block
}

// NewAllocator loads the allocation bitmap from dev.
func NewAllocator(dev *BlockDevice) (*Allocator, error) {
	table, err := dev.ReadAllocTable()
	if err != nil {
		return nil, err
	}
	return &Allocator{dev: dev, table: table}, nil
}

// FindFree scans the bitmap starting at index FirstUsableBlock and returns
// the first free slot, lowest index first. It does not mark the slot used.
func (a *Allocator) FindFree() (int64, bool) {
	for i := FirstUsableBlock; i < NumBlocks; i++ {
		if a.table[i] == 0 {
			return int64(i), true
		}
	}
	return 0, false
}

// IsUsed reports whether block idx is marked in-use.
func (a *Allocator) IsUsed(idx int64) bool {
	if idx < 0 || int(idx) >= len(a.table) {
		return false
	}
	return a.table[idx] != 0
}

// MarkUsed marks block idx in-use and persists the whole table.
func (a *Allocator) MarkUsed(idx int64) error {
	return a.setAndFlush(idx, 1)
}

// MarkFree marks block idx free and persists the whole table.
func (a *Allocator) MarkFree(idx int64) error {
	return a.setAndFlush(idx, 0)
}

func (a *Allocator) setAndFlush(idx int64, v byte) error {
	if idx < FirstUsableBlock || int(idx) >= len(a.table) {
		return fmt.Errorf("%w: block index %d out of the allocatable range", ErrIO, idx)
	}
	a.table[idx] = v
	return a.dev.WriteAllocTable(a.table)
}
