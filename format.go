package cs1550fs

import (
	"fmt"
	"os"
)

// FormatImage creates a fresh zero-filled backing image of cfg.ImageSizeBlocks
// blocks, with Root persisted (nDirectories=0) and AllocationTable entries
// 0-4 (Root and the four AllocationTable blocks) marked used. Block 5 is
// reserved but deliberately left unmarked: the Allocator never hands it
// out regardless, since FindFree scans starting at FirstUsableBlock.
// FormatImage supplements the original: the original program assumed a
// pre-formatted ".disk" existed already (see original_source/cs1550.c),
// leaving image creation as an external precondition; a complete repo
// needs a way to produce that precondition.
func FormatImage(cfg Config) error {
	if cfg.ImageSizeBlocks < FirstUsableBlock {
		return fmt.Errorf("%w: image must hold at least %d blocks", ErrInvalidArgument, FirstUsableBlock)
	}

	f, err := os.OpenFile(cfg.ImagePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: create backing image: %v", ErrIO, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(cfg.ImageSizeBlocks) * BlockSize); err != nil {
		return fmt.Errorf("%w: size backing image: %v", ErrIO, err)
	}

	var root Root
	rootData, err := root.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if _, err := f.WriteAt(rootData, RootBlock*BlockSize); err != nil {
		return fmt.Errorf("%w: write root: %v", ErrIO, err)
	}

	table := make([]byte, AllocTableSize)
	for i := RootBlock; i < AllocTableStart+AllocTableBlocks; i++ {
		table[i] = 1
	}
	if _, err := f.WriteAt(table, AllocTableStart*BlockSize); err != nil {
		return fmt.Errorf("%w: write allocation table: %v", ErrIO, err)
	}

	return nil
}
