package cs1550fs

import "fmt"

// locateFile resolves path down to its containing DirectoryEntry, the
// index of the file's record within it, and that directory's start block.
// Shared by Read and Write; Write mutates the file record in place.
func (fsys *FileSystem) locateFile(pk PathKind) (dirStart int64, de DirectoryEntry, idx int, err error) {
	if !pk.IsFile() {
		err = fmt.Errorf("%w: path does not name a file", ErrInvalidArgument)
		return
	}

	dir, ok := fsys.findDir(pk.Dir)
	if !ok {
		err = fmt.Errorf("%w: directory %q", ErrNotFound, pk.Dir)
		return
	}
	dirStart = dir.StartBlock

	de, err = fsys.readDirEntry(dirStart)
	if err != nil {
		return
	}

	idx, ok = findFile(&de, pk.Name, pk.Ext)
	if !ok {
		err = fmt.Errorf("%w: file %q.%q", ErrNotFound, pk.Name, pk.Ext)
		return
	}
	return
}

// offsetToChainPos translates a logical file offset into a chain position
// k (how many nNextBlock hops from nStartBlock) and an in-block-payload
// remainder r. The remainder is taken modulo MaxDataInBlock, the
// payload-only size, not modulo BlockSize.
func offsetToChainPos(offset uint64) (k int, r int) {
	return int(offset / MaxDataInBlock), int(offset % MaxDataInBlock)
}

// walkChain follows nNextBlock from start to the block holding offset,
// returning that block's index and the in-block remainder to start
// reading/writing at. Running out of chain before reaching offset is
// normally a malformed-image condition.
//
// extend relaxes that rule for the one case Write needs: offset landing
// exactly on a block boundary one hop past the last block currently in
// the chain (fsize itself a multiple of MaxDataInBlock, offset == fsize).
// That next block has not been allocated yet, so walkChain stops at the
// last existing block instead and reports r == MaxDataInBlock, letting
// the caller see a full block and take its extend-the-chain branch.
// Read never hits this case — it short-circuits to an empty result
// before walking once offset == fsize — so it always calls with
// extend == false.
func (fsys *FileSystem) walkChain(start int64, offset uint64, extend bool) (int64, int, error) {
	k, r := offsetToChainPos(offset)
	cur := start
	for i := 0; i < k; i++ {
		data, err := fsys.dev.ReadBlock(cur)
		if err != nil {
			return 0, 0, err
		}
		var b DataBlock
		if err := b.UnmarshalBinary(data); err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if b.NextBlock == 0 {
			if extend && i == k-1 && r == 0 {
				return cur, MaxDataInBlock, nil
			}
			return 0, 0, fmt.Errorf("%w: chain ended before offset", ErrIO)
		}
		cur = b.NextBlock
	}
	return cur, r, nil
}

// Read implements read(path, size, offset).
func (fsys *FileSystem) Read(path string, size int, offset uint64) ([]byte, error) {
	pk, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	_, de, idx, err := fsys.locateFile(pk)
	if err != nil {
		return nil, err
	}
	file := de.Files[idx]

	if offset > file.Size {
		return nil, fmt.Errorf("%w: offset %d beyond size %d", ErrFileTooLarge, offset, file.Size)
	}

	want := int(file.Size - offset)
	if size < want {
		want = size
	}
	if want <= 0 {
		return []byte{}, nil
	}

	cur, r, err := fsys.walkChain(file.StartBlock, offset, false)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, want)
	for len(out) < want {
		data, err := fsys.dev.ReadBlock(cur)
		if err != nil {
			return nil, err
		}
		var b DataBlock
		if err := b.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}

		chunk := b.Data[r:]
		need := want - len(out)
		if len(chunk) > need {
			chunk = chunk[:need]
		}
		out = append(out, chunk...)
		r = 0

		if len(out) >= want {
			break
		}
		if b.NextBlock == 0 {
			break // end of chain reached before the requested length
		}
		cur = b.NextBlock
	}

	return out, nil
}

// Write implements write(path, buf, size, offset).
func (fsys *FileSystem) Write(path string, buf []byte, offset uint64) (int, error) {
	pk, err := ParsePath(path)
	if err != nil {
		return 0, err
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	dirStart, de, idx, err := fsys.locateFile(pk)
	if err != nil {
		return 0, err
	}
	file := &de.Files[idx]

	if offset > file.Size {
		return 0, fmt.Errorf("%w: offset %d beyond size %d", ErrFileTooLarge, offset, file.Size)
	}
	if len(buf) == 0 {
		return 0, nil
	}

	cur, r, err := fsys.walkChain(file.StartBlock, offset, true)
	if err != nil {
		return 0, err
	}

	written := 0
	for written < len(buf) {
		data, err := fsys.dev.ReadBlock(cur)
		if err != nil {
			return written, err
		}
		var b DataBlock
		if err := b.UnmarshalBinary(data); err != nil {
			return written, fmt.Errorf("%w: %v", ErrIO, err)
		}

		space := MaxDataInBlock - r
		chunk := buf[written:]
		if len(chunk) > space {
			chunk = chunk[:space]
		}
		copy(b.Data[r:], chunk)
		r = 0
		written += len(chunk)
		if end := offset + uint64(written); end > file.Size {
			file.Size = end
		}

		done := written >= len(buf)
		next := b.NextBlock

		// more bytes remain and the chain doesn't reach far enough yet:
		// extend it with a freshly allocated block.
		if !done && b.NextBlock == 0 {
			allocated, ok := fsys.alloc.FindFree()
			if !ok {
				// out-of-space mid-write: persist what was copied into
				// this block plus what was written so far, and report
				// InvalidArgument.
				encoded, err := b.MarshalBinary()
				if err != nil {
					return written, fmt.Errorf("%w: %v", ErrIO, err)
				}
				if err := fsys.dev.WriteBlock(cur, encoded); err != nil {
					return written, err
				}
				if werr := fsys.writeDirEntry(dirStart, &de); werr != nil {
					return written, werr
				}
				return written, fmt.Errorf("%w: out of space while extending file", ErrInvalidArgument)
			}

			// initialize-then-mark: an interrupted write leaves a written
			// block unclaimed, recoverable by fsck.
			var freshBlock DataBlock
			freshData, err := freshBlock.MarshalBinary()
			if err != nil {
				return written, fmt.Errorf("%w: %v", ErrIO, err)
			}
			if err := fsys.dev.WriteBlock(allocated, freshData); err != nil {
				return written, err
			}
			if err := fsys.alloc.MarkUsed(allocated); err != nil {
				return written, err
			}

			b.NextBlock = allocated
			next = allocated
		}

		encoded, err := b.MarshalBinary()
		if err != nil {
			return written, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if err := fsys.dev.WriteBlock(cur, encoded); err != nil {
			return written, err
		}

		if done {
			break
		}
		cur = next
	}

	if err := fsys.writeDirEntry(dirStart, &de); err != nil {
		return written, err
	}
	return written, nil
}
