package cs1550fs

import "fmt"

// CheckReport is the result of a read-only consistency pass over a
// FileSystem, verifying the invariants this format states as "should always
// hold": every reachable block is in range and marked used in the
// allocation bitmap, no two directories/files share a block, and the
// bitmap agrees exactly with what a depth-first walk from Root reaches.
type CheckReport struct {
	Directories int
	Files       int
	BlocksUsed  int // bits set in the allocation bitmap from FirstUsableBlock up
	Reachable   int // blocks actually walked from Root
	Problems    []string
}

// OK reports whether the walk found no problems.
func (r *CheckReport) OK() bool {
	return len(r.Problems) == 0
}

func (r *CheckReport) problemf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Check walks every directory and file reachable from Root and cross-checks
// the result against the allocation bitmap. It never mutates the image: a
// read-only fsck, the diagnostic counterpart original_source/cs1550.c left
// to ad-hoc inspection of the raw image.
func (fsys *FileSystem) Check() *CheckReport {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	report := &CheckReport{}
	seen := make(map[int64]string) // block -> who claims it

	claim := func(block int64, owner string) {
		report.Reachable++
		if block < FirstUsableBlock || int(block) >= NumBlocks {
			report.problemf("%s: block %d out of range", owner, block)
			return
		}
		if prior, dup := seen[block]; dup {
			report.problemf("%s: block %d also claimed by %s", owner, block, prior)
			return
		}
		seen[block] = owner
		if !fsys.alloc.IsUsed(block) {
			report.problemf("%s: block %d not marked used in allocation table", owner, block)
		}
	}

	dirNames := make(map[string]bool)
	for i := int32(0); i < fsys.root.NDirectories; i++ {
		d := fsys.root.Directories[i]
		dname := decodeName(d.Name[:])
		report.Directories++

		if dirNames[dname] {
			report.problemf("directory %q: duplicate name in root", dname)
		}
		dirNames[dname] = true
		claim(d.StartBlock, fmt.Sprintf("directory %q", dname))

		de, err := fsys.readDirEntry(d.StartBlock)
		if err != nil {
			report.problemf("directory %q: %v", dname, err)
			continue
		}

		fileNames := make(map[string]bool)
		for j := int32(0); j < de.NFiles; j++ {
			f := de.Files[j]
			fname := decodeName(f.Name[:]) + "." + decodeName(f.Ext[:])
			owner := fmt.Sprintf("file %q/%q", dname, fname)
			report.Files++

			if fileNames[fname] {
				report.problemf("%s: duplicate name in directory", owner)
			}
			fileNames[fname] = true

			chainLen, err := fsys.checkChain(f.StartBlock, owner, claim)
			if err != nil {
				report.problemf("%s: %v", owner, err)
				continue
			}
			if f.Size > uint64(chainLen)*MaxDataInBlock {
				report.problemf("%s: fsize %d exceeds chain capacity %d", owner, f.Size, chainLen*MaxDataInBlock)
			}
		}
	}

	for i := FirstUsableBlock; i < NumBlocks; i++ {
		if fsys.alloc.IsUsed(int64(i)) {
			report.BlocksUsed++
			if _, ok := seen[int64(i)]; !ok {
				report.problemf("block %d marked used but unreachable from root", i)
			}
		}
	}

	return report
}

// checkChain walks a file's block chain, claiming each block and returning
// the chain length. Unlike walkChain, it does not stop at a target offset:
// it walks to the end, so Check can validate the whole chain.
func (fsys *FileSystem) checkChain(start int64, owner string, claim func(int64, string)) (int, error) {
	cur := start
	length := 0
	for {
		claim(cur, owner)
		data, err := fsys.dev.ReadBlock(cur)
		if err != nil {
			return length, err
		}
		var b DataBlock
		if err := b.UnmarshalBinary(data); err != nil {
			return length, fmt.Errorf("%w: %v", ErrIO, err)
		}
		length++
		if b.NextBlock == 0 {
			return length, nil
		}
		cur = b.NextBlock
	}
}
