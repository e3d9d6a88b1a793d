package cs1550fs_test

import (
	"bytes"
	"testing"

	"github.com/WGrantKelly/cs1550fs"
)

func TestRootRoundTrip(t *testing.T) {
	var r cs1550fs.Root
	r.NDirectories = 2
	r.Directories[0].StartBlock = 6
	r.Directories[1].StartBlock = 7
	copy(r.Directories[0].Name[:], "docs")
	copy(r.Directories[1].Name[:], "bin")

	data, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) != cs1550fs.BlockSize {
		t.Fatalf("marshaled root is %d bytes, want %d", len(data), cs1550fs.BlockSize)
	}

	var got cs1550fs.Root
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, r)
	}

	data2, err := got.MarshalBinary()
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(data, data2) {
		t.Fatalf("re-marshaled bytes differ from original")
	}
}

func TestDirectoryEntryRoundTrip(t *testing.T) {
	var de cs1550fs.DirectoryEntry
	de.NFiles = 1
	de.Files[0].Size = 1234
	de.Files[0].StartBlock = 42
	copy(de.Files[0].Name[:], "readme")
	copy(de.Files[0].Ext[:], "txt")

	data, err := de.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) != cs1550fs.BlockSize {
		t.Fatalf("marshaled directory entry is %d bytes, want %d", len(data), cs1550fs.BlockSize)
	}

	var got cs1550fs.DirectoryEntry
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != de {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, de)
	}
}

func TestDataBlockRoundTrip(t *testing.T) {
	var b cs1550fs.DataBlock
	b.NextBlock = 99
	copy(b.Data[:], bytes.Repeat([]byte("A"), len(b.Data)))

	data, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) != cs1550fs.BlockSize {
		t.Fatalf("marshaled data block is %d bytes, want %d", len(data), cs1550fs.BlockSize)
	}

	var got cs1550fs.DataBlock
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != b {
		t.Fatalf("round trip mismatch")
	}
}

func TestDataBlockZeroValueEndsChain(t *testing.T) {
	var b cs1550fs.DataBlock
	data, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got cs1550fs.DataBlock
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.NextBlock != 0 {
		t.Fatalf("zero-value data block should decode with NextBlock 0, got %d", got.NextBlock)
	}
}
