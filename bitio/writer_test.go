/*
NAME
  writer_test.go

DESCRIPTION
  See Readme.md

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bitio

import (
	"bytes"
	"testing"
)

func TestStartFinishBoxPatchesSize(t *testing.T) {
	w := NewWriter()
	if err := w.StartBox("ftyp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Write([]byte("avifavifmif1"))
	if err := w.FinishBox(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := w.Bytes()
	wantLen := 8 + len("avifavifmif1")
	if len(got) != wantLen {
		t.Fatalf("len(got) = %d, want %d", len(got), wantLen)
	}
	size := uint32(got[0])<<24 | uint32(got[1])<<16 | uint32(got[2])<<8 | uint32(got[3])
	if int(size) != wantLen {
		t.Errorf("patched size = %d, want %d", size, wantLen)
	}
	if string(got[4:8]) != "ftyp" {
		t.Errorf("box type = %q, want ftyp", got[4:8])
	}
}

func TestNestedBoxes(t *testing.T) {
	w := NewWriter()
	must(t, w.StartBox("meta"))
	must(t, w.StartBox("pitm"))
	w.WriteU16(1)
	must(t, w.FinishBox())
	must(t, w.FinishBox())

	got := w.Bytes()
	outerSize := uint32(got[0])<<24 | uint32(got[1])<<16 | uint32(got[2])<<8 | uint32(got[3])
	if int(outerSize) != len(got) {
		t.Errorf("outer size = %d, want %d", outerSize, len(got))
	}
	innerSize := uint32(got[8])<<24 | uint32(got[9])<<16 | uint32(got[10])<<8 | uint32(got[11])
	if innerSize != 10 {
		t.Errorf("inner size = %d, want 10", innerSize)
	}
}

func TestFinishBoxWithoutStartFails(t *testing.T) {
	w := NewWriter()
	if err := w.FinishBox(); err == nil {
		t.Error("expected error finishing box with no matching start")
	}
}

func TestDedupeFindsIdenticalPriorChunk(t *testing.T) {
	w := NewWriter()
	boundary := w.Len()
	chunk := []byte{1, 2, 3, 4}
	w.Write(chunk)
	w.Write([]byte{9, 9})
	w.Write(chunk)

	offset, found := w.Dedupe(boundary, chunk)
	if !found {
		t.Fatal("expected to find identical chunk")
	}
	if !bytes.Equal(w.Bytes()[offset:offset+len(chunk)], chunk) {
		t.Errorf("dedupe offset %d does not point at identical chunk", offset)
	}
	if offset != boundary {
		t.Errorf("dedupe offset = %d, want first occurrence at %d", offset, boundary)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
