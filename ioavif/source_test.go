/*
NAME
  source_test.go

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

package ioavif

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMemSourceReadInBounds(t *testing.T) {
	s := NewMemSource([]byte("hello world"))
	b, err := s.Read(6, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(b, []byte("world")) {
		t.Errorf("Read(6,5) = %q, want %q", b, "world")
	}
	if s.SizeHint() != 11 {
		t.Errorf("SizeHint() = %d, want 11", s.SizeHint())
	}
}

func TestMemSourceReadOutOfBounds(t *testing.T) {
	s := NewMemSource([]byte("short"))
	if _, err := s.Read(0, 100); err == nil {
		t.Error("expected error reading past end of buffer")
	}
}

func TestFileSourceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.bin")
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := os.WriteFile(path, want, 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	got, err := src.Read(2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want[2:6]) {
		t.Errorf("Read(2,4) = %v, want %v", got, want[2:6])
	}
	if src.SizeHint() != uint64(len(want)) {
		t.Errorf("SizeHint() = %d, want %d", src.SizeHint(), len(want))
	}
}
