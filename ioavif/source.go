/*
NAME
  source.go

DESCRIPTION
  source.go provides Source, a narrow byte-source contract generalized from
  device.AVDevice's "configurable thing you read media from" shape to "byte
  range you can read from", plus FileSource and MemSource implementations.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ioavif provides the byte-source abstraction the decoder pulls
// from: files, in-memory buffers, or a caller-supplied implementation, all
// satisfying the same narrow Source contract.
package ioavif

import (
	"io"
	"os"

	"github.com/ausocean/avif"
)

// Source is a byte-range source: files, memory buffers, or a
// caller-supplied callback all implement it identically. Persistent
// reports whether previously-returned slices remain valid for the life of
// the Source (letting callers avoid copying).
type Source interface {
	// Read returns up to size bytes starting at offset. A short read that
	// is not yet an error (e.g. streaming input still filling in) should
	// return avif.ErrWaitingOnIO so the caller can retry.
	Read(offset, size uint64) ([]byte, error)

	// SizeHint returns the total size in bytes, or 0 if unknown.
	SizeHint() uint64

	// Persistent reports whether slices returned by Read remain valid for
	// the lifetime of the Source.
	Persistent() bool
}

// FileSource is a Source backed by an *os.File, read lazily.
type FileSource struct {
	f    *os.File
	size uint64
}

// NewFileSource opens path and returns a Source over its contents.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, avif.ErrIOError()
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, avif.ErrIOError()
	}
	return &FileSource{f: f, size: uint64(fi.Size())}, nil
}

// Read implements Source.
func (s *FileSource) Read(offset, size uint64) ([]byte, error) {
	if offset+size > s.size {
		return nil, avif.ErrTruncatedData()
	}
	buf := make([]byte, size)
	n, err := s.f.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, avif.ErrIOError()
	}
	return buf[:n], nil
}

// SizeHint implements Source.
func (s *FileSource) SizeHint() uint64 { return s.size }

// Persistent implements Source; FileSource always allocates a fresh slice
// per Read, so returned slices are independently valid forever.
func (s *FileSource) Persistent() bool { return true }

// Close releases the underlying file handle.
func (s *FileSource) Close() error { return s.f.Close() }

// MemSource is a Source over an in-memory byte slice the caller retains
// ownership of; returned slices alias it directly.
type MemSource struct {
	buf []byte
}

// NewMemSource returns a Source over buf. buf must not be modified for the
// lifetime of any decoder built from this source.
func NewMemSource(buf []byte) *MemSource {
	return &MemSource{buf: buf}
}

// Read implements Source.
func (s *MemSource) Read(offset, size uint64) ([]byte, error) {
	if offset > uint64(len(s.buf)) {
		return nil, avif.ErrTruncatedData()
	}
	end := offset + size
	if end > uint64(len(s.buf)) {
		return nil, avif.ErrTruncatedData()
	}
	return s.buf[offset:end], nil
}

// SizeHint implements Source.
func (s *MemSource) SizeHint() uint64 { return uint64(len(s.buf)) }

// Persistent implements Source; slices alias the caller's buffer, which is
// only valid as long as the caller keeps it alive — report that
// conservatively as persistent, since MemSource does not copy.
func (s *MemSource) Persistent() bool { return true }
