/*
NAME
  reader.go

DESCRIPTION
  reader.go provides ByteReader, a bounded cursor over an in-memory byte
  slice with big-endian fixed/variable-width integer reads, ULEB128
  decoding, zero-terminated string reads and sub-stream carving.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bitio provides the byte and bit stream primitives the bmff, grid,
// av1, mini and encoder packages build on: a bounds-checked byte cursor, an
// MSB-first bit reader, and a length-patching box writer.
package bitio

import (
	"github.com/pkg/errors"
)

// ErrOutOfBounds is wrapped into every bounds failure so callers can test
// for it with errors.Is.
var ErrOutOfBounds = errors.New("bitio: read past end of buffer")

// ByteReader is a cursor over a byte slice. It never re-slices or copies
// the backing array; sub-streams share the parent's memory.
type ByteReader struct {
	buf []byte
	off int
}

// NewByteReader returns a ByteReader positioned at the start of buf.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *ByteReader) Len() int { return len(r.buf) - r.off }

// Offset returns the current read offset from the start of buf.
func (r *ByteReader) Offset() int { return r.off }

// Bytes returns the full backing slice (for diagnostics; does not advance).
func (r *ByteReader) Bytes() []byte { return r.buf }

func (r *ByteReader) require(n int) error {
	if n < 0 || r.off+n > len(r.buf) {
		return errors.Wrapf(ErrOutOfBounds, "need %d bytes, have %d", n, r.Len())
	}
	return nil
}

// ReadU8 reads one byte.
func (r *ByteReader) ReadU8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadU16 reads a big-endian uint16.
func (r *ByteReader) ReadU16() (uint16, error) {
	v, err := r.ReadUxx(2)
	return uint16(v), err
}

// ReadU24 reads a big-endian 24-bit unsigned integer.
func (r *ByteReader) ReadU24() (uint32, error) {
	v, err := r.ReadUxx(3)
	return uint32(v), err
}

// ReadU32 reads a big-endian uint32.
func (r *ByteReader) ReadU32() (uint32, error) {
	v, err := r.ReadUxx(4)
	return uint32(v), err
}

// ReadU64 reads a big-endian uint64.
func (r *ByteReader) ReadU64() (uint64, error) {
	return r.ReadUxx(8)
}

// ReadUxx reads an n-byte (1..8) big-endian unsigned integer into the
// low-order bits of a uint64.
func (r *ByteReader) ReadUxx(n int) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, errors.Errorf("bitio: ReadUxx: invalid width %d", n)
	}
	if err := r.require(n); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(r.buf[r.off+i])
	}
	r.off += n
	return v, nil
}

// ReadULEB128 reads a ULEB128-encoded integer (AV1 OBU framing uses this
// for leb128_size), capped at 8 continuation bytes and a 32-bit result.
func (r *ByteReader) ReadULEB128() (uint32, error) {
	var value uint64
	for i := 0; i < 8; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		value |= uint64(b&0x7f) << (i * 7)
		if b&0x80 == 0 {
			if value > 0xffffffff {
				return 0, errors.New("bitio: uleb128 value exceeds 32 bits")
			}
			return uint32(value), nil
		}
	}
	return 0, errors.New("bitio: uleb128 exceeds 8 continuation bytes")
}

// ReadCString reads a zero-terminated UTF-8 string, not including the
// terminator, advancing past it.
func (r *ByteReader) ReadCString() (string, error) {
	start := r.off
	for {
		b, err := r.ReadU8()
		if err != nil {
			return "", errors.Wrap(err, "bitio: unterminated string")
		}
		if b == 0 {
			return string(r.buf[start : r.off-1]), nil
		}
	}
}

// ReadBytes returns the next n bytes without copying, advancing past them.
func (r *ByteReader) ReadBytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Skip advances the cursor n bytes without returning them.
func (r *ByteReader) Skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// SubStream carves out an independent ByteReader over the next n bytes of
// the parent, advancing the parent past them. Used to hand a box body to a
// nested parser without it being able to read beyond its own box.
func (r *ByteReader) SubStream(n int) (*ByteReader, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return NewByteReader(b), nil
}
