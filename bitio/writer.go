/*
NAME
  writer.go

DESCRIPTION
  writer.go provides Writer, an accumulating byte buffer with nested
  length-prefixed box tracking (start_box/finish_box), FullBox headers, a
  write-slice-dedupe helper for reusing identical tiled sample data, and
  arbitrary-offset patch writes for back-patching extent tables.

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

package bitio

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// boxMark records where a box's 4-byte size field must be patched once its
// body is known, grounded on container/mts/psi's setSectionLen/UpdateCrc
// back-patch idiom (iloc back-patching generalizes the same trick).
type boxMark struct {
	headerOffset int
	boxType      string
}

// Writer accumulates bytes and tracks in-flight boxes for length patching.
type Writer struct {
	buf   bytes.Buffer
	stack []boxMark
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer. Valid only once every StartBox has
// a matching FinishBox.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// WriteU8 appends one byte.
func (w *Writer) WriteU8(v uint8) { w.buf.WriteByte(v) }

// WriteU16 appends a big-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// WriteU24 appends a big-endian 24-bit unsigned integer.
func (w *Writer) WriteU24(v uint32) {
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

// WriteU32 appends a big-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteU64 appends a big-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteUxx appends the low n (1..8) bytes of v, big-endian.
func (w *Writer) WriteUxx(v uint64, n int) error {
	if n < 1 || n > 8 {
		return errors.Errorf("bitio: WriteUxx: invalid width %d", n)
	}
	for i := n - 1; i >= 0; i-- {
		w.buf.WriteByte(byte(v >> (8 * uint(i))))
	}
	return nil
}

// Write appends raw bytes verbatim.
func (w *Writer) Write(p []byte) { w.buf.Write(p) }

// WriteCString appends a zero-terminated string.
func (w *Writer) WriteCString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// StartBox reserves an 8-byte header (size+type) and pushes a patch site
// onto the box stack.
func (w *Writer) StartBox(boxType string) error {
	if len(boxType) != 4 {
		return errors.Errorf("bitio: box type %q is not 4 characters", boxType)
	}
	w.stack = append(w.stack, boxMark{headerOffset: w.buf.Len(), boxType: boxType})
	w.WriteU32(0) // size, patched in FinishBox.
	w.buf.WriteString(boxType)
	return nil
}

// StartFullBox is StartBox plus the FullBox (version, flags) header.
func (w *Writer) StartFullBox(boxType string, version uint8, flags uint32) error {
	if err := w.StartBox(boxType); err != nil {
		return err
	}
	w.WriteU8(version)
	w.WriteU24(flags)
	return nil
}

// FinishBox patches the most recently started box's size field with the
// number of bytes written since StartBox, including the header.
func (w *Writer) FinishBox() error {
	if len(w.stack) == 0 {
		return errors.New("bitio: FinishBox with no matching StartBox")
	}
	mark := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	size := uint32(w.buf.Len() - mark.headerOffset)
	w.PatchU32(mark.headerOffset, size)
	return nil
}

// PatchU32 overwrites 4 bytes at offset with a big-endian uint32, used to
// back-patch box sizes and iloc extent offsets once the final layout is
// known.
func (w *Writer) PatchU32(offset int, v uint32) {
	b := w.buf.Bytes()
	binary.BigEndian.PutUint32(b[offset:offset+4], v)
}

// PatchU64 is PatchU32 for an 8-byte field (co64-style 64-bit offsets).
func (w *Writer) PatchU64(offset int, v uint64) {
	b := w.buf.Bytes()
	binary.BigEndian.PutUint64(b[offset:offset+8], v)
}

// Dedupe scans the bytes written after boundary for a byte-identical
// previous occurrence of data, returning its offset and true if found.
// Used by the mdat packer to reuse identical tiled sample bytes instead of
// writing duplicate chunks.
func (w *Writer) Dedupe(boundary int, data []byte) (offset int, found bool) {
	buf := w.buf.Bytes()
	if boundary < 0 || boundary > len(buf) {
		return 0, false
	}
	hay := buf[boundary:]
	idx := bytes.Index(hay, data)
	if idx < 0 {
		return 0, false
	}
	return boundary + idx, true
}
