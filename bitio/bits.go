/*
NAME
  bits.go

DESCRIPTION
  bits.go provides BitReader, an MSB-first bitfield reader over an
  in-memory buffer, used by the AV1 sequence-header parser and the mini
  box codec's bit-packed header.

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

	icza "github.com/icza/bitio"
	"github.com/pkg/errors"
)

// BitReader borrows bytes and tracks a bit offset, reading N bits MSB-first
// into a uint32 result. It wraps github.com/icza/bitio.Reader, which
// already accumulates bits MSB-first, so this type is mostly bookkeeping
// for byte alignment (Pad) and the bit-offset-within-byte tracking callers
// ask for.
type BitReader struct {
	r       *icza.Reader
	bitsRead int
}

// NewBitReader returns a BitReader positioned at the start of buf.
func NewBitReader(buf []byte) *BitReader {
	return &BitReader{r: icza.NewReader(bytes.NewReader(buf))}
}

// ReadBits reads n (1..32) bits, MSB-first, into the low-order bits of a
// uint32.
func (b *BitReader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, errors.Errorf("bitio: ReadBits: invalid width %d", n)
	}
	if n == 0 {
		return 0, nil
	}
	v, err := b.r.ReadBits(uint8(n))
	if err != nil {
		return 0, errors.Wrap(err, "bitio: bit read past end of buffer")
	}
	b.bitsRead += n
	return uint32(v), nil
}

// ReadBit reads a single bit as a bool.
func (b *BitReader) ReadBit() (bool, error) {
	v, err := b.ReadBits(1)
	return v != 0, err
}

// ReadFlag is an alias for ReadBit, named the way ISOBMFF flag fields read
// in AV1/ISOBMFF bitstream syntax (e.g. "unsigned int(1) high_bitdepth").
func (b *BitReader) ReadFlag() (bool, error) { return b.ReadBit() }

// Off returns the current bit offset within the current byte (0 means
// byte-aligned).
func (b *BitReader) Off() int { return b.bitsRead % 8 }

// ByteAligned reports whether the reader sits on a byte boundary.
func (b *BitReader) ByteAligned() bool { return b.Off() == 0 }

// BitsRead returns the total number of bits consumed so far.
func (b *BitReader) BitsRead() int { return b.bitsRead }

// Pad advances to the next byte boundary, failing if any skipped bits were
// set, enforcing the ISOBMFF "reserved bits must be zero" convention.
func (b *BitReader) Pad() error {
	rem := b.Off()
	if rem == 0 {
		return nil
	}
	n := 8 - rem
	v, err := b.ReadBits(n)
	if err != nil {
		return err
	}
	if v != 0 {
		return errors.New("bitio: nonzero padding bits")
	}
	return nil
}

// BitWriter accumulates MSB-first bitfields, used by the mini box encoder to
// emit the same bit-packed header BitReader parses. It wraps
// github.com/icza/bitio.Writer for the same reason BitReader wraps its
// Reader counterpart.
type BitWriter struct {
	buf         bytes.Buffer
	w           *icza.Writer
	bitsWritten int
}

// NewBitWriter returns an empty BitWriter.
func NewBitWriter() *BitWriter {
	bw := &BitWriter{}
	bw.w = icza.NewWriter(&bw.buf)
	return bw
}

// WriteBits writes the low n (1..32) bits of v, MSB-first.
func (b *BitWriter) WriteBits(v uint32, n int) error {
	if n < 0 || n > 32 {
		return errors.Errorf("bitio: WriteBits: invalid width %d", n)
	}
	if n == 0 {
		return nil
	}
	if err := b.w.WriteBits(uint64(v), uint8(n)); err != nil {
		return errors.Wrap(err, "bitio: bit write failed")
	}
	b.bitsWritten += n
	return nil
}

// WriteBit writes a single bit.
func (b *BitWriter) WriteBit(v bool) error {
	if v {
		return b.WriteBits(1, 1)
	}
	return b.WriteBits(0, 1)
}

// Pad writes zero bits up to the next byte boundary.
func (b *BitWriter) Pad() error {
	rem := b.bitsWritten % 8
	if rem == 0 {
		return nil
	}
	return b.WriteBits(0, 8-rem)
}

// Bytes flushes any partial trailing byte and returns the accumulated
// buffer. The BitWriter must not be used again afterwards.
func (b *BitWriter) Bytes() ([]byte, error) {
	if err := b.w.Close(); err != nil {
		return nil, errors.Wrap(err, "bitio: bit writer close failed")
	}
	return b.buf.Bytes(), nil
}
