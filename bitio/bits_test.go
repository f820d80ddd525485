/*
NAME
  bits_test.go

DESCRIPTION
  See Readme.md

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

import "testing"

// TestReadBitsSequence exercises the documented bitreader.go example:
// source {0x8f, 0xe3} = 1000 1111, 1110 0011.
func TestReadBitsSequence(t *testing.T) {
	br := NewBitReader([]byte{0x8f, 0xe3})

	v, err := br.ReadBits(4)
	if err != nil || v != 0x8 {
		t.Fatalf("ReadBits(4) = %#x, %v, want 0x8, nil", v, err)
	}
	v, err = br.ReadBits(2)
	if err != nil || v != 0x3 {
		t.Fatalf("ReadBits(2) = %#x, %v, want 0x3, nil", v, err)
	}
	v, err = br.ReadBits(4)
	if err != nil || v != 0xf {
		t.Fatalf("ReadBits(4) = %#x, %v, want 0xf, nil", v, err)
	}
	v, err = br.ReadBits(6)
	if err != nil || v != 0x23 {
		t.Fatalf("ReadBits(6) = %#x, %v, want 0x23, nil", v, err)
	}
}

func TestPadRejectsNonzeroSkippedBits(t *testing.T) {
	// 0b1010_0001: after reading 4 bits (1010), 4 bits remain (0001) which
	// are nonzero, so Pad must fail.
	br := NewBitReader([]byte{0xa1})
	if _, err := br.ReadBits(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := br.Pad(); err == nil {
		t.Error("expected error padding over nonzero bits")
	}
}

func TestPadAcceptsZeroSkippedBits(t *testing.T) {
	// 0b1010_0000: after reading 4 bits (1010), the remaining 4 are zero.
	br := NewBitReader([]byte{0xa0})
	if _, err := br.ReadBits(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := br.Pad(); err != nil {
		t.Fatalf("unexpected error padding over zero bits: %v", err)
	}
	if !br.ByteAligned() {
		t.Error("expected reader to be byte aligned after Pad")
	}
}

func TestReadBitsPastEndFails(t *testing.T) {
	br := NewBitReader([]byte{0xff})
	if _, err := br.ReadBits(16); err == nil {
		t.Error("expected error reading more bits than available")
	}
}
