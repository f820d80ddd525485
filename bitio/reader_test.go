/*
NAME
  reader_test.go

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

import "testing"

func TestReadFixedWidthIntegers(t *testing.T) {
	r := NewByteReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	u8, err := r.ReadU8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("ReadU8() = %d, %v, want 0x01, nil", u8, err)
	}
	u16, err := r.ReadU16()
	if err != nil || u16 != 0x0203 {
		t.Fatalf("ReadU16() = %#x, %v, want 0x0203, nil", u16, err)
	}
	u24, err := r.ReadU24()
	if err != nil || u24 != 0x040506 {
		t.Fatalf("ReadU24() = %#x, %v, want 0x040506, nil", u24, err)
	}
	u8, err = r.ReadU8()
	if err != nil || u8 != 0x07 {
		t.Fatalf("ReadU8() = %#x, %v, want 0x07, nil", u8, err)
	}
	if _, err := r.ReadU16(); err == nil {
		t.Fatal("expected error reading past end of buffer")
	}
}

func TestReadUxx(t *testing.T) {
	r := NewByteReader([]byte{0xff, 0xff, 0xff})
	v, err := r.ReadUxx(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0xffffff {
		t.Errorf("ReadUxx(3) = %#x, want 0xffffff", v)
	}
}

func TestReadULEB128(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, c := range cases {
		r := NewByteReader(c.in)
		got, err := r.ReadULEB128()
		if err != nil {
			t.Fatalf("ReadULEB128(%v) unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ReadULEB128(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestReadULEB128TooLong(t *testing.T) {
	in := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewByteReader(in)
	if _, err := r.ReadULEB128(); err == nil {
		t.Error("expected error for uleb128 exceeding 8 continuation bytes")
	}
}

func TestReadCString(t *testing.T) {
	r := NewByteReader([]byte("hello\x00world"))
	s, err := r.ReadCString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "hello" {
		t.Errorf("ReadCString() = %q, want %q", s, "hello")
	}
	rest, err := r.ReadBytes(5)
	if err != nil || string(rest) != "world" {
		t.Errorf("ReadBytes(5) = %q, %v, want %q, nil", rest, err, "world")
	}
}

func TestSubStreamIsIndependentAndAdvancesParent(t *testing.T) {
	parent := NewByteReader([]byte{1, 2, 3, 4, 5, 6})
	sub, err := parent.SubStream(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parent.Offset() != 3 {
		t.Errorf("parent offset = %d, want 3", parent.Offset())
	}
	b, err := sub.ReadU8()
	if err != nil || b != 1 {
		t.Fatalf("sub.ReadU8() = %d, %v, want 1, nil", b, err)
	}
	if sub.Len() != 2 {
		t.Errorf("sub.Len() = %d, want 2", sub.Len())
	}
}
