/*
NAME
  obu_test.go

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

package av1

import "testing"

// obuHeaderByte builds a one-byte OBU header: forbidden=0, the given
// type, no extension, has_size_field=1, reserved=0.
func obuHeaderByte(typ uint8) byte {
	return (typ & 0xf) << 3 | 0x2
}

func TestScanSplitsMultipleOBUs(t *testing.T) {
	var data []byte
	// Temporal delimiter: type 2, size 0.
	data = append(data, obuHeaderByte(ObuTemporalDelimiter), 0x00)
	// Sequence header: type 1, size 3, payload {0xAA, 0xBB, 0xCC}.
	data = append(data, obuHeaderByte(ObuSequenceHeader), 0x03, 0xAA, 0xBB, 0xCC)

	units, err := Scan(data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	if units[0].Type != ObuTemporalDelimiter || len(units[0].Payload) != 0 {
		t.Errorf("unit 0 = %+v, want empty temporal delimiter", units[0])
	}
	if units[1].Type != ObuSequenceHeader {
		t.Errorf("unit 1 type = %d, want %d", units[1].Type, ObuSequenceHeader)
	}
	if string(units[1].Payload) != "\xaa\xbb\xcc" {
		t.Errorf("unit 1 payload = %x, want aabbcc", units[1].Payload)
	}
}

func TestScanLastOBUWithoutSizeField(t *testing.T) {
	header := (uint8(ObuFrame) & 0xf) << 3 // has_size_field=0
	data := append([]byte{header}, 0x01, 0x02, 0x03)

	units, err := Scan(data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if string(units[0].Payload) != "\x01\x02\x03" {
		t.Errorf("payload = %x, want 010203", units[0].Payload)
	}
}

func TestScanRejectsTruncatedSize(t *testing.T) {
	data := []byte{obuHeaderByte(ObuSequenceHeader), 0x05, 0x01} // declares 5, only 1 byte follows.
	if _, err := Scan(data); err == nil {
		t.Error("expected an error for a truncated OBU payload")
	}
}
