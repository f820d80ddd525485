/*
NAME
  parse_test.go

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

package bmff

import (
	"testing"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// buildMinimalAvif assembles a single-image ftyp+meta+mdat buffer with one
// av01 color item: 12x8 pixels, 8-bit 4:2:0, no alpha.
func buildMinimalAvif(t *testing.T) []byte {
	t.Helper()
	w := bitio.NewWriter()

	must(t, w.StartBox("ftyp"))
	w.Write([]byte("avif"))
	w.WriteU32(0)
	w.Write([]byte("avifmif1miaf"))
	must(t, w.FinishBox())

	must(t, w.StartBox("meta"))
	must(t, w.StartFullBox("hdlr", 0, 0))
	w.WriteU32(0)
	w.Write([]byte("pict"))
	w.Write(make([]byte, 12))
	w.WriteCString("")
	must(t, w.FinishBox())

	must(t, w.StartFullBox("pitm", 0, 0))
	w.WriteU16(1)
	must(t, w.FinishBox())

	must(t, w.StartFullBox("iinf", 0, 0))
	w.WriteU16(1)
	must(t, w.StartFullBox("infe", 2, 0))
	w.WriteU16(1)
	w.WriteU16(0)
	w.Write([]byte("av01"))
	w.WriteCString("")
	must(t, w.FinishBox())
	must(t, w.FinishBox())

	must(t, w.StartFullBox("iloc", 0, 0))
	w.WriteU8(0x44) // offset_size=4, length_size=4
	w.WriteU8(0x00) // base_offset_size=0, index_size=0
	w.WriteU16(1)   // item_count
	w.WriteU16(1)   // item_id
	w.WriteU16(0)   // data_reference_index
	w.WriteU16(1)   // extent_count
	mdatOffsetPatch := w.Len()
	w.WriteU32(0) // extent_offset, patched once mdat is placed
	w.WriteU32(6) // extent_length
	must(t, w.FinishBox())

	must(t, w.StartBox("iprp"))
	must(t, w.StartBox("ipco"))

	must(t, w.StartFullBox("ispe", 0, 0))
	w.WriteU32(12)
	w.WriteU32(8)
	must(t, w.FinishBox())

	must(t, w.StartBox("av1C"))
	w.WriteU8(0x81)
	w.WriteU8(0x00)
	w.WriteU8(0x0c) // chroma_subsampling_x=1, y=1 -> 4:2:0
	must(t, w.FinishBox())

	must(t, w.FinishBox()) // ipco

	must(t, w.StartFullBox("ipma", 0, 0))
	w.WriteU32(1) // entry_count
	w.WriteU16(1) // item_id
	w.WriteU8(2)  // association_count
	w.WriteU8(1)  // ispe, index 1, not essential
	w.WriteU8(0x82) // av1C, index 2, essential
	must(t, w.FinishBox())

	must(t, w.FinishBox()) // iprp
	must(t, w.FinishBox()) // meta

	must(t, w.StartBox("mdat"))
	mdatBodyOffset := w.Len()
	w.Write([]byte{1, 2, 3, 4, 5, 6})
	must(t, w.FinishBox())

	buf := w.Bytes()
	buf[mdatOffsetPatch] = byte(mdatBodyOffset >> 24)
	buf[mdatOffsetPatch+1] = byte(mdatBodyOffset >> 16)
	buf[mdatOffsetPatch+2] = byte(mdatBodyOffset >> 8)
	buf[mdatOffsetPatch+3] = byte(mdatBodyOffset)

	return buf
}

func TestParseMinimalAvif(t *testing.T) {
	data := buildMinimalAvif(t)

	r := NewReader(Strict())
	ft, err := r.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ft.MajorBrand != "avif" {
		t.Errorf("MajorBrand = %q, want avif", ft.MajorBrand)
	}

	primary := r.Model.Primary()
	if primary == nil {
		t.Fatal("no primary item resolved")
	}
	if primary.ID != 1 {
		t.Errorf("primary.ID = %d, want 1", primary.ID)
	}
	if primary.Width != 12 || primary.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 12x8", primary.Width, primary.Height)
	}
	if primary.Config == nil {
		t.Fatal("expected av1C config resolved")
	}
	if primary.Config.ChromaSubsamplingX != 1 || primary.Config.ChromaSubsamplingY != 1 {
		t.Errorf("chroma subsampling = %d,%d, want 4:2:0", primary.Config.ChromaSubsamplingX, primary.Config.ChromaSubsamplingY)
	}
	if len(primary.Extents) != 1 {
		t.Fatalf("len(Extents) = %d, want 1", len(primary.Extents))
	}

	raw, err := r.ItemData(data, primary)
	if err != nil {
		t.Fatalf("ItemData: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6}
	if string(raw) != string(want) {
		t.Errorf("ItemData = %v, want %v", raw, want)
	}
}

func TestParseRejectsUnrecognizedBrand(t *testing.T) {
	w := bitio.NewWriter()
	must(t, w.StartBox("ftyp"))
	w.Write([]byte("zzzz"))
	w.WriteU32(0)
	must(t, w.FinishBox())

	r := NewReader(Strict())
	if _, err := r.Parse(w.Bytes()); avif.KindOf(err) != avif.KindInvalidFtyp {
		t.Errorf("Parse with unrecognized brand: got %v, want KindInvalidFtyp", err)
	}
}
