/*
NAME
  grid_test.go

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

package grid

import "testing"

func TestDecodeGridShort(t *testing.T) {
	// version=0, flags=0, rows_minus_one=1, cols_minus_one=1, width=256, height=128.
	payload := []byte{0x00, 0x00, 0x01, 0x01, 0x01, 0x00, 0x00, 0x80}
	g, err := DecodeGrid(payload)
	if err != nil {
		t.Fatalf("DecodeGrid: %v", err)
	}
	want := Grid{Rows: 2, Columns: 2, OutputWidth: 256, OutputHeight: 128}
	if g != want {
		t.Errorf("DecodeGrid() = %+v, want %+v", g, want)
	}
}

func TestDecodeGridExtended(t *testing.T) {
	// version=0, flags=1 (field_size), rows_minus_one=0, cols_minus_one=3,
	// width=0x00010000, height=0x00000200.
	payload := []byte{
		0x00, 0x01, 0x00, 0x03,
		0x00, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x02, 0x00,
	}
	g, err := DecodeGrid(payload)
	if err != nil {
		t.Fatalf("DecodeGrid: %v", err)
	}
	want := Grid{Rows: 1, Columns: 4, OutputWidth: 0x00010000, OutputHeight: 0x00000200}
	if g != want {
		t.Errorf("DecodeGrid() = %+v, want %+v", g, want)
	}
}

func TestDecodeGridRejectsUnsupportedVersion(t *testing.T) {
	payload := []byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x80}
	if _, err := DecodeGrid(payload); err == nil {
		t.Error("expected an error for an unsupported grid version")
	}
}

func TestDecodeGridRejectsTruncated(t *testing.T) {
	if _, err := DecodeGrid([]byte{0x00, 0x00, 0x00}); err == nil {
		t.Error("expected an error for a truncated grid header")
	}
}

func TestResolvePlanRowMajorOrder(t *testing.T) {
	g := Grid{Rows: 2, Columns: 3, OutputWidth: 300, OutputHeight: 200}
	widths := []int{100, 100, 100, 100, 100, 100}
	heights := []int{100, 100, 100, 100, 100, 100}

	plan, err := ResolvePlan(g, widths, heights)
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	if plan.CellWidth != 100 || plan.CellHeight != 100 {
		t.Fatalf("plan cell size = %dx%d, want 100x100", plan.CellWidth, plan.CellHeight)
	}

	want := []CellPlacement{
		{ItemIndex: 0, X: 0, Y: 0},
		{ItemIndex: 1, X: 100, Y: 0},
		{ItemIndex: 2, X: 200, Y: 0},
		{ItemIndex: 3, X: 0, Y: 100},
		{ItemIndex: 4, X: 100, Y: 100},
		{ItemIndex: 5, X: 200, Y: 100},
	}
	if len(plan.Cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(plan.Cells), len(want))
	}
	for i, c := range want {
		if plan.Cells[i] != c {
			t.Errorf("cell %d = %+v, want %+v", i, plan.Cells[i], c)
		}
	}
}

func TestResolvePlanRejectsCellCountMismatch(t *testing.T) {
	g := Grid{Rows: 2, Columns: 2, OutputWidth: 200, OutputHeight: 200}
	_, err := ResolvePlan(g, []int{100, 100, 100}, []int{100, 100, 100})
	if err == nil {
		t.Error("expected an error for a cell count mismatch")
	}
}

func TestResolvePlanRejectsNonUniformTileSize(t *testing.T) {
	// The source accepts a smaller last tile; this codec rejects it.
	g := Grid{Rows: 1, Columns: 2, OutputWidth: 150, OutputHeight: 100}
	_, err := ResolvePlan(g, []int{100, 50}, []int{100, 100})
	if err == nil {
		t.Error("expected an error for a non-uniform tile size")
	}
}

func TestResolvePlanRejectsUndersizedCoverage(t *testing.T) {
	g := Grid{Rows: 2, Columns: 2, OutputWidth: 300, OutputHeight: 300}
	_, err := ResolvePlan(g, []int{100, 100, 100, 100}, []int{100, 100, 100, 100})
	if err == nil {
		t.Error("expected an error when tiled cells do not cover the declared output dimensions")
	}
}
