/*
NAME
  grid.go

DESCRIPTION
  grid.go decodes a `grid` derived-item payload's bit-packed header and
  builds the resulting row-major tile composition plan.

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

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// Grid is a decoded `grid` item payload: its declared tile layout and
// overall output dimensions.
type Grid struct {
	Rows, Columns             int
	OutputWidth, OutputHeight uint32
}

// Plan is the resolved composition of a Grid against its dimg cell items:
// one CellPlacement per cell, row-major, plus the uniform cell size every
// cell must share.
type Plan struct {
	Grid                  Grid
	CellWidth, CellHeight int
	Cells                 []CellPlacement
}

// CellPlacement locates one dimg input item at its destination offset in
// the composed output plane.
type CellPlacement struct {
	ItemIndex int // index into the grid item's DimgInputs
	X, Y      int // top-left offset in the output plane
}

// DecodeGrid parses a `grid` item's inline payload.
func DecodeGrid(payload []byte) (Grid, error) {
	r := bitio.NewByteReader(payload)
	version, err := r.ReadU8()
	if err != nil {
		return Grid{}, avif.ErrInvalidImageGrid("truncated grid header")
	}
	if version != 0 {
		return Grid{}, avif.ErrInvalidImageGrid("unsupported grid version %d", version)
	}
	flags, err := r.ReadU8()
	if err != nil {
		return Grid{}, avif.ErrInvalidImageGrid("truncated grid header")
	}
	rowsMinusOne, err := r.ReadU8()
	if err != nil {
		return Grid{}, avif.ErrInvalidImageGrid("truncated grid header")
	}
	colsMinusOne, err := r.ReadU8()
	if err != nil {
		return Grid{}, avif.ErrInvalidImageGrid("truncated grid header")
	}

	var width, height uint32
	if flags&0x1 != 0 {
		width, err = r.ReadU32()
		if err != nil {
			return Grid{}, avif.ErrInvalidImageGrid("truncated extended grid header")
		}
		height, err = r.ReadU32()
		if err != nil {
			return Grid{}, avif.ErrInvalidImageGrid("truncated extended grid header")
		}
	} else {
		w16, err := r.ReadU16()
		if err != nil {
			return Grid{}, avif.ErrInvalidImageGrid("truncated grid header")
		}
		h16, err := r.ReadU16()
		if err != nil {
			return Grid{}, avif.ErrInvalidImageGrid("truncated grid header")
		}
		width, height = uint32(w16), uint32(h16)
	}

	return Grid{
		Rows:         int(rowsMinusOne) + 1,
		Columns:      int(colsMinusOne) + 1,
		OutputWidth:  width,
		OutputHeight: height,
	}, nil
}

// EncodeGrid writes g as a `grid` item's inline payload, choosing the
// extended (32-bit dimension) header form only when required.
func EncodeGrid(g Grid) ([]byte, error) {
	if g.Rows < 1 || g.Rows > 256 || g.Columns < 1 || g.Columns > 256 {
		return nil, avif.ErrInvalidImageGrid("grid rows/columns %d/%d out of range 1..256", g.Rows, g.Columns)
	}
	extended := g.OutputWidth > 0xffff || g.OutputHeight > 0xffff

	w := bitio.NewWriter()
	w.WriteU8(0) // version
	var flags uint8
	if extended {
		flags |= 0x1
	}
	w.WriteU8(flags)
	w.WriteU8(uint8(g.Rows - 1))
	w.WriteU8(uint8(g.Columns - 1))
	if extended {
		w.WriteU32(g.OutputWidth)
		w.WriteU32(g.OutputHeight)
	} else {
		w.WriteU16(uint16(g.OutputWidth))
		w.WriteU16(uint16(g.OutputHeight))
	}
	return w.Bytes(), nil
}

// ResolvePlan builds the row-major composition plan for g against its cell
// items' widths/heights, rejecting a cell count mismatch and, per the
// stricter rule this codec adopts, any cell whose size differs from the
// first cell's (the source's silent partial-last-tile acceptance is not
// carried forward).
func ResolvePlan(g Grid, cellWidths, cellHeights []int) (Plan, error) {
	wantCells := g.Rows * g.Columns
	if len(cellWidths) != wantCells || len(cellHeights) != wantCells {
		return Plan{}, avif.ErrInvalidImageGrid("grid declares %d cells, got %d", wantCells, len(cellWidths))
	}
	if wantCells == 0 {
		return Plan{}, avif.ErrInvalidImageGrid("grid has zero cells")
	}

	cellWidth, cellHeight := cellWidths[0], cellHeights[0]
	for i := range cellWidths {
		if cellWidths[i] != cellWidth || cellHeights[i] != cellHeight {
			return Plan{}, avif.ErrInvalidImageGrid("grid cell %d is %dx%d, want uniform %dx%d", i, cellWidths[i], cellHeights[i], cellWidth, cellHeight)
		}
	}
	if uint32(cellWidth*g.Columns) < g.OutputWidth || uint32(cellHeight*g.Rows) < g.OutputHeight {
		return Plan{}, avif.ErrInvalidImageGrid("tiled cells do not cover declared output dimensions %dx%d", g.OutputWidth, g.OutputHeight)
	}

	cells := make([]CellPlacement, 0, wantCells)
	idx := 0
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Columns; col++ {
			cells = append(cells, CellPlacement{
				ItemIndex: idx,
				X:         col * cellWidth,
				Y:         row * cellHeight,
			})
			idx++
		}
	}

	return Plan{Grid: g, CellWidth: cellWidth, CellHeight: cellHeight, Cells: cells}, nil
}
