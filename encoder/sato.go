/*
NAME
  sato.go

DESCRIPTION
  sato.go splits a 16-bit image into the two reduced-depth images the
  8b8b/12b4b bit-depth-extension recipes encode as AV1 payloads, the
  encode-side counterpart to grid.Expression.Apply's reconstruction.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package encoder

import (
	"encoding/binary"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/grid"
)

// satoJob carries the hidden auxiliary image and its encoded sample for
// one finished BDE-recipe encode, alongside the expression reconstructing
// the original 16-bit samples from it and the (already separately
// encoded) base image.
type satoJob struct {
	auxImage   *avif.Image
	auxConfig  avif.Av1Config
	auxSample  []byte
	expression grid.Expression
}

// resolveRecipe turns RecipeAuto into a concrete choice: 12b4b for a
// 16-bit source, which keeps more precision in the base layer, and
// RecipeNone for any other depth. Auto never picks 8b8b.
func resolveRecipe(r Recipe, depth int) Recipe {
	if r != RecipeAuto {
		return r
	}
	if depth == 16 {
		return Recipe12b4b
	}
	return RecipeNone
}

// splitBDE splits img's 16-bit planes into a reduced-depth base image
// (depth 8 for the 8b8b recipe, 12 for 12b4b) and an 8-bit auxiliary image
// carrying the remaining low-order bits, plus the expression that
// recombines them.
func splitBDE(img *avif.Image, recipe Recipe) (base, aux *avif.Image, expr grid.Expression, err error) {
	if img.Depth != 16 {
		return nil, nil, grid.Expression{}, avif.ErrInvalidArgument("encoder: bit-depth-extension recipe requires a 16-bit source image")
	}

	baseDepth := 8
	if recipe == Recipe12b4b {
		baseDepth = 12
	}

	base = &avif.Image{
		Width: img.Width, Height: img.Height, Depth: baseDepth, Format: img.Format,
		YUVRange: img.YUVRange, ChromaSamplePosition: img.ChromaSamplePosition,
		NCLX: img.NCLX, ICC: img.ICC, Transform: img.Transform, CLLI: img.CLLI,
		AlphaPlane: img.AlphaPlane, AlphaPremultiplied: img.AlphaPremultiplied,
	}
	aux = &avif.Image{Width: img.Width, Height: img.Height, Depth: 8, Format: img.Format,
		YUVRange: avif.RangeFull, ChromaSamplePosition: img.ChromaSamplePosition}

	planes := img.YUVPlanes()
	for i, p := range planes {
		bp, ap := splitPlane16(p, recipe)
		base.Planes[i] = bp
		aux.Planes[i] = ap
	}

	switch recipe {
	case Recipe8b8b:
		expr = grid.BitDepthExtension8b8bRecipe()
	case Recipe12b4b:
		expr = grid.BitDepthExtension12b4bRecipe()
	default:
		return nil, nil, grid.Expression{}, avif.ErrInvalidArgument("encoder: unsupported bit-depth-extension recipe")
	}
	return base, aux, expr, nil
}

// splitPlane16 splits one little-endian 16-bit plane into a reduced-depth
// base plane (8 or 12 bits, stored the same way the rest of this codebase
// stores sub-16-bit depths: one byte per sample for 8-bit, two bytes
// little-endian otherwise) and an 8-bit auxiliary plane.
func splitPlane16(p *avif.Plane, recipe Recipe) (base, aux *avif.Plane) {
	n := p.Width * p.Height
	auxData := make([]byte, n)

	switch recipe {
	case Recipe8b8b:
		baseData := make([]byte, n)
		idx := 0
		for row := 0; row < p.Height; row++ {
			for col := 0; col < p.Width; col++ {
				v := binary.LittleEndian.Uint16(p.Data[row*p.RowBytes+col*2:])
				baseData[idx] = byte(v >> 8)
				auxData[idx] = byte(v & 0xff)
				idx++
			}
		}
		base = &avif.Plane{Width: p.Width, Height: p.Height, RowBytes: p.Width, Depth: 8, Data: baseData, Ownership: avif.PlaneOwned}
	default: // Recipe12b4b.
		baseData := make([]byte, n*2)
		idx := 0
		for row := 0; row < p.Height; row++ {
			for col := 0; col < p.Width; col++ {
				v := binary.LittleEndian.Uint16(p.Data[row*p.RowBytes+col*2:])
				top12 := (v >> 4) & 0xfff
				binary.LittleEndian.PutUint16(baseData[idx*2:], top12)
				auxData[idx] = byte((v & 0xf) << 4)
				idx++
			}
		}
		base = &avif.Plane{Width: p.Width, Height: p.Height, RowBytes: p.Width * 2, Depth: 12, Data: baseData, Ownership: avif.PlaneOwned}
	}
	aux = &avif.Plane{Width: p.Width, Height: p.Height, RowBytes: p.Width, Depth: 8, Data: auxData, Ownership: avif.PlaneOwned}
	return base, aux
}
