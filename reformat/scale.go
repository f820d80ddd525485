/*
NAME
  scale.go

DESCRIPTION
  scale.go wraps golang.org/x/image/draw to satisfy the "image scaling"
  external collaborator spec.md §1 names. Scale takes a fraction of the
  same form as encoder.MutableSettings' ScaleMode; the encoder does not
  call it, so ScaleMode does not resize encoded images.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package reformat

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ausocean/avif"
)

// Scale resizes im's colour (and, if present, alpha) planes by the given
// fraction using a high-quality (catmull-rom) resampler, returning a new,
// owned-plane Image. A fraction of 1/1 returns im unchanged.
func Scale(im *avif.Image, factor avif.Fraction) (*avif.Image, error) {
	if factor.D == 0 {
		return nil, avif.ErrInvalidArgument("reformat: scale denominator is zero")
	}
	if factor.N == int32(factor.D) {
		return im, nil
	}
	if factor.N <= 0 {
		return nil, avif.ErrInvalidArgument("reformat: scale factor must be positive")
	}
	newW := int(int64(im.Width) * int64(factor.N) / int64(factor.D))
	newH := int(int64(im.Height) * int64(factor.N) / int64(factor.D))
	if newW <= 0 || newH <= 0 {
		return nil, avif.ErrInvalidArgument("reformat: scaled dimensions are non-positive")
	}

	out := &avif.Image{
		Width: newW, Height: newH, Depth: im.Depth, Format: im.Format,
		YUVRange: im.YUVRange, ChromaSamplePosition: im.ChromaSamplePosition,
		NCLX: im.NCLX,
	}
	planes := im.YUVPlanes()
	for i, p := range planes {
		sw, sh := scaledPlaneDims(im, p, newW, newH)
		out.Planes[i] = scalePlane(p, sw, sh)
	}
	if im.AlphaPlane != nil {
		out.AlphaPlane = scalePlane(im.AlphaPlane, newW, newH)
		out.AlphaPremultiplied = im.AlphaPremultiplied
	}
	return out, nil
}

// scaledPlaneDims computes a chroma plane's target size by applying the
// same subsampling shift to the scaled luma dimensions, so 4:2:0 chroma
// scales in lock-step with luma instead of drifting by a rounding pixel.
func scaledPlaneDims(im *avif.Image, p *avif.Plane, newW, newH int) (int, int) {
	if p.Width == im.Width && p.Height == im.Height {
		return newW, newH
	}
	shiftX, shiftY := im.Format.ChromaShift()
	cw := newW >> shiftX
	ch := newH >> shiftY
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return cw, ch
}

func scalePlane(p *avif.Plane, newW, newH int) *avif.Plane {
	src := planeToGray(p)
	dst := image.NewGray(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	out := &avif.Plane{Width: newW, Height: newH, RowBytes: newW, Depth: p.Depth, Ownership: avif.PlaneOwned}
	out.Data = make([]byte, newW*newH)
	copy(out.Data, dst.Pix)
	return out
}

// planeToGray copies p's samples into a new 8-bit image.Gray,
// for feeding into x/image/draw's scaler. 16-bit planes are truncated to
// their high byte — Scale is a debug/preview aid, not a lossless path.
func planeToGray(p *avif.Plane) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	if p.Depth == 8 {
		for row := 0; row < p.Height; row++ {
			copy(g.Pix[row*g.Stride:row*g.Stride+p.Width], p.Data[row*p.RowBytes:row*p.RowBytes+p.Width])
		}
		return g
	}
	for row := 0; row < p.Height; row++ {
		for col := 0; col < p.Width; col++ {
			hi := p.Data[row*p.RowBytes+col*2+1]
			g.Pix[row*g.Stride+col] = hi
		}
	}
	return g
}
