/*
NAME
  yuv.go

DESCRIPTION
  yuv.go wraps gocv.io/x/gocv to convert between an avif.Image's planar
  YUV buffers and an 8-bit interleaved BGR gocv.Mat, the "RGB/YUV
  reformat" external collaborator spec.md §1 names but leaves out of
  scope for the core codec.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package reformat wraps the external RGB/YUV pixel reformatting and
// image scaling collaborators spec.md §1 names as out-of-scope for the
// core AVIF codec, the way container/flv/encoder.go wraps its own
// external transport concern in a thin, narrowly-scoped type.
package reformat

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ausocean/avif"
)

// ToMat converts im's colour planes (4:4:4/4:2:2/4:2:0/4:0:0, 8-bit only —
// higher depths must be downsampled by the caller first) into an 8-bit BGR
// gocv.Mat suitable for gocv's own colour-conversion and display paths.
func ToMat(im *avif.Image) (gocv.Mat, error) {
	if im.Depth != 8 {
		return gocv.Mat{}, avif.ErrUnsupportedDepth()
	}
	rgba := toRGBA(im)
	mat, err := gocv.ImageToMatRGB(rgba)
	if err != nil {
		return gocv.Mat{}, avif.ErrUnknownError("reformat: gocv conversion failed: %v", err)
	}
	return mat, nil
}

// FromMat converts an 8-bit BGR gocv.Mat back into a 4:4:4, full-range,
// owned-plane avif.Image.
func FromMat(mat gocv.Mat) (*avif.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, avif.ErrUnknownError("reformat: gocv ToImage failed: %v", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	y := newPlane(w, h, 8)
	cb := newPlane(w, h, 8)
	cr := newPlane(w, h, 8)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			r, g, b, _ := img.At(bounds.Min.X+i, bounds.Min.Y+j).RGBA()
			yy, u, v := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			y.Data[j*y.RowBytes+i] = yy
			cb.Data[j*cb.RowBytes+i] = u
			cr.Data[j*cr.RowBytes+i] = v
		}
	}
	return &avif.Image{
		Width: w, Height: h, Depth: 8,
		Format:   avif.FormatYUV444,
		YUVRange: avif.RangeFull,
		Planes:   [3]*avif.Plane{y, cb, cr},
	}, nil
}

func newPlane(w, h, depth int) *avif.Plane {
	return &avif.Plane{Width: w, Height: h, RowBytes: w, Depth: depth, Data: make([]byte, w*h), Ownership: avif.PlaneOwned}
}

// toRGBA upsamples im's (possibly subsampled) YUV planes to a full-size
// image.RGBA for gocv.ImageToMatRGB, applying nearest-neighbour chroma
// upsampling — adequate for the debug/inspection use this wrapper serves,
// not a quality-sensitive resampler.
func toRGBA(im *avif.Image) *image.RGBA {
	w, h := im.Width, im.Height
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	planes := im.YUVPlanes()
	if len(planes) == 1 {
		yp := planes[0]
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				v := yp.Data[j*yp.RowBytes+i]
				out.SetRGBA(i, j, color.RGBA{v, v, v, 255})
			}
		}
		return out
	}
	yp, cbp, crp := planes[0], planes[1], planes[2]
	shiftX, shiftY := im.Format.ChromaShift()
	for j := 0; j < h; j++ {
		cj := j >> shiftY
		if cj >= cbp.Height {
			cj = cbp.Height - 1
		}
		for i := 0; i < w; i++ {
			ci := i >> shiftX
			if ci >= cbp.Width {
				ci = cbp.Width - 1
			}
			yy := yp.Data[j*yp.RowBytes+i]
			cb := cbp.Data[cj*cbp.RowBytes+ci]
			cr := crp.Data[cj*crp.RowBytes+ci]
			r, g, b := color.YCbCrToRGB(yy, cb, cr)
			out.SetRGBA(i, j, color.RGBA{r, g, b, 255})
		}
	}
	return out
}
