/*
NAME
  clap.go

DESCRIPTION
  clap.go converts a clean-aperture (clap) property's four fractional
  fields into an integer CropRect against a given image size and chroma
  subsampling.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package grid resolves the derived-image composition rules: grid tiling,
// clean-aperture cropping and sample-transform bit-depth extension.
package grid

import (
	"github.com/ausocean/avif"
)

// CropRect is a clean aperture resolved to whole-pixel image coordinates.
type CropRect struct {
	X, Y          uint32
	Width, Height uint32
}

// isValid enforces the non-empty, in-bounds and chroma-alignment rules a
// resolved crop rect must satisfy: 4:2:0 requires both x and y even, 4:2:2
// requires x even.
func (r CropRect) isValid(imageWidth, imageHeight uint32, format avif.PixelFormat) bool {
	if r.Width == 0 || r.Height == 0 {
		return false
	}
	if uint64(r.X)+uint64(r.Width) > uint64(imageWidth) || uint64(r.Y)+uint64(r.Height) > uint64(imageHeight) {
		return false
	}
	switch format {
	case avif.FormatYUV420:
		return r.X%2 == 0 && r.Y%2 == 0
	case avif.FormatYUV422:
		return r.X%2 == 0
	default:
		return true
	}
}

// CropRectFromClap resolves clap against an image of the given size and
// pixel format, centering the aperture on the image plus its offset. It
// fails if any field is malformed (negative, non-integer width/height, zero
// denominator), if the resulting origin is not a whole non-negative pixel,
// or if the rect is empty, out of bounds or not aligned to the format's
// chroma subsampling.
func CropRectFromClap(clap avif.CleanApertureBox, imageWidth, imageHeight uint32, format avif.PixelFormat) (CropRect, error) {
	if clap.Width.D == 0 || clap.Height.D == 0 || clap.HorizOff.D == 0 || clap.VertOff.D == 0 {
		return CropRect{}, avif.ErrInvalidArgument("clean aperture has a zero denominator")
	}
	if clap.Width.IsNegative() || clap.Height.IsNegative() {
		return CropRect{}, avif.ErrInvalidArgument("clean aperture width/height is negative")
	}
	if !clap.Width.IsInteger() || !clap.Height.IsInteger() {
		return CropRect{}, avif.ErrInvalidArgument("clean aperture width/height is not an integer")
	}

	clapWidth, err := clap.Width.Uint32()
	if err != nil {
		return CropRect{}, err
	}
	clapHeight, err := clap.Height.Uint32()
	if err != nil {
		return CropRect{}, err
	}

	half := func(v uint32) avif.Fraction { return avif.Fraction{N: int32(v), D: 2} }

	cropX, err := half(imageWidth).Add(clap.HorizOff)
	if err != nil {
		return CropRect{}, err
	}
	cropX, err = cropX.Sub(half(clapWidth))
	if err != nil {
		return CropRect{}, err
	}
	cropY, err := half(imageHeight).Add(clap.VertOff)
	if err != nil {
		return CropRect{}, err
	}
	cropY, err = cropY.Sub(half(clapHeight))
	if err != nil {
		return CropRect{}, err
	}

	if !cropX.IsInteger() || !cropY.IsInteger() || cropX.IsNegative() || cropY.IsNegative() {
		return CropRect{}, avif.ErrInvalidArgument("clean aperture resolves to a non-integer or negative origin")
	}

	x, err := cropX.Uint32()
	if err != nil {
		return CropRect{}, err
	}
	y, err := cropY.Uint32()
	if err != nil {
		return CropRect{}, err
	}

	rect := CropRect{X: x, Y: y, Width: clapWidth, Height: clapHeight}
	if !rect.isValid(imageWidth, imageHeight, format) {
		return CropRect{}, avif.ErrInvalidArgument("clean aperture rect is out of bounds or misaligned for %v", format)
	}
	return rect, nil
}
