/*
NAME
  pixelformat.go

DESCRIPTION
  pixelformat.go enumerates the chroma subsampling / pixel layout tags an
  Image may carry.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avif

// PixelFormat names a plane layout. The Android-native tags (NV12, NV21,
// P010) are decode-time artefacts only: MediaCodec hands back planes in
// these layouts, but the encoder never authors them into a file.
type PixelFormat int

const (
	// FormatNone indicates the format has not been determined yet.
	FormatNone PixelFormat = iota
	// FormatYUV444 is full-resolution chroma.
	FormatYUV444
	// FormatYUV422 halves chroma horizontally.
	FormatYUV422
	// FormatYUV420 halves chroma both ways.
	FormatYUV420
	// FormatYUV400 is monochrome (no chroma planes).
	FormatYUV400
	// FormatAndroidNV12 is decode-only: interleaved VU 4:2:0.
	FormatAndroidNV12
	// FormatAndroidNV21 is decode-only: interleaved UV 4:2:0.
	FormatAndroidNV21
	// FormatAndroidP010 is decode-only: 10-bit interleaved 4:2:0.
	FormatAndroidP010
)

// IsAndroidNative reports whether the format is one of the MediaCodec
// decode-time-only tags that must never be authored by the encoder.
func (f PixelFormat) IsAndroidNative() bool {
	switch f {
	case FormatAndroidNV12, FormatAndroidNV21, FormatAndroidP010:
		return true
	default:
		return false
	}
}

// ChromaShift returns the (horizontal, vertical) right-shift to apply to
// the luma plane's dimensions to obtain the chroma plane's dimensions.
func (f PixelFormat) ChromaShift() (x, y uint) {
	switch f {
	case FormatYUV420, FormatAndroidNV12, FormatAndroidNV21, FormatAndroidP010:
		return 1, 1
	case FormatYUV422:
		return 1, 0
	case FormatYUV444:
		return 0, 0
	case FormatYUV400:
		return 0, 0 // no chroma planes at all; shift is moot.
	default:
		return 0, 0
	}
}

// PlaneCount returns the number of planes (1 for monochrome, 3 otherwise;
// alpha is tracked independently of PixelFormat).
func (f PixelFormat) PlaneCount() int {
	if f == FormatYUV400 {
		return 1
	}
	return 3
}

// Range is the sample value range of an Image's planes.
type Range int

const (
	// RangeLimited is "studio" range (e.g. 16..235 for 8-bit luma).
	RangeLimited Range = iota
	// RangeFull uses the full representable range.
	RangeFull
)

// ChromaSamplePosition names where chroma samples sit relative to luma.
type ChromaSamplePosition int

const (
	ChromaSampleUnknown ChromaSamplePosition = iota
	ChromaSampleVertical
	ChromaSampleColocated
)

// NCLX is the CICP colour description (primaries, transfer, matrix) plus
// the full-range flag, as carried by a `colr`/`nclx` property.
type NCLX struct {
	ColourPrimaries         uint16
	TransferCharacteristics uint16
	MatrixCoefficients      uint16
	FullRange               bool
}

// ContentLightLevel is the `clli` property.
type ContentLightLevel struct {
	MaxCLL  uint16
	MaxPALL uint16
}
