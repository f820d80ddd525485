/*
NAME
  codec.go

DESCRIPTION
  codec.go declares Decoder and Encoder, the narrow interfaces a real AV1
  codec back-end (or, for tests, a reference implementation) must satisfy
  to plug into the decoder/encoder orchestrators.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package codec declares the AV1 encode/decode back-end contract this
// repository plugs real or reference codecs into, plus a registry for
// selecting one by name.
package codec

import (
	"github.com/ausocean/avif"
)

// Config carries encode-time tuning a back-end may use; fields not
// understood by a given back-end are ignored.
type Config struct {
	Quality      int // 0..100, higher is better.
	Speed        int // 0..10, higher favours encode speed over ratio.
	Lossless     bool
	TileRowsLog2 int
	TileColsLog2 int
	Threads      int

	// Extra carries codec-specific options (the `c:`/`a:`/`g:`-prefixed
	// key=value pairs) verbatim, keyed without their category prefix.
	Extra map[string]string
}

// Decoder decodes one AV1 payload (an OBU stream, as stored in one sample
// or one item's extents) into an avif.Image for a given Category.
//
// A single Decoder instance is reused across an image sequence's frames;
// Initialize is called once before the first GetNextImage/GetNextImageGrid.
type Decoder interface {
	// Initialize prepares the decoder for a given operating point. Decoders
	// that support progressive/layered content honor allLayers.
	Initialize(operatingPoint uint8, allLayers bool) error

	// GetNextImage decodes payload (spatialID 0xFF meaning "no spatial
	// layer filtering") into image, publishing the planes relevant to
	// category (colour planes for CategoryColor/CategoryGainMap, the alpha
	// plane only for CategoryAlpha).
	GetNextImage(payload []byte, spatialID uint8, image *avif.Image, category avif.Category) error

	// GetNextImageGrid decodes one payload per grid cell (in row-major
	// order, matching grid.Plan.Cells) directly into the pre-sized
	// composite image, avoiding an intermediate per-cell allocation when
	// the back-end supports it.
	GetNextImageGrid(payloads [][]byte, columns, rows int, image *avif.Image, category avif.Category) error

	// Close releases any resources held by the decoder.
	Close() error
}

// Encoder encodes one avif.Image into an AV1 payload for a given Category.
type Encoder interface {
	// EncodeImage encodes image according to cfg and appends the resulting
	// OBU payload to the back-end's internal output queue; Finish drains
	// it. firstFrame reports whether this image starts a new coded frame
	// (always true outside of progressive/layered encoding).
	EncodeImage(image *avif.Image, category avif.Category, cfg Config, firstFrame bool) error

	// Finish flushes any buffered frames and returns the encoded payloads
	// in emission order.
	Finish() ([][]byte, error)
}

// Backend bundles constructors for one codec implementation's Decoder and
// Encoder halves; either may be nil if the implementation is one-directional.
type Backend struct {
	Name       string
	NewDecoder func() Decoder
	NewEncoder func() Encoder
}
