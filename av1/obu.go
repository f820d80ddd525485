/*
NAME
  obu.go

DESCRIPTION
  obu.go scans an AV1 bitstream (as stored in a sample or an av1C config
  OBU list) into its constituent Open Bitstream Units, reading each
  unit's header and ULEB128-coded size.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package av1 scans and parses the AV1 bitstream elements this codec needs
// to cross-validate against the container's av1C codec configuration: OBU
// framing and the sequence header's profile/dimension/color fields.
package av1

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// OBU type codes (AV1 §6.2.2).
const (
	ObuSequenceHeader       = 1
	ObuTemporalDelimiter    = 2
	ObuFrameHeader          = 3
	ObuTileGroup            = 4
	ObuMetadata             = 5
	ObuFrame                = 6
	ObuRedundantFrameHeader = 7
	ObuTileList             = 8
	ObuPadding              = 15
)

// Unit is one parsed OBU: its type and the payload bytes following the
// header (excluding any extension byte).
type Unit struct {
	Type     uint8
	Temporal uint8
	Spatial  uint8
	HasExt   bool
	Payload  []byte
}

// Scan splits data into its sequence of OBUs. Each OBU must carry a size
// field except optionally the last, whose size is implied by the
// remaining buffer length.
func Scan(data []byte) ([]Unit, error) {
	r := bitio.NewByteReader(data)
	var units []Unit
	for r.Len() > 0 {
		u, err := readOBU(r)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func readOBU(r *bitio.ByteReader) (Unit, error) {
	headerByte, err := r.ReadU8()
	if err != nil {
		return Unit{}, avif.ErrBMFFParseFailed("truncated OBU header")
	}
	// obu_forbidden_bit(1) obu_type(4) obu_extension_flag(1) obu_has_size_field(1) obu_reserved_1bit(1)
	obuType := (headerByte >> 3) & 0xf
	extFlag := headerByte&0x4 != 0
	hasSize := headerByte&0x2 != 0

	var temporal, spatial uint8
	if extFlag {
		extByte, err := r.ReadU8()
		if err != nil {
			return Unit{}, avif.ErrBMFFParseFailed("truncated OBU extension header")
		}
		temporal = (extByte >> 5) & 0x7
		spatial = (extByte >> 3) & 0x3
	}

	var size int
	if hasSize {
		v, err := r.ReadULEB128()
		if err != nil {
			return Unit{}, avif.ErrBMFFParseFailed("truncated OBU size field")
		}
		size = int(v)
	} else {
		size = r.Len()
	}

	payload, err := r.ReadBytes(size)
	if err != nil {
		return Unit{}, avif.ErrBMFFParseFailed("OBU payload shorter than its declared size")
	}

	return Unit{Type: obuType, Temporal: temporal, Spatial: spatial, HasExt: extFlag, Payload: payload}, nil
}
