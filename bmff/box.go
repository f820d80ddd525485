/*
NAME
  box.go

DESCRIPTION
  box.go provides the generic ISOBMFF box header reader/dispatcher this
  package's meta.go and track.go build the item model and track list on
  top of.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bmff implements the ISOBMFF/MIAF box parser: ftyp brand
// validation, the HEIF item model (meta/iloc/iinf/iref/iprp/grpl/idat) and
// movie-track parsing (moov/stbl/tref/elst) for image sequences.
package bmff

import (
	"github.com/pkg/errors"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// box is a single decoded box header plus a sub-reader scoped to its body.
type box struct {
	typ  string
	body *bitio.ByteReader
}

// boxType dispatch table, grounded on the parsers map pattern in
// other_examples' jdeng-goheif bmff.go.
type boxParser func(r *Reader, b box) error

// Strictness enumerates which lenient parse paths are accepted. With every
// field true, every leniency is disabled.
type Strictness struct {
	RequirePixi      bool
	RequireValidClap bool
	RequireAlphaIspe bool
}

// Strict returns a Strictness with every leniency disabled.
func Strict() Strictness {
	return Strictness{RequirePixi: true, RequireValidClap: true, RequireAlphaIspe: true}
}

// Reader walks a top-level box tree, building an ItemModel and track list.
type Reader struct {
	strict Strictness

	Model  *avif.ItemModel
	Tracks []*Track

	// idatPool is the contents of the most recently seen idat box, used to
	// resolve ConstructionIdat extents.
	idatPool []byte
}

// NewReader returns a Reader configured with the given strictness policy.
func NewReader(s Strictness) *Reader {
	return &Reader{strict: s, Model: avif.NewItemModel()}
}

// readBoxHeader reads one box's 32-bit size and 4-char type, resolving the
// 64-bit largesize extension (size==1) and box-extends-to-EOF (size==0).
// It returns the box's body scoped to exactly its declared length.
func readBoxHeader(r *bitio.ByteReader) (box, error) {
	startOff := r.Offset()
	size32, err := r.ReadU32()
	if err != nil {
		return box{}, errors.Wrap(err, "bmff: failed to read box size")
	}
	typBytes, err := r.ReadBytes(4)
	if err != nil {
		return box{}, errors.Wrap(err, "bmff: failed to read box type")
	}
	typ := string(typBytes)

	headerLen := 8
	size := uint64(size32)
	if size32 == 1 {
		size64, err := r.ReadU64()
		if err != nil {
			return box{}, errors.Wrap(err, "bmff: failed to read box largesize")
		}
		size = size64
		headerLen = 16
	} else if size32 == 0 {
		size = uint64(r.Len()) + uint64(headerLen) // remainder of buffer, to end.
	}
	if size < uint64(headerLen) {
		return box{}, avif.ErrBMFFParseFailed("box %q declares size %d smaller than its own header", typ, size)
	}
	bodyLen := int(size) - headerLen
	if bodyLen < 0 || bodyLen > r.Len() {
		return box{}, avif.ErrBMFFParseFailed("box %q at offset %d declares size %d past end of buffer", typ, startOff, size)
	}
	body, err := r.SubStream(bodyLen)
	if err != nil {
		return box{}, errors.Wrap(err, "bmff: failed to slice box body")
	}
	return box{typ: typ, body: body}, nil
}

// readFullBoxHeader reads the FullBox (version, flags) prefix from a box
// body already scoped by readBoxHeader.
func readFullBoxHeader(r *bitio.ByteReader) (version uint8, flags uint32, err error) {
	version, err = r.ReadU8()
	if err != nil {
		return 0, 0, errors.Wrap(err, "bmff: failed to read FullBox version")
	}
	flags, err = r.ReadU24()
	if err != nil {
		return 0, 0, errors.Wrap(err, "bmff: failed to read FullBox flags")
	}
	return version, flags, nil
}

// eachChildBox calls fn once per top-level box found in r, stopping at the
// first error fn returns (other than nil).
func eachChildBox(r *bitio.ByteReader, fn func(box) error) error {
	for r.Len() > 0 {
		b, err := readBoxHeader(r)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

// Box is a top-level box header plus its body's byte offset and a reader
// scoped to exactly its body, exported so package mini can walk a file's
// top-level box list (ftyp, mini) without duplicating box-framing rules.
type Box struct {
	Type   string
	Offset int // body's absolute byte offset from the start of the buffer passed to ReadBoxHeader's caller chain.
	Body   *bitio.ByteReader
}

// ReadBoxHeader reads one top-level box from r and returns it with Body
// scoped to the box's declared length.
func ReadBoxHeader(r *bitio.ByteReader) (Box, error) {
	b, err := readBoxHeader(r)
	if err != nil {
		return Box{}, err
	}
	return Box{Type: b.typ, Offset: r.Offset() - b.body.Len(), Body: b.body}, nil
}
