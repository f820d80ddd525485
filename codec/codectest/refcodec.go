/*
NAME
  refcodec.go

DESCRIPTION
  refcodec.go implements a minimal lossless reference codec used in place
  of a real AV1 back-end (dav1d/aom are cgo bindings and out of scope for
  this repository) so the decoder/encoder orchestrators can be exercised
  end-to-end in tests. It is registered under the name "ref" and is never
  imported by production code.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package codectest provides a reference codec.Decoder/codec.Encoder pair
// that round-trips avif.Image values losslessly over a tiny private wire
// format, standing in for a real AV1 back-end in tests.
package codectest

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
	"github.com/ausocean/avif/codec"
)

// BackendName is the registry name this package's backend registers under.
const BackendName = "ref"

func init() {
	codec.Register(codec.Backend{
		Name:       BackendName,
		NewDecoder: func() codec.Decoder { return &refDecoder{} },
		NewEncoder: func() codec.Encoder { return &refEncoder{} },
	})
}

// refDecoder decodes payloads produced by refEncoder.EncodeImage.
type refDecoder struct {
	initialized bool
}

func (d *refDecoder) Initialize(operatingPoint uint8, allLayers bool) error {
	d.initialized = true
	return nil
}

func (d *refDecoder) GetNextImage(payload []byte, spatialID uint8, image *avif.Image, category avif.Category) error {
	if !d.initialized {
		return avif.ErrNoCodecAvailable()
	}
	im, err := unmarshalImage(payload)
	if err != nil {
		if category == avif.CategoryAlpha {
			return avif.ErrDecodeAlphaFailed()
		}
		if category == avif.CategoryGainMap {
			return avif.ErrDecodeGainMapFailed()
		}
		return avif.ErrDecodeColorFailed()
	}
	switch category {
	case avif.CategoryAlpha:
		image.AlphaPlane = im.AlphaPlane
		image.AlphaPremultiplied = im.AlphaPremultiplied
	default:
		image.Width, image.Height = im.Width, im.Height
		image.Depth = im.Depth
		image.Format = im.Format
		image.YUVRange = im.YUVRange
		image.Planes = im.Planes
	}
	return nil
}

func (d *refDecoder) GetNextImageGrid(payloads [][]byte, columns, rows int, image *avif.Image, category avif.Category) error {
	// Default looping path: GetNextImageGrid is documented as
	// optional, falling back to one GetNextImage call per payload.
	return avif.ErrNotImplemented()
}

func (d *refDecoder) Close() error { return nil }

// refEncoder serializes images verbatim; Finish returns one payload per
// EncodeImage call in call order.
type refEncoder struct {
	payloads [][]byte
}

func (e *refEncoder) EncodeImage(image *avif.Image, category avif.Category, cfg codec.Config, firstFrame bool) error {
	e.payloads = append(e.payloads, marshalImage(image))
	return nil
}

func (e *refEncoder) Finish() ([][]byte, error) {
	out := e.payloads
	e.payloads = nil
	return out, nil
}

// marshalImage serializes the fields refDecoder.GetNextImage restores.
// This is a private wire format, not AV1: width/height/depth/format/range
// as fixed fields, then each plane's RowBytes/Height/Depth/Data, then the
// alpha plane if present.
func marshalImage(im *avif.Image) []byte {
	w := bitio.NewWriter()
	w.WriteU32(uint32(im.Width))
	w.WriteU32(uint32(im.Height))
	w.WriteU8(uint8(im.Depth))
	w.WriteU8(uint8(im.Format))
	w.WriteU8(uint8(im.YUVRange))
	planes := im.YUVPlanes()
	w.WriteU8(uint8(len(planes)))
	for _, p := range planes {
		writePlane(w, p)
	}
	hasAlpha := im.AlphaPlane != nil
	if hasAlpha {
		w.WriteU8(1)
		writePlane(w, im.AlphaPlane)
		if im.AlphaPremultiplied {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
	} else {
		w.WriteU8(0)
	}
	return w.Bytes()
}

func writePlane(w *bitio.Writer, p *avif.Plane) {
	w.WriteU32(uint32(p.Width))
	w.WriteU32(uint32(p.Height))
	w.WriteU32(uint32(p.RowBytes))
	w.WriteU8(uint8(p.Depth))
	w.WriteU32(uint32(len(p.Data)))
	w.Write(p.Data)
}

func unmarshalImage(payload []byte) (*avif.Image, error) {
	r := bitio.NewByteReader(payload)
	width, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	height, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	depth, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	format, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	yrange, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	planeCount, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	im := &avif.Image{
		Width:    int(width),
		Height:   int(height),
		Depth:    int(depth),
		Format:   avif.PixelFormat(format),
		YUVRange: avif.Range(yrange),
	}
	for i := 0; i < int(planeCount) && i < len(im.Planes); i++ {
		p, err := readPlane(r)
		if err != nil {
			return nil, err
		}
		im.Planes[i] = p
	}
	hasAlpha, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if hasAlpha == 1 {
		p, err := readPlane(r)
		if err != nil {
			return nil, err
		}
		im.AlphaPlane = p
		premul, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		im.AlphaPremultiplied = premul == 1
	}
	return im, nil
}

func readPlane(r *bitio.ByteReader) (*avif.Plane, error) {
	width, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	height, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	rowBytes, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	depth, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &avif.Plane{
		Width: int(width), Height: int(height), RowBytes: int(rowBytes),
		Depth: int(depth), Data: buf, Ownership: avif.PlaneOwned,
	}, nil
}
