/*
NAME
  properties.go

DESCRIPTION
  properties.go authors item properties (ispe, pixi, av1C, colr, auxC,
  pasp, clap, irot, imir, clli) into encoded `ipco` box bytes, deduplicated
  across items by byte-identical content per spec.md §4.8's property
  authoring rule.

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
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// propSpec is one property destined for an item's association list.
type propSpec struct {
	prop      avif.Property
	essential bool
}

// propertyTable deduplicates encoded property boxes by byte content,
// handing out the same 1-based ipma index to identical boxes the way
// libavif-style encoders coalesce shared ispe/av1C/colr entries.
type propertyTable struct {
	boxes []byte   // not filled; ipcoBytes concatenates split instead.
	split [][]byte // one encoded box per entry, in index order.
	index map[string]int
}

func newPropertyTable() *propertyTable {
	return &propertyTable{index: map[string]int{}}
}

// add encodes p and returns its 1-based ipma index, reusing an existing
// entry if an identical box was already added.
func (t *propertyTable) add(p avif.Property) (int, error) {
	box, err := encodePropertyBox(p)
	if err != nil {
		return 0, err
	}
	key := string(box)
	if idx, ok := t.index[key]; ok {
		return idx, nil
	}
	t.split = append(t.split, box)
	idx := len(t.split)
	t.index[key] = idx
	return idx, nil
}

// associate adds every spec in specs and returns the item's ordered
// property associations.
func (t *propertyTable) associate(specs []propSpec) ([]avif.PropertyAssociation, error) {
	out := make([]avif.PropertyAssociation, 0, len(specs))
	for _, s := range specs {
		idx, err := t.add(s.prop)
		if err != nil {
			return nil, err
		}
		out = append(out, avif.PropertyAssociation{PropertyIndex: idx, Essential: s.essential})
	}
	return out, nil
}

// ipcoBytes concatenates every distinct property box in table order,
// the literal contents of an `ipco` box body.
func (t *propertyTable) ipcoBytes() []byte {
	var out []byte
	for _, b := range t.split {
		out = append(out, b...)
	}
	return out
}

// colorPropertySpecs builds the property list for a color or gainmap
// item: spatial extents and codec configuration (essential), pixel
// information, colour info, and whichever optional transforms img sets.
func colorPropertySpecs(img *avif.Image, cfg avif.Av1Config) []propSpec {
	specs := []propSpec{
		{avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(img.Width), Height: uint32(img.Height)}, true},
		{avif.Property{Kind: avif.PropCodecConfiguration, Config: &cfg}, true},
		{avif.Property{Kind: avif.PropPixelInformation, ChannelDepths: channelDepths(img)}, false},
	}
	if img.NCLX != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropColourInformation, NCLX: img.NCLX}, false})
	}
	if len(img.ICC) > 0 {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropColourInformation, ICC: img.ICC}, false})
	}
	if img.Transform.PixelAspectRatio != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropPixelAspectRatio, PixelAspectRatio: img.Transform.PixelAspectRatio}, false})
	}
	if img.Transform.CleanAperture != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropCleanAperture, CleanAperture: img.Transform.CleanAperture}, false})
	}
	if img.Transform.HasRotation() {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropRotation, Rotation: img.Transform.Rotation}, false})
	}
	if img.Transform.HasMirror() {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropMirror, Mirror: img.Transform.Mirror}, false})
	}
	if img.CLLI != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropContentLightLevel, CLLI: img.CLLI}, false})
	}
	return specs
}

// alphaPropertySpecs builds the property list for an alpha item: the same
// spatial/codec/pixel triple as color, plus the well-known alpha auxiliary
// type.
func alphaPropertySpecs(img *avif.Image, cfg avif.Av1Config) []propSpec {
	specs := colorPropertySpecsMinimal(img, cfg)
	specs = append(specs, propSpec{avif.Property{Kind: avif.PropAuxiliaryType, AuxType: avif.WellKnownAlphaURN}, true})
	return specs
}

// colorPropertySpecsMinimal is colorPropertySpecs without colour/transform
// properties, which are meaningless for an independent alpha plane.
func colorPropertySpecsMinimal(img *avif.Image, cfg avif.Av1Config) []propSpec {
	return []propSpec{
		{avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(img.Width), Height: uint32(img.Height)}, true},
		{avif.Property{Kind: avif.PropCodecConfiguration, Config: &cfg}, true},
		{avif.Property{Kind: avif.PropPixelInformation, ChannelDepths: channelDepths(img)}, false},
	}
}

func channelDepths(img *avif.Image) []uint8 {
	n := img.Format.PlaneCount()
	depths := make([]uint8, n)
	for i := range depths {
		depths[i] = uint8(img.Depth)
	}
	return depths
}

// encodePropertyBox serializes one property into its complete box bytes
// (header + body), the unit the `ipco` dedup table compares for identity.
func encodePropertyBox(p avif.Property) ([]byte, error) {
	w := bitio.NewWriter()
	switch p.Kind {
	case avif.PropSpatialExtents:
		if err := w.StartFullBox("ispe", 0, 0); err != nil {
			return nil, err
		}
		w.WriteU32(p.Width)
		w.WriteU32(p.Height)

	case avif.PropPixelInformation:
		if err := w.StartFullBox("pixi", 0, 0); err != nil {
			return nil, err
		}
		w.WriteU8(uint8(len(p.ChannelDepths)))
		for _, d := range p.ChannelDepths {
			w.WriteU8(d)
		}

	case avif.PropCodecConfiguration:
		if err := w.StartBox("av1C"); err != nil {
			return nil, err
		}
		if p.Config == nil {
			return nil, avif.ErrInvalidArgument("encoder: codec-configuration property has no Av1Config")
		}
		encodeAv1C(w, *p.Config)

	case avif.PropColourInformation:
		if err := w.StartBox("colr"); err != nil {
			return nil, err
		}
		if p.NCLX != nil {
			w.Write([]byte("nclx"))
			w.WriteU16(p.NCLX.ColourPrimaries)
			w.WriteU16(p.NCLX.TransferCharacteristics)
			w.WriteU16(p.NCLX.MatrixCoefficients)
			var rb uint8
			if p.NCLX.FullRange {
				rb = 0x80
			}
			w.WriteU8(rb)
		} else {
			w.Write([]byte("rICC"))
			w.Write(p.ICC)
		}

	case avif.PropAuxiliaryType:
		if err := w.StartBox("auxC"); err != nil {
			return nil, err
		}
		w.WriteCString(p.AuxType)
		w.Write(p.AuxSubtype)

	case avif.PropRotation:
		if err := w.StartBox("irot"); err != nil {
			return nil, err
		}
		w.WriteU8(uint8(p.Rotation & 0x3))

	case avif.PropMirror:
		if err := w.StartBox("imir"); err != nil {
			return nil, err
		}
		w.WriteU8(uint8(p.Mirror & 0x1))

	case avif.PropCleanAperture:
		if err := w.StartBox("clap"); err != nil {
			return nil, err
		}
		c := p.CleanAperture
		writeFraction(w, c.Width)
		writeFraction(w, c.Height)
		writeFraction(w, c.HorizOff)
		writeFraction(w, c.VertOff)

	case avif.PropPixelAspectRatio:
		if err := w.StartBox("pasp"); err != nil {
			return nil, err
		}
		w.WriteU32(p.PixelAspectRatio.HSpacing)
		w.WriteU32(p.PixelAspectRatio.VSpacing)

	case avif.PropContentLightLevel:
		if err := w.StartBox("clli"); err != nil {
			return nil, err
		}
		w.WriteU16(p.CLLI.MaxCLL)
		w.WriteU16(p.CLLI.MaxPALL)

	default:
		return nil, avif.ErrInvalidArgument("encoder: unsupported property kind %v", p.Kind)
	}
	if err := w.FinishBox(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writeFraction(w *bitio.Writer, f avif.Fraction) {
	w.WriteU32(uint32(f.N))
	w.WriteU32(f.D)
}

// encodeAv1C writes the av1C codec-configuration box body matching
// bmff.ParseAv1C's bit layout exactly: marker bit set, version 1, then the
// profile/level/tier/depth/subsampling byte pair, then the raw
// configuration OBUs verbatim.
func encodeAv1C(w *bitio.Writer, cfg avif.Av1Config) {
	w.WriteU8(0x81) // marker=1, version=1.
	w.WriteU8((cfg.SeqProfile&0x7)<<5 | (cfg.SeqLevelIdx0 & 0x1f))

	var b2 byte
	if cfg.SeqTier0 != 0 {
		b2 |= 0x80
	}
	if cfg.HighBitdepth {
		b2 |= 0x40
	}
	if cfg.TwelveBit {
		b2 |= 0x20
	}
	if cfg.Monochrome {
		b2 |= 0x10
	}
	b2 |= (cfg.ChromaSubsamplingX & 0x1) << 3
	b2 |= (cfg.ChromaSubsamplingY & 0x1) << 2
	b2 |= cfg.ChromaSamplePosition & 0x3
	w.WriteU8(b2)

	w.Write(cfg.ConfigOBUs)
}

// deriveAv1Config fills in the av1C fields an encoded image implies,
// given the sample's actual config OBUs (as the back-end returns them).
func deriveAv1Config(img *avif.Image, configOBUs []byte) avif.Av1Config {
	var highBD, twelveBit bool
	switch img.Depth {
	case 10:
		highBD = true
	case 12:
		highBD, twelveBit = true, true
	}
	x, y := img.Format.ChromaShift()
	return avif.Av1Config{
		SeqProfile:           seqProfileFor(img.Format, img.Depth),
		SeqLevelIdx0:         0,
		HighBitdepth:         highBD,
		TwelveBit:            twelveBit,
		Monochrome:           img.Format == avif.FormatYUV400,
		ChromaSubsamplingX:   uint8(x),
		ChromaSubsamplingY:   uint8(y),
		ChromaSamplePosition: uint8(img.ChromaSamplePosition),
		ConfigOBUs:           configOBUs,
	}
}

// seqProfileFor picks the AV1 seq_profile implied by format/depth: profile
// 0 (Main) covers 4:2:0/4:0:0 up to 10-bit, profile 1 (High) covers 4:4:4,
// profile 2 (Professional) covers 4:2:2 or any 12-bit stream.
func seqProfileFor(format avif.PixelFormat, depth int) uint8 {
	switch {
	case depth == 12 || format == avif.FormatYUV422:
		return 2
	case format == avif.FormatYUV444:
		return 1
	default:
		return 0
	}
}
