/*
NAME
  mini.go

DESCRIPTION
  mini.go implements the `mini` box (mif3 brand) low-overhead container
  variant: a single bit-packed header that replaces an entire meta box
  tree. Parse reconstructs a virtual *avif.ItemModel from it, with the same
  item ids, property indices and category assignments a regular meta box
  tree would produce, so package decoder never has to special-case mini
  files beyond the initial dispatch. Encode is the symmetric write path.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mini parses and writes the ISO/IEC 23008-12 MinimizedImageBox
// ("mini", mif3 brand): a fixed-field bit-packed header that stands in for
// an entire meta box tree when a still image needs none of its generality.
package mini

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
	"github.com/ausocean/avif/bmff"
)

// Fixed item ids the mini box always assigns, matching the property-index
// fixed numbering the format defines for specification simplicity.
const (
	colorItemID   uint32 = 1
	alphaItemID   uint32 = 2
	tmapItemID    uint32 = 3
	gainmapItemID uint32 = 4
	exifItemID    uint32 = 6
	xmpItemID     uint32 = 7
)

// Container holds the virtual item model a mini box parses into.
type Container struct {
	Model *avif.ItemModel
}

// header holds every field mini.rs's bit-packed syntax names, decoded in
// declaration order.
type header struct {
	explicitCodecTypes bool
	floatFlag          bool
	fullRange          bool
	hasAlpha           bool
	explicitCICP       bool
	hasHDR             bool
	hasICC             bool
	hasExif            bool
	hasXMP             bool

	chromaSubsampling int
	orientation       int

	largeDimensions bool
	width, height   int

	chromaHCentered bool
	chromaVCentered bool

	bitDepth int

	alphaPremultiplied bool

	colourPrimaries, transferCharacteristics, matrixCoefficients uint16

	infeType string

	hasGainmap                bool
	tmapHasICC                bool
	gainmapWidth, gainmapHeight int
	gainmapMatrixCoefficients uint16
	gainmapFullRange          bool
	gainmapChromaSubsampling  int
	gainmapChromaHCentered    bool
	gainmapChromaVCentered    bool
	gainmapBitDepth           int
	tmapExplicitCICP          bool
	tmapColourPrimaries, tmapTransferCharacteristics, tmapMatrixCoefficients uint16
	tmapFullRange bool

	clli     *avif.ContentLightLevel
	tmapCLLI *avif.ContentLightLevel

	largeMetadata    bool
	largeCodecConfig bool
	largeItemData    bool

	iccSize             int
	tmapICCSize         int
	gainmapMetadataSize int
	gainmapItemDataSize int
	gainmapCfgSize      int
	mainCfgSize         int
	mainItemDataSize    int
	alphaItemDataSize   int
	alphaCfgSize        int
	exifSize            int
	xmpSize             int
}

// Parse reconstructs a virtual item model from a full file buffer whose
// `ftyp` box selected the mif3 brand. It re-walks the top-level box list
// itself (the caller's own ftyp probe is discarded) to locate the `mini`
// box and compute absolute file offsets for every item's extents.
func Parse(data []byte) (*Container, error) {
	top := bitio.NewByteReader(data)

	ftyp, err := bmff.ReadBoxHeader(top)
	if err != nil {
		return nil, err
	}
	if ftyp.Type != "ftyp" {
		return nil, avif.ErrInvalidFtyp()
	}

	miniBox, err := bmff.ReadBoxHeader(top)
	if err != nil {
		return nil, err
	}
	if miniBox.Type != "mini" {
		return nil, avif.ErrBMFFParseFailed("expected a 'mini' box after ftyp, found %q", miniBox.Type)
	}

	body := miniBox.Body.Bytes()
	bits := bitio.NewBitReader(body)

	h, err := parseHeader(bits)
	if err != nil {
		return nil, err
	}
	if err := bits.Pad(); err != nil {
		return nil, err
	}
	headerLen := bits.BitsRead() / 8
	if headerLen > len(body) {
		return nil, avif.ErrTruncatedData()
	}

	cursor := headerLen
	mainCfgBytes, cursor, err := take(body, cursor, h.mainCfgSize)
	if err != nil {
		return nil, err
	}
	mainCfg, err := bmff.ParseAv1C(bitio.NewByteReader(mainCfgBytes))
	if err != nil {
		return nil, err
	}

	var alphaCfg avif.Av1Config
	effAlphaCfgSize := h.alphaCfgSize
	haveAlphaCfg := h.hasAlpha && h.alphaItemDataSize != 0
	if haveAlphaCfg {
		if h.alphaCfgSize == 0 {
			alphaCfg = mainCfg
			effAlphaCfgSize = h.mainCfgSize
		} else {
			var alphaCfgBytes []byte
			alphaCfgBytes, cursor, err = take(body, cursor, h.alphaCfgSize)
			if err != nil {
				return nil, err
			}
			alphaCfg, err = bmff.ParseAv1C(bitio.NewByteReader(alphaCfgBytes))
			if err != nil {
				return nil, err
			}
		}
	}

	var gainmapCfg avif.Av1Config
	effGainmapCfgSize := h.gainmapCfgSize
	haveGainmapCfg := h.hasHDR && h.hasGainmap
	if haveGainmapCfg {
		if h.gainmapCfgSize == 0 {
			gainmapCfg = mainCfg
			effGainmapCfgSize = h.mainCfgSize
		} else {
			var gainmapCfgBytes []byte
			gainmapCfgBytes, cursor, err = take(body, cursor, h.gainmapCfgSize)
			if err != nil {
				return nil, err
			}
			gainmapCfg, err = bmff.ParseAv1C(bitio.NewByteReader(gainmapCfgBytes))
			if err != nil {
				return nil, err
			}
		}
	}

	remaining := body[cursor:]
	wantLen := h.iccSize + h.tmapICCSize + h.gainmapMetadataSize + h.alphaItemDataSize +
		h.gainmapItemDataSize + h.mainItemDataSize + h.exifSize + h.xmpSize
	if len(remaining) != wantLen {
		return nil, avif.ErrBMFFParseFailed("mini box: unexpected trailing size, have %d want %d", len(remaining), wantLen)
	}

	m := avif.NewItemModel()
	roff := 0 // cursor within remaining, consumption order fixed by the format.

	var iccBytes, tmapICCBytes []byte
	if h.hasICC {
		iccBytes = remaining[roff : roff+h.iccSize]
		roff += h.iccSize
	}
	if h.hasGainmap && h.tmapHasICC {
		tmapICCBytes = remaining[roff : roff+h.tmapICCSize]
		roff += h.tmapICCSize
	}

	props := buildProperties(h, mainCfg, alphaCfg, gainmapCfg, iccBytes, tmapICCBytes, effAlphaCfgSize, effGainmapCfgSize)
	m.Properties = append(m.Properties, props...)

	colorItem := &avif.Item{ID: colorItemID, Type: h.infeType}
	colorItem.Associations = colorAssociations(h)
	if err := m.AddItem(colorItem); err != nil {
		return nil, err
	}
	m.PrimaryItemID = colorItemID

	if h.hasAlpha {
		alphaItem := &avif.Item{ID: alphaItemID, Type: h.infeType}
		alphaItem.References = []avif.ItemReference{{Type: "auxl", To: []uint32{colorItemID}}}
		if h.alphaPremultiplied {
			colorItem.References = append(colorItem.References, avif.ItemReference{Type: "prem", To: []uint32{alphaItemID}})
		}
		alphaItem.Associations = []avif.PropertyAssociation{
			{PropertyIndex: 6, Essential: true},
			{PropertyIndex: 2, Essential: false},
			{PropertyIndex: 7, Essential: true},
			{PropertyIndex: 8, Essential: false},
			{PropertyIndex: 9, Essential: true},
			{PropertyIndex: 10, Essential: true},
		}
		if err := m.AddItem(alphaItem); err != nil {
			return nil, err
		}
	}

	var tmapItem *avif.Item
	if h.hasGainmap {
		tmapItem = &avif.Item{ID: tmapItemID, Type: "tmap"}
		tmapItem.DimgInputs = []uint32{colorItemID}
		tmapItem.Associations = []avif.PropertyAssociation{
			{PropertyIndex: 21, Essential: false},
			{PropertyIndex: 22, Essential: true},
			{PropertyIndex: 23, Essential: true},
			{PropertyIndex: 24, Essential: false},
			{PropertyIndex: 25, Essential: false},
			{PropertyIndex: 26, Essential: false},
			{PropertyIndex: 27, Essential: false},
			{PropertyIndex: 28, Essential: false},
			{PropertyIndex: 29, Essential: false},
		}
		m.EntityGroups = append(m.EntityGroups, avif.EntityGroup{Type: "altr", Members: []uint32{tmapItemID, colorItemID}})
		if err := m.AddItem(tmapItem); err != nil {
			return nil, err
		}
	}

	if h.gainmapItemDataSize != 0 {
		gainmapItem := &avif.Item{ID: gainmapItemID, Type: h.infeType}
		tmapItem.DimgInputs = append(tmapItem.DimgInputs, gainmapItemID)
		gainmapItem.Associations = []avif.PropertyAssociation{
			{PropertyIndex: 17, Essential: true},
			{PropertyIndex: 18, Essential: false},
			{PropertyIndex: 19, Essential: false},
			{PropertyIndex: 20, Essential: true},
			{PropertyIndex: 9, Essential: true},
			{PropertyIndex: 10, Essential: true},
		}
		if err := m.AddItem(gainmapItem); err != nil {
			return nil, err
		}
	}

	// Extents, in the order the format lays out the trailing data.
	if h.gainmapMetadataSize != 0 {
		tmapItem.InlineData = append([]byte{0}, remaining[roff:roff+h.gainmapMetadataSize]...)
		roff += h.gainmapMetadataSize
	}
	if h.hasAlpha {
		off := uint64(miniBox.Offset + cursor + roff)
		m.ByID(alphaItemID).Extents = []avif.Extent{{Offset: off, Length: uint64(h.alphaItemDataSize)}}
		roff += h.alphaItemDataSize
	}
	if h.gainmapItemDataSize != 0 {
		off := uint64(miniBox.Offset + cursor + roff)
		m.ByID(gainmapItemID).Extents = []avif.Extent{{Offset: off, Length: uint64(h.gainmapItemDataSize)}}
		roff += h.gainmapItemDataSize
	}
	{
		off := uint64(miniBox.Offset + cursor + roff)
		colorItem.Extents = []avif.Extent{{Offset: off, Length: uint64(h.mainItemDataSize)}}
		roff += h.mainItemDataSize
	}
	if h.hasExif {
		exifItem := &avif.Item{ID: exifItemID, Type: "Exif"}
		exifItem.References = []avif.ItemReference{{Type: "cdsc", To: []uint32{colorItemID}}}
		off := uint64(miniBox.Offset + cursor + roff)
		exifItem.Extents = []avif.Extent{{Offset: off, Length: uint64(h.exifSize)}}
		roff += h.exifSize
		if err := m.AddItem(exifItem); err != nil {
			return nil, err
		}
	}
	if h.hasXMP {
		xmpItem := &avif.Item{ID: xmpItemID, Type: "mime", ContentType: "application/rdf+xml"}
		xmpItem.References = []avif.ItemReference{{Type: "cdsc", To: []uint32{colorItemID}}}
		off := uint64(miniBox.Offset + cursor + roff)
		xmpItem.Extents = []avif.Extent{{Offset: off, Length: uint64(h.xmpSize)}}
		if err := m.AddItem(xmpItem); err != nil {
			return nil, err
		}
	}

	r := &bmff.Reader{Model: m}
	if err := r.ResolveItems(); err != nil {
		return nil, err
	}

	return &Container{Model: m}, nil
}

// take slices n bytes from buf at cursor, returning the advanced cursor.
func take(buf []byte, cursor, n int) ([]byte, int, error) {
	if n < 0 || cursor+n > len(buf) {
		return nil, cursor, avif.ErrTruncatedData()
	}
	return buf[cursor : cursor+n], cursor + n, nil
}

func parseHeader(bits *bitio.BitReader) (header, error) {
	var h header

	version, err := bits.ReadBits(2)
	if err != nil {
		return h, err
	}
	if version != 0 {
		return h, avif.ErrBMFFParseFailed("mini box: unsupported version %d", version)
	}

	flags := make([]bool, 9)
	for i := range flags {
		if flags[i], err = bits.ReadBit(); err != nil {
			return h, err
		}
	}
	h.explicitCodecTypes, h.floatFlag, h.fullRange, h.hasAlpha, h.explicitCICP,
		h.hasHDR, h.hasICC, h.hasExif, h.hasXMP = flags[0], flags[1], flags[2], flags[3], flags[4], flags[5], flags[6], flags[7], flags[8]

	cs, err := bits.ReadBits(2)
	if err != nil {
		return h, err
	}
	h.chromaSubsampling = int(cs)

	ori, err := bits.ReadBits(3)
	if err != nil {
		return h, err
	}
	h.orientation = int(ori) + 1

	if h.largeDimensions, err = bits.ReadBit(); err != nil {
		return h, err
	}
	dimBits := 7
	if h.largeDimensions {
		dimBits = 15
	}
	w, err := bits.ReadBits(dimBits)
	if err != nil {
		return h, err
	}
	h.width = int(w) + 1
	ht, err := bits.ReadBits(dimBits)
	if err != nil {
		return h, err
	}
	h.height = int(ht) + 1

	if h.chromaSubsampling == 1 || h.chromaSubsampling == 2 {
		if h.chromaHCentered, err = bits.ReadBit(); err != nil {
			return h, err
		}
	}
	if h.chromaSubsampling == 1 {
		if h.chromaVCentered, err = bits.ReadBit(); err != nil {
			return h, err
		}
	}

	if h.floatFlag {
		return h, avif.ErrNotImplemented()
	}
	highDepth, err := bits.ReadBit()
	if err != nil {
		return h, err
	}
	if highDepth {
		v, err := bits.ReadBits(3)
		if err != nil {
			return h, err
		}
		h.bitDepth = int(v) + 9
	} else {
		h.bitDepth = 8
	}

	if h.hasAlpha {
		if h.alphaPremultiplied, err = bits.ReadBit(); err != nil {
			return h, err
		}
	}

	if h.explicitCICP {
		v, err := bits.ReadBits(8)
		if err != nil {
			return h, err
		}
		h.colourPrimaries = uint16(v)
		v, err = bits.ReadBits(8)
		if err != nil {
			return h, err
		}
		h.transferCharacteristics = uint16(v)
		if h.chromaSubsampling != 0 {
			v, err = bits.ReadBits(8)
			if err != nil {
				return h, err
			}
			h.matrixCoefficients = uint16(v)
		} else {
			h.matrixCoefficients = 2 // Unspecified.
		}
	} else {
		if h.hasICC {
			h.colourPrimaries = 2 // Unspecified.
			h.transferCharacteristics = 2
		} else {
			h.colourPrimaries = 1 // Bt709.
			h.transferCharacteristics = 13 // Srgb.
		}
		if h.chromaSubsampling == 0 {
			h.matrixCoefficients = 2
		} else {
			h.matrixCoefficients = 6 // Bt601.
		}
	}

	if h.explicitCodecTypes {
		var infe, cfgType [4]byte
		for i := range infe {
			v, err := bits.ReadBits(8)
			if err != nil {
				return h, err
			}
			infe[i] = byte(v)
		}
		for i := range cfgType {
			v, err := bits.ReadBits(8)
			if err != nil {
				return h, err
			}
			cfgType[i] = byte(v)
		}
		if string(infe[:]) != "av01" || string(cfgType[:]) != "av1C" {
			return h, avif.ErrBMFFParseFailed("mini box: unsupported codec types %q/%q", infe, cfgType)
		}
		h.infeType = "av01"
	} else {
		h.infeType = "av01"
	}

	if h.hasHDR {
		if h.hasGainmap, err = bits.ReadBit(); err != nil {
			return h, err
		}
		if h.hasGainmap {
			v, err := bits.ReadBits(dimBits)
			if err != nil {
				return h, err
			}
			h.gainmapWidth = int(v) + 1
			v, err = bits.ReadBits(dimBits)
			if err != nil {
				return h, err
			}
			h.gainmapHeight = int(v) + 1
			v, err = bits.ReadBits(8)
			if err != nil {
				return h, err
			}
			h.gainmapMatrixCoefficients = uint16(v)
			if h.gainmapFullRange, err = bits.ReadBit(); err != nil {
				return h, err
			}

			v, err = bits.ReadBits(2)
			if err != nil {
				return h, err
			}
			h.gainmapChromaSubsampling = int(v)
			if h.gainmapChromaSubsampling == 1 || h.gainmapChromaSubsampling == 2 {
				if h.gainmapChromaHCentered, err = bits.ReadBit(); err != nil {
					return h, err
				}
			}
			if h.gainmapChromaSubsampling == 1 {
				if h.gainmapChromaVCentered, err = bits.ReadBit(); err != nil {
					return h, err
				}
			}

			gainmapFloat, err := bits.ReadBit()
			if err != nil {
				return h, err
			}
			if gainmapFloat {
				return h, avif.ErrBMFFParseFailed("mini box: gainmap_float_flag must be 0 for AV1")
			}
			gainmapHighDepth, err := bits.ReadBit()
			if err != nil {
				return h, err
			}
			if gainmapHighDepth {
				v, err := bits.ReadBits(3)
				if err != nil {
					return h, err
				}
				h.gainmapBitDepth = int(v) + 9
			} else {
				h.gainmapBitDepth = 8
			}

			if h.tmapHasICC, err = bits.ReadBit(); err != nil {
				return h, err
			}
			if h.tmapExplicitCICP, err = bits.ReadBit(); err != nil {
				return h, err
			}
			if h.tmapExplicitCICP {
				v, err := bits.ReadBits(8)
				if err != nil {
					return h, err
				}
				h.tmapColourPrimaries = uint16(v)
				v, err = bits.ReadBits(8)
				if err != nil {
					return h, err
				}
				h.tmapTransferCharacteristics = uint16(v)
				v, err = bits.ReadBits(8)
				if err != nil {
					return h, err
				}
				h.tmapMatrixCoefficients = uint16(v)
				if h.tmapFullRange, err = bits.ReadBit(); err != nil {
					return h, err
				}
			} else {
				h.tmapColourPrimaries = 1
				h.tmapTransferCharacteristics = 13
				h.tmapMatrixCoefficients = 6
				h.tmapFullRange = true
			}
		}
		if h.clli, err = parseHDRProperties(bits); err != nil {
			return h, err
		}
		if h.hasGainmap {
			if h.tmapCLLI, err = parseHDRProperties(bits); err != nil {
				return h, err
			}
		}
	}

	if h.hasICC || h.hasExif || h.hasXMP || (h.hasHDR && h.hasGainmap) {
		if h.largeMetadata, err = bits.ReadBit(); err != nil {
			return h, err
		}
	}
	if h.largeCodecConfig, err = bits.ReadBit(); err != nil {
		return h, err
	}
	if h.largeItemData, err = bits.ReadBit(); err != nil {
		return h, err
	}

	metaBits := 10
	if h.largeMetadata {
		metaBits = 20
	}
	itemBits := 15
	if h.largeItemData {
		itemBits = 28
	}
	cfgBits := 3
	if h.largeCodecConfig {
		cfgBits = 12
	}

	if h.hasICC {
		v, err := bits.ReadBits(metaBits)
		if err != nil {
			return h, err
		}
		h.iccSize = int(v) + 1
	}
	if h.hasHDR && h.hasGainmap && h.tmapHasICC {
		v, err := bits.ReadBits(metaBits)
		if err != nil {
			return h, err
		}
		h.tmapICCSize = int(v) + 1
	}

	if h.hasHDR && h.hasGainmap {
		v, err := bits.ReadBits(metaBits)
		if err != nil {
			return h, err
		}
		h.gainmapMetadataSize = int(v)
		v, err = bits.ReadBits(itemBits)
		if err != nil {
			return h, err
		}
		h.gainmapItemDataSize = int(v)
		if h.gainmapItemDataSize > 0 {
			v, err = bits.ReadBits(cfgBits)
			if err != nil {
				return h, err
			}
			h.gainmapCfgSize = int(v)
		}
	}

	v, err := bits.ReadBits(cfgBits)
	if err != nil {
		return h, err
	}
	h.mainCfgSize = int(v)
	v, err = bits.ReadBits(itemBits)
	if err != nil {
		return h, err
	}
	h.mainItemDataSize = int(v) + 1

	if h.hasAlpha {
		v, err := bits.ReadBits(itemBits)
		if err != nil {
			return h, err
		}
		h.alphaItemDataSize = int(v)
		if h.alphaItemDataSize != 0 {
			v, err = bits.ReadBits(cfgBits)
			if err != nil {
				return h, err
			}
			h.alphaCfgSize = int(v)
		}
	}

	if h.hasExif || h.hasXMP {
		compressed, err := bits.ReadBit()
		if err != nil {
			return h, err
		}
		if compressed {
			return h, avif.ErrNotImplemented()
		}
	}
	if h.hasExif {
		v, err := bits.ReadBits(metaBits)
		if err != nil {
			return h, err
		}
		h.exifSize = int(v) + 1
	}
	if h.hasXMP {
		v, err := bits.ReadBits(metaBits)
		if err != nil {
			return h, err
		}
		h.xmpSize = int(v) + 1
	}

	return h, nil
}

// parseHDRProperties reads the clli_flag/mdcv_flag/.../ndwt_flag block and
// the clli payload, skipping the remaining (unsupported) property boxes at
// their declared bit widths so alignment stays correct for whatever
// follows.
func parseHDRProperties(bits *bitio.BitReader) (*avif.ContentLightLevel, error) {
	hasCLLI, err := bits.ReadBit()
	if err != nil {
		return nil, err
	}
	hasMDCV, err := bits.ReadBit()
	if err != nil {
		return nil, err
	}
	hasCCLV, err := bits.ReadBit()
	if err != nil {
		return nil, err
	}
	hasAMVE, err := bits.ReadBit()
	if err != nil {
		return nil, err
	}
	hasREVE, err := bits.ReadBit()
	if err != nil {
		return nil, err
	}
	hasNDWT, err := bits.ReadBit()
	if err != nil {
		return nil, err
	}

	var clli *avif.ContentLightLevel
	if hasCLLI {
		maxCLL, err := bits.ReadBits(16)
		if err != nil {
			return nil, err
		}
		maxPALL, err := bits.ReadBits(16)
		if err != nil {
			return nil, err
		}
		clli = &avif.ContentLightLevel{MaxCLL: uint16(maxCLL), MaxPALL: uint16(maxPALL)}
	}
	if hasMDCV {
		if _, err := bits.ReadBits(16 * 6 + 32 + 32); err != nil {
			return nil, err
		}
	}
	if hasCCLV {
		if err := skipCCLV(bits); err != nil {
			return nil, err
		}
	}
	if hasAMVE {
		if _, err := bits.ReadBits(32 + 16 + 16); err != nil {
			return nil, err
		}
	}
	if hasREVE {
		if _, err := bits.ReadBits(32 + 16 + 16 + 32 + 16 + 16); err != nil {
			return nil, err
		}
	}
	if hasNDWT {
		if _, err := bits.ReadBits(32); err != nil {
			return nil, err
		}
	}
	return clli, nil
}

func skipCCLV(bits *bitio.BitReader) error {
	if _, err := bits.ReadBits(2); err != nil { // ccv_cancel_flag, ccv_persistence_flag.
		return err
	}
	primariesPresent, err := bits.ReadBit()
	if err != nil {
		return err
	}
	minPresent, err := bits.ReadBit()
	if err != nil {
		return err
	}
	maxPresent, err := bits.ReadBit()
	if err != nil {
		return err
	}
	avgPresent, err := bits.ReadBit()
	if err != nil {
		return err
	}
	if _, err := bits.ReadBits(2); err != nil { // reserved.
		return err
	}
	if primariesPresent {
		if _, err := bits.ReadBits(32 * 6); err != nil {
			return err
		}
	}
	if minPresent {
		if _, err := bits.ReadBits(32); err != nil {
			return err
		}
	}
	if maxPresent {
		if _, err := bits.ReadBits(32); err != nil {
			return err
		}
	}
	if avgPresent {
		if _, err := bits.ReadBits(32); err != nil {
			return err
		}
	}
	return nil
}

// buildProperties assembles the format's fixed 32-entry property table
// (1-based; entry N lives at Properties[N] once appended after the model's
// dummy Properties[0]).
func buildProperties(h header, mainCfg, alphaCfg, gainmapCfg avif.Av1Config, icc, tmapICC []byte, effAlphaCfgSize, effGainmapCfgSize int) []avif.Property {
	unused := avif.Property{Kind: avif.PropUnused}
	planeCount := chromaFormat(h.chromaSubsampling).PlaneCount()

	entries := make([]avif.Property, 32)
	for i := range entries {
		entries[i] = unused
	}

	if h.mainCfgSize != 0 {
		cfg := mainCfg
		entries[0] = avif.Property{Kind: avif.PropCodecConfiguration, Config: &cfg}
	}
	entries[1] = avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(h.width), Height: uint32(h.height)}
	depths := make([]uint8, planeCount)
	for i := range depths {
		depths[i] = uint8(h.bitDepth)
	}
	entries[2] = avif.Property{Kind: avif.PropPixelInformation, ChannelDepths: depths}
	entries[3] = avif.Property{Kind: avif.PropColourInformation, NCLX: &avif.NCLX{
		ColourPrimaries: h.colourPrimaries, TransferCharacteristics: h.transferCharacteristics,
		MatrixCoefficients: h.matrixCoefficients, FullRange: h.fullRange,
	}}
	if h.hasICC {
		entries[4] = avif.Property{Kind: avif.PropColourInformation, ICC: icc}
	}
	if effAlphaCfgSize != 0 {
		cfg := alphaCfg
		entries[5] = avif.Property{Kind: avif.PropCodecConfiguration, Config: &cfg}
	}
	if h.alphaItemDataSize != 0 {
		entries[6] = avif.Property{Kind: avif.PropAuxiliaryType, AuxType: "urn:mpeg:mpegB:cicp:systems:auxiliary:alpha"}
		entries[7] = avif.Property{Kind: avif.PropPixelInformation, ChannelDepths: []uint8{uint8(h.bitDepth)}}
	}
	switch h.orientation {
	case 3:
		entries[8] = avif.Property{Kind: avif.PropRotation, Rotation: 2}
	case 5, 7, 8:
		entries[8] = avif.Property{Kind: avif.PropRotation, Rotation: 1}
	case 6:
		entries[8] = avif.Property{Kind: avif.PropRotation, Rotation: 3}
	}
	switch h.orientation {
	case 2, 7:
		entries[9] = avif.Property{Kind: avif.PropMirror, Mirror: 1}
	case 4, 5:
		entries[9] = avif.Property{Kind: avif.PropMirror, Mirror: 0}
	}
	if h.clli != nil {
		entries[10] = avif.Property{Kind: avif.PropContentLightLevel, CLLI: h.clli}
	}
	if effGainmapCfgSize != 0 {
		cfg := gainmapCfg
		entries[16] = avif.Property{Kind: avif.PropCodecConfiguration, Config: &cfg}
	}
	if h.gainmapItemDataSize != 0 {
		entries[17] = avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(h.gainmapWidth), Height: uint32(h.gainmapHeight)}
		gmDepths := make([]uint8, chromaFormat(h.gainmapChromaSubsampling).PlaneCount())
		for i := range gmDepths {
			gmDepths[i] = uint8(h.gainmapBitDepth)
		}
		entries[18] = avif.Property{Kind: avif.PropPixelInformation, ChannelDepths: gmDepths}
		entries[19] = avif.Property{Kind: avif.PropColourInformation, NCLX: &avif.NCLX{
			ColourPrimaries: 2, TransferCharacteristics: 2,
			MatrixCoefficients: h.gainmapMatrixCoefficients, FullRange: h.gainmapFullRange,
		}}
	}
	if h.hasGainmap {
		w, hh := h.width, h.height
		if h.orientation >= 3 {
			w, hh = hh, w
		}
		entries[20] = avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(w), Height: uint32(hh)}
		if h.tmapExplicitCICP || !h.tmapHasICC {
			entries[21] = avif.Property{Kind: avif.PropColourInformation, NCLX: &avif.NCLX{
				ColourPrimaries: h.tmapColourPrimaries, TransferCharacteristics: h.tmapTransferCharacteristics,
				MatrixCoefficients: h.tmapMatrixCoefficients, FullRange: h.tmapFullRange,
			}}
		}
		if h.tmapHasICC {
			entries[22] = avif.Property{Kind: avif.PropColourInformation, ICC: tmapICC}
		}
		if h.tmapCLLI != nil {
			entries[23] = avif.Property{Kind: avif.PropContentLightLevel, CLLI: h.tmapCLLI}
		}
	}
	return entries
}

func colorAssociations(h header) []avif.PropertyAssociation {
	assoc := []avif.PropertyAssociation{
		{PropertyIndex: 1, Essential: true},
		{PropertyIndex: 2, Essential: false},
		{PropertyIndex: 3, Essential: false},
		{PropertyIndex: 4, Essential: true},
		{PropertyIndex: 5, Essential: true},
	}
	if h.hasAlpha && h.alphaItemDataSize == 0 {
		assoc = append(assoc, avif.PropertyAssociation{PropertyIndex: 30, Essential: true})
	}
	if h.hasHDR {
		assoc = append(assoc,
			avif.PropertyAssociation{PropertyIndex: 11, Essential: false},
			avif.PropertyAssociation{PropertyIndex: 12, Essential: false},
			avif.PropertyAssociation{PropertyIndex: 13, Essential: false},
			avif.PropertyAssociation{PropertyIndex: 14, Essential: false},
			avif.PropertyAssociation{PropertyIndex: 15, Essential: false},
			avif.PropertyAssociation{PropertyIndex: 16, Essential: false},
		)
	}
	assoc = append(assoc,
		avif.PropertyAssociation{PropertyIndex: 9, Essential: true},
		avif.PropertyAssociation{PropertyIndex: 10, Essential: true},
	)
	return assoc
}

func chromaFormat(subsampling int) avif.PixelFormat {
	switch subsampling {
	case 0:
		return avif.FormatYUV400
	case 1:
		return avif.FormatYUV420
	case 2:
		return avif.FormatYUV422
	default:
		return avif.FormatYUV444
	}
}
