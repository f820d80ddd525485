/*
NAME
  item.go

DESCRIPTION
  item.go defines Item, Property and Category — the HEIF unit-of-storage
  model that package bmff builds from the box tree and packages grid,
  decoder and encoder consume.

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

// Category classifies an item's role in the composed output image.
type Category int

const (
	CategoryColor Category = iota
	CategoryAlpha
	CategoryGainMap
)

func (c Category) String() string {
	switch c {
	case CategoryColor:
		return "color"
	case CategoryAlpha:
		return "alpha"
	case CategoryGainMap:
		return "gainmap"
	default:
		return "unknown"
	}
}

// Extent is a single contiguous byte range of an item's data, relative to
// either the file or the `idat` pool per construction method.
type Extent struct {
	Offset uint64
	Length uint64
}

// ConstructionMethod is the `iloc` base-offset method. Method 2 (item
// offset, i.e. offsets relative to another item) is never valid and is
// rejected at parse time.
type ConstructionMethod int

const (
	ConstructionFile ConstructionMethod = 0
	ConstructionIdat ConstructionMethod = 1
)

// ItemReference is a single `iref` edge: typ is the 4-character reference
// type (auxl, dimg, thmb, prem, cdsc); To lists the target item ids.
type ItemReference struct {
	Type string
	To   []uint32
}

// Av1Config is the decoded `av1C` codec-configuration box.
type Av1Config struct {
	SeqProfile     uint8
	SeqLevelIdx0   uint8
	SeqTier0       uint8
	HighBitdepth   bool
	TwelveBit      bool
	Monochrome     bool
	ChromaSubsamplingX uint8
	ChromaSubsamplingY uint8
	ChromaSamplePosition uint8
	ConfigOBUs     []byte
}

// Depth returns the sample depth implied by the high-bitdepth/twelve-bit
// flags: 8, 10 or 12 bits.
func (c Av1Config) Depth() int {
	switch {
	case c.TwelveBit:
		return 12
	case c.HighBitdepth:
		return 10
	default:
		return 8
	}
}

// PropertyAssociation binds a property (1-based index into the item
// property container) to an item. The essential flag is kept as parsed;
// an essential association to a property this codec does not recognize
// (PropUnused) is not rejected.
type PropertyAssociation struct {
	PropertyIndex int
	Essential     bool
}

// Item is the HEIF unit of storage.
type Item struct {
	ID       uint32
	Type     string // 4-char type code: av01, Exif, mime, grid, tmap, sato, iovl, iden, ...
	Category Category

	Hidden          bool
	ExtraLayerCount int

	References []ItemReference
	DimgInputs []uint32

	Extents             []Extent
	ConstructionMethod   ConstructionMethod

	InlineData []byte

	Name        string
	ContentType string

	Config *Av1Config

	Associations []PropertyAssociation

	// Width/Height are the item's `ispe` dimensions, set by package bmff's
	// resolver; clap, irot and imir are not applied to them.
	Width, Height int
}

// FindReference returns the single reference of the given type, or nil.
func (it *Item) FindReference(typ string) *ItemReference {
	for i := range it.References {
		if it.References[i].Type == typ {
			return &it.References[i]
		}
	}
	return nil
}

// PropertyKind tags which arm of Property is populated.
type PropertyKind int

const (
	PropUnused PropertyKind = iota
	PropSpatialExtents
	PropPixelInformation
	PropCodecConfiguration
	PropColourInformation
	PropAuxiliaryType
	PropRotation
	PropMirror
	PropCleanAperture
	PropPixelAspectRatio
	PropContentLightLevel
	PropContentRange
)

// Property is a tagged-variant item property.
type Property struct {
	Kind PropertyKind

	// PropSpatialExtents.
	Width, Height uint32

	// PropPixelInformation.
	ChannelDepths []uint8

	// PropCodecConfiguration.
	Config *Av1Config

	// PropColourInformation.
	NCLX *NCLX
	ICC  []byte

	// PropAuxiliaryType.
	AuxType string
	AuxSubtype []byte

	// PropRotation: 0..3 counter-clockwise quarter turns.
	Rotation int

	// PropMirror: 0 = top-to-bottom, 1 = left-to-right.
	Mirror int

	// PropCleanAperture.
	CleanAperture *CleanApertureBox

	// PropPixelAspectRatio.
	PixelAspectRatio *PixelAspectRatio

	// PropContentLightLevel.
	CLLI *ContentLightLevel

	// PropContentRange: true for full range.
	FullRange bool
}

// WellKnownAlphaURN is the MIAF-registered auxiliary type URN for alpha
// planes. The match is case-sensitive. Exported so package encoder can
// author it without re-deriving the string.
const WellKnownAlphaURN = "urn:mpeg:mpegB:cicp:systems:auxiliary:alpha"

// IsAlphaURN reports whether s is the well-known alpha auxiliary type URN,
// using a case-sensitive comparison.
func IsAlphaURN(s string) bool { return s == WellKnownAlphaURN }
