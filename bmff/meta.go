/*
NAME
  meta.go

DESCRIPTION
  meta.go parses the `meta` box subtree (hdlr, pitm, iloc, iinf/infe, iref,
  iprp/ipco/ipma, grpl, idat) into an avif.ItemModel.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bmff

import (
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// locEntry is one iloc item location entry, resolved to absolute extents
// once the surrounding meta box's base offsets are known.
type locEntry struct {
	itemID             uint32
	constructionMethod avif.ConstructionMethod
	baseOffset         uint64
	extents            []avif.Extent
}

// parseMeta decodes a top-level or track-scoped `meta` box, populating
// r.Model with items, properties, associations and entity groups. iloc
// extents with ConstructionFile are kept as absolute file offsets, which is
// how ItemData reads them.
func (r *Reader) parseMeta(body *bitio.ByteReader) error {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return err
	}

	var (
		locs      []locEntry
		irefs     = map[uint32][]avif.ItemReference{}
		props     []avif.Property
		assocs    = map[uint32][]avif.PropertyAssociation{}
		infeItems = map[uint32]*avif.Item{}
	)

	err := eachChildBox(body, func(b box) error {
		switch b.typ {
		case "hdlr":
			return nil // handler type not semantically load-bearing here.
		case "pitm":
			id, err := parsePitm(b.body)
			if err != nil {
				return err
			}
			r.Model.PrimaryItemID = id
			return nil
		case "iloc":
			ls, err := parseIloc(b.body)
			if err != nil {
				return err
			}
			locs = ls
			return nil
		case "iinf":
			items, err := parseIinf(b.body)
			if err != nil {
				return err
			}
			for _, it := range items {
				infeItems[it.ID] = it
			}
			return nil
		case "iref":
			m, err := parseIref(b.body)
			if err != nil {
				return err
			}
			irefs = m
			return nil
		case "iprp":
			p, a, err := parseIprp(b.body)
			if err != nil {
				return err
			}
			props = p
			assocs = a
			return nil
		case "grpl":
			return r.parseGrpl(b.body)
		case "idat":
			buf, err := b.body.ReadBytes(b.body.Len())
			if err != nil {
				return err
			}
			r.idatPool = buf
			return nil
		default:
			return nil // unrecognized boxes at this level are skipped.
		}
	})
	if err != nil {
		return err
	}

	locByID := make(map[uint32]locEntry, len(locs))
	for _, l := range locs {
		locByID[l.itemID] = l
	}

	for id, it := range infeItems {
		loc, ok := locByID[id]
		if ok {
			it.ConstructionMethod = loc.constructionMethod
			it.Extents = loc.extents
		}
		if refs, ok := irefs[id]; ok {
			it.References = refs
			for _, ref := range refs {
				if ref.Type == "dimg" {
					it.DimgInputs = ref.To
				}
			}
		}
		if a, ok := assocs[id]; ok {
			it.Associations = a
		}
		if err := r.Model.AddItem(it); err != nil {
			return err
		}
	}
	r.Model.Properties = append(r.Model.Properties, props...)

	return r.Model.ValidateReferences()
}

// parsePitm decodes the `pitm` primary-item box.
func parsePitm(body *bitio.ByteReader) (uint32, error) {
	version, _, err := readFullBoxHeader(body)
	if err != nil {
		return 0, err
	}
	if version == 0 {
		v, err := body.ReadU16()
		return uint32(v), err
	}
	return body.ReadU32()
}

// parseIloc decodes the `iloc` item-location box (ISO/IEC 14496-12 §8.11.3),
// resolving each item's extents to construction method + offset/length
// pairs.
func parseIloc(body *bitio.ByteReader) ([]locEntry, error) {
	version, _, err := readFullBoxHeader(body)
	if err != nil {
		return nil, err
	}
	sizes, err := body.ReadU8()
	if err != nil {
		return nil, err
	}
	offsetSize := int(sizes >> 4)
	lengthSize := int(sizes & 0xf)

	sizes2, err := body.ReadU8()
	if err != nil {
		return nil, err
	}
	baseOffsetSize := int(sizes2 >> 4)
	indexSize := int(sizes2 & 0xf)
	_ = indexSize // construction method 2 (idat-indexed-by-index) unused here.

	var itemCount uint32
	if version < 2 {
		v, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		itemCount = uint32(v)
	} else {
		itemCount, err = body.ReadU32()
		if err != nil {
			return nil, err
		}
	}

	out := make([]locEntry, 0, itemCount)
	for i := uint32(0); i < itemCount; i++ {
		var itemID uint32
		if version < 2 {
			v, err := body.ReadU16()
			if err != nil {
				return nil, err
			}
			itemID = uint32(v)
		} else {
			itemID, err = body.ReadU32()
			if err != nil {
				return nil, err
			}
		}

		method := avif.ConstructionFile
		if version == 1 || version == 2 {
			v, err := body.ReadU16()
			if err != nil {
				return nil, err
			}
			method = avif.ConstructionMethod(v & 0xf)
			if method != avif.ConstructionFile && method != avif.ConstructionIdat {
				return nil, avif.ErrBMFFParseFailed("iloc construction method %d unsupported", method)
			}
		}

		if _, err := body.ReadU16(); err != nil { // data_reference_index
			return nil, err
		}

		baseOffset, err := readSizedUint(body, baseOffsetSize)
		if err != nil {
			return nil, err
		}

		extentCount, err := body.ReadU16()
		if err != nil {
			return nil, err
		}

		extents := make([]avif.Extent, 0, extentCount)
		for e := 0; e < int(extentCount); e++ {
			off, err := readSizedUint(body, offsetSize)
			if err != nil {
				return nil, err
			}
			length, err := readSizedUint(body, lengthSize)
			if err != nil {
				return nil, err
			}
			extents = append(extents, avif.Extent{Offset: baseOffset + off, Length: length})
		}

		out = append(out, locEntry{
			itemID:             itemID,
			constructionMethod: method,
			baseOffset:         baseOffset,
			extents:            extents,
		})
	}
	return out, nil
}

// readSizedUint reads an n-byte (0, 4 or 8) big-endian unsigned integer, the
// variable-width scheme iloc uses throughout.
func readSizedUint(r *bitio.ByteReader, n int) (uint64, error) {
	switch n {
	case 0:
		return 0, nil
	case 4:
		v, err := r.ReadU32()
		return uint64(v), err
	case 8:
		return r.ReadU64()
	default:
		v, err := r.ReadUxx(n)
		return v, err
	}
}

// parseIinf decodes the `iinf` item-info box, returning one avif.Item per
// `infe` child with Type/Category/Hidden/Name/ContentType populated. Extents
// and references are filled in later by the caller once iloc/iref are known.
func parseIinf(body *bitio.ByteReader) ([]*avif.Item, error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return nil, err
	}
	if _, err := body.ReadU16(); err != nil { // entry_count (u16 form only supported)
		return nil, err
	}

	var items []*avif.Item
	err := eachChildBox(body, func(b box) error {
		if b.typ != "infe" {
			return nil
		}
		it, err := parseInfe(b.body)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// parseInfe decodes one `infe` item-info-entry box.
func parseInfe(body *bitio.ByteReader) (*avif.Item, error) {
	version, flags, err := readFullBoxHeader(body)
	if err != nil {
		return nil, err
	}
	if version < 2 {
		return nil, avif.ErrBMFFParseFailed("infe version %d unsupported", version)
	}

	var id uint32
	if version == 2 {
		v, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		id = uint32(v)
	} else {
		id, err = body.ReadU32()
		if err != nil {
			return nil, err
		}
	}
	if _, err := body.ReadU16(); err != nil { // item_protection_index
		return nil, err
	}
	typBytes, err := body.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	typ := string(typBytes)

	name, err := body.ReadCString()
	if err != nil {
		return nil, err
	}
	name = norm.NFC.String(name)

	var contentType string
	if typ == "mime" {
		ct, err := body.ReadCString()
		if err != nil {
			return nil, err
		}
		contentType = norm.NFC.String(ct)
	}

	return &avif.Item{
		ID:          id,
		Type:        typ,
		Category:    categoryForType(typ),
		Hidden:      flags&0x1 != 0,
		Name:        name,
		ContentType: contentType,
	}, nil
}

// categoryForType maps an item's box-4cc type to the category its pixel
// content plays in an image item (color, alpha or gain map is resolved
// later from aux-type/entity-group context; this assigns the default).
func categoryForType(typ string) avif.Category {
	switch typ {
	case "av01", "grid", "tmap", "iovl":
		return avif.CategoryColor
	default:
		return avif.CategoryColor
	}
}

// parseIref decodes the `iref` item-reference box into a map from the
// referencing item's ID to its outgoing references.
func parseIref(body *bitio.ByteReader) (map[uint32][]avif.ItemReference, error) {
	version, _, err := readFullBoxHeader(body)
	if err != nil {
		return nil, err
	}
	out := map[uint32][]avif.ItemReference{}
	err = eachChildBox(body, func(b box) error {
		typ := b.typ
		var fromID uint32
		if version == 0 {
			v, err := b.body.ReadU16()
			if err != nil {
				return err
			}
			fromID = uint32(v)
		} else {
			fromID, err = b.body.ReadU32()
			if err != nil {
				return err
			}
		}
		refCount, err := b.body.ReadU16()
		if err != nil {
			return err
		}
		to := make([]uint32, 0, refCount)
		for i := 0; i < int(refCount); i++ {
			var toID uint32
			if version == 0 {
				v, err := b.body.ReadU16()
				if err != nil {
					return err
				}
				toID = uint32(v)
			} else {
				toID, err = b.body.ReadU32()
				if err != nil {
					return err
				}
			}
			to = append(to, toID)
		}
		out[fromID] = append(out[fromID], avif.ItemReference{Type: typ, To: to})
		return nil
	})
	return out, err
}

// parseIprp decodes the `iprp` item-properties box: its `ipco` container of
// property definitions and its `ipma` item-property-association table.
func parseIprp(body *bitio.ByteReader) ([]avif.Property, map[uint32][]avif.PropertyAssociation, error) {
	var props []avif.Property
	assocs := map[uint32][]avif.PropertyAssociation{}

	err := eachChildBox(body, func(b box) error {
		switch b.typ {
		case "ipco":
			p, err := parseIpco(b.body)
			if err != nil {
				return err
			}
			props = p
			return nil
		case "ipma":
			a, err := parseIpma(b.body)
			if err != nil {
				return err
			}
			assocs = a
			return nil
		default:
			return nil
		}
	})
	return props, assocs, err
}

// parseIpco decodes the `ipco` item-property container, returning one
// avif.Property per child box in declaration order (1-based indices into
// this slice are what ipma associations reference).
func parseIpco(body *bitio.ByteReader) ([]avif.Property, error) {
	var out []avif.Property
	err := eachChildBox(body, func(b box) error {
		p, err := parseProperty(b)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// parseProperty decodes a single child of ipco into an avif.Property. Box
// types not representing a property this codec acts on are kept as an
// Unknown-kind placeholder so ipma indices still line up.
func parseProperty(b box) (avif.Property, error) {
	switch b.typ {
	case "ispe":
		if _, _, err := readFullBoxHeader(b.body); err != nil {
			return avif.Property{}, err
		}
		w, err := b.body.ReadU32()
		if err != nil {
			return avif.Property{}, err
		}
		h, err := b.body.ReadU32()
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropSpatialExtents, Width: w, Height: h}, nil

	case "pixi":
		if _, _, err := readFullBoxHeader(b.body); err != nil {
			return avif.Property{}, err
		}
		n, err := b.body.ReadU8()
		if err != nil {
			return avif.Property{}, err
		}
		depths := make([]uint8, n)
		for i := range depths {
			d, err := b.body.ReadU8()
			if err != nil {
				return avif.Property{}, err
			}
			depths[i] = d
		}
		return avif.Property{Kind: avif.PropPixelInformation, ChannelDepths: depths}, nil

	case "av1C":
		cfg, err := ParseAv1C(b.body)
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropCodecConfiguration, Config: &cfg}, nil

	case "auxC":
		auxType, err := b.body.ReadCString()
		if err != nil {
			return avif.Property{}, err
		}
		rest, err := b.body.ReadBytes(b.body.Len())
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropAuxiliaryType, AuxType: auxType, AuxSubtype: rest}, nil

	case "colr":
		return parseColr(b.body)

	case "irot":
		v, err := b.body.ReadU8()
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropRotation, Rotation: int(v & 0x3)}, nil

	case "imir":
		v, err := b.body.ReadU8()
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropMirror, Mirror: int(v & 0x1)}, nil

	case "clap":
		return parseClap(b.body)

	case "pasp":
		hs, err := b.body.ReadU32()
		if err != nil {
			return avif.Property{}, err
		}
		vs, err := b.body.ReadU32()
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropPixelAspectRatio, PixelAspectRatio: &avif.PixelAspectRatio{HSpacing: hs, VSpacing: vs}}, nil

	case "clli":
		maxCLL, err := b.body.ReadU16()
		if err != nil {
			return avif.Property{}, err
		}
		maxPALL, err := b.body.ReadU16()
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropContentLightLevel, CLLI: &avif.ContentLightLevel{MaxCLL: maxCLL, MaxPALL: maxPALL}}, nil

	default:
		return avif.Property{Kind: avif.PropUnused}, nil
	}
}

// ParseAv1C decodes the `av1C` AV1 codec configuration box. Exported so
// package mini can parse inline codec-config bytes without duplicating the
// bit layout.
func ParseAv1C(body *bitio.ByteReader) (avif.Av1Config, error) {
	b0, err := body.ReadU8()
	if err != nil {
		return avif.Av1Config{}, err
	}
	if b0>>7 != 1 {
		return avif.Av1Config{}, avif.ErrBMFFParseFailed("av1C marker bit not set")
	}
	b1, err := body.ReadU8()
	if err != nil {
		return avif.Av1Config{}, err
	}
	b2, err := body.ReadU8()
	if err != nil {
		return avif.Av1Config{}, err
	}
	var seqTier0 uint8
	if b2>>7 != 0 {
		seqTier0 = 1
	}
	cfg := avif.Av1Config{
		SeqProfile:           b1 >> 5,
		SeqLevelIdx0:         b1 & 0x1f,
		SeqTier0:             seqTier0,
		HighBitdepth:         b2&0x40 != 0,
		TwelveBit:            b2&0x20 != 0,
		Monochrome:           b2&0x10 != 0,
		ChromaSubsamplingX:   (b2 >> 3) & 0x1,
		ChromaSubsamplingY:   (b2 >> 2) & 0x1,
		ChromaSamplePosition: b2 & 0x3,
	}
	rest, err := body.ReadBytes(body.Len())
	if err != nil {
		return avif.Av1Config{}, err
	}
	cfg.ConfigOBUs = rest
	return cfg, nil
}

// parseColr decodes the `colr` colour-information box, both its nclx and
// ICC-profile forms.
func parseColr(body *bitio.ByteReader) (avif.Property, error) {
	colorType, err := body.ReadBytes(4)
	if err != nil {
		return avif.Property{}, err
	}
	switch string(colorType) {
	case "nclx":
		cp, err := body.ReadU16()
		if err != nil {
			return avif.Property{}, err
		}
		tc, err := body.ReadU16()
		if err != nil {
			return avif.Property{}, err
		}
		mc, err := body.ReadU16()
		if err != nil {
			return avif.Property{}, err
		}
		rangeByte, err := body.ReadU8()
		if err != nil {
			return avif.Property{}, err
		}
		n := &avif.NCLX{
			ColourPrimaries:         cp,
			TransferCharacteristics: tc,
			MatrixCoefficients:      mc,
			FullRange:               rangeByte>>7 != 0,
		}
		return avif.Property{Kind: avif.PropColourInformation, NCLX: n, FullRange: n.FullRange}, nil
	case "rICC", "prof":
		icc, err := body.ReadBytes(body.Len())
		if err != nil {
			return avif.Property{}, err
		}
		return avif.Property{Kind: avif.PropColourInformation, ICC: icc}, nil
	default:
		return avif.Property{Kind: avif.PropUnused}, nil
	}
}

// parseClap decodes the `clap` clean-aperture box's four rational fields.
func parseClap(body *bitio.ByteReader) (avif.Property, error) {
	readFrac := func() (avif.Fraction, error) {
		n, err := body.ReadU32()
		if err != nil {
			return avif.Fraction{}, err
		}
		d, err := body.ReadU32()
		if err != nil {
			return avif.Fraction{}, err
		}
		return avif.NewFraction(int32(n), d)
	}
	w, err := readFrac()
	if err != nil {
		return avif.Property{}, err
	}
	h, err := readFrac()
	if err != nil {
		return avif.Property{}, err
	}
	ho, err := readFrac()
	if err != nil {
		return avif.Property{}, err
	}
	vo, err := readFrac()
	if err != nil {
		return avif.Property{}, err
	}
	return avif.Property{Kind: avif.PropCleanAperture, CleanAperture: &avif.CleanApertureBox{
		Width: w, Height: h, HorizOff: ho, VertOff: vo,
	}}, nil
}

// parseIpma decodes the `ipma` item-property-association box into a map
// from item ID to its ordered property associations.
func parseIpma(body *bitio.ByteReader) (map[uint32][]avif.PropertyAssociation, error) {
	version, flags, err := readFullBoxHeader(body)
	if err != nil {
		return nil, err
	}
	largeIndex := flags&0x1 != 0

	entryCount, err := body.ReadU32()
	if err != nil {
		return nil, err
	}

	out := make(map[uint32][]avif.PropertyAssociation, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		var itemID uint32
		if version == 0 {
			v, err := body.ReadU16()
			if err != nil {
				return nil, err
			}
			itemID = uint32(v)
		} else {
			itemID, err = body.ReadU32()
			if err != nil {
				return nil, err
			}
		}

		assocCount, err := body.ReadU8()
		if err != nil {
			return nil, err
		}

		assocs := make([]avif.PropertyAssociation, 0, assocCount)
		for a := 0; a < int(assocCount); a++ {
			if largeIndex {
				v, err := body.ReadU16()
				if err != nil {
					return nil, err
				}
				assocs = append(assocs, avif.PropertyAssociation{
					Essential:     v&0x8000 != 0,
					PropertyIndex: int(v & 0x7fff),
				})
			} else {
				v, err := body.ReadU8()
				if err != nil {
					return nil, err
				}
				assocs = append(assocs, avif.PropertyAssociation{
					Essential:     v&0x80 != 0,
					PropertyIndex: int(v & 0x7f),
				})
			}
		}
		out[itemID] = assocs
	}
	return out, nil
}

// parseGrpl decodes the `grpl` entity-group-list box, recording each group
// into r.Model.EntityGroups.
func (r *Reader) parseGrpl(body *bitio.ByteReader) error {
	return eachChildBox(body, func(b box) error {
		version, _, err := readFullBoxHeader(b.body)
		if err != nil {
			return err
		}
		typ := b.typ

		var id uint32
		if version == 0 {
			v, err := b.body.ReadU16()
			if err != nil {
				return err
			}
			id = uint32(v)
		} else {
			id, err = b.body.ReadU32()
			if err != nil {
				return err
			}
		}

		count, err := b.body.ReadU32()
		if err != nil {
			return err
		}
		members := make([]uint32, 0, count)
		for i := uint32(0); i < count; i++ {
			m, err := b.body.ReadU32()
			if err != nil {
				return err
			}
			members = append(members, m)
		}
		r.Model.EntityGroups = append(r.Model.EntityGroups, avif.EntityGroup{
			Type: typ, ID: id, Members: members,
		})
		return nil
	})
}

// resolveExtents returns an item's extents after checking its construction
// method: ConstructionFile extents are returned as they are (absolute file
// offsets), ConstructionIdat extents are checked against the idat pool and
// returned still relative to it, and any other method is an error.
// metaFileOffset is not used.
func (r *Reader) resolveExtents(it *avif.Item, metaFileOffset uint64) ([]avif.Extent, error) {
	switch it.ConstructionMethod {
	case avif.ConstructionFile:
		return it.Extents, nil
	case avif.ConstructionIdat:
		out := make([]avif.Extent, len(it.Extents))
		for i, e := range it.Extents {
			if e.Offset+e.Length > uint64(len(r.idatPool)) {
				return nil, avif.ErrTruncatedData()
			}
			out[i] = e
		}
		return out, nil
	default:
		return nil, errors.Errorf("bmff: unsupported construction method %d", it.ConstructionMethod)
	}
}
