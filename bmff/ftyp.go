/*
NAME
  ftyp.go

DESCRIPTION
  ftyp.go validates the top-level file-type box's major and compatible
  brands against the recognized AVIF/HEIF brand set.

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
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// recognizedBrands lists the brands this codec recognizes,
// excluding mif3 which triggers the mini (low-overhead) dispatch instead
// of regular meta parsing.
var recognizedBrands = map[string]bool{
	"avif": true,
	"avis": true,
	"mif1": true,
	"miaf": true,
	"msf1": true,
	"iso8": true,
	"MA1A": true,
	"MA1B": true,
	"tmap": true,
	"av2f": true,
	"av2s": true,
	"hxlI": true,
	"hxlS": true,
}

// FileType is the decoded `ftyp` box.
type FileType struct {
	MajorBrand       string
	MinorVersion     uint32
	CompatibleBrands []string
}

// IsMini reports whether this ftyp selects the mini (low-overhead)
// container variant.
func (f FileType) IsMini() bool { return f.MajorBrand == "mif3" }

// parseFtyp decodes an `ftyp` box body and validates that the major brand
// or one of the compatible brands is recognized.
func parseFtyp(body *bitio.ByteReader) (FileType, error) {
	major, err := body.ReadBytes(4)
	if err != nil {
		return FileType{}, avif.ErrInvalidFtyp()
	}
	minor, err := body.ReadU32()
	if err != nil {
		return FileType{}, avif.ErrInvalidFtyp()
	}
	ft := FileType{MajorBrand: string(major), MinorVersion: minor}

	for body.Len() >= 4 {
		b, err := body.ReadBytes(4)
		if err != nil {
			return FileType{}, avif.ErrInvalidFtyp()
		}
		ft.CompatibleBrands = append(ft.CompatibleBrands, string(b))
	}

	if ft.MajorBrand == "mif3" {
		return ft, nil // mini dispatch validates its own brand set.
	}
	if recognizedBrands[ft.MajorBrand] {
		return ft, nil
	}
	for _, b := range ft.CompatibleBrands {
		if recognizedBrands[b] {
			return ft, nil
		}
	}
	return FileType{}, avif.ErrInvalidFtyp()
}
