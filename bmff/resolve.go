/*
NAME
  resolve.go

DESCRIPTION
  resolve.go computes each item's effective category, dimensions and AV1
  configuration from its resolved property associations, and enforces the
  RequireAlphaIspe strictness rule.

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
)

// ResolveItems walks every item in r.Model, attaching its av1C config and
// effective spatial extents, and reclassifying auxiliary items (alpha,
// gain map) out of the default color category.
func (r *Reader) ResolveItems() error {
	for _, it := range r.Model.Items {
		props, err := r.Model.PropertiesOf(it)
		if err != nil {
			return err
		}

		var haveIspe bool
		for _, p := range props {
			switch p.Kind {
			case avif.PropSpatialExtents:
				it.Width, it.Height = int(p.Width), int(p.Height)
				haveIspe = true
			case avif.PropCodecConfiguration:
				it.Config = p.Config
			case avif.PropAuxiliaryType:
				if avif.IsAlphaURN(p.AuxType) {
					it.Category = avif.CategoryAlpha
				}
			}
		}

		if it.Type == "av01" && !haveIspe && r.strict.RequireAlphaIspe && it.Category == avif.CategoryAlpha {
			return avif.ErrIspeSizeMismatch()
		}
	}

	r.resolveGainMapItems()
	return nil
}

// resolveGainMapItems reclassifies the second dimg input of every `tmap`
// tone-mapped-image item as a gain map, since tmap's second dimg input by
// convention is the gain map plane rather than a second color image.
// Entity groups are not consulted.
func (r *Reader) resolveGainMapItems() {
	for _, it := range r.Model.Items {
		if it.Type != "tmap" {
			continue
		}
		if len(it.DimgInputs) < 2 {
			continue
		}
		if gm := r.Model.ByID(it.DimgInputs[1]); gm != nil {
			gm.Category = avif.CategoryGainMap
		}
	}
}
