/*
NAME
  progressive.go

DESCRIPTION
  progressive.go validates a layered item's extent count against its
  declared extra-layer count and names the layered-item and cancellation
  helpers. It performs no per-layer dimension check.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import "github.com/ausocean/avif"

// validateLayeredItem checks that a layered item (ExtraLayerCount > 0)
// carries exactly one extent per layer, so NthImage/NextImage can index
// directly into it.Extents by layer number.
func validateLayeredItem(it *avif.Item) error {
	if it.ExtraLayerCount == 0 {
		return nil
	}
	want := it.ExtraLayerCount + 1
	if len(it.Extents) != want {
		return avif.ErrBMFFParseFailed("item %d declares %d extra layers but has %d extents", it.ID, it.ExtraLayerCount, len(it.Extents))
	}
	return nil
}

// IsLayered reports whether it is a progressive/layered item.
func IsLayered(it *avif.Item) bool { return it.ExtraLayerCount > 0 }

// Cancel stops a progressive decode early: the caller simply ceases
// issuing NextImage calls, per the request-level cancellation
// model — the last successfully decoded layer remains the valid, visible
// image the caller already holds. Cancel exists only to name that
// contract; it performs no action of its own.
func (d *Decoder) Cancel() {}
