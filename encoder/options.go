/*
NAME
  options.go

DESCRIPTION
  options.go buffers the `c:`/`a:`/`g:`-prefixed codec-specific key=value
  options spec.md §4.9 describes, merging them into the per-category map
  handed to a codec.Config.Extra field at encode time.

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
	"strings"

	"github.com/ausocean/avif"
)

// OptionSet buffers codec-specific options keyed by the category they
// target. Because this codec's codec.Config is handed to the back-end
// fresh on every EncodeImage call (there is no separate back-end
// Initialize step for encoders, unlike decoders), the spec's "buffered
// before first use, forwarded immediately after" distinction collapses
// into "always merged at call time" — For is called once per EncodeImage.
type OptionSet struct {
	all, color, alpha, gainMap map[string]string
}

// NewOptionSet returns an empty OptionSet.
func NewOptionSet() *OptionSet {
	return &OptionSet{
		all:     map[string]string{},
		color:   map[string]string{},
		alpha:   map[string]string{},
		gainMap: map[string]string{},
	}
}

// Set records one key=value option, targeting one category if key carries
// a c:/color:, a:/alpha: or g:/gainmap: prefix, or every category
// otherwise. An invalid option is not rejected here — spec.md requires the
// rejection to surface at the next encode call, via
// avif.ErrInvalidCodecSpecificOption from the back-end itself.
func (o *OptionSet) Set(key, value string) {
	bucket, trimmed := o.all, key
	switch {
	case strings.HasPrefix(key, "c:"):
		bucket, trimmed = o.color, strings.TrimPrefix(key, "c:")
	case strings.HasPrefix(key, "color:"):
		bucket, trimmed = o.color, strings.TrimPrefix(key, "color:")
	case strings.HasPrefix(key, "a:"):
		bucket, trimmed = o.alpha, strings.TrimPrefix(key, "a:")
	case strings.HasPrefix(key, "alpha:"):
		bucket, trimmed = o.alpha, strings.TrimPrefix(key, "alpha:")
	case strings.HasPrefix(key, "g:"):
		bucket, trimmed = o.gainMap, strings.TrimPrefix(key, "g:")
	case strings.HasPrefix(key, "gainmap:"):
		bucket, trimmed = o.gainMap, strings.TrimPrefix(key, "gainmap:")
	}
	bucket[trimmed] = value
}

// For returns the merged key=value map for cat: every unprefixed option,
// overridden by cat's own prefixed options.
func (o *OptionSet) For(cat avif.Category) map[string]string {
	merged := make(map[string]string, len(o.all))
	for k, v := range o.all {
		merged[k] = v
	}
	var specific map[string]string
	switch cat {
	case avif.CategoryColor:
		specific = o.color
	case avif.CategoryAlpha:
		specific = o.alpha
	case avif.CategoryGainMap:
		specific = o.gainMap
	}
	for k, v := range specific {
		merged[k] = v
	}
	return merged
}
