/*
NAME
  settings.go

DESCRIPTION
  settings.go defines the mutable and immutable settings records an
  Encoder is configured with, mirroring the two-record split spec.md §6
  describes for encoder inputs.

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

import "github.com/ausocean/avif"

// TilingMode selects manual or automatic tile-row/column counts.
type TilingMode struct {
	Auto              bool
	Log2Rows, Log2Cols int
}

// Recipe names a bit-depth-extension sample-transform recipe.
type Recipe int

const (
	RecipeNone Recipe = iota
	Recipe8b8b
	Recipe12b4b
	RecipeAuto
)

// HeaderFormat selects a regular metabox tree or the mini low-overhead
// variant.
type HeaderFormat int

const (
	HeaderFull HeaderFormat = iota
	HeaderMinimized
)

// Repetition is an image sequence's loop count: either a finite count or
// the infinite-loop convention (a zero-duration `elst` segment).
type Repetition struct {
	Infinite bool
	Count    int
}

// MutableSettings may be changed between AddImage calls.
type MutableSettings struct {
	QualityColor   int // 0..100.
	QualityAlpha   int
	QualityGainMap int
	Tiling         TilingMode
	ScaleMode      avif.Fraction
}

// DefaultMutableSettings returns reasonable defaults: quality 90 across
// categories, automatic tiling, no scaling.
func DefaultMutableSettings() MutableSettings {
	return MutableSettings{
		QualityColor:   90,
		QualityAlpha:   90,
		QualityGainMap: 90,
		Tiling:         TilingMode{Auto: true},
		ScaleMode:      avif.Fraction{N: 1, D: 1},
	}
}

// ImmutableSettings are fixed for an Encoder's lifetime: NewEncoder takes
// them once and Encoder has no method that changes them.
type ImmutableSettings struct {
	Codec            string // registry name passed to codec.Lookup.
	Threads          int
	Speed            int // 0..10.
	KeyframeInterval int
	Timescale        uint32
	Repetition       Repetition
	ExtraLayerCount  int
	Recipe           Recipe
	HeaderFormat     HeaderFormat
	CreationTime     int64 // Unix epoch seconds, 0 means unset.
	ModificationTime int64
}

// DefaultImmutableSettings returns the reference backend at speed 6 with a
// 1000Hz timescale, no looping, full metabox headers.
func DefaultImmutableSettings() ImmutableSettings {
	return ImmutableSettings{
		Codec:        "ref",
		Threads:      1,
		Speed:        6,
		Timescale:    1000,
		HeaderFormat: HeaderFull,
	}
}
