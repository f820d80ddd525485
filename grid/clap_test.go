/*
NAME
  clap_test.go

DESCRIPTION
  See Readme.md

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package grid

import (
	"testing"

	"github.com/ausocean/avif"
)

func fr(n int32, d uint32) avif.Fraction { return avif.Fraction{N: n, D: d} }

func TestCropRectFromClap(t *testing.T) {
	type testCase struct {
		name                      string
		imageWidth, imageHeight   uint32
		format                    avif.PixelFormat
		clap                      avif.CleanApertureBox
		want                      *CropRect
	}

	cases := []testCase{
		{"basic", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)},
			&CropRect{X: 12, Y: 14, Width: 96, Height: 132}},
		{"negative offset", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(60, 1), Height: fr(80, 1), HorizOff: fr(-30, 1), VertOff: fr(-40, 1)},
			&CropRect{X: 0, Y: 0, Width: 60, Height: 80}},
		{"fractional offset resolving to integer origin", 100, 100, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(99, 1), Height: fr(99, 1), HorizOff: fr(-1, 2), VertOff: fr(-1, 2)},
			&CropRect{X: 0, Y: 0, Width: 99, Height: 99}},
		{"zero width denominator", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 0), Height: fr(132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"negative width", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(-96, 1), Height: fr(132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"zero height denominator", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(132, 0), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"negative height", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(-132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"zero horiz_off denominator", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(132, 1), HorizOff: fr(0, 0), VertOff: fr(0, 1)}, nil},
		{"zero vert_off denominator", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 0)}, nil},
		{"width not integer", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 5), Height: fr(132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"height not integer", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(132, 5), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"zero width", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(0, 1), Height: fr(132, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"zero height", 120, 160, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(96, 1), Height: fr(0, 1), HorizOff: fr(0, 1), VertOff: fr(0, 1)}, nil},
		{"non-integer origin, portrait", 722, 1024, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(385, 1), Height: fr(330, 1), HorizOff: fr(103, 1), VertOff: fr(-308, 1)}, nil},
		{"non-integer origin, landscape", 1024, 722, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(330, 1), Height: fr(385, 1), HorizOff: fr(-308, 1), VertOff: fr(103, 1)}, nil},
		{"non-integer origin from smaller image", 99, 99, avif.FormatYUV420,
			avif.CleanApertureBox{Width: fr(99, 1), Height: fr(99, 1), HorizOff: fr(-1, 2), VertOff: fr(-1, 2)}, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := CropRectFromClap(c.clap, c.imageWidth, c.imageHeight, c.format)
			if c.want == nil {
				if err == nil {
					t.Fatalf("CropRectFromClap() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CropRectFromClap() unexpected error: %v", err)
			}
			if got != *c.want {
				t.Errorf("CropRectFromClap() = %+v, want %+v", got, *c.want)
			}
		})
	}
}
