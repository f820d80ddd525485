/*
NAME
  y4m_test.go

DESCRIPTION
  y4m_test.go verifies writeY4MHeader/writeY4MFrame round-trip through
  readY4MHeader/readY4MFrame byte-for-byte.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/avif"
)

func TestY4MRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		format avif.PixelFormat
		depth  int
		w, h   int
	}{
		{"420-8bit", avif.FormatYUV420, 8, 8, 6},
		{"444-8bit", avif.FormatYUV444, 8, 4, 4},
		{"422-8bit", avif.FormatYUV422, 8, 8, 4},
		{"mono-8bit", avif.FormatYUV400, 8, 6, 6},
		{"420-10bit", avif.FormatYUV420, 10, 8, 6},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := newTestImage(c.format, c.depth, c.w, c.h)

			var buf bytes.Buffer
			if err := writeY4MHeader(&buf, src); err != nil {
				t.Fatalf("writeY4MHeader: %v", err)
			}
			if err := writeY4MFrame(&buf, src); err != nil {
				t.Fatalf("writeY4MFrame: %v", err)
			}

			r := bufio.NewReader(&buf)
			hdr, err := readY4MHeader(r)
			if err != nil {
				t.Fatalf("readY4MHeader: %v", err)
			}
			if hdr.width != c.w || hdr.height != c.h || hdr.format != c.format || hdr.depth != c.depth {
				t.Fatalf("header mismatch: got %+v", hdr)
			}

			got, err := readY4MFrame(r, hdr)
			if err != nil {
				t.Fatalf("readY4MFrame: %v", err)
			}

			for i, p := range got.YUVPlanes() {
				want := src.Planes[i]
				if diff := cmp.Diff(want.Data, p.Data); diff != "" {
					t.Errorf("plane %d data mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func newTestImage(format avif.PixelFormat, depth, w, h int) *avif.Image {
	img := &avif.Image{Width: w, Height: h, Depth: depth, Format: format, YUVRange: avif.RangeLimited}
	bytesPerSample := 1
	if depth > 8 {
		bytesPerSample = 2
	}
	shiftX, shiftY := format.ChromaShift()
	dims := [3][2]int{{w, h}}
	if format.PlaneCount() == 3 {
		cw, ch := w>>shiftX, h>>shiftY
		dims[1] = [2]int{cw, ch}
		dims[2] = [2]int{cw, ch}
	}
	for i := 0; i < format.PlaneCount(); i++ {
		pw, ph := dims[i][0], dims[i][1]
		rowBytes := pw * bytesPerSample
		data := make([]byte, rowBytes*ph)
		for j := range data {
			data[j] = byte((i*31 + j) % 256)
		}
		img.Planes[i] = &avif.Plane{Width: pw, Height: ph, RowBytes: rowBytes, Depth: depth, Data: data, Ownership: avif.PlaneOwned}
	}
	return img
}
