/*
NAME
  y4m.go

DESCRIPTION
  y4m.go implements a minimal Y4M (YUV4MPEG2) reader/writer, the
  uncompressed raw-plane container avifctl uses as its CLI-facing pixel
  format: spec.md §1 names Y4M as an out-of-core-scope "format-specific
  file reader/writer", so this thin, CLI-local implementation is the
  right layer for it rather than the avif package itself.

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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ausocean/avif"
)

// y4mHeader carries the parsed "YUV4MPEG2 ..." stream header fields this
// tool needs to size and interpret subsequent FRAME payloads.
type y4mHeader struct {
	width, height int
	format        avif.PixelFormat
	depth         int
}

// readY4MHeader reads and parses the single stream header line.
func readY4MHeader(r *bufio.Reader) (y4mHeader, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return y4mHeader{}, fmt.Errorf("y4m: reading header: %w", err)
	}
	fields := strings.Fields(strings.TrimSuffix(line, "\n"))
	if len(fields) == 0 || fields[0] != "YUV4MPEG2" {
		return y4mHeader{}, fmt.Errorf("y4m: missing YUV4MPEG2 magic")
	}
	h := y4mHeader{format: avif.FormatYUV420, depth: 8}
	for _, f := range fields[1:] {
		if f == "" {
			continue
		}
		switch f[0] {
		case 'W':
			h.width, err = strconv.Atoi(f[1:])
		case 'H':
			h.height, err = strconv.Atoi(f[1:])
		case 'C':
			h.format, h.depth, err = parseY4MColorspace(f[1:])
		}
		if err != nil {
			return y4mHeader{}, fmt.Errorf("y4m: parsing header field %q: %w", f, err)
		}
	}
	if h.width <= 0 || h.height <= 0 {
		return y4mHeader{}, fmt.Errorf("y4m: missing W/H header fields")
	}
	return h, nil
}

// parseY4MColorspace maps a Y4M Cxxx tag to the (format, depth) pair
// avif.Image needs. Only the planar 4:2:0/4:2:2/4:4:4/mono tags this
// repo's encode path can produce are recognised.
func parseY4MColorspace(tag string) (avif.PixelFormat, int, error) {
	switch tag {
	case "420", "420jpeg", "420mpeg2", "420paldv":
		return avif.FormatYUV420, 8, nil
	case "422":
		return avif.FormatYUV422, 8, nil
	case "444":
		return avif.FormatYUV444, 8, nil
	case "mono":
		return avif.FormatYUV400, 8, nil
	case "420p10":
		return avif.FormatYUV420, 10, nil
	case "422p10":
		return avif.FormatYUV422, 10, nil
	case "444p10":
		return avif.FormatYUV444, 10, nil
	case "420p12":
		return avif.FormatYUV420, 12, nil
	case "422p12":
		return avif.FormatYUV422, 12, nil
	case "444p12":
		return avif.FormatYUV444, 12, nil
	default:
		return avif.FormatNone, 0, fmt.Errorf("unsupported colorspace tag %q", tag)
	}
}

// y4mColorspaceTag is the inverse of parseY4MColorspace, used when writing
// a header for a decoded avif.Image.
func y4mColorspaceTag(format avif.PixelFormat, depth int) (string, error) {
	suffix := ""
	switch depth {
	case 8:
	case 10:
		suffix = "p10"
	case 12:
		suffix = "p12"
	default:
		return "", fmt.Errorf("y4m: cannot represent depth %d", depth)
	}
	switch format {
	case avif.FormatYUV420:
		return "420" + suffix, nil
	case avif.FormatYUV422:
		return "422" + suffix, nil
	case avif.FormatYUV444:
		return "444" + suffix, nil
	case avif.FormatYUV400:
		return "mono", nil
	default:
		return "", fmt.Errorf("y4m: cannot represent pixel format %v", format)
	}
}

// readY4MFrame reads one "FRAME" marker plus its raw plane payload,
// allocating an owned avif.Image sized per h, with chroma planes reduced by
// h.format's chroma shift.
func readY4MFrame(r *bufio.Reader, h y4mHeader) (*avif.Image, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err // io.EOF at end of stream propagates unchanged.
	}
	if !strings.HasPrefix(line, "FRAME") {
		return nil, fmt.Errorf("y4m: expected FRAME marker, got %q", line)
	}

	bytesPerSample := 1
	if h.depth > 8 {
		bytesPerSample = 2
	}
	shiftX, shiftY := h.format.ChromaShift()
	planeCount := h.format.PlaneCount()

	img := &avif.Image{
		Width: h.width, Height: h.height, Depth: h.depth,
		Format: h.format, YUVRange: avif.RangeLimited,
	}
	dims := [3][2]int{{h.width, h.height}}
	if planeCount == 3 {
		cw, ch := h.width>>shiftX, h.height>>shiftY
		dims[1] = [2]int{cw, ch}
		dims[2] = [2]int{cw, ch}
	}
	for i := 0; i < planeCount; i++ {
		w, ht := dims[i][0], dims[i][1]
		rowBytes := w * bytesPerSample
		buf := make([]byte, rowBytes*ht)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("y4m: reading plane %d: %w", i, err)
		}
		img.Planes[i] = &avif.Plane{Width: w, Height: ht, RowBytes: rowBytes, Depth: h.depth, Data: buf, Ownership: avif.PlaneOwned}
	}
	return img, nil
}

// writeY4MHeader writes the single stream header line describing img's
// shape; every frame written afterwards must share it.
func writeY4MHeader(w io.Writer, img *avif.Image) error {
	tag, err := y4mColorspaceTag(img.Format, img.Depth)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "YUV4MPEG2 W%d H%d F25:1 Ip A0:0 C%s\n", img.Width, img.Height, tag)
	return err
}

// writeY4MFrame writes one "FRAME" marker and img's raw colour planes.
func writeY4MFrame(w io.Writer, img *avif.Image) error {
	if _, err := io.WriteString(w, "FRAME\n"); err != nil {
		return err
	}
	for _, p := range img.YUVPlanes() {
		if _, err := w.Write(p.Data); err != nil {
			return err
		}
	}
	return nil
}
