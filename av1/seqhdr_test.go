/*
NAME
  seqhdr_test.go

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

package av1

import (
	"testing"

	"github.com/ausocean/avif"
)

// hand-packed reduced-still-picture sequence header: profile 0, 120x160,
// 8-bit 4:2:0, full range, vertical chroma sample position.
var reducedStillPictureSeqHdr = []byte{
	0x0a, 0x06, // OBU header: type=sequence_header, has_size_field=1, size=6
	0x18, 0x1d, 0xdd, 0xe7, 0xc0, 0x14,
}

func TestParseSequenceHeaderFromOBUs(t *testing.T) {
	h, err := ParseSequenceHeaderFromOBUs(reducedStillPictureSeqHdr)
	if err != nil {
		t.Fatalf("ParseSequenceHeaderFromOBUs: %v", err)
	}
	if h.SeqProfile != 0 {
		t.Errorf("SeqProfile = %d, want 0", h.SeqProfile)
	}
	if h.MaxWidth != 120 || h.MaxHeight != 160 {
		t.Errorf("dimensions = %dx%d, want 120x160", h.MaxWidth, h.MaxHeight)
	}
	if h.HighBitdepth || h.TwelveBit || h.Monochrome {
		t.Errorf("expected 8-bit non-monochrome, got %+v", h)
	}
	if h.ChromaSubsamplingX != 1 || h.ChromaSubsamplingY != 1 {
		t.Errorf("chroma subsampling = %d,%d, want 1,1", h.ChromaSubsamplingX, h.ChromaSubsamplingY)
	}
	if h.PixelFormat != avif.FormatYUV420 {
		t.Errorf("PixelFormat = %v, want FormatYUV420", h.PixelFormat)
	}
	if !h.FullRange {
		t.Error("expected FullRange = true")
	}
	if h.ChromaSamplePosition != avif.ChromaSampleVertical {
		t.Errorf("ChromaSamplePosition = %v, want ChromaSampleVertical", h.ChromaSamplePosition)
	}
}

func TestParseSequenceHeaderFromOBUsSkipsOtherOBUs(t *testing.T) {
	data := append([]byte{obuHeaderByte(ObuTemporalDelimiter), 0x00}, reducedStillPictureSeqHdr...)
	h, err := ParseSequenceHeaderFromOBUs(data)
	if err != nil {
		t.Fatalf("ParseSequenceHeaderFromOBUs: %v", err)
	}
	if h.MaxWidth != 120 {
		t.Errorf("MaxWidth = %d, want 120", h.MaxWidth)
	}
}

func TestParseSequenceHeaderFromOBUsRejectsMissingHeader(t *testing.T) {
	data := []byte{obuHeaderByte(ObuTemporalDelimiter), 0x00}
	if _, err := ParseSequenceHeaderFromOBUs(data); err == nil {
		t.Error("expected an error when no sequence header OBU is present")
	}
}
