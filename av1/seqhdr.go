/*
NAME
  seqhdr.go

DESCRIPTION
  seqhdr.go parses an AV1 sequence header OBU's profile, frame dimension
  and color configuration fields, the subset this codec needs to
  cross-validate a track or item's av1C configuration against the coded
  bitstream it describes.

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
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// SequenceHeader is the subset of AV1 sequence_header_obu() fields needed
// to validate against av1C: profile/level/tier, max frame dimensions and
// the color configuration.
type SequenceHeader struct {
	SeqProfile   uint8
	SeqLevelIdx0 uint8
	SeqTier0     uint8

	MaxWidth, MaxHeight uint32

	HighBitdepth bool
	TwelveBit    bool
	Monochrome   bool

	ChromaSubsamplingX, ChromaSubsamplingY uint8
	ChromaSamplePosition                   avif.ChromaSamplePosition

	ColourPrimaries, TransferCharacteristics, MatrixCoefficients uint16
	FullRange                                                    bool

	PixelFormat avif.PixelFormat
}

// ParseSequenceHeaderFromOBUs scans data for the first sequence header OBU
// and parses it, skipping any other OBU type.
func ParseSequenceHeaderFromOBUs(data []byte) (SequenceHeader, error) {
	r := bitio.NewByteReader(data)
	for r.Len() > 0 {
		u, err := readOBU(r)
		if err != nil {
			return SequenceHeader{}, err
		}
		if u.Type != ObuSequenceHeader {
			continue
		}
		return parseSequenceHeader(u.Payload)
	}
	return SequenceHeader{}, avif.ErrBMFFParseFailed("no sequence header OBU found")
}

func parseSequenceHeader(payload []byte) (SequenceHeader, error) {
	bits := bitio.NewBitReader(payload)
	var h SequenceHeader

	reducedStillPicture, err := parseProfile(bits, &h)
	if err != nil {
		return SequenceHeader{}, err
	}
	if err := parseFrameMaxDimensions(bits, &h, reducedStillPicture); err != nil {
		return SequenceHeader{}, err
	}
	if err := parseEnabledFeatures(bits, reducedStillPicture); err != nil {
		return SequenceHeader{}, err
	}
	// enable_superres, enable_cdef, enable_restoration
	if _, err := bits.ReadBits(3); err != nil {
		return SequenceHeader{}, avif.ErrBMFFParseFailed("truncated sequence header")
	}
	if err := parseColorConfig(bits, &h); err != nil {
		return SequenceHeader{}, err
	}
	return h, nil
}

func parseProfile(bits *bitio.BitReader, h *SequenceHeader) (reducedStillPicture bool, err error) {
	v, err := bits.ReadBits(3)
	if err != nil {
		return false, avif.ErrBMFFParseFailed("truncated sequence header profile")
	}
	h.SeqProfile = uint8(v)
	if h.SeqProfile > 2 {
		return false, avif.ErrBMFFParseFailed("invalid seq_profile %d", h.SeqProfile)
	}

	stillPicture, err := bits.ReadBit()
	if err != nil {
		return false, avif.ErrBMFFParseFailed("truncated sequence header")
	}
	reducedStillPicture, err = bits.ReadBit()
	if err != nil {
		return false, avif.ErrBMFFParseFailed("truncated sequence header")
	}
	if reducedStillPicture && !stillPicture {
		return false, avif.ErrBMFFParseFailed("reduced_still_picture_header without still_picture")
	}

	if reducedStillPicture {
		v, err := bits.ReadBits(5)
		if err != nil {
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		h.SeqLevelIdx0 = uint8(v)
		return reducedStillPicture, nil
	}

	timingInfoPresent, err := bits.ReadBit()
	if err != nil {
		return false, avif.ErrBMFFParseFailed("truncated sequence header")
	}
	decoderModelInfoPresent := false
	bufferDelayLength := 0
	if timingInfoPresent {
		if _, err := bits.ReadBits(32); err != nil { // num_units_in_display_tick
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		if _, err := bits.ReadBits(32); err != nil { // time_scale
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		equalPictureInterval, err := bits.ReadBit()
		if err != nil {
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		if equalPictureInterval {
			if err := skipUvlc(bits); err != nil {
				return false, err
			}
		}
		decoderModelInfoPresent, err = bits.ReadBit()
		if err != nil {
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		if decoderModelInfoPresent {
			v, err := bits.ReadBits(5)
			if err != nil {
				return false, avif.ErrBMFFParseFailed("truncated sequence header")
			}
			bufferDelayLength = int(v) + 1
			if _, err := bits.ReadBits(32); err != nil { // num_units_in_decoding_tick
				return false, avif.ErrBMFFParseFailed("truncated sequence header")
			}
			// buffer_removal_time_length_minus_1, frame_presentation_time_length_minus_1
			if _, err := bits.ReadBits(10); err != nil {
				return false, avif.ErrBMFFParseFailed("truncated sequence header")
			}
		}
	}

	initialDisplayDelayPresent, err := bits.ReadBit()
	if err != nil {
		return false, avif.ErrBMFFParseFailed("truncated sequence header")
	}
	opCountMinusOne, err := bits.ReadBits(5)
	if err != nil {
		return false, avif.ErrBMFFParseFailed("truncated sequence header")
	}
	for i := uint32(0); i <= opCountMinusOne; i++ {
		if _, err := bits.ReadBits(12); err != nil { // operating_point_idc
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		seqLevelIdx, err := bits.ReadBits(5)
		if err != nil {
			return false, avif.ErrBMFFParseFailed("truncated sequence header")
		}
		if i == 0 {
			h.SeqLevelIdx0 = uint8(seqLevelIdx)
		}
		if seqLevelIdx > 7 {
			seqTier, err := bits.ReadBit()
			if err != nil {
				return false, avif.ErrBMFFParseFailed("truncated sequence header")
			}
			if i == 0 && seqTier {
				h.SeqTier0 = 1
			}
		}
		if decoderModelInfoPresent {
			present, err := bits.ReadBit()
			if err != nil {
				return false, avif.ErrBMFFParseFailed("truncated sequence header")
			}
			if present {
				if _, err := bits.ReadBits(bufferDelayLength); err != nil {
					return false, avif.ErrBMFFParseFailed("truncated sequence header")
				}
				if _, err := bits.ReadBits(bufferDelayLength); err != nil {
					return false, avif.ErrBMFFParseFailed("truncated sequence header")
				}
				if _, err := bits.ReadBit(); err != nil { // low_delay_mode_flag
					return false, avif.ErrBMFFParseFailed("truncated sequence header")
				}
			}
		}
		if initialDisplayDelayPresent {
			present, err := bits.ReadBit()
			if err != nil {
				return false, avif.ErrBMFFParseFailed("truncated sequence header")
			}
			if present {
				if _, err := bits.ReadBits(4); err != nil {
					return false, avif.ErrBMFFParseFailed("truncated sequence header")
				}
			}
		}
	}
	return reducedStillPicture, nil
}

func parseFrameMaxDimensions(bits *bitio.BitReader, h *SequenceHeader, reducedStillPicture bool) error {
	frameWidthBits, err := bits.ReadBits(4)
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	frameHeightBits, err := bits.ReadBits(4)
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	w, err := bits.ReadBits(int(frameWidthBits) + 1)
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	hh, err := bits.ReadBits(int(frameHeightBits) + 1)
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	h.MaxWidth = w + 1
	h.MaxHeight = hh + 1

	frameIDNumbersPresent := false
	if !reducedStillPicture {
		frameIDNumbersPresent, err = bits.ReadBit()
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header")
		}
	}
	if frameIDNumbersPresent {
		if _, err := bits.ReadBits(7); err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header")
		}
	}
	return nil
}

func parseEnabledFeatures(bits *bitio.BitReader, reducedStillPicture bool) error {
	// use_128x128_superblock, enable_filter_intra, enable_intra_edge_filter
	if _, err := bits.ReadBits(3); err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	if reducedStillPicture {
		return nil
	}
	// enable_interintra_compound, enable_masked_compound, enable_warped_motion, enable_dual_filter
	if _, err := bits.ReadBits(4); err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	enableOrderHint, err := bits.ReadBit()
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	if enableOrderHint {
		// enable_jnt_comp, enable_ref_frame_mvs
		if _, err := bits.ReadBits(2); err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header")
		}
	}
	chooseScreenContentTools, err := bits.ReadBit()
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header")
	}
	seqForceScreenContentTools := uint32(2)
	if !chooseScreenContentTools {
		v, err := bits.ReadBits(1)
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header")
		}
		seqForceScreenContentTools = v
	}
	if seqForceScreenContentTools > 0 {
		chooseIntegerMv, err := bits.ReadBit()
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header")
		}
		if !chooseIntegerMv {
			if _, err := bits.ReadBit(); err != nil { // seq_force_integer_mv
				return avif.ErrBMFFParseFailed("truncated sequence header")
			}
		}
	}
	if enableOrderHint {
		if _, err := bits.ReadBits(3); err != nil { // order_hint_bits_minus_1
			return avif.ErrBMFFParseFailed("truncated sequence header")
		}
	}
	return nil
}

func parseColorConfig(bits *bitio.BitReader, h *SequenceHeader) error {
	highBitdepth, err := bits.ReadBit()
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header color config")
	}
	h.HighBitdepth = highBitdepth
	if h.SeqProfile == 2 && highBitdepth {
		twelveBit, err := bits.ReadBit()
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		h.TwelveBit = twelveBit
	}
	if h.SeqProfile != 1 {
		monochrome, err := bits.ReadBit()
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		h.Monochrome = monochrome
	}

	colorDescriptionPresent, err := bits.ReadBit()
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header color config")
	}
	if colorDescriptionPresent {
		cp, err := bits.ReadBits(8)
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		tc, err := bits.ReadBits(8)
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		mc, err := bits.ReadBits(8)
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		h.ColourPrimaries = uint16(cp)
		h.TransferCharacteristics = uint16(tc)
		h.MatrixCoefficients = uint16(mc)
	}

	if h.Monochrome {
		fullRange, err := bits.ReadBit()
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		h.FullRange = fullRange
		h.ChromaSubsamplingX = 1
		h.ChromaSubsamplingY = 1
		h.PixelFormat = avif.FormatYUV400
		return nil
	}

	const (
		cicpSRGB     = 1
		cicpIdentity = 0
	)
	if h.ColourPrimaries == cicpSRGB && h.TransferCharacteristics == cicpSRGB && h.MatrixCoefficients == cicpIdentity {
		h.FullRange = true
		h.PixelFormat = avif.FormatYUV444
		return nil
	}

	fullRange, err := bits.ReadBit()
	if err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header color config")
	}
	h.FullRange = fullRange

	switch h.SeqProfile {
	case 0:
		h.ChromaSubsamplingX, h.ChromaSubsamplingY = 1, 1
		h.PixelFormat = avif.FormatYUV420
	case 1:
		h.PixelFormat = avif.FormatYUV444
	case 2:
		bitDepth := uint8(8)
		if h.TwelveBit {
			bitDepth = 12
		} else if h.HighBitdepth {
			bitDepth = 10
		}
		if bitDepth == 12 {
			x, err := bits.ReadBit()
			if err != nil {
				return avif.ErrBMFFParseFailed("truncated sequence header color config")
			}
			if x {
				h.ChromaSubsamplingX = 1
				y, err := bits.ReadBit()
				if err != nil {
					return avif.ErrBMFFParseFailed("truncated sequence header color config")
				}
				if y {
					h.ChromaSubsamplingY = 1
				}
			}
		} else {
			h.ChromaSubsamplingX = 1
		}
		switch {
		case h.ChromaSubsamplingX == 1 && h.ChromaSubsamplingY == 1:
			h.PixelFormat = avif.FormatYUV420
		case h.ChromaSubsamplingX == 1:
			h.PixelFormat = avif.FormatYUV422
		default:
			h.PixelFormat = avif.FormatYUV444
		}
	}

	if h.ChromaSubsamplingX == 1 && h.ChromaSubsamplingY == 1 {
		v, err := bits.ReadBits(2)
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated sequence header color config")
		}
		h.ChromaSamplePosition = avif.ChromaSamplePosition(v)
	}

	// separate_uv_delta_q
	if _, err := bits.ReadBit(); err != nil {
		return avif.ErrBMFFParseFailed("truncated sequence header color config")
	}
	return nil
}

// skipUvlc consumes one unsigned variable-length (exp-Golomb) coded value
// without returning it; callers that don't need the timing-info values
// still must advance past them correctly.
func skipUvlc(bits *bitio.BitReader) error {
	leadingZeros := 0
	for {
		b, err := bits.ReadBit()
		if err != nil {
			return avif.ErrBMFFParseFailed("truncated uvlc value")
		}
		if b {
			break
		}
		leadingZeros++
		if leadingZeros >= 32 {
			return avif.ErrBMFFParseFailed("uvlc value too large")
		}
	}
	if leadingZeros > 0 {
		if _, err := bits.ReadBits(leadingZeros); err != nil {
			return avif.ErrBMFFParseFailed("truncated uvlc value")
		}
	}
	return nil
}
