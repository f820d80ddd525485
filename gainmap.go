/*
NAME
  gainmap.go

DESCRIPTION
  gainmap.go defines GainMap, the tone-mapping metadata record carried by a
  `tmap` derived item plus its gainmap input image, and the curve
  evaluation used to apply it against a base image at decode time.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avif

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// GainMapChannel holds the per-channel metadata fractions described in
// ISO 21496-1: gamma shapes the interpolation curve, min/max bound the log2
// gain range, and the offsets bias base and alternate samples before the
// gain is applied.
type GainMapChannel struct {
	Gamma           Fraction
	Min             Fraction
	Max             Fraction
	OffsetBase      Fraction
	OffsetAlternate Fraction
}

// GainMapMetadata is the numeric payload following the tmap version byte.
type GainMapMetadata struct {
	BaseHDRHeadroom      UFraction
	AlternateHDRHeadroom UFraction
	Channels             [3]GainMapChannel
	UseBaseColorSpace    bool
}

// GainMap pairs a gainmap Image with the alternate-image description and
// numeric metadata needed to reconstruct the HDR (or SDR) alternate from
// the base image it is attached to.
type GainMap struct {
	Image *Image

	AlternateNCLX       *NCLX
	AlternateICC        []byte
	AlternateDepth      int
	AlternatePlaneCount int
	AlternateCLLI       *ContentLightLevel

	Metadata GainMapMetadata
}

// ApplyChannel applies one channel's gamma/min/max/offset curve to a
// normalized base sample and a normalized gainmap sample (both 0..1),
// returning the normalized alternate sample per ISO 21496-1 §7.
func ApplyChannel(ch GainMapChannel, baseSample, gainSample float64) float64 {
	gamma := ch.Gamma.Float64()
	if gamma <= 0 {
		gamma = 1
	}
	logMin := ch.Min.Float64()
	logMax := ch.Max.Float64()

	shaped := math.Pow(clamp01(gainSample), 1/gamma)
	logGain := logMin + shaped*(logMax-logMin)
	gain := math.Exp2(logGain)

	base := baseSample + ch.OffsetBase.Float64()
	alt := base*gain - ch.OffsetAlternate.Float64()
	return clamp01(alt)
}

// ApplyPixel applies all three channels of m in one call, using
// gonum/floats to scale the three resulting alternate samples back into
// the image's working range in a single vectorized pass rather than three
// independent per-channel multiplies.
func (m GainMapMetadata) ApplyPixel(base, gain [3]float64, scale float64) [3]float64 {
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		out[i] = ApplyChannel(m.Channels[i], base[i], gain[i])
	}
	floats.Scale(scale, out)
	return [3]float64{out[0], out[1], out[2]}
}

// gainMapFractionSize is the wire size of one Fraction/UFraction pair
// (int32 numerator or uint32, plus uint32 denominator).
const gainMapFractionSize = 8

// EncodeMetadata serializes m into a tmap item's payload, following the
// tmap item's own version byte: a metadata version byte (0),
// useBaseColorSpace, the two HDR
// headroom fractions, then three channels of five fractions each
// (gamma, min, max, offset_base, offset_alternate), big-endian throughout.
func (m GainMapMetadata) EncodeMetadata() []byte {
	w := make([]byte, 0, 2+2*gainMapFractionSize+3*5*gainMapFractionSize)
	w = append(w, 0) // version.
	if m.UseBaseColorSpace {
		w = append(w, 1)
	} else {
		w = append(w, 0)
	}
	w = appendUFraction(w, m.BaseHDRHeadroom)
	w = appendUFraction(w, m.AlternateHDRHeadroom)
	for _, ch := range m.Channels {
		w = appendFraction(w, ch.Gamma)
		w = appendFraction(w, ch.Min)
		w = appendFraction(w, ch.Max)
		w = appendFraction(w, ch.OffsetBase)
		w = appendFraction(w, ch.OffsetAlternate)
	}
	return w
}

// DecodeMetadata parses a tmap item's payload written by EncodeMetadata.
func DecodeMetadata(data []byte) (GainMapMetadata, error) {
	const wantLen = 2 + 2*gainMapFractionSize + 3*5*gainMapFractionSize
	if len(data) < wantLen {
		return GainMapMetadata{}, ErrTruncatedData()
	}
	if data[0] != 0 {
		return GainMapMetadata{}, ErrInvalidArgument("unsupported gainmap metadata version %d", data[0])
	}
	var m GainMapMetadata
	m.UseBaseColorSpace = data[1] != 0
	pos := 2
	var err error
	if m.BaseHDRHeadroom, pos, err = readUFraction(data, pos); err != nil {
		return GainMapMetadata{}, err
	}
	if m.AlternateHDRHeadroom, pos, err = readUFraction(data, pos); err != nil {
		return GainMapMetadata{}, err
	}
	for i := range m.Channels {
		ch := &m.Channels[i]
		if ch.Gamma, pos, err = readFraction(data, pos); err != nil {
			return GainMapMetadata{}, err
		}
		if ch.Min, pos, err = readFraction(data, pos); err != nil {
			return GainMapMetadata{}, err
		}
		if ch.Max, pos, err = readFraction(data, pos); err != nil {
			return GainMapMetadata{}, err
		}
		if ch.OffsetBase, pos, err = readFraction(data, pos); err != nil {
			return GainMapMetadata{}, err
		}
		if ch.OffsetAlternate, pos, err = readFraction(data, pos); err != nil {
			return GainMapMetadata{}, err
		}
	}
	return m, nil
}

func appendU32(w []byte, v uint32) []byte {
	return append(w, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendFraction(w []byte, f Fraction) []byte {
	w = appendU32(w, uint32(f.N))
	return appendU32(w, f.D)
}

func appendUFraction(w []byte, f UFraction) []byte {
	w = appendU32(w, f.N)
	return appendU32(w, f.D)
}

func readU32(data []byte, pos int) (uint32, int, error) {
	if pos+4 > len(data) {
		return 0, pos, ErrTruncatedData()
	}
	v := uint32(data[pos])<<24 | uint32(data[pos+1])<<16 | uint32(data[pos+2])<<8 | uint32(data[pos+3])
	return v, pos + 4, nil
}

func readFraction(data []byte, pos int) (Fraction, int, error) {
	n, pos, err := readU32(data, pos)
	if err != nil {
		return Fraction{}, pos, err
	}
	d, pos, err := readU32(data, pos)
	if err != nil {
		return Fraction{}, pos, err
	}
	return Fraction{N: int32(n), D: d}, pos, nil
}

func readUFraction(data []byte, pos int) (UFraction, int, error) {
	n, pos, err := readU32(data, pos)
	if err != nil {
		return UFraction{}, pos, err
	}
	d, pos, err := readU32(data, pos)
	if err != nil {
		return UFraction{}, pos, err
	}
	return UFraction{N: n, D: d}, pos, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
