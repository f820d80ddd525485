/*
NAME
  encode.go

DESCRIPTION
  encode.go is the write side of the mini box codec: Encode packs an
  image (plus optional alpha, gainmap/tmap and Exif/XMP metadata) into
  the low-overhead `mif3`/`mini` layout parseHeader reads, bit field
  for bit field in the same order.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mini

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
	"github.com/ausocean/avif/bmff"
)

// EncodeOptions carries everything Encode needs to author a mif3 file. The
// fields mirror the decoded header struct's shape closely enough that
// Encode and parseHeader can be read side by side.
type EncodeOptions struct {
	Image *avif.Image // Width/Height/Depth/Format/YUVRange/ChromaSamplePosition/NCLX/ICC/Transform/CLLI.

	ColorConfig avif.Av1Config
	ColorSample []byte

	HasAlpha           bool
	AlphaPremultiplied bool
	AlphaConfig        avif.Av1Config
	AlphaSample        []byte

	GainMap       *avif.GainMap
	GainMapConfig avif.Av1Config
	GainMapSample []byte

	Exif []byte
	XMP  []byte
}

// Encode packs opts into a full mif3 file (`ftyp` + `mini`). It returns
// ok=false (and a nil error) when opts cannot be represented in the mini
// header — currently only a Transformations combination orientationFor
// cannot map to one of the eight EXIF-style orientations — so the caller
// can fall back to the standard meta/mdat encode path instead.
func Encode(opts EncodeOptions) (data []byte, ok bool, err error) {
	im := opts.Image
	orientation, repOK := orientationFor(im.Transform.Rotation, im.Transform.Mirror)
	if !repOK {
		return nil, false, nil
	}

	hasICC := len(im.ICC) > 0
	explicitCICP := !hasICC // mirror parseHeader's implicit-CICP rule: skip it only when an ICC profile is present, which implies Unspecified.
	hasHDR := opts.GainMap != nil || im.CLLI != nil
	hasGainmap := opts.GainMap != nil
	hasExif := len(opts.Exif) > 0
	hasXMP := len(opts.XMP) > 0

	return encodeBody(opts, orientation, hasICC, explicitCICP, hasHDR, hasGainmap, hasExif, hasXMP)
}

// encodeBody writes the mini bit-packed header and trailing payload bytes
// following parseHeader's exact field order, then wraps the result in the
// ftyp+mini box pair.
func encodeBody(opts EncodeOptions, orientation int, hasICC, explicitCICP, hasHDR, hasGainmap, hasExif, hasXMP bool) ([]byte, bool, error) {
	im := opts.Image

	bw := bitio.NewBitWriter()
	write := func(v uint32, n int) error { return bw.WriteBits(v, n) }
	writeBit := func(v bool) error { return bw.WriteBit(v) }

	if err := write(0, 2); err != nil { // version = 0
		return nil, false, err
	}

	explicitCodecTypes := false
	floatFlag := false
	fullRange := im.YUVRange == avif.RangeFull
	for _, b := range []bool{explicitCodecTypes, floatFlag, fullRange, opts.HasAlpha, explicitCICP,
		hasHDR, hasICC, hasExif, hasXMP} {
		if err := writeBit(b); err != nil {
			return nil, false, err
		}
	}

	chromaSubsampling := chromaCodeFor(im.Format)
	if err := write(uint32(chromaSubsampling), 2); err != nil {
		return nil, false, err
	}
	if err := write(uint32(orientation-1), 3); err != nil {
		return nil, false, err
	}

	largeDimensions := im.Width > 128 || im.Height > 128
	if err := writeBit(largeDimensions); err != nil {
		return nil, false, err
	}
	dimBits := 7
	if largeDimensions {
		dimBits = 15
	}
	if err := write(uint32(im.Width-1), dimBits); err != nil {
		return nil, false, err
	}
	if err := write(uint32(im.Height-1), dimBits); err != nil {
		return nil, false, err
	}

	if chromaSubsampling == 1 || chromaSubsampling == 2 {
		if err := writeBit(im.ChromaSamplePosition == avif.ChromaSampleColocated); err != nil {
			return nil, false, err
		}
	}
	if chromaSubsampling == 1 {
		if err := writeBit(im.ChromaSamplePosition == avif.ChromaSampleColocated); err != nil {
			return nil, false, err
		}
	}

	highDepth := im.Depth > 8
	if err := writeBit(highDepth); err != nil {
		return nil, false, err
	}
	if highDepth {
		if err := write(uint32(im.Depth-9), 3); err != nil {
			return nil, false, err
		}
	}

	if opts.HasAlpha {
		if err := writeBit(opts.AlphaPremultiplied); err != nil {
			return nil, false, err
		}
	}

	if explicitCICP {
		nclx := im.NCLX
		if nclx == nil {
			nclx = &avif.NCLX{ColourPrimaries: 1, TransferCharacteristics: 13, MatrixCoefficients: 6}
		}
		if err := write(uint32(nclx.ColourPrimaries), 8); err != nil {
			return nil, false, err
		}
		if err := write(uint32(nclx.TransferCharacteristics), 8); err != nil {
			return nil, false, err
		}
		if chromaSubsampling != 0 {
			if err := write(uint32(nclx.MatrixCoefficients), 8); err != nil {
				return nil, false, err
			}
		}
	}

	// explicitCodecTypes is always false above, so no infe/cfg type bytes.

	var clli, tmapCLLI *avif.ContentLightLevel
	if hasHDR {
		if err := writeBit(hasGainmap); err != nil {
			return nil, false, err
		}
		if hasGainmap {
			gm := opts.GainMap
			gim := gm.Image
			if err := write(uint32(gim.Width-1), dimBits); err != nil {
				return nil, false, err
			}
			if err := write(uint32(gim.Height-1), dimBits); err != nil {
				return nil, false, err
			}
			gmNCLX := gim.NCLX
			if gmNCLX == nil {
				gmNCLX = &avif.NCLX{MatrixCoefficients: 6}
			}
			if err := write(uint32(gmNCLX.MatrixCoefficients), 8); err != nil {
				return nil, false, err
			}
			if err := writeBit(gim.YUVRange == avif.RangeFull); err != nil {
				return nil, false, err
			}
			gmChroma := chromaCodeFor(gim.Format)
			if err := write(uint32(gmChroma), 2); err != nil {
				return nil, false, err
			}
			if gmChroma == 1 || gmChroma == 2 {
				if err := writeBit(gim.ChromaSamplePosition == avif.ChromaSampleColocated); err != nil {
					return nil, false, err
				}
			}
			if gmChroma == 1 {
				if err := writeBit(gim.ChromaSamplePosition == avif.ChromaSampleColocated); err != nil {
					return nil, false, err
				}
			}
			if err := writeBit(false); err != nil { // gainmap_float_flag
				return nil, false, err
			}
			gmHighDepth := gim.Depth > 8
			if err := writeBit(gmHighDepth); err != nil {
				return nil, false, err
			}
			if gmHighDepth {
				if err := write(uint32(gim.Depth-9), 3); err != nil {
					return nil, false, err
				}
			}

			tmapHasICC := len(gm.AlternateICC) > 0
			if err := writeBit(tmapHasICC); err != nil {
				return nil, false, err
			}
			altNCLX := gm.AlternateNCLX
			tmapExplicitCICP := altNCLX != nil
			if err := writeBit(tmapExplicitCICP); err != nil {
				return nil, false, err
			}
			if tmapExplicitCICP {
				if err := write(uint32(altNCLX.ColourPrimaries), 8); err != nil {
					return nil, false, err
				}
				if err := write(uint32(altNCLX.TransferCharacteristics), 8); err != nil {
					return nil, false, err
				}
				if err := write(uint32(altNCLX.MatrixCoefficients), 8); err != nil {
					return nil, false, err
				}
				if err := writeBit(altNCLX.FullRange); err != nil {
					return nil, false, err
				}
			}
			tmapCLLI = gm.AlternateCLLI
		}
		clli = im.CLLI
		if err := writeHDRProperties(bw, clli); err != nil {
			return nil, false, err
		}
		if hasGainmap {
			if err := writeHDRProperties(bw, tmapCLLI); err != nil {
				return nil, false, err
			}
		}
	}

	var gainmapMetadata []byte
	if hasGainmap {
		gainmapMetadata = opts.GainMap.Metadata.EncodeMetadata()
	}

	largeMetadata := hasICC && len(im.ICC) > 1<<10
	if hasGainmap {
		if len(opts.GainMap.AlternateICC) > 1<<10 || len(gainmapMetadata) > 1<<10 {
			largeMetadata = true
		}
	}
	if len(opts.Exif) > 1<<10 || len(opts.XMP) > 1<<10 {
		largeMetadata = true
	}
	if hasICC || hasExif || hasXMP || hasGainmap {
		if err := writeBit(largeMetadata); err != nil {
			return nil, false, err
		}
	}

	colorCfgBytes := encodeAv1CRaw(opts.ColorConfig)
	var alphaCfgBytes, gainmapCfgBytes []byte
	sameAlphaCfg := opts.HasAlpha && configsEqual(opts.AlphaConfig, opts.ColorConfig)
	sameGainmapCfg := hasGainmap && configsEqual(opts.GainMapConfig, opts.ColorConfig)
	if opts.HasAlpha && !sameAlphaCfg {
		alphaCfgBytes = encodeAv1CRaw(opts.AlphaConfig)
	}
	if hasGainmap && !sameGainmapCfg {
		gainmapCfgBytes = encodeAv1CRaw(opts.GainMapConfig)
	}

	largeCodecConfig := len(colorCfgBytes) >= 1<<3 || len(alphaCfgBytes) >= 1<<3 || len(gainmapCfgBytes) >= 1<<3
	if err := writeBit(largeCodecConfig); err != nil {
		return nil, false, err
	}
	largeItemData := len(opts.ColorSample) >= 1<<15 || len(opts.AlphaSample) >= 1<<15 || len(opts.GainMapSample) >= 1<<15
	if err := writeBit(largeItemData); err != nil {
		return nil, false, err
	}

	metaBits, itemBits, cfgBits := 10, 15, 3
	if largeMetadata {
		metaBits = 20
	}
	if largeItemData {
		itemBits = 28
	}
	if largeCodecConfig {
		cfgBits = 12
	}

	if hasICC {
		if err := write(uint32(len(im.ICC)-1), metaBits); err != nil {
			return nil, false, err
		}
	}
	if hasGainmap && len(opts.GainMap.AlternateICC) > 0 {
		if err := write(uint32(len(opts.GainMap.AlternateICC)-1), metaBits); err != nil {
			return nil, false, err
		}
	}
	if hasGainmap {
		if err := write(uint32(len(gainmapMetadata)), metaBits); err != nil {
			return nil, false, err
		}
		if err := write(uint32(len(opts.GainMapSample)), itemBits); err != nil {
			return nil, false, err
		}
		if len(opts.GainMapSample) > 0 {
			if err := write(uint32(len(gainmapCfgBytes)), cfgBits); err != nil {
				return nil, false, err
			}
		}
	}

	if err := write(uint32(len(colorCfgBytes)), cfgBits); err != nil {
		return nil, false, err
	}
	if err := write(uint32(len(opts.ColorSample)-1), itemBits); err != nil {
		return nil, false, err
	}

	if opts.HasAlpha {
		if err := write(uint32(len(opts.AlphaSample)), itemBits); err != nil {
			return nil, false, err
		}
		if len(opts.AlphaSample) != 0 {
			if err := write(uint32(len(alphaCfgBytes)), cfgBits); err != nil {
				return nil, false, err
			}
		}
	}

	if hasExif || hasXMP {
		if err := writeBit(false); err != nil { // compressed flag.
			return nil, false, err
		}
	}
	if hasExif {
		if err := write(uint32(len(opts.Exif)-1), metaBits); err != nil {
			return nil, false, err
		}
	}
	if hasXMP {
		if err := write(uint32(len(opts.XMP)-1), metaBits); err != nil {
			return nil, false, err
		}
	}

	if err := bw.Pad(); err != nil {
		return nil, false, err
	}
	header, err := bw.Bytes()
	if err != nil {
		return nil, false, err
	}

	body := bitio.NewWriter()
	body.Write(header)
	body.Write(colorCfgBytes)
	if len(alphaCfgBytes) > 0 {
		body.Write(alphaCfgBytes)
	}
	if len(gainmapCfgBytes) > 0 {
		body.Write(gainmapCfgBytes)
	}
	if hasICC {
		body.Write(im.ICC)
	}
	if hasGainmap && len(opts.GainMap.AlternateICC) > 0 {
		body.Write(opts.GainMap.AlternateICC)
	}
	if hasGainmap {
		body.Write(gainmapMetadata)
	}
	if opts.HasAlpha {
		body.Write(opts.AlphaSample)
	}
	if hasGainmap {
		body.Write(opts.GainMapSample)
	}
	body.Write(opts.ColorSample)
	if hasExif {
		body.Write(opts.Exif)
	}
	if hasXMP {
		body.Write(opts.XMP)
	}

	w := bitio.NewWriter()
	if err := bmff.WriteFtyp(w, "mif3", 0, []string{"mif3", "avif", "miaf"}); err != nil {
		return nil, false, err
	}
	if err := w.StartBox("mini"); err != nil {
		return nil, false, err
	}
	w.Write(body.Bytes())
	if err := w.FinishBox(); err != nil {
		return nil, false, err
	}
	return w.Bytes(), true, nil
}

// writeHDRProperties writes the clli_flag..ndwt_flag block plus the clli
// payload; this encoder never emits mdcv/cclv/amve/reve/ndwt so those five
// flags are always written false.
func writeHDRProperties(bw *bitio.BitWriter, clli *avif.ContentLightLevel) error {
	if err := bw.WriteBit(clli != nil); err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		if err := bw.WriteBit(false); err != nil {
			return err
		}
	}
	if clli != nil {
		if err := bw.WriteBits(uint32(clli.MaxCLL), 16); err != nil {
			return err
		}
		if err := bw.WriteBits(uint32(clli.MaxPALL), 16); err != nil {
			return err
		}
	}
	return nil
}

// chromaCodeFor maps a PixelFormat to mini's 2-bit chroma_subsampling
// field (0=mono, 1=4:2:0, 2=4:2:2, 3=4:4:4), as chromaFormat reads it back.
func chromaCodeFor(f avif.PixelFormat) int {
	switch f {
	case avif.FormatYUV420:
		return 1
	case avif.FormatYUV422:
		return 2
	case avif.FormatYUV444:
		return 3
	default:
		return 0
	}
}

// orientationFor maps a Transformations rotation (0..3 counter-clockwise
// quarter turns) and mirror (-1 none, 0 top-to-bottom, 1 left-to-right) to
// one of mini's eight EXIF-style orientation codes. Only eight of the
// twelve (rotation, mirror) combinations are representable; the rest
// return ok=false so the caller falls back to a full metabox header.
func orientationFor(rotation, mirror int) (orientation int, ok bool) {
	switch {
	case rotation == 0 && mirror < 0:
		return 1, true
	case rotation == 0 && mirror == 1:
		return 2, true
	case rotation == 2 && mirror < 0:
		return 3, true
	case rotation == 0 && mirror == 0:
		return 4, true
	case rotation == 1 && mirror == 0:
		return 5, true
	case rotation == 3 && mirror < 0:
		return 6, true
	case rotation == 1 && mirror == 1:
		return 7, true
	case rotation == 1 && mirror < 0:
		return 8, true
	default:
		return 0, false
	}
}

// encodeAv1CRaw writes cfg's av1C payload (marker+version byte, profile
// byte, flags byte, raw configuration OBUs) matching bmff.ParseAv1C's
// layout exactly — the same byte shape package encoder's encodeAv1C writes
// into a box body, reproduced here since mini's trailing codec
// configuration blocks carry no box framing of their own.
func encodeAv1CRaw(cfg avif.Av1Config) []byte {
	w := bitio.NewWriter()
	w.WriteU8(0x81)
	w.WriteU8((cfg.SeqProfile&0x7)<<5 | (cfg.SeqLevelIdx0 & 0x1f))
	var b2 byte
	if cfg.SeqTier0 != 0 {
		b2 |= 0x80
	}
	if cfg.HighBitdepth {
		b2 |= 0x40
	}
	if cfg.TwelveBit {
		b2 |= 0x20
	}
	if cfg.Monochrome {
		b2 |= 0x10
	}
	b2 |= (cfg.ChromaSubsamplingX & 0x1) << 3
	b2 |= (cfg.ChromaSubsamplingY & 0x1) << 2
	b2 |= cfg.ChromaSamplePosition & 0x3
	w.WriteU8(b2)
	w.Write(cfg.ConfigOBUs)
	return w.Bytes()
}

func configsEqual(a, b avif.Av1Config) bool {
	if a.SeqProfile != b.SeqProfile || a.SeqLevelIdx0 != b.SeqLevelIdx0 || a.SeqTier0 != b.SeqTier0 ||
		a.HighBitdepth != b.HighBitdepth || a.TwelveBit != b.TwelveBit || a.Monochrome != b.Monochrome ||
		a.ChromaSubsamplingX != b.ChromaSubsamplingX || a.ChromaSubsamplingY != b.ChromaSubsamplingY ||
		a.ChromaSamplePosition != b.ChromaSamplePosition || len(a.ConfigOBUs) != len(b.ConfigOBUs) {
		return false
	}
	for i := range a.ConfigOBUs {
		if a.ConfigOBUs[i] != b.ConfigOBUs[i] {
			return false
		}
	}
	return true
}
