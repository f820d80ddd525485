/*
NAME
  track.go

DESCRIPTION
  track.go parses the `moov` movie box subtree used by image-sequence
  (avis) files: trak/tkhd/mdia/stbl sample tables, tref/auxl-thmb track
  references, and edts/elst edit lists.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bmff

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
)

// SampleEntry is one sample's offset and size within the track's media
// data, plus whether it is a sync (key) sample.
type SampleEntry struct {
	Offset uint64
	Size   uint32
	Sync   bool
}

// EditListEntry is one `elst` segment, used to compute a track's repeat
// count and looping behavior for animated sequences.
type EditListEntry struct {
	SegmentDuration uint64
	MediaTime       int64
	MediaRateInt    int16
}

// Track is a decoded `trak`: its sample table flattened into per-sample
// offset/size/sync entries, plus the av1C configuration and pixel
// dimensions shared by all its samples.
type Track struct {
	ID uint32

	Width, Height int
	Config        *avif.Av1Config

	Timescale uint32
	Duration  uint64

	Samples []SampleEntry

	// References mirrors item iref semantics at the track level (tref),
	// e.g. an "auxl" track referencing the color track it overlays.
	References []avif.ItemReference

	EditList []EditListEntry

	// RepeatCount is 0 (unknown/once) unless the track carries a single
	// elst entry with a zero segment duration, in which case it is -1
	// (loop forever). Finite repeat counts are not derived.
	RepeatCount int
}

// parseMoov decodes the `moov` box, appending one Track per child `trak`.
func (r *Reader) parseMoov(body *bitio.ByteReader) error {
	return eachChildBox(body, func(b box) error {
		if b.typ != "trak" {
			return nil // mvhd and friends carry nothing this codec needs.
		}
		t, err := parseTrak(b.body)
		if err != nil {
			return err
		}
		r.Tracks = append(r.Tracks, t)
		return nil
	})
}

// parseTrak decodes one `trak` box into a Track.
func parseTrak(body *bitio.ByteReader) (*Track, error) {
	t := &Track{}
	err := eachChildBox(body, func(b box) error {
		switch b.typ {
		case "tkhd":
			id, err := parseTkhd(b.body)
			if err != nil {
				return err
			}
			t.ID = id
			return nil
		case "tref":
			refs, err := parseTref(b.body)
			if err != nil {
				return err
			}
			t.References = refs
			return nil
		case "edts":
			return eachChildBox(b.body, func(eb box) error {
				if eb.typ != "elst" {
					return nil
				}
				entries, err := parseElst(eb.body)
				if err != nil {
					return err
				}
				t.EditList = entries
				if len(entries) == 1 && entries[0].SegmentDuration == 0 {
					t.RepeatCount = -1 // duration 0 is the ISOBMFF infinite-loop convention.
				}
				return nil
			})
		case "mdia":
			return parseMdia(b.body, t)
		default:
			return nil
		}
	})
	return t, err
}

// parseTkhd decodes the `tkhd` track-header box far enough to recover the
// track id.
func parseTkhd(body *bitio.ByteReader) (uint32, error) {
	version, _, err := readFullBoxHeader(body)
	if err != nil {
		return 0, err
	}
	if version == 1 {
		if err := body.Skip(8 + 8); err != nil { // creation/modification time (u64 each)
			return 0, err
		}
	} else {
		if err := body.Skip(4 + 4); err != nil {
			return 0, err
		}
	}
	return body.ReadU32()
}

// parseTref decodes the `tref` track-reference box into the same
// ItemReference shape iref uses at the item level.
func parseTref(body *bitio.ByteReader) ([]avif.ItemReference, error) {
	var out []avif.ItemReference
	err := eachChildBox(body, func(b box) error {
		count := b.body.Len() / 4
		to := make([]uint32, 0, count)
		for i := 0; i < count; i++ {
			id, err := b.body.ReadU32()
			if err != nil {
				return err
			}
			to = append(to, id)
		}
		out = append(out, avif.ItemReference{Type: b.typ, To: to})
		return nil
	})
	return out, err
}

// parseElst decodes the `elst` edit-list box.
func parseElst(body *bitio.ByteReader) ([]EditListEntry, error) {
	version, _, err := readFullBoxHeader(body)
	if err != nil {
		return nil, err
	}
	count, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]EditListEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var dur uint64
		var mediaTime int64
		if version == 1 {
			dur, err = body.ReadU64()
			if err != nil {
				return nil, err
			}
			mt, err := body.ReadU64()
			if err != nil {
				return nil, err
			}
			mediaTime = int64(mt)
		} else {
			d32, err := body.ReadU32()
			if err != nil {
				return nil, err
			}
			dur = uint64(d32)
			mt32, err := body.ReadU32()
			if err != nil {
				return nil, err
			}
			mediaTime = int64(int32(mt32))
		}
		rateInt, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		if _, err := body.ReadU16(); err != nil { // media_rate_fraction, always 0
			return nil, err
		}
		out = append(out, EditListEntry{
			SegmentDuration: dur,
			MediaTime:       mediaTime,
			MediaRateInt:    int16(rateInt),
		})
	}
	return out, nil
}

// parseMdia decodes the `mdia` media box, descending into mdhd (timescale)
// and minf/stbl/stsd,stts,stsc,stsz,stz2,stco,co64,stss.
func parseMdia(body *bitio.ByteReader, t *Track) error {
	return eachChildBox(body, func(b box) error {
		switch b.typ {
		case "mdhd":
			ts, dur, err := parseMdhd(b.body)
			if err != nil {
				return err
			}
			t.Timescale, t.Duration = ts, dur
			return nil
		case "minf":
			return eachChildBox(b.body, func(mb box) error {
				if mb.typ != "stbl" {
					return nil
				}
				return parseStbl(mb.body, t)
			})
		default:
			return nil
		}
	})
}

// parseMdhd decodes the `mdhd` media-header box's timescale and duration.
func parseMdhd(body *bitio.ByteReader) (timescale uint32, duration uint64, err error) {
	version, _, err := readFullBoxHeader(body)
	if err != nil {
		return 0, 0, err
	}
	if version == 1 {
		if err := body.Skip(8 + 8); err != nil {
			return 0, 0, err
		}
		timescale, err = body.ReadU32()
		if err != nil {
			return 0, 0, err
		}
		duration, err = body.ReadU64()
		return timescale, duration, err
	}
	if err := body.Skip(4 + 4); err != nil {
		return 0, 0, err
	}
	timescale, err = body.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	d32, err := body.ReadU32()
	return timescale, uint64(d32), err
}

// parseStbl decodes the `stbl` sample table, flattening chunk offsets,
// sample sizes and sync-sample flags into t.Samples.
func parseStbl(body *bitio.ByteReader, t *Track) error {
	var (
		chunkOffsets []uint64
		sampleSizes  []uint32
		samplesPerChunk []stscEntry
		syncSamples  map[uint32]bool
	)

	err := eachChildBox(body, func(b box) error {
		switch b.typ {
		case "stco":
			offs, err := parseStco(b.body, false)
			if err != nil {
				return err
			}
			chunkOffsets = offs
			return nil
		case "co64":
			offs, err := parseStco(b.body, true)
			if err != nil {
				return err
			}
			chunkOffsets = offs
			return nil
		case "stsz":
			sizes, err := parseStsz(b.body)
			if err != nil {
				return err
			}
			sampleSizes = sizes
			return nil
		case "stz2":
			sizes, err := parseStz2(b.body)
			if err != nil {
				return err
			}
			sampleSizes = sizes
			return nil
		case "stsc":
			entries, err := parseStsc(b.body)
			if err != nil {
				return err
			}
			samplesPerChunk = entries
			return nil
		case "stss":
			m, err := parseStss(b.body)
			if err != nil {
				return err
			}
			syncSamples = m
			return nil
		case "stsd":
			w, h, cfg, err := parseStsd(b.body)
			if err != nil {
				return err
			}
			t.Width, t.Height, t.Config = w, h, cfg
			return nil
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}

	t.Samples = flattenSamples(chunkOffsets, sampleSizes, samplesPerChunk, syncSamples)
	return nil
}

// stscEntry is one `stsc` run-length entry.
type stscEntry struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
}

func parseStco(body *bitio.ByteReader, large bool) ([]uint64, error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return nil, err
	}
	count, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		if large {
			v, err := body.ReadU64()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		} else {
			v, err := body.ReadU32()
			if err != nil {
				return nil, err
			}
			out = append(out, uint64(v))
		}
	}
	return out, nil
}

func parseStsz(body *bitio.ByteReader) ([]uint32, error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return nil, err
	}
	uniformSize, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	count, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	if uniformSize != 0 {
		sizes := make([]uint32, count)
		for i := range sizes {
			sizes[i] = uniformSize
		}
		return sizes, nil
	}
	sizes := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := body.ReadU32()
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, v)
	}
	return sizes, nil
}

func parseStz2(body *bitio.ByteReader) ([]uint32, error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return nil, err
	}
	if err := body.Skip(3); err != nil { // reserved
		return nil, err
	}
	fieldSize, err := body.ReadU8()
	if err != nil {
		return nil, err
	}
	count, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	sizes := make([]uint32, 0, count)
	switch fieldSize {
	case 4:
		for i := uint32(0); i < count; i += 2 {
			b, err := body.ReadU8()
			if err != nil {
				return nil, err
			}
			sizes = append(sizes, uint32(b>>4))
			if i+1 < count {
				sizes = append(sizes, uint32(b&0xf))
			}
		}
	case 8:
		for i := uint32(0); i < count; i++ {
			v, err := body.ReadU8()
			if err != nil {
				return nil, err
			}
			sizes = append(sizes, uint32(v))
		}
	case 16:
		for i := uint32(0); i < count; i++ {
			v, err := body.ReadU16()
			if err != nil {
				return nil, err
			}
			sizes = append(sizes, uint32(v))
		}
	default:
		return nil, avif.ErrBMFFParseFailed("stz2 unsupported field size %d", fieldSize)
	}
	return sizes, nil
}

func parseStsc(body *bitio.ByteReader) ([]stscEntry, error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return nil, err
	}
	count, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]stscEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		first, err := body.ReadU32()
		if err != nil {
			return nil, err
		}
		spc, err := body.ReadU32()
		if err != nil {
			return nil, err
		}
		if _, err := body.ReadU32(); err != nil { // sample_description_index, unused (single sample entry only)
			return nil, err
		}
		out = append(out, stscEntry{FirstChunk: first, SamplesPerChunk: spc})
	}
	return out, nil
}

func parseStss(body *bitio.ByteReader) (map[uint32]bool, error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return nil, err
	}
	count, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]bool, count)
	for i := uint32(0); i < count; i++ {
		v, err := body.ReadU32()
		if err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, nil
}

// parseStsd decodes the `stsd` sample description box far enough to pull
// the av01 sample entry's dimensions and av1C configuration.
func parseStsd(body *bitio.ByteReader) (width, height int, cfg *avif.Av1Config, err error) {
	if _, _, err := readFullBoxHeader(body); err != nil {
		return 0, 0, nil, err
	}
	if _, err := body.ReadU32(); err != nil { // entry_count
		return 0, 0, nil, err
	}
	b, err := readBoxHeader(body)
	if err != nil {
		return 0, 0, nil, err
	}
	if b.typ != "av01" {
		return 0, 0, nil, avif.ErrBMFFParseFailed("unsupported sample entry %q", b.typ)
	}
	sb := b.body
	if err := sb.Skip(6 + 2 + 2 + 2 + 4*3); err != nil { // reserved, data_reference_index, pre_defined×2, reserved, pre_defined×3
		return 0, 0, nil, err
	}
	w, err := sb.ReadU16()
	if err != nil {
		return 0, 0, nil, err
	}
	h, err := sb.ReadU16()
	if err != nil {
		return 0, 0, nil, err
	}
	if err := sb.Skip(4 + 4 + 4 + 2 + 32 + 2 + 2); err != nil { // horiz/vert resolution, reserved, frame_count, compressorname, depth, pre_defined
		return 0, 0, nil, err
	}
	err = eachChildBox(sb, func(cb box) error {
		if cb.typ != "av1C" {
			return nil
		}
		c, err := ParseAv1C(cb.body)
		if err != nil {
			return err
		}
		cfg = &c
		return nil
	})
	return int(w), int(h), cfg, err
}

// flattenSamples expands stco/stsc/stsz into one SampleEntry per sample, in
// decode order.
func flattenSamples(chunkOffsets []uint64, sizes []uint32, stsc []stscEntry, sync map[uint32]bool) []SampleEntry {
	if len(chunkOffsets) == 0 || len(stsc) == 0 {
		return nil
	}
	out := make([]SampleEntry, 0, len(sizes))
	sampleIdx := 0
	for chunkIdx := 0; chunkIdx < len(chunkOffsets); chunkIdx++ {
		chunkNum := uint32(chunkIdx + 1)
		spc := stsc[len(stsc)-1].SamplesPerChunk
		for i := len(stsc) - 1; i >= 0; i-- {
			if chunkNum >= stsc[i].FirstChunk {
				spc = stsc[i].SamplesPerChunk
				break
			}
		}
		offset := chunkOffsets[chunkIdx]
		for s := uint32(0); s < spc && sampleIdx < len(sizes); s++ {
			out = append(out, SampleEntry{
				Offset: offset,
				Size:   sizes[sampleIdx],
				Sync:   len(sync) == 0 || sync[uint32(sampleIdx+1)],
			})
			offset += uint64(sizes[sampleIdx])
			sampleIdx++
		}
	}
	return out
}
