/*
NAME
  mdat.go

DESCRIPTION
  mdat.go assembles the encodeJob buildItems (items.go) authors into a
  complete AVIF byte stream: the standard ftyp/meta/mdat box tree (with
  `iloc` extents back-patched once the three-pass sample layout spec.md
  §4.8 describes is known), the mif3 mini fallback, or an ftyp/moov/mdat
  image-sequence track, grounded on container/mts/psi's setSectionLen
  back-patch idiom the way bitio.Writer's PatchU32 generalizes it.

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
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bitio"
	"github.com/ausocean/avif/bmff"
	"github.com/ausocean/avif/codec"
	"github.com/ausocean/avif/grid"
	"github.com/ausocean/avif/mini"
)

// encodeJob bundles one finished Encoder's buffered state into the shape
// buildItems (items.go) authors an item graph from.
type encodeJob struct {
	grid         *grid.Grid
	color        []*avif.Image
	colorConfig  avif.Av1Config
	colorSamples [][]byte

	alpha            *avif.Image
	alphaConfig      avif.Av1Config
	alphaSample      []byte
	alphaGridSamples [][]byte

	gainMap       *avif.GainMap
	gainMapConfig avif.Av1Config
	gainMapSample []byte

	sato *satoJob

	exif, xmp []byte
}

// encodeSingle drives enc for exactly one image, returning its sole
// resulting payload — the shape a one-off gainmap or bit-depth-extension
// auxiliary encode needs, without encodeOne's alpha fan-out.
func encodeSingle(enc codec.Encoder, img *avif.Image, category avif.Category, cfg codec.Config) ([]byte, error) {
	if err := enc.EncodeImage(img, category, cfg, true); err != nil {
		return nil, err
	}
	payloads, err := enc.Finish()
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, avif.ErrEncodeColorFailed()
	}
	return payloads[len(payloads)-1], nil
}

// buildEncodeJob assembles an encodeJob from e's buffered add-image state,
// encoding the gainmap image (if any) against gainMapEnc — the one
// category encodeOne never drives, since a gainmap is only known once the
// caller attaches one to an Image.
func (e *Encoder) buildEncodeJob() (*encodeJob, error) {
	job := &encodeJob{exif: e.exif, xmp: e.xmp, sato: e.sato}

	if e.gridInfo != nil {
		job.grid = e.gridInfo
		job.color = e.colorCells
		job.colorConfig = deriveAv1Config(e.colorCells[0], nil)
		job.colorSamples = e.colorBufs
		if e.colorCells[0].HasAlpha() {
			job.alphaConfig = deriveAv1Config(alphaAsImage(e.colorCells[0]), nil)
			job.alphaGridSamples = e.alphaCells
		}
	} else {
		job.color = []*avif.Image{e.firstImage}
		job.colorConfig = deriveAv1Config(e.firstImage, nil)
		job.colorSamples = e.colorBufs
		if e.firstImage.HasAlpha() {
			job.alpha = alphaAsImage(e.firstImage)
			job.alphaConfig = deriveAv1Config(job.alpha, nil)
			job.alphaSample = e.alphaCells[len(e.alphaCells)-1]
		}
	}

	if e.gainMap != nil {
		cfg := codec.Config{
			Quality: e.mutable.QualityGainMap,
			Speed:   e.immutable.Speed,
			Threads: e.immutable.Threads,
			Extra:   e.opts.For(avif.CategoryGainMap),
		}
		payload, err := encodeSingle(e.gainMapEnc, e.gainMap.Image, avif.CategoryGainMap, cfg)
		if err != nil {
			e.log("gainmap encode failed: %v", err)
			return nil, avif.ErrEncodeGainMapFailed()
		}
		job.gainMap = e.gainMap
		job.gainMapConfig = deriveAv1Config(e.gainMap.Image, nil)
		job.gainMapSample = payload
	}

	return job, nil
}

// finishImage authors the item graph for a single-image or grid encode and
// packs it into a complete file, preferring the mini container when
// ImmutableSettings selects it and the job is representable in it.
func (e *Encoder) finishImage() ([]byte, error) {
	job, err := e.buildEncodeJob()
	if err != nil {
		return nil, err
	}

	if e.immutable.HeaderFormat == HeaderMinimized {
		data, ok, err := tryEncodeMini(job)
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}
	}

	ib, err := buildItems(job)
	if err != nil {
		return nil, err
	}
	return encodeMetaFile(ib)
}

// tryEncodeMini attempts the low-overhead mif3 encoding, which covers only
// a single non-grid, non-layered, non-bit-depth-extended image.
func tryEncodeMini(job *encodeJob) ([]byte, bool, error) {
	if job.grid != nil || job.sato != nil || len(job.colorSamples) != 1 {
		return nil, false, nil
	}
	opts := mini.EncodeOptions{
		Image:       job.color[0],
		ColorConfig: job.colorConfig,
		ColorSample: job.colorSamples[0],
		Exif:        job.exif,
		XMP:         job.xmp,
	}
	if job.alpha != nil {
		opts.HasAlpha = true
		opts.AlphaPremultiplied = job.alpha.AlphaPremultiplied
		opts.AlphaConfig = job.alphaConfig
		opts.AlphaSample = job.alphaSample
	}
	if job.gainMap != nil {
		opts.GainMap = job.gainMap
		opts.GainMapConfig = job.gainMapConfig
		opts.GainMapSample = job.gainMapSample
	}
	return mini.Encode(opts)
}

// writeExtent writes data into w, reusing an identical previous chunk
// written after boundary when one exists, and returns the absolute file
// offset of the (possibly reused) bytes.
func writeExtent(w *bitio.Writer, boundary int, data []byte) uint64 {
	if off, found := w.Dedupe(boundary, data); found {
		return uint64(off)
	}
	off := w.Len()
	w.Write(data)
	return uint64(off)
}

// encodeMetaFile packs ib into the standard ftyp/meta/mdat box tree,
// writing every item's data in the three-pass order spec.md §4.8
// describes — derived-item metadata, then alpha/gainmap samples, then
// colour samples — and back-patching each `iloc` extent offset once the
// `mdat` layout is known.
func encodeMetaFile(ib *itemBuild) ([]byte, error) {
	itemData := map[uint32][][]byte{}
	for _, it := range ib.model.Items {
		if len(it.InlineData) > 0 {
			itemData[it.ID] = [][]byte{it.InlineData}
		}
	}
	for _, s := range ib.samples {
		itemData[s.item.ID] = append(itemData[s.item.ID], s.payload)
	}

	var metadataItems, alphaGainItems, colorItems []*avif.Item
	for _, it := range ib.model.Items {
		if len(it.InlineData) > 0 {
			metadataItems = append(metadataItems, it)
		}
	}
	seen := map[uint32]bool{}
	for _, s := range ib.samples {
		if seen[s.item.ID] {
			continue
		}
		seen[s.item.ID] = true
		if s.category == avif.CategoryColor {
			colorItems = append(colorItems, s.item)
		} else {
			alphaGainItems = append(alphaGainItems, s.item)
		}
	}

	w := bitio.NewWriter()
	if err := bmff.WriteFtyp(w, "avif", 0, []string{"avif", "mif1", "miaf"}); err != nil {
		return nil, err
	}

	if err := w.StartFullBox("meta", 0, 0); err != nil {
		return nil, err
	}
	if err := writeHdlr(w); err != nil {
		return nil, err
	}
	if err := writePitm(w, ib.primary); err != nil {
		return nil, err
	}
	patchSites, err := writeIloc(w, ib.model, itemData)
	if err != nil {
		return nil, err
	}
	if err := writeIinf(w, ib.model); err != nil {
		return nil, err
	}
	if err := writeIref(w, ib.model); err != nil {
		return nil, err
	}
	if err := writeIprp(w, ib.model, ib.props); err != nil {
		return nil, err
	}
	if err := writeGrpl(w, ib.model); err != nil {
		return nil, err
	}
	if err := w.FinishBox(); err != nil { // meta
		return nil, err
	}

	if err := w.StartBox("mdat"); err != nil {
		return nil, err
	}
	mdatBoundary := w.Len()
	offsets := map[uint32][]uint64{}
	writePass := func(items []*avif.Item) {
		for _, it := range items {
			for _, chunk := range itemData[it.ID] {
				off := writeExtent(w, mdatBoundary, chunk)
				offsets[it.ID] = append(offsets[it.ID], off)
			}
		}
	}
	writePass(metadataItems)
	writePass(alphaGainItems)
	writePass(colorItems)
	if err := w.FinishBox(); err != nil { // mdat
		return nil, err
	}

	for id, sites := range patchSites {
		offs := offsets[id]
		for i, site := range sites {
			w.PatchU32(site, uint32(offs[i]))
		}
	}
	return w.Bytes(), nil
}

// writeHdlr writes a minimal `hdlr` handler box declaring the "pict"
// (still-image) handler type.
func writeHdlr(w *bitio.Writer) error {
	if err := w.StartFullBox("hdlr", 0, 0); err != nil {
		return err
	}
	w.WriteU32(0) // pre_defined
	w.Write([]byte("pict"))
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteCString("")
	return w.FinishBox()
}

// writePitm writes the `pitm` primary-item box.
func writePitm(w *bitio.Writer, primary uint32) error {
	if err := w.StartFullBox("pitm", 0, 0); err != nil {
		return err
	}
	w.WriteU16(uint16(primary))
	return w.FinishBox()
}

// writeIloc writes the `iloc` item-location box with placeholder extent
// offsets, returning the buffer offset of each placeholder so the caller
// can patch it in once the `mdat` layout is known. Offsets are written in
// model.Items order; within an item, in itemData's order, which
// encodeMetaFile's writePass reproduces exactly during mdat packing.
func writeIloc(w *bitio.Writer, model *avif.ItemModel, itemData map[uint32][][]byte) (map[uint32][]int, error) {
	if err := w.StartFullBox("iloc", 0, 0); err != nil {
		return nil, err
	}
	w.WriteU8(0x44) // offset_size=4, length_size=4
	w.WriteU8(0x00) // base_offset_size=0, index_size=0

	var withData []*avif.Item
	for _, it := range model.Items {
		if len(itemData[it.ID]) > 0 {
			withData = append(withData, it)
		}
	}
	w.WriteU16(uint16(len(withData)))

	sites := map[uint32][]int{}
	for _, it := range withData {
		w.WriteU16(uint16(it.ID))
		w.WriteU16(1) // data_reference_index
		extents := itemData[it.ID]
		w.WriteU16(uint16(len(extents)))
		for _, chunk := range extents {
			sites[it.ID] = append(sites[it.ID], w.Len())
			w.WriteU32(0) // extent_offset, patched once mdat is written.
			w.WriteU32(uint32(len(chunk)))
		}
	}
	return sites, w.FinishBox()
}

// writeIinf writes the `iinf` item-info box, one `infe` child per item.
func writeIinf(w *bitio.Writer, model *avif.ItemModel) error {
	if err := w.StartFullBox("iinf", 0, 0); err != nil {
		return err
	}
	w.WriteU16(uint16(len(model.Items)))
	for _, it := range model.Items {
		if err := writeInfe(w, it); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeInfe writes one `infe` item-info-entry box.
func writeInfe(w *bitio.Writer, it *avif.Item) error {
	var flags uint32
	if it.Hidden {
		flags |= 0x1
	}
	if err := w.StartFullBox("infe", 2, flags); err != nil {
		return err
	}
	w.WriteU16(uint16(it.ID))
	w.WriteU16(0) // item_protection_index
	w.Write([]byte(it.Type))
	w.WriteCString(it.Name)
	if it.Type == "mime" {
		w.WriteCString(it.ContentType)
	}
	return w.FinishBox()
}

// writeIref writes the `iref` item-reference box: one child box per
// reference edge, named by its reference type, plus a synthesized `dimg`
// edge for every item with DimgInputs set (buildItems tracks dimg
// separately from References, the way parseMeta reassembles it on decode).
func writeIref(w *bitio.Writer, model *avif.ItemModel) error {
	type edge struct {
		from uint32
		ref  avif.ItemReference
	}
	var edges []edge
	for _, it := range model.Items {
		for _, ref := range it.References {
			edges = append(edges, edge{it.ID, ref})
		}
		if len(it.DimgInputs) > 0 {
			edges = append(edges, edge{it.ID, avif.ItemReference{Type: "dimg", To: it.DimgInputs}})
		}
	}
	if len(edges) == 0 {
		return nil
	}
	if err := w.StartFullBox("iref", 0, 0); err != nil {
		return err
	}
	for _, e := range edges {
		if err := w.StartBox(e.ref.Type); err != nil {
			return err
		}
		w.WriteU16(uint16(e.from))
		w.WriteU16(uint16(len(e.ref.To)))
		for _, to := range e.ref.To {
			w.WriteU16(uint16(to))
		}
		if err := w.FinishBox(); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeIprp writes the `iprp` item-properties box: its `ipco` property
// container followed by the `ipma` item-property-association table.
func writeIprp(w *bitio.Writer, model *avif.ItemModel, props *propertyTable) error {
	if err := w.StartBox("iprp"); err != nil {
		return err
	}
	if err := w.StartBox("ipco"); err != nil {
		return err
	}
	w.Write(props.ipcoBytes())
	if err := w.FinishBox(); err != nil {
		return err
	}

	var withAssoc []*avif.Item
	for _, it := range model.Items {
		if len(it.Associations) > 0 {
			withAssoc = append(withAssoc, it)
		}
	}
	if err := w.StartFullBox("ipma", 0, 1); err != nil { // flags=1: large (2-byte) indices throughout.
		return err
	}
	w.WriteU32(uint32(len(withAssoc)))
	for _, it := range withAssoc {
		w.WriteU16(uint16(it.ID))
		w.WriteU8(uint8(len(it.Associations)))
		for _, a := range it.Associations {
			v := uint16(a.PropertyIndex) & 0x7fff
			if a.Essential {
				v |= 0x8000
			}
			w.WriteU16(v)
		}
	}
	if err := w.FinishBox(); err != nil {
		return err
	}
	return w.FinishBox() // iprp
}

// writeGrpl writes the `grpl` entity-group-list box, one child per
// EntityGroup.
func writeGrpl(w *bitio.Writer, model *avif.ItemModel) error {
	if len(model.EntityGroups) == 0 {
		return nil
	}
	if err := w.StartBox("grpl"); err != nil {
		return err
	}
	for i, g := range model.EntityGroups {
		if err := w.StartFullBox(g.Type, 0, 0); err != nil {
			return err
		}
		w.WriteU16(uint16(i + 1)) // group_id, this codec's own, never referenced externally.
		w.WriteU32(uint32(len(g.Members)))
		for _, m := range g.Members {
			w.WriteU32(m)
		}
		if err := w.FinishBox(); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// unityMatrix writes the nine 32-bit identity transformation-matrix
// entries tkhd/mvhd share: {1,0,0, 0,1,0, 0,0,0x40000000} in 16.16/2.30
// fixed point.
func unityMatrix(w *bitio.Writer) {
	entries := [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
	for _, v := range entries {
		w.WriteU32(v)
	}
}

// finishSequence authors the ftyp/moov/mdat box tree for a buffered image
// sequence, back-patching the `stco` chunk offsets once the `mdat` layout
// is known the same way encodeMetaFile patches `iloc`.
func (e *Encoder) finishSequence() ([]byte, error) {
	if len(e.frames) == 0 {
		return nil, avif.ErrMissingImageItem()
	}
	cfg := deriveAv1Config(e.firstImage, nil)

	var totalDuration uint64
	for _, f := range e.frames {
		totalDuration += f.durationInTimescales
	}

	w := bitio.NewWriter()
	if err := bmff.WriteFtyp(w, "avis", 0, []string{"avis", "avif", "msf1", "mif1", "miaf"}); err != nil {
		return nil, err
	}

	if err := w.StartBox("moov"); err != nil {
		return nil, err
	}
	if err := writeMvhd(w, e.immutable, totalDuration); err != nil {
		return nil, err
	}
	if err := w.StartBox("trak"); err != nil {
		return nil, err
	}
	if err := writeTkhd(w, e.immutable, e.trackW, e.trackH); err != nil {
		return nil, err
	}
	if e.immutable.Repetition.Infinite {
		if err := writeEdts(w); err != nil {
			return nil, err
		}
	}
	if err := w.StartBox("mdia"); err != nil {
		return nil, err
	}
	if err := writeMdhd(w, e.immutable, totalDuration); err != nil {
		return nil, err
	}
	if err := writeTrackHdlr(w); err != nil {
		return nil, err
	}
	if err := w.StartBox("minf"); err != nil {
		return nil, err
	}
	if err := writeVmhd(w); err != nil {
		return nil, err
	}
	if err := writeDinf(w); err != nil {
		return nil, err
	}
	if err := w.StartBox("stbl"); err != nil {
		return nil, err
	}
	if err := writeStsd(w, e.trackW, e.trackH, cfg); err != nil {
		return nil, err
	}
	writeStts(w, e.frames)
	writeStsc(w, len(e.frames))
	writeStsz(w, e.frames)
	stcoSite, err := writeStcoPlaceholder(w, len(e.frames))
	if err != nil {
		return nil, err
	}
	if err := writeStss(w, e.frames); err != nil {
		return nil, err
	}
	if err := w.FinishBox(); err != nil { // stbl
		return nil, err
	}
	if err := w.FinishBox(); err != nil { // minf
		return nil, err
	}
	if err := w.FinishBox(); err != nil { // mdia
		return nil, err
	}
	if err := w.FinishBox(); err != nil { // trak
		return nil, err
	}
	if err := w.FinishBox(); err != nil { // moov
		return nil, err
	}

	if err := w.StartBox("mdat"); err != nil {
		return nil, err
	}
	mdatBoundary := w.Len()
	offsets := make([]uint64, len(e.frames))
	for i, f := range e.frames {
		offsets[i] = writeExtent(w, mdatBoundary, f.sample)
	}
	if err := w.FinishBox(); err != nil { // mdat
		return nil, err
	}

	for i, off := range offsets {
		w.PatchU32(stcoSite+i*4, uint32(off))
	}
	return w.Bytes(), nil
}

// writeMvhd writes the `mvhd` movie-header box, version 0.
func writeMvhd(w *bitio.Writer, imm ImmutableSettings, duration uint64) error {
	if err := w.StartFullBox("mvhd", 0, 0); err != nil {
		return err
	}
	w.WriteU32(uint32(imm.CreationTime))
	w.WriteU32(uint32(imm.ModificationTime))
	w.WriteU32(imm.Timescale)
	w.WriteU32(uint32(duration))
	w.WriteU32(0x00010000) // rate, normal playback.
	w.WriteU16(0x0100)     // volume, full.
	w.WriteU16(0)          // reserved.
	w.WriteU32(0)
	w.WriteU32(0)
	unityMatrix(w)
	for i := 0; i < 6; i++ {
		w.WriteU32(0) // pre_defined.
	}
	w.WriteU32(2) // next_track_ID; track 1 is the only track this codec authors.
	return w.FinishBox()
}

// writeTkhd writes the `tkhd` track-header box, version 0, with track_ID 1
// and an enabled-in-movie flag.
func writeTkhd(w *bitio.Writer, imm ImmutableSettings, width, height int) error {
	if err := w.StartFullBox("tkhd", 0, 0x1); err != nil {
		return err
	}
	w.WriteU32(uint32(imm.CreationTime))
	w.WriteU32(uint32(imm.ModificationTime))
	w.WriteU32(1) // track_ID.
	w.WriteU32(0) // reserved.
	w.WriteU32(0) // duration; unknown at the movie timescale without an mvhd cross-reference, left 0.
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU16(0) // layer.
	w.WriteU16(0) // alternate_group.
	w.WriteU16(0) // volume, 0 for a non-audio track.
	w.WriteU16(0) // reserved.
	unityMatrix(w)
	w.WriteU32(uint32(width) << 16)
	w.WriteU32(uint32(height) << 16)
	return w.FinishBox()
}

// writeEdts writes an `edts`/`elst` pair with a single zero-duration entry,
// the ISOBMFF infinite-loop convention bmff.parseTrak's RepeatCount=-1 case
// recognizes.
func writeEdts(w *bitio.Writer) error {
	if err := w.StartBox("edts"); err != nil {
		return err
	}
	if err := w.StartFullBox("elst", 0, 0); err != nil {
		return err
	}
	w.WriteU32(1) // entry_count.
	w.WriteU32(0) // segment_duration.
	w.WriteU32(0) // media_time.
	w.WriteU16(1) // media_rate_integer.
	w.WriteU16(0) // media_rate_fraction.
	if err := w.FinishBox(); err != nil {
		return err
	}
	return w.FinishBox()
}

// writeMdhd writes the `mdhd` media-header box, version 0, with the
// undetermined ("und") language code.
func writeMdhd(w *bitio.Writer, imm ImmutableSettings, duration uint64) error {
	if err := w.StartFullBox("mdhd", 0, 0); err != nil {
		return err
	}
	w.WriteU32(uint32(imm.CreationTime))
	w.WriteU32(uint32(imm.ModificationTime))
	w.WriteU32(imm.Timescale)
	w.WriteU32(uint32(duration))
	w.WriteU16(0x55c4) // language "und".
	w.WriteU16(0)      // pre_defined.
	return w.FinishBox()
}

// writeTrackHdlr writes the track-level `hdlr` box, handler type "pict".
func writeTrackHdlr(w *bitio.Writer) error { return writeHdlr(w) }

// writeVmhd writes the `vmhd` video-media-header box.
func writeVmhd(w *bitio.Writer) error {
	if err := w.StartFullBox("vmhd", 0, 1); err != nil {
		return err
	}
	w.WriteU16(0) // graphicsmode.
	w.WriteU16(0) // opcolor red/green/blue.
	w.WriteU16(0)
	w.WriteU16(0)
	return w.FinishBox()
}

// writeDinf writes a `dinf`/`dref` pair with a single self-contained `url `
// entry, the minimal data-information box every ISOBMFF track requires.
func writeDinf(w *bitio.Writer) error {
	if err := w.StartBox("dinf"); err != nil {
		return err
	}
	if err := w.StartFullBox("dref", 0, 0); err != nil {
		return err
	}
	w.WriteU32(1) // entry_count.
	if err := w.StartFullBox("url ", 0, 1); err != nil { // flags=1: media data is in this file.
		return err
	}
	if err := w.FinishBox(); err != nil {
		return err
	}
	if err := w.FinishBox(); err != nil { // dref
		return err
	}
	return w.FinishBox() // dinf
}

// writeStsd writes the `stsd` sample-description box with a single `av01`
// sample entry, matching bmff.parseStsd's field layout exactly.
func writeStsd(w *bitio.Writer, width, height int, cfg avif.Av1Config) error {
	if err := w.StartFullBox("stsd", 0, 0); err != nil {
		return err
	}
	w.WriteU32(1) // entry_count.
	if err := w.StartBox("av01"); err != nil {
		return err
	}
	for i := 0; i < 6; i++ {
		w.WriteU8(0) // reserved.
	}
	w.WriteU16(1) // data_reference_index.
	w.WriteU16(0) // pre_defined.
	w.WriteU16(0) // reserved.
	for i := 0; i < 3; i++ {
		w.WriteU32(0) // pre_defined.
	}
	w.WriteU16(uint16(width))
	w.WriteU16(uint16(height))
	w.WriteU32(0x00480000) // horizresolution, 72dpi.
	w.WriteU32(0x00480000) // vertresolution, 72dpi.
	w.WriteU32(0)          // reserved.
	w.WriteU16(1)          // frame_count.
	var compressorname [32]byte // length-prefixed Pascal string, empty.
	w.Write(compressorname[:])
	w.WriteU16(0x0018) // depth.
	w.WriteU16(0xffff) // pre_defined (-1).
	if err := w.StartBox("av1C"); err != nil {
		return err
	}
	encodeAv1C(w, cfg)
	if err := w.FinishBox(); err != nil {
		return err
	}
	if err := w.FinishBox(); err != nil { // av01
		return err
	}
	return w.FinishBox() // stsd
}

// writeStts writes the `stts` time-to-sample box with one (count=1, delta)
// entry per frame, forgoing run-length compression of equal deltas for
// simplicity.
func writeStts(w *bitio.Writer, frames []sequenceFrame) {
	w.StartFullBox("stts", 0, 0)
	w.WriteU32(uint32(len(frames)))
	for _, f := range frames {
		w.WriteU32(1)
		w.WriteU32(uint32(f.durationInTimescales))
	}
	w.FinishBox()
}

// writeStsc writes an `stsc` sample-to-chunk box with a single
// one-sample-per-chunk run.
func writeStsc(w *bitio.Writer, frameCount int) {
	w.StartFullBox("stsc", 0, 0)
	w.WriteU32(1)
	w.WriteU32(1) // first_chunk.
	w.WriteU32(1) // samples_per_chunk.
	w.WriteU32(1) // sample_description_index.
	w.FinishBox()
}

// writeStsz writes an `stsz` sample-size box with per-sample sizes.
func writeStsz(w *bitio.Writer, frames []sequenceFrame) {
	w.StartFullBox("stsz", 0, 0)
	w.WriteU32(0) // sample_size=0: sizes vary, given individually below.
	w.WriteU32(uint32(len(frames)))
	for _, f := range frames {
		w.WriteU32(uint32(len(f.sample)))
	}
	w.FinishBox()
}

// writeStcoPlaceholder writes an `stco` chunk-offset box with zeroed
// offsets, returning the buffer offset of the first entry so the caller
// can patch all of them in once `mdat` is written.
func writeStcoPlaceholder(w *bitio.Writer, frameCount int) (int, error) {
	if err := w.StartFullBox("stco", 0, 0); err != nil {
		return 0, err
	}
	w.WriteU32(uint32(frameCount))
	site := w.Len()
	for i := 0; i < frameCount; i++ {
		w.WriteU32(0)
	}
	return site, w.FinishBox()
}

// writeStss writes an `stss` sync-sample box listing 1-based sync sample
// numbers, omitted entirely when every frame is a sync sample (matching
// bmff.flattenSamples' "no stss means all-sync" convention).
func writeStss(w *bitio.Writer, frames []sequenceFrame) error {
	var syncNums []uint32
	allSync := true
	for i, f := range frames {
		if f.sync {
			syncNums = append(syncNums, uint32(i+1))
		} else {
			allSync = false
		}
	}
	if allSync {
		return nil
	}
	if err := w.StartFullBox("stss", 0, 0); err != nil {
		return err
	}
	w.WriteU32(uint32(len(syncNums)))
	for _, n := range syncNums {
		w.WriteU32(n)
	}
	return w.FinishBox()
}
