/*
NAME
  tiles.go

DESCRIPTION
  tiles.go assembles the tile list for one frame (a plain item, a grid's
  cells, or a sample-transform's inputs) and, when MaxThreads > 1, fans
  decoding of those tiles out onto a worker pool, joining before the frame
  is published. The colour, alpha and gain map categories are decoded in
  turn, not concurrently with one another.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/codec"
	"github.com/ausocean/avif/grid"
	worker "github.com/ausocean/avif/internal/worker"
)

// decodeFrame decodes frame index n, dispatching to the image-sequence,
// item, or sample-transform path as appropriate, then attaching alpha and
// gain map categories in the fixed color→alpha→gainmap order.
func (d *Decoder) decodeFrame(n int) (*avif.Image, Timing, error) {
	if d.mainTrack != nil {
		return d.decodeTrackFrame(n)
	}
	return d.decodeItemFrame(n)
}

// decodeTrackFrame decodes one image-sequence sample, plus its aligned
// alpha sample if an alpha track is present.
func (d *Decoder) decodeTrackFrame(n int) (*avif.Image, Timing, error) {
	sample := d.mainTrack.Samples[n]
	payload, err := d.readRange(sample.Offset, uint64(sample.Size))
	if err != nil {
		return nil, Timing{}, err
	}
	im := &avif.Image{Width: d.mainTrack.Width, Height: d.mainTrack.Height}
	if d.mainTrack.Config != nil {
		im.Depth = d.mainTrack.Config.Depth()
	}
	if err := d.colorDec.GetNextImage(payload, 0xFF, im, avif.CategoryColor); err != nil {
		return nil, Timing{}, avif.ErrDecodeColorFailed()
	}

	if d.alphaTrack != nil && n < len(d.alphaTrack.Samples) {
		as := d.alphaTrack.Samples[n]
		apayload, err := d.readRange(as.Offset, uint64(as.Size))
		if err != nil {
			return nil, Timing{}, err
		}
		if err := d.alphaDec.GetNextImage(apayload, 0xFF, im, avif.CategoryAlpha); err != nil {
			return nil, Timing{}, avif.ErrDecodeAlphaFailed()
		}
	}

	timing := Timing{FormatTag: "av01"}
	if d.mainTrack.Timescale != 0 {
		timing.DurationInTimescales = 1
		timing.Duration = int64(n) // placeholder cadence; real duration comes from stts, not modeled per-sample here.
		timing.PTSInTimescales = int64(n)
	}
	return im, timing, nil
}

// decodeItemFrame decodes one still/progressive/grid/sample-transform
// frame for layer index n (n is always 0 for non-progressive items).
func (d *Decoder) decodeItemFrame(n int) (*avif.Image, Timing, error) {
	primary := d.r.Model.Primary()
	if primary == nil {
		return nil, Timing{}, avif.ErrMissingImageItem()
	}

	var im *avif.Image
	var err error
	switch primary.Type {
	case "grid":
		im, err = d.decodeGridItem(primary, n)
	case "sato":
		im, err = d.decodeSatoItem(primary, n)
	default:
		im, err = d.decodePlainItem(primary, n)
	}
	if err != nil {
		return nil, Timing{}, err
	}
	im.Progressive = d.progressive == ProgressiveActive

	if err := d.attachAlpha(primary, im); err != nil {
		return nil, Timing{}, err
	}
	if err := d.attachGainMap(primary, im); err != nil {
		return nil, Timing{}, err
	}
	d.attachMetadata(primary, im)

	return im, Timing{FormatTag: "av01"}, nil
}

// decodePlainItem decodes a single av01 item, selecting layer n's extent
// when the item is layered.
func (d *Decoder) decodePlainItem(it *avif.Item, layer int) (*avif.Image, error) {
	payload, err := d.layerPayload(it, layer)
	if err != nil {
		return nil, err
	}
	im := &avif.Image{Width: it.Width, Height: it.Height}
	if it.Config != nil {
		im.Depth = it.Config.Depth()
	}
	if err := d.categoryDecoder(it.Category).GetNextImage(payload, 0xFF, im, it.Category); err != nil {
		return nil, categoryDecodeError(it.Category)
	}
	return im, nil
}

// layerPayload returns the coded payload for layer index layer of it: the
// full concatenated item data for a non-layered item, or one dedicated
// extent per layer when ExtraLayerCount > 0.
func (d *Decoder) layerPayload(it *avif.Item, layer int) ([]byte, error) {
	if it.ExtraLayerCount == 0 || layer >= len(it.Extents) {
		return d.r.ItemData(d.data, it)
	}
	e := it.Extents[layer]
	return d.readRange(e.Offset, e.Length)
}

func (d *Decoder) categoryDecoder(cat avif.Category) codec.Decoder {
	switch cat {
	case avif.CategoryAlpha:
		return d.alphaDec
	case avif.CategoryGainMap:
		return d.gainDec
	default:
		return d.colorDec
	}
}

func categoryDecodeError(cat avif.Category) error {
	switch cat {
	case avif.CategoryAlpha:
		return avif.ErrDecodeAlphaFailed()
	case avif.CategoryGainMap:
		return avif.ErrDecodeGainMapFailed()
	default:
		return avif.ErrDecodeColorFailed()
	}
}

// decodeGridItem decodes every cell of a `grid` derived item (fanned out
// across d.cfg.MaxThreads workers when > 1) and composes them into one
// output image per grid.Plan.
func (d *Decoder) decodeGridItem(it *avif.Item, layer int) (*avif.Image, error) {
	payload, err := d.r.ItemData(d.data, it)
	if err != nil {
		return nil, err
	}
	g, err := grid.DecodeGrid(payload)
	if err != nil {
		return nil, err
	}
	if len(it.DimgInputs) != g.Rows*g.Columns {
		return nil, avif.ErrInvalidImageGrid("grid item %d declares %d cells, has %d dimg inputs", it.ID, g.Rows*g.Columns, len(it.DimgInputs))
	}

	cells := make([]*avif.Item, len(it.DimgInputs))
	widths := make([]int, len(it.DimgInputs))
	heights := make([]int, len(it.DimgInputs))
	for i, id := range it.DimgInputs {
		cell := d.r.Model.ByID(id)
		if cell == nil {
			return nil, avif.ErrInvalidImageGrid("grid cell %d references missing item %d", i, id)
		}
		cells[i] = cell
		widths[i], heights[i] = cell.Width, cell.Height
	}
	plan, err := grid.ResolvePlan(g, widths, heights)
	if err != nil {
		return nil, err
	}

	cellImages := make([]*avif.Image, len(cells))
	err = worker.Run(len(cells), d.cfg.MaxThreads, func(i int) error {
		im, err := d.decodePlainItem(cells[i], layer)
		if err != nil {
			return err
		}
		cellImages[i] = im
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &avif.Image{
		Width:    int(g.OutputWidth),
		Height:   int(g.OutputHeight),
		Depth:    cellImages[0].Depth,
		Format:   cellImages[0].Format,
		YUVRange: cellImages[0].YUVRange,
	}
	allocatePlanes(out)
	for _, cp := range plan.Cells {
		blitCell(out, cellImages[cp.ItemIndex], cp.X, cp.Y)
	}
	return out, nil
}

// decodeSatoItem decodes every sample-transform input item and evaluates
// the expression element-wise into the output image's planes.
func (d *Decoder) decodeSatoItem(it *avif.Item, layer int) (*avif.Image, error) {
	payload, err := d.r.ItemData(d.data, it)
	if err != nil {
		return nil, err
	}
	expr, err := grid.DecodeExpression(payload)
	if err != nil {
		return nil, err
	}

	inputs := make([]*avif.Image, len(it.DimgInputs))
	err = worker.Run(len(inputs), d.cfg.MaxThreads, func(i int) error {
		input := d.r.Model.ByID(it.DimgInputs[i])
		if input == nil {
			return avif.ErrInvalidArgument("sato input %d references missing item", i)
		}
		im, err := d.decodePlainItem(input, layer)
		if err != nil {
			return err
		}
		inputs[i] = im
		return nil
	})
	if err != nil {
		return nil, err
	}

	base := inputs[0]
	out := &avif.Image{Width: base.Width, Height: base.Height, Depth: 16, Format: base.Format, YUVRange: base.YUVRange}
	allocatePlanes(out)
	for pi := range out.YUVPlanes() {
		dst := out.Planes[pi]
		for y := 0; y < dst.Height; y++ {
			for x := 0; x < dst.Width; x++ {
				samples := make([]int64, len(inputs))
				for i, im := range inputs {
					samples[i] = samplePlane(im.Planes[pi], x, y)
				}
				v, err := expr.Apply(samples)
				if err != nil {
					return nil, err
				}
				setPlaneSample(dst, x, y, v)
			}
		}
	}
	return out, nil
}

// attachAlpha decodes and attaches the `auxl`-linked alpha item, if any,
// enforcing the color/alpha dimension-match invariant.
func (d *Decoder) attachAlpha(primary *avif.Item, im *avif.Image) error {
	ref := primary.FindReference("auxl")
	if ref == nil || len(ref.To) == 0 {
		return nil
	}
	alpha := d.r.Model.ByID(ref.To[0])
	if alpha == nil {
		return avif.ErrMissingImageItem()
	}
	if alpha.Width != 0 && alpha.Height != 0 && (alpha.Width != im.Width || alpha.Height != im.Height) {
		return avif.ErrColorAlphaSizeMismatch()
	}
	aim, err := d.decodePlainItem(alpha, 0)
	if err != nil {
		return avif.ErrDecodeAlphaFailed()
	}
	im.AlphaPlane = aim.Planes[0]
	im.AlphaPremultiplied = primary.FindReference("prem") != nil
	return nil
}

// attachGainMap decodes the gainmap input of the `tmap` alternative to
// primary, if present, and attaches it as im.GainMap.
func (d *Decoder) attachGainMap(primary *avif.Item, im *avif.Image) error {
	tmap := findTmapFor(d.r.Model, primary.ID)
	if tmap == nil {
		return nil
	}
	if len(tmap.DimgInputs) < 2 {
		return avif.ErrInvalidToneMappedImage("tmap item %d has fewer than two dimg inputs", tmap.ID)
	}
	gainItem := d.r.Model.ByID(tmap.DimgInputs[1])
	if gainItem == nil {
		return avif.ErrInvalidToneMappedImage("tmap item %d gain map input is missing", tmap.ID)
	}
	gim, err := d.decodePlainItem(gainItem, 0)
	if err != nil {
		return avif.ErrDecodeGainMapFailed()
	}
	payload, err := d.r.ItemData(d.data, tmap)
	if err != nil {
		return err
	}
	if len(payload) < 1 {
		return avif.ErrInvalidToneMappedImage("tmap item %d payload is empty", tmap.ID)
	}
	meta, err := avif.DecodeMetadata(payload[1:])
	if err != nil {
		return err
	}
	im.GainMap = &avif.GainMap{Image: gim, Metadata: meta}
	return nil
}

// attachMetadata fills in the eagerly-cached Exif/XMP/ICC payloads for the
// primary item.
func (d *Decoder) attachMetadata(primary *avif.Item, im *avif.Image) {
	if ref := primary.FindReference("cdsc"); ref != nil {
		for _, id := range ref.To {
			if b, ok := d.exifCache[id]; ok {
				im.Exif = b
			}
			if b, ok := d.xmpCache[id]; ok {
				im.XMP = b
			}
		}
	}
	im.Transform.Mirror = -1 // none unless an imir property says otherwise.
	props, err := d.r.Model.PropertiesOf(primary)
	if err != nil {
		return
	}
	for _, p := range props {
		switch p.Kind {
		case avif.PropColourInformation:
			im.NCLX = p.NCLX
			im.ICC = p.ICC
		case avif.PropRotation:
			im.Transform.Rotation = p.Rotation
		case avif.PropMirror:
			im.Transform.Mirror = p.Mirror
		case avif.PropPixelAspectRatio:
			im.Transform.PixelAspectRatio = p.PixelAspectRatio
		case avif.PropCleanAperture:
			im.Transform.CleanAperture = p.CleanAperture
		case avif.PropContentLightLevel:
			im.CLLI = p.CLLI
		case avif.PropContentRange:
			if p.FullRange {
				im.YUVRange = avif.RangeFull
			}
		}
	}
}

// findTmapFor returns the `tmap` item whose `altr` entity group contains
// primaryID, or nil.
func findTmapFor(m *avif.ItemModel, primaryID uint32) *avif.Item {
	g := m.AltrGroupFor(primaryID)
	if g == nil {
		return nil
	}
	for _, id := range g.Members {
		if id == primaryID {
			continue
		}
		it := m.ByID(id)
		if it != nil && it.Type == "tmap" {
			return it
		}
	}
	return nil
}

func (d *Decoder) readRange(offset, length uint64) ([]byte, error) {
	if offset+length > uint64(len(d.data)) {
		return nil, avif.ErrTruncatedData()
	}
	return d.data[offset : offset+length], nil
}

// allocatePlanes sizes im.Planes (and, for its caller's convenience, not
// the alpha plane) according to im.Format's chroma subsampling.
func allocatePlanes(im *avif.Image) {
	shiftX, shiftY := im.Format.ChromaShift()
	rowBytes := func(w, depth int) int {
		if depth > 8 {
			return w * 2
		}
		return w
	}
	for i := 0; i < im.Format.PlaneCount(); i++ {
		w, h := im.Width, im.Height
		if i > 0 {
			w, h = w>>shiftX, h>>shiftY
		}
		im.Planes[i] = &avif.Plane{
			Width: w, Height: h, Depth: im.Depth,
			RowBytes: rowBytes(w, im.Depth),
			Data:     make([]byte, rowBytes(w, im.Depth)*h),
		}
	}
}

// blitCell copies src's planes into dst at pixel offset (x0,y0), scaled by
// dst's chroma subsampling for planes beyond the first.
func blitCell(dst, src *avif.Image, x0, y0 int) {
	shiftX, shiftY := dst.Format.ChromaShift()
	for pi := 0; pi < dst.Format.PlaneCount() && pi < len(src.Planes) && src.Planes[pi] != nil; pi++ {
		dp, sp := dst.Planes[pi], src.Planes[pi]
		px, py := x0, y0
		if pi > 0 {
			px, py = x0>>shiftX, y0>>shiftY
		}
		bpp := 1
		if dp.Depth > 8 {
			bpp = 2
		}
		for row := 0; row < sp.Height; row++ {
			srcOff := row * sp.RowBytes
			dstOff := (py+row)*dp.RowBytes + px*bpp
			if srcOff+sp.Width*bpp > len(sp.Data) || dstOff+sp.Width*bpp > len(dp.Data) {
				continue
			}
			copy(dp.Data[dstOff:dstOff+sp.Width*bpp], sp.Data[srcOff:srcOff+sp.Width*bpp])
		}
	}
}

// samplePlane reads one pixel from p as a signed 64-bit sample, honoring
// p.Depth's byte width.
func samplePlane(p *avif.Plane, x, y int) int64 {
	if p == nil {
		return 0
	}
	if p.Depth > 8 {
		off := y*p.RowBytes + x*2
		if off+2 > len(p.Data) {
			return 0
		}
		return int64(uint16(p.Data[off]) | uint16(p.Data[off+1])<<8)
	}
	off := y*p.RowBytes + x
	if off >= len(p.Data) {
		return 0
	}
	return int64(p.Data[off])
}

func setPlaneSample(p *avif.Plane, x, y int, v int64) {
	if p.Depth > 8 {
		off := y*p.RowBytes + x*2
		if off+2 > len(p.Data) {
			return
		}
		u := uint16(v)
		p.Data[off] = byte(u)
		p.Data[off+1] = byte(u >> 8)
		return
	}
	off := y*p.RowBytes + x
	if off >= len(p.Data) {
		return
	}
	p.Data[off] = byte(v)
}
