/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements Encoder, the add-image/finish orchestrator
  spec.md §4.8 describes: it fans an image's categories out to a codec
  back-end, accumulates the resulting item graph across single-image,
  grid and image-sequence calls, and produces one complete AVIF byte
  blob on Finish.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package encoder implements the AVIF encoder orchestrator: item/property
// authoring, tiling, gainmap/grid/bit-depth-extension composition and
// `mdat` packing on top of a pluggable codec.Encoder back-end, the
// add-image/finish counterpart to package decoder's parse/next-image
// state machine.
package encoder

import (
	"github.com/ausocean/avif"
	"github.com/ausocean/avif/codec"
	"github.com/ausocean/avif/grid"
	"github.com/ausocean/avif/internal/worker"
	"github.com/ausocean/avif/logging"
)

// sequenceFrame is one add_image_for_sequence call's payload, accumulated
// until Finish assembles the moov/trak/stbl track.
type sequenceFrame struct {
	sample               []byte
	durationInTimescales uint64
	sync                 bool
}

// Encoder accumulates add-image calls and authors one complete AVIF file
// on Finish. A single Encoder instance is single-use: Finish consumes its
// state and a second Finish call fails.
type Encoder struct {
	mutable   MutableSettings
	immutable ImmutableSettings
	opts      *OptionSet
	logger    logging.Logger

	colorEnc   codec.Encoder
	alphaEnc   codec.Encoder
	gainMapEnc codec.Encoder

	started  bool // true once the first add-image call locks immutable settings.
	finished bool

	sequence bool
	frames   []sequenceFrame
	trackW, trackH int

	// Single-image/grid accumulation.
	layersWant  int // ExtraLayerCount+1.
	colorCells  []*avif.Image
	colorBufs   [][]byte
	firstImage  *avif.Image
	gridInfo    *grid.Grid
	alphaCells  [][]byte

	// gainMap is captured off the first add-image call that carries one;
	// Finish encodes it against gainMapEnc and pairs it with the primary
	// item via an `altr` entity group.
	gainMap *avif.GainMap

	// sato is set when AddImage applies a bit-depth-extension recipe,
	// carrying the already-encoded auxiliary image Finish authors as a
	// hidden `sato` input alongside the primary item.
	sato *satoJob

	exif, xmp []byte
}

// NewEncoder returns an Encoder configured per mutable/immutable, using
// logger (which may be nil) to report non-fatal progress the way
// decoder.Decoder's orchestrator would via the same Logger contract.
func NewEncoder(mutable MutableSettings, immutable ImmutableSettings, logger logging.Logger) (*Encoder, error) {
	backend, err := codec.Lookup(immutable.Codec)
	if err != nil || backend.NewEncoder == nil {
		return nil, avif.ErrNoCodecAvailable()
	}
	e := &Encoder{
		mutable:   mutable,
		immutable: immutable,
		opts:      NewOptionSet(),
		logger:    logger,
	}
	e.colorEnc = backend.NewEncoder()
	e.alphaEnc = backend.NewEncoder()
	e.gainMapEnc = backend.NewEncoder()
	e.layersWant = immutable.ExtraLayerCount + 1
	return e, nil
}

// SetOption records a codec-specific key=value option.
func (e *Encoder) SetOption(key, value string) {
	e.opts.Set(key, value)
}

// SetMetadata attaches Exif and/or XMP payloads to the next-finished
// primary item. Either may be nil.
func (e *Encoder) SetMetadata(exif, xmp []byte) {
	e.exif, e.xmp = exif, xmp
}

func (e *Encoder) log(format string, params ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(format, params...)
	}
}

// lockSettings records that an add-image call has been made; Finish fails
// with avif.ErrMissingImageItem when none has.
func (e *Encoder) lockSettings() {
	e.started = true
}

// AddImage adds one single-image layer. Non-layered encodes call this
// exactly once; layered encodes call it ExtraLayerCount+1 times before
// Finish, each call one strictly-better layer.
func (e *Encoder) AddImage(img *avif.Image) error {
	if e.finished {
		return avif.ErrInvalidArgument("encoder: AddImage after Finish")
	}
	if e.sequence {
		return avif.ErrInvalidArgument("encoder: AddImage after AddImageForSequence")
	}
	if e.gridInfo != nil {
		return avif.ErrInvalidArgument("encoder: AddImage after AddImageGrid")
	}
	if len(e.colorCells) >= e.layersWant {
		return avif.ErrInvalidArgument("encoder: AddImage called more than ExtraLayerCount+1 times")
	}
	e.lockSettings()

	if e.gainMap == nil && img.GainMap != nil {
		e.gainMap = img.GainMap
	}

	encodeImg := img
	recipe := resolveRecipe(e.immutable.Recipe, img.Depth)
	switch {
	case recipe != RecipeNone:
		if e.layersWant > 1 || len(e.colorCells) > 0 {
			return avif.ErrInvalidArgument("encoder: bit-depth-extension recipe requires a single non-layered image")
		}
		base, aux, expr, err := splitBDE(img, recipe)
		if err != nil {
			return err
		}
		auxCfg := codec.Config{
			Quality: e.mutable.QualityColor,
			Speed:   e.immutable.Speed,
			Threads: e.immutable.Threads,
			Extra:   e.opts.For(avif.CategoryColor),
		}
		auxPayload, err := encodeSingle(e.colorEnc, aux, avif.CategoryColor, auxCfg)
		if err != nil {
			e.log("bit-depth-extension auxiliary encode failed: %v", err)
			return avif.ErrEncodeColorFailed()
		}
		e.sato = &satoJob{auxImage: aux, auxConfig: deriveAv1Config(aux, nil), auxSample: auxPayload, expression: expr}
		encodeImg = base
	case img.Depth == 16:
		return avif.ErrUnsupportedDepth()
	}

	payload, alphaPayload, err := e.encodeOne(encodeImg, len(e.colorCells) == 0)
	if err != nil {
		return err
	}
	if e.firstImage == nil {
		e.firstImage = encodeImg
	}
	e.colorCells = append(e.colorCells, encodeImg)
	e.colorBufs = append(e.colorBufs, payload)
	if alphaPayload != nil {
		e.alphaCells = append(e.alphaCells, alphaPayload)
	}
	return nil
}

// AddImageGrid adds rows*cols cell images (row-major) as a single grid
// item. It may be called only once, and not combined with AddImage or
// AddImageForSequence.
func (e *Encoder) AddImageGrid(cells []*avif.Image, rows, cols int) error {
	if e.finished {
		return avif.ErrInvalidArgument("encoder: AddImageGrid after Finish")
	}
	if e.sequence || len(e.colorCells) > 0 || e.gridInfo != nil {
		return avif.ErrInvalidArgument("encoder: AddImageGrid conflicts with a prior add-image call")
	}
	if len(cells) != rows*cols || len(cells) == 0 {
		return avif.ErrInvalidImageGrid("grid declares %d cells, got %d", rows*cols, len(cells))
	}
	e.lockSettings()

	w, h := cells[0].Width, cells[0].Height
	for _, c := range cells {
		if c.Width != w || c.Height != h {
			return avif.ErrInvalidImageGrid("grid cells must share a uniform size")
		}
	}

	bufs := make([][]byte, len(cells))
	alphaBufs := make([][]byte, len(cells))
	firstFrame := true
	if err := worker.Run(len(cells), e.immutable.Threads, func(i int) error {
		payload, alphaPayload, err := e.encodeOne(cells[i], firstFrame)
		if err != nil {
			return err
		}
		bufs[i] = payload
		alphaBufs[i] = alphaPayload
		return nil
	}); err != nil {
		return err
	}

	e.colorCells = cells
	e.colorBufs = bufs
	e.firstImage = cells[0]
	e.gridInfo = &grid.Grid{Rows: rows, Columns: cols, OutputWidth: uint32(w * cols), OutputHeight: uint32(h * rows)}
	if cells[0].HasAlpha() {
		e.alphaCells = alphaBufs
	}
	return nil
}

// AddImageForSequence appends one frame to an image sequence (track),
// asserting the frame's dimensions match the sequence's first frame.
func (e *Encoder) AddImageForSequence(img *avif.Image, durationInTimescales uint64) error {
	if e.finished {
		return avif.ErrInvalidArgument("encoder: AddImageForSequence after Finish")
	}
	if len(e.colorCells) > 0 || e.gridInfo != nil {
		return avif.ErrInvalidArgument("encoder: AddImageForSequence conflicts with a prior single-image add-image call")
	}
	e.sequence = true
	e.lockSettings()

	if e.trackW == 0 {
		e.trackW, e.trackH = img.Width, img.Height
	} else if img.Width != e.trackW || img.Height != e.trackH {
		return avif.ErrIncompatibleImage()
	}
	if e.firstImage == nil {
		e.firstImage = img
	}

	sync := len(e.frames) == 0 || (e.immutable.KeyframeInterval > 0 && len(e.frames)%e.immutable.KeyframeInterval == 0)
	payload, _, err := e.encodeOne(img, sync)
	if err != nil {
		return err
	}
	e.frames = append(e.frames, sequenceFrame{sample: payload, durationInTimescales: durationInTimescales, sync: sync})
	return nil
}

// encodeOne drives the color back-end (and, if img has an alpha plane,
// the alpha back-end) for one image, returning the encoded color and
// (possibly nil) alpha payloads.
func (e *Encoder) encodeOne(img *avif.Image, firstFrame bool) (colorPayload, alphaPayload []byte, err error) {
	cfg := codec.Config{
		Quality: e.mutable.QualityColor,
		Speed:   e.immutable.Speed,
		Lossless: e.mutable.QualityColor >= 100,
		Threads:  e.immutable.Threads,
		Extra:    e.opts.For(avif.CategoryColor),
	}
	if e.mutable.Tiling.Auto {
		cfg.TileRowsLog2, cfg.TileColsLog2 = autoTileLog2(img)
	} else {
		cfg.TileRowsLog2, cfg.TileColsLog2 = e.mutable.Tiling.Log2Rows, e.mutable.Tiling.Log2Cols
	}

	var colorErr, alphaErr error
	var alphaImg *avif.Image
	if img.HasAlpha() {
		alphaImg = &avif.Image{Width: img.Width, Height: img.Height, Depth: img.AlphaPlane.Depth, Format: avif.FormatYUV400}
		alphaImg.Planes[0] = img.AlphaPlane
	}

	tasks := 1
	if alphaImg != nil {
		tasks = 2
	}
	if err := worker.Run(tasks, e.immutable.Threads, func(i int) error {
		if i == 0 {
			colorErr = e.colorEnc.EncodeImage(img, avif.CategoryColor, cfg, firstFrame)
			return nil
		}
		alphaCfg := cfg
		alphaCfg.Quality = e.mutable.QualityAlpha
		alphaCfg.Extra = e.opts.For(avif.CategoryAlpha)
		alphaErr = e.alphaEnc.EncodeImage(alphaImg, avif.CategoryAlpha, alphaCfg, firstFrame)
		return nil
	}); err != nil {
		return nil, nil, err
	}
	if colorErr != nil {
		e.log("color encode failed: %v", colorErr)
		return nil, nil, avif.ErrEncodeColorFailed()
	}
	if alphaErr != nil {
		e.log("alpha encode failed: %v", alphaErr)
		return nil, nil, avif.ErrEncodeAlphaFailed()
	}

	colorPayloads, err := e.colorEnc.Finish()
	if err != nil {
		return nil, nil, avif.ErrEncodeColorFailed()
	}
	if len(colorPayloads) == 0 {
		return nil, nil, avif.ErrEncodeColorFailed()
	}
	colorPayload = colorPayloads[len(colorPayloads)-1]

	if alphaImg != nil {
		alphaPayloads, err := e.alphaEnc.Finish()
		if err != nil {
			return nil, nil, avif.ErrEncodeAlphaFailed()
		}
		if len(alphaPayloads) == 0 {
			return nil, nil, avif.ErrEncodeAlphaFailed()
		}
		alphaPayload = alphaPayloads[len(alphaPayloads)-1]
	}
	return colorPayload, alphaPayload, nil
}

// autoTileLog2 picks tile row/column log2 counts targeting roughly square
// tiles, capped at 2 (i.e. at most 4x4), the way libavif's "auto tiling"
// heuristic scales with image area.
func autoTileLog2(img *avif.Image) (rows, cols int) {
	const targetTilePixels = 1024 * 1024
	total := img.Width * img.Height
	n := 0
	for (1<<uint(n))*(1<<uint(n))*targetTilePixels < total && n < 2 {
		n++
	}
	return n, n
}

// Finish encodes any buffered gainmap/sato auxiliary images, authors the
// item model and returns the packed AVIF file. The Encoder must not be
// used again afterwards.
func (e *Encoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, avif.ErrInvalidArgument("encoder: Finish called twice")
	}
	if !e.started {
		return nil, avif.ErrMissingImageItem()
	}
	e.finished = true

	if e.sequence {
		return e.finishSequence()
	}
	if len(e.colorCells) != e.layersWant && e.gridInfo == nil {
		return nil, avif.ErrInvalidArgument("encoder: expected %d layers, got %d", e.layersWant, len(e.colorCells))
	}
	return e.finishImage()
}
