/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the decoder orchestrator: the
  Uninitialized→Parsed→Ready-for-Frame-N state machine driving Parse,
  NextImage, NthImage and ImageMaxExtent over either a still/progressive
  item, a grid, a sample-transform, or an image-sequence movie track.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder drives the decode pipeline: it owns the parsed item
// model, sequences codec back-end invocations across tiles and categories,
// and publishes one avif.Image per frame through a cursor-based API
// (NextImage/NthImage), generalized from revid.Revid's cfg/running/wg
// shape to "drive an item/track model" instead of "drive a capture
// device".
package decoder

import (
	"github.com/pkg/errors"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bmff"
	"github.com/ausocean/avif/codec"
	"github.com/ausocean/avif/grid"
	"github.com/ausocean/avif/ioavif"
	"github.com/ausocean/avif/mini"
)

// State names the decoder's position in the parse/decode state machine.
type State int

const (
	StateUninitialized State = iota
	StateParsed
	StateReady
	StateError
)

// ProgressiveState reports whether a layered item is being decoded
// progressively.
type ProgressiveState int

const (
	ProgressiveUnavailable ProgressiveState = iota
	ProgressiveAvailable
	ProgressiveActive
)

// Timing carries one frame's presentation timing and its compression
// format tag.
type Timing struct {
	PTS                  int64
	PTSInTimescales      int64
	Duration             int64
	DurationInTimescales int64
	FormatTag            string
}

// Config bundles decoder construction-time settings.
type Config struct {
	// ColorBackend/AlphaBackend/GainMapBackend name the codec.Backend each
	// category decodes with, looked up via codec.Lookup. Empty defaults to
	// ColorBackend for all three.
	ColorBackend, AlphaBackend, GainMapBackend string

	MaxThreads       int
	Strictness       bmff.Strictness
	AllowProgressive bool
	OperatingPoint   uint8
	AllLayers        bool

	// MaxImagePixels/MaxImageDimension bound parse-time image size;
	// 0 means unlimited.
	MaxImagePixels    uint64
	MaxImageDimension uint32

	IgnoreExif bool
	IgnoreXMP  bool
}

// Decoder drives one parsed AVIF source through its frames.
type Decoder struct {
	cfg   Config
	src   ioavif.Source
	state State

	data []byte
	r    *bmff.Reader
	ft   bmff.FileType

	mini *mini.Container

	colorDec, alphaDec, gainDec codec.Decoder

	mainTrack  *bmff.Track
	alphaTrack *bmff.Track

	imageCount  int
	currentFrame int // -1 before any decode.

	progressive ProgressiveState
	layerCount  int

	exifCache map[uint32][]byte
	xmpCache  map[uint32][]byte
	iccCache  map[uint32][]byte
}

// New returns a Decoder reading from src, not yet parsed.
func New(src ioavif.Source, cfg Config) *Decoder {
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = 1
	}
	return &Decoder{
		cfg:          cfg,
		src:          src,
		state:        StateUninitialized,
		currentFrame: -1,
		exifCache:    map[uint32][]byte{},
		xmpCache:     map[uint32][]byte{},
		iccCache:     map[uint32][]byte{},
	}
}

// Close releases codec back-end resources.
func (d *Decoder) Close() error {
	var firstErr error
	for _, c := range []codec.Decoder{d.colorDec, d.alphaDec, d.gainDec} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ImageCount returns the number of frames available after Parse: sample
// count for an image sequence, layer count for an allowed-progressive
// item, or 1 otherwise.
func (d *Decoder) ImageCount() int { return d.imageCount }

// ProgressiveState reports whether the current item is layered, and if so
// whether progressive (per-layer) decoding is active.
func (d *Decoder) ProgressiveState() ProgressiveState { return d.progressive }

// Parse reads the entire source, validates ftyp, and builds the item
// model (or, for a `mif3` source, the mini container's virtual item
// model) and/or track list.
func (d *Decoder) Parse() error {
	size := d.src.SizeHint()
	if size == 0 {
		return avif.ErrIONotSet()
	}
	data, err := d.src.Read(0, size)
	if err != nil {
		return err
	}
	d.data = data

	// Peek the brand without fully parsing, to dispatch to the mini path;
	// bmff.Reader.Parse already does this short-circuit for a regular
	// Reader, but the mini container needs the raw buffer, not a Reader.
	probe := bmff.NewReader(d.cfg.Strictness)
	ft, err := probe.Parse(data)
	if err != nil {
		return err
	}
	d.ft = ft

	if ft.IsMini() {
		c, err := mini.Parse(data)
		if err != nil {
			return err
		}
		d.mini = c
		d.r = &bmff.Reader{Model: c.Model}
	} else {
		d.r = probe
	}

	if err := d.r.Model.ValidateReferences(); err != nil {
		return err
	}
	if err := d.checkSizeLimits(); err != nil {
		return err
	}

	if len(d.r.Tracks) > 0 {
		d.mainTrack, d.alphaTrack = classifyTracks(d.r.Tracks)
		d.imageCount = len(d.mainTrack.Samples)
	} else {
		primary := d.r.Model.Primary()
		if primary == nil {
			return avif.ErrMissingImageItem()
		}
		if err := validateLayeredItem(primary); err != nil {
			return err
		}
		d.layerCount = primary.ExtraLayerCount + 1
		if d.layerCount > 1 {
			if d.cfg.AllowProgressive {
				d.progressive = ProgressiveActive
				d.imageCount = d.layerCount
			} else {
				d.progressive = ProgressiveAvailable
				d.imageCount = 1
			}
		} else {
			d.imageCount = 1
		}
		d.preloadMetadata(primary)
	}

	if err := d.initBackends(); err != nil {
		return err
	}

	d.state = StateParsed
	return nil
}

// checkSizeLimits enforces the configurable pixel/dimension caps
// against every item's resolved ispe dimensions.
func (d *Decoder) checkSizeLimits() error {
	if d.cfg.MaxImagePixels == 0 && d.cfg.MaxImageDimension == 0 {
		return nil
	}
	for _, it := range d.r.Model.Items {
		if it.Width == 0 && it.Height == 0 {
			continue
		}
		if d.cfg.MaxImageDimension != 0 && (uint32(it.Width) > d.cfg.MaxImageDimension || uint32(it.Height) > d.cfg.MaxImageDimension) {
			return avif.ErrInvalidArgument("item %d dimensions %dx%d exceed configured maximum dimension %d", it.ID, it.Width, it.Height, d.cfg.MaxImageDimension)
		}
		if d.cfg.MaxImagePixels != 0 && uint64(it.Width)*uint64(it.Height) > d.cfg.MaxImagePixels {
			return avif.ErrInvalidArgument("item %d has %d pixels, exceeding configured maximum %d", it.ID, it.Width*it.Height, d.cfg.MaxImagePixels)
		}
	}
	return nil
}

// preloadMetadata eagerly reads the payload of every Exif item and every
// application/rdf+xml mime (XMP) item in the file, unless ignored. ICC is
// not read here; attachMetadata takes it from the colr property.
func (d *Decoder) preloadMetadata(primary *avif.Item) {
	for _, it := range d.r.Model.Items {
		switch it.Type {
		case "Exif":
			if d.cfg.IgnoreExif {
				continue
			}
			if b, err := d.r.ItemData(d.data, it); err == nil {
				d.exifCache[it.ID] = b
			}
		case "mime":
			if d.cfg.IgnoreXMP || it.ContentType != "application/rdf+xml" {
				continue
			}
			if b, err := d.r.ItemData(d.data, it); err == nil {
				d.xmpCache[it.ID] = b
			}
		}
	}
}

func (d *Decoder) initBackends() error {
	colorName := d.cfg.ColorBackend
	alphaName := d.cfg.AlphaBackend
	if alphaName == "" {
		alphaName = colorName
	}
	gainName := d.cfg.GainMapBackend
	if gainName == "" {
		gainName = colorName
	}

	var err error
	d.colorDec, err = d.newDecoder(colorName)
	if err != nil {
		return err
	}
	d.alphaDec, err = d.newDecoder(alphaName)
	if err != nil {
		return err
	}
	d.gainDec, err = d.newDecoder(gainName)
	if err != nil {
		return err
	}
	return nil
}

func (d *Decoder) newDecoder(name string) (codec.Decoder, error) {
	b, err := codec.Lookup(name)
	if err != nil {
		return nil, errors.Wrap(avif.ErrNoCodecAvailable(), err.Error())
	}
	if b.NewDecoder == nil {
		return nil, avif.ErrNoCodecAvailable()
	}
	dec := b.NewDecoder()
	if err := dec.Initialize(d.cfg.OperatingPoint, d.cfg.AllLayers); err != nil {
		return nil, err
	}
	return dec, nil
}

// NextImage advances the frame cursor by one and decodes it.
func (d *Decoder) NextImage() (*avif.Image, Timing, error) {
	if d.state != StateParsed && d.state != StateReady {
		return nil, Timing{}, avif.ErrIONotSet()
	}
	next := d.currentFrame + 1
	if next >= d.imageCount {
		return nil, Timing{}, avif.ErrNoImagesRemaining()
	}
	im, timing, err := d.decodeFrame(next)
	if err != nil {
		d.state = StateError
		return nil, Timing{}, err
	}
	d.currentFrame = next
	d.state = StateReady
	return im, timing, nil
}

// NthImage re-seeks the cursor to frame n. Moving forward within the same
// item decodes intervening frames (required for layered items, whose
// lower layers must decode first); moving backward resets and re-decodes
// from the nearest random-access point.
func (d *Decoder) NthImage(n int) (*avif.Image, Timing, error) {
	if n < 0 || n >= d.imageCount {
		return nil, Timing{}, avif.ErrNoImagesRemaining()
	}
	if n <= d.currentFrame {
		d.currentFrame = d.nearestRandomAccess(n) - 1
	}
	var im *avif.Image
	var timing Timing
	for d.currentFrame < n {
		var err error
		im, timing, err = d.NextImage()
		if err != nil {
			return nil, Timing{}, err
		}
	}
	return im, timing, nil
}

// nearestRandomAccess returns the lowest frame index at or before n that
// is independently decodable: the nearest preceding sync sample for an
// image-sequence track, or the first layer (0) for a progressive item.
func (d *Decoder) nearestRandomAccess(n int) int {
	if d.mainTrack == nil {
		return 0
	}
	for i := n; i >= 0; i-- {
		if d.mainTrack.Samples[i].Sync {
			return i
		}
	}
	return 0
}

// ImageMaxExtent returns the half-open byte range required to decode
// frame n, letting an incremental caller prefetch.
func (d *Decoder) ImageMaxExtent(n int) (avif.Extent, error) {
	if n < 0 || n >= d.imageCount {
		return avif.Extent{}, avif.ErrInvalidArgument("frame %d out of range", n)
	}
	if d.mainTrack != nil {
		s := d.mainTrack.Samples[n]
		return avif.Extent{Offset: s.Offset, Length: uint64(s.Size)}, nil
	}

	primary := d.r.Model.Primary()
	if primary == nil {
		return avif.Extent{}, avif.ErrMissingImageItem()
	}
	min, max := extentBounds(primary, n, d.layerCount)
	for _, dep := range itemDependencies(d.r.Model, primary) {
		lo, hi := extentBounds(dep, 0, 1)
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return avif.Extent{Offset: min, Length: max - min}, nil
}

func extentBounds(it *avif.Item, layer, layerCount int) (min, max uint64) {
	if len(it.Extents) == 0 {
		return 0, 0
	}
	lo := it.Extents[0].Offset
	var hi uint64
	if layerCount > 1 && layer < len(it.Extents) {
		e := it.Extents[layer]
		return e.Offset, e.Offset + e.Length
	}
	for _, e := range it.Extents {
		if e.Offset < lo {
			lo = e.Offset
		}
		if e.Offset+e.Length > hi {
			hi = e.Offset + e.Length
		}
	}
	return lo, hi
}

// itemDependencies returns every item transitively reachable from it via
// dimg or auxl, used to bound ImageMaxExtent for grids/sato/gainmap items.
func itemDependencies(m *avif.ItemModel, it *avif.Item) []*avif.Item {
	var out []*avif.Item
	seen := map[uint32]bool{}
	var visit func(id uint32)
	visit = func(id uint32) {
		if seen[id] {
			return
		}
		seen[id] = true
		dep := m.ByID(id)
		if dep == nil {
			return
		}
		out = append(out, dep)
		for _, child := range dep.DimgInputs {
			visit(child)
		}
	}
	for _, child := range it.DimgInputs {
		visit(child)
	}
	if aux := it.FindReference("auxl"); aux != nil {
		for _, id := range aux.To {
			visit(id)
		}
	}
	if tmap := findTmapFor(m, it.ID); tmap != nil {
		visit(tmap.ID)
		for _, child := range tmap.DimgInputs {
			visit(child)
		}
	}
	return out
}

// classifyTracks splits an avis file's tracks into the main color track
// and its optional alpha auxiliary track: the alpha track is the one
// carrying an `auxl` tref pointing at another track in the list.
func classifyTracks(tracks []*bmff.Track) (main, alpha *bmff.Track) {
	byID := make(map[uint32]*bmff.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}
	for _, t := range tracks {
		for _, ref := range t.References {
			if ref.Type != "auxl" {
				continue
			}
			for _, to := range ref.To {
				if target, ok := byID[to]; ok {
					return target, t
				}
			}
		}
	}
	return tracks[0], nil
}
