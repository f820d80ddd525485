/*
NAME
  items.go

DESCRIPTION
  items.go builds the item-model graph (color/alpha/grid/gainmap/sato/Exif/
  XMP items, their property associations and entity groups) an Encoder
  authors for one finished image, per spec.md §4.8's item-authoring rule.

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
	"github.com/ausocean/avif/grid"
)

// sample bundles one item's coded payload with the item it belongs to, so
// mdat.go can pack payloads in category order without re-deriving which
// item owns which bytes.
type sample struct {
	item     *avif.Item
	category avif.Category
	payload  []byte
}

// itemBuild is the output of buildItems: the item model, its property
// table and every coded sample keyed by owning item, in authoring order
// (not yet packing order — mdat.go reorders by category).
type itemBuild struct {
	model    *avif.ItemModel
	props    *propertyTable
	samples  []sample
	primary  uint32
}

// idAllocator hands out sequential item ids starting at 1, the way mini's fixed
// ids (1 color, 2 alpha, 3 tmap, 4 gainmap...) generalize to an arbitrary
// number of items for the full metabox path.
type idAllocator struct{ next uint32 }

func (a *idAllocator) take() uint32 {
	a.next++
	return a.next
}

// buildItems authors the full item graph for one encodeJob.
func buildItems(job *encodeJob) (*itemBuild, error) {
	ids := &idAllocator{}
	model := avif.NewItemModel()
	props := newPropertyTable()
	ib := &itemBuild{model: model, props: props}

	var primaryItem *avif.Item

	if job.grid != nil {
		gridItem, err := addGridItems(job, ids, model, props, ib)
		if err != nil {
			return nil, err
		}
		primaryItem = gridItem
	} else {
		colorItem := &avif.Item{ID: ids.take(), Type: "av01", Category: avif.CategoryColor}
		specs := colorPropertySpecs(job.color[0], job.colorConfig)
		assoc, err := props.associate(specs)
		if err != nil {
			return nil, err
		}
		colorItem.Associations = assoc
		if err := model.AddItem(colorItem); err != nil {
			return nil, err
		}
		for i, payload := range job.colorSamples {
			ib.samples = append(ib.samples, sample{item: colorItem, category: avif.CategoryColor, payload: payload})
			_ = i
		}
		primaryItem = colorItem
	}
	model.PrimaryItemID = primaryItem.ID

	if job.alpha != nil {
		if err := addAlphaItem(job, ids, model, props, ib, primaryItem); err != nil {
			return nil, err
		}
	}

	if job.gainMap != nil {
		if err := addGainMapItems(job, ids, model, props, ib, primaryItem); err != nil {
			return nil, err
		}
	}

	if job.sato != nil {
		if err := addSatoItems(job, ids, model, props, ib, primaryItem); err != nil {
			return nil, err
		}
	}

	if len(job.exif) > 0 {
		exifItem := &avif.Item{ID: ids.take(), Type: "Exif"}
		exifItem.References = []avif.ItemReference{{Type: "cdsc", To: []uint32{primaryItem.ID}}}
		exifItem.InlineData = job.exif
		if err := model.AddItem(exifItem); err != nil {
			return nil, err
		}
	}
	if len(job.xmp) > 0 {
		xmpItem := &avif.Item{ID: ids.take(), Type: "mime", ContentType: "application/rdf+xml"}
		xmpItem.References = []avif.ItemReference{{Type: "cdsc", To: []uint32{primaryItem.ID}}}
		xmpItem.InlineData = job.xmp
		if err := model.AddItem(xmpItem); err != nil {
			return nil, err
		}
	}

	ib.primary = primaryItem.ID
	return ib, nil
}

// addGridItems authors one `av01` item per cell plus the `grid` derived
// item that composes them, and — when the first cell carries an alpha
// plane — a parallel alpha grid, per spec.md's grid+alpha combination.
func addGridItems(job *encodeJob, ids *idAllocator, model *avif.ItemModel, props *propertyTable, ib *itemBuild) (*avif.Item, error) {
	cellIDs := make([]uint32, len(job.color))
	for i, cell := range job.color {
		it := &avif.Item{ID: ids.take(), Type: "av01", Category: avif.CategoryColor}
		specs := colorPropertySpecs(cell, job.colorConfig)
		assoc, err := props.associate(specs)
		if err != nil {
			return nil, err
		}
		it.Associations = assoc
		if err := model.AddItem(it); err != nil {
			return nil, err
		}
		ib.samples = append(ib.samples, sample{item: it, category: avif.CategoryColor, payload: job.colorSamples[i]})
		cellIDs[i] = it.ID
	}

	gridPayload, err := grid.EncodeGrid(*job.grid)
	if err != nil {
		return nil, err
	}
	gridItem := &avif.Item{ID: ids.take(), Type: "grid", Category: avif.CategoryColor}
	gridItem.DimgInputs = cellIDs
	gridItem.InlineData = gridPayload
	specs := compositePropertySpecs(job.color[0], int(job.grid.OutputWidth), int(job.grid.OutputHeight))
	assoc, err := props.associate(specs)
	if err != nil {
		return nil, err
	}
	gridItem.Associations = assoc
	if err := model.AddItem(gridItem); err != nil {
		return nil, err
	}

	if job.color[0].HasAlpha() {
		alphaCellIDs := make([]uint32, len(job.color))
		for i, cell := range job.color {
			it := &avif.Item{ID: ids.take(), Type: "av01", Category: avif.CategoryAlpha, Hidden: true}
			aspecs := alphaPropertySpecs(alphaAsImage(cell), job.alphaConfig)
			assoc, err := props.associate(aspecs)
			if err != nil {
				return nil, err
			}
			it.Associations = assoc
			if err := model.AddItem(it); err != nil {
				return nil, err
			}
			ib.samples = append(ib.samples, sample{item: it, category: avif.CategoryAlpha, payload: job.alphaGridSamples[i]})
			alphaCellIDs[i] = it.ID
		}
		alphaGridItem := &avif.Item{ID: ids.take(), Type: "grid", Category: avif.CategoryAlpha, Hidden: true}
		alphaGridItem.DimgInputs = alphaCellIDs
		alphaGridItem.InlineData = gridPayload
		aspecs := []propSpec{{avif.Property{Kind: avif.PropSpatialExtents, Width: job.grid.OutputWidth, Height: job.grid.OutputHeight}, true}}
		assoc, err := props.associate(aspecs)
		if err != nil {
			return nil, err
		}
		alphaGridItem.Associations = assoc
		if err := model.AddItem(alphaGridItem); err != nil {
			return nil, err
		}
		gridItem.References = append(gridItem.References, avif.ItemReference{Type: "auxl", To: []uint32{alphaGridItem.ID}})
		if job.color[0].AlphaPremultiplied {
			gridItem.References = append(gridItem.References, avif.ItemReference{Type: "prem", To: []uint32{alphaGridItem.ID}})
		}
	}

	return gridItem, nil
}

// addAlphaItem authors the single-image alpha item: `auxl` to the primary
// (plus `prem` when premultiplied).
func addAlphaItem(job *encodeJob, ids *idAllocator, model *avif.ItemModel, props *propertyTable, ib *itemBuild, primary *avif.Item) error {
	alphaItem := &avif.Item{ID: ids.take(), Type: "av01", Category: avif.CategoryAlpha, Hidden: true}
	specs := alphaPropertySpecs(job.alpha, job.alphaConfig)
	assoc, err := props.associate(specs)
	if err != nil {
		return err
	}
	alphaItem.Associations = assoc
	if err := model.AddItem(alphaItem); err != nil {
		return err
	}
	primary.References = append(primary.References, avif.ItemReference{Type: "auxl", To: []uint32{alphaItem.ID}})
	if job.alpha.AlphaPremultiplied {
		primary.References = append(primary.References, avif.ItemReference{Type: "prem", To: []uint32{alphaItem.ID}})
	}
	ib.samples = append(ib.samples, sample{item: alphaItem, category: avif.CategoryAlpha, payload: job.alphaSample})
	return nil
}

// addGainMapItems authors the gainmap input item, the `tmap` derived item
// and the `altr` entity group pairing tmap with the primary item.
func addGainMapItems(job *encodeJob, ids *idAllocator, model *avif.ItemModel, props *propertyTable, ib *itemBuild, primary *avif.Item) error {
	gm := job.gainMap
	gainItem := &avif.Item{ID: ids.take(), Type: "av01", Category: avif.CategoryGainMap, Hidden: true}
	specs := colorPropertySpecs(gm.Image, job.gainMapConfig)
	assoc, err := props.associate(specs)
	if err != nil {
		return err
	}
	gainItem.Associations = assoc
	if err := model.AddItem(gainItem); err != nil {
		return err
	}
	ib.samples = append(ib.samples, sample{item: gainItem, category: avif.CategoryGainMap, payload: job.gainMapSample})

	tmapItem := &avif.Item{ID: ids.take(), Type: "tmap"}
	tmapItem.DimgInputs = []uint32{primary.ID, gainItem.ID}
	tmapItem.InlineData = append([]byte{0}, gm.Metadata.EncodeMetadata()...)
	tspecs := []propSpec{
		{avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(primary.Width), Height: uint32(primary.Height)}, true},
	}
	if gm.AlternateNCLX != nil {
		tspecs = append(tspecs, propSpec{avif.Property{Kind: avif.PropColourInformation, NCLX: gm.AlternateNCLX}, false})
	}
	if len(gm.AlternateICC) > 0 {
		tspecs = append(tspecs, propSpec{avif.Property{Kind: avif.PropColourInformation, ICC: gm.AlternateICC}, false})
	}
	if gm.AlternateCLLI != nil {
		tspecs = append(tspecs, propSpec{avif.Property{Kind: avif.PropContentLightLevel, CLLI: gm.AlternateCLLI}, false})
	}
	tassoc, err := props.associate(tspecs)
	if err != nil {
		return err
	}
	tmapItem.Associations = tassoc
	if err := model.AddItem(tmapItem); err != nil {
		return err
	}

	model.EntityGroups = append(model.EntityGroups, avif.EntityGroup{Type: "altr", Members: []uint32{tmapItem.ID, primary.ID}})
	return nil
}

// addSatoItems authors the bit-depth-extension `sato` derived item: a
// hidden auxiliary image carrying the low-significance bits plus the
// sample-transform expression combining it with the primary.
func addSatoItems(job *encodeJob, ids *idAllocator, model *avif.ItemModel, props *propertyTable, ib *itemBuild, primary *avif.Item) error {
	auxItem := &avif.Item{ID: ids.take(), Type: "av01", Category: avif.CategoryColor, Hidden: true}
	specs := colorPropertySpecsMinimal(job.sato.auxImage, job.sato.auxConfig)
	assoc, err := props.associate(specs)
	if err != nil {
		return err
	}
	auxItem.Associations = assoc
	if err := model.AddItem(auxItem); err != nil {
		return err
	}
	ib.samples = append(ib.samples, sample{item: auxItem, category: avif.CategoryColor, payload: job.sato.auxSample})

	expr := job.sato.expression
	exprBytes, err := expr.Encode()
	if err != nil {
		return err
	}
	satoItem := &avif.Item{ID: ids.take(), Type: "sato"}
	satoItem.DimgInputs = []uint32{primary.ID, auxItem.ID}
	satoItem.InlineData = exprBytes
	sspecs := compositePropertySpecs(job.color[0], job.color[0].Width, job.color[0].Height)
	sassoc, err := props.associate(sspecs)
	if err != nil {
		return err
	}
	satoItem.Associations = sassoc
	return model.AddItem(satoItem)
}

// compositePropertySpecs builds the property list for a derived item
// (grid, sato) that carries no codec payload of its own: spatial extents
// at the composed dimensions plus whichever colour/transform properties
// the representative source image sets.
func compositePropertySpecs(img *avif.Image, width, height int) []propSpec {
	specs := []propSpec{
		{avif.Property{Kind: avif.PropSpatialExtents, Width: uint32(width), Height: uint32(height)}, true},
	}
	if img.NCLX != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropColourInformation, NCLX: img.NCLX}, false})
	}
	if len(img.ICC) > 0 {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropColourInformation, ICC: img.ICC}, false})
	}
	if img.Transform.PixelAspectRatio != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropPixelAspectRatio, PixelAspectRatio: img.Transform.PixelAspectRatio}, false})
	}
	if img.Transform.CleanAperture != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropCleanAperture, CleanAperture: img.Transform.CleanAperture}, false})
	}
	if img.Transform.HasRotation() {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropRotation, Rotation: img.Transform.Rotation}, false})
	}
	if img.Transform.HasMirror() {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropMirror, Mirror: img.Transform.Mirror}, false})
	}
	if img.CLLI != nil {
		specs = append(specs, propSpec{avif.Property{Kind: avif.PropContentLightLevel, CLLI: img.CLLI}, false})
	}
	return specs
}

// alphaAsImage returns a view of cell exposing its alpha plane as a
// standalone monochrome image, for alphaPropertySpecs to measure.
func alphaAsImage(cell *avif.Image) *avif.Image {
	return &avif.Image{Width: cell.Width, Height: cell.Height, Depth: cell.AlphaPlane.Depth, Format: avif.FormatYUV400}
}
