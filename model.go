/*
NAME
  model.go

DESCRIPTION
  model.go defines ItemModel, the immutable-after-parse graph of items,
  properties, entity groups and the primary item pointer built by package
  bmff and consumed by packages grid, decoder and encoder.

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

// EntityGroup is a `grpl` group; only `altr` (alternative) groups are
// meaningful to this spec (primary/tmap pairing).
type EntityGroup struct {
	Type    string
	ID      uint32
	Members []uint32
}

// ItemModel is the parsed, immutable item graph for one file or one
// `meta` box. Items are stored in a slice indexed by position, not by id,
// to avoid owning back-references; ByID does the id→index lookup.
type ItemModel struct {
	Items      []*Item
	Properties []Property // 1-based in ipma; Properties[0] is a dummy so PropertyIndex indexes directly.

	PrimaryItemID uint32
	EntityGroups  []EntityGroup

	byID map[uint32]*Item
}

// NewItemModel returns an ItemModel with its lookup index initialized.
func NewItemModel() *ItemModel {
	return &ItemModel{
		Properties: []Property{{Kind: PropUnused}},
		byID:       make(map[uint32]*Item),
	}
}

// AddItem appends it to the model and indexes it by id, rejecting a
// duplicate or zero id.
func (m *ItemModel) AddItem(it *Item) error {
	if it.ID == 0 {
		return ErrBMFFParseFailed("item id must be nonzero")
	}
	if _, exists := m.byID[it.ID]; exists {
		return ErrBMFFParseFailed("duplicate item id %d", it.ID)
	}
	if m.byID == nil {
		m.byID = make(map[uint32]*Item)
	}
	m.Items = append(m.Items, it)
	m.byID[it.ID] = it
	return nil
}

// ByID looks up an item by id, returning nil if absent.
func (m *ItemModel) ByID(id uint32) *Item {
	return m.byID[id]
}

// Primary returns the primary item, or nil if pitm was never set.
func (m *ItemModel) Primary() *Item {
	return m.byID[m.PrimaryItemID]
}

// Property resolves a 1-based ipma index into the flattened property
// table, returning an error for an out-of-range index.
func (m *ItemModel) Property(index int) (*Property, error) {
	if index <= 0 || index >= len(m.Properties) {
		return nil, ErrBMFFParseFailed("property association references nonexistent index %d", index)
	}
	return &m.Properties[index], nil
}

// PropertiesOf returns the resolved properties for an item, in
// association order, failing if any association is dangling.
func (m *ItemModel) PropertiesOf(it *Item) ([]*Property, error) {
	props := make([]*Property, 0, len(it.Associations))
	for _, assoc := range it.Associations {
		p, err := m.Property(assoc.PropertyIndex)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// AltrGroupFor returns the `altr` entity group containing id, or nil.
func (m *ItemModel) AltrGroupFor(id uint32) *EntityGroup {
	for i := range m.EntityGroups {
		g := &m.EntityGroups[i]
		if g.Type != "altr" {
			continue
		}
		for _, member := range g.Members {
			if member == id {
				return g
			}
		}
	}
	return nil
}

// ValidateReferences walks every dimg/auxl/cdsc/thmb/prem edge and fails
// if any target is missing, or if a dimg chain cycles back on itself.
func (m *ItemModel) ValidateReferences() error {
	for _, it := range m.Items {
		for _, ref := range it.References {
			for _, to := range ref.To {
				if m.ByID(to) == nil {
					return ErrBMFFParseFailed("item %d references nonexistent item %d via %q", it.ID, to, ref.Type)
				}
			}
		}
		for _, to := range it.DimgInputs {
			if m.ByID(to) == nil {
				return ErrBMFFParseFailed("item %d has dimg input to nonexistent item %d", it.ID, to)
			}
		}
	}
	return m.checkDimgAcyclic()
}

func (m *ItemModel) checkDimgAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uint32]int, len(m.Items))
	var visit func(id uint32) error
	visit = func(id uint32) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return ErrBMFFParseFailed("dimg cycle detected at item %d", id)
		}
		color[id] = gray
		it := m.ByID(id)
		if it != nil {
			for _, dep := range it.DimgInputs {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, it := range m.Items {
		if err := visit(it.ID); err != nil {
			return err
		}
	}
	return nil
}
