/*
NAME
  model_test.go

DESCRIPTION
  See Readme.md

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

import "testing"

func TestAddItemRejectsZeroAndDuplicateIDs(t *testing.T) {
	m := NewItemModel()
	if err := m.AddItem(&Item{ID: 0}); err == nil {
		t.Error("expected error adding item with zero id")
	}
	if err := m.AddItem(&Item{ID: 1}); err != nil {
		t.Fatalf("unexpected error adding item 1: %v", err)
	}
	if err := m.AddItem(&Item{ID: 1}); err == nil {
		t.Error("expected error adding duplicate item id")
	}
}

func TestValidateReferencesDetectsDanglingDimg(t *testing.T) {
	m := NewItemModel()
	must(t, m.AddItem(&Item{ID: 1, DimgInputs: []uint32{2}}))
	if err := m.ValidateReferences(); err == nil {
		t.Error("expected dangling dimg reference to fail validation")
	}
}

func TestValidateReferencesDetectsCycle(t *testing.T) {
	m := NewItemModel()
	must(t, m.AddItem(&Item{ID: 1, DimgInputs: []uint32{2}}))
	must(t, m.AddItem(&Item{ID: 2, DimgInputs: []uint32{1}}))
	if err := m.ValidateReferences(); err == nil {
		t.Error("expected dimg cycle to fail validation")
	}
}

func TestValidateReferencesAcceptsDAG(t *testing.T) {
	m := NewItemModel()
	must(t, m.AddItem(&Item{ID: 1, DimgInputs: []uint32{2, 3}}))
	must(t, m.AddItem(&Item{ID: 2}))
	must(t, m.AddItem(&Item{ID: 3}))
	if err := m.ValidateReferences(); err != nil {
		t.Fatalf("unexpected error validating valid DAG: %v", err)
	}
}

func TestIsAlphaURNCaseSensitive(t *testing.T) {
	if !IsAlphaURN(WellKnownAlphaURN) {
		t.Error("expected exact URN to match")
	}
	if IsAlphaURN("URN:MPEG:MPEGB:CICP:SYSTEMS:AUXILIARY:ALPHA") {
		t.Error("expected case-sensitive mismatch to fail")
	}
}

func TestAltrGroupFor(t *testing.T) {
	m := NewItemModel()
	m.EntityGroups = []EntityGroup{{Type: "altr", ID: 1, Members: []uint32{2, 3}}}
	if g := m.AltrGroupFor(2); g == nil {
		t.Fatal("expected altr group for member 2")
	}
	if g := m.AltrGroupFor(99); g != nil {
		t.Error("expected no altr group for unrelated item")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
