/*
NAME
  sato_test.go

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

package grid

import "testing"

func TestBitDepthExtension8b8bRoundTrip(t *testing.T) {
	base, hidden := int64(0xab), int64(0xcd)
	want := (base << 8) | hidden

	got, err := BitDepthExtension8b8bRecipe().Apply([]int64{base, hidden})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != want {
		t.Errorf("Apply() = %#x, want %#x", got, want)
	}
}

func TestBitDepthExtension12b4bRoundTrip(t *testing.T) {
	base, hidden := int64(0xabc), int64(0xd0) // hidden's top 4 bits carry the extension.
	want := (base << 4) | (hidden >> 4)

	got, err := BitDepthExtension12b4bRecipe().Apply([]int64{base, hidden})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != want {
		t.Errorf("Apply() = %#x, want %#x", got, want)
	}
}

func TestExpressionEncodeDecodeRoundTrip(t *testing.T) {
	e := BitDepthExtension8b8bRecipe()
	data, err := e.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeExpression(data)
	if err != nil {
		t.Fatalf("DecodeExpression: %v", err)
	}
	if got.BitDepth != e.BitDepth || len(got.Tokens) != len(e.Tokens) {
		t.Fatalf("round trip shape mismatch: got %+v, want %+v", got, e)
	}
	for i := range e.Tokens {
		if got.Tokens[i] != e.Tokens[i] {
			t.Errorf("token %d = %+v, want %+v", i, got.Tokens[i], e.Tokens[i])
		}
	}
}

func TestApplyRejectsStackUnderflow(t *testing.T) {
	e := Expression{BitDepth: 32, Tokens: []Token{{Kind: TokenSum}}}
	if _, err := e.Apply(nil); err == nil {
		t.Error("expected stack underflow error")
	}
}
