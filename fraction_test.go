/*
NAME
  fraction_test.go

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

func TestFractionIsInteger(t *testing.T) {
	cases := []struct {
		f    Fraction
		want bool
	}{
		{Fraction{N: 96, D: 1}, true},
		{Fraction{N: 96, D: 5}, false},
		{Fraction{N: -96, D: 1}, true},
		{Fraction{N: 0, D: 7}, true},
	}
	for _, c := range cases {
		if got := c.f.IsInteger(); got != c.want {
			t.Errorf("Fraction{%d,%d}.IsInteger() = %v, want %v", c.f.N, c.f.D, got, c.want)
		}
	}
}

func TestFractionAddSub(t *testing.T) {
	a := Fraction{N: 120, D: 2}
	b := Fraction{N: 0, D: 1}
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := sum.Int32()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 60 {
		t.Errorf("120/2 + 0/1 = %d, want 60", v)
	}

	diff, err := a.Sub(Fraction{N: 132, D: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err = diff.Int32()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != -6 {
		t.Errorf("60 - 66 = %d, want -6", v)
	}
}

func TestNewFractionRejectsZeroDenominator(t *testing.T) {
	if _, err := NewFraction(1, 0); err == nil {
		t.Error("expected error for zero denominator")
	}
	if _, err := NewUFraction(1, 0); err == nil {
		t.Error("expected error for zero denominator")
	}
}
