/*
NAME
  fraction.go

DESCRIPTION
  fraction.go provides signed and unsigned rational numbers used by
  gainmap metadata, clean-aperture geometry and sample timing.

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

import "math"

// Fraction is a signed rational number, numerator over a strictly positive
// denominator.
type Fraction struct {
	N int32
	D uint32
}

// NewFraction returns a Fraction, rejecting a zero denominator.
func NewFraction(n int32, d uint32) (Fraction, error) {
	if d == 0 {
		return Fraction{}, ErrInvalidArgument("fraction denominator is zero")
	}
	return Fraction{N: n, D: d}, nil
}

// IsNegative reports whether the fraction's value is negative.
func (f Fraction) IsNegative() bool { return f.N < 0 }

// IsInteger reports whether the fraction reduces to a whole number.
func (f Fraction) IsInteger() bool {
	if f.D == 0 {
		return false
	}
	return f.N%int32(f.D) == 0
}

// Int32 returns the fraction's value truncated toward zero, failing if the
// fraction does not evenly divide or overflows int32.
func (f Fraction) Int32() (int32, error) {
	if !f.IsInteger() {
		return 0, ErrInvalidArgument("fraction %d/%d is not an integer", f.N, f.D)
	}
	return f.N / int32(f.D), nil
}

// Uint32 is like Int32 but additionally rejects negative values.
func (f Fraction) Uint32() (uint32, error) {
	v, err := f.Int32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrInvalidArgument("fraction %d/%d is negative", f.N, f.D)
	}
	return uint32(v), nil
}

// Float64 returns the fraction as a floating-point approximation.
func (f Fraction) Float64() float64 {
	return float64(f.N) / float64(f.D)
}

// Add returns f+g as a single fraction over the product of denominators,
// failing on int32 overflow of the numerator.
func (f Fraction) Add(g Fraction) (Fraction, error) {
	n, err := addOverflow(int64(f.N)*int64(g.D), int64(g.N)*int64(f.D))
	if err != nil {
		return Fraction{}, err
	}
	d, err := mulOverflowU(f.D, g.D)
	if err != nil {
		return Fraction{}, err
	}
	return Fraction{N: n, D: d}, nil
}

// Sub returns f-g, with the same overflow behaviour as Add.
func (f Fraction) Sub(g Fraction) (Fraction, error) {
	return f.Add(Fraction{N: -g.N, D: g.D})
}

func addOverflow(a, b int64) (int32, error) {
	sum := a + b
	if sum > math.MaxInt32 || sum < math.MinInt32 {
		return 0, ErrInvalidArgument("fraction arithmetic overflowed int32")
	}
	return int32(sum), nil
}

func mulOverflowU(a, b uint32) (uint32, error) {
	p := uint64(a) * uint64(b)
	if p > math.MaxUint32 {
		return 0, ErrInvalidArgument("fraction denominator overflowed uint32")
	}
	return uint32(p), nil
}

// UFraction is an unsigned rational number, used where a negative value is
// never meaningful (e.g. gainmap HDR headroom).
type UFraction struct {
	N uint32
	D uint32
}

// NewUFraction returns a UFraction, rejecting a zero denominator.
func NewUFraction(n, d uint32) (UFraction, error) {
	if d == 0 {
		return UFraction{}, ErrInvalidArgument("ufraction denominator is zero")
	}
	return UFraction{N: n, D: d}, nil
}

// Float64 returns the fraction as a floating-point approximation.
func (f UFraction) Float64() float64 {
	return float64(f.N) / float64(f.D)
}
