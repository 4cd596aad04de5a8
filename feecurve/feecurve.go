// Package feecurve implements the piecewise fee schedule shared by the
// lending and swap engines: up to five ordered segments, each either a flat
// fee or a line in utilization, queried by point value or integrated mean
// over a range and compounded across a duration.
package feecurve

import (
	"errors"
	"sort"

	"vaultcore/decimal"
)

// MaxSegments bounds the number of pieces a curve can hold, matching the
// reference implementation's fixed-size segment array.
const MaxSegments = 5

// HourDuration is the period (in seconds) fee rates are quoted over;
// borrow/swap fees are quoted per hour, and CompoundedFee spreads that rate
// over this many seconds and compounds it once per elapsed second.
const HourDuration uint32 = 60 * 60

var ErrBoundNotFound = errors.New("feecurve: no segment bound covers the requested utilization")

// SegmentKind distinguishes the two piece shapes a curve segment can take.
type SegmentKind uint8

const (
	SegmentNone SegmentKind = iota
	SegmentConstant
	SegmentLinear
)

// CurveSegment is one piece of a FeeCurve: either a flat fee (Constant) or
// a line a*x+b over utilization (Linear).
type CurveSegment struct {
	Kind SegmentKind
	A, B decimal.Fraction
}

// FeeCurve is a piecewise function from utilization (a Fraction) to a fee
// rate (a Fraction), built up to MaxSegments pieces at a time via
// AddConstantFee/AddLinearFee, bounds kept sorted ascending after each add.
type FeeCurve struct {
	bounds [MaxSegments]decimal.Fraction
	values [MaxSegments]CurveSegment
	used   int
}

func (c *FeeCurve) findIndex(utilization decimal.Fraction) int {
	for i := 0; i < c.used; i++ {
		if utilization.Lte(c.bounds[i]) {
			return i
		}
	}
	return 0
}

func (c *FeeCurve) findIndexes(smaller, greater decimal.Fraction) (int, int, error) {
	index := c.findIndex(smaller)
	for i := index; i < c.used; i++ {
		if greater.Lte(c.bounds[i]) {
			return index, i, nil
		}
	}
	return 0, 0, ErrBoundNotFound
}

func (c *FeeCurve) singleSegmentMean(seg CurveSegment, lower, upper decimal.Fraction) decimal.Fraction {
	switch seg.Kind {
	case SegmentConstant:
		return seg.A
	case SegmentLinear:
		half := decimal.FractionFromScale(5, 1) // 0.5
		return lower.Add(upper).MulUp(seg.A.MulUp(half)).Add(seg.B)
	default:
		return decimal.FractionFromInteger(0)
	}
}

// GetPointFee returns the fee rate at a single utilization point.
func (c *FeeCurve) GetPointFee(utilization decimal.Fraction) decimal.Fraction {
	seg := c.values[c.findIndex(utilization)]
	switch seg.Kind {
	case SegmentConstant:
		return seg.A
	case SegmentLinear:
		return seg.A.MulUp(utilization).Add(seg.B)
	default:
		return decimal.FractionFromInteger(0)
	}
}

// GetMean integrates the fee rate between before and after (order does not
// matter) and returns the utilization-weighted mean fee rate over that
// range, used to price a borrow/swap step that moves utilization from
// before to after in a single operation.
func (c *FeeCurve) GetMean(before, after decimal.Fraction) (decimal.Fraction, error) {
	smaller, greater := before, after
	if after.Lt(before) {
		smaller, greater = after, before
	}

	smallerIndex, greaterIndex, err := c.findIndexes(smaller, greater)
	if err != nil {
		return decimal.Fraction{}, err
	}

	if smallerIndex == greaterIndex {
		return c.singleSegmentMean(c.values[smallerIndex], smaller, greater), nil
	}

	sum := decimal.FractionFromInteger(0)
	for i := smallerIndex + 1; i < greaterIndex; i++ {
		width := c.bounds[i].Sub(c.bounds[i-1])
		sum = sum.Add(c.singleSegmentMean(c.values[i], c.bounds[i-1], c.bounds[i]).MulUp(width))
	}

	sum = sum.Add(c.singleSegmentMean(c.values[smallerIndex], smaller, c.bounds[smallerIndex]).
		MulUp(c.bounds[smallerIndex].Sub(smaller)))

	sum = sum.Add(c.singleSegmentMean(c.values[greaterIndex], c.bounds[greaterIndex-1], greater).
		MulUp(greater.Sub(c.bounds[greaterIndex-1])))

	return sum.DivUp(greater.Sub(smaller)), nil
}

// GetValue returns the raw segment covering the given utilization.
func (c *FeeCurve) GetValue(utilization decimal.Fraction) CurveSegment {
	return c.values[c.findIndex(utilization)]
}

// AddConstantFee appends a flat-fee segment effective up to bound.
func (c *FeeCurve) AddConstantFee(fee, bound decimal.Fraction) *FeeCurve {
	c.addSegment(CurveSegment{Kind: SegmentConstant, A: fee}, bound)
	return c
}

// AddLinearFee appends a linear segment (a*x+b) effective up to bound.
func (c *FeeCurve) AddLinearFee(a, b, bound decimal.Fraction) *FeeCurve {
	c.addSegment(CurveSegment{Kind: SegmentLinear, A: a, B: b}, bound)
	return c
}

func (c *FeeCurve) addSegment(seg CurveSegment, bound decimal.Fraction) {
	c.bounds[c.used] = bound
	c.values[c.used] = seg
	c.used++

	type pair struct {
		bound decimal.Fraction
		value CurveSegment
	}
	pairs := make([]pair, c.used)
	for i := 0; i < c.used; i++ {
		pairs[i] = pair{c.bounds[i], c.values[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].bound.Lt(pairs[j].bound) })
	for i, p := range pairs {
		c.bounds[i] = p.bound
		c.values[i] = p.value
	}
}

// CompoundedFee returns the multiplicative growth factor minus one of the
// point fee at utilization, read as a per-hour rate, divided by
// HourDuration and compounded once per second across time seconds.
func (c *FeeCurve) CompoundedFee(utilization decimal.Fraction, t uint32) decimal.Precise {
	fee := c.GetPointFee(utilization)
	perSecond := decimal.PreciseFromDecimal(fee).DivUp(decimal.NewQuantity(uint64(HourDuration)))
	one := decimal.PreciseFromInteger(1)
	return one.Add(perSecond).BigPowUp(t).Sub(one)
}

// CompoundedApy is the APY-display sibling of CompoundedFee. It performs the
// same computation and returns it as a PreciseApy, which has the same
// scale-24 precision as Precise; no extra precision is carried.
func (c *FeeCurve) CompoundedApy(utilization decimal.Fraction, t uint32) decimal.PreciseApy {
	fee := c.GetPointFee(utilization)
	perSecond := decimal.PreciseApyFromDecimal(fee).DivUp(decimal.NewQuantity(uint64(HourDuration)))
	one := decimal.PreciseApyFromInteger(1)
	return one.Add(perSecond).BigPowUp(t).Sub(one)
}
