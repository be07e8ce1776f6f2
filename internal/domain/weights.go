package domain

import (
	"errors"
	"math"
)

// WeightSpacing is the distance between consecutive sibling weights after an
// append or a renumbering.
const WeightSpacing = 100

// ErrNoGap is returned when no integer weight fits between two siblings.
var ErrNoGap = errors.New("no weight gap between siblings")

// FindGap returns the roundest integer strictly between low and high: a
// multiple of 100 if one fits, else a multiple of 10, else low+1.
func FindGap(low, high int) (int, bool) {
	if high-low < 2 {
		return 0, false
	}
	for _, tier := range []int{100, 10} {
		c := floorDiv(low, tier)*tier + tier
		if c > low && c < high {
			return c, true
		}
	}
	return low + 1, true
}

// floorDiv divides rounding toward negative infinity, so tiers work for
// negative weights loaded from older outlines.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// WeightAfter returns a weight sorting after prev and before next. Pass
// math.MaxInt for next when prev is the last sibling.
func WeightAfter(prev, next int) (int, error) {
	if next == math.MaxInt {
		if prev > math.MaxInt-WeightSpacing {
			return 0, ErrNoGap
		}
		return floorDiv(prev, WeightSpacing)*WeightSpacing + WeightSpacing, nil
	}
	w, ok := FindGap(prev, next)
	if !ok {
		return 0, ErrNoGap
	}
	return w, nil
}

// WeightBefore returns a weight sorting before next. The first sibling is
// never given a weight below zero; the caller renumbers instead.
func WeightBefore(next int) (int, error) {
	w, ok := FindGap(-1, next)
	if !ok {
		return 0, ErrNoGap
	}
	return w, nil
}

// SpacedWeights returns count weights at regular spacing, starting at
// WeightSpacing.
func SpacedWeights(count int) []int {
	ws := make([]int, count)
	for i := range ws {
		ws[i] = (i + 1) * WeightSpacing
	}
	return ws
}
