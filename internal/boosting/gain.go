package boosting

import (
	"github.com/ebmcore/boosting/internal/histogram"
	"github.com/ebmcore/boosting/internal/splitmath"
)

// computeGain measures a candidate split's total gain against a histogram,
// independent of which algorithm (greedy or random) chose the cuts: it
// assigns every histogram cell to the leaf its per-dimension cut positions
// place it in, sums each leaf's splitmath.Gain across classes, and
// subtracts the single-leaf (unsplit) gain of the whole bucket. Works
// uniformly for zero, one, or many significant dimensions.
func computeGain(h *histogram.Histogram, binCounts []uint64, cuts [][]uint64) float64 {
	dims := len(binCounts)
	k := h.K

	wholeRes := make([]float64, k)
	wholeHess := make([]float64, k)
	for c := 0; c < k; c++ {
		for cell := 0; cell < h.Bins; cell++ {
			wholeRes[c] += h.SumResidual[cell*k+c]
			wholeHess[c] += h.SumHessian[cell*k+c]
		}
	}
	wholeGain := 0.0
	for c := 0; c < k; c++ {
		wholeGain += splitmath.Gain(wholeRes[c], wholeHess[c])
	}

	if dims == 0 {
		return 0
	}

	leafOf := make([]int, h.Bins)
	segsPerDim := make([]int, dims)
	for d := 0; d < dims; d++ {
		segsPerDim[d] = len(cuts[d]) + 1
	}
	coord := make([]uint64, dims)
	for cell := 0; cell < h.Bins; cell++ {
		rem := uint64(cell)
		for d := dims - 1; d >= 0; d-- {
			coord[d] = rem % binCounts[d]
			rem /= binCounts[d]
		}
		leaf := 0
		for d := 0; d < dims; d++ {
			seg := segmentIndexForBin(cuts[d], coord[d])
			leaf = leaf*segsPerDim[d] + int(seg)
		}
		leafOf[cell] = leaf
	}

	totalLeaves := 1
	for _, s := range segsPerDim {
		totalLeaves *= s
	}
	leafRes := make([][]float64, totalLeaves)
	leafHess := make([][]float64, totalLeaves)
	for l := range leafRes {
		leafRes[l] = make([]float64, k)
		leafHess[l] = make([]float64, k)
	}
	for cell := 0; cell < h.Bins; cell++ {
		l := leafOf[cell]
		for c := 0; c < k; c++ {
			leafRes[l][c] += h.SumResidual[cell*k+c]
			leafHess[l][c] += h.SumHessian[cell*k+c]
		}
	}

	splitGain := 0.0
	for l := range leafRes {
		for c := 0; c < k; c++ {
			splitGain += splitmath.Gain(leafRes[l][c], leafHess[l][c])
		}
	}
	return splitGain - wholeGain
}

func segmentIndexForBin(cuts []uint64, bin uint64) uint64 {
	lo, hi := 0, len(cuts)
	for lo < hi {
		mid := (lo + hi) / 2
		if cuts[mid] <= bin {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return uint64(lo)
}
