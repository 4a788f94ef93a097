// Package histogram reduces a bagged dataset into per-cell sums over one
// feature-group's tensor shape: the sufficient statistics (summed residual,
// summed hessian) greedy tree growth and random-split leaf scoring both
// consume. Building it is the one full pass over the sample matrix each
// round spends per candidate feature-group.
package histogram

import "github.com/ebmcore/boosting/internal/dataset"

// Histogram holds one bucket per tensor cell, each bucket K-wide (one
// (residual, hessian) pair per stored logit).
type Histogram struct {
	Bins int
	K    int

	// SumResidual and SumHessian are both Bins*K, row-major (cell-major,
	// then class).
	SumResidual []float64
	SumHessian  []float64

	// Count is the (unweighted) number of bagged sample-instances landing in
	// each cell, used by min_samples_per_leaf enforcement.
	Count []uint64
}

// New allocates a zeroed histogram for a tensor with the given number of
// cells and stored logits.
func New(bins, k int) *Histogram {
	return &Histogram{
		Bins:        bins,
		K:           k,
		SumResidual: make([]float64, bins*k),
		SumHessian:  make([]float64, bins*k),
		Count:       make([]uint64, bins),
	}
}

// Build reduces ds over bag into h, indexing cells by sample i's packed
// cell code within feature-group index g. hessians is an N*K scratch buffer
// (ds.N()*ds.K()) the caller has already filled via lossmodel.Hessian for
// the dataset's current scores; Build does not recompute it so callers can
// amortize one hessian pass across several feature-groups in the same round.
func Build(h *Histogram, ds *dataset.Dataset, g int, bag []uint64, hessians []float64) {
	for i := range h.SumResidual {
		h.SumResidual[i] = 0
		h.SumHessian[i] = 0
	}
	for i := range h.Count {
		h.Count[i] = 0
	}

	k := ds.K()
	res := ds.Residuals()
	n := ds.N()
	for i := 0; i < n; i++ {
		weight := bag[i]
		if weight == 0 {
			continue
		}
		cell := ds.CellCode(g, i)
		h.Count[cell] += weight
		base := cell * uint64(k)
		row := uint64(i) * uint64(k)
		fw := float64(weight)
		for c := 0; c < k; c++ {
			h.SumResidual[base+uint64(c)] += fw * res[row+uint64(c)]
			h.SumHessian[base+uint64(c)] += fw * hessians[row+uint64(c)]
		}
	}
}
