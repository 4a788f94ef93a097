// Package tree grows a single feature-group's tensor update for one
// boosting round from its histogram: a greedy, gain-maximizing leaf-wise
// split search for single-dimension groups, and a sequential per-dimension
// sweep for interaction (multi-dimension) groups. Both report their result
// as a compressed SegmentedTensor (ascending split positions per dimension
// plus a value per resulting segment) ready for tensor.Expand.
package tree

import (
	"github.com/ebmcore/boosting/internal/histogram"
	"github.com/ebmcore/boosting/internal/randstream"
	"github.com/ebmcore/boosting/internal/splitmath"
	"github.com/ebmcore/boosting/internal/tensor"
)

// Options bounds and configures a single growth call.
type Options struct {
	LearningRate      float64
	MinSamplesPerLeaf uint64
	LeavesMax         int
	GradientSumsOnly  bool
	// EquivalentGainTolerance treats two candidate splits whose gains differ
	// by no more than this as tied, breaking ties uniformly at random via
	// RNG rather than always preferring the lower (or higher) bin index.
	EquivalentGainTolerance float64
	// RNG selects among equivalent-gain splits in single-dim growth; when
	// nil, the first tied candidate is taken. Multi-dim growth ignores it (tie-randomization is disabled
	// for interaction sweeps, per the reference engine).
	RNG *randstream.Stream
}

// prefixSums holds cumulative per-class residual/hessian sums and per-cell
// counts over a 1-D run of histogram bins, enabling O(1) range queries
// during split search.
type prefixSums struct {
	k    int
	res  []float64 // (bins+1)*k
	hess []float64 // (bins+1)*k
	cnt  []uint64  // bins+1
}

func buildPrefix(h *histogram.Histogram) *prefixSums {
	k := h.K
	p := &prefixSums{
		k:    k,
		res:  make([]float64, (h.Bins+1)*k),
		hess: make([]float64, (h.Bins+1)*k),
		cnt:  make([]uint64, h.Bins+1),
	}
	for b := 0; b < h.Bins; b++ {
		p.cnt[b+1] = p.cnt[b] + h.Count[b]
		for c := 0; c < k; c++ {
			p.res[(b+1)*k+c] = p.res[b*k+c] + h.SumResidual[b*k+c]
			p.hess[(b+1)*k+c] = p.hess[b*k+c] + h.SumHessian[b*k+c]
		}
	}
	return p
}

func (p *prefixSums) rangeResHess(lo, hi int) (res, hess []float64) {
	res = make([]float64, p.k)
	hess = make([]float64, p.k)
	for c := 0; c < p.k; c++ {
		res[c] = p.res[hi*p.k+c] - p.res[lo*p.k+c]
		hess[c] = p.hess[hi*p.k+c] - p.hess[lo*p.k+c]
	}
	return
}

func (p *prefixSums) count(lo, hi int) uint64 { return p.cnt[hi] - p.cnt[lo] }

func totalGain(leftRes, leftHess, rightRes, rightHess []float64) float64 {
	gain := 0.0
	for c := range leftRes {
		gain += splitmath.SplitGain(leftRes[c], leftHess[c], rightRes[c], rightHess[c])
	}
	return gain
}

// leafResult is one contiguous bin range [lo, hi) with its per-class score.
type leafResult struct {
	lo, hi int
	score  []float64
}

// GrowSingleDim recursively splits a single-dimension histogram into at
// most opt.LeavesMax leaves, greedily choosing the split maximizing total
// gain at each step (best-first: the candidate leaf/cut pair with the
// single highest gain across the whole frontier is taken first), subject
// to opt.MinSamplesPerLeaf. Returns a compressed tensor over one dimension
// of binCount bins.
func GrowSingleDim(h *histogram.Histogram, binCount uint64, opt Options) (*tensor.SegmentedTensor, error) {
	p := buildPrefix(h)
	k := h.K

	leaves := []leafResult{{lo: 0, hi: h.Bins}}
	splitsSet := map[uint64]bool{}

	type frontierCut struct {
		leafIdx int
		cut     int
		gain    float64
	}

	for len(leaves) < opt.LeavesMax {
		var candidates []frontierCut
		bestGain := -1.0
		for li, leaf := range leaves {
			if leaf.hi-leaf.lo < 2 {
				continue
			}
			for cut := leaf.lo + 1; cut < leaf.hi; cut++ {
				leftCount := p.count(leaf.lo, cut)
				rightCount := p.count(cut, leaf.hi)
				if leftCount < opt.MinSamplesPerLeaf || rightCount < opt.MinSamplesPerLeaf {
					continue
				}
				lRes, lHess := p.rangeResHess(leaf.lo, cut)
				rRes, rHess := p.rangeResHess(cut, leaf.hi)
				gain := totalGain(lRes, lHess, rRes, rHess)
				if gain > bestGain {
					bestGain = gain
				}
				candidates = append(candidates, frontierCut{li, cut, gain})
			}
		}
		if len(candidates) == 0 || bestGain <= 0 {
			break
		}

		var tied []frontierCut
		for _, c := range candidates {
			if bestGain-c.gain <= opt.EquivalentGainTolerance {
				tied = append(tied, c)
			}
		}
		chosen := tied[0]
		if len(tied) > 1 && opt.RNG != nil {
			chosen = tied[opt.RNG.NextInRange(uint64(len(tied)))]
		}

		leaf := leaves[chosen.leafIdx]
		splitsSet[uint64(chosen.cut)] = true
		left := leafResult{lo: leaf.lo, hi: chosen.cut}
		right := leafResult{lo: chosen.cut, hi: leaf.hi}
		leaves = append(leaves[:chosen.leafIdx], append([]leafResult{left, right}, leaves[chosen.leafIdx+1:]...)...)
	}

	for i := range leaves {
		res, hess := p.rangeResHess(leaves[i].lo, leaves[i].hi)
		score := make([]float64, k)
		for c := 0; c < k; c++ {
			score[c] = splitmath.LeafScore(res[c], hess[c], opt.LearningRate, opt.GradientSumsOnly)
		}
		leaves[i].score = score
	}

	return compressedFromLeaves(leaves, binCount, k)
}

func compressedFromLeaves(leaves []leafResult, binCount uint64, k int) (*tensor.SegmentedTensor, error) {
	cuts := make([]uint64, 0, len(leaves)-1)
	for i := 1; i < len(leaves); i++ {
		cuts = append(cuts, uint64(leaves[i].lo))
	}
	values := make([]float64, len(leaves)*k)
	for i, l := range leaves {
		copy(values[i*k:(i+1)*k], l.score)
	}
	t := tensor.Allocate(1, k)
	if err := t.InitCompressed([]uint64{binCount}, [][]uint64{cuts}, values); err != nil {
		return nil, err
	}
	return t, nil
}

// GrowMultiDim grows an interaction tensor across dims dimensions by
// sweeping each dimension in turn: holding every other dimension's current
// split set fixed, it finds that dimension's single best additional cut
// (summed across the dimension's other-axis segments) and accepts it when
// it strictly improves total gain, continuing until no dimension's sweep
// improves gain or opt.LeavesMax is reached. Tie-breaking is NOT
// randomized for interactions (opt.RNG is ignored), matching the
// reference engine's stance that interaction detection should be
// reproducible independent of the single-dimension tie-break stream.
func GrowMultiDim(h *histogram.Histogram, binCounts []uint64, opt Options) (*tensor.SegmentedTensor, error) {
	dims := len(binCounts)
	k := h.K
	cuts := make([][]uint64, dims)
	leaves := 1

	improved := true
	for improved && leaves < opt.LeavesMax {
		improved = false
		for d := 0; d < dims; d++ {
			bestCut, bestGain, ok := bestCutForDim(h, binCounts, d, cuts, opt.MinSamplesPerLeaf)
			if !ok || bestGain <= 0 {
				continue
			}
			already := false
			for _, c := range cuts[d] {
				if c == bestCut {
					already = true
				}
			}
			if already {
				continue
			}
			cuts[d] = insertSorted(cuts[d], bestCut)
			leaves *= 2
			improved = true
			if leaves >= opt.LeavesMax {
				break
			}
		}
	}

	values, err := evaluateGrid(h, binCounts, cuts, opt)
	if err != nil {
		return nil, err
	}
	t := tensor.Allocate(dims, k)
	if err := t.InitCompressed(binCounts, cuts, values); err != nil {
		return nil, err
	}
	return t, nil
}

func insertSorted(s []uint64, v uint64) []uint64 {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	out := append(s[:i:i], v)
	return append(out, s[i:]...)
}

// bestCutForDim projects the full histogram onto dimension d (summing over
// every other dimension) and finds the single additional cut, among
// positions not already in cuts[d], with the highest total gain. The
// projection works for any number of dimensions.
func bestCutForDim(h *histogram.Histogram, binCounts []uint64, d int, cuts [][]uint64, minSamplesPerLeaf uint64) (uint64, float64, bool) {
	dims := len(binCounts)
	k := h.K
	dimBins := int(binCounts[d])

	projRes := make([][]float64, dimBins)
	projHess := make([][]float64, dimBins)
	projCount := make([]uint64, dimBins)
	for b := 0; b < dimBins; b++ {
		projRes[b] = make([]float64, k)
		projHess[b] = make([]float64, k)
	}

	coord := make([]uint64, dims)
	total := uint64(1)
	for _, bc := range binCounts {
		total *= bc
	}
	for cell := uint64(0); cell < total; cell++ {
		rem := cell
		for i := dims - 1; i >= 0; i-- {
			coord[i] = rem % binCounts[i]
			rem /= binCounts[i]
		}
		b := coord[d]
		projCount[b] += h.Count[cell]
		base := cell * uint64(k)
		for c := 0; c < k; c++ {
			projRes[b][c] += h.SumResidual[base+uint64(c)]
			projHess[b][c] += h.SumHessian[base+uint64(c)]
		}
	}

	prefixRes := make([][]float64, dimBins+1)
	prefixHess := make([][]float64, dimBins+1)
	prefixCnt := make([]uint64, dimBins+1)
	prefixRes[0] = make([]float64, k)
	prefixHess[0] = make([]float64, k)
	for b := 0; b < dimBins; b++ {
		prefixRes[b+1] = make([]float64, k)
		prefixHess[b+1] = make([]float64, k)
		prefixCnt[b+1] = prefixCnt[b] + projCount[b]
		for c := 0; c < k; c++ {
			prefixRes[b+1][c] = prefixRes[b][c] + projRes[b][c]
			prefixHess[b+1][c] = prefixHess[b][c] + projHess[b][c]
		}
	}

	bestGain := -1.0
	bestCut := uint64(0)
	found := false
	taken := make(map[uint64]bool, len(cuts[d]))
	for _, c := range cuts[d] {
		taken[c] = true
	}
	for cut := 1; cut < dimBins; cut++ {
		if taken[uint64(cut)] {
			continue
		}
		leftCount := prefixCnt[cut]
		rightCount := prefixCnt[dimBins] - prefixCnt[cut]
		if leftCount < minSamplesPerLeaf || rightCount < minSamplesPerLeaf {
			continue
		}
		lRes := make([]float64, k)
		lHess := make([]float64, k)
		rRes := make([]float64, k)
		rHess := make([]float64, k)
		for c := 0; c < k; c++ {
			lRes[c] = prefixRes[cut][c]
			lHess[c] = prefixHess[cut][c]
			rRes[c] = prefixRes[dimBins][c] - prefixRes[cut][c]
			rHess[c] = prefixHess[dimBins][c] - prefixHess[cut][c]
		}
		gain := totalGain(lRes, lHess, rRes, rHess)
		if gain > bestGain {
			bestGain = gain
			bestCut = uint64(cut)
			found = true
		}
	}
	return bestCut, bestGain, found
}

// evaluateGrid computes the per-segment leaf score for every cell in the
// grid defined by cuts, by summing the histogram over each segment's bin
// range per dimension.
func evaluateGrid(h *histogram.Histogram, binCounts []uint64, cuts [][]uint64, opt Options) ([]float64, error) {
	dims := len(binCounts)
	k := h.K

	segBounds := make([][]uint64, dims)
	for d := 0; d < dims; d++ {
		bounds := append([]uint64{0}, cuts[d]...)
		bounds = append(bounds, binCounts[d])
		segBounds[d] = bounds
	}
	segsPerDim := make([]int, dims)
	totalSegs := 1
	for d := range segBounds {
		segsPerDim[d] = len(segBounds[d]) - 1
		totalSegs *= segsPerDim[d]
	}

	values := make([]float64, totalSegs*k)
	segCoord := make([]int, dims)
	for seg := 0; seg < totalSegs; seg++ {
		rem := seg
		for i := dims - 1; i >= 0; i-- {
			segCoord[i] = rem % segsPerDim[i]
			rem /= segsPerDim[i]
		}

		res := make([]float64, k)
		hess := make([]float64, k)
		lo := make([]uint64, dims)
		hi := make([]uint64, dims)
		for d := 0; d < dims; d++ {
			lo[d] = segBounds[d][segCoord[d]]
			hi[d] = segBounds[d][segCoord[d]+1]
		}
		accumulateRange(h, binCounts, lo, hi, res, hess)

		for c := 0; c < k; c++ {
			values[seg*k+c] = splitmath.LeafScore(res[c], hess[c], opt.LearningRate, opt.GradientSumsOnly)
		}
	}
	return values, nil
}

func accumulateRange(h *histogram.Histogram, binCounts, lo, hi []uint64, res, hess []float64) {
	dims := len(binCounts)
	k := h.K
	coord := make([]uint64, dims)
	copy(coord, lo)
	for {
		cell := uint64(0)
		for d := 0; d < dims; d++ {
			cell = cell*binCounts[d] + coord[d]
		}
		base := cell * uint64(k)
		for c := 0; c < k; c++ {
			res[c] += h.SumResidual[base+uint64(c)]
			hess[c] += h.SumHessian[base+uint64(c)]
		}

		d := dims - 1
		for d >= 0 {
			coord[d]++
			if coord[d] < hi[d] {
				break
			}
			coord[d] = lo[d]
			d--
		}
		if d < 0 {
			break
		}
	}
}
