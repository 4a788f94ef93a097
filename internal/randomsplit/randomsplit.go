// Package randomsplit generates a feature-group's tensor update for one
// boosting round by cutting at uniformly random bin positions instead of
// searching for the gain-maximizing cut. It trades the histogram's full
// greedy search for speed, trading away the guarantee that each round's
// update improves training loss, and is driven by its own reproducible
// stream so turning it on or off never perturbs bootstrap sampling.
package randomsplit

import (
	"github.com/ebmcore/boosting/internal/histogram"
	"github.com/ebmcore/boosting/internal/randstream"
	"github.com/ebmcore/boosting/internal/splitmath"
	"github.com/ebmcore/boosting/internal/tensor"
)

// Options configures one random-split growth call.
type Options struct {
	LearningRate      float64
	MinSamplesPerLeaf uint64
	LeavesMax         int
	GradientSumsOnly  bool
	RNG               *randstream.Stream
}

// Grow cuts a single-dimension histogram of binCount bins at up to
// LeavesMax-1 uniformly random positions (rejecting any cut that would
// leave a segment under MinSamplesPerLeaf samples, retrying a bounded
// number of times; once a cut cannot be placed, no further cuts are drawn),
// and scores each resulting
// segment with the usual Newton-step leaf formula.
func Grow(h *histogram.Histogram, binCount uint64, opt Options) (*tensor.SegmentedTensor, error) {
	k := h.K
	leavesWanted := opt.LeavesMax
	if leavesWanted < 1 {
		leavesWanted = 1
	}
	if uint64(leavesWanted) > binCount {
		leavesWanted = int(binCount)
	}

	cuts := pickRandomCuts(opt.RNG, binCount, leavesWanted-1, h, opt.MinSamplesPerLeaf)

	bounds := append([]uint64{0}, cuts...)
	bounds = append(bounds, binCount)

	values := make([]float64, (len(bounds)-1)*k)
	for seg := 0; seg < len(bounds)-1; seg++ {
		lo, hi := bounds[seg], bounds[seg+1]
		res := make([]float64, k)
		hess := make([]float64, k)
		for b := lo; b < hi; b++ {
			base := b * uint64(k)
			for c := 0; c < k; c++ {
				res[c] += h.SumResidual[base+uint64(c)]
				hess[c] += h.SumHessian[base+uint64(c)]
			}
		}
		for c := 0; c < k; c++ {
			values[seg*k+c] = splitmath.LeafScore(res[c], hess[c], opt.LearningRate, opt.GradientSumsOnly)
		}
	}

	t := tensor.Allocate(1, k)
	if err := t.InitCompressed([]uint64{binCount}, [][]uint64{cuts}, values); err != nil {
		return nil, err
	}
	return t, nil
}

// pickRandomCuts draws up to want distinct ascending cut positions in
// [1, binCount), skipping any candidate that would leave either its left
// or right neighbor segment under minSamplesPerLeaf. Gives up early (fewer
// cuts than requested) if the bag is too small or too lopsided to place
// another legal cut after a bounded number of attempts, rather than
// looping forever.
func pickRandomCuts(rng *randstream.Stream, binCount uint64, want int, h *histogram.Histogram, minSamplesPerLeaf uint64) []uint64 {
	if want <= 0 || binCount < 2 {
		return nil
	}

	prefix := make([]uint64, binCount+1)
	for b := uint64(0); b < binCount; b++ {
		prefix[b+1] = prefix[b] + h.Count[b]
	}

	chosen := map[uint64]bool{}
	const maxAttemptsPerCut = 64
	for len(chosen) < want {
		placed := false
		for attempt := 0; attempt < maxAttemptsPerCut; attempt++ {
			cut := 1 + rng.NextInRange(binCount-1)
			if chosen[cut] {
				continue
			}
			left := prevBoundary(chosen, cut, 0, prefix, binCount)
			right := nextBoundary(chosen, cut, binCount, prefix, binCount)
			if prefix[cut]-prefix[left] < minSamplesPerLeaf {
				continue
			}
			if prefix[right]-prefix[cut] < minSamplesPerLeaf {
				continue
			}
			chosen[cut] = true
			placed = true
			break
		}
		if !placed {
			break
		}
	}

	out := make([]uint64, 0, len(chosen))
	for c := range chosen {
		out = append(out, c)
	}
	// insertion sort: len(out) is at most LeavesMax-1, always small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func prevBoundary(chosen map[uint64]bool, cut, floor uint64, prefix []uint64, binCount uint64) uint64 {
	best := floor
	for c := range chosen {
		if c < cut && c > best {
			best = c
		}
	}
	return best
}

func nextBoundary(chosen map[uint64]bool, cut, ceil uint64, prefix []uint64, binCount uint64) uint64 {
	best := ceil
	for c := range chosen {
		if c > cut && c < best {
			best = c
		}
	}
	return best
}

// GrowMultiDim is Grow's interaction counterpart: it picks
// leavesMaxPerDim[d]-1 random cuts per dimension (instead of searching
// for the best ones), honoring MinSamplesPerLeaf against each dimension's
// projected per-bin counts, then scores the resulting grid exactly as the
// greedy multi-dim path does.
func GrowMultiDim(h *histogram.Histogram, binCounts []uint64, leavesMaxPerDim []int, opt Options) (*tensor.SegmentedTensor, error) {
	dims := len(binCounts)
	k := h.K
	cuts := make([][]uint64, dims)

	for d := 0; d < dims; d++ {
		want := leavesMaxPerDim[d] - 1
		if want <= 0 {
			continue
		}
		counts := projectDimCounts(h, binCounts, d)
		projHist := &histogram.Histogram{Bins: int(binCounts[d]), K: 1, Count: counts}
		cuts[d] = pickRandomCuts(opt.RNG, binCounts[d], want, projHist, opt.MinSamplesPerLeaf)
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

func projectDimCounts(h *histogram.Histogram, binCounts []uint64, d int) []uint64 {
	dims := len(binCounts)
	out := make([]uint64, binCounts[d])
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
		out[coord[d]] += h.Count[cell]
	}
	return out
}

// evaluateGrid mirrors internal/tree's grid scorer: it sums the full
// histogram over each grid segment's bin range per dimension and leaf
// scores the result. Duplicated rather than shared because the two
// packages' split-search strategies diverge upstream of this step and
// neither should import the other just for this shared tail.
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
