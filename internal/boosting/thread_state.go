package boosting

import (
	"fmt"

	"github.com/ebmcore/boosting/internal/feature"
	"github.com/ebmcore/boosting/internal/histogram"
	"github.com/ebmcore/boosting/internal/lossmodel"
	"github.com/ebmcore/boosting/internal/randomsplit"
	"github.com/ebmcore/boosting/internal/splitmath"
	"github.com/ebmcore/boosting/internal/tensor"
	"github.com/ebmcore/boosting/internal/tree"
)

// ThreadState is one thread's scratch for the generate/apply update cycle:
// an accumulator tensor (the running, bag-averaged candidate update,
// always expanded to the pending group's shape), an overwrite tensor (one
// bag's raw splitter output, compressed), a hessian scratch buffer sized
// to the training set, and an equivalent-split scratch buffer sized at
// construction from the Booster's worst-case group.
//
// A *ThreadState is not safe for concurrent use by itself. Distinct
// ThreadStates over the same Booster may run GenerateUpdate concurrently;
// ApplyUpdate must be serialized by the caller across all of a Booster's
// thread states.
type ThreadState struct {
	booster *Booster

	accumulator *tensor.SegmentedTensor
	overwrite   *tensor.SegmentedTensor
	hessians    []float64

	equivSplitScratch ByteBuffer

	pendingGroup int
	pendingDims  int
	pendingCuts  [][]uint64
	pendingGain  float64

	closed bool
}

// NewThreadState allocates a ThreadState referencing b. b must outlive the
// returned ThreadState.
func NewThreadState(b *Booster) (*ThreadState, error) {
	if b == nil || b.closed {
		return nil, ErrInvalidHandle
	}
	k := b.k
	if k == 0 {
		k = 1
	}
	ts := &ThreadState{
		booster:      b,
		accumulator:  tensor.Allocate(feature.MaxDimensions, k),
		overwrite:    tensor.Allocate(feature.MaxDimensions, k),
		hessians:     make([]float64, b.train.N()*k),
		pendingGroup: -1,
	}
	ts.equivSplitScratch.Grow(b.maxScratchBytesForEquivalentSplits)
	return ts, nil
}

// Close releases the ThreadState. It must not be used after its Booster is
// closed.
func (ts *ThreadState) Close() {
	if ts == nil {
		return
	}
	ts.closed = true
}

func (ts *ThreadState) checkOpen() error {
	if ts == nil || ts.closed {
		return ErrInvalidHandle
	}
	if ts.booster == nil || ts.booster.closed {
		return ErrInvalidHandle
	}
	return nil
}

// GenerateUpdate builds a candidate tensor update for feature-group
// groupIdx into thread-local scratch: for each inner bag, it histograms
// the (bag-weighted) training set for that group, runs the greedy
// splitter (internal/tree) or, if options has RandomSplits set, the
// random splitter (internal/randomsplit), and folds the result into the
// accumulator scaled by 1/numBags. It does not touch the Booster's model;
// call ApplyUpdate to fold the result in.
func (ts *ThreadState) GenerateUpdate(groupIdx int, options UpdateOptions, lr float64, minSamplesPerLeaf int, leavesMaxPerDim []int) (float64, error) {
	if err := ts.checkOpen(); err != nil {
		return 0, err
	}
	b := ts.booster
	if err := b.checkGroup(groupIdx); err != nil {
		return 0, err
	}

	ts.accumulator.Reset()
	ts.pendingGroup = groupIdx
	ts.pendingGain = 0
	ts.pendingCuts = nil

	if b.k == 0 {
		ts.pendingDims = 0
		return 0, nil
	}

	dims := b.groupDims[groupIdx]
	binCounts := b.groupBinCounts[groupIdx]
	ts.pendingDims = dims

	k := b.k
	for i := 0; i < b.train.N(); i++ {
		row := b.train.Scores()[i*k : i*k+k]
		lossmodel.Hessian(b.learningType, k, row, ts.hessians[i*k:i*k+k])
	}

	numBags := len(b.bags)
	if numBags == 0 {
		numBags = 1
	}

	if dims > 0 {
		if ts.accumulator.Dims() == 0 {
			if err := ts.accumulator.Expand(binCounts); err != nil {
				return 0, fmt.Errorf("boosting: group %d: %w", groupIdx, err)
			}
		}
	}

	gainSum := 0.0
	groupTensorBins := b.train.TensorBins(groupIdx)
	for _, bag := range b.bags {
		h := histogram.New(int(groupTensorBins), k)
		histogram.Build(h, b.train, groupIdx, bag.Counts, ts.hessians)

		var (
			bagTensor *tensor.SegmentedTensor
			cuts      [][]uint64
			err       error
		)
		switch {
		case dims == 0:
			bagTensor, err = zeroDimUpdate(h, lr, options.has(GradientSums))
		case dims == 1:
			leavesMax := 2
			if len(leavesMaxPerDim) > 0 {
				leavesMax = leavesMaxPerDim[0]
			}
			if options.has(RandomSplits) {
				bagTensor, err = randomsplit.Grow(h, binCounts[0], randomsplit.Options{
					LearningRate:      lr,
					MinSamplesPerLeaf: uint64(minSamplesPerLeaf),
					LeavesMax:         leavesMax,
					GradientSumsOnly:  options.has(GradientSums),
					RNG:               b.randomSplitRNG,
				})
			} else {
				bagTensor, err = tree.GrowSingleDim(h, binCounts[0], tree.Options{
					LearningRate:            lr,
					MinSamplesPerLeaf:       uint64(minSamplesPerLeaf),
					LeavesMax:               leavesMax,
					GradientSumsOnly:        options.has(GradientSums),
					EquivalentGainTolerance: 1e-9,
					RNG:                     b.tieBreakRNG,
				})
			}
			if err == nil {
				cuts = [][]uint64{bagTensor.Splits(0)}
			}
		default:
			leavesMax := 1
			for d := 0; d < dims; d++ {
				lm := 2
				if d < len(leavesMaxPerDim) {
					lm = leavesMaxPerDim[d]
				}
				leavesMax *= lm
			}
			if options.has(RandomSplits) {
				lmpd := make([]int, dims)
				for d := range lmpd {
					lmpd[d] = 2
					if d < len(leavesMaxPerDim) {
						lmpd[d] = leavesMaxPerDim[d]
					}
				}
				bagTensor, err = randomsplit.GrowMultiDim(h, binCounts, lmpd, randomsplit.Options{
					LearningRate:      lr,
					MinSamplesPerLeaf: uint64(minSamplesPerLeaf),
					GradientSumsOnly:  options.has(GradientSums),
					RNG:               b.randomSplitRNG,
				})
			} else {
				bagTensor, err = tree.GrowMultiDim(h, binCounts, tree.Options{
					LearningRate:      lr,
					MinSamplesPerLeaf: uint64(minSamplesPerLeaf),
					LeavesMax:         leavesMax,
					GradientSumsOnly:  options.has(GradientSums),
				})
			}
			if err == nil {
				cuts = make([][]uint64, dims)
				for d := 0; d < dims; d++ {
					cuts[d] = bagTensor.Splits(d)
				}
			}
		}
		if err != nil {
			return 0, fmt.Errorf("boosting: group %d: %w", groupIdx, err)
		}

		gainSum += computeGain(h, binCounts, cuts) / float64(numBags)
		ts.pendingCuts = cuts
		ts.overwrite = bagTensor

		if dims > 0 {
			if err := ts.overwrite.Expand(binCounts); err != nil {
				return 0, fmt.Errorf("boosting: group %d: %w", groupIdx, err)
			}
		}
		if err := ts.overwrite.AddScaledInto(ts.accumulator, 1.0/float64(numBags)); err != nil {
			return 0, fmt.Errorf("boosting: group %d: %w", groupIdx, err)
		}
	}

	ts.pendingGain = gainSum
	return gainSum, nil
}

// zeroDimUpdate computes the single-cell leaf score for a zero-significant-
// dimension feature-group directly from its (single-bucket) histogram.
func zeroDimUpdate(h *histogram.Histogram, lr float64, gradientSumsOnly bool) (*tensor.SegmentedTensor, error) {
	k := h.K
	values := make([]float64, k)
	for c := 0; c < k; c++ {
		sumRes, sumHess := 0.0, 0.0
		for cell := 0; cell < h.Bins; cell++ {
			sumRes += h.SumResidual[cell*k+c]
			sumHess += h.SumHessian[cell*k+c]
		}
		values[c] = splitmath.LeafScore(sumRes, sumHess, lr, gradientSumsOnly)
	}
	t := tensor.Allocate(1, k)
	if err := t.InitCompressed(nil, nil, values); err != nil {
		return nil, err
	}
	return t, nil
}

// GetUpdateCuts returns the pending update's cut positions along
// dimension dim, as chosen by the most recent bag considered in
// GenerateUpdate (exact when NumInnerBags <= 1, best-effort otherwise,
// since different bags may choose different cuts).
func (ts *ThreadState) GetUpdateCuts(dim int) ([]int, error) {
	if err := ts.checkOpen(); err != nil {
		return nil, err
	}
	if ts.pendingGroup < 0 {
		return nil, ErrNoPendingUpdate
	}
	if dim < 0 || dim >= ts.pendingDims {
		return nil, fmt.Errorf("boosting: GetUpdateCuts dim %d: %w", dim, ErrDimIndexRange)
	}
	cuts := ts.pendingCuts[dim]
	out := make([]int, len(cuts))
	for i, c := range cuts {
		out[i] = int(c)
	}
	return out, nil
}

// GetUpdateExpanded returns a copy of the pending update's full expanded
// value array.
func (ts *ThreadState) GetUpdateExpanded() ([]float64, error) {
	if err := ts.checkOpen(); err != nil {
		return nil, err
	}
	if ts.pendingGroup < 0 {
		return nil, ErrNoPendingUpdate
	}
	return ts.accumulator.Values(), nil
}

// SetUpdateExpanded replaces the pending update's full expanded value
// array in place (dim is the pending update's dimensionality, checked
// against the live value for a cheap sanity guard against stale callers).
func (ts *ThreadState) SetUpdateExpanded(dim int, values []float64) error {
	if err := ts.checkOpen(); err != nil {
		return err
	}
	if ts.pendingGroup < 0 {
		return ErrNoPendingUpdate
	}
	if dim != ts.pendingDims {
		return fmt.Errorf("boosting: SetUpdateExpanded dim %d, pending update has %d: %w", dim, ts.pendingDims, ErrDimIndexRange)
	}
	raw := ts.accumulator.RawValues()
	if len(values) != len(raw) {
		return fmt.Errorf("boosting: SetUpdateExpanded: %w (got %d, want %d)", ErrLengthMismatch, len(values), len(raw))
	}
	copy(raw, values)
	return nil
}

// ApplyUpdate folds the pending accumulator into the Booster's current
// model for the pending group, updates training scores/residuals and
// validation scores, recomputes the validation metric, and promotes
// current to best when the metric improves. Returns 0 when there is no
// validation set (best model never updates in that case).
//
// Callers must serialize ApplyUpdate across every ThreadState sharing a
// Booster; this method does not lock internally (the reference engine
// documents, rather than enforces, that contract, and this port keeps the
// same shape).
func (ts *ThreadState) ApplyUpdate() (float64, error) {
	if err := ts.checkOpen(); err != nil {
		return 0, err
	}
	b := ts.booster
	if ts.pendingGroup < 0 {
		return 0, ErrNoPendingUpdate
	}
	g := ts.pendingGroup
	ts.pendingGroup = -1

	if b.k == 0 {
		return 0, nil
	}
	k := b.k

	if err := ts.accumulator.AddExpandedInto(b.currentModel[g]); err != nil {
		return 0, fmt.Errorf("boosting: apply group %d: %w", g, err)
	}

	applyToScores(ts.accumulator, b.train, g, k)
	lossmodel.InitializeResiduals(b.learningType, k, b.train.Targets(), b.train.Scores(), b.train.Residuals())

	var metric float64
	if b.val.N() > 0 {
		applyToScores(ts.accumulator, b.val, g, k)
		metric = lossmodel.ValidationMetric(b.learningType, k, b.val.Targets(), b.val.Scores())
		if metric < b.bestMetric {
			b.bestMetric = metric
			for gi := range b.currentModel {
				b.bestModel[gi].CopyFrom(b.currentModel[gi])
			}
		}
	}

	return metric, nil
}

func applyToScores(update *tensor.SegmentedTensor, ds scoreWriter, g, k int) {
	n := ds.N()
	scores := ds.Scores()
	for i := 0; i < n; i++ {
		cell := ds.CellCode(g, i)
		for c := 0; c < k; c++ {
			scores[i*k+c] += update.ValueAtCell(cell, c)
		}
	}
}

// scoreWriter is the slice of *dataset.Dataset's API applyToScores needs;
// named so both the training and validation dataset can share the call.
type scoreWriter interface {
	N() int
	Scores() []float64
	CellCode(g, i int) uint64
}
