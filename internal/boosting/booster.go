// Package boosting implements the Booster lifecycle and the per-round
// generate/apply update pipeline: the orchestration layer that wires
// together feature-group metadata, bit-packed datasets, bootstrap sampling
// sets, histograms, tree growth, and the loss model into one cyclic
// coordinate-descent boosting loop.
package boosting

import (
	"fmt"
	"math"

	"github.com/ebmcore/boosting/internal/dataset"
	"github.com/ebmcore/boosting/internal/feature"
	"github.com/ebmcore/boosting/internal/lossmodel"
	"github.com/ebmcore/boosting/internal/randstream"
	"github.com/ebmcore/boosting/internal/sampling"
	"github.com/ebmcore/boosting/internal/tensor"
)

// Booster owns every piece of state one boosting run needs: feature-group
// metadata, training/validation datasets, bootstrap sampling sets, the
// random streams driving tie-breaking and random splits, and the current
// and best expanded per-group models. Construct with NewClassificationBooster
// or NewRegressionBooster; release with Close.
type Booster struct {
	learningType lossmodel.Type
	k            int // 0 means "no model" (numClasses in {0,1})

	groups         []*feature.Group
	groupDims      []int
	groupBinCounts [][]uint64

	train *dataset.Dataset
	val   *dataset.Dataset

	bags []sampling.Set

	tieBreakRNG    *randstream.Stream
	randomSplitRNG *randstream.Stream

	currentModel []*tensor.SegmentedTensor
	bestModel    []*tensor.SegmentedTensor
	bestMetric   float64

	maxScratchBytesForEquivalentSplits int

	closed bool
}

// ClassificationConfig builds a classification Booster. numClasses in
// {0,1} is the degenerate "no model" contract: all update/getter calls
// succeed but never touch a model. numClasses == 2 is single-logit binary;
// numClasses > 2 is multiclass with one stored logit per class.
type ClassificationConfig struct {
	Seed         int64
	NumClasses   int
	Groups       []*feature.Group
	Train        dataset.Raw
	Val          dataset.Raw
	NumInnerBags int
	// Weights, if non-nil, is rejected: the reference engine reserves a
	// weights parameter but asserts it absent, and this port does the same
	// rather than silently implementing sample weighting.
	Weights []float64
}

// RegressionConfig builds a regression Booster (always K=1, squared-error
// loss).
type RegressionConfig struct {
	Seed         int64
	Groups       []*feature.Group
	Train        dataset.Raw
	Val          dataset.Raw
	NumInnerBags int
	Weights      []float64
}

// NewClassificationBooster validates cfg, allocates every owned buffer, and
// initializes residuals and models. Returns an error rather than a
// null-equivalent handle on any failure, leaving no partially constructed
// state behind.
func NewClassificationBooster(cfg ClassificationConfig) (*Booster, error) {
	if cfg.Weights != nil {
		return nil, fmt.Errorf("boosting: classification booster: %w", ErrWeightsUnsupported)
	}
	learningType := lossmodel.Binary
	k := 1
	if cfg.NumClasses <= 1 {
		k = 0
	} else if cfg.NumClasses > 2 {
		learningType = lossmodel.Multiclass
		k = cfg.NumClasses
	}
	return newBooster(cfg.Seed, learningType, k, cfg.Groups, cfg.Train, cfg.Val, cfg.NumInnerBags)
}

// NewRegressionBooster validates cfg, allocates every owned buffer, and
// initializes residuals and models.
func NewRegressionBooster(cfg RegressionConfig) (*Booster, error) {
	if cfg.Weights != nil {
		return nil, fmt.Errorf("boosting: regression booster: %w", ErrWeightsUnsupported)
	}
	return newBooster(cfg.Seed, lossmodel.Regression, 1, cfg.Groups, cfg.Train, cfg.Val, cfg.NumInnerBags)
}

func newBooster(seed int64, learningType lossmodel.Type, k int, groups []*feature.Group, trainRaw, valRaw dataset.Raw, numInnerBags int) (*Booster, error) {
	if numInnerBags < 0 {
		return nil, fmt.Errorf("boosting: NumInnerBags must be >= 0, got %d", numInnerBags)
	}

	datasetK := k
	if datasetK == 0 {
		datasetK = 1 // degenerate case still needs a valid (unused) score width
	}

	train, err := dataset.New(groups, datasetK, trainRaw)
	if err != nil {
		return nil, fmt.Errorf("boosting: train dataset: %w", err)
	}
	val, err := dataset.New(groups, datasetK, valRaw)
	if err != nil {
		return nil, fmt.Errorf("boosting: validation dataset: %w", err)
	}

	if k > 0 {
		lossmodel.InitializeResiduals(learningType, k, train.Targets(), train.Scores(), train.Residuals())
	}

	b := &Booster{
		learningType:   learningType,
		k:              k,
		groups:         groups,
		groupDims:      make([]int, len(groups)),
		groupBinCounts: make([][]uint64, len(groups)),
		train:          train,
		val:            val,
		tieBreakRNG:    randstream.New(seed, randstream.PurposeTieBreak),
		randomSplitRNG: randstream.New(seed, randstream.PurposeRandomSplit),
		bestMetric:     math.Inf(1),
	}

	maxBins := uint64(0)
	for g, group := range groups {
		dims := group.SignificantCount()
		b.groupDims[g] = dims
		binCounts := group.SignificantBinCounts()
		b.groupBinCounts[g] = binCounts
		for _, bc := range binCounts {
			if bc > maxBins {
				maxBins = bc
			}
		}
	}
	b.maxScratchBytesForEquivalentSplits = equivalentSplitScratchBytes(maxBins)

	if k > 0 {
		b.currentModel = make([]*tensor.SegmentedTensor, len(groups))
		b.bestModel = make([]*tensor.SegmentedTensor, len(groups))
		for g, group := range groups {
			cur := tensor.Allocate(feature.MaxDimensions, k)
			best := tensor.Allocate(feature.MaxDimensions, k)
			if b.groupDims[g] > 0 {
				if err := cur.Expand(group.SignificantBinCounts()); err != nil {
					return nil, fmt.Errorf("boosting: group %d: %w", g, err)
				}
				if err := best.Expand(group.SignificantBinCounts()); err != nil {
					return nil, fmt.Errorf("boosting: group %d: %w", g, err)
				}
			}
			b.currentModel[g] = cur
			b.bestModel[g] = best
		}
	}

	bagRNG := randstream.New(seed, randstream.PurposeSampling)
	b.bags = sampling.Generate(bagRNG, train.N(), numInnerBags)

	return b, nil
}

// Close releases the Booster. Thread states referencing it must not be
// used afterward.
func (b *Booster) Close() {
	if b == nil {
		return
	}
	b.closed = true
}

// BestModelFeatureGroup returns a copy of the best-so-far model values for
// group groupIdx (flat, row-major, K-wide per cell). Returns (nil, nil) in
// the degenerate numClasses-in-{0,1} case, matching the "getter succeeds
// and writes nothing" contract.
func (b *Booster) BestModelFeatureGroup(groupIdx int) ([]float64, error) {
	if err := b.checkGroup(groupIdx); err != nil {
		return nil, err
	}
	if b.k == 0 {
		return nil, nil
	}
	return b.bestModel[groupIdx].Values(), nil
}

// CurrentModelFeatureGroup returns a copy of the current model values for
// group groupIdx.
func (b *Booster) CurrentModelFeatureGroup(groupIdx int) ([]float64, error) {
	if err := b.checkGroup(groupIdx); err != nil {
		return nil, err
	}
	if b.k == 0 {
		return nil, nil
	}
	return b.currentModel[groupIdx].Values(), nil
}

func (b *Booster) checkGroup(groupIdx int) error {
	if b == nil || b.closed {
		return ErrInvalidHandle
	}
	if groupIdx < 0 || groupIdx >= len(b.groups) {
		return fmt.Errorf("boosting: group %d: %w", groupIdx, ErrGroupIndexRange)
	}
	return nil
}
