package tree

import (
	"testing"

	"github.com/ebmcore/boosting/internal/histogram"
	"github.com/ebmcore/boosting/internal/randstream"
)

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestGrowSingleDimFindsObviousSplit(t *testing.T) {
	// Four bins; residual jumps from -10 to +10 at bin 2 — the only
	// sensible split is at bin index 2.
	h := histogram.New(4, 1)
	res := []float64{-10, -10, 10, 10}
	for i, r := range res {
		h.SumResidual[i] = r
		h.SumHessian[i] = 1
		h.Count[i] = 1
	}

	tr, err := GrowSingleDim(h, 4, Options{
		LearningRate:      1.0,
		MinSamplesPerLeaf: 1,
		LeavesMax:         2,
		RNG:               randstream.New(1, randstream.PurposeTieBreak),
	})
	if err != nil {
		t.Fatal(err)
	}
	splits := tr.Splits(0)
	if len(splits) != 1 || splits[0] != 2 {
		t.Fatalf("splits = %v, want [2]", splits)
	}
}

func TestGrowSingleDimRespectsLeavesMax(t *testing.T) {
	h := histogram.New(8, 1)
	for i := 0; i < 8; i++ {
		h.SumResidual[i] = float64(i % 2 * 2 - 1)
		h.SumHessian[i] = 1
		h.Count[i] = 1
	}
	tr, err := GrowSingleDim(h, 8, Options{
		LearningRate:      1.0,
		MinSamplesPerLeaf: 1,
		LeavesMax:         3,
		RNG:               randstream.New(1, randstream.PurposeTieBreak),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Splits(0)) > 2 {
		t.Fatalf("got %d splits, want at most 2 (LeavesMax=3)", len(tr.Splits(0)))
	}
}

func TestGrowSingleDimNoSplitWhenFlat(t *testing.T) {
	h := histogram.New(4, 1)
	for i := 0; i < 4; i++ {
		h.SumResidual[i] = 0
		h.SumHessian[i] = 1
		h.Count[i] = 1
	}
	tr, err := GrowSingleDim(h, 4, Options{
		LearningRate:      1.0,
		MinSamplesPerLeaf: 1,
		LeavesMax:         4,
		RNG:               randstream.New(1, randstream.PurposeTieBreak),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Splits(0)) != 0 {
		t.Fatalf("got %d splits on a flat histogram, want 0", len(tr.Splits(0)))
	}
}

func TestGrowSingleDimHonorsMinSamplesPerLeaf(t *testing.T) {
	h := histogram.New(4, 1)
	res := []float64{-10, -10, 10, 10}
	for i, r := range res {
		h.SumResidual[i] = r
		h.SumHessian[i] = 1
		h.Count[i] = 1
	}
	tr, err := GrowSingleDim(h, 4, Options{
		LearningRate:      1.0,
		MinSamplesPerLeaf: 3,
		LeavesMax:         2,
		RNG:               randstream.New(1, randstream.PurposeTieBreak),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Splits(0)) != 0 {
		t.Fatalf("got %d splits, want 0 (every candidate split leaves a leaf under min_samples_per_leaf=3)", len(tr.Splits(0)))
	}
}

func TestGrowMultiDimTwoByTwoGrid(t *testing.T) {
	// 2x2 tensor, strong row/column-separated signal.
	h := histogram.New(4, 1)
	vals := []float64{-10, -10, 10, 10} // cells (0,0) (0,1) (1,0) (1,1)
	for i, v := range vals {
		h.SumResidual[i] = v
		h.SumHessian[i] = 1
		h.Count[i] = 1
	}
	tr, err := GrowMultiDim(h, []uint64{2, 2}, Options{
		LearningRate:      1.0,
		MinSamplesPerLeaf: 1,
		LeavesMax:         4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Dims() != 2 {
		t.Fatalf("Dims() = %d, want 2", tr.Dims())
	}
}
