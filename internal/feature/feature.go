// Package feature holds the Feature and FeatureGroup metadata that every
// other package in this module (dataset, histogram, tree, tensor) indexes
// against. It owns no sample data; it only describes the shape of it.
package feature

import (
	"fmt"
	"math/bits"
)

// MaxDimensions bounds how many features a single group may combine.
const MaxDimensions = 64

// StorageWordBits is the bit width of one bit-packed storage word.
const StorageWordBits = 64

// Feature describes one column of the binned input matrix.
type Feature struct {
	BinCount    uint64
	Categorical bool
	Index       uint64
}

// New builds a Feature without validating it. BinCount == 0 is only legal when the
// caller asserts there are zero samples (enforced by the dataset/booster
// layer, not here, since a Feature has no sample count of its own).
func New(binCount uint64, categorical bool, index uint64) Feature {
	return Feature{BinCount: binCount, Categorical: categorical, Index: index}
}

// Significant reports whether this feature's bin count carries information
// (bin_count > 1); bin_count in {0, 1} contributes nothing to a tensor shape.
func (f Feature) Significant() bool {
	return f.BinCount > 1
}

// Group is an ordered tuple of features over which one additive model
// component (a SegmentedTensor) is defined.
type Group struct {
	Features []Feature
}

// NewGroup validates dimensionality and builds a Group.
func NewGroup(features []Feature) (*Group, error) {
	if len(features) > MaxDimensions {
		return nil, fmt.Errorf("feature: group dimensionality %d exceeds MaxDimensions %d", len(features), MaxDimensions)
	}
	cp := append([]Feature(nil), features...)
	return &Group{Features: cp}, nil
}

// Dimensionality is the number of features in the group, significant or not.
func (g *Group) Dimensionality() int {
	if g == nil {
		return 0
	}
	return len(g.Features)
}

// SignificantDims returns the indices (within Features) of features whose
// bin count is > 1, in group order.
func (g *Group) SignificantDims() []int {
	if g == nil {
		return nil
	}
	dims := make([]int, 0, len(g.Features))
	for i, f := range g.Features {
		if f.Significant() {
			dims = append(dims, i)
		}
	}
	return dims
}

// SignificantCount is len(SignificantDims()).
func (g *Group) SignificantCount() int {
	return len(g.SignificantDims())
}

// TensorBins is the product of significant bin counts; a zero-dim group (no
// significant features) evaluates to 1 (a single constant cell).
func (g *Group) TensorBins() (uint64, error) {
	total := uint64(1)
	for _, i := range g.SignificantDims() {
		bc := g.Features[i].BinCount
		next := total * bc
		if bc != 0 && next/bc != total {
			return 0, fmt.Errorf("feature: tensor bin count overflow for group with %d significant dims", g.SignificantCount())
		}
		total = next
	}
	return total, nil
}

// BitsRequired returns the number of bits needed to represent values in
// [0, maxValue], i.e. ceil(log2(maxValue+1)), with BitsRequired(0) == 1
// (a single bin still needs one bit of storage per the reference packing).
func BitsRequired(maxValue uint64) int {
	if maxValue == 0 {
		return 1
	}
	return bits.Len64(maxValue)
}

// SignificantBinCounts returns the bin counts of the group's significant
// features, in group order — the shape every expanded SegmentedTensor for
// this group must match.
func (g *Group) SignificantBinCounts() []uint64 {
	dims := g.SignificantDims()
	counts := make([]uint64, len(dims))
	for i, d := range dims {
		counts[i] = g.Features[d].BinCount
	}
	return counts
}

// FlattenBinIndices combines one raw bin index per significant dimension
// into a single row-major cell code (dim 0 most significant), the same
// addressing scheme dataset bit-packing and tensor expansion both use so a
// sample's packed code indexes directly into an expanded model tensor.
func FlattenBinIndices(binCounts, binIndices []uint64) (uint64, error) {
	if len(binCounts) != len(binIndices) {
		return 0, fmt.Errorf("feature: binCounts/binIndices length mismatch (%d vs %d)", len(binCounts), len(binIndices))
	}
	code := uint64(0)
	for d := range binCounts {
		if binIndices[d] >= binCounts[d] {
			return 0, fmt.Errorf("feature: bin index %d out of range [0,%d) at dim %d", binIndices[d], binCounts[d], d)
		}
		code = code*binCounts[d] + binIndices[d]
	}
	return code, nil
}

// ItemsPerBitPackedWord is floor(StorageWordBits / BitsRequired(tensorBins-1)).
func (g *Group) ItemsPerBitPackedWord() (int, error) {
	tensorBins, err := g.TensorBins()
	if err != nil {
		return 0, err
	}
	if tensorBins == 0 {
		return 0, fmt.Errorf("feature: zero tensor bins")
	}
	cbits := BitsRequired(tensorBins - 1)
	if cbits == 0 {
		return 0, fmt.Errorf("feature: degenerate bit width")
	}
	return StorageWordBits / cbits, nil
}
