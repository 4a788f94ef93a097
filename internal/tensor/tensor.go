// Package tensor implements the segmented tensor: a piecewise-constant
// function over an N-dimensional hyper-rectangle of bins. It stores split
// positions per dimension and a flat, row-major value array. Expanded
// tensors (one segment per bin) back every model the Booster keeps;
// compressed tensors are transient splitter output.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SegmentedTensor is a variable-resolution additive tensor. The zero value
// is not usable; build one with Allocate.
type SegmentedTensor struct {
	maxDims   int
	k         int
	dims      int
	binCounts []uint64
	splits    [][]uint64
	values    []float64
	expanded  bool
}

// Allocate reserves a tensor with capacity for up to maxDims dimensions and
// a K-wide value vector per cell. The initial state has zero dimensions and
// a single zero-valued cell, which is trivially expanded (there is only one
// possible cell until a dimension is added).
func Allocate(maxDims, k int) *SegmentedTensor {
	if k < 1 {
		k = 1
	}
	return &SegmentedTensor{
		maxDims:  maxDims,
		k:        k,
		values:   make([]float64, k),
		expanded: true,
	}
}

// Reset collapses the tensor back to Allocate's initial single-cell state,
// reusing the backing array when it is large enough. This mirrors the
// reference engine's "zero the accumulator" step at the start of each round
// without discarding the allocation.
func (t *SegmentedTensor) Reset() {
	t.dims = 0
	t.binCounts = t.binCounts[:0]
	t.splits = t.splits[:0]
	if cap(t.values) >= t.k {
		t.values = t.values[:t.k]
	} else {
		t.values = make([]float64, t.k)
	}
	for i := range t.values {
		t.values[i] = 0
	}
	t.expanded = true
}

// K returns the vector length (number of stored logits per cell).
func (t *SegmentedTensor) K() int { return t.k }

// Dims returns the number of active dimensions.
func (t *SegmentedTensor) Dims() int { return t.dims }

// Expanded reports whether every segment boundary coincides with a bin
// boundary, i.e. the tensor supports O(1) addressing by raw bin code.
func (t *SegmentedTensor) Expanded() bool { return t.expanded }

// Values returns a copy of the flat, row-major value array.
func (t *SegmentedTensor) Values() []float64 { return append([]float64(nil), t.values...) }

// RawValues returns the underlying value slice without copying. Callers
// must treat it as read-only unless they also own exclusive access to t.
func (t *SegmentedTensor) RawValues() []float64 { return t.values }

// Splits returns a copy of the cut positions along dim.
func (t *SegmentedTensor) Splits(dim int) []uint64 {
	if dim < 0 || dim >= t.dims {
		return nil
	}
	return append([]uint64(nil), t.splits[dim]...)
}

func (t *SegmentedTensor) segmentsPerDim() []uint64 {
	segs := make([]uint64, t.dims)
	for d := 0; d < t.dims; d++ {
		segs[d] = uint64(len(t.splits[d])) + 1
	}
	return segs
}

// ValueAtCell reads the k-th logit of the cell addressed by a flat,
// row-major bin code (as produced by feature.FlattenBinIndices). Only
// valid on an expanded tensor; it is the hot path used when scoring samples.
func (t *SegmentedTensor) ValueAtCell(cellCode uint64, k int) float64 {
	return t.values[cellCode*uint64(t.k)+uint64(k)]
}

// AddAtCell adds delta to the k-th logit of the cell addressed by cellCode.
func (t *SegmentedTensor) AddAtCell(cellCode uint64, k int, delta float64) {
	t.values[cellCode*uint64(t.k)+uint64(k)] += delta
}

func flatIndex(coord, extents []uint64) (uint64, error) {
	idx := uint64(0)
	for d := range extents {
		if coord[d] >= extents[d] {
			return 0, fmt.Errorf("tensor: coordinate %d out of range [0,%d) at dim %d", coord[d], extents[d], d)
		}
		idx = idx*extents[d] + coord[d]
	}
	return idx, nil
}

// GetValue reads the k-th logit of the cell at the given per-dimension
// segment coordinates (len(indices) must equal Dims()).
func (t *SegmentedTensor) GetValue(indices []uint64, k int) (float64, error) {
	if len(indices) != t.dims {
		return 0, fmt.Errorf("tensor: expected %d coordinates, got %d", t.dims, len(indices))
	}
	if k < 0 || k >= t.k {
		return 0, fmt.Errorf("tensor: k=%d out of range [0,%d)", k, t.k)
	}
	idx, err := flatIndex(indices, t.segmentsPerDim())
	if err != nil {
		return 0, err
	}
	return t.values[idx*uint64(t.k)+uint64(k)], nil
}

// SetValue writes the k-th logit of the cell at the given per-dimension
// segment coordinates.
func (t *SegmentedTensor) SetValue(indices []uint64, k int, v float64) error {
	if len(indices) != t.dims {
		return fmt.Errorf("tensor: expected %d coordinates, got %d", t.dims, len(indices))
	}
	if k < 0 || k >= t.k {
		return fmt.Errorf("tensor: k=%d out of range [0,%d)", k, t.k)
	}
	idx, err := flatIndex(indices, t.segmentsPerDim())
	if err != nil {
		return err
	}
	t.values[idx*uint64(t.k)+uint64(k)] = v
	return nil
}

// InitCompressed replaces the tensor's contents with an explicit compressed
// representation: per-dimension bin counts (defining the valid split
// range), per-dimension ascending cut positions, and a flat, row-major,
// K-major value array. Tree growth and random-split generation use this to
// publish their output into thread-local scratch. The result is marked
// expanded only when it has zero dimensions (a single cell); otherwise it
// is compressed splitter output, and expanded tensors are built via Expand.
func (t *SegmentedTensor) InitCompressed(binCounts []uint64, splits [][]uint64, values []float64) error {
	if len(binCounts) != len(splits) {
		return fmt.Errorf("tensor: binCounts/splits length mismatch (%d vs %d)", len(binCounts), len(splits))
	}
	if len(binCounts) > t.maxDims {
		return fmt.Errorf("tensor: dimensionality %d exceeds allocated maxDims %d", len(binCounts), t.maxDims)
	}
	segs := uint64(1)
	for d, cuts := range splits {
		prev := uint64(0)
		for i, c := range cuts {
			if c < 1 || c >= binCounts[d] {
				return fmt.Errorf("tensor: split position %d out of range [1,%d) at dim %d", c, binCounts[d], d)
			}
			if i > 0 && c <= prev {
				return fmt.Errorf("tensor: split positions at dim %d must be strictly ascending", d)
			}
			prev = c
		}
		next := segs * (uint64(len(cuts)) + 1)
		segs = next
	}
	want := segs * uint64(t.k)
	if uint64(len(values)) != want {
		return fmt.Errorf("tensor: value length %d does not match expected %d", len(values), want)
	}

	t.dims = len(binCounts)
	t.binCounts = append(t.binCounts[:0], binCounts...)
	t.splits = t.splits[:0]
	for _, cuts := range splits {
		t.splits = append(t.splits, append([]uint64(nil), cuts...))
	}
	t.values = append(t.values[:0], values...)
	t.expanded = t.dims == 0
	return nil
}

// segmentIndexForBin returns the segment that bin belongs to, given
// ascending cut positions: the number of cuts <= bin.
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

// Expand inflates the tensor to one segment per bin along each of
// targetBinCounts, broadcasting each existing (possibly coarser) cell's
// values across every bin it covers. targetBinCounts must either match the
// tensor's current per-dimension bin counts (when Dims() > 0) or describe a
// tensor with more dimensions than the current zero-dimension placeholder,
// in which case the single existing cell is broadcast to every new cell.
func (t *SegmentedTensor) Expand(targetBinCounts []uint64) error {
	newDims := len(targetBinCounts)
	if newDims > t.maxDims {
		return fmt.Errorf("tensor: target dimensionality %d exceeds allocated maxDims %d", newDims, t.maxDims)
	}
	if t.dims != 0 && t.dims != newDims {
		return fmt.Errorf("tensor: cannot expand a %d-dim tensor to %d target dimensions", t.dims, newDims)
	}
	if t.dims != 0 {
		for d := range targetBinCounts {
			if t.binCounts[d] != targetBinCounts[d] {
				return fmt.Errorf("tensor: target bin count %d at dim %d does not match current %d", targetBinCounts[d], d, t.binCounts[d])
			}
		}
	}

	oldDims := t.dims
	oldSegs := t.segmentsPerDim()
	oldValues := t.values

	newSegs := append([]uint64(nil), targetBinCounts...)
	totalNewCells := uint64(1)
	for _, s := range newSegs {
		next := totalNewCells * s
		if s != 0 && next/s != totalNewCells {
			return fmt.Errorf("tensor: expanded cell count overflows")
		}
		totalNewCells = next
	}
	totalValues := totalNewCells * uint64(t.k)
	if totalValues/uint64(t.k) != totalNewCells {
		return fmt.Errorf("tensor: expanded value count overflows")
	}

	newValues := make([]float64, totalValues)
	coord := make([]uint64, newDims)
	oldCoord := make([]uint64, oldDims)
	cellsRemaining := totalNewCells
	for cellsRemaining > 0 {
		for d := 0; d < oldDims; d++ {
			oldCoord[d] = segmentIndexForBin(t.splits[d], coord[d])
		}
		oldFlat, err := flatIndex(oldCoord, oldSegs)
		if err != nil {
			return err
		}
		newFlat, err := flatIndex(coord, newSegs)
		if err != nil {
			return err
		}
		copy(newValues[newFlat*uint64(t.k):(newFlat+1)*uint64(t.k)], oldValues[oldFlat*uint64(t.k):(oldFlat+1)*uint64(t.k)])

		cellsRemaining--
		for d := newDims - 1; d >= 0; d-- {
			coord[d]++
			if coord[d] < newSegs[d] {
				break
			}
			coord[d] = 0
		}
	}

	t.dims = newDims
	t.binCounts = append([]uint64(nil), targetBinCounts...)
	t.splits = make([][]uint64, newDims)
	for d := 0; d < newDims; d++ {
		cuts := make([]uint64, 0, targetBinCounts[d])
		for b := uint64(1); b < targetBinCounts[d]; b++ {
			cuts = append(cuts, b)
		}
		t.splits[d] = cuts
	}
	t.values = newValues
	t.expanded = true
	return nil
}

// AddScaledInto adds scale*t into dst, element-wise. Both tensors must be
// expanded with identical shape (this is the operation generate_update uses
// to accumulate each bag's overwrite tensor, scaled by 1/numBags, and the
// one apply_update uses to fold an update into the current model).
func (t *SegmentedTensor) AddScaledInto(dst *SegmentedTensor, scale float64) error {
	if !t.expanded || !dst.expanded {
		return fmt.Errorf("tensor: AddScaledInto requires both tensors to be expanded")
	}
	if t.dims != dst.dims || t.k != dst.k {
		return fmt.Errorf("tensor: shape mismatch (dims %d vs %d, k %d vs %d)", t.dims, dst.dims, t.k, dst.k)
	}
	for d := 0; d < t.dims; d++ {
		if t.binCounts[d] != dst.binCounts[d] {
			return fmt.Errorf("tensor: bin count mismatch at dim %d (%d vs %d)", d, t.binCounts[d], dst.binCounts[d])
		}
	}
	if len(t.values) != len(dst.values) {
		return fmt.Errorf("tensor: value length mismatch (%d vs %d)", len(t.values), len(dst.values))
	}
	if scale == 1 {
		floats.Add(dst.values, t.values)
		return nil
	}
	scratch := make([]float64, len(t.values))
	copy(scratch, t.values)
	floats.Scale(scale, scratch)
	floats.Add(dst.values, scratch)
	return nil
}

// AddExpandedInto adds t into dst unscaled; see AddScaledInto.
func (t *SegmentedTensor) AddExpandedInto(dst *SegmentedTensor) error {
	return t.AddScaledInto(dst, 1.0)
}

// CopyFrom replaces t's contents with a deep copy of src.
func (t *SegmentedTensor) CopyFrom(src *SegmentedTensor) {
	t.maxDims = src.maxDims
	t.k = src.k
	t.dims = src.dims
	t.binCounts = append(t.binCounts[:0], src.binCounts...)
	t.splits = make([][]uint64, len(src.splits))
	for i, cuts := range src.splits {
		t.splits[i] = append([]uint64(nil), cuts...)
	}
	t.values = append(t.values[:0], src.values...)
	t.expanded = src.expanded
}

// Clone returns a deep copy of t.
func (t *SegmentedTensor) Clone() *SegmentedTensor {
	cp := Allocate(t.maxDims, t.k)
	cp.CopyFrom(t)
	return cp
}
