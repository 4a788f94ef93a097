// Package dataset holds the bit-packed per-feature-group sample matrix,
// targets, and current predictor state (scores, residuals) for a training
// or validation set. Buffers are allocated once at construction; scores and
// residuals are mutated in place every round, binned data never changes.
package dataset

import (
	"fmt"

	"github.com/ebmcore/boosting/internal/feature"
)

// Dataset is a training or validation sample matrix. K is the vector
// length (1 for regression/binary, number of classes for multiclass).
type Dataset struct {
	groups []*feature.Group

	n int
	k int

	targets   []float64
	scores    []float64
	residuals []float64

	binned       [][]uint64
	itemsPerWord []int
	bitsPerItem  []int
	tensorBins   []uint64
}

// Raw is the caller-supplied input to New: one row per sample of raw
// (unpacked) bin indices per feature-group dimension, flattened in group
// order, plus targets and initial predictor scores.
type Raw struct {
	// BinIndices[g][i] is the per-dimension raw bin index for sample i in
	// feature-group g, i.e. len(BinIndices[g][i]) == groups[g].Dimensionality().
	BinIndices [][][]uint64
	Targets    []float64
	// InitialScores is N*K, row-major; nil means start at all zeros.
	InitialScores []float64
}

// New allocates and bit-packs a Dataset. Residuals are left zeroed; callers
// fill them via the loss model's InitializeResiduals once K and learning
// type are known (the booster constructors do this; this package does not
// import the loss model).
func New(groups []*feature.Group, k int, raw Raw) (*Dataset, error) {
	n := len(raw.Targets)
	if k < 1 {
		return nil, fmt.Errorf("dataset: k must be >= 1, got %d", k)
	}
	if len(raw.BinIndices) != len(groups) {
		return nil, fmt.Errorf("dataset: BinIndices has %d groups, want %d", len(raw.BinIndices), len(groups))
	}
	if raw.InitialScores != nil && len(raw.InitialScores) != n*k {
		return nil, fmt.Errorf("dataset: InitialScores length %d, want %d", len(raw.InitialScores), n*k)
	}

	ds := &Dataset{
		groups:       groups,
		n:            n,
		k:            k,
		targets:      append([]float64(nil), raw.Targets...),
		scores:       make([]float64, n*k),
		residuals:    make([]float64, n*k),
		binned:       make([][]uint64, len(groups)),
		itemsPerWord: make([]int, len(groups)),
		bitsPerItem:  make([]int, len(groups)),
		tensorBins:   make([]uint64, len(groups)),
	}
	if raw.InitialScores != nil {
		copy(ds.scores, raw.InitialScores)
	}

	for g, group := range groups {
		tensorBins, err := group.TensorBins()
		if err != nil {
			return nil, fmt.Errorf("dataset: group %d: %w", g, err)
		}
		ds.tensorBins[g] = tensorBins

		if n != 0 && tensorBins == 0 {
			return nil, fmt.Errorf("dataset: group %d has zero tensor bins with %d samples", g, n)
		}

		bitsPerItem := feature.BitsRequired(subtractOne(tensorBins))
		ds.bitsPerItem[g] = bitsPerItem
		itemsPerWord := feature.StorageWordBits / bitsPerItem
		ds.itemsPerWord[g] = itemsPerWord

		rows := len(raw.BinIndices[g])
		if rows != n {
			return nil, fmt.Errorf("dataset: group %d has %d rows, want %d", g, rows, n)
		}

		nWords := 0
		if n != 0 {
			nWords = (n + itemsPerWord - 1) / itemsPerWord
		}
		words := make([]uint64, nWords)
		binCounts := group.SignificantBinCounts()
		for i := 0; i < n; i++ {
			code, err := feature.FlattenBinIndices(binCounts, significantOnly(group, raw.BinIndices[g][i]))
			if err != nil {
				return nil, fmt.Errorf("dataset: group %d sample %d: %w", g, i, err)
			}
			wordIdx := i / itemsPerWord
			slot := i % itemsPerWord
			shift := uint((itemsPerWord - 1 - slot) * bitsPerItem)
			words[wordIdx] |= code << shift
		}
		ds.binned[g] = words
	}

	return ds, nil
}

func subtractOne(v uint64) uint64 {
	if v == 0 {
		return 0
	}
	return v - 1
}

// significantOnly filters a group's per-dimension raw bin indices down to
// the significant (bin_count > 1) dimensions, in group order.
func significantOnly(group *feature.Group, binIndices []uint64) []uint64 {
	dims := group.SignificantDims()
	out := make([]uint64, len(dims))
	for i, d := range dims {
		out[i] = binIndices[d]
	}
	return out
}

// N is the sample count.
func (d *Dataset) N() int { return d.n }

// K is the vector length.
func (d *Dataset) K() int { return d.k }

// Targets returns the raw target slice (class index as a float for
// classification, continuous value for regression).
func (d *Dataset) Targets() []float64 { return d.targets }

// Scores returns the live N*K row-major predictor score buffer. Callers may
// mutate it in place; it is never reallocated after construction.
func (d *Dataset) Scores() []float64 { return d.scores }

// Residuals returns the live N*K row-major residual buffer.
func (d *Dataset) Residuals() []float64 { return d.residuals }

// CellCode decodes sample i's bit-packed tensor cell within feature-group g.
func (d *Dataset) CellCode(g, i int) uint64 {
	itemsPerWord := d.itemsPerWord[g]
	bitsPerItem := d.bitsPerItem[g]
	wordIdx := i / itemsPerWord
	slot := i % itemsPerWord
	shift := uint((itemsPerWord - 1 - slot) * bitsPerItem)
	mask := uint64(1)<<uint(bitsPerItem) - 1
	return (d.binned[g][wordIdx] >> shift) & mask
}

// TensorBins is the number of distinct cells in feature-group g.
func (d *Dataset) TensorBins(g int) uint64 { return d.tensorBins[g] }

// Groups returns the feature-group metadata the dataset was built against.
func (d *Dataset) Groups() []*feature.Group { return d.groups }
