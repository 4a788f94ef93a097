package histogram

import (
	"testing"

	"github.com/ebmcore/boosting/internal/dataset"
	"github.com/ebmcore/boosting/internal/feature"
)

func mustDataset(t *testing.T) (*dataset.Dataset, int) {
	t.Helper()
	g, err := feature.NewGroup([]feature.Feature{feature.New(3, false, 0)})
	if err != nil {
		t.Fatal(err)
	}
	ds, err := dataset.New([]*feature.Group{g}, 1, dataset.Raw{
		BinIndices: [][][]uint64{{{0}, {1}, {1}, {2}}},
		Targets:    []float64{10, 20, 30, 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	copy(ds.Residuals(), []float64{10, 20, 30, 40})
	return ds, 0
}

func TestBuildAccumulatesPerCell(t *testing.T) {
	ds, g := mustDataset(t)
	hess := []float64{1, 1, 1, 1}
	bag := []uint64{1, 1, 1, 1}

	h := New(3, 1)
	Build(h, ds, g, bag, hess)

	if h.SumResidual[0] != 10 {
		t.Fatalf("cell 0 sumRes = %v, want 10", h.SumResidual[0])
	}
	if h.SumResidual[1] != 50 {
		t.Fatalf("cell 1 sumRes = %v, want 50 (20+30)", h.SumResidual[1])
	}
	if h.SumResidual[2] != 40 {
		t.Fatalf("cell 2 sumRes = %v, want 40", h.SumResidual[2])
	}
	if h.Count[1] != 2 {
		t.Fatalf("cell 1 count = %d, want 2", h.Count[1])
	}
}

func TestBuildRespectsBagWeights(t *testing.T) {
	ds, g := mustDataset(t)
	hess := []float64{1, 1, 1, 1}
	bag := []uint64{0, 3, 0, 0}

	h := New(3, 1)
	Build(h, ds, g, bag, hess)

	if h.SumResidual[1] != 60 {
		t.Fatalf("cell 1 sumRes = %v, want 60 (3x weight on sample 1)", h.SumResidual[1])
	}
	if h.Count[0] != 0 || h.Count[2] != 0 {
		t.Fatalf("zero-weight cells should have zero count")
	}
}

func TestBuildIsIdempotentAcrossReuse(t *testing.T) {
	ds, g := mustDataset(t)
	hess := []float64{1, 1, 1, 1}
	bag := []uint64{1, 1, 1, 1}

	h := New(3, 1)
	Build(h, ds, g, bag, hess)
	Build(h, ds, g, bag, hess)

	if h.SumResidual[1] != 50 {
		t.Fatalf("rebuild should reset, got sumRes = %v, want 50", h.SumResidual[1])
	}
}
