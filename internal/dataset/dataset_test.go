package dataset

import (
	"testing"

	"github.com/ebmcore/boosting/internal/feature"
)

func mustGroup(t *testing.T, features ...feature.Feature) *feature.Group {
	t.Helper()
	g, err := feature.NewGroup(features)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewPacksAndDecodesCellCodes(t *testing.T) {
	g := mustGroup(t, feature.New(4, false, 0), feature.New(3, false, 1))
	groups := []*feature.Group{g}

	bins := [][][]uint64{
		{{0, 0}, {1, 2}, {3, 1}, {2, 0}},
	}

	ds, err := New(groups, 1, Raw{BinIndices: bins, Targets: []float64{0, 0, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}

	want := []uint64{0, 1*3 + 2, 3*3 + 1, 2*3 + 0}
	for i, w := range want {
		if got := ds.CellCode(0, i); got != w {
			t.Fatalf("CellCode(0,%d) = %d, want %d", i, got, w)
		}
	}
}

func TestNewZeroDimGroupAlwaysCellZero(t *testing.T) {
	g := mustGroup(t, feature.New(1, false, 0))
	ds, err := New([]*feature.Group{g}, 1, Raw{
		BinIndices: [][][]uint64{{{0}, {0}, {0}}},
		Targets:    []float64{1, 2, 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if got := ds.CellCode(0, i); got != 0 {
			t.Fatalf("CellCode(0,%d) = %d, want 0", i, got)
		}
	}
}

func TestNewRejectsMismatchedRowCount(t *testing.T) {
	g := mustGroup(t, feature.New(2, false, 0))
	_, err := New([]*feature.Group{g}, 1, Raw{
		BinIndices: [][][]uint64{{{0}}},
		Targets:    []float64{0, 0},
	})
	if err == nil {
		t.Fatalf("expected error: BinIndices row count does not match targets length")
	}
}

func TestNewZeroSamplesWithZeroBinsIsLegal(t *testing.T) {
	g := mustGroup(t, feature.New(0, false, 0))
	ds, err := New([]*feature.Group{g}, 1, Raw{
		BinIndices: [][][]uint64{{}},
		Targets:    nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ds.N() != 0 {
		t.Fatalf("N() = %d, want 0", ds.N())
	}
}

func TestInitialScoresCopiedNotAliased(t *testing.T) {
	g := mustGroup(t, feature.New(2, false, 0))
	initial := []float64{5, 6}
	ds, err := New([]*feature.Group{g}, 1, Raw{
		BinIndices:    [][][]uint64{{{0}, {1}}},
		Targets:       []float64{0, 0},
		InitialScores: initial,
	})
	if err != nil {
		t.Fatal(err)
	}
	initial[0] = 999
	if ds.Scores()[0] != 5 {
		t.Fatalf("Scores() aliases caller's InitialScores slice")
	}
}
