package tensor

import "testing"

func TestAllocateInitialState(t *testing.T) {
	tn := Allocate(4, 2)
	if tn.Dims() != 0 {
		t.Fatalf("Dims() = %d, want 0", tn.Dims())
	}
	if !tn.Expanded() {
		t.Fatalf("a freshly allocated tensor must be expanded")
	}
	if len(tn.Values()) != 2 {
		t.Fatalf("Values() len = %d, want 2", len(tn.Values()))
	}
}

func TestExpandZeroDimBroadcastsSingleCell(t *testing.T) {
	tn := Allocate(4, 1)
	if err := tn.SetValue(nil, 0, 7); err != nil {
		t.Fatal(err)
	}
	if err := tn.Expand([]uint64{3}); err != nil {
		t.Fatal(err)
	}
	if tn.Dims() != 1 {
		t.Fatalf("Dims() = %d, want 1", tn.Dims())
	}
	for bin := uint64(0); bin < 3; bin++ {
		v, err := tn.GetValue([]uint64{bin}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if v != 7 {
			t.Fatalf("bin %d = %v, want 7 (broadcast)", bin, v)
		}
	}
}

func TestInitCompressedThenExpand(t *testing.T) {
	tn := Allocate(4, 1)
	// One dim with 6 bins, a single cut at bin 3: segment 0 covers bins
	// [0,3), segment 1 covers bins [3,6).
	if err := tn.InitCompressed([]uint64{6}, [][]uint64{{3}}, []float64{-1, 2}); err != nil {
		t.Fatal(err)
	}
	if tn.Expanded() {
		t.Fatalf("a freshly-built compressed tensor must not report expanded")
	}
	if err := tn.Expand([]uint64{6}); err != nil {
		t.Fatal(err)
	}
	want := []float64{-1, -1, -1, 2, 2, 2}
	for bin := uint64(0); bin < 6; bin++ {
		v, err := tn.GetValue([]uint64{bin}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if v != want[bin] {
			t.Fatalf("bin %d = %v, want %v", bin, v, want[bin])
		}
	}
}

func TestExpandRejectsDimensionalityMismatch(t *testing.T) {
	tn := Allocate(4, 1)
	if err := tn.InitCompressed([]uint64{4}, [][]uint64{{2}}, []float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := tn.Expand([]uint64{4, 2}); err == nil {
		t.Fatalf("expected error expanding a 1-dim tensor to 2 target dims")
	}
}

func TestAddScaledIntoRequiresExpandedMatchingShape(t *testing.T) {
	a := Allocate(4, 1)
	b := Allocate(4, 1)
	if err := a.Expand([]uint64{3}); err != nil {
		t.Fatal(err)
	}
	if err := a.AddScaledInto(b, 1.0); err == nil {
		t.Fatalf("expected shape mismatch error (dims 1 vs 0)")
	}

	c := Allocate(4, 1)
	if err := c.Expand([]uint64{3}); err != nil {
		t.Fatal(err)
	}
	if err := a.SetValue([]uint64{0}, 0, 5); err != nil {
		t.Fatal(err)
	}
	if err := a.AddScaledInto(c, 0.5); err != nil {
		t.Fatal(err)
	}
	v, err := c.GetValue([]uint64{0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2.5 {
		t.Fatalf("c[0] = %v, want 2.5", v)
	}
}

func TestValueAtCellMatchesMixedRadixIndexing(t *testing.T) {
	tn := Allocate(4, 2)
	if err := tn.InitCompressed([]uint64{2, 3}, [][]uint64{{}, {}}, make([]float64, 1*2)); err != nil {
		t.Fatal(err)
	}
	if err := tn.Expand([]uint64{2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := tn.SetValue([]uint64{1, 2}, 1, 9); err != nil {
		t.Fatal(err)
	}
	// Row-major, dim0 most significant: flat cell = 1*3+2 = 5.
	if got := tn.ValueAtCell(5, 1); got != 9 {
		t.Fatalf("ValueAtCell(5,1) = %v, want 9", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := Allocate(4, 1)
	if err := a.Expand([]uint64{2}); err != nil {
		t.Fatal(err)
	}
	if err := a.SetValue([]uint64{0}, 0, 1); err != nil {
		t.Fatal(err)
	}
	b := a.Clone()
	if err := b.SetValue([]uint64{0}, 0, 99); err != nil {
		t.Fatal(err)
	}
	v, _ := a.GetValue([]uint64{0}, 0)
	if v != 1 {
		t.Fatalf("mutating clone affected original: a[0] = %v", v)
	}
}
