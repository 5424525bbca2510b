package gonumExtensions

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEye(t *testing.T) {
	I := Eye(3, 3)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			want := 0.
			if row == col {
				want = 1.
			}
			if I.At(row, col) != want {
				t.Errorf("Eye(3,3)[%d,%d] = %v, want %v", row, col, I.At(row, col), want)
			}
		}
	}
}

func TestSymmetrize(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 4, 3})
	Symmetrize(a)
	want := mat.NewDense(2, 2, []float64{1, 3, 3, 3})
	if !mat.Equal(a, want) {
		t.Errorf("got\n%v\nwant\n%v", mat.Formatted(a), mat.Formatted(want))
	}
	if !IsSymmetric(a, 0) {
		t.Error("symmetrized matrix reported asymmetric")
	}
}

func TestNANORINF(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if NANORINF(a) {
		t.Error("finite matrix flagged")
	}
	a.Set(1, 0, math.NaN())
	if !NANORINF(a) {
		t.Error("NaN entry not flagged")
	}
	a.Set(1, 0, math.Inf(1))
	if !NANORINF(a) {
		t.Error("Inf entry not flagged")
	}
}
