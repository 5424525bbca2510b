package gonumExtensions

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Eye returns the (m by n) identity matrix.
func Eye(m, n int) mat.Matrix {
	data := make([]float64, int(math.Min(float64(m), float64(n))))
	for entry := range data {
		data[entry] = 1
	}
	return mat.NewDiagonalRect(m, n, data)
}

// Symmetrize overwrites the square matrix a with (a + a^T)/2. It suppresses
// the asymmetry that accumulates from floating-point round-off when a is
// symmetric up to working precision.
func Symmetrize(a *mat.Dense) {
	m, n := a.Dims()
	if m != n {
		panic("gonumExtensions: cannot symmetrize a non-square matrix")
	}
	for row := 0; row < m; row++ {
		for col := row + 1; col < n; col++ {
			v := 0.5 * (a.At(row, col) + a.At(col, row))
			a.Set(row, col, v)
			a.Set(col, row, v)
		}
	}
}

// IsSymmetric reports whether a is square and symmetric to within tol.
func IsSymmetric(a mat.Matrix, tol float64) bool {
	m, n := a.Dims()
	if m != n {
		return false
	}
	for row := 0; row < m; row++ {
		for col := row + 1; col < n; col++ {
			if math.Abs(a.At(row, col)-a.At(col, row)) > tol {
				return false
			}
		}
	}
	return true
}

// NANORINF checks if there are any NaN or Inf entries in matrix.
func NANORINF(matrix mat.Matrix) bool {
	m, n := matrix.Dims()
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if math.IsNaN(matrix.At(row, col)) || math.IsInf(matrix.At(row, col), 0) {
				return true
			}
		}
	}
	return false
}
