package lyapunov

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/lapack"
	lapackimpl "gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"
)

// ErrSchurNotConverged is returned when the QR iteration fails to reduce the
// matrix to Schur form.
var ErrSchurNotConverged = errors.New("lyapunov: QR iteration did not converge")

// complexSchur computes the complex Schur decomposition a = U T U^H of a real
// square matrix, with T upper triangular and U unitary.
//
// The matrix is first reduced to real Schur form with Hessenberg reduction
// followed by the shifted QR iteration (Dgehrd, Dorghr, Dhseqr). The real
// quasi-triangular factor is then rotated into complex triangular form by
// eliminating each 2x2 diagonal block with a unitary plane rotation.
func complexSchur(a *mat.Dense) (t, u *mat.CDense, err error) {
	n, nc := a.Dims()
	if n != nc {
		panic(errors.New("lyapunov: Schur decomposition of a non-square matrix"))
	}

	h := make([]float64, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			h[row*n+col] = a.At(row, col)
		}
	}
	tau := make([]float64, max(n-1, 0))
	wr := make([]float64, n)
	wi := make([]float64, n)

	impl := lapackimpl.Implementation{}

	// Workspace queries for the three stages; one buffer sized to the largest.
	query := make([]float64, 1)
	impl.Dgehrd(n, 0, n-1, h, n, tau, query, -1)
	lwork := int(query[0])
	impl.Dorghr(n, 0, n-1, h, n, tau, query, -1)
	if int(query[0]) > lwork {
		lwork = int(query[0])
	}
	if lwork < n {
		lwork = n
	}
	work := make([]float64, lwork)

	impl.Dgehrd(n, 0, n-1, h, n, tau, work, lwork)
	q := make([]float64, n*n)
	copy(q, h)
	impl.Dorghr(n, 0, n-1, q, n, tau, work, lwork)

	// Dhseqr reads only the Hessenberg part; clear the reflector storage.
	for row := 2; row < n; row++ {
		for col := 0; col < row-1; col++ {
			h[row*n+col] = 0
		}
	}
	unconverged := impl.Dhseqr(lapack.EigenvaluesAndSchur, lapack.SchurOrig,
		n, 0, n-1, h, n, wr, wi, q, n, work, lwork)
	if unconverged > 0 {
		return nil, nil, ErrSchurNotConverged
	}

	td := make([]complex128, n*n)
	ud := make([]complex128, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			td[row*n+col] = complex(h[row*n+col], 0)
			ud[row*n+col] = complex(q[row*n+col], 0)
		}
	}
	rsf2csf(n, td, ud)
	return mat.NewCDense(n, n, td), mat.NewCDense(n, n, ud), nil
}

// rsf2csf rotates a real Schur factorization (t quasi-triangular, u
// orthogonal) into a complex one, zeroing the subdiagonal entry of every 2x2
// block with a unitary rotation applied to both factors. Both arguments are
// row-major n by n and updated in place.
func rsf2csf(n int, t, u []complex128) {
	for m := n - 1; m >= 1; m-- {
		if t[m*n+m-1] != 0 {
			k := m - 1
			// The 2x2 block has a complex conjugate eigenvalue pair; mu is
			// the first eigenvalue shifted by the lower-right block entry.
			a := real(t[k*n+k])
			b := real(t[k*n+m])
			c := real(t[m*n+k])
			d := real(t[m*n+m])
			p := 0.5 * (a - d)
			disc := p*p + b*c
			mu := complex(p, math.Sqrt(-disc))
			r := math.Hypot(cmplx.Abs(mu), real(t[m*n+k]))
			cs := mu / complex(r, 0)
			sn := t[m*n+k] / complex(r, 0)

			// Rows k and m of t, from column k rightwards.
			for col := k; col < n; col++ {
				x := t[k*n+col]
				y := t[m*n+col]
				t[k*n+col] = cmplx.Conj(cs)*x + sn*y
				t[m*n+col] = -sn*x + cs*y
			}
			// Columns k and m of t, down to row m, and of u everywhere.
			for row := 0; row <= m; row++ {
				x := t[row*n+k]
				y := t[row*n+m]
				t[row*n+k] = x*cs + y*sn
				t[row*n+m] = -x*sn + y*cmplx.Conj(cs)
			}
			for row := 0; row < n; row++ {
				x := u[row*n+k]
				y := u[row*n+m]
				u[row*n+k] = x*cs + y*sn
				u[row*n+m] = -x*sn + y*cmplx.Conj(cs)
			}
		}
		t[m*n+m-1] = 0
	}
}
