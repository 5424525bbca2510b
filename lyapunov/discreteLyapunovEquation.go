package lyapunov

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/xiaohaomao/dsge/gonumExtensions"
	"gonum.org/v1/gonum/mat"
)

// ErrNoUniqueSolution is returned when the spectrum of the transformed
// equation violates, or nearly violates, the existence condition
// lambda_i + mu_j != 0.
var ErrNoUniqueSolution = errors.New("lyapunov: equation has no unique solution")

const machEps = 0x1p-52

// Reject a pair of Schur diagonal entries whose sum is zero or within
// 1000 ulps of cancelling.
const spectralTol = 1000 * machEps

// SolveDiscrete solves the discrete Lyapunov equation
//
//	A X A^T - X + Q = 0
//
// for X, given square A and Q of equal size. The equation is converted to its
// continuous-time counterpart with the Cayley transform and solved by
// Bartels-Stewart back-substitution over the complex Schur forms of both
// factors. Since the inputs are real, the imaginary residual of the
// reconstruction is discarded after checking that it is negligible, and the
// result is symmetrized whenever Q is symmetric.
func SolveDiscrete(A, Q mat.Matrix) (*mat.Dense, error) {
	ma, na := A.Dims()
	mq, nq := Q.Dims()
	if ma != na || mq != nq || ma != mq {
		panic(errors.New("lyapunov: A and Q must be square matrices of equal size"))
	}
	n := ma
	if n == 0 {
		return &mat.Dense{}, nil
	}

	// Cayley transform: Ac = (A+I)^{-1} (A-I), Cc = (I-Ac) Q (I-Ac^T)/2.
	// X then solves the continuous equation Ac X + X Ac^T + Cc = 0.
	I := gonumExtensions.Eye(n, n)
	var aPlusI, aMinusI, ac mat.Dense
	aPlusI.Add(A, I)
	aMinusI.Sub(A, I)
	if err := ac.Solve(&aPlusI, &aMinusI); err != nil {
		// A has a unit-modulus eigenvalue at -1, so lambda_i*lambda_j = 1 is
		// attainable and the discrete equation is singular.
		return nil, fmt.Errorf("%w: %v", ErrNoUniqueSolution, err)
	}
	var iMinusAc, cc, tmp mat.Dense
	iMinusAc.Sub(I, &ac)
	tmp.Mul(&iMinusAc, Q)
	cc.Mul(&tmp, iMinusAc.T())
	cc.Scale(0.5, &cc)

	ta, ua, err := complexSchur(&ac)
	if err != nil {
		return nil, err
	}
	// The Schur form of Ac^T follows from Ac's: reverse the order of Ua's
	// columns and conjugate-transpose the reversed triangular factor.
	ub := reverseColumns(ua)
	tb := reverseConjTranspose(ta)

	for i := 0; i < n; i++ {
		lambda := ta.At(i, i)
		for j := 0; j < n; j++ {
			mu := tb.At(j, j)
			scale := cmplx.Abs(lambda) + cmplx.Abs(mu)
			if scale == 0 || cmplx.Abs(lambda+mu) < spectralTol*scale {
				return nil, ErrNoUniqueSolution
			}
		}
	}

	// Transform the right-hand side: Ucu = -Ua^H Cc Ub.
	ccC := realToComplex(&cc)
	ucu := cMul(cMul(ua.H(), ccC), ub)

	// Ta Y + Y Tb = Ucu with both factors upper triangular: column k of Y
	// depends on the previously solved columns through Tb, and on its own
	// lower entries through Ta, so solve left to right, bottom up.
	y := mat.NewCDense(n, n, nil)
	rhs := make([]complex128, n)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			v := -ucu.At(i, k)
			for j := 0; j < k; j++ {
				v -= y.At(i, j) * tb.At(j, k)
			}
			rhs[i] = v
		}
		for i := n - 1; i >= 0; i-- {
			v := rhs[i]
			for l := i + 1; l < n; l++ {
				v -= ta.At(i, l) * y.At(l, k)
			}
			y.Set(i, k, v/(ta.At(i, i)+tb.At(k, k)))
		}
	}

	// Reconstruct X = Ua Y Ub^H and project onto the reals.
	xc := cMul(cMul(ua, y), ub.H())

	x := mat.NewDense(n, n, nil)
	var maxImag, maxReal float64
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := xc.At(row, col)
			x.Set(row, col, real(v))
			if im := imag(v); im > maxImag {
				maxImag = im
			} else if -im > maxImag {
				maxImag = -im
			}
			if re := real(v); re > maxReal {
				maxReal = re
			} else if -re > maxReal {
				maxReal = -re
			}
		}
	}
	if maxImag > 1e-8*(1+maxReal) {
		return nil, fmt.Errorf("lyapunov: imaginary residual %g too large for a real solution", maxImag)
	}
	if gonumExtensions.IsSymmetric(Q, 1e-12*(1+maxAbs(Q))) {
		gonumExtensions.Symmetrize(x)
	}
	return x, nil
}

// cMul returns the product a*b. The mat complex types carry no arithmetic,
// so the triple products over the Schur factors are formed entry by entry;
// the matrices involved are small enough that a naive loop suffices.
func cMul(a, b mat.CMatrix) *mat.CDense {
	m, k := a.Dims()
	kb, n := b.Dims()
	if k != kb {
		panic(errors.New("lyapunov: dimension mismatch in complex product"))
	}
	out := mat.NewCDense(m, n, nil)
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			var sum complex128
			for l := 0; l < k; l++ {
				sum += a.At(row, l) * b.At(l, col)
			}
			out.Set(row, col, sum)
		}
	}
	return out
}

// reverseColumns returns u with its column order reversed.
func reverseColumns(u *mat.CDense) *mat.CDense {
	n, _ := u.Dims()
	out := mat.NewCDense(n, n, nil)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			out.Set(row, col, u.At(row, n-1-col))
		}
	}
	return out
}

// reverseConjTranspose returns J T^H J, the conjugate transpose of t with
// both index orders reversed. For upper triangular t the result is again
// upper triangular.
func reverseConjTranspose(t *mat.CDense) *mat.CDense {
	n, _ := t.Dims()
	out := mat.NewCDense(n, n, nil)
	for row := 0; row < n; row++ {
		for col := row; col < n; col++ {
			out.Set(row, col, cmplx.Conj(t.At(n-1-col, n-1-row)))
		}
	}
	return out
}

func realToComplex(a *mat.Dense) *mat.CDense {
	m, n := a.Dims()
	out := mat.NewCDense(m, n, nil)
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			out.Set(row, col, complex(a.At(row, col), 0))
		}
	}
	return out
}

func maxAbs(a mat.Matrix) float64 {
	m, n := a.Dims()
	var out float64
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if v := a.At(row, col); v > out {
				out = v
			} else if -v > out {
				out = -v
			}
		}
	}
	return out
}
