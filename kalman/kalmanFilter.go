// Package kalman runs the filtering recursion over one regime's observations
// and accumulates the Gaussian log-likelihood.
package kalman

import (
	"errors"
	"math"

	"github.com/xiaohaomao/dsge/gonumExtensions"
	"github.com/xiaohaomao/dsge/lyapunov"
	"github.com/xiaohaomao/dsge/statespace"
	"gonum.org/v1/gonum/mat"
)

// ErrNonPositiveInnovation is returned when the innovation covariance of an
// update step is not positive definite.
var ErrNonPositiveInnovation = errors.New("kalman: innovation covariance not positive definite")

const log2Pi = 1.8378770664093453

// Filter runs the Kalman recursion over the regime's observations, starting
// from (initMean, initCov), and stores the accumulated log-likelihood and the
// ending state mean and covariance on the regime bundle.
//
// Each period the state is propagated through the transition equation and,
// when observations are present, updated against the measurement equation.
// The state and measurement noises are correlated through the shocks; the
// blocks of VAll carry the joint covariance. Observation entries that are NaN
// are treated as not available: they contribute nothing to the update or the
// likelihood, while the prediction step still advances.
func Filter(regime *statespace.Regime, initMean *mat.VecDense, initCov *mat.Dense) error {
	nS := regime.NStates
	nYFull := regime.NObservables
	if initMean.Len() != nS {
		panic(errors.New("kalman: initial mean doesn't match the regime's state dimension"))
	}
	if r, c := initCov.Dims(); r != nS || c != nS {
		panic(errors.New("kalman: initial covariance doesn't match the regime's state dimension"))
	}

	trans := regime.Transition
	meas := regime.Measurement
	vAll := meas.VAll
	vSS := vAll.Slice(0, nS, 0, nS)
	vSM := vAll.Slice(0, nS, nS, nS+nYFull)
	vMM := vAll.Slice(nS, nS+nYFull, nS, nS+nYFull)

	var (
		s mat.VecDense
		p mat.Dense
	)
	s.CloneFromVec(initMean)
	p.CloneFrom(initCov)

	var logLik float64
	rows, _ := regime.Data.Dims()
	for t := 0; t < rows; t++ {
		// Predict: s = C + T s, P = T P T^T + R QShock R^T.
		var sPred mat.VecDense
		sPred.MulVec(trans.T, &s)
		sPred.AddVec(&sPred, trans.C)
		var pPred, tp mat.Dense
		tp.Mul(trans.T, &p)
		pPred.Mul(&tp, trans.T.T())
		pPred.Add(&pPred, vSS)
		gonumExtensions.Symmetrize(&pPred)

		present := presentEntries(regime.Data.RawRowView(t))
		if len(present) == 0 {
			s.CloneFromVec(&sPred)
			p.CloneFrom(&pPred)
			continue
		}
		nY := len(present)

		// Mask the measurement equation down to the available entries.
		z := mat.NewDense(nY, nS, nil)
		d := mat.NewVecDense(nY, nil)
		y := mat.NewVecDense(nY, nil)
		vsm := mat.NewDense(nS, nY, nil)
		vmm := mat.NewDense(nY, nY, nil)
		for i, oi := range present {
			y.SetVec(i, regime.Data.At(t, oi))
			d.SetVec(i, meas.D.AtVec(oi))
			for col := 0; col < nS; col++ {
				z.Set(i, col, meas.Z.At(oi, col))
				vsm.Set(col, i, vSM.At(col, oi))
			}
			for j, oj := range present {
				vmm.Set(i, j, vMM.At(oi, oj))
			}
		}

		// Innovation nu = y - Z s - D and its covariance
		// F = Z P Z^T + Z Vsm + Vsm^T Z^T + Vmm.
		var nu mat.VecDense
		nu.MulVec(z, &sPred)
		nu.AddVec(&nu, d)
		nu.SubVec(y, &nu)

		var pz, zpz, zv mat.Dense
		pz.Mul(&pPred, z.T())
		zpz.Mul(z, &pz)
		zv.Mul(z, vsm)
		f := mat.NewDense(nY, nY, nil)
		f.Add(&zpz, &zv)
		f.Add(f, zv.T())
		f.Add(f, vmm)
		gonumExtensions.Symmetrize(f)

		fSym := mat.NewSymDense(nY, nil)
		for i := 0; i < nY; i++ {
			for j := i; j < nY; j++ {
				fSym.SetSym(i, j, f.At(i, j))
			}
		}
		var chol mat.Cholesky
		if !chol.Factorize(fSym) {
			return ErrNonPositiveInnovation
		}

		var fInvNu mat.VecDense
		if err := chol.SolveVecTo(&fInvNu, &nu); err != nil {
			return ErrNonPositiveInnovation
		}
		logLik -= 0.5 * (float64(nY)*log2Pi + chol.LogDet() + mat.Dot(&nu, &fInvNu))

		// Gain G = P Z^T + Vsm; update s = s + G F^{-1} nu,
		// P = P - G F^{-1} G^T.
		var gain mat.Dense
		gain.Add(&pz, vsm)
		var fInvGt mat.Dense
		if err := chol.SolveTo(&fInvGt, gain.T()); err != nil {
			return ErrNonPositiveInnovation
		}
		var gNu mat.VecDense
		gNu.MulVec(&gain, &fInvNu)
		s.AddVec(&sPred, &gNu)
		var gfg mat.Dense
		gfg.Mul(&gain, &fInvGt)
		p.Sub(&pPred, &gfg)
		gonumExtensions.Symmetrize(&p)
	}

	if gonumExtensions.NANORINF(&p) {
		return errors.New("kalman: state covariance diverged")
	}
	regime.LogLikelihood = logLik
	regime.EndState = &s
	regime.EndCov = &p
	return nil
}

// StationaryInit returns the unconditional mean and covariance of the state
// process, used to seed the presample. The covariance solves the discrete
// Lyapunov equation with A = T and Q = R QShock R^T; the mean is
// (I - T)^{-1} C, which is zero whenever C is.
func StationaryInit(trans statespace.Transition, qShock *mat.Dense) (*mat.VecDense, *mat.Dense, error) {
	n := trans.NStates()
	var rq, rqr mat.Dense
	rq.Mul(trans.R, qShock)
	rqr.Mul(&rq, trans.R.T())
	gonumExtensions.Symmetrize(&rqr)

	cov, err := lyapunov.SolveDiscrete(trans.T, &rqr)
	if err != nil {
		return nil, nil, err
	}

	mean := mat.NewVecDense(n, nil)
	if !isZero(trans.C) {
		var iMinusT mat.Dense
		iMinusT.Scale(-1, trans.T)
		for i := 0; i < n; i++ {
			iMinusT.Set(i, i, iMinusT.At(i, i)+1)
		}
		if err := mean.SolveVec(&iMinusT, trans.C); err != nil {
			return nil, nil, errors.New("kalman: stationary mean undefined, I - T is singular")
		}
	}
	return mean, cov, nil
}

func presentEntries(row []float64) []int {
	out := make([]int, 0, len(row))
	for i, v := range row {
		if !math.IsNaN(v) {
			out = append(out, i)
		}
	}
	return out
}

func isZero(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) != 0 {
			return false
		}
	}
	return true
}
