package statespace

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Transition is the state transition equation
//
//	S_t = C + T S_{t-1} + R eps_t,  var(eps_t) = QShock (held in Measurement)
type Transition struct {
	T *mat.Dense
	R *mat.Dense
	C *mat.VecDense
}

// NewTransition copies the system matrices into a Transition after checking
// their dimensions against each other.
func NewTransition(T, R mat.Matrix, C mat.Vector) Transition {
	n, nc := T.Dims()
	rr, _ := R.Dims()
	cl := C.Len()
	if n != nc || rr != n || cl != n {
		panic(errors.New("statespace: transition matrices don't match"))
	}
	var t, r mat.Dense
	var c mat.VecDense
	t.CloneFrom(T)
	r.CloneFrom(R)
	c.CloneFromVec(C)
	return Transition{T: &t, R: &r, C: &c}
}

// NStates returns the state dimension of the transition equation.
func (tr Transition) NStates() int {
	n, _ := tr.T.Dims()
	return n
}

// Measurement is the measurement equation
//
//	X_t = Z S_t + D + u_t,  u_t = eta_t + M eps_t,  var(eta_t) = E
//
// together with the covariance blocks derived from it:
//
//	H    = E + M QShock M^T         (measurement error covariance)
//	V    = QShock M^T               (shock/measurement-error cross covariance)
//	VAll = [R QShock R^T, R V     ]
//	       [V^T R^T,      H       ]  (joint state/measurement noise covariance)
type Measurement struct {
	Z      *mat.Dense
	D      *mat.VecDense
	QShock *mat.Dense
	E      *mat.Dense
	M      *mat.Dense

	H    *mat.Dense
	V    *mat.Dense
	VAll *mat.Dense
}

// deriveCovariances fills in H, V and VAll from the raw measurement matrices
// and the transition equation's shock loading R.
func (m *Measurement) deriveCovariances(trans Transition) {
	nY, _ := m.Z.Dims()
	nS := trans.NStates()

	var mq mat.Dense
	mq.Mul(m.M, m.QShock)

	m.V = &mat.Dense{}
	m.V.Mul(m.QShock, m.M.T())

	m.H = &mat.Dense{}
	m.H.Mul(&mq, m.M.T())
	m.H.Add(m.H, m.E)

	var rq, rqr, rv mat.Dense
	rq.Mul(trans.R, m.QShock)
	rqr.Mul(&rq, trans.R.T())
	rv.Mul(trans.R, m.V)

	m.VAll = mat.NewDense(nS+nY, nS+nY, nil)
	m.VAll.Slice(0, nS, 0, nS).(*mat.Dense).Copy(&rqr)
	m.VAll.Slice(0, nS, nS, nS+nY).(*mat.Dense).Copy(&rv)
	m.VAll.Slice(nS, nS+nY, 0, nS).(*mat.Dense).Copy(rv.T())
	m.VAll.Slice(nS, nS+nY, nS, nS+nY).(*mat.Dense).Copy(m.H)
}

// RegimeKind enumerates the three filtering sub-problems.
type RegimeKind int

const (
	RegimePresample RegimeKind = iota
	RegimeNormal
	RegimeZLB
)

func (k RegimeKind) String() string {
	switch k {
	case RegimePresample:
		return "presample"
	case RegimeNormal:
		return "normal"
	case RegimeZLB:
		return "zlb"
	}
	return "unknown"
}

// Regime bundles one regime's filtering sub-problem: its slice of the
// observations, its system matrices and, after filtering, the accumulated
// log-likelihood and the ending state. A fresh set of bundles is created for
// every likelihood evaluation and discarded afterwards.
type Regime struct {
	Kind RegimeKind
	// Data holds the regime's observations, one period per row.
	Data         *mat.Dense
	NObservables int
	NStates      int

	Transition  Transition
	Measurement Measurement

	// Filled in by the filter.
	LogLikelihood float64
	EndState      *mat.VecDense
	EndCov        *mat.Dense
}
