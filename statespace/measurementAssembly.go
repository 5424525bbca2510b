package statespace

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mapper is the external collaborator that knows the observable-to-state
// mapping. It is parameterized by whether the anticipated shocks are active,
// which is true only for the ZLB regime. Each call must return freshly
// allocated matrices: the assembler takes ownership and may adjust them in
// place.
type Mapper interface {
	Measurement(model Spec, trans Transition, anticipated bool) (Measurement, error)
}

// AssembleMeasurement obtains the regime's raw measurement matrices from the
// mapper and computes the derived covariance blocks H, V and VAll.
//
// For the normal regime only, when the transition constant C is nonzero, the
// measurement constant is corrected by
//
//	D += Z (I - T)^{-1} C
//
// compensating for the measurement equation's assumption that C is zero. The
// correction is never applied to the ZLB regime (nor to the presample, which
// copies the normal regime's matrices wholesale).
func AssembleMeasurement(model Spec, mapper Mapper, trans Transition, kind RegimeKind) (Measurement, error) {
	meas, err := mapper.Measurement(model, trans, kind == RegimeZLB)
	if err != nil {
		return Measurement{}, fmt.Errorf("statespace: measurement assembly for %v regime: %w", kind, err)
	}
	if err := checkMeasurementDims(meas, trans); err != nil {
		panic(err)
	}

	if kind == RegimeNormal && !isZeroVec(trans.C) {
		n := trans.NStates()
		var iMinusT mat.Dense
		iMinusT.Scale(-1, trans.T)
		for i := 0; i < n; i++ {
			iMinusT.Set(i, i, iMinusT.At(i, i)+1)
		}
		var w mat.VecDense
		if err := w.SolveVec(&iMinusT, trans.C); err != nil {
			return Measurement{}, fmt.Errorf("statespace: constant correction: I - T is singular: %w", err)
		}
		var zw mat.VecDense
		zw.MulVec(meas.Z, &w)
		meas.D.AddVec(meas.D, &zw)
	}

	meas.deriveCovariances(trans)
	return meas, nil
}

func checkMeasurementDims(meas Measurement, trans Transition) error {
	nS := trans.NStates()
	_, nShock := trans.R.Dims()
	nY, zc := meas.Z.Dims()
	qr, qc := meas.QShock.Dims()
	er, ec := meas.E.Dims()
	mr, mc := meas.M.Dims()
	if zc != nS || meas.D.Len() != nY ||
		qr != nShock || qc != nShock ||
		er != nY || ec != nY ||
		mr != nY || mc != nShock {
		return errors.New("statespace: measurement matrices don't match the transition equation")
	}
	return nil
}

func isZeroVec(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) != 0 {
			return false
		}
	}
	return true
}
