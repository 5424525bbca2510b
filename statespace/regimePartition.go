package statespace

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Partition splits the full observation matrix (one period per row, one
// observable per column) and the full augmented-dimension transition triple
// into the three regime bundles.
//
// The presample and normal regimes exclude the anticipated-shock observables
// and states; the ZLB regime spans the trailing AnticipatedLags+1 periods at
// the full augmented dimension. The presample reuses the normal regime's
// transition (and later its measurement matrices) verbatim; it is a burn-in,
// not an independent regime.
func Partition(model Spec, data *mat.Dense, zlbTrans Transition) (pre, normal, zlb *Regime) {
	if err := model.Validate(); err != nil {
		panic(err)
	}
	rows, cols := data.Dims()
	if cols != model.NObservables {
		panic(errors.New("statespace: observation columns don't match the model's observable count"))
	}
	if zlbTrans.NStates() != model.NAugmentedStates {
		panic(errors.New("statespace: transition triple isn't at the augmented dimension"))
	}
	nZLB := model.AnticipatedLags + 1
	if rows < model.NPresamplePeriods+nZLB+1 {
		panic(errors.New("statespace: not enough observations to cover all regimes"))
	}

	nObsReg := model.RegularObservables().Len()
	nStReg := model.NAugmentedStates - model.NAnticipatedShocks
	normalTrans := subTransition(model, zlbTrans)

	pre = &Regime{
		Kind:         RegimePresample,
		Data:         denseSlice(data, 0, model.NPresamplePeriods, 0, nObsReg),
		NObservables: nObsReg,
		NStates:      nStReg,
		Transition:   normalTrans,
	}
	normal = &Regime{
		Kind:         RegimeNormal,
		Data:         denseSlice(data, model.NPresamplePeriods, rows-nZLB, 0, nObsReg),
		NObservables: nObsReg,
		NStates:      nStReg,
		Transition:   normalTrans,
	}
	zlb = &Regime{
		Kind:         RegimeZLB,
		Data:         denseSlice(data, rows-nZLB, rows, 0, model.NObservables),
		NObservables: model.NObservables,
		NStates:      model.NAugmentedStates,
		Transition:   zlbTrans,
	}
	return pre, normal, zlb
}

// subTransition extracts the normal regime's (T, R, C) as exact sub-matrices
// of the ZLB regime's, dropping the anticipated-shock state and shock
// indices.
func subTransition(model Spec, full Transition) Transition {
	stateIdx := append(model.StatesBefore().indices(), model.StatesAfter().indices()...)
	shockIdx := model.RegularShocks().indices()

	n := len(stateIdx)
	t := mat.NewDense(n, n, nil)
	r := mat.NewDense(n, len(shockIdx), nil)
	c := mat.NewVecDense(n, nil)
	for i, si := range stateIdx {
		c.SetVec(i, full.C.AtVec(si))
		for j, sj := range stateIdx {
			t.Set(i, j, full.T.At(si, sj))
		}
		for j, ej := range shockIdx {
			r.Set(i, j, full.R.At(si, ej))
		}
	}
	return Transition{T: t, R: r, C: c}
}

// denseSlice copies a rectangular block of data into a fresh matrix, so the
// regime bundles own their observations outright.
func denseSlice(data *mat.Dense, r0, r1, c0, c1 int) *mat.Dense {
	if r1 == r0 {
		// An empty presample is legal; give it an empty matrix to own.
		return &mat.Dense{}
	}
	out := mat.NewDense(r1-r0, c1-c0, nil)
	out.Copy(data.Slice(r0, r1, c0, c1))
	return out
}
