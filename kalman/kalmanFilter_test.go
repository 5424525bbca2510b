package kalman

import (
	"math"
	"testing"

	"github.com/xiaohaomao/dsge/statespace"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

type scalarMapper struct {
	z, d, q, e, m float64
}

func (m scalarMapper) Measurement(_ statespace.Spec, _ statespace.Transition, _ bool) (statespace.Measurement, error) {
	return statespace.Measurement{
		Z:      mat.NewDense(1, 1, []float64{m.z}),
		D:      mat.NewVecDense(1, []float64{m.d}),
		QShock: mat.NewDense(1, 1, []float64{m.q}),
		E:      mat.NewDense(1, 1, []float64{m.e}),
		M:      mat.NewDense(1, 1, []float64{m.m}),
	}, nil
}

func scalarRegime(t *testing.T, data []float64, tt, r, c, z, d, q, e, mm float64) *statespace.Regime {
	t.Helper()
	model := statespace.Spec{
		NObservables: 1, NStates: 1, NAugmentedStates: 1,
		NExogenousShocks: 1, NPresamplePeriods: 1,
	}
	trans := statespace.NewTransition(
		mat.NewDense(1, 1, []float64{tt}),
		mat.NewDense(1, 1, []float64{r}),
		mat.NewVecDense(1, []float64{c}),
	)
	// The ZLB kind skips the constant correction, keeping the regime's D at
	// the mapper's raw value for the reference recursion below.
	meas, err := statespace.AssembleMeasurement(model, scalarMapper{z, d, q, e, mm}, trans, statespace.RegimeZLB)
	if err != nil {
		t.Fatalf("assembling measurement: %v", err)
	}
	return &statespace.Regime{
		Kind:         statespace.RegimeZLB,
		Data:         mat.NewDense(len(data), 1, data),
		NObservables: 1,
		NStates:      1,
		Transition:   trans,
		Measurement:  meas,
	}
}

// scalarReference runs the textbook univariate recursion (uncorrelated
// measurement noise, so M = 0) and returns the log-likelihood and the final
// filtered state.
func scalarReference(data []float64, tt, z, d, vss, vmm, s0, p0 float64) (ll, s, p float64) {
	s, p = s0, p0
	for _, y := range data {
		sPred := tt * s
		pPred := tt*tt*p + vss
		if math.IsNaN(y) {
			s, p = sPred, pPred
			continue
		}
		f := z*z*pPred + vmm
		nu := y - z*sPred - d
		ll += -0.5 * (math.Log(2*math.Pi) + math.Log(f) + nu*nu/f)
		k := pPred * z / f
		s = sPred + k*nu
		p = pPred - k*z*pPred
	}
	return ll, s, p
}

func TestFilterMatchesScalarReference(t *testing.T) {
	data := []float64{0.5, -0.2, 0.3, 0.1}
	const (
		tt = 0.9
		q  = 0.36
		z  = 1.3
		d  = 0.2
		e  = 0.04
	)
	regime := scalarRegime(t, data, tt, 1, 0, z, d, q, e, 0)

	p0 := q / (1 - tt*tt)
	if err := Filter(regime, mat.NewVecDense(1, nil), mat.NewDense(1, 1, []float64{p0})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantLL, wantS, wantP := scalarReference(data, tt, z, d, q, e, 0, p0)
	if !scalar.EqualWithinAbs(regime.LogLikelihood, wantLL, 1e-12) {
		t.Errorf("log-likelihood %v, want %v", regime.LogLikelihood, wantLL)
	}
	if !scalar.EqualWithinAbs(regime.EndState.AtVec(0), wantS, 1e-12) {
		t.Errorf("end state %v, want %v", regime.EndState.AtVec(0), wantS)
	}
	if !scalar.EqualWithinAbs(regime.EndCov.At(0, 0), wantP, 1e-12) {
		t.Errorf("end covariance %v, want %v", regime.EndCov.At(0, 0), wantP)
	}
}

func TestFilterSkipsMissingObservations(t *testing.T) {
	data := []float64{0.5, math.NaN(), 0.3}
	const (
		tt = 0.7
		q  = 0.25
		z  = 1.0
		e  = 0.09
	)
	regime := scalarRegime(t, data, tt, 1, 0, z, 0, q, e, 0)

	p0 := q / (1 - tt*tt)
	if err := Filter(regime, mat.NewVecDense(1, nil), mat.NewDense(1, 1, []float64{p0})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantLL, wantS, _ := scalarReference(data, tt, z, 0, q, e, 0, p0)
	if !scalar.EqualWithinAbs(regime.LogLikelihood, wantLL, 1e-12) {
		t.Errorf("log-likelihood %v, want %v", regime.LogLikelihood, wantLL)
	}
	if !scalar.EqualWithinAbs(regime.EndState.AtVec(0), wantS, 1e-12) {
		t.Errorf("end state %v, want %v", regime.EndState.AtVec(0), wantS)
	}

	// Two present observations, so exactly two Gaussian terms: the missing
	// period advanced the prediction without adding information.
	noMiss, _, _ := scalarReference([]float64{0.5, 0.3}, tt, z, 0, q, e, 0, p0)
	if scalar.EqualWithinAbs(regime.LogLikelihood, noMiss, 1e-12) {
		t.Error("missing period should still advance the prediction step")
	}
}

func TestFilterPartiallyMissingRow(t *testing.T) {
	// Two observables loading the same state; the second entry of the middle
	// row is unavailable. The reference is the same filter run on the
	// equivalent fully-observed problem built by hand.
	model := statespace.Spec{
		NObservables: 2, NStates: 1, NAugmentedStates: 1,
		NExogenousShocks: 1, NPresamplePeriods: 1,
	}
	trans := statespace.Transition{
		T: mat.NewDense(1, 1, []float64{0.8}),
		R: mat.NewDense(1, 1, []float64{1}),
		C: mat.NewVecDense(1, nil),
	}
	meas := statespace.Measurement{
		Z:      mat.NewDense(2, 1, []float64{1, 0.5}),
		D:      mat.NewVecDense(2, nil),
		QShock: mat.NewDense(1, 1, []float64{0.2}),
		E:      mat.NewDense(2, 2, []float64{0.05, 0, 0, 0.08}),
		M:      mat.NewDense(2, 1, nil),
	}
	mapper := fixedMapper{meas}
	assembled, err := statespace.AssembleMeasurement(model, mapper, trans, statespace.RegimeZLB)
	if err != nil {
		t.Fatalf("assembling measurement: %v", err)
	}
	regime := &statespace.Regime{
		Kind: statespace.RegimeZLB,
		Data: mat.NewDense(2, 2, []float64{
			0.4, 0.1,
			0.2, math.NaN(),
		}),
		NObservables: 2,
		NStates:      1,
		Transition:   trans,
		Measurement:  assembled,
	}
	if err := Filter(regime, mat.NewVecDense(1, nil), mat.NewDense(1, 1, []float64{1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hand-computed reference. Period 1 observes both entries, period 2 only
	// the first; the state is scalar so the bivariate step reduces to 2x2
	// algebra.
	pPred := 0.8*0.8*1 + 0.2
	// F = Z pPred Z^T + E, nu = y.
	f11 := pPred + 0.05
	f12 := 0.5 * pPred
	f22 := 0.25*pPred + 0.08
	det := f11*f22 - f12*f12
	nu1, nu2 := 0.4, 0.1
	quad := (f22*nu1*nu1 - 2*f12*nu1*nu2 + f11*nu2*nu2) / det
	wantLL := -0.5 * (2*math.Log(2*math.Pi) + math.Log(det) + quad)
	// Gain G = pPred Z^T; s = G F^{-1} nu, p = pPred - G F^{-1} G^T.
	g1, g2 := pPred, 0.5*pPred
	w1 := (f22*g1 - f12*g2) / det
	w2 := (f11*g2 - f12*g1) / det
	s := w1*nu1 + w2*nu2
	p := pPred - (w1*g1 + w2*g2)
	// Period 2, first observable only.
	ll2, _, _ := scalarReference([]float64{0.2}, 0.8, 1, 0, 0.2, 0.05, s, p)
	wantLL += ll2

	if !scalar.EqualWithinAbs(regime.LogLikelihood, wantLL, 1e-12) {
		t.Errorf("log-likelihood %v, want %v", regime.LogLikelihood, wantLL)
	}
}

type fixedMapper struct {
	meas statespace.Measurement
}

func (m fixedMapper) Measurement(_ statespace.Spec, _ statespace.Transition, _ bool) (statespace.Measurement, error) {
	return m.meas, nil
}

func TestStationaryInit(t *testing.T) {
	trans := statespace.NewTransition(
		mat.NewDense(1, 1, []float64{0.9}),
		mat.NewDense(1, 1, []float64{2}),
		mat.NewVecDense(1, []float64{0.5}),
	)
	q := mat.NewDense(1, 1, []float64{0.25})
	mean, cov, err := StationaryInit(trans, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// cov = R Q R^T / (1 - T^2), mean = C / (1 - T).
	if got, want := cov.At(0, 0), 4*0.25/(1-0.81); !scalar.EqualWithinAbs(got, want, 1e-12) {
		t.Errorf("stationary covariance %v, want %v", got, want)
	}
	if got, want := mean.AtVec(0), 0.5/(1-0.9); !scalar.EqualWithinAbs(got, want, 1e-12) {
		t.Errorf("stationary mean %v, want %v", got, want)
	}
}
