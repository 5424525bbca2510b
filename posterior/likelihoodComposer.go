package posterior

import (
	"fmt"
	"math"

	"github.com/xiaohaomao/dsge/kalman"
	"github.com/xiaohaomao/dsge/statespace"
	"gonum.org/v1/gonum/mat"
)

// Solver is the external model solver: it produces the full (ZLB regime)
// transition triple for a parameter draw. It may fail when no stable
// rational-expectations solution exists for the draw.
type Solver interface {
	Solve(params Vector) (statespace.Transition, error)
}

// Diagnostics carries the regime bundles of one evaluation. The ZLB bundle
// is what a Metropolis-Hastings driver typically inspects; the presample
// bundle holds its (discarded) log-likelihood contribution.
type Diagnostics struct {
	Presample *statespace.Regime
	Normal    *statespace.Regime
	ZLB       *statespace.Regime
}

// Evaluator evaluates the log-likelihood and posterior of the model. A
// single evaluation is synchronous and keeps no state across calls, so one
// Evaluator may be shared by concurrent callers as long as each call gets
// its own parameter Vector.
type Evaluator struct {
	Model  statespace.Spec
	Solver Solver
	Mapper statespace.Mapper
	// Sampling makes the evaluator behave as a sampler's objective:
	// out-of-bounds draws short-circuit to -Inf, and evaluation failures
	// (unsolvable model, singular Lyapunov equation, degenerate innovation
	// covariance) become -Inf rejections instead of errors.
	Sampling bool
}

// Likelihood evaluates the data's log-likelihood at the given draw. The
// total is the normal regime's contribution plus the ZLB regime's; the
// presample is filtered only to produce a burn-in-adjusted starting state
// and its contribution is excluded. When withDiagnostics is set the regime
// bundles are returned alongside.
func (e *Evaluator) Likelihood(params Vector, data *mat.Dense, withDiagnostics bool) (float64, *Diagnostics, error) {
	if e.Sampling && !params.InBounds() {
		// Rejected draw; no filtering is run.
		if withDiagnostics {
			return math.Inf(-1), &Diagnostics{}, nil
		}
		return math.Inf(-1), nil, nil
	}

	zlbTrans, err := e.Solver.Solve(params)
	if err != nil {
		return e.fail(fmt.Errorf("posterior: model solver: %w", err))
	}

	pre, normal, zlb := statespace.Partition(e.Model, data, zlbTrans)

	normalMeas, err := statespace.AssembleMeasurement(e.Model, e.Mapper, normal.Transition, statespace.RegimeNormal)
	if err != nil {
		return e.fail(err)
	}
	normal.Measurement = normalMeas
	// The presample reuses the normal regime's measurement verbatim.
	pre.Measurement = normalMeas
	zlbMeas, err := statespace.AssembleMeasurement(e.Model, e.Mapper, zlb.Transition, statespace.RegimeZLB)
	if err != nil {
		return e.fail(err)
	}
	zlb.Measurement = zlbMeas

	// The presample starts from the stationary distribution of the state
	// process absent the ZLB block.
	mean0, cov0, err := kalman.StationaryInit(normal.Transition, normalMeas.QShock)
	if err != nil {
		return e.fail(err)
	}
	if err := kalman.Filter(pre, mean0, cov0); err != nil {
		return e.fail(err)
	}
	if err := kalman.Filter(normal, pre.EndState, pre.EndCov); err != nil {
		return e.fail(err)
	}
	zlbMean, zlbCov := statespace.ExpandState(e.Model, normal.EndState, normal.EndCov)
	if err := kalman.Filter(zlb, zlbMean, zlbCov); err != nil {
		return e.fail(err)
	}

	total := normal.LogLikelihood + zlb.LogLikelihood
	if withDiagnostics {
		return total, &Diagnostics{Presample: pre, Normal: normal, ZLB: zlb}, nil
	}
	return total, nil, nil
}

// Posterior returns the log-posterior: the log-likelihood plus the log-prior
// of the draw.
func (e *Evaluator) Posterior(params Vector, data *mat.Dense) (float64, error) {
	logLik, _, err := e.Likelihood(params, data, false)
	if err != nil {
		return 0, err
	}
	if math.IsInf(logLik, -1) {
		return logLik, nil
	}
	return logLik + params.LogPrior(), nil
}

// fail applies the evaluator's failure policy: in sampling mode every
// evaluation failure means a rejected draw, otherwise the error propagates.
func (e *Evaluator) fail(err error) (float64, *Diagnostics, error) {
	if e.Sampling {
		return math.Inf(-1), nil, nil
	}
	return 0, nil, err
}
