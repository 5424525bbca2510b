// Package statespace holds the regime-switching state-space bookkeeping for
// the likelihood engine: dimension metadata, per-regime system matrices, the
// observation partitioner and the measurement assembler.
package statespace

import (
	"errors"
	"fmt"
)

// Spec is the immutable dimension metadata of the model. Every slicing rule
// in this package derives arithmetically from these constants.
type Spec struct {
	// NObservables counts all observables, including the anticipated-shock
	// observables that are only measured in the ZLB regime.
	NObservables int
	// NAnticipatedShocks counts the anticipated policy shocks that augment
	// the state vector.
	NAnticipatedShocks int
	// NStates is the state count before augmentation.
	NStates int
	// NAugmentedStates = NStates + NAnticipatedShocks.
	NAugmentedStates int
	// NExogenousShocks counts all exogenous shocks, anticipated included.
	NExogenousShocks int
	// AnticipatedLags is the number of periods over which the anticipated
	// shocks are announced; the ZLB regime spans AnticipatedLags+1 periods.
	AnticipatedLags int
	// NPresamplePeriods is the length of the burn-in sample whose likelihood
	// contribution is discarded.
	NPresamplePeriods int
	// AnticipatedStateStart is the index of the first anticipated-shock
	// state in the augmented state ordering. The augmented state vector is
	// [before block | anticipated block | after block].
	AnticipatedStateStart int
}

// Validate reports whether the dimension constants are mutually consistent.
func (s Spec) Validate() error {
	if s.NAugmentedStates != s.NStates+s.NAnticipatedShocks {
		return fmt.Errorf("statespace: NAugmentedStates = %d, want NStates + NAnticipatedShocks = %d",
			s.NAugmentedStates, s.NStates+s.NAnticipatedShocks)
	}
	if s.NAnticipatedShocks > s.NObservables || s.NAnticipatedShocks > s.NExogenousShocks {
		return errors.New("statespace: more anticipated shocks than observables or exogenous shocks")
	}
	if s.AnticipatedStateStart < 0 || s.AnticipatedStateStart > s.NAugmentedStates-s.NAnticipatedShocks {
		return errors.New("statespace: anticipated state block out of range")
	}
	if s.NObservables <= 0 || s.NAugmentedStates <= 0 || s.NExogenousShocks <= 0 ||
		s.AnticipatedLags < 0 || s.NPresamplePeriods < 0 {
		return errors.New("statespace: non-positive dimension")
	}
	return nil
}

// Range is a half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

// StatesBefore is the block of non-anticipated states preceding the
// anticipated-shock block.
func (s Spec) StatesBefore() Range {
	return Range{0, s.AnticipatedStateStart}
}

// AnticipatedStates is the anticipated-shock state block.
func (s Spec) AnticipatedStates() Range {
	return Range{s.AnticipatedStateStart, s.AnticipatedStateStart + s.NAnticipatedShocks}
}

// StatesAfter is the block of non-anticipated states following the
// anticipated-shock block.
func (s Spec) StatesAfter() Range {
	return Range{s.AnticipatedStateStart + s.NAnticipatedShocks, s.NAugmentedStates}
}

// RegularObservables is the block of observables measured in every regime.
func (s Spec) RegularObservables() Range {
	return Range{0, s.NObservables - s.NAnticipatedShocks}
}

// AnticipatedObservables is the trailing observable block measured only in
// the ZLB regime.
func (s Spec) AnticipatedObservables() Range {
	return Range{s.NObservables - s.NAnticipatedShocks, s.NObservables}
}

// RegularShocks is the block of non-anticipated exogenous shocks.
func (s Spec) RegularShocks() Range {
	return Range{0, s.NExogenousShocks - s.NAnticipatedShocks}
}

// AnticipatedExogenousShocks is the trailing anticipated block of the shock
// vector.
func (s Spec) AnticipatedExogenousShocks() Range {
	return Range{s.NExogenousShocks - s.NAnticipatedShocks, s.NExogenousShocks}
}

func (r Range) indices() []int {
	out := make([]int, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		out = append(out, i)
	}
	return out
}
