package statespace

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ExpandState maps the normal regime's ending state mean and covariance into
// the augmented ZLB dimension. A zero block of length NAnticipatedShocks is
// inserted between the before and after state blocks of the mean, and the
// covariance sub-blocks are copied into the four quadrants spanned by the
// non-anticipated indices; every covariance entry touching an anticipated
// state is left at zero. The anticipated shocks carry no prior uncertainty
// before the ZLB regime begins.
//
// With no anticipated shocks the transform reduces to a plain copy.
func ExpandState(model Spec, mean *mat.VecDense, cov *mat.Dense) (*mat.VecDense, *mat.Dense) {
	before := model.StatesBefore()
	after := model.StatesAfter()
	nSmall := before.Len() + after.Len()
	if mean.Len() != nSmall {
		panic(errors.New("statespace: state mean isn't at the reduced dimension"))
	}
	if r, c := cov.Dims(); r != nSmall || c != nSmall {
		panic(errors.New("statespace: state covariance isn't at the reduced dimension"))
	}

	nBig := model.NAugmentedStates
	bigIdx := append(before.indices(), after.indices()...)

	outMean := mat.NewVecDense(nBig, nil)
	outCov := mat.NewDense(nBig, nBig, nil)
	for i, bi := range bigIdx {
		outMean.SetVec(bi, mean.AtVec(i))
		for j, bj := range bigIdx {
			outCov.Set(bi, bj, cov.At(i, j))
		}
	}
	return outMean, outCov
}
