package posterior

import "gonum.org/v1/gonum/stat/distuv"

// The four prior shapes the model's parameters use. Each returns a Density
// backed by the corresponding distuv distribution.

// PriorNormal is a normal prior with mean mu and standard deviation sigma.
func PriorNormal(mu, sigma float64) Density {
	return distuv.Normal{Mu: mu, Sigma: sigma}
}

// PriorGamma is a gamma prior with shape alpha and rate beta.
func PriorGamma(alpha, beta float64) Density {
	return distuv.Gamma{Alpha: alpha, Beta: beta}
}

// PriorBeta is a beta prior on (0, 1) with shape parameters alpha and beta.
func PriorBeta(alpha, beta float64) Density {
	return distuv.Beta{Alpha: alpha, Beta: beta}
}

// PriorInverseGamma is an inverse-gamma prior with shape alpha and scale
// beta, the usual prior for shock standard deviations.
func PriorInverseGamma(alpha, beta float64) Density {
	return distuv.InverseGamma{Alpha: alpha, Beta: beta}
}
