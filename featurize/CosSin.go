package featurize

import "math"

// CosSinFeaturizer maps each observation dimension x to sin(2πx) and
// cos(2πx). All sines come first, followed by all cosines.
type CosSinFeaturizer struct {
	dims int
}

// NewCosSin returns a new CosSinFeaturizer
func NewCosSin(dims int) *CosSinFeaturizer {
	return &CosSinFeaturizer{dims}
}

// Features returns the number of features produced per observation
func (c *CosSinFeaturizer) Features() int {
	return 2 * c.dims
}

// Transform featurizes a single observation
func (c *CosSinFeaturizer) Transform(obs []float64) []float64 {
	features := make([]float64, 2*len(obs))
	for i, x := range obs {
		features[i] = math.Sin(2 * math.Pi * x)
		features[len(obs)+i] = math.Cos(2 * math.Pi * x)
	}
	return features
}

// TransformBatch featurizes a row-major batch of observations
func (c *CosSinFeaturizer) TransformBatch(obs []float64, dims int) []float64 {
	return transformBatch(c, obs, dims)
}

// IdentityFeaturizer returns observations unchanged
type IdentityFeaturizer struct {
	dims int
}

// NewIdentity returns a new IdentityFeaturizer
func NewIdentity(dims int) *IdentityFeaturizer {
	return &IdentityFeaturizer{dims}
}

// Features returns the number of features produced per observation
func (i *IdentityFeaturizer) Features() int {
	return i.dims
}

// Transform returns a copy of obs
func (i *IdentityFeaturizer) Transform(obs []float64) []float64 {
	return append([]float64(nil), obs...)
}

// TransformBatch returns a copy of obs
func (i *IdentityFeaturizer) TransformBatch(obs []float64, dims int) []float64 {
	return append([]float64(nil), obs...)
}
