// Package featurize implements transforms of raw environment
// observations into fixed-size feature vectors used as network inputs.
package featurize

import (
	"fmt"
)

// Type is the type of a Featurizer
type Type string

// Available featurizers
const (
	RBF      Type = "RBF"
	CosSin   Type = "CosSin"
	Identity Type = "Identity"
)

// Featurizer maps observations of a fixed dimension to feature vectors
// of a fixed dimension.
type Featurizer interface {
	// Features returns the number of features produced per observation
	Features() int

	// Transform featurizes a single observation
	Transform(obs []float64) []float64

	// TransformBatch featurizes a row-major batch of observations. The
	// returned slice is row-major with Features() columns.
	TransformBatch(obs []float64, dims int) []float64
}

// transformBatch applies f to each of the rows of a row-major batch
func transformBatch(f Featurizer, obs []float64, dims int) []float64 {
	if dims < 1 || len(obs)%dims != 0 {
		panic(fmt.Sprintf("transformBatch: batch of %v values does not "+
			"contain rows of length %v", len(obs), dims))
	}

	rows := len(obs) / dims
	features := make([]float64, 0, rows*f.Features())
	for i := 0; i < rows; i++ {
		features = append(features, f.Transform(obs[i*dims:(i+1)*dims])...)
	}
	return features
}

// Config configures a Featurizer.
//
// Centers and Sigma are used by RBF only. Zero values are replaced by
// the defaults used for the continuous world: 21 centers per
// dimension on [0, 1] with a width of 0.05.
type Config struct {
	Type    Type
	Centers int
	Sigma   float64
}

// Default RBF parameters
const (
	DefaultCenters int     = 21
	DefaultSigma   float64 = 0.05
)

// Validate checks whether a Config describes a known Featurizer
func (c Config) Validate() error {
	switch c.Type {
	case RBF:
		if c.Centers < 0 || c.Centers == 1 {
			return fmt.Errorf("validate: RBF needs at least 2 centers per "+
				"dimension\n\twant(>=2)\n\thave(%v)", c.Centers)
		}
		if c.Sigma < 0 {
			return fmt.Errorf("validate: RBF width must be positive"+
				"\n\twant(>0)\n\thave(%v)", c.Sigma)
		}
	case CosSin, Identity:
	default:
		return fmt.Errorf("validate: no such featurizer %q", c.Type)
	}
	return nil
}

// Create returns the Featurizer described by the Config for
// observations of dimension dims
func (c Config) Create(dims int) (Featurizer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if dims < 1 {
		return nil, fmt.Errorf("create: observation dimension must be "+
			"positive\n\twant(>0)\n\thave(%v)", dims)
	}

	switch c.Type {
	case RBF:
		centers, sigma := c.Centers, c.Sigma
		if centers == 0 {
			centers = DefaultCenters
		}
		if sigma == 0 {
			sigma = DefaultSigma
		}
		return NewRBFGrid(dims, centers, 0, 1, sigma), nil

	case CosSin:
		return NewCosSin(dims), nil
	}
	return NewIdentity(dims), nil
}
