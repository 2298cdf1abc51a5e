package featurize

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RBFGrid featurizes observations with Gaussian radial basis functions
// whose centers lie on a regular grid over [low, high]^dims:
//
//	φ_c(x) = exp(-||x - c||² / (2σ²))
type RBFGrid struct {
	dims    int
	centers [][]float64
	sigma   float64
}

// NewRBFGrid returns a new RBFGrid with perDim centers per dimension
func NewRBFGrid(dims, perDim int, low, high, sigma float64) *RBFGrid {
	axis := floats.Span(make([]float64, perDim), low, high)

	// Cartesian product of the axis with itself dims times
	centers := [][]float64{{}}
	for d := 0; d < dims; d++ {
		next := make([][]float64, 0, len(centers)*perDim)
		for _, c := range centers {
			for _, v := range axis {
				point := append(append(make([]float64, 0, d+1), c...), v)
				next = append(next, point)
			}
		}
		centers = next
	}

	return &RBFGrid{dims: dims, centers: centers, sigma: sigma}
}

// Features returns the number of features produced per observation
func (r *RBFGrid) Features() int {
	return len(r.centers)
}

// Transform featurizes a single observation
func (r *RBFGrid) Transform(obs []float64) []float64 {
	features := make([]float64, len(r.centers))
	denom := 2 * r.sigma * r.sigma
	for i, c := range r.centers {
		d := floats.Distance(obs, c, 2)
		features[i] = math.Exp(-d * d / denom)
	}
	return features
}

// TransformBatch featurizes a row-major batch of observations
func (r *RBFGrid) TransformBatch(obs []float64, dims int) []float64 {
	return transformBatch(r, obs, dims)
}
