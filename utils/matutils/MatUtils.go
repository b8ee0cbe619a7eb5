// Package matutils implements utility functions for working with
// mat.Matrix structs
package matutils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// VecFromDegrees converts a vector of joint angles in degrees to a
// vector in radians.
func VecFromDegrees(angles []float64) *mat.VecDense {
	rad := make([]float64, len(angles))
	for i, a := range angles {
		rad[i] = a * math.Pi / 180
	}
	return mat.NewVecDense(len(rad), rad)
}
