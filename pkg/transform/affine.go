// Package transform implements the coordinate transform engine that maps
// the 3D reference space onto the pixel grid of a single section image.
//
// Two affine spaces are composed: a dataset-level 3x4 affine takes
// homogeneous reference-space points into an intermediate section space,
// and a per-image 2x3 affine takes homogeneous section-space points into
// image pixel coordinates. Applying both over a dense grid of reference
// points yields a displacement field for the whole image.
package transform

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a matrix does not conform to the
// documented 2x3 / 3x4 affine shapes, or when two grids that must share a
// shape do not.
var ErrShapeMismatch = errors.New("shape mismatch")

// ErrInvalidArgument is returned when a transform is requested with
// arguments outside the documented contract, such as a non-positive
// reference downsample factor.
var ErrInvalidArgument = errors.New("invalid argument")

// Affine2D is an immutable 2x3 matrix mapping homogeneous 2D section-space
// points to image pixel coordinates (x, y).
type Affine2D struct {
	m *mat.Dense
}

// NewAffine2D builds an Affine2D from 6 values in row-major order.
func NewAffine2D(vals []float64) (*Affine2D, error) {
	if len(vals) != 6 {
		return nil, fmt.Errorf("%w: affine 2d needs 6 values, got %d", ErrShapeMismatch, len(vals))
	}
	data := make([]float64, 6)
	copy(data, vals)
	return &Affine2D{m: mat.NewDense(2, 3, data)}, nil
}

// Affine2DFromMatrix builds an Affine2D from any 2x3 matrix.
func Affine2DFromMatrix(m mat.Matrix) (*Affine2D, error) {
	r, c := m.Dims()
	if r != 2 || c != 3 {
		return nil, fmt.Errorf("%w: affine 2d must be 2x3, got %dx%d", ErrShapeMismatch, r, c)
	}
	d := mat.NewDense(2, 3, nil)
	d.Copy(m)
	return &Affine2D{m: d}, nil
}

// At returns the matrix element at row i, column j.
func (a *Affine2D) At(i, j int) float64 { return a.m.At(i, j) }

// Affine3D is an immutable 3x4 matrix mapping homogeneous 3D
// reference-space points to section-space coordinates.
type Affine3D struct {
	m *mat.Dense
}

// NewAffine3D builds an Affine3D from 12 values in row-major order.
func NewAffine3D(vals []float64) (*Affine3D, error) {
	if len(vals) != 12 {
		return nil, fmt.Errorf("%w: affine 3d needs 12 values, got %d", ErrShapeMismatch, len(vals))
	}
	data := make([]float64, 12)
	copy(data, vals)
	return &Affine3D{m: mat.NewDense(3, 4, data)}, nil
}

// Affine3DFromMatrix builds an Affine3D from any 3x4 matrix.
func Affine3DFromMatrix(m mat.Matrix) (*Affine3D, error) {
	r, c := m.Dims()
	if r != 3 || c != 4 {
		return nil, fmt.Errorf("%w: affine 3d must be 3x4, got %dx%d", ErrShapeMismatch, r, c)
	}
	d := mat.NewDense(3, 4, nil)
	d.Copy(m)
	return &Affine3D{m: d}, nil
}

// At returns the matrix element at row i, column j.
func (a *Affine3D) At(i, j int) float64 { return a.m.At(i, j) }
