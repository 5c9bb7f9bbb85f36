package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"atlasdl/pkg/interpolation"
)

// DisplacementField is a dense per-cell mapping from the reference-space
// iteration grid to destination pixel coordinates in an image. Cell (i, j)
// of the grid maps to pixel (tx.At(i, j), ty.At(i, j)) in image-native
// resolution (possibly divided down by the image downsample factor).
//
// A field is immutable once constructed and is owned exclusively by its
// creator; none of its methods mutate it.
type DisplacementField struct {
	tx, ty *mat.Dense
}

// NewDisplacementField builds a field from two equally shaped grids given
// in row-major order. The grids are copied; callers keep ownership of the
// input slices.
func NewDisplacementField(tx, ty []float64, rows, cols int) (*DisplacementField, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid shape %dx%d", ErrInvalidArgument, rows, cols)
	}
	if len(tx) != rows*cols || len(ty) != rows*cols {
		return nil, fmt.Errorf("%w: grids must hold %d values, got %d and %d",
			ErrShapeMismatch, rows*cols, len(tx), len(ty))
	}
	cx := make([]float64, len(tx))
	cy := make([]float64, len(ty))
	copy(cx, tx)
	copy(cy, ty)
	return &DisplacementField{
		tx: mat.NewDense(rows, cols, cx),
		ty: mat.NewDense(rows, cols, cy),
	}, nil
}

// Shape returns the grid dimensions as (rows, cols).
func (f *DisplacementField) Shape() (rows, cols int) {
	return f.tx.Dims()
}

// At returns the destination pixel coordinate (x, y) for grid cell (i, j).
func (f *DisplacementField) At(i, j int) (x, y float64) {
	return f.tx.At(i, j), f.ty.At(i, j)
}

// AverageDisplacement returns the mean Euclidean distance between each
// grid cell index and its destination coordinate.
func (f *DisplacementField) AverageDisplacement() float64 {
	return stat.Mean(f.magnitudes(), nil)
}

// MaxDisplacement returns the largest Euclidean distance between a grid
// cell index and its destination coordinate.
func (f *DisplacementField) MaxDisplacement() float64 {
	max := 0.0
	for _, m := range f.magnitudes() {
		if m > max {
			max = m
		}
	}
	return max
}

func (f *DisplacementField) magnitudes() []float64 {
	rows, cols := f.tx.Dims()
	mags := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dx := f.tx.At(i, j) - float64(j)
			dy := f.ty.At(i, j) - float64(i)
			mags = append(mags, math.Hypot(dx, dy))
		}
	}
	return mags
}

// Warp resamples img through the field, producing a grid-shaped image
// where output cell (i, j) holds the bilinearly interpolated intensity of
// img at the destination coordinate of (i, j). Destinations outside the
// image bounds produce zero.
func (f *DisplacementField) Warp(img [][]uint8) ([][]uint8, error) {
	if len(img) == 0 || len(img[0]) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidArgument)
	}
	rows, cols := f.tx.Dims()
	out := make([][]uint8, rows)
	for i := range out {
		row := make([]uint8, cols)
		for j := range row {
			v := interpolation.Bilinear(img, f.tx.At(i, j), f.ty.At(i, j))
			row[j] = uint8(math.Round(math.Min(math.Max(v, 0), 255)))
		}
		out[i] = row
	}
	return out, nil
}
