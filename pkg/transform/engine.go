package transform

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"atlasdl/pkg/refspace"
)

// Compute produces the displacement field between the reference space and
// a single section image.
//
// The computation proceeds in three stages over a dense grid covering the
// two variable axes of the reference space:
//
//  1. Build homogeneous 4xN reference coordinates: the fixed axis is held
//     at sliceCoord, the variable axes enumerate every grid index scaled
//     by downsampleRef, flattened in row-major order.
//  2. Apply the dataset-level 3x4 affine, re-homogenize the first two
//     rows, and apply the per-image 2x3 affine, yielding pixel
//     coordinates (tx, ty) at image-native resolution.
//  3. Reshape to the grid and divide by 2^downsampleImg to match the
//     resolution of the downloaded image.
//
// Parameters:
//   - sliceCoord: reference-space value along axis at which the physical
//     slice was cut.
//   - a2: per-image section-space to pixel-space affine.
//   - a3: dataset-level reference-space to section-space affine.
//   - axis: the slicing axis; selects which reference dimension is fixed.
//   - downsampleRef: stride of the reference grid, >= 1. Higher values
//     shrink the grid and speed up the matrix products.
//   - downsampleImg: power-of-two divisor matching the downsampling of the
//     downloaded image, >= 0.
//
// Compute is a pure function: it performs no I/O and validates all
// arguments before any numeric work.
func Compute(sliceCoord float64, a2 *Affine2D, a3 *Affine3D, axis refspace.Axis, downsampleRef, downsampleImg int) (*DisplacementField, error) {
	if a2 == nil || a3 == nil {
		return nil, fmt.Errorf("%w: nil affine", ErrInvalidArgument)
	}
	if downsampleRef < 1 {
		return nil, fmt.Errorf("%w: downsampleRef must be >= 1, got %d", ErrInvalidArgument, downsampleRef)
	}
	if downsampleImg < 0 {
		return nil, fmt.Errorf("%w: downsampleImg must be >= 0, got %d", ErrInvalidArgument, downsampleImg)
	}
	fixedIdx, variable, err := refspace.Indexes(axis)
	if err != nil {
		return nil, err
	}
	shape, err := refspace.GridShape(axis, downsampleRef)
	if err != nil {
		return nil, err
	}

	rows, cols := shape[0], shape[1]
	n := rows * cols

	// Homogeneous reference coordinates, one column per grid cell. Cells
	// are flattened row-major: flat index p maps to grid cell
	// (p / cols, p % cols).
	coordsRef := mat.NewDense(4, n, nil)
	for p := 0; p < n; p++ {
		i := p / cols
		j := p % cols
		coordsRef.Set(fixedIdx, p, sliceCoord)
		coordsRef.Set(variable[0], p, float64(i*downsampleRef))
		coordsRef.Set(variable[1], p, float64(j*downsampleRef))
		coordsRef.Set(3, p, 1)
	}

	// Reference space -> section space: (3x4) x (4xN) = 3xN.
	var coordsSection mat.Dense
	coordsSection.Mul(a3.m, coordsRef)

	// Re-homogenize: keep the first two section-space rows, ones below.
	coordsTemp := mat.NewDense(3, n, nil)
	copy(coordsTemp.RawRowView(0), coordsSection.RawRowView(0))
	copy(coordsTemp.RawRowView(1), coordsSection.RawRowView(1))
	ones := coordsTemp.RawRowView(2)
	for p := range ones {
		ones[p] = 1
	}

	// Section space -> pixel space: (2x3) x (3xN) = 2xN.
	var coordsImg mat.Dense
	coordsImg.Mul(a2.m, coordsTemp)

	tx := make([]float64, n)
	ty := make([]float64, n)
	copy(tx, coordsImg.RawRowView(0))
	copy(ty, coordsImg.RawRowView(1))

	if downsampleImg > 0 {
		scale := 1 / float64(int(1)<<downsampleImg)
		floats.Scale(scale, tx)
		floats.Scale(scale, ty)
	}

	return NewDisplacementField(tx, ty, rows, cols)
}
