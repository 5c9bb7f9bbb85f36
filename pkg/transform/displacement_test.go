package transform

import (
	"errors"
	"math"
	"testing"
)

// identityField builds a field where every cell maps to its own pixel
// coordinate (x = column, y = row).
func identityField(t *testing.T, rows, cols int) *DisplacementField {
	t.Helper()
	tx := make([]float64, rows*cols)
	ty := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			tx[i*cols+j] = float64(j)
			ty[i*cols+j] = float64(i)
		}
	}
	f, err := NewDisplacementField(tx, ty, rows, cols)
	if err != nil {
		t.Fatalf("failed to build identity field: %v", err)
	}
	return f
}

// TestNewDisplacementField verifies shape checks and that the grids are
// copied on construction.
func TestNewDisplacementField(t *testing.T) {
	tx := []float64{1, 2, 3, 4, 5, 6}
	ty := []float64{6, 5, 4, 3, 2, 1}
	f, err := NewDisplacementField(tx, ty, 2, 3)
	if err != nil {
		t.Fatalf("NewDisplacementField returned error: %v", err)
	}

	rows, cols := f.Shape()
	if rows != 2 || cols != 3 {
		t.Errorf("Shape() = (%d, %d), want (2, 3)", rows, cols)
	}

	x, y := f.At(1, 2)
	if x != 6 || y != 1 {
		t.Errorf("At(1, 2) = (%f, %f), want (6, 1)", x, y)
	}

	tx[0] = 99
	if x, _ := f.At(0, 0); x != 1 {
		t.Errorf("field aliased caller slice: At(0, 0) x = %f after mutation", x)
	}

	if _, err := NewDisplacementField(tx, ty[:5], 2, 3); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("mismatched grid length should fail with ErrShapeMismatch, got %v", err)
	}
	if _, err := NewDisplacementField(tx, ty, 0, 3); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero rows should fail with ErrInvalidArgument, got %v", err)
	}
}

// TestDisplacementStatistics verifies the displacement magnitudes against
// hand-computed values.
func TestDisplacementStatistics(t *testing.T) {
	// An identity mapping displaces nothing.
	id := identityField(t, 4, 5)
	if avg := id.AverageDisplacement(); avg != 0 {
		t.Errorf("identity field AverageDisplacement = %f, want 0", avg)
	}
	if max := id.MaxDisplacement(); max != 0 {
		t.Errorf("identity field MaxDisplacement = %f, want 0", max)
	}

	// A uniform shift of (+3, +4) displaces every cell by exactly 5.
	rows, cols := 3, 3
	tx := make([]float64, rows*cols)
	ty := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			tx[i*cols+j] = float64(j) + 3
			ty[i*cols+j] = float64(i) + 4
		}
	}
	f, err := NewDisplacementField(tx, ty, rows, cols)
	if err != nil {
		t.Fatalf("NewDisplacementField returned error: %v", err)
	}
	if avg := f.AverageDisplacement(); math.Abs(avg-5) > 1e-12 {
		t.Errorf("shifted field AverageDisplacement = %f, want 5", avg)
	}
	if max := f.MaxDisplacement(); math.Abs(max-5) > 1e-12 {
		t.Errorf("shifted field MaxDisplacement = %f, want 5", max)
	}
}

// TestWarpIdentity verifies that warping through an identity field
// reproduces the image.
func TestWarpIdentity(t *testing.T) {
	img := [][]uint8{
		{10, 20, 30},
		{40, 50, 60},
	}
	f := identityField(t, 2, 3)

	out, err := f.Warp(img)
	if err != nil {
		t.Fatalf("Warp returned error: %v", err)
	}
	for i := range img {
		for j := range img[i] {
			if out[i][j] != img[i][j] {
				t.Errorf("out[%d][%d] = %d, want %d", i, j, out[i][j], img[i][j])
			}
		}
	}
}

// TestWarpOutOfBounds verifies that destinations outside the image
// produce zero intensity.
func TestWarpOutOfBounds(t *testing.T) {
	img := [][]uint8{
		{255, 255},
		{255, 255},
	}
	tx := []float64{-10, 0, 100, 1}
	ty := []float64{0, -10, 1, 100}
	f, err := NewDisplacementField(tx, ty, 2, 2)
	if err != nil {
		t.Fatalf("NewDisplacementField returned error: %v", err)
	}

	out, err := f.Warp(img)
	if err != nil {
		t.Fatalf("Warp returned error: %v", err)
	}
	for i := range out {
		for j := range out[i] {
			if out[i][j] != 0 {
				t.Errorf("out[%d][%d] = %d, want 0 for out-of-bounds destination", i, j, out[i][j])
			}
		}
	}

	if _, err := f.Warp(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Warp of empty image should fail with ErrInvalidArgument, got %v", err)
	}
}
