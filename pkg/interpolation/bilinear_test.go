package interpolation

import (
	"math"
	"testing"
)

// TestBilinearExact verifies that integer coordinates return the pixel
// values unchanged.
func TestBilinearExact(t *testing.T) {
	img := [][]uint8{
		{0, 10, 20},
		{30, 40, 50},
	}
	for i := range img {
		for j := range img[i] {
			got := Bilinear(img, float64(j), float64(i))
			if got != float64(img[i][j]) {
				t.Errorf("Bilinear at (%d, %d) = %f, want %d", j, i, got, img[i][j])
			}
		}
	}
}

// TestBilinearMidpoints verifies interpolation between neighboring pixels.
func TestBilinearMidpoints(t *testing.T) {
	img := [][]uint8{
		{0, 100},
		{200, 100},
	}
	cases := []struct {
		x, y float64
		want float64
	}{
		{0.5, 0, 50},    // between 0 and 100
		{0, 0.5, 100},   // between 0 and 200
		{0.5, 0.5, 100}, // average of all four
		{1, 0.5, 100},   // between 100 and 100
	}
	for _, tc := range cases {
		got := Bilinear(img, tc.x, tc.y)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Bilinear at (%g, %g) = %f, want %f", tc.x, tc.y, got, tc.want)
		}
	}
}

// TestBilinearBounds verifies out-of-bounds behavior.
func TestBilinearBounds(t *testing.T) {
	img := [][]uint8{
		{50, 50},
		{50, 50},
	}
	for _, c := range [][2]float64{{-0.01, 0}, {0, -0.01}, {1.01, 0}, {0, 1.01}, {-5, -5}} {
		if got := Bilinear(img, c[0], c[1]); got != 0 {
			t.Errorf("Bilinear at (%g, %g) = %f, want 0", c[0], c[1], got)
		}
	}
	// The far edge itself is still inside.
	if got := Bilinear(img, 1, 1); got != 50 {
		t.Errorf("Bilinear at far corner = %f, want 50", got)
	}
	if got := Bilinear(nil, 0, 0); got != 0 {
		t.Errorf("Bilinear on empty image = %f, want 0", got)
	}
}

// TestNearest verifies nearest-neighbor sampling and its bounds handling.
func TestNearest(t *testing.T) {
	img := [][]uint8{
		{0, 10},
		{20, 30},
	}
	if got := Nearest(img, 0.4, 0.4); got != 0 {
		t.Errorf("Nearest at (0.4, 0.4) = %f, want 0", got)
	}
	if got := Nearest(img, 0.6, 0.6); got != 30 {
		t.Errorf("Nearest at (0.6, 0.6) = %f, want 30", got)
	}
	if got := Nearest(img, 5, 0); got != 0 {
		t.Errorf("Nearest out of bounds = %f, want 0", got)
	}
}
