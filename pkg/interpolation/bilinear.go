// Package interpolation provides image resampling primitives used when
// warping section images through a displacement field.
package interpolation

import "math"

// Bilinear samples img at the continuous pixel coordinate (x, y), where x
// indexes columns and y indexes rows, using bilinear interpolation of the
// four surrounding pixels. Coordinates outside the image bounds return 0;
// samples on the far edge fall back to the nearest valid neighbor.
func Bilinear(img [][]uint8, x, y float64) float64 {
	h := len(img)
	if h == 0 {
		return 0
	}
	w := len(img[0])

	if x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return 0
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > w-1 {
		x1 = w - 1
	}
	if y1 > h-1 {
		y1 = h - 1
	}

	fx := x - float64(x0)
	fy := y - float64(y0)

	top := (1-fx)*float64(img[y0][x0]) + fx*float64(img[y0][x1])
	bottom := (1-fx)*float64(img[y1][x0]) + fx*float64(img[y1][x1])
	return (1-fy)*top + fy*bottom
}

// Nearest samples img at the continuous pixel coordinate (x, y) using
// nearest-neighbor rounding. Coordinates outside the image bounds return 0.
func Nearest(img [][]uint8, x, y float64) float64 {
	h := len(img)
	if h == 0 {
		return 0
	}
	w := len(img[0])

	j := int(math.Round(x))
	i := int(math.Round(y))
	if j < 0 || i < 0 || j >= w || i >= h {
		return 0
	}
	return float64(img[i][j])
}
