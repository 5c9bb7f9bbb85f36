// Package refspace describes the fixed 3D reference space that every
// section dataset is registered into. The space has three anatomical axes
// with calibrated extents in micrometers. The axis order is significant:
// once one axis is fixed (the slicing axis), the remaining two axes, in
// their listed relative order, define the 2D iteration grid used by the
// transform engine.
package refspace

import (
	"errors"
	"fmt"
)

// Axis identifies one of the three anatomical slicing planes.
type Axis string

const (
	Coronal    Axis = "coronal"
	Transverse Axis = "transverse"
	Sagittal   Axis = "sagittal"
)

// ErrUnknownAxis is returned when an axis name is not one of the three
// known anatomical planes.
var ErrUnknownAxis = errors.New("unknown axis")

// descriptor lists the axes in their canonical order together with their
// native extents in the reference volume. The order matters: it determines
// which two axes form the iteration grid once one axis is fixed.
var descriptor = [3]struct {
	axis   Axis
	extent int
}{
	{Coronal, 13200},
	{Transverse, 8000},
	{Sagittal, 11400},
}

// ParseAxis validates an axis name and returns the corresponding Axis.
func ParseAxis(s string) (Axis, error) {
	switch Axis(s) {
	case Coronal, Transverse, Sagittal:
		return Axis(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// Valid reports whether a is one of the three known axes.
func (a Axis) Valid() bool {
	_, err := ParseAxis(string(a))
	return err == nil
}

// Extent returns the native extent of the reference volume along a.
func Extent(a Axis) (int, error) {
	for _, d := range descriptor {
		if d.axis == a {
			return d.extent, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, a)
}

// Indexes returns the canonical index of the fixed axis and the indexes of
// the two variable axes, in their canonical relative order.
func Indexes(fixed Axis) (fixedIdx int, variable [2]int, err error) {
	fixedIdx = -1
	v := 0
	for i, d := range descriptor {
		if d.axis == fixed {
			fixedIdx = i
			continue
		}
		if v < 2 {
			variable[v] = i
			v++
		}
	}
	if fixedIdx < 0 {
		return 0, [2]int{}, fmt.Errorf("%w: %q", ErrUnknownAxis, fixed)
	}
	return fixedIdx, variable, nil
}

// GridShape returns the shape of the 2D iteration grid obtained by fixing
// the given axis and striding the two variable axes by downsampleRef.
//
// The division truncates: when an extent is not evenly divisible by
// downsampleRef the remainder rows/columns at the far edge of the volume
// are dropped. This matches the behavior of the upstream alignment
// pipeline and is kept intentionally.
func GridShape(fixed Axis, downsampleRef int) ([2]int, error) {
	if downsampleRef < 1 {
		return [2]int{}, fmt.Errorf("downsampleRef must be >= 1, got %d", downsampleRef)
	}
	_, variable, err := Indexes(fixed)
	if err != nil {
		return [2]int{}, err
	}
	var shape [2]int
	for i, idx := range variable {
		shape[i] = descriptor[idx].extent / downsampleRef
	}
	return shape, nil
}
