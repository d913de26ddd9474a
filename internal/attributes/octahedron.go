package attributes

import (
	"math"
)

// octahedronToolBox converts between unit normals and quantized octahedral
// (s, t) coordinates. The octahedron maps a 3D direction onto the unit
// diamond |s|+|t| <= 1, folded for directions with negative x.
type octahedronToolBox struct {
	maxQuantized int32 // (1 << bits) - 1
	center       int32
}

func newOctahedronToolBox(maxQuantized int32) octahedronToolBox {
	return octahedronToolBox{maxQuantized: maxQuantized, center: maxQuantized / 2}
}

// canonicalizeIntegerVector scales an integer direction so its L1 norm is
// exactly the diamond center, keeping the direction intact.
func (o octahedronToolBox) canonicalizeIntegerVector(v *[3]int64) {
	absSum := absI64(v[0]) + absI64(v[1]) + absI64(v[2])
	if absSum == 0 {
		v[0] = int64(o.center)
		v[1] = 0
		v[2] = 0
		return
	}
	c := int64(o.center)
	v[0] = v[0] * c / absSum
	v[1] = v[1] * c / absSum
	residual := c - absI64(v[0]) - absI64(v[1])
	if v[2] >= 0 {
		v[2] = residual
	} else {
		v[2] = -residual
	}
}

// integerVectorToQuantizedOctahedralCoords folds a canonicalized integer
// direction into quantized (s, t) coordinates in [0, 2*center].
func (o octahedronToolBox) integerVectorToQuantizedOctahedralCoords(v [3]int64) (int32, int32) {
	var s, t int64
	if v[0] >= 0 {
		s = v[1]
		t = v[2]
	} else {
		c := int64(o.center)
		s = c - absI64(v[2])
		if v[1] < 0 {
			s = -s
		}
		t = c - absI64(v[1])
		if v[2] < 0 {
			t = -t
		}
	}

	return int32(s) + o.center, int32(t) + o.center
}

// quantizedOctahedralCoordsToUnitVector unfolds quantized (s, t) back into a
// unit direction.
func (o octahedronToolBox) quantizedOctahedralCoordsToUnitVector(s, t int32) (float32, float32, float32) {
	scale := 2.0 / float64(o.maxQuantized)
	y := float64(s)*scale - 1.0
	z := float64(t)*scale - 1.0
	x := 1.0 - math.Abs(y) - math.Abs(z)
	if x < 0 {
		yOld, zOld := y, z
		y = (1.0 - math.Abs(zOld)) * signF(yOld)
		z = (1.0 - math.Abs(yOld)) * signF(zOld)
	}
	norm := math.Sqrt(x*x + y*y + z*z)
	if norm == 0 {
		return 1, 0, 0
	}

	return float32(x / norm), float32(y / norm), float32(z / norm)
}

func signF(v float64) float64 {
	if v < 0 {
		return -1
	}

	return 1
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

// intSqrt returns the integer square root of a non-negative number.
func intSqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := uint64(math.Sqrt(float64(n)))
	// Floating point rounding can land one off in either direction.
	for x > 0 && x*x > n {
		x--
	}
	for (x+1)*(x+1) <= n {
		x++
	}

	return x
}
