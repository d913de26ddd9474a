package attributes

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
)

// predictionTransform converts predicted values plus decoded corrections
// back into original portable integers.
type predictionTransform interface {
	Type() format.PredictionTransform
	// DecodeTransformData reads the transform parameters (phase 2 side
	// data).
	DecodeTransformData(buf *buffer.DecoderBuffer) error
	// AreCorrectionsPositive reports whether corrections stay unsigned; when
	// false the caller zig-zag decodes the raw symbols first.
	AreCorrectionsPositive() bool
	// ComputeOriginalValue writes pred+corr (transform-specific) into out.
	// All three slices hold one value of numComponents entries.
	ComputeOriginalValue(pred, corr, out []int32)
}

func newPredictionTransform(t format.PredictionTransform) (predictionTransform, error) {
	switch t {
	case format.TransformDelta:
		return &deltaTransform{}, nil
	case format.TransformWrap:
		return &wrapTransform{}, nil
	case format.TransformNormalOctahedron:
		return &octahedronTransform{}, nil
	case format.TransformNormalOctahedronCanonicalized:
		return &octahedronCanonicalizedTransform{}, nil
	default:
		return nil, errs.Unsupported(0, "prediction transform "+t.String())
	}
}

// deltaTransform adds corrections to predictions with no bounds handling.
type deltaTransform struct{}

func (*deltaTransform) Type() format.PredictionTransform { return format.TransformDelta }

func (*deltaTransform) DecodeTransformData(*buffer.DecoderBuffer) error { return nil }

func (*deltaTransform) AreCorrectionsPositive() bool { return false }

func (*deltaTransform) ComputeOriginalValue(pred, corr, out []int32) {
	for i := range out {
		out[i] = pred[i] + corr[i]
	}
}

// wrapTransform constrains reconstructed values into a decoded [min, max]
// interval: predictions are clamped into the interval and the sum wraps
// around it, mirroring the encoder's correction wrapping.
type wrapTransform struct {
	min, max int32
	maxDif   int32
}

func (*wrapTransform) Type() format.PredictionTransform { return format.TransformWrap }

func (t *wrapTransform) DecodeTransformData(buf *buffer.DecoderBuffer) error {
	minV, err := buf.DecodeInt32()
	if err != nil {
		return err
	}
	maxV, err := buf.DecodeInt32()
	if err != nil {
		return err
	}
	if minV > maxV {
		return errs.Corrupt(buf.Pos(), "wrap transform min above max")
	}
	t.min = minV
	t.max = maxV
	t.maxDif = maxV - minV + 1

	return nil
}

func (*wrapTransform) AreCorrectionsPositive() bool { return false }

func (t *wrapTransform) ComputeOriginalValue(pred, corr, out []int32) {
	for i := range out {
		p := pred[i]
		if p > t.max {
			p = t.max
		} else if p < t.min {
			p = t.min
		}
		v := p + corr[i]
		if v > t.max {
			v -= t.maxDif
		} else if v < t.min {
			v += t.maxDif
		}
		out[i] = v
	}
}

// octahedronTransform wraps (s, t) octahedral coordinates around the
// quantization diamond. Corrections are kept positive by the encoder.
type octahedronTransform struct {
	maxQuantized int32
	center       int32
}

func (*octahedronTransform) Type() format.PredictionTransform {
	return format.TransformNormalOctahedron
}

func (t *octahedronTransform) DecodeTransformData(buf *buffer.DecoderBuffer) error {
	maxQuantized, err := buf.DecodeInt32()
	if err != nil {
		return err
	}
	if maxQuantized <= 0 {
		return errs.Corrupt(buf.Pos(), "octahedron transform without quantization range")
	}
	t.maxQuantized = maxQuantized
	t.center = maxQuantized / 2

	return nil
}

func (*octahedronTransform) AreCorrectionsPositive() bool { return true }

// MaxQuantizedValue returns the quantization range of the transform.
func (t *octahedronTransform) MaxQuantizedValue() int32 { return t.maxQuantized }

// modMax wraps x into [-center, center].
func (t *octahedronTransform) modMax(x int32) int32 {
	if x > t.center {
		return x - t.maxQuantized
	}
	if x < -t.center {
		return x + t.maxQuantized
	}

	return x
}

func (t *octahedronTransform) isInDiamond(s, tt int32) bool {
	return abs32(s)+abs32(tt) <= t.center
}

// invertDiamond reflects between the interior and exterior of the diamond
// through the quadrant corner. The map is its own inverse on canonical
// coordinates, which keeps the encoder and decoder symmetric. The border
// points with s = center and t < 0, t = center and s < 0, s = -center and
// t > 0, or t = -center and s > 0, and the corner (-center, -center), share
// their image with a canonical border point and unfold onto that point.
func (t *octahedronTransform) invertDiamond(s, tt *int32) {
	signS, signT := int32(1), int32(1)
	switch {
	case *s >= 0 && *tt >= 0:
	case *s <= 0 && *tt <= 0:
		signS, signT = -1, -1
	default:
		if *s <= 0 {
			signS = -1
		}
		if *tt <= 0 {
			signT = -1
		}
	}
	cornerS := signS * t.center
	cornerT := signT * t.center
	*s = 2**s - cornerS
	*tt = 2**tt - cornerT
	if signS*signT >= 0 {
		*s, *tt = -*tt, -*s
	} else {
		*s, *tt = *tt, *s
	}
	*s = (*s + cornerS) / 2
	*tt = (*tt + cornerT) / 2
}

func (t *octahedronTransform) ComputeOriginalValue(pred, corr, out []int32) {
	s := pred[0] - t.center
	tt := pred[1] - t.center
	inDiamond := t.isInDiamond(s, tt)
	if !inDiamond {
		t.invertDiamond(&s, &tt)
	}
	s = t.modMax(s + corr[0])
	tt = t.modMax(tt + corr[1])
	if !inDiamond {
		t.invertDiamond(&s, &tt)
	}
	out[0] = s + t.center
	out[1] = tt + t.center
}

// octahedronCanonicalizedTransform additionally rotates predictions into the
// bottom-left quadrant so corrections become rotation invariant.
type octahedronCanonicalizedTransform struct {
	octahedronTransform
}

func (*octahedronCanonicalizedTransform) Type() format.PredictionTransform {
	return format.TransformNormalOctahedronCanonicalized
}

func (t *octahedronCanonicalizedTransform) isInBottomLeft(s, tt int32) bool {
	if s == 0 && tt == 0 {
		return true
	}

	return s < 0 && tt <= 0
}

func (t *octahedronCanonicalizedTransform) rotationCount(s, tt int32) int32 {
	switch {
	case s == 0:
		if tt == 0 {
			return 0
		}
		if tt > 0 {
			return 3
		}
		return 1
	case s > 0:
		if tt >= 0 {
			return 2
		}
		return 1
	default:
		if tt <= 0 {
			return 0
		}
		return 3
	}
}

func rotatePoint(s, tt, count int32) (int32, int32) {
	switch count {
	case 1:
		return tt, -s
	case 2:
		return -s, -tt
	case 3:
		return -tt, s
	default:
		return s, tt
	}
}

func (t *octahedronCanonicalizedTransform) ComputeOriginalValue(pred, corr, out []int32) {
	s := pred[0] - t.center
	tt := pred[1] - t.center

	inDiamond := t.isInDiamond(s, tt)
	if !inDiamond {
		t.invertDiamond(&s, &tt)
	}
	inBottomLeft := t.isInBottomLeft(s, tt)
	rotation := t.rotationCount(s, tt)
	if !inBottomLeft {
		s, tt = rotatePoint(s, tt, rotation)
	}

	s = t.modMax(s + corr[0])
	tt = t.modMax(tt + corr[1])

	if !inBottomLeft {
		s, tt = rotatePoint(s, tt, (4-rotation)%4)
	}
	if !inDiamond {
		t.invertDiamond(&s, &tt)
	}
	out[0] = s + t.center
	out[1] = tt + t.center
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}

	return v
}
