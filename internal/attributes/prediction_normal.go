package attributes

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/internal/entropy"
)

// maxQuantizedValueProvider is implemented by the octahedral transforms so
// normal prediction can share their quantization range.
type maxQuantizedValueProvider interface {
	MaxQuantizedValue() int32
}

// geometricNormalScheme predicts octahedron-coded normals from the geometry:
// the predicted normal of a vertex is the area-weighted sum of the cross
// products of its incident triangles, canonicalized onto the quantization
// diamond. A per-value flip bit corrects predictions pointing the wrong way.
type geometricNormalScheme struct {
	transform     predictionTransform
	mesh          *MeshData
	cornerToPoint []uint32

	positions []int32
	posIndex  func(uint32) uint32

	flipBits entropy.RAnsBitDecoder
}

func (s *geometricNormalScheme) Method() format.PredictionMethod {
	return format.PredictionGeometricNormal
}

func (s *geometricNormalScheme) Transform() predictionTransform { return s.transform }

// SetParentPositions wires in the portable integer positions the predictor
// derives face normals from.
func (s *geometricNormalScheme) SetParentPositions(positions []int32, posIndexForPoint func(uint32) uint32) {
	s.positions = positions
	s.posIndex = posIndexForPoint
}

func (s *geometricNormalScheme) DecodePredictionData(buf *buffer.DecoderBuffer) error {
	if err := s.transform.DecodeTransformData(buf); err != nil {
		return err
	}
	if buf.Version() < format.V2_2 {
		// Prediction mode byte; only the triangle-area mode was written.
		mode, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		if mode > 1 {
			return errs.Corrupt(buf.Pos(), "invalid geometric normal prediction mode")
		}
	}

	return s.flipBits.StartDecoding(buf)
}

func (s *geometricNormalScheme) positionForCorner(corner int32) [3]int64 {
	point := s.cornerToPoint[corner]
	idx := int(s.posIndex(point)) * 3

	return [3]int64{int64(s.positions[idx]), int64(s.positions[idx+1]), int64(s.positions[idx+2])}
}

// estimateNormal sums the cross products of all faces incident to the
// vertex of the given corner. Positions decode before normals, so every
// neighboring face contributes.
func (s *geometricNormalScheme) estimateNormal(corner int32) [3]int64 {
	var normal [3]int64
	view := s.mesh.Corner

	start := corner
	firstPass := true
	c := start
	for steps := 0; c >= 0 && steps < view.NumCorners(); steps++ {
		posCent := s.positionForCorner(c)
		posNext := s.positionForCorner(view.Next(c))
		posPrev := s.positionForCorner(view.Previous(c))
		deltaNext := [3]int64{posNext[0] - posCent[0], posNext[1] - posCent[1], posNext[2] - posCent[2]}
		deltaPrev := [3]int64{posPrev[0] - posCent[0], posPrev[1] - posCent[1], posPrev[2] - posCent[2]}
		normal[0] += deltaNext[1]*deltaPrev[2] - deltaNext[2]*deltaPrev[1]
		normal[1] += deltaNext[2]*deltaPrev[0] - deltaNext[0]*deltaPrev[2]
		normal[2] += deltaNext[0]*deltaPrev[1] - deltaNext[1]*deltaPrev[0]

		if firstPass {
			c = view.SwingLeft(c)
			if c == start {
				break
			}
			if c < 0 {
				firstPass = false
				c = view.SwingRight(start)
			}
		} else {
			c = view.SwingRight(c)
		}
	}

	// Bound the magnitude so octahedral canonicalization stays in int64.
	const upperBound = 1 << 29
	for absI64(normal[0]) > upperBound || absI64(normal[1]) > upperBound || absI64(normal[2]) > upperBound {
		normal[0] >>= 1
		normal[1] >>= 1
		normal[2] >>= 1
	}

	return normal
}

func (s *geometricNormalScheme) ComputeOriginalValues(corr, out []int32, numComponents int) error {
	if numComponents != 2 {
		return errs.Internal(0, "octahedral normal prediction needs two components")
	}
	if s.positions == nil {
		return errs.Corrupt(0, "geometric normal prediction without position attribute")
	}
	provider, ok := s.transform.(maxQuantizedValueProvider)
	if !ok {
		return errs.Corrupt(0, "geometric normal prediction needs an octahedral transform")
	}
	toolbox := newOctahedronToolBox(provider.MaxQuantizedValue())

	numValues := len(out) / 2
	var pred [2]int32
	for p := 0; p < numValues; p++ {
		normal := s.estimateNormal(s.mesh.DataToCorner[p])
		toolbox.canonicalizeIntegerVector(&normal)
		if s.flipBits.DecodeNextBit() {
			normal[0] = -normal[0]
			normal[1] = -normal[1]
			normal[2] = -normal[2]
		}
		pred[0], pred[1] = toolbox.integerVectorToQuantizedOctahedralCoords(normal)

		dst := p * 2
		s.transform.ComputeOriginalValue(pred[:], corr[dst:dst+2], out[dst:dst+2])
	}

	return nil
}
