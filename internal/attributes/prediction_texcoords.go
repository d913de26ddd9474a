package attributes

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/internal/entropy"
)

// texCoordsPortableScheme predicts UV coordinates from the already decoded
// 3D positions of the containing triangle and the UVs of its two other
// corners. The arithmetic is fixed point throughout so every decoder
// reconstructs bit-identical values.
type texCoordsPortableScheme struct {
	transform     predictionTransform
	mesh          *MeshData
	cornerToPoint []uint32

	positions []int32
	posIndex  func(uint32) uint32

	orientations   []bool
	orientationPos int
}

func (s *texCoordsPortableScheme) Method() format.PredictionMethod {
	return format.PredictionTexCoordsPortable
}

func (s *texCoordsPortableScheme) Transform() predictionTransform { return s.transform }

// SetParentPositions wires in the portable integer positions the predictor
// projects against.
func (s *texCoordsPortableScheme) SetParentPositions(positions []int32, posIndexForPoint func(uint32) uint32) {
	s.positions = positions
	s.posIndex = posIndexForPoint
}

func (s *texCoordsPortableScheme) DecodePredictionData(buf *buffer.DecoderBuffer) error {
	numOrientations, err := buf.DecodeUint32()
	if err != nil {
		return err
	}
	if int(numOrientations) > buf.Remaining()*8 {
		return errs.Corrupt(buf.Pos(), "orientation count exceeds stream size")
	}
	s.orientations = make([]bool, numOrientations)

	// Orientations are delta coded against the previous one.
	last := true
	var dec entropy.RAnsBitDecoder
	if err := dec.StartDecoding(buf); err != nil {
		return err
	}
	for i := range s.orientations {
		if dec.DecodeNextBit() {
			last = !last
		}
		s.orientations[i] = last
	}
	dec.EndDecoding()

	return s.transform.DecodeTransformData(buf)
}

func (s *texCoordsPortableScheme) positionForCorner(corner int32) [3]int64 {
	point := s.cornerToPoint[corner]
	idx := int(s.posIndex(point)) * 3

	return [3]int64{int64(s.positions[idx]), int64(s.positions[idx+1]), int64(s.positions[idx+2])}
}

func (s *texCoordsPortableScheme) ComputeOriginalValues(corr, out []int32, numComponents int) error {
	if numComponents != 2 {
		return errs.Internal(0, "texture coordinate prediction needs two components")
	}
	if s.positions == nil {
		return errs.Corrupt(0, "texture coordinate prediction without position attribute")
	}
	numValues := len(out) / 2

	var pred [2]int32
	for p := 0; p < numValues; p++ {
		if err := s.computePredictedValue(p, out, &pred); err != nil {
			return err
		}
		dst := p * 2
		s.transform.ComputeOriginalValue(pred[:], corr[dst:dst+2], out[dst:dst+2])
	}

	return nil
}

// computePredictedValue projects the tip position onto the prev-next edge of
// the triangle and offsets perpendicular by the matching UV distance. When
// the neighboring UVs are not decoded yet it degrades to delta coding.
func (s *texCoordsPortableScheme) computePredictedValue(p int, uvData []int32, pred *[2]int32) error {
	corner := s.mesh.DataToCorner[p]
	nextCorner := s.mesh.Corner.Next(corner)
	prevCorner := s.mesh.Corner.Previous(corner)
	nextData := int32(-1)
	prevData := int32(-1)
	if v := s.mesh.Corner.Vertex(nextCorner); v >= 0 {
		nextData = s.mesh.VertexToData[v]
	}
	if v := s.mesh.Corner.Vertex(prevCorner); v >= 0 {
		prevData = s.mesh.VertexToData[v]
	}

	if nextData < 0 || prevData < 0 || int(nextData) >= p || int(prevData) >= p {
		// Neighbors not decoded yet: delta from the previous entry.
		if p > 0 {
			pred[0] = uvData[(p-1)*2]
			pred[1] = uvData[(p-1)*2+1]
		} else {
			pred[0], pred[1] = 0, 0
		}
		return nil
	}

	nUV := [2]int64{int64(uvData[nextData*2]), int64(uvData[nextData*2+1])}
	pUV := [2]int64{int64(uvData[prevData*2]), int64(uvData[prevData*2+1])}
	if nUV == pUV {
		pred[0] = int32(pUV[0])
		pred[1] = int32(pUV[1])
		return nil
	}

	tipPos := s.positionForCorner(corner)
	nextPos := s.positionForCorner(nextCorner)
	prevPos := s.positionForCorner(prevCorner)

	pn := [3]int64{prevPos[0] - nextPos[0], prevPos[1] - nextPos[1], prevPos[2] - nextPos[2]}
	pnNorm2 := pn[0]*pn[0] + pn[1]*pn[1] + pn[2]*pn[2]
	if pnNorm2 == 0 {
		pred[0] = int32(pUV[0])
		pred[1] = int32(pUV[1])
		return nil
	}

	cn := [3]int64{tipPos[0] - nextPos[0], tipPos[1] - nextPos[1], tipPos[2] - nextPos[2]}
	cnDotPn := pn[0]*cn[0] + pn[1]*cn[1] + pn[2]*cn[2]
	pnUV := [2]int64{pUV[0] - nUV[0], pUV[1] - nUV[1]}

	xUV := [2]int64{
		nUV[0]*pnNorm2 + cnDotPn*pnUV[0],
		nUV[1]*pnNorm2 + cnDotPn*pnUV[1],
	}
	xPos := [3]int64{
		nextPos[0] + cnDotPn*pn[0]/pnNorm2,
		nextPos[1] + cnDotPn*pn[1]/pnNorm2,
		nextPos[2] + cnDotPn*pn[2]/pnNorm2,
	}
	pc := [3]int64{tipPos[0] - xPos[0], tipPos[1] - xPos[1], tipPos[2] - xPos[2]}
	pcNorm2 := uint64(pc[0]*pc[0] + pc[1]*pc[1] + pc[2]*pc[2])

	normSq := int64(intSqrt(pcNorm2 * uint64(pnNorm2)))
	perp := [2]int64{pnUV[1], -pnUV[0]}

	if s.orientationPos >= len(s.orientations) {
		return errs.Corrupt(0, "orientation stream exhausted")
	}
	orientation := s.orientations[s.orientationPos]
	s.orientationPos++

	var predV [2]int64
	if orientation {
		predV[0] = (xUV[0] + perp[0]*normSq) / pnNorm2
		predV[1] = (xUV[1] + perp[1]*normSq) / pnNorm2
	} else {
		predV[0] = (xUV[0] - perp[0]*normSq) / pnNorm2
		predV[1] = (xUV[1] - perp[1]*normSq) / pnNorm2
	}
	pred[0] = int32(predV[0])
	pred[1] = int32(predV[1])

	return nil
}
