package attributes

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/internal/entropy"
)

// predictionScheme reconstructs original portable integers from decoded
// corrections. DecodePredictionData runs during phase 2 after the symbol
// stream; ComputeOriginalValues runs once per attribute with corrections in
// encoder order.
type predictionScheme interface {
	Method() format.PredictionMethod
	Transform() predictionTransform
	// DecodePredictionData reads scheme side data plus transform data.
	DecodePredictionData(buf *buffer.DecoderBuffer) error
	// ComputeOriginalValues turns corrections into original values in
	// place-independent buffers sized numValues*numComponents.
	ComputeOriginalValues(corr []int32, out []int32, numComponents int) error
}

// parentAttributeConsumer is implemented by schemes that predict from
// another attribute's portable values (positions).
type parentAttributeConsumer interface {
	SetParentPositions(positions []int32, posIndexForPoint func(uint32) uint32)
}

// newPredictionScheme builds the scheme selected by the bitstream, wiring in
// the mesh data the parallelogram family needs. Mesh-only schemes on a
// point-cloud stream degrade to the difference scheme, matching the
// reference decoder.
func newPredictionScheme(method format.PredictionMethod, transformType format.PredictionTransform,
	seq *PointsSequence, buf *buffer.DecoderBuffer) (predictionScheme, error) {
	transform, err := newPredictionTransform(transformType)
	if err != nil {
		return nil, err
	}

	if method != format.PredictionDifference && !seq.MeshData.Valid() {
		method = format.PredictionDifference
	}

	switch method {
	case format.PredictionDifference:
		return &differenceScheme{transform: transform}, nil
	case format.PredictionParallelogram:
		return &parallelogramScheme{transform: transform, mesh: seq.MeshData}, nil
	case format.PredictionMultiParallelogram:
		if buf.Version() >= format.V2_2 {
			return nil, errs.Unsupported(buf.Pos(), "multi-parallelogram prediction removed in 2.2")
		}
		return &multiParallelogramScheme{transform: transform, mesh: seq.MeshData}, nil
	case format.PredictionConstrainedMultiParallelogram:
		return &constrainedMultiScheme{transform: transform, mesh: seq.MeshData}, nil
	case format.PredictionTexCoordsPortable:
		return &texCoordsPortableScheme{transform: transform, mesh: seq.MeshData, cornerToPoint: seq.CornerToPoint}, nil
	case format.PredictionGeometricNormal:
		return &geometricNormalScheme{transform: transform, mesh: seq.MeshData, cornerToPoint: seq.CornerToPoint}, nil
	default:
		return nil, errs.Unsupported(buf.Pos(), "prediction scheme "+method.String())
	}
}

// differenceScheme predicts each value from the previous one; the first
// value is predicted as zero.
type differenceScheme struct {
	transform predictionTransform
}

func (s *differenceScheme) Method() format.PredictionMethod { return format.PredictionDifference }

func (s *differenceScheme) Transform() predictionTransform { return s.transform }

func (s *differenceScheme) DecodePredictionData(buf *buffer.DecoderBuffer) error {
	return s.transform.DecodeTransformData(buf)
}

func (s *differenceScheme) ComputeOriginalValues(corr, out []int32, numComponents int) error {
	if len(out) == 0 {
		return nil
	}
	zero := make([]int32, numComponents)
	s.transform.ComputeOriginalValue(zero, corr[:numComponents], out[:numComponents])
	for i := numComponents; i < len(out); i += numComponents {
		s.transform.ComputeOriginalValue(out[i-numComponents:i], corr[i:i+numComponents], out[i:i+numComponents])
	}

	return nil
}

// computeParallelogram predicts the value at data entry p reached through
// corner ci as next + prev - opposite across the neighboring face. Returns
// false when the face or any of its values is not decoded yet.
func computeParallelogram(p int, ci int32, mesh *MeshData, data []int32, numComponents int, pred []int32) bool {
	oci := mesh.Corner.Opposite(ci)
	if oci < 0 {
		return false
	}
	vertOpp := mesh.VertexToData[mesh.Corner.Vertex(oci)]
	vertNext := mesh.VertexToData[mesh.Corner.Vertex(mesh.Corner.Next(oci))]
	vertPrev := mesh.VertexToData[mesh.Corner.Vertex(mesh.Corner.Previous(oci))]
	if vertOpp < 0 || vertNext < 0 || vertPrev < 0 {
		return false
	}
	if int(vertOpp) >= p || int(vertNext) >= p || int(vertPrev) >= p {
		return false
	}
	oppOff := int(vertOpp) * numComponents
	nextOff := int(vertNext) * numComponents
	prevOff := int(vertPrev) * numComponents
	for c := 0; c < numComponents; c++ {
		pred[c] = data[nextOff+c] + data[prevOff+c] - data[oppOff+c]
	}

	return true
}

// parallelogramScheme predicts across the opposite face of the corner each
// value was reached through, falling back to delta coding on boundaries.
type parallelogramScheme struct {
	transform predictionTransform
	mesh      *MeshData
}

func (s *parallelogramScheme) Method() format.PredictionMethod {
	return format.PredictionParallelogram
}

func (s *parallelogramScheme) Transform() predictionTransform { return s.transform }

func (s *parallelogramScheme) DecodePredictionData(buf *buffer.DecoderBuffer) error {
	return s.transform.DecodeTransformData(buf)
}

func (s *parallelogramScheme) ComputeOriginalValues(corr, out []int32, numComponents int) error {
	if len(out) == 0 {
		return nil
	}
	numValues := len(out) / numComponents
	if len(s.mesh.DataToCorner) < numValues {
		return errs.Internal(0, "parallelogram corner map smaller than value count")
	}

	pred := make([]int32, numComponents)
	s.transform.ComputeOriginalValue(pred, corr[:numComponents], out[:numComponents])
	for p := 1; p < numValues; p++ {
		dst := p * numComponents
		ci := s.mesh.DataToCorner[p]
		if computeParallelogram(p, ci, s.mesh, out, numComponents, pred) {
			s.transform.ComputeOriginalValue(pred, corr[dst:dst+numComponents], out[dst:dst+numComponents])
		} else {
			src := dst - numComponents
			s.transform.ComputeOriginalValue(out[src:dst], corr[dst:dst+numComponents], out[dst:dst+numComponents])
		}
	}

	return nil
}

// maxNumParallelograms bounds how many neighboring faces contribute to one
// multi-parallelogram prediction.
const maxNumParallelograms = 4

// gatherParallelograms accumulates up to maxNumParallelograms predictions
// around the vertex of the start corner, walking left first and then right.
func gatherParallelograms(p int, startCorner int32, mesh *MeshData, data []int32, numComponents int,
	preds [][]int32) int {
	num := 0
	corner := startCorner
	firstPass := true
	for corner >= 0 {
		if computeParallelogram(p, corner, mesh, data, numComponents, preds[num]) {
			num++
			if num == maxNumParallelograms {
				break
			}
		}
		if firstPass {
			corner = mesh.Corner.SwingLeft(corner)
		} else {
			corner = mesh.Corner.SwingRight(corner)
		}
		if corner == startCorner {
			break
		}
		if corner < 0 && firstPass {
			firstPass = false
			corner = mesh.Corner.SwingRight(startCorner)
		}
	}

	return num
}

// multiParallelogramScheme averages every available parallelogram around the
// target vertex. Legacy scheme of pre-2.2 streams.
type multiParallelogramScheme struct {
	transform predictionTransform
	mesh      *MeshData
}

func (s *multiParallelogramScheme) Method() format.PredictionMethod {
	return format.PredictionMultiParallelogram
}

func (s *multiParallelogramScheme) Transform() predictionTransform { return s.transform }

func (s *multiParallelogramScheme) DecodePredictionData(buf *buffer.DecoderBuffer) error {
	return s.transform.DecodeTransformData(buf)
}

func (s *multiParallelogramScheme) ComputeOriginalValues(corr, out []int32, numComponents int) error {
	if len(out) == 0 {
		return nil
	}
	numValues := len(out) / numComponents

	preds := make([][]int32, maxNumParallelograms)
	for i := range preds {
		preds[i] = make([]int32, numComponents)
	}
	sum := make([]int64, numComponents)
	pred := make([]int32, numComponents)

	s.transform.ComputeOriginalValue(pred, corr[:numComponents], out[:numComponents])
	for p := 1; p < numValues; p++ {
		dst := p * numComponents
		num := gatherParallelograms(p, s.mesh.DataToCorner[p], s.mesh, out, numComponents, preds)
		if num == 0 {
			src := dst - numComponents
			s.transform.ComputeOriginalValue(out[src:dst], corr[dst:dst+numComponents], out[dst:dst+numComponents])
			continue
		}
		for c := range sum {
			sum[c] = 0
		}
		for i := 0; i < num; i++ {
			for c := 0; c < numComponents; c++ {
				sum[c] += int64(preds[i][c])
			}
		}
		for c := 0; c < numComponents; c++ {
			pred[c] = int32(sum[c] / int64(num))
		}
		s.transform.ComputeOriginalValue(pred, corr[dst:dst+numComponents], out[dst:dst+numComponents])
	}

	return nil
}

// constrainedMultiScheme is the multi-parallelogram variant where the
// encoder transmits, per parallelogram-count context, crease flags choosing
// which neighboring faces participate.
type constrainedMultiScheme struct {
	transform predictionTransform
	mesh      *MeshData

	isCreaseEdge [maxNumParallelograms][]bool
}

func (s *constrainedMultiScheme) Method() format.PredictionMethod {
	return format.PredictionConstrainedMultiParallelogram
}

func (s *constrainedMultiScheme) Transform() predictionTransform { return s.transform }

func (s *constrainedMultiScheme) DecodePredictionData(buf *buffer.DecoderBuffer) error {
	if buf.Version() < format.V2_2 {
		mode, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		// Only the optimal multi-parallelogram mode was ever written.
		if mode != 0 {
			return errs.Unsupported(buf.Pos(), "non-optimal constrained multi-parallelogram mode")
		}
	}

	for i := 0; i < maxNumParallelograms; i++ {
		numFlags, err := buf.DecodeVarintUint32()
		if err != nil {
			return err
		}
		if int(numFlags) > s.mesh.Corner.NumCorners() {
			return errs.Corrupt(buf.Pos(), "crease flag count exceeds corner count")
		}
		if numFlags > 0 {
			flags := make([]bool, numFlags)
			var dec entropy.RAnsBitDecoder
			if err := dec.StartDecoding(buf); err != nil {
				return err
			}
			for j := range flags {
				flags[j] = dec.DecodeNextBit()
			}
			dec.EndDecoding()
			s.isCreaseEdge[i] = flags
		}
	}

	return s.transform.DecodeTransformData(buf)
}

func (s *constrainedMultiScheme) ComputeOriginalValues(corr, out []int32, numComponents int) error {
	if len(out) == 0 {
		return nil
	}
	numValues := len(out) / numComponents

	preds := make([][]int32, maxNumParallelograms)
	for i := range preds {
		preds[i] = make([]int32, numComponents)
	}
	sum := make([]int64, numComponents)
	pred := make([]int32, numComponents)
	var creasePos [maxNumParallelograms]int

	s.transform.ComputeOriginalValue(pred, corr[:numComponents], out[:numComponents])
	for p := 1; p < numValues; p++ {
		dst := p * numComponents
		num := gatherParallelograms(p, s.mesh.DataToCorner[p], s.mesh, out, numComponents, preds)

		numUsed := 0
		if num > 0 {
			context := num - 1
			for c := range sum {
				sum[c] = 0
			}
			for i := 0; i < num; i++ {
				pos := creasePos[context]
				creasePos[context]++
				if pos >= len(s.isCreaseEdge[context]) {
					return errs.Corrupt(0, "crease flag stream exhausted")
				}
				if s.isCreaseEdge[context][pos] {
					continue
				}
				numUsed++
				for c := 0; c < numComponents; c++ {
					sum[c] += int64(preds[i][c])
				}
			}
		}

		if numUsed == 0 {
			src := dst - numComponents
			s.transform.ComputeOriginalValue(out[src:dst], corr[dst:dst+numComponents], out[dst:dst+numComponents])
			continue
		}
		for c := 0; c < numComponents; c++ {
			pred[c] = int32(sum[c] / int64(numUsed))
		}
		s.transform.ComputeOriginalValue(pred, corr[dst:dst+numComponents], out[dst:dst+numComponents])
	}

	return nil
}
