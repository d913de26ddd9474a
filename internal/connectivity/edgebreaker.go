package connectivity

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
)

// Topology split edges.
const (
	leftFaceEdge  uint8 = 0
	rightFaceEdge uint8 = 1
)

// topologySplitEvent records that the encoder split the traversal at
// sourceSymbolID, creating a second active edge consumed by the S symbol at
// splitSymbolID. Both ids are in encoder symbol order.
type topologySplitEvent struct {
	splitSymbolID  int
	sourceSymbolID int
	sourceEdge     uint8
}

// edgebreaker reconstructs a corner table from a CLERS symbol stream in
// reverse encoding order (Spirale Reversi).
type edgebreaker struct {
	ct        *geometry.CornerTable
	traversal traversalDecoder

	numEncodedVertices int
	numFaces           int
	numSymbols         int
	numSplitSymbols    int
	numAttributeData   int

	isVertHole []bool

	// splitEvents is sorted by sourceSymbolID; events are popped from the
	// back as the decoder walks encoder symbol ids downward.
	splitEvents []topologySplitEvent
	// splitActiveCorners maps decoder symbol ids of pending S symbols to the
	// extra active edge their split re-opens.
	splitActiveCorners map[int]int32

	attributeData []*AttributeData
}

// DecodeEdgebreaker decodes an edgebreaker connectivity block: traversal
// type, counts, topology split events, the CLERS stream, start faces and
// attribute seams, producing the corner table and point mapping.
func DecodeEdgebreaker(buf *buffer.DecoderBuffer) (*DecodedMesh, error) {
	traversalType, err := buf.DecodeUint8()
	if err != nil {
		return nil, err
	}

	e := &edgebreaker{splitActiveCorners: make(map[int]int32)}
	switch traversalType {
	case format.EdgebreakerStandard:
		e.traversal = &standardTraversal{}
	case format.EdgebreakerValence:
		e.traversal = &valenceTraversal{}
	default:
		return nil, errs.Unsupported(buf.Pos(), "predictive edgebreaker traversal")
	}

	if err := e.decodeHeaderCounts(buf); err != nil {
		return nil, err
	}

	if buf.Version() < format.V2_2 {
		return e.decodeConnectivityLegacy(buf)
	}

	if err := e.decodeTopologySplits(buf); err != nil {
		return nil, err
	}

	return e.decodeConnectivityBody(buf)
}

// decodeHeaderCounts reads the vertex/face/symbol counts, version-gated
// between varint (2.0+) and uint32 layouts.
func (e *edgebreaker) decodeHeaderCounts(buf *buffer.DecoderBuffer) error {
	readCount := func() (uint32, error) { return buf.DecodeVarintUint32() }
	if buf.Version() < format.V2_0 {
		readCount = func() (uint32, error) { return buf.DecodeUint32() }
	}

	if buf.Version() < format.V2_2 {
		// num_new_vertices: unused by the decoder since 2.2 removed it.
		if _, err := readCount(); err != nil {
			return err
		}
	}

	numVertices, err := readCount()
	if err != nil {
		return err
	}
	numFaces, err := readCount()
	if err != nil {
		return err
	}
	if uint64(numFaces) > maxDecodableFaces {
		return errs.Corruptf(buf.Pos(), "face count %d exceeds sanity bound", numFaces)
	}
	numAttData, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	numSymbols, err := readCount()
	if err != nil {
		return err
	}
	if numSymbols > numFaces {
		return errs.Corrupt(buf.Pos(), "more CLERS symbols than faces")
	}
	numSplits, err := readCount()
	if err != nil {
		return err
	}
	if numSplits > numSymbols {
		return errs.Corrupt(buf.Pos(), "more split symbols than CLERS symbols")
	}

	e.numEncodedVertices = int(numVertices)
	e.numFaces = int(numFaces)
	e.numSymbols = int(numSymbols)
	e.numSplitSymbols = int(numSplits)
	e.numAttributeData = int(numAttData)

	return nil
}

// decodeTopologySplits reads the split-event table. From 2.2 the ids are
// delta-varint coded with a trailing bit section of source edges.
func (e *edgebreaker) decodeTopologySplits(buf *buffer.DecoderBuffer) error {
	numSplits, err := buf.DecodeVarintUint32()
	if err != nil {
		return err
	}
	if int(numSplits) > e.numSymbols {
		return errs.Corrupt(buf.Pos(), "more topology splits than symbols")
	}
	if numSplits == 0 {
		return nil
	}

	e.splitEvents = make([]topologySplitEvent, numSplits)
	lastSource := 0
	for i := range e.splitEvents {
		deltaSource, err := buf.DecodeVarintUint32()
		if err != nil {
			return err
		}
		source := lastSource + int(deltaSource)
		deltaSplit, err := buf.DecodeVarintUint32()
		if err != nil {
			return err
		}
		if int(deltaSplit) > source {
			return errs.Corrupt(buf.Pos(), "split symbol precedes stream start")
		}
		e.splitEvents[i] = topologySplitEvent{
			sourceSymbolID: source,
			splitSymbolID:  source - int(deltaSplit),
		}
		lastSource = source
	}

	if _, err := buf.StartBitDecoding(false); err != nil {
		return err
	}
	for i := range e.splitEvents {
		bit, err := buf.DecodeBit()
		if err != nil {
			return err
		}
		e.splitEvents[i].sourceEdge = uint8(bit & 1)
	}
	buf.EndBitDecoding()

	return nil
}

// decodeTopologySplitsLegacy reads the pre-2.2 event table: absolute ids and
// one edge byte per event, followed by the hole-event table.
func (e *edgebreaker) decodeTopologySplitsLegacy(buf *buffer.DecoderBuffer) error {
	readCount := func() (uint32, error) { return buf.DecodeVarintUint32() }
	if buf.Version() < format.V2_0 {
		readCount = func() (uint32, error) { return buf.DecodeUint32() }
	}

	numSplits, err := readCount()
	if err != nil {
		return err
	}
	if int(numSplits) > e.numSymbols {
		return errs.Corrupt(buf.Pos(), "more topology splits than symbols")
	}
	e.splitEvents = make([]topologySplitEvent, numSplits)
	for i := range e.splitEvents {
		splitID, err := readCount()
		if err != nil {
			return err
		}
		sourceID, err := readCount()
		if err != nil {
			return err
		}
		edgeData, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		e.splitEvents[i] = topologySplitEvent{
			splitSymbolID:  int(splitID),
			sourceSymbolID: int(sourceID),
			sourceEdge:     edgeData & 1,
		}
	}

	// Hole events exist only before 2.2; the reconstruction derives holes
	// from unmatched boundaries, so the table only needs skipping.
	var numHoles uint32
	if buf.Version() < format.V2_1 {
		numHoles, err = buf.DecodeUint32()
	} else {
		numHoles, err = buf.DecodeVarintUint32()
	}
	if err != nil {
		return err
	}
	for i := uint32(0); i < numHoles; i++ {
		if buf.Version() < format.V2_0 {
			if _, err := buf.DecodeUint32(); err != nil {
				return err
			}
		} else if _, err := buf.DecodeVarintUint32(); err != nil {
			return err
		}
	}

	return nil
}

// decodeConnectivityLegacy handles pre-2.2 streams, where the split and hole
// events trail the sized connectivity block instead of preceding it.
func (e *edgebreaker) decodeConnectivityLegacy(buf *buffer.DecoderBuffer) (*DecodedMesh, error) {
	connectivitySize, err := buf.DecodeUint32()
	if err != nil {
		return nil, err
	}
	if connectivitySize == 0 || int(connectivitySize) > buf.Remaining() {
		return nil, errs.Corrupt(buf.Pos(), "invalid encoded connectivity size")
	}

	tail := buf.RemainingBytes()
	eventBuf := buffer.New(tail[connectivitySize:], buf.Version())
	if err := e.decodeTopologySplitsLegacy(eventBuf); err != nil {
		return nil, err
	}

	connBuf := buffer.New(tail[:connectivitySize], buf.Version())
	mesh, err := e.decodeConnectivityBody(connBuf)
	if err != nil {
		return nil, err
	}
	if err := buf.Advance(int(connectivitySize) + eventBuf.Pos()); err != nil {
		return nil, err
	}

	return mesh, nil
}

// decodeConnectivityBody runs the traversal decoder and the Spirale Reversi
// reconstruction, then resolves start faces, attribute seams and points.
func (e *edgebreaker) decodeConnectivityBody(buf *buffer.DecoderBuffer) (*DecodedMesh, error) {
	maxVertices := e.numEncodedVertices + e.numSplitSymbols
	e.ct = geometry.NewCornerTable(e.numFaces, maxVertices)
	e.isVertHole = make([]bool, 0, maxVertices)

	if err := e.traversal.Start(buf, e.numSymbols, e.numAttributeData); err != nil {
		return nil, err
	}

	numFacesBuilt, activeStack, err := e.decodeSymbols(buf)
	if err != nil {
		return nil, err
	}

	numFacesBuilt, err = e.decodeStartFaces(buf, numFacesBuilt, activeStack)
	if err != nil {
		return nil, err
	}
	if numFacesBuilt != e.numFaces {
		return nil, errs.Corruptf(buf.Pos(), "reconstructed %d faces, stream declared %d", numFacesBuilt, e.numFaces)
	}
	if e.ct.NumVertices() > maxVertices {
		return nil, errs.Corrupt(buf.Pos(), "reconstruction exceeded declared vertex budget")
	}

	e.ct.RecomputeLeftMostCorners()

	if err := e.decodeAttributeSeams(buf); err != nil {
		return nil, err
	}

	return e.assignPointsToCorners()
}

// addVertex grows the vertex bookkeeping in lockstep with the corner table.
func (e *edgebreaker) addVertex() int32 {
	v := e.ct.AddNewVertex()
	e.isVertHole = append(e.isVertHole, true)

	return v
}

// decodeSymbols glues one triangle per CLERS symbol onto the active gate.
func (e *edgebreaker) decodeSymbols(buf *buffer.DecoderBuffer) (int, []int32, error) {
	corrupt := func(msg string) error { return errs.Corrupt(buf.Pos(), msg) }

	var activeStack []int32
	numFacesBuilt := 0

	for symbolID := 0; symbolID < e.numSymbols; symbolID++ {
		symbol, err := e.traversal.DecodeSymbol()
		if err != nil {
			return 0, nil, err
		}
		face := int32(numFacesBuilt)
		numFacesBuilt++
		corner := 3 * face

		switch symbol {
		case symC:
			if len(activeStack) == 0 {
				return 0, nil, corrupt("C symbol with no active gate")
			}
			cornerA := activeStack[len(activeStack)-1]
			vertexX := e.ct.Vertex(e.ct.Next(cornerA))
			cornerB := e.ct.Next(e.ct.LeftMostCorner(vertexX))
			if cornerA == cornerB {
				return 0, nil, corrupt("C symbol gates collapse onto one corner")
			}
			if e.ct.Opposite(cornerA) != geometry.InvalidIndex || e.ct.Opposite(cornerB) != geometry.InvalidIndex {
				return 0, nil, corrupt("C symbol gate already closed")
			}
			e.ct.SetOppositeCorners(cornerA, corner+1)
			e.ct.SetOppositeCorners(cornerB, corner+2)

			vertAPrev := e.ct.Vertex(e.ct.Previous(cornerA))
			vertBNext := e.ct.Vertex(e.ct.Next(cornerB))
			if vertexX == vertAPrev || vertexX == vertBNext {
				return 0, nil, corrupt("C symbol creates non-manifold vertex")
			}
			e.ct.MapCornerToVertex(corner, vertexX)
			e.ct.MapCornerToVertex(corner+1, vertBNext)
			e.ct.MapCornerToVertex(corner+2, vertAPrev)
			e.ct.SetLeftMostCorner(vertAPrev, corner+2)
			e.isVertHole[vertexX] = false
			activeStack[len(activeStack)-1] = corner

		case symR, symL:
			if len(activeStack) == 0 {
				return 0, nil, corrupt("R/L symbol with no active gate")
			}
			cornerA := activeStack[len(activeStack)-1]
			if e.ct.Opposite(cornerA) != geometry.InvalidIndex {
				return 0, nil, corrupt("R/L symbol gate already closed")
			}

			var oppCorner, cornerL, cornerR int32
			if symbol == symR {
				// The gate edge is on the right of the new face.
				oppCorner = corner + 2
				cornerL = corner + 1
				cornerR = corner
			} else {
				oppCorner = corner + 1
				cornerL = corner
				cornerR = corner + 2
			}
			e.ct.SetOppositeCorners(oppCorner, cornerA)

			newVert := e.addVertex()
			e.ct.MapCornerToVertex(oppCorner, newVert)
			e.ct.SetLeftMostCorner(newVert, oppCorner)

			vertexR := e.ct.Vertex(e.ct.Previous(cornerA))
			e.ct.MapCornerToVertex(cornerR, vertexR)
			e.ct.SetLeftMostCorner(vertexR, cornerR)
			e.ct.MapCornerToVertex(cornerL, e.ct.Vertex(e.ct.Next(cornerA)))
			activeStack[len(activeStack)-1] = corner

		case symS:
			if len(activeStack) == 0 {
				return 0, nil, corrupt("S symbol with no active gate")
			}
			cornerB := activeStack[len(activeStack)-1]
			activeStack = activeStack[:len(activeStack)-1]

			// A topology split may have parked a second gate for this
			// symbol; otherwise the split merges two gates from the stack.
			if parked, ok := e.splitActiveCorners[symbolID]; ok {
				activeStack = append(activeStack, parked)
				delete(e.splitActiveCorners, symbolID)
			}
			if len(activeStack) == 0 {
				return 0, nil, corrupt("S symbol with a single gate")
			}
			cornerA := activeStack[len(activeStack)-1]
			if cornerA == cornerB {
				return 0, nil, corrupt("S symbol gates collapse onto one corner")
			}
			if e.ct.Opposite(cornerA) != geometry.InvalidIndex || e.ct.Opposite(cornerB) != geometry.InvalidIndex {
				return 0, nil, corrupt("S symbol gate already closed")
			}

			e.ct.SetOppositeCorners(cornerA, corner+2)
			e.ct.SetOppositeCorners(cornerB, corner+1)

			vertexP := e.ct.Vertex(e.ct.Previous(cornerA))
			e.ct.MapCornerToVertex(corner, vertexP)
			e.ct.MapCornerToVertex(corner+1, e.ct.Vertex(e.ct.Next(cornerA)))
			vertBPrev := e.ct.Vertex(e.ct.Previous(cornerB))
			e.ct.MapCornerToVertex(corner+2, vertBPrev)
			e.ct.SetLeftMostCorner(vertBPrev, corner+2)

			// Merge the two gate vertices: every corner of the absorbed
			// vertex is remapped onto vertexP.
			cornerN := e.ct.Next(cornerB)
			vertexN := e.ct.Vertex(cornerN)
			if vertexP == vertexN {
				return 0, nil, corrupt("S symbol merges a vertex with itself")
			}
			e.traversal.MergeVertices(vertexP, vertexN)
			for steps := 0; cornerN != geometry.InvalidIndex; steps++ {
				if steps > e.ct.NumCorners() {
					return 0, nil, corrupt("S symbol merge walk does not terminate")
				}
				e.ct.MapCornerToVertex(cornerN, vertexP)
				cornerN = e.ct.SwingLeft(cornerN)
			}
			e.ct.MakeVertexIsolated(vertexN)
			activeStack[len(activeStack)-1] = corner

		case symE:
			first := e.addVertex()
			second := e.addVertex()
			third := e.addVertex()
			e.ct.MapCornerToVertex(corner, first)
			e.ct.MapCornerToVertex(corner+1, second)
			e.ct.MapCornerToVertex(corner+2, third)
			e.ct.SetLeftMostCorner(first, corner)
			e.ct.SetLeftMostCorner(second, corner+1)
			e.ct.SetLeftMostCorner(third, corner+2)
			activeStack = append(activeStack, corner)

		default:
			return 0, nil, corrupt("invalid CLERS symbol")
		}

		e.traversal.NewActiveCornerReached(e.ct, activeStack[len(activeStack)-1])

		// Re-open split gates whose source symbol was just processed. The
		// events are keyed by encoder symbol ids, which run backwards.
		encoderSymbolID := e.numSymbols - symbolID - 1
		for len(e.splitEvents) > 0 {
			last := e.splitEvents[len(e.splitEvents)-1]
			if last.sourceSymbolID > encoderSymbolID {
				return 0, nil, corrupt("topology split events out of order")
			}
			if last.sourceSymbolID != encoderSymbolID {
				break
			}
			e.splitEvents = e.splitEvents[:len(e.splitEvents)-1]

			decoderSplitID := e.numSymbols - last.splitSymbolID - 1
			top := activeStack[len(activeStack)-1]
			var newActive int32
			if last.sourceEdge == rightFaceEdge {
				newActive = e.ct.Next(top)
			} else {
				newActive = e.ct.Previous(top)
			}
			e.splitActiveCorners[decoderSplitID] = newActive
		}
	}

	return numFacesBuilt, activeStack, nil
}

// decodeStartFaces closes every remaining gate: an interior configuration
// adds one final face stitching the loop shut, a boundary configuration
// leaves the loop as a hole.
func (e *edgebreaker) decodeStartFaces(buf *buffer.DecoderBuffer, numFacesBuilt int, activeStack []int32) (int, error) {
	for len(activeStack) > 0 {
		corner := activeStack[len(activeStack)-1]
		activeStack = activeStack[:len(activeStack)-1]

		interior, err := e.traversal.DecodeStartFaceConfiguration()
		if err != nil {
			return 0, err
		}
		if !interior {
			continue // hole boundary: vertices stay marked as hole vertices
		}

		if numFacesBuilt >= e.numFaces {
			return 0, errs.Corrupt(buf.Pos(), "interior start face exceeds declared face count")
		}
		cornerA := corner
		vertN := e.ct.Vertex(e.ct.Next(cornerA))
		cornerB := e.ct.Next(e.ct.LeftMostCorner(vertN))
		vertX := e.ct.Vertex(e.ct.Next(cornerB))
		cornerC := e.ct.Next(e.ct.LeftMostCorner(vertX))
		if cornerA == cornerB || cornerA == cornerC || cornerB == cornerC {
			return 0, errs.Corrupt(buf.Pos(), "interior start face gates collapse")
		}
		vertP := e.ct.Vertex(e.ct.Next(cornerC))

		face := int32(numFacesBuilt)
		numFacesBuilt++
		newCorner := 3 * face
		e.ct.SetOppositeCorners(newCorner, cornerB)
		e.ct.SetOppositeCorners(newCorner+1, cornerC)
		e.ct.SetOppositeCorners(newCorner+2, cornerA)
		e.ct.MapCornerToVertex(newCorner, vertP)
		e.ct.MapCornerToVertex(newCorner+1, vertN)
		e.ct.MapCornerToVertex(newCorner+2, vertX)
		for ci := int32(0); ci < 3; ci++ {
			e.isVertHole[e.ct.Vertex(newCorner+ci)] = false
		}
	}

	return numFacesBuilt, nil
}

// decodeAttributeSeams reads one seam flag per interior edge per attribute
// data, in face order, and rebuilds each seam-aware corner table.
func (e *edgebreaker) decodeAttributeSeams(buf *buffer.DecoderBuffer) error {
	if e.numAttributeData == 0 {
		return nil
	}

	e.attributeData = make([]*AttributeData, e.numAttributeData)
	for i := range e.attributeData {
		e.attributeData[i] = &AttributeData{
			CornerTable: geometry.NewMeshAttributeCornerTable(e.ct),
			DecoderID:   -1,
		}
	}

	numCorners := int32(e.ct.NumCorners())
	for face := int32(0); face < numCorners/3; face++ {
		for k := int32(0); k < 3; k++ {
			c := 3*face + k
			opp := e.ct.Opposite(c)
			if opp == geometry.InvalidIndex {
				// Boundary edges are implicit seams; no flag is stored.
				for _, ad := range e.attributeData {
					ad.CornerTable.AddSeamEdge(c)
				}
				continue
			}
			if e.ct.Face(opp) < face {
				continue // seen from the other side already
			}
			for i, ad := range e.attributeData {
				isSeam, err := e.traversal.DecodeAttributeSeam(i)
				if err != nil {
					return err
				}
				if isSeam {
					ad.CornerTable.AddSeamEdge(c)
				}
			}
		}
	}

	for _, ad := range e.attributeData {
		ad.CornerTable.RecomputeVertices()
	}

	return nil
}

// assignPointsToCorners derives point ids. Without attribute seams points
// coincide with corner-table vertices; with seams, each seam-bounded fan
// around a vertex becomes its own point.
func (e *edgebreaker) assignPointsToCorners() (*DecodedMesh, error) {
	numCorners := e.ct.NumCorners()
	cornerToPoint := make([]uint32, numCorners)
	numPoints := 0

	if len(e.attributeData) == 0 {
		pointMap := make([]int32, e.ct.NumVertices())
		for i := range pointMap {
			pointMap[i] = geometry.InvalidIndex
		}
		for v := int32(0); v < int32(e.ct.NumVertices()); v++ {
			if e.ct.LeftMostCorner(v) != geometry.InvalidIndex {
				pointMap[v] = int32(numPoints)
				numPoints++
			}
		}
		for c := 0; c < numCorners; c++ {
			v := e.ct.Vertex(int32(c))
			if v == geometry.InvalidIndex || pointMap[v] == geometry.InvalidIndex {
				return nil, errs.Internal(0, "corner without vertex after reconstruction")
			}
			cornerToPoint[c] = uint32(pointMap[v])
		}
	} else {
		assigned := make([]bool, numCorners)
		isSeamCrossing := func(c int32) bool {
			for _, ad := range e.attributeData {
				if ad.CornerTable.IsCornerOppositeToSeamEdge(c) {
					return true
				}
			}
			return false
		}
		for v := int32(0); v < int32(e.ct.NumVertices()); v++ {
			c := e.ct.LeftMostCorner(v)
			if c == geometry.InvalidIndex {
				continue
			}
			start := e.ringStart(c, isSeamCrossing)
			cornerToPoint[start] = uint32(numPoints)
			numPoints++
			assigned[start] = true
			prev := start
			act := e.ct.SwingLeft(start)
			for act != geometry.InvalidIndex && act != start {
				if isSeamCrossing(e.ct.Previous(act)) {
					cornerToPoint[act] = uint32(numPoints)
					numPoints++
				} else {
					cornerToPoint[act] = cornerToPoint[prev]
				}
				assigned[act] = true
				prev = act
				act = e.ct.SwingLeft(act)
			}
		}
		for c := range assigned {
			if !assigned[c] {
				return nil, errs.Internal(0, "corner missed during point assignment")
			}
		}
	}

	faces := make([][3]uint32, numCorners/3)
	for f := range faces {
		faces[f] = [3]uint32{cornerToPoint[3*f], cornerToPoint[3*f+1], cornerToPoint[3*f+2]}
	}

	return &DecodedMesh{
		CornerTable:   e.ct,
		CornerToPoint: cornerToPoint,
		Faces:         faces,
		NumPoints:     numPoints,
		AttributeData: e.attributeData,
		IsVertexHole:  e.isVertHole,
	}, nil
}

// ringStart finds the corner to begin the point-assignment walk from: the
// clockwise-most corner of an open ring, or for a closed ring the first
// corner past a seam crossing (any corner when the ring is seam-free).
func (e *edgebreaker) ringStart(c int32, isSeamCrossing func(int32) bool) int32 {
	start := c
	maxSteps := e.ct.NumCorners()
	closed := false
	for steps := 0; steps < maxSteps; steps++ {
		act := e.ct.SwingRight(start)
		if act == geometry.InvalidIndex {
			return start
		}
		if act == c {
			closed = true
			break
		}
		start = act
	}
	if !closed {
		return start
	}

	act := c
	for steps := 0; steps < maxSteps; steps++ {
		if isSeamCrossing(e.ct.Previous(act)) {
			return act
		}
		act = e.ct.SwingLeft(act)
		if act == c || act == geometry.InvalidIndex {
			break
		}
	}

	return c
}
