package index

import (
	"encoding/binary"
	"math"
	"roadsnap/geo"
)

// TravelMode identifies how a segment may be traversed in one direction.
// Zero means the direction is inaccessible.
type TravelMode uint8

const (
	TravelModeInaccessible TravelMode = 0
	TravelModeDriving      TravelMode = 1
)

// SpecialNodeID marks a missing routing node, e.g. the reverse direction of
// a one-way street.
const SpecialNodeID uint32 = math.MaxUint32

// EdgeData is one road segment as stored in the leaf pages. The index only
// interprets U, V and IsInTinyCC; everything else is carried through to the
// routing engine untouched.
type EdgeData struct {
	U                      uint32
	V                      uint32
	ForwardEdgeBasedNodeID uint32
	ReverseEdgeBasedNodeID uint32
	ForwardWeight          int32
	ReverseWeight          int32
	ForwardOffset          int32
	ReverseOffset          int32
	NameID                 uint32
	PackedGeometryID       uint32
	FwdSegmentPosition     uint16
	ForwardTravelMode      TravelMode
	BackwardTravelMode     TravelMode
	IsInTinyCC             bool
}

/*
	Entry format (little endian, 48 bytes, part of the leaf file contract):

	Names: |  u  |  v  | fwdNode | revNode | fwdWeight | revWeight | fwdOffset | revOffset | name | geometry | fwdPos | fwdMode | revMode | tinyCC | padding |
	Bytes: |  4  |  4  |    4    |    4    |     4     |     4     |     4     |     4     |  4   |    4     |   2    |    1    |    1    |    1   |    3    |
*/
const edgeDataBytes = 48

// Centroid returns the midpoint of a segment's endpoints in fixed-point
// space.
func Centroid(u geo.Coordinate, v geo.Coordinate) geo.Coordinate {
	return geo.Coordinate{
		Lat: int32((int64(u.Lat) + int64(v.Lat)) / 2),
		Lon: int32((int64(u.Lon) + int64(v.Lon)) / 2),
	}
}

func encodeEdgeData(edge *EdgeData, data []byte) {
	binary.LittleEndian.PutUint32(data[0:], edge.U)
	binary.LittleEndian.PutUint32(data[4:], edge.V)
	binary.LittleEndian.PutUint32(data[8:], edge.ForwardEdgeBasedNodeID)
	binary.LittleEndian.PutUint32(data[12:], edge.ReverseEdgeBasedNodeID)
	binary.LittleEndian.PutUint32(data[16:], uint32(edge.ForwardWeight))
	binary.LittleEndian.PutUint32(data[20:], uint32(edge.ReverseWeight))
	binary.LittleEndian.PutUint32(data[24:], uint32(edge.ForwardOffset))
	binary.LittleEndian.PutUint32(data[28:], uint32(edge.ReverseOffset))
	binary.LittleEndian.PutUint32(data[32:], edge.NameID)
	binary.LittleEndian.PutUint32(data[36:], edge.PackedGeometryID)
	binary.LittleEndian.PutUint16(data[40:], edge.FwdSegmentPosition)
	data[42] = byte(edge.ForwardTravelMode)
	data[43] = byte(edge.BackwardTravelMode)
	if edge.IsInTinyCC {
		data[44] = 1
	} else {
		data[44] = 0
	}
	data[45] = 0
	data[46] = 0
	data[47] = 0
}

func decodeEdgeData(data []byte, edge *EdgeData) {
	edge.U = binary.LittleEndian.Uint32(data[0:])
	edge.V = binary.LittleEndian.Uint32(data[4:])
	edge.ForwardEdgeBasedNodeID = binary.LittleEndian.Uint32(data[8:])
	edge.ReverseEdgeBasedNodeID = binary.LittleEndian.Uint32(data[12:])
	edge.ForwardWeight = int32(binary.LittleEndian.Uint32(data[16:]))
	edge.ReverseWeight = int32(binary.LittleEndian.Uint32(data[20:]))
	edge.ForwardOffset = int32(binary.LittleEndian.Uint32(data[24:]))
	edge.ReverseOffset = int32(binary.LittleEndian.Uint32(data[28:]))
	edge.NameID = binary.LittleEndian.Uint32(data[32:])
	edge.PackedGeometryID = binary.LittleEndian.Uint32(data[36:])
	edge.FwdSegmentPosition = binary.LittleEndian.Uint16(data[40:])
	edge.ForwardTravelMode = TravelMode(data[42])
	edge.BackwardTravelMode = TravelMode(data[43])
	edge.IsInTinyCC = data[44] != 0
}
