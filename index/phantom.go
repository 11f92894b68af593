package index

import (
	"roadsnap/geo"
)

// PhantomNode is a synthetic routing vertex at the foot of the
// perpendicular from a query point onto a road segment. Its forward and
// reverse weights are the segment weights pro-rated by how far along the
// segment the foot lies.
type PhantomNode struct {
	ForwardNodeID      uint32
	ReverseNodeID      uint32
	NameID             uint32
	ForwardWeight      int32
	ReverseWeight      int32
	ForwardOffset      int32
	ReverseOffset      int32
	PackedGeometryID   uint32
	Location           geo.Coordinate
	FwdSegmentPosition uint16
	ForwardTravelMode  TravelMode
	BackwardTravelMode TravelMode
}

// PhantomNodeWithDistance pairs a phantom node with the perpendicular
// distance at which it was found. The travel modes are not populated on
// this form.
type PhantomNodeWithDistance struct {
	PhantomNode
	Distance float64
}

func newPhantomNode(edge *EdgeData, location geo.Coordinate) PhantomNode {
	return PhantomNode{
		ForwardNodeID:      edge.ForwardEdgeBasedNodeID,
		ReverseNodeID:      edge.ReverseEdgeBasedNodeID,
		NameID:             edge.NameID,
		ForwardWeight:      edge.ForwardWeight,
		ReverseWeight:      edge.ReverseWeight,
		ForwardOffset:      edge.ForwardOffset,
		ReverseOffset:      edge.ReverseOffset,
		PackedGeometryID:   edge.PackedGeometryID,
		Location:           location,
		FwdSegmentPosition: edge.FwdSegmentPosition,
		ForwardTravelMode:  edge.ForwardTravelMode,
		BackwardTravelMode: edge.BackwardTravelMode,
	}
}

// setForwardAndReverseWeights scales the phantom node's weights by the
// position of the foot point along the segment. The ratio is derived from
// the same approximate distance that scored the segment, so a foot at the
// segment middle splits the weight evenly. Weights stay integers; only
// monotonicity of the truncated result is guaranteed.
func (t *StaticRTree) setForwardAndReverseWeights(nearestEdge *EdgeData, phantom *PhantomNode) {
	distanceToFoot := geo.ApproximateDistance(t.coordinates[nearestEdge.U], phantom.Location)
	segmentLength := geo.ApproximateDistance(t.coordinates[nearestEdge.U], t.coordinates[nearestEdge.V])

	ratio := 0.0
	if segmentLength > 0 {
		ratio = distanceToFoot / segmentLength
		if ratio > 1 {
			ratio = 1
		}
	}

	if phantom.ForwardNodeID != SpecialNodeID {
		phantom.ForwardWeight = int32(float64(phantom.ForwardWeight) * ratio)
	}
	if phantom.ReverseNodeID != SpecialNodeID {
		phantom.ReverseWeight = int32(float64(phantom.ReverseWeight) * (1.0 - ratio))
	}
}

// fixUpRoundingIssue snaps the phantom location onto the input coordinate
// when they differ by exactly one fixed-point unit on an axis. Without
// this, waypoints wander between otherwise identical queries. Applying the
// fix-up twice changes nothing.
func fixUpRoundingIssue(inputCoordinate geo.Coordinate, phantom *PhantomNode) {
	if abs32(inputCoordinate.Lon-phantom.Location.Lon) == 1 {
		phantom.Location.Lon = inputCoordinate.Lon
	}
	if abs32(inputCoordinate.Lat-phantom.Location.Lat) == 1 {
		phantom.Location.Lat = inputCoordinate.Lat
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
