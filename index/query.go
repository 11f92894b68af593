package index

import (
	"math"

	"roadsnap/geo"
	"roadsnap/util"
)

// DefaultMaxCheckedSegments bounds how many concrete segments an
// incremental query inspects before it gives up tightening its results.
const DefaultMaxCheckedSegments = 4 * LeafNodeSize

// At or below this zoom level the map shows whole city blocks; results in tiny
// connected components would strand a route, so they are skipped.
const tinyComponentZoomThreshold = 14

// LocateClosestEndpoint returns the segment endpoint closest to the input
// coordinate. The boolean is false when no endpoint was found, e.g. on an
// empty filter result or a failed leaf read.
func (t *StaticRTree) LocateClosestEndpoint(inputCoordinate geo.Coordinate, zoomLevel int) (geo.Coordinate, bool) {
	ignoreTinyComponents := zoomLevel <= tinyComponentZoomThreshold

	minDist := math.MaxFloat64
	minMaxDist := math.MaxFloat64
	resultCoordinate := geo.UnsetCoordinate()

	queue := newTraversalQueue()
	queue.push(queryCandidate{minDist: 0, nodeID: 0})

	for !queue.empty() {
		current := queue.pop()

		pruneDownward := current.minDist >= minMaxDist
		pruneUpward := current.minDist >= minDist
		if pruneDownward || pruneUpward {
			continue
		}

		node := &t.searchTree[current.nodeID]
		if node.ChildIsOnDisk {
			leaf, err := t.loadLeafFromDisk(node.Children[0])
			if err != nil {
				return geo.UnsetCoordinate(), false
			}

			for i := uint32(0); i < leaf.ObjectCount; i++ {
				edge := &leaf.Objects[i]
				if ignoreTinyComponents && edge.IsInTinyCC {
					continue
				}

				distance := geo.ApproximateDistance(inputCoordinate, t.coordinates[edge.U])
				if distance < minDist {
					minDist = distance
					resultCoordinate = t.coordinates[edge.U]
				}

				distance = geo.ApproximateDistance(inputCoordinate, t.coordinates[edge.V])
				if distance < minDist {
					minDist = distance
					resultCoordinate = t.coordinates[edge.V]
				}
			}
		} else {
			minMaxDist = t.exploreTreeNode(node, inputCoordinate, minDist, minMaxDist, queue)
		}
	}

	return resultCoordinate, resultCoordinate.IsValid()
}

// FindPhantomNode projects the input coordinate onto the nearest segment
// and returns the resulting phantom node. The boolean is false when
// nothing was found.
func (t *StaticRTree) FindPhantomNode(inputCoordinate geo.Coordinate, zoomLevel int) (PhantomNode, bool) {
	ignoreTinyComponents := zoomLevel <= tinyComponentZoomThreshold

	var nearestEdge EdgeData
	foundEdge := false
	minDist := math.MaxFloat64
	minMaxDist := math.MaxFloat64
	resultLocation := geo.UnsetCoordinate()

	queue := newTraversalQueue()
	queue.push(queryCandidate{minDist: 0, nodeID: 0})

	for !queue.empty() {
		current := queue.pop()

		pruneDownward := current.minDist > minMaxDist
		pruneUpward := current.minDist > minDist
		if pruneDownward || pruneUpward {
			continue
		}

		node := &t.searchTree[current.nodeID]
		if node.ChildIsOnDisk {
			leaf, err := t.loadLeafFromDisk(node.Children[0])
			if err != nil {
				return PhantomNode{}, false
			}

			for i := uint32(0); i < leaf.ObjectCount; i++ {
				edge := &leaf.Objects[i]
				if ignoreTinyComponents && edge.IsInTinyCC {
					continue
				}

				perpendicularDistance, foot, _ := geo.PerpendicularDistanceWithFoot(t.coordinates[edge.U], t.coordinates[edge.V], inputCoordinate)
				if perpendicularDistance < 0 {
					util.LogFatalBug("Negative perpendicular distance %f for segment %d-%d", perpendicularDistance, edge.U, edge.V)
				}

				if perpendicularDistance < minDist && !geo.EpsilonCompare(perpendicularDistance, minDist) {
					minDist = perpendicularDistance
					resultLocation = foot
					nearestEdge = *edge
					foundEdge = true
				}
			}
		} else {
			minMaxDist = t.exploreTreeNode(node, inputCoordinate, minDist, minMaxDist, queue)
		}
	}

	if !foundEdge {
		return PhantomNode{}, false
	}

	phantom := newPhantomNode(&nearestEdge, resultLocation)
	fixUpRoundingIssue(inputCoordinate, &phantom)
	t.setForwardAndReverseWeights(&nearestEdge, &phantom)
	return phantom, true
}

// FindPhantomNodes is the incremental Hjaltason-Samet traversal: it
// streams leaf pages best-first and admits up to numberOfResults phantom
// nodes from big connected components plus up to numberOfResults from tiny
// ones. A maxCheckedSegments of zero or less falls back to
// DefaultMaxCheckedSegments. The zoom level does not filter here; the
// component caps already bound both classes.
func (t *StaticRTree) FindPhantomNodes(inputCoordinate geo.Coordinate, zoomLevel int, numberOfResults int, maxCheckedSegments int) []PhantomNode {
	if maxCheckedSegments <= 0 {
		maxCheckedSegments = DefaultMaxCheckedSegments
	}

	minFoundDistances := make([]float64, numberOfResults)
	for i := range minFoundDistances {
		minFoundDistances[i] = math.MaxFloat64
	}

	resultsFoundInBigCC := 0
	resultsFoundInTinyCC := 0
	inspectedSegments := 0

	var results []PhantomNode

	queue := newTraversalQueue()
	queue.push(queryCandidate{minDist: 0, nodeID: 0})

	for !queue.empty() {
		current := queue.pop()

		// The threshold tightens as big-cc results are admitted: it is the
		// last slot of the sliding write cursor over found distances.
		currentMinDist := minFoundDistances[numberOfResults-1]
		if current.minDist > currentMinDist {
			continue
		}

		if current.segment == nil {
			node := &t.searchTree[current.nodeID]
			if node.ChildIsOnDisk {
				leaf, err := t.loadLeafFromDisk(node.Children[0])
				if err != nil {
					return nil
				}

				// Score every segment of the page and queue the survivors.
				for i := uint32(0); i < leaf.ObjectCount; i++ {
					edge := leaf.Objects[i]
					perpendicularDistance := geo.PerpendicularDistance(t.coordinates[edge.U], t.coordinates[edge.V], inputCoordinate)
					if perpendicularDistance < 0 {
						util.LogFatalBug("Negative perpendicular distance %f for segment %d-%d", perpendicularDistance, edge.U, edge.V)
					}

					if perpendicularDistance < currentMinDist {
						segment := edge
						queue.push(queryCandidate{minDist: perpendicularDistance, segment: &segment})
					}
				}
			} else {
				for i := uint32(0); i < node.ChildCount; i++ {
					childID := node.Children[i]
					lowerBoundToElement := t.searchTree[childID].MBR.MinDist(inputCoordinate)
					if lowerBoundToElement < currentMinDist {
						queue.push(queryCandidate{minDist: lowerBoundToElement, nodeID: childID})
					}
				}
			}
		} else {
			inspectedSegments++
			segment := current.segment

			// don't collect too many results from either component class
			if resultsFoundInBigCC == numberOfResults && !segment.IsInTinyCC {
				continue
			}
			if resultsFoundInTinyCC == numberOfResults && segment.IsInTinyCC {
				continue
			}

			perpendicularDistance, foot, _ := geo.PerpendicularDistanceWithFoot(t.coordinates[segment.U], t.coordinates[segment.V], inputCoordinate)
			if perpendicularDistance < 0 {
				util.LogFatalBug("Negative perpendicular distance %f for segment %d-%d", perpendicularDistance, segment.U, segment.V)
			}

			if perpendicularDistance < currentMinDist && !geo.EpsilonCompare(perpendicularDistance, currentMinDist) {
				phantom := newPhantomNode(segment, foot)
				fixUpRoundingIssue(inputCoordinate, &phantom)
				t.setForwardAndReverseWeights(segment, &phantom)
				results = append(results, phantom)

				if segment.IsInTinyCC {
					resultsFoundInTinyCC++
				} else {
					minFoundDistances[resultsFoundInBigCC] = perpendicularDistance
					resultsFoundInBigCC++
				}
			}
		}

		if resultsFoundInBigCC == numberOfResults || inspectedSegments >= maxCheckedSegments {
			queue.clear()
		}
	}

	return results
}

// FindPhantomNodesWithDistance behaves like FindPhantomNodes but returns
// the perpendicular distance alongside each phantom node and leaves the
// travel modes unset.
func (t *StaticRTree) FindPhantomNodesWithDistance(inputCoordinate geo.Coordinate, zoomLevel int, numberOfResults int, maxCheckedSegments int) []PhantomNodeWithDistance {
	if maxCheckedSegments <= 0 {
		maxCheckedSegments = DefaultMaxCheckedSegments
	}

	minFoundDistances := make([]float64, numberOfResults)
	for i := range minFoundDistances {
		minFoundDistances[i] = math.MaxFloat64
	}

	resultsFoundInBigCC := 0
	resultsFoundInTinyCC := 0
	inspectedSegments := 0

	var results []PhantomNodeWithDistance

	queue := newTraversalQueue()
	queue.push(queryCandidate{minDist: 0, nodeID: 0})

	for !queue.empty() {
		current := queue.pop()

		currentMinDist := minFoundDistances[numberOfResults-1]
		if current.minDist > currentMinDist {
			continue
		}

		if current.segment == nil {
			node := &t.searchTree[current.nodeID]
			if node.ChildIsOnDisk {
				leaf, err := t.loadLeafFromDisk(node.Children[0])
				if err != nil {
					return nil
				}

				for i := uint32(0); i < leaf.ObjectCount; i++ {
					edge := leaf.Objects[i]
					perpendicularDistance := geo.PerpendicularDistance(t.coordinates[edge.U], t.coordinates[edge.V], inputCoordinate)
					if perpendicularDistance < 0 {
						util.LogFatalBug("Negative perpendicular distance %f for segment %d-%d", perpendicularDistance, edge.U, edge.V)
					}

					if perpendicularDistance < currentMinDist {
						segment := edge
						queue.push(queryCandidate{minDist: perpendicularDistance, segment: &segment})
					}
				}
			} else {
				for i := uint32(0); i < node.ChildCount; i++ {
					childID := node.Children[i]
					lowerBoundToElement := t.searchTree[childID].MBR.MinDist(inputCoordinate)
					if lowerBoundToElement < currentMinDist {
						queue.push(queryCandidate{minDist: lowerBoundToElement, nodeID: childID})
					}
				}
			}
		} else {
			inspectedSegments++
			segment := current.segment

			if resultsFoundInBigCC == numberOfResults && !segment.IsInTinyCC {
				continue
			}
			if resultsFoundInTinyCC == numberOfResults && segment.IsInTinyCC {
				continue
			}

			perpendicularDistance, foot, _ := geo.PerpendicularDistanceWithFoot(t.coordinates[segment.U], t.coordinates[segment.V], inputCoordinate)
			if perpendicularDistance < 0 {
				util.LogFatalBug("Negative perpendicular distance %f for segment %d-%d", perpendicularDistance, segment.U, segment.V)
			}

			if perpendicularDistance < currentMinDist && !geo.EpsilonCompare(perpendicularDistance, currentMinDist) {
				phantom := newPhantomNode(segment, foot)
				phantom.ForwardTravelMode = TravelModeInaccessible
				phantom.BackwardTravelMode = TravelModeInaccessible
				fixUpRoundingIssue(inputCoordinate, &phantom)
				t.setForwardAndReverseWeights(segment, &phantom)
				results = append(results, PhantomNodeWithDistance{PhantomNode: phantom, Distance: perpendicularDistance})

				if segment.IsInTinyCC {
					resultsFoundInTinyCC++
				} else {
					minFoundDistances[resultsFoundInBigCC] = perpendicularDistance
					resultsFoundInBigCC++
				}
			}
		}

		if resultsFoundInBigCC == numberOfResults || inspectedSegments >= maxCheckedSegments {
			queue.clear()
		}
	}

	return results
}

// exploreTreeNode pushes the children of an interior node whose lower
// bound can still beat the best known distance. It returns the tightened
// Roussopoulos upper bound.
func (t *StaticRTree) exploreTreeNode(parent *TreeNode, inputCoordinate geo.Coordinate, minDist float64, minMaxDist float64, queue *traversalQueue) float64 {
	newMinMaxDist := minMaxDist
	for i := uint32(0); i < parent.ChildCount; i++ {
		childID := parent.Children[i]
		childRectangle := t.searchTree[childID].MBR

		lowerBoundToElement := childRectangle.MinDist(inputCoordinate)
		upperBoundToElement := childRectangle.MinMaxDist(inputCoordinate)
		newMinMaxDist = math.Min(newMinMaxDist, upperBoundToElement)

		if lowerBoundToElement > newMinMaxDist {
			continue
		}
		if lowerBoundToElement > minDist {
			continue
		}
		queue.push(queryCandidate{minDist: lowerBoundToElement, nodeID: childID})
	}
	return newMinMaxDist
}
