package index

import (
	"math"
	"path"
	"testing"

	"roadsnap/geo"
	"roadsnap/util"
)

// gridFixture creates a 10x10 node grid with horizontal segments between
// neighboring nodes, 0.001 degrees apart. All segments belong to a big
// component.
func gridFixture() ([]EdgeData, []geo.Coordinate) {
	var coordinates []geo.Coordinate
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			coordinates = append(coordinates, geo.NewCoordinate(float64(row)*0.001, float64(col)*0.001))
		}
	}

	var segments []EdgeData
	routingID := uint32(0)
	for row := 0; row < 10; row++ {
		for col := 0; col < 9; col++ {
			u := uint32(row*10 + col)
			segments = append(segments, EdgeData{
				U:                      u,
				V:                      u + 1,
				ForwardEdgeBasedNodeID: routingID,
				ReverseEdgeBasedNodeID: routingID + 1,
				ForwardWeight:          1000,
				ReverseWeight:          1000,
				NameID:                 uint32(len(segments)),
				ForwardTravelMode:      TravelModeDriving,
				BackwardTravelMode:     TravelModeDriving,
			})
			routingID += 2
		}
	}
	return segments, coordinates
}

func bruteForceClosestEndpoint(segments []EdgeData, coordinates []geo.Coordinate, query geo.Coordinate, ignoreTiny bool) float64 {
	minDist := math.MaxFloat64
	for _, segment := range segments {
		if ignoreTiny && segment.IsInTinyCC {
			continue
		}
		minDist = math.Min(minDist, geo.ApproximateDistance(query, coordinates[segment.U]))
		minDist = math.Min(minDist, geo.ApproximateDistance(query, coordinates[segment.V]))
	}
	return minDist
}

func bruteForcePerpendicularDistance(segments []EdgeData, coordinates []geo.Coordinate, query geo.Coordinate) float64 {
	minDist := math.MaxFloat64
	for _, segment := range segments {
		minDist = math.Min(minDist, geo.PerpendicularDistance(coordinates[segment.U], coordinates[segment.V], query))
	}
	return minDist
}

func TestFindPhantomNode_footInSegmentMiddle(t *testing.T) {
	coordinates := []geo.Coordinate{geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 1)}
	segments := []EdgeData{{
		U: 0, V: 1,
		ForwardEdgeBasedNodeID: 1,
		ReverseEdgeBasedNodeID: 2,
		ForwardWeight:          100,
		ReverseWeight:          100,
		ForwardTravelMode:      TravelModeDriving,
		BackwardTravelMode:     TravelModeDriving,
	}}
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	query := geo.NewCoordinate(0, 0.5)
	phantom, found := tree.FindPhantomNode(query, 18)

	util.AssertTrue(t, found)
	util.AssertEqual(t, geo.Coordinate{Lat: 0, Lon: 500000}, phantom.Location)

	// The foot splits the segment in half, so do the weights.
	util.AssertEqual(t, int32(50), phantom.ForwardWeight)
	util.AssertEqual(t, int32(50), phantom.ReverseWeight)

	util.AssertApprox(t, 0.0, geo.ApproximateDistance(query, phantom.Location), 1e-9)
}

func TestFindPhantomNode_queryAtEndpoints(t *testing.T) {
	coordinates := []geo.Coordinate{geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 1)}
	segments := []EdgeData{{
		U: 0, V: 1,
		ForwardEdgeBasedNodeID: 1,
		ReverseEdgeBasedNodeID: 2,
		ForwardWeight:          100,
		ReverseWeight:          100,
	}}
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	// At the source the ratio is 0: no forward weight, full reverse weight.
	phantom, found := tree.FindPhantomNode(coordinates[0], 18)
	util.AssertTrue(t, found)
	util.AssertEqual(t, coordinates[0], phantom.Location)
	util.AssertEqual(t, int32(0), phantom.ForwardWeight)
	util.AssertEqual(t, int32(100), phantom.ReverseWeight)

	// At the target the ratio is 1.
	phantom, found = tree.FindPhantomNode(coordinates[1], 18)
	util.AssertTrue(t, found)
	util.AssertEqual(t, coordinates[1], phantom.Location)
	util.AssertEqual(t, int32(100), phantom.ForwardWeight)
	util.AssertEqual(t, int32(0), phantom.ReverseWeight)
}

func TestFindPhantomNodes_oneResultPerComponentClass(t *testing.T) {
	// A tiny-component segment right next to the query and a big one a bit
	// farther away. With k=1 both are admitted: the tiny one first, then
	// the big one, which also terminates the search.
	coordinates := []geo.Coordinate{
		geo.NewCoordinate(-0.0001, 0), geo.NewCoordinate(-0.0001, 1),
		geo.NewCoordinate(0.0002, 0), geo.NewCoordinate(0.0002, 1),
	}
	segments := []EdgeData{
		{U: 0, V: 1, NameID: 1, IsInTinyCC: true},
		{U: 2, V: 3, NameID: 2},
	}
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	results := tree.FindPhantomNodes(geo.NewCoordinate(0, 0.5), 15, 1, 0)

	util.AssertEqual(t, 2, len(results))
	util.AssertEqual(t, uint32(1), results[0].NameID)
	util.AssertEqual(t, uint32(2), results[1].NameID)
}

func TestFindPhantomNodes_duplicateCutOffByResultCap(t *testing.T) {
	// Two coincident segments at the same distance. With k=1 the first
	// admission fills the big-component cap and ends the search, so the
	// duplicate does not produce a second result.
	coordinates := []geo.Coordinate{geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 1)}
	segments := []EdgeData{
		{U: 0, V: 1, NameID: 1},
		{U: 0, V: 1, NameID: 2},
	}
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	results := tree.FindPhantomNodes(geo.NewCoordinate(0.0001, 0.5), 18, 1, 0)

	util.AssertEqual(t, 1, len(results))
}

func TestLocateClosestEndpoint_matchesBruteForce(t *testing.T) {
	segments, coordinates := gridFixture()
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	queries := []geo.Coordinate{
		geo.NewCoordinate(0.00037, 0.0052),
		geo.NewCoordinate(0.0085, 0.0013),
		geo.NewCoordinate(-0.0013, -0.0008),
		geo.NewCoordinate(0.02, 0.02),
		geo.NewCoordinate(0.00441, 0.00979),
	}

	for _, query := range queries {
		result, found := tree.LocateClosestEndpoint(query, 18)
		util.AssertTrue(t, found)

		expected := bruteForceClosestEndpoint(segments, coordinates, query, false)
		util.AssertEqual(t, expected, geo.ApproximateDistance(query, result))
	}
}

func TestLocateClosestEndpoint_farAwayQueryStillFindsNearest(t *testing.T) {
	segments, coordinates := gridFixture()
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	// Far outside the grid there is no bound to prune with until the first
	// leaf was loaded; the query still returns the nearest endpoint.
	query := geo.NewCoordinate(5, 5)
	result, found := tree.LocateClosestEndpoint(query, 18)

	util.AssertTrue(t, found)
	util.AssertEqual(t, bruteForceClosestEndpoint(segments, coordinates, query, false), geo.ApproximateDistance(query, result))
}

func TestLocateClosestEndpoint_ignoresTinyComponentsAtLowZoom(t *testing.T) {
	coordinates := []geo.Coordinate{
		geo.NewCoordinate(0.0001, 0), geo.NewCoordinate(0.0001, 0.001),
		geo.NewCoordinate(0.01, 0), geo.NewCoordinate(0.01, 0.001),
	}
	segments := []EdgeData{
		{U: 0, V: 1, IsInTinyCC: true},
		{U: 2, V: 3},
	}
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	query := geo.NewCoordinate(0, 0)

	// Zoomed out the tiny component is skipped.
	result, found := tree.LocateClosestEndpoint(query, 14)
	util.AssertTrue(t, found)
	util.AssertEqual(t, coordinates[2], result)

	// Zoomed in it wins as the closer endpoint.
	result, found = tree.LocateClosestEndpoint(query, 15)
	util.AssertTrue(t, found)
	util.AssertEqual(t, coordinates[0], result)
}

func TestFindPhantomNodesWithDistance_matchesBruteForce(t *testing.T) {
	segments, coordinates := gridFixture()
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	queries := []geo.Coordinate{
		geo.NewCoordinate(0.00037, 0.0052),
		geo.NewCoordinate(0.0085, 0.0013),
		geo.NewCoordinate(0.00441, 0.00979),
	}

	for _, query := range queries {
		results := tree.FindPhantomNodesWithDistance(query, 18, 1, 0)
		util.AssertTrue(t, len(results) >= 1)

		// Best-first traversal: the first admitted result realizes the
		// global minimum perpendicular distance.
		expected := bruteForcePerpendicularDistance(segments, coordinates, query)
		util.AssertEqual(t, expected, results[0].Distance)

		// This result form leaves the travel modes unset.
		util.AssertEqual(t, TravelModeInaccessible, results[0].ForwardTravelMode)
		util.AssertEqual(t, TravelModeInaccessible, results[0].BackwardTravelMode)
	}
}

func TestFindPhantomNodes_capCompliance(t *testing.T) {
	segments, coordinates := gridFixture()
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	// All grid segments are in a big component: at most k admissions.
	results := tree.FindPhantomNodes(geo.NewCoordinate(0.0005, 0.005), 18, 2, 0)
	util.AssertTrue(t, len(results) >= 1)
	util.AssertTrue(t, len(results) <= 2)
}

func TestFindPhantomNodes_maxCheckedSegmentsStopsSearch(t *testing.T) {
	segments, coordinates := gridFixture()
	tree, _, _ := buildFixtureTree(t, segments, coordinates)

	// The search stops after inspecting a single segment entry.
	results := tree.FindPhantomNodes(geo.NewCoordinate(0.0005, 0.005), 18, 5, 1)
	util.AssertTrue(t, len(results) <= 1)
}

func TestQueryResults_surviveSerializationRoundTrip(t *testing.T) {
	segments, coordinates := gridFixture()
	builtTree, _, folder := buildFixtureTree(t, segments, coordinates)

	loadedTree, err := Open(path.Join(folder, TreeNodesFilename), path.Join(folder, LeafNodesFilename), coordinates)
	util.AssertNil(t, err)
	defer loadedTree.Close()

	queries := []geo.Coordinate{
		geo.NewCoordinate(0.00037, 0.0052),
		geo.NewCoordinate(0.0085, 0.0013),
		geo.NewCoordinate(0.02, 0.02),
	}

	for _, query := range queries {
		builtEndpoint, builtFound := builtTree.LocateClosestEndpoint(query, 18)
		loadedEndpoint, loadedFound := loadedTree.LocateClosestEndpoint(query, 18)
		util.AssertEqual(t, builtFound, loadedFound)
		util.AssertEqual(t, builtEndpoint, loadedEndpoint)

		builtResults := builtTree.FindPhantomNodesWithDistance(query, 18, 3, 0)
		loadedResults := loadedTree.FindPhantomNodesWithDistance(query, 18, 3, 0)
		util.AssertEqual(t, builtResults, loadedResults)
	}
}
