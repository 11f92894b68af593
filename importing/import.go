package importing

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"roadsnap/geo"
	"roadsnap/index"
	"roadsnap/storage"
)

// Components below this many nodes are parking lots, gated areas and
// mapping artifacts. Their segments stay in the index but are tagged so
// queries can avoid stranding a route on them.
const tinyComponentSizeThreshold = 1000

// Import reads the given .osm or .osm.pbf file, extracts the road
// segments, and writes all serving artifacts (coordinate table, name
// index, r-tree node and leaf files) into baseFolder.
func Import(inputFile string, baseFolder string) error {
	err := os.MkdirAll(baseFolder, os.ModePerm)
	if err != nil {
		return errors.Wrapf(err, "Unable to create index base folder %s", baseFolder)
	}

	file, scanner, err := getScanner(inputFile)
	if err != nil {
		return err
	}
	defer file.Close()
	defer scanner.Close()

	sigolo.Infof("Start extracting road segments from input file %s", inputFile)
	importStartTime := time.Now()

	extraction := newExtraction()
	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			extraction.addNode(osmObj)
		case *osm.Way:
			extraction.addWay(osmObj)
		}
	}
	if err = scanner.Err(); err != nil {
		return errors.Wrapf(err, "Unable to scan input file %s", inputFile)
	}

	extraction.tagTinyComponents()

	importDuration := time.Since(importStartTime)
	sigolo.Infof("Extracted %d segments between %d coordinates in %s", len(extraction.segments), len(extraction.coordinates), importDuration)

	err = storage.SaveCoordinates(extraction.coordinates, baseFolder)
	if err != nil {
		return err
	}
	err = extraction.names.Save(baseFolder)
	if err != nil {
		return err
	}

	_, err = index.Build(
		extraction.segments,
		extraction.coordinates,
		path.Join(baseFolder, index.TreeNodesFilename),
		path.Join(baseFolder, index.LeafNodesFilename),
	)
	return err
}

func getScanner(inputFile string) (*os.File, osm.Scanner, error) {
	if !strings.HasSuffix(inputFile, ".osm") && !strings.HasSuffix(inputFile, ".pbf") {
		return nil, nil, errors.Errorf("Input file %s must be an .osm or .pbf file", inputFile)
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Unable to open input file %s", inputFile)
	}

	var scanner osm.Scanner
	if strings.HasSuffix(inputFile, ".osm") {
		scanner = osmxml.New(context.Background(), f)
	} else {
		scanner = osmpbf.New(context.Background(), f, 1)
	}
	return f, scanner, nil
}

// extraction accumulates the road graph view of one input file: the
// coordinate table, the interned street names and one segment record per
// consecutive node pair of each road.
type extraction struct {
	coordinates   []geo.Coordinate
	segments      []index.EdgeData
	names         *storage.NameIndex
	nodePositions map[osm.NodeID]orb.Point
	nodeToIndex   map[osm.NodeID]uint32
	components    *unionFind
	nextRoutingID uint32
}

func newExtraction() *extraction {
	return &extraction{
		names:         storage.NewNameIndex(),
		nodePositions: map[osm.NodeID]orb.Point{},
		nodeToIndex:   map[osm.NodeID]uint32{},
		components:    newUnionFind(),
	}
}

func (e *extraction) addNode(node *osm.Node) {
	e.nodePositions[node.ID] = orb.Point{node.Lon, node.Lat}
}

func (e *extraction) addWay(way *osm.Way) {
	if way.Tags.Find("highway") == "" {
		return
	}

	nameID := e.names.GetOrAdd(way.Tags.Find("name"))
	isOneway := way.Tags.Find("oneway") == "yes"

	for i := 0; i+1 < len(way.Nodes); i++ {
		u, uOk := e.coordinateIndex(way.Nodes[i].ID)
		v, vOk := e.coordinateIndex(way.Nodes[i+1].ID)
		if !uOk || !vOk {
			// The input file is clipped, some way nodes lie outside of it.
			continue
		}

		e.components.union(u, v)

		segmentLength := geo.ApproximateDistance(e.coordinates[u], e.coordinates[v])
		weight := int32(segmentLength) + 1

		forwardID := e.nextRoutingID
		e.nextRoutingID++
		reverseID := index.SpecialNodeID
		backwardTravelMode := index.TravelModeInaccessible
		if !isOneway {
			reverseID = e.nextRoutingID
			e.nextRoutingID++
			backwardTravelMode = index.TravelModeDriving
		}

		e.segments = append(e.segments, index.EdgeData{
			U:                      u,
			V:                      v,
			ForwardEdgeBasedNodeID: forwardID,
			ReverseEdgeBasedNodeID: reverseID,
			ForwardWeight:          weight,
			ReverseWeight:          weight,
			NameID:                 nameID,
			PackedGeometryID:       uint32(way.ID),
			FwdSegmentPosition:     uint16(i),
			ForwardTravelMode:      index.TravelModeDriving,
			BackwardTravelMode:     backwardTravelMode,
		})
	}
}

// coordinateIndex returns the coordinate table index of the given OSM
// node, assigning one on first use.
func (e *extraction) coordinateIndex(nodeID osm.NodeID) (uint32, bool) {
	if nodeIndex, ok := e.nodeToIndex[nodeID]; ok {
		return nodeIndex, true
	}

	position, ok := e.nodePositions[nodeID]
	if !ok {
		return 0, false
	}

	nodeIndex := uint32(len(e.coordinates))
	e.coordinates = append(e.coordinates, geo.NewCoordinate(position.Lat(), position.Lon()))
	e.nodeToIndex[nodeID] = nodeIndex
	e.components.makeSet(nodeIndex)
	return nodeIndex, true
}

func (e *extraction) tagTinyComponents() {
	taggedSegments := 0
	for i := range e.segments {
		if e.components.componentSize(e.segments[i].U) < tinyComponentSizeThreshold {
			e.segments[i].IsInTinyCC = true
			taggedSegments++
		}
	}
	sigolo.Debugf("Tagged %d of %d segments as part of tiny components", taggedSegments, len(e.segments))
}
