package io

import (
	"io"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"roadsnap/geo"
	"roadsnap/index"
	"roadsnap/storage"
)

// WritePhantomNodesAsGeoJson writes the snap results as a GeoJSON feature
// collection. Each phantom node becomes a point feature carrying the
// resolved street name, the pro-rated weights and the approximate distance
// at which it was found.
func WritePhantomNodesAsGeoJson(phantomNodes []index.PhantomNodeWithDistance, names *storage.NameIndex, writer io.Writer) error {
	sigolo.Debug("Write phantom nodes to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	for _, phantomNode := range phantomNodes {
		feature := geojson.NewFeature(orb.Point{phantomNode.Location.FloatLon(), phantomNode.Location.FloatLat()})

		feature.Properties["name"] = names.GetNameFromIndex(phantomNode.NameID)
		feature.Properties["distance"] = phantomNode.Distance
		feature.Properties["forward_weight"] = phantomNode.ForwardWeight
		feature.Properties["reverse_weight"] = phantomNode.ReverseWeight

		featureCollection.Features = append(featureCollection.Features, feature)
	}

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return err
	}

	writeDuration := time.Since(writeStartTime)
	sigolo.Debugf("Finished writing %d phantom nodes in %s", len(phantomNodes), writeDuration)

	return nil
}

// WriteCoordinateAsGeoJson writes a single coordinate as a GeoJSON point
// feature collection.
func WriteCoordinateAsGeoJson(coordinate geo.Coordinate, writer io.Writer) error {
	featureCollection := geojson.NewFeatureCollection()
	featureCollection.Features = append(featureCollection.Features, geojson.NewFeature(orb.Point{coordinate.FloatLon(), coordinate.FloatLat()}))

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = writer.Write(geojsonBytes)
	return err
}
