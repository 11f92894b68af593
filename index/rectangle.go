package index

import (
	"fmt"
	"math"
	"roadsnap/geo"
	"roadsnap/util"
)

// RectangleInt2D is an axis-aligned rectangle in fixed-point lat/lon space.
// A freshly created rectangle carries the sentinel values min=+inf, max=-inf
// so that the first merge sets all four edges.
type RectangleInt2D struct {
	MinLat int32
	MinLon int32
	MaxLat int32
	MaxLon int32
}

func NewRectangle() RectangleInt2D {
	return RectangleInt2D{
		MinLat: math.MaxInt32,
		MinLon: math.MaxInt32,
		MaxLat: math.MinInt32,
		MaxLon: math.MinInt32,
	}
}

// ExtendWith grows the rectangle so that it contains the given coordinate.
func (r *RectangleInt2D) ExtendWith(c geo.Coordinate) {
	r.MinLat = min32(r.MinLat, c.Lat)
	r.MaxLat = max32(r.MaxLat, c.Lat)
	r.MinLon = min32(r.MinLon, c.Lon)
	r.MaxLon = max32(r.MaxLon, c.Lon)
}

// Merge grows the rectangle to the union of itself and the other rectangle.
func (r *RectangleInt2D) Merge(other RectangleInt2D) {
	r.MinLat = min32(r.MinLat, other.MinLat)
	r.MaxLat = max32(r.MaxLat, other.MaxLat)
	r.MinLon = min32(r.MinLon, other.MinLon)
	r.MaxLon = max32(r.MaxLon, other.MaxLon)
}

// assertInitialized fires when a rectangle still carries the sentinel after
// it should have been extended at least once.
func (r *RectangleInt2D) assertInitialized() {
	if r.MinLat == math.MaxInt32 || r.MinLon == math.MaxInt32 || r.MaxLat == math.MinInt32 || r.MaxLon == math.MinInt32 {
		util.LogFatalBug("Rectangle %v still carries the sentinel bounds after initialization", *r)
	}
}

func (r RectangleInt2D) Contains(location geo.Coordinate) bool {
	latContained := location.Lat >= r.MinLat && location.Lat <= r.MaxLat
	lonContained := location.Lon >= r.MinLon && location.Lon <= r.MaxLon
	return latContained && lonContained
}

// Intersects reports whether any corner of the other rectangle lies within
// this one. This one-sided test is all the tree traversal needs to detect
// overlap against an enclosing rectangle. It is NOT a general AABB overlap
// predicate.
func (r RectangleInt2D) Intersects(other RectangleInt2D) bool {
	upperLeft := geo.Coordinate{Lat: other.MaxLat, Lon: other.MinLon}
	upperRight := geo.Coordinate{Lat: other.MaxLat, Lon: other.MaxLon}
	lowerRight := geo.Coordinate{Lat: other.MinLat, Lon: other.MaxLon}
	lowerLeft := geo.Coordinate{Lat: other.MinLat, Lon: other.MinLon}

	return r.Contains(upperLeft) || r.Contains(upperRight) || r.Contains(lowerRight) || r.Contains(lowerLeft)
}

func (r RectangleInt2D) Centroid() geo.Coordinate {
	return geo.Coordinate{
		Lat: (r.MinLat + r.MaxLat) / 2,
		Lon: (r.MinLon + r.MaxLon) / 2,
	}
}

// The nine Moore regions around a rectangle. The region the query falls
// into determines which edge or corner realizes the minimum distance.
const (
	directionNorth = 1
	directionSouth = 2
	directionEast  = 4
	directionWest  = 8
)

// MinDist returns a lower bound on the distance from location to any point
// inside the rectangle. Zero when the location is contained.
func (r RectangleInt2D) MinDist(location geo.Coordinate) float64 {
	if r.Contains(location) {
		return 0
	}

	direction := 0
	if location.Lat > r.MaxLat {
		direction |= directionNorth
	} else if location.Lat < r.MinLat {
		direction |= directionSouth
	}
	if location.Lon > r.MaxLon {
		direction |= directionEast
	} else if location.Lon < r.MinLon {
		direction |= directionWest
	}

	var nearest geo.Coordinate
	switch direction {
	case directionNorth:
		nearest = geo.Coordinate{Lat: r.MaxLat, Lon: location.Lon}
	case directionSouth:
		nearest = geo.Coordinate{Lat: r.MinLat, Lon: location.Lon}
	case directionEast:
		nearest = geo.Coordinate{Lat: location.Lat, Lon: r.MaxLon}
	case directionWest:
		nearest = geo.Coordinate{Lat: location.Lat, Lon: r.MinLon}
	case directionNorth | directionEast:
		nearest = geo.Coordinate{Lat: r.MaxLat, Lon: r.MaxLon}
	case directionNorth | directionWest:
		nearest = geo.Coordinate{Lat: r.MaxLat, Lon: r.MinLon}
	case directionSouth | directionEast:
		nearest = geo.Coordinate{Lat: r.MinLat, Lon: r.MaxLon}
	case directionSouth | directionWest:
		nearest = geo.Coordinate{Lat: r.MinLat, Lon: r.MinLon}
	default:
		util.LogFatalBug("Location %v is outside rectangle %v but no direction was determined", location, r)
	}

	return geo.ApproximateDistance(location, nearest)
}

// MinMaxDist returns the Roussopoulos upper bound: the smallest distance
// within which at least one object inside the rectangle must lie. For each
// of the four sides the farther of its two corners is taken; the bound is
// the minimum over the sides.
func (r RectangleInt2D) MinMaxDist(location geo.Coordinate) float64 {
	upperLeft := geo.Coordinate{Lat: r.MaxLat, Lon: r.MinLon}
	upperRight := geo.Coordinate{Lat: r.MaxLat, Lon: r.MaxLon}
	lowerRight := geo.Coordinate{Lat: r.MinLat, Lon: r.MaxLon}
	lowerLeft := geo.Coordinate{Lat: r.MinLat, Lon: r.MinLon}

	distUpperLeft := geo.ApproximateDistance(location, upperLeft)
	distUpperRight := geo.ApproximateDistance(location, upperRight)
	distLowerRight := geo.ApproximateDistance(location, lowerRight)
	distLowerLeft := geo.ApproximateDistance(location, lowerLeft)

	minMaxDist := math.MaxFloat64
	minMaxDist = math.Min(minMaxDist, math.Max(distUpperLeft, distUpperRight))
	minMaxDist = math.Min(minMaxDist, math.Max(distUpperRight, distLowerRight))
	minMaxDist = math.Min(minMaxDist, math.Max(distLowerRight, distLowerLeft))
	minMaxDist = math.Min(minMaxDist, math.Max(distLowerLeft, distUpperLeft))
	return minMaxDist
}

func (r RectangleInt2D) String() string {
	return fmt.Sprintf("[%.6f,%.6f %.6f,%.6f]",
		float64(r.MinLat)/geo.CoordinatePrecision, float64(r.MinLon)/geo.CoordinatePrecision,
		float64(r.MaxLat)/geo.CoordinatePrecision, float64(r.MaxLon)/geo.CoordinatePrecision)
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
