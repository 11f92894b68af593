package index

import (
	"math"
	"testing"

	"roadsnap/geo"
	"roadsnap/util"
)

func testRectangle() RectangleInt2D {
	r := NewRectangle()
	r.ExtendWith(geo.NewCoordinate(10, 10))
	r.ExtendWith(geo.NewCoordinate(20, 20))
	return r
}

func TestRectangle_extendWith(t *testing.T) {
	r := NewRectangle()
	util.AssertEqual(t, int32(math.MaxInt32), r.MinLat)
	util.AssertEqual(t, int32(math.MinInt32), r.MaxLat)

	r.ExtendWith(geo.NewCoordinate(5, -3))
	util.AssertEqual(t, RectangleInt2D{MinLat: 5000000, MinLon: -3000000, MaxLat: 5000000, MaxLon: -3000000}, r)

	r.ExtendWith(geo.NewCoordinate(-1, 7))
	util.AssertEqual(t, RectangleInt2D{MinLat: -1000000, MinLon: -3000000, MaxLat: 5000000, MaxLon: 7000000}, r)
}

func TestRectangle_merge(t *testing.T) {
	a := NewRectangle()
	a.ExtendWith(geo.NewCoordinate(0, 0))
	a.ExtendWith(geo.NewCoordinate(1, 1))

	b := NewRectangle()
	b.ExtendWith(geo.NewCoordinate(-2, 3))

	a.Merge(b)
	util.AssertEqual(t, RectangleInt2D{MinLat: -2000000, MinLon: 0, MaxLat: 1000000, MaxLon: 3000000}, a)
}

func TestRectangle_contains(t *testing.T) {
	r := testRectangle()

	util.AssertTrue(t, r.Contains(geo.NewCoordinate(15, 15)))
	util.AssertTrue(t, r.Contains(geo.NewCoordinate(10, 10)))
	util.AssertTrue(t, r.Contains(geo.NewCoordinate(20, 20)))
	util.AssertFalse(t, r.Contains(geo.NewCoordinate(9, 15)))
	util.AssertFalse(t, r.Contains(geo.NewCoordinate(15, 21)))
}

func TestRectangle_intersectsIsOneSided(t *testing.T) {
	outer := testRectangle()

	inner := NewRectangle()
	inner.ExtendWith(geo.NewCoordinate(12, 12))
	inner.ExtendWith(geo.NewCoordinate(14, 14))

	// All corners of the inner rectangle lie in the outer one, but no
	// corner of the outer rectangle lies in the inner one.
	util.AssertTrue(t, outer.Intersects(inner))
	util.AssertFalse(t, inner.Intersects(outer))
}

func TestRectangle_minDistZeroWhenContained(t *testing.T) {
	r := testRectangle()
	util.AssertEqual(t, 0.0, r.MinDist(geo.NewCoordinate(15, 15)))
	util.AssertEqual(t, 0.0, r.MinDist(geo.NewCoordinate(10, 20)))
}

func TestRectangle_minDistRealizedOnEdgeOrCorner(t *testing.T) {
	r := testRectangle()

	// North of the rectangle: the nearest point is on the top edge.
	query := geo.NewCoordinate(25, 15)
	util.AssertEqual(t, geo.ApproximateDistance(query, geo.NewCoordinate(20, 15)), r.MinDist(query))

	// West of the rectangle: the nearest point is on the left edge.
	query = geo.NewCoordinate(15, 5)
	util.AssertEqual(t, geo.ApproximateDistance(query, geo.NewCoordinate(15, 10)), r.MinDist(query))

	// North-east of the rectangle: the nearest point is the corner.
	query = geo.NewCoordinate(25, 25)
	util.AssertEqual(t, geo.ApproximateDistance(query, geo.NewCoordinate(20, 20)), r.MinDist(query))

	// South-west of the rectangle: the nearest point is the corner.
	query = geo.NewCoordinate(5, 5)
	util.AssertEqual(t, geo.ApproximateDistance(query, geo.NewCoordinate(10, 10)), r.MinDist(query))
}

func TestRectangle_minDistIsLowerBound(t *testing.T) {
	r := testRectangle()
	query := geo.NewCoordinate(25, 3)

	lowerBound := r.MinDist(query)

	// Sample the rectangle: the bound must not exceed the distance to any
	// contained point.
	for lat := 10.0; lat <= 20.0; lat += 2.5 {
		for lon := 10.0; lon <= 20.0; lon += 2.5 {
			util.AssertTrue(t, lowerBound <= geo.ApproximateDistance(query, geo.NewCoordinate(lat, lon)))
		}
	}
}

func TestRectangle_minMaxDist(t *testing.T) {
	r := testRectangle()
	query := geo.NewCoordinate(25, 3)

	upperLeft := geo.NewCoordinate(20, 10)
	upperRight := geo.NewCoordinate(20, 20)
	lowerRight := geo.NewCoordinate(10, 20)
	lowerLeft := geo.NewCoordinate(10, 10)

	expected := math.MaxFloat64
	expected = math.Min(expected, math.Max(geo.ApproximateDistance(query, upperLeft), geo.ApproximateDistance(query, upperRight)))
	expected = math.Min(expected, math.Max(geo.ApproximateDistance(query, upperRight), geo.ApproximateDistance(query, lowerRight)))
	expected = math.Min(expected, math.Max(geo.ApproximateDistance(query, lowerRight), geo.ApproximateDistance(query, lowerLeft)))
	expected = math.Min(expected, math.Max(geo.ApproximateDistance(query, lowerLeft), geo.ApproximateDistance(query, upperLeft)))

	util.AssertEqual(t, expected, r.MinMaxDist(query))

	// The bound is directed: minDist never exceeds minMaxDist.
	util.AssertTrue(t, r.MinDist(query) <= r.MinMaxDist(query))
}

func TestRectangle_centroid(t *testing.T) {
	r := testRectangle()
	util.AssertEqual(t, geo.NewCoordinate(15, 15), r.Centroid())
}
