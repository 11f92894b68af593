package storage

import (
	"testing"

	"roadsnap/geo"
	"roadsnap/util"
)

func TestNameIndex_internsNames(t *testing.T) {
	nameIndex := NewNameIndex()

	util.AssertEqual(t, uint32(0), nameIndex.GetOrAdd("Elbchaussee"))
	util.AssertEqual(t, uint32(1), nameIndex.GetOrAdd("Reeperbahn"))
	util.AssertEqual(t, uint32(0), nameIndex.GetOrAdd("Elbchaussee"))
	util.AssertEqual(t, 2, nameIndex.Size())

	util.AssertEqual(t, "Reeperbahn", nameIndex.GetNameFromIndex(1))
	util.AssertEqual(t, "", nameIndex.GetNameFromIndex(5))
}

func TestNameIndex_saveAndLoadRoundTrip(t *testing.T) {
	folder := t.TempDir()

	nameIndex := NewNameIndex()
	nameIndex.GetOrAdd("")
	nameIndex.GetOrAdd("Elbchaussee")
	nameIndex.GetOrAdd("Reeperbahn")

	err := nameIndex.Save(folder)
	util.AssertNil(t, err)

	loaded, err := LoadNameIndex(folder)
	util.AssertNil(t, err)

	util.AssertEqual(t, nameIndex.Size(), loaded.Size())
	util.AssertEqual(t, "", loaded.GetNameFromIndex(0))
	util.AssertEqual(t, "Elbchaussee", loaded.GetNameFromIndex(1))
	util.AssertEqual(t, "Reeperbahn", loaded.GetNameFromIndex(2))
}

func TestCoordinates_saveAndLoadRoundTrip(t *testing.T) {
	folder := t.TempDir()

	coordinates := []geo.Coordinate{
		geo.NewCoordinate(53.551086, 9.993682),
		geo.NewCoordinate(-33.86, 151.20),
		geo.NewCoordinate(0, 0),
	}

	err := SaveCoordinates(coordinates, folder)
	util.AssertNil(t, err)

	loaded, err := LoadCoordinates(folder)
	util.AssertNil(t, err)

	util.AssertEqual(t, coordinates, loaded)
}

func TestLoadCoordinates_missingFile(t *testing.T) {
	_, err := LoadCoordinates(t.TempDir())
	util.AssertNotNil(t, err)
}
