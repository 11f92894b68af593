package storage

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"roadsnap/geo"
)

const CoordinatesFilename = "coordinates.bin"

/*
	Coordinate table format (little endian):

	Names: | count | lat/lon pairs |
	Bytes: |   4   |   count * 8   |
*/

// SaveCoordinates writes the fixed-point coordinate table to the given
// base folder.
func SaveCoordinates(coordinates []geo.Coordinate, baseFolder string) error {
	filename := path.Join(baseFolder, CoordinatesFilename)

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create coordinate file %s", filename)
	}
	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for coordinate store %s", filename))
	}()

	writer := bufio.NewWriter(file)

	var buffer [8]byte
	binary.LittleEndian.PutUint32(buffer[:4], uint32(len(coordinates)))
	_, err = writer.Write(buffer[:4])
	if err != nil {
		return errors.Wrapf(err, "Unable to write coordinate count to coordinate file %s", filename)
	}

	for _, coordinate := range coordinates {
		binary.LittleEndian.PutUint32(buffer[0:], uint32(coordinate.Lat))
		binary.LittleEndian.PutUint32(buffer[4:], uint32(coordinate.Lon))
		_, err = writer.Write(buffer[:])
		if err != nil {
			return errors.Wrapf(err, "Unable to write coordinate to coordinate file %s", filename)
		}
	}

	return errors.Wrapf(writer.Flush(), "Unable to flush coordinate file %s", filename)
}

func LoadCoordinates(baseFolder string) ([]geo.Coordinate, error) {
	filename := path.Join(baseFolder, CoordinatesFilename)

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open coordinate file %s", filename)
	}
	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for coordinate store %s", filename))
	}()

	reader := bufio.NewReader(file)

	var buffer [8]byte
	_, err = io.ReadFull(reader, buffer[:4])
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read coordinate count from coordinate file %s", filename)
	}
	count := binary.LittleEndian.Uint32(buffer[:4])

	coordinates := make([]geo.Coordinate, count)
	for i := uint32(0); i < count; i++ {
		_, err = io.ReadFull(reader, buffer[:])
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read coordinate %d from coordinate file %s", i, filename)
		}
		coordinates[i] = geo.Coordinate{
			Lat: int32(binary.LittleEndian.Uint32(buffer[0:])),
			Lon: int32(binary.LittleEndian.Uint32(buffer[4:])),
		}
	}

	sigolo.Debugf("Loaded %d coordinates from coordinate file %s", count, filename)

	return coordinates, nil
}
