package index

import "roadsnap/geo"

// hilbertCode maps a fixed-point coordinate onto a 64-bit index along the
// Hilbert space-filling curve. Both axes are shifted into the unsigned
// range, transposed into Hilbert order and bit-interleaved. The code is
// used purely as a sort key to cluster spatially nearby segments into the
// same leaf pages.
func hilbertCode(c geo.Coordinate) uint64 {
	location := [2]uint32{
		uint32(int64(c.Lat) + 90*geo.CoordinatePrecision),
		uint32(int64(c.Lon) + 180*geo.CoordinatePrecision),
	}
	transposeCoordinate(&location)
	return bitInterleaving(location[0], location[1])
}

func transposeCoordinate(x *[2]uint32) {
	const m = uint32(1) << 31

	// Inverse undo
	for q := m; q > 1; q >>= 1 {
		p := q - 1
		for i := 0; i < 2; i++ {
			if x[i]&q != 0 {
				x[0] ^= p
			} else {
				t := (x[0] ^ x[i]) & p
				x[0] ^= t
				x[i] ^= t
			}
		}
	}

	// Gray encode
	x[1] ^= x[0]
	var t uint32
	for q := m; q > 1; q >>= 1 {
		if x[1]&q != 0 {
			t ^= q - 1
		}
	}
	x[0] ^= t
	x[1] ^= t
}

func bitInterleaving(latitude uint32, longitude uint32) uint64 {
	var result uint64
	for index := 31; index >= 0; index-- {
		result |= uint64((latitude >> uint(index)) & 1)
		result <<= 1
		result |= uint64((longitude >> uint(index)) & 1)
		if index != 0 {
			result <<= 1
		}
	}
	return result
}
