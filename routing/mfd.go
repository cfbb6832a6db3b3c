// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MFDDirections holds the flow proportion, 0 to 15, sent towards each of the
// eight D8 directions.
type MFDDirections [8]uint8

// PackMFD encodes d with direction i in bits 4i to 4i+3.
func PackMFD(d MFDDirections) uint32 {
	var v uint32
	for i, f := range d {
		v |= uint32(f&0xF) << (4 * i)
	}
	return v
}

// UnpackMFD is the inverse of PackMFD.
func UnpackMFD(v uint32) MFDDirections {
	var d MFDDirections
	for i := range d {
		d[i] = uint8(v>>(4*i)) & 0xF
	}
	return d
}

// Sum returns the total of the eight fields.
func (d MFDDirections) Sum() int {
	s := 0
	for _, f := range d {
		s += int(f)
	}
	return s
}

// Sink reports whether no flow leaves the cell.
func (d MFDDirections) Sink() bool {
	return d == MFDDirections{}
}

// quantizeMFD scales positive weights so that each direction gets
// floor(15*w/sum + 0.5). The fields are not adjusted to sum to exactly 15.
func quantizeMFD(weights [8]float64) MFDDirections {
	var d MFDDirections
	total := floats.Sum(weights[:])
	if total <= 0 {
		return d
	}
	for i, w := range weights {
		if w > 0 {
			d[i] = uint8(math.Floor(15*w/total + 0.5))
		}
	}
	return d
}

// mfdPending marks MFD cells whose flat region has not been resolved yet.
// No quantised set of weights packs to it.
const mfdPending = math.MaxUint32
