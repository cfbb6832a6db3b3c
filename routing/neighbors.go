// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import "math"

// D8 directions. Direction d points at the neighbour at (row+dy[d],
// column+dx[d]); odd directions are diagonal.
const (
	East = iota
	NorthEast
	North
	NorthWest
	West
	SouthWest
	South
	SouthEast
)

// D8NoData marks cells without a D8 direction.
const D8NoData = 128

// MFDNoData marks sinks and invalid cells in an MFD direction raster.
const MFDNoData = 0

// Accumulation and distance rasters use this nodata value.
const OutputNoData = -1.0

var (
	dx = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dy = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
)

// Inverse returns the direction pointing back along d.
func Inverse(d int) int {
	return (d + 4) % 8
}

func stepLength(d int) float64 {
	if d&1 == 1 {
		return math.Sqrt2
	}
	return 1
}

type grid struct {
	rows, columns int
}

func (g grid) inside(row, column int) bool {
	return row >= 0 && row < g.rows && column >= 0 && column < g.columns
}

func (g grid) index(row, column int) int64 {
	return int64(row)*int64(g.columns) + int64(column)
}

func (g grid) cell(index int64) (row, column int) {
	return int(index / int64(g.columns)), int(index % int64(g.columns))
}

func (g grid) cells() int {
	return g.rows * g.columns
}
