// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// router reads the flow graph stored in a direction raster.
type router interface {
	// valid reports whether (row, col) is part of the flow graph.
	valid(row, col int) bool

	// check returns an error if the direction stored at a valid cell is
	// malformed.
	check(row, col int) error

	// outflows calls fn for each in-grid neighbour that receives flow from
	// (row, col), with the direction towards it and the share of flow sent.
	outflows(row, col int, fn func(r, c, dir int, share float64))

	// sends reports whether (row, col) sends flow in direction dir.
	sends(row, col, dir int) bool
}

type d8Router struct {
	g    grid
	dirs *raster.Raster
}

func newD8Router(dirs *raster.Raster) *d8Router {
	return &d8Router{g: grid{rows: dirs.Rows, columns: dirs.Columns}, dirs: dirs}
}

func (d *d8Router) valid(row, col int) bool {
	return d.g.inside(row, col) && !d.dirs.IsNoData(d.dirs.Value(row, col))
}

func (d *d8Router) check(row, col int) error {
	v := d.dirs.Value(row, col)
	if v >= 0 && v <= 7 && v == math.Trunc(v) {
		return nil
	}
	return errors.Newf("d8 direction %v is not in 0..7", v).
		WithType(ErrTypeInvalidDirection).
		WithTag("file", d.dirs.FileName).
		WithTag("row", row).
		WithTag("column", col)
}

func (d *d8Router) outflows(row, col int, fn func(r, c, dir int, share float64)) {
	dir := int(d.dirs.Value(row, col))
	if r, c := row+dy[dir], col+dx[dir]; d.g.inside(r, c) {
		fn(r, c, dir, 1)
	}
}

func (d *d8Router) sends(row, col, dir int) bool {
	return d.valid(row, col) && int(d.dirs.Value(row, col)) == dir
}

type mfdRouter struct {
	g    grid
	dirs *raster.Raster
}

func newMFDRouter(dirs *raster.Raster) *mfdRouter {
	return &mfdRouter{g: grid{rows: dirs.Rows, columns: dirs.Columns}, dirs: dirs}
}

func (m *mfdRouter) fields(row, col int) MFDDirections {
	return UnpackMFD(uint32(m.dirs.Value(row, col)))
}

func (m *mfdRouter) valid(row, col int) bool {
	return m.g.inside(row, col) && !m.dirs.IsNoData(m.dirs.Value(row, col))
}

func (m *mfdRouter) check(row, col int) error {
	v := m.dirs.Value(row, col)
	if v >= 0 && v < mfdPending && v == math.Trunc(v) {
		return nil
	}
	return errors.Newf("mfd direction %v cannot be unpacked", v).
		WithType(ErrTypeInvalidDirection).
		WithTag("file", m.dirs.FileName).
		WithTag("row", row).
		WithTag("column", col)
}

func (m *mfdRouter) outflows(row, col int, fn func(r, c, dir int, share float64)) {
	f := m.fields(row, col)
	total := float64(f.Sum())
	if total == 0 {
		return
	}
	for i, v := range f {
		if v == 0 {
			continue
		}
		if r, c := row+dy[i], col+dx[i]; m.g.inside(r, c) {
			fn(r, c, i, float64(v)/total)
		}
	}
}

func (m *mfdRouter) sends(row, col, dir int) bool {
	return m.valid(row, col) && m.fields(row, col)[dir] > 0
}

// weightAt returns the weight of (row, col), 1 without a weight raster and
// 0 where the weight raster holds nodata.
func weightAt(weights *raster.Raster, row, col int) float64 {
	if weights == nil {
		return 1
	}
	v := weights.Value(row, col)
	if weights.IsNoData(v) {
		return 0
	}
	return v
}
