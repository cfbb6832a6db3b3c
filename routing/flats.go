// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/structures"
)

// flats resolves plateaus, connected runs of equal-elevation cells that got
// no direction from the steepest descent pass. Each plateau drains towards
// the nearest resolved cell of the same height (a downhill drain) or, when
// there is none, towards its cells touching nodata or the grid edge.
//
// region stamps every plateau member with the plateau id and every downhill
// drain with its negation; dist is only meaningful for stamped cells.
type flats struct {
	g        grid
	dem      *raster.Raster
	region   *raster.Raster
	dist     *raster.Raster
	resolved func(row, col int) bool
	nextID   float64

	bfs     *structures.CellQueue
	members *structures.CellQueue
	drains  *structures.CellQueue
	edges   *structures.CellQueue
	relaxQ  *structures.CellQueue
}

const unsetDistance = -1.0

func newFlats(w *workspace, dem *raster.Raster, resolved func(row, col int) bool) (*flats, error) {
	region, err := w.scratchRaster("region", dem, raster.DT_FLOAT64, 0)
	if err != nil {
		return nil, err
	}
	dist, err := w.scratchRaster("flat_distance", dem, raster.DT_FLOAT64, unsetDistance)
	if err != nil {
		return nil, err
	}
	return &flats{
		g:        grid{rows: dem.Rows, columns: dem.Columns},
		dem:      dem,
		region:   region,
		dist:     dist,
		resolved: resolved,
		bfs:      w.cellQueue(),
		members:  w.cellQueue(),
		drains:   w.cellQueue(),
		edges:    w.cellQueue(),
		relaxQ:   w.cellQueue(),
	}, nil
}

func (f *flats) valid(row, col int) bool {
	return f.g.inside(row, col) && !f.dem.IsNoData(f.dem.Value(row, col))
}

// pending reports whether (row, col) still needs a plateau walk.
func (f *flats) pending(row, col int) bool {
	return f.region.Value(row, col) == 0 && !f.resolved(row, col)
}

// collect walks the plateau containing (row, col), filling members, drains
// and edges in breadth-first order, and returns its id.
func (f *flats) collect(row, col int) (float64, error) {
	f.nextID++
	id := f.nextID
	z := f.dem.Value(row, col)

	f.region.SetValue(row, col, id)
	if err := f.bfs.Push(f.g.index(row, col)); err != nil {
		return id, err
	}
	for {
		cell, ok, err := f.bfs.Pop()
		if err != nil {
			return id, err
		}
		if !ok {
			break
		}
		if err = f.members.Push(cell); err != nil {
			return id, err
		}

		r, c := f.g.cell(cell)
		edge := false
		for i := 0; i < 8; i++ {
			nr, nc := r+dy[i], c+dx[i]
			if !f.valid(nr, nc) {
				edge = true
				continue
			}
			if f.dem.Value(nr, nc) != z {
				continue
			}
			stamp := f.region.Value(nr, nc)
			if f.resolved(nr, nc) {
				if stamp != -id {
					f.region.SetValue(nr, nc, -id)
					f.dist.SetValue(nr, nc, 0)
					err = f.drains.Push(f.g.index(nr, nc))
				}
			} else if stamp == 0 {
				f.region.SetValue(nr, nc, id)
				err = f.bfs.Push(f.g.index(nr, nc))
			}
			if err != nil {
				return id, err
			}
		}
		if edge {
			if err = f.edges.Push(cell); err != nil {
				return id, err
			}
		}
	}
	return id, nil
}

// seed moves the plateau's drains into the relaxation queue. Downhill drains
// win over edge cells; edge cells are handed to drainEdge so that they get
// their direction before relaxation. It reports false for a plateau without
// any drain.
func (f *flats) seed(drainEdge func(row, col int)) (bool, error) {
	if f.drains.Len() > 0 {
		if err := drainQueue(f.edges, nil); err != nil {
			return false, err
		}
		return true, drainQueue(f.drains, f.relaxQ.Push)
	}
	if f.edges.Len() == 0 {
		return false, nil
	}
	return true, drainQueue(f.edges, func(cell int64) error {
		row, col := f.g.cell(cell)
		drainEdge(row, col)
		f.dist.SetValue(row, col, 0)
		return f.relaxQ.Push(cell)
	})
}

// relax computes, for every member, the length of the shortest path to a
// seed through the plateau, using label correction in FIFO order. lowered
// is called each time a member's distance drops, with the direction from
// the member towards the cell it was reached from.
func (f *flats) relax(id float64, lowered func(row, col, dir int)) error {
	for {
		cell, ok, err := f.relaxQ.Pop()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		row, col := f.g.cell(cell)
		d := f.dist.Value(row, col)
		for i := 0; i < 8; i++ {
			r, c := row+dy[i], col+dx[i]
			if !f.g.inside(r, c) || f.region.Value(r, c) != id {
				continue
			}
			dn := f.dist.Value(r, c)
			if dn == 0 && f.resolved(r, c) {
				continue
			}
			nd := d + stepLength(i)
			if dn == unsetDistance || dn > nd {
				f.dist.SetValue(r, c, nd)
				if lowered != nil {
					lowered(r, c, Inverse(i))
				}
				if err = f.relaxQ.Push(f.g.index(r, c)); err != nil {
					return err
				}
			}
		}
	}
}

// distance returns the drain distance of (row, col) for plateau id, or
// false when the cell is neither a member nor a drain of it.
func (f *flats) distance(id float64, row, col int) (float64, bool) {
	if !f.g.inside(row, col) {
		return 0, false
	}
	if stamp := f.region.Value(row, col); stamp != id && stamp != -id {
		return 0, false
	}
	d := f.dist.Value(row, col)
	return d, d != unsetDistance
}

func drainQueue(q *structures.CellQueue, fn func(cell int64) error) error {
	for {
		cell, ok, err := q.Pop()
		if err != nil || !ok {
			return err
		}
		if fn != nil {
			if err = fn(cell); err != nil {
				return err
			}
		}
	}
}
