// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"context"

	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// d8Pending marks D8 cells whose plateau has not been walked yet.
const d8Pending = 255

// FlowDirD8 writes the steepest descent direction of every cell of the
// filled DEM at demPath to an unsigned byte raster. Ties go to the lowest
// direction number. Cells of plateaus without any drain and nodata cells
// get D8NoData.
func FlowDirD8(ctx context.Context, demPath, targetPath string, opts Options) error {
	return run(ctx, "flow_dir_d8", opts, func(w *workspace) (int, error) {
		dem, err := w.openInput(demPath)
		if err != nil {
			return 0, err
		}
		out, err := w.createOutput(targetPath, dem, raster.DT_UINT8, D8NoData, d8Pending)
		if err != nil {
			return 0, err
		}
		out.GetRasterConfig().PhotometricInterpretation = 1
		return flowDirD8(ctx, w, dem, out)
	})
}

func flowDirD8(ctx context.Context, w *workspace, dem, out *raster.Raster) (int, error) {
	g := grid{rows: dem.Rows, columns: dem.Columns}
	valid := func(row, col int) bool {
		return g.inside(row, col) && !dem.IsNoData(dem.Value(row, col))
	}

	cells := 0
	p := w.progress("steepest descent", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			z := dem.Value(row, col)
			if dem.IsNoData(z) {
				out.SetValue(row, col, D8NoData)
				continue
			}
			cells++
			best, bestSlope := -1, 0.0
			for i := 0; i < 8; i++ {
				r, c := row+dy[i], col+dx[i]
				if !valid(r, c) {
					continue
				}
				if slope := (z - dem.Value(r, c)) / stepLength(i); slope > bestSlope {
					best, bestSlope = i, slope
				}
			}
			if best >= 0 {
				out.SetValue(row, col, float64(best))
			}
		}
		p.incr()
	}
	if err := w.rasterErr(); err != nil {
		return cells, err
	}
	if err := w.checkpoint(ctx, "plateaus"); err != nil {
		return cells, err
	}

	f, err := newFlats(w, dem, func(row, col int) bool {
		return out.Value(row, col) != d8Pending
	})
	if err != nil {
		return cells, err
	}
	setDir := func(row, col, dir int) {
		out.SetValue(row, col, float64(dir))
	}

	p = w.progress("plateaus", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			if !valid(row, col) || !f.pending(row, col) {
				continue
			}
			id, err := f.collect(row, col)
			if err != nil {
				return cells, err
			}
			drained, err := f.seed(func(r, c int) {
				setDir(r, c, edgeDirection(valid, r, c))
			})
			if err != nil {
				return cells, err
			}
			if !drained {
				err = drainQueue(f.members, func(cell int64) error {
					r, c := g.cell(cell)
					out.SetValue(r, c, D8NoData)
					return nil
				})
			} else {
				err = drainQueue(f.members, nil)
				if err == nil {
					err = f.relax(id, setDir)
				}
			}
			if err != nil {
				return cells, err
			}
		}
		p.incr()
	}
	return cells, w.rasterErr()
}

// edgeDirection points a plateau cell at its first invalid neighbour,
// preferring cardinal ones.
func edgeDirection(valid func(row, col int) bool, row, col int) int {
	diagonal := -1
	for i := 0; i < 8; i++ {
		if valid(row+dy[i], col+dx[i]) {
			continue
		}
		if i&1 == 0 {
			return i
		}
		if diagonal < 0 {
			diagonal = i
		}
	}
	return diagonal
}

// FlowDirMFD writes multiple flow directions for every cell of the filled
// DEM at demPath to an unsigned 32 bit raster, packed with PackMFD. Each
// lower neighbour receives a share proportional to its drop divided by its
// distance. Sinks and nodata cells are MFDNoData.
func FlowDirMFD(ctx context.Context, demPath, targetPath string, opts Options) error {
	return run(ctx, "flow_dir_mfd", opts, func(w *workspace) (int, error) {
		dem, err := w.openInput(demPath)
		if err != nil {
			return 0, err
		}
		out, err := w.createOutput(targetPath, dem, raster.DT_UINT32, MFDNoData, mfdPending)
		if err != nil {
			return 0, err
		}
		out.GetRasterConfig().PhotometricInterpretation = 1
		return flowDirMFD(ctx, w, dem, out)
	})
}

func flowDirMFD(ctx context.Context, w *workspace, dem, out *raster.Raster) (int, error) {
	g := grid{rows: dem.Rows, columns: dem.Columns}
	valid := func(row, col int) bool {
		return g.inside(row, col) && !dem.IsNoData(dem.Value(row, col))
	}
	setWeights := func(row, col int, weights [8]float64) {
		out.SetValue(row, col, float64(PackMFD(quantizeMFD(weights))))
	}

	cells := 0
	p := w.progress("downslope weights", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			z := dem.Value(row, col)
			if dem.IsNoData(z) {
				out.SetValue(row, col, MFDNoData)
				continue
			}
			cells++
			var weights [8]float64
			downslope := false
			for i := 0; i < 8; i++ {
				r, c := row+dy[i], col+dx[i]
				if !valid(r, c) {
					continue
				}
				if s := (z - dem.Value(r, c)) / stepLength(i); s > 0 {
					weights[i] = s
					downslope = true
				}
			}
			if downslope {
				setWeights(row, col, weights)
			}
		}
		p.incr()
	}
	if err := w.rasterErr(); err != nil {
		return cells, err
	}
	if err := w.checkpoint(ctx, "plateaus"); err != nil {
		return cells, err
	}

	f, err := newFlats(w, dem, func(row, col int) bool {
		return out.Value(row, col) != mfdPending
	})
	if err != nil {
		return cells, err
	}

	p = w.progress("plateaus", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			if !valid(row, col) || !f.pending(row, col) {
				continue
			}
			id, err := f.collect(row, col)
			if err != nil {
				return cells, err
			}
			drained, err := f.seed(func(r, c int) {
				var weights [8]float64
				for i := 0; i < 8; i++ {
					if !valid(r+dy[i], c+dx[i]) {
						weights[i] = 1 / stepLength(i)
					}
				}
				setWeights(r, c, weights)
			})
			if err != nil {
				return cells, err
			}
			if !drained {
				err = drainQueue(f.members, func(cell int64) error {
					r, c := g.cell(cell)
					out.SetValue(r, c, MFDNoData)
					return nil
				})
				if err != nil {
					return cells, err
				}
				continue
			}
			if err = f.relax(id, nil); err != nil {
				return cells, err
			}
			err = drainQueue(f.members, func(cell int64) error {
				r, c := g.cell(cell)
				if f.resolved(r, c) {
					return nil
				}
				d, ok := f.distance(id, r, c)
				if !ok {
					return nil
				}
				var weights [8]float64
				for i := 0; i < 8; i++ {
					if dn, ok := f.distance(id, r+dy[i], c+dx[i]); ok && dn < d {
						weights[i] = (d - dn) / stepLength(i)
					}
				}
				setWeights(r, c, weights)
				return nil
			})
			if err != nil {
				return cells, err
			}
		}
		p.incr()
	}
	return cells, w.rasterErr()
}
