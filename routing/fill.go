// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"context"
	"math"

	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// FillPits writes a copy of the DEM at demPath to targetPath in which every
// cell has been raised to the lowest elevation at which it drains to the
// grid edge or to a nodata cell. The output keeps the data type and nodata
// value of the input.
func FillPits(ctx context.Context, demPath, targetPath string, opts Options) error {
	return run(ctx, "fill_pits", opts, func(w *workspace) (int, error) {
		dem, err := w.openInput(demPath)
		if err != nil {
			return 0, err
		}
		out, err := w.createOutput(targetPath, dem, dem.DataType, dem.NoDataValue, dem.NoDataValue)
		if err != nil {
			return 0, err
		}
		closed, err := w.scratchRaster("closed", dem, raster.DT_UINT8, 0)
		if err != nil {
			return 0, err
		}
		out.AddMetadataEntry("Created by fill_pits from " + demPath)
		return fillPits(ctx, w, dem, out, closed)
	})
}

func fillPits(ctx context.Context, w *workspace, dem, out, closed *raster.Raster) (int, error) {
	g := grid{rows: dem.Rows, columns: dem.Columns}
	queue := w.priorityQueue()

	valid := func(row, col int) bool {
		return g.inside(row, col) && !dem.IsNoData(dem.Value(row, col))
	}

	// Seed the queue with every cell that drains off the grid or into
	// nodata.
	total := 0
	p := w.progress("seeding drains", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			z := dem.Value(row, col)
			if dem.IsNoData(z) {
				continue
			}
			total++
			drain := false
			for i := 0; i < 8 && !drain; i++ {
				drain = !valid(row+dy[i], col+dx[i])
			}
			if !drain {
				continue
			}
			closed.SetValue(row, col, 1)
			out.SetValue(row, col, z)
			if err := queue.Push(g.index(row, col), z); err != nil {
				return 0, err
			}
		}
		p.incr()
	}
	if err := w.rasterErr(); err != nil {
		return 0, err
	}
	if err := w.checkpoint(ctx, "flooding"); err != nil {
		return 0, err
	}

	done := 0
	p = w.progress("flooding", total)
	for queue.Len() > 0 {
		it, err := queue.Pop()
		if err != nil {
			return done, err
		}
		done++
		p.incr()

		row, col := g.cell(it.Cell)
		for i := 0; i < 8; i++ {
			r, c := row+dy[i], col+dx[i]
			if !g.inside(r, c) || closed.Value(r, c) != 0 {
				continue
			}
			zn := dem.Value(r, c)
			if dem.IsNoData(zn) {
				continue
			}
			zn = math.Max(zn, it.Priority)
			closed.SetValue(r, c, 1)
			out.SetValue(r, c, zn)
			if err = queue.Push(g.index(r, c), zn); err != nil {
				return done, err
			}
		}
	}
	if err := w.rasterErr(); err != nil {
		return done, err
	}
	if done != total {
		return done, stalledError(w.operation, done, total)
	}
	return done, nil
}
