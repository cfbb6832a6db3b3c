// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"context"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ctessum/geom"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/geospatialfiles/vector"
)

// DelineateWatersheds writes to targetVectorPath one polygon per point of
// the point shapefile at pointsPath, covering every cell of the D8 direction
// raster at d8Path that drains to that point before reaching any other.
// Polygons follow the order of the points and carry their 1-based position
// as ws_id.
//
// Cell labels are kept in a raster at scratchRasterPath, or in the
// workspace when it is empty. That raster is left filled with zeros.
func DelineateWatersheds(ctx context.Context, d8Path, pointsPath, targetVectorPath, scratchRasterPath string, opts Options) error {
	return run(ctx, "delineate_watersheds", opts, func(w *workspace) (int, error) {
		dirs, err := w.openInput(d8Path)
		if err != nil {
			return 0, err
		}
		points, err := vector.ReadPoints(pointsPath, dirs.GetRasterConfig().CoordinateRefSystemWKT)
		if err != nil {
			return 0, err
		}

		var labels *raster.Raster
		if scratchRasterPath == "" {
			labels, err = w.scratchRaster("labels", dirs, raster.DT_INT32, 0)
		} else {
			labels, err = w.createOutput(scratchRasterPath, dirs, raster.DT_INT32, -1, 0)
		}
		if err != nil {
			return 0, err
		}

		w.addTarget(targetVectorPath)
		cells, err := labelWatersheds(ctx, w, dirs, labels, points)
		if err != nil {
			return cells, err
		}
		if err = w.checkpoint(ctx, "vectorising"); err != nil {
			return cells, err
		}
		features, err := polygonize(w, labels, len(points))
		if err != nil {
			return cells, err
		}
		if err = vector.WritePolygons(targetVectorPath, dirs.GetRasterConfig().CoordinateRefSystemWKT, features); err != nil {
			return cells, err
		}
		return cells, resetLabels(labels)
	})
}

// outflowCell maps a point to the cell containing it.
func outflowCell(dirs *raster.Raster, p geom.Point) (row, col int) {
	col = int(math.Floor((p.X - dirs.West) / dirs.GetCellSizeX()))
	row = int(math.Floor((dirs.North - p.Y) / dirs.GetCellSizeY()))
	return row, col
}

func invalidOutflowPoint(msg string, index int, p geom.Point, row, col int) error {
	return errors.New(msg).
		WithType(ErrTypeInvalidOutflowPoint).
		WithTag("point", index).
		WithTag("x", p.X).
		WithTag("y", p.Y).
		WithTag("row", row).
		WithTag("column", col)
}

// labelWatersheds gives the cell of point i the label i+1 and spreads every
// label upstream at once. A cell keeps the first label reaching it.
func labelWatersheds(ctx context.Context, w *workspace, dirs, labels *raster.Raster, points []geom.Point) (int, error) {
	g := grid{rows: dirs.Rows, columns: dirs.Columns}
	rt := newD8Router(dirs)

	p := w.progress("checking directions", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			if rt.valid(row, col) {
				if err := rt.check(row, col); err != nil {
					return 0, err
				}
			}
		}
		p.incr()
	}

	queue := w.cellQueue()
	for i, pt := range points {
		row, col := outflowCell(dirs, pt)
		switch {
		case !g.inside(row, col):
			return 0, invalidOutflowPoint("outflow point is outside the grid", i, pt, row, col)
		case !rt.valid(row, col):
			return 0, invalidOutflowPoint("outflow point is on a cell without a direction", i, pt, row, col)
		case labels.Value(row, col) != 0:
			return 0, invalidOutflowPoint("outflow point shares its cell with another point", i, pt, row, col)
		}
		labels.SetValue(row, col, float64(i+1))
		if err := queue.Push(g.index(row, col)); err != nil {
			return 0, err
		}
	}
	if err := w.rasterErr(); err != nil {
		return 0, err
	}
	if err := w.checkpoint(ctx, "labelling"); err != nil {
		return 0, err
	}

	done := 0
	p = w.progress("labelling", g.cells())
	for {
		cell, ok, err := queue.Pop()
		if err != nil {
			return done, err
		}
		if !ok {
			break
		}
		done++
		p.incr()

		row, col := g.cell(cell)
		label := labels.Value(row, col)
		for i := 0; i < 8; i++ {
			r, c := row+dy[i], col+dx[i]
			if !rt.sends(r, c, Inverse(i)) || labels.Value(r, c) != 0 {
				continue
			}
			labels.SetValue(r, c, label)
			if err = queue.Push(g.index(r, c)); err != nil {
				return done, err
			}
		}
	}
	return done, w.rasterErr()
}

func resetLabels(labels *raster.Raster) error {
	for _, b := range labels.Blocks() {
		if err := labels.WriteBlock(b, make([]float64, b.Cells())); err != nil {
			return err
		}
	}
	return labels.Flush()
}
