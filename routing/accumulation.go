// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"context"

	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// FlowAccumulationD8 writes, for every cell of the D8 direction raster at
// dirPath, its own weight plus the accumulation of every cell draining into
// it. weightPath may be empty, in which case every cell weighs 1.
func FlowAccumulationD8(ctx context.Context, dirPath, targetPath, weightPath string, opts Options) error {
	return flowAccumulation(ctx, "flow_accumulation_d8", dirPath, targetPath, weightPath, opts,
		func(dirs *raster.Raster) router { return newD8Router(dirs) })
}

// FlowAccumulationMFD is FlowAccumulationD8 for a packed MFD direction
// raster: every cell passes its accumulation on in proportion to its flow
// fields.
func FlowAccumulationMFD(ctx context.Context, dirPath, targetPath, weightPath string, opts Options) error {
	return flowAccumulation(ctx, "flow_accumulation_mfd", dirPath, targetPath, weightPath, opts,
		func(dirs *raster.Raster) router { return newMFDRouter(dirs) })
}

func flowAccumulation(ctx context.Context, operation, dirPath, targetPath, weightPath string,
	opts Options, newRouter func(*raster.Raster) router) error {

	return run(ctx, operation, opts, func(w *workspace) (int, error) {
		dirs, err := w.openInput(dirPath)
		if err != nil {
			return 0, err
		}
		weights, err := w.openInput(weightPath)
		if err != nil {
			return 0, err
		}
		if err = requireSameShape(dirs, weights); err != nil {
			return 0, err
		}
		out, err := w.createOutput(targetPath, dirs, raster.DT_FLOAT64, OutputNoData, OutputNoData)
		if err != nil {
			return 0, err
		}
		pending, err := w.scratchRaster("pending", dirs, raster.DT_UINT8, 0)
		if err != nil {
			return 0, err
		}
		return accumulate(ctx, w, newRouter(dirs), weights, out, pending)
	})
}

func accumulate(ctx context.Context, w *workspace, rt router, weights, out, pending *raster.Raster) (int, error) {
	g := grid{rows: out.Rows, columns: out.Columns}

	// In-degree of every cell, counting only valid in-grid receivers.
	total := 0
	p := w.progress("counting inflows", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			if !rt.valid(row, col) {
				continue
			}
			if err := rt.check(row, col); err != nil {
				return 0, err
			}
			total++
			out.SetValue(row, col, weightAt(weights, row, col))
			rt.outflows(row, col, func(r, c, _ int, _ float64) {
				if rt.valid(r, c) {
					pending.SetValue(r, c, pending.Value(r, c)+1)
				}
			})
		}
		p.incr()
	}
	if err := w.rasterErr(); err != nil {
		return 0, err
	}
	if err := w.checkpoint(ctx, "accumulating"); err != nil {
		return 0, err
	}

	queue := w.cellQueue()
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			if rt.valid(row, col) && pending.Value(row, col) == 0 {
				if err := queue.Push(g.index(row, col)); err != nil {
					return 0, err
				}
			}
		}
	}

	done := 0
	p = w.progress("accumulating", total)
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
		acc := out.Value(row, col)
		rt.outflows(row, col, func(r, c, _ int, share float64) {
			if err != nil || !rt.valid(r, c) {
				return
			}
			out.SetValue(r, c, out.Value(r, c)+acc*share)
			n := pending.Value(r, c) - 1
			pending.SetValue(r, c, n)
			if n == 0 {
				err = queue.Push(g.index(r, c))
			}
		})
		if err != nil {
			return done, err
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
