// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"context"

	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// DistanceToChannelD8 writes the downstream distance from every cell of the
// D8 direction raster at dirPath to the first channel cell on its flow path.
// Channel cells are those holding a non-zero, non-nodata value in the raster
// at channelPath. Without a weight raster each hop costs its length, 1 or
// sqrt(2); with one a hop costs the weight of the cell it leaves. Cells
// that never reach a channel are OutputNoData.
func DistanceToChannelD8(ctx context.Context, dirPath, channelPath, targetPath, weightPath string, opts Options) error {
	return run(ctx, "distance_to_channel_d8", opts, func(w *workspace) (int, error) {
		in, err := openDistanceInputs(w, dirPath, channelPath, weightPath)
		if err != nil {
			return 0, err
		}
		out, err := w.createOutput(targetPath, in.dirs, raster.DT_FLOAT64, OutputNoData, OutputNoData)
		if err != nil {
			return 0, err
		}
		return distanceD8(ctx, w, in, out)
	})
}

// DistanceToChannelMFD is DistanceToChannelD8 for a packed MFD direction
// raster. The distance of a cell is the mean of (neighbour distance + hop
// cost) over the neighbours it drains to, weighted by its flow fields.
// Neighbours without a distance are left out of the mean.
func DistanceToChannelMFD(ctx context.Context, dirPath, channelPath, targetPath, weightPath string, opts Options) error {
	return run(ctx, "distance_to_channel_mfd", opts, func(w *workspace) (int, error) {
		in, err := openDistanceInputs(w, dirPath, channelPath, weightPath)
		if err != nil {
			return 0, err
		}
		out, err := w.createOutput(targetPath, in.dirs, raster.DT_FLOAT64, OutputNoData, OutputNoData)
		if err != nil {
			return 0, err
		}
		state, err := w.scratchRaster("pending", in.dirs, raster.DT_UINT8, 0)
		if err != nil {
			return 0, err
		}
		return distanceMFD(ctx, w, in, out, state)
	})
}

type distanceInputs struct {
	dirs     *raster.Raster
	channels *raster.Raster
	weights  *raster.Raster
}

func openDistanceInputs(w *workspace, dirPath, channelPath, weightPath string) (distanceInputs, error) {
	var in distanceInputs
	var err error
	if in.dirs, err = w.openInput(dirPath); err != nil {
		return in, err
	}
	if in.channels, err = w.openInput(channelPath); err != nil {
		return in, err
	}
	if in.weights, err = w.openInput(weightPath); err != nil {
		return in, err
	}
	return in, requireSameShape(in.dirs, in.channels, in.weights)
}

func (in distanceInputs) channel(row, col int) bool {
	v := in.channels.Value(row, col)
	return v != 0 && !in.channels.IsNoData(v)
}

func (in distanceInputs) hop(row, col, dir int) float64 {
	if in.weights == nil {
		return stepLength(dir)
	}
	return weightAt(in.weights, row, col)
}

func distanceD8(ctx context.Context, w *workspace, in distanceInputs, out *raster.Raster) (int, error) {
	g := grid{rows: out.Rows, columns: out.Columns}
	rt := newD8Router(in.dirs)
	queue := w.cellQueue()

	p := w.progress("seeding channels", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			if rt.valid(row, col) {
				if err := rt.check(row, col); err != nil {
					return 0, err
				}
			}
			if !in.channel(row, col) {
				continue
			}
			out.SetValue(row, col, 0)
			if err := queue.Push(g.index(row, col)); err != nil {
				return 0, err
			}
		}
		p.incr()
	}
	if err := w.rasterErr(); err != nil {
		return 0, err
	}
	if err := w.checkpoint(ctx, "propagating"); err != nil {
		return 0, err
	}

	done := 0
	p = w.progress("propagating", g.cells())
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
		d := out.Value(row, col)
		for i := 0; i < 8; i++ {
			r, c := row+dy[i], col+dx[i]
			up := Inverse(i)
			if !rt.sends(r, c, up) || out.Value(r, c) != OutputNoData {
				continue
			}
			out.SetValue(r, c, d+in.hop(r, c, up))
			if err = queue.Push(g.index(r, c)); err != nil {
				return done, err
			}
		}
	}
	return done, w.rasterErr()
}

// MFD cells are resolved once every neighbour they drain to is; state holds
// the number of neighbours still outstanding, or stateDone.
const stateDone = 255

func distanceMFD(ctx context.Context, w *workspace, in distanceInputs, out, state *raster.Raster) (int, error) {
	g := grid{rows: out.Rows, columns: out.Columns}
	rt := newMFDRouter(in.dirs)
	queue := w.cellQueue()

	total := 0
	p := w.progress("counting outflows", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			outstanding := 0
			if rt.valid(row, col) {
				if err := rt.check(row, col); err != nil {
					return 0, err
				}
				total++
				rt.outflows(row, col, func(_, _, _ int, _ float64) {
					outstanding++
				})
			}

			switch {
			case in.channel(row, col):
				out.SetValue(row, col, 0)
			case outstanding > 0:
				state.SetValue(row, col, float64(outstanding))
				continue
			}
			state.SetValue(row, col, stateDone)
			if err := queue.Push(g.index(row, col)); err != nil {
				return 0, err
			}
		}
		p.incr()
	}
	if err := w.rasterErr(); err != nil {
		return 0, err
	}
	if err := w.checkpoint(ctx, "propagating"); err != nil {
		return 0, err
	}

	resolve := func(row, col int) {
		var sum, fields float64
		f := rt.fields(row, col)
		rt.outflows(row, col, func(r, c, dir int, _ float64) {
			d := out.Value(r, c)
			if d == OutputNoData {
				return
			}
			sum += float64(f[dir]) * (d + in.hop(row, col, dir))
			fields += float64(f[dir])
		})
		if fields > 0 {
			out.SetValue(row, col, sum/fields)
		}
	}

	done := 0
	p = w.progress("propagating", g.cells())
	for {
		cell, ok, err := queue.Pop()
		if err != nil {
			return done, err
		}
		if !ok {
			break
		}
		row, col := g.cell(cell)
		if rt.valid(row, col) {
			done++
		}
		p.incr()

		for i := 0; i < 8; i++ {
			r, c := row+dy[i], col+dx[i]
			if !g.inside(r, c) || state.Value(r, c) == stateDone || !rt.sends(r, c, Inverse(i)) {
				continue
			}
			n := state.Value(r, c) - 1
			if n > 0 {
				state.SetValue(r, c, n)
				continue
			}
			resolve(r, c)
			state.SetValue(r, c, stateDone)
			if err = queue.Push(g.index(r, c)); err != nil {
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
