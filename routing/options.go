// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// ProgressFunc receives the progress of the current pass of an operation.
type ProgressFunc func(stage string, done, total int)

// Options controls where scratch data lives and how much of it is held in
// memory. The zero value is usable.
type Options struct {
	// WorkingDir is the parent of the per-call scratch directory. Defaults
	// to os.TempDir().
	WorkingDir string

	// MaxQueueItems bounds the in-memory part of every queue.
	MaxQueueItems int

	// Cache shape of every raster opened or created by the call.
	BlockRows       int
	BlockColumns    int
	MaxCachedBlocks int

	Progress ProgressFunc
}

func (o Options) rasterConfig() *raster.RasterConfig {
	c := raster.NewDefaultRasterConfig()
	if o.BlockRows > 0 {
		c.BlockRows = o.BlockRows
	}
	if o.BlockColumns > 0 {
		c.BlockColumns = o.BlockColumns
	}
	if o.MaxCachedBlocks > 0 {
		c.MaxCachedBlocks = o.MaxCachedBlocks
	}
	return c
}

// progress reports at most about a hundred times per pass.
type progress struct {
	fn    ProgressFunc
	stage string
	total int
	step  int
	done  int
}

func (o Options) progress(stage string, total int) *progress {
	step := total / 100
	if step < 1 {
		step = 1
	}
	p := &progress{fn: o.Progress, stage: stage, total: total, step: step}
	p.report()
	return p
}

func (p *progress) incr() {
	p.done++
	if p.done%p.step == 0 || p.done == p.total {
		p.report()
	}
}

func (p *progress) report() {
	if p.fn != nil {
		p.fn(p.stage, p.done, p.total)
	}
}
