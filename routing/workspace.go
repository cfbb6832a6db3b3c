// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/geospatialfiles/vector"
	"github.com/jblindsay/go-hydro/structures"
)

// workspace owns everything a single call opens or creates: a private
// scratch directory, its queues, scratch rasters, inputs and outputs.
type workspace struct {
	operation string
	dir       string
	opts      Options

	inputs  []*raster.Raster
	outputs []*raster.Raster
	scratch []*raster.Raster
	targets []string

	cellQueues []*structures.CellQueue
	pqueues    []*structures.PQueue
}

// run executes fn inside a fresh workspace. On failure every output is
// deleted; the scratch directory is always removed.
func run(ctx context.Context, operation string, opts Options, fn func(w *workspace) (int, error)) (err error) {
	start := time.Now()
	cells, spills := 0, 0
	defer func() {
		instrumentOperation(operation, start, cells, spills, err)
	}()

	if err = checkpoint(ctx, operation, "start"); err != nil {
		return err
	}

	w, err := newWorkspace(operation, opts)
	if err != nil {
		return err
	}
	logs.WithTag("operation", operation).
		WithTag("scratch_dir", w.dir).
		Debug("workspace created")

	cells, err = fn(w)
	spills = w.spills()
	if cerr := w.close(err == nil); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logs.WithTag("operation", operation).
		WithTag("cells", cells).
		WithTag("spills", spills).
		WithTag("elapsed", time.Since(start).String()).
		Info("operation completed")
	return nil
}

func newWorkspace(operation string, opts Options) (*workspace, error) {
	parent := opts.WorkingDir
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "gohydro-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New("creating the scratch directory failed").
			WithType(ErrTypeWorkingDir).
			WithTag("dir", dir).
			Wrap(err)
	}
	return &workspace{operation: operation, dir: dir, opts: opts}, nil
}

// checkpoint is consulted between passes only; a started pass always runs
// to completion.
func checkpoint(ctx context.Context, operation, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.New("operation canceled").
			WithType(ErrTypeCanceled).
			WithTag("operation", operation).
			WithTag("stage", stage).
			Wrap(err)
	}
	return nil
}

func (w *workspace) checkpoint(ctx context.Context, stage string) error {
	return checkpoint(ctx, w.operation, stage)
}

func (w *workspace) progress(stage string, total int) *progress {
	return w.opts.progress(stage, total)
}

// sizeCache lets a raster hold a band of blocks three block rows high so
// that row-major scans with a one-cell neighbourhood do not thrash.
func (w *workspace) sizeCache(r *raster.Raster) {
	if n := 3*r.BlocksAcross() + 1; n > w.opts.rasterConfig().MaxCachedBlocks {
		r.SetMaxCachedBlocks(n)
	}
}

// openInput opens an existing raster read-only. An empty path yields nil.
func (w *workspace) openInput(path string) (*raster.Raster, error) {
	if path == "" {
		return nil, nil
	}
	r, err := raster.CreateRasterFromFile(path, w.opts.rasterConfig())
	if err != nil {
		return nil, err
	}
	w.sizeCache(r)
	w.inputs = append(w.inputs, r)
	return r, nil
}

// createOutput creates the raster at path aligned with base. It is deleted
// again if the call fails.
func (w *workspace) createOutput(path string, base *raster.Raster, dataType int, nodata, initial float64) (*raster.Raster, error) {
	w.targets = append(w.targets, path)
	r, err := raster.NewRasterFromBase(base, path, dataType, nodata, initial, w.opts.rasterConfig())
	if err != nil {
		return nil, err
	}
	w.sizeCache(r)
	w.outputs = append(w.outputs, r)
	return r, nil
}

// addTarget registers a non-raster output file for removal on failure.
func (w *workspace) addTarget(path string) {
	w.targets = append(w.targets, path)
}

// scratchRaster creates a raster inside the scratch directory.
func (w *workspace) scratchRaster(name string, base *raster.Raster, dataType int, initial float64) (*raster.Raster, error) {
	path := filepath.Join(w.dir, name+".dep")
	r, err := raster.NewRasterFromBase(base, path, dataType, initial, initial, w.opts.rasterConfig())
	if err != nil {
		return nil, err
	}
	w.sizeCache(r)
	w.scratch = append(w.scratch, r)
	return r, nil
}

func (w *workspace) cellQueue() *structures.CellQueue {
	q := structures.NewCellQueue(w.dir, w.opts.MaxQueueItems)
	w.cellQueues = append(w.cellQueues, q)
	return q
}

func (w *workspace) priorityQueue() *structures.PQueue {
	q := structures.NewPQueue(structures.MINPQ, w.dir, w.opts.MaxQueueItems)
	w.pqueues = append(w.pqueues, q)
	return q
}

func (w *workspace) spills() int {
	n := 0
	for _, q := range w.cellQueues {
		n += q.Spills()
	}
	for _, q := range w.pqueues {
		n += q.Spills()
	}
	return n
}

// rasterErr returns the first sticky I/O error of the rasters in use.
func (w *workspace) rasterErr() error {
	for _, group := range [][]*raster.Raster{w.inputs, w.scratch, w.outputs} {
		for _, r := range group {
			if err := r.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *workspace) close(ok bool) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, q := range w.cellQueues {
		keep(q.Close())
	}
	for _, q := range w.pqueues {
		keep(q.Close())
	}
	if ok {
		keep(w.rasterErr())
	}
	for _, r := range w.inputs {
		keep(r.Close())
	}
	for _, r := range w.scratch {
		keep(r.Close())
	}
	for _, r := range w.outputs {
		if ok && firstErr == nil {
			keep(r.Close())
		} else {
			r.Close()
		}
	}

	if !ok || firstErr != nil {
		for _, path := range w.targets {
			if err := removeOutput(path); err != nil {
				logs.Warn(errors.New("removing partial output failed").
					WithTag("path", path).
					Wrap(err))
			}
		}
	}

	if err := os.RemoveAll(w.dir); err != nil {
		keep(errors.New("removing the scratch directory failed").
			WithType(ErrTypeWorkingDir).
			WithTag("dir", w.dir).
			Wrap(err))
	}
	return firstErr
}

func removeOutput(path string) error {
	if raster.IsSupportedRasterFileExtension(path) {
		return raster.DeleteRaster(path)
	}
	return vector.DeleteShapefile(path)
}
