// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// Error types attached to the errors returned by this package.
const (
	ErrTypeShapeMismatch       = "routing_shape_mismatch"
	ErrTypeInvalidDirection    = "routing_invalid_direction"
	ErrTypeInvalidOutflowPoint = "routing_invalid_outflow_point"
	ErrTypeStalled             = "routing_stalled"
	ErrTypeWorkingDir          = "routing_working_dir"
	ErrTypeCanceled            = "routing_canceled"
)

func requireSameShape(base *raster.Raster, others ...*raster.Raster) error {
	for _, o := range others {
		if o == nil || base.SameShape(o) {
			continue
		}
		return errors.Newf("raster is %dx%d, expected %dx%d", o.Rows, o.Columns, base.Rows, base.Columns).
			WithType(ErrTypeShapeMismatch).
			WithTag("base", base.FileName).
			WithTag("file", o.FileName)
	}
	return nil
}

func stalledError(operation string, done, total int) error {
	return errors.Newf("propagation stalled after %d of %d cells", done, total).
		WithType(ErrTypeStalled).
		WithTag("operation", operation)
}
