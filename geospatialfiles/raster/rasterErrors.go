// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Originally created by John Lindsay, Nov. 2014.

package raster

// Error types attached to the errors returned by this package. Use
// errors.Type(err) from github.com/aukilabs/go-tooling/pkg/errors to
// inspect them.
const (
	ErrTypeUnsupportedFormat = "raster_unsupported_format"
	ErrTypeFileDoesNotExist  = "raster_file_does_not_exist"
	ErrTypeFileRead          = "raster_file_read"
	ErrTypeFileWrite         = "raster_file_write"
	ErrTypeFileDelete        = "raster_file_delete"
	ErrTypeInvalidHeader     = "raster_invalid_header"
	ErrTypeInvalidWindow     = "raster_invalid_window"
	ErrTypeReadOnly          = "raster_read_only"
	ErrTypeClosed            = "raster_closed"
)
