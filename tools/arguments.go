// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
)

// notSpecified reports whether an optional argument was left out.
func notSpecified(args []string, i int) bool {
	if i >= len(args) {
		return true
	}
	s := strings.TrimSpace(args[i])
	return s == "" || strings.EqualFold(s, "not specified")
}

func invalidArgument(tool, name, msg string) error {
	return errors.New(msg).
		WithType(ErrTypeInvalidArgument).
		WithTag("tool", tool).
		WithTag("argument", name)
}

// resolvePath places bare file names in the working directory.
func (ptm *PluginToolManager) resolvePath(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && !strings.Contains(s, pathSep) {
		s = ptm.workingDirectory + s
	}
	return s
}

// inputFile returns the path of a required, existing input file.
func (ptm *PluginToolManager) inputFile(tool string, args []string, i int, name string) (string, error) {
	if notSpecified(args, i) {
		return "", invalidArgument(tool, name, "missing required argument")
	}
	path := ptm.resolvePath(args[i])
	if _, err := os.Stat(path); err != nil {
		return "", errors.New("no such file or directory").
			WithType(ErrTypeInvalidArgument).
			WithTag("tool", tool).
			WithTag("argument", name).
			WithTag("path", path).
			Wrap(err)
	}
	return path, nil
}

// optionalInputFile is inputFile for arguments that may be left out, in
// which case the path is empty.
func (ptm *PluginToolManager) optionalInputFile(tool string, args []string, i int, name string) (string, error) {
	if notSpecified(args, i) {
		return "", nil
	}
	return ptm.inputFile(tool, args, i, name)
}

// outputRaster returns the path of a raster to create. Names without a
// supported raster extension get ".dep".
func (ptm *PluginToolManager) outputRaster(tool string, args []string, i int, name string) (string, error) {
	if notSpecified(args, i) {
		return "", invalidArgument(tool, name, "missing required argument")
	}
	path := ptm.resolvePath(args[i])
	if !raster.IsSupportedRasterFileExtension(path) {
		path += ".dep"
	}
	return path, nil
}

// outputShapefile returns the path of a shapefile to create, adding ".shp"
// if needed.
func (ptm *PluginToolManager) outputShapefile(tool string, args []string, i int, name string) (string, error) {
	if notSpecified(args, i) {
		return "", invalidArgument(tool, name, "missing required argument")
	}
	path := ptm.resolvePath(args[i])
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}
	return path, nil
}

func floatArgument(tool string, args []string, i int, name string, def float64) (float64, error) {
	if notSpecified(args, i) {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
	if err != nil {
		return 0, errors.New("argument is not a number").
			WithType(ErrTypeInvalidArgument).
			WithTag("tool", tool).
			WithTag("argument", name).
			WithTag("value", args[i]).
			Wrap(err)
	}
	return v, nil
}
