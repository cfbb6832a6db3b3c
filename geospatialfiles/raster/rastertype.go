// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// Originally created by John Lindsay<jlindsay@uoguelph.ca>, Nov. 2014.

package raster

import (
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// RasterType is used to specify a data format of a raster file
type RasterType int

// Integer constants used to specify each of the supported raster formats
const (
	RT_UnknownRaster RasterType = iota
	RT_WhiteboxRaster
)

var rasterTypeList = []string{
	"UnknownRaster",
	"WhiteboxRaster",
}

var rasterExtensionList = [][]string{
	{".*"},
	{".dep", ".tas"},
}

// String returns the English name of the RasterType.
func (rt RasterType) String() string { return rasterTypeList[rt] }

// GetExtensions returns the file extensions associated with a raster format.
func (rt RasterType) GetExtensions() []string {
	return rasterExtensionList[rt]
}

// IsSupportedRasterFileExtension reports whether fileName carries the
// extension of a known raster format.
func IsSupportedRasterFileExtension(fileName string) bool {
	rt, err := DetermineRasterFormat(fileName)
	return err == nil && rt != RT_UnknownRaster
}

// DetermineRasterFormat attempts to determine the raster format from the
// file name.
func DetermineRasterFormat(fileName string) (RasterType, error) {
	fileExtension := strings.ToLower(filepath.Ext(fileName))
	for i := 1; i < len(rasterExtensionList); i++ {
		for _, ext := range rasterExtensionList[i] {
			if fileExtension == ext {
				return RasterType(i), nil
			}
		}
	}
	return RT_UnknownRaster, errors.New("unsupported raster format").
		WithType(ErrTypeUnsupportedFormat).
		WithTag("file", fileName)
}

// GetMapOfFormatsAndExtensions maps each supported format name to its
// file extensions.
func GetMapOfFormatsAndExtensions() map[string][]string {
	m := make(map[string][]string)
	for i := 1; i < len(rasterTypeList); i++ {
		m[rasterTypeList[i]] = rasterExtensionList[i]
	}
	return m
}
