// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/routing"
)

type RasterInfo struct {
	inputFile   string
	toolManager *PluginToolManager
}

func (this *RasterInfo) GetName() string {
	s := "RasterInfo"
	return getFormattedToolName(s)
}

func (this *RasterInfo) GetDescription() string {
	s := "Prints the header of a raster"
	return getFormattedToolDescription(s)
}

func (this *RasterInfo) GetHelpDocumentation() string {
	ret := "This tool prints the shape, extent, cell size, data type, nodata value, value range, coordinate reference system and metadata entries of a raster."
	return ret
}

func (this *RasterInfo) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *RasterInfo) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputFile", "string", "The raster name, with directory and file extension"},
	}
}

func (this *RasterInfo) ParseArguments(args []string) error {
	var err error
	if this.inputFile, err = this.toolManager.inputFile(this.GetName(), args, 0, "InputFile"); err != nil {
		return err
	}
	return this.toolManager.execute(this.GetName(), args, nil,
		func(context.Context, routing.Options) error {
			return this.print()
		})
}

func (this *RasterInfo) print() error {
	r, err := raster.CreateRasterFromFile(this.inputFile)
	if err != nil {
		return err
	}
	defer r.Close()

	printf("File = %s\n", r.FileName)
	printf("Format = %s\n", r.RasterFormat)
	printf("Rows = %d\n", r.Rows)
	printf("Columns = %d\n", r.Columns)
	printf("North = %v\n", r.North)
	printf("South = %v\n", r.South)
	printf("East = %v\n", r.East)
	printf("West = %v\n", r.West)
	printf("Cell size = %v x %v\n", r.GetCellSizeX(), r.GetCellSizeY())
	printf("Minimum = %v\n", r.GetMinimumValue())
	printf("Maximum = %v\n", r.GetMaximumValue())
	print(r.GetRasterConfig().String())
	return nil
}
