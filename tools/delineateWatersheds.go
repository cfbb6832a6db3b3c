// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/routing"
)

type DelineateWatersheds struct {
	dirFile     string
	pointsFile  string
	outputFile  string
	labelFile   string
	toolManager *PluginToolManager
}

func (this *DelineateWatersheds) GetName() string {
	s := "DelineateWatersheds"
	return getFormattedToolName(s)
}

func (this *DelineateWatersheds) GetDescription() string {
	s := "Delineates the watersheds of outflow points as polygons"
	return getFormattedToolDescription(s)
}

func (this *DelineateWatersheds) GetHelpDocumentation() string {
	ret := "This tool labels every cell of a D8 flow direction raster that drains to one of the points of an outflow point shapefile and writes one polygon per point, in input order, to a polygon shapefile with a ws_id attribute. Points are reprojected to the raster's coordinate system when the shapefile carries a .prj file. A point may not fall outside the grid, on a nodata cell or on the same cell as an earlier point. The optional label raster is cleared to 0 once the polygons are written."
	return ret
}

func (this *DelineateWatersheds) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *DelineateWatersheds) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputDirections", "string", "The D8 flow direction raster, with directory and file extension"},
		{"OutflowPoints", "string", "The outflow point shapefile (.shp)"},
		{"OutputFile", "string", "The output watershed polygon shapefile (.shp)"},
		{"LabelFile", "string", "Optional raster used for the watershed labels"},
	}
}

func (this *DelineateWatersheds) ParseArguments(args []string) error {
	var err error
	tool := this.GetName()
	if this.dirFile, err = this.toolManager.inputFile(tool, args, 0, "InputDirections"); err != nil {
		return err
	}
	if this.pointsFile, err = this.toolManager.inputFile(tool, args, 1, "OutflowPoints"); err != nil {
		return err
	}
	if this.outputFile, err = this.toolManager.outputShapefile(tool, args, 2, "OutputFile"); err != nil {
		return err
	}
	this.labelFile = ""
	if !notSpecified(args, 3) {
		if this.labelFile, err = this.toolManager.outputRaster(tool, args, 3, "LabelFile"); err != nil {
			return err
		}
	}
	return this.Run(args)
}

func (this *DelineateWatersheds) Run(args []string) error {
	println("Delineating watersheds...")
	outputs := []string{this.outputFile}
	if this.labelFile != "" {
		outputs = append(outputs, this.labelFile)
	}
	return this.toolManager.execute(this.GetName(), args, outputs,
		func(ctx context.Context, opts routing.Options) error {
			return routing.DelineateWatersheds(ctx, this.dirFile, this.pointsFile, this.outputFile, this.labelFile, opts)
		})
}
