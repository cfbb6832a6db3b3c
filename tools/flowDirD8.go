// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/routing"
)

type FlowDirD8 struct {
	inputFile   string
	outputFile  string
	toolManager *PluginToolManager
}

func (this *FlowDirD8) GetName() string {
	s := "FlowDirD8"
	return getFormattedToolName(s)
}

func (this *FlowDirD8) GetDescription() string {
	s := "Calculates D8 flow directions from a filled DEM"
	return getFormattedToolDescription(s)
}

func (this *FlowDirD8) GetHelpDocumentation() string {
	ret := "This tool assigns every cell of a filled DEM the direction of its steepest downslope neighbour, coded 0 (east) to 7 (south-east) counter-clockwise. Flat areas drain towards their nearest outlet. Cells of undrained flats and nodata cells are coded 128."
	return ret
}

func (this *FlowDirD8) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *FlowDirD8) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputDEM", "string", "The filled DEM name, with directory and file extension"},
		{"OutputFile", "string", "The output direction raster, with directory and file extension"},
	}
}

func (this *FlowDirD8) ParseArguments(args []string) error {
	var err error
	if this.inputFile, err = this.toolManager.inputFile(this.GetName(), args, 0, "InputDEM"); err != nil {
		return err
	}
	if this.outputFile, err = this.toolManager.outputRaster(this.GetName(), args, 1, "OutputFile"); err != nil {
		return err
	}
	return this.Run(args)
}

func (this *FlowDirD8) Run(args []string) error {
	println("Calculating D8 flow directions...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.FlowDirD8(ctx, this.inputFile, this.outputFile, opts)
		})
}
