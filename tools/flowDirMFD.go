// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/routing"
)

type FlowDirMFD struct {
	inputFile   string
	outputFile  string
	toolManager *PluginToolManager
}

func (this *FlowDirMFD) GetName() string {
	s := "FlowDirMFD"
	return getFormattedToolName(s)
}

func (this *FlowDirMFD) GetDescription() string {
	s := "Calculates multiple flow directions from a filled DEM"
	return getFormattedToolDescription(s)
}

func (this *FlowDirMFD) GetHelpDocumentation() string {
	ret := "This tool splits the flow of every cell of a filled DEM between all of its lower neighbours, in proportion to the drop divided by the distance. The eight proportions are stored as 4-bit fields of an unsigned 32-bit value, the field of direction i at bit 4i. Sinks and nodata cells are 0."
	return ret
}

func (this *FlowDirMFD) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *FlowDirMFD) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputDEM", "string", "The filled DEM name, with directory and file extension"},
		{"OutputFile", "string", "The output direction raster, with directory and file extension"},
	}
}

func (this *FlowDirMFD) ParseArguments(args []string) error {
	var err error
	if this.inputFile, err = this.toolManager.inputFile(this.GetName(), args, 0, "InputDEM"); err != nil {
		return err
	}
	if this.outputFile, err = this.toolManager.outputRaster(this.GetName(), args, 1, "OutputFile"); err != nil {
		return err
	}
	return this.Run(args)
}

func (this *FlowDirMFD) Run(args []string) error {
	println("Calculating multiple flow directions...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.FlowDirMFD(ctx, this.inputFile, this.outputFile, opts)
		})
}
