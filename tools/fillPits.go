// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/routing"
)

type FillPits struct {
	inputFile   string
	outputFile  string
	toolManager *PluginToolManager
}

func (this *FillPits) GetName() string {
	s := "FillPits"
	return getFormattedToolName(s)
}

func (this *FillPits) GetDescription() string {
	s := "Removes pits and depressions from DEMs by filling"
	return getFormattedToolDescription(s)
}

func (this *FillPits) GetHelpDocumentation() string {
	ret := "This tool raises every cell of a digital elevation model (DEM) to the lowest elevation at which it can drain to the edge of the grid or to a nodata cell. Flat areas are left in place and are resolved by the flow direction tools. The output keeps the data type and nodata value of the input DEM."
	return ret
}

func (this *FillPits) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *FillPits) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputDEM", "string", "The input DEM name, with directory and file extension"},
		{"OutputFile", "string", "The output filename, with directory and file extension"},
	}
}

func (this *FillPits) ParseArguments(args []string) error {
	var err error
	if this.inputFile, err = this.toolManager.inputFile(this.GetName(), args, 0, "InputDEM"); err != nil {
		return err
	}
	if this.outputFile, err = this.toolManager.outputRaster(this.GetName(), args, 1, "OutputFile"); err != nil {
		return err
	}
	return this.Run(args)
}

func (this *FillPits) Run(args []string) error {
	println("Filling pits...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.FillPits(ctx, this.inputFile, this.outputFile, opts)
		})
}
