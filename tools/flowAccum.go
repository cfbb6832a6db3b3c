// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/routing"
)

// flowAccumArgs are shared by the D8 and MFD accumulation tools.
type flowAccumArgs struct {
	dirFile     string
	outputFile  string
	weightFile  string
	toolManager *PluginToolManager
}

func (this *flowAccumArgs) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *flowAccumArgs) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputDirections", "string", "The flow direction raster, with directory and file extension"},
		{"OutputFile", "string", "The output accumulation raster, with directory and file extension"},
		{"WeightFile", "string", "Optional raster of cell weights (default 1 per cell)"},
	}
}

func (this *flowAccumArgs) parse(tool string, args []string) error {
	var err error
	if this.dirFile, err = this.toolManager.inputFile(tool, args, 0, "InputDirections"); err != nil {
		return err
	}
	if this.outputFile, err = this.toolManager.outputRaster(tool, args, 1, "OutputFile"); err != nil {
		return err
	}
	this.weightFile, err = this.toolManager.optionalInputFile(tool, args, 2, "WeightFile")
	return err
}

type FlowAccumD8 struct {
	flowAccumArgs
}

func (this *FlowAccumD8) GetName() string {
	s := "FlowAccumD8"
	return getFormattedToolName(s)
}

func (this *FlowAccumD8) GetDescription() string {
	s := "Calculates flow accumulation from D8 flow directions"
	return getFormattedToolDescription(s)
}

func (this *FlowAccumD8) GetHelpDocumentation() string {
	ret := "This tool calculates, for every cell of a D8 flow direction raster, its own weight plus the weights of all the cells upslope of it. Without a weight raster every cell weighs 1 and the result is the number of contributing cells. Nodata weights count as 0."
	return ret
}

func (this *FlowAccumD8) ParseArguments(args []string) error {
	if err := this.parse(this.GetName(), args); err != nil {
		return err
	}
	println("Accumulating D8 flow...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.FlowAccumulationD8(ctx, this.dirFile, this.outputFile, this.weightFile, opts)
		})
}

type FlowAccumMFD struct {
	flowAccumArgs
}

func (this *FlowAccumMFD) GetName() string {
	s := "FlowAccumMFD"
	return getFormattedToolName(s)
}

func (this *FlowAccumMFD) GetDescription() string {
	s := "Calculates flow accumulation from MFD directions"
	return getFormattedToolDescription(s)
}

func (this *FlowAccumMFD) GetHelpDocumentation() string {
	ret := "This tool calculates flow accumulation over a packed multiple flow direction raster, as produced by FlowDirMFD. Every cell passes its accumulated weight on to its receivers in proportion to its flow fields."
	return ret
}

func (this *FlowAccumMFD) ParseArguments(args []string) error {
	if err := this.parse(this.GetName(), args); err != nil {
		return err
	}
	println("Accumulating multiple direction flow...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.FlowAccumulationMFD(ctx, this.dirFile, this.outputFile, this.weightFile, opts)
		})
}
