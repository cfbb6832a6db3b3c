// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"

	"github.com/jblindsay/go-hydro/routing"
)

type distToChannelArgs struct {
	dirFile     string
	channelFile string
	outputFile  string
	weightFile  string
	toolManager *PluginToolManager
}

func (this *distToChannelArgs) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *distToChannelArgs) GetArgDescriptions() [][]string {
	return [][]string{
		{"InputDirections", "string", "The flow direction raster, with directory and file extension"},
		{"ChannelFile", "string", "The channel mask raster; non-zero cells are channel"},
		{"OutputFile", "string", "The output distance raster, with directory and file extension"},
		{"WeightFile", "string", "Optional raster of per-cell hop costs (default cell distance)"},
	}
}

func (this *distToChannelArgs) parse(tool string, args []string) error {
	var err error
	if this.dirFile, err = this.toolManager.inputFile(tool, args, 0, "InputDirections"); err != nil {
		return err
	}
	if this.channelFile, err = this.toolManager.inputFile(tool, args, 1, "ChannelFile"); err != nil {
		return err
	}
	if this.outputFile, err = this.toolManager.outputRaster(tool, args, 2, "OutputFile"); err != nil {
		return err
	}
	this.weightFile, err = this.toolManager.optionalInputFile(tool, args, 3, "WeightFile")
	return err
}

type DistToChannelD8 struct {
	distToChannelArgs
}

func (this *DistToChannelD8) GetName() string {
	s := "DistToChannelD8"
	return getFormattedToolName(s)
}

func (this *DistToChannelD8) GetDescription() string {
	s := "Calculates the D8 downslope distance to channel"
	return getFormattedToolDescription(s)
}

func (this *DistToChannelD8) GetHelpDocumentation() string {
	ret := "This tool calculates, for every cell of a D8 flow direction raster, the length of its flow path down to the first channel cell. Cardinal steps count 1 and diagonal steps sqrt(2) cell units; with a weight raster each step costs the weight of the cell it leaves. Cells that never reach a channel are -1."
	return ret
}

func (this *DistToChannelD8) ParseArguments(args []string) error {
	if err := this.parse(this.GetName(), args); err != nil {
		return err
	}
	println("Measuring D8 distance to channel...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.DistanceToChannelD8(ctx, this.dirFile, this.channelFile, this.outputFile, this.weightFile, opts)
		})
}

type DistToChannelMFD struct {
	distToChannelArgs
}

func (this *DistToChannelMFD) GetName() string {
	s := "DistToChannelMFD"
	return getFormattedToolName(s)
}

func (this *DistToChannelMFD) GetDescription() string {
	s := "Calculates the mean downslope distance to channel (MFD)"
	return getFormattedToolDescription(s)
}

func (this *DistToChannelMFD) GetHelpDocumentation() string {
	ret := "This tool calculates the distance to channel over a packed multiple flow direction raster. The distance of a cell is the mean of its receivers' distances plus the step to them, weighted by the cell's flow fields."
	return ret
}

func (this *DistToChannelMFD) ParseArguments(args []string) error {
	if err := this.parse(this.GetName(), args); err != nil {
		return err
	}
	println("Measuring multiple direction distance to channel...")
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(ctx context.Context, opts routing.Options) error {
			return routing.DistanceToChannelMFD(ctx, this.dirFile, this.channelFile, this.outputFile, this.weightFile, opts)
		})
}
