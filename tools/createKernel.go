// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"
	"strings"

	"github.com/jblindsay/go-hydro/kernels"
	"github.com/jblindsay/go-hydro/routing"
)

type CreateKernel struct {
	kind        string
	outputFile  string
	distance    float64
	nStdDev     float64
	toolManager *PluginToolManager
}

var kernelKinds = map[string]func(path string, distance, nStdDev float64) error{
	"dichotomous": func(path string, distance, _ float64) error {
		return kernels.Dichotomous(path, distance)
	},
	"density": func(path string, distance, _ float64) error {
		return kernels.DensityDecay(path, distance)
	},
	"exponential": func(path string, distance, _ float64) error {
		return kernels.ExponentialDecay(path, distance)
	},
	"linear": func(path string, distance, _ float64) error {
		return kernels.LinearDecay(path, distance)
	},
	"gaussian": kernels.GaussianDecay,
}

func (this *CreateKernel) GetName() string {
	s := "CreateKernel"
	return getFormattedToolName(s)
}

func (this *CreateKernel) GetDescription() string {
	s := "Creates a distance based kernel raster"
	return getFormattedToolDescription(s)
}

func (this *CreateKernel) GetHelpDocumentation() string {
	ret := "This tool writes a square kernel raster of 2*ceil(d)+1 cells whose values depend on the distance from the centre cell. Kinds are dichotomous, density (Epanechnikov), exponential, linear and gaussian; the last three are normalised to sum to 1. For gaussian kernels the distance is the standard deviation and the kernel is cut off after NumStdDev deviations (default 3)."
	return ret
}

func (this *CreateKernel) SetToolManager(tm *PluginToolManager) {
	this.toolManager = tm
}

func (this *CreateKernel) GetArgDescriptions() [][]string {
	return [][]string{
		{"Kind", "string", "dichotomous, density, exponential, linear or gaussian"},
		{"OutputFile", "string", "The output kernel raster, with directory and file extension"},
		{"Distance", "float64", "The maximum distance, or sigma for gaussian kernels, in cells"},
		{"NumStdDev", "float64", "Gaussian cut-off in standard deviations (default 3)"},
	}
}

func (this *CreateKernel) ParseArguments(args []string) error {
	var err error
	tool := this.GetName()
	if notSpecified(args, 0) {
		return invalidArgument(tool, "Kind", "missing required argument")
	}
	this.kind = strings.ToLower(strings.TrimSpace(args[0]))
	if _, ok := kernelKinds[this.kind]; !ok {
		return invalidArgument(tool, "Kind", "unknown kernel kind "+this.kind)
	}
	if this.outputFile, err = this.toolManager.outputRaster(tool, args, 1, "OutputFile"); err != nil {
		return err
	}
	if notSpecified(args, 2) {
		return invalidArgument(tool, "Distance", "missing required argument")
	}
	if this.distance, err = floatArgument(tool, args, 2, "Distance", 0); err != nil {
		return err
	}
	if this.nStdDev, err = floatArgument(tool, args, 3, "NumStdDev", 3); err != nil {
		return err
	}
	return this.Run(args)
}

func (this *CreateKernel) Run(args []string) error {
	printf("Creating %s kernel...\n", this.kind)
	return this.toolManager.execute(this.GetName(), args, []string{this.outputFile},
		func(context.Context, routing.Options) error {
			return kernelKinds[this.kind](this.outputFile, this.distance, this.nStdDev)
		})
}
