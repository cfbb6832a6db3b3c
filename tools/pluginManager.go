// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// This file was originally created by John Lindsay<jlindsay@uoguelph.ca>,
// Feb. 2015.

// Package tools wraps every routing operation as a named plugin tool that
// can be run with positional arguments or interactively.
package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/jblindsay/go-hydro/routing"
)

// Error types attached to the errors returned by this package.
const (
	ErrTypeUnknownTool     = "tools_unknown_tool"
	ErrTypeInvalidArgument = "tools_invalid_argument"
)

var println = fmt.Println
var printf = fmt.Printf
var print = fmt.Print
var pathSep string = string(os.PathSeparator)

type PluginToolManager struct {
	workingDirectory string
	mapOfPluginTools map[string]PluginTool

	// Options is handed to every routing call. Its WorkingDir defaults to
	// the manager's working directory.
	Options routing.Options

	// ShowProgress draws a progress bar per pass.
	ShowProgress bool

	ctx    context.Context
	input  *bufio.Reader
	report RunReport
}

func (ptm *PluginToolManager) InitializeTools() {
	// each new tool needs a two-line entry below
	ptm.mapOfPluginTools = make(map[string]PluginTool)

	fp := new(FillPits)
	ptm.mapOfPluginTools[strings.ToLower(fp.GetName())] = fp

	fdd8 := new(FlowDirD8)
	ptm.mapOfPluginTools[strings.ToLower(fdd8.GetName())] = fdd8

	fdmfd := new(FlowDirMFD)
	ptm.mapOfPluginTools[strings.ToLower(fdmfd.GetName())] = fdmfd

	fad8 := new(FlowAccumD8)
	ptm.mapOfPluginTools[strings.ToLower(fad8.GetName())] = fad8

	famfd := new(FlowAccumMFD)
	ptm.mapOfPluginTools[strings.ToLower(famfd.GetName())] = famfd

	dcd8 := new(DistToChannelD8)
	ptm.mapOfPluginTools[strings.ToLower(dcd8.GetName())] = dcd8

	dcmfd := new(DistToChannelMFD)
	ptm.mapOfPluginTools[strings.ToLower(dcmfd.GetName())] = dcmfd

	dw := new(DelineateWatersheds)
	ptm.mapOfPluginTools[strings.ToLower(dw.GetName())] = dw

	ck := new(CreateKernel)
	ptm.mapOfPluginTools[strings.ToLower(ck.GetName())] = ck

	ri := new(RasterInfo)
	ptm.mapOfPluginTools[strings.ToLower(ri.GetName())] = ri
}

// SetContext sets the context passed to the routing calls of subsequent
// runs.
func (ptm *PluginToolManager) SetContext(ctx context.Context) {
	ptm.ctx = ctx
}

func (ptm *PluginToolManager) context() context.Context {
	if ptm.ctx == nil {
		return context.Background()
	}
	return ptm.ctx
}

// SetInput sets where interactive runs read their arguments from. Defaults
// to os.Stdin.
func (ptm *PluginToolManager) SetInput(r io.Reader) {
	ptm.input = bufio.NewReader(r)
}

func (ptm *PluginToolManager) GetListOfTools() []PluginTool {
	ret := make(PluginToolList, 0, len(ptm.mapOfPluginTools))
	for _, val := range ptm.mapOfPluginTools {
		ret = append(ret, val)
	}
	sort.Sort(ret)
	return ret
}

func (ptm *PluginToolManager) tool(toolName string) (PluginTool, error) {
	name := strings.ToLower(getFormattedToolName(toolName))
	if tool, ok := ptm.mapOfPluginTools[name]; ok {
		tool.SetToolManager(ptm)
		return tool, nil
	}
	return nil, errors.Newf("unrecognized tool name %q, type 'listtools' for a list of available tools", toolName).
		WithType(ErrTypeUnknownTool)
}

// Run prompts for every argument of the tool, then runs it.
func (ptm *PluginToolManager) Run(toolName string) error {
	tool, err := ptm.tool(toolName)
	if err != nil {
		return err
	}
	if ptm.input == nil {
		ptm.input = bufio.NewReader(os.Stdin)
	}

	descs := tool.GetArgDescriptions()
	args := make([]string, len(descs))
	for i, d := range descs {
		printf("Enter the %s (%s): ", d[0], d[1])
		s, err := ptm.input.ReadString('\n')
		if err != nil && (err != io.EOF || s == "") {
			return errors.New("reading the tool arguments failed").
				WithType(ErrTypeInvalidArgument).
				WithTag("tool", tool.GetName()).
				WithTag("argument", d[0]).
				Wrap(err)
		}
		args[i] = strings.TrimSpace(s)
	}
	return ptm.RunWithArguments(toolName, args)
}

func (ptm *PluginToolManager) RunWithArguments(toolName string, args []string) error {
	tool, err := ptm.tool(toolName)
	if err != nil {
		return err
	}
	println(GetHeaderText(tool.GetName()))
	defer runtime.GC()
	return tool.ParseArguments(args)
}

func (ptm *PluginToolManager) GetToolArgDescriptions(toolName string) ([]string, error) {
	trailingSpaces := func(s string, maxLen int) string {
		strLen := len(s)
		sepSpace := maxLen - strLen
		sepStr := " "
		for i := 0; i < sepSpace; i++ {
			sepStr += " "
		}
		return s + sepStr
	}

	tool, err := ptm.tool(toolName)
	if err != nil {
		return nil, err
	}
	descEntries := tool.GetArgDescriptions()
	lenToolName := 0
	lenDataType := 0
	for _, val := range descEntries {
		if len(val[0]) > lenToolName {
			lenToolName = len(val[0])
		}
		if len(val[1]) > lenDataType {
			lenDataType = len(val[1])
		}
	}

	lenToolName += 2
	lenDataType += 2

	ret := make([]string, len(descEntries))
	for i, val := range descEntries {
		ret[i] = trailingSpaces(val[0], lenToolName) + trailingSpaces(val[1], lenDataType) + val[2]
	}
	return ret, nil
}

func (ptm *PluginToolManager) SetWorkingDirectory(wd string) {
	if !strings.HasSuffix(wd, pathSep) {
		wd += pathSep
	}
	ptm.workingDirectory = wd
}

func (ptm *PluginToolManager) GetWorkingDirectory() string {
	return ptm.workingDirectory
}

func (ptm *PluginToolManager) GetToolHelp(toolName string) (string, error) {
	tool, err := ptm.tool(toolName)
	if err != nil {
		return "", err
	}
	return tool.GetHelpDocumentation(), nil
}

type PluginTool interface {
	GetName() string
	GetDescription() string
	GetHelpDocumentation() string
	ParseArguments([]string) error
	GetArgDescriptions() [][]string
	SetToolManager(*PluginToolManager)
}

type PluginToolList []PluginTool

func (ptl PluginToolList) Len() int { return len(ptl) }

func (ptl PluginToolList) Less(i, j int) bool {
	return ptl[i].GetName() < ptl[j].GetName()
}

func (ptl PluginToolList) Swap(i, j int) {
	ptl[i], ptl[j] = ptl[j], ptl[i]
}

func GetHeaderText(str string) string {
	ret := ""
	for i := 0; i < len(str)+4; i++ {
		ret += "*"
	}
	ret += "\n* "
	ret += str
	ret += " *\n"
	for i := 0; i < len(str)+4; i++ {
		ret += "*"
	}
	return ret
}

var maxToolNameLength = 20

func getFormattedToolName(s string) string {
	l := len(s)
	if l > maxToolNameLength {
		l = maxToolNameLength
	}
	return strings.TrimSpace(s[:l])
}

var maxToolDescriptionLength = 55

func getFormattedToolDescription(s string) string {
	l := len(s)
	if l > maxToolDescriptionLength {
		l = maxToolDescriptionLength
	}
	return strings.TrimSpace(s[:l])
}
