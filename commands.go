// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/tools"
)

var println = fmt.Println
var printf = fmt.Printf
var print = fmt.Print
var printerr = func(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
}
var printErrString = func(s string) {
	fmt.Fprintln(os.Stderr, s)
}

var commandArgs []string
var carryon bool
var workingdir string
var toolManager tools.PluginToolManager

var helpMap map[string][]string
var commandMap map[string]func()

func init() {
	helpMap = map[string][]string{
		"help":          {"Prints a list of available commands (also 'h')"},
		"exit":          {"Exits GoHydro (also 'logout' or 'esc')"},
		"rasterformats": {"Prints the supported raster formats"},
		"version":       {"Prints version information (also 'v')"},
		"cwd":           {"Changes the working directory (also 'cd' or 'dir'),", " e.g. cwd /Users/john/"},
		"pwd":           {"Prints the working directory (also 'dir')"},
		"run": {"Runs a specified tool (also 'r'),",
			" e.g. run toolname  or  run toolname \"arg1;arg2;arg3;...\""},
		"listtools": {"Lists all available tools"},
		"licence":   {"Prints the licence"},
		"toolargs":  {"Prints the argument descriptions for a tool"},
		"memprof":   {"Outputs a memory usage profile"},
		"toolhelp":  {"Prints help documentation for a tool,", " e.g. toolhelp FlowAccumD8"},
		"report":    {"Writes the JSON run report of this session,", " e.g. report runs.json"},
	}

	commandMap = make(map[string]func())
	commandMap["toolhelp"] = func() {
		if len(commandArgs) < 2 {
			println("Tool name not specified, e.g. toolhelp FlowAccumD8")
			return
		}
		s, err := toolManager.GetToolHelp(commandArgs[1])
		if err != nil {
			printerr(err)
			return
		}
		println(s)
	}
	commandMap["help"] = func() {
		keys := make([]string, 0, len(helpMap))
		for key := range helpMap {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		println("The following commands are recognized:")
		for _, key := range keys {
			val := helpMap[key]
			println(trailingSpaces(key, 15) + val[0])
			for i := 1; i < len(val); i++ {
				println(trailingSpaces("", 15) + val[i])
			}
		}
	}
	commandMap["h"] = commandMap["help"]
	commandMap["exit"] = func() {
		carryon = false
		println("Goodbye for now")
	}
	commandMap["logout"] = commandMap["exit"]
	commandMap["esc"] = commandMap["exit"]
	commandMap["run"] = func() {
		var err error
		switch {
		case len(commandArgs) == 2:
			err = toolManager.Run(commandArgs[1])
		case len(commandArgs) > 2:
			err = toolManager.RunWithArguments(commandArgs[1], splitToolArgs(strings.Join(commandArgs[2:], " ")))
		default:
			println("Tool name not specified, e.g. run FillPits")
		}
		if err != nil {
			printerr(err)
		}
	}
	commandMap["r"] = commandMap["run"]
	commandMap["rasterformats"] = func() {
		m := raster.GetMapOfFormatsAndExtensions()
		keys := make([]string, 0, len(m))
		for key := range m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		println("The following raster formats are supported for reading/writing:")
		for _, key := range keys {
			println(trailingSpaces(key, 20), m[key])
		}
	}
	commandMap["version"] = func() {
		printf("GoHydro version %s.%s\n", version, buildstamp)
	}
	commandMap["v"] = commandMap["version"]
	commandMap["pwd"] = func() {
		println("Working directory:", workingdir)
	}
	commandMap["cwd"] = func() {
		if len(commandArgs) < 2 {
			println("A directory must be specified after the 'cwd' keyword.")
			return
		}
		// Directories with spaces arrive in pieces.
		changeWorkingDirectory(strings.Join(commandArgs[1:], " "))
	}
	commandMap["cd"] = commandMap["cwd"]
	commandMap["dir"] = func() {
		if len(commandArgs) > 1 {
			commandMap["cwd"]()
		} else {
			commandMap["pwd"]()
		}
	}
	commandMap["listtools"] = listTools
	commandMap["licence"] = func() {
		println(licenceText)
	}
	commandMap["toolargs"] = func() {
		if len(commandArgs) < 2 {
			println("Tool name not specified, e.g. toolargs FlowDirD8")
			return
		}
		if err := printToolArgs(commandArgs[1]); err != nil {
			printerr(err)
		}
	}
	commandMap["memprof"] = func() {
		m := new(runtime.MemStats)
		runtime.ReadMemStats(m)
		println("Memory allocated and in current use =", (float64(m.Alloc) / 1000000.0), "MB")
		println("Total memory allocated =", (float64(m.TotalAlloc) / 1000000.0), "MB")
		println("Heap allocated and still in use =", (float64(m.HeapAlloc) / 1000000.0), "MB")
		println("Stack memory used by stack allocator =", (float64(m.StackInuse) / 1000000.0), "MB")
	}
	commandMap["report"] = func() {
		if len(commandArgs) < 2 {
			println("A file name must be specified after the 'report' keyword.")
			return
		}
		if err := toolManager.WriteRunReport(commandArgs[1]); err != nil {
			printerr(err)
		}
	}
}

// commandLoop reads commands from stdin until 'exit' or end of input.
func commandLoop() {
	println(getHeaderText("Welcome to GoHydro"))
	consolereader := bufio.NewReader(os.Stdin)
	toolManager.SetInput(consolereader)
	carryon = true

	println("Type 'help' to review available commands and 'exit' to log out.")
	for carryon {
		print("Please enter a command: ")
		commandStr, err := consolereader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				printerr(err)
			}
			return
		}
		commandStr = strings.TrimSpace(commandStr)
		if len(commandStr) == 0 {
			printErrString("Empty command, type 'help' for details...")
			continue
		}
		commandArgs = strings.Fields(commandStr)
		if cmd, ok := commandMap[strings.ToLower(commandArgs[0])]; ok {
			cmd()
		} else {
			printErrString(fmt.Sprintf("unrecognized command '%s', type 'help' for details...", commandArgs[0]))
		}
	}
}

func listTools() {
	pt := toolManager.GetListOfTools()
	printf("The following %v tools are available:\n", len(pt))
	for _, value := range pt {
		println(trailingSpaces(value.GetName(), 20) + value.GetDescription())
	}
}

func printToolArgs(toolName string) error {
	argDescriptions, err := toolManager.GetToolArgDescriptions(toolName)
	if err != nil {
		return err
	}
	printf("The following arguments are listed for '%s':\n", toolName)
	for _, val := range argDescriptions {
		println(val)
	}
	return nil
}

func changeWorkingDirectory(wd string) {
	wd = strings.Trim(wd, "\"")
	if !strings.HasPrefix(wd, string(os.PathSeparator)) {
		wd = strings.TrimSuffix(workingdir, string(os.PathSeparator)) +
			string(os.PathSeparator) + strings.TrimPrefix(wd, "."+string(os.PathSeparator))
	}
	info, err := os.Stat(wd)
	switch {
	case os.IsNotExist(err):
		println("Directory does not exist.")
	case err != nil:
		printerr(err)
	case !info.IsDir():
		println("Not a directory.")
	default:
		workingdir = wd
		toolManager.SetWorkingDirectory(wd)
	}
}

var licenceText = `Copyright (c) 2015 The GoSpatial Authors
Lead Developer: John Lindsay, PhD (jlindsay@uoguelph.ca),
The University of Guelph, Canada

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.`

func getHeaderText(str string) string {
	line := strings.Repeat("*", len(str)+4)
	return line + "\n* " + str + " *\n" + line
}

func trailingSpaces(s string, maxLen int) string {
	if n := maxLen - len(s); n > 0 {
		return s + strings.Repeat(" ", n+1)
	}
	return s + " "
}
