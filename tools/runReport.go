// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"context"
	"os"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/jblindsay/go-hydro/routing"
	"github.com/segmentio/encoding/json"
)

// ToolRun describes one tool invocation.
type ToolRun struct {
	Tool      string        `json:"tool"`
	Arguments []string      `json:"arguments"`
	Outputs   []string      `json:"outputs,omitempty"`
	Started   time.Time     `json:"started"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Error     string        `json:"error,omitempty"`
	ErrorType string        `json:"error_type,omitempty"`
}

// RunReport lists the tool runs of a manager in the order they happened.
type RunReport struct {
	Runs []ToolRun `json:"runs"`
}

func (ptm *PluginToolManager) GetRunReport() RunReport {
	return ptm.report
}

// WriteRunReport writes the run report as JSON to path.
func (ptm *PluginToolManager) WriteRunReport(path string) error {
	b, err := json.MarshalIndent(ptm.report, "", "  ")
	if err != nil {
		return errors.New("encoding the run report failed").Wrap(err)
	}
	if err = os.WriteFile(path, b, 0644); err != nil {
		return errors.New("writing the run report failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}

// execute runs fn with the manager's options and records the run.
func (ptm *PluginToolManager) execute(tool string, args, outputs []string,
	fn func(ctx context.Context, opts routing.Options) error) error {

	opts := ptm.Options
	if opts.WorkingDir == "" {
		opts.WorkingDir = ptm.workingDirectory
	}
	var bars *progressBars
	if ptm.ShowProgress {
		bars = newProgressBars()
		opts.Progress = bars.report
	}

	start := time.Now()
	err := fn(ptm.context(), opts)
	if bars != nil {
		bars.stop()
	}

	run := ToolRun{
		Tool:      tool,
		Arguments: args,
		Started:   start,
		Elapsed:   time.Since(start),
	}
	if err != nil {
		run.Error = err.Error()
		run.ErrorType = errors.Type(err)
	} else {
		run.Outputs = outputs
	}
	ptm.report.Runs = append(ptm.report.Runs, run)

	if err != nil {
		logs.WithTag("tool", tool).Error(err)
		return err
	}
	println("\nOperation complete!")
	printf("Elapsed time (total): %s\n", run.Elapsed)
	return nil
}
