// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/jblindsay/go-hydro/routing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

// Set at build.
var version = "0.2.0"
var buildstamp = "no build stamp provided"

type config struct {
	Run             string `cli:""        env:"-"                         help:"Runs a tool."`
	Args            string `cli:""        env:"-"                         help:"Tool arguments, delimited by commas or semicolons."`
	Cwd             string `cli:""        env:"GOHYDRO_CWD"               help:"The directory bare file names are resolved against."`
	ListTools       bool   `cli:""        env:"-"                         help:"Lists all available tools."`
	ToolHelp        string `cli:""        env:"-"                         help:"Prints help documentation for a tool."`
	ToolArgs        string `cli:""        env:"-"                         help:"Prints details about the arguments for a tool."`
	Report          string `cli:""        env:"GOHYDRO_REPORT"            help:"Writes a JSON summary of the tool runs to this file."`
	MetricsAddr     string `cli:""        env:"GOHYDRO_METRICS_ADDR"      help:"Serves Prometheus metrics on this address while tools run."`
	Progress        bool   `cli:""        env:"GOHYDRO_PROGRESS"          help:"Draws progress bars."`
	WorkingDir      string `cli:",hidden" env:"GOHYDRO_WORKING_DIR"       help:"Parent directory of the scratch directories (default: cwd)."`
	MaxQueueItems   int    `cli:",hidden" env:"GOHYDRO_MAX_QUEUE_ITEMS"   help:"Queue items held in memory before spilling to disk."`
	BlockSize       int    `cli:",hidden" env:"GOHYDRO_BLOCK_SIZE"        help:"Rows and columns of a cached raster block."`
	MaxCachedBlocks int    `cli:",hidden" env:"GOHYDRO_MAX_CACHED_BLOCKS" help:"Raster blocks held in memory per raster."`
	LogLevel        string `cli:""        env:"GOHYDRO_LOG_LEVEL"         help:"Log level (debug|info|warning|error)."`
	LogIndent       bool   `cli:""        env:"GOHYDRO_LOG_INDENT"        help:"Indent logs."`
	Version         bool   `cli:""        env:"-"                         help:"Show version."`
	Help            bool   `cli:""        env:"-"                         help:"Show help."`
}

func main() {
	conf := config{
		Progress:        true,
		MaxQueueItems:   1 << 20,
		BlockSize:       256,
		MaxCachedBlocks: 64,
		LogLevel:        logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Runs GoHydro hydrological routing tools.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Printf("GoHydro version %s.%s\n", version, buildstamp)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	if conf.Cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			logs.Fatal(errors.New("getting the working directory failed").Wrap(err))
		}
		conf.Cwd = wd
	}
	workingdir = strings.Trim(conf.Cwd, "\"")

	toolManager.InitializeTools()
	toolManager.SetWorkingDirectory(workingdir)
	toolManager.SetContext(ctx)
	toolManager.ShowProgress = conf.Progress
	toolManager.Options = routing.Options{
		WorkingDir:      conf.WorkingDir,
		MaxQueueItems:   conf.MaxQueueItems,
		BlockRows:       conf.BlockSize,
		BlockColumns:    conf.BlockSize,
		MaxCachedBlocks: conf.MaxCachedBlocks,
	}

	if conf.MetricsAddr != "" {
		stop := serveMetrics(ctx, conf.MetricsAddr)
		defer stop()
	}

	err := dispatch(conf)
	if conf.Report != "" {
		if rerr := toolManager.WriteRunReport(conf.Report); rerr != nil {
			logs.Error(rerr)
		}
	}
	if err != nil {
		printerr(err)
		cancel()
		os.Exit(1)
	}
}

func dispatch(conf config) error {
	switch {
	case conf.ListTools:
		listTools()
	case conf.ToolHelp != "":
		s, err := toolManager.GetToolHelp(strings.Trim(conf.ToolHelp, "\""))
		if err != nil {
			return err
		}
		println(s)
	case conf.ToolArgs != "":
		return printToolArgs(strings.Trim(conf.ToolArgs, "\""))
	case conf.Run != "":
		return toolManager.RunWithArguments(strings.Trim(conf.Run, "\""), splitToolArgs(conf.Args))
	default:
		commandLoop()
	}
	return nil
}

// splitToolArgs splits "arg1;arg2,arg3" into its trimmed arguments. "%s"
// stands for a space.
func splitToolArgs(s string) []string {
	s = strings.ReplaceAll(s, "%s", " ")
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return c == ',' || c == ';'
	})
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.Trim(strings.TrimSpace(f), "\""); f != "" {
			args = append(args, f)
		}
	}
	return args
}

// serveMetrics serves the Prometheus registry on addr until ctx is done or
// the returned stop function is called.
func serveMetrics(ctx context.Context, addr string) (stop func()) {
	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	s := &http.Server{Addr: addr, Handler: &mux}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.New("shutting down the metrics server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	go func() {
		defer close(done)

		logs.WithTag("addr", s.Addr).Info("starting metrics server")

		switch err := s.ListenAndServe(); err {
		case nil, http.ErrServerClosed:
			logs.WithTag("addr", s.Addr).Info("stopping metrics server")

		default:
			logs.Warn(errors.New("metrics server stopped").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
