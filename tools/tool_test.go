package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ctessum/geom"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/geospatialfiles/vector"
	"github.com/jblindsay/go-hydro/routing"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*PluginToolManager, string) {
	dir := t.TempDir()
	ptm := &PluginToolManager{}
	ptm.InitializeTools()
	ptm.SetWorkingDirectory(dir)
	return ptm, dir
}

func writeRow(t *testing.T, path string, values ...float64) {
	t.Helper()
	c := raster.NewDefaultRasterConfig()
	c.DataType = raster.DT_FLOAT32
	r, err := raster.CreateNewRaster(path, 1, len(values), 1, 0, float64(len(values)), 0, c)
	require.NoError(t, err)
	for col, v := range values {
		r.SetValue(0, col, v)
	}
	require.NoError(t, r.Close())
}

func readRow(t *testing.T, path string) []float64 {
	t.Helper()
	r, err := raster.CreateRasterFromFile(path)
	require.NoError(t, err)
	defer r.Close()

	values := make([]float64, r.Columns)
	for col := range values {
		values[col] = r.Value(0, col)
	}
	require.NoError(t, r.Err())
	return values
}

func TestInitializeTools(t *testing.T) {
	ptm, _ := newTestManager(t)

	var names []string
	for _, tool := range ptm.GetListOfTools() {
		names = append(names, tool.GetName())
		require.LessOrEqual(t, len(tool.GetDescription()), maxToolDescriptionLength)
		require.NotEmpty(t, tool.GetHelpDocumentation())
	}
	require.Equal(t, []string{
		"CreateKernel",
		"DelineateWatersheds",
		"DistToChannelD8",
		"DistToChannelMFD",
		"FillPits",
		"FlowAccumD8",
		"FlowAccumMFD",
		"FlowDirD8",
		"FlowDirMFD",
		"RasterInfo",
	}, names)
}

func TestUnknownTool(t *testing.T) {
	ptm, _ := newTestManager(t)

	err := ptm.RunWithArguments("BreachDepressions", nil)
	require.Error(t, err)
	require.Equal(t, ErrTypeUnknownTool, errors.Type(err))

	_, err = ptm.GetToolHelp("nope")
	require.Equal(t, ErrTypeUnknownTool, errors.Type(err))
}

func TestGetToolArgDescriptions(t *testing.T) {
	ptm, _ := newTestManager(t)

	descs, err := ptm.GetToolArgDescriptions("flowaccumd8")
	require.NoError(t, err)
	require.Len(t, descs, 3)
	require.Equal(t, "InputDirections   string   The flow direction raster, with directory and file extension", descs[0])
	require.True(t, strings.HasPrefix(descs[2], "WeightFile        string   Optional"))
}

func TestD8Pipeline(t *testing.T) {
	ptm, dir := newTestManager(t)
	writeRow(t, filepath.Join(dir, "dem.dep"), 3, 2, 1)

	require.NoError(t, ptm.RunWithArguments("FillPits", []string{"dem.dep", "filled"}))
	require.NoError(t, ptm.RunWithArguments("FlowDirD8", []string{"filled.dep", "dirs.dep"}))
	require.NoError(t, ptm.RunWithArguments("FlowAccumD8", []string{"dirs.dep", "acc.dep", "not specified"}))

	require.Equal(t, []float64{3, 2, 1}, readRow(t, filepath.Join(dir, "filled.dep")))
	require.Equal(t, []float64{0, 0, 0}, readRow(t, filepath.Join(dir, "dirs.dep")))
	require.Equal(t, []float64{1, 2, 3}, readRow(t, filepath.Join(dir, "acc.dep")))

	report := ptm.GetRunReport()
	require.Len(t, report.Runs, 3)
	require.Equal(t, "FlowAccumD8", report.Runs[2].Tool)
	require.Equal(t, []string{filepath.Join(dir, "acc.dep")}, report.Runs[2].Outputs)
	require.Empty(t, report.Runs[2].Error)

	reportPath := filepath.Join(dir, "report.json")
	require.NoError(t, ptm.WriteRunReport(reportPath))
	b, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var decoded RunReport
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded.Runs, 3)
	require.Equal(t, "FillPits", decoded.Runs[0].Tool)
}

func TestRunPromptsForArguments(t *testing.T) {
	ptm, dir := newTestManager(t)
	writeRow(t, filepath.Join(dir, "dem.dep"), 1, 1, 1)

	ptm.SetInput(strings.NewReader("dem.dep\nfilled.dep\n"))
	require.NoError(t, ptm.Run("fillpits"))
	require.Equal(t, []float64{1, 1, 1}, readRow(t, filepath.Join(dir, "filled.dep")))
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args []string
	}{
		{name: "missing input", tool: "FillPits", args: []string{"missing.dep", "out.dep"}},
		{name: "no output", tool: "FlowDirD8", args: []string{"dem.dep"}},
		{name: "unknown kernel", tool: "CreateKernel", args: []string{"triangle", "k.dep", "2"}},
		{name: "bad distance", tool: "CreateKernel", args: []string{"linear", "k.dep", "far"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ptm, dir := newTestManager(t)
			writeRow(t, filepath.Join(dir, "dem.dep"), 1, 2)

			err := ptm.RunWithArguments(test.tool, test.args)
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidArgument, errors.Type(err))
			require.Empty(t, ptm.GetRunReport().Runs)
		})
	}
}

func TestFailedRunIsReported(t *testing.T) {
	ptm, dir := newTestManager(t)
	writeRow(t, filepath.Join(dir, "dirs.dep"), 0, 0)
	writeRow(t, filepath.Join(dir, "weights.dep"), 1, 1, 1)

	err := ptm.RunWithArguments("FlowAccumD8", []string{"dirs.dep", "acc.dep", "weights.dep"})
	require.Error(t, err)
	require.Equal(t, routing.ErrTypeShapeMismatch, errors.Type(err))

	runs := ptm.GetRunReport().Runs
	require.Len(t, runs, 1)
	require.Equal(t, routing.ErrTypeShapeMismatch, runs[0].ErrorType)
	require.Empty(t, runs[0].Outputs)
	require.NoFileExists(t, filepath.Join(dir, "acc.dep"))
}

func TestCanceledContext(t *testing.T) {
	ptm, dir := newTestManager(t)
	writeRow(t, filepath.Join(dir, "dem.dep"), 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ptm.SetContext(ctx)

	err := ptm.RunWithArguments("FlowDirMFD", []string{"dem.dep", "dirs.dep"})
	require.Equal(t, routing.ErrTypeCanceled, errors.Type(err))
}

func TestCreateKernel(t *testing.T) {
	ptm, dir := newTestManager(t)

	require.NoError(t, ptm.RunWithArguments("CreateKernel", []string{"Gaussian", "kernel", "1", "2"}))

	r, err := raster.CreateRasterFromFile(filepath.Join(dir, "kernel.dep"))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 5, r.Rows)
	require.Equal(t, 5, r.Columns)

	sum := 0.0
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Columns; col++ {
			sum += r.Value(row, col)
		}
	}
	require.InDelta(t, 1, sum, 1e-5)
}

func TestRasterInfo(t *testing.T) {
	ptm, dir := newTestManager(t)
	writeRow(t, filepath.Join(dir, "dem.dep"), 1, 2)

	require.NoError(t, ptm.RunWithArguments("RasterInfo", []string{"dem.dep"}))
	runs := ptm.GetRunReport().Runs
	require.Len(t, runs, 1)
	require.Empty(t, runs[0].Outputs)
}

func TestDelineateWatersheds(t *testing.T) {
	ptm, dir := newTestManager(t)
	writeRow(t, filepath.Join(dir, "dirs.dep"), 0, 0, 0)
	require.NoError(t, vector.WritePoints(filepath.Join(dir, "outlets.shp"), "", []geom.Point{{X: 2.5, Y: 0.5}}))

	require.NoError(t, ptm.RunWithArguments("DelineateWatersheds",
		[]string{"dirs.dep", "outlets.shp", "sheds", "labels"}))

	require.FileExists(t, filepath.Join(dir, "sheds.shp"))
	require.Equal(t, []float64{0, 0, 0}, readRow(t, filepath.Join(dir, "labels.dep")))

	runs := ptm.GetRunReport().Runs
	require.Len(t, runs, 1)
	require.Equal(t, []string{filepath.Join(dir, "sheds.shp"), filepath.Join(dir, "labels.dep")}, runs[0].Outputs)
}
