package routing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/stretchr/testify/require"
)

var ringChannel = [][]float64{
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	{1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 1},
	{1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 1},
	{1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 1},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
}

var ringDistanceD8 = [][]float64{
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
	{0, 1, 2, 2, 2, 2, 2, 2, 2, 1, 0},
	{0, 1, 2, 3, 3, 3, 3, 3, 2, 1, 0},
	{0, 0, 1, 2, 4, 4, 4, 2, 1, 0, 0},
	{0, 0, 1, 2, 3, 5, 3, 2, 1, 0, 0},
	{0, 0, 1, 2, 3, 4, 3, 2, 1, 0, 0},
	{0, 1, 2, 3, 3, 3, 3, 3, 2, 1, 0},
	{0, 1, 2, 2, 2, 2, 2, 2, 2, 1, 0},
	{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
}

var channelDistanceMFD = func() [][]float64 {
	rows := [][]float64{
		{5.98240137, 6.10285187, 6.15935357, 6.17868810, 6.18299413, 6.18346732, 6.18299413, 6.17868810, 6.15935357, 6.10285187, 5.98240137},
		{4.77092897, 4.88539641, 4.93253084, 4.94511769, 4.94677386, 4.94677386, 4.94677386, 4.94511769, 4.93253084, 4.88539641, 4.77092897},
		{3.56278943, 3.66892471, 3.70428382, 3.71008039, 3.71008039, 3.71008039, 3.71008039, 3.71008039, 3.70428382, 3.66892471, 3.56278943},
		{2.35977407, 2.45309892, 2.47338693, 2.47338693, 2.47338693, 2.47338693, 2.47338693, 2.47338693, 2.47338693, 2.45309892, 2.35977407},
		{1.16568542, 1.23669346, 1.23669346, 1.23669346, 1.23669346, 1.23669346, 1.23669346, 1.23669346, 1.23669346, 1.23669346, 1.16568542},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	for row := 4; row >= 0; row-- {
		rows = append(rows, rows[row])
	}
	return rows
}()

func middleRowChannel() [][]float64 {
	channel := uniform(11, 11, 0)
	for col := range channel[5] {
		channel[5][col] = 1
	}
	return channel
}

func TestDistanceToChannelD8(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "d8.dep")
	channelPath := filepath.Join(dir, "channel.dep")
	distPath := filepath.Join(dir, "dist.dep")
	writeGrid(t, dirPath, raster.DT_UINT8, D8NoData, plateauD8)
	writeGrid(t, channelPath, raster.DT_UINT8, 255, ringChannel)

	require.NoError(t, DistanceToChannelD8(context.Background(), dirPath, channelPath, distPath, "", testOptions(t)))
	require.Equal(t, ringDistanceD8, readGrid(t, distPath))
}

func TestDistanceToChannelD8Weights(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "d8.dep")
	channelPath := filepath.Join(dir, "channel.dep")
	weightPath := filepath.Join(dir, "weights.dep")
	distPath := filepath.Join(dir, "dist.dep")
	writeGrid(t, dirPath, raster.DT_UINT8, D8NoData, plateauD8)
	writeGrid(t, channelPath, raster.DT_UINT8, 255, ringChannel)
	writeGrid(t, weightPath, raster.DT_INT32, -1, uniform(11, 11, 2))

	require.NoError(t, DistanceToChannelD8(context.Background(), dirPath, channelPath, distPath, weightPath, tinyOptions(t)))
	require.Equal(t, scaled(ringDistanceD8, 2), readGrid(t, distPath))
}

func TestDistanceToChannelD8Unreached(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "d8.dep")
	channelPath := filepath.Join(dir, "channel.dep")
	distPath := filepath.Join(dir, "dist.dep")
	writeGrid(t, dirPath, raster.DT_UINT8, D8NoData, [][]float64{
		{0, 0, 0},
		{4, 4, 5},
		{128, 2, 3},
	})
	writeGrid(t, channelPath, raster.DT_UINT8, 255, [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 0, 0},
	})

	require.NoError(t, DistanceToChannelD8(context.Background(), dirPath, channelPath, distPath, "", testOptions(t)))
	requireGridInDelta(t, [][]float64{
		{-1, -1, -1},
		{0, 1, 3.414213562373095},
		{-1, 2, 2.414213562373095},
	}, readGrid(t, distPath), 1e-12)
}

func TestDistanceToChannelMFD(t *testing.T) {
	for name, opts := range map[string]Options{
		"default": testOptions(t),
		"tiny":    tinyOptions(t),
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			dirPath := filepath.Join(dir, "mfd.dep")
			channelPath := filepath.Join(dir, "channel.dep")
			distPath := filepath.Join(dir, "dist.dep")
			writeGrid(t, dirPath, raster.DT_UINT32, MFDNoData, channelMFD)
			writeGrid(t, channelPath, raster.DT_UINT8, 255, middleRowChannel())

			require.NoError(t, DistanceToChannelMFD(context.Background(), dirPath, channelPath, distPath, "", opts))
			requireGridInDelta(t, channelDistanceMFD, readGrid(t, distPath), 1e-6)
		})
	}
}

func TestDistanceToChannelMFDWeights(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "mfd.dep")
	channelPath := filepath.Join(dir, "channel.dep")
	weightPath := filepath.Join(dir, "weights.dep")
	distPath := filepath.Join(dir, "dist.dep")
	writeGrid(t, dirPath, raster.DT_UINT32, MFDNoData, channelMFD)
	writeGrid(t, channelPath, raster.DT_UINT8, 255, middleRowChannel())
	writeGrid(t, weightPath, raster.DT_INT32, -1, uniform(11, 11, 2))

	require.NoError(t, DistanceToChannelMFD(context.Background(), dirPath, channelPath, distPath, weightPath, testOptions(t)))

	want := make([][]float64, 11)
	for row := range want {
		d := float64(row - 5)
		if d < 0 {
			d = -d
		}
		want[row] = uniform(1, 11, 2*d)[0]
	}
	requireGridInDelta(t, want, readGrid(t, distPath), 1e-9)
}

func TestDistanceToChannelShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "mfd.dep")
	channelPath := filepath.Join(dir, "channel.dep")
	distPath := filepath.Join(dir, "dist.dep")
	writeGrid(t, dirPath, raster.DT_UINT32, MFDNoData, channelMFD)
	writeGrid(t, channelPath, raster.DT_UINT8, 255, uniform(5, 11, 1))

	err := DistanceToChannelMFD(context.Background(), dirPath, channelPath, distPath, "", testOptions(t))
	require.Equal(t, ErrTypeShapeMismatch, errors.Type(err))
	require.NoFileExists(t, distPath)
}

func TestDistanceToChannelMFDStalls(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "mfd.dep")
	channelPath := filepath.Join(dir, "channel.dep")
	distPath := filepath.Join(dir, "dist.dep")
	east := float64(PackMFD(MFDDirections{East: 15}))
	west := float64(PackMFD(MFDDirections{West: 15}))
	writeGrid(t, dirPath, raster.DT_UINT32, MFDNoData, [][]float64{{east, west}})
	writeGrid(t, channelPath, raster.DT_UINT8, 255, [][]float64{{0, 0}})

	err := DistanceToChannelMFD(context.Background(), dirPath, channelPath, distPath, "", testOptions(t))
	require.Equal(t, ErrTypeStalled, errors.Type(err))
}
