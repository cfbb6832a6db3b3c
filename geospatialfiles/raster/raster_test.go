// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package raster

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func smallBlockConfig(dataType int, nodata float64) *RasterConfig {
	c := NewDefaultRasterConfig()
	c.DataType = dataType
	c.NoDataValue = nodata
	c.InitialValue = nodata
	c.BlockRows = 2
	c.BlockColumns = 2
	c.MaxCachedBlocks = 2
	return c
}

func TestCreateAndReopen(t *testing.T) {
	dataTypes := []int{DT_INT8, DT_UINT8, DT_INT16, DT_UINT16, DT_INT32, DT_UINT32, DT_FLOAT32, DT_FLOAT64}
	for _, dt := range dataTypes {
		t.Run(whiteboxDataTypeName(dt), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "grid.dep")
			r, err := CreateNewRaster(path, 7, 5, 14, 0, 10, 0, smallBlockConfig(dt, 100))
			require.NoError(t, err)

			for row := 0; row < r.Rows; row++ {
				for col := 0; col < r.Columns; col++ {
					if row == 3 && col == 2 {
						continue
					}
					r.SetValue(row, col, float64(row*r.Columns+col))
				}
			}
			require.NoError(t, r.Err())
			require.LessOrEqual(t, r.cache.resident(), 2)
			require.NoError(t, r.Close())

			in, err := CreateRasterFromFile(path)
			require.NoError(t, err)
			defer in.Close()

			require.Equal(t, 7, in.Rows)
			require.Equal(t, 5, in.Columns)
			require.Equal(t, dt, in.DataType)
			require.Equal(t, float64(100), in.NoDataValue)
			for row := 0; row < in.Rows; row++ {
				for col := 0; col < in.Columns; col++ {
					want := float64(row*in.Columns + col)
					if row == 3 && col == 2 {
						want = 100
					}
					require.Equal(t, want, in.Value(row, col), "cell %d,%d", row, col)
				}
			}
			require.Equal(t, float64(0), in.GetMinimumValue())
			require.Equal(t, float64(34), in.GetMaximumValue())
			require.NoError(t, in.Err())
		})
	}
}

func TestInitialValue(t *testing.T) {
	c := NewDefaultRasterConfig()
	c.DataType = DT_FLOAT64
	c.NoDataValue = -1
	c.InitialValue = 2.5
	path := filepath.Join(t.TempDir(), "init.tas")
	r, err := CreateNewRaster(path, 3, 4, 3, 0, 4, 0, c)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	in, err := CreateRasterFromFile(filepath.Join(filepath.Dir(path), "init.dep"))
	require.NoError(t, err)
	defer in.Close()
	for _, w := range in.Blocks() {
		data, err := in.ReadBlock(w)
		require.NoError(t, err)
		for _, v := range data {
			require.Equal(t, 2.5, v)
		}
	}
}

func TestBigEndian(t *testing.T) {
	c := smallBlockConfig(DT_FLOAT32, -9999)
	c.ByteOrder = binary.BigEndian
	path := filepath.Join(t.TempDir(), "be.dep")
	r, err := CreateNewRaster(path, 2, 2, 2, 0, 2, 0, c)
	require.NoError(t, err)
	r.SetValue(1, 1, 0.5)
	require.NoError(t, r.Close())

	in, err := CreateRasterFromFile(path)
	require.NoError(t, err)
	defer in.Close()
	require.Equal(t, binary.BigEndian, in.ByteOrder)
	require.Equal(t, 0.5, in.Value(1, 1))
	require.Equal(t, float64(-9999), in.Value(0, 0))
}

func TestBlocksCoverRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.dep")
	r, err := CreateNewRaster(path, 5, 3, 5, 0, 3, 0, smallBlockConfig(DT_INT32, -1))
	require.NoError(t, err)
	defer r.Close()

	seen := make(map[[2]int]bool)
	for _, w := range r.Blocks() {
		for row := w.Row; row < w.Row+w.Rows; row++ {
			for col := w.Column; col < w.Column+w.Columns; col++ {
				require.False(t, seen[[2]int{row, col}])
				seen[[2]int{row, col}] = true
			}
		}
	}
	require.Len(t, seen, 15)
	require.Len(t, r.Blocks(), 6)
}

func TestReadWriteBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window.dep")
	r, err := CreateNewRaster(path, 4, 4, 4, 0, 4, 0, smallBlockConfig(DT_FLOAT64, -1))
	require.NoError(t, err)
	defer r.Close()

	w := Window{Row: 1, Column: 1, Rows: 2, Columns: 3}
	require.NoError(t, r.WriteBlock(w, []float64{1, 2, 3, 4, 5, 6}))
	data, err := r.ReadBlock(w)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, data)
	require.Equal(t, float64(6), r.Value(2, 3))
	require.Equal(t, float64(-1), r.Value(0, 0))

	_, err = r.ReadBlock(Window{Row: 3, Column: 3, Rows: 2, Columns: 1})
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalidWindow, errors.Type(err))

	err = r.WriteBlock(w, []float64{1})
	require.Equal(t, ErrTypeInvalidWindow, errors.Type(err))
}

func TestOffGridIsNoData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.dep")
	r, err := CreateNewRaster(path, 3, 3, 3, 0, 3, 0, smallBlockConfig(DT_FLOAT64, -1))
	require.NoError(t, err)
	defer r.Close()
	r.SetValue(0, 0, 7)
	r.SetValue(-1, 0, 9)

	require.Equal(t, float64(-1), r.Value(-1, 0))
	require.Equal(t, float64(-1), r.Value(0, 3))
	require.False(t, r.InGrid(3, 0))
	require.True(t, r.IsNoData(r.Value(5, 5)))
	require.Equal(t, float64(7), r.Value(0, 0))
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.dep")
	r, err := CreateNewRaster(path, 2, 2, 2, 0, 2, 0, smallBlockConfig(DT_UINT8, 0))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	in, err := CreateRasterFromFile(path)
	require.NoError(t, err)
	defer in.Close()
	in.SetValue(0, 0, 1)
	require.Equal(t, ErrTypeReadOnly, errors.Type(in.Err()))
	require.Equal(t, ErrTypeReadOnly, errors.Type(in.WriteBlock(Window{Rows: 1, Columns: 1}, []float64{1})))
}

func TestOpenReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rw.dep")
	r, err := CreateNewRaster(path, 2, 3, 2, 0, 3, 0, smallBlockConfig(DT_INT16, -1))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	rw, err := OpenRaster(path, ReadWrite)
	require.NoError(t, err)
	rw.SetValue(1, 2, 12)
	require.NoError(t, rw.Close())

	in, err := CreateRasterFromFile(path)
	require.NoError(t, err)
	defer in.Close()
	require.Equal(t, float64(12), in.Value(1, 2))
	require.Equal(t, float64(12), in.GetMaximumValue())
}

func TestHeaderRoundTrip(t *testing.T) {
	c := smallBlockConfig(DT_FLOAT32, -32768)
	c.CoordinateRefSystemWKT = `PROJCS["WGS 84 / UTM zone 31S",GEOGCS["WGS 84"]]`
	c.XYUnits = "metres"
	c.PhotometricInterpretation = 1
	path := filepath.Join(t.TempDir(), "meta.dep")
	r, err := CreateNewRaster(path, 2, 4, -2, -6, 10, 2, c)
	require.NoError(t, err)
	r.AddMetadataEntry("Created on: 2024-01-02")
	require.NoError(t, r.Close())

	in, err := CreateRasterFromFile(path)
	require.NoError(t, err)
	defer in.Close()
	config := in.GetRasterConfig()
	require.Equal(t, c.CoordinateRefSystemWKT, config.CoordinateRefSystemWKT)
	require.Equal(t, "metres", config.XYUnits)
	require.Equal(t, 1, config.PhotometricInterpretation)
	require.Equal(t, []string{"Created on: 2024-01-02"}, in.GetMetadataEntries())
	require.Equal(t, [6]float64{2, 2, 0, -2, 0, -2}, in.GeoTransform())
	require.Contains(t, config.String(), "DataType = 8")
}

func TestNewRasterFromBase(t *testing.T) {
	dir := t.TempDir()
	c := smallBlockConfig(DT_FLOAT32, -32768)
	c.CoordinateRefSystemWKT = `GEOGCS["WGS 84"]`
	base, err := CreateNewRaster(filepath.Join(dir, "base.dep"), 3, 2, 6, 0, 4, 0, c)
	require.NoError(t, err)
	defer base.Close()

	out, err := NewRasterFromBase(base, filepath.Join(dir, "out.dep"), DT_UINT32, 0, 0)
	require.NoError(t, err)
	defer out.Close()
	require.True(t, out.SameShape(base))
	require.Equal(t, DT_UINT32, out.DataType)
	require.Equal(t, base.GeoTransform(), out.GeoTransform())
	require.Equal(t, c.CoordinateRefSystemWKT, out.GetRasterConfig().CoordinateRefSystemWKT)
	out.SetValue(2, 1, 4294967295)
	require.Equal(t, float64(4294967295), out.Value(2, 1))
}

func TestMissingAndUnsupportedFiles(t *testing.T) {
	_, err := CreateRasterFromFile(filepath.Join(t.TempDir(), "missing.dep"))
	require.Equal(t, ErrTypeFileDoesNotExist, errors.Type(err))

	_, err = CreateRasterFromFile("dem.xyz")
	require.Equal(t, ErrTypeUnsupportedFormat, errors.Type(err))
	require.False(t, IsSupportedRasterFileExtension("dem.xyz"))
	require.True(t, IsSupportedRasterFileExtension("dem.TAS"))
}

func TestDeleteRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.dep")
	r, err := CreateNewRaster(path, 1, 1, 1, 0, 1, 0)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, DeleteRaster(path))

	_, err = CreateRasterFromFile(path)
	require.Equal(t, ErrTypeFileDoesNotExist, errors.Type(err))
}

// failingWrites is a rasterData whose writes always fail.
type failingWrites struct {
	rasterData
}

func (failingWrites) WriteCells(row, column int, src []float64) error {
	return errors.New("disk full").WithType(ErrTypeFileWrite)
}

func TestEvictKeepsBlockWhenWriteBackFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "full.dep")
	r, err := CreateNewRaster(path, 4, 4, 4, 0, 4, 0, smallBlockConfig(DT_FLOAT64, -1))
	require.NoError(t, err)
	defer r.Close()

	c := newBlockCache(failingWrites{r.rd}, &RasterConfig{BlockRows: 2, BlockColumns: 2, MaxCachedBlocks: 1}, true)
	require.NoError(t, c.setValue(0, 0, 5))

	err = c.setValue(3, 3, 1)
	require.Equal(t, ErrTypeFileWrite, errors.Type(err))
	require.Equal(t, 1, c.resident())

	v, err := c.value(0, 0)
	require.NoError(t, err)
	require.Equal(t, float64(5), v)
	require.Error(t, c.flush())
}
