// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// This file was originally created by John Lindsay<jlindsay@uoguelph.ca>,
// Nov. 2014.

// Package raster provides a tiled, disk-backed raster block store. Cell
// values are exchanged as float64 regardless of the on-disk data type and
// only a bounded number of blocks are held in memory at any time.
package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

type rasterData interface {
	InitializeRaster(fileName string,
		rows int, columns int, north float64, south float64,
		east float64, west float64, config *RasterConfig) error
	OpenFile(fileName string, mode AccessMode) error
	FileName() string
	Rows() int
	Columns() int
	North() float64
	South() float64
	East() float64
	West() float64
	MinimumValue() float64
	MaximumValue() float64
	SetStatistics(minimum, maximum float64)
	RasterType() RasterType
	NoData() float64
	ByteOrder() binary.ByteOrder
	ReadCells(row, column int, dst []float64) error
	WriteCells(row, column int, src []float64) error
	Save() error
	Close() error
	MetadataEntries() []string
	AddMetadataEntry(value string)
	SetRasterConfig(value *RasterConfig)
	GetRasterConfig() *RasterConfig
}

// AccessMode selects how an existing raster file is opened.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

// Default block cache shape.
const (
	DefaultBlockSize       = 256
	DefaultMaxCachedBlocks = 64
)

type Raster struct {
	Rows, Columns            int
	NumberofCells            int
	North, South, East, West float64
	NoDataValue              float64
	FileName                 string
	FileExtension            string
	RasterFormat             RasterType
	ByteOrder                binary.ByteOrder
	DataType                 int
	rd                       rasterData
	cache                    *blockCache
	mode                     AccessMode
	closed                   bool
	err                      error
}

type RasterConfig struct {
	NoDataValue               float64
	InitialValue              float64
	RasterFormat              RasterType
	ByteOrder                 binary.ByteOrder
	MetadataEntries           []string
	CoordinateRefSystemWKT    string
	NumberOfBands             int
	PhotometricInterpretation int
	DataType                  int
	PaletteNonlinearity       float64
	ZUnits                    string
	XYUnits                   string
	PreferredPalette          string
	DisplayMinimum            float64
	DisplayMaximum            float64

	// Cache shape. Blocks are BlockRows x BlockColumns cells and at most
	// MaxCachedBlocks of them are resident at once.
	BlockRows       int
	BlockColumns    int
	MaxCachedBlocks int
}

func NewDefaultRasterConfig() *RasterConfig {
	var rc RasterConfig
	rc.NoDataValue = -32768.0
	rc.InitialValue = -32768.0
	rc.RasterFormat = RT_UnknownRaster
	rc.ByteOrder = binary.LittleEndian
	rc.NumberOfBands = 1
	rc.PaletteNonlinearity = 1.0
	rc.ZUnits = "not specified"
	rc.XYUnits = "not specified"
	rc.PreferredPalette = "not specified"
	rc.DisplayMinimum = math.MaxFloat64
	rc.DisplayMaximum = -math.MaxFloat64
	rc.CoordinateRefSystemWKT = ""
	rc.PhotometricInterpretation = 0
	rc.DataType = DT_FLOAT32
	rc.BlockRows = DefaultBlockSize
	rc.BlockColumns = DefaultBlockSize
	rc.MaxCachedBlocks = DefaultMaxCachedBlocks
	return &rc
}

func (h RasterConfig) String() string {
	var b strings.Builder
	b.WriteString("Raster Configuration:\n")
	fmt.Fprintf(&b, "DataType = %d\n", h.DataType)
	fmt.Fprintf(&b, "NoDataValue = %v\n", h.NoDataValue)
	fmt.Fprintf(&b, "ByteOrder = %v\n", h.ByteOrder)
	fmt.Fprintf(&b, "ZUnits = %s\n", h.ZUnits)
	fmt.Fprintf(&b, "XYUnits = %s\n", h.XYUnits)
	fmt.Fprintf(&b, "Block = %dx%d (max %d cached)\n", h.BlockRows, h.BlockColumns, h.MaxCachedBlocks)
	fmt.Fprintf(&b, "CoordinateRefSystemWKT = %s\n", h.CoordinateRefSystemWKT)
	for _, m := range h.MetadataEntries {
		fmt.Fprintf(&b, "Metadata = %s\n", m)
	}
	return b.String()
}

// Data Type
const (
	DT_INT8 = iota
	DT_UINT8
	DT_INT16
	DT_UINT16
	DT_INT32
	DT_UINT32
	DT_INT64
	DT_UINT64
	DT_FLOAT32
	DT_FLOAT64
)

// CreateNewRaster creates a raster on disk with every cell set to the
// config's InitialValue. If more than one config is given only the last is
// used.
func CreateNewRaster(fileName string, rows int, columns int, north float64,
	south float64, east float64, west float64, config ...*RasterConfig) (*Raster, error) {

	myConfig := lastConfig(config)
	rasterType := myConfig.RasterFormat
	if rasterType == RT_UnknownRaster {
		var err error
		if rasterType, err = DetermineRasterFormat(fileName); err != nil {
			return nil, err
		}
	}

	var myRasterData rasterData
	switch rasterType {
	case RT_WhiteboxRaster:
		myRasterData = new(whiteboxRaster)
	default:
		return nil, errors.New("unsupported raster format").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("file", fileName)
	}

	if err := myRasterData.InitializeRaster(fileName, rows, columns, north, south, east, west, myConfig); err != nil {
		return nil, err
	}

	r := &Raster{
		FileName:      fileName,
		FileExtension: strings.ToLower(filepath.Ext(fileName)),
		RasterFormat:  rasterType,
		rd:            myRasterData,
		mode:          ReadWrite,
	}
	setVariablesFromRasterData(r, myRasterData)
	r.cache = newBlockCache(myRasterData, myConfig, true)
	return r, nil
}

// CreateRasterFromFile opens an existing raster for reading.
func CreateRasterFromFile(fileName string, config ...*RasterConfig) (*Raster, error) {
	return OpenRaster(fileName, ReadOnly, config...)
}

// OpenRaster opens an existing raster. Only the cache shape of the optional
// config is honoured; everything else comes from the file.
func OpenRaster(fileName string, mode AccessMode, config ...*RasterConfig) (*Raster, error) {
	rt, err := DetermineRasterFormat(fileName)
	if err != nil {
		return nil, err
	}

	var myRasterData rasterData
	switch rt {
	case RT_WhiteboxRaster:
		myRasterData = new(whiteboxRaster)
	}
	if err = myRasterData.OpenFile(fileName, mode); err != nil {
		return nil, err
	}

	cacheConfig := lastConfig(config)
	fileConfig := myRasterData.GetRasterConfig()
	fileConfig.BlockRows = cacheConfig.BlockRows
	fileConfig.BlockColumns = cacheConfig.BlockColumns
	fileConfig.MaxCachedBlocks = cacheConfig.MaxCachedBlocks

	r := &Raster{
		FileName:      fileName,
		FileExtension: strings.ToLower(filepath.Ext(fileName)),
		RasterFormat:  rt,
		rd:            myRasterData,
		mode:          mode,
	}
	setVariablesFromRasterData(r, myRasterData)
	r.cache = newBlockCache(myRasterData, fileConfig, mode == ReadWrite)
	return r, nil
}

// NewRasterFromBase creates a raster with the same shape, extent and
// coordinate reference system as base.
func NewRasterFromBase(base *Raster, fileName string, dataType int,
	nodata float64, initialValue float64, config ...*RasterConfig) (*Raster, error) {

	baseConfig := base.GetRasterConfig()
	cacheConfig := lastConfig(config)

	c := NewDefaultRasterConfig()
	c.DataType = dataType
	c.NoDataValue = nodata
	c.InitialValue = initialValue
	c.CoordinateRefSystemWKT = baseConfig.CoordinateRefSystemWKT
	c.XYUnits = baseConfig.XYUnits
	c.ByteOrder = baseConfig.ByteOrder
	c.BlockRows = cacheConfig.BlockRows
	c.BlockColumns = cacheConfig.BlockColumns
	c.MaxCachedBlocks = cacheConfig.MaxCachedBlocks
	return CreateNewRaster(fileName, base.Rows, base.Columns,
		base.North, base.South, base.East, base.West, c)
}

// DeleteRaster removes every file belonging to the raster fileName.
func DeleteRaster(fileName string) error {
	rt, err := DetermineRasterFormat(fileName)
	if err != nil {
		return err
	}
	switch rt {
	case RT_WhiteboxRaster:
		header, data := whiteboxFileNames(fileName)
		return deleteFiles(header, data)
	}
	return nil
}

func lastConfig(config []*RasterConfig) *RasterConfig {
	if len(config) == 0 || config[len(config)-1] == nil {
		return NewDefaultRasterConfig()
	}
	return config[len(config)-1]
}

// Retrives an individual pixel value in the grid. Off-grid positions return
// the nodata value.
func (r *Raster) Value(row, column int) float64 {
	if column >= 0 && column < r.Columns && row >= 0 && row < r.Rows {
		v, err := r.cache.value(row, column)
		if err != nil {
			r.setErr(err)
			return r.NoDataValue
		}
		return v
	}
	return r.NoDataValue
}

// Sets an individual pixel value in the grid. Off-grid positions are
// ignored.
func (r *Raster) SetValue(row, column int, value float64) {
	if column < 0 || column >= r.Columns || row < 0 || row >= r.Rows {
		return
	}
	if r.mode != ReadWrite {
		r.setErr(errors.New("raster is read only").
			WithType(ErrTypeReadOnly).
			WithTag("file", r.FileName))
		return
	}
	if err := r.cache.setValue(row, column, value); err != nil {
		r.setErr(err)
	}
}

// IsNoData reports whether value is the raster's nodata sentinel.
func (r *Raster) IsNoData(value float64) bool {
	if math.IsNaN(r.NoDataValue) {
		return math.IsNaN(value)
	}
	return value == r.NoDataValue
}

// InGrid reports whether row and column address a cell of the raster.
func (r *Raster) InGrid(row, column int) bool {
	return row >= 0 && row < r.Rows && column >= 0 && column < r.Columns
}

// Err returns the first I/O error met by Value or SetValue.
func (r *Raster) Err() error {
	return r.err
}

func (r *Raster) setErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

// SetMaxCachedBlocks changes how many blocks may be resident at once.
// Shrinking the cache takes effect on the next miss.
func (r *Raster) SetMaxCachedBlocks(n int) {
	if n > 0 {
		r.cache.capacity = n
	}
}

// BlocksAcross returns the number of blocks spanning one block row.
func (r *Raster) BlocksAcross() int {
	return r.cache.blocksAcross
}

// Blocks returns the windows covering the raster in row-major block order.
func (r *Raster) Blocks() []Window {
	return blockWindows(r.Rows, r.Columns, r.cache.blockRows, r.cache.blockColumns)
}

// ReadBlock returns the cells of w in row-major order.
func (r *Raster) ReadBlock(w Window) ([]float64, error) {
	if !w.within(r.Rows, r.Columns) {
		return nil, invalidWindowError(r.FileName, w)
	}
	data := make([]float64, w.Cells())
	i := 0
	for row := w.Row; row < w.Row+w.Rows; row++ {
		for col := w.Column; col < w.Column+w.Columns; col++ {
			v, err := r.cache.value(row, col)
			if err != nil {
				return nil, err
			}
			data[i] = v
			i++
		}
	}
	return data, nil
}

// WriteBlock stores data, given in row-major order, into w.
func (r *Raster) WriteBlock(w Window, data []float64) error {
	if !w.within(r.Rows, r.Columns) || len(data) != w.Cells() {
		return invalidWindowError(r.FileName, w)
	}
	if r.mode != ReadWrite {
		return errors.New("raster is read only").
			WithType(ErrTypeReadOnly).
			WithTag("file", r.FileName)
	}
	i := 0
	for row := w.Row; row < w.Row+w.Rows; row++ {
		for col := w.Column; col < w.Column+w.Columns; col++ {
			if err := r.cache.setValue(row, col, data[i]); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func invalidWindowError(fileName string, w Window) error {
	return errors.New("window does not fit the raster").
		WithType(ErrTypeInvalidWindow).
		WithTag("file", fileName).
		WithTag("window", w.String())
}

// Flush writes every modified block back to disk.
func (r *Raster) Flush() error {
	if err := r.cache.flush(); err != nil {
		return err
	}
	return r.err
}

// Save flushes the block cache, refreshes the value range and rewrites the
// header.
func (r *Raster) Save() error {
	if r.closed {
		return errors.New("raster is closed").
			WithType(ErrTypeClosed).
			WithTag("file", r.FileName)
	}
	if r.mode != ReadWrite {
		return nil
	}
	if err := r.Flush(); err != nil {
		return err
	}

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	for _, w := range r.Blocks() {
		data, err := r.ReadBlock(w)
		if err != nil {
			return err
		}
		for _, v := range data {
			if r.IsNoData(v) {
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	r.rd.SetStatistics(minVal, maxVal)
	return r.rd.Save()
}

// Close saves a writable raster and releases its file handles.
func (r *Raster) Close() error {
	if r.closed {
		return nil
	}
	err := r.Save()
	r.closed = true
	if cerr := r.rd.Close(); err == nil {
		err = cerr
	}
	return err
}

// Sets the raster config
func (r *Raster) SetRasterConfig(value *RasterConfig) {
	r.rd.SetRasterConfig(value)
}

// Gets the raster config
func (r *Raster) GetRasterConfig() *RasterConfig {
	return r.rd.GetRasterConfig()
}

func (r *Raster) GetMetadataEntries() []string {
	return r.rd.MetadataEntries()
}

func (r *Raster) AddMetadataEntry(value string) {
	r.rd.AddMetadataEntry(value)
}

func (r *Raster) GetMinimumValue() float64 {
	return r.rd.MinimumValue()
}

func (r *Raster) GetMaximumValue() float64 {
	return r.rd.MaximumValue()
}

func (r *Raster) GetCellSizeX() float64 {
	return (r.East - r.West) / float64(r.Columns)
}

func (r *Raster) GetCellSizeY() float64 {
	return (r.North - r.South) / float64(r.Rows)
}

// GeoTransform returns the affine transform from (column, row) to world
// coordinates: x = gt[0] + column*gt[1], y = gt[3] + row*gt[5].
func (r *Raster) GeoTransform() [6]float64 {
	return [6]float64{r.West, r.GetCellSizeX(), 0, r.North, 0, -r.GetCellSizeY()}
}

// SameShape reports whether other has the same number of rows and columns.
func (r *Raster) SameShape(other *Raster) bool {
	return r.Rows == other.Rows && r.Columns == other.Columns
}

// set's the Raster's public variables based on a RasterData
func setVariablesFromRasterData(r *Raster, rd rasterData) {
	r.Columns = rd.Columns()
	r.Rows = rd.Rows()
	r.North = rd.North()
	r.South = rd.South()
	r.East = rd.East()
	r.West = rd.West()
	r.ByteOrder = rd.ByteOrder()
	r.NoDataValue = rd.NoData()
	r.DataType = rd.GetRasterConfig().DataType
	r.NumberofCells = r.Rows * r.Columns
}
