// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// This file was originally created by John Lindsay<jlindsay@uoguelph.ca>,
// Nov. 2014.

package raster

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Used to manipulate an Whitebox raster (.dep header, .tas data) file. Cells
// are read and written in place, so the data file is never fully loaded.
type whiteboxRaster struct {
	dataFile     string
	file         *os.File
	header       whiteboxRasterHeader
	minimumValue float64
	maximumValue float64
	config       *RasterConfig
	cellBytes    int
	buf          []byte
}

type whiteboxRasterHeader struct {
	fileName string
	rows     int
	columns  int
	numCells int
	nodata   float64
	north    float64
	south    float64
	east     float64
	west     float64
}

func whiteboxFileNames(fileName string) (header, data string) {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	return base + ".dep", base + ".tas"
}

func (r *whiteboxRaster) InitializeRaster(fileName string,
	rows int, columns int, north float64, south float64,
	east float64, west float64, config *RasterConfig) error {

	r.config = config
	r.config.RasterFormat = RT_WhiteboxRaster
	if r.config.ByteOrder == nil {
		r.config.ByteOrder = binary.LittleEndian
	}
	if r.cellBytes = cellSize(config.DataType); r.cellBytes == 0 {
		return errors.Newf("data type %d cannot be stored in a whitebox raster", config.DataType).
			WithType(ErrTypeUnsupportedFormat).
			WithTag("file", fileName)
	}

	r.header.columns = columns
	r.header.rows = rows
	r.header.numCells = rows * columns
	r.header.north = north
	r.header.south = south
	r.header.east = east
	r.header.west = west
	r.header.nodata = config.NoDataValue
	r.header.fileName, r.dataFile = whiteboxFileNames(fileName)
	r.minimumValue = math.MaxFloat64
	r.maximumValue = -math.MaxFloat64

	if err := deleteFiles(r.header.fileName, r.dataFile); err != nil {
		return err
	}

	f, err := os.OpenFile(r.dataFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return r.writeError(err)
	}
	r.file = f
	if err = f.Truncate(int64(r.header.numCells) * int64(r.cellBytes)); err != nil {
		return r.writeError(err)
	}

	if config.InitialValue != 0 {
		row := make([]float64, columns)
		for i := range row {
			row[i] = config.InitialValue
		}
		for i := 0; i < rows; i++ {
			if err = r.WriteCells(i, 0, row); err != nil {
				return err
			}
		}
	}
	return r.writeHeaderFile()
}

func (r *whiteboxRaster) OpenFile(fileName string, mode AccessMode) error {
	r.header.fileName, r.dataFile = whiteboxFileNames(fileName)
	if _, err := os.Stat(r.header.fileName); err != nil {
		return errors.New("raster file does not exist").
			WithType(ErrTypeFileDoesNotExist).
			WithTag("file", r.header.fileName).
			Wrap(err)
	}

	r.config = NewDefaultRasterConfig()
	r.config.RasterFormat = RT_WhiteboxRaster
	r.config.DisplayMinimum = math.MaxFloat64
	r.config.DisplayMaximum = -math.MaxFloat64
	if err := r.readHeaderFile(); err != nil {
		return err
	}
	r.config.NoDataValue = r.header.nodata
	r.cellBytes = cellSize(r.config.DataType)

	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(r.dataFile, flag, 0)
	if err != nil {
		return errors.New("opening raster data file failed").
			WithType(ErrTypeFileRead).
			WithTag("file", r.dataFile).
			Wrap(err)
	}
	r.file = f

	info, err := f.Stat()
	if err != nil {
		return r.readError(err)
	}
	if want := int64(r.header.numCells) * int64(r.cellBytes); info.Size() < want {
		f.Close()
		return errors.Newf("data file holds %d bytes, header requires %d", info.Size(), want).
			WithType(ErrTypeInvalidHeader).
			WithTag("file", r.dataFile)
	}
	return nil
}

func (r *whiteboxRaster) cellBuffer(n int) []byte {
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	return r.buf[:n]
}

func (r *whiteboxRaster) offset(row, column int) int64 {
	return (int64(row)*int64(r.header.columns) + int64(column)) * int64(r.cellBytes)
}

// ReadCells fills dst with the run of cells starting at (row, column).
func (r *whiteboxRaster) ReadCells(row, column int, dst []float64) error {
	buf := r.cellBuffer(len(dst) * r.cellBytes)
	if _, err := r.file.ReadAt(buf, r.offset(row, column)); err != nil {
		return r.readError(err)
	}
	decodeCells(r.config.DataType, r.config.ByteOrder, buf, dst)
	return nil
}

// WriteCells stores src as the run of cells starting at (row, column).
func (r *whiteboxRaster) WriteCells(row, column int, src []float64) error {
	buf := r.cellBuffer(len(src) * r.cellBytes)
	encodeCells(r.config.DataType, r.config.ByteOrder, buf, src)
	if _, err := r.file.WriteAt(buf, r.offset(row, column)); err != nil {
		return r.writeError(err)
	}
	return nil
}

func (r *whiteboxRaster) readError(err error) error {
	return errors.New("reading raster data failed").
		WithType(ErrTypeFileRead).
		WithTag("file", r.dataFile).
		Wrap(err)
}

func (r *whiteboxRaster) writeError(err error) error {
	return errors.New("writing raster data failed").
		WithType(ErrTypeFileWrite).
		WithTag("file", r.dataFile).
		Wrap(err)
}

// Retrieve the file name of this Whitebox raster file.
func (r *whiteboxRaster) FileName() string {
	return r.header.fileName
}

func (r *whiteboxRaster) RasterType() RasterType {
	return RT_WhiteboxRaster
}

func (r *whiteboxRaster) Rows() int {
	return r.header.rows
}

func (r *whiteboxRaster) Columns() int {
	return r.header.columns
}

func (r *whiteboxRaster) North() float64 {
	return r.header.north
}

func (r *whiteboxRaster) South() float64 {
	return r.header.south
}

func (r *whiteboxRaster) East() float64 {
	return r.header.east
}

func (r *whiteboxRaster) West() float64 {
	return r.header.west
}

func (r *whiteboxRaster) MinimumValue() float64 {
	return r.minimumValue
}

func (r *whiteboxRaster) MaximumValue() float64 {
	return r.maximumValue
}

func (r *whiteboxRaster) SetStatistics(minimum, maximum float64) {
	r.minimumValue = minimum
	r.maximumValue = maximum
}

func (r *whiteboxRaster) SetRasterConfig(value *RasterConfig) {
	r.config = value
}

func (r *whiteboxRaster) GetRasterConfig() *RasterConfig {
	return r.config
}

func (r *whiteboxRaster) NoData() float64 {
	return r.header.nodata
}

func (r *whiteboxRaster) ByteOrder() binary.ByteOrder {
	return r.config.ByteOrder
}

func (r *whiteboxRaster) MetadataEntries() []string {
	return r.config.MetadataEntries
}

func (r *whiteboxRaster) AddMetadataEntry(value string) {
	r.config.MetadataEntries = append(r.config.MetadataEntries, value)
}

// Save rewrites the header. Cell data is already on disk.
func (r *whiteboxRaster) Save() error {
	if r.file != nil {
		if err := r.file.Sync(); err != nil {
			return r.writeError(err)
		}
	}
	return r.writeHeaderFile()
}

func (r *whiteboxRaster) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return r.writeError(err)
	}
	return nil
}

func (r *whiteboxRaster) readHeaderFile() error {
	content, err := os.ReadFile(r.header.fileName)
	if err != nil {
		return errors.New("reading raster header failed").
			WithType(ErrTypeFileRead).
			WithTag("file", r.header.fileName).
			Wrap(err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		var perr error
		switch key {
		case "min":
			r.minimumValue, perr = strconv.ParseFloat(value, 64)
		case "max":
			r.maximumValue, perr = strconv.ParseFloat(value, 64)
		case "display min":
			r.config.DisplayMinimum, perr = strconv.ParseFloat(value, 64)
		case "display max":
			r.config.DisplayMaximum, perr = strconv.ParseFloat(value, 64)
		case "north":
			r.header.north, perr = strconv.ParseFloat(value, 64)
		case "south":
			r.header.south, perr = strconv.ParseFloat(value, 64)
		case "east":
			r.header.east, perr = strconv.ParseFloat(value, 64)
		case "west":
			r.header.west, perr = strconv.ParseFloat(value, 64)
		case "cols":
			r.header.columns, perr = strconv.Atoi(value)
		case "rows":
			r.header.rows, perr = strconv.Atoi(value)
		case "stacks":
			r.config.NumberOfBands, perr = strconv.Atoi(value)
		case "data type":
			r.config.DataType, ok = parseWhiteboxDataType(value)
			if !ok {
				perr = errors.Newf("unknown data type %q", value)
			}
		case "data scale":
			switch strings.ToLower(value) {
			case "categorical":
				r.config.PhotometricInterpretation = 1
			case "boolean", "bool":
				r.config.PhotometricInterpretation = 2
			case "rgb":
				r.config.PhotometricInterpretation = 3
			default:
				r.config.PhotometricInterpretation = 0
			}
		case "z units":
			r.config.ZUnits = strings.ToLower(value)
		case "xy units":
			r.config.XYUnits = strings.ToLower(value)
		case "projection":
			if value != "not specified" {
				r.config.CoordinateRefSystemWKT = value
			}
		case "preferred palette":
			r.config.PreferredPalette = strings.ToLower(value)
		case "byte order", "byteorder":
			if strings.Contains(strings.ToUpper(value), "BIG") {
				r.config.ByteOrder = binary.BigEndian
			} else {
				r.config.ByteOrder = binary.LittleEndian
			}
		case "nodata":
			r.header.nodata, perr = strconv.ParseFloat(value, 64)
		case "palette nonlinearity":
			r.config.PaletteNonlinearity, perr = strconv.ParseFloat(value, 64)
		case "metadata entry":
			r.AddMetadataEntry(strings.ReplaceAll(value, ";", ":"))
		}
		if perr != nil {
			return errors.New("invalid raster header entry").
				WithType(ErrTypeInvalidHeader).
				WithTag("file", r.header.fileName).
				WithTag("key", key).
				Wrap(perr)
		}
	}

	if r.header.rows <= 0 || r.header.columns <= 0 {
		return errors.New("raster header has no rows or columns").
			WithType(ErrTypeInvalidHeader).
			WithTag("file", r.header.fileName)
	}
	r.header.numCells = r.header.rows * r.header.columns
	return nil
}

func parseWhiteboxDataType(value string) (int, bool) {
	switch strings.ToUpper(value) {
	case "DOUBLE":
		return DT_FLOAT64, true
	case "FLOAT":
		return DT_FLOAT32, true
	case "UNSIGNED_LONG":
		return DT_UINT32, true
	case "LONG":
		return DT_INT32, true
	case "UNSIGNED_INTEGER":
		return DT_UINT16, true
	case "INTEGER":
		return DT_INT16, true
	case "UNSIGNED_BYTE":
		return DT_UINT8, true
	case "BYTE":
		return DT_INT8, true
	}
	return 0, false
}

func whiteboxDataTypeName(dataType int) string {
	switch dataType {
	case DT_FLOAT64:
		return "DOUBLE"
	case DT_UINT32:
		return "UNSIGNED_LONG"
	case DT_INT32:
		return "LONG"
	case DT_UINT16:
		return "UNSIGNED_INTEGER"
	case DT_INT16:
		return "INTEGER"
	case DT_UINT8:
		return "UNSIGNED_BYTE"
	case DT_INT8:
		return "BYTE"
	default:
		return "FLOAT"
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r *whiteboxRaster) writeHeaderFile() error {
	f, err := os.Create(r.header.fileName)
	if err != nil {
		return errors.New("writing raster header failed").
			WithType(ErrTypeFileWrite).
			WithTag("file", r.header.fileName).
			Wrap(err)
	}
	defer f.Close()

	minVal, maxVal := r.minimumValue, r.maximumValue
	if minVal > maxVal {
		minVal, maxVal = r.header.nodata, r.header.nodata
	}
	displayMin, displayMax := r.config.DisplayMinimum, r.config.DisplayMaximum
	if displayMin == math.MaxFloat64 {
		displayMin = minVal
	}
	if displayMax == -math.MaxFloat64 {
		displayMax = maxVal
	}
	wkt := r.config.CoordinateRefSystemWKT
	if wkt == "" {
		wkt = "not specified"
	}
	palette := r.config.PreferredPalette
	if palette == "not specified" {
		palette = "grey.pal"
	}
	scale := "continuous"
	switch r.config.PhotometricInterpretation {
	case 1:
		scale = "categorical"
	case 2:
		scale = "boolean"
	case 3:
		scale = "rgb"
	}
	byteOrder := "LITTLE_ENDIAN"
	if r.config.ByteOrder == binary.BigEndian {
		byteOrder = "BIG_ENDIAN"
	}

	entries := [][2]string{
		{"Min", formatFloat(minVal)},
		{"Max", formatFloat(maxVal)},
		{"North", formatFloat(r.header.north)},
		{"South", formatFloat(r.header.south)},
		{"East", formatFloat(r.header.east)},
		{"West", formatFloat(r.header.west)},
		{"Cols", strconv.Itoa(r.header.columns)},
		{"Rows", strconv.Itoa(r.header.rows)},
		{"Stacks", strconv.Itoa(r.config.NumberOfBands)},
		{"Data Type", whiteboxDataTypeName(r.config.DataType)},
		{"Z Units", r.config.ZUnits},
		{"XY Units", r.config.XYUnits},
		{"Projection", wkt},
		{"Data Scale", scale},
		{"Display Min", formatFloat(displayMin)},
		{"Display Max", formatFloat(displayMax)},
		{"Preferred Palette", palette},
		{"NoData", formatFloat(r.header.nodata)},
		{"Byte Order", byteOrder},
		{"Palette Nonlinearity", formatFloat(r.config.PaletteNonlinearity)},
	}
	for _, value := range r.config.MetadataEntries {
		if len(strings.TrimSpace(value)) > 0 {
			entries = append(entries, [2]string{"Metadata Entry", strings.ReplaceAll(value, ":", ";")})
		}
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		w.WriteString(e[0] + ":\t" + e[1] + "\n")
	}
	if err = w.Flush(); err != nil {
		return errors.New("writing raster header failed").
			WithType(ErrTypeFileWrite).
			WithTag("file", r.header.fileName).
			Wrap(err)
	}
	return nil
}

func deleteFiles(fileNames ...string) error {
	for _, name := range fileNames {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := os.Remove(name); err != nil {
			return errors.New("deleting raster file failed").
				WithType(ErrTypeFileDelete).
				WithTag("file", name).
				Wrap(err)
		}
	}
	return nil
}
