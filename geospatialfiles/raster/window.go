// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package raster

import "fmt"

// Window is a rectangular run of cells starting at (Row, Column).
type Window struct {
	Row     int
	Column  int
	Rows    int
	Columns int
}

// Cells returns the number of cells in the window.
func (w Window) Cells() int {
	return w.Rows * w.Columns
}

// Contains reports whether (row, column) lies inside the window.
func (w Window) Contains(row, column int) bool {
	return row >= w.Row && row < w.Row+w.Rows &&
		column >= w.Column && column < w.Column+w.Columns
}

func (w Window) String() string {
	return fmt.Sprintf("%d,%d+%dx%d", w.Row, w.Column, w.Rows, w.Columns)
}

func (w Window) within(rows, columns int) bool {
	return w.Row >= 0 && w.Column >= 0 && w.Rows > 0 && w.Columns > 0 &&
		w.Row+w.Rows <= rows && w.Column+w.Columns <= columns
}

func blockWindows(rows, columns, blockRows, blockColumns int) []Window {
	var windows []Window
	for row := 0; row < rows; row += blockRows {
		for col := 0; col < columns; col += blockColumns {
			windows = append(windows, Window{
				Row:     row,
				Column:  col,
				Rows:    min(blockRows, rows-row),
				Columns: min(blockColumns, columns-col),
			})
		}
	}
	return windows
}
