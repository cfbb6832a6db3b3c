// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package raster

import (
	"encoding/binary"
	"math"
)

// cellSize returns the number of bytes one cell of dataType occupies, or 0
// when the type cannot be stored.
func cellSize(dataType int) int {
	switch dataType {
	case DT_INT8, DT_UINT8:
		return 1
	case DT_INT16, DT_UINT16:
		return 2
	case DT_INT32, DT_UINT32, DT_FLOAT32:
		return 4
	case DT_FLOAT64:
		return 8
	}
	return 0
}

func decodeCells(dataType int, order binary.ByteOrder, src []byte, dst []float64) {
	switch dataType {
	case DT_INT8:
		for i := range dst {
			dst[i] = float64(int8(src[i]))
		}
	case DT_UINT8:
		for i := range dst {
			dst[i] = float64(src[i])
		}
	case DT_INT16:
		for i := range dst {
			dst[i] = float64(int16(order.Uint16(src[2*i:])))
		}
	case DT_UINT16:
		for i := range dst {
			dst[i] = float64(order.Uint16(src[2*i:]))
		}
	case DT_INT32:
		for i := range dst {
			dst[i] = float64(int32(order.Uint32(src[4*i:])))
		}
	case DT_UINT32:
		for i := range dst {
			dst[i] = float64(order.Uint32(src[4*i:]))
		}
	case DT_FLOAT32:
		for i := range dst {
			dst[i] = float64(math.Float32frombits(order.Uint32(src[4*i:])))
		}
	case DT_FLOAT64:
		for i := range dst {
			dst[i] = math.Float64frombits(order.Uint64(src[8*i:]))
		}
	}
}

func encodeCells(dataType int, order binary.ByteOrder, dst []byte, src []float64) {
	switch dataType {
	case DT_INT8:
		for i, v := range src {
			dst[i] = byte(int8(v))
		}
	case DT_UINT8:
		for i, v := range src {
			dst[i] = uint8(v)
		}
	case DT_INT16:
		for i, v := range src {
			order.PutUint16(dst[2*i:], uint16(int16(v)))
		}
	case DT_UINT16:
		for i, v := range src {
			order.PutUint16(dst[2*i:], uint16(v))
		}
	case DT_INT32:
		for i, v := range src {
			order.PutUint32(dst[4*i:], uint32(int32(v)))
		}
	case DT_UINT32:
		for i, v := range src {
			order.PutUint32(dst[4*i:], uint32(v))
		}
	case DT_FLOAT32:
		for i, v := range src {
			order.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
		}
	case DT_FLOAT64:
		for i, v := range src {
			order.PutUint64(dst[8*i:], math.Float64bits(v))
		}
	}
}
