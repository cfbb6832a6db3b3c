// Copyright 2017 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package routing

import (
	"github.com/ctessum/geom"
	"github.com/jblindsay/go-hydro/geospatialfiles/raster"
	"github.com/jblindsay/go-hydro/geospatialfiles/vector"
)

// Boundary edge headings in grid space.
const (
	headColumns = iota // +column
	headRows           // +row
	headBack           // -column
	headUp             // -row
)

// boundaryEdge is one cell side separating a label from a different one,
// oriented so that the labelled cell lies on its right.
type boundaryEdge struct {
	from, to int64
	heading  int
	used     bool
}

type boundary struct {
	edges  []boundaryEdge
	starts map[int64][]int
}

func (b *boundary) add(from, to int64, heading int) {
	if b.starts == nil {
		b.starts = make(map[int64][]int)
	}
	b.starts[from] = append(b.starts[from], len(b.edges))
	b.edges = append(b.edges, boundaryEdge{from: from, to: to, heading: heading})
}

// next picks the unused edge leaving v, turning right where cells of the
// label meet only at a corner.
func (b *boundary) next(v int64, heading int) int {
	best, bestRank := -1, 4
	for _, i := range b.starts[v] {
		e := b.edges[i]
		if e.used {
			continue
		}
		rank := (heading - e.heading + 4 + 1) % 4
		if rank < bestRank {
			best, bestRank = i, rank
		}
	}
	return best
}

// rings chains the edges into closed vertex loops.
func (b *boundary) rings() [][]int64 {
	var rings [][]int64
	for i := range b.edges {
		if b.edges[i].used {
			continue
		}
		start := b.edges[i].from
		var ring []int64
		for e := i; e >= 0; {
			b.edges[e].used = true
			ring = append(ring, b.edges[e].from)
			if b.edges[e].to == start {
				break
			}
			e = b.next(b.edges[e].to, b.edges[e].heading)
		}
		rings = append(rings, ring)
	}
	return rings
}

// polygonize traces the outline of every label 1..n of labels, dissolving
// the sides shared by cells of the same label.
func polygonize(w *workspace, labels *raster.Raster, n int) ([]vector.Watershed, error) {
	g := grid{rows: labels.Rows, columns: labels.Columns}
	vertexColumns := int64(g.columns + 1)
	vertex := func(row, col int) int64 {
		return int64(row)*vertexColumns + int64(col)
	}

	outlines := make([]boundary, n)
	p := w.progress("tracing outlines", g.rows)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			label := int(labels.Value(row, col))
			if label < 1 || label > n {
				continue
			}
			b := &outlines[label-1]
			differs := func(r, c int) bool {
				return !g.inside(r, c) || int(labels.Value(r, c)) != label
			}
			if differs(row-1, col) {
				b.add(vertex(row, col), vertex(row, col+1), headColumns)
			}
			if differs(row, col+1) {
				b.add(vertex(row, col+1), vertex(row+1, col+1), headRows)
			}
			if differs(row+1, col) {
				b.add(vertex(row+1, col+1), vertex(row+1, col), headBack)
			}
			if differs(row, col-1) {
				b.add(vertex(row+1, col), vertex(row, col), headUp)
			}
		}
		p.incr()
	}
	if err := labels.Err(); err != nil {
		return nil, err
	}

	cellX, cellY := labels.GetCellSizeX(), labels.GetCellSizeY()
	toPoint := func(v int64) geom.Point {
		row, col := v/vertexColumns, v%vertexColumns
		return geom.Point{
			X: labels.West + float64(col)*cellX,
			Y: labels.North - float64(row)*cellY,
		}
	}

	features := make([]vector.Watershed, n)
	for i := range outlines {
		features[i].ID = i + 1
		for _, ring := range outlines[i].rings() {
			corners := dropCollinear(ring)
			path := make([]geom.Point, 0, len(corners)+1)
			for _, v := range corners {
				path = append(path, toPoint(v))
			}
			path = append(path, path[0])
			features[i].Polygon = append(features[i].Polygon, path)
		}
	}
	return features, nil
}

// dropCollinear keeps only the ring vertices where the outline turns.
// Consecutive vertices are one cell side apart, so equal index steps mean
// equal headings.
func dropCollinear(ring []int64) []int64 {
	n := len(ring)
	corners := make([]int64, 0, n)
	for i, v := range ring {
		prev, next := ring[(i+n-1)%n], ring[(i+1)%n]
		if v-prev != next-v {
			corners = append(corners, v)
		}
	}
	return corners
}
