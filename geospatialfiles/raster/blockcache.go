// Copyright 2014 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package raster

import "container/list"

type cachedBlock struct {
	index  int
	window Window
	data   []float64
	dirty  bool
}

// blockCache keeps the most recently used blocks of a raster in memory and
// writes modified ones back when they are evicted or flushed.
type blockCache struct {
	rd           rasterData
	rows         int
	columns      int
	blockRows    int
	blockColumns int
	blocksAcross int
	capacity     int
	writable     bool

	blocks map[int]*list.Element
	lru    *list.List // front is the most recently used
	last   *cachedBlock
}

func newBlockCache(rd rasterData, config *RasterConfig, writable bool) *blockCache {
	c := &blockCache{
		rd:           rd,
		rows:         rd.Rows(),
		columns:      rd.Columns(),
		blockRows:    config.BlockRows,
		blockColumns: config.BlockColumns,
		capacity:     config.MaxCachedBlocks,
		writable:     writable,
		blocks:       make(map[int]*list.Element),
		lru:          list.New(),
	}
	if c.blockRows <= 0 {
		c.blockRows = DefaultBlockSize
	}
	if c.blockColumns <= 0 {
		c.blockColumns = DefaultBlockSize
	}
	if c.capacity <= 0 {
		c.capacity = DefaultMaxCachedBlocks
	}
	c.blocksAcross = (c.columns + c.blockColumns - 1) / c.blockColumns
	return c
}

func (c *blockCache) value(row, column int) (float64, error) {
	b, err := c.block(row, column)
	if err != nil {
		return 0, err
	}
	return b.data[(row-b.window.Row)*b.window.Columns+column-b.window.Column], nil
}

func (c *blockCache) setValue(row, column int, value float64) error {
	b, err := c.block(row, column)
	if err != nil {
		return err
	}
	b.data[(row-b.window.Row)*b.window.Columns+column-b.window.Column] = value
	b.dirty = true
	return nil
}

func (c *blockCache) block(row, column int) (*cachedBlock, error) {
	index := (row/c.blockRows)*c.blocksAcross + column/c.blockColumns
	if c.last != nil && c.last.index == index {
		return c.last, nil
	}
	if e, ok := c.blocks[index]; ok {
		c.lru.MoveToFront(e)
		c.last = e.Value.(*cachedBlock)
		return c.last, nil
	}

	for c.lru.Len() >= c.capacity {
		if err := c.evict(); err != nil {
			return nil, err
		}
	}
	b, err := c.load(index)
	if err != nil {
		return nil, err
	}
	c.blocks[index] = c.lru.PushFront(b)
	c.last = b
	return b, nil
}

func (c *blockCache) load(index int) (*cachedBlock, error) {
	row := (index / c.blocksAcross) * c.blockRows
	col := (index % c.blocksAcross) * c.blockColumns
	w := Window{
		Row:     row,
		Column:  col,
		Rows:    min(c.blockRows, c.rows-row),
		Columns: min(c.blockColumns, c.columns-col),
	}
	b := &cachedBlock{
		index:  index,
		window: w,
		data:   make([]float64, w.Cells()),
	}
	for i := 0; i < w.Rows; i++ {
		if err := c.rd.ReadCells(w.Row+i, w.Column, b.data[i*w.Columns:(i+1)*w.Columns]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (c *blockCache) writeBack(b *cachedBlock) error {
	if !b.dirty || !c.writable {
		return nil
	}
	w := b.window
	for i := 0; i < w.Rows; i++ {
		if err := c.rd.WriteCells(w.Row+i, w.Column, b.data[i*w.Columns:(i+1)*w.Columns]); err != nil {
			return err
		}
	}
	b.dirty = false
	return nil
}

// evict drops the least recently used block. A block whose write-back fails
// stays resident and dirty, and the error is returned.
func (c *blockCache) evict() error {
	e := c.lru.Back()
	b := e.Value.(*cachedBlock)
	if err := c.writeBack(b); err != nil {
		return err
	}
	c.lru.Remove(e)
	delete(c.blocks, b.index)
	if c.last == b {
		c.last = nil
	}
	return nil
}

func (c *blockCache) flush() error {
	for e := c.lru.Front(); e != nil; e = e.Next() {
		if err := c.writeBack(e.Value.(*cachedBlock)); err != nil {
			return err
		}
	}
	return nil
}

// resident returns the number of blocks currently held in memory.
func (c *blockCache) resident() int {
	return c.lru.Len()
}
