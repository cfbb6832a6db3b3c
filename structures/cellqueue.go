// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package structures

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Error types attached to the errors returned by this package.
const (
	ErrTypeSpill = "structures_spill"
	ErrTypeEmpty = "structures_empty"
)

// CellQueue is a FIFO queue of raster cell indices. The newest items are
// gathered in memory and written out as segment files when more than
// maxItems would otherwise be held.
type CellQueue struct {
	head     []int64
	tail     []int64
	segments []string
	spilled  int
	chunk    int
	dir      string
	spills   int
}

// NewCellQueue returns an empty queue that spills to dir. maxItems <= 0
// selects DefaultMaxItems.
func NewCellQueue(dir string, maxItems int) *CellQueue {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	chunk := maxItems / 2
	if chunk < 1 {
		chunk = 1
	}
	return &CellQueue{chunk: chunk, dir: dir}
}

// Push appends cell to the back of the queue.
func (q *CellQueue) Push(cell int64) error {
	q.tail = append(q.tail, cell)
	if len(q.tail) < q.chunk {
		return nil
	}
	if len(q.segments) == 0 && len(q.head) == 0 {
		q.head, q.tail = q.tail, q.head[:0]
		return nil
	}
	return q.spill()
}

// Pop removes the front of the queue. ok is false when the queue is empty.
func (q *CellQueue) Pop() (cell int64, ok bool, err error) {
	if len(q.head) == 0 {
		if err = q.refill(); err != nil {
			return 0, false, err
		}
		if len(q.head) == 0 {
			return 0, false, nil
		}
	}
	cell = q.head[0]
	q.head = q.head[1:]
	return cell, true, nil
}

// Len returns the number of queued cells.
func (q *CellQueue) Len() int {
	return len(q.head) + len(q.tail) + q.spilled
}

// Spills returns how many segments have been written to disk so far.
func (q *CellQueue) Spills() int {
	return q.spills
}

// Close drops every queued cell and removes the segment files.
func (q *CellQueue) Close() error {
	var firstErr error
	for _, path := range q.segments {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = spillError(path, err)
		}
	}
	q.segments = nil
	q.head, q.tail = nil, nil
	q.spilled = 0
	return firstErr
}

func (q *CellQueue) spill() error {
	f, err := os.CreateTemp(q.dir, "cellqueue-*.seg")
	if err != nil {
		return spillError(q.dir, err)
	}
	w := bufio.NewWriter(f)
	var rec [8]byte
	for _, cell := range q.tail {
		binary.LittleEndian.PutUint64(rec[:], uint64(cell))
		if _, err = w.Write(rec[:]); err != nil {
			break
		}
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return spillError(f.Name(), err)
	}

	q.segments = append(q.segments, f.Name())
	q.spilled += len(q.tail)
	q.spills++
	q.tail = q.tail[:0]
	return nil
}

func (q *CellQueue) refill() error {
	if len(q.segments) == 0 {
		q.head, q.tail = q.tail, q.head[:0]
		return nil
	}

	path := q.segments[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return spillError(path, err)
	}
	if len(data)%8 != 0 {
		return spillError(path, errors.Newf("segment holds %d bytes", len(data)))
	}
	cells := q.head[:0]
	for i := 0; i < len(data); i += 8 {
		cells = append(cells, int64(binary.LittleEndian.Uint64(data[i:])))
	}
	if err = os.Remove(path); err != nil {
		return spillError(path, err)
	}
	q.segments = q.segments[1:]
	q.spilled -= len(cells)
	q.head = cells
	return nil
}
