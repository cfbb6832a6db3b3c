// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

// File created by John Lindsay, March 2015 based on code originally found at
// https://github.com/oleiade/lane/blob/master/pqueue.go

package structures

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// PQType represents a priority queue ordering kind (see MAXPQ and MINPQ)
type PQType int

const (
	MAXPQ PQType = iota
	MINPQ
)

// DefaultMaxItems is the number of items a queue keeps in memory before it
// starts spilling to disk.
const DefaultMaxItems = 1 << 20

// Item is a queued raster cell. Items of equal priority come out in the
// order they were pushed.
type Item struct {
	Cell     int64
	Priority float64
	seq      uint64
}

func (i Item) String() string {
	return fmt.Sprintf("<item cell:%d priority:%v>", i.Cell, i.Priority)
}

const itemRecordSize = 24

// maxRuns bounds the run files held open by a queue. Once a spill takes the
// count past it, all runs are merged into one.
const maxRuns = 16

// less orders on the stored key, which is the priority for a MINPQ and its
// negation for a MAXPQ.
func less(a, b *Item) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.seq < b.seq
}

// PQueue is a heap priority queue of raster cells. When more than maxItems
// items are queued the larger half of the heap is written to a sorted run
// file in dir; pops merge the heap with the heads of every run. It is
// synchronized and safe for concurrent operations.
type PQueue struct {
	sync.Mutex
	items      []*Item
	elemsCount int
	pqType     PQType
	seq        uint64
	maxItems   int
	dir        string
	runs       []*run
	spilled    int
	spills     int
}

type run struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	head   Item
	left   int
}

// NewPQueue creates a new priority queue with the provided pqtype ordering
// type. Spill runs are created in dir; maxItems <= 0 selects
// DefaultMaxItems.
func NewPQueue(pqType PQType, dir string, maxItems int) *PQueue {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxItems < 2 {
		maxItems = 2
	}

	items := make([]*Item, 1)
	items[0] = nil // Heap queue first element should always be nil

	return &PQueue{
		items:    items,
		pqType:   pqType,
		maxItems: maxItems,
		dir:      dir,
	}
}

func (pq *PQueue) key(priority float64) float64 {
	if pq.pqType == MAXPQ {
		return -priority
	}
	return priority
}

// Push the cell into the priority queue with provided priority.
func (pq *PQueue) Push(cell int64, priority float64) error {
	pq.Lock()
	defer pq.Unlock()

	if pq.elemsCount >= pq.maxItems {
		if err := pq.spill(); err != nil {
			return err
		}
	}

	pq.seq++
	it := &Item{Cell: cell, Priority: pq.key(priority), seq: pq.seq}
	pq.items = append(pq.items, it)
	pq.elemsCount++
	pq.swim(pq.elemsCount)
	return nil
}

// Pop removes and returns the highest/lowest priority item (depending on
// whether you're using a MINPQ or MAXPQ) from the priority queue.
func (pq *PQueue) Pop() (Item, error) {
	pq.Lock()
	defer pq.Unlock()

	best := pq.bestRun()

	var out Item
	switch {
	case pq.elemsCount > 0 && (best < 0 || less(pq.items[1], &pq.runs[best].head)):
		out = *pq.items[1]
		pq.items[1], pq.items[pq.elemsCount] = pq.items[pq.elemsCount], pq.items[1]
		pq.items[pq.elemsCount] = nil
		pq.items = pq.items[0:pq.elemsCount]
		pq.elemsCount--
		pq.sink(1)
	case best >= 0:
		out = pq.runs[best].head
		if err := pq.advance(best); err != nil {
			return Item{}, err
		}
	default:
		return Item{}, errors.New("pop from an empty queue").
			WithType(ErrTypeEmpty)
	}

	out.Priority = pq.key(out.Priority)
	return out, nil
}

// Len returns the number of queued items, including spilled ones.
func (pq *PQueue) Len() int {
	pq.Lock()
	defer pq.Unlock()
	return pq.elemsCount + pq.spilled
}

// Spills returns how many runs have been written to disk so far.
func (pq *PQueue) Spills() int {
	pq.Lock()
	defer pq.Unlock()
	return pq.spills
}

// Close drops every queued item and removes the run files.
func (pq *PQueue) Close() error {
	pq.Lock()
	defer pq.Unlock()

	var firstErr error
	for _, r := range pq.runs {
		if err := r.remove(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	pq.runs = nil
	pq.spilled = 0
	pq.items = pq.items[:1]
	pq.elemsCount = 0
	return firstErr
}

// bestRun returns the index of the run with the lowest head, or -1.
func (pq *PQueue) bestRun() int {
	best := -1
	for i, r := range pq.runs {
		if best < 0 || less(&r.head, &pq.runs[best].head) {
			best = i
		}
	}
	return best
}

func (pq *PQueue) swim(k int) {
	for k > 1 && less(pq.items[k], pq.items[k/2]) {
		pq.items[k/2], pq.items[k] = pq.items[k], pq.items[k/2]
		k = k / 2
	}
}

func (pq *PQueue) sink(k int) {
	var j int
	for 2*k <= pq.elemsCount {
		j = 2 * k

		if j < pq.elemsCount && less(pq.items[j+1], pq.items[j]) {
			j++
		}

		if !less(pq.items[j], pq.items[k]) {
			break
		}

		pq.items[k], pq.items[j] = pq.items[j], pq.items[k]
		k = j
	}
}

// spill writes the larger half of the heap to a new sorted run. The sorted
// remainder is itself a valid heap.
func (pq *PQueue) spill() error {
	heap := pq.items[1 : pq.elemsCount+1]
	sort.Slice(heap, func(i, j int) bool { return less(heap[i], heap[j]) })

	keep := len(heap) / 2
	tail := heap[keep:]
	r, err := pq.writeRun(len(tail), func(emit func(Item) error) error {
		for _, it := range tail {
			if err := emit(*it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := keep; i < len(heap); i++ {
		pq.items[i+1] = nil
	}
	pq.items = pq.items[:keep+1]
	pq.elemsCount = keep
	pq.spilled += len(tail)
	pq.spills++
	pq.runs = append(pq.runs, r)

	if len(pq.runs) > maxRuns {
		return pq.mergeRuns()
	}
	return nil
}

// mergeRuns replaces every run with a single run holding their items in
// order.
func (pq *PQueue) mergeRuns() error {
	r, err := pq.writeRun(pq.spilled, func(emit func(Item) error) error {
		for len(pq.runs) > 0 {
			best := pq.bestRun()
			if err := emit(pq.runs[best].head); err != nil {
				return err
			}
			if err := pq.step(best); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	pq.runs = []*run{r}
	pq.spills++
	return nil
}

// writeRun creates a run file from the n items fill emits in order and
// loads the head of the run.
func (pq *PQueue) writeRun(n int, fill func(emit func(Item) error) error) (*run, error) {
	f, err := os.CreateTemp(pq.dir, "pqueue-*.run")
	if err != nil {
		return nil, spillError(pq.dir, err)
	}

	w := bufio.NewWriter(f)
	var rec [itemRecordSize]byte
	err = fill(func(it Item) error {
		binary.LittleEndian.PutUint64(rec[0:], math.Float64bits(it.Priority))
		binary.LittleEndian.PutUint64(rec[8:], it.seq)
		binary.LittleEndian.PutUint64(rec[16:], uint64(it.Cell))
		_, werr := w.Write(rec[:])
		return werr
	})
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, spillError(f.Name(), err)
	}

	r := &run{
		path:   f.Name(),
		file:   f,
		reader: bufio.NewReader(f),
		left:   n,
	}
	if err = r.next(); err != nil {
		r.remove()
		return nil, err
	}
	return r, nil
}

// advance pops the head of run i.
func (pq *PQueue) advance(i int) error {
	pq.spilled--
	return pq.step(i)
}

// step moves run i to its next record, dropping the run once it is
// exhausted.
func (pq *PQueue) step(i int) error {
	r := pq.runs[i]
	if r.left == 0 {
		pq.runs = append(pq.runs[:i], pq.runs[i+1:]...)
		return r.remove()
	}
	return r.next()
}

func (r *run) next() error {
	var rec [itemRecordSize]byte
	if _, err := io.ReadFull(r.reader, rec[:]); err != nil {
		return spillError(r.path, err)
	}
	r.head = Item{
		Priority: math.Float64frombits(binary.LittleEndian.Uint64(rec[0:])),
		seq:      binary.LittleEndian.Uint64(rec[8:]),
		Cell:     int64(binary.LittleEndian.Uint64(rec[16:])),
	}
	r.left--
	return nil
}

func (r *run) remove() error {
	r.file.Close()
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return spillError(r.path, err)
	}
	return nil
}

func spillError(path string, err error) error {
	return errors.New("queue spill file failed").
		WithType(ErrTypeSpill).
		WithTag("path", path).
		Wrap(err)
}
