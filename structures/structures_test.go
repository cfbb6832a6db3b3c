package structures

import (
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPQueueOrder(t *testing.T) {
	q := NewPQueue(MINPQ, t.TempDir(), 0)
	defer q.Close()

	require.NoError(t, q.Push(1, 1))
	require.NoError(t, q.Push(3, 3))
	require.NoError(t, q.Push(4, 4))
	require.NoError(t, q.Push(5, 5))
	require.NoError(t, q.Push(2, 2))
	require.Equal(t, 5, q.Len())

	for want := int64(1); want <= 5; want++ {
		it, err := q.Pop()
		require.NoError(t, err)
		require.Equal(t, want, it.Cell)
		require.Equal(t, float64(want), it.Priority)
	}
	require.Zero(t, q.Len())

	_, err := q.Pop()
	require.Equal(t, ErrTypeEmpty, errors.Type(err))
}

func TestPQueueMax(t *testing.T) {
	q := NewPQueue(MAXPQ, t.TempDir(), 0)
	defer q.Close()

	for _, p := range []float64{2, -1, 7, 3} {
		require.NoError(t, q.Push(int64(p), p))
	}
	var got []float64
	for q.Len() > 0 {
		it, err := q.Pop()
		require.NoError(t, err)
		got = append(got, it.Priority)
	}
	require.Equal(t, []float64{7, 3, 2, -1}, got)
}

func TestPQueueTiesAreFIFO(t *testing.T) {
	q := NewPQueue(MINPQ, t.TempDir(), 4)
	defer q.Close()

	for cell := int64(0); cell < 20; cell++ {
		require.NoError(t, q.Push(cell, 0))
	}
	for cell := int64(0); cell < 20; cell++ {
		it, err := q.Pop()
		require.NoError(t, err)
		require.Equal(t, cell, it.Cell)
	}
}

func TestPQueueSpill(t *testing.T) {
	dir := t.TempDir()
	q := NewPQueue(MINPQ, dir, 16)

	rng := rand.New(rand.NewSource(7))
	want := make([]float64, 500)
	for i := range want {
		want[i] = float64(rng.Intn(100))
		require.NoError(t, q.Push(int64(i), want[i]))

		// interleave pops so that runs and heap are merged while filling
		if i%50 == 49 {
			it, err := q.Pop()
			require.NoError(t, err)
			lowest := math.MaxFloat64
			for _, v := range want[:i+1] {
				if v >= 0 && v < lowest {
					lowest = v
				}
			}
			require.Equal(t, lowest, it.Priority)
			require.Equal(t, want[it.Cell], it.Priority)
			want[it.Cell] = -1
		}
	}
	require.Greater(t, q.Spills(), 0)

	last := -1.0
	n := 0
	for q.Len() > 0 {
		it, err := q.Pop()
		require.NoError(t, err)
		require.GreaterOrEqual(t, it.Priority, last)
		require.Equal(t, want[it.Cell], it.Priority)
		last = it.Priority
		n++
	}
	require.Equal(t, 490, n)
	require.NoError(t, q.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPQueueMergesRuns(t *testing.T) {
	dir := t.TempDir()
	q := NewPQueue(MINPQ, dir, 2)
	defer q.Close()

	for i := 0; i < 300; i++ {
		require.NoError(t, q.Push(int64(i), float64((300-i)/3)))
		require.LessOrEqual(t, len(q.runs), maxRuns)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.LessOrEqual(t, len(entries), maxRuns)
	}
	require.Equal(t, 300, q.Len())

	prev := Item{Priority: -1, Cell: -1}
	for q.Len() > 0 {
		it, err := q.Pop()
		require.NoError(t, err)
		require.Equal(t, float64((300-int(it.Cell))/3), it.Priority)
		if it.Priority == prev.Priority {
			require.Greater(t, it.Cell, prev.Cell)
		} else {
			require.Greater(t, it.Priority, prev.Priority)
		}
		prev = it
	}
}

func TestPQueueCloseRemovesRuns(t *testing.T) {
	dir := t.TempDir()
	q := NewPQueue(MINPQ, dir, 4)
	for i := 0; i < 40; i++ {
		require.NoError(t, q.Push(int64(i), float64(40-i)))
	}
	require.NoError(t, q.Close())
	require.Zero(t, q.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCellQueue(t *testing.T) {
	q := NewCellQueue(t.TempDir(), 0)
	defer q.Close()

	for i := int64(0); i < 10; i++ {
		require.NoError(t, q.Push(i))
	}
	require.Equal(t, 10, q.Len())
	for i := int64(0); i < 10; i++ {
		cell, ok, err := q.Pop()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, cell)
	}
	_, ok, err := q.Pop()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCellQueueSpill(t *testing.T) {
	dir := t.TempDir()
	q := NewCellQueue(dir, 8)

	next := int64(0)
	want := int64(0)
	for round := 0; round < 5; round++ {
		for i := 0; i < 37; i++ {
			require.NoError(t, q.Push(next))
			next++
		}
		for i := 0; i < 20; i++ {
			cell, ok, err := q.Pop()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, want, cell)
			want++
		}
	}
	require.Greater(t, q.Spills(), 0)
	require.Equal(t, int(next-want), q.Len())

	for q.Len() > 0 {
		cell, ok, err := q.Pop()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, cell)
		want++
	}
	require.Equal(t, next, want)
	require.NoError(t, q.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
