// Package similarity builds the dense pairwise cosine similarity matrix over the corpus vectors.
package similarity

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Matrix is a dense, symmetric n×n cosine similarity matrix. It is read-only once built.
type Matrix struct {
	n    int
	data []float32
}

// Options tunes Build.
type Options struct {
	// Workers bounds the number of rows computed concurrently. Zero means GOMAXPROCS.
	Workers int
}

// Build computes sim(i,j) for every pair of rows. Zero rows score 0 against everything,
// themselves included; every other row has sim(i,i) == 1. Only the upper triangle is
// computed and it is mirrored, so the result is exactly symmetric and does not depend on
// scheduling. A cancelled ctx aborts the build and no matrix is returned.
func Build(ctx context.Context, rows [][]float32, opts Options) (*Matrix, error) {
	n := len(rows)
	if n > 0 {
		dims := len(rows[0])
		for i, r := range rows {
			if len(r) != dims {
				return nil, fmt.Errorf("row %d has dimension %d, expected %d", i, len(r), dims)
			}
		}
	}

	unit, nonzero := normalizeRows(rows)
	m := &Matrix{n: n, data: make([]float32, n*n)}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m.fillRow(i, unit, nonzero)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait can return nil when ctx was cancelled before any goroutine started.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			m.data[i*n+j] = m.data[j*n+i]
		}
	}
	return m, nil
}

// fillRow writes sim(i,j) for j >= i. Row i of the upper triangle is owned by one goroutine.
func (m *Matrix) fillRow(i int, unit [][]float64, nonzero []bool) {
	row := m.data[i*m.n : (i+1)*m.n]
	if !nonzero[i] {
		return
	}
	row[i] = 1
	a := unit[i]
	for j := i + 1; j < m.n; j++ {
		if !nonzero[j] {
			continue
		}
		b := unit[j]
		var dot float64
		for k := range a {
			dot += a[k] * b[k]
		}
		row[j] = float32(clamp(dot))
	}
}

func normalizeRows(rows [][]float32) ([][]float64, []bool) {
	unit := make([][]float64, len(rows))
	nonzero := make([]bool, len(rows))
	for i, r := range rows {
		var norm float64
		for _, x := range r {
			norm += float64(x) * float64(x)
		}
		u := make([]float64, len(r))
		if norm > 0 && !math.IsInf(norm, 0) && !math.IsNaN(norm) {
			norm = math.Sqrt(norm)
			for k, x := range r {
				u[k] = float64(x) / norm
			}
			nonzero[i] = true
		}
		unit[i] = u
	}
	return unit, nonzero
}

func clamp(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	}
	return x
}

// Len returns n.
func (m *Matrix) Len() int { return m.n }

// At returns sim(i,j).
func (m *Matrix) At(i, j int) float32 { return m.data[i*m.n+j] }

// Row returns the similarities of row i against every row. Callers must not modify it.
func (m *Matrix) Row(i int) []float32 { return m.data[i*m.n : (i+1)*m.n : (i+1)*m.n] }
