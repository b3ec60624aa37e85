// Package parallel runs block-independent transforms over a buffer on a
// bounded pool of goroutines.
//
// Only transforms whose output for a chunk depends on nothing but that chunk
// and its index may be dispatched. Chaining modes (CBC, PCBC, CFB, OFB and
// RandomDelta) have no Independent implementation and cannot be passed here.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when New is given fewer than one worker.
const DefaultWorkers = 4

// ErrChunkSize is returned when a transform reports a non-positive chunk size.
var ErrChunkSize = errors.New("parallel: chunk size must be positive")

// Independent is a transform that can process chunks in any order.
//
// TransformChunk writes exactly len(src) bytes to dst. index is the chunk's
// position in the buffer, so chunk i starts at byte i*ChunkSize(). The final
// chunk may be shorter than ChunkSize.
type Independent interface {
	ChunkSize() int
	TransformChunk(index int, dst, src []byte) error
}

// Dispatcher splits buffers into chunks and runs them on at most Workers
// goroutines. A Dispatcher has no mutable state and may be shared.
type Dispatcher struct {
	workers int
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for per-batch debug records.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns a Dispatcher with the given pool size.
func New(workers int, opts ...Option) *Dispatcher {
	if workers < 1 {
		workers = DefaultWorkers
	}
	d := &Dispatcher{workers: workers, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.workers }

// Run applies t to every chunk of data concurrently and returns the
// reassembled output. It blocks until all chunks are done. The first failing
// chunk stops chunks that have not started yet, and its error is returned.
func (d *Dispatcher) Run(t Independent, data []byte) ([]byte, error) {
	size, err := chunkSize(t)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]byte, len(data))
	chunks := chunkCount(len(data), size)

	// The context only tells queued chunks to skip work after a failure; the
	// batch itself cannot be cancelled by the caller.
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(d.workers)

	for i := 0; i < chunks && ctx.Err() == nil; i++ {
		lo, hi := bounds(i, size, len(data))
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := t.TransformChunk(i, out[lo:hi], data[lo:hi]); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Debug("parallel batch complete",
		"bytes", len(data),
		"chunks", chunks,
		"workers", d.workers,
		"elapsed", time.Since(start))

	return out, nil
}

// RunSequential applies t to every chunk in order on the calling goroutine.
// Its output is identical to Run.
func (d *Dispatcher) RunSequential(t Independent, data []byte) ([]byte, error) {
	return RunSequential(t, data)
}

// RunSequential is the single-goroutine path, usable without a Dispatcher.
func RunSequential(t Independent, data []byte) ([]byte, error) {
	size, err := chunkSize(t)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	for i, n := 0, chunkCount(len(data), size); i < n; i++ {
		lo, hi := bounds(i, size, len(data))
		if err := t.TransformChunk(i, out[lo:hi], data[lo:hi]); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return out, nil
}

func chunkSize(t Independent) (int, error) {
	size := t.ChunkSize()
	if size <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrChunkSize, size)
	}
	return size, nil
}

func chunkCount(n, size int) int {
	return (n + size - 1) / size
}

func bounds(i, size, n int) (int, int) {
	lo := i * size
	return lo, min(lo+size, n)
}
