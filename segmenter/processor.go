package segmenter

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sog4be/sakurs-go/language"
)

// Processor runs the scan/combine/resolve pipeline over an input. The rule
// set is shared read-only across all workers; per-chunk states share no
// mutable data, so the hot path takes no locks.
type Processor struct {
	Rules      *language.Rules
	Workers    int // default: number of CPUs
	ChunkBytes int // default: DefaultChunkBytes
	QueueDepth int // streaming in-flight chunk bound; default 2x workers
	Logger     logrus.FieldLogger
	Cancel     func() bool // consulted before each chunk scan and combine step
}

// Stats describes one completed run.
type Stats struct {
	Chunks  int
	Workers int
	Elapsed time.Duration
}

func (p *Processor) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

func (p *Processor) chunkBytes() int {
	if p.ChunkBytes > 0 {
		return p.ChunkBytes
	}
	return DefaultChunkBytes
}

func (p *Processor) logger() logrus.FieldLogger {
	if p.Logger != nil {
		return p.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (p *Processor) cancelled(ctx context.Context) bool {
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	return p.Cancel != nil && p.Cancel()
}

func runID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// Sequential scans and folds chunks left to right on the calling goroutine.
func (p *Processor) Sequential(ctx context.Context, text string) ([]int, Stats, error) {
	start := time.Now()
	if !utf8.ValidString(text) {
		return nil, Stats{}, ErrInvalidUTF8
	}
	chunks := Split(text, p.chunkBytes())
	comb := NewCombiner(p.Rules)
	acc := comb.Identity()
	for _, ch := range chunks {
		if p.cancelled(ctx) {
			return nil, Stats{}, ErrCancelled
		}
		acc = comb.Combine(acc, Scan(p.Rules, ch))
	}
	boundaries := Resolve(p.Rules, acc, Bases(chunks))
	stats := Stats{Chunks: len(chunks), Workers: 1, Elapsed: time.Since(start)}
	p.logger().WithFields(logrus.Fields{
		"run": runID(), "mode": "sequential", "chunks": stats.Chunks,
		"boundaries": len(boundaries), "elapsed": stats.Elapsed,
	}).Debug("segmentation complete")
	return boundaries, stats, nil
}

// Parallel scans chunks on a worker pool and tree-folds the states. The
// fold respects input adjacency, so the result is identical to Sequential
// regardless of worker count or interleaving.
func (p *Processor) Parallel(ctx context.Context, text string) ([]int, Stats, error) {
	start := time.Now()
	if !utf8.ValidString(text) {
		return nil, Stats{}, ErrInvalidUTF8
	}
	workers := p.workers()
	chunks := Split(text, p.chunkBytes())
	states := make([]*PartialState, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range chunks {
		i := i
		g.Go(func() error {
			if p.cancelled(gctx) {
				return ErrCancelled
			}
			states[i] = Scan(p.Rules, chunks[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	acc, err := p.reduce(ctx, states)
	if err != nil {
		return nil, Stats{}, err
	}
	boundaries := Resolve(p.Rules, acc, Bases(chunks))
	stats := Stats{Chunks: len(chunks), Workers: workers, Elapsed: time.Since(start)}
	p.logger().WithFields(logrus.Fields{
		"run": runID(), "mode": "parallel", "chunks": stats.Chunks, "workers": workers,
		"boundaries": len(boundaries), "elapsed": stats.Elapsed,
	}).Debug("segmentation complete")
	return boundaries, stats, nil
}

// reduce performs a balanced fold: each round combines adjacent pairs
// concurrently. Pairs are always input-adjacent, which together with
// associativity makes the result independent of scheduling.
func (p *Processor) reduce(ctx context.Context, states []*PartialState) (*PartialState, error) {
	comb := NewCombiner(p.Rules)
	if len(states) == 0 {
		return comb.Identity(), nil
	}
	for len(states) > 1 {
		next := make([]*PartialState, (len(states)+1)/2)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers())
		for i := 0; i < len(states); i += 2 {
			if i+1 == len(states) {
				next[i/2] = states[i]
				continue
			}
			i := i
			g.Go(func() error {
				if p.cancelled(gctx) {
					return ErrCancelled
				}
				next[i/2] = comb.Combine(states[i], states[i+1])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		states = next
	}
	return states[0], nil
}

type indexedState struct {
	index int
	state *PartialState
}

// Stream processes chunks as they arrive from src. The producer blocks when
// the in-flight chunk queue is full, so peak memory stays at
// O(workers x chunk size) plus combined boundary metadata.
func (p *Processor) Stream(ctx context.Context, src io.Reader) ([]int, Stats, error) {
	start := time.Now()
	workers := p.workers()
	depth := p.QueueDepth
	if depth <= 0 {
		depth = 2 * workers
	}

	chunkc := make(chan Chunk, depth)
	statec := make(chan indexedState, depth)
	g, gctx := errgroup.WithContext(ctx)

	var bases []int
	g.Go(func() error {
		defer close(chunkc)
		buf := make([]byte, p.chunkBytes())
		var carry []byte
		base, index := 0, 0
		for {
			if p.cancelled(gctx) {
				return ErrCancelled
			}
			n, err := io.ReadFull(src, buf)
			data := append(carry, buf[:n]...)
			done := err == io.EOF || err == io.ErrUnexpectedEOF
			if err != nil && !done {
				return fmt.Errorf("reading input: %w", err)
			}

			cut := len(data)
			if !done {
				// keep any trailing partial code point for the next block
				s := cut
				for s > 0 && cut-s < utf8.UTFMax && !utf8.RuneStart(data[s-1]) {
					s--
				}
				if s > 0 && !utf8.FullRune(data[s-1:]) {
					cut = s - 1
				}
			}
			text := string(data[:cut])
			carry = append(carry[:0], data[cut:]...)

			if !utf8.ValidString(text) {
				return ErrInvalidUTF8
			}
			if len(text) > 0 || (done && index == 0) {
				bases = append(bases, base)
				select {
				case chunkc <- Chunk{Text: text, Base: base, Index: index}:
				case <-gctx.Done():
					return ErrCancelled
				}
				base += len(text)
				index++
			}
			if done {
				return nil
			}
		}
	})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for ch := range chunkc {
				if p.cancelled(gctx) {
					return ErrCancelled
				}
				select {
				case statec <- indexedState{ch.Index, Scan(p.Rules, ch)}:
				case <-gctx.Done():
					return ErrCancelled
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(statec)
	}()

	comb := NewCombiner(p.Rules)
	acc := comb.Identity()
	g.Go(func() error {
		pending := make(map[int]*PartialState)
		next := 0
		for st := range statec {
			pending[st.index] = st.state
			for {
				s, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if p.cancelled(gctx) {
					return ErrCancelled
				}
				acc = comb.Combine(acc, s)
				next++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}
	boundaries := Resolve(p.Rules, acc, bases)
	stats := Stats{Chunks: len(bases), Workers: workers, Elapsed: time.Since(start)}
	p.logger().WithFields(logrus.Fields{
		"run": runID(), "mode": "stream", "chunks": stats.Chunks, "workers": workers,
		"boundaries": len(boundaries), "elapsed": stats.Elapsed,
	}).Debug("segmentation complete")
	return boundaries, stats, nil
}
