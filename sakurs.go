// Package sakurs detects sentence boundaries in Unicode text by folding
// independently scanned chunks with an associative combine, so parallel runs
// produce results identical to a sequential scan.
package sakurs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sog4be/sakurs-go/language"
	"github.com/sog4be/sakurs-go/segmenter"
)

// Mode selects how chunks are scheduled.
type Mode int

const (
	// Auto picks Sequential for inputs that fit in a single chunk and
	// Parallel otherwise.
	Auto Mode = iota
	Sequential
	Parallel
	Streaming
)

// Config parametrizes Process. The zero value selects English rules with
// automatic execution and default sizing.
type Config struct {
	// Language selects an embedded rule set ("en", "ja"). Ignored when
	// Rules is set.
	Language string
	// Rules overrides the embedded rule sets with a custom one.
	Rules *language.Rules

	Workers     int // worker count; default: number of CPUs
	ChunkSizeKB int // chunk size in KB; default 256
	Execution   Mode

	// StreamQueue bounds in-flight chunks in streaming mode (the producer
	// blocks when it is full); default 2x workers.
	StreamQueue int

	// Logger is an optional sink. Processing works without one.
	Logger logrus.FieldLogger

	// Cancel is consulted between chunk scans and combine steps; returning
	// true aborts the run with ErrCancelled.
	Cancel func() bool
}

// Output is the result of one run.
type Output struct {
	// Boundaries are absolute byte offsets, one per confirmed sentence
	// boundary, each pointing one past the sentence's final character.
	// Strictly increasing and aligned to code-point boundaries.
	Boundaries []int
	Metadata   Metadata
}

type Metadata struct {
	Chunks  int
	Workers int
	Elapsed time.Duration
}

func (cfg Config) rules() (*language.Rules, error) {
	if cfg.Rules != nil {
		return cfg.Rules, nil
	}
	code := cfg.Language
	if code == "" {
		code = "en"
	}
	return language.Load(code)
}

func (cfg Config) processor(rules *language.Rules) *segmenter.Processor {
	return &segmenter.Processor{
		Rules:      rules,
		Workers:    cfg.Workers,
		ChunkBytes: cfg.ChunkSizeKB * 1024,
		QueueDepth: cfg.StreamQueue,
		Logger:     cfg.Logger,
		Cancel:     cfg.Cancel,
	}
}

// Process segments in-memory text. It returns either a complete boundary
// list or a single error; partial output is never observed.
func Process(ctx context.Context, text []byte, cfg Config) (*Output, error) {
	rules, err := cfg.rules()
	if err != nil {
		return nil, err
	}
	proc := cfg.processor(rules)
	input := string(text)

	chunkBytes := cfg.ChunkSizeKB * 1024
	if chunkBytes <= 0 {
		chunkBytes = segmenter.DefaultChunkBytes
	}
	mode := cfg.Execution
	if mode == Auto {
		if len(input) <= chunkBytes {
			mode = Sequential
		} else {
			mode = Parallel
		}
	}

	var boundaries []int
	var stats segmenter.Stats
	switch mode {
	case Sequential:
		boundaries, stats, err = proc.Sequential(ctx, input)
	case Streaming:
		boundaries, stats, err = proc.Stream(ctx, strings.NewReader(input))
	default:
		boundaries, stats, err = proc.Parallel(ctx, input)
	}
	if err != nil {
		return nil, err
	}
	return &Output{
		Boundaries: boundaries,
		Metadata:   Metadata{Chunks: stats.Chunks, Workers: stats.Workers, Elapsed: stats.Elapsed},
	}, nil
}

// ProcessReader segments text from a streaming source without materializing
// the whole input.
func ProcessReader(ctx context.Context, src io.Reader, cfg Config) (*Output, error) {
	rules, err := cfg.rules()
	if err != nil {
		return nil, err
	}
	boundaries, stats, err := cfg.processor(rules).Stream(ctx, src)
	if err != nil {
		return nil, err
	}
	return &Output{
		Boundaries: boundaries,
		Metadata:   Metadata{Chunks: stats.Chunks, Workers: stats.Workers, Elapsed: stats.Elapsed},
	}, nil
}

// ProcessFile segments the contents of a file.
func ProcessFile(ctx context.Context, path string, cfg Config) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if cfg.Execution == Streaming {
		return ProcessReader(ctx, f, cfg)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Process(ctx, data, cfg)
}

// Sentences slices text at the given boundaries. Any trailing text after
// the last boundary is returned as a final, unterminated sentence;
// surrounding whitespace is trimmed.
func Sentences(text string, boundaries []int) []string {
	var out []string
	prev := 0
	for _, b := range boundaries {
		if b < prev || b > len(text) {
			continue
		}
		if s := strings.TrimSpace(text[prev:b]); s != "" {
			out = append(out, s)
		}
		prev = b
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		out = append(out, s)
	}
	return out
}
