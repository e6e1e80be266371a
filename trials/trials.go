// Package trials runs a circuit many times and aggregates the measured bitstrings.
//
// Each shot builds a fresh circuit, so measurement collapse in one shot never leaks
// into another. Shots are spread over a fixed pool of workers.
package trials

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"qucom"
)

// BuildFunc prepares the circuit for one shot. It must pass opts on to qucom.New
// or qucom.FromQASM so that seeding reaches the circuit.
type BuildFunc func(opts ...qucom.Option) (*qucom.Circuit, error)

// Options controls a run.
type Options struct {
	Shots     int
	Workers   int     // 0 means one per CPU
	Seed      *uint64 // shot i is seeded with Seed+i; nil draws from the OS
	MaxQubits int     // 0 means qucom.MaxQubits
	Logger    *log.Logger
}

// Report is the outcome of a run.
type Report struct {
	ID      uuid.UUID
	Shots   int
	Counts  map[string]int
	Memory  []string // outcome of every shot, in shot order
	Elapsed time.Duration
}

// Outcome is one row of a histogram.
type Outcome struct {
	Bits  string
	Count int
	Prob  float64
}

// Probabilities returns the observed frequency of every outcome.
func (r *Report) Probabilities() map[string]float64 {
	probs := make(map[string]float64, len(r.Counts))
	for bits, n := range r.Counts {
		probs[bits] = float64(n) / float64(r.Shots)
	}
	return probs
}

// Outcomes lists the observed outcomes sorted by bitstring.
func (r *Report) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(r.Counts))
	for bits, n := range r.Counts {
		out = append(out, Outcome{Bits: bits, Count: n, Prob: float64(n) / float64(r.Shots)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bits < out[j].Bits })
	return out
}

// MostFrequent returns the outcome seen most often. Ties go to the smaller
// bitstring.
func (r *Report) MostFrequent() Outcome {
	var best Outcome
	for _, o := range r.Outcomes() {
		if o.Count > best.Count {
			best = o
		}
	}
	return best
}

// Program returns a BuildFunc that runs body on a fresh n-qubit circuit.
func Program(n int, body func(c *qucom.Circuit)) BuildFunc {
	return func(opts ...qucom.Option) (*qucom.Circuit, error) {
		c, err := qucom.New(n, opts...)
		if err != nil {
			return nil, err
		}
		body(c)
		return c, c.Err()
	}
}

// FromQASM checks text once and returns a BuildFunc that replays it for every shot.
func FromQASM(text string) (BuildFunc, error) {
	if _, err := qucom.FromQASM(text, qucom.WithSeed(0)); err != nil {
		return nil, err
	}
	return func(opts ...qucom.Option) (*qucom.Circuit, error) {
		return qucom.FromQASM(text, opts...)
	}, nil
}

type result struct {
	shot int
	bits string
	err  error
}

// Run executes opts.Shots shots of build. The first failing shot cancels the run
// and its error is returned. Cancelling ctx stops the run early with ctx.Err().
func Run(ctx context.Context, build BuildFunc, opts Options) (*Report, error) {
	if opts.Shots < 1 {
		return nil, fmt.Errorf("shots must be positive, got %d", opts.Shots)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, opts.Shots)

	report := &Report{
		ID:     uuid.New(),
		Shots:  opts.Shots,
		Counts: make(map[string]int),
		Memory: make([]string, opts.Shots),
	}
	logger.Debug("run started", "id", report.ID, "shots", opts.Shots, "workers", workers)
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make(chan result, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for shot := range jobs {
				bits, err := runShot(build, shot, opts)
				select {
				case results <- result{shot: shot, bits: bits, err: err}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for shot := 0; shot < opts.Shots; shot++ {
			select {
			case jobs <- shot:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	done := 0
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("shot %d: %w", r.shot, r.err)
				cancel()
			}
			continue
		}
		report.Memory[r.shot] = r.bits
		report.Counts[r.bits]++
		done++
	}

	if firstErr != nil {
		logger.Error("run failed", "id", report.ID, "err", firstErr)
		return nil, firstErr
	}
	if done < opts.Shots {
		return nil, fmt.Errorf("run stopped after %d of %d shots: %w", done, opts.Shots, ctx.Err())
	}

	report.Elapsed = time.Since(start)
	logger.Debug("run finished", "id", report.ID, "outcomes", len(report.Counts), "elapsed", report.Elapsed)
	return report, nil
}

func runShot(build BuildFunc, shot int, opts Options) (string, error) {
	var copts []qucom.Option
	if opts.Seed != nil {
		copts = append(copts, qucom.WithSeed(*opts.Seed+uint64(shot)))
	}
	if opts.MaxQubits > 0 {
		copts = append(copts, qucom.WithMaxQubits(opts.MaxQubits))
	}
	c, err := build(copts...)
	if err != nil {
		return "", err
	}
	return c.Execute()
}
