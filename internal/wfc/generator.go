package wfc

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// attemptSeedStride separates the seeds of successive attempts
const attemptSeedStride = 1000

// GenerateConfig contains parameters for a solve with retries
type GenerateConfig struct {
	Width, Height int
	Seed          int64 // base seed; attempt i uses Seed + i*1000
	MaxAttempts   int   // attempts before giving up (minimum 1)
	MaxSteps      int   // per-attempt step budget, 0 for none
	AcceptPartial bool  // return a halted result without ErrNoSolution
}

// DefaultGenerateConfig returns a single-attempt config that accepts partial grids
func DefaultGenerateConfig(width, height int, seed int64) GenerateConfig {
	return GenerateConfig{
		Width:         width,
		Height:        height,
		Seed:          seed,
		MaxAttempts:   1,
		AcceptPartial: true,
	}
}

// Result is the outcome of a generation run
type Result struct {
	Width, Height  int
	State          State
	Seed           int64 // seed of the attempt that produced this result
	Attempts       int
	Steps          int
	CollapsedCount int
	Placements     []Placement
	Duration       time.Duration
}

// Complete reports whether every cell was resolved
func (r *Result) Complete() bool {
	return r.State == StateDone
}

// Generator runs solves against a catalog, retrying halted ones with fresh seeds
type Generator struct {
	catalog *Catalog
	config  GenerateConfig

	// Observer is forwarded to every solver created by Generate
	Observer func(attempt int, ev StepEvent)
}

// NewGenerator creates a new generator
func NewGenerator(catalog *Catalog, config GenerateConfig) *Generator {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Generator{
		catalog: catalog,
		config:  config,
	}
}

// Config returns the effective configuration
func (g *Generator) Config() GenerateConfig { return g.config }

// AttemptSeed returns the seed used for the given zero-based attempt
func AttemptSeed(base int64, attempt int) int64 {
	return base + int64(attempt*attemptSeedStride)
}

// Generate solves the grid. The context and MaxSteps bound each attempt from
// the outside; the collapse loop itself has no cancellation point.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	var result *Result

	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		seed := AttemptSeed(g.config.Seed, attempt)
		solver, err := NewSolver(g.config.Width, g.config.Height, g.catalog, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		if g.Observer != nil {
			a := attempt
			solver.Observer = func(ev StepEvent) { g.Observer(a, ev) }
		}

		if err := g.runAttempt(ctx, solver); err != nil {
			return g.snapshot(solver, seed, attempt+1, start), err
		}

		result = g.snapshot(solver, seed, attempt+1, start)
		if solver.State() == StateDone {
			return result, nil
		}
	}

	if !g.config.AcceptPartial {
		return result, fmt.Errorf("%w after %d attempts: %w", ErrNoSolution, result.Attempts, ErrContradiction)
	}
	return result, nil
}

// runAttempt drives one solver to a terminal state within the budgets
func (g *Generator) runAttempt(ctx context.Context, solver *Solver) error {
	for !solver.State().Terminal() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wfc: solve interrupted after %d steps: %w", solver.Steps(), err)
		}
		if g.config.MaxSteps > 0 && solver.Steps() >= g.config.MaxSteps {
			return fmt.Errorf("%w (%d)", ErrMaxIterations, g.config.MaxSteps)
		}
		solver.Step()
	}
	return nil
}

func (g *Generator) snapshot(solver *Solver, seed int64, attempts int, start time.Time) *Result {
	return &Result{
		Width:          solver.Width,
		Height:         solver.Height,
		State:          solver.State(),
		Seed:           seed,
		Attempts:       attempts,
		Steps:          solver.Steps(),
		CollapsedCount: solver.CollapsedCount(),
		Placements:     solver.Placements(),
		Duration:       time.Since(start),
	}
}
