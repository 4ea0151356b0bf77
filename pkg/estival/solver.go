// Package estival: the two-pass optimizer.
//
// Pass 1 minimizes the hierarchical weighted objective under a third of
// the time budget and extracts one number: the best achievable maximum
// individual shortage. Pass 2 rebuilds the model with that value pinned,
// drops the objective, and enumerates every feasible assignment under the
// remaining budget, feeding the profile collector. Total shortage, fatigue
// and distribution are deliberately not pinned, so pass 2 discovers every
// distinct way of achieving the same worst-case shortfall.
package estival

import (
	"context"
	"errors"
	"time"

	mk "github.com/gitrdm/gokanlogic/pkg/minikanren"
	"github.com/rotisserie/eris"
)

// Status classifies a solve outcome. Infeasibility and timeouts are
// statuses, not errors.
type Status string

// Solve statuses.
const (
	// StatusOptimal means pass 1 proved its optimum.
	StatusOptimal Status = "optimal"
	// StatusFeasible means pass 1 hit a search limit and the best
	// incumbent was carried into enumeration.
	StatusFeasible Status = "feasible"
	// StatusInfeasible means the hard constraints admit no assignment.
	StatusInfeasible Status = "infeasible"
	// StatusModelInvalid means the input data failed validation.
	StatusModelInvalid Status = "model_invalid"
	// StatusTimeout means the budget expired before anything was found.
	StatusTimeout Status = "timeout"
)

// Info carries solve metadata alongside the solutions.
type Info struct {
	Elapsed time.Duration

	// OptimalScore is the pass-1 weighted objective value.
	OptimalScore int

	// MaxShortage is the pass-1 optimum pinned during enumeration.
	MaxShortage int

	// Pass is the last pass that ran (1 or 2).
	Pass int

	// Visited counts raw solutions enumerated before collapsing.
	Visited int

	ValidationErrors []string
	Warnings         []string
}

// Result is the outcome of one Solve call. Solutions are sorted by
// descending quality score.
type Result struct {
	Solutions []*Solution
	Status    Status
	Info      Info
}

// Solver runs the two-pass optimization for a fixed configuration.
type Solver struct {
	cfg Config
}

// NewSolver returns a solver with missing config fields defaulted.
func NewSolver(cfg Config) *Solver {
	return &Solver{cfg: cfg.withDefaults()}
}

// Solve validates the inputs, optimizes, enumerates, and returns the
// collapsed, ranked solutions. The caller's slices are never mutated.
// A non-nil error means an internal fault, never plain infeasibility.
func (s *Solver) Solve(ctx context.Context, participants []Participant, tournaments []Tournament) (Result, error) {
	start := time.Now()
	log := s.cfg.logger()
	active := ActiveTournaments(tournaments, s.cfg.IncludeFinalOpen)

	errs, warns := ValidateParticipants(participants, active)
	if len(errs) > 0 {
		return Result{
			Status: StatusModelInvalid,
			Info:   Info{Elapsed: time.Since(start), ValidationErrors: errs, Warnings: warns},
		}, nil
	}

	baseCtx := ctx
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Budget)
	defer cancel()

	// Pass 1: minimize the hierarchical objective.
	am, err := buildAssignmentModel(participants, active, s.cfg, -1)
	if err != nil {
		var wc *wishConflictError
		if errors.As(err, &wc) {
			log.Debug().Str("conflict", wc.Error()).Msg("strict wish unsatisfiable")
			return Result{
				Status: StatusInfeasible,
				Info:   Info{Elapsed: time.Since(start), Pass: 1, ValidationErrors: []string{wc.Error()}, Warnings: warns},
			}, nil
		}
		return Result{}, eris.Wrap(err, "building optimization model")
	}

	opts := []mk.OptimizeOption{mk.WithTimeLimit(s.cfg.Budget / 3)}
	if s.cfg.Workers > 1 {
		opts = append(opts, mk.WithParallelWorkers(s.cfg.Workers))
	}

	solver := mk.NewSolver(am.model)
	values, objective, err := solver.SolveOptimalWithOptions(ctx, am.objective, true, opts...)
	limited := err != nil && (errors.Is(err, mk.ErrSearchLimitReached) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
	switch {
	case values == nil && err == nil:
		log.Info().Dur("elapsed", time.Since(start)).Msg("pass 1 infeasible")
		return Result{
			Status: StatusInfeasible,
			Info:   Info{Elapsed: time.Since(start), Pass: 1, Warnings: warns},
		}, nil
	case values == nil && limited:
		return Result{
			Status: StatusTimeout,
			Info:   Info{Elapsed: time.Since(start), Pass: 1, Warnings: warns},
		}, nil
	case err != nil && !limited:
		return Result{}, eris.Wrap(err, "pass 1 optimization")
	}

	maxShortage := am.decodeMaxShortage(values)
	optimalScore := objective - 1
	status := StatusOptimal
	if limited {
		status = StatusFeasible
	}
	log.Info().
		Int("max_shortage", maxShortage).
		Int("objective", optimalScore).
		Str("status", string(status)).
		Dur("elapsed", time.Since(start)).
		Msg("pass 1 complete")

	// Pass 2: pin the optimum and enumerate.
	am2, err := buildAssignmentModel(participants, active, s.cfg, maxShortage)
	if err != nil {
		return Result{}, eris.Wrap(err, "building enumeration model")
	}

	// Enumeration gets whatever budget pass 1 left, with a small floor so
	// a slow optimization never starves it completely.
	remaining := s.cfg.Budget - time.Since(start)
	if remaining < 10*time.Second {
		remaining = 10 * time.Second
	}
	enumCtx, enumCancel := context.WithTimeout(baseCtx, remaining)
	defer enumCancel()

	raw, err := mk.NewSolver(am2.model).Solve(enumCtx, s.cfg.MaxSolutions)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return Result{}, eris.Wrap(err, "pass 2 enumeration")
	}

	collector := newProfileCollector(s.cfg)
	for _, v := range raw {
		collector.add(am2.solutionFromValues(v))
	}
	solutions := collector.results()

	log.Info().
		Int("visited", collector.visited).
		Int("kept", len(solutions)).
		Dur("elapsed", time.Since(start)).
		Msg("pass 2 complete")

	if len(solutions) == 0 && len(raw) == 0 {
		// The pass-1 incumbent exists, so an empty enumeration can only
		// mean the clock ran out before the first leaf.
		status = StatusTimeout
	}
	return Result{
		Solutions: solutions,
		Status:    status,
		Info: Info{
			Elapsed:      time.Since(start),
			OptimalScore: optimalScore,
			MaxShortage:  maxShortage,
			Pass:         2,
			Visited:      collector.visited,
			Warnings:     warns,
		},
	}, nil
}
