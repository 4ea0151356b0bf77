// Package estival: multi-pass conflict resolution.
//
// The resolver escalates through solve attempts instead of surfacing raw
// infeasibility: a strict attempt first, then automatic probing of which
// single wish reductions unblock the model, then an automatic retry per
// candidate, and finally a structural diagnosis when nothing helps. A
// guided path lets the caller force an explicit set of relaxations. No
// state survives between calls; every attempt works on cloned rosters.
package estival

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gitrdm/volleyplan/internal/parallel"
)

// MultiPassStatus classifies the outcome of a resolution run.
type MultiPassStatus string

// Resolution statuses.
const (
	// MultiPassSuccess means solutions were found, possibly after
	// automatic relaxation.
	MultiPassSuccess MultiPassStatus = "success"
	// MultiPassNeedUserChoice means no automatic unblock worked but
	// candidates are available for manual selection.
	MultiPassNeedUserChoice MultiPassStatus = "need_user_choice"
	// MultiPassImpossible means no solution exists even after relaxation
	// attempts; a diagnosis is attached when available.
	MultiPassImpossible MultiPassStatus = "impossible"
	// MultiPassPartial means solutions exist but leave wishes unmet and
	// no better path was found.
	MultiPassPartial MultiPassStatus = "partial_success"
)

// RelaxField names which wish category a relaxation reduces.
type RelaxField string

// Relaxation fields.
const (
	RelaxStage RelaxField = "stage"
	RelaxOpen  RelaxField = "open"
)

// RelaxationCandidate proposes reducing one participant's wishes by one
// event. Produced by conflict analysis, consumed by the guided re-solve.
type RelaxationCandidate struct {
	Name string

	CurrentStageWish  int
	CurrentOpenWish   int
	ProposedStageWish int
	ProposedOpenWish  int

	// Impact is the day cost of accepting the relaxation: 1 for an open,
	// 2 for a stage.
	Impact int

	Reason string
}

// Field reports which category the candidate reduces.
func (c RelaxationCandidate) Field() RelaxField {
	if c.ProposedStageWish < c.CurrentStageWish {
		return RelaxStage
	}
	return RelaxOpen
}

// MultiPassResult is the outcome of a resolution run.
type MultiPassResult struct {
	Solutions []*Solution

	// Pass is the stage that produced the result: 1 strict, 2 analysis,
	// 3 relaxation.
	Pass int

	// RelaxedParticipants lists who was lesioned to obtain Solutions.
	RelaxedParticipants []string

	// Candidates carries every viable single relaxation, kept even on
	// success so the caller can offer a different manual combination.
	Candidates []RelaxationCandidate

	Status  MultiPassStatus
	Message string

	// Diagnosis is attached when the run ends impossible.
	Diagnosis *Diagnosis
}

// ProgressFunc receives coarse progress updates per pass.
type ProgressFunc func(pass int, message string)

// MultiPassSolver orchestrates the resolution passes over a base solver.
type MultiPassSolver struct {
	cfg  Config
	base *Solver
}

// NewMultiPassSolver returns a resolver with missing config defaulted.
func NewMultiPassSolver(cfg Config) *MultiPassSolver {
	cfg = cfg.withDefaults()
	return &MultiPassSolver{cfg: cfg, base: NewSolver(cfg)}
}

// SolveMultiPass runs the full escalation: strict attempt, candidate
// identification, automatic per-candidate retry, and diagnosis.
func (m *MultiPassSolver) SolveMultiPass(ctx context.Context, participants []Participant, tournaments []Tournament, progress ProgressFunc) (*MultiPassResult, error) {
	report := func(pass int, msg string) {
		if progress != nil {
			progress(pass, msg)
		}
	}
	log := m.cfg.logger()

	report(1, "searching for perfect solutions")
	strict, err := m.base.Solve(ctx, participants, tournaments)
	if err != nil {
		return nil, err
	}
	if strict.Status == StatusModelInvalid {
		return &MultiPassResult{
			Pass:    1,
			Status:  MultiPassImpossible,
			Message: "invalid input: " + strings.Join(strict.Info.ValidationErrors, "; "),
		}, nil
	}

	perfect := 0
	for _, sol := range strict.Solutions {
		if len(sol.ViolatedWishes) == 0 {
			perfect++
		}
	}
	if perfect > 0 {
		return &MultiPassResult{
			Solutions: strict.Solutions,
			Pass:      1,
			Status:    MultiPassSuccess,
			Message:   fmt.Sprintf("%d perfect solution(s) found (all wishes satisfied)", perfect),
		}, nil
	}

	report(2, "analyzing blockages")
	candidates := m.identifyRelaxationCandidates(ctx, participants, tournaments)
	log.Debug().Int("candidates", len(candidates)).Msg("relaxation candidates identified")

	if len(candidates) == 0 {
		if len(strict.Solutions) == 0 {
			diag := AnalyzeWhyNoSolution(participants,
				ActiveTournaments(tournaments, m.cfg.IncludeFinalOpen), m.cfg)
			return &MultiPassResult{
				Pass:      2,
				Status:    MultiPassImpossible,
				Message:   "no solution found even with relaxed constraints",
				Diagnosis: &diag,
			}, nil
		}
		return &MultiPassResult{
			Solutions: strict.Solutions,
			Pass:      2,
			Status:    MultiPassPartial,
			Message:   fmt.Sprintf("%d solution(s) found but with unmet wishes", len(strict.Solutions)),
		}, nil
	}

	report(3, fmt.Sprintf("automatically testing %d candidate(s)", len(candidates)))

	var collected []*Solution
	var relaxed []string
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		result, err := m.SolveWithRelaxation(ctx, participants, tournaments,
			[]RelaxationCandidate{candidate}, nil)
		if err != nil {
			log.Warn().Err(err).Str("candidate", candidate.Name).Msg("candidate retry failed")
			continue
		}
		if len(result.Solutions) == 0 {
			continue
		}
		added := false
		for _, sol := range result.Solutions {
			key := sol.assignmentKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			collected = append(collected, sol)
			added = true
		}
		if added {
			relaxed = append(relaxed, candidate.Name)
		}
		if len(collected) >= m.cfg.MaxSolutions {
			break
		}
	}

	if len(collected) > 0 {
		sort.Slice(collected, func(i, j int) bool {
			return collected[i].QualityScore() > collected[j].QualityScore()
		})
		if len(collected) > m.cfg.MaxSolutions {
			collected = collected[:m.cfg.MaxSolutions]
		}
		return &MultiPassResult{
			Solutions:           collected,
			Pass:                3,
			RelaxedParticipants: relaxed,
			Candidates:          candidates,
			Status:              MultiPassSuccess,
			Message:             fmt.Sprintf("%d solution(s) found by automatically testing candidates", len(collected)),
		}, nil
	}

	return &MultiPassResult{
		Solutions:  strict.Solutions,
		Pass:       3,
		Candidates: candidates,
		Status:     MultiPassNeedUserChoice,
		Message:    fmt.Sprintf("no automatic unblock found; %d participant(s) can be relaxed manually", len(candidates)),
	}, nil
}

// SolveWithRelaxation forces the given reduced wishes as strict equalities
// on a cloned roster, solves, and rebinds every returned solution to the
// original participants so displayed deviations reflect the real request.
// Solutions where no intended relaxation actually bit are filtered out;
// if that empties the set, the unfiltered set is returned with a notice.
func (m *MultiPassSolver) SolveWithRelaxation(ctx context.Context, participants []Participant, tournaments []Tournament, candidates []RelaxationCandidate, progress ProgressFunc) (*MultiPassResult, error) {
	byName := make(map[string]RelaxationCandidate, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
		names = append(names, c.Name)
	}
	if progress != nil {
		progress(3, fmt.Sprintf("solving with %d relaxation(s)", len(names)))
	}

	modified := CloneParticipants(participants)
	for i := range modified {
		c, ok := byName[modified[i].Name]
		if !ok {
			continue
		}
		modified[i].StageWish = c.ProposedStageWish
		modified[i].OpenWish = c.ProposedOpenWish
		// Forcing strict here makes the solver hit the reduced wishes
		// exactly instead of treating them as a looser ceiling.
		modified[i].Strict = true
	}

	result, err := m.base.Solve(ctx, modified, tournaments)
	if err != nil {
		return nil, err
	}
	if len(result.Solutions) == 0 {
		return &MultiPassResult{
			Pass:                3,
			RelaxedParticipants: names,
			Status:              MultiPassImpossible,
			Message:             fmt.Sprintf("no solution even when relaxing: %s", strings.Join(names, ", ")),
		}, nil
	}

	// Rebind to the original wishes before any stats are shown.
	for _, sol := range result.Solutions {
		sol.Participants = participants
		sol.ComputeStats()
	}

	var filtered []*Solution
	for _, sol := range result.Solutions {
		for _, name := range names {
			if !sol.ViolatedWishes[name] {
				continue
			}
			if st, ok := sol.ParticipantStats(name); ok && st.Deviation < 0 {
				filtered = append(filtered, sol)
				break
			}
		}
	}

	message := fmt.Sprintf("%d solution(s) found by relaxing: %s", len(filtered), strings.Join(names, ", "))
	if len(filtered) == 0 {
		filtered = result.Solutions
		message = fmt.Sprintf(
			"%d solution(s) found, but the requested relaxation of %s had no visible effect; returning unfiltered results",
			len(filtered), strings.Join(names, ", "))
	}

	return &MultiPassResult{
		Solutions:           filtered,
		Pass:                3,
		RelaxedParticipants: names,
		Status:              MultiPassSuccess,
		Message:             message,
	}, nil
}

// identifyRelaxationCandidates probes, for every non-strict participant
// with wishes, whether dropping one open or one stage makes the model
// solvable. Probes are short, independent solves and run concurrently on
// the worker pool; the final ordering (ascending impact, then name) keeps
// the output deterministic regardless of completion order.
func (m *MultiPassSolver) identifyRelaxationCandidates(ctx context.Context, participants []Participant, tournaments []Tournament) []RelaxationCandidate {
	probeCfg := m.cfg
	probeCfg.MaxSolutions = 1
	probeCfg.Budget = 5 * time.Second
	probeCfg.Workers = 1
	log := m.cfg.logger()

	type probe struct {
		target    Participant
		field     RelaxField
		candidate RelaxationCandidate
	}

	var probes []probe
	for _, p := range participants {
		if p.Strict || !p.HasWishes() {
			continue
		}
		if p.OpenWish > 0 {
			probes = append(probes, probe{
				target: p,
				field:  RelaxOpen,
				candidate: RelaxationCandidate{
					Name:              p.Name,
					CurrentStageWish:  p.StageWish,
					CurrentOpenWish:   p.OpenWish,
					ProposedStageWish: p.StageWish,
					ProposedOpenWish:  p.OpenWish - 1,
					Impact:            1,
					Reason:            fmt.Sprintf("reduce one open (%d to %d)", p.OpenWish, p.OpenWish-1),
				},
			})
		}
		if p.StageWish > 0 {
			probes = append(probes, probe{
				target: p,
				field:  RelaxStage,
				candidate: RelaxationCandidate{
					Name:              p.Name,
					CurrentStageWish:  p.StageWish,
					CurrentOpenWish:   p.OpenWish,
					ProposedStageWish: p.StageWish - 1,
					ProposedOpenWish:  p.OpenWish,
					Impact:            2,
					Reason:            fmt.Sprintf("reduce one stage (%d to %d)", p.StageWish, p.StageWish-1),
				},
			})
		}
	}
	if len(probes) == 0 {
		return nil
	}

	pool := parallel.NewWorkerPool(0)
	defer pool.Shutdown()

	var (
		mu         sync.Mutex
		candidates []RelaxationCandidate
		wg         sync.WaitGroup
	)
	for _, pr := range probes {
		pr := pr
		wg.Add(1)
		task := func() {
			defer wg.Done()
			modified := CloneParticipants(participants)
			for i := range modified {
				if modified[i].Name != pr.target.Name {
					continue
				}
				if pr.field == RelaxOpen {
					modified[i].OpenWish--
				} else {
					modified[i].StageWish--
				}
			}
			result, err := NewSolver(probeCfg).Solve(ctx, modified, tournaments)
			if err != nil {
				log.Warn().Err(err).Str("participant", pr.target.Name).Msg("candidate probe failed")
				return
			}
			if len(result.Solutions) == 0 {
				return
			}
			mu.Lock()
			candidates = append(candidates, pr.candidate)
			mu.Unlock()
		}
		if err := pool.Submit(ctx, task); err != nil {
			wg.Done()
			break
		}
	}
	wg.Wait()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Impact != candidates[j].Impact {
			return candidates[i].Impact < candidates[j].Impact
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates
}
