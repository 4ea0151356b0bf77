// Package estival: exhaustive exploration of one relaxation profile.
package estival

import (
	"context"
	"errors"

	mk "github.com/gitrdm/gokanlogic/pkg/minikanren"
	"github.com/rotisserie/eris"
)

// ExploreProfile enumerates every assignment variant of one specific
// relaxation profile. profile maps participant name to the deviation the
// profile assigns them (negative means that many days short); everyone
// not named is pinned to exactly their wished days. Wish ceilings are
// replaced by the day pinning, so all permutation variants of the profile
// surface, capped at cfg.MaxSolutions.
func ExploreProfile(ctx context.Context, participants []Participant, tournaments []Tournament, cfg Config, profile map[string]int) ([]*Solution, error) {
	cfg = cfg.withDefaults()
	active := ActiveTournaments(tournaments, cfg.IncludeFinalOpen)

	am, err := buildProfileModel(participants, active, cfg, profile)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Budget)
	defer cancel()

	raw, err := mk.NewSolver(am.model).Solve(ctx, cfg.MaxSolutions)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, eris.Wrap(err, "profile enumeration")
	}

	// Every variant shares the profile, so collapsing is pointless here.
	allCfg := cfg
	allCfg.Mode = ModeAll
	collector := newProfileCollector(allCfg)
	for _, v := range raw {
		collector.add(am.solutionFromValues(v))
	}
	return collector.results(), nil
}

// buildProfileModel keeps the hard structural constraints (couples, team
// sizing, availability) and replaces the wish machinery with a hard
// days-played pin per participant.
func buildProfileModel(participants []Participant, tournaments []Tournament, cfg Config, profile map[string]int) (*assignmentModel, error) {
	m := mk.NewModel()
	am := &assignmentModel{
		model:        m,
		participants: participants,
		tournaments:  tournaments,
		shortage:     make([]*mk.FDVariable, len(participants)),
	}

	boolDom := mk.NewBitSetDomain(2)
	falseDom := mk.NewBitSetDomainFromValues(2, []int{1})

	am.x = make([][]*mk.FDVariable, len(participants))
	for pi, p := range participants {
		cutoff := tournamentIndex(tournaments, p.AvailableUntil)
		am.x[pi] = make([]*mk.FDVariable, len(tournaments))
		for ti, t := range tournaments {
			dom := boolDom
			if cutoff >= 0 && ti > cutoff {
				dom = falseDom
			}
			am.x[pi][ti] = m.NewVariableWithName(dom, "x_"+p.Name+"_"+t.ID)
		}
	}

	if err := am.addCoupleConstraints(); err != nil {
		return nil, err
	}
	if err := am.addTeamConstraints(cfg.AllowIncomplete); err != nil {
		return nil, err
	}

	am.presence = make([][]*mk.FDVariable, len(participants))
	for pi, p := range participants {
		target := p.WishedDays()
		if deviation, ok := profile[p.Name]; ok {
			target += deviation
		}
		if target < 0 {
			target = 0
		}
		if _, err := am.addPresence(pi, target); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, eris.Wrap(err, "profile model failed validation")
	}
	return am, nil
}
