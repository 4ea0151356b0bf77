// Package estival: pass-2 solution collection and profile collapsing.
//
// The collector is deliberately independent of the solver callback so the
// collapsing logic stays unit-testable on hand-built solutions.
package estival

import "sort"

// profileCollector gathers enumerated solutions, collapsing them to one
// best variant per relaxation profile when the mode asks for it.
type profileCollector struct {
	mode       Mode
	minScore   float64
	weights    Weights
	distWeight func(int) int

	visited int

	// byProfile keeps the lowest-objective variant per signature.
	byProfile map[string]*rankedSolution
	// all keeps everything in ModeAll.
	all []*rankedSolution
}

type rankedSolution struct {
	sol       *Solution
	objective int
	signature string
}

func newProfileCollector(cfg Config) *profileCollector {
	return &profileCollector{
		mode:       cfg.Mode,
		minScore:   cfg.MinQualityScore,
		weights:    cfg.Weights,
		distWeight: cfg.DistributionWeight,
		byProfile:  make(map[string]*rankedSolution),
	}
}

// add records one visited solution. Stats must already be computed.
func (c *profileCollector) add(sol *Solution) {
	c.visited++
	rs := &rankedSolution{
		sol:       sol,
		objective: sol.objectiveValue(c.weights, c.distWeight),
		signature: sol.ProfileSignature(),
	}
	if c.mode == ModeAll {
		c.all = append(c.all, rs)
		return
	}
	best, ok := c.byProfile[rs.signature]
	if !ok || rs.objective < best.objective {
		c.byProfile[rs.signature] = rs
	}
}

// results returns the kept solutions sorted by descending quality score,
// ties broken by ascending objective then signature so ordering is
// deterministic. Solutions under the minimum score are dropped.
func (c *profileCollector) results() []*Solution {
	ranked := c.all
	if c.mode != ModeAll {
		ranked = make([]*rankedSolution, 0, len(c.byProfile))
		for _, rs := range c.byProfile {
			ranked = append(ranked, rs)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		si, sj := ranked[i].sol.QualityScore(), ranked[j].sol.QualityScore()
		if si != sj {
			return si > sj
		}
		if ranked[i].objective != ranked[j].objective {
			return ranked[i].objective < ranked[j].objective
		}
		return ranked[i].signature < ranked[j].signature
	})

	out := make([]*Solution, 0, len(ranked))
	for _, rs := range ranked {
		if rs.sol.QualityScore() < c.minScore {
			continue
		}
		out = append(out, rs.sol)
	}
	return out
}
