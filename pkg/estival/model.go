// Package estival: constraint model construction.
//
// The assignment model maps the domain onto gokanlogic's 1-based finite
// domains. Booleans use {1=false, 2=true}; a count of n trues is encoded
// as n+1 so every domain stays positive. One participation boolean exists
// per (participant, tournament) pair; everything else (day presence, days
// played, shortage, fatigue, team remainders, the objective) is an
// auxiliary variable functionally determined by those booleans, so pass-2
// enumeration visits exactly one solution per distinct assignment.
package estival

import (
	"fmt"

	mk "github.com/gitrdm/gokanlogic/pkg/minikanren"
	"github.com/rotisserie/eris"
)

// wishConflictError reports a strict wish that exceeds the events the
// participant can actually attend. It is an infeasibility, not a fault.
type wishConflictError struct {
	name      string
	kind      Kind
	wish      int
	available int
}

func (e *wishConflictError) Error() string {
	return fmt.Sprintf("%s: strict wish of %d %s events but only %d available",
		e.name, e.wish, e.kind, e.available)
}

// assignmentModel bundles the gokanlogic model with the variables the
// solver needs to read back.
type assignmentModel struct {
	model        *mk.Model
	participants []Participant
	tournaments  []Tournament

	// x[p][t] is the participation boolean for participant p in
	// tournament t, both indexed by slice position.
	x [][]*mk.FDVariable

	// presence[p][d] covers every calendar day; days no active event
	// covers are fixed false.
	presence [][]*mk.FDVariable

	// shortage[p] is nil for participants who wished zero days.
	shortage    []*mk.FDVariable
	maxShortage *mk.FDVariable
	fatigue     []*mk.FDVariable
	remainders  []*mk.FDVariable

	// objective is nil when the model was built for enumeration with a
	// pinned max shortage.
	objective *mk.FDVariable
}

// buildAssignmentModel translates the inputs into a constraint model.
// pinMaxShortage < 0 builds the pass-1 optimization model with the
// weighted objective; pinMaxShortage >= 0 builds the pass-2 satisfaction
// model with the max shortage fixed to that value and no objective.
func buildAssignmentModel(participants []Participant, tournaments []Tournament, cfg Config, pinMaxShortage int) (*assignmentModel, error) {
	m := mk.NewModel()
	am := &assignmentModel{
		model:        m,
		participants: participants,
		tournaments:  tournaments,
		shortage:     make([]*mk.FDVariable, len(participants)),
	}

	boolDom := mk.NewBitSetDomain(2)
	falseDom := mk.NewBitSetDomainFromValues(2, []int{1})

	// Participation booleans, with availability cutoffs baked into the
	// domains: past the cutoff the variable is fixed false.
	am.x = make([][]*mk.FDVariable, len(participants))
	for pi, p := range participants {
		cutoff := tournamentIndex(tournaments, p.AvailableUntil)
		am.x[pi] = make([]*mk.FDVariable, len(tournaments))
		for ti, t := range tournaments {
			dom := boolDom
			if cutoff >= 0 && ti > cutoff {
				dom = falseDom
			}
			am.x[pi][ti] = m.NewVariableWithName(dom, fmt.Sprintf("x_%s_%s", p.Name, t.ID))
		}
	}

	if err := am.addCoupleConstraints(); err != nil {
		return nil, err
	}
	if err := am.addTeamConstraints(cfg.AllowIncomplete); err != nil {
		return nil, err
	}
	if err := am.addWishConstraints(); err != nil {
		return nil, err
	}
	shortVars, maxWish, err := am.addPresenceAndShortage()
	if err != nil {
		return nil, err
	}
	if err := am.addMaxShortage(shortVars, maxWish, pinMaxShortage); err != nil {
		return nil, err
	}
	if err := am.addFatigueFlags(); err != nil {
		return nil, err
	}
	if pinMaxShortage < 0 {
		if err := am.addObjective(cfg); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, eris.Wrap(err, "assignment model failed validation")
	}
	return am, nil
}

// addCoupleConstraints forbids both members of a couple from holding any
// assignment covering the same calendar day. Each pair is processed once.
func (am *assignmentModel) addCoupleConstraints() error {
	index := make(map[string]int, len(am.participants))
	for i, p := range am.participants {
		index[p.Name] = i
	}
	done := make(map[string]bool)

	for pi, p := range am.participants {
		if p.Partner == "" {
			continue
		}
		qi, ok := index[p.Partner]
		if !ok {
			continue
		}
		key := p.Name + "|" + p.Partner
		if p.Partner < p.Name {
			key = p.Partner + "|" + p.Name
		}
		if done[key] {
			continue
		}
		done[key] = true

		for day := 0; day < CalendarDays; day++ {
			var vars []*mk.FDVariable
			for ti, t := range am.tournaments {
				if t.CoversDay(day) {
					vars = append(vars, am.x[pi][ti], am.x[qi][ti])
				}
			}
			if len(vars) < 2 {
				continue
			}
			// Count of trues at most one: total encodes count+1.
			total := am.model.NewVariableWithName(
				mk.NewBitSetDomain(2),
				fmt.Sprintf("couple_%s_d%d", key, day))
			c, err := mk.NewBoolSum(vars, total)
			if err != nil {
				return eris.Wrapf(err, "couple constraint for %s on day %d", key, day)
			}
			am.model.AddConstraint(c)
		}
	}
	return nil
}

// addTeamConstraints forces every tournament pool to decompose into full
// teams, or links a penalized remainder variable when incomplete teams
// are allowed. Stage pools are per gender; opens pool everyone.
func (am *assignmentModel) addTeamConstraints(allowIncomplete bool) error {
	for ti, t := range am.tournaments {
		var pools [][]*mk.FDVariable
		var labels []string
		if t.IsStage() {
			var men, women []*mk.FDVariable
			for pi, p := range am.participants {
				switch p.Gender {
				case GenderMale:
					men = append(men, am.x[pi][ti])
				case GenderFemale:
					women = append(women, am.x[pi][ti])
				}
			}
			pools = [][]*mk.FDVariable{men, women}
			labels = []string{t.ID + "_M", t.ID + "_F"}
		} else {
			all := make([]*mk.FDVariable, len(am.participants))
			for pi := range am.participants {
				all[pi] = am.x[pi][ti]
			}
			pools = [][]*mk.FDVariable{all}
			labels = []string{t.ID}
		}

		for k, pool := range pools {
			if len(pool) == 0 {
				continue
			}
			n := len(pool)
			if allowIncomplete {
				count := am.model.NewVariableWithName(
					mk.NewBitSetDomain(n+1), "count_"+labels[k])
				sum, err := mk.NewBoolSum(pool, count)
				if err != nil {
					return eris.Wrapf(err, "team count for %s", labels[k])
				}
				am.model.AddConstraint(sum)

				// remainder encodes count mod TeamSize, value rem+1.
				rem := am.model.NewVariableWithName(
					mk.NewBitSetDomain(TeamSize), "rem_"+labels[k])
				rows := make([][]int, 0, n+1)
				for c := 0; c <= n; c++ {
					rows = append(rows, []int{c + 1, c%TeamSize + 1})
				}
				tab, err := mk.NewTable([]*mk.FDVariable{count, rem}, rows)
				if err != nil {
					return eris.Wrapf(err, "remainder table for %s", labels[k])
				}
				am.model.AddConstraint(tab)
				am.remainders = append(am.remainders, rem)
			} else {
				// Exact multiples of the team size only.
				var allowed []int
				for c := 0; c <= n; c += TeamSize {
					allowed = append(allowed, c+1)
				}
				count := am.model.NewVariableWithName(
					mk.NewBitSetDomainFromValues(n+1, allowed), "count_"+labels[k])
				sum, err := mk.NewBoolSum(pool, count)
				if err != nil {
					return eris.Wrapf(err, "team count for %s", labels[k])
				}
				am.model.AddConstraint(sum)
			}
		}
	}
	return nil
}

// addWishConstraints bounds each participant's per-kind assignment count
// by their wish, or pins it exactly when the strict flag is set. A strict
// wish no availability can satisfy is rejected here so the caller reports
// infeasibility instead of a propagation failure.
func (am *assignmentModel) addWishConstraints() error {
	for pi, p := range am.participants {
		for _, kind := range []Kind{KindStage, KindOpen} {
			wish := p.StageWish
			if kind == KindOpen {
				wish = p.OpenWish
			}

			var vars []*mk.FDVariable
			available := 0
			for ti, t := range am.tournaments {
				if t.Kind != kind {
					continue
				}
				v := am.x[pi][ti]
				vars = append(vars, v)
				if !v.Domain().IsSingleton() {
					available++
				}
			}

			if p.Strict && wish > available {
				return &wishConflictError{name: p.Name, kind: kind, wish: wish, available: available}
			}
			if len(vars) == 0 {
				continue
			}

			var dom *mk.BitSetDomain
			if p.Strict {
				dom = mk.NewBitSetDomainFromValues(wish+1, []int{wish + 1})
			} else {
				ub := wish
				if ub > len(vars) {
					ub = len(vars)
				}
				dom = mk.NewBitSetDomain(ub + 1)
			}
			total := am.model.NewVariableWithName(dom,
				fmt.Sprintf("%s_count_%s", kind, p.Name))
			sum, err := mk.NewBoolSum(vars, total)
			if err != nil {
				return eris.Wrapf(err, "wish constraint for %s (%s)", p.Name, kind)
			}
			am.model.AddConstraint(sum)
		}
	}
	return nil
}

// addPresence derives the day-presence booleans and the days-played count
// for one participant. pinDays >= 0 fixes days played to that value; -1
// leaves the full range. Fills am.presence[pi] and returns the count var.
func (am *assignmentModel) addPresence(pi, pinDays int) (*mk.FDVariable, error) {
	boolDom := mk.NewBitSetDomain(2)
	falseDom := mk.NewBitSetDomainFromValues(2, []int{1})
	p := am.participants[pi]

	am.presence[pi] = make([]*mk.FDVariable, CalendarDays)
	for day := 0; day < CalendarDays; day++ {
		var cover []*mk.FDVariable
		for ti, t := range am.tournaments {
			if t.CoversDay(day) {
				cover = append(cover, am.x[pi][ti])
			}
		}
		name := fmt.Sprintf("day_%s_%d", p.Name, day)
		if len(cover) == 0 {
			am.presence[pi][day] = am.model.NewVariableWithName(falseDom, name)
			continue
		}
		pres := am.model.NewVariableWithName(boolDom, name)
		// OR over booleans: present iff any covering assignment holds.
		or, err := mk.NewMax(cover, pres)
		if err != nil {
			return nil, eris.Wrapf(err, "presence for %s day %d", p.Name, day)
		}
		am.model.AddConstraint(or)
		am.presence[pi][day] = pres
	}

	var dom *mk.BitSetDomain
	if pinDays >= 0 {
		if pinDays > CalendarDays {
			pinDays = CalendarDays
		}
		dom = mk.NewBitSetDomainFromValues(CalendarDays+1, []int{pinDays + 1})
	} else {
		dom = mk.NewBitSetDomain(CalendarDays + 1)
	}
	played := am.model.NewVariableWithName(dom, "played_"+p.Name)
	sum, err := mk.NewBoolSum(am.presence[pi], played)
	if err != nil {
		return nil, eris.Wrapf(err, "days played for %s", p.Name)
	}
	am.model.AddConstraint(sum)
	return played, nil
}

// addPresenceAndShortage derives day-presence booleans, days played, and
// the per-participant shortage variables. Returns the non-nil shortage
// variables and the largest wished-day count, both needed by the max
// shortage aggregation.
func (am *assignmentModel) addPresenceAndShortage() ([]*mk.FDVariable, int, error) {
	am.presence = make([][]*mk.FDVariable, len(am.participants))
	shortVars := make([]*mk.FDVariable, 0, len(am.participants))
	maxWish := 0

	for pi, p := range am.participants {
		played, err := am.addPresence(pi, -1)
		if err != nil {
			return nil, 0, err
		}

		wished := p.WishedDays()
		if wished == 0 {
			continue
		}
		if wished > maxWish {
			maxWish = wished
		}

		short := am.model.NewVariableWithName(
			mk.NewBitSetDomain(wished+1), "short_"+p.Name)
		rows := make([][]int, 0, CalendarDays+1)
		for d := 0; d <= CalendarDays; d++ {
			deficit := wished - d
			if deficit < 0 {
				deficit = 0
			}
			rows = append(rows, []int{d + 1, deficit + 1})
		}
		tab, err := mk.NewTable([]*mk.FDVariable{played, short}, rows)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "shortage table for %s", p.Name)
		}
		am.model.AddConstraint(tab)
		am.shortage[pi] = short
		shortVars = append(shortVars, short)
	}
	return shortVars, maxWish, nil
}

// addMaxShortage aggregates individual shortages into the dominant
// optimization lever, or pins it for pass-2 enumeration.
func (am *assignmentModel) addMaxShortage(shortVars []*mk.FDVariable, maxWish, pin int) error {
	if len(shortVars) == 0 {
		am.maxShortage = am.model.NewVariableWithName(
			mk.NewBitSetDomainFromValues(1, []int{1}), "max_shortage")
		return nil
	}

	var dom *mk.BitSetDomain
	if pin >= 0 {
		if pin > maxWish {
			pin = maxWish
		}
		dom = mk.NewBitSetDomainFromValues(maxWish+1, []int{pin + 1})
	} else {
		dom = mk.NewBitSetDomain(maxWish + 1)
	}
	ms := am.model.NewVariableWithName(dom, "max_shortage")
	c, err := mk.NewMax(shortVars, ms)
	if err != nil {
		return eris.Wrap(err, "max shortage")
	}
	am.model.AddConstraint(c)
	am.maxShortage = ms
	return nil
}

// addFatigueFlags creates one boolean per participant per four-day
// calendar window, true iff all four days are played.
func (am *assignmentModel) addFatigueFlags() error {
	boolDom := mk.NewBitSetDomain(2)
	window := MaxConsecutiveDays + 1

	for pi, p := range am.participants {
		for start := 0; start+window <= CalendarDays; start++ {
			flag := am.model.NewVariableWithName(boolDom,
				fmt.Sprintf("fatigue_%s_%d", p.Name, start))
			// AND over booleans: flag is the minimum of the window.
			and, err := mk.NewMin(am.presence[pi][start:start+window], flag)
			if err != nil {
				return eris.Wrapf(err, "fatigue window for %s at day %d", p.Name, start)
			}
			am.model.AddConstraint(and)
			am.fatigue = append(am.fatigue, flag)
		}
	}
	return nil
}

// addObjective builds the single weighted LinearSum for pass 1. Because
// every term is encoded value+1, a constant-one variable with coefficient
// 1-K (K being the sum of all other coefficients) cancels the offsets, so
// the objective variable reads 1 + the true weighted objective.
func (am *assignmentModel) addObjective(cfg Config) error {
	w := cfg.Weights
	distWeight := cfg.DistributionWeight
	if distWeight == nil {
		distWeight = DefaultDistributionWeight
	}

	var vars []*mk.FDVariable
	var coeffs []int
	ub := 1

	vars = append(vars, am.maxShortage)
	coeffs = append(coeffs, w.MaxShortage)
	ub += w.MaxShortage * (am.maxShortage.Domain().MaxValue() - 1)

	for pi, p := range am.participants {
		short := am.shortage[pi]
		if short == nil {
			continue
		}
		// The distribution tie-break folds into the shortage coefficient.
		c := w.Shortage + w.Distribution*distWeight(p.WishedDays())
		vars = append(vars, short)
		coeffs = append(coeffs, c)
		ub += c * p.WishedDays()
	}
	for _, f := range am.fatigue {
		vars = append(vars, f)
		coeffs = append(coeffs, w.Fatigue)
		ub += w.Fatigue
	}
	for _, r := range am.remainders {
		vars = append(vars, r)
		coeffs = append(coeffs, w.Incomplete)
		ub += w.Incomplete * (TeamSize - 1)
	}

	k := 0
	for _, c := range coeffs {
		k += c
	}
	one := am.model.NewVariableWithName(
		mk.NewBitSetDomainFromValues(1, []int{1}), "one")
	vars = append(vars, one)
	coeffs = append(coeffs, 1-k)

	obj := am.model.NewVariableWithName(mk.NewBitSetDomain(ub), "objective")
	sum, err := mk.NewLinearSum(vars, coeffs, obj)
	if err != nil {
		return eris.Wrap(err, "objective")
	}
	am.model.AddConstraint(sum)
	am.objective = obj
	return nil
}

// solutionFromValues decodes one raw solver assignment into a Solution
// with computed stats. values are indexed by variable ID.
func (am *assignmentModel) solutionFromValues(values []int) *Solution {
	assignments := make(map[string]Roster, len(am.tournaments))
	for ti, t := range am.tournaments {
		var r Roster
		for pi, p := range am.participants {
			v := am.x[pi][ti]
			if v.ID() >= len(values) || values[v.ID()] != 2 {
				continue
			}
			switch {
			case t.IsOpen():
				r.Mixed = append(r.Mixed, p.Name)
			case p.Gender == GenderFemale:
				r.Women = append(r.Women, p.Name)
			default:
				r.Men = append(r.Men, p.Name)
			}
		}
		assignments[t.ID] = r
	}
	sol := &Solution{
		ID:           newSolutionID(),
		Assignments:  assignments,
		Participants: am.participants,
		Tournaments:  am.tournaments,
	}
	sol.ComputeStats()
	return sol
}

// decodeMaxShortage reads the achieved max shortage from a raw solution.
func (am *assignmentModel) decodeMaxShortage(values []int) int {
	id := am.maxShortage.ID()
	if id >= len(values) {
		return 0
	}
	return values[id] - 1
}
