// Package estival: solution value object and per-participant analytics.
//
// A Solution owns its assignment mapping and holds non-owning references to
// the participant and tournament slices it was computed against; those must
// outlive the Solution for stats queries to stay valid. Derived fields
// (ViolatedWishes, FatiguedNames, MaxConsecutive, TotalDaysPlayed) are only
// valid after ComputeStats. ParticipantStats and QualityScore are pure
// functions of assignments plus inputs and can be called at any time.
package estival

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// newSolutionID tags a freshly collected solution for display and
// cross-candidate bookkeeping.
func newSolutionID() uuid.UUID { return uuid.New() }

// Roster holds the names assigned to one event. Stages fill Men and Women
// separately; opens fill Mixed.
type Roster struct {
	Men   []string
	Women []string
	Mixed []string
}

// Names returns every assigned name in the roster.
func (r Roster) Names() []string {
	out := make([]string, 0, len(r.Men)+len(r.Women)+len(r.Mixed))
	out = append(out, r.Men...)
	out = append(out, r.Women...)
	out = append(out, r.Mixed...)
	return out
}

// contains reports whether name appears anywhere in the roster.
func (r Roster) contains(name string) bool {
	for _, n := range r.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Stats are the per-participant numbers derived from one solution.
type Stats struct {
	StageCount     int
	OpenCount      int
	DaysPlayed     int
	DaysWished     int
	Deviation      int // DaysPlayed - DaysWished, negative means shortchanged
	MaxConsecutive int
	Presence       []bool // indexed by calendar day
}

// Solution is one complete assignment of participants to events.
type Solution struct {
	ID uuid.UUID

	// Assignments maps tournament ID to its roster.
	Assignments map[string]Roster

	// Participants and Tournaments are the inputs the solution was
	// computed against. Not owned; must outlive the Solution.
	Participants []Participant
	Tournaments  []Tournament

	// Derived fields, valid after ComputeStats.
	ViolatedWishes  map[string]bool
	MaxConsecutive  int
	FatiguedNames   []string
	TotalDaysPlayed int
}

// ParticipantStats derives the stats for one participant from the raw
// assignments. It is deterministic and does not touch cached fields, so
// calling it twice on an unmodified Solution returns identical results.
func (s *Solution) ParticipantStats(name string) (Stats, bool) {
	var part *Participant
	for i := range s.Participants {
		if s.Participants[i].Name == name {
			part = &s.Participants[i]
			break
		}
	}
	if part == nil {
		return Stats{}, false
	}

	st := Stats{
		DaysWished: part.WishedDays(),
		Presence:   make([]bool, CalendarDays),
	}
	for _, t := range s.Tournaments {
		if !s.Assignments[t.ID].contains(name) {
			continue
		}
		if t.IsStage() {
			st.StageCount++
		} else {
			st.OpenCount++
		}
		for _, d := range t.Days {
			if d >= 0 && d < CalendarDays {
				st.Presence[d] = true
			}
		}
	}
	run := 0
	for _, present := range st.Presence {
		if !present {
			run = 0
			continue
		}
		st.DaysPlayed++
		run++
		if run > st.MaxConsecutive {
			st.MaxConsecutive = run
		}
	}
	st.Deviation = st.DaysPlayed - st.DaysWished
	return st, true
}

// ComputeStats populates the derived fields from the current assignments.
// It must be re-run after rebinding the solution to a different
// participant slice (the guided-relaxation path does exactly that).
func (s *Solution) ComputeStats() {
	s.ViolatedWishes = make(map[string]bool)
	s.FatiguedNames = nil
	s.MaxConsecutive = 0
	s.TotalDaysPlayed = 0

	for _, p := range s.Participants {
		st, ok := s.ParticipantStats(p.Name)
		if !ok {
			continue
		}
		if st.Deviation != 0 {
			s.ViolatedWishes[p.Name] = true
		}
		if st.MaxConsecutive > s.MaxConsecutive {
			s.MaxConsecutive = st.MaxConsecutive
		}
		if st.MaxConsecutive > MaxConsecutiveDays {
			s.FatiguedNames = append(s.FatiguedNames, p.Name)
		}
		s.TotalDaysPlayed += st.DaysPlayed
	}
	sort.Strings(s.FatiguedNames)
}

// QualityScore rates the solution from 0 to 100 for display. The term
// ordering mirrors the objective tiers, so sorting by score agrees with
// the solver's own preference ordering up to tie-breaking. A solution with
// zero total shortage scores exactly 100.
func (s *Solution) QualityScore() float64 {
	maxShortage, totalShortage := 0, 0
	fatigued, maxConsecutive := 0, 0

	for _, p := range s.Participants {
		st, ok := s.ParticipantStats(p.Name)
		if !ok {
			continue
		}
		if st.Deviation < 0 {
			shortage := -st.Deviation
			totalShortage += shortage
			if shortage > maxShortage {
				maxShortage = shortage
			}
		}
		if st.MaxConsecutive > MaxConsecutiveDays {
			fatigued++
		}
		if st.MaxConsecutive > maxConsecutive {
			maxConsecutive = st.MaxConsecutive
		}
	}

	if totalShortage == 0 {
		return 100
	}

	score := 100.0
	score -= 10 * float64(maxShortage)
	score -= 2.5 * float64(totalShortage)
	score -= 2 * float64(fatigued)
	if over := maxConsecutive - MaxConsecutiveDays; over > 0 {
		score -= float64(over)
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ProfileSignature canonically names the solution's trade-off: the sorted
// list of shortchanged participants with their deviations. Solutions with
// the same signature differ only by incidental permutation. A solution
// shortchanging nobody signs as "PERFECT".
func (s *Solution) ProfileSignature() string {
	var parts []string
	for _, p := range s.Participants {
		st, ok := s.ParticipantStats(p.Name)
		if !ok {
			continue
		}
		if st.Deviation < 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", p.Name, st.Deviation))
		}
	}
	if len(parts) == 0 {
		return "PERFECT"
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// assignmentKey canonically serializes the assignment content for
// cross-solve deduplication.
func (s *Solution) assignmentKey() string {
	ids := make([]string, 0, len(s.Assignments))
	for id := range s.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		r := s.Assignments[id]
		names := r.Names()
		sort.Strings(names)
		b.WriteString(id)
		b.WriteByte('=')
		b.WriteString(strings.Join(names, ","))
		b.WriteByte('|')
	}
	return b.String()
}

// objectiveValue recomputes the pass-1 weighted objective from the
// assignment content. It matches the model's LinearSum by construction and
// ranks variants inside a profile during collapsing.
func (s *Solution) objectiveValue(w Weights, distWeight func(int) int) int {
	if distWeight == nil {
		distWeight = DefaultDistributionWeight
	}
	total := 0
	maxShortage := 0

	for _, p := range s.Participants {
		st, ok := s.ParticipantStats(p.Name)
		if !ok {
			continue
		}
		if st.Deviation < 0 {
			shortage := -st.Deviation
			if shortage > maxShortage {
				maxShortage = shortage
			}
			total += shortage * (w.Shortage + w.Distribution*distWeight(st.DaysWished))
		}
		// Fatigue counts fully-played four-day windows, same as the model.
		for start := 0; start+MaxConsecutiveDays < CalendarDays; start++ {
			all := true
			for d := start; d <= start+MaxConsecutiveDays; d++ {
				if !st.Presence[d] {
					all = false
					break
				}
			}
			if all {
				total += w.Fatigue
			}
		}
	}
	total += maxShortage * w.MaxShortage

	for _, t := range s.Tournaments {
		r := s.Assignments[t.ID]
		if t.IsStage() {
			total += (len(r.Men) % TeamSize) * w.Incomplete
			total += (len(r.Women) % TeamSize) * w.Incomplete
		} else {
			total += (len(r.Mixed) % TeamSize) * w.Incomplete
		}
	}
	return total
}
