// Package estival: conflict diagnosis and roster analytics.
//
// Nothing here constrains the model. The capacity figures are coarse
// heuristics for explaining blockages to a human, never hard limits.
package estival

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks how blocking a diagnosed problem is.
type Severity string

// Severity levels, from benign to fatal.
const (
	SeverityUnknown  Severity = "unknown"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank orders severities so escalation never downgrades.
func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Diagnosis explains why no solution was found, with actionable
// suggestions ranked by a single overall severity.
type Diagnosis struct {
	Issues      []string
	Suggestions []string
	Severity    Severity
}

// escalate records an issue and raises the severity if needed.
func (d *Diagnosis) escalate(severity Severity, issue string, suggestions ...string) {
	d.Issues = append(d.Issues, issue)
	d.Suggestions = append(d.Suggestions, suggestions...)
	if severity.rank() > d.Severity.rank() {
		d.Severity = severity
	}
}

// roughCapacityPerEvent estimates how many individual event slots one
// tournament offers. Heuristic only: it feeds diagnostic text, never a
// constraint.
const roughCapacityPerEvent = 10

// AnalyzeWhyNoSolution inspects the inputs for structural causes of
// infeasibility: excessive strict flags, aggregate demand beyond rough
// capacity, couples whose combined demand fights their mutual exclusion,
// and team-size divisibility problems.
func AnalyzeWhyNoSolution(participants []Participant, tournaments []Tournament, cfg Config) Diagnosis {
	diag := Diagnosis{Severity: SeverityUnknown}

	strict := 0
	for _, p := range participants {
		if p.Strict {
			strict++
		}
	}
	if len(participants) > 0 && float64(strict) > float64(len(participants))*0.7 {
		diag.escalate(SeverityHigh,
			fmt.Sprintf("too many strict constraints: %d/%d participants", strict, len(participants)),
			"disable the strict flag for some participants (keep under 50%)")
	}

	stages := countKind(tournaments, KindStage)
	opens := countKind(tournaments, KindOpen)
	totalStageWishes, totalOpenWishes := 0, 0
	for _, p := range participants {
		totalStageWishes += p.StageWish
		totalOpenWishes += p.OpenWish
	}
	if totalStageWishes > stages*roughCapacityPerEvent {
		diag.escalate(SeverityCritical,
			fmt.Sprintf("too much stage demand: %d requested, roughly %d slots", totalStageWishes, stages*roughCapacityPerEvent),
			"reduce stage wishes or include more events")
	}
	if totalOpenWishes > opens*roughCapacityPerEvent {
		diag.escalate(SeverityMedium,
			fmt.Sprintf("too much open demand: %d requested, roughly %d slots", totalOpenWishes, opens*roughCapacityPerEvent))
	}

	byName := participantByName(participants)
	seenPairs := make(map[string]bool)
	for _, p := range participants {
		if p.Partner == "" {
			continue
		}
		partner, ok := byName[p.Partner]
		if !ok {
			continue
		}
		key := p.Name + "|" + p.Partner
		if p.Partner < p.Name {
			key = p.Partner + "|" + p.Name
		}
		if seenPairs[key] {
			continue
		}
		seenPairs[key] = true

		combined := (p.StageWish+partner.StageWish)*2 + p.OpenWish + partner.OpenWish
		if combined > 12 {
			diag.escalate(SeverityMedium,
				fmt.Sprintf("couple %s/%s wants %d combined days but can never play the same day", p.Name, partner.Name, combined),
				fmt.Sprintf("reduce the wishes of %s or %s", p.Name, partner.Name))
		}
	}

	if !cfg.AllowIncomplete {
		for _, gender := range []Gender{GenderMale, GenderFemale} {
			wantStage := 0
			for _, p := range participants {
				if p.Gender == gender && p.StageWish >= 1 {
					wantStage++
				}
			}
			if wantStage > 0 && wantStage%TeamSize != 0 {
				lower := (wantStage / TeamSize) * TeamSize
				upper := lower + TeamSize
				diag.escalate(SeverityCritical,
					fmt.Sprintf("critical blockage: %d %s participants want stages, and %d is not a multiple of %d",
						wantStage, gender, wantStage, TeamSize),
					"enable incomplete teams (recommended)",
					fmt.Sprintf("adjust the %s stage players to %d or %d", gender, lower, upper))
				if lower > 0 {
					diag.Suggestions = append(diag.Suggestions,
						fmt.Sprintf("set stage wishes to zero for %d %s participants", wantStage-lower, gender))
				}
			}
		}
		if diag.Severity == SeverityUnknown && len(participants)%TeamSize != 0 {
			diag.escalate(SeverityHigh,
				fmt.Sprintf("total participant count (%d) is not a multiple of %d", len(participants), TeamSize),
				"enable incomplete teams")
		}
	}

	return diag
}

// FormatDiagnosis renders a diagnosis as a numbered, human-readable
// report.
func FormatDiagnosis(d Diagnosis) string {
	if len(d.Issues) == 0 {
		return "no problem detected (yet no solution exists)"
	}
	var b strings.Builder
	b.WriteString("blockage diagnosis:\n")
	for i, issue := range d.Issues {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, issue)
	}
	if len(d.Suggestions) > 0 {
		b.WriteString("suggestions:\n")
		for i, s := range d.Suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}
	fmt.Fprintf(&b, "severity: %s", strings.ToUpper(string(d.Severity)))
	return b.String()
}

// CheckFeasibility runs coarse demand-versus-capacity checks before any
// solve. It returns false with warnings when the roster looks overloaded;
// passing it is no guarantee of feasibility.
func CheckFeasibility(participants []Participant, tournaments []Tournament, includeFinalOpen bool) (bool, []string) {
	active := ActiveTournaments(tournaments, includeFinalOpen)
	stages := countKind(active, KindStage)
	opens := countKind(active, KindOpen)

	var warnings []string
	for _, gender := range []Gender{GenderMale, GenderFemale} {
		total := 0
		for _, p := range participants {
			if p.Gender == gender {
				total += p.StageWish
			}
		}
		if total > stages*roughCapacityPerEvent {
			warnings = append(warnings, fmt.Sprintf(
				"%s participants want %d stage entries in total, roughly %d slots available",
				gender, total, stages*roughCapacityPerEvent))
		}
	}

	totalOpen := 0
	for _, p := range participants {
		totalOpen += p.OpenWish
	}
	if totalOpen > opens*roughCapacityPerEvent {
		warnings = append(warnings, fmt.Sprintf(
			"%d open entries requested in total, roughly %d slots available",
			totalOpen, opens*roughCapacityPerEvent))
	}

	strictStageDemand, strictCount := 0, 0
	for _, p := range participants {
		if p.Strict {
			strictCount++
			strictStageDemand += p.StageWish
		}
	}
	if strictCount > 0 && strictStageDemand > stages*TeamSize {
		warnings = append(warnings, fmt.Sprintf(
			"%d participants have strict wishes totalling %d stage entries; the model is likely unsolvable",
			strictCount, strictStageDemand))
	}

	return len(warnings) == 0, warnings
}

// SuggestImprovements lists configuration and roster changes that raise
// the odds of finding a solution.
func SuggestImprovements(participants []Participant, cfg Config) []string {
	var suggestions []string

	strict := 0
	for _, p := range participants {
		if p.Strict {
			strict++
		}
	}
	if len(participants) > 0 && float64(strict) > float64(len(participants))*0.7 {
		suggestions = append(suggestions,
			"disable the strict flag for some participants to widen the search space")
	}

	if !cfg.AllowIncomplete {
		suggestions = append(suggestions,
			"allowing incomplete teams helps when the headcount does not divide evenly")
	}

	if !cfg.IncludeFinalOpen {
		totalWished := 0
		for _, p := range participants {
			totalWished += p.WishedDays()
		}
		// 24 player-days is roughly what eight calendar days can host.
		if totalWished > 24 {
			suggestions = append(suggestions,
				"including the final open adds a day of capacity for the current demand")
		}
	}

	byName := participantByName(participants)
	seenPairs := make(map[string]bool)
	for _, p := range participants {
		if p.Partner == "" {
			continue
		}
		partner, ok := byName[p.Partner]
		if !ok {
			continue
		}
		key := p.Name + "|" + p.Partner
		if p.Partner < p.Name {
			key = p.Partner + "|" + p.Name
		}
		if seenPairs[key] {
			continue
		}
		seenPairs[key] = true
		diff := p.WishedDays() - partner.WishedDays()
		if diff < 0 {
			diff = -diff
		}
		if diff >= 3 {
			suggestions = append(suggestions, fmt.Sprintf(
				"%s and %s have very different wishes (%dd vs %dd); the couple constraint makes satisfying both hard",
				p.Name, partner.Name, p.WishedDays(), partner.WishedDays()))
		}
	}

	return suggestions
}

// SolutionsSummary aggregates a solution set for display.
type SolutionsSummary struct {
	Count        int
	BestScore    float64
	WorstScore   float64
	PerfectCount int

	// LesionCounts maps participant name to how many solutions
	// shortchange them.
	LesionCounts map[string]int
}

// AnalyzeSolutions computes aggregate statistics across a solution set.
func AnalyzeSolutions(solutions []*Solution) SolutionsSummary {
	summary := SolutionsSummary{
		Count:        len(solutions),
		LesionCounts: make(map[string]int),
	}
	for i, sol := range solutions {
		score := sol.QualityScore()
		if i == 0 || score > summary.BestScore {
			summary.BestScore = score
		}
		if i == 0 || score < summary.WorstScore {
			summary.WorstScore = score
		}
		perfect := true
		for _, p := range sol.Participants {
			st, ok := sol.ParticipantStats(p.Name)
			if !ok {
				continue
			}
			if st.Deviation < 0 {
				summary.LesionCounts[p.Name]++
				perfect = false
			}
		}
		if perfect {
			summary.PerfectCount++
		}
	}
	return summary
}

// LesionedNames returns the participants shortchanged anywhere in the
// set, most frequent first.
func (s SolutionsSummary) LesionedNames() []string {
	names := make([]string, 0, len(s.LesionCounts))
	for name := range s.LesionCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.LesionCounts[names[i]] != s.LesionCounts[names[j]] {
			return s.LesionCounts[names[i]] > s.LesionCounts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
