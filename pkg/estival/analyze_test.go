package estival

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTooManyStrict(t *testing.T) {
	participants := []Participant{
		{Name: "A", Gender: GenderMale, StageWish: 1, Strict: true},
		{Name: "B", Gender: GenderMale, StageWish: 1, Strict: true},
		{Name: "C", Gender: GenderMale, StageWish: 1, Strict: true},
		{Name: "D", Gender: GenderFemale, StageWish: 1},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	diag := AnalyzeWhyNoSolution(participants, DefaultTournaments(), cfg)
	assert.Equal(t, SeverityHigh, diag.Severity)
	assert.Contains(t, strings.Join(diag.Issues, "\n"), "too many strict constraints: 3/4")
}

func TestAnalyzeStageDivisibilityIsCritical(t *testing.T) {
	// Four women want stages with incomplete teams disallowed: 4 is not a
	// multiple of 3, the classic blockage.
	participants := []Participant{
		{Name: "Alice", Gender: GenderFemale, StageWish: 1},
		{Name: "Beatrice", Gender: GenderFemale, StageWish: 1},
		{Name: "Chloe", Gender: GenderFemale, StageWish: 1},
		{Name: "Diane", Gender: GenderFemale, StageWish: 1},
	}

	diag := AnalyzeWhyNoSolution(participants, singleStage(), testConfig())
	assert.Equal(t, SeverityCritical, diag.Severity)
	assert.Contains(t, strings.Join(diag.Issues, "\n"), "4 F participants want stages")
	joined := strings.Join(diag.Suggestions, "\n")
	assert.Contains(t, joined, "enable incomplete teams")
	assert.Contains(t, joined, "adjust the F stage players to 3 or 6")
	assert.Contains(t, joined, "set stage wishes to zero for 1 F participants")
}

func TestAnalyzeCoupleOverload(t *testing.T) {
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, Partner: "Laura", StageWish: 3, OpenWish: 2},
		{Name: "Laura", Gender: GenderFemale, Partner: "Marc", StageWish: 3, OpenWish: 2},
		{Name: "Paul", Gender: GenderMale, OpenWish: 1},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	diag := AnalyzeWhyNoSolution(participants, DefaultTournaments(), cfg)
	joined := strings.Join(diag.Issues, "\n")
	assert.Contains(t, joined, "couple Marc/Laura wants 16 combined days")
	// The pair is reported once, not once per direction.
	assert.Equal(t, 1, strings.Count(joined, "combined days"))
}

func TestAnalyzeCleanRosterHasNoIssues(t *testing.T) {
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, StageWish: 1},
		{Name: "Julie", Gender: GenderFemale, OpenWish: 1},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	diag := AnalyzeWhyNoSolution(participants, DefaultTournaments(), cfg)
	assert.Empty(t, diag.Issues)
	assert.Equal(t, SeverityUnknown, diag.Severity)
	assert.Equal(t, "no problem detected (yet no solution exists)", FormatDiagnosis(diag))
}

func TestFormatDiagnosisLayout(t *testing.T) {
	diag := Diagnosis{Severity: SeverityUnknown}
	diag.escalate(SeverityCritical, "first issue", "do this")
	diag.escalate(SeverityLow, "second issue")

	out := FormatDiagnosis(diag)
	assert.Contains(t, out, "1. first issue")
	assert.Contains(t, out, "2. second issue")
	assert.Contains(t, out, "1. do this")
	assert.Contains(t, out, "severity: CRITICAL")
}

func TestSeverityNeverDowngrades(t *testing.T) {
	diag := Diagnosis{Severity: SeverityUnknown}
	diag.escalate(SeverityCritical, "fatal")
	diag.escalate(SeverityLow, "minor")
	assert.Equal(t, SeverityCritical, diag.Severity)
}

func TestCheckFeasibilityOverload(t *testing.T) {
	// 40 stage entries for three stages is far past any rough capacity.
	participants := make([]Participant, 0, 20)
	for i := 0; i < 20; i++ {
		participants = append(participants, Participant{
			Name:      string(rune('A' + i)),
			Gender:    GenderMale,
			StageWish: 2,
		})
	}

	ok, warnings := CheckFeasibility(participants, DefaultTournaments(), false)
	assert.False(t, ok)
	assert.Contains(t, strings.Join(warnings, "\n"), "M participants want 40 stage entries")
}

func TestCheckFeasibilityCleanRoster(t *testing.T) {
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, StageWish: 1, OpenWish: 1},
		{Name: "Julie", Gender: GenderFemale, StageWish: 1},
	}
	ok, warnings := CheckFeasibility(participants, DefaultTournaments(), false)
	assert.True(t, ok)
	assert.Empty(t, warnings)
}

func TestSuggestImprovements(t *testing.T) {
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, Partner: "Laura", StageWish: 3, OpenWish: 2, Strict: true},
		{Name: "Laura", Gender: GenderFemale, Partner: "Marc", StageWish: 1, Strict: true},
		{Name: "Paul", Gender: GenderMale, StageWish: 3, OpenWish: 3, Strict: true},
		{Name: "Jean", Gender: GenderMale, StageWish: 3, OpenWish: 3, Strict: true},
	}
	cfg := testConfig()

	joined := strings.Join(SuggestImprovements(participants, cfg), "\n")
	assert.Contains(t, joined, "disable the strict flag")
	assert.Contains(t, joined, "incomplete teams")
	assert.Contains(t, joined, "including the final open")
	assert.Contains(t, joined, "Marc and Laura have very different wishes (8d vs 2d)")
}

func TestAnalyzeSolutionsSummary(t *testing.T) {
	participants, tournaments := analyticsFixture()

	perfect := handSolution(participants, tournaments, map[string]Roster{
		"E1": {Men: []string{"Marc"}, Women: []string{"Julie"}},
		"O1": {Mixed: []string{"Marc", "Paul"}},
		"E2": {Men: []string{"Marc"}},
		"O2": {Mixed: []string{"Paul"}},
	})
	short := handSolution(participants, tournaments, map[string]Roster{
		"E1": {Men: []string{"Marc"}, Women: []string{"Julie"}},
		"O1": {Mixed: []string{"Marc", "Paul"}},
		"E2": {Men: []string{"Marc"}},
	})

	summary := AnalyzeSolutions([]*Solution{perfect, short})
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 1, summary.PerfectCount)
	assert.Equal(t, 100.0, summary.BestScore)
	assert.Less(t, summary.WorstScore, 100.0)
	require.Equal(t, map[string]int{"Paul": 1}, summary.LesionCounts)
	assert.Equal(t, []string{"Paul"}, summary.LesionedNames())
}

func TestLesionedNamesOrdering(t *testing.T) {
	summary := SolutionsSummary{LesionCounts: map[string]int{
		"Zoe":  2,
		"Anna": 2,
		"Marc": 5,
	}}
	assert.Equal(t, []string{"Marc", "Anna", "Zoe"}, summary.LesionedNames())
}
