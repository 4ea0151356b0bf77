package estival

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Budget = 30 * time.Second
	cfg.MaxSolutions = 50
	return cfg
}

// singleStage is a calendar with one two-day stage and nothing else.
func singleStage() []Tournament {
	return []Tournament{
		{ID: "E1", Label: "Etape 1", Venue: "SABLES D'OR", Kind: KindStage, Days: []int{0, 1}},
	}
}

func TestSolveTwoCompatibleParticipants(t *testing.T) {
	// One stage wish and one open wish that fit side by side.
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, StageWish: 1},
		{Name: "Julie", Gender: GenderFemale, OpenWish: 1},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	result, err := NewSolver(cfg).Solve(context.Background(), participants, DefaultTournaments())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, result.Status)
	require.NotEmpty(t, result.Solutions)

	perfect := 0
	for _, sol := range result.Solutions {
		if len(sol.ViolatedWishes) == 0 {
			perfect++
			assert.Equal(t, 100.0, sol.QualityScore())
		}
	}
	assert.Greater(t, perfect, 0, "expected at least one solution satisfying both wishes")
	assert.Equal(t, 0, result.Info.MaxShortage)
}

func TestSolveFourWomenThreeSlots(t *testing.T) {
	// Four women compete for one stage with room for exactly one full
	// team, incomplete teams disallowed: someone is always shortchanged.
	participants := []Participant{
		{Name: "Alice", Gender: GenderFemale, StageWish: 1},
		{Name: "Beatrice", Gender: GenderFemale, StageWish: 1},
		{Name: "Chloe", Gender: GenderFemale, StageWish: 1},
		{Name: "Diane", Gender: GenderFemale, StageWish: 1},
	}
	cfg := testConfig()

	result, err := NewSolver(cfg).Solve(context.Background(), participants, singleStage())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, result.Status)
	require.NotEmpty(t, result.Solutions)

	// Pass 2 pins the pass-1 optimum exactly.
	assert.Equal(t, 2, result.Info.MaxShortage)

	signatures := make(map[string]bool)
	lesioned := make(map[string]bool)
	singleLesion := 0
	for _, sol := range result.Solutions {
		sig := sol.ProfileSignature()
		assert.False(t, signatures[sig], "duplicate profile %s in unique mode", sig)
		signatures[sig] = true

		worst := 0
		shortCount := 0
		for _, p := range participants {
			st, ok := sol.ParticipantStats(p.Name)
			require.True(t, ok)
			if st.Deviation < 0 {
				lesioned[p.Name] = true
				shortCount++
				if -st.Deviation > worst {
					worst = -st.Deviation
				}
			}
		}
		assert.LessOrEqual(t, worst, result.Info.MaxShortage)
		if shortCount == 1 {
			singleLesion++
		}
	}

	assert.Equal(t, 4, singleLesion, "each woman should be the sole lesioned party in one profile")
	for _, p := range participants {
		assert.True(t, lesioned[p.Name], "%s never appears lesioned", p.Name)
	}
}

func TestSolveStrictWishIsExact(t *testing.T) {
	participants := []Participant{
		{Name: "Alice", Gender: GenderFemale, StageWish: 1, Strict: true},
		{Name: "Beatrice", Gender: GenderFemale, StageWish: 2},
		{Name: "Chloe", Gender: GenderFemale, StageWish: 2},
		{Name: "Diane", Gender: GenderFemale, StageWish: 2},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	result, err := NewSolver(cfg).Solve(context.Background(), participants, DefaultTournaments())
	require.NoError(t, err)
	require.NotEmpty(t, result.Solutions)

	for _, sol := range result.Solutions {
		st, ok := sol.ParticipantStats("Alice")
		require.True(t, ok)
		assert.Equal(t, 1, st.StageCount, "strict wish must be met exactly, never under or over")
		assert.Equal(t, 0, st.OpenCount)
	}
}

func TestSolveCoupleNeverSameDay(t *testing.T) {
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, Partner: "Laura", StageWish: 1, OpenWish: 1},
		{Name: "Laura", Gender: GenderFemale, Partner: "Marc", StageWish: 1, OpenWish: 1},
		{Name: "Paul", Gender: GenderMale, StageWish: 1, OpenWish: 1},
		{Name: "Nina", Gender: GenderFemale, StageWish: 1, OpenWish: 1},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true
	cfg.Mode = ModeAll

	result, err := NewSolver(cfg).Solve(context.Background(), participants, DefaultTournaments())
	require.NoError(t, err)
	require.NotEmpty(t, result.Solutions)

	for _, sol := range result.Solutions {
		marc, ok := sol.ParticipantStats("Marc")
		require.True(t, ok)
		laura, ok := sol.ParticipantStats("Laura")
		require.True(t, ok)
		for day := 0; day < CalendarDays; day++ {
			assert.False(t, marc.Presence[day] && laura.Presence[day],
				"couple assigned together on day %d", day)
		}
	}
}

func TestSolveFullTeamsOnly(t *testing.T) {
	participants := []Participant{
		{Name: "Alice", Gender: GenderFemale, StageWish: 1},
		{Name: "Beatrice", Gender: GenderFemale, StageWish: 1},
		{Name: "Chloe", Gender: GenderFemale, StageWish: 1},
		{Name: "Diane", Gender: GenderFemale, StageWish: 1},
		{Name: "Eva", Gender: GenderFemale, StageWish: 1},
	}
	cfg := testConfig()
	cfg.Mode = ModeAll

	result, err := NewSolver(cfg).Solve(context.Background(), participants, singleStage())
	require.NoError(t, err)
	require.NotEmpty(t, result.Solutions)

	for _, sol := range result.Solutions {
		women := len(sol.Assignments["E1"].Women)
		assert.Zero(t, women%TeamSize, "stage pool of %d is not full teams", women)
	}
}

func TestSolveStrictWishBeyondCalendarIsInfeasible(t *testing.T) {
	// Three stages wished strictly against a two-stage calendar.
	tournaments := []Tournament{
		{ID: "E1", Kind: KindStage, Days: []int{0, 1}},
		{ID: "E2", Kind: KindStage, Days: []int{3, 4}},
		{ID: "O1", Kind: KindOpen, Days: []int{2}},
	}
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, Partner: "Laura", StageWish: 3, OpenWish: 1, Strict: true},
		{Name: "Laura", Gender: GenderFemale, Partner: "Marc", StageWish: 3, OpenWish: 1, Strict: true},
	}

	result, err := NewSolver(testConfig()).Solve(context.Background(), participants, tournaments)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Empty(t, result.Solutions)
	assert.NotEmpty(t, result.Info.ValidationErrors)
}

func TestSolveRejectsInvalidData(t *testing.T) {
	participants := []Participant{
		{Name: "Marc", Gender: "X", StageWish: 1},
		{Name: "Marc", Gender: GenderMale, OpenWish: -1},
	}

	result, err := NewSolver(testConfig()).Solve(context.Background(), participants, DefaultTournaments())
	require.NoError(t, err)
	assert.Equal(t, StatusModelInvalid, result.Status)
	assert.Empty(t, result.Solutions)
	assert.NotEmpty(t, result.Info.ValidationErrors)
}

func TestSolveAvailabilityCutoff(t *testing.T) {
	// Paul leaves after O1: nothing later may be assigned to him.
	participants := []Participant{
		{Name: "Paul", Gender: GenderMale, OpenWish: 2, AvailableUntil: "O1"},
		{Name: "Marc", Gender: GenderMale, OpenWish: 1},
		{Name: "Jean", Gender: GenderMale, OpenWish: 1},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true
	cfg.Mode = ModeAll

	result, err := NewSolver(cfg).Solve(context.Background(), participants, DefaultTournaments())
	require.NoError(t, err)
	require.NotEmpty(t, result.Solutions)

	cutoff := tournamentIndex(ActiveTournaments(DefaultTournaments(), false), "O1")
	for _, sol := range result.Solutions {
		for ti, tour := range sol.Tournaments {
			if ti > cutoff {
				assert.False(t, sol.Assignments[tour.ID].contains("Paul"),
					"Paul assigned to %s past his availability", tour.ID)
			}
		}
	}
}
