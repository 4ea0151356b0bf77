package estival

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExploreProfileEnumeratesVariants(t *testing.T) {
	// Four women, one stage with room for one full team. The profile makes
	// Alice the lesioned party: she sits out and the other three play.
	participants := []Participant{
		{Name: "Alice", Gender: GenderFemale, StageWish: 1},
		{Name: "Beatrice", Gender: GenderFemale, StageWish: 1},
		{Name: "Chloe", Gender: GenderFemale, StageWish: 1},
		{Name: "Diane", Gender: GenderFemale, StageWish: 1},
	}

	solutions, err := ExploreProfile(context.Background(), participants, singleStage(),
		testConfig(), map[string]int{"Alice": -2})
	require.NoError(t, err)

	// Only one assignment realizes this profile: the single stage hosts
	// the one full team of the three remaining women.
	require.Len(t, solutions, 1)
	sol := solutions[0]
	assert.ElementsMatch(t, []string{"Beatrice", "Chloe", "Diane"}, sol.Assignments["E1"].Women)
	assert.False(t, sol.Assignments["E1"].contains("Alice"))

	st, ok := sol.ParticipantStats("Alice")
	require.True(t, ok)
	assert.Equal(t, 0, st.DaysPlayed)
	assert.Equal(t, -2, st.Deviation)
}

func TestExploreProfilePinsUnnamedToWishes(t *testing.T) {
	// Nobody is named in the profile, so every participant must hit their
	// wished day count exactly; each open assignment permutation surfaces.
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, OpenWish: 1},
		{Name: "Paul", Gender: GenderMale, OpenWish: 1},
	}
	tournaments := []Tournament{
		{ID: "O1", Kind: KindOpen, Days: []int{2}},
		{ID: "O2", Kind: KindOpen, Days: []int{5}},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	solutions, err := ExploreProfile(context.Background(), participants, tournaments,
		cfg, map[string]int{})
	require.NoError(t, err)

	// Each man plays exactly one of the two opens: four combinations.
	assert.Len(t, solutions, 4)
	for _, sol := range solutions {
		for _, p := range participants {
			st, ok := sol.ParticipantStats(p.Name)
			require.True(t, ok)
			assert.Equal(t, 1, st.DaysPlayed, "%s must play exactly one day", p.Name)
		}
	}
}

func TestExploreProfileImpossiblePin(t *testing.T) {
	// Pinning below zero clamps to zero; pinning a player above the
	// calendar capacity of the active events yields no variants.
	participants := []Participant{
		{Name: "Marc", Gender: GenderMale, OpenWish: 1},
	}
	tournaments := []Tournament{
		{ID: "O1", Kind: KindOpen, Days: []int{2}},
	}
	cfg := testConfig()
	cfg.AllowIncomplete = true

	solutions, err := ExploreProfile(context.Background(), participants, tournaments,
		cfg, map[string]int{"Marc": 3})
	require.NoError(t, err)
	assert.Empty(t, solutions)
}
