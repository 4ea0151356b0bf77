// Package estival: tournament catalog and calendar constants.
package estival

// Kind distinguishes the two event formats.
type Kind string

// Recognized event kinds.
const (
	// KindStage is a two-day event with separate men's and women's pools.
	KindStage Kind = "stage"
	// KindOpen is a one-day mixed event.
	KindOpen Kind = "open"
)

// Calendar constants for the season.
const (
	// TeamSize is the number of players per team in every event.
	TeamSize = 3

	// MaxConsecutiveDays is the fatigue threshold: playing more than this
	// many consecutive calendar days is penalized, not forbidden.
	MaxConsecutiveDays = 3

	// CalendarDays is the length of the season calendar in days.
	CalendarDays = 9
)

// Tournament is one event of the fixed season calendar.
type Tournament struct {
	ID    string
	Label string
	Venue string
	Kind  Kind

	// Days lists the calendar-day indices the event occupies, in order.
	// Stages span two days, opens one.
	Days []int

	// Optional events only run when Config.IncludeFinalOpen is set.
	Optional bool
}

// IsStage reports whether the event is a two-day stage.
func (t Tournament) IsStage() bool { return t.Kind == KindStage }

// IsOpen reports whether the event is a one-day open.
func (t Tournament) IsOpen() bool { return t.Kind == KindOpen }

// CoversDay reports whether the event occupies the given calendar day.
func (t Tournament) CoversDay(day int) bool {
	for _, d := range t.Days {
		if d == day {
			return true
		}
	}
	return false
}

// DefaultTournaments returns the season catalog: three stages and three
// opens over nine days, the final Sunday open being optional.
func DefaultTournaments() []Tournament {
	return []Tournament{
		{ID: "E1", Label: "Etape 1", Venue: "SABLES D'OR", Kind: KindStage, Days: []int{0, 1}},
		{ID: "O1", Label: "Open 1", Venue: "ERQUY", Kind: KindOpen, Days: []int{2}},
		{ID: "E2", Label: "Etape 2", Venue: "ERQUY", Kind: KindStage, Days: []int{3, 4}},
		{ID: "O2", Label: "Open 2", Venue: "SAINT-CAST", Kind: KindOpen, Days: []int{5}},
		{ID: "E3", Label: "Etape 3", Venue: "SAINT-CAST", Kind: KindStage, Days: []int{6, 7}},
		{ID: "O3", Label: "Open 3", Venue: "SAINT-CAST", Kind: KindOpen, Days: []int{8}, Optional: true},
	}
}

// ActiveTournaments filters the catalog down to the events that actually
// run. Order is preserved; availability cutoffs are interpreted over this
// filtered order.
func ActiveTournaments(tournaments []Tournament, includeFinalOpen bool) []Tournament {
	out := make([]Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		if t.Optional && !includeFinalOpen {
			continue
		}
		out = append(out, t)
	}
	return out
}

// tournamentIndex returns the position of id in the slice, or -1.
func tournamentIndex(tournaments []Tournament, id string) int {
	for i, t := range tournaments {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// countKind returns how many events of the given kind are in the slice.
func countKind(tournaments []Tournament, kind Kind) int {
	n := 0
	for _, t := range tournaments {
		if t.Kind == kind {
			n++
		}
	}
	return n
}
