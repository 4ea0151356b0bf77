// Package estival: participant value object.
package estival

// Gender selects the stage team pool a participant belongs to. Stages field
// separate men's and women's teams; opens pool everyone together.
type Gender string

// Recognized genders.
const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Valid reports whether g is one of the recognized genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Participant describes one player's wishes and constraints for the season.
// Participants are value objects: the engine never mutates the caller's
// slice, and relaxation passes work on clones.
type Participant struct {
	// Name is the unique key identifying the participant everywhere
	// (assignments, violated-wish sets, relaxation candidates).
	Name string

	Gender Gender

	// Partner names the other half of a declared couple. Couples must be
	// bidirectional and are never assigned to events covering the same
	// calendar day. Empty means no couple constraint.
	Partner string

	// StageWish and OpenWish are the desired number of two-day stage
	// events and one-day open events.
	StageWish int
	OpenWish  int

	// AvailableUntil is the ID of the last tournament, in calendar order,
	// the participant can attend. Empty or unknown IDs mean no cutoff.
	AvailableUntil string

	// Strict turns the wish ceilings into exact equalities: the assignment
	// must match the wishes to the event.
	Strict bool
}

// WishedDays is the total number of calendar days requested: two per stage
// plus one per open.
func (p Participant) WishedDays() int {
	return 2*p.StageWish + p.OpenWish
}

// HasWishes reports whether the participant asked to play at all.
func (p Participant) HasWishes() bool {
	return p.StageWish > 0 || p.OpenWish > 0
}

// CloneParticipants returns a fresh copy of the slice. Relaxation passes
// mutate wish fields on the copy only.
func CloneParticipants(participants []Participant) []Participant {
	out := make([]Participant, len(participants))
	copy(out, participants)
	return out
}

// participantByName builds a name lookup over the slice.
func participantByName(participants []Participant) map[string]Participant {
	m := make(map[string]Participant, len(participants))
	for _, p := range participants {
		m[p.Name] = p
	}
	return m
}
