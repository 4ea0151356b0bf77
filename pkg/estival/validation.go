// Package estival: input validation.
//
// ValidateParticipants runs before any model construction. It returns the
// full list of problems rather than stopping at the first one, so a caller
// can surface everything to the user in one round trip. Hard errors block
// the solve; warnings describe setups that are legal but historically end
// in infeasible or surprising results.
package estival

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateParticipants checks the roster against the active tournament
// list. errs lists data problems that prevent model construction; warnings
// list suspicious but legal setups. Both empty means the data is clean.
func ValidateParticipants(participants []Participant, tournaments []Tournament) (errs, warnings []string) {
	if len(participants) == 0 {
		return []string{"no participants defined"}, nil
	}

	seen := make(map[string]int, len(participants))
	for _, p := range participants {
		seen[p.Name]++
	}
	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		errs = append(errs, fmt.Sprintf("duplicate names: %s", strings.Join(dups, ", ")))
	}

	byName := participantByName(participants)

	for _, p := range participants {
		if !p.Gender.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown gender %q", p.Name, p.Gender))
		}
		if p.StageWish < 0 || p.OpenWish < 0 {
			errs = append(errs, fmt.Sprintf("%s: negative wish counts", p.Name))
		}
		if p.AvailableUntil != "" && tournamentIndex(tournaments, p.AvailableUntil) < 0 {
			errs = append(errs, fmt.Sprintf("%s: availability references unknown tournament %q", p.Name, p.AvailableUntil))
		}
	}

	for _, p := range participants {
		if p.Partner == "" {
			continue
		}
		partner, ok := byName[p.Partner]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: partner %q not found", p.Name, p.Partner))
			continue
		}
		if partner.Partner != p.Name {
			other := partner.Partner
			if other == "" {
				other = "nobody"
			}
			errs = append(errs, fmt.Sprintf(
				"couple not bidirectional: %s is paired with %s, but %s is paired with %s",
				p.Name, p.Partner, p.Partner, other))
		}
		// Pair warnings are emitted once, from the lexicographically first
		// partner.
		if p.Name < p.Partner {
			if partner.Gender == p.Gender {
				warnings = append(warnings, fmt.Sprintf(
					"%s and %s share gender %s, which limits stage pairings (stages split M/F)",
					p.Name, p.Partner, p.Gender))
			}
			pIdx := tournamentIndex(tournaments, p.AvailableUntil)
			partnerIdx := tournamentIndex(tournaments, partner.AvailableUntil)
			if pIdx >= 0 && partnerIdx >= 0 {
				gap := pIdx - partnerIdx
				if gap < 0 {
					gap = -gap
				}
				if gap > 1 {
					warnings = append(warnings, fmt.Sprintf(
						"%s is available until %s but partner %s until %s, a large availability gap",
						p.Name, p.AvailableUntil, p.Partner, partner.AvailableUntil))
				}
			}
		}
	}

	anyWish := false
	for _, p := range participants {
		if p.HasWishes() {
			anyWish = true
			break
		}
	}
	if !anyWish {
		errs = append(errs, "nobody wants to play (all wishes are zero)")
	}

	strict := 0
	for _, p := range participants {
		if p.Strict {
			strict++
		}
	}
	if strict == len(participants) {
		warnings = append(warnings,
			"every participant has strict wishes enabled, which can make the model unsolvable; consider relaxing some")
	}

	return errs, warnings
}
