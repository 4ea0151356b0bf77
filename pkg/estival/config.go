// Package estival: engine configuration and objective weights.
package estival

import (
	"time"

	"github.com/rs/zerolog"
)

// Mode selects how pass-2 enumeration results are kept.
type Mode string

// Enumeration modes.
const (
	// ModeUniqueProfiles keeps the single best variant per relaxation
	// profile (who is shortchanged and by how much).
	ModeUniqueProfiles Mode = "unique_profiles"
	// ModeAll keeps every enumerated solution.
	ModeAll Mode = "all"
)

// Weights are the coefficients of the hierarchical objective. Each tier
// must dominate the next so the optimizer never trades a unit of a higher
// tier for any amount of a lower one.
type Weights struct {
	// MaxShortage weights the worst individual day shortage.
	MaxShortage int
	// Shortage weights the sum of individual day shortages.
	Shortage int
	// Fatigue weights each fully-played four-day window.
	Fatigue int
	// Incomplete weights each leftover player in a partial team.
	Incomplete int
	// Distribution scales the per-participant tie-break weight.
	Distribution int
}

// DefaultWeights returns the production tier coefficients.
func DefaultWeights() Weights {
	return Weights{
		MaxShortage:  100000,
		Shortage:     1000,
		Fatigue:      500,
		Incomplete:   10,
		Distribution: 1,
	}
}

// DefaultDistributionWeight is the tie-break weight: shortchanging a
// participant costs more the less they asked for, so high-demand players
// absorb lesions preferentially. This encodes a fairness judgment, not a
// mathematical necessity, which is why it is a swappable function.
func DefaultDistributionWeight(wishedDays int) int {
	if w := 6 - wishedDays; w > 1 {
		return w
	}
	return 1
}

// Config carries every tunable of a solve. The zero value is usable:
// missing fields are filled from DefaultConfig at solve entry.
type Config struct {
	// IncludeFinalOpen enables the optional last-day open.
	IncludeFinalOpen bool

	// AllowIncomplete permits teams with fewer than TeamSize players,
	// at a mild objective penalty per leftover player.
	AllowIncomplete bool

	// MaxSolutions caps the number of solutions visited during pass-2
	// enumeration, not just the number kept after collapsing.
	MaxSolutions int

	// Budget is the wall-clock ceiling for a whole solve. Pass 1 gets
	// roughly a third; pass 2 gets the remainder, with a small floor.
	Budget time.Duration

	// Mode selects profile collapsing versus keeping all variants.
	Mode Mode

	// MinQualityScore drops collected solutions scoring below it.
	MinQualityScore float64

	Weights Weights

	// Workers enables parallel branch-and-bound search in pass 1 when
	// greater than one. Enumeration stays sequential for determinism.
	Workers int

	// DistributionWeight maps a participant's wished days to their
	// shortage tie-break weight. Nil means DefaultDistributionWeight.
	DistributionWeight func(wishedDays int) int

	// Logger receives pass-boundary and probe diagnostics. Nil means
	// logging is disabled.
	Logger *zerolog.Logger
}

// logger returns the configured logger or a no-op one.
func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return zerolog.Nop()
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxSolutions:       50,
		Budget:             120 * time.Second,
		Mode:               ModeUniqueProfiles,
		Weights:            DefaultWeights(),
		Workers:            1,
		DistributionWeight: DefaultDistributionWeight,
	}
}

// withDefaults fills zero fields so a zero-value Config behaves like
// DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxSolutions <= 0 {
		c.MaxSolutions = def.MaxSolutions
	}
	if c.Budget <= 0 {
		c.Budget = def.Budget
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.DistributionWeight == nil {
		c.DistributionWeight = DefaultDistributionWeight
	}
	return c
}
