// Package main runs the estival assignment engine against a built-in
// sample roster. Settings come from ESTIVAL_* environment variables:
//
//	ESTIVAL_TIMEOUT_SECONDS   total solve budget (default 120)
//	ESTIVAL_MAX_SOLUTIONS     enumeration cap (default 50)
//	ESTIVAL_INCLUDE_FINAL_OPEN  include the optional last-day open
//	ESTIVAL_ALLOW_INCOMPLETE    allow partial teams
//	ESTIVAL_WORKERS           pass-1 search workers (default 1)
//	ESTIVAL_DEBUG             verbose logging
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/JeremyLoy/config"
	"github.com/rs/zerolog"

	"github.com/gitrdm/volleyplan/pkg/estival"
)

type settings struct {
	TimeoutSeconds   int  `config:"ESTIVAL_TIMEOUT_SECONDS"`
	MaxSolutions     int  `config:"ESTIVAL_MAX_SOLUTIONS"`
	IncludeFinalOpen bool `config:"ESTIVAL_INCLUDE_FINAL_OPEN"`
	AllowIncomplete  bool `config:"ESTIVAL_ALLOW_INCOMPLETE"`
	Workers          int  `config:"ESTIVAL_WORKERS"`
	Debug            bool `config:"ESTIVAL_DEBUG"`
}

func main() {
	s := settings{TimeoutSeconds: 120, MaxSolutions: 50, Workers: 1}
	if err := config.FromEnv().To(&s); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if s.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	cfg := estival.DefaultConfig()
	cfg.Budget = time.Duration(s.TimeoutSeconds) * time.Second
	cfg.MaxSolutions = s.MaxSolutions
	cfg.IncludeFinalOpen = s.IncludeFinalOpen
	cfg.AllowIncomplete = s.AllowIncomplete
	cfg.Workers = s.Workers
	cfg.Logger = &logger

	participants := sampleRoster()
	tournaments := estival.DefaultTournaments()

	if ok, warnings := estival.CheckFeasibility(participants, tournaments, cfg.IncludeFinalOpen); !ok {
		for _, w := range warnings {
			logger.Warn().Msg(w)
		}
	}

	resolver := estival.NewMultiPassSolver(cfg)
	result, err := resolver.SolveMultiPass(context.Background(), participants, tournaments,
		func(pass int, message string) {
			logger.Info().Int("pass", pass).Msg(message)
		})
	if err != nil {
		logger.Fatal().Err(err).Msg("solve failed")
	}

	fmt.Printf("status: %s\n%s\n\n", result.Status, result.Message)

	if result.Diagnosis != nil {
		fmt.Println(estival.FormatDiagnosis(*result.Diagnosis))
		return
	}
	if len(result.Candidates) > 0 && len(result.Solutions) == 0 {
		fmt.Println("possible relaxations:")
		for _, c := range result.Candidates {
			fmt.Printf("  - %s: %s (costs %d day(s))\n", c.Name, c.Reason, c.Impact)
		}
		return
	}

	summary := estival.AnalyzeSolutions(result.Solutions)
	fmt.Printf("%d solution(s), best score %.1f, worst %.1f, %d perfect\n\n",
		summary.Count, summary.BestScore, summary.WorstScore, summary.PerfectCount)

	for i, sol := range result.Solutions {
		printSolution(i+1, sol, tournaments)
	}
}

func printSolution(rank int, sol *estival.Solution, tournaments []estival.Tournament) {
	fmt.Printf("#%d  score %.1f  profile %s\n", rank, sol.QualityScore(), sol.ProfileSignature())
	for _, t := range tournaments {
		r, ok := sol.Assignments[t.ID]
		if !ok {
			continue
		}
		switch {
		case t.IsStage():
			fmt.Printf("  %s (%s, %s): M=%v F=%v\n", t.ID, t.Label, t.Venue, r.Men, r.Women)
		default:
			fmt.Printf("  %s (%s, %s): %v\n", t.ID, t.Label, t.Venue, r.Mixed)
		}
	}
	fmt.Println()
}

// sampleRoster is a small demonstration setup: two couples, a strict
// player, and mixed demand levels.
func sampleRoster() []estival.Participant {
	return []estival.Participant{
		{Name: "Julien", Gender: estival.GenderMale, Partner: "Sophie", StageWish: 2, OpenWish: 1},
		{Name: "Sophie", Gender: estival.GenderFemale, Partner: "Julien", StageWish: 1, OpenWish: 1},
		{Name: "Remy", Gender: estival.GenderMale, StageWish: 2, OpenWish: 2},
		{Name: "Sylvain", Gender: estival.GenderMale, StageWish: 1, OpenWish: 1, Strict: true},
		{Name: "Claire", Gender: estival.GenderFemale, StageWish: 2, OpenWish: 0},
		{Name: "Anais", Gender: estival.GenderFemale, StageWish: 1, OpenWish: 2},
		{Name: "Marc", Gender: estival.GenderMale, Partner: "Laura", StageWish: 1, OpenWish: 1},
		{Name: "Laura", Gender: estival.GenderFemale, Partner: "Marc", StageWish: 1, OpenWish: 0},
		{Name: "Paul", Gender: estival.GenderMale, StageWish: 0, OpenWish: 2, AvailableUntil: "O2"},
	}
}
