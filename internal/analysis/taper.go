package analysis

// TaperPhase is the stage of the race build-up
type TaperPhase string

const (
	PhasePostRace  TaperPhase = "post-race"
	PhaseBuild     TaperPhase = "build"
	PhasePreTaper  TaperPhase = "pre-taper"
	PhaseTaper     TaperPhase = "taper"
	PhaseFinalPrep TaperPhase = "final-prep"
)

// TaperAdvice is the fixed guidance for one taper phase
type TaperAdvice struct {
	Phase           TaperPhase
	Message         string
	Recommendations []string
}

// TaperPhaseFor maps days until the race to a phase. Every integer has a phase.
func TaperPhaseFor(daysToRace int) TaperPhase {
	switch {
	case daysToRace < 0:
		return PhasePostRace
	case daysToRace > 14:
		return PhaseBuild
	case daysToRace > 7:
		return PhasePreTaper
	case daysToRace > 3:
		return PhaseTaper
	default:
		return PhaseFinalPrep
	}
}

var taperAdvice = map[TaperPhase]TaperAdvice{
	PhasePostRace: {
		Message: "Race is done. Focus on recovery before the next build.",
		Recommendations: []string{
			"Take 3-7 days of easy riding or complete rest",
			"Prioritise sleep and nutrition",
			"Review the race and note what to change next time",
		},
	},
	PhaseBuild: {
		Message: "More than two weeks out. Keep building fitness.",
		Recommendations: []string{
			"Continue structured training and progressive overload",
			"Include race-specific intensity once a week",
			"Schedule a recovery week every 3-4 weeks",
		},
	},
	PhasePreTaper: {
		Message: "One to two weeks out. Start reducing volume.",
		Recommendations: []string{
			"Reduce weekly volume by 20-30%",
			"Keep 1-2 short sessions at race intensity",
			"Avoid new or unusually hard workouts",
		},
	},
	PhaseTaper: {
		Message: "Final week. Sharpen while shedding fatigue.",
		Recommendations: []string{
			"Reduce volume by 40-60% while keeping some intensity",
			"Do short openers with a few race-pace efforts",
			"Check equipment and race logistics",
		},
	},
	PhaseFinalPrep: {
		Message: "Race is days away. Stay fresh and trust the training.",
		Recommendations: []string{
			"Only easy spins with a few brief accelerations",
			"Focus on sleep, hydration and carbohydrate intake",
			"Lay out kit and nutrition the day before",
		},
	},
}

// TaperAdviceFor returns the advice for the phase daysToRace falls in
func TaperAdviceFor(daysToRace int) TaperAdvice {
	phase := TaperPhaseFor(daysToRace)
	advice := taperAdvice[phase]
	advice.Phase = phase
	advice.Recommendations = append([]string(nil), advice.Recommendations...)
	return advice
}
