package metrics

import (
	"math"

	"github.com/saadjs/fitflow/internal/model"
)

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

type DailyTotals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
}

type MacroPercentages struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
}

type MacroSlice struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	SharePct float64 `json:"share_pct"`
}

type MacroAdherence struct {
	Totals        DailyTotals      `json:"totals"`
	Targets       Targets          `json:"targets"`
	Percentages   MacroPercentages `json:"percentages"`
	MacroCalories float64          `json:"macro_calories"`
	// Slices is nil when protein, carbs and fat are all zero.
	Slices []MacroSlice `json:"slices,omitempty"`
}

// SumMealTotals adds the cached totals of every meal log.
func SumMealTotals(meals []model.MealLog) DailyTotals {
	var t DailyTotals
	for _, m := range meals {
		t.Calories += m.TotalCalories
		t.ProteinG += m.TotalProteinG
		t.CarbsG += m.TotalCarbsG
		t.FatG += m.TotalFatG
	}
	return t
}

// ComputeMacroAdherence reports progress toward each target, capped at 100%,
// and the calorie split between macros.
func ComputeMacroAdherence(totals DailyTotals, targets Targets) MacroAdherence {
	out := MacroAdherence{
		Totals:  totals,
		Targets: targets,
		Percentages: MacroPercentages{
			Calories: PercentOfTarget(totals.Calories, float64(targets.Calories)),
			ProteinG: PercentOfTarget(totals.ProteinG, float64(targets.ProteinG)),
			CarbsG:   PercentOfTarget(totals.CarbsG, float64(targets.CarbsG)),
			FatG:     PercentOfTarget(totals.FatG, float64(targets.FatG)),
		},
	}

	slices := []MacroSlice{
		{Name: "protein", Calories: totals.ProteinG * kcalPerGramProtein},
		{Name: "carbs", Calories: totals.CarbsG * kcalPerGramCarbs},
		{Name: "fat", Calories: totals.FatG * kcalPerGramFat},
	}
	for _, s := range slices {
		out.MacroCalories += s.Calories
	}
	if out.MacroCalories == 0 {
		return out
	}
	for i := range slices {
		slices[i].SharePct = slices[i].Calories / out.MacroCalories * 100
	}
	out.Slices = slices
	return out
}

// PercentOfTarget returns value/target as a percentage bounded above by 100.
// A non-positive target yields 0.
func PercentOfTarget(value, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, value/target*100)
}
