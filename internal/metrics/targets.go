// Package metrics derives dashboard and analytics figures from raw fitness logs.
//
// Every function here is pure: inputs are fully materialized values, outputs are
// plain values, and nothing performs I/O or returns an error. Absent numeric
// values count as zero.
package metrics

import (
	"math"

	"github.com/saadjs/fitflow/internal/model"
)

const (
	DefaultWeightKg = 70.0
	DefaultGoal     = model.GoalWeightLoss
)

type Targets struct {
	Calories int `json:"calorie_target"`
	ProteinG int `json:"protein_target"`
	CarbsG   int `json:"carb_target"`
	FatG     int `json:"fat_target"`
}

type goalRatios struct {
	kcalPerKg    float64
	proteinPerKg float64
	carbShare    float64
	fatShare     float64
}

var (
	muscleGainRatios = goalRatios{kcalPerKg: 35, proteinPerKg: 2, carbShare: 0.45, fatShare: 0.25}
	weightLossRatios = goalRatios{kcalPerKg: 25, proteinPerKg: 1.8, carbShare: 0.35, fatShare: 0.30}
	generalRatios    = goalRatios{kcalPerKg: 30, proteinPerKg: 1.6, carbShare: 0.45, fatShare: 0.25}
)

// ComputeTargets returns daily calorie and macro targets for a profile. A nil
// profile, nil weight or empty goal fall back to DefaultWeightKg and DefaultGoal.
// Zero or negative weights are not guarded and yield zero or negative targets.
func ComputeTargets(profile *model.UserProfile) Targets {
	weight := DefaultWeightKg
	goal := DefaultGoal
	if profile != nil {
		if profile.WeightKg != nil {
			weight = *profile.WeightKg
		}
		if profile.FitnessGoal != "" {
			goal = profile.FitnessGoal
		}
	}

	r := generalRatios
	switch goal {
	case model.GoalMuscleGain:
		r = muscleGainRatios
	case model.GoalWeightLoss:
		r = weightLossRatios
	}

	calories := weight * r.kcalPerKg
	return Targets{
		Calories: roundInt(calories),
		ProteinG: roundInt(weight * r.proteinPerKg),
		CarbsG:   roundInt(calories * r.carbShare / 4),
		FatG:     roundInt(calories * r.fatShare / 9),
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
