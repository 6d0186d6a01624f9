package metrics

import (
	"math"
	"time"

	"github.com/saadjs/fitflow/internal/model"
)

const DateLayout = "2006-01-02"

type WindowRange string

const (
	RangeWeek  WindowRange = "week"
	RangeMonth WindowRange = "month"
	RangeYear  WindowRange = "year"
)

// Days is the number of calendar days a range covers. Unknown ranges cover a week.
func (r WindowRange) Days() int {
	switch r {
	case RangeMonth:
		return 30
	case RangeYear:
		return 365
	default:
		return 7
	}
}

type VitalsGoals struct {
	WaterGlasses float64 `json:"water_glasses"`
	SleepHours   float64 `json:"sleep_hours"`
	Steps        float64 `json:"steps"`
}

var DefaultVitalsGoals = VitalsGoals{WaterGlasses: 8, SleepHours: 8, Steps: 10000}

type DailyProgress struct {
	WaterPct           float64 `json:"water_pct"`
	SleepPct           float64 `json:"sleep_pct"`
	StepsPct           float64 `json:"steps_pct"`
	CompletedExercises int     `json:"completed_exercises"`
}

// ComputeDailyProgress measures one day's vitals against goals, each capped at
// 100%. A nil log reports zero progress.
func ComputeDailyProgress(log *model.DailyLog, goals VitalsGoals) DailyProgress {
	if log == nil {
		return DailyProgress{}
	}
	return DailyProgress{
		WaterPct:           PercentOfTarget(float64(log.WaterGlasses), goals.WaterGlasses),
		SleepPct:           PercentOfTarget(log.SleepHours, goals.SleepHours),
		StepsPct:           PercentOfTarget(float64(log.Steps), goals.Steps),
		CompletedExercises: len(log.ExercisesCompleted),
	}
}

type WellnessField string

const (
	WellnessSleep WellnessField = "sleep"
	WellnessWater WellnessField = "water"
	WellnessSteps WellnessField = "steps"
)

type WellnessPoint struct {
	Label  string  `json:"label"`
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
}

const yearChunkDays = 30

// WellnessSeries returns one point per calendar day of the range ending at
// asOf, oldest first, with 0 for days without a log. The year range is
// reduced to twelve 30-day averages rounded to one decimal.
func WellnessSeries(logs []model.DailyLog, field WellnessField, rng WindowRange, goals VitalsGoals, asOf time.Time) []WellnessPoint {
	byDate := make(map[string]model.DailyLog, len(logs))
	for _, l := range logs {
		if _, seen := byDate[l.LogDate]; !seen {
			byDate[l.LogDate] = l
		}
	}
	target := wellnessTarget(field, goals)
	today := civilDate(asOf)
	days := rng.Days()

	labelLayout := "Jan 2"
	if rng == RangeYear {
		labelLayout = "Jan"
	}
	points := make([]WellnessPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format(DateLayout)
		value := 0.0
		if l, ok := byDate[key]; ok {
			value = wellnessValue(l, field)
		}
		points = append(points, WellnessPoint{Label: d.Format(labelLayout), Date: key, Value: value, Target: target})
	}
	if rng != RangeYear {
		return points
	}

	monthly := make([]WellnessPoint, 0, 12)
	for i := 0; i < 12; i++ {
		lo := i * yearChunkDays
		hi := min((i+1)*yearChunkDays, len(points))
		if lo >= hi {
			break
		}
		chunk := points[lo:hi]
		sum := 0.0
		for _, p := range chunk {
			sum += p.Value
		}
		avg := sum / float64(len(chunk))
		monthly = append(monthly, WellnessPoint{
			Label:  chunk[0].Label,
			Date:   chunk[0].Date,
			Value:  math.Round(avg*10) / 10,
			Target: target,
		})
	}
	return monthly
}

func wellnessValue(l model.DailyLog, field WellnessField) float64 {
	switch field {
	case WellnessWater:
		return float64(l.WaterGlasses)
	case WellnessSteps:
		return float64(l.Steps)
	default:
		return l.SleepHours
	}
}

func wellnessTarget(field WellnessField, goals VitalsGoals) float64 {
	switch field {
	case WellnessWater:
		return goals.WaterGlasses
	case WellnessSteps:
		return goals.Steps
	default:
		return goals.SleepHours
	}
}

// StartOfWeek returns the Sunday that begins t's week.
func StartOfWeek(t time.Time) time.Time {
	d := civilDate(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// civilDate drops the clock and zone from t, keeping its calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
