package service

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
)

type DaySummary struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
}

type MealTypeBreakdown struct {
	MealType string  `json:"meal_type"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
}

type AdherenceSummary struct {
	EvaluatedDays  int     `json:"evaluated_days"`
	WithinGoalDays int     `json:"within_goal_days"`
	PercentWithin  float64 `json:"percent_within_goal"`
}

type NutritionReport struct {
	FromDate              string              `json:"from_date"`
	ToDate                string              `json:"to_date"`
	Targets               metrics.Targets     `json:"targets"`
	TotalCalories         float64             `json:"total_calories"`
	TotalProtein          float64             `json:"total_protein_g"`
	TotalCarbs            float64             `json:"total_carbs_g"`
	TotalFat              float64             `json:"total_fat_g"`
	DaysWithMeals         int                 `json:"days_with_meals"`
	AverageCaloriesPerDay float64             `json:"avg_calories_per_day"`
	AverageProteinPerDay  float64             `json:"avg_protein_per_day"`
	AverageCarbsPerDay    float64             `json:"avg_carbs_per_day"`
	AverageFatPerDay      float64             `json:"avg_fat_per_day"`
	HighestDay            *DaySummary         `json:"highest_day,omitempty"`
	LowestDay             *DaySummary         `json:"lowest_day,omitempty"`
	Adherence             AdherenceSummary    `json:"adherence"`
	ByMealType            []MealTypeBreakdown `json:"by_meal_type"`
	Days                  []DaySummary        `json:"days"`
}

// NutritionRange summarizes meal logs between from and to. A day counts as
// within goal when calories stay at or under target and each macro is within
// tolerance of its target.
func NutritionRange(db *sql.DB, from, to time.Time, tolerance float64) (*NutritionReport, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from date must be <= to date")
	}
	from = beginningOfDay(from)
	to = beginningOfDay(to)
	targets, _, err := ProfileTargets(db)
	if err != nil {
		return nil, err
	}

	report := &NutritionReport{
		FromDate: formatDate(from),
		ToDate:   formatDate(to),
		Targets:  targets,
	}
	meals, err := ListMealsRange(db, report.FromDate, report.ToDate)
	if err != nil {
		return nil, err
	}
	days, byType := summarizeMeals(meals)
	report.Days = days
	report.ByMealType = byType
	report.DaysWithMeals = len(days)

	for _, d := range days {
		report.TotalCalories += d.Calories
		report.TotalProtein += d.Protein
		report.TotalCarbs += d.Carbs
		report.TotalFat += d.Fat
	}
	if report.DaysWithMeals > 0 {
		div := float64(report.DaysWithMeals)
		report.AverageCaloriesPerDay = report.TotalCalories / div
		report.AverageProteinPerDay = report.TotalProtein / div
		report.AverageCarbsPerDay = report.TotalCarbs / div
		report.AverageFatPerDay = report.TotalFat / div
		report.HighestDay, report.LowestDay = extremeDays(days)
	}
	report.Adherence = calculateAdherence(days, targets, tolerance)
	return report, nil
}

func summarizeMeals(meals []model.MealLog) ([]DaySummary, []MealTypeBreakdown) {
	days := make([]DaySummary, 0)
	dayIndex := map[string]int{}
	types := map[model.MealType]*MealTypeBreakdown{}
	for _, m := range meals {
		i, ok := dayIndex[m.LogDate]
		if !ok {
			i = len(days)
			dayIndex[m.LogDate] = i
			days = append(days, DaySummary{Date: m.LogDate})
		}
		days[i].Calories += m.TotalCalories
		days[i].Protein += m.TotalProteinG
		days[i].Carbs += m.TotalCarbsG
		days[i].Fat += m.TotalFatG

		b, ok := types[m.MealType]
		if !ok {
			b = &MealTypeBreakdown{MealType: string(m.MealType)}
			types[m.MealType] = b
		}
		b.Calories += m.TotalCalories
		b.Protein += m.TotalProteinG
		b.Carbs += m.TotalCarbsG
		b.Fat += m.TotalFatG
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	byType := make([]MealTypeBreakdown, 0, len(types))
	for _, t := range model.MealTypes {
		if b, ok := types[t]; ok {
			byType = append(byType, *b)
		}
	}
	sort.SliceStable(byType, func(i, j int) bool { return byType[i].Calories > byType[j].Calories })
	return days, byType
}

func calculateAdherence(days []DaySummary, targets metrics.Targets, tolerance float64) AdherenceSummary {
	out := AdherenceSummary{}
	for _, d := range days {
		out.EvaluatedDays++
		if d.Calories <= float64(targets.Calories) &&
			AdherenceWithin(d.Protein, float64(targets.ProteinG), tolerance) &&
			AdherenceWithin(d.Carbs, float64(targets.CarbsG), tolerance) &&
			AdherenceWithin(d.Fat, float64(targets.FatG), tolerance) {
			out.WithinGoalDays++
		}
	}
	if out.EvaluatedDays > 0 {
		out.PercentWithin = (float64(out.WithinGoalDays) / float64(out.EvaluatedDays)) * 100
	}
	return out
}

func AdherenceWithin(actual float64, target float64, tolerance float64) bool {
	if target == 0 {
		return actual == 0
	}
	lower := target * (1 - tolerance)
	upper := target * (1 + tolerance)
	return actual >= lower && actual <= upper
}

func extremeDays(days []DaySummary) (*DaySummary, *DaySummary) {
	if len(days) == 0 {
		return nil, nil
	}
	copied := make([]DaySummary, len(days))
	copy(copied, days)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Calories < copied[j].Calories
	})
	low := copied[0]
	high := copied[len(copied)-1]
	return &high, &low
}

type VitalsReport struct {
	Range    metrics.WindowRange    `json:"range"`
	FromDate string                 `json:"from_date"`
	ToDate   string                 `json:"to_date"`
	Metrics  metrics.RollingMetrics `json:"metrics"`
}

// VitalsRange computes rolling averages and half-split trends over the logs in
// the range's calendar window ending at asOf.
func VitalsRange(db *sql.DB, rng metrics.WindowRange, asOf time.Time) (*VitalsReport, error) {
	rng, err := ParseWindowRange(string(rng))
	if err != nil {
		return nil, err
	}
	end := beginningOfDay(asOf)
	start := end.AddDate(0, 0, -(rng.Days() - 1))
	logs, err := ListDailyLogs(db, formatDate(start), formatDate(end))
	if err != nil {
		return nil, err
	}
	return &VitalsReport{
		Range:    rng,
		FromDate: formatDate(start),
		ToDate:   formatDate(end),
		Metrics:  metrics.ComputeRollingMetrics(logs, rng.Days()),
	}, nil
}

type CompletionReport struct {
	Mode     metrics.BucketMode         `json:"mode"`
	PlanName string                     `json:"plan_name,omitempty"`
	Average  int                        `json:"average_percentage"`
	Buckets  []metrics.CompletionBucket `json:"buckets"`
}

// completionLookbackDays covers the widest bucket window of each mode.
var completionLookbackDays = map[metrics.BucketMode]int{
	metrics.BucketDay:   7,
	metrics.BucketWeek:  35,
	metrics.BucketMonth: 372,
}

func WorkoutCompletion(db *sql.DB, mode metrics.BucketMode, asOf time.Time) (*CompletionReport, error) {
	mode, err := ParseBucketMode(string(mode))
	if err != nil {
		return nil, err
	}
	plan, err := LatestPlan(db)
	if err != nil {
		return nil, err
	}
	logs, err := RecentDailyLogs(db, asOf, completionLookbackDays[mode])
	if err != nil {
		return nil, err
	}
	buckets := metrics.ComputeWorkoutCompletion(logs, plan, mode, asOf)
	report := &CompletionReport{
		Mode:    mode,
		Average: metrics.AverageCompletion(buckets),
		Buckets: buckets,
	}
	if plan != nil {
		report.PlanName = plan.PlanName
	}
	return report, nil
}

type WellnessReport struct {
	Field   metrics.WellnessField   `json:"field"`
	Range   metrics.WindowRange     `json:"range"`
	Average float64                 `json:"average"`
	Points  []metrics.WellnessPoint `json:"points"`
}

func Wellness(db *sql.DB, field metrics.WellnessField, rng metrics.WindowRange, asOf time.Time) (*WellnessReport, error) {
	field, err := ParseWellnessField(string(field))
	if err != nil {
		return nil, err
	}
	rng, err = ParseWindowRange(string(rng))
	if err != nil {
		return nil, err
	}
	goals, err := VitalsGoals(db)
	if err != nil {
		return nil, err
	}
	logs, err := RecentDailyLogs(db, asOf, rng.Days())
	if err != nil {
		return nil, err
	}
	points := metrics.WellnessSeries(logs, field, rng, goals, asOf)
	report := &WellnessReport{Field: field, Range: rng, Points: points}
	if len(points) > 0 {
		sum := 0.0
		for _, p := range points {
			sum += p.Value
		}
		report.Average = sum / float64(len(points))
	}
	return report, nil
}

func ParseWindowRange(value string) (metrics.WindowRange, error) {
	switch r := metrics.WindowRange(normalizeName(value)); r {
	case "":
		return metrics.RangeWeek, nil
	case metrics.RangeWeek, metrics.RangeMonth, metrics.RangeYear:
		return r, nil
	default:
		return "", fmt.Errorf("unknown range %q (expected week, month or year)", value)
	}
}

func ParseBucketMode(value string) (metrics.BucketMode, error) {
	switch m := metrics.BucketMode(normalizeName(value)); m {
	case "":
		return metrics.BucketDay, nil
	case metrics.BucketDay, metrics.BucketWeek, metrics.BucketMonth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown completion mode %q (expected day, week or month)", value)
	}
}

func ParseWellnessField(value string) (metrics.WellnessField, error) {
	switch f := metrics.WellnessField(normalizeName(value)); f {
	case "":
		return metrics.WellnessSleep, nil
	case metrics.WellnessSleep, metrics.WellnessWater, metrics.WellnessSteps:
		return f, nil
	default:
		return "", fmt.Errorf("unknown wellness type %q (expected sleep, water or steps)", value)
	}
}
