package service_test

import (
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

func TestNutritionRangeTotalsAndAdherence(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	seed := []service.AddMealInput{
		{Date: "2026-02-10", MealType: "breakfast", Foods: []model.FoodItem{{Name: "Oats", Calories: 500, ProteinG: 40, CarbsG: 50, FatG: 15}}},
		{Date: "2026-02-10", MealType: "dinner", Foods: []model.FoodItem{{Name: "Stir fry", Calories: 700, ProteinG: 60, CarbsG: 70, FatG: 20}}},
		{Date: "2026-02-11", MealType: "lunch", Foods: []model.FoodItem{{Name: "Burrito bowl", Calories: 1700, ProteinG: 126, CarbsG: 150, FatG: 57}}},
		{Date: "2026-02-20", MealType: "lunch", Foods: []model.FoodItem{{Name: "Outside range", Calories: 900}}},
	}
	for _, in := range seed {
		if _, err := service.AddMeal(db, in); err != nil {
			t.Fatalf("seed %s %s: %v", in.Date, in.MealType, err)
		}
	}

	report, err := service.NutritionRange(db,
		time.Date(2026, 2, 9, 0, 0, 0, 0, time.Local),
		time.Date(2026, 2, 11, 23, 0, 0, 0, time.Local), 0.10)
	if err != nil {
		t.Fatalf("nutrition range: %v", err)
	}
	if report.DaysWithMeals != 2 || report.TotalCalories != 2900 || report.AverageCaloriesPerDay != 1450 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if report.HighestDay == nil || report.HighestDay.Date != "2026-02-11" || report.LowestDay.Date != "2026-02-10" {
		t.Fatalf("unexpected extreme days: high=%+v low=%+v", report.HighestDay, report.LowestDay)
	}
	if report.Adherence.EvaluatedDays != 2 || report.Adherence.WithinGoalDays != 1 || report.Adherence.PercentWithin != 50 {
		t.Fatalf("unexpected adherence: %+v", report.Adherence)
	}
	if len(report.ByMealType) != 3 || report.ByMealType[0].MealType != "lunch" || report.ByMealType[2].MealType != "breakfast" {
		t.Fatalf("expected slots ranked by calories, got %+v", report.ByMealType)
	}

	if _, err := service.NutritionRange(db, time.Date(2026, 2, 12, 0, 0, 0, 0, time.Local), time.Date(2026, 2, 11, 0, 0, 0, 0, time.Local), 0.1); err == nil {
		t.Fatalf("expected reversed range to fail")
	}
}

func TestAdherenceWithin(t *testing.T) {
	t.Parallel()
	if !service.AdherenceWithin(95, 100, 0.1) || service.AdherenceWithin(89, 100, 0.1) || service.AdherenceWithin(111, 100, 0.1) {
		t.Fatalf("unexpected tolerance band")
	}
	if !service.AdherenceWithin(0, 0, 0.1) || service.AdherenceWithin(1, 0, 0.1) {
		t.Fatalf("expected zero target to require zero actual")
	}
}

func TestVitalsRangeTrends(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	seed := map[string]int{"2026-01-01": 12, "2026-02-08": 2, "2026-02-09": 2, "2026-02-10": 8, "2026-02-11": 8}
	for date, water := range seed {
		if _, err := service.UpsertDailyLog(db, service.UpsertDailyLogInput{Date: date, WaterGlasses: intPtr(water)}); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}
	report, err := service.VitalsRange(db, metrics.RangeWeek, time.Date(2026, 2, 11, 9, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("vitals range: %v", err)
	}
	if report.FromDate != "2026-02-05" || report.ToDate != "2026-02-11" {
		t.Fatalf("unexpected window: %s..%s", report.FromDate, report.ToDate)
	}
	m := report.Metrics
	if m.DaysLogged != 4 || m.Averages.WaterGlasses != 5 {
		t.Fatalf("unexpected averages: %+v", m)
	}
	if m.Trends.WaterGlasses.Direction != metrics.TrendUp || m.Trends.WaterGlasses.Percent != 300 {
		t.Fatalf("expected +300%% water trend, got %+v", m.Trends.WaterGlasses)
	}
	if _, err := service.VitalsRange(db, "decade", time.Now()); err == nil {
		t.Fatalf("expected unknown range to fail")
	}
}

func TestWorkoutCompletionDayMode(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	asOf := time.Date(2026, 2, 11, 18, 0, 0, 0, time.Local)
	empty, err := service.WorkoutCompletion(db, "", asOf)
	if err != nil {
		t.Fatalf("completion without plan: %v", err)
	}
	if empty.Mode != metrics.BucketDay || empty.Average != 0 || len(empty.Buckets) != 7 {
		t.Fatalf("unexpected completion without plan: %+v", empty)
	}

	plan, err := service.ParsePlanYAML([]byte(samplePlanYAML))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	if _, err := service.SavePlan(db, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	for date, name := range map[string]string{"2026-02-09": "Push-ups", "2026-02-11": "Yoga flow"} {
		if _, err := service.MarkExerciseDone(db, date, name, time.Time{}); err != nil {
			t.Fatalf("mark %s: %v", date, err)
		}
	}

	report, err := service.WorkoutCompletion(db, metrics.BucketDay, asOf)
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if report.PlanName != "Base Builder" || len(report.Buckets) != 7 {
		t.Fatalf("unexpected report: %+v", report)
	}
	monday := report.Buckets[4]
	if monday.FromDate != "2026-02-09" || monday.Percentage != 50 || monday.Tier != metrics.TierMedium {
		t.Fatalf("unexpected monday bucket: %+v", monday)
	}
	last := report.Buckets[6]
	if last.Label != "Wed" || last.Percentage != 100 || last.Tier != metrics.TierHigh {
		t.Fatalf("unexpected wednesday bucket: %+v", last)
	}
	if report.Average != 21 {
		t.Fatalf("expected average 21, got %d", report.Average)
	}

	month, err := service.WorkoutCompletion(db, metrics.BucketMonth, asOf)
	if err != nil {
		t.Fatalf("month completion: %v", err)
	}
	if len(month.Buckets) != 12 || month.Buckets[11].Completed != 2 || month.Buckets[11].Expected != metrics.MonthlyExpectedExercises {
		t.Fatalf("unexpected month buckets: %+v", month.Buckets[11])
	}
	if _, err := service.WorkoutCompletion(db, "fortnight", asOf); err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
}

func TestWellnessSeries(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.UpsertDailyLog(db, service.UpsertDailyLogInput{Date: "2026-02-10", SleepHours: floatPtr(7)}); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	report, err := service.Wellness(db, "", "", time.Date(2026, 2, 11, 8, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("wellness: %v", err)
	}
	if report.Field != metrics.WellnessSleep || report.Range != metrics.RangeWeek || len(report.Points) != 7 {
		t.Fatalf("unexpected defaults: %+v", report)
	}
	if report.Points[5].Date != "2026-02-10" || report.Points[5].Value != 7 || report.Points[5].Target != 8 || report.Points[6].Value != 0 {
		t.Fatalf("unexpected points: %+v", report.Points)
	}
	if report.Average != 1 {
		t.Fatalf("expected average 1, got %v", report.Average)
	}
	if _, err := service.Wellness(db, "mood", metrics.RangeWeek, time.Now()); err == nil {
		t.Fatalf("expected unknown wellness type to fail")
	}
}
