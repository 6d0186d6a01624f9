package metrics_test

import (
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
)

func TestComputeDailyProgress(t *testing.T) {
	t.Parallel()
	log := &model.DailyLog{
		WaterGlasses: 10,
		SleepHours:   6,
		Steps:        5000,
		ExercisesCompleted: []model.CompletedExercise{
			{ExerciseName: "Squat"},
			{ExerciseName: "Plank"},
		},
	}
	got := metrics.ComputeDailyProgress(log, metrics.DefaultVitalsGoals)
	if got.WaterPct != 100 {
		t.Fatalf("expected water capped at 100, got %.2f", got.WaterPct)
	}
	if got.SleepPct != 75 || got.StepsPct != 50 {
		t.Fatalf("unexpected progress: %+v", got)
	}
	if got.CompletedExercises != 2 {
		t.Fatalf("expected 2 completed exercises, got %d", got.CompletedExercises)
	}
	if empty := metrics.ComputeDailyProgress(nil, metrics.DefaultVitalsGoals); empty != (metrics.DailyProgress{}) {
		t.Fatalf("expected zero progress without a log, got %+v", empty)
	}
}

func TestWellnessSeriesWeekFillsMissingDays(t *testing.T) {
	t.Parallel()
	asOf := time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)
	logs := []model.DailyLog{
		{LogDate: "2026-02-11", SleepHours: 7.5},
		{LogDate: "2026-02-09", SleepHours: 6},
	}
	got := metrics.WellnessSeries(logs, metrics.WellnessSleep, metrics.RangeWeek, metrics.DefaultVitalsGoals, asOf)
	if len(got) != 7 {
		t.Fatalf("expected 7 points, got %d", len(got))
	}
	if got[0].Date != "2026-02-05" || got[6].Date != "2026-02-11" {
		t.Fatalf("unexpected range %s..%s", got[0].Date, got[6].Date)
	}
	if got[6].Value != 7.5 || got[4].Value != 6 || got[5].Value != 0 {
		t.Fatalf("unexpected values: %+v", got)
	}
	if got[0].Target != 8 || got[0].Label != "Feb 5" {
		t.Fatalf("unexpected first point: %+v", got[0])
	}
}

func TestWellnessSeriesMonthUsesFieldTarget(t *testing.T) {
	t.Parallel()
	asOf := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	goals := metrics.VitalsGoals{WaterGlasses: 10, SleepHours: 8, Steps: 12000}
	got := metrics.WellnessSeries([]model.DailyLog{{LogDate: "2026-02-10", Steps: 8000}}, metrics.WellnessSteps, metrics.RangeMonth, goals, asOf)
	if len(got) != 30 {
		t.Fatalf("expected 30 points, got %d", len(got))
	}
	if got[28].Value != 8000 || got[28].Target != 12000 {
		t.Fatalf("unexpected point: %+v", got[28])
	}
}

func TestWellnessSeriesYearAveragesChunks(t *testing.T) {
	t.Parallel()
	asOf := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	start := asOf.AddDate(0, 0, -364)
	logs := []model.DailyLog{
		{LogDate: start.Format(metrics.DateLayout), WaterGlasses: 8},
		{LogDate: start.AddDate(0, 0, 1).Format(metrics.DateLayout), WaterGlasses: 3},
	}
	got := metrics.WellnessSeries(logs, metrics.WellnessWater, metrics.RangeYear, metrics.DefaultVitalsGoals, asOf)
	if len(got) != 12 {
		t.Fatalf("expected 12 points, got %d", len(got))
	}
	// 11 / 30 = 0.3666 rounds to 0.4
	if got[0].Value != 0.4 {
		t.Fatalf("expected first chunk average 0.4, got %.4f", got[0].Value)
	}
	if got[0].Date != start.Format(metrics.DateLayout) {
		t.Fatalf("expected first chunk to start at %s, got %s", start.Format(metrics.DateLayout), got[0].Date)
	}
	for _, p := range got[1:] {
		if p.Value != 0 {
			t.Fatalf("expected empty chunks to be zero, got %+v", p)
		}
	}
}

func TestStartOfWeekIsSunday(t *testing.T) {
	t.Parallel()
	got := metrics.StartOfWeek(time.Date(2026, 2, 14, 23, 0, 0, 0, time.UTC))
	if got.Format(metrics.DateLayout) != "2026-02-08" || got.Weekday() != time.Sunday {
		t.Fatalf("expected Sunday 2026-02-08, got %s", got.Format(metrics.DateLayout))
	}
	same := metrics.StartOfWeek(time.Date(2026, 2, 8, 1, 0, 0, 0, time.UTC))
	if same.Format(metrics.DateLayout) != "2026-02-08" {
		t.Fatalf("expected a Sunday to start its own week, got %s", same.Format(metrics.DateLayout))
	}
}
