package service_test

import (
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/service"
)

func TestUpsertDailyLogMergesFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.UpsertDailyLog(db, service.UpsertDailyLogInput{Date: "2026-02-10", WaterGlasses: intPtr(5), Notes: strPtr("  long run ")}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	l, err := service.UpsertDailyLog(db, service.UpsertDailyLogInput{Date: "2026-02-10", Steps: intPtr(8000), SleepHours: floatPtr(7.5)})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if l.WaterGlasses != 5 || l.Steps != 8000 || l.SleepHours != 7.5 || l.Notes != "long run" {
		t.Fatalf("unexpected merged log: %+v", l)
	}
	if len(l.ExercisesCompleted) != 0 {
		t.Fatalf("expected no completed exercises, got %d", len(l.ExercisesCompleted))
	}

	missing, err := service.GetDailyLog(db, "2026-02-11")
	if err != nil {
		t.Fatalf("get missing log: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for a day without a log, got %+v", missing)
	}
}

func TestUpsertDailyLogValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	cases := []service.UpsertDailyLogInput{
		{Date: "2026-02-10", SleepHours: floatPtr(25)},
		{Date: "2026-02-10", SleepHours: floatPtr(-1)},
		{Date: "2026-02-10", Steps: intPtr(-10)},
		{Date: "2026-02-10", WaterGlasses: intPtr(-1)},
		{Date: "10/02/2026", Steps: intPtr(10)},
	}
	for _, in := range cases {
		if _, err := service.UpsertDailyLog(db, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
}

func TestMarkAndUndoExercise(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	at := time.Date(2026, 2, 10, 7, 30, 0, 0, time.UTC)
	if _, err := service.MarkExerciseDone(db, "2026-02-10", "Push-ups", at); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	l, err := service.MarkExerciseDone(db, "2026-02-10", "push-ups", at.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark done again: %v", err)
	}
	if len(l.ExercisesCompleted) != 1 {
		t.Fatalf("expected duplicate completion to be ignored, got %d", len(l.ExercisesCompleted))
	}
	if got := l.ExercisesCompleted[0]; got.ExerciseName != "Push-ups" || !got.CompletedAt.Equal(at) {
		t.Fatalf("unexpected completion: %+v", got)
	}
	if _, err := service.MarkExerciseDone(db, "2026-02-10", "Plank", at); err != nil {
		t.Fatalf("mark plank: %v", err)
	}

	l, err = service.UndoExercise(db, "2026-02-10", "PUSH-UPS")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(l.ExercisesCompleted) != 1 || l.ExercisesCompleted[0].ExerciseName != "Plank" {
		t.Fatalf("expected only plank to remain, got %+v", l.ExercisesCompleted)
	}
	if _, err := service.UndoExercise(db, "2026-02-10", "push-ups"); err == nil {
		t.Fatalf("expected undo of a missing exercise to fail")
	}
	if _, err := service.MarkExerciseDone(db, "2026-02-10", "  ", at); err == nil {
		t.Fatalf("expected empty exercise name to fail")
	}
}

func TestListAndRecentDailyLogs(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	for i, date := range []string{"2026-02-01", "2026-02-08", "2026-02-09", "2026-02-10"} {
		if _, err := service.UpsertDailyLog(db, service.UpsertDailyLogInput{Date: date, Steps: intPtr(1000 * (i + 1))}); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}
	logs, err := service.ListDailyLogs(db, "2026-02-08", "2026-02-10")
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 3 || logs[0].LogDate != "2026-02-10" || logs[2].LogDate != "2026-02-08" {
		t.Fatalf("expected newest-first logs 10..08, got %+v", logs)
	}
	if _, err := service.ListDailyLogs(db, "2026-02-10", "2026-02-01"); err == nil {
		t.Fatalf("expected reversed range to fail")
	}

	recent, err := service.RecentDailyLogs(db, time.Date(2026, 2, 10, 22, 0, 0, 0, time.Local), 7)
	if err != nil {
		t.Fatalf("recent logs: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 logs in the last 7 days, got %d", len(recent))
	}
	latest, err := service.LatestDailyLogs(db, 2)
	if err != nil {
		t.Fatalf("latest logs: %v", err)
	}
	if len(latest) != 2 || latest[1].LogDate != "2026-02-09" {
		t.Fatalf("unexpected latest logs: %+v", latest)
	}
}
