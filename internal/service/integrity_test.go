package service_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

func TestBackupCreateListRestore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "fitflow.db")
	if err := os.WriteFile(src, []byte("sqlite-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	backupDir := filepath.Join(dir, "backups")
	info, err := service.CreateBackup(src, filepath.Join(backupDir, "first.db"))
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if info.Checksum == "" || info.SizeBytes != int64(len("sqlite-bytes")) {
		t.Fatalf("unexpected backup info: %+v", info)
	}
	list, err := service.ListBackups(backupDir)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(list) != 1 || list[0].Checksum != info.Checksum {
		t.Fatalf("expected one listed backup with checksum, got %+v", list)
	}

	target := filepath.Join(dir, "restored", "fitflow.db")
	if err := service.RestoreBackup(info.Path, target, false); err != nil {
		t.Fatalf("restore into empty path: %v", err)
	}
	if err := service.RestoreBackup(info.Path, target, false); err == nil {
		t.Fatalf("expected restore over existing db without force to fail")
	}
	got, err := os.ReadFile(target)
	if err != nil || string(got) != "sqlite-bytes" {
		t.Fatalf("expected restored bytes, got %q err=%v", got, err)
	}

	if err := os.WriteFile(info.Path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper backup: %v", err)
	}
	if err := service.RestoreBackup(info.Path, target, true); err == nil {
		t.Fatalf("expected checksum mismatch")
	}
}

func TestRunDoctorDetectsAndFixes(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	meal, err := service.AddMeal(db, service.AddMealInput{Date: "2026-02-10", MealType: "dinner", Foods: []model.FoodItem{{Name: "Pasta", Calories: 650, ProteinG: 22}}})
	if err != nil {
		t.Fatalf("add meal: %v", err)
	}
	if _, err := service.MarkExerciseDone(db, "2026-02-10", "Run", time.Time{}); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	report, err := service.RunDoctor(db, false)
	if err != nil {
		t.Fatalf("doctor on clean db: %v", err)
	}
	if !report.Healthy() {
		t.Fatalf("expected clean db to be healthy, got %+v", report)
	}

	stmts := []string{
		`PRAGMA foreign_keys = OFF`,
		`INSERT INTO meal_foods(meal_id, position, name, calories) VALUES(999, 0, 'Ghost', 10)`,
		`INSERT INTO daily_exercises(log_date, exercise_name, completed_at) VALUES('2030-01-01', 'Swim', '2030-01-01T08:00:00Z')`,
		`INSERT INTO daily_exercises(log_date, exercise_name, completed_at) VALUES('2026-02-10', 'RUN', '2026-02-10T09:00:00Z')`,
		`INSERT INTO insights(kind, window_days, body_json) VALUES('fitness', 30, '{not json')`,
		`PRAGMA foreign_keys = ON`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	if _, err := db.Exec(`UPDATE meal_logs SET total_calories = 1 WHERE id = ?`, meal.ID); err != nil {
		t.Fatalf("corrupt totals: %v", err)
	}

	report, err = service.RunDoctor(db, false)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if report.OrphanMealFoods != 1 || report.OrphanExercises != 1 || report.DuplicateCompletions != 1 ||
		report.StaleMealTotals != 1 || report.InvalidInsights != 1 || report.OrphanPlanExercises != 0 {
		t.Fatalf("unexpected doctor report: %+v", report)
	}
	if report.FixedRows != 0 {
		t.Fatalf("expected no fixes without fix flag, got %d", report.FixedRows)
	}

	report, err = service.RunDoctor(db, true)
	if err != nil {
		t.Fatalf("doctor fix: %v", err)
	}
	if report.FixedRows != 5 {
		t.Fatalf("expected 5 fixed rows, got %+v", report)
	}
	after, err := service.RunDoctor(db, false)
	if err != nil {
		t.Fatalf("doctor after fix: %v", err)
	}
	if !after.Healthy() {
		t.Fatalf("expected healthy db after fix, got %+v", after)
	}

	log, err := service.GetDailyLog(db, "2026-02-10")
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if len(log.ExercisesCompleted) != 1 || log.ExercisesCompleted[0].ExerciseName != "Run" {
		t.Fatalf("expected the first completion to survive, got %+v", log.ExercisesCompleted)
	}
	meals, err := service.ListMeals(db, "2026-02-10")
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if meals[0].TotalCalories != 650 {
		t.Fatalf("expected totals recomputed to 650, got %v", meals[0].TotalCalories)
	}
}
