package service

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
)

var weekdays = map[string]string{
	"sunday": "Sunday", "monday": "Monday", "tuesday": "Tuesday", "wednesday": "Wednesday",
	"thursday": "Thursday", "friday": "Friday", "saturday": "Saturday",
	"sun": "Sunday", "mon": "Monday", "tue": "Tuesday", "wed": "Wednesday",
	"thu": "Thursday", "fri": "Friday", "sat": "Saturday",
}

// ParsePlanYAML decodes a workout plan document. Unknown keys are rejected.
func ParsePlanYAML(data []byte) (model.WorkoutPlan, error) {
	var plan model.WorkoutPlan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return plan, fmt.Errorf("workout plan file is empty")
		}
		return plan, fmt.Errorf("parse workout plan: %w", err)
	}
	return normalizePlan(plan)
}

func normalizePlan(plan model.WorkoutPlan) (model.WorkoutPlan, error) {
	plan.PlanName = strings.TrimSpace(plan.PlanName)
	if plan.PlanName == "" {
		return plan, fmt.Errorf("plan_name is required")
	}
	plan.Goal = normalizeName(plan.Goal)
	plan.Intensity = normalizeName(plan.Intensity)
	if plan.DurationWeeks < 0 {
		return plan, fmt.Errorf("duration_weeks must be >= 0")
	}
	if len(plan.Exercises) == 0 {
		return plan, fmt.Errorf("plan %q has no exercises", plan.PlanName)
	}
	for i := range plan.Exercises {
		ex := &plan.Exercises[i]
		day, ok := weekdays[normalizeName(ex.Day)]
		if !ok {
			return plan, fmt.Errorf("exercise %d: unknown day %q", i+1, ex.Day)
		}
		ex.Day = day
		ex.ExerciseName = strings.TrimSpace(ex.ExerciseName)
		if ex.ExerciseName == "" {
			return plan, fmt.Errorf("exercise %d: exercise_name is required", i+1)
		}
		ex.Category = normalizeName(ex.Category)
		ex.Reps = strings.TrimSpace(ex.Reps)
		ex.Description = strings.TrimSpace(ex.Description)
		if err := validateNonNegativeInt("duration_minutes", ex.DurationMinutes); err != nil {
			return plan, fmt.Errorf("exercise %d: %w", i+1, err)
		}
		if err := validateNonNegativeInt("sets", ex.Sets); err != nil {
			return plan, fmt.Errorf("exercise %d: %w", i+1, err)
		}
	}
	return plan, nil
}

// SavePlan stores plan as the newest workout plan and returns its id.
func SavePlan(db *sql.DB, plan model.WorkoutPlan) (int64, error) {
	plan, err := normalizePlan(plan)
	if err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertPlan(tx, plan, time.Now())
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit workout plan: %w", err)
	}
	return id, nil
}

func insertPlan(tx *sql.Tx, plan model.WorkoutPlan, createdAt time.Time) (int64, error) {
	res, err := tx.Exec(`
INSERT INTO workout_plans(plan_name, goal, intensity, duration_weeks, created_at)
VALUES(?, ?, ?, ?, ?)
`, plan.PlanName, plan.Goal, plan.Intensity, plan.DurationWeeks, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert workout plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve workout plan id: %w", err)
	}
	for i, ex := range plan.Exercises {
		if _, err := tx.Exec(`
INSERT INTO plan_exercises(plan_id, position, day, exercise_name, category, duration_minutes, sets, reps, description)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, i, ex.Day, ex.ExerciseName, ex.Category, ex.DurationMinutes, ex.Sets, ex.Reps, ex.Description); err != nil {
			return 0, fmt.Errorf("insert plan exercise %q: %w", ex.ExerciseName, err)
		}
	}
	return id, nil
}

// LatestPlan returns the most recently created plan, or nil when none exist.
func LatestPlan(db *sql.DB) (*model.WorkoutPlan, error) {
	plans, err := queryPlans(db, 1)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

// ListPlans returns every stored plan, newest first.
func ListPlans(db *sql.DB) ([]model.WorkoutPlan, error) {
	return queryPlans(db, 0)
}

func queryPlans(db *sql.DB, limit int) ([]model.WorkoutPlan, error) {
	query := `
SELECT id, plan_name, goal, intensity, duration_weeks, created_at
FROM workout_plans
ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workout plans: %w", err)
	}
	defer rows.Close()

	plans := make([]model.WorkoutPlan, 0)
	for rows.Next() {
		var (
			p         model.WorkoutPlan
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.PlanName, &p.Goal, &p.Intensity, &p.DurationWeeks, &createdAt); err != nil {
			return nil, fmt.Errorf("scan workout plan: %w", err)
		}
		p.CreatedAt = parseStoredTime(createdAt)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout plans: %w", err)
	}
	rows.Close()

	for i := range plans {
		exercises, err := planExercises(db, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Exercises = exercises
	}
	return plans, nil
}

func planExercises(db *sql.DB, planID int64) ([]model.PlanExercise, error) {
	rows, err := db.Query(`
SELECT day, exercise_name, category, duration_minutes, sets, reps, description
FROM plan_exercises
WHERE plan_id = ?
ORDER BY position ASC, id ASC
`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan exercises: %w", err)
	}
	defer rows.Close()
	out := make([]model.PlanExercise, 0)
	for rows.Next() {
		var ex model.PlanExercise
		if err := rows.Scan(&ex.Day, &ex.ExerciseName, &ex.Category, &ex.DurationMinutes, &ex.Sets, &ex.Reps, &ex.Description); err != nil {
			return nil, fmt.Errorf("scan plan exercise: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan exercises: %w", err)
	}
	return out, nil
}

type PlannedExerciseStatus struct {
	model.PlanExercise
	Completed bool `json:"completed"`
}

// PlanForDate lists the latest plan's exercises for date's weekday, marking
// those already completed in the day's log.
func PlanForDate(db *sql.DB, date string) ([]PlannedExerciseStatus, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	day, err := time.Parse(metrics.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	plan, err := LatestPlan(db)
	if err != nil {
		return nil, err
	}
	log, err := GetDailyLog(db, date)
	if err != nil {
		return nil, err
	}
	done := map[string]bool{}
	if log != nil {
		for _, ex := range log.ExercisesCompleted {
			done[normalizeName(ex.ExerciseName)] = true
		}
	}
	out := make([]PlannedExerciseStatus, 0)
	for _, ex := range metrics.PlannedForDay(plan, day.Weekday()) {
		out = append(out, PlannedExerciseStatus{PlanExercise: ex, Completed: done[normalizeName(ex.ExerciseName)]})
	}
	return out, nil
}
