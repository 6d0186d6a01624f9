package service_test

import (
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/service"
)

const samplePlanYAML = `
plan_name: Base Builder
goal: General
intensity: Beginner
duration_weeks: 4
exercises:
  - day: mon
    exercise_name: Push-ups
    category: strength
    sets: 3
    reps: "12"
  - day: Monday
    exercise_name: Brisk walk
    category: cardio
    duration_minutes: 30
  - day: wed
    exercise_name: Yoga flow
    category: flexibility
    duration_minutes: 20
`

func TestParsePlanYAML(t *testing.T) {
	t.Parallel()

	plan, err := service.ParsePlanYAML([]byte(samplePlanYAML))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	if plan.PlanName != "Base Builder" || plan.Goal != "general" || plan.Intensity != "beginner" || plan.DurationWeeks != 4 {
		t.Fatalf("unexpected plan header: %+v", plan)
	}
	if len(plan.Exercises) != 3 || plan.Exercises[0].Day != "Monday" || plan.Exercises[2].Day != "Wednesday" {
		t.Fatalf("expected normalized weekdays, got %+v", plan.Exercises)
	}
	if plan.Exercises[0].Reps != "12" || plan.Exercises[0].Sets != 3 {
		t.Fatalf("unexpected sets/reps: %+v", plan.Exercises[0])
	}

	bad := map[string]string{
		"empty":         "",
		"unknown field": "plan_name: X\nrest_days: 2\nexercises:\n  - day: mon\n    exercise_name: Run\n",
		"unknown day":   "plan_name: X\nexercises:\n  - day: someday\n    exercise_name: Run\n",
		"no name":       "exercises:\n  - day: mon\n    exercise_name: Run\n",
		"no exercises":  "plan_name: X\n",
		"negative sets": "plan_name: X\nexercises:\n  - day: mon\n    exercise_name: Run\n    sets: -1\n",
	}
	for name, doc := range bad {
		if _, err := service.ParsePlanYAML([]byte(doc)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestSavePlanAndPlanForDate(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	latest, err := service.LatestPlan(db)
	if err != nil {
		t.Fatalf("latest plan on empty db: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no plan, got %+v", latest)
	}

	plan, err := service.ParsePlanYAML([]byte(samplePlanYAML))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	if _, err := service.SavePlan(db, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	plan.PlanName = "Second Block"
	if _, err := service.SavePlan(db, plan); err != nil {
		t.Fatalf("save second plan: %v", err)
	}

	plans, err := service.ListPlans(db)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 2 || plans[0].PlanName != "Second Block" {
		t.Fatalf("expected newest plan first, got %+v", plans)
	}

	// 2026-02-09 is a Monday.
	if _, err := service.MarkExerciseDone(db, "2026-02-09", "push-ups", time.Time{}); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	planned, err := service.PlanForDate(db, "2026-02-09")
	if err != nil {
		t.Fatalf("plan for date: %v", err)
	}
	if len(planned) != 2 {
		t.Fatalf("expected 2 Monday exercises, got %d", len(planned))
	}
	if !planned[0].Completed || planned[1].Completed {
		t.Fatalf("expected only push-ups completed, got %+v", planned)
	}
	sunday, err := service.PlanForDate(db, "2026-02-08")
	if err != nil {
		t.Fatalf("plan for sunday: %v", err)
	}
	if len(sunday) != 0 {
		t.Fatalf("expected rest day, got %+v", sunday)
	}
}
