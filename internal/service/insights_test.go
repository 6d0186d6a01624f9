package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, prompt string, out any) error {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.reply), out)
}

func TestGenerateFitnessInsights(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()
	llm := &fakeCompleter{reply: `{
  "insights": [
    {"title": "Hydration is up", "description": "Water rose 20%", "type": " Positive ", "metric": "water"},
    {"title": "Odd", "description": "Unknown type", "type": "mystery"}
  ],
  "overall_score": 140,
  "top_recommendation": "Keep the streak"
}`}

	if _, err := service.GenerateInsights(ctx, db, nil, service.InsightsFitness, time.Now()); err == nil {
		t.Fatalf("expected missing client to fail")
	}
	if _, err := service.GenerateInsights(ctx, db, llm, service.InsightsFitness, time.Now()); err == nil {
		t.Fatalf("expected too few logs to fail")
	}
	if len(llm.prompts) != 0 {
		t.Fatalf("expected no model call without data, got %d", len(llm.prompts))
	}

	for _, date := range []string{"2026-02-09", "2026-02-10", "2026-02-11"} {
		if _, err := service.UpsertDailyLog(db, service.UpsertDailyLogInput{Date: date, SleepHours: floatPtr(7), WaterGlasses: intPtr(6), Steps: intPtr(8000)}); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}
	report, err := service.GenerateInsights(ctx, db, llm, "", time.Now())
	if err != nil {
		t.Fatalf("generate insights: %v", err)
	}
	if report.Kind != service.InsightsFitness || report.OverallScore != 100 || report.ID == 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Insights[0].Type != "positive" || report.Insights[1].Type != "suggestion" {
		t.Fatalf("expected normalized insight types, got %+v", report.Insights)
	}
	if !strings.Contains(llm.prompts[0], "Date: 2026-02-11, Sleep: 7.0h, Water: 6, Steps: 8000") {
		t.Fatalf("expected prompt to include recent logs, got:\n%s", llm.prompts[0])
	}

	history, err := service.ListInsights(db, 0)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(history) != 1 || history[0].ID != report.ID || history[0].TopRecommendation != "Keep the streak" {
		t.Fatalf("unexpected history: %+v", history)
	}

	if _, err := service.GenerateInsights(ctx, db, llm, "sleep", time.Now()); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
	llm.err = errors.New("upstream down")
	if _, err := service.GenerateInsights(ctx, db, llm, service.InsightsFitness, time.Now()); err == nil {
		t.Fatalf("expected model failure to propagate")
	}
}

func TestGenerateNutritionInsightsNeedsTwoDays(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()
	llm := &fakeCompleter{reply: `{"insights":[],"overall_score":-5,"top_recommendation":"Eat more protein"}`}
	asOf := time.Date(2026, 2, 11, 20, 0, 0, 0, time.Local)

	add := func(date string) {
		t.Helper()
		if _, err := service.AddMeal(db, service.AddMealInput{Date: date, MealType: "lunch", Foods: []model.FoodItem{{Name: "Salad", Calories: 400, ProteinG: 20}}}); err != nil {
			t.Fatalf("add meal %s: %v", date, err)
		}
	}
	add("2026-02-11")
	if _, err := service.GenerateInsights(ctx, db, llm, service.InsightsNutrition, asOf); err == nil {
		t.Fatalf("expected one day of meals to fail")
	}
	add("2026-02-09")

	report, err := service.GenerateInsights(ctx, db, llm, service.InsightsNutrition, asOf)
	if err != nil {
		t.Fatalf("generate nutrition insights: %v", err)
	}
	if report.OverallScore != 0 || report.Insights == nil {
		t.Fatalf("expected clamped score and empty insights, got %+v", report)
	}
	if !strings.Contains(llm.prompts[0], "- Calories: 400 kcal") {
		t.Fatalf("expected prompt to include today's intake, got:\n%s", llm.prompts[0])
	}
}

func TestEstimateFoods(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	llm := &fakeCompleter{reply: `{"foods":[{"name":" Banana ","calories":105,"protein":1.3,"carbs":27,"fat":0.4,"serving_size":"1 medium"}]}`}
	foods, err := service.EstimateFoods(ctx, llm, "a banana")
	if err != nil {
		t.Fatalf("estimate foods: %v", err)
	}
	if len(foods) != 1 || foods[0].Name != "Banana" || foods[0].Calories != 105 {
		t.Fatalf("unexpected foods: %+v", foods)
	}
	if _, err := service.EstimateFoods(ctx, llm, "   "); err == nil {
		t.Fatalf("expected empty description to fail")
	}
	if _, err := service.EstimateFoods(ctx, &fakeCompleter{reply: `{"foods":[]}`}, "air"); err == nil {
		t.Fatalf("expected empty reply to fail")
	}
	if _, err := service.EstimateFoods(ctx, &fakeCompleter{reply: `{"foods":[{"name":"x","calories":-1}]}`}, "x"); err == nil {
		t.Fatalf("expected negative calories to fail")
	}
}

func TestGeneratePlan(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()
	llm := &fakeCompleter{reply: `{
  "plan_name": "",
  "exercises": [
    {"day": "monday", "exercise_name": "Squats", "duration_minutes": 15, "sets": 4, "reps": 10, "category": "Strength"},
    {"day": "Thursday", "exercise_name": "Plank", "sets": 3, "reps": "45s", "category": "balance"}
  ]
}`}

	if _, err := service.GeneratePlan(ctx, db, llm); err == nil {
		t.Fatalf("expected missing goal to fail")
	}
	if _, err := service.UpdateProfile(db, service.UpdateProfileInput{FitnessGoal: "muscle_gain", BodyType: "mesomorph"}); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	plan, err := service.GeneratePlan(ctx, db, llm)
	if err != nil {
		t.Fatalf("generate plan: %v", err)
	}
	if plan.PlanName != "Generated muscle gain plan" || plan.Goal != "muscle_gain" || plan.Intensity != "intermediate" || plan.DurationWeeks != 4 {
		t.Fatalf("unexpected plan header: %+v", plan)
	}
	if len(plan.Exercises) != 2 || plan.Exercises[0].Reps != "10" || plan.Exercises[1].Reps != "45s" || plan.Exercises[0].Category != "strength" {
		t.Fatalf("unexpected exercises: %+v", plan.Exercises)
	}
	if !strings.Contains(llm.prompts[0], "Body Type: mesomorph") {
		t.Fatalf("expected prompt to describe body type, got:\n%s", llm.prompts[0])
	}

	bad := &fakeCompleter{reply: `{"plan_name":"X","exercises":[{"day":"someday","exercise_name":"Run"}]}`}
	if _, err := service.GeneratePlan(ctx, db, bad); err == nil {
		t.Fatalf("expected invalid day from model to fail")
	}
}
