package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/saadjs/fitflow/internal/model"
)

const estimateSystemPrompt = `You are a nutrition assistant. Reply with a single JSON object of the form
{"foods":[{"name":string,"calories":number,"protein":number,"carbs":number,"fat":number,"serving_size":string}]}.
Give realistic estimates for a typical serving of each food mentioned.`

// EstimateFoods asks the model to break a free-text meal description into
// foods with estimated nutrition.
func EstimateFoods(ctx context.Context, llm JSONCompleter, description string) ([]model.FoodItem, error) {
	if llm == nil {
		return nil, fmt.Errorf("inference client is not configured")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("meal description is required")
	}
	var reply struct {
		Foods []model.FoodItem `json:"foods"`
	}
	prompt := fmt.Sprintf("Analyze this food description and estimate nutritional values:\n%q", description)
	if err := llm.CompleteJSON(ctx, estimateSystemPrompt, prompt, &reply); err != nil {
		return nil, fmt.Errorf("estimate foods: %w", err)
	}
	out := make([]model.FoodItem, 0, len(reply.Foods))
	for _, f := range reply.Foods {
		f, err := validateFood(f)
		if err != nil {
			return nil, fmt.Errorf("model returned an invalid food: %w", err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no foods for %q", description)
	}
	return out, nil
}

const planSystemPrompt = `You are a personal trainer. Reply with a single JSON object of the form
{"plan_name":string,"exercises":[{"day":"Monday".."Sunday","exercise_name":string,"description":string,
"duration_minutes":number,"sets":number,"reps":number or string,"category":"cardio"|"strength"|"flexibility"|"balance"}]}.`

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

type generatedPlan struct {
	PlanName  string `json:"plan_name"`
	Exercises []struct {
		Day             string     `json:"day"`
		ExerciseName    string     `json:"exercise_name"`
		Description     string     `json:"description"`
		DurationMinutes float64    `json:"duration_minutes"`
		Sets            float64    `json:"sets"`
		Reps            flexString `json:"reps"`
		Category        string     `json:"category"`
	} `json:"exercises"`
}

// GeneratePlan asks the model for a 4-week plan tailored to the stored
// profile, saves it as the latest plan and returns it.
func GeneratePlan(ctx context.Context, db *sql.DB, llm JSONCompleter) (*model.WorkoutPlan, error) {
	if llm == nil {
		return nil, fmt.Errorf("inference client is not configured")
	}
	profile, err := GetProfile(db)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.FitnessGoal == "" {
		return nil, fmt.Errorf("set a fitness goal with `profile set --goal` before generating a plan")
	}
	intensity := profile.WorkoutIntensity
	if intensity == "" {
		intensity = "intermediate"
	}
	goal := strings.ReplaceAll(string(profile.FitnessGoal), "_", " ")

	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized %s workout plan for:\n\nIntensity: %s\n", goal, intensity)
	if profile.BodyType != "" {
		fmt.Fprintf(&b, "Body Type: %s\n", profile.BodyType)
	}
	if profile.Age != nil {
		fmt.Fprintf(&b, "Age: %d\n", *profile.Age)
	}
	b.WriteString("\nGenerate a 4-week workout plan with exercises for each day of the week (Monday to Sunday), ")
	b.WriteString("mixing exercises appropriate for the goal and intensity. For each exercise include name, description, ")
	b.WriteString("duration in minutes, sets, reps and category.")

	var reply generatedPlan
	if err := llm.CompleteJSON(ctx, planSystemPrompt, b.String(), &reply); err != nil {
		return nil, fmt.Errorf("generate workout plan: %w", err)
	}

	plan := model.WorkoutPlan{
		PlanName:      reply.PlanName,
		Goal:          string(profile.FitnessGoal),
		Intensity:     intensity,
		DurationWeeks: 4,
		Exercises:     make([]model.PlanExercise, 0, len(reply.Exercises)),
	}
	if strings.TrimSpace(plan.PlanName) == "" {
		plan.PlanName = "Generated " + goal + " plan"
	}
	for _, ex := range reply.Exercises {
		plan.Exercises = append(plan.Exercises, model.PlanExercise{
			Day:             ex.Day,
			ExerciseName:    ex.ExerciseName,
			Category:        ex.Category,
			DurationMinutes: int(ex.DurationMinutes),
			Sets:            int(ex.Sets),
			Reps:            string(ex.Reps),
			Description:     ex.Description,
		})
	}
	if _, err := SavePlan(db, plan); err != nil {
		return nil, fmt.Errorf("save generated plan: %w", err)
	}
	return LatestPlan(db)
}
