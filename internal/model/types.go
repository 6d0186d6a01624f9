package model

import "time"

type FitnessGoal string

const (
	GoalWeightLoss         FitnessGoal = "weight_loss"
	GoalMuscleGain         FitnessGoal = "muscle_gain"
	GoalGeneral            FitnessGoal = "general"
	GoalFlexibility        FitnessGoal = "flexibility"
	GoalPostureImprovement FitnessGoal = "posture_improvement"
	GoalEndurance          FitnessGoal = "endurance"
)

type BodyType string

const (
	BodyTypeEctomorph BodyType = "ectomorph"
	BodyTypeMesomorph BodyType = "mesomorph"
	BodyTypeEndomorph BodyType = "endomorph"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists the meal slots in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

type UserProfile struct {
	WeightKg         *float64    `json:"weight_kg,omitempty" yaml:"weight_kg,omitempty"`
	HeightCm         *float64    `json:"height_cm,omitempty" yaml:"height_cm,omitempty"`
	Age              *int        `json:"age,omitempty" yaml:"age,omitempty"`
	FitnessGoal      FitnessGoal `json:"fitness_goal" yaml:"fitness_goal"`
	BodyType         BodyType    `json:"body_type,omitempty" yaml:"body_type,omitempty"`
	WorkoutIntensity string      `json:"workout_intensity,omitempty" yaml:"workout_intensity,omitempty"`
	UpdatedAt        time.Time   `json:"updated_at" yaml:"-"`
}

type CompletedExercise struct {
	ExerciseName string    `json:"exercise_name"`
	CompletedAt  time.Time `json:"completed_at"`
}

type DailyLog struct {
	LogDate            string              `json:"log_date"`
	WaterGlasses       int                 `json:"water_glasses"`
	SleepHours         float64             `json:"sleep_hours"`
	Steps              int                 `json:"steps"`
	Notes              string              `json:"notes,omitempty"`
	ExercisesCompleted []CompletedExercise `json:"exercises_completed"`
}

type FoodItem struct {
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	ProteinG    float64 `json:"protein"`
	CarbsG      float64 `json:"carbs"`
	FatG        float64 `json:"fat"`
	ServingSize string  `json:"serving_size,omitempty"`
}

type MealLog struct {
	ID            int64      `json:"id"`
	LogDate       string     `json:"log_date"`
	MealType      MealType   `json:"meal_type"`
	Foods         []FoodItem `json:"foods"`
	TotalCalories float64    `json:"total_calories"`
	TotalProteinG float64    `json:"total_protein"`
	TotalCarbsG   float64    `json:"total_carbs"`
	TotalFatG     float64    `json:"total_fat"`
}

type PlanExercise struct {
	Day             string `json:"day" yaml:"day"`
	ExerciseName    string `json:"exercise_name" yaml:"exercise_name"`
	Category        string `json:"category,omitempty" yaml:"category,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Sets            int    `json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps            string `json:"reps,omitempty" yaml:"reps,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
}

type WorkoutPlan struct {
	ID            int64          `json:"id" yaml:"-"`
	PlanName      string         `json:"plan_name" yaml:"plan_name"`
	Goal          string         `json:"goal" yaml:"goal"`
	Intensity     string         `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	DurationWeeks int            `json:"duration_weeks,omitempty" yaml:"duration_weeks,omitempty"`
	Exercises     []PlanExercise `json:"exercises" yaml:"exercises"`
	CreatedAt     time.Time      `json:"created_at" yaml:"-"`
}
