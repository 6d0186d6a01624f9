package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
)

var (
	validGoals = map[model.FitnessGoal]bool{
		model.GoalWeightLoss:         true,
		model.GoalMuscleGain:         true,
		model.GoalGeneral:            true,
		model.GoalFlexibility:        true,
		model.GoalPostureImprovement: true,
		model.GoalEndurance:          true,
	}
	validBodyTypes = map[model.BodyType]bool{
		model.BodyTypeEctomorph: true,
		model.BodyTypeMesomorph: true,
		model.BodyTypeEndomorph: true,
	}
	validIntensities = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}
)

// UpdateProfileInput carries the fields to change. Nil or empty fields keep
// their stored value.
type UpdateProfileInput struct {
	WeightKg         *float64
	HeightCm         *float64
	Age              *int
	FitnessGoal      string
	BodyType         string
	WorkoutIntensity string
}

func GetProfile(db *sql.DB) (*model.UserProfile, error) {
	var (
		p         model.UserProfile
		weight    sql.NullFloat64
		height    sql.NullFloat64
		age       sql.NullInt64
		goal      string
		bodyType  string
		updatedAt string
	)
	err := db.QueryRow(`
SELECT weight_kg, height_cm, age, fitness_goal, body_type, workout_intensity, updated_at
FROM user_profile WHERE id = 1
`).Scan(&weight, &height, &age, &goal, &bodyType, &p.WorkoutIntensity, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if weight.Valid {
		p.WeightKg = &weight.Float64
	}
	if height.Valid {
		p.HeightCm = &height.Float64
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.FitnessGoal = model.FitnessGoal(goal)
	p.BodyType = model.BodyType(bodyType)
	p.UpdatedAt = parseStoredTime(updatedAt)
	return &p, nil
}

func UpdateProfile(db *sql.DB, in UpdateProfileInput) (*model.UserProfile, error) {
	if in.WeightKg != nil && *in.WeightKg <= 0 {
		return nil, fmt.Errorf("weight must be > 0")
	}
	if in.HeightCm != nil && *in.HeightCm <= 0 {
		return nil, fmt.Errorf("height must be > 0")
	}
	if in.Age != nil && *in.Age <= 0 {
		return nil, fmt.Errorf("age must be > 0")
	}
	goal := model.FitnessGoal(normalizeName(in.FitnessGoal))
	if goal != "" && !validGoals[goal] {
		return nil, fmt.Errorf("unknown fitness goal %q", in.FitnessGoal)
	}
	bodyType := model.BodyType(normalizeName(in.BodyType))
	if bodyType != "" && !validBodyTypes[bodyType] {
		return nil, fmt.Errorf("unknown body type %q", in.BodyType)
	}
	intensity := normalizeName(in.WorkoutIntensity)
	if intensity != "" && !validIntensities[intensity] {
		return nil, fmt.Errorf("unknown workout intensity %q (expected beginner, intermediate or advanced)", in.WorkoutIntensity)
	}

	current, err := GetProfile(db)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &model.UserProfile{}
	}
	if in.WeightKg != nil {
		current.WeightKg = in.WeightKg
	}
	if in.HeightCm != nil {
		current.HeightCm = in.HeightCm
	}
	if in.Age != nil {
		current.Age = in.Age
	}
	if goal != "" {
		current.FitnessGoal = goal
	}
	if bodyType != "" {
		current.BodyType = bodyType
	}
	if intensity != "" {
		current.WorkoutIntensity = intensity
	}

	_, err = db.Exec(`
INSERT INTO user_profile(id, weight_kg, height_cm, age, fitness_goal, body_type, workout_intensity, updated_at)
VALUES(1, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  weight_kg=excluded.weight_kg,
  height_cm=excluded.height_cm,
  age=excluded.age,
  fitness_goal=excluded.fitness_goal,
  body_type=excluded.body_type,
  workout_intensity=excluded.workout_intensity,
  updated_at=excluded.updated_at
`, current.WeightKg, current.HeightCm, current.Age, string(current.FitnessGoal), string(current.BodyType), current.WorkoutIntensity)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return GetProfile(db)
}

// ProfileTargets derives daily targets from the stored profile, falling back
// to defaults when no profile exists.
func ProfileTargets(db *sql.DB) (metrics.Targets, *model.UserProfile, error) {
	p, err := GetProfile(db)
	if err != nil {
		return metrics.Targets{}, nil, err
	}
	return metrics.ComputeTargets(p), p, nil
}

func parseStoredTime(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
