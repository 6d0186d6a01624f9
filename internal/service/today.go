package service

import (
	"database/sql"
	"time"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
)

type TodayStatus struct {
	Date       string                  `json:"date"`
	HasProfile bool                    `json:"has_profile"`
	Targets    metrics.Targets         `json:"targets"`
	Meals      []model.MealLog         `json:"meals"`
	Adherence  metrics.MacroAdherence  `json:"adherence"`
	Vitals     *model.DailyLog         `json:"vitals,omitempty"`
	Goals      metrics.VitalsGoals     `json:"vitals_goals"`
	Progress   metrics.DailyProgress   `json:"progress"`
	Planned    []PlannedExerciseStatus `json:"planned_exercises"`
}

// TodaySummary assembles the dashboard for one day: nutrition against the
// profile's targets, vitals against the configured goals and the planned
// workout for that weekday.
func TodaySummary(db *sql.DB, date time.Time) (*TodayStatus, error) {
	day := formatDate(beginningOfDay(date))
	targets, profile, err := ProfileTargets(db)
	if err != nil {
		return nil, err
	}
	meals, err := ListMeals(db, day)
	if err != nil {
		return nil, err
	}
	log, err := GetDailyLog(db, day)
	if err != nil {
		return nil, err
	}
	goals, err := VitalsGoals(db)
	if err != nil {
		return nil, err
	}
	planned, err := PlanForDate(db, day)
	if err != nil {
		return nil, err
	}

	return &TodayStatus{
		Date:       day,
		HasProfile: profile != nil,
		Targets:    targets,
		Meals:      meals,
		Adherence:  metrics.ComputeMacroAdherence(metrics.SumMealTotals(meals), targets),
		Vitals:     log,
		Goals:      goals,
		Progress:   metrics.ComputeDailyProgress(log, goals),
		Planned:    planned,
	}, nil
}
