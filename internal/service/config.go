package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/fitflow/internal/metrics"
)

const (
	ConfigWaterGoalGlasses = "water_goal_glasses"
	ConfigSleepGoalHours   = "sleep_goal_hours"
	ConfigStepsGoal        = "steps_goal"
)

var numericConfigKeys = map[string]bool{
	ConfigWaterGoalGlasses: true,
	ConfigSleepGoalHours:   true,
	ConfigStepsGoal:        true,
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	if err := validateConfigValue(key, value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func validateConfigValue(key, value string) error {
	if numericConfigKeys[key] {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("config %q must be a positive number", key)
		}
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// VitalsGoals reads the daily water, sleep and steps goals, falling back to
// metrics.DefaultVitalsGoals for missing or unparsable values.
func VitalsGoals(db *sql.DB) (metrics.VitalsGoals, error) {
	goals := metrics.DefaultVitalsGoals
	values, err := ListConfig(db)
	if err != nil {
		return goals, err
	}
	for key, dst := range map[string]*float64{
		ConfigWaterGoalGlasses: &goals.WaterGlasses,
		ConfigSleepGoalHours:   &goals.SleepHours,
		ConfigStepsGoal:        &goals.Steps,
	} {
		raw, ok := values[key]
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v > 0 {
			*dst = v
		}
	}
	return goals, nil
}
