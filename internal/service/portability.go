package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/model"
)

const snapshotVersion = 1

// ExportData is a full JSON snapshot of the local database.
type ExportData struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exported_at"`
	Profile    *model.UserProfile  `json:"profile,omitempty"`
	DailyLogs  []model.DailyLog    `json:"daily_logs"`
	Meals      []model.MealLog     `json:"meals"`
	Plans      []model.WorkoutPlan `json:"plans"`
	Config     map[string]string   `json:"config"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Conflicts int      `json:"conflicts"`
	Warnings  []string `json:"warnings,omitempty"`
}

func ExportDataSnapshot(db *sql.DB) (*ExportData, error) {
	out := &ExportData{Version: snapshotVersion, ExportedAt: time.Now().UTC()}

	profile, err := GetProfile(db)
	if err != nil {
		return nil, err
	}
	out.Profile = profile

	logs, err := queryDailyLogs(db, "", 0)
	if err != nil {
		return nil, fmt.Errorf("export daily logs: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].LogDate < logs[j].LogDate })
	out.DailyLogs = logs

	meals, err := queryMeals(db, "")
	if err != nil {
		return nil, fmt.Errorf("export meals: %w", err)
	}
	out.Meals = meals

	plans, err := queryPlans(db, 0)
	if err != nil {
		return nil, fmt.Errorf("export plans: %w", err)
	}
	// oldest first so that a replayed import keeps the same latest plan
	for i, j := 0, len(plans)-1; i < j; i, j = i+1, j-1 {
		plans[i], plans[j] = plans[j], plans[i]
	}
	out.Plans = plans

	cfg, err := ListConfig(db)
	if err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	out.Config = cfg
	return out, nil
}

func ImportDataSnapshot(db *sql.DB, data *ExportData) (ImportReport, error) {
	return ImportDataSnapshotWithOptions(db, data, ImportOptions{Mode: ImportModeMerge})
}

// ImportDataSnapshotWithOptions loads a snapshot in one transaction. Rows that
// already exist (the profile, a day's log, a date's meal slot, a plan with the
// same name and creation time, a differing config value) are conflicts handled
// by mode. A dry run performs the whole import and then rolls it back.
func ImportDataSnapshotWithOptions(db *sql.DB, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	if data == nil {
		return report, fmt.Errorf("import snapshot is empty")
	}
	if data.Version > snapshotVersion {
		return report, fmt.Errorf("unsupported snapshot version %d (max %d)", data.Version, snapshotVersion)
	}
	mode := normalizeImportMode(opts.Mode)

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if mode == ImportModeReplace {
		if err := clearUserData(tx); err != nil {
			return report, err
		}
	}

	steps := []func(*sql.Tx, *ExportData, ImportMode, *ImportReport) error{
		importProfile,
		importDailyLogs,
		importMeals,
		importPlans,
		importConfig,
	}
	for _, step := range steps {
		if err := step(tx, data, mode, &report); err != nil {
			return report, err
		}
	}

	if opts.DryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit import tx: %w", err)
	}
	return report, nil
}

func normalizeImportMode(mode ImportMode) ImportMode {
	switch mode {
	case ImportModeFail, ImportModeSkip, ImportModeMerge, ImportModeReplace:
		return mode
	default:
		return ImportModeMerge
	}
}

// resolveConflict reports whether an existing row should be overwritten.
func resolveConflict(mode ImportMode, what string, report *ImportReport) (bool, error) {
	switch mode {
	case ImportModeFail:
		report.Conflicts++
		return false, fmt.Errorf("import conflict for %s", what)
	case ImportModeSkip:
		report.Skipped++
		return false, nil
	default:
		return true, nil
	}
}

func importProfile(tx *sql.Tx, data *ExportData, mode ImportMode, report *ImportReport) error {
	p := data.Profile
	if p == nil {
		return nil
	}
	if p.FitnessGoal != "" && !validGoals[p.FitnessGoal] {
		report.Warnings = append(report.Warnings, fmt.Sprintf("profile: unknown fitness goal %q dropped", p.FitnessGoal))
		p.FitnessGoal = ""
	}
	var exists int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM user_profile WHERE id = 1`).Scan(&exists); err != nil {
		return fmt.Errorf("check existing profile: %w", err)
	}
	if exists > 0 {
		overwrite, err := resolveConflict(mode, "profile", report)
		if err != nil || !overwrite {
			return err
		}
		report.Updated++
	} else {
		report.Inserted++
	}
	if _, err := tx.Exec(`
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
`, p.WeightKg, p.HeightCm, p.Age, string(p.FitnessGoal), string(p.BodyType), p.WorkoutIntensity); err != nil {
		return fmt.Errorf("import profile: %w", err)
	}
	return nil
}

func importDailyLogs(tx *sql.Tx, data *ExportData, mode ImportMode, report *ImportReport) error {
	for _, l := range data.DailyLogs {
		date, err := normalizeDate(l.LogDate)
		if err != nil || strings.TrimSpace(l.LogDate) == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("daily log %q: invalid date skipped", l.LogDate))
			continue
		}
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(1) FROM daily_logs WHERE log_date = ?`, date).Scan(&exists); err != nil {
			return fmt.Errorf("check daily log %s: %w", date, err)
		}
		if exists > 0 {
			overwrite, err := resolveConflict(mode, "daily log "+date, report)
			if err != nil {
				return err
			}
			if !overwrite {
				continue
			}
			if _, err := tx.Exec(`
UPDATE daily_logs SET water_glasses=?, sleep_hours=?, steps=?, notes=?, updated_at=CURRENT_TIMESTAMP
WHERE log_date = ?
`, l.WaterGlasses, l.SleepHours, l.Steps, l.Notes, date); err != nil {
				return fmt.Errorf("update daily log %s: %w", date, err)
			}
			report.Updated++
		} else {
			if _, err := tx.Exec(`
INSERT INTO daily_logs(log_date, water_glasses, sleep_hours, steps, notes)
VALUES(?, ?, ?, ?, ?)
`, date, l.WaterGlasses, l.SleepHours, l.Steps, l.Notes); err != nil {
				return fmt.Errorf("insert daily log %s: %w", date, err)
			}
			report.Inserted++
		}
		for _, ex := range l.ExercisesCompleted {
			name := strings.TrimSpace(ex.ExerciseName)
			if name == "" {
				continue
			}
			at := ex.CompletedAt
			if at.IsZero() {
				at = time.Now()
			}
			if _, err := tx.Exec(`
INSERT INTO daily_exercises(log_date, exercise_name, completed_at)
SELECT ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM daily_exercises WHERE log_date = ? AND lower(exercise_name) = lower(?))
`, date, name, at.Format(time.RFC3339), date, name); err != nil {
				return fmt.Errorf("import exercise %q on %s: %w", name, date, err)
			}
		}
	}
	return nil
}

func importMeals(tx *sql.Tx, data *ExportData, mode ImportMode, report *ImportReport) error {
	for _, m := range data.Meals {
		date, err := normalizeDate(m.LogDate)
		if err != nil || strings.TrimSpace(m.LogDate) == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("meal %q: invalid date skipped", m.LogDate))
			continue
		}
		mealType, err := parseMealType(string(m.MealType))
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("meal on %s: %v", date, err))
			continue
		}
		foods := make([]model.FoodItem, 0, len(m.Foods))
		for _, f := range m.Foods {
			f, err := validateFood(f)
			if err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s food on %s: %v", mealType, date, err))
				continue
			}
			foods = append(foods, f)
		}
		if len(foods) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s on %s has no valid foods", mealType, date))
			continue
		}

		var mealID int64
		err = tx.QueryRow(`SELECT id FROM meal_logs WHERE log_date = ? AND meal_type = ?`, date, string(mealType)).Scan(&mealID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find meal %s %s: %w", date, mealType, err)
		}
		if err == nil {
			overwrite, err := resolveConflict(mode, fmt.Sprintf("%s on %s", mealType, date), report)
			if err != nil {
				return err
			}
			if !overwrite {
				continue
			}
			if _, err := tx.Exec(`DELETE FROM meal_foods WHERE meal_id = ?`, mealID); err != nil {
				return fmt.Errorf("clear meal %d foods: %w", mealID, err)
			}
			report.Updated++
		} else {
			res, err := tx.Exec(`INSERT INTO meal_logs(log_date, meal_type) VALUES(?, ?)`, date, string(mealType))
			if err != nil {
				return fmt.Errorf("insert meal %s %s: %w", date, mealType, err)
			}
			if mealID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("resolve meal id: %w", err)
			}
			report.Inserted++
		}
		for i, f := range foods {
			if _, err := tx.Exec(`
INSERT INTO meal_foods(meal_id, position, name, calories, protein_g, carbs_g, fat_g, serving_size)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, mealID, i, f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG, f.ServingSize); err != nil {
				return fmt.Errorf("import food %q: %w", f.Name, err)
			}
		}
		if err := refreshMealTotals(tx, mealID); err != nil {
			return err
		}
	}
	return nil
}

func importPlans(tx *sql.Tx, data *ExportData, mode ImportMode, report *ImportReport) error {
	for _, p := range data.Plans {
		plan, err := normalizePlan(p)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("plan %q: %v", p.PlanName, err))
			continue
		}
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		var existingID int64
		err = tx.QueryRow(`SELECT id FROM workout_plans WHERE plan_name = ? AND created_at = ?`,
			plan.PlanName, createdAt.UTC().Format(time.RFC3339)).Scan(&existingID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find plan %q: %w", plan.PlanName, err)
		}
		if err == nil {
			overwrite, err := resolveConflict(mode, "plan "+plan.PlanName, report)
			if err != nil {
				return err
			}
			if !overwrite {
				continue
			}
			if _, err := tx.Exec(`DELETE FROM workout_plans WHERE id = ?`, existingID); err != nil {
				return fmt.Errorf("replace plan %q: %w", plan.PlanName, err)
			}
			report.Updated++
		} else {
			report.Inserted++
		}
		if _, err := insertPlan(tx, plan, createdAt); err != nil {
			return err
		}
	}
	return nil
}

func importConfig(tx *sql.Tx, data *ExportData, mode ImportMode, report *ImportReport) error {
	keys := make([]string, 0, len(data.Config))
	for k := range data.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := strings.TrimSpace(data.Config[key])
		if err := validateConfigValue(key, value); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("config %s: %v", key, err))
			continue
		}
		var current string
		err := tx.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&current)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find config %s: %w", key, err)
		}
		switch {
		case err == nil && current == value:
			continue
		case err == nil:
			overwrite, err := resolveConflict(mode, "config "+key, report)
			if err != nil {
				return err
			}
			if !overwrite {
				continue
			}
			report.Updated++
		default:
			report.Inserted++
		}
		if _, err := tx.Exec(`
INSERT INTO app_config(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value); err != nil {
			return fmt.Errorf("import config %s: %w", key, err)
		}
	}
	return nil
}

// clearUserData keeps configuration; replace mode overwrites it key by key.
func clearUserData(tx *sql.Tx) error {
	stmts := []string{
		`DELETE FROM meal_foods`,
		`DELETE FROM meal_logs`,
		`DELETE FROM daily_exercises`,
		`DELETE FROM daily_logs`,
		`DELETE FROM plan_exercises`,
		`DELETE FROM workout_plans`,
		`DELETE FROM insights`,
		`DELETE FROM user_profile`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("clear data for replace mode: %w", err)
		}
	}
	return nil
}
