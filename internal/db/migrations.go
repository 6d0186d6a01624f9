package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_profile (
  id INTEGER PRIMARY KEY CHECK(id = 1),
  weight_kg REAL,
  height_cm REAL,
  age INTEGER,
  fitness_goal TEXT NOT NULL DEFAULT '',
  body_type TEXT NOT NULL DEFAULT '',
  workout_intensity TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS daily_logs (
  log_date TEXT PRIMARY KEY,
  water_glasses INTEGER NOT NULL DEFAULT 0 CHECK(water_glasses >= 0),
  sleep_hours REAL NOT NULL DEFAULT 0 CHECK(sleep_hours >= 0),
  steps INTEGER NOT NULL DEFAULT 0 CHECK(steps >= 0),
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS daily_exercises (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  log_date TEXT NOT NULL,
  exercise_name TEXT NOT NULL,
  completed_at DATETIME NOT NULL,
  FOREIGN KEY(log_date) REFERENCES daily_logs(log_date) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_daily_exercises_log_date ON daily_exercises(log_date);
`,
	},
	{
		version: 2,
		name:    "meal_logs",
		sql: `
CREATE TABLE IF NOT EXISTS meal_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  log_date TEXT NOT NULL,
  meal_type TEXT NOT NULL CHECK(meal_type IN ('breakfast', 'lunch', 'dinner', 'snack')),
  total_calories REAL NOT NULL DEFAULT 0 CHECK(total_calories >= 0),
  total_protein_g REAL NOT NULL DEFAULT 0 CHECK(total_protein_g >= 0),
  total_carbs_g REAL NOT NULL DEFAULT 0 CHECK(total_carbs_g >= 0),
  total_fat_g REAL NOT NULL DEFAULT 0 CHECK(total_fat_g >= 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(log_date, meal_type)
);

CREATE TABLE IF NOT EXISTS meal_foods (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  meal_id INTEGER NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  calories REAL NOT NULL DEFAULT 0 CHECK(calories >= 0),
  protein_g REAL NOT NULL DEFAULT 0 CHECK(protein_g >= 0),
  carbs_g REAL NOT NULL DEFAULT 0 CHECK(carbs_g >= 0),
  fat_g REAL NOT NULL DEFAULT 0 CHECK(fat_g >= 0),
  serving_size TEXT NOT NULL DEFAULT '',
  FOREIGN KEY(meal_id) REFERENCES meal_logs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_meal_logs_log_date ON meal_logs(log_date);
CREATE INDEX IF NOT EXISTS idx_meal_foods_meal_id ON meal_foods(meal_id);
`,
	},
	{
		version: 3,
		name:    "workout_plans",
		sql: `
CREATE TABLE IF NOT EXISTS workout_plans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  plan_name TEXT NOT NULL,
  goal TEXT NOT NULL DEFAULT '',
  intensity TEXT NOT NULL DEFAULT '',
  duration_weeks INTEGER NOT NULL DEFAULT 0 CHECK(duration_weeks >= 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS plan_exercises (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  plan_id INTEGER NOT NULL,
  position INTEGER NOT NULL,
  day TEXT NOT NULL,
  exercise_name TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  duration_minutes INTEGER NOT NULL DEFAULT 0 CHECK(duration_minutes >= 0),
  sets INTEGER NOT NULL DEFAULT 0 CHECK(sets >= 0),
  reps TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  FOREIGN KEY(plan_id) REFERENCES workout_plans(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_plan_exercises_plan_id ON plan_exercises(plan_id);
`,
	},
	{
		version: 4,
		name:    "app_config",
		sql: `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 5,
		name:    "insight_history",
		sql: `
CREATE TABLE IF NOT EXISTS insights (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL CHECK(kind IN ('fitness', 'nutrition')),
  window_days INTEGER NOT NULL CHECK(window_days > 0),
  body_json TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_insights_created_at ON insights(created_at);
`,
	},
	{
		version: 6,
		name:    "provider_search_cache",
		sql: `
CREATE TABLE IF NOT EXISTS provider_search_cache (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  query TEXT NOT NULL,
  query_norm TEXT NOT NULL,
  limit_requested INTEGER NOT NULL CHECK(limit_requested > 0),
  results_json TEXT NOT NULL,
  fetched_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  UNIQUE(provider, query_norm, limit_requested)
);

CREATE INDEX IF NOT EXISTS idx_provider_search_cache_expires_at ON provider_search_cache(expires_at);
`,
	},
}

var defaultConfig = map[string]string{
	"water_goal_glasses": "8",
	"sleep_goal_hours":   "8",
	"steps_goal":         "10000",
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	for key, value := range defaultConfig {
		if _, err := db.Exec(`INSERT OR IGNORE INTO app_config(key, value) VALUES(?, ?)`, key, value); err != nil {
			return fmt.Errorf("seed default config %s: %w", key, err)
		}
	}

	return nil
}
