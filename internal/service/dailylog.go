package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/model"
)

// UpsertDailyLogInput updates one day's vitals. Nil fields keep their stored
// value, or zero when the day has no log yet.
type UpsertDailyLogInput struct {
	Date         string
	WaterGlasses *int
	SleepHours   *float64
	Steps        *int
	Notes        *string
}

func UpsertDailyLog(db *sql.DB, in UpsertDailyLogInput) (*model.DailyLog, error) {
	date, err := normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.WaterGlasses != nil {
		if err := validateNonNegativeInt("water glasses", *in.WaterGlasses); err != nil {
			return nil, err
		}
	}
	if in.SleepHours != nil {
		if err := validateNonNegativeFloat("sleep hours", *in.SleepHours); err != nil {
			return nil, err
		}
		if *in.SleepHours > 24 {
			return nil, fmt.Errorf("sleep hours must be <= 24")
		}
	}
	if in.Steps != nil {
		if err := validateNonNegativeInt("steps", *in.Steps); err != nil {
			return nil, err
		}
	}

	current, err := GetDailyLog(db, date)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &model.DailyLog{LogDate: date}
	}
	if in.WaterGlasses != nil {
		current.WaterGlasses = *in.WaterGlasses
	}
	if in.SleepHours != nil {
		current.SleepHours = *in.SleepHours
	}
	if in.Steps != nil {
		current.Steps = *in.Steps
	}
	if in.Notes != nil {
		current.Notes = strings.TrimSpace(*in.Notes)
	}

	if _, err := db.Exec(`
INSERT INTO daily_logs(log_date, water_glasses, sleep_hours, steps, notes, updated_at)
VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(log_date) DO UPDATE SET
  water_glasses=excluded.water_glasses,
  sleep_hours=excluded.sleep_hours,
  steps=excluded.steps,
  notes=excluded.notes,
  updated_at=excluded.updated_at
`, date, current.WaterGlasses, current.SleepHours, current.Steps, current.Notes); err != nil {
		return nil, fmt.Errorf("save daily log %s: %w", date, err)
	}
	return GetDailyLog(db, date)
}

// GetDailyLog returns nil when the date has no log.
func GetDailyLog(db *sql.DB, date string) (*model.DailyLog, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	logs, err := queryDailyLogs(db, `WHERE log_date = ?`, 0, date)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}

// ListDailyLogs returns logs within [from, to], newest first.
func ListDailyLogs(db *sql.DB, from, to string) ([]model.DailyLog, error) {
	from, err := normalizeDate(from)
	if err != nil {
		return nil, err
	}
	to, err = normalizeDate(to)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("from date must be <= to date")
	}
	return queryDailyLogs(db, `WHERE log_date >= ? AND log_date <= ?`, 0, from, to)
}

// RecentDailyLogs returns logs from the days calendar days ending at asOf,
// newest first.
func RecentDailyLogs(db *sql.DB, asOf time.Time, days int) ([]model.DailyLog, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be > 0")
	}
	end := beginningOfDay(asOf)
	start := end.AddDate(0, 0, -(days - 1))
	return ListDailyLogs(db, formatDate(start), formatDate(end))
}

// LatestDailyLogs returns up to limit logs regardless of date, newest first.
func LatestDailyLogs(db *sql.DB, limit int) ([]model.DailyLog, error) {
	if limit <= 0 {
		limit = 30
	}
	return queryDailyLogs(db, "", limit)
}

func queryDailyLogs(db *sql.DB, where string, limit int, args ...any) ([]model.DailyLog, error) {
	query := `
SELECT log_date, water_glasses, sleep_hours, steps, notes
FROM daily_logs
` + where + `
ORDER BY log_date DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.DailyLog, 0)
	index := map[string]int{}
	for rows.Next() {
		var l model.DailyLog
		if err := rows.Scan(&l.LogDate, &l.WaterGlasses, &l.SleepHours, &l.Steps, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		l.ExercisesCompleted = []model.CompletedExercise{}
		index[l.LogDate] = len(logs)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily logs: %w", err)
	}
	rows.Close()
	if len(logs) == 0 {
		return logs, nil
	}

	exRows, err := db.Query(`
SELECT log_date, exercise_name, completed_at
FROM daily_exercises
WHERE log_date >= ? AND log_date <= ?
ORDER BY log_date DESC, completed_at ASC, id ASC
`, logs[len(logs)-1].LogDate, logs[0].LogDate)
	if err != nil {
		return nil, fmt.Errorf("list completed exercises: %w", err)
	}
	defer exRows.Close()
	for exRows.Next() {
		var (
			date        string
			ex          model.CompletedExercise
			completedAt string
		)
		if err := exRows.Scan(&date, &ex.ExerciseName, &completedAt); err != nil {
			return nil, fmt.Errorf("scan completed exercise: %w", err)
		}
		ex.CompletedAt = parseStoredTime(completedAt)
		if i, ok := index[date]; ok {
			logs[i].ExercisesCompleted = append(logs[i].ExercisesCompleted, ex)
		}
	}
	if err := exRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed exercises: %w", err)
	}
	return logs, nil
}

// MarkExerciseDone records an exercise as completed on date, creating the
// day's log when needed. Marking an already completed exercise is a no-op.
func MarkExerciseDone(db *sql.DB, date, exerciseName string, at time.Time) (*model.DailyLog, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return nil, fmt.Errorf("exercise name is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO daily_logs(log_date) VALUES(?)`, date); err != nil {
		return nil, fmt.Errorf("ensure daily log %s: %w", date, err)
	}
	var exists int
	err = tx.QueryRow(`SELECT COUNT(1) FROM daily_exercises WHERE log_date = ? AND lower(exercise_name) = lower(?)`, date, exerciseName).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check completed exercise: %w", err)
	}
	if exists == 0 {
		if _, err := tx.Exec(`INSERT INTO daily_exercises(log_date, exercise_name, completed_at) VALUES(?, ?, ?)`, date, exerciseName, at.Format(time.RFC3339)); err != nil {
			return nil, fmt.Errorf("record completed exercise: %w", err)
		}
		if _, err := tx.Exec(`UPDATE daily_logs SET updated_at = CURRENT_TIMESTAMP WHERE log_date = ?`, date); err != nil {
			return nil, fmt.Errorf("touch daily log %s: %w", date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit completed exercise: %w", err)
	}
	return GetDailyLog(db, date)
}

// UndoExercise removes an exercise from date's completed list.
func UndoExercise(db *sql.DB, date, exerciseName string) (*model.DailyLog, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return nil, fmt.Errorf("exercise name is required")
	}
	res, err := db.Exec(`DELETE FROM daily_exercises WHERE log_date = ? AND lower(exercise_name) = lower(?)`, date, exerciseName)
	if err != nil {
		return nil, fmt.Errorf("undo exercise: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("undo exercise rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("exercise %q is not completed on %s", exerciseName, date)
	}
	return GetDailyLog(db, date)
}
