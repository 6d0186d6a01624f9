package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type DoctorReport struct {
	OrphanMealFoods      int `json:"orphan_meal_foods"`
	OrphanExercises      int `json:"orphan_exercises"`
	OrphanPlanExercises  int `json:"orphan_plan_exercises"`
	StaleMealTotals      int `json:"stale_meal_totals"`
	DuplicateCompletions int `json:"duplicate_completions"`
	InvalidInsights      int `json:"invalid_insights"`
	FixedRows            int `json:"fixed_rows,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return r.OrphanMealFoods == 0 && r.OrphanExercises == 0 && r.OrphanPlanExercises == 0 &&
		r.StaleMealTotals == 0 && r.DuplicateCompletions == 0 && r.InvalidInsights == 0
}

func CreateBackup(dbPath, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(dbPath) == "" {
		return BackupInfo{}, fmt.Errorf("db path is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := copyFile(dbPath, outPath); err != nil {
		return BackupInfo{}, err
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	checksumFile := backupPath + ".sha256"
	if expected, err := os.ReadFile(checksumFile); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

const staleMealTotalsQuery = `
SELECT m.id
FROM meal_logs m
LEFT JOIN (
  SELECT meal_id, SUM(calories) AS c, SUM(protein_g) AS p, SUM(carbs_g) AS cb, SUM(fat_g) AS f
  FROM meal_foods GROUP BY meal_id
) s ON s.meal_id = m.id
WHERE ABS(m.total_calories - IFNULL(s.c, 0)) > 0.01
   OR ABS(m.total_protein_g - IFNULL(s.p, 0)) > 0.01
   OR ABS(m.total_carbs_g - IFNULL(s.cb, 0)) > 0.01
   OR ABS(m.total_fat_g - IFNULL(s.f, 0)) > 0.01
`

// RunDoctor checks for rows that foreign keys cannot protect:
// children written while foreign keys were off, cached meal totals, repeated
// completions of the same exercise on one day and unreadable insight bodies.
// With fix it repairs what it finds in a single transaction.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	counts := []struct {
		name  string
		query string
		dst   *int
	}{
		{"orphan meal foods", `SELECT COUNT(1) FROM meal_foods f LEFT JOIN meal_logs m ON m.id = f.meal_id WHERE m.id IS NULL`, &report.OrphanMealFoods},
		{"orphan exercises", `SELECT COUNT(1) FROM daily_exercises e LEFT JOIN daily_logs l ON l.log_date = e.log_date WHERE l.log_date IS NULL`, &report.OrphanExercises},
		{"orphan plan exercises", `SELECT COUNT(1) FROM plan_exercises e LEFT JOIN workout_plans p ON p.id = e.plan_id WHERE p.id IS NULL`, &report.OrphanPlanExercises},
		{"duplicate completions", `
SELECT COALESCE(SUM(cnt-1),0) FROM (
  SELECT COUNT(*) AS cnt FROM daily_exercises
  GROUP BY log_date, lower(exercise_name)
  HAVING cnt > 1
)`, &report.DuplicateCompletions},
	}
	for _, c := range counts {
		if err := db.QueryRow(c.query).Scan(c.dst); err != nil {
			return report, fmt.Errorf("doctor %s check: %w", c.name, err)
		}
	}

	staleIDs, err := scanIDs(db, staleMealTotalsQuery)
	if err != nil {
		return report, fmt.Errorf("doctor meal totals check: %w", err)
	}
	report.StaleMealTotals = len(staleIDs)

	rows, err := db.Query(`SELECT id, body_json FROM insights`)
	if err != nil {
		return report, fmt.Errorf("doctor insights query: %w", err)
	}
	invalidIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		var body string
		if err := rows.Scan(&id, &body); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor insights scan: %w", err)
		}
		if !json.Valid([]byte(strings.TrimSpace(body))) {
			report.InvalidInsights++
			invalidIDs = append(invalidIDs, id)
		}
	}
	_ = rows.Close()

	if !fix || report.Healthy() {
		return report, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("doctor fix begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deletes := []string{
		`DELETE FROM meal_foods WHERE meal_id NOT IN (SELECT id FROM meal_logs)`,
		`DELETE FROM daily_exercises WHERE log_date NOT IN (SELECT log_date FROM daily_logs)`,
		`DELETE FROM plan_exercises WHERE plan_id NOT IN (SELECT id FROM workout_plans)`,
		`DELETE FROM daily_exercises WHERE id NOT IN (
  SELECT MIN(id) FROM daily_exercises GROUP BY log_date, lower(exercise_name)
)`,
	}
	for _, stmt := range deletes {
		res, err := tx.Exec(stmt)
		if err != nil {
			return report, fmt.Errorf("doctor fix: %w", err)
		}
		n, _ := res.RowsAffected()
		report.FixedRows += int(n)
	}
	for _, id := range staleIDs {
		if err := refreshMealTotals(tx, id); err != nil {
			return report, fmt.Errorf("doctor fix meal %d totals: %w", id, err)
		}
		report.FixedRows++
	}
	for _, id := range invalidIDs {
		if _, err := tx.Exec(`DELETE FROM insights WHERE id = ?`, id); err != nil {
			return report, fmt.Errorf("doctor fix insights row %d: %w", id, err)
		}
		report.FixedRows++
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("doctor fix commit: %w", err)
	}
	return report, nil
}

func scanIDs(db *sql.DB, query string, args ...any) ([]int64, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
