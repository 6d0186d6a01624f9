package export

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

const (
	SheetSummary    = "Summary"
	SheetDailyLogs  = "Daily Logs"
	SheetMeals      = "Meals"
	SheetCompletion = "Completion"
)

// Report is everything one analytics workbook shows.
type Report struct {
	GeneratedAt time.Time
	Range       metrics.WindowRange
	FromDate    string
	ToDate      string
	Targets     metrics.Targets
	Vitals      metrics.RollingMetrics
	Logs        []model.DailyLog
	Meals       []model.MealLog
	Completion  []metrics.CompletionBucket
}

// Collect gathers the logs, meals and weekly completion for the range ending
// at asOf.
func Collect(db *sql.DB, rng metrics.WindowRange, asOf time.Time) (*Report, error) {
	vitals, err := service.VitalsRange(db, rng, asOf)
	if err != nil {
		return nil, err
	}
	targets, _, err := service.ProfileTargets(db)
	if err != nil {
		return nil, err
	}
	logs, err := service.ListDailyLogs(db, vitals.FromDate, vitals.ToDate)
	if err != nil {
		return nil, err
	}
	meals, err := service.ListMealsRange(db, vitals.FromDate, vitals.ToDate)
	if err != nil {
		return nil, err
	}
	completion, err := service.WorkoutCompletion(db, metrics.BucketWeek, asOf)
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt: time.Now(),
		Range:       vitals.Range,
		FromDate:    vitals.FromDate,
		ToDate:      vitals.ToDate,
		Targets:     targets,
		Vitals:      vitals.Metrics,
		Logs:        logs,
		Meals:       meals,
		Completion:  completion.Buckets,
	}, nil
}

// Workbook lays the report out on four sheets, oldest rows first.
func Workbook(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{SheetDailyLogs, SheetMeals, SheetCompletion} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	steps := []func(*excelize.File, *Report, int) error{
		writeSummary,
		writeDailyLogs,
		writeMeals,
		writeCompletion,
	}
	for _, step := range steps {
		if err := step(f, r, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteFile renders the report and saves it to path.
func WriteFile(r *Report, path string) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, r *Report, headerStyle int) error {
	m := r.Vitals
	rows := [][]any{
		{"Range", fmt.Sprintf("%s (%s to %s)", r.Range, r.FromDate, r.ToDate)},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"Calorie target", r.Targets.Calories},
		{"Protein target (g)", r.Targets.ProteinG},
		{"Carbs target (g)", r.Targets.CarbsG},
		{"Fat target (g)", r.Targets.FatG},
		{"Days logged", m.DaysLogged},
		{"Avg water (glasses)", round1(m.Averages.WaterGlasses)},
		{"Avg sleep (hours)", round1(m.Averages.SleepHours)},
		{"Avg steps", round1(m.Averages.Steps)},
		{"Workouts completed", m.TotalWorkouts},
		{"Water trend", trendCell(m.Trends.WaterGlasses)},
		{"Sleep trend", trendCell(m.Trends.SleepHours)},
		{"Steps trend", trendCell(m.Trends.Steps)},
	}
	if err := writeRows(f, SheetSummary, []any{"Metric", "Value"}, rows, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 28)
}

func writeDailyLogs(f *excelize.File, r *Report, headerStyle int) error {
	rows := make([][]any, 0, len(r.Logs))
	for i := len(r.Logs) - 1; i >= 0; i-- {
		l := r.Logs[i]
		rows = append(rows, []any{l.LogDate, l.WaterGlasses, l.SleepHours, l.Steps, len(l.ExercisesCompleted), l.Notes})
	}
	header := []any{"Date", "Water (glasses)", "Sleep (h)", "Steps", "Exercises", "Notes"}
	if err := writeRows(f, SheetDailyLogs, header, rows, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SheetDailyLogs, "A", "F", 16)
}

func writeMeals(f *excelize.File, r *Report, headerStyle int) error {
	rows := make([][]any, 0, len(r.Meals))
	for _, m := range r.Meals {
		for _, food := range m.Foods {
			rows = append(rows, []any{m.LogDate, string(m.MealType), food.Name, food.ServingSize, food.Calories, food.ProteinG, food.CarbsG, food.FatG})
		}
	}
	header := []any{"Date", "Meal", "Food", "Serving", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)"}
	if err := writeRows(f, SheetMeals, header, rows, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SheetMeals, "C", "C", 32)
}

func writeCompletion(f *excelize.File, r *Report, headerStyle int) error {
	rows := make([][]any, 0, len(r.Completion))
	for _, b := range r.Completion {
		rows = append(rows, []any{b.Label, b.FromDate, b.ToDate, b.Completed, b.Expected, b.Percentage, string(b.Tier)})
	}
	header := []any{"Bucket", "From", "To", "Completed", "Expected", "Percent", "Tier"}
	return writeRows(f, SheetCompletion, header, rows, headerStyle)
}

func trendCell(t metrics.TrendStat) string {
	return fmt.Sprintf("%s %+.1f%%", t.Direction, t.Percent)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
