package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
)

// JSONCompleter is a chat model that answers with a JSON object.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, system, prompt string, out any) error
}

type InsightKind string

const (
	InsightsFitness   InsightKind = "fitness"
	InsightsNutrition InsightKind = "nutrition"

	insightWindowDays = 30
	minFitnessLogs    = 3
	minNutritionDays  = 2
)

type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Metric      string `json:"metric,omitempty"`
}

type InsightReport struct {
	ID                int64       `json:"id,omitempty"`
	Kind              InsightKind `json:"kind"`
	Insights          []Insight   `json:"insights"`
	OverallScore      float64     `json:"overall_score"`
	TopRecommendation string      `json:"top_recommendation"`
	CreatedAt         time.Time   `json:"created_at"`
}

var insightTypes = map[string]bool{"positive": true, "warning": true, "suggestion": true, "correlation": true}

const insightSystemPrompt = `You are a fitness and nutrition coach. Reply with a single JSON object of the form
{"insights":[{"title":string,"description":string,"type":"positive"|"warning"|"suggestion"|"correlation","metric":string}],
 "overall_score":number (0-100),"top_recommendation":string}. Be specific with numbers and percentages.`

// GenerateInsights asks the model for coaching insights over recent data,
// stores the reply and returns it. Fitness insights need at least three daily
// logs; nutrition insights need meals on at least two days.
func GenerateInsights(ctx context.Context, db *sql.DB, llm JSONCompleter, kind InsightKind, asOf time.Time) (*InsightReport, error) {
	if llm == nil {
		return nil, fmt.Errorf("inference client is not configured")
	}
	profile, err := GetProfile(db)
	if err != nil {
		return nil, err
	}

	var prompt string
	switch kind {
	case InsightsNutrition:
		prompt, err = nutritionInsightPrompt(db, profile, asOf)
	case InsightsFitness, "":
		kind = InsightsFitness
		prompt, err = fitnessInsightPrompt(db, profile)
	default:
		return nil, fmt.Errorf("unknown insights kind %q (expected fitness or nutrition)", kind)
	}
	if err != nil {
		return nil, err
	}

	report := &InsightReport{Kind: kind}
	if err := llm.CompleteJSON(ctx, insightSystemPrompt, prompt, report); err != nil {
		return nil, fmt.Errorf("generate %s insights: %w", kind, err)
	}
	report.Kind = kind
	report.OverallScore = math.Max(0, math.Min(100, report.OverallScore))
	for i := range report.Insights {
		t := normalizeName(report.Insights[i].Type)
		if !insightTypes[t] {
			t = "suggestion"
		}
		report.Insights[i].Type = t
	}
	if report.Insights == nil {
		report.Insights = []Insight{}
	}
	report.CreatedAt = time.Now().UTC()

	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode insights: %w", err)
	}
	res, err := db.Exec(`INSERT INTO insights(kind, window_days, body_json, created_at) VALUES(?, ?, ?, ?)`,
		string(kind), insightWindowDays, string(body), report.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("store insights: %w", err)
	}
	if report.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("resolve insights id: %w", err)
	}
	return report, nil
}

// ListInsights returns stored insight reports, newest first.
func ListInsights(db *sql.DB, limit int) ([]InsightReport, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT id, body_json FROM insights ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()
	out := make([]InsightReport, 0)
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan insights: %w", err)
		}
		var r InsightReport
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode stored insights %d: %w", id, err)
		}
		r.ID = id
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return out, nil
}

func describeProfile(p *model.UserProfile) string {
	goal := "general fitness"
	weight := "N/A"
	bodyType := "N/A"
	intensity := "intermediate"
	if p != nil {
		if p.FitnessGoal != "" {
			goal = strings.ReplaceAll(string(p.FitnessGoal), "_", " ")
		}
		if p.WeightKg != nil {
			weight = fmt.Sprintf("%.1f kg", *p.WeightKg)
		}
		if p.BodyType != "" {
			bodyType = string(p.BodyType)
		}
		if p.WorkoutIntensity != "" {
			intensity = p.WorkoutIntensity
		}
	}
	return fmt.Sprintf("User Profile:\n- Fitness Goal: %s\n- Workout Intensity: %s\n- Current Weight: %s\n- Body Type: %s\n",
		goal, intensity, weight, bodyType)
}

func fitnessInsightPrompt(db *sql.DB, profile *model.UserProfile) (string, error) {
	logs, err := LatestDailyLogs(db, insightWindowDays)
	if err != nil {
		return "", err
	}
	if len(logs) < minFitnessLogs {
		return "", fmt.Errorf("need at least %d daily logs for fitness insights, have %d", minFitnessLogs, len(logs))
	}
	m := metrics.ComputeRollingMetrics(logs, insightWindowDays)

	var b strings.Builder
	b.WriteString("Analyze this fitness data and provide 4-5 actionable insights.\n\n")
	b.WriteString(describeProfile(profile))
	fmt.Fprintf(&b, "\nLast %d Days Summary:\n", insightWindowDays)
	fmt.Fprintf(&b, "- Average Sleep: %.1f hours/night (trend %s, %.0f%%)\n", m.Averages.SleepHours, m.Trends.SleepHours.Direction, m.Trends.SleepHours.Percent)
	fmt.Fprintf(&b, "- Average Water: %.1f glasses/day (trend %s, %.0f%%)\n", m.Averages.WaterGlasses, m.Trends.WaterGlasses.Direction, m.Trends.WaterGlasses.Percent)
	fmt.Fprintf(&b, "- Average Steps: %.0f/day (trend %s, %.0f%%)\n", m.Averages.Steps, m.Trends.Steps.Direction, m.Trends.Steps.Percent)
	fmt.Fprintf(&b, "- Total Workouts Completed: %d exercises\n", m.TotalWorkouts)
	fmt.Fprintf(&b, "\nDaily Logs (recent %d days):\n", min(len(logs), 10))
	for _, l := range logs[:min(len(logs), 10)] {
		fmt.Fprintf(&b, "Date: %s, Sleep: %.1fh, Water: %d, Steps: %d, Exercises: %d\n",
			l.LogDate, l.SleepHours, l.WaterGlasses, l.Steps, len(l.ExercisesCompleted))
	}
	b.WriteString("\nCover correlations between sleep, water and workouts, good and bad habits, specific improvements and predictions from the trends.")
	return b.String(), nil
}

func nutritionInsightPrompt(db *sql.DB, profile *model.UserProfile, asOf time.Time) (string, error) {
	end := beginningOfDay(asOf)
	week, err := NutritionRange(db, end.AddDate(0, 0, -6), end, 0.10)
	if err != nil {
		return "", err
	}
	if week.DaysWithMeals < minNutritionDays {
		return "", fmt.Errorf("need meals on at least %d days for nutrition insights, have %d", minNutritionDays, week.DaysWithMeals)
	}
	today, err := ListMeals(db, formatDate(end))
	if err != nil {
		return "", err
	}
	totals := metrics.SumMealTotals(today)

	var b strings.Builder
	b.WriteString("Analyze this nutrition data and provide 3-4 actionable insights.\n\n")
	b.WriteString(describeProfile(profile))
	fmt.Fprintf(&b, "\nDaily Targets: %d kcal, %dg protein, %dg carbs, %dg fat\n",
		week.Targets.Calories, week.Targets.ProteinG, week.Targets.CarbsG, week.Targets.FatG)
	fmt.Fprintf(&b, "\nWeekly Nutrition Averages (per logged day):\n- Calories: %.0f kcal\n- Protein: %.0fg\n- Carbs: %.0fg\n- Fat: %.0fg\n",
		week.AverageCaloriesPerDay, week.AverageProteinPerDay, week.AverageCarbsPerDay, week.AverageFatPerDay)
	fmt.Fprintf(&b, "\nToday's Intake:\n- Calories: %.0f kcal\n- Protein: %.0fg\n- Carbs: %.0fg\n- Fat: %.0fg\n",
		totals.Calories, totals.ProteinG, totals.CarbsG, totals.FatG)
	b.WriteString("\nCover goal alignment (as overall_score), macro adjustments, links to workout performance and meal timing or food suggestions.")
	return b.String(), nil
}
