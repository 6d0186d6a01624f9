package metrics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/model"
)

type BucketMode string

const (
	BucketDay   BucketMode = "day"
	BucketWeek  BucketMode = "week"
	BucketMonth BucketMode = "month"
)

const (
	// MonthlyExpectedExercises stands in for the plan in month mode: plans are
	// weekly and carry no month-level expectation.
	MonthlyExpectedExercises = 60

	dayBuckets   = 7
	weekBuckets  = 4
	monthBuckets = 12
)

type CompletionTier string

const (
	TierHigh   CompletionTier = "high"
	TierMedium CompletionTier = "medium"
	TierLow    CompletionTier = "low"

	CompletionHighPct   = 80
	CompletionMediumPct = 50
)

type CompletionBucket struct {
	Label      string         `json:"label"`
	FromDate   string         `json:"from_date"`
	ToDate     string         `json:"to_date"`
	Completed  int            `json:"completed"`
	Expected   int            `json:"expected"`
	Percentage int            `json:"percentage"`
	Tier       CompletionTier `json:"tier"`
}

// ComputeWorkoutCompletion compares completed exercises with the plan for the
// last 7 days, the last 4 Sunday-start weeks or the last 12 calendar months
// ending at asOf. Buckets are returned oldest first. An unknown mode is
// treated as BucketDay.
func ComputeWorkoutCompletion(logs []model.DailyLog, plan *model.WorkoutPlan, mode BucketMode, asOf time.Time) []CompletionBucket {
	completedByDate := make(map[string]int, len(logs))
	for _, l := range logs {
		if _, seen := completedByDate[l.LogDate]; seen {
			continue
		}
		completedByDate[l.LogDate] = len(l.ExercisesCompleted)
	}
	expectedByDay := plannedPerWeekday(plan)
	today := civilDate(asOf)

	switch mode {
	case BucketWeek:
		return weekCompletion(completedByDate, expectedByDay, today)
	case BucketMonth:
		return monthCompletion(completedByDate, today)
	default:
		return dayCompletion(completedByDate, expectedByDay, today)
	}
}

func dayCompletion(completed map[string]int, expected map[time.Weekday]int, today time.Time) []CompletionBucket {
	out := make([]CompletionBucket, 0, dayBuckets)
	for i := dayBuckets - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format(DateLayout)
		b := CompletionBucket{
			Label:     d.Format("Mon"),
			FromDate:  key,
			ToDate:    key,
			Completed: completed[key],
			Expected:  expected[d.Weekday()],
		}
		b.Percentage = completionPct(b.Completed, b.Expected)
		b.Tier = ClassifyCompletion(b.Percentage)
		out = append(out, b)
	}
	return out
}

func weekCompletion(completed map[string]int, expected map[time.Weekday]int, today time.Time) []CompletionBucket {
	out := make([]CompletionBucket, 0, weekBuckets)
	for i := weekBuckets - 1; i >= 0; i-- {
		start := StartOfWeek(today.AddDate(0, 0, -7*i))
		b := CompletionBucket{
			Label:    "Week " + strconv.Itoa(weekBuckets-i),
			FromDate: start.Format(DateLayout),
			ToDate:   start.AddDate(0, 0, 6).Format(DateLayout),
		}
		for d := 0; d < 7; d++ {
			day := start.AddDate(0, 0, d)
			b.Completed += completed[day.Format(DateLayout)]
			b.Expected += expected[day.Weekday()]
		}
		b.Percentage = completionPct(b.Completed, b.Expected)
		b.Tier = ClassifyCompletion(b.Percentage)
		out = append(out, b)
	}
	return out
}

func monthCompletion(completed map[string]int, today time.Time) []CompletionBucket {
	perMonth := make(map[string]int)
	for date, n := range completed {
		if len(date) < 7 {
			continue
		}
		perMonth[date[:7]] += n
	}

	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]CompletionBucket, 0, monthBuckets)
	for i := monthBuckets - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		b := CompletionBucket{
			Label:     start.Format("Jan"),
			FromDate:  start.Format(DateLayout),
			ToDate:    start.AddDate(0, 1, -1).Format(DateLayout),
			Completed: perMonth[start.Format("2006-01")],
			Expected:  MonthlyExpectedExercises,
		}
		b.Percentage = min(completionPct(b.Completed, b.Expected), 100)
		b.Tier = ClassifyCompletion(b.Percentage)
		out = append(out, b)
	}
	return out
}

// ClassifyCompletion maps a completion percentage onto a display tier.
func ClassifyCompletion(pct int) CompletionTier {
	switch {
	case pct >= CompletionHighPct:
		return TierHigh
	case pct >= CompletionMediumPct:
		return TierMedium
	default:
		return TierLow
	}
}

// AverageCompletion is the rounded mean percentage across buckets.
func AverageCompletion(buckets []CompletionBucket) int {
	if len(buckets) == 0 {
		return 0
	}
	sum := 0
	for _, b := range buckets {
		sum += b.Percentage
	}
	return roundInt(float64(sum) / float64(len(buckets)))
}

// PlannedForDay returns the plan exercises scheduled on day.
func PlannedForDay(plan *model.WorkoutPlan, day time.Weekday) []model.PlanExercise {
	if plan == nil {
		return nil
	}
	out := make([]model.PlanExercise, 0)
	for _, ex := range plan.Exercises {
		if strings.EqualFold(strings.TrimSpace(ex.Day), day.String()) {
			out = append(out, ex)
		}
	}
	return out
}

func plannedPerWeekday(plan *model.WorkoutPlan) map[time.Weekday]int {
	out := make(map[time.Weekday]int, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out[d] = len(PlannedForDay(plan, d))
	}
	return out
}

func completionPct(completed, expected int) int {
	if expected <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(expected) * 100))
}
