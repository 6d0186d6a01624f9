package metrics

import "github.com/saadjs/fitflow/internal/model"

// TrendThresholdPct is the band around zero inside which a trend reads as flat.
const TrendThresholdPct = 5.0

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

type TrendStat struct {
	RecentAvg float64        `json:"recent_avg"`
	OlderAvg  float64        `json:"older_avg"`
	Percent   float64        `json:"trend_percentage"`
	Direction TrendDirection `json:"direction"`
}

type VitalsAverages struct {
	WaterGlasses float64 `json:"water_glasses"`
	SleepHours   float64 `json:"sleep_hours"`
	Steps        float64 `json:"steps"`
	Workouts     float64 `json:"workouts"`
}

type VitalsTrends struct {
	WaterGlasses TrendStat `json:"water_glasses"`
	SleepHours   TrendStat `json:"sleep_hours"`
	Steps        TrendStat `json:"steps"`
	Workouts     TrendStat `json:"workouts"`
}

type RollingMetrics struct {
	WindowSize    int            `json:"window_size"`
	DaysLogged    int            `json:"days_logged"`
	TotalWorkouts int            `json:"total_workouts"`
	Averages      VitalsAverages `json:"averages"`
	Trends        VitalsTrends   `json:"trends"`
}

// ComputeRollingMetrics averages daily vitals over a window and compares the
// recent half against the older half. logs must be ordered newest first; when
// windowSize is positive only the newest windowSize logs are considered. Days
// without a log record are absent, not zero.
func ComputeRollingMetrics(logs []model.DailyLog, windowSize int) RollingMetrics {
	if windowSize > 0 && len(logs) > windowSize {
		logs = logs[:windowSize]
	}
	out := RollingMetrics{
		WindowSize: windowSize,
		DaysLogged: len(logs),
		Trends: VitalsTrends{
			WaterGlasses: flatTrend(),
			SleepHours:   flatTrend(),
			Steps:        flatTrend(),
			Workouts:     flatTrend(),
		},
	}
	if len(logs) == 0 {
		return out
	}

	water := selectVitals(logs, func(l model.DailyLog) float64 { return float64(l.WaterGlasses) })
	sleep := selectVitals(logs, func(l model.DailyLog) float64 { return l.SleepHours })
	steps := selectVitals(logs, func(l model.DailyLog) float64 { return float64(l.Steps) })
	workouts := selectVitals(logs, func(l model.DailyLog) float64 { return float64(len(l.ExercisesCompleted)) })

	for _, l := range logs {
		out.TotalWorkouts += len(l.ExercisesCompleted)
	}
	out.Averages = VitalsAverages{
		WaterGlasses: mean(water),
		SleepHours:   mean(sleep),
		Steps:        mean(steps),
		Workouts:     mean(workouts),
	}
	out.Trends = VitalsTrends{
		WaterGlasses: halfSplitTrend(water),
		SleepHours:   halfSplitTrend(sleep),
		Steps:        halfSplitTrend(steps),
		Workouts:     halfSplitTrend(workouts),
	}
	return out
}

// halfSplitTrend compares the first floor(n/2) values (recent) with the rest
// (older). The percentage is zero whenever the older average is zero.
func halfSplitTrend(values []float64) TrendStat {
	half := len(values) / 2
	recent := mean(values[:half])
	older := mean(values[half:])
	pct := 0.0
	if older != 0 {
		pct = (recent - older) / older * 100
	}
	return TrendStat{
		RecentAvg: recent,
		OlderAvg:  older,
		Percent:   pct,
		Direction: ClassifyTrend(pct),
	}
}

// ClassifyTrend buckets a trend percentage into up, down or flat.
func ClassifyTrend(pct float64) TrendDirection {
	switch {
	case pct > TrendThresholdPct:
		return TrendUp
	case pct < -TrendThresholdPct:
		return TrendDown
	default:
		return TrendFlat
	}
}

func flatTrend() TrendStat {
	return TrendStat{Direction: TrendFlat}
}

func selectVitals(logs []model.DailyLog, selector func(model.DailyLog) float64) []float64 {
	out := make([]float64, len(logs))
	for i := range logs {
		out[i] = selector(logs[i])
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
