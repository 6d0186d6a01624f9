package fitflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/export"
	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/service"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Nutrition, vitals, completion and wellness analytics",
}

var (
	analyticsJSON      bool
	analyticsAsOf      string
	analyticsRange     string
	analyticsFrom      string
	analyticsTo        string
	analyticsTolerance float64
	analyticsMode      string
	analyticsField     string

	insightsKind    string
	insightsHistory bool
	insightsLimit   int

	exportOut string
)

var analyticsNutritionCmd = &cobra.Command{
	Use:   "nutrition",
	Short: "Meal totals, averages and adherence over a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseDateOrToday("to", analyticsTo)
		if err != nil {
			return err
		}
		from := to.AddDate(0, 0, -6)
		if analyticsFrom != "" {
			if from, err = parseDateOrToday("from", analyticsFrom); err != nil {
				return err
			}
		}
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.NutritionRange(sqldb, from, to, analyticsTolerance)
			if err != nil {
				return err
			}
			if analyticsJSON {
				return printJSON(cmd.OutOrStdout(), "nutrition analytics", r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Range: %s to %s\n", r.FromDate, r.ToDate)
			fmt.Fprintf(out, "Days with meals: %d\n", r.DaysWithMeals)
			fmt.Fprintf(out, "Total: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", r.TotalCalories, r.TotalProtein, r.TotalCarbs, r.TotalFat)
			fmt.Fprintf(out, "Average/day: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n",
				r.AverageCaloriesPerDay, r.AverageProteinPerDay, r.AverageCarbsPerDay, r.AverageFatPerDay)
			fmt.Fprintf(out, "Targets: %d kcal | P %dg | C %dg | F %dg\n", r.Targets.Calories, r.Targets.ProteinG, r.Targets.CarbsG, r.Targets.FatG)
			if r.HighestDay != nil && r.LowestDay != nil {
				fmt.Fprintf(out, "Highest: %s (%.0f kcal)\n", r.HighestDay.Date, r.HighestDay.Calories)
				fmt.Fprintf(out, "Lowest: %s (%.0f kcal)\n", r.LowestDay.Date, r.LowestDay.Calories)
			}
			fmt.Fprintf(out, "Within goal: %d/%d days (%.1f%%)\n", r.Adherence.WithinGoalDays, r.Adherence.EvaluatedDays, r.Adherence.PercentWithin)
			if len(r.ByMealType) > 0 {
				fmt.Fprintln(out, "MEAL\tKCAL\tP\tC\tF")
				for _, b := range r.ByMealType {
					fmt.Fprintf(out, "%s\t%.0f\t%.1f\t%.1f\t%.1f\n", b.MealType, b.Calories, b.Protein, b.Carbs, b.Fat)
				}
			}
			return nil
		})
	},
}

var analyticsMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Rolling vitals averages and trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		rng, err := service.ParseWindowRange(analyticsRange)
		if err != nil {
			return err
		}
		asOf, err := parseDateOrToday("date", analyticsAsOf)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.VitalsRange(sqldb, rng, asOf)
			if err != nil {
				return err
			}
			if analyticsJSON {
				return printJSON(cmd.OutOrStdout(), "vitals metrics", r)
			}
			m := r.Metrics
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Range: %s (%s to %s), %d day(s) logged\n", r.Range, r.FromDate, r.ToDate, m.DaysLogged)
			fmt.Fprintln(out, "METRIC\tAVERAGE\tTREND\tCHANGE")
			printTrend(cmd, "water", m.Averages.WaterGlasses, m.Trends.WaterGlasses)
			printTrend(cmd, "sleep", m.Averages.SleepHours, m.Trends.SleepHours)
			printTrend(cmd, "steps", m.Averages.Steps, m.Trends.Steps)
			printTrend(cmd, "workouts", m.Averages.Workouts, m.Trends.Workouts)
			fmt.Fprintf(out, "Total workouts: %d\n", m.TotalWorkouts)
			return nil
		})
	},
}

var analyticsCompletionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Workout completion against the active plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := service.ParseBucketMode(analyticsMode)
		if err != nil {
			return err
		}
		asOf, err := parseDateOrToday("date", analyticsAsOf)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.WorkoutCompletion(sqldb, mode, asOf)
			if err != nil {
				return err
			}
			if analyticsJSON {
				return printJSON(cmd.OutOrStdout(), "workout completion", r)
			}
			out := cmd.OutOrStdout()
			if r.PlanName != "" {
				fmt.Fprintf(out, "Plan: %s\n", r.PlanName)
			}
			fmt.Fprintln(out, "PERIOD\tFROM\tTO\tDONE\tEXPECTED\tPCT\tTIER")
			for _, b := range r.Buckets {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\t%d%%\t%s\n", b.Label, b.FromDate, b.ToDate, b.Completed, b.Expected, b.Percentage, b.Tier)
			}
			fmt.Fprintf(out, "Average: %d%% (%s)\n", r.Average, metrics.ClassifyCompletion(r.Average))
			return nil
		})
	},
}

var analyticsWellnessCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Daily sleep, water or steps series against the goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := service.ParseWellnessField(analyticsField)
		if err != nil {
			return err
		}
		rng, err := service.ParseWindowRange(analyticsRange)
		if err != nil {
			return err
		}
		asOf, err := parseDateOrToday("date", analyticsAsOf)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.Wellness(sqldb, field, rng, asOf)
			if err != nil {
				return err
			}
			if analyticsJSON {
				return printJSON(cmd.OutOrStdout(), "wellness", r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "LABEL\tDATE\tVALUE\tTARGET")
			for _, p := range r.Points {
				fmt.Fprintf(out, "%s\t%s\t%g\t%g\n", p.Label, p.Date, p.Value, p.Target)
			}
			fmt.Fprintf(out, "Average %s: %.1f\n", r.Field, r.Average)
			return nil
		})
	},
}

var analyticsInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate coaching insights, or list past ones with --history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if insightsHistory {
			return withDB(func(sqldb *sql.DB) error {
				reports, err := service.ListInsights(sqldb, insightsLimit)
				if err != nil {
					return err
				}
				if analyticsJSON {
					return printJSON(cmd.OutOrStdout(), "insights", reports)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ID\tKIND\tSCORE\tCREATED\tTOP RECOMMENDATION")
				for _, r := range reports {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.0f\t%s\t%s\n", r.ID, r.Kind, r.OverallScore, r.CreatedAt.Format(time.RFC3339), r.TopRecommendation)
				}
				return nil
			})
		}
		asOf, err := parseDateOrToday("date", analyticsAsOf)
		if err != nil {
			return err
		}
		llm, err := newInferenceClient()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.GenerateInsights(context.Background(), sqldb, llm, service.InsightKind(insightsKind), asOf)
			if err != nil {
				return err
			}
			if analyticsJSON {
				return printJSON(cmd.OutOrStdout(), "insights", r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s insights (score %.0f/100)\n", r.Kind, r.OverallScore)
			for _, in := range r.Insights {
				fmt.Fprintf(out, "[%s] %s: %s\n", in.Type, in.Title, in.Description)
			}
			if r.TopRecommendation != "" {
				fmt.Fprintf(out, "Top recommendation: %s\n", r.TopRecommendation)
			}
			return nil
		})
	},
}

var analyticsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an analytics workbook (.xlsx)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOut == "" {
			return fmt.Errorf("--out is required")
		}
		rng, err := service.ParseWindowRange(analyticsRange)
		if err != nil {
			return err
		}
		asOf, err := parseDateOrToday("date", analyticsAsOf)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			r, err := export.Collect(sqldb, rng, asOf)
			if err != nil {
				return err
			}
			if err := export.WriteFile(r, exportOut); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s to %s, %d logs, %d meals)\n", exportOut, r.FromDate, r.ToDate, len(r.Logs), len(r.Meals))
			return nil
		})
	},
}

func printTrend(cmd *cobra.Command, name string, avg float64, t metrics.TrendStat) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.1f\t%s\t%+.1f%%\n", name, avg, t.Direction, t.Percent)
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsNutritionCmd, analyticsMetricsCmd, analyticsCompletionCmd,
		analyticsWellnessCmd, analyticsInsightsCmd, analyticsExportCmd)

	analyticsCmd.PersistentFlags().BoolVar(&analyticsJSON, "json", false, "Output JSON")

	analyticsNutritionCmd.Flags().StringVar(&analyticsFrom, "from", "", "Start date YYYY-MM-DD (default 6 days before --to)")
	analyticsNutritionCmd.Flags().StringVar(&analyticsTo, "to", "", "End date YYYY-MM-DD (default today)")
	analyticsNutritionCmd.Flags().Float64Var(&analyticsTolerance, "tolerance", 0.10, "Macro tolerance as a fraction of target")

	for _, c := range []*cobra.Command{analyticsMetricsCmd, analyticsCompletionCmd, analyticsWellnessCmd, analyticsInsightsCmd, analyticsExportCmd} {
		c.Flags().StringVar(&analyticsAsOf, "date", "", "Window end date YYYY-MM-DD (default today)")
	}
	for _, c := range []*cobra.Command{analyticsMetricsCmd, analyticsWellnessCmd, analyticsExportCmd} {
		c.Flags().StringVar(&analyticsRange, "range", "week", "Window: week, month or year")
	}
	analyticsCompletionCmd.Flags().StringVar(&analyticsMode, "mode", "day", "Buckets: day, week or month")
	analyticsWellnessCmd.Flags().StringVar(&analyticsField, "type", "sleep", "Series: sleep, water or steps")

	analyticsInsightsCmd.Flags().StringVar(&insightsKind, "kind", "fitness", "Insights kind: fitness or nutrition")
	analyticsInsightsCmd.Flags().BoolVar(&insightsHistory, "history", false, "List stored insights instead of generating")
	analyticsInsightsCmd.Flags().IntVar(&insightsLimit, "limit", 10, "Max stored insights with --history")

	analyticsExportCmd.Flags().StringVar(&exportOut, "out", "", "Output .xlsx path")
}
