package fitflow

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Track water, sleep and steps per day",
}

var (
	dailyDate  string
	dailyWater int
	dailySleep float64
	dailySteps int
	dailyNotes string
	dailyJSON  bool
	dailyFrom  string
	dailyTo    string
	dailyLimit int
)

var dailySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set vitals for a date (only given flags change)",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.UpsertDailyLogInput{Date: dailyDate}
		if cmd.Flags().Changed("water") {
			in.WaterGlasses = &dailyWater
		}
		if cmd.Flags().Changed("sleep") {
			in.SleepHours = &dailySleep
		}
		if cmd.Flags().Changed("steps") {
			in.Steps = &dailySteps
		}
		if cmd.Flags().Changed("notes") {
			in.Notes = &dailyNotes
		}
		if in.WaterGlasses == nil && in.SleepHours == nil && in.Steps == nil && in.Notes == nil {
			return fmt.Errorf("set at least one of --water, --sleep, --steps, --notes")
		}
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.UpsertDailyLog(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: water %d, sleep %.1fh, steps %d\n", l.LogDate, l.WaterGlasses, l.SleepHours, l.Steps)
			return nil
		})
	},
}

var dailyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one day's log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.GetDailyLog(sqldb, dailyDate)
			if err != nil {
				return err
			}
			if l == nil {
				return fmt.Errorf("no daily log for %s", displayDate(dailyDate))
			}
			if dailyJSON {
				return printJSON(cmd.OutOrStdout(), "daily log", l)
			}
			printDailyLog(cmd, *l)
			return nil
		})
	},
}

var dailyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List daily logs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			var (
				logs []model.DailyLog
				err  error
			)
			if dailyFrom != "" || dailyTo != "" {
				if dailyFrom == "" || dailyTo == "" {
					return fmt.Errorf("--from and --to must be used together")
				}
				logs, err = service.ListDailyLogs(sqldb, dailyFrom, dailyTo)
			} else {
				logs, err = service.LatestDailyLogs(sqldb, dailyLimit)
			}
			if err != nil {
				return err
			}
			if dailyJSON {
				return printJSON(cmd.OutOrStdout(), "daily logs", logs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tWATER\tSLEEP\tSTEPS\tEXERCISES")
			for _, l := range logs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%.1f\t%d\t%d\n", l.LogDate, l.WaterGlasses, l.SleepHours, l.Steps, len(l.ExercisesCompleted))
			}
			return nil
		})
	},
}

var dailyProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show a day's vitals against the configured goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.GetDailyLog(sqldb, dailyDate)
			if err != nil {
				return err
			}
			goals, err := service.VitalsGoals(sqldb)
			if err != nil {
				return err
			}
			p := metrics.ComputeDailyProgress(l, goals)
			if dailyJSON {
				return printJSON(cmd.OutOrStdout(), "daily progress", p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "METRIC\tPROGRESS\tGOAL")
			fmt.Fprintf(cmd.OutOrStdout(), "water\t%.0f%%\t%g glasses\n", p.WaterPct, goals.WaterGlasses)
			fmt.Fprintf(cmd.OutOrStdout(), "sleep\t%.0f%%\t%g hours\n", p.SleepPct, goals.SleepHours)
			fmt.Fprintf(cmd.OutOrStdout(), "steps\t%.0f%%\t%g steps\n", p.StepsPct, goals.Steps)
			fmt.Fprintf(cmd.OutOrStdout(), "Exercises completed: %d\n", p.CompletedExercises)
			return nil
		})
	},
}

func printDailyLog(cmd *cobra.Command, l model.DailyLog) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Date: %s\n", l.LogDate)
	fmt.Fprintf(out, "Water: %d glasses\n", l.WaterGlasses)
	fmt.Fprintf(out, "Sleep: %.1f hours\n", l.SleepHours)
	fmt.Fprintf(out, "Steps: %d\n", l.Steps)
	if l.Notes != "" {
		fmt.Fprintf(out, "Notes: %s\n", l.Notes)
	}
	names := make([]string, 0, len(l.ExercisesCompleted))
	for _, ex := range l.ExercisesCompleted {
		names = append(names, ex.ExerciseName)
	}
	if len(names) > 0 {
		fmt.Fprintf(out, "Completed: %s\n", strings.Join(names, ", "))
	}
}

func displayDate(date string) string {
	if strings.TrimSpace(date) == "" {
		return "today"
	}
	return date
}

func init() {
	rootCmd.AddCommand(dailyCmd)
	dailyCmd.AddCommand(dailySetCmd, dailyShowCmd, dailyListCmd, dailyProgressCmd)

	for _, c := range []*cobra.Command{dailySetCmd, dailyShowCmd, dailyProgressCmd} {
		c.Flags().StringVar(&dailyDate, "date", "", "Date YYYY-MM-DD (default today)")
	}
	dailySetCmd.Flags().IntVar(&dailyWater, "water", 0, "Glasses of water")
	dailySetCmd.Flags().Float64Var(&dailySleep, "sleep", 0, "Hours of sleep")
	dailySetCmd.Flags().IntVar(&dailySteps, "steps", 0, "Step count")
	dailySetCmd.Flags().StringVar(&dailyNotes, "notes", "", "Free-form notes")
	dailyListCmd.Flags().StringVar(&dailyFrom, "from", "", "Start date YYYY-MM-DD")
	dailyListCmd.Flags().StringVar(&dailyTo, "to", "", "End date YYYY-MM-DD")
	dailyListCmd.Flags().IntVar(&dailyLimit, "limit", 30, "Max logs when no range is given")
	for _, c := range []*cobra.Command{dailyShowCmd, dailyListCmd, dailyProgressCmd} {
		c.Flags().BoolVar(&dailyJSON, "json", false, "Output JSON")
	}
}
