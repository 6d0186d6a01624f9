package fitflow

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/service"
)

var (
	todayDate string
	todayJSON bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show nutrition, vitals and planned workout for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseDateOrToday("date", todayDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			status, err := service.TodaySummary(sqldb, target)
			if err != nil {
				return err
			}
			if todayJSON {
				return printJSON(cmd.OutOrStdout(), "today", status)
			}
			out := cmd.OutOrStdout()
			a := status.Adherence
			fmt.Fprintf(out, "Date: %s\n", status.Date)
			if !status.HasProfile {
				fmt.Fprintln(out, "Profile: not set (using default targets)")
			}
			fmt.Fprintf(out, "Calories: %.0f / %d kcal (%.0f%%)\n", a.Totals.Calories, a.Targets.Calories, a.Percentages.Calories)
			fmt.Fprintf(out, "Protein: %.1f / %dg (%.0f%%)\n", a.Totals.ProteinG, a.Targets.ProteinG, a.Percentages.ProteinG)
			fmt.Fprintf(out, "Carbs: %.1f / %dg (%.0f%%)\n", a.Totals.CarbsG, a.Targets.CarbsG, a.Percentages.CarbsG)
			fmt.Fprintf(out, "Fat: %.1f / %dg (%.0f%%)\n", a.Totals.FatG, a.Targets.FatG, a.Percentages.FatG)
			for _, s := range a.Slices {
				fmt.Fprintf(out, "  %s: %.0f kcal (%.0f%%)\n", s.Name, s.Calories, s.SharePct)
			}
			fmt.Fprintf(out, "Meals logged: %d\n", len(status.Meals))
			if status.Vitals != nil {
				v := status.Vitals
				fmt.Fprintf(out, "Water: %d / %g glasses (%.0f%%)\n", v.WaterGlasses, status.Goals.WaterGlasses, status.Progress.WaterPct)
				fmt.Fprintf(out, "Sleep: %.1f / %gh (%.0f%%)\n", v.SleepHours, status.Goals.SleepHours, status.Progress.SleepPct)
				fmt.Fprintf(out, "Steps: %d / %g (%.0f%%)\n", v.Steps, status.Goals.Steps, status.Progress.StepsPct)
			} else {
				fmt.Fprintln(out, "Vitals: not logged")
			}
			if len(status.Planned) == 0 {
				fmt.Fprintln(out, "Workout: rest day")
				return nil
			}
			fmt.Fprintf(out, "Workout: %d planned, %d done\n", len(status.Planned), status.Progress.CompletedExercises)
			printPlanned(cmd, status.Planned)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output JSON")
}
