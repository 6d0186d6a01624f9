package fitflow

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Orphan meal foods: %d\n", report.OrphanMealFoods)
			fmt.Fprintf(out, "Orphan completed exercises: %d\n", report.OrphanExercises)
			fmt.Fprintf(out, "Orphan plan exercises: %d\n", report.OrphanPlanExercises)
			fmt.Fprintf(out, "Stale meal totals: %d\n", report.StaleMealTotals)
			fmt.Fprintf(out, "Duplicate completions: %d\n", report.DuplicateCompletions)
			fmt.Fprintf(out, "Invalid insight rows: %d\n", report.InvalidInsights)
			if doctorFix {
				fmt.Fprintf(out, "Fixed rows: %d\n", report.FixedRows)
				// Exit status reflects the state after fixes.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			fmt.Fprintln(out, "OK")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
}
