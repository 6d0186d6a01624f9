package fitflow

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/service"
)

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Mark planned exercises as done",
}

var workoutDate string

var workoutDoneCmd = &cobra.Command{
	Use:   "done <exercise>",
	Short: "Mark an exercise completed on a date",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.MarkExerciseDone(sqldb, workoutDate, name, time.Time{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %q on %s (%d exercise(s) done)\n", strings.TrimSpace(name), l.LogDate, len(l.ExercisesCompleted))
			return nil
		})
	},
}

var workoutUndoCmd = &cobra.Command{
	Use:   "undo <exercise>",
	Short: "Remove an exercise from a date's completed list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.UndoExercise(sqldb, workoutDate, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Undid %q on %s (%d exercise(s) done)\n", strings.TrimSpace(name), l.LogDate, len(l.ExercisesCompleted))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(workoutCmd)
	workoutCmd.AddCommand(workoutDoneCmd, workoutUndoCmd)
	workoutDoneCmd.Flags().StringVar(&workoutDate, "date", "", "Date YYYY-MM-DD (default today)")
	workoutUndoCmd.Flags().StringVar(&workoutDate, "date", "", "Date YYYY-MM-DD (default today)")
}
