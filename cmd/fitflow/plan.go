package fitflow

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage weekly workout plans",
}

var (
	planDay  string
	planDate string
	planJSON bool
)

var planImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import a workout plan from YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read plan file: %w", err)
		}
		plan, err := service.ParsePlanYAML(data)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.SavePlan(sqldb, plan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported plan %d: %s (%d exercises)\n", id, plan.PlanName, len(plan.Exercises))
			return nil
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active (latest) plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			plan, err := service.LatestPlan(sqldb)
			if err != nil {
				return err
			}
			if plan == nil {
				return fmt.Errorf("no workout plan yet; use `plan import` or `plan generate`")
			}
			if planJSON {
				return printJSON(cmd.OutOrStdout(), "plan", plan)
			}
			printPlan(cmd, plan, planDay)
			return nil
		})
	},
}

var planTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show planned exercises for a date with completion state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.PlanForDate(sqldb, planDate)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd.OutOrStdout(), "planned exercises", items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Rest day: nothing planned")
				return nil
			}
			printPlanned(cmd, items)
			return nil
		})
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			plans, err := service.ListPlans(sqldb)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd.OutOrStdout(), "plans", plans)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tGOAL\tINTENSITY\tWEEKS\tEXERCISES\tCREATED")
			for _, p := range plans {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
					p.ID, p.PlanName, p.Goal, p.Intensity, p.DurationWeeks, len(p.Exercises), p.CreatedAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a plan for the stored profile with the inference service",
	RunE: func(cmd *cobra.Command, args []string) error {
		llm, err := newInferenceClient()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			plan, err := service.GeneratePlan(context.Background(), sqldb, llm)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd.OutOrStdout(), "plan", plan)
			}
			printPlan(cmd, plan, "")
			return nil
		})
	},
}

func printPlan(cmd *cobra.Command, plan *model.WorkoutPlan, day string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Plan: %s (goal %s, %s, %d weeks)\n", plan.PlanName, plan.Goal, plan.Intensity, plan.DurationWeeks)
	fmt.Fprintln(out, "DAY\tEXERCISE\tCATEGORY\tMIN\tSETS\tREPS")
	for _, ex := range plan.Exercises {
		if day != "" && !strings.HasPrefix(strings.ToLower(ex.Day), strings.ToLower(strings.TrimSpace(day))) {
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\t%s\n", ex.Day, ex.ExerciseName, ex.Category, ex.DurationMinutes, ex.Sets, ex.Reps)
	}
}

func printPlanned(cmd *cobra.Command, items []service.PlannedExerciseStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "DONE\tEXERCISE\tCATEGORY\tMIN\tSETS\tREPS")
	for _, it := range items {
		mark := " "
		if it.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s]\t%s\t%s\t%d\t%d\t%s\n", mark, it.ExerciseName, it.Category, it.DurationMinutes, it.Sets, it.Reps)
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planImportCmd, planShowCmd, planTodayCmd, planListCmd, planGenerateCmd)

	planShowCmd.Flags().StringVar(&planDay, "day", "", "Only show one weekday (e.g. monday or mon)")
	planTodayCmd.Flags().StringVar(&planDate, "date", "", "Date YYYY-MM-DD (default today)")
	for _, c := range []*cobra.Command{planShowCmd, planTodayCmd, planListCmd, planGenerateCmd} {
		c.Flags().BoolVar(&planJSON, "json", false, "Output JSON")
	}
}
