package fitflow

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log and review meals",
}

var (
	mealType     string
	mealDate     string
	mealFoods    []string
	mealJSON     bool
	mealEstimate bool
)

var mealAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add foods to a meal slot",
	Long:  "Add foods to a meal slot. Each --food is name|calories|protein|carbs|fat[|serving].",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(mealFoods) == 0 {
			return fmt.Errorf("at least one --food is required")
		}
		foods := make([]model.FoodItem, 0, len(mealFoods))
		for _, spec := range mealFoods {
			f, err := service.ParseFoodSpec(spec)
			if err != nil {
				return err
			}
			foods = append(foods, f)
		}
		return withDB(func(sqldb *sql.DB) error {
			return addFoods(cmd, sqldb, foods)
		})
	},
}

var mealListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meals for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			meals, err := service.ListMeals(sqldb, mealDate)
			if err != nil {
				return err
			}
			if mealJSON {
				return printJSON(cmd.OutOrStdout(), "meals", meals)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tTYPE\t#\tFOOD\tKCAL\tP\tC\tF")
			for _, m := range meals {
				for i, f := range m.Foods {
					fmt.Fprintf(out, "%d\t%s\t%d\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n", m.ID, m.MealType, i, f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG)
				}
				fmt.Fprintf(out, "%d\t%s\t-\ttotal\t%.0f\t%.1f\t%.1f\t%.1f\n", m.ID, m.MealType, m.TotalCalories, m.TotalProteinG, m.TotalCarbsG, m.TotalFatG)
			}
			return nil
		})
	},
}

var mealDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a meal and its foods",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteMeal(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %d\n", id)
			return nil
		})
	},
}

var mealRemoveFoodCmd = &cobra.Command{
	Use:   "remove-food <meal-id> <index>",
	Short: "Remove one food from a meal by position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		idx, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return fmt.Errorf("invalid food index %q", args[1])
		}
		return withDB(func(sqldb *sql.DB) error {
			m, err := service.RemoveMealFood(sqldb, id, idx)
			if err != nil {
				return err
			}
			if m == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed last food; meal %d deleted\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meal %d now has %d food(s), %.0f kcal\n", m.ID, len(m.Foods), m.TotalCalories)
			return nil
		})
	},
}

var mealEstimateCmd = &cobra.Command{
	Use:   "estimate <description>",
	Short: "Estimate nutrition for a free-text meal description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		llm, err := newInferenceClient()
		if err != nil {
			return err
		}
		foods, err := service.EstimateFoods(context.Background(), llm, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if !mealEstimate {
			if mealJSON {
				return printJSON(cmd.OutOrStdout(), "foods", foods)
			}
			printFoods(cmd, foods)
			return nil
		}
		return withDB(func(sqldb *sql.DB) error {
			return addFoods(cmd, sqldb, foods)
		})
	},
}

func addFoods(cmd *cobra.Command, sqldb *sql.DB, foods []model.FoodItem) error {
	m, err := service.AddMeal(sqldb, service.AddMealInput{
		Date:     mealDate,
		MealType: strings.ToLower(strings.TrimSpace(mealType)),
		Foods:    foods,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %d food(s) to %s on %s (meal %d, %.0f kcal total)\n",
		len(foods), m.MealType, m.LogDate, m.ID, m.TotalCalories)
	return nil
}

func printFoods(cmd *cobra.Command, foods []model.FoodItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "FOOD\tKCAL\tP\tC\tF\tSERVING")
	for _, f := range foods {
		fmt.Fprintf(out, "%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\n", f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG, f.ServingSize)
	}
}

func init() {
	rootCmd.AddCommand(mealCmd)
	mealCmd.AddCommand(mealAddCmd, mealListCmd, mealDeleteCmd, mealRemoveFoodCmd, mealEstimateCmd)

	for _, c := range []*cobra.Command{mealAddCmd, mealEstimateCmd} {
		c.Flags().StringVar(&mealType, "type", "", "Meal type: breakfast, lunch, dinner or snack")
		c.Flags().StringVar(&mealDate, "date", "", "Date YYYY-MM-DD (default today)")
	}
	mealAddCmd.Flags().StringArrayVar(&mealFoods, "food", nil, "Food as name|kcal|protein|carbs|fat[|serving] (repeatable)")
	_ = mealAddCmd.MarkFlagRequired("type")
	mealListCmd.Flags().StringVar(&mealDate, "date", "", "Date YYYY-MM-DD (default today)")
	mealListCmd.Flags().BoolVar(&mealJSON, "json", false, "Output JSON")
	mealEstimateCmd.Flags().BoolVar(&mealEstimate, "add", false, "Log the estimated foods (requires --type)")
	mealEstimateCmd.Flags().BoolVar(&mealJSON, "json", false, "Output JSON")
}
