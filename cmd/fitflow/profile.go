package fitflow

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your body profile and fitness goal",
}

var (
	profileWeight    float64
	profileHeight    float64
	profileAge       int
	profileGoal      string
	profileBodyType  string
	profileIntensity string
	profileJSON      bool
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the profile (only given flags change)",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.UpdateProfileInput{
			FitnessGoal:      profileGoal,
			BodyType:         profileBodyType,
			WorkoutIntensity: profileIntensity,
		}
		if cmd.Flags().Changed("weight") {
			in.WeightKg = &profileWeight
		}
		if cmd.Flags().Changed("height") {
			in.HeightCm = &profileHeight
		}
		if cmd.Flags().Changed("age") {
			in.Age = &profileAge
		}
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.UpdateProfile(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated profile (goal: %s, weight: %s kg)\n", p.FitnessGoal, optionalFloat(p.WeightKg))
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.GetProfile(sqldb)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("no profile yet; run `fitflow profile set`")
			}
			if profileJSON {
				return printJSON(cmd.OutOrStdout(), "profile", p)
			}
			age := "-"
			if p.Age != nil {
				age = fmt.Sprintf("%d", *p.Age)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Weight: %s kg\n", optionalFloat(p.WeightKg))
			fmt.Fprintf(out, "Height: %s cm\n", optionalFloat(p.HeightCm))
			fmt.Fprintf(out, "Age: %s\n", age)
			fmt.Fprintf(out, "Goal: %s\n", p.FitnessGoal)
			fmt.Fprintf(out, "Body type: %s\n", p.BodyType)
			fmt.Fprintf(out, "Intensity: %s\n", p.WorkoutIntensity)
			return nil
		})
	},
}

var profileTargetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show daily calorie and macro targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			t, p, err := service.ProfileTargets(sqldb)
			if err != nil {
				return err
			}
			if profileJSON {
				return printJSON(cmd.OutOrStdout(), "targets", t)
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile set; using defaults (70 kg, weight loss)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calories: %d kcal\nProtein: %dg\nCarbs: %dg\nFat: %dg\n", t.Calories, t.ProteinG, t.CarbsG, t.FatG)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd, profileTargetsCmd)

	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Body weight in kg")
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileSetCmd.Flags().IntVar(&profileAge, "age", 0, "Age in years")
	profileSetCmd.Flags().StringVar(&profileGoal, "goal", "", "weight_loss|muscle_gain|general|flexibility|posture_improvement|endurance")
	profileSetCmd.Flags().StringVar(&profileBodyType, "body-type", "", "ectomorph|mesomorph|endomorph")
	profileSetCmd.Flags().StringVar(&profileIntensity, "intensity", "", "beginner|intermediate|advanced")
	profileShowCmd.Flags().BoolVar(&profileJSON, "json", false, "Output JSON")
	profileTargetsCmd.Flags().BoolVar(&profileJSON, "json", false, "Output JSON")
}
