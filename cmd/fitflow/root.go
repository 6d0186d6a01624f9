package fitflow

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/config"
)

var (
	dbPath     string
	configPath string
	appConfig  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fitflow",
	Short: "fitflow tracks meals, vitals and workouts from your terminal",
	Long:  "fitflow is a local-first fitness tracker: nutrition targets, daily vitals, workout plans, analytics and AI coaching insights.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
}
