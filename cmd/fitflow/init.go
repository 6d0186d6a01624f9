package fitflow

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/app"
	"github.com/saadjs/fitflow/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local fitflow database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := app.EnsureDBDir(path); err != nil {
			return err
		}

		sqldb, err := db.Open(path)
		if err != nil {
			return err
		}
		defer sqldb.Close()

		if err := db.ApplyMigrations(sqldb); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized fitflow database at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
