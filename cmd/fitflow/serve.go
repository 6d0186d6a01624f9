package fitflow

import (
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitflow/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		var origins []string
		if appConfig != nil {
			if addr == "" {
				addr = appConfig.Server.ListenAddr
			}
			origins = appConfig.Server.AllowedOrigins
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withDB(func(sqldb *sql.DB) error {
			logger := log.New(cmd.ErrOrStderr(), "fitflow ", log.LstdFlags)
			srv := api.NewServer(sqldb, api.Options{AllowedOrigins: origins, Logger: logger})
			return srv.ListenAndServe(ctx, addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
}
