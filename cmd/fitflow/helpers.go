package fitflow

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/fitflow/internal/app"
	"github.com/saadjs/fitflow/internal/db"
	"github.com/saadjs/fitflow/internal/inference"
	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/service"
)

func withDB(run func(*sql.DB) error) error {
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
	return run(sqldb)
}

// resolveDBPath prefers --db, then the config file and FITFLOW_DB, then the
// per-user default.
func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if appConfig != nil && appConfig.Database.Path != "" {
		return appConfig.Database.Path, nil
	}
	return app.DefaultDBPath()
}

func newInferenceClient() (*inference.Client, error) {
	if appConfig == nil || strings.TrimSpace(appConfig.Inference.APIKey) == "" {
		return nil, fmt.Errorf("inference is not configured; set FITFLOW_INFERENCE_API_KEY or inference.api_key in config.yaml")
	}
	c := inference.NewClient(appConfig.Inference.URL, appConfig.Inference.APIKey, appConfig.Inference.Model)
	if len(appConfig.Inference.Fallbacks) > 0 {
		c.Fallbacks = appConfig.Inference.Fallbacks
	}
	return c, nil
}

func foodSearchOptions(limit int) service.FoodSearchOptions {
	opts := service.FoodSearchOptions{Limit: limit}
	if appConfig == nil {
		return opts
	}
	opts.OpenFoodFactsURL = appConfig.Food.OpenFoodFactsURL
	opts.USDAURL = appConfig.Food.USDAURL
	opts.USDAAPIKey = appConfig.Food.USDAAPIKey
	opts.TTL = appConfig.Food.CacheTTL
	if opts.Limit <= 0 {
		opts.Limit = appConfig.Food.SearchLimit
	}
	return opts
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

// parseDateOrToday parses a --date flag value, defaulting to now.
func parseDateOrToday(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(metrics.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

func printJSON(w io.Writer, what string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s json: %w", what, err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
