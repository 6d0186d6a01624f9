package api_test

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/fitflow/internal/api"
	"github.com/saadjs/fitflow/internal/db"
	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/model"
	"github.com/saadjs/fitflow/internal/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "fitflow.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	srv := api.NewServer(sqldb, api.Options{
		Logger: log.New(io.Discard, "", 0),
		Now:    func() time.Time { return time.Date(2026, 2, 11, 12, 0, 0, 0, time.Local) },
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		sqldb.Close()
	})
	return ts, sqldb
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestTargetsAndToday(t *testing.T) {
	t.Parallel()
	ts, sqldb := newTestServer(t)

	var targets struct {
		HasProfile bool            `json:"has_profile"`
		Targets    metrics.Targets `json:"targets"`
	}
	resp := getJSON(t, ts.URL+"/api/targets", &targets)
	if resp.StatusCode != http.StatusOK || targets.HasProfile || targets.Targets.Calories != 1750 {
		t.Fatalf("unexpected targets response %d: %+v", resp.StatusCode, targets)
	}
	if resp.Header.Get(api.RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	if _, err := service.AddMeal(sqldb, service.AddMealInput{Date: "2026-02-11", MealType: "dinner", Foods: []model.FoodItem{{Name: "Soup", Calories: 350}}}); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	var today service.TodayStatus
	resp = getJSON(t, ts.URL+"/api/today", &today)
	if resp.StatusCode != http.StatusOK || today.Date != "2026-02-11" || len(today.Meals) != 1 || today.Adherence.Totals.Calories != 350 {
		t.Fatalf("unexpected today response %d: %+v", resp.StatusCode, today)
	}
	resp = getJSON(t, ts.URL+"/api/today?date=2026-02-10", &today)
	if resp.StatusCode != http.StatusOK || len(today.Meals) != 0 {
		t.Fatalf("expected empty day, got %+v", today)
	}

	var apiErr map[string]string
	resp = getJSON(t, ts.URL+"/api/today?date=yesterday", &apiErr)
	if resp.StatusCode != http.StatusBadRequest || apiErr["error"] == "" {
		t.Fatalf("expected 400 with error body, got %d %v", resp.StatusCode, apiErr)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	t.Parallel()
	ts, sqldb := newTestServer(t)
	sleep := 6.0
	if _, err := service.UpsertDailyLog(sqldb, service.UpsertDailyLogInput{Date: "2026-02-10", SleepHours: &sleep}); err != nil {
		t.Fatalf("upsert log: %v", err)
	}

	var vitals service.VitalsReport
	if resp := getJSON(t, ts.URL+"/api/metrics?range=month", &vitals); resp.StatusCode != http.StatusOK || vitals.Metrics.DaysLogged != 1 || vitals.ToDate != "2026-02-11" {
		t.Fatalf("unexpected metrics response %d: %+v", resp.StatusCode, vitals)
	}

	var completion service.CompletionReport
	if resp := getJSON(t, ts.URL+"/api/completion?mode=week", &completion); resp.StatusCode != http.StatusOK || len(completion.Buckets) != 4 {
		t.Fatalf("unexpected completion response %d: %+v", resp.StatusCode, completion)
	}

	var wellness service.WellnessReport
	if resp := getJSON(t, ts.URL+"/api/wellness?type=sleep&range=week", &wellness); resp.StatusCode != http.StatusOK || len(wellness.Points) != 7 || wellness.Points[5].Value != 6 {
		t.Fatalf("unexpected wellness response %d: %+v", resp.StatusCode, wellness)
	}

	for _, path := range []string{"/api/metrics?range=decade", "/api/completion?mode=hourly", "/api/wellness?type=mood"} {
		if resp := getJSON(t, ts.URL+path, nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestHealthMetricsAndRequestID(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	const id = "0b8f2a7e-4c1d-4f7a-9d3e-2a6b5c4d3e2f"
	req.Header.Set(api.RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get(api.RequestIDHeader) != id {
		t.Fatalf("expected 200 echoing request id, got %d %q", resp.StatusCode, resp.Header.Get(api.RequestIDHeader))
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "fitflow_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}
