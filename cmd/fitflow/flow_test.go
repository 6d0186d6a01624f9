package fitflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saadjs/fitflow/internal/service"
)

const flowPlanYAML = `plan_name: Tuesday engine
goal: endurance
intensity: intermediate
duration_weeks: 4
exercises:
  - day: tuesday
    exercise_name: Tempo run
    category: cardio
    duration_minutes: 30
  - day: Tue
    exercise_name: Plank
    category: strength
    sets: 3
    reps: 45s
`

func TestDayInTheLifeFlow(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fitflow.db")

	mustRun(t, dbPath, "init")
	out := mustRun(t, dbPath, "profile", "set", "--weight", "70", "--goal", "weight_loss")
	if !strings.Contains(out, "goal: weight_loss") {
		t.Fatalf("unexpected profile set output: %s", out)
	}
	out = mustRun(t, dbPath, "profile", "targets", "--json")
	if !strings.Contains(out, `"calorie_target": 1750`) {
		t.Fatalf("expected 1750 kcal target, got: %s", out)
	}

	out = mustRun(t, dbPath, "daily", "set", "--date", "2026-02-10", "--water", "6", "--sleep", "7.5", "--steps", "9000")
	if !strings.Contains(out, "Saved 2026-02-10: water 6, sleep 7.5h, steps 9000") {
		t.Fatalf("unexpected daily set output: %s", out)
	}
	mustRun(t, dbPath, "daily", "set", "--date", "2026-02-10", "--notes", "easy day")
	out = mustRun(t, dbPath, "daily", "show", "--date", "2026-02-10")
	if !strings.Contains(out, "Water: 6 glasses") || !strings.Contains(out, "Notes: easy day") {
		t.Fatalf("partial update lost values: %s", out)
	}

	planPath := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(planPath, []byte(flowPlanYAML), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	out = mustRun(t, dbPath, "plan", "import", planPath)
	if !strings.Contains(out, "Tuesday engine (2 exercises)") {
		t.Fatalf("unexpected plan import output: %s", out)
	}

	out = mustRun(t, dbPath, "workout", "done", "Tempo", "run", "--date", "2026-02-10")
	if !strings.Contains(out, `Completed "Tempo run" on 2026-02-10 (1 exercise(s) done)`) {
		t.Fatalf("unexpected workout done output: %s", out)
	}
	out = mustRun(t, dbPath, "plan", "today", "--date", "2026-02-10")
	if !strings.Contains(out, "[x]\tTempo run") || !strings.Contains(out, "[ ]\tPlank") {
		t.Fatalf("unexpected plan today output: %s", out)
	}

	out = mustRun(t, dbPath, "meal", "add", "--type", "breakfast", "--date", "2026-02-10",
		"--food", "Oats|300|10|50|6|1 cup", "--food", "Milk|120|8|12|5")
	if !strings.Contains(out, "Logged 2 food(s) to breakfast on 2026-02-10") || !strings.Contains(out, "420 kcal total") {
		t.Fatalf("unexpected meal add output: %s", out)
	}

	out = mustRun(t, dbPath, "today", "--date", "2026-02-10")
	for _, want := range []string{"Calories: 420 / 1750 kcal", "Water: 6 / 8 glasses (75%)", "Workout: 2 planned, 1 done"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in today output:\n%s", want, out)
		}
	}

	out = mustRun(t, dbPath, "analytics", "completion", "--mode", "day", "--date", "2026-02-10", "--json")
	var completion service.CompletionReport
	if err := json.Unmarshal([]byte(out), &completion); err != nil {
		t.Fatalf("decode completion json: %v\n%s", err, out)
	}
	if len(completion.Buckets) != 7 {
		t.Fatalf("expected 7 day buckets, got %d", len(completion.Buckets))
	}
	last := completion.Buckets[6]
	if last.Completed != 1 || last.Expected != 2 || last.Percentage != 50 {
		t.Fatalf("unexpected last bucket: %+v", last)
	}

	out = mustRun(t, dbPath, "analytics", "wellness", "--type", "water", "--range", "week", "--date", "2026-02-10", "--json")
	var wellness service.WellnessReport
	if err := json.Unmarshal([]byte(out), &wellness); err != nil {
		t.Fatalf("decode wellness json: %v\n%s", err, out)
	}
	if len(wellness.Points) != 7 || wellness.Points[6].Value != 6 || wellness.Points[6].Target != 8 {
		t.Fatalf("unexpected wellness series: %+v", wellness.Points)
	}

	mustRun(t, dbPath, "workout", "undo", "tempo run", "--date", "2026-02-10")
	if _, err := runCLI(t, dbPath, "workout", "undo", "tempo run", "--date", "2026-02-10"); err == nil {
		t.Fatalf("expected undo of a non-completed exercise to fail")
	}

	mustRun(t, dbPath, "config", "set", "steps_goal", "12000")
	if out = mustRun(t, dbPath, "config", "get", "steps_goal"); strings.TrimSpace(out) != "12000" {
		t.Fatalf("unexpected config get output: %q", out)
	}
	out = mustRun(t, dbPath, "daily", "progress", "--date", "2026-02-10")
	if !strings.Contains(out, "steps\t75%\t12000 steps") {
		t.Fatalf("unexpected progress output: %s", out)
	}

	snapshot := filepath.Join(dir, "snapshot.json")
	out = mustRun(t, dbPath, "export", "--out", snapshot)
	if !strings.Contains(out, "Exported 1 daily log(s), 1 meal(s), 1 plan(s)") {
		t.Fatalf("unexpected export output: %s", out)
	}
	out = mustRun(t, dbPath, "import", "--in", snapshot, "--dry-run")
	if !strings.HasPrefix(out, "Dry run:") {
		t.Fatalf("unexpected dry-run output: %s", out)
	}

	xlsx := filepath.Join(dir, "report.xlsx")
	out = mustRun(t, dbPath, "analytics", "export", "--out", xlsx, "--range", "week", "--date", "2026-02-10")
	if !strings.Contains(out, "1 logs, 1 meals") {
		t.Fatalf("unexpected workbook export output: %s", out)
	}
	if _, err := os.Stat(xlsx); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}

	if out = mustRun(t, dbPath, "doctor"); !strings.Contains(out, "OK") {
		t.Fatalf("expected healthy doctor output: %s", out)
	}

	backups := filepath.Join(dir, "backups")
	out = mustRun(t, dbPath, "backup", "create", "--dir", backups)
	if !strings.Contains(out, "Created backup:") {
		t.Fatalf("unexpected backup output: %s", out)
	}
	if out = mustRun(t, dbPath, "backup", "list", "--dir", backups); !strings.Contains(out, "fitflow-") {
		t.Fatalf("expected backup in list: %s", out)
	}
}

func TestCLIEdgeCases(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "fitflow.db")
	mustRun(t, dbPath, "init")

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"meal without foods", []string{"meal", "add", "--type", "lunch"}, "at least one --food"},
		{"meal bad type", []string{"meal", "add", "--type", "brunch", "--food", "Toast|80|3|15|1"}, "brunch"},
		{"daily set without values", []string{"daily", "set"}, "set at least one"},
		{"daily bad date", []string{"daily", "set", "--date", "10/02/2026", "--water", "1"}, ""},
		{"completion bad mode", []string{"analytics", "completion", "--mode", "yearly"}, ""},
		{"remove-food bad index", []string{"meal", "remove-food", "1", "abc"}, "invalid food index"},
		{"delete bad id", []string{"meal", "delete", "0"}, "must be > 0"},
		{"insights without api key", []string{"analytics", "insights"}, "inference is not configured"},
		{"cache purge without scope", []string{"meal", "cache", "purge"}, "--provider"},
		{"config get unknown", []string{"config", "get", "nope"}, "not set"},
		{"daily show missing", []string{"daily", "show", "--date", "2026-01-01"}, "no daily log"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runCLI(t, dbPath, tc.args...)
			if err == nil {
				t.Fatalf("expected error, output: %s", out)
			}
			if tc.want != "" && !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
