package fitflow

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags puts every flag back to its default so rootCmd can run several
// times in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	for _, env := range []string{"FITFLOW_DB", "FITFLOW_INFERENCE_API_KEY", "FITFLOW_USDA_API_KEY"} {
		t.Setenv(env, "")
	}
}

func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--db", dbPath}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dbPath, args...)
	if err != nil {
		t.Fatalf("%s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestRootHelp(t *testing.T) {
	isolateEnv(t)
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	for _, want := range []string{"daily", "meal", "plan", "analytics", "serve"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in help output:\n%s", want, buf.String())
		}
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "fitflow.db")
	for i := 0; i < 2; i++ {
		out := mustRun(t, path, "init")
		if !strings.Contains(out, "Initialized fitflow database") {
			t.Fatalf("unexpected init output on run %d: %s", i+1, out)
		}
	}
}

func TestMissingExplicitConfigFails(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "fitflow.db")
	if _, err := runCLI(t, path, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "init"); err == nil {
		t.Fatalf("expected error for missing --config file")
	}
}

func TestVersionCommand(t *testing.T) {
	isolateEnv(t)
	out := mustRun(t, filepath.Join(t.TempDir(), "fitflow.db"), "version")
	if !strings.HasPrefix(out, "fitflow dev (commit none") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
