package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so bound variables do not
// leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

const peopleCSV = "age,gender,income\n31,Male,52000\n22,Female,NA\n45,Male,61000\n45,Male,61000\n"

func TestCLI_ExploreSample(t *testing.T) {
	isolateHome(t)
	out := runCmd(t, "explore", "--sample", "--op", "summary")
	if !strings.Contains(out, "[DATASET SUMMARY]") || !strings.Contains(out, "File: tips") {
		t.Fatalf("unexpected summary output:\n%s", out)
	}
	out = runCmd(t, "explore", "--sample", "--op", "preview", "--rows", "3")
	if !strings.Contains(out, "(3 rows x 7 columns)") {
		t.Fatalf("unexpected preview output:\n%s", out)
	}
}

func TestCLI_ExploreCleaningWritesCSV(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "people.csv"), peopleCSV)
	outPath := filepath.Join(home, "out", "clean.csv")

	out := runCmd(t, "explore", in, "--op", "cleaning", "--clean", "drop_missing,drop_duplicates", "--out", outPath)
	if !strings.Contains(out, "✓ Wrote cleaned_dataset.csv") {
		t.Fatalf("missing confirmation:\n%s", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "age,gender,income\n31,Male,52000\n45,Male,61000\n" {
		t.Fatalf("cleaned csv = %q", b)
	}
}

func TestCLI_ExploreQuery(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "people.csv"), peopleCSV)
	outPath := filepath.Join(home, "filtered.csv")

	runCmd(t, "explore", in, "--op", "query", "--query", "age > 40 or gender == 'Female'", "--out", outPath)
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "age,gender,income\n22,Female,\n45,Male,61000\n45,Male,61000\n" {
		t.Fatalf("filtered csv = %q", b)
	}

	_, err = execute(t, "explore", in, "--op", "query", "--query", "age >>")
	if err == nil || !strings.Contains(err.Error(), "invalid query") {
		t.Fatalf("expected invalid query error, got %v", err)
	}
}

func TestCLI_ExploreChart(t *testing.T) {
	home := isolateHome(t)
	chart := filepath.Join(home, "corr.png")
	runCmd(t, "explore", "--sample", "--op", "correlation", "--chart", chart)
	b, err := os.ReadFile(chart)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatal("chart is not a PNG")
	}
	if _, err := execute(t, "explore", "--sample", "--op", "preview", "--chart", chart); err == nil {
		t.Fatal("expected error for preview chart")
	}
}

func TestCLI_ExploreJSON(t *testing.T) {
	isolateHome(t)
	out := runCmd(t, "explore", "--sample", "--op", "types", "--json")
	if !strings.Contains(out, `"operation": "types"`) || !strings.Contains(out, `"name": "total_bill"`) {
		t.Fatalf("unexpected json:\n%s", out)
	}
}

func TestCLI_ExploreWarnsOnInsufficientData(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "names.csv"), "name,age\nann,3\nbob,4\n")
	out := runCmd(t, "explore", in, "--op", "pairplot")
	if !strings.Contains(out, "⚠ Warning: Pairplot needs at least 2 numeric columns, found 1") {
		t.Fatalf("expected warning, got:\n%s", out)
	}
}

func TestCLI_ExploreArgumentErrors(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "a.csv"), "a\n1\n")
	cases := [][]string{
		{"explore"},
		{"explore", in, "--sample"},
		{"explore", in, "--op", "explode"},
		{"explore", in, "--op", "cleaning", "--clean", "shuffle"},
		{"explore", in, "--op", "summary", "--out", filepath.Join(home, "x.csv")},
		{"explore", filepath.Join(home, "notes.docx")},
	}
	for _, args := range cases {
		if _, err := execute(t, args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestCLI_Ops(t *testing.T) {
	isolateHome(t)
	out := runCmd(t, "ops")
	for _, want := range []string{"preview", "Correlation Heatmap", "Custom Query"} {
		if !strings.Contains(out, want) {
			t.Fatalf("ops output lacks %q:\n%s", want, out)
		}
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "config", "set", "preview_rows", "12")
	if _, err := os.Stat(filepath.Join(home, ".edaloom", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "preview_rows: 12") || !strings.Contains(out, "port: 8050") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := execute(t, "config", "set", "colour", "red"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
