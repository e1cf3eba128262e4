package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/eda"
	"github.com/KaramelBytes/edaloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	smSheet      string
	smSampleRows int
	smCorr       bool
	smOutliers   bool
	smOutlierThr float64
	smOutDir     string
	smQuiet      bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <files...>",
	Short: "Write a dataset summary for each file matched by the given paths or globs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		opt := analysis.DefaultOptions()
		opt.SampleRows = smSampleRows
		opt.Correlations = smCorr
		opt.Outliers = smOutliers
		if smOutlierThr > 0 {
			opt.OutlierThreshold = smOutlierThr
		}

		if smOutDir != "" {
			if err := os.MkdirAll(smOutDir, 0o755); err != nil {
				return fmt.Errorf("mkdir output dir: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !smQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := dataset.LoadFile(path, smSheet)
			if err != nil {
				return err
			}
			res, err := eda.Dispatch(t, eda.Summary, eda.Params{Summary: &opt})
			if err != nil {
				return err
			}
			md := res.Display.Markdown
			logger.Debug("summarized", "file", path, "rows", t.NumRows(), "cols", t.NumCols())

			if smOutDir == "" {
				fmt.Fprintln(out, md)
				continue
			}
			outFile, err := summaryPath(smOutDir, path)
			if err != nil {
				return err
			}
			if !smQuiet && filepath.Base(outFile) != stem(path)+".summary.md" {
				fmt.Fprintf(out, "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !smQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", outFile)
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and returns a
// sorted list without duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// summaryPath picks <stem>.summary.md in dir, or <stem>__N.summary.md when
// that name is taken.
func summaryPath(dir, input string) (string, error) {
	base := stem(input)
	for idx := 1; ; idx++ {
		name := base + ".summary.md"
		if idx > 1 {
			name = fmt.Sprintf("%s__%d.summary.md", base, idx)
		}
		cand := filepath.Join(dir, name)
		_, err := os.Stat(cand)
		if os.IsNotExist(err) {
			return cand, nil
		}
		if err != nil {
			return "", fmt.Errorf("check output path: %w", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&smSheet, "sheet", "", "spreadsheet sheet name (default: first sheet)")
	summarizeCmd.Flags().IntVar(&smSampleRows, "sample-rows", 5, "number of head rows to include (0 disables)")
	summarizeCmd.Flags().BoolVar(&smCorr, "correlations", true, "include the strongest Pearson correlations")
	summarizeCmd.Flags().BoolVar(&smOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	summarizeCmd.Flags().Float64Var(&smOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	summarizeCmd.Flags().StringVar(&smOutDir, "out-dir", "", "write <name>.summary.md files here instead of printing")
	summarizeCmd.Flags().BoolVar(&smQuiet, "quiet", false, "suppress progress and non-essential output")
}
