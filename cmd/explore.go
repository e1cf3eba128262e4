package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/eda"
	"github.com/KaramelBytes/edaloom/internal/render"
	"github.com/KaramelBytes/edaloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	exSample bool
	exSheet  string
	exOp     string
	exColumn string
	exQuery  string
	exClean  string
	exRows   int
	exBins   int
	exOut    string
	exChart  string
	exJSON   bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore [file]",
	Short: "Run one exploration operation on a CSV/TSV/XLSX/XLS file or the sample",
	Example: `  edaloom explore --sample --op summary
  edaloom explore sales.csv --op distribution --column revenue --chart revenue.png
  edaloom explore sales.csv --op cleaning --clean drop_missing,drop_duplicates --out clean.csv
  edaloom explore sales.csv --op query --query "region == 'EU' and revenue > 1000" --out eu.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exSample == (len(args) == 1) {
			return fmt.Errorf("specify exactly one of a file or --sample")
		}
		op, err := eda.ParseOperation(exOp)
		if err != nil {
			return err
		}
		actions, err := eda.ParseCleaningActions(exClean)
		if err != nil {
			return err
		}

		var t *dataset.Table
		if exSample {
			t, err = dataset.Load(dataset.Sample{})
		} else {
			t, err = dataset.LoadFile(args[0], exSheet)
		}
		if err != nil {
			return err
		}
		logger.Debug("dataset loaded", "name", t.Name, "rows", t.NumRows(), "cols", t.NumCols())

		p := eda.Params{
			PreviewRows: cfg.PreviewRows,
			Bins:        cfg.HistogramBins,
			Column:      exColumn,
			Cleaning:    actions,
			Query:       exQuery,
		}
		if exRows > 0 {
			p.PreviewRows = exRows
		}
		if exBins > 0 {
			p.Bins = exBins
		}

		out := cmd.OutOrStdout()
		res, err := eda.Dispatch(t, op, p)
		if err != nil {
			if errors.Is(err, eda.ErrInsufficientData) {
				fmt.Fprintf(out, "⚠ Warning: %v\n", err)
				return nil
			}
			return err
		}
		logger.Debug("operation finished", "operation", op.String(), "kind", string(res.Display.Kind))

		if exJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else if err := render.Text(out, res); err != nil {
			return err
		}

		if exOut != "" {
			if res.Download == nil {
				return fmt.Errorf("%s has nothing to download (use --op cleaning or --op query with --query)", op)
			}
			if err := utils.SafeWriteFile(exOut, res.Download.Data); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote %s to %s\n", res.Download.Filename, exOut)
		}
		if exChart != "" {
			img, err := render.PNG(res)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(exChart, img); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", exChart)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().BoolVar(&exSample, "sample", false, "use the bundled sample dataset")
	exploreCmd.Flags().StringVar(&exSheet, "sheet", "", "spreadsheet sheet name (default: first sheet)")
	exploreCmd.Flags().StringVar(&exOp, "op", "summary", "operation: "+strings.Join(eda.Names(), ", "))
	exploreCmd.Flags().StringVar(&exColumn, "column", "", "distribution: numeric column (default: first numeric)")
	exploreCmd.Flags().StringVarP(&exQuery, "query", "q", "", "query: filter expression")
	exploreCmd.Flags().StringVar(&exClean, "clean", "", "cleaning: comma-separated actions (drop_missing, drop_duplicates)")
	exploreCmd.Flags().IntVar(&exRows, "rows", 0, "preview: number of rows (default from config)")
	exploreCmd.Flags().IntVar(&exBins, "bins", 0, "distribution: histogram bins (default from config)")
	exploreCmd.Flags().StringVarP(&exOut, "out", "o", "", "write the cleaned or filtered CSV to this path")
	exploreCmd.Flags().StringVar(&exChart, "chart", "", "write the chart (correlation, pairplot, distribution) as PNG")
	exploreCmd.Flags().BoolVar(&exJSON, "json", false, "print the result as JSON")
}
