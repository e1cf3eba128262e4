package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// Options controls the optional parts of a summary report.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// Outliers counts values whose robust Z-score (MAD) exceeds OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	// Correlations lists the strongest numeric column pairs.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for summary reports.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true, OutlierThreshold: 3.5, Correlations: true}
}

// Summary is the dataset overview: shape, numeric column count, missing cells
// and duplicate rows, plus a per-column profile.
type Summary struct {
	Name          string          `json:"name"`
	Rows          int             `json:"rows"`
	Cols          int             `json:"columns"`
	NumericCols   int             `json:"numeric_columns"`
	MissingCells  int             `json:"missing_cells"`
	DuplicateRows int             `json:"duplicate_rows"`
	Profiles      []ColumnProfile `json:"profiles,omitempty"`
	TopPairs      []PairCorr      `json:"top_pairs,omitempty"`
	Samples       [][]string      `json:"samples,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
	opt           Options
}

// ColumnProfile captures kind and headline statistics per column.
type ColumnProfile struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min  float64 `json:"-"`
	Max  float64 `json:"-"`
	Mean float64 `json:"-"`
	Std  float64 `json:"-"`
	// Outliers (robust Z via MAD)
	OutliersCount   int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ float64 `json:"-"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize builds the overview of t.
func Summarize(t *dataset.Table, opt Options) *Summary {
	s := &Summary{
		Name:          t.Name,
		Rows:          t.NumRows(),
		Cols:          t.NumCols(),
		NumericCols:   len(t.NumericColumns()),
		MissingCells:  t.MissingCount(),
		DuplicateRows: t.DuplicateRowCount(),
		opt:           opt,
	}
	for _, c := range t.Columns {
		s.Profiles = append(s.Profiles, profile(c, opt))
	}
	if opt.Correlations && s.NumericCols >= 2 {
		s.TopPairs = Correlation(t).TopPairs(10)
	}
	head := t.Head(opt.SampleRows)
	for i := 0; i < head.NumRows(); i++ {
		row := make([]string, head.NumCols())
		for j, cell := range head.Row(i) {
			if cell.Valid {
				row[j] = cell.Str
			}
		}
		s.Samples = append(s.Samples, row)
	}
	if s.NumericCols == 0 {
		s.Warnings = append(s.Warnings, "no numeric columns; statistics and plots are unavailable")
	}
	return s
}

func profile(c *dataset.Column, opt Options) ColumnProfile {
	p := ColumnProfile{Name: c.Name, Kind: c.Kind.String(), Missing: c.MissingCount()}
	p.NonNull = len(c.Cells) - p.Missing
	counts := map[string]int{}
	for _, cell := range c.Cells {
		if cell.Valid {
			counts[cell.Str]++
		}
	}
	p.Unique = len(counts)
	switch {
	case c.Kind.Numeric():
		vals := c.Floats()
		var w welford
		for _, v := range vals {
			w.add(v)
		}
		p.Min, p.Max, p.Mean, p.Std = w.min, w.max, w.mean, w.std()
		if opt.Outliers && len(vals) >= 8 {
			p.OutliersCount, p.OutliersMaxAbsZ = robustOutliers(vals, opt.OutlierThreshold)
		}
	case c.Kind == dataset.KindString || c.Kind == dataset.KindBool:
		tops := make([]CategoryCount, 0, len(counts))
		for k, v := range counts {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		p.TopValues = tops
	}
	return p
}

func robustOutliers(vals []float64, thr float64) (int, float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	var cnt int
	maxAbsZ := 0.0
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

func sortPairs(pairs []PairCorr) {
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
}

// Markdown renders a compact report for terminals and the web page.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", s.Cols))
	b.WriteString(fmt.Sprintf("Numeric columns: %d\n", s.NumericCols))
	b.WriteString(fmt.Sprintf("Missing cells: %d\n", s.MissingCells))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n", s.DuplicateRows))

	if len(s.Profiles) > 0 {
		b.WriteString("\n[SCHEMA]\n")
	}
	for _, c := range s.Profiles {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "int", "float":
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
				if !math.IsNaN(c.Std) {
					b.WriteString(fmt.Sprintf(", std %.4g", c.Std))
				}
			}
			if c.OutliersCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", c.OutliersCount, s.threshold(), c.OutliersMaxAbsZ))
			}
		case "string", "bool":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(s.TopPairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range s.TopPairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(s.Samples) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString("| ")
		for i, c := range s.Profiles {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(safeName(c.Name)))
		}
		b.WriteString(" |\n| ")
		for i := range s.Profiles {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range s.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				val = clip(val, 80)
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Summary) threshold() float64 {
	if s.opt.OutlierThreshold <= 0 {
		return 3.5
	}
	return s.opt.OutlierThreshold
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
