// Package eda routes a selected exploration operation against a loaded table.
package eda

import (
	"fmt"
	"strings"
)

// Operation is one of the fixed exploration operations.
type Operation int

const (
	Preview Operation = iota
	Summary
	BasicStatistics
	DataTypes
	MissingValues
	CorrelationHeatmap
	Pairplot
	DistributionPlot
	DataCleaning
	CustomQuery
)

var operationInfo = [...]struct {
	name, title, desc string
}{
	Preview:            {"preview", "Preview", "first rows of the dataset"},
	Summary:            {"summary", "Summary", "shape, numeric columns, missing cells and duplicate rows"},
	BasicStatistics:    {"stats", "Basic Statistics", "count, mean, std, min, quartiles and max per numeric column"},
	DataTypes:          {"types", "Data Types", "inferred type of every column"},
	MissingValues:      {"missing", "Missing Values", "missing cell count per column"},
	CorrelationHeatmap: {"correlation", "Correlation Heatmap", "pairwise Pearson correlation of numeric columns"},
	Pairplot:           {"pairplot", "Pairplot", "scatter plots for every pair of numeric columns"},
	DistributionPlot:   {"distribution", "Distribution Plot", "30-bin histogram of one numeric column"},
	DataCleaning:       {"cleaning", "Data Cleaning", "drop missing rows and duplicates, then export"},
	CustomQuery:        {"query", "Custom Query", "filter rows with an expression, then export"},
}

// Operations lists every operation in menu order.
func Operations() []Operation {
	out := make([]Operation, len(operationInfo))
	for i := range out {
		out[i] = Operation(i)
	}
	return out
}

func (o Operation) valid() bool { return o >= 0 && int(o) < len(operationInfo) }

// String returns the canonical short name, e.g. "stats".
func (o Operation) String() string {
	if !o.valid() {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return operationInfo[o].name
}

// Title is the menu label.
func (o Operation) Title() string {
	if !o.valid() {
		return o.String()
	}
	return operationInfo[o].title
}

// Description is a one-line explanation for help output.
func (o Operation) Description() string {
	if !o.valid() {
		return ""
	}
	return operationInfo[o].desc
}

// MarshalText encodes the canonical name.
func (o Operation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ParseOperation accepts a canonical name or a menu title, case-insensitively.
func ParseOperation(s string) (Operation, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, info := range operationInfo {
		if key == info.name || key == strings.ToLower(info.title) {
			return Operation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q (expected one of: %s)", s, strings.Join(Names(), ", "))
}

// Names returns the canonical operation names in menu order.
func Names() []string {
	names := make([]string, len(operationInfo))
	for i, info := range operationInfo {
		names[i] = info.name
	}
	return names
}
