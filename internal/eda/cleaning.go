package eda

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// CleaningAction is one transform applied to the cleaning working copy.
type CleaningAction string

const (
	DropMissing    CleaningAction = "drop_missing"
	DropDuplicates CleaningAction = "drop_duplicates"
)

// ParseCleaningAction accepts drop_missing / drop_duplicates, also with
// dashes or in the short forms "dropna" and "dedupe".
func ParseCleaningAction(s string) (CleaningAction, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case string(DropMissing), "dropna", "drop_na":
		return DropMissing, nil
	case string(DropDuplicates), "dedupe", "drop_dupes":
		return DropDuplicates, nil
	}
	return "", fmt.Errorf("unknown cleaning action %q (expected %s or %s)", s, DropMissing, DropDuplicates)
}

// ParseCleaningActions splits a comma separated list.
func ParseCleaningActions(s string) ([]CleaningAction, error) {
	var out []CleaningAction
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, err := ParseCleaningAction(part)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Clean applies actions in order to one working copy of t. Each action sees
// the result of the previous one; t itself is never modified.
func Clean(t *dataset.Table, actions []CleaningAction) (*dataset.Table, error) {
	work := t.Clone()
	for _, a := range actions {
		switch a {
		case DropMissing:
			work = work.DropMissing()
		case DropDuplicates:
			work = work.DropDuplicates()
		default:
			return nil, fmt.Errorf("unknown cleaning action %q", a)
		}
	}
	return work, nil
}
