package eda

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks an operation that needs more numeric columns
	// than the table has. It is a warning: other operations stay available.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrColumn marks a bad column selection.
	ErrColumn = errors.New("invalid column")
)

// InsufficientDataError reports how many numeric columns an operation needs.
type InsufficientDataError struct {
	Op   Operation
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	noun := "columns"
	if e.Need == 1 {
		noun = "column"
	}
	return fmt.Sprintf("%s needs at least %d numeric %s, found %d", e.Op.Title(), e.Need, noun, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// ColumnError reports an unknown or unsuitable column selection.
type ColumnError struct {
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

func (e *ColumnError) Is(target error) bool { return target == ErrColumn }
