package query

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is matched by every *InvalidQueryError.
var ErrInvalidQuery = errors.New("invalid query")

// InvalidQueryError reports a filter expression that failed to scan, parse,
// bind or evaluate. Pos is a byte offset into Expr.
type InvalidQueryError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s (at offset %d)", e.Msg, e.Pos)
}

func (e *InvalidQueryError) Is(target error) bool { return target == ErrInvalidQuery }
