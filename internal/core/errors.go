package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyFile is returned when the upload has no header row.
	ErrEmptyFile = errors.New("empty file: no header row")

	// ErrNoFile is returned when a request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDatasetNotFound is returned when no dataset is stored under an id,
	// usually because it expired.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// ParseError reports an upload that is not valid delimited text.
type ParseError struct {
	Line int // 1-based line, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownColumnError reports a column name that is not in the table.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// ColumnTypeError reports an operation requested on a column of the wrong
// class, such as a histogram of a text column.
type ColumnTypeError struct {
	Column    string
	Operation string
	Want      Class
	Got       Class
}

func (e *ColumnTypeError) Error() string {
	return fmt.Sprintf("wrong column class: %s requires a %s column, %q is %s",
		e.Operation, e.Want, e.Column, e.Got)
}

// StatisticUndefinedError reports a statistic requested over a column with
// no non-null values.
type StatisticUndefinedError struct {
	Column    string
	Statistic string
}

func (e *StatisticUndefinedError) Error() string {
	return fmt.Sprintf("statistic undefined: %s of column %q has no non-null values",
		e.Statistic, e.Column)
}

// InvalidRangeError reports a numeric filter whose lower bound exceeds its
// upper bound.
type InvalidRangeError struct {
	Column string
	Low    float64
	High   float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range for column %q: low %s exceeds high %s",
		e.Column, FormatFloat(e.Low), FormatFloat(e.High))
}

// ValidationError represents a single invalid option field.
type ValidationError struct {
	Field   string // Option name as it appears in requests
	Value   string // The rejected value
	Message string // Human-readable reason
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every invalid field of one request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "invalid options: " + strings.Join(parts, "; ")
}
