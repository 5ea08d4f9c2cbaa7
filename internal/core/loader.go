package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// Load parses a CSV stream into a Table.
//
// The first record is the header. Short records are padded with nulls;
// records with more fields than the header are rejected. Each column is
// typed as integer when every non-null cell parses as an integer, float
// when every non-null cell parses as a number, and text otherwise. A
// column with no non-null cells is float.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(WrapForDecoding(r))
	reader.FieldsPerRecord = -1 // ragged rows are handled below
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, readError(err)
	}

	names := headerNames(header)
	raw := make([][]string, len(names))

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		if len(record) > len(names) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, saw %d", len(names), len(record)),
			}
		}
		for j := range names {
			cell := ""
			if j < len(record) {
				cell = record[j]
			}
			raw[j] = append(raw[j], cell)
		}
	}

	columns := make([]*Column, len(names))
	for j, name := range names {
		columns[j] = inferColumn(name, raw[j])
	}
	return NewTable(columns...)
}

// readError classifies a reader failure. Syntax errors become ParseErrors;
// anything else (a body size limit, a closed connection) is passed through.
func readError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return fmt.Errorf("read upload: %w", err)
}

// headerNames names blank headers "Unnamed: <index>" and renames repeated
// headers to "name.1", "name.2", ... in order of appearance.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	counts := make(map[string]int, len(header))

	for i, name := range header {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		cur := counts[name]
		for cur > 0 {
			counts[name] = cur + 1
			name = name + "." + strconv.Itoa(cur)
			cur = counts[name]
		}
		names[i] = name
		counts[name] = cur + 1
	}
	return names
}

// inferColumn picks the narrowest kind that fits every non-null cell.
func inferColumn(name string, raw []string) *Column {
	kind := KindInteger
	seen := false

	for _, s := range raw {
		if IsNullToken(s) {
			continue
		}
		seen = true
		if kind == KindInteger {
			if _, ok := parseInt(s); ok {
				continue
			}
			kind = KindFloat
		}
		if _, ok := parseFloat(s); !ok {
			kind = KindText
			break
		}
	}
	if !seen {
		kind = KindFloat
	}

	switch kind {
	case KindInteger:
		cells := make([]pgtype.Int8, len(raw))
		for i, s := range raw {
			cells[i] = toInt8(s)
		}
		return NewIntColumn(name, cells)
	case KindFloat:
		cells := make([]pgtype.Float8, len(raw))
		for i, s := range raw {
			cells[i] = toFloat8(s)
		}
		return NewFloatColumn(name, cells)
	default:
		cells := make([]pgtype.Text, len(raw))
		for i, s := range raw {
			cells[i] = toText(s)
		}
		return NewTextColumn(name, cells)
	}
}
