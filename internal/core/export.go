package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"
)

// CSV file names offered for download.
const (
	CleanedFileName  = "cleaned_data.csv"
	FilteredFileName = "filtered_data.csv"
	WorkbookFileName = "insights.xlsx"
)

// WriteCSV serializes t as CSV with a header row and no index column.
// Nulls are written as empty fields and floats always carry a decimal
// point, so Load reads the output back with the same column kinds.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.rows; i++ {
		if err := cw.Write(t.Record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Sheet is one named table in an exported workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteWorkbook writes each sheet as a worksheet of an XLSX file. Numbers
// are stored as numeric cells and nulls as blank cells.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("name sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("add sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	sw, err := f.NewStreamWriter(s.Name)
	if err != nil {
		return fmt.Errorf("open sheet %q: %w", s.Name, err)
	}

	header := make([]interface{}, s.Table.NumCols())
	for j, name := range s.Table.Names() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write sheet %q header: %w", s.Name, err)
	}

	for i := 0; i < s.Table.rows; i++ {
		row := make([]interface{}, s.Table.NumCols())
		for j, c := range s.Table.columns {
			row[j] = workbookCell(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write sheet %q row %d: %w", s.Name, i+1, err)
		}
	}
	return sw.Flush()
}

func workbookCell(c *Column, i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	switch c.kind {
	case KindInteger:
		v, _ := c.Int(i)
		return v
	case KindFloat:
		v, _ := c.Float(i)
		if math.IsInf(v, 0) {
			return FormatFloat(v)
		}
		return v
	default:
		v, _ := c.Text(i)
		return v
	}
}
