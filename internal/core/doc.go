// Package core provides the table model and analysis pipeline behind the
// insights dashboard.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Table: an immutable set of equal-length typed columns. Cells are
//     pgtype values; Valid=false marks a null.
//   - Loader: parses a CSV stream into a Table, inferring each column's
//     kind (integer, float, text) and classifying it as numeric or
//     categorical once.
//   - Pipeline: derives the cleaned table (missing-value strategy, then
//     deduplication) and the filtered table (cleaned, then range and
//     value-set filters) as fresh tables on every run.
//   - Service: the entry point for upload, analysis, export and deletion,
//     backed by an in-memory dataset store and a parse limiter.
//
// # Pipeline
//
//	tbl, err := core.Load(r)
//	sets := core.Classify(tbl)
//	res, err := core.Run(tbl, sets, core.Options{
//	    Strategy:    core.StrategyMean,
//	    Deduplicate: true,
//	    Filter: core.FilterSpec{
//	        Categorical: &core.CategoryFilter{Column: "label", Values: []string{"A", "B"}},
//	    },
//	})
//
// Each stage returns a new table. Columns that a stage does not touch are
// shared with its input, which is safe because no column is ever mutated.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (size, format, missing file)
//   - COL001-COL002: Column errors (unknown column, wrong column class)
//   - STAT001: Undefined statistics (mean of an all-null column)
//   - FLT001: Filter errors (inverted range)
//   - VAL001: Invalid option values
//   - DS001, UPL002-UPL005: Dataset and upload errors
package core
