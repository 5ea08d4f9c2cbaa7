package core

// Options selects how the pipeline derives its tables. The zero value
// leaves the table unchanged.
type Options struct {
	Strategy    Strategy   `json:"strategy" validate:"omitempty,oneof=none drop mean median mode"`
	Deduplicate bool       `json:"deduplicate"`
	Filter      FilterSpec `json:"filter"`
}

// Result holds the two derived tables of one pipeline run.
type Result struct {
	// Cleaned is the source after the missing-value strategy and the
	// optional deduplication.
	Cleaned *Table

	// Filtered is Cleaned restricted by the filter spec.
	Filtered *Table
}

// Run applies, in order, the missing-value strategy, deduplication, and
// the range and category filters to src. src is never modified; sets must
// be the classification of the originally loaded table.
func Run(src *Table, sets ColumnSets, opts Options) (*Result, error) {
	if err := validateStruct(opts); err != nil {
		return nil, err
	}

	cleaned, err := HandleMissing(src, sets, opts.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.Deduplicate {
		cleaned = Deduplicate(cleaned)
	}

	filtered, err := Filter(cleaned, sets, opts.Filter)
	if err != nil {
		return nil, err
	}

	return &Result{Cleaned: cleaned, Filtered: filtered}, nil
}
