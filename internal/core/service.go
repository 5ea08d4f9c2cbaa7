package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/logging"
)

// ExportFormat selects one of the downloadable files.
type ExportFormat string

const (
	ExportCleanedCSV  ExportFormat = "cleaned_csv"
	ExportFilteredCSV ExportFormat = "filtered_csv"
	ExportWorkbook    ExportFormat = "xlsx"
)

// FileName returns the download name for the format.
func (f ExportFormat) FileName() string {
	switch f {
	case ExportCleanedCSV:
		return CleanedFileName
	case ExportFilteredCSV:
		return FilteredFileName
	case ExportWorkbook:
		return WorkbookFileName
	default:
		return ""
	}
}

// ContentType returns the MIME type sent with the download.
func (f ExportFormat) ContentType() string {
	if f == ExportWorkbook {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// TableView is the first rows of a table rendered as display strings.
// A nil cell is null.
type TableView struct {
	Columns   []string    `json:"columns"`
	Rows      [][]*string `json:"rows"`
	TotalRows int         `json:"total_rows"`
}

// View renders the first n rows of t.
func View(t *Table, n int) TableView {
	head := t.Head(n)
	v := TableView{
		Columns:   t.Names(),
		Rows:      make([][]*string, head.NumRows()),
		TotalRows: t.NumRows(),
	}
	for i := range v.Rows {
		row := make([]*string, head.NumCols())
		for j, c := range head.Columns() {
			if !c.IsNull(i) {
				row[j] = ptr(c.Format(i))
			}
		}
		v.Rows[i] = row
	}
	return v
}

// AnalysisRequest selects the pipeline options and the views to compute.
// Empty column names skip the corresponding view.
type AnalysisRequest struct {
	Options         Options `json:"options" validate:"-"`
	HistogramColumn string  `json:"histogram_column,omitempty"`
	Bins            int     `json:"bins,omitempty" validate:"omitempty,min=1,max=200"`
	BoxColumn       string  `json:"box_column,omitempty"`
	CategoryColumn  string  `json:"category_column,omitempty"`
	PreviewRows     int     `json:"preview_rows,omitempty" validate:"omitempty,min=1,max=100"`
}

// RangeState describes the numeric filter control: the column's bounds in
// the cleaned table and the bounds actually applied.
type RangeState struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// Analysis is everything the dashboard shows for one request.
type Analysis struct {
	Dataset        *Dataset        `json:"dataset"`
	Request        AnalysisRequest `json:"request"`
	Original       TableView       `json:"original"`
	Cleaned        TableView       `json:"cleaned"`
	Filtered       TableView       `json:"filtered"`
	CleanedProfile TableProfile    `json:"cleaned_profile"`
	Summary        Summary         `json:"summary"`
	Histogram      *Histogram      `json:"histogram,omitempty"`
	BoxPlot        *BoxPlot        `json:"box_plot,omitempty"`
	Categories     []CategoryCount `json:"categories,omitempty"`

	// Range is set when a numeric filter is requested.
	Range *RangeState `json:"range,omitempty"`

	// CategoryChoices lists the distinct values of the categorical filter
	// column in the cleaned table.
	CategoryChoices []string `json:"category_choices,omitempty"`

	Result *Result `json:"-"`
}

// BuildAnalysis runs the pipeline over ds and computes the requested views
// over the cleaned table. A box plot of a column with no values is left
// nil rather than failing the analysis.
func BuildAnalysis(ds *Dataset, req AnalysisRequest, previewRows int) (*Analysis, error) {
	result, err := Run(ds.Table, ds.Sets, req.Options)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.PreviewRows > 0 {
		previewRows = req.PreviewRows
	}

	a := &Analysis{
		Dataset:        ds,
		Request:        req,
		Original:       View(ds.Table, previewRows),
		Cleaned:        View(result.Cleaned, previewRows),
		Filtered:       View(result.Filtered, previewRows),
		CleanedProfile: Profile(result.Cleaned),
		Result:         result,
	}

	if a.Summary, err = Describe(result.Cleaned, ds.Sets); err != nil {
		return nil, err
	}
	if req.HistogramColumn != "" {
		if a.Histogram, err = BuildHistogram(result.Cleaned, ds.Sets, req.HistogramColumn, req.Bins); err != nil {
			return nil, err
		}
	}
	if req.BoxColumn != "" {
		a.BoxPlot, err = BuildBoxPlot(result.Cleaned, ds.Sets, req.BoxColumn)
		var statErr *StatisticUndefinedError
		if err != nil && !errors.As(err, &statErr) {
			return nil, err
		}
	}
	if req.CategoryColumn != "" {
		if a.Categories, err = CountCategories(result.Cleaned, ds.Sets, req.CategoryColumn); err != nil {
			return nil, err
		}
	}

	if f := req.Options.Filter.Numeric; f != nil {
		lo, hi, err := Bounds(result.Cleaned, ds.Sets, f.Column)
		if err != nil {
			return nil, err
		}
		low, high, err := ResolveRange(result.Cleaned, ds.Sets, *f)
		if err != nil {
			return nil, err
		}
		a.Range = &RangeState{Column: f.Column, Min: lo, Max: hi, Low: low, High: high}
	}
	if f := req.Options.Filter.Categorical; f != nil {
		if a.CategoryChoices, err = Distinct(result.Cleaned, ds.Sets, f.Column); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// ServiceStatus is a snapshot for the status endpoint.
type ServiceStatus struct {
	Uploads  UploadLimiterStatus `json:"uploads"`
	Datasets int                 `json:"datasets"`
}

// Service is the entry point for dataset operations. It is safe for
// concurrent use.
type Service struct {
	store         *Store
	limiter       *UploadLimiter
	observer      Observer
	previewRows   int
	sweepInterval time.Duration
}

// NewService creates a Service from cfg. A nil obs discards events.
func NewService(cfg *config.Config, obs Observer) *Service {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Service{
		store:         NewStore(cfg.Dataset.TTL, cfg.Dataset.MaxCount),
		limiter:       NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		observer:      obs,
		previewRows:   cfg.Dataset.PreviewRows,
		sweepInterval: cfg.Dataset.SweepInterval,
	}
}

// Upload parses r as CSV and stores the resulting dataset under a new ID.
// Parsing waits for a limiter slot first.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader) (*Dataset, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "file", name)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.rejectUpload(ctx, name, err, time.Since(start))
		return nil, err
	}
	defer s.limiter.Release()

	counter := NewCountingReader(r)
	t, err := Load(counter)
	if err != nil {
		s.rejectUpload(ctx, name, err, time.Since(start))
		return nil, err
	}

	ds := NewDataset(name, t)
	ds.SizeBytes = counter.BytesRead()
	for _, id := range s.store.Put(ds) {
		logger.Info("dataset evicted", "dataset_id", id)
		s.observer.OnEvent(Event{Type: EventDatasetRemoved, DatasetID: id, Reason: RemovedEvicted, Datasets: s.store.Len()})
	}

	elapsed := time.Since(start)
	logger.Info("dataset uploaded",
		"dataset_id", ds.ID,
		"rows", t.NumRows(),
		"cols", t.NumCols(),
		"nulls", ds.Profile.Missing,
		"bytes", ds.SizeBytes,
		"duration_ms", elapsed.Milliseconds(),
	)
	s.observer.OnEvent(Event{
		Type:      EventUploadAccepted,
		DatasetID: ds.ID,
		Duration:  elapsed,
		Rows:      t.NumRows(),
		Cols:      t.NumCols(),
		Bytes:     ds.SizeBytes,
		Datasets:  s.store.Len(),
	})
	return ds, nil
}

func (s *Service) rejectUpload(ctx context.Context, name string, err error, elapsed time.Duration) {
	code := MapError(err).Code
	logging.WithFields(ctx, "file", name).Warn("upload rejected", "code", code, "error", err)
	s.observer.OnEvent(Event{Type: EventUploadRejected, Duration: elapsed, Code: code})
}

// Dataset returns the stored dataset for id.
func (s *Service) Dataset(ctx context.Context, id string) (*Dataset, error) {
	return s.store.Get(id)
}

// Clean runs the pipeline for the dataset under id and returns its
// result. Used for views that only need the tables, such as charts.
func (s *Service) Clean(ctx context.Context, id string, opts Options) (*Dataset, *Result, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(ds.Table, ds.Sets, opts)
	if err != nil {
		return nil, nil, err
	}
	return ds, result, nil
}

// Analyze runs req against the stored dataset for id.
func (s *Service) Analyze(ctx context.Context, id string, req AnalysisRequest) (*Analysis, error) {
	start := time.Now()
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	a, err := BuildAnalysis(ds, req, s.previewRows)
	if err != nil {
		code := MapError(err).Code
		logging.WithFields(ctx, "dataset_id", id).Debug("analysis failed", "code", code, "error", err)
		s.observer.OnEvent(Event{Type: EventAnalysisFailed, DatasetID: id, Strategy: req.Options.Strategy, Code: code})
		return nil, err
	}

	s.observer.OnEvent(Event{
		Type:      EventAnalysis,
		DatasetID: id,
		Duration:  time.Since(start),
		Rows:      a.Result.Filtered.NumRows(),
		Cols:      a.Result.Filtered.NumCols(),
		Strategy:  req.Options.Strategy,
	})
	return a, nil
}

// Export runs the pipeline for the dataset under id and writes the file
// selected by format to w.
func (s *Service) Export(ctx context.Context, id string, opts Options, format ExportFormat, w io.Writer) error {
	start := time.Now()
	ds, err := s.store.Get(id)
	if err != nil {
		return err
	}
	result, err := Run(ds.Table, ds.Sets, opts)
	if err != nil {
		return err
	}

	var table *Table
	switch format {
	case ExportCleanedCSV:
		table, err = result.Cleaned, WriteCSV(w, result.Cleaned)
	case ExportFilteredCSV:
		table, err = result.Filtered, WriteCSV(w, result.Filtered)
	case ExportWorkbook:
		table, err = result.Filtered, WriteWorkbook(w,
			Sheet{Name: "cleaned", Table: result.Cleaned},
			Sheet{Name: "filtered", Table: result.Filtered},
		)
	default:
		return ValidationErrors{{Field: "format", Value: string(format), Message: "is not a known export format"}}
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	logging.WithFields(ctx, "dataset_id", id).Info("dataset exported", "format", format, "rows", table.NumRows())
	s.observer.OnEvent(Event{
		Type:      EventExport,
		DatasetID: id,
		Duration:  time.Since(start),
		Rows:      table.NumRows(),
		Cols:      table.NumCols(),
		Strategy:  opts.Strategy,
		Format:    format,
	})
	return nil
}

// Delete forgets the dataset under id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.store.Delete(id) {
		return ErrDatasetNotFound
	}
	logging.WithFields(ctx, "dataset_id", id).Info("dataset deleted")
	s.observer.OnEvent(Event{Type: EventDatasetRemoved, DatasetID: id, Reason: RemovedDeleted, Datasets: s.store.Len()})
	return nil
}

// Status reports limiter occupancy and the stored dataset count.
func (s *Service) Status() ServiceStatus {
	return ServiceStatus{
		Uploads:  s.limiter.Status(),
		Datasets: s.store.Len(),
	}
}

// WaitForUploads blocks until in-flight parses finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// RunSweeper removes expired datasets until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context) error {
	return s.store.Run(ctx, s.sweepInterval, func(ids []string) {
		remaining := s.store.Len()
		for _, id := range ids {
			s.observer.OnEvent(Event{Type: EventDatasetRemoved, DatasetID: id, Reason: RemovedExpired, Datasets: remaining})
		}
	})
}
