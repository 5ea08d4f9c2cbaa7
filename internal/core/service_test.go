package core

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/insights/internal/config"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) ofType(typ EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T, mutate func(*config.Config)) (*Service, *recordingObserver) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	obs := &recordingObserver{}
	return NewService(cfg, obs), obs
}

func upload(t *testing.T, svc *Service, csv string) *Dataset {
	t.Helper()
	ds, err := svc.Upload(context.Background(), "scores.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return ds
}

func TestService_Upload(t *testing.T) {
	svc, obs := newTestService(t, nil)

	ds := upload(t, svc, scenarioCSV)
	if ds.ID == "" || ds.Name != "scores.csv" {
		t.Errorf("dataset = %+v", ds)
	}
	if ds.SizeBytes != int64(len(scenarioCSV)) {
		t.Errorf("SizeBytes = %d, want %d", ds.SizeBytes, len(scenarioCSV))
	}

	got, err := svc.Dataset(context.Background(), ds.ID)
	if err != nil || got != ds {
		t.Fatalf("Dataset(%s) = %v, %v", ds.ID, got, err)
	}

	accepted := obs.ofType(EventUploadAccepted)
	if len(accepted) != 1 {
		t.Fatalf("accepted events = %d, want 1", len(accepted))
	}
	if e := accepted[0]; e.Rows != 5 || e.Cols != 3 || e.DatasetID != ds.ID || e.Datasets != 1 {
		t.Errorf("event = %+v", e)
	}
}

func TestService_UploadRejected(t *testing.T) {
	svc, obs := newTestService(t, nil)

	_, err := svc.Upload(context.Background(), "bad.csv", strings.NewReader("a\n1,2\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}

	rejected := obs.ofType(EventUploadRejected)
	if len(rejected) != 1 || rejected[0].Code != "FILE002" {
		t.Errorf("rejected events = %+v", rejected)
	}
	if svc.Status().Datasets != 0 {
		t.Error("rejected upload was stored")
	}
}

func TestService_UploadBusy(t *testing.T) {
	svc, obs := newTestService(t, func(c *config.Config) {
		c.Upload.MaxConcurrent = 1
		c.Upload.MaxWaitTime = 20 * time.Millisecond
	})
	if !svc.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer svc.limiter.Release()

	_, err := svc.Upload(context.Background(), "scores.csv", strings.NewReader(scenarioCSV))
	if !errors.Is(err, ErrTooManyUploads) {
		t.Fatalf("error = %v, want ErrTooManyUploads", err)
	}
	if rejected := obs.ofType(EventUploadRejected); len(rejected) != 1 || rejected[0].Code != "UPL002" {
		t.Errorf("rejected events = %+v", rejected)
	}
}

func TestService_UploadEvicts(t *testing.T) {
	svc, obs := newTestService(t, func(c *config.Config) { c.Dataset.MaxCount = 1 })

	first := upload(t, svc, scenarioCSV)
	upload(t, svc, scenarioCSV)

	removed := obs.ofType(EventDatasetRemoved)
	if len(removed) != 1 || removed[0].DatasetID != first.ID || removed[0].Reason != RemovedEvicted {
		t.Errorf("removed events = %+v", removed)
	}
	if _, err := svc.Dataset(context.Background(), first.ID); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("evicted dataset: error = %v, want ErrDatasetNotFound", err)
	}
}

func TestService_Analyze(t *testing.T) {
	svc, obs := newTestService(t, nil)
	ds := upload(t, svc, scenarioCSV)

	a, err := svc.Analyze(context.Background(), ds.ID, AnalysisRequest{
		Options: Options{
			Strategy: StrategyMean,
			Filter: FilterSpec{
				Numeric:     &RangeFilter{Column: "score", Low: f64(10), High: f64(20)},
				Categorical: &CategoryFilter{Column: "label", Values: []string{"A", "B"}},
			},
		},
		HistogramColumn: "score",
		Bins:            4,
		BoxColumn:       "score",
		CategoryColumn:  "label",
	})
	if err != nil {
		t.Fatal(err)
	}

	if a.Original.TotalRows != 5 || len(a.Original.Rows) != 5 {
		t.Errorf("original view = %d/%d rows", len(a.Original.Rows), a.Original.TotalRows)
	}
	if a.Original.Rows[2][1] != nil {
		t.Errorf("original score[2] = %q, want null", *a.Original.Rows[2][1])
	}
	if cell := a.Cleaned.Rows[2][1]; cell == nil || *cell != "19.0" {
		t.Errorf("cleaned score[2] = %v, want 19.0", cell)
	}
	if a.Filtered.TotalRows != 3 {
		t.Errorf("filtered rows = %d, want 3", a.Filtered.TotalRows)
	}
	if a.CleanedProfile.Missing != 1 {
		t.Errorf("cleaned missing = %d, want 1", a.CleanedProfile.Missing)
	}
	if a.Histogram == nil || len(a.Histogram.Counts) != 4 || a.Histogram.Total != 5 {
		t.Errorf("histogram = %+v", a.Histogram)
	}
	if a.BoxPlot == nil || a.BoxPlot.Median != 18 {
		t.Errorf("box plot = %+v", a.BoxPlot)
	}
	if len(a.Categories) != 3 || a.Categories[0] != (CategoryCount{Value: "A", Count: 2}) {
		t.Errorf("categories = %+v", a.Categories)
	}

	want := RangeState{Column: "score", Min: 12, Max: 30, Low: 10, High: 20}
	if a.Range == nil || *a.Range != want {
		t.Errorf("range = %+v, want %+v", a.Range, want)
	}
	if !slices.Equal(a.CategoryChoices, []string{"A", "B", "C"}) {
		t.Errorf("category choices = %v", a.CategoryChoices)
	}

	events := obs.ofType(EventAnalysis)
	if len(events) != 1 || events[0].Rows != 3 || events[0].Strategy != StrategyMean {
		t.Errorf("analysis events = %+v", events)
	}
}

func TestService_AnalyzePreviewRows(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.Config) { c.Dataset.PreviewRows = 2 })
	ds := upload(t, svc, scenarioCSV)

	a, err := svc.Analyze(context.Background(), ds.ID, AnalysisRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Original.Rows) != 2 {
		t.Errorf("default preview = %d rows, want 2", len(a.Original.Rows))
	}

	a, err = svc.Analyze(context.Background(), ds.ID, AnalysisRequest{PreviewRows: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Original.Rows) != 4 {
		t.Errorf("requested preview = %d rows, want 4", len(a.Original.Rows))
	}
	if a.Histogram != nil || a.BoxPlot != nil || a.Categories != nil || a.Range != nil {
		t.Error("views were computed without being requested")
	}
}

func TestService_AnalyzeEmptyBoxPlot(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ds := upload(t, svc, "id,empty\n1,NA\n2,NA\n")

	a, err := svc.Analyze(context.Background(), ds.ID, AnalysisRequest{BoxColumn: "empty"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.BoxPlot != nil {
		t.Errorf("box plot = %+v, want nil", a.BoxPlot)
	}
}

func TestService_AnalyzeErrors(t *testing.T) {
	svc, obs := newTestService(t, nil)
	ds := upload(t, svc, scenarioCSV)

	tests := []struct {
		name string
		id   string
		req  AnalysisRequest
		code string
	}{
		{"unknown dataset", "nope", AnalysisRequest{}, "DS001"},
		{"too many bins", ds.ID, AnalysisRequest{Bins: 500}, "VAL001"},
		{"bad strategy", ds.ID, AnalysisRequest{Options: Options{Strategy: "zero"}}, "VAL001"},
		{"histogram of text", ds.ID, AnalysisRequest{HistogramColumn: "label"}, "COL002"},
		{"unknown category column", ds.ID, AnalysisRequest{CategoryColumn: "nope"}, "COL001"},
		{"inverted range", ds.ID, AnalysisRequest{Options: Options{Filter: FilterSpec{
			Numeric: &RangeFilter{Column: "score", Low: f64(5), High: f64(1)},
		}}}, "FLT001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.id, tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := MapError(err).Code; got != tt.code {
				t.Errorf("code = %s, want %s (err %v)", got, tt.code, err)
			}
		})
	}

	// Every failure except the missing dataset is reported
	if failed := obs.ofType(EventAnalysisFailed); len(failed) != len(tests)-1 {
		t.Errorf("failed events = %d, want %d", len(failed), len(tests)-1)
	}
}

func TestService_Export(t *testing.T) {
	svc, obs := newTestService(t, nil)
	ds := upload(t, svc, scenarioCSV)
	opts := Options{
		Strategy: StrategyDrop,
		Filter:   FilterSpec{Categorical: &CategoryFilter{Column: "label", Values: []string{"B"}}},
	}

	var cleaned, filtered, workbook bytes.Buffer
	if err := svc.Export(context.Background(), ds.ID, opts, ExportCleanedCSV, &cleaned); err != nil {
		t.Fatal(err)
	}
	if err := svc.Export(context.Background(), ds.ID, opts, ExportFilteredCSV, &filtered); err != nil {
		t.Fatal(err)
	}
	if err := svc.Export(context.Background(), ds.ID, opts, ExportWorkbook, &workbook); err != nil {
		t.Fatal(err)
	}

	if want := "id,score,label\n1,12.0,A\n2,18.0,B\n4,30.0,C\n"; cleaned.String() != want {
		t.Errorf("cleaned =\n%s\nwant\n%s", cleaned.String(), want)
	}
	if want := "id,score,label\n2,18.0,B\n"; filtered.String() != want {
		t.Errorf("filtered =\n%s\nwant\n%s", filtered.String(), want)
	}
	if !bytes.HasPrefix(workbook.Bytes(), []byte("PK")) {
		t.Error("workbook is not a zip archive")
	}

	exports := obs.ofType(EventExport)
	if len(exports) != 3 || exports[2].Format != ExportWorkbook {
		t.Errorf("export events = %+v", exports)
	}

	err := svc.Export(context.Background(), ds.ID, opts, ExportFormat("pdf"), &bytes.Buffer{})
	if MapError(err).Code != "VAL001" {
		t.Errorf("unknown format: code = %s, want VAL001", MapError(err).Code)
	}
}

func TestService_Clean(t *testing.T) {
	svc, obs := newTestService(t, nil)
	ds := upload(t, svc, scenarioCSV)

	got, res, err := svc.Clean(context.Background(), ds.ID, Options{Strategy: StrategyDrop})
	if err != nil {
		t.Fatal(err)
	}
	if got != ds {
		t.Error("Clean returned a different dataset")
	}
	if res.Cleaned.NumRows() != 3 {
		t.Errorf("cleaned rows = %d, want 3", res.Cleaned.NumRows())
	}
	if n := len(obs.ofType(EventAnalysis)); n != 0 {
		t.Errorf("Clean emitted %d analysis events", n)
	}

	if _, _, err := svc.Clean(context.Background(), "missing", Options{}); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("missing id: error = %v, want ErrDatasetNotFound", err)
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		f        ExportFormat
		name     string
		wantType string
	}{
		{ExportCleanedCSV, "cleaned_data.csv", "text/csv"},
		{ExportFilteredCSV, "filtered_data.csv", "text/csv"},
		{ExportWorkbook, "insights.xlsx", "spreadsheetml"},
	}
	for _, tt := range tests {
		if got := tt.f.FileName(); got != tt.name {
			t.Errorf("%s.FileName() = %q, want %q", tt.f, got, tt.name)
		}
		if got := tt.f.ContentType(); !strings.Contains(got, tt.wantType) {
			t.Errorf("%s.ContentType() = %q", tt.f, got)
		}
	}
}

func TestService_DeleteAndStatus(t *testing.T) {
	svc, obs := newTestService(t, nil)
	a := upload(t, svc, scenarioCSV)
	upload(t, svc, scenarioCSV)

	if got := svc.Status(); got.Datasets != 2 || got.Uploads.Active != 0 || got.Uploads.MaxConcurrent != 5 {
		t.Errorf("status = %+v", got)
	}

	if err := svc.Delete(context.Background(), a.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(context.Background(), a.ID); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("second Delete: error = %v, want ErrDatasetNotFound", err)
	}
	removed := obs.ofType(EventDatasetRemoved)
	if len(removed) != 1 || removed[0].Reason != RemovedDeleted || removed[0].Datasets != 1 {
		t.Errorf("removed events = %+v", removed)
	}
}

func TestService_WaitForUploads(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.WaitForUploads(ctx); err != nil {
		t.Errorf("WaitForUploads with nothing in flight: %v", err)
	}
}

func TestView(t *testing.T) {
	tbl := mustLoad(t, "a,b\n1,x\n2,NA\n3,z\n")

	v := View(tbl, 2)
	if !slices.Equal(v.Columns, []string{"a", "b"}) || v.TotalRows != 3 || len(v.Rows) != 2 {
		t.Fatalf("view = %+v", v)
	}
	if *v.Rows[0][1] != "x" || v.Rows[1][1] != nil {
		t.Errorf("rows = %v", v.Rows)
	}

	if got := View(tbl, 10); len(got.Rows) != 3 {
		t.Errorf("oversized view rows = %d, want 3", len(got.Rows))
	}
}
