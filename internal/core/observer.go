package core

import "time"

// EventType identifies a service lifecycle event.
type EventType string

const (
	EventUploadAccepted EventType = "upload_accepted"
	EventUploadRejected EventType = "upload_rejected"
	EventAnalysis       EventType = "analysis"
	EventAnalysisFailed EventType = "analysis_failed"
	EventExport         EventType = "export"
	EventDatasetRemoved EventType = "dataset_removed"
)

// Removal reasons carried by EventDatasetRemoved.
const (
	RemovedDeleted = "deleted"
	RemovedExpired = "expired"
	RemovedEvicted = "evicted"
)

// Event describes one service operation. Fields not relevant to the event
// type are left zero.
type Event struct {
	Type      EventType
	DatasetID string
	Duration  time.Duration
	Rows      int
	Cols      int
	Bytes     int64
	Strategy  Strategy
	Format    ExportFormat
	Code      string // user-facing error code for failures
	Reason    string // removal reason
	Datasets  int    // datasets stored after the event
}

// Observer receives service events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	OnEvent(event Event)
}

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}
