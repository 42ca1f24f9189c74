package conversionlog

import "time"

// Status of a finished conversion.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Source records where a conversion request came from.
type Source string

const (
	SourceFileMonitor Source = "FILE_MONITOR"
	SourceAPI         Source = "API"
	SourceManual      Source = "MANUAL"
)

// ConversionLog is one row of conversion history.
type ConversionLog struct {
	ID               int64     `db:"id" json:"id"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	OutputFilename   *string   `db:"output_filename" json:"outputFilename,omitempty"`
	Status           Status    `db:"status" json:"status"`
	ErrorMessage     *string   `db:"error_message" json:"errorMessage,omitempty"`
	SegmentCount     *int      `db:"segment_count" json:"segmentCount,omitempty"`
	Source           Source    `db:"source" json:"source"`
	Timestamp        time.Time `db:"timestamp" json:"timestamp"`
	ProcessingTimeMs *int64    `db:"processing_time_ms" json:"processingTimeMs,omitempty"`
}

// Stats summarizes the conversion history.
type Stats struct {
	Total       int64  `json:"total"`
	Success     int64  `json:"success"`
	Error       int64  `json:"error"`
	SuccessRate string `json:"successRate"`
}

// Page is one page of conversion logs plus paging metadata.
type Page struct {
	Data        []ConversionLog `json:"data"`
	CurrentPage int             `json:"currentPage"`
	TotalItems  int64           `json:"totalItems"`
	TotalPages  int             `json:"totalPages"`
}
