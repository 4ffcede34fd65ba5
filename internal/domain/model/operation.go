package model

import (
	"fmt"
	"time"
)

// OperationIDPrefix plus a second-resolution timestamp forms the
// operation id returned to clients, e.g. GUARD-X-20240131-235959.
const OperationIDPrefix = "GUARD-X"

// TimestampLayout is local ISO-8601 with microseconds and no zone suffix,
// as the dashboard parses it.
const TimestampLayout = "2006-01-02T15:04:05.000000"

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func NewOperationID(t time.Time) string {
	return fmt.Sprintf("%s-%s", OperationIDPrefix, t.Format("20060102-150405"))
}

// Operation is the persisted summary of one detection request. Boxes and
// image bytes are never stored.
type Operation struct {
	ID                string      `json:"id"`
	OperationID       string      `json:"operation_id"`
	Operator          string      `json:"operator"`
	Unit              string      `json:"unit"`
	TargetsIdentified int         `json:"targets_identified"`
	ThreatLevel       ThreatLevel `json:"threat_assessment"`
	ModelUsed         string      `json:"model_used"`
	ProcessingTime    float64     `json:"processing_time"`
	Filename          string      `json:"filename"`
	Source            string      `json:"source"` // "upload" or "frame"
	CreatedAt         time.Time   `json:"created_at"`
}

const (
	SourceUpload = "upload"
	SourceFrame  = "frame"
)
