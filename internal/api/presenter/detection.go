// Package presenter renders the canonical detection report in the shapes
// clients expect.
package presenter

import (
	"fmt"

	"guardx/internal/domain/model"
)

const ClassificationRestricted = "RESTRICTED"

type DetectionDetail struct {
	TargetsIdentified   int               `json:"targets_identified"`
	ConfidenceScores    []float64         `json:"confidence_scores"`
	BoundingBoxes       []model.Box       `json:"bounding_boxes"`
	ThreatAssessment    model.ThreatLevel `json:"threat_assessment"`
	ModelUsed           string            `json:"model_used"`
	ProcessingTime      float64           `json:"processing_time"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
}

type ImageMetadata struct {
	Filename   string `json:"filename"`
	Dimensions string `json:"dimensions"`
	Format     string `json:"format"`
}

// MilitaryReport is the verbose v2 response.
type MilitaryReport struct {
	Classification string          `json:"classification"`
	OperationID    string          `json:"operation_id"`
	Operator       string          `json:"operator"`
	Unit           string          `json:"unit"`
	Clearance      model.Clearance `json:"clearance"`
	Detection      DetectionDetail `json:"detection"`
	ImageMetadata  ImageMetadata   `json:"image_metadata"`
	Timestamp      string          `json:"timestamp"`
	Status         string          `json:"status"`
}

type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LegacyReport is the compact shape older frontends read.
type LegacyReport struct {
	Success          bool        `json:"success"`
	Boxes            []model.Box `json:"boxes"`
	Count            int         `json:"count"`
	ConfidenceScores []float64   `json:"confidence_scores"`
	ModelUsed        string      `json:"model_used"`
	ProcessingTime   float64     `json:"processing_time"`
	ImageSize        ImageSize   `json:"image_size"`
}

// CompatReport carries both shapes at the top level. Their JSON field
// names must stay disjoint or encoding/json drops the duplicates.
type CompatReport struct {
	MilitaryReport
	LegacyReport
}

// FrameReport is the live-frame response.
type FrameReport struct {
	OperationID      string            `json:"operation_id"`
	Boxes            []model.Box       `json:"boxes"`
	Count            int               `json:"count"`
	ConfidenceScores []float64         `json:"confidence_scores"`
	ThreatAssessment model.ThreatLevel `json:"threat_assessment"`
	ModelUsed        string            `json:"model_used"`
	ProcessingTime   float64           `json:"processing_time"`
	Timestamp        string            `json:"timestamp"`
}

func Military(r *model.DetectionReport) MilitaryReport {
	return MilitaryReport{
		Classification: ClassificationRestricted,
		OperationID:    r.OperationID,
		Operator:       r.Operator,
		Unit:           r.Unit,
		Clearance:      r.Clearance,
		Detection: DetectionDetail{
			TargetsIdentified:   r.Result.Count,
			ConfidenceScores:    nonNilScores(r.Result.Confidences),
			BoundingBoxes:       nonNilBoxes(r.Result.Boxes),
			ThreatAssessment:    r.Threat,
			ModelUsed:           r.Result.ModelType,
			ProcessingTime:      r.Result.ProcessingTime,
			ConfidenceThreshold: r.Result.ConfidenceThreshold,
		},
		ImageMetadata: ImageMetadata{
			Filename:   r.Image.Filename,
			Dimensions: fmt.Sprintf("%dx%d", r.Image.Width, r.Image.Height),
			Format:     r.Image.Format,
		},
		Timestamp: model.FormatTimestamp(r.Timestamp),
		Status:    r.Status(),
	}
}

func Legacy(r *model.DetectionReport) LegacyReport {
	return LegacyReport{
		Success:          true,
		Boxes:            nonNilBoxes(r.Result.Boxes),
		Count:            r.Result.Count,
		ConfidenceScores: nonNilScores(r.Result.Confidences),
		ModelUsed:        r.Result.ModelType,
		ProcessingTime:   r.Result.ProcessingTime,
		ImageSize:        ImageSize{Width: r.Image.Width, Height: r.Image.Height},
	}
}

func Compat(r *model.DetectionReport) CompatReport {
	return CompatReport{MilitaryReport: Military(r), LegacyReport: Legacy(r)}
}

func Frame(r *model.DetectionReport) FrameReport {
	return FrameReport{
		OperationID:      r.OperationID,
		Boxes:            nonNilBoxes(r.Result.Boxes),
		Count:            r.Result.Count,
		ConfidenceScores: nonNilScores(r.Result.Confidences),
		ThreatAssessment: r.Threat,
		ModelUsed:        r.Result.ModelType,
		ProcessingTime:   r.Result.ProcessingTime,
		Timestamp:        model.FormatTimestamp(r.Timestamp),
	}
}

func nonNilBoxes(b []model.Box) []model.Box {
	if b == nil {
		return []model.Box{}
	}
	return b
}

func nonNilScores(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}
