package model

import "time"

type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// ClassifyThreat maps a detection count to a coarse threat level:
// 0 LOW, 1 MEDIUM, 2-3 HIGH, more than 3 CRITICAL.
func ClassifyThreat(count int) ThreatLevel {
	switch {
	case count > 3:
		return ThreatCritical
	case count > 1:
		return ThreatHigh
	case count > 0:
		return ThreatMedium
	default:
		return ThreatLow
	}
}

const (
	MissionComplete  = "MISSION_COMPLETE"
	ThreatsDetected  = "THREATS_DETECTED"
	ImageColorFormat = "RGB"
)

// Box is a bounding box in pixel coordinates, serialized as [x1, y1, x2, y2].
type Box [4]float64

func (b Box) X1() float64 { return b[0] }
func (b Box) Y1() float64 { return b[1] }
func (b Box) X2() float64 { return b[2] }
func (b Box) Y2() float64 { return b[3] }

// Normalized returns b with its corners ordered so that x1<=x2 and y1<=y2.
func (b Box) Normalized() Box {
	if b[0] > b[2] {
		b[0], b[2] = b[2], b[0]
	}
	if b[1] > b[3] {
		b[1], b[3] = b[3], b[1]
	}
	return b
}

// Scaled multiplies every coordinate by factor.
func (b Box) Scaled(factor float64) Box {
	return Box{b[0] * factor, b[1] * factor, b[2] * factor, b[3] * factor}
}

// DetectionResult is the output of one inference call. Boxes and
// Confidences are parallel slices.
type DetectionResult struct {
	Boxes               []Box     `json:"boxes"`
	Count               int       `json:"count"`
	Confidences         []float64 `json:"confidences"`
	ModelType           string    `json:"model_type,omitempty"`
	ProcessingTime      float64   `json:"processing_time"` // seconds
	ConfidenceThreshold float64   `json:"confidence_threshold,omitempty"`
}

// EmptyResult returns a result with zero boxes and non-nil slices, so it
// serializes as [] rather than null.
func EmptyResult() *DetectionResult {
	return &DetectionResult{Boxes: []Box{}, Confidences: []float64{}}
}

type ImageMetadata struct {
	Filename string
	Width    int
	Height   int
	Format   string
}

// DetectionReport is the canonical result of one /detect call. API
// presenters derive their response shapes from it.
type DetectionReport struct {
	OperationID string
	Operator    string
	Unit        string
	Clearance   Clearance
	Result      *DetectionResult
	Threat      ThreatLevel
	Image       ImageMetadata
	Timestamp   time.Time
}

func (r *DetectionReport) Status() string {
	if r.Result.Count == 0 {
		return MissionComplete
	}
	return ThreatsDetected
}
