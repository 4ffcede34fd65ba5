package model

const (
	ModelCustom   = "custom"
	ModelFallback = "yolo"

	ModelTypeCustom = "Custom"
	ModelTypeYOLO   = "YOLO"

	ModelStatusOperational = "OPERATIONAL"
	// ModelStatusDegraded marks a loaded model whose engine is unreachable.
	ModelStatusDegraded = "DEGRADED"

	// PersonClass is the COCO class index for "person".
	PersonClass = 0
)

// LoadedModel is one entry in the model registry.
type LoadedModel struct {
	Name string
	Type string
	Path string
	// Handle is the engine-side identifier returned on load.
	Handle string
}

type ModelStatus struct {
	Loaded bool   `json:"loaded"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type HealthStatus struct {
	ModelsLoaded        bool                   `json:"models_loaded"`
	EngineReachable     bool                   `json:"engine_reachable"`
	ActiveModel         *string                `json:"active_model"`
	AvailableModels     []string               `json:"available_models"`
	Device              string                 `json:"device"`
	ConfidenceThreshold float64                `json:"confidence_threshold"`
	Models              map[string]ModelStatus `json:"models"`
}

type ModelInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Path   string `json:"path"`
	Loaded bool   `json:"loaded"`
	Active bool   `json:"active"`
}

// RawDetection is one box as reported by the inference engine, before
// normalization.
type RawDetection struct {
	Box        Box
	Confidence float64
	Class      int
}
