package service

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"guardx/internal/common"
	"guardx/internal/domain/model"
)

const (
	FrameConfidence = 0.3

	healthCheckTimeout = 3 * time.Second
)

var ErrNoModelsLoaded = fmt.Errorf("no detection models loaded: %w", common.ErrServiceUnavailable)

// Engine runs a pretrained detector. Implementations may be remote.
type Engine interface {
	LoadModel(ctx context.Context, name, path string) (handle string, err error)
	Predict(ctx context.Context, handle string, image []byte, conf float64, classes []int) ([]model.RawDetection, error)
	CheckHealth(ctx context.Context) error
	Endpoint() string
}

// ModelHost owns the model registry. LoadModels writes it once at startup;
// afterwards it is only read.
type ModelHost struct {
	engine            Engine
	customPath        string
	fallbackModel     string
	defaultConfidence float64

	mu     sync.RWMutex
	models map[string]model.LoadedModel
	active string
}

func NewModelHost(engine Engine, customPath, fallbackModel string, defaultConfidence float64) *ModelHost {
	return &ModelHost{
		engine:            engine,
		customPath:        customPath,
		fallbackModel:     fallbackModel,
		defaultConfidence: defaultConfidence,
		models:            make(map[string]model.LoadedModel),
	}
}

// LoadModels asks the engine for the custom model, then the fallback. The
// custom model is preferred as active. Weight paths are resolved on the
// engine's filesystem, so a missing custom file is reported as a load
// failure. ErrNoModelsLoaded is returned only when nothing loaded.
func (h *ModelHost) LoadModels(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	slog.Info("Loading detection models", "engine", h.engine.Endpoint())

	if err := h.load(ctx, model.ModelCustom, model.ModelTypeCustom, h.customPath); err != nil {
		slog.Info("Custom model not loaded", "path", h.customPath, "error", err)
	}

	if err := h.load(ctx, model.ModelFallback, model.ModelTypeYOLO, h.fallbackModel); err != nil {
		slog.Error("Fallback model failed to load", "model", h.fallbackModel, "error", err)
	}

	switch {
	case h.has(model.ModelCustom):
		h.active = model.ModelCustom
	case h.has(model.ModelFallback):
		h.active = model.ModelFallback
	default:
		h.active = ""
		slog.Warn("No detection models loaded; detection endpoints will return 503")
		return ErrNoModelsLoaded
	}
	slog.Info("Active detection model selected", "model", h.active)
	return nil
}

func (h *ModelHost) load(ctx context.Context, name, modelType, path string) error {
	handle, err := h.engine.LoadModel(ctx, name, path)
	if err != nil {
		return err
	}
	h.models[name] = model.LoadedModel{Name: name, Type: modelType, Path: path, Handle: handle}
	slog.Info("Model loaded", "name", name, "path", path)
	return nil
}

func (h *ModelHost) has(name string) bool {
	_, ok := h.models[name]
	return ok
}

func (h *ModelHost) activeModel() (model.LoadedModel, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.models) == 0 {
		return model.LoadedModel{}, ErrNoModelsLoaded
	}
	m, ok := h.models[h.active]
	if !ok {
		return model.LoadedModel{}, fmt.Errorf("active model %q not available: %w", h.active, ErrNoModelsLoaded)
	}
	return m, nil
}

// DefaultConfidence is the threshold used when a request does not set one.
func (h *ModelHost) DefaultConfidence() float64 {
	return h.defaultConfidence
}

// Detect finds persons in img with the active model.
func (h *ModelHost) Detect(ctx context.Context, img image.Image, confidence float64) (*model.DetectionResult, error) {
	m, err := h.activeModel()
	if err != nil {
		return nil, err
	}
	if confidence <= 0 {
		confidence = h.defaultConfidence
	}

	start := time.Now()
	jpegBytes, err := EncodeJPEG(img)
	if err != nil {
		return nil, err
	}
	dets, err := h.engine.Predict(ctx, m.Handle, jpegBytes, confidence, []int{model.PersonClass})
	if err != nil {
		return nil, fmt.Errorf("detection with %s model failed: %w", m.Name, err)
	}

	result := buildResult(dets, 1)
	result.ModelType = m.Name
	result.ProcessingTime = roundSeconds(time.Since(start))
	result.ConfidenceThreshold = confidence
	return result, nil
}

// DetectFrame is the live-frame variant: frames wider than FrameMaxWidth
// are downsampled, a lower threshold is used, and boxes are mapped back to
// the original frame size.
func (h *ModelHost) DetectFrame(ctx context.Context, frame image.Image) (*model.DetectionResult, error) {
	m, err := h.activeModel()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	small, scale := Downscale(frame, FrameMaxWidth)
	jpegBytes, err := EncodeJPEG(small)
	if err != nil {
		return nil, err
	}
	dets, err := h.engine.Predict(ctx, m.Handle, jpegBytes, FrameConfidence, []int{model.PersonClass})
	if err != nil {
		slog.Warn("Frame detection failed", "model", m.Name, "error", err)
		return nil, fmt.Errorf("frame detection with %s model failed: %w", m.Name, err)
	}

	result := buildResult(dets, 1/scale)
	result.ModelType = m.Name
	result.ProcessingTime = roundSeconds(time.Since(start))
	result.ConfidenceThreshold = FrameConfidence
	return result, nil
}

func buildResult(dets []model.RawDetection, factor float64) *model.DetectionResult {
	result := model.EmptyResult()
	for _, d := range dets {
		box := d.Box.Normalized()
		if factor != 1 {
			box = box.Scaled(factor)
		}
		result.Boxes = append(result.Boxes, box)
		result.Confidences = append(result.Confidences, clamp01(d.Confidence))
	}
	result.Count = len(result.Boxes)
	return result
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

// HealthStatus probes the engine and reports the registry. Loaded models
// are DEGRADED while the engine is unreachable.
func (h *ModelHost) HealthStatus(ctx context.Context) model.HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	reachable := true
	if err := h.engine.CheckHealth(checkCtx); err != nil {
		slog.Warn("Inference engine health check failed", "engine", h.engine.Endpoint(), "error", err)
		reachable = false
	}
	modelStatus := model.ModelStatusOperational
	if !reachable {
		modelStatus = model.ModelStatusDegraded
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	status := model.HealthStatus{
		ModelsLoaded:        len(h.models) > 0,
		EngineReachable:     reachable,
		AvailableModels:     h.sortedNames(),
		Device:              h.engine.Endpoint(),
		ConfidenceThreshold: h.defaultConfidence,
		Models:              make(map[string]model.ModelStatus, len(h.models)),
	}
	if _, ok := h.models[h.active]; ok {
		name := h.active
		status.ActiveModel = &name
	}
	for name, m := range h.models {
		status.Models[name] = model.ModelStatus{Loaded: true, Type: m.Type, Status: modelStatus}
	}
	return status
}

func (h *ModelHost) ModelsInfo() []model.ModelInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]model.ModelInfo, 0, len(h.models))
	for _, name := range h.sortedNames() {
		m := h.models[name]
		infos = append(infos, model.ModelInfo{
			Name:   m.Name,
			Type:   m.Type,
			Path:   m.Path,
			Loaded: true,
			Active: name == h.active,
		})
	}
	return infos
}

// CustomModelAvailable reports whether the engine found and loaded the
// custom weights.
func (h *ModelHost) CustomModelAvailable() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.has(model.ModelCustom)
}

func (h *ModelHost) sortedNames() []string {
	names := make([]string, 0, len(h.models))
	for name := range h.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
