package service

import (
	"context"
	"fmt"
	"time"

	"guardx/internal/common"
	"guardx/internal/domain/model"
	"guardx/internal/domain/repository"
)

const (
	SystemName    = "GUARD-X MILITARY SURVEILLANCE"
	SystemVersion = "2.0.0-MILITARY"

	StatusOperational = "OPERATIONAL"
	StatusDegraded    = "DEGRADED"

	MaxPageSize     = 100
	DefaultPageSize = 20
)

// ModelStatusProvider is the read side of ModelHost.
type ModelStatusProvider interface {
	HealthStatus(ctx context.Context) model.HealthStatus
	ModelsInfo() []model.ModelInfo
	CustomModelAvailable() bool
}

type SystemService struct {
	models   ModelStatusProvider
	userRepo repository.UserRepository
	opRepo   repository.OperationRepository
	now      func() time.Time
}

func NewSystemService(models ModelStatusProvider, userRepo repository.UserRepository, opRepo repository.OperationRepository) *SystemService {
	return &SystemService{models: models, userRepo: userRepo, opRepo: opRepo, now: time.Now}
}

type Capabilities struct {
	ImageThreatDetection   bool              `json:"image_threat_detection"`
	RealtimeSurveillance   bool              `json:"realtime_surveillance"`
	MilitaryAuthentication bool              `json:"military_authentication"`
	CustomAIModel          bool              `json:"custom_ai_model"`
	ClearanceLevels        []model.Clearance `json:"clearance_levels"`
	ActiveUnits            []string          `json:"active_units"`
}

type SystemStatus struct {
	Classification string                       `json:"classification"`
	SystemName     string                       `json:"system_name"`
	Version        string                       `json:"version"`
	Status         string                       `json:"status"`
	Admin          string                       `json:"admin"`
	Timestamp      string                       `json:"timestamp"`
	Capabilities   Capabilities                 `json:"capabilities"`
	Models         map[string]model.ModelStatus `json:"models"`
	SecurityStatus string                       `json:"security_status"`
}

type Health struct {
	Status          string  `json:"status"`
	Timestamp       string  `json:"timestamp"`
	ModelsLoaded    bool    `json:"models_loaded"`
	EngineReachable bool    `json:"engine_reachable"`
	ActiveModel     *string `json:"active_model"`
}

type OperationPage struct {
	Operations []model.Operation `json:"operations"`
	Total      int               `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

// Health always reports the API as operational; the model and engine
// fields carry the detail.
func (s *SystemService) Health(ctx context.Context) Health {
	health := s.models.HealthStatus(ctx)
	return Health{
		Status:          "operational",
		Timestamp:       model.FormatTimestamp(s.now()),
		ModelsLoaded:    health.ModelsLoaded,
		EngineReachable: health.EngineReachable,
		ActiveModel:     health.ActiveModel,
	}
}

func (s *SystemService) Models() []model.ModelInfo {
	return s.models.ModelsInfo()
}

// Status is the admin view of the whole system.
func (s *SystemService) Status(ctx context.Context, admin *model.User) (*SystemStatus, error) {
	health := s.models.HealthStatus(ctx)

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	units := make([]string, 0, len(users))
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if !seen[u.Unit] {
			seen[u.Unit] = true
			units = append(units, u.Unit)
		}
	}

	status := StatusDegraded
	if health.ModelsLoaded && health.EngineReachable {
		status = StatusOperational
	}
	return &SystemStatus{
		Classification: string(model.ClearanceTopSecret),
		SystemName:     SystemName,
		Version:        SystemVersion,
		Status:         status,
		Admin:          admin.Username,
		Timestamp:      model.FormatTimestamp(s.now()),
		Capabilities: Capabilities{
			ImageThreatDetection:   true,
			RealtimeSurveillance:   true,
			MilitaryAuthentication: true,
			CustomAIModel:          s.models.CustomModelAvailable(),
			ClearanceLevels:        []model.Clearance{model.ClearanceSecret, model.ClearanceTopSecret},
			ActiveUnits:            units,
		},
		Models:         health.Models,
		SecurityStatus: "MAXIMUM",
	}, nil
}

// Operations pages through the operation log, newest first.
func (s *SystemService) Operations(ctx context.Context, limit, offset int) (*OperationPage, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 0 || limit > MaxPageSize || offset < 0 {
		return nil, fmt.Errorf("limit must be 1-%d and offset non-negative: %w", MaxPageSize, common.ErrBadRequest)
	}
	ops, total, err := s.opRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &OperationPage{Operations: ops, Total: total, Limit: limit, Offset: offset}, nil
}
