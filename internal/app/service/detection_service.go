package service

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strconv"
	"time"

	"guardx/internal/common"
	"guardx/internal/domain/model"
	"guardx/internal/domain/repository"
	"guardx/internal/platform/events"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Detector is the subset of ModelHost the detection service needs.
type Detector interface {
	Detect(ctx context.Context, img image.Image, confidence float64) (*model.DetectionResult, error)
	DetectFrame(ctx context.Context, frame image.Image) (*model.DetectionResult, error)
	DefaultConfidence() float64
}

// Runner executes a job on the inference pool.
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type DetectionService struct {
	detector Detector
	runner   Runner
	opRepo   repository.OperationRepository
	feed     events.Feed
	now      func() time.Time

	maxPixels int64
}

// NewDetectionService builds the service. maxPixels bounds decoded upload
// size; zero or less selects DefaultMaxImagePixels.
func NewDetectionService(detector Detector, runner Runner, opRepo repository.OperationRepository, feed events.Feed, maxPixels int64) *DetectionService {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	return &DetectionService{
		detector:  detector,
		runner:    runner,
		opRepo:    opRepo,
		feed:      feed,
		now:       time.Now,
		maxPixels: maxPixels,
	}
}

// Upload is one image received over HTTP.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseConfidence validates a confidence query value. An empty value means
// the host default.
func (s *DetectionService) ParseConfidence(raw string) (float64, error) {
	if raw == "" {
		return s.detector.DefaultConfidence(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("confidence %q is not a number: %w", raw, common.ErrBadRequest)
	}
	if v <= 0 || v > 1 {
		return 0, fmt.Errorf("confidence %v must be in (0, 1]: %w", v, common.ErrBadRequest)
	}
	return v, nil
}

// DetectUpload runs full detection on an uploaded image and records the
// operation.
func (s *DetectionService) DetectUpload(ctx context.Context, user *model.User, upload Upload, confidence float64) (*model.DetectionReport, error) {
	img, err := s.decode(upload)
	if err != nil {
		return nil, err
	}

	var result *model.DetectionResult
	err = s.runner.Do(ctx, func(ctx context.Context) error {
		var derr error
		result, derr = s.detector.Detect(ctx, img, confidence)
		return derr
	})
	if err != nil {
		return nil, err
	}

	report := s.newReport(user, upload.Filename, img, result)
	s.record(ctx, report, model.SourceUpload)
	return report, nil
}

// DetectFrame runs the lightweight live-frame detection.
func (s *DetectionService) DetectFrame(ctx context.Context, user *model.User, upload Upload) (*model.DetectionReport, error) {
	img, err := s.decode(upload)
	if err != nil {
		return nil, err
	}

	var result *model.DetectionResult
	err = s.runner.Do(ctx, func(ctx context.Context) error {
		var derr error
		result, derr = s.detector.DetectFrame(ctx, img)
		return derr
	})
	if err != nil {
		return nil, err
	}

	report := s.newReport(user, upload.Filename, img, result)
	s.record(ctx, report, model.SourceFrame)
	return report, nil
}

func (s *DetectionService) decode(upload Upload) (image.Image, error) {
	if !IsImageContentType(upload.ContentType) {
		return nil, fmt.Errorf("content type %q: %w", upload.ContentType, common.ErrUnsupportedMedia)
	}
	img, _, err := DecodeImage(upload.Data, s.maxPixels)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *DetectionService) newReport(user *model.User, filename string, img image.Image, result *model.DetectionResult) *model.DetectionReport {
	now := s.now()
	b := img.Bounds()
	return &model.DetectionReport{
		OperationID: model.NewOperationID(now),
		Operator:    user.Username,
		Unit:        user.Unit,
		Clearance:   user.Clearance,
		Result:      result,
		Threat:      model.ClassifyThreat(result.Count),
		Image: model.ImageMetadata{
			Filename: filename,
			Width:    b.Dx(),
			Height:   b.Dy(),
			Format:   model.ImageColorFormat,
		},
		Timestamp: now,
	}
}

// record persists the operation summary and pushes it to the feed. Neither
// failure affects the response.
func (s *DetectionService) record(ctx context.Context, report *model.DetectionReport, source string) {
	op := model.Operation{
		ID:                uuid.NewString(),
		OperationID:       report.OperationID,
		Operator:          report.Operator,
		Unit:              report.Unit,
		TargetsIdentified: report.Result.Count,
		ThreatLevel:       report.Threat,
		ModelUsed:         report.Result.ModelType,
		ProcessingTime:    report.Result.ProcessingTime,
		Filename:          slug.Make(report.Image.Filename),
		Source:            source,
		CreatedAt:         report.Timestamp.UTC(),
	}

	// Detached from request cancellation so a client hang-up still gets logged.
	ctx = context.WithoutCancel(ctx)
	if s.opRepo != nil {
		if err := s.opRepo.Create(ctx, &op); err != nil {
			slog.Error("Failed to record operation", "operation_id", op.OperationID, "error", err)
		}
	}
	if s.feed != nil {
		if err := s.feed.Push(ctx, op); err != nil {
			slog.Error("Failed to push detection feed entry", "operation_id", op.OperationID, "error", err)
		}
	}
	slog.Info("Detection complete",
		"operation_id", op.OperationID,
		"operator", op.Operator,
		"targets", op.TargetsIdentified,
		"threat", op.ThreatLevel,
		"source", source,
	)
}

// Recent returns the newest entries from the detection feed.
func (s *DetectionService) Recent(ctx context.Context, limit int) ([]model.Operation, error) {
	if s.feed == nil {
		return []model.Operation{}, nil
	}
	return s.feed.Recent(ctx, limit)
}
