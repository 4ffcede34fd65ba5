package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"guardx/internal/api/middleware"
	"guardx/internal/api/presenter"
	"guardx/internal/app/service"
	"guardx/internal/common"
	"guardx/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const (
	uploadField       = "file"
	multipartMemLimit = 10 << 20
	defaultFeedLimit  = 20
)

type DetectionHandler struct {
	detectionService *service.DetectionService
	maxUploadBytes   int64
}

func NewDetectionHandler(ds *service.DetectionService, maxUploadBytes int64) *DetectionHandler {
	return &DetectionHandler{detectionService: ds, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes expects an authenticated, SECRET-cleared router.
func (h *DetectionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/detect", h.detect)
	r.Post("/v2/detect", h.detectV2)
	r.Post("/camera/frame", h.frame)
	r.Get("/detections/recent", h.recent)
}

func (h *DetectionHandler) detect(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runDetection(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, presenter.Compat(report))
}

func (h *DetectionHandler) detectV2(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runDetection(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, presenter.Military(report))
}

func (h *DetectionHandler) runDetection(w http.ResponseWriter, r *http.Request) (*model.DetectionReport, bool) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, msgBadCredentials)
		return nil, false
	}
	confidence, err := h.detectionService.ParseConfidence(r.URL.Query().Get("confidence"))
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	upload, ok := h.readUpload(w, r)
	if !ok {
		return nil, false
	}

	report, err := h.detectionService.DetectUpload(r.Context(), user, upload, confidence)
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	return report, true
}

func (h *DetectionHandler) frame(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	report, err := h.detectionService.DetectFrame(r.Context(), user, upload)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, presenter.Frame(report))
}

// readUpload extracts the multipart image. The content type check happens
// in the service, before any decoding or inference.
func (h *DetectionHandler) readUpload(w http.ResponseWriter, r *http.Request) (service.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "FILE TOO LARGE")
			return service.Upload{}, false
		}
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return service.Upload{}, false
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "FILE REQUIRED - multipart field \""+uploadField+"\"")
		return service.Upload{}, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !service.IsImageContentType(contentType) {
		common.RespondWithError(w, http.StatusBadRequest, msgInvalidFileType)
		return service.Upload{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return service.Upload{}, false
	}
	return service.Upload{Filename: header.Filename, ContentType: contentType, Data: data}, true
}

func (h *DetectionHandler) recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			common.RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}
	ops, err := h.detectionService.Recent(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"detections": ops,
		"count":      len(ops),
	})
}
