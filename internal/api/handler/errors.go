package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"guardx/internal/app/service"
	"guardx/internal/common"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgInvalidFileType    = "INVALID FILE TYPE - IMAGE REQUIRED"
	msgNoModel            = "NO DETECTION MODEL LOADED"
	msgServiceUnavailable = "DETECTION SERVICE UNAVAILABLE - RETRY LATER"
	msgInternal           = "SYSTEM FAILURE - CONTACT ADMINISTRATOR"
)

// respondServiceError writes err with the status HTTPStatusFromError picks.
// Internal details are logged and never sent to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusFromError(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = http.StatusServiceUnavailable
	}

	switch {
	case errors.Is(err, common.ErrUnsupportedMedia):
		common.RespondWithError(w, status, msgInvalidFileType)
	case errors.Is(err, service.ErrNoModelsLoaded):
		common.RespondWithError(w, status, msgNoModel)
	case status == http.StatusServiceUnavailable:
		slog.Warn("Request could not be served", "request_id", middleware.GetReqID(r.Context()), "error", err)
		common.RespondWithError(w, status, msgServiceUnavailable)
	case status >= http.StatusInternalServerError:
		slog.Error("Request failed", "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
		common.RespondWithError(w, status, msgInternal)
	default:
		common.RespondWithError(w, status, err.Error())
	}
}
